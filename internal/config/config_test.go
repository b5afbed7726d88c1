package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, 3, cfg.Session.GraceSeconds)
	assert.Equal(t, 30_000, cfg.Session.ResponseTailBytes)
	assert.False(t, cfg.Session.Retention.Enabled)
	assert.NotEmpty(t, cfg.Robot.SerialGlobs)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		shouldErr bool
	}{
		{"defaults are valid", func(c *Config) {}, false},
		{"port too low", func(c *Config) { c.Server.Port = 0 }, true},
		{"port too high", func(c *Config) { c.Server.Port = 70000 }, true},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }, true},
		{"zero grace", func(c *Config) { c.Session.GraceSeconds = 0 }, true},
		{"tiny tail", func(c *Config) { c.Session.ResponseTailBytes = 100 }, true},
		{"retention without max age", func(c *Config) {
			c.Session.Retention.Enabled = true
			c.Session.Retention.MaxAgeHours = 0
		}, true},
		{"retention without schedule", func(c *Config) {
			c.Session.Retention.Enabled = true
			c.Session.Retention.Schedule = ""
		}, true},
		{"retention enabled properly", func(c *Config) {
			c.Session.Retention.Enabled = true
		}, false},
		{"no serial globs", func(c *Config) { c.Robot.SerialGlobs = nil }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.shouldErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoader_MissingFileUsesDefaults(t *testing.T) {
	loader := NewLoader(filepath.Join(t.TempDir(), "missing.json"))
	cfg, err := loader.Load()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.NotEmpty(t, cfg.Store.Path)
	assert.NotEmpty(t, cfg.Robot.CalibrationDir)
}

func TestLoader_ReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "robomgr.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"server": {"host": "127.0.0.1", "port": 9090},
		"session": {"grace_seconds": 5}
	}`), 0o644))

	loader := NewLoader(path)
	cfg, err := loader.Load()
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 5, cfg.Session.GraceSeconds)
}

func TestLoader_SaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "robomgr.json")
	loader := NewLoader(path)

	cfg := DefaultConfig()
	cfg.Server.Port = 9999
	require.NoError(t, loader.Save(cfg))

	loaded, err := loader.Load()
	require.NoError(t, err)
	assert.Equal(t, 9999, loaded.Server.Port)
}
