package config

// Config represents the main robomgr configuration
type Config struct {
	// HTTP API server
	Server ServerConfig `json:"server" mapstructure:"server"`

	// Logging
	Logging LoggingConfig `json:"logging" mapstructure:"logging"`

	// SQLite persistence
	Store StoreConfig `json:"store" mapstructure:"store"`

	// Interactive session engine
	Session SessionConfig `json:"session" mapstructure:"session"`

	// Robot tooling paths and device discovery
	Robot RobotConfig `json:"robot" mapstructure:"robot"`

	// Data directory
	DataDir string `json:"data_dir" mapstructure:"data_dir"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string `json:"host" mapstructure:"host"`
	Port int    `json:"port" mapstructure:"port"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level   string `json:"level" mapstructure:"level"`
	File    string `json:"file" mapstructure:"file"`
	Console bool   `json:"console" mapstructure:"console"`
	Pretty  bool   `json:"pretty" mapstructure:"pretty"`
}

// StoreConfig holds SQLite store configuration
type StoreConfig struct {
	Path string `json:"path" mapstructure:"path"`
}

// SessionConfig holds interactive session engine settings
type SessionConfig struct {
	// GraceSeconds bounds graceful termination before a forced kill.
	GraceSeconds int `json:"grace_seconds" mapstructure:"grace_seconds"`
	// ResponseTailBytes caps the output payload in poll responses.
	// The full buffer stays in memory; only the response is truncated.
	ResponseTailBytes int             `json:"response_tail_bytes" mapstructure:"response_tail_bytes"`
	Retention         RetentionConfig `json:"retention" mapstructure:"retention"`
}

// RetentionConfig controls the opt-in terminal-session janitor.
type RetentionConfig struct {
	Enabled     bool   `json:"enabled" mapstructure:"enabled"`
	MaxAgeHours int    `json:"max_age_hours" mapstructure:"max_age_hours"`
	Schedule    string `json:"schedule" mapstructure:"schedule"`
}

// RobotConfig holds robot tooling configuration
type RobotConfig struct {
	// CalibrationDir is where the lerobot tools keep calibration files.
	CalibrationDir string `json:"calibration_dir" mapstructure:"calibration_dir"`
	// SerialGlobs are the device patterns scanned during port identification.
	SerialGlobs []string `json:"serial_globs" mapstructure:"serial_globs"`
}

// DefaultConfig returns a config with default values
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Logging: LoggingConfig{
			Level:   "info",
			Console: true,
		},
		Session: SessionConfig{
			GraceSeconds:      3,
			ResponseTailBytes: 30_000,
			Retention: RetentionConfig{
				Enabled:     false,
				MaxAgeHours: 24,
				Schedule:    "@every 10m",
			},
		},
		Robot: RobotConfig{
			SerialGlobs: []string{"/dev/ttyACM*", "/dev/ttyUSB*"},
		},
	}
}
