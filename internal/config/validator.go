package config

import (
	"fmt"
	"strings"
)

var validLogLevels = map[string]bool{
	"trace": true,
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks the configuration for values the daemon cannot run with.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be between 1 and 65535, got %d", c.Server.Port))
	}
	if c.Logging.Level != "" && !validLogLevels[c.Logging.Level] {
		errs = append(errs, fmt.Sprintf("logging.level must be one of trace/debug/info/warn/error, got %q", c.Logging.Level))
	}
	if c.Session.GraceSeconds < 1 {
		errs = append(errs, fmt.Sprintf("session.grace_seconds must be at least 1, got %d", c.Session.GraceSeconds))
	}
	if c.Session.ResponseTailBytes < 1024 {
		errs = append(errs, fmt.Sprintf("session.response_tail_bytes must be at least 1024, got %d", c.Session.ResponseTailBytes))
	}
	if c.Session.Retention.Enabled {
		if c.Session.Retention.MaxAgeHours < 1 {
			errs = append(errs, fmt.Sprintf("session.retention.max_age_hours must be at least 1, got %d", c.Session.Retention.MaxAgeHours))
		}
		if c.Session.Retention.Schedule == "" {
			errs = append(errs, "session.retention.schedule is required when retention is enabled")
		}
	}
	if len(c.Robot.SerialGlobs) == 0 {
		errs = append(errs, "robot.serial_globs must not be empty")
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
