package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	robfig "github.com/robfig/cron/v3"

	"github.com/aatumaykin/crontabber/internal/constants"
)

// Load reads a TOML configuration file, applies defaults and expands
// environment references.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes TOML configuration from memory.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&cfg)

	if err := expandEnvVars(&cfg); err != nil {
		return nil, fmt.Errorf("failed to expand environment variables: %w", err)
	}

	return &cfg, nil
}

// JobList returns the configured job list, reading jobs_file when the
// inline list is empty.
func (c *Config) JobList() (string, error) {
	if strings.TrimSpace(c.Crontabber.Jobs) != "" {
		return c.Crontabber.Jobs, nil
	}
	if c.Crontabber.JobsFile == "" {
		return "", fmt.Errorf("crontabber.jobs or crontabber.jobs_file is required")
	}
	data, err := os.ReadFile(c.Crontabber.JobsFile)
	if err != nil {
		return "", fmt.Errorf("failed to read jobs file: %w", err)
	}
	return string(data), nil
}

// Validate checks the configuration and returns every problem found.
func (c *Config) Validate() []error {
	var errors []error

	if strings.TrimSpace(c.Crontabber.Jobs) == "" && c.Crontabber.JobsFile == "" {
		errors = append(errors, fmt.Errorf("crontabber.jobs or crontabber.jobs_file is required"))
	} else if c.Crontabber.JobsFile != "" {
		if err := validatePath(c.Crontabber.JobsFile, "crontabber.jobs_file"); err != nil {
			errors = append(errors, err)
		}
	}

	if c.Crontabber.StateFile == "" {
		errors = append(errors, fmt.Errorf("crontabber.database is required"))
	} else if err := validatePath(c.Crontabber.StateFile, "crontabber.database"); err != nil {
		errors = append(errors, err)
	}

	if c.Crontabber.JobTimeoutSeconds < 0 {
		errors = append(errors, fmt.Errorf("crontabber.job_timeout_seconds must be >= 0 (got %d)", c.Crontabber.JobTimeoutSeconds))
	}

	if _, err := robfig.ParseStandard(c.Daemon.Schedule); err != nil {
		errors = append(errors, fmt.Errorf("invalid daemon.schedule %q: %w", c.Daemon.Schedule, err))
	}

	if c.Database.Enabled() {
		if c.Database.MaxConns < 1 {
			errors = append(errors, fmt.Errorf("database.max_conns must be >= 1"))
		}
		if c.Database.MinConns < 0 || c.Database.MinConns > c.Database.MaxConns {
			errors = append(errors, fmt.Errorf("database.min_conns must be between 0 and database.max_conns"))
		}
		if c.Database.ConnectAttempts < 1 {
			errors = append(errors, fmt.Errorf("database.connect_attempts must be >= 1"))
		}
	}

	// Logging
	if c.Logging.Level == "" {
		errors = append(errors, fmt.Errorf("logging.level is required"))
	} else {
		validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
		if !validLevels[strings.ToLower(c.Logging.Level)] {
			errors = append(errors, fmt.Errorf("invalid logging.level: %s (expected: debug, info, warn, error)", c.Logging.Level))
		}
	}

	if c.Logging.Format == "" {
		errors = append(errors, fmt.Errorf("logging.format is required"))
	} else {
		validFormats := map[string]bool{"json": true, "text": true}
		if !validFormats[strings.ToLower(c.Logging.Format)] {
			errors = append(errors, fmt.Errorf("invalid logging.format: %s (expected: json, text)", c.Logging.Format))
		}
	}

	if c.Logging.Output == "" {
		errors = append(errors, fmt.Errorf("logging.output is required"))
	}

	return errors
}

func validatePath(path, fieldName string) error {
	if path == "" {
		return fmt.Errorf("%s cannot be empty", fieldName)
	}

	if strings.HasPrefix(path, "~") {
		return nil
	}

	if strings.Contains(path, "..") {
		return fmt.Errorf("%s contains potentially dangerous path traversal sequence", fieldName)
	}

	return nil
}

// applyDefaults fills in unset values.
func applyDefaults(c *Config) {
	if c.Crontabber.StateFile == "" {
		c.Crontabber.StateFile = constants.DefaultStatePath
	}

	if c.Daemon.Schedule == "" {
		c.Daemon.Schedule = constants.DefaultSchedule
	}

	if c.Database.MaxConns == 0 {
		c.Database.MaxConns = 4
	}
	if c.Database.ConnectAttempts == 0 {
		c.Database.ConnectAttempts = 3
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
	if c.Logging.Output == "" {
		c.Logging.Output = "stdout"
	}
}

// expandEnvVars expands ${VAR:default} references and ~ in string fields.
func expandEnvVars(c *Config) error {
	for _, field := range []*string{
		&c.Crontabber.JobsFile,
		&c.Crontabber.StateFile,
		&c.Daemon.MetricsAddr,
		&c.Database.DSN,
		&c.Logging.Output,
	} {
		if strings.HasPrefix(*field, "${") {
			*field = expandEnv(*field)
		}
	}

	c.Crontabber.JobsFile = expandHome(c.Crontabber.JobsFile)
	c.Crontabber.StateFile = expandHome(c.Crontabber.StateFile)
	c.Logging.Output = expandHome(c.Logging.Output)

	return nil
}

// expandEnv expands a value of the form ${VAR} or ${VAR:default}.
func expandEnv(s string) string {
	if !strings.HasPrefix(s, "${") {
		return s
	}

	end := strings.Index(s, "}")
	if end == -1 {
		return s
	}

	content := s[2:end]
	if parts := strings.SplitN(content, ":", 2); len(parts) == 2 {
		key := parts[0]
		defaultVal := parts[1]
		if val := os.Getenv(key); val != "" {
			return val
		}
		return defaultVal
	}

	// No default
	return os.Getenv(s[2:end])
}

// expandHome replaces a leading ~ with the home directory.
func expandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
