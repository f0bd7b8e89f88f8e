// Package config provides configuration loading and validation for crontabber.
// It supports TOML configuration files with environment variable expansion,
// default values, and validation that reports every problem at once.
//
// Configuration structure:
//   - [crontabber]: job list, state file and per-job timeout
//   - [daemon]: cron expression that triggers cycles and the metrics listener
//   - [database]: PostgreSQL connection used by the procedure jobs
//   - [logging]: logging level, format, and output
//
// Environment variables:
// String values can reference environment variables using ${VAR} or
// ${VAR:default} syntax. For example: dsn = "${CRONTABBER_DSN:postgres://localhost/breakpad}"
package config

import "time"

// Config represents the main application configuration.
type Config struct {
	Crontabber CrontabberConfig `toml:"crontabber"`
	Daemon     DaemonConfig     `toml:"daemon"`
	Database   DatabaseConfig   `toml:"database"`
	Logging    LoggingConfig    `toml:"logging"`
}

// CrontabberConfig describes which jobs run and where their state lives.
type CrontabberConfig struct {
	// Jobs is the newline separated job list, "<job>|<frequency>[|HH:MM]".
	Jobs string `toml:"jobs"`
	// JobsFile names a file holding the job list. Used when Jobs is empty.
	JobsFile string `toml:"jobs_file"`
	// StateFile is the JSON document recording every job's last run.
	StateFile         string `toml:"database"`
	JobTimeoutSeconds int    `toml:"job_timeout_seconds"`
}

// JobTimeout returns the per-job deadline, zero meaning none.
func (c CrontabberConfig) JobTimeout() time.Duration {
	return time.Duration(c.JobTimeoutSeconds) * time.Second
}

// DaemonConfig configures the long running mode.
type DaemonConfig struct {
	Schedule    string `toml:"schedule"`
	MetricsAddr string `toml:"metrics_addr"`
}

// DatabaseConfig configures the PostgreSQL pool. An empty DSN disables it.
type DatabaseConfig struct {
	DSN             string `toml:"dsn"`
	MaxConns        int32  `toml:"max_conns"`
	MinConns        int32  `toml:"min_conns"`
	ConnectAttempts int    `toml:"connect_attempts"`
}

// Enabled reports whether a DSN is configured.
func (c DatabaseConfig) Enabled() bool {
	return c.DSN != ""
}

// LoggingConfig configures the logger.
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
	Output string `toml:"output"`
}
