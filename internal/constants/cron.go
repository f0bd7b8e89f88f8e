package constants

// Scheduler constants shared by the CLI and the configuration defaults.

// DefaultSchedule is the cron expression the daemon triggers cycles on.
const DefaultSchedule = "*/5 * * * *"

// MetricsNamespace prefixes every exported Prometheus metric.
const MetricsNamespace = "crontabber"

// LockName identifies the advisory lock held while a cycle runs.
const LockName = "crontabber"

// ExitCodeCheckFailed is returned by "check" when a job's last run failed.
const ExitCodeCheckFailed = 2
