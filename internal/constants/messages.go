package constants

// Package messages contains the text printed by the crontabber CLI.

// Config messages
const (
	// MsgConfigLoadError is the error message when configuration loading fails.
	MsgConfigLoadError = "❌ Failed to load configuration: %v\n"

	// MsgConfigValidationError is the message when configuration validation fails.
	MsgConfigValidationError = "❌ Configuration validation failed:\n"

	// MsgConfigValid is the message when configuration is successfully loaded and validated.
	MsgConfigValid = "✅ Configuration loaded"

	// MsgConfigValidatePrefix is the prefix for configuration validation errors.
	MsgConfigValidatePrefix = "  - %v\n"
)

// Job messages
const (
	// MsgJobRan is printed for a job that succeeded.
	MsgJobRan = "✅ %s (%s)\n"

	// MsgJobFailed is printed for a job that failed.
	MsgJobFailed = "❌ %s: %v\n"

	// MsgNothingToRun is printed when a cycle found no eligible job.
	MsgNothingToRun = "Nothing to run.\n"

	// MsgJobReset is the confirmation after a job's state was removed.
	MsgJobReset = "✅ Job '%s' reset, it runs on the next cycle\n"

	// MsgJobResetNoState is printed when the job had no recorded state.
	MsgJobResetNoState = "Job '%s' has no recorded state\n"

	// MsgJobNotFoundHint is the hint when a job is not found.
	MsgJobNotFoundHint = "Use 'crontabber list' to see all jobs\n"
)

// Jobs list messages
const (
	// MsgJobsListHeader is the header for the jobs list display.
	MsgJobsListHeader = "Configured Jobs:\n-----------------\n"

	// MsgJobsListSep is the separator between jobs in the list.
	MsgJobsListSep = "-----------------\n"

	// MsgJobsTotal is the message showing the total count of jobs.
	MsgJobsTotal = "Total: %d job(s)\n"
)

// Check messages
const (
	// MsgCheckOK is printed when no job is failing.
	MsgCheckOK = "OK - all jobs healthy\n"

	// MsgCheckCritical is the header when one or more jobs are failing.
	MsgCheckCritical = "CRITICAL - %d job(s) failing\n"

	// MsgCheckJob describes one failing job.
	MsgCheckJob = "  - %s: %s: %s (%d consecutive)\n"
)
