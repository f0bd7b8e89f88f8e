// Package jobs contains the concrete crontabber jobs and registers them
// under their canonical names and legacy class-path aliases.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/aatumaykin/crontabber/internal/cron"
)

// ProcedureCaller runs a stored procedure by name. Connection and
// transaction handling belong to the implementation.
type ProcedureCaller interface {
	CallProcedure(ctx context.Context, name string, args ...any) error
}

const (
	DuplicatesName   = "duplicates"
	ReportsCleanName = "reports-clean"
)

// procedureJob is a job whose work is a single stored procedure call over
// the hour preceding the run.
type procedureJob struct {
	name      string
	procedure string
	deps      []string
	args      func(start, end time.Time) []any
	caller    ProcedureCaller
	clock     func() time.Time
}

func (j *procedureJob) Name() string { return j.name }

func (j *procedureJob) DependsOn() []string { return j.deps }

func (j *procedureJob) Run(ctx context.Context) error {
	end := j.clock().UTC().Truncate(time.Hour)
	start := end.Add(-time.Hour)
	if err := j.caller.CallProcedure(ctx, j.procedure, j.args(start, end)...); err != nil {
		return fmt.Errorf("%s: %w", j.procedure, err)
	}
	return nil
}

// NewDuplicates returns the job that flags duplicate crash reports.
func NewDuplicates(caller ProcedureCaller, clock func() time.Time) cron.Job {
	return &procedureJob{
		name:      DuplicatesName,
		procedure: "update_reports_duplicates",
		args:      func(start, end time.Time) []any { return []any{start, end} },
		caller:    caller,
		clock:     orNow(clock),
	}
}

// NewReportsClean returns the job that rebuilds reports_clean. It runs
// only after duplicates have been flagged.
func NewReportsClean(caller ProcedureCaller, clock func() time.Time) cron.Job {
	return &procedureJob{
		name:      ReportsCleanName,
		procedure: "update_reports_clean",
		deps:      []string{DuplicatesName},
		args:      func(start, _ time.Time) []any { return []any{start} },
		caller:    caller,
		clock:     orNow(clock),
	}
}

// Register adds every built-in job to registry.
func Register(registry *cron.Registry, caller ProcedureCaller, clock func() time.Time) error {
	if err := registry.Register(NewDuplicates(caller, clock),
		"socorro.cron.jobs.duplicates.DuplicatesCronApp",
		"duplicates.DuplicatesCronApp",
	); err != nil {
		return err
	}
	return registry.Register(NewReportsClean(caller, clock),
		"socorro.cron.jobs.reports_clean.ReportsCleanCronApp",
		"reports_clean.ReportsCleanCronApp",
	)
}

func orNow(clock func() time.Time) func() time.Time {
	if clock == nil {
		return time.Now
	}
	return clock
}
