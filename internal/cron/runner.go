package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/aatumaykin/crontabber/internal/jobspec"
	"github.com/aatumaykin/crontabber/internal/logger"
)

// Outcome is the result of a single job run.
type Outcome struct {
	Job      string
	Started  time.Time
	Duration time.Duration
	Err      *JobExecutionError // nil on success
}

// Succeeded reports whether the run completed without error.
func (o Outcome) Succeeded() bool {
	return o.Err == nil
}

// Runner executes jobs and records their outcome in State.
type Runner struct {
	registry *Registry
	logger   *logger.Logger
	metrics  *Metrics
	clock    func() time.Time
	timeout  time.Duration
}

// NewRunner creates a runner. timeout bounds each job's context when
// positive.
func NewRunner(registry *Registry, log *logger.Logger, metrics *Metrics, clock func() time.Time, timeout time.Duration) *Runner {
	if clock == nil {
		clock = time.Now
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Runner{
		registry: registry,
		logger:   log,
		metrics:  metrics,
		clock:    clock,
		timeout:  timeout,
	}
}

// Run invokes desc's job once and writes the outcome into state.
// Job failures, including panics, are captured in the Outcome and the
// job's last_error; they are never returned.
func (r *Runner) Run(ctx context.Context, desc jobspec.Descriptor, state State) Outcome {
	started := r.clock().UTC()

	var err error
	job, ok := r.registry.Lookup(desc.ID)
	if !ok {
		err = fmt.Errorf("%w: %q", ErrUnknownJob, desc.ID)
	} else {
		err = r.invoke(ctx, job)
	}

	outcome := Outcome{
		Job:      desc.ID,
		Started:  started,
		Duration: r.clock().Sub(started),
	}
	if err != nil {
		outcome.Err = &JobExecutionError{Job: desc.ID, Err: err}
	}

	state[desc.ID] = record(state[desc.ID], desc, outcome)
	r.metrics.RecordJob(desc.ID, outcome.Succeeded(), started, outcome.Duration)

	if outcome.Succeeded() {
		r.logger.InfoCtx(ctx, "job succeeded",
			logger.Field{Key: "job", Value: desc.ID},
			logger.Field{Key: "duration", Value: outcome.Duration.String()})
	} else {
		r.logger.ErrorCtx(ctx, "job failed", outcome.Err.Err,
			logger.Field{Key: "job", Value: desc.ID},
			logger.Field{Key: "type", Value: outcome.Err.Type()},
			logger.Field{Key: "duration", Value: outcome.Duration.String()})
	}

	return outcome
}

func (r *Runner) invoke(ctx context.Context, job Job) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = &panicError{value: rec}
		}
	}()

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	return job.Run(ctx)
}

// record applies an outcome to a job's previous state.
func record(prev JobState, desc jobspec.Descriptor, o Outcome) JobState {
	js := prev
	js.LastRun = timePtr(o.Started)
	if js.FirstRun == nil {
		js.FirstRun = timePtr(o.Started)
	}
	js.DependsOn = append([]string{}, desc.DependsOn...)

	if o.Succeeded() {
		js.LastSuccess = timePtr(o.Started)
		js.LastError = nil
		js.ErrorCount = 0
		js.NextRun = timePtr(desc.NextRun(o.Started, o.Started))
		return js
	}

	js.LastError = &ErrorRecord{
		Type:    o.Err.Type(),
		Message: o.Err.Err.Error(),
		Time:    o.Started,
	}
	js.ErrorCount++
	return js
}
