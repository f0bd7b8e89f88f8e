// Package cron implements crontabber's scheduling core: the job registry,
// dependency resolution, the job runner, and the cycle orchestrator that
// persists per-job state between invocations.
package cron

import "context"

// Job is a unit of work crontabber can schedule.
type Job interface {
	// Name is the job's canonical identifier and its key in the state file.
	Name() string
	// DependsOn lists jobs that must have succeeded recently before this
	// job may run.
	DependsOn() []string
	// Run performs the work. A non-nil error marks the run as failed.
	Run(ctx context.Context) error
}

// Func adapts a plain function to the Job interface.
type Func struct {
	ID   string
	Deps []string
	Fn   func(ctx context.Context) error
}

func (f Func) Name() string { return f.ID }

func (f Func) DependsOn() []string { return f.Deps }

func (f Func) Run(ctx context.Context) error { return f.Fn(ctx) }
