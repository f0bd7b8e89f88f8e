package cron

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aatumaykin/crontabber/internal/jobspec"
	"github.com/aatumaykin/crontabber/internal/logger"
)

// Options configures a Scheduler. It is passed by value and not retained
// beyond construction.
type Options struct {
	// Jobs is the job list, one "<job>|<frequency>[|<HH:MM>]" per line.
	Jobs string
	// JobTimeout bounds each job run when positive.
	JobTimeout time.Duration
	// Clock returns the current time. Defaults to time.Now.
	Clock func() time.Time
	// Metrics receives job and cycle outcomes. Optional.
	Metrics *Metrics
}

// CycleReport summarises one RunAll call.
type CycleReport struct {
	ID        string
	Outcomes  []Outcome
	Deferred  map[string]string // job -> reason it did not run
	Persisted bool
}

// Failed returns the outcomes of jobs that failed during the cycle.
func (r CycleReport) Failed() []Outcome {
	var out []Outcome
	for _, o := range r.Outcomes {
		if !o.Succeeded() {
			out = append(out, o)
		}
	}
	return out
}

// JobStatus describes a configured job and its recorded state.
type JobStatus struct {
	Descriptor jobspec.Descriptor
	State      *JobState
	Eligible   bool
	Reason     string
}

// Scheduler runs cycles over a fixed job list. Cycles, resets and reports
// on one Scheduler are serialised; separate processes sharing a state file
// must coordinate externally.
type Scheduler struct {
	descs    []jobspec.Descriptor
	registry *Registry
	storage  *Storage
	resolver *Resolver
	runner   *Runner
	logger   *logger.Logger
	metrics  *Metrics
	clock    func() time.Time

	mu sync.Mutex
}

// NewScheduler parses the job list in opts and binds it to registry.
// A malformed list returns a *jobspec.ParseError; jobs missing from the
// registry return ErrUnknownJob.
func NewScheduler(opts Options, registry *Registry, storage *Storage, log *logger.Logger) (*Scheduler, error) {
	parsed, err := jobspec.Parse(opts.Jobs)
	if err != nil {
		return nil, err
	}
	descs, err := registry.Configure(parsed)
	if err != nil {
		return nil, err
	}

	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	if log == nil {
		log = logger.Nop()
	}

	return &Scheduler{
		descs:    descs,
		registry: registry,
		storage:  storage,
		resolver: NewResolver(descs),
		runner:   NewRunner(registry, log, opts.Metrics, clock, opts.JobTimeout),
		logger:   log,
		metrics:  opts.Metrics,
		clock:    clock,
	}, nil
}

// Descriptors returns the configured jobs in job list order.
func (s *Scheduler) Descriptors() []jobspec.Descriptor {
	return append([]jobspec.Descriptor(nil), s.descs...)
}

// RunAll runs one cycle: every eligible job runs once, in job list order,
// re-evaluating eligibility after each run so that a job whose dependency
// just succeeded runs in the same cycle. State is persisted only when at
// least one job ran. Job failures are recorded in state, not returned.
func (s *Scheduler) RunAll(ctx context.Context) (CycleReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	report := CycleReport{ID: uuid.NewString(), Deferred: make(map[string]string)}
	log := s.logger.With(logger.Field{Key: "cycle", Value: report.ID})

	state, err := s.storage.Load()
	if err != nil {
		s.metrics.RecordCycle("error", 0)
		return report, err
	}

	log.InfoCtx(ctx, "cycle started",
		logger.Field{Key: "jobs", Value: len(s.descs)},
		logger.Field{Key: "known_states", Value: len(state)})

	attempted := make(map[string]bool, len(s.descs))
	for ctx.Err() == nil {
		eligible := s.resolver.Eligible(state, s.clock(), attempted)
		if len(eligible) == 0 {
			break
		}
		desc := eligible[0]
		attempted[desc.ID] = true
		report.Outcomes = append(report.Outcomes, s.runner.Run(ctx, desc, state))
	}
	if ctx.Err() != nil {
		log.WarnCtx(ctx, "cycle interrupted", logger.Field{Key: "reason", Value: ctx.Err().Error()})
	}

	now := s.clock()
	for _, d := range s.descs {
		if attempted[d.ID] {
			continue
		}
		if _, reason := s.resolver.Explain(d, state, now); reason != "" {
			report.Deferred[d.ID] = reason
			log.DebugCtx(ctx, "job deferred",
				logger.Field{Key: "job", Value: d.ID},
				logger.Field{Key: "reason", Value: reason})
		}
	}

	if len(report.Outcomes) > 0 {
		if err := s.storage.Save(state); err != nil {
			s.metrics.RecordCycle("error", len(report.Outcomes))
			return report, err
		}
		report.Persisted = true
	}

	s.metrics.RecordCycle("ok", len(report.Outcomes))
	log.InfoCtx(ctx, "cycle finished",
		logger.Field{Key: "jobs_run", Value: len(report.Outcomes)},
		logger.Field{Key: "jobs_failed", Value: len(report.Failed())},
		logger.Field{Key: "persisted", Value: report.Persisted})

	return report, nil
}

// RunJob runs a single configured job now. Without force the job must be
// eligible; with force its schedule and dependencies are ignored.
// The job's own failure is reported in the Outcome, not as an error.
func (s *Scheduler) RunJob(ctx context.Context, ref string, force bool) (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	desc, err := s.descriptor(ref)
	if err != nil {
		return Outcome{}, err
	}

	state, err := s.storage.Load()
	if err != nil {
		return Outcome{}, err
	}

	if !force {
		if ok, reason := s.resolver.Explain(desc, state, s.clock()); !ok {
			return Outcome{}, fmt.Errorf("%w: %s: %s", ErrNotEligible, desc.ID, reason)
		}
	}

	outcome := s.runner.Run(ctx, desc, state)
	if err := s.storage.Save(state); err != nil {
		return outcome, err
	}
	return outcome, nil
}

// ResetJob forgets ref's recorded state so it runs on the next cycle.
// It reports whether anything was removed; the state file is only
// rewritten in that case.
func (s *Scheduler) ResetJob(ref string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := ref
	if job, ok := s.registry.Lookup(ref); ok {
		name = job.Name()
	}

	state, err := s.storage.Load()
	if err != nil {
		return false, err
	}
	if _, ok := state[name]; !ok {
		return false, nil
	}
	delete(state, name)

	if err := s.storage.Save(state); err != nil {
		return false, err
	}
	s.logger.Info("job state reset", logger.Field{Key: "job", Value: name})
	return true, nil
}

// Jobs reports every configured job with its state and eligibility. It
// waits for a running cycle to finish.
func (s *Scheduler) Jobs() ([]JobStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.storage.Load()
	if err != nil {
		return nil, err
	}

	now := s.clock()
	out := make([]JobStatus, 0, len(s.descs))
	for _, d := range s.descs {
		st := JobStatus{Descriptor: d}
		if js, ok := state[d.ID]; ok {
			st.State = &js
		}
		st.Eligible, st.Reason = s.resolver.Explain(d, state, now)
		out = append(out, st)
	}
	return out, nil
}

// Check returns the configured jobs whose most recent run failed.
func (s *Scheduler) Check() ([]JobStatus, error) {
	jobs, err := s.Jobs()
	if err != nil {
		return nil, err
	}
	var failing []JobStatus
	for _, j := range jobs {
		if j.State != nil && j.State.LastError != nil {
			failing = append(failing, j)
		}
	}
	return failing, nil
}

func (s *Scheduler) descriptor(ref string) (jobspec.Descriptor, error) {
	name := ref
	if job, ok := s.registry.Lookup(ref); ok {
		name = job.Name()
	}
	for _, d := range s.descs {
		if d.ID == name {
			return d, nil
		}
	}
	return jobspec.Descriptor{}, fmt.Errorf("%w: %q is not in the job list", ErrUnknownJob, ref)
}
