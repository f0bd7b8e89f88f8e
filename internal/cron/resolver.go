package cron

import (
	"fmt"
	"time"

	"github.com/aatumaykin/crontabber/internal/jobspec"
)

// Resolver decides which configured jobs may run.
type Resolver struct {
	descs []jobspec.Descriptor
	byID  map[string]jobspec.Descriptor
}

// NewResolver creates a resolver over a configured job list.
func NewResolver(descs []jobspec.Descriptor) *Resolver {
	byID := make(map[string]jobspec.Descriptor, len(descs))
	for _, d := range descs {
		byID[d.ID] = d
	}
	return &Resolver{descs: descs, byID: byID}
}

// Eligible returns the jobs that may run at now, in job list order,
// skipping those already attempted in the current cycle.
func (r *Resolver) Eligible(state State, now time.Time, attempted map[string]bool) []jobspec.Descriptor {
	var out []jobspec.Descriptor
	for _, d := range r.descs {
		if attempted[d.ID] {
			continue
		}
		if ok, _ := r.Explain(d, state, now); ok {
			out = append(out, d)
		}
	}
	return out
}

// Explain reports whether desc is eligible at now and, if not, why.
func (r *Resolver) Explain(desc jobspec.Descriptor, state State, now time.Time) (bool, string) {
	if !r.Due(desc, state, now) {
		next := desc.NextRun(lastSuccess(state[desc.ID]), now)
		return false, fmt.Sprintf("not due until %s", next.Format(time.RFC3339))
	}
	for _, dep := range desc.DependsOn {
		if reason := r.unmet(dep, state, now); reason != "" {
			return false, reason
		}
	}
	return true, ""
}

// Due reports whether desc's schedule has elapsed: it never succeeded, or
// its next run time has been reached. The boundary is inclusive, so a job
// is due once now >= next run.
func (r *Resolver) Due(desc jobspec.Descriptor, state State, now time.Time) bool {
	next := desc.NextRun(lastSuccess(state[desc.ID]), now)
	return !now.Before(next)
}

// unmet returns why dep does not satisfy its dependents, or "" if it does.
func (r *Resolver) unmet(dep string, state State, now time.Time) string {
	js, ok := state[dep]
	if !ok {
		return fmt.Sprintf("%q hasn't been run yet", dep)
	}
	if js.LastError != nil {
		return fmt.Sprintf("%q errored last time it ran", dep)
	}
	if js.LastSuccess == nil {
		return fmt.Sprintf("%q has never succeeded", dep)
	}

	var next time.Time
	if d, configured := r.byID[dep]; configured {
		next = d.NextRun(*js.LastSuccess, now)
	} else if js.NextRun != nil {
		next = *js.NextRun
	}
	if !now.Before(next) {
		return fmt.Sprintf("%q hasn't recently run", dep)
	}
	return ""
}

func lastSuccess(js JobState) time.Time {
	if js.LastSuccess == nil {
		return time.Time{}
	}
	return *js.LastSuccess
}
