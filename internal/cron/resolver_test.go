package cron

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/aatumaykin/crontabber/internal/jobspec"
)

func succeededAt(t time.Time, freq time.Duration) JobState {
	next := t.Add(freq)
	return JobState{LastRun: &t, LastSuccess: &t, FirstRun: &t, NextRun: &next}
}

func ids(descs []jobspec.Descriptor) []string {
	out := make([]string, 0, len(descs))
	for _, d := range descs {
		out = append(out, d.ID)
	}
	return out
}

func TestResolver_Due(t *testing.T) {
	hourly := jobspec.Descriptor{ID: "duplicates", Frequency: time.Hour}
	r := NewResolver([]jobspec.Descriptor{hourly})

	assert.True(t, r.Due(hourly, State{}, epoch), "never run")
	state := State{"duplicates": succeededAt(epoch, time.Hour)}
	assert.False(t, r.Due(hourly, state, epoch.Add(59*time.Minute)))
	assert.True(t, r.Due(hourly, state, epoch.Add(time.Hour)), "due exactly at the next run time")
	assert.False(t, r.Due(hourly, state, epoch.Add(time.Hour-time.Nanosecond)))

	failed := state["duplicates"]
	failed.LastError = &ErrorRecord{Message: "x"}
	assert.False(t, r.Due(hourly, State{"duplicates": failed}, epoch.Add(time.Minute)),
		"a failure does not make a recently successful job due")
}

func TestResolver_Due_TimeOfDay(t *testing.T) {
	at := jobspec.TimeOfDay{Hour: 3}
	daily := jobspec.Descriptor{ID: "reports-clean", Frequency: 24 * time.Hour, At: &at}
	r := NewResolver([]jobspec.Descriptor{daily})

	morning := time.Date(2024, 5, 10, 2, 59, 0, 0, time.UTC)
	assert.False(t, r.Due(daily, State{}, morning))
	assert.True(t, r.Due(daily, State{}, morning.Add(time.Minute)))

	ran := time.Date(2024, 5, 10, 3, 0, 40, 0, time.UTC)
	state := State{"reports-clean": succeededAt(ran, 24*time.Hour)}
	assert.False(t, r.Due(daily, state, time.Date(2024, 5, 11, 2, 59, 59, 0, time.UTC)))
	assert.True(t, r.Due(daily, state, time.Date(2024, 5, 11, 3, 0, 0, 0, time.UTC)))
}

func TestResolver_Dependencies(t *testing.T) {
	dup := jobspec.Descriptor{ID: "duplicates", Frequency: time.Hour}
	clean := jobspec.Descriptor{ID: "reports-clean", Frequency: time.Hour, DependsOn: []string{"duplicates"}}
	r := NewResolver([]jobspec.Descriptor{dup, clean})

	errored := succeededAt(epoch.Add(-30*time.Minute), time.Hour)
	errored.LastError = &ErrorRecord{Message: "boom"}
	neverSucceeded := JobState{LastRun: &epoch, LastError: nil}

	tests := []struct {
		name     string
		state    State
		eligible bool
		reason   string
	}{
		{name: "dependency never ran", state: State{}, reason: `"duplicates" hasn't been run yet`},
		{name: "dependency errored", state: State{"duplicates": errored}, reason: `"duplicates" errored last time it ran`},
		{name: "dependency never succeeded", state: State{"duplicates": neverSucceeded}, reason: `"duplicates" has never succeeded`},
		{name: "dependency stale", state: State{"duplicates": succeededAt(epoch.Add(-time.Hour), time.Hour)}, reason: `"duplicates" hasn't recently run`},
		{name: "dependency fresh", state: State{"duplicates": succeededAt(epoch.Add(-10*time.Minute), time.Hour)}, eligible: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, reason := r.Explain(clean, tt.state, epoch)
			assert.Equal(t, tt.eligible, ok)
			assert.Equal(t, tt.reason, reason)
		})
	}
}

func TestResolver_UnconfiguredDependencyUsesRecordedNextRun(t *testing.T) {
	clean := jobspec.Descriptor{ID: "reports-clean", Frequency: time.Hour, DependsOn: []string{"duplicates"}}
	r := NewResolver([]jobspec.Descriptor{clean})

	fresh := State{"duplicates": succeededAt(epoch.Add(-time.Hour), 2*time.Hour)}
	ok, _ := r.Explain(clean, fresh, epoch)
	assert.True(t, ok)

	stale := State{"duplicates": succeededAt(epoch.Add(-3*time.Hour), 2*time.Hour)}
	ok, reason := r.Explain(clean, stale, epoch)
	assert.False(t, ok)
	assert.Contains(t, reason, "hasn't recently run")

	noNext := succeededAt(epoch.Add(-time.Minute), time.Hour)
	noNext.NextRun = nil
	ok, _ = r.Explain(clean, State{"duplicates": noNext}, epoch)
	assert.False(t, ok)
}

func TestResolver_Eligible_OrderAndAttempted(t *testing.T) {
	descs := []jobspec.Descriptor{
		{ID: "c", Frequency: time.Hour},
		{ID: "a", Frequency: time.Hour},
		{ID: "b", Frequency: time.Hour, DependsOn: []string{"a"}},
	}
	r := NewResolver(descs)

	assert.Equal(t, []string{"c", "a"}, ids(r.Eligible(State{}, epoch, nil)))
	assert.Equal(t, []string{"a"}, ids(r.Eligible(State{}, epoch, map[string]bool{"c": true})))

	state := State{"a": succeededAt(epoch, time.Hour)}
	assert.Equal(t, []string{"b"}, ids(r.Eligible(state, epoch, map[string]bool{"c": true, "a": true})))
}

func TestResolver_Explain_NotDue(t *testing.T) {
	hourly := jobspec.Descriptor{ID: "duplicates", Frequency: time.Hour}
	r := NewResolver([]jobspec.Descriptor{hourly})

	ok, reason := r.Explain(hourly, State{"duplicates": succeededAt(epoch, time.Hour)}, epoch)
	assert.False(t, ok)
	assert.Equal(t, "not due until 2024-05-10T13:00:00Z", reason)
}
