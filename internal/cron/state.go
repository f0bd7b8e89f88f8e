package cron

import (
	"sort"
	"time"
)

// ErrorRecord describes a job's most recent failure.
type ErrorRecord struct {
	Type    string    `json:"type"`
	Message string    `json:"message"`
	Time    time.Time `json:"time"`
}

// JobState is the persisted execution record of a single job.
// Every field is always written so consumers can test for null.
type JobState struct {
	LastRun     *time.Time   `json:"last_run"`
	LastSuccess *time.Time   `json:"last_success"`
	LastError   *ErrorRecord `json:"last_error"`
	FirstRun    *time.Time   `json:"first_run"`
	NextRun     *time.Time   `json:"next_run"`
	ErrorCount  int          `json:"error_count"`
	DependsOn   []string     `json:"depends_on"`
}

// State maps job names to their execution records.
type State map[string]JobState

// Names returns the job names in sorted order.
func (s State) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func timePtr(t time.Time) *time.Time {
	return &t
}
