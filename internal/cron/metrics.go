package cron

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records job and cycle outcomes. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	jobRuns      *prometheus.CounterVec
	jobDuration  *prometheus.HistogramVec
	lastSuccess  *prometheus.GaugeVec
	cycles       *prometheus.CounterVec
	cycleJobsRun prometheus.Gauge
}

// NewMetrics creates and registers crontabber metrics under namespace.
// A nil reg registers with prometheus.DefaultRegisterer.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		jobRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "job_runs_total",
				Help:      "Total number of job runs by outcome",
			},
			[]string{"job", "status"},
		),
		jobDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "job_duration_seconds",
				Help:      "Duration of job runs",
				Buckets:   []float64{.1, .5, 1, 5, 10, 30, 60, 300, 900, 3600},
			},
			[]string{"job"},
		),
		lastSuccess: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "job_last_success_timestamp_seconds",
				Help:      "Unix time of each job's last successful run",
			},
			[]string{"job"},
		),
		cycles: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cycles_total",
				Help:      "Total number of scheduling cycles by result",
			},
			[]string{"result"},
		),
		cycleJobsRun: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "cycle_jobs_run",
				Help:      "Number of jobs run in the most recent cycle",
			},
		),
	}

	reg.MustRegister(
		m.jobRuns,
		m.jobDuration,
		m.lastSuccess,
		m.cycles,
		m.cycleJobsRun,
	)

	return m
}

// RecordJob records one job run.
func (m *Metrics) RecordJob(job string, succeeded bool, started time.Time, duration time.Duration) {
	if m == nil {
		return
	}
	status := "success"
	if !succeeded {
		status = "failure"
	}
	m.jobRuns.WithLabelValues(job, status).Inc()
	m.jobDuration.WithLabelValues(job).Observe(duration.Seconds())
	if succeeded {
		m.lastSuccess.WithLabelValues(job).Set(float64(started.Unix()))
	}
}

// RecordCycle records the end of a cycle. result is "ok" or "error".
func (m *Metrics) RecordCycle(result string, jobsRun int) {
	if m == nil {
		return
	}
	m.cycles.WithLabelValues(result).Inc()
	m.cycleJobsRun.Set(float64(jobsRun))
}
