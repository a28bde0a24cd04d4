// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package metrics exposes Prometheus instrumentation for pipeline runs.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Namespace prefixes every metric name.
const Namespace = "storyteller"

// Metrics holds the collectors for one process.
type Metrics struct {
	registry *prometheus.Registry

	RunsTotal       *prometheus.CounterVec
	StepDuration    *prometheus.HistogramVec
	StepFailures    *prometheus.CounterVec
	RunDuration     prometheus.Histogram
	LastPublishedAt prometheus.Gauge
}

// New creates a private registry with the run metrics plus the Go runtime
// and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		RunsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "runs_total",
				Help:      "Pipeline runs by outcome (ok, skipped, error).",
			},
			[]string{"status"},
		),
		StepDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "step_duration_seconds",
				Help:      "Duration of each pipeline step.",
				Buckets:   prometheus.ExponentialBuckets(0.05, 2, 14), // 50ms to ~7min
			},
			[]string{"step"},
		),
		StepFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "step_failures_total",
				Help:      "Failed pipeline steps.",
			},
			[]string{"step"},
		),
		RunDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "run_duration_seconds",
				Help:      "Wall time of a full pipeline run.",
				Buckets:   prometheus.ExponentialBuckets(0.1, 2, 13),
			},
		),
		LastPublishedAt: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: Namespace,
				Name:      "last_published_timestamp_seconds",
				Help:      "Unix time of the last published story.",
			},
		),
	}
}

// ObserveStep records how long step took and whether it failed.
func (m *Metrics) ObserveStep(step string, started time.Time, err error) {
	m.StepDuration.WithLabelValues(step).Observe(time.Since(started).Seconds())
	if err != nil {
		m.StepFailures.WithLabelValues(step).Inc()
	}
}

// ObserveRun counts a finished run.
func (m *Metrics) ObserveRun(status string, started time.Time) {
	m.RunsTotal.WithLabelValues(status).Inc()
	m.RunDuration.Observe(time.Since(started).Seconds())
}

// Published sets the last-published gauge.
func (m *Metrics) Published(at time.Time) {
	m.LastPublishedAt.Set(float64(at.Unix()))
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
