// Package prompush implements a Prometheus Pushgateway backend for the
// metrics package.
//
// The import is a short-lived batch process, so instead of exposing a scrape
// endpoint the collected metrics are pushed to a Pushgateway on Flush.
package prompush

import (
	"fmt"

	"salesloader/internal/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Backend is a Prometheus Pushgateway metrics backend.
type Backend struct {
	gatewayURL string
	jobName    string
	reg        *prometheus.Registry

	stepCounter  *prometheus.CounterVec // sales_step_total
	stepDuration *prometheus.SummaryVec // sales_step_duration_seconds
	rowCounter   *prometheus.CounterVec // sales_rows_total
	fileCounter  *prometheus.CounterVec // sales_files_total
}

// NewBackend constructs a Pushgateway backend. jobName is used as the
// Pushgateway "job" grouping key and defaults to "sales".
func NewBackend(jobName, gatewayURL string) (*Backend, error) {
	if gatewayURL == "" {
		return nil, fmt.Errorf("prompush: gateway URL is required")
	}
	if jobName == "" {
		jobName = "sales"
	}

	b := &Backend{
		gatewayURL: gatewayURL,
		jobName:    jobName,
		reg:        prometheus.NewRegistry(),
		stepCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metrics.StepTotal,
				Help: "Import step executions, partitioned by step and status.",
			},
			[]string{"step", "status"},
		),
		stepDuration: prometheus.NewSummaryVec(
			prometheus.SummaryOpts{
				Name:       metrics.StepDurationSeconds,
				Help:       "Duration of import steps in seconds, partitioned by step and status.",
				Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
			},
			[]string{"step", "status"},
		),
		rowCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metrics.RowsTotal,
				Help: "Row counts per entity and kind (read, projected, written).",
			},
			[]string{"entity", "kind"},
		),
		fileCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metrics.FilesTotal,
				Help: "Report files processed, partitioned by status.",
			},
			[]string{"status"},
		),
	}

	for name, c := range map[string]prometheus.Collector{
		"step counter": b.stepCounter,
		"step summary": b.stepDuration,
		"row counter":  b.rowCounter,
		"file counter": b.fileCounter,
	} {
		if err := b.reg.Register(c); err != nil {
			return nil, fmt.Errorf("prompush: register %s: %w", name, err)
		}
	}
	return b, nil
}

// IncCounter maps a metrics counter onto the matching collector; unknown
// names are ignored.
func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	switch name {
	case metrics.StepTotal:
		b.stepCounter.WithLabelValues(labels["step"], labels["status"]).Add(delta)
	case metrics.RowsTotal:
		b.rowCounter.WithLabelValues(labels["entity"], labels["kind"]).Add(delta)
	case metrics.FilesTotal:
		b.fileCounter.WithLabelValues(labels["status"]).Add(delta)
	}
}

func (b *Backend) ObserveHistogram(name string, value float64, labels metrics.Labels) {
	if name != metrics.StepDurationSeconds {
		return
	}
	b.stepDuration.WithLabelValues(labels["step"], labels["status"]).Observe(value)
}

// Flush pushes the current registry to the Pushgateway.
func (b *Backend) Flush() error {
	return push.New(b.gatewayURL, b.jobName).
		Gatherer(b.reg).
		Push()
}
