// Package metrics provides a small, backend-agnostic abstraction for recording
// operational metrics from the sales import.
//
// A global, pluggable backend defaults to a no-op implementation, so
// instrumentation is always safe to call even when no real backend is
// configured. Concrete systems (Prometheus Pushgateway) live in subpackages.
package metrics

import "time"

// Metric names shared with backends.
const (
	StepTotal           = "sales_step_total"
	StepDurationSeconds = "sales_step_duration_seconds"
	RowsTotal           = "sales_rows_total"
	FilesTotal          = "sales_files_total"
)

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the minimal interface for metrics backends.
type Backend interface {
	// IncCounter increments a counter by delta.
	IncCounter(name string, delta float64, labels Labels)
	// ObserveHistogram records a value in a latency/duration style metric.
	ObserveHistogram(name string, value float64, labels Labels)
	// Flush pushes or flushes metrics, if the backend needs it (e.g. Pushgateway).
	Flush() error
}

type nopBackend struct{}

func (nopBackend) IncCounter(name string, delta float64, labels Labels)       {}
func (nopBackend) ObserveHistogram(name string, value float64, labels Labels) {}
func (nopBackend) Flush() error                                               { return nil }

var backend Backend = nopBackend{}

// SetBackend installs a concrete backend. Passing nil keeps the existing backend.
func SetBackend(b Backend) {
	if b == nil {
		return
	}
	backend = b
}

// Flush delegates to the current backend.
func Flush() error {
	return backend.Flush()
}

// RecordStep measures latency and success/failure of one import step
// (e.g. step "apps" or "read").
func RecordStep(job, step string, err error, d time.Duration) {
	status := "success"
	if err != nil {
		status = "failure"
	}

	lbls := Labels{
		"job":    job,
		"step":   step,
		"status": status,
	}

	backend.IncCounter(StepTotal, 1, lbls)
	backend.ObserveHistogram(StepDurationSeconds, d.Seconds(), lbls)
}

// RecordRows counts rows per entity and kind. Kinds used by the importer:
//   - "read"      rows parsed from a file
//   - "projected" candidate rows after filter/dedup
//   - "written"   rows the database reports as inserted or updated
func RecordRows(job, entity, kind string, delta int64) {
	if delta <= 0 {
		return
	}
	backend.IncCounter(RowsTotal, float64(delta), Labels{
		"job":    job,
		"entity": entity,
		"kind":   kind,
	})
}

// RecordFile counts a processed file by outcome.
func RecordFile(job string, err error) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	backend.IncCounter(FilesTotal, 1, Labels{"job": job, "status": status})
}
