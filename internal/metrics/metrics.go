// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	// Record metrics
	IncPatientCreated()
	IncPatientUpdated()
	IncPatientDeleted()
	IncAppointmentCreated()
	IncAppointmentUpdated()
	IncAppointmentDeleted()

	// Reporting metrics
	ObserveReportDuration(duration time.Duration)
	IncReportFailed()

	// Edge metrics
	IncRateLimited()
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
