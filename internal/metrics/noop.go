package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

// IncPatientCreated is a no-op.
func (n *NoopRecorder) IncPatientCreated() {}

// IncPatientUpdated is a no-op.
func (n *NoopRecorder) IncPatientUpdated() {}

// IncPatientDeleted is a no-op.
func (n *NoopRecorder) IncPatientDeleted() {}

// IncAppointmentCreated is a no-op.
func (n *NoopRecorder) IncAppointmentCreated() {}

// IncAppointmentUpdated is a no-op.
func (n *NoopRecorder) IncAppointmentUpdated() {}

// IncAppointmentDeleted is a no-op.
func (n *NoopRecorder) IncAppointmentDeleted() {}

// ObserveReportDuration is a no-op.
func (n *NoopRecorder) ObserveReportDuration(duration time.Duration) {}

// IncReportFailed is a no-op.
func (n *NoopRecorder) IncReportFailed() {}

// IncRateLimited is a no-op.
func (n *NoopRecorder) IncRateLimited() {}
