package metrics

import (
	"sync/atomic"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	PatientsCreated       uint64
	PatientsUpdated       uint64
	PatientsDeleted       uint64
	AppointmentsCreated   uint64
	AppointmentsUpdated   uint64
	AppointmentsDeleted   uint64
	ReportDurationCount   uint64
	ReportDurationTotalNs int64
	ReportsFailed         uint64
	RateLimited           uint64
}

// InMemoryRecorder stores metrics in memory for tests.
type InMemoryRecorder struct {
	patientsCreated       uint64
	patientsUpdated       uint64
	patientsDeleted       uint64
	appointmentsCreated   uint64
	appointmentsUpdated   uint64
	appointmentsDeleted   uint64
	reportDurationCount   uint64
	reportDurationTotalNs int64
	reportsFailed         uint64
	rateLimited           uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	return Snapshot{
		PatientsCreated:       atomic.LoadUint64(&m.patientsCreated),
		PatientsUpdated:       atomic.LoadUint64(&m.patientsUpdated),
		PatientsDeleted:       atomic.LoadUint64(&m.patientsDeleted),
		AppointmentsCreated:   atomic.LoadUint64(&m.appointmentsCreated),
		AppointmentsUpdated:   atomic.LoadUint64(&m.appointmentsUpdated),
		AppointmentsDeleted:   atomic.LoadUint64(&m.appointmentsDeleted),
		ReportDurationCount:   atomic.LoadUint64(&m.reportDurationCount),
		ReportDurationTotalNs: atomic.LoadInt64(&m.reportDurationTotalNs),
		ReportsFailed:         atomic.LoadUint64(&m.reportsFailed),
		RateLimited:           atomic.LoadUint64(&m.rateLimited),
	}
}

// IncPatientCreated increments patient created counter.
func (m *InMemoryRecorder) IncPatientCreated() {
	atomic.AddUint64(&m.patientsCreated, 1)
}

// IncPatientUpdated increments patient updated counter.
func (m *InMemoryRecorder) IncPatientUpdated() {
	atomic.AddUint64(&m.patientsUpdated, 1)
}

// IncPatientDeleted increments patient deleted counter.
func (m *InMemoryRecorder) IncPatientDeleted() {
	atomic.AddUint64(&m.patientsDeleted, 1)
}

// IncAppointmentCreated increments appointment created counter.
func (m *InMemoryRecorder) IncAppointmentCreated() {
	atomic.AddUint64(&m.appointmentsCreated, 1)
}

// IncAppointmentUpdated increments appointment updated counter.
func (m *InMemoryRecorder) IncAppointmentUpdated() {
	atomic.AddUint64(&m.appointmentsUpdated, 1)
}

// IncAppointmentDeleted increments appointment deleted counter.
func (m *InMemoryRecorder) IncAppointmentDeleted() {
	atomic.AddUint64(&m.appointmentsDeleted, 1)
}

// ObserveReportDuration records how long a report query took.
func (m *InMemoryRecorder) ObserveReportDuration(duration time.Duration) {
	atomic.AddUint64(&m.reportDurationCount, 1)
	atomic.AddInt64(&m.reportDurationTotalNs, duration.Nanoseconds())
}

// IncReportFailed increments failed report counter.
func (m *InMemoryRecorder) IncReportFailed() {
	atomic.AddUint64(&m.reportsFailed, 1)
}

// IncRateLimited increments rejected request counter.
func (m *InMemoryRecorder) IncRateLimited() {
	atomic.AddUint64(&m.rateLimited, 1)
}
