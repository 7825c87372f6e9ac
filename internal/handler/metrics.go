package handler

import (
	"fmt"
	"net/http"

	"github.com/housetable/vetclinic/internal/metrics"
)

// MetricsHandler exposes in-memory metrics.
type MetricsHandler struct {
	snapshotter metrics.Snapshotter
}

// NewMetricsHandler creates a new MetricsHandler.
func NewMetricsHandler(snapshotter metrics.Snapshotter) *MetricsHandler {
	return &MetricsHandler{snapshotter: snapshotter}
}

// Metrics returns metrics in Prometheus exposition format.
func (h *MetricsHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	if h.snapshotter == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	snap := h.snapshotter.Snapshot()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4")

	writeMetric(w, "vetclinic_patients_total{op=\"created\"} %d\n", snap.PatientsCreated)
	writeMetric(w, "vetclinic_patients_total{op=\"updated\"} %d\n", snap.PatientsUpdated)
	writeMetric(w, "vetclinic_patients_total{op=\"deleted\"} %d\n", snap.PatientsDeleted)

	writeMetric(w, "vetclinic_appointments_total{op=\"created\"} %d\n", snap.AppointmentsCreated)
	writeMetric(w, "vetclinic_appointments_total{op=\"updated\"} %d\n", snap.AppointmentsUpdated)
	writeMetric(w, "vetclinic_appointments_total{op=\"deleted\"} %d\n", snap.AppointmentsDeleted)

	writeMetric(w, "vetclinic_report_duration_seconds_count %d\n", snap.ReportDurationCount)
	writeMetric(w, "vetclinic_report_duration_seconds_sum %.6f\n", float64(snap.ReportDurationTotalNs)/1e9)
	writeMetric(w, "vetclinic_reports_failed_total %d\n", snap.ReportsFailed)

	writeMetric(w, "vetclinic_rate_limited_total %d\n", snap.RateLimited)
}

func writeMetric(w http.ResponseWriter, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
