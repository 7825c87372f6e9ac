package handler

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/housetable/vetclinic/internal/handler/dto"
	"github.com/housetable/vetclinic/internal/model"
	"github.com/housetable/vetclinic/internal/service"
)

// AppointmentHandler handles appointment endpoints.
type AppointmentHandler struct {
	service *service.AppointmentService
	logger  *slog.Logger
}

// NewAppointmentHandler creates a new AppointmentHandler.
func NewAppointmentHandler(svc *service.AppointmentService, logger *slog.Logger) *AppointmentHandler {
	return &AppointmentHandler{
		service: svc,
		logger:  logger,
	}
}

// Create handles POST /api/appointments.
func (h *AppointmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateAppointmentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, dto.ErrorBadRequest, "invalid JSON body")
		return
	}

	appointment, err := h.service.Create(r.Context(), service.CreateAppointmentInput{
		PatientID:   req.Patient,
		StartTime:   valueOrZero(req.StartTime),
		EndTime:     valueOrZero(req.EndTime),
		Description: req.Description,
		FeePaidBy:   model.FeePaidBy(req.FeePaidBy),
		Amount:      req.Amount,
	})
	if err != nil {
		handleServiceError(h.logger, w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, "appointment added to patient", appointment)
}

// ListByPatient handles GET /api/appointments/{patientId}.
func (h *AppointmentHandler) ListByPatient(w http.ResponseWriter, r *http.Request) {
	appointments, err := h.service.ListByPatient(r.Context(), chi.URLParam(r, "patientId"))
	if err != nil {
		handleServiceError(h.logger, w, err)
		return
	}

	writeSuccess(w, http.StatusOK, "list of appointments fetched for patient", appointments)
}

// Update handles PUT /api/appointments/{id}.
func (h *AppointmentHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateAppointmentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, dto.ErrorBadRequest, "invalid JSON body")
		return
	}

	appointment, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), req.ToPatch())
	if err != nil {
		handleServiceError(h.logger, w, err)
		return
	}

	writeSuccess(w, http.StatusOK, "appointment details updated successfully", appointment)
}

// Delete handles DELETE /api/appointments/{id}.
func (h *AppointmentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		handleServiceError(h.logger, w, err)
		return
	}

	writeSuccess(w, http.StatusOK, "appointment details deleted successfully", nil)
}

// ListForDay handles GET /api/appointments/day?day=YYYY-MM-DD.
func (h *AppointmentHandler) ListForDay(w http.ResponseWriter, r *http.Request) {
	day := strings.TrimSpace(r.URL.Query().Get("day"))
	if day == "" {
		writeError(w, http.StatusBadRequest, dto.ErrorBadRequest, "day is required")
		return
	}

	appointments, err := h.service.ListForDay(r.Context(), day)
	if err != nil {
		handleServiceError(h.logger, w, err)
		return
	}

	writeSuccess(w, http.StatusOK, "appointments fetched successfully", appointments)
}

// ListUnpaid handles GET /api/appointments/unpaid.
func (h *AppointmentHandler) ListUnpaid(w http.ResponseWriter, r *http.Request) {
	appointments, err := h.service.ListUnpaid(r.Context())
	if err != nil {
		handleServiceError(h.logger, w, err)
		return
	}

	writeSuccess(w, http.StatusOK, "unpaid appointments fetched successfully", appointments)
}

func valueOrZero(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
