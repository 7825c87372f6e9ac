package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/housetable/vetclinic/internal/handler/dto"
	"github.com/housetable/vetclinic/internal/model"
	"github.com/housetable/vetclinic/internal/service"
)

// PatientHandler handles patient endpoints.
type PatientHandler struct {
	service *service.PatientService
	logger  *slog.Logger
}

// NewPatientHandler creates a new PatientHandler.
func NewPatientHandler(svc *service.PatientService, logger *slog.Logger) *PatientHandler {
	return &PatientHandler{
		service: svc,
		logger:  logger,
	}
}

// Create handles POST /api/patients.
func (h *PatientHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreatePatientRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, dto.ErrorBadRequest, "invalid JSON body")
		return
	}

	patient, err := h.service.Create(r.Context(), service.CreatePatientInput{
		Name:             req.Name,
		Type:             model.PetType(req.Type),
		OwnerName:        req.OwnerName,
		OwnerAddress:     req.OwnerAddress,
		OwnerPhoneNumber: req.OwnerPhoneNumber,
	})
	if err != nil {
		handleServiceError(h.logger, w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, "patient added successfully", patient)
}

// List handles GET /api/patients.
func (h *PatientHandler) List(w http.ResponseWriter, r *http.Request) {
	patients, err := h.service.List(r.Context())
	if err != nil {
		handleServiceError(h.logger, w, err)
		return
	}

	writeSuccess(w, http.StatusOK, "patients fetched successfully", patients)
}

// Get handles GET /api/patients/{id}.
func (h *PatientHandler) Get(w http.ResponseWriter, r *http.Request) {
	patient, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(h.logger, w, err)
		return
	}

	writeSuccess(w, http.StatusOK, "patient details fetched successfully", patient)
}

// Update handles PUT /api/patients/{id}.
func (h *PatientHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdatePatientRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, dto.ErrorBadRequest, "invalid JSON body")
		return
	}

	patient, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), req.ToPatch())
	if err != nil {
		handleServiceError(h.logger, w, err)
		return
	}

	writeSuccess(w, http.StatusOK, "patient details updated successfully", patient)
}

// Delete handles DELETE /api/patients/{id}. Deleting an unknown patient succeeds.
func (h *PatientHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		handleServiceError(h.logger, w, err)
		return
	}

	writeSuccess(w, http.StatusOK, "patient details deleted successfully", nil)
}
