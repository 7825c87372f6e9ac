package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/housetable/vetclinic/internal/handler/dto"
	"github.com/housetable/vetclinic/internal/model"
	"github.com/housetable/vetclinic/internal/service"
)

// ReportHandler handles billing and pet report endpoints.
type ReportHandler struct {
	service *service.ReportService
	logger  *slog.Logger
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(svc *service.ReportService, logger *slog.Logger) *ReportHandler {
	return &ReportHandler{
		service: svc,
		logger:  logger,
	}
}

// RemainingBill handles GET /api/bill/{patientId}.
func (h *ReportHandler) RemainingBill(w http.ResponseWriter, r *http.Request) {
	amount, err := h.service.RemainingBill(r.Context(), chi.URLParam(r, "patientId"))
	if err != nil {
		handleServiceError(h.logger, w, err)
		return
	}

	writeSuccess(w, http.StatusOK, "remaining bill fetched for patient", dto.AmountResponse{Amount: amount})
}

// Paid handles GET /api/bill/paid?period=week|month.
func (h *ReportHandler) Paid(w http.ResponseWriter, r *http.Request) {
	h.report(w, r, model.ReportPaid)
}

// Unpaid handles GET /api/bill/unpaid?period=week|month.
func (h *ReportHandler) Unpaid(w http.ResponseWriter, r *http.Request) {
	h.report(w, r, model.ReportUnpaid)
}

func (h *ReportHandler) report(w http.ResponseWriter, r *http.Request, reportType model.ReportType) {
	period := model.ReportPeriod(r.URL.Query().Get("period"))

	amount, err := h.service.Report(r.Context(), period, reportType)
	if err != nil {
		handleServiceError(h.logger, w, err)
		return
	}

	msg := "amount " + string(reportType) + " in " + string(period) + " fetched successfully"
	writeSuccess(w, http.StatusOK, msg, dto.AmountResponse{Amount: amount})
}

// Balance handles GET /api/bill/balance?period=week|month.
func (h *ReportHandler) Balance(w http.ResponseWriter, r *http.Request) {
	period := model.ReportPeriod(r.URL.Query().Get("period"))

	balance, err := h.service.Balance(r.Context(), period)
	if err != nil {
		handleServiceError(h.logger, w, err)
		return
	}

	writeSuccess(w, http.StatusOK, "balance fetched successfully", dto.BalanceResponse{Balance: balance})
}

// MostPopularPet handles GET /api/pet/popular.
func (h *ReportHandler) MostPopularPet(w http.ResponseWriter, r *http.Request) {
	petType, err := h.service.MostPopularPet(r.Context())
	if err != nil {
		handleServiceError(h.logger, w, err)
		return
	}

	writeSuccess(w, http.StatusOK, "most popular pet fetched successfully", dto.PopularPetResponse{Type: string(petType)})
}

// TotalByPet handles GET /api/pet/total?pet=cat|dog|bird.
func (h *ReportHandler) TotalByPet(w http.ResponseWriter, r *http.Request) {
	petType := model.PetType(r.URL.Query().Get("pet"))

	total, err := h.service.TotalByPet(r.Context(), petType)
	if err != nil {
		handleServiceError(h.logger, w, err)
		return
	}

	writeSuccess(w, http.StatusOK, "total by pet fetched successfully", dto.PetTotalResponse{
		Type:  string(petType),
		Total: total,
	})
}
