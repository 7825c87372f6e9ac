package dto

import (
	"time"

	"github.com/housetable/vetclinic/internal/model"
)

// CreateAppointmentRequest represents the request body for creating an appointment.
// Times are RFC 3339.
type CreateAppointmentRequest struct {
	Patient     string     `json:"patient"`
	StartTime   *time.Time `json:"startTime"`
	EndTime     *time.Time `json:"endTime"`
	Description string     `json:"description"`
	FeePaidBy   string     `json:"feePaidBy"`
	Amount      *float64   `json:"amount"`
}

// UpdateAppointmentRequest represents the request body for updating an appointment.
// Omitted fields are left unchanged.
type UpdateAppointmentRequest struct {
	Patient     *string    `json:"patient,omitempty"`
	StartTime   *time.Time `json:"startTime,omitempty"`
	EndTime     *time.Time `json:"endTime,omitempty"`
	Description *string    `json:"description,omitempty"`
	FeePaidBy   *string    `json:"feePaidBy,omitempty"`
	Amount      *float64   `json:"amount,omitempty"`
}

// ToPatch converts the request into a model patch.
func (r UpdateAppointmentRequest) ToPatch() model.AppointmentPatch {
	patch := model.AppointmentPatch{
		PatientID:   r.Patient,
		StartTime:   r.StartTime,
		EndTime:     r.EndTime,
		Description: r.Description,
		Amount:      r.Amount,
	}
	if r.FeePaidBy != nil {
		f := model.FeePaidBy(*r.FeePaidBy)
		patch.FeePaidBy = &f
	}
	return patch
}
