package model

import "time"

// FeePaidBy is the currency an appointment was settled in, or UNPAID.
type FeePaidBy string

const (
	FeePaidUSD FeePaidBy = "USD"
	FeePaidEUR FeePaidBy = "EUR"
	FeePaidBTC FeePaidBy = "BTC"
	FeeUnpaid  FeePaidBy = "UNPAID"
)

// PaidMethods lists the settled currencies.
var PaidMethods = []FeePaidBy{FeePaidUSD, FeePaidEUR, FeePaidBTC}

// IsValid checks if the value is a known payment state.
func (f FeePaidBy) IsValid() bool {
	switch f {
	case FeePaidUSD, FeePaidEUR, FeePaidBTC, FeeUnpaid:
		return true
	}
	return false
}

// IsPaid returns true for every state except UNPAID.
func (f FeePaidBy) IsPaid() bool {
	return f != FeeUnpaid
}

// Appointment is a visit of a patient. Amount is denominated in FeePaidBy.
type Appointment struct {
	ID          string    `json:"id" bson:"_id"`
	PatientID   string    `json:"patient" bson:"patient"`
	StartTime   time.Time `json:"startTime" bson:"startTime"`
	EndTime     time.Time `json:"endTime" bson:"endTime"`
	Description string    `json:"description" bson:"description"`
	FeePaidBy   FeePaidBy `json:"feePaidBy" bson:"feePaidBy"`
	Amount      float64   `json:"amount" bson:"amount"`
	CreatedAt   time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt" bson:"updatedAt"`
}

// AppointmentPatch holds a partial update. Nil fields are left untouched.
type AppointmentPatch struct {
	PatientID   *string
	StartTime   *time.Time
	EndTime     *time.Time
	Description *string
	FeePaidBy   *FeePaidBy
	Amount      *float64
}

// Apply merges the patch into the appointment.
func (p AppointmentPatch) Apply(a *Appointment) {
	if p.PatientID != nil {
		a.PatientID = *p.PatientID
	}
	if p.StartTime != nil {
		a.StartTime = *p.StartTime
	}
	if p.EndTime != nil {
		a.EndTime = *p.EndTime
	}
	if p.Description != nil {
		a.Description = *p.Description
	}
	if p.FeePaidBy != nil {
		a.FeePaidBy = *p.FeePaidBy
	}
	if p.Amount != nil {
		a.Amount = *p.Amount
	}
}
