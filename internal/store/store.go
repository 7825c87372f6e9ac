// Package store declares the record store ports shared by every storage backend.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/housetable/vetclinic/internal/model"
)

// Common store errors. Backends return these so services can map them
// without knowing which backend is in use.
var (
	ErrNotFound        = errors.New("record not found")
	ErrPatientNotFound = errors.New("referenced patient not found")
)

// PatientStore persists patients.
type PatientStore interface {
	CreatePatient(ctx context.Context, p *model.Patient) error
	ListPatients(ctx context.Context) ([]*model.Patient, error)
	GetPatient(ctx context.Context, id string) (*model.Patient, error)
	// UpdatePatient applies patch and returns the stored record, or ErrNotFound.
	UpdatePatient(ctx context.Context, id string, patch model.PatientPatch, updatedAt time.Time) (*model.Patient, error)
	// DeletePatient removes the record. Deleting a missing id is not an error.
	DeletePatient(ctx context.Context, id string) error
}

// AppointmentFilter narrows an appointment listing. Zero fields match everything.
type AppointmentFilter struct {
	PatientID string
	FeePaidBy model.FeePaidBy
	StartFrom *time.Time
	StartTo   *time.Time
}

// Matches reports whether a satisfies the filter.
func (f AppointmentFilter) Matches(a *model.Appointment) bool {
	if f.PatientID != "" && a.PatientID != f.PatientID {
		return false
	}
	if f.FeePaidBy != "" && a.FeePaidBy != f.FeePaidBy {
		return false
	}
	if f.StartFrom != nil && a.StartTime.Before(*f.StartFrom) {
		return false
	}
	if f.StartTo != nil && a.StartTime.After(*f.StartTo) {
		return false
	}
	return true
}

// AppointmentStore persists appointments.
type AppointmentStore interface {
	// CreateAppointment inserts a. It returns ErrPatientNotFound when
	// a.PatientID does not reference a stored patient.
	CreateAppointment(ctx context.Context, a *model.Appointment) error
	ListAppointments(ctx context.Context, filter AppointmentFilter) ([]*model.Appointment, error)
	UpdateAppointment(ctx context.Context, id string, patch model.AppointmentPatch, updatedAt time.Time) (*model.Appointment, error)
	DeleteAppointment(ctx context.Context, id string) error
}

// PetTypeCount is one row of the appointments-per-pet-type tally.
type PetTypeCount struct {
	Type  model.PetType
	Count int64
}

// ReportView is the read-only join of appointments onto their patients.
//
// Appointments whose patient no longer exists are excluded from every
// pet-type aggregation. Sums over no rows are 0.
type ReportView interface {
	// UnpaidTotal sums the raw amount of UNPAID appointments of a patient.
	UnpaidTotal(ctx context.Context, patientID string) (float64, error)
	// PeriodTotal sums amount*rate over appointments starting inside r
	// whose fee state is one of methods.
	PeriodTotal(ctx context.Context, r model.TimeRange, methods []model.FeePaidBy, rates model.Rates) (float64, error)
	// TopPetType returns the pet type with the most appointments.
	// Ties go to the alphabetically first type. ok is false when nothing joins.
	TopPetType(ctx context.Context) (top PetTypeCount, ok bool, err error)
	// PetTypeTotal sums amount*rate over appointments of patients of type t.
	PetTypeTotal(ctx context.Context, t model.PetType, rates model.Rates) (float64, error)
}

// Backend bundles the ports a storage implementation provides.
type Backend interface {
	PatientStore
	AppointmentStore
	ReportView
	Ping(ctx context.Context) error
	Close()
}
