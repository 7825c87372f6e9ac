package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/housetable/vetclinic/internal/metrics"
	"github.com/housetable/vetclinic/internal/model"
	"github.com/housetable/vetclinic/internal/store"
)

// dayLayouts are the accepted forms of the ListForDay argument, tried in order.
var dayLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	time.RFC3339,
	time.RFC3339Nano,
}

// AppointmentService handles appointment business logic.
type AppointmentService struct {
	store   store.AppointmentStore
	metrics metrics.Recorder
	loc     *time.Location
	clock   *clock
}

// NewAppointmentService creates a new AppointmentService. Calendar days are
// evaluated in loc; nil means UTC.
func NewAppointmentService(s store.AppointmentStore, loc *time.Location, recorder metrics.Recorder) *AppointmentService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &AppointmentService{
		store:   s,
		metrics: recorder,
		loc:     loc,
		clock:   newClock(nil),
	}
}

// CreateAppointmentInput defines input for creating an appointment.
// Amount is a pointer so that a missing amount differs from zero.
type CreateAppointmentInput struct {
	PatientID   string
	StartTime   time.Time
	EndTime     time.Time
	Description string
	FeePaidBy   model.FeePaidBy
	Amount      *float64
}

// Create validates input and stores a new appointment. The referenced
// patient must exist; otherwise ErrInvalidPatientID is returned and
// nothing is written.
func (s *AppointmentService) Create(ctx context.Context, input CreateAppointmentInput) (*model.Appointment, error) {
	if err := validateAppointment(input); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	appointment := &model.Appointment{
		ID:          ulid.Make().String(),
		PatientID:   strings.TrimSpace(input.PatientID),
		StartTime:   storedTime(input.StartTime),
		EndTime:     storedTime(input.EndTime),
		Description: strings.TrimSpace(input.Description),
		FeePaidBy:   input.FeePaidBy,
		Amount:      *input.Amount,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.store.CreateAppointment(ctx, appointment); err != nil {
		if errors.Is(err, store.ErrPatientNotFound) {
			return nil, ErrInvalidPatientID
		}
		return nil, fmt.Errorf("failed to create appointment: %w", err)
	}

	s.metrics.IncAppointmentCreated()

	return appointment, nil
}

// ListByPatient returns the appointments of a patient ordered by start time.
func (s *AppointmentService) ListByPatient(ctx context.Context, patientID string) ([]*model.Appointment, error) {
	return s.store.ListAppointments(ctx, store.AppointmentFilter{PatientID: patientID})
}

// Update merges patch into the appointment and refreshes UpdatedAt.
func (s *AppointmentService) Update(ctx context.Context, id string, patch model.AppointmentPatch) (*model.Appointment, error) {
	if err := validateAppointmentPatch(patch); err != nil {
		return nil, err
	}

	patch.PatientID = trimPtr(patch.PatientID)
	patch.Description = trimPtr(patch.Description)
	if patch.StartTime != nil {
		t := storedTime(*patch.StartTime)
		patch.StartTime = &t
	}
	if patch.EndTime != nil {
		t := storedTime(*patch.EndTime)
		patch.EndTime = &t
	}

	appointment, err := s.store.UpdateAppointment(ctx, id, patch, s.clock.Now())
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			return nil, ErrInvalidAppointmentID
		case errors.Is(err, store.ErrPatientNotFound):
			return nil, ErrInvalidPatientID
		}
		return nil, fmt.Errorf("failed to update appointment: %w", err)
	}

	s.metrics.IncAppointmentUpdated()

	return appointment, nil
}

// Delete removes an appointment. Deleting an unknown ID succeeds.
func (s *AppointmentService) Delete(ctx context.Context, id string) error {
	if err := s.store.DeleteAppointment(ctx, id); err != nil {
		return fmt.Errorf("failed to delete appointment: %w", err)
	}

	s.metrics.IncAppointmentDeleted()

	return nil
}

// ListForDay returns appointments starting on the calendar day named by day,
// from 00:00:00.000 through 23:59:59.999 in the clinic time zone.
func (s *AppointmentService) ListForDay(ctx context.Context, day string) ([]*model.Appointment, error) {
	t, err := s.parseDay(day)
	if err != nil {
		return nil, err
	}

	rng := model.DayBounds(t, s.loc)
	return s.store.ListAppointments(ctx, store.AppointmentFilter{
		StartFrom: &rng.From,
		StartTo:   &rng.To,
	})
}

// ListUnpaid returns every appointment whose fee is still outstanding.
func (s *AppointmentService) ListUnpaid(ctx context.Context) ([]*model.Appointment, error) {
	return s.store.ListAppointments(ctx, store.AppointmentFilter{FeePaidBy: model.FeeUnpaid})
}

func (s *AppointmentService) parseDay(day string) (time.Time, error) {
	day = strings.TrimSpace(day)
	for _, layout := range dayLayouts {
		if t, err := time.ParseInLocation(layout, day, s.loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, ErrInvalidDay
}

// storedTime normalizes a client timestamp to UTC at timestampPrecision so
// day and period windows ending at .999 cover it on every backend.
func storedTime(t time.Time) time.Time {
	return t.UTC().Truncate(timestampPrecision)
}

func validateAppointment(input CreateAppointmentInput) error {
	switch {
	case strings.TrimSpace(input.PatientID) == "":
		return validationError("could not create appointment: patient is required")
	case input.StartTime.IsZero():
		return validationError("could not create appointment: startTime is required")
	case input.EndTime.IsZero():
		return validationError("could not create appointment: endTime is required")
	case strings.TrimSpace(input.Description) == "":
		return validationError("could not create appointment: description is required")
	case input.FeePaidBy == "":
		return validationError("could not create appointment: feePaidBy is required")
	case !input.FeePaidBy.IsValid():
		return validationError("could not create appointment: invalid feePaidBy " + string(input.FeePaidBy))
	case input.Amount == nil:
		return validationError("could not create appointment: amount is required")
	case *input.Amount < 0:
		return validationError("could not create appointment: amount must not be negative")
	}
	return nil
}

func validateAppointmentPatch(patch model.AppointmentPatch) error {
	switch {
	case patch.PatientID != nil && strings.TrimSpace(*patch.PatientID) == "":
		return validationError("could not update appointment: patient must not be empty")
	case patch.StartTime != nil && patch.StartTime.IsZero():
		return validationError("could not update appointment: startTime must not be empty")
	case patch.EndTime != nil && patch.EndTime.IsZero():
		return validationError("could not update appointment: endTime must not be empty")
	case patch.Description != nil && strings.TrimSpace(*patch.Description) == "":
		return validationError("could not update appointment: description must not be empty")
	case patch.FeePaidBy != nil && !patch.FeePaidBy.IsValid():
		return validationError("could not update appointment: invalid feePaidBy " + string(*patch.FeePaidBy))
	case patch.Amount != nil && *patch.Amount < 0:
		return validationError("could not update appointment: amount must not be negative")
	}
	return nil
}
