// Package service provides business logic for the application.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/oklog/ulid/v2"

	"github.com/housetable/vetclinic/internal/metrics"
	"github.com/housetable/vetclinic/internal/model"
	"github.com/housetable/vetclinic/internal/store"
)

// PatientService handles patient business logic.
type PatientService struct {
	store   store.PatientStore
	metrics metrics.Recorder
	clock   *clock
}

// NewPatientService creates a new PatientService.
func NewPatientService(s store.PatientStore, recorder metrics.Recorder) *PatientService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &PatientService{
		store:   s,
		metrics: recorder,
		clock:   newClock(nil),
	}
}

// CreatePatientInput defines input for creating a patient.
type CreatePatientInput struct {
	Name             string
	Type             model.PetType
	OwnerName        string
	OwnerAddress     string
	OwnerPhoneNumber string
}

// Create validates input and stores a new patient.
func (s *PatientService) Create(ctx context.Context, input CreatePatientInput) (*model.Patient, error) {
	if err := validatePatient(input); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	patient := &model.Patient{
		ID:               ulid.Make().String(),
		Name:             strings.TrimSpace(input.Name),
		Type:             input.Type,
		OwnerName:        strings.TrimSpace(input.OwnerName),
		OwnerAddress:     strings.TrimSpace(input.OwnerAddress),
		OwnerPhoneNumber: strings.TrimSpace(input.OwnerPhoneNumber),
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := s.store.CreatePatient(ctx, patient); err != nil {
		return nil, fmt.Errorf("failed to create patient: %w", err)
	}

	s.metrics.IncPatientCreated()

	return patient, nil
}

// List returns every patient.
func (s *PatientService) List(ctx context.Context) ([]*model.Patient, error) {
	return s.store.ListPatients(ctx)
}

// Get retrieves a patient by ID.
func (s *PatientService) Get(ctx context.Context, id string) (*model.Patient, error) {
	patient, err := s.store.GetPatient(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidPatientID
		}
		return nil, err
	}
	return patient, nil
}

// Update merges patch into the patient and refreshes UpdatedAt.
func (s *PatientService) Update(ctx context.Context, id string, patch model.PatientPatch) (*model.Patient, error) {
	if err := validatePatientPatch(patch); err != nil {
		return nil, err
	}

	patient, err := s.store.UpdatePatient(ctx, id, trimPatientPatch(patch), s.clock.Now())
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidPatientID
		}
		return nil, fmt.Errorf("failed to update patient: %w", err)
	}

	s.metrics.IncPatientUpdated()

	return patient, nil
}

// Delete removes a patient. Deleting an unknown ID succeeds.
// The patient's appointments are kept.
func (s *PatientService) Delete(ctx context.Context, id string) error {
	if err := s.store.DeletePatient(ctx, id); err != nil {
		return fmt.Errorf("failed to delete patient: %w", err)
	}

	s.metrics.IncPatientDeleted()

	return nil
}

func validatePatient(input CreatePatientInput) error {
	required := []struct {
		field string
		value string
	}{
		{"name", input.Name},
		{"type", string(input.Type)},
		{"ownerName", input.OwnerName},
		{"ownerAddress", input.OwnerAddress},
		{"ownerPhoneNumber", input.OwnerPhoneNumber},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return validationError("could not create patient: " + r.field + " is required")
		}
	}

	if !input.Type.IsValid() {
		return validationError("could not create patient: invalid type " + string(input.Type))
	}

	return nil
}

func validatePatientPatch(patch model.PatientPatch) error {
	optional := []struct {
		field string
		value *string
	}{
		{"name", patch.Name},
		{"ownerName", patch.OwnerName},
		{"ownerAddress", patch.OwnerAddress},
		{"ownerPhoneNumber", patch.OwnerPhoneNumber},
	}
	for _, o := range optional {
		if o.value != nil && strings.TrimSpace(*o.value) == "" {
			return validationError("could not update patient: " + o.field + " must not be empty")
		}
	}

	if patch.Type != nil && !patch.Type.IsValid() {
		return validationError("could not update patient: invalid type " + string(*patch.Type))
	}

	return nil
}

func trimPatientPatch(patch model.PatientPatch) model.PatientPatch {
	patch.Name = trimPtr(patch.Name)
	patch.OwnerName = trimPtr(patch.OwnerName)
	patch.OwnerAddress = trimPtr(patch.OwnerAddress)
	patch.OwnerPhoneNumber = trimPtr(patch.OwnerPhoneNumber)
	return patch
}

func trimPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}
