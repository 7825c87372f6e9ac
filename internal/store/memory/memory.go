// Package memory is an in-process record store used for development and tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/housetable/vetclinic/internal/model"
	"github.com/housetable/vetclinic/internal/store"
)

// Store keeps patients and appointments in maps guarded by a single lock.
// Insertion order is retained so listings are stable.
type Store struct {
	mu sync.RWMutex

	patients     map[string]*model.Patient
	patientOrder []string

	appointments     map[string]*model.Appointment
	appointmentOrder []string
}

var _ store.Backend = (*Store)(nil)

// New returns an empty Store.
func New() *Store {
	return &Store{
		patients:     make(map[string]*model.Patient),
		appointments: make(map[string]*model.Appointment),
	}
}

// Ping always succeeds.
func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Close is a no-op.
func (s *Store) Close() {}

// CreatePatient stores a copy of p.
func (s *Store) CreatePatient(ctx context.Context, p *model.Patient) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *p
	s.patients[p.ID] = &cp
	s.patientOrder = append(s.patientOrder, p.ID)
	return nil
}

// ListPatients returns every patient in insertion order.
func (s *Store) ListPatients(ctx context.Context) ([]*model.Patient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*model.Patient, 0, len(s.patients))
	for _, id := range s.patientOrder {
		if p, ok := s.patients[id]; ok {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

// GetPatient returns a copy of the patient or store.ErrNotFound.
func (s *Store) GetPatient(ctx context.Context, id string) (*model.Patient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.patients[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

// UpdatePatient merges patch into the stored patient.
func (s *Store) UpdatePatient(ctx context.Context, id string, patch model.PatientPatch, updatedAt time.Time) (*model.Patient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.patients[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	patch.Apply(p)
	p.UpdatedAt = updatedAt

	cp := *p
	return &cp, nil
}

// DeletePatient removes the patient if present.
func (s *Store) DeletePatient(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.patients[id]; !ok {
		return nil
	}
	delete(s.patients, id)
	s.patientOrder = removeID(s.patientOrder, id)
	return nil
}

// CreateAppointment stores a copy of a. The patient lookup and the insert
// happen under the same lock.
func (s *Store) CreateAppointment(ctx context.Context, a *model.Appointment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.patients[a.PatientID]; !ok {
		return store.ErrPatientNotFound
	}

	cp := *a
	s.appointments[a.ID] = &cp
	s.appointmentOrder = append(s.appointmentOrder, a.ID)
	return nil
}

// ListAppointments returns the appointments matching filter ordered by
// start time, then ID.
func (s *Store) ListAppointments(ctx context.Context, filter store.AppointmentFilter) ([]*model.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*model.Appointment, 0)
	for _, id := range s.appointmentOrder {
		a, ok := s.appointments[id]
		if !ok || !filter.Matches(a) {
			continue
		}
		cp := *a
		out = append(out, &cp)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].StartTime.Equal(out[j].StartTime) {
			return out[i].StartTime.Before(out[j].StartTime)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// UpdateAppointment merges patch into the stored appointment.
func (s *Store) UpdateAppointment(ctx context.Context, id string, patch model.AppointmentPatch, updatedAt time.Time) (*model.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.appointments[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if patch.PatientID != nil {
		if _, ok := s.patients[*patch.PatientID]; !ok {
			return nil, store.ErrPatientNotFound
		}
	}
	patch.Apply(a)
	a.UpdatedAt = updatedAt

	cp := *a
	return &cp, nil
}

// DeleteAppointment removes the appointment if present.
func (s *Store) DeleteAppointment(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.appointments[id]; !ok {
		return nil
	}
	delete(s.appointments, id)
	s.appointmentOrder = removeID(s.appointmentOrder, id)
	return nil
}

// UnpaidTotal sums UNPAID amounts for patientID.
func (s *Store) UnpaidTotal(ctx context.Context, patientID string) (float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var sum float64
	for _, id := range s.appointmentOrder {
		a := s.appointments[id]
		if a.PatientID == patientID && a.FeePaidBy == model.FeeUnpaid {
			sum += a.Amount
		}
	}
	return sum, nil
}

// PeriodTotal sums normalized amounts inside r for the given fee states.
func (s *Store) PeriodTotal(ctx context.Context, r model.TimeRange, methods []model.FeePaidBy, rates model.Rates) (float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var sum float64
	for _, id := range s.appointmentOrder {
		a := s.appointments[id]
		if !r.Contains(a.StartTime) || !containsMethod(methods, a.FeePaidBy) {
			continue
		}
		sum += rates.Normalize(a.FeePaidBy, a.Amount)
	}
	return sum, nil
}

// TopPetType counts appointments per joined patient type.
func (s *Store) TopPetType(ctx context.Context) (store.PetTypeCount, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[model.PetType]int64)
	for _, a := range s.appointments {
		p, ok := s.patients[a.PatientID]
		if !ok {
			continue
		}
		counts[p.Type]++
	}
	if len(counts) == 0 {
		return store.PetTypeCount{}, false, nil
	}

	rows := make([]store.PetTypeCount, 0, len(counts))
	for t, c := range counts {
		rows = append(rows, store.PetTypeCount{Type: t, Count: c})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Count != rows[j].Count {
			return rows[i].Count > rows[j].Count
		}
		return rows[i].Type < rows[j].Type
	})
	return rows[0], true, nil
}

// PetTypeTotal sums normalized amounts of appointments whose patient has type t.
func (s *Store) PetTypeTotal(ctx context.Context, t model.PetType, rates model.Rates) (float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var sum float64
	for _, id := range s.appointmentOrder {
		a := s.appointments[id]
		p, ok := s.patients[a.PatientID]
		if !ok || p.Type != t {
			continue
		}
		sum += rates.Normalize(a.FeePaidBy, a.Amount)
	}
	return sum, nil
}

func containsMethod(methods []model.FeePaidBy, f model.FeePaidBy) bool {
	for _, m := range methods {
		if m == f {
			return true
		}
	}
	return false
}

func removeID(ids []string, id string) []string {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}
