package service

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/housetable/vetclinic/internal/metrics"
	"github.com/housetable/vetclinic/internal/model"
	"github.com/housetable/vetclinic/internal/store/memory"
)

// reportNow is a Wednesday; its week runs Sunday 2024-05-12 through Saturday 2024-05-18.
var reportNow = time.Date(2024, time.May, 15, 12, 0, 0, 0, time.UTC)

type testServices struct {
	store        *memory.Store
	recorder     *metrics.InMemoryRecorder
	patients     *PatientService
	appointments *AppointmentService
	reports      *ReportService
}

func newTestServices(t *testing.T) *testServices {
	t.Helper()

	st := memory.New()
	rec := metrics.NewInMemory()

	reports := NewReportService(st, time.UTC, rec)
	reports.now = func() time.Time { return reportNow }

	return &testServices{
		store:        st,
		recorder:     rec,
		patients:     NewPatientService(st, rec),
		appointments: NewAppointmentService(st, time.UTC, rec),
		reports:      reports,
	}
}

func (ts *testServices) createPatient(t *testing.T, petType model.PetType) *model.Patient {
	t.Helper()

	p, err := ts.patients.Create(context.Background(), CreatePatientInput{
		Name:             "Rex",
		Type:             petType,
		OwnerName:        "Ada",
		OwnerAddress:     "1 Main St",
		OwnerPhoneNumber: "555-0100",
	})
	if err != nil {
		t.Fatalf("create patient: %v", err)
	}
	return p
}

func (ts *testServices) createAppointment(t *testing.T, patientID string, start time.Time, fee model.FeePaidBy, amount float64) *model.Appointment {
	t.Helper()

	a, err := ts.appointments.Create(context.Background(), CreateAppointmentInput{
		PatientID:   patientID,
		StartTime:   start,
		EndTime:     start.Add(30 * time.Minute),
		Description: "checkup",
		FeePaidBy:   fee,
		Amount:      &amount,
	})
	if err != nil {
		t.Fatalf("create appointment: %v", err)
	}
	return a
}

func assertAmount(t *testing.T, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > 1e-6 {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func ptr[T any](v T) *T {
	return &v
}
