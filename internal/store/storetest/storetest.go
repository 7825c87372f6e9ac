// Package storetest provides a conformance suite run against every
// store.Backend implementation.
package storetest

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/housetable/vetclinic/internal/model"
	"github.com/housetable/vetclinic/internal/store"
	"github.com/housetable/vetclinic/internal/testutil"
)

// OpenFunc returns an empty backend. It is called once per subtest.
type OpenFunc func(t *testing.T) store.Backend

// Run exercises open's backends against the shared store contract.
func Run(t *testing.T, open OpenFunc) {
	tests := []struct {
		name string
		fn   func(t *testing.T, ctx context.Context, b store.Backend)
	}{
		{"PatientLifecycle", testPatientLifecycle},
		{"PatientPartialUpdate", testPatientPartialUpdate},
		{"AppointmentRequiresPatient", testAppointmentRequiresPatient},
		{"AppointmentFilters", testAppointmentFilters},
		{"AppointmentUpdate", testAppointmentUpdate},
		{"DeletePatientKeepsAppointments", testDeletePatientKeepsAppointments},
		{"UnpaidTotal", testUnpaidTotal},
		{"PeriodTotal", testPeriodTotal},
		{"TopPetType", testTopPetType},
		{"PetTypeTotal", testPetTypeTotal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.fn(t, context.Background(), open(t))
		})
	}
}

var rates = model.DefaultRates()

func testPatientLifecycle(t *testing.T, ctx context.Context, b store.Backend) {
	p := testutil.NewTestPatient(t, model.PetTypeDog)
	if err := b.CreatePatient(ctx, p); err != nil {
		t.Fatalf("create patient: %v", err)
	}

	got, err := b.GetPatient(ctx, p.ID)
	if err != nil {
		t.Fatalf("get patient: %v", err)
	}
	assertPatientEqual(t, p, got)

	list, err := b.ListPatients(ctx)
	if err != nil {
		t.Fatalf("list patients: %v", err)
	}
	if len(list) != 1 || list[0].ID != p.ID {
		t.Fatalf("expected [%s], got %d patients", p.ID, len(list))
	}

	if err := b.DeletePatient(ctx, p.ID); err != nil {
		t.Fatalf("delete patient: %v", err)
	}
	if _, err := b.GetPatient(ctx, p.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := b.DeletePatient(ctx, p.ID); err != nil {
		t.Fatalf("second delete should succeed, got %v", err)
	}
}

func testPatientPartialUpdate(t *testing.T, ctx context.Context, b store.Backend) {
	p := testutil.NewTestPatient(t, model.PetTypeCat)
	if err := b.CreatePatient(ctx, p); err != nil {
		t.Fatalf("create patient: %v", err)
	}

	name := "Whiskers"
	bird := model.PetTypeBird
	updatedAt := p.UpdatedAt.Add(time.Second)

	got, err := b.UpdatePatient(ctx, p.ID, model.PatientPatch{Name: &name, Type: &bird}, updatedAt)
	if err != nil {
		t.Fatalf("update patient: %v", err)
	}

	want := *p
	want.Name = name
	want.Type = bird
	want.UpdatedAt = updatedAt
	assertPatientEqual(t, &want, got)

	stored, err := b.GetPatient(ctx, p.ID)
	if err != nil {
		t.Fatalf("get patient: %v", err)
	}
	assertPatientEqual(t, &want, stored)

	if _, err := b.UpdatePatient(ctx, "missing", model.PatientPatch{Name: &name}, updatedAt); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing patient, got %v", err)
	}
}

func testAppointmentRequiresPatient(t *testing.T, ctx context.Context, b store.Backend) {
	a := testutil.NewTestAppointment(t, "missing", time.Now(), model.FeePaidUSD, 10)
	if err := b.CreateAppointment(ctx, a); !errors.Is(err, store.ErrPatientNotFound) {
		t.Fatalf("expected ErrPatientNotFound, got %v", err)
	}

	list, err := b.ListAppointments(ctx, store.AppointmentFilter{})
	if err != nil {
		t.Fatalf("list appointments: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("expected no appointments to be written, got %d", len(list))
	}
}

func testAppointmentFilters(t *testing.T, ctx context.Context, b store.Backend) {
	p1 := mustPatient(t, ctx, b, model.PetTypeDog)
	p2 := mustPatient(t, ctx, b, model.PetTypeCat)

	day := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	late := mustAppointment(t, ctx, b, p1.ID, day.Add(15*time.Hour), model.FeeUnpaid, 20)
	early := mustAppointment(t, ctx, b, p1.ID, day.Add(9*time.Hour), model.FeePaidUSD, 50)
	edge := mustAppointment(t, ctx, b, p2.ID, day, model.FeeUnpaid, 5)
	mustAppointment(t, ctx, b, p2.ID, day.Add(24*time.Hour), model.FeePaidEUR, 7)

	rng := model.DayBounds(day, time.UTC)

	tests := []struct {
		name   string
		filter store.AppointmentFilter
		want   []string
	}{
		{"by patient ordered by start", store.AppointmentFilter{PatientID: p1.ID}, []string{early.ID, late.ID}},
		{"unpaid", store.AppointmentFilter{FeePaidBy: model.FeeUnpaid}, []string{edge.ID, late.ID}},
		{"day inclusive", store.AppointmentFilter{StartFrom: &rng.From, StartTo: &rng.To}, []string{edge.ID, early.ID, late.ID}},
		{"combined", store.AppointmentFilter{PatientID: p2.ID, StartFrom: &rng.From, StartTo: &rng.To}, []string{edge.ID}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list, err := b.ListAppointments(ctx, tt.filter)
			if err != nil {
				t.Fatalf("list appointments: %v", err)
			}
			got := make([]string, len(list))
			for i, a := range list {
				got[i] = a.ID
			}
			if len(got) != len(tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("expected %v, got %v", tt.want, got)
				}
			}
		})
	}
}

func testAppointmentUpdate(t *testing.T, ctx context.Context, b store.Backend) {
	p1 := mustPatient(t, ctx, b, model.PetTypeDog)
	p2 := mustPatient(t, ctx, b, model.PetTypeBird)
	a := mustAppointment(t, ctx, b, p1.ID, time.Now(), model.FeeUnpaid, 30)

	fee := model.FeePaidBTC
	amount := 0.001
	updatedAt := a.UpdatedAt.Add(time.Second)

	got, err := b.UpdateAppointment(ctx, a.ID, model.AppointmentPatch{
		PatientID: &p2.ID,
		FeePaidBy: &fee,
		Amount:    &amount,
	}, updatedAt)
	if err != nil {
		t.Fatalf("update appointment: %v", err)
	}
	if got.PatientID != p2.ID || got.FeePaidBy != fee || got.Amount != amount {
		t.Errorf("unexpected updated appointment: %+v", got)
	}
	if got.Description != a.Description || !got.StartTime.Equal(a.StartTime) {
		t.Errorf("untouched fields changed: %+v", got)
	}
	if !got.UpdatedAt.Equal(updatedAt) || !got.CreatedAt.Equal(a.CreatedAt) {
		t.Errorf("unexpected timestamps: created %v updated %v", got.CreatedAt, got.UpdatedAt)
	}

	missing := "missing"
	if _, err := b.UpdateAppointment(ctx, a.ID, model.AppointmentPatch{PatientID: &missing}, updatedAt); !errors.Is(err, store.ErrPatientNotFound) {
		t.Fatalf("expected ErrPatientNotFound, got %v", err)
	}
	if _, err := b.UpdateAppointment(ctx, "missing", model.AppointmentPatch{Amount: &amount}, updatedAt); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := b.DeleteAppointment(ctx, a.ID); err != nil {
		t.Fatalf("delete appointment: %v", err)
	}
	if err := b.DeleteAppointment(ctx, a.ID); err != nil {
		t.Fatalf("second delete should succeed, got %v", err)
	}
}

func testDeletePatientKeepsAppointments(t *testing.T, ctx context.Context, b store.Backend) {
	p := mustPatient(t, ctx, b, model.PetTypeDog)
	a := mustAppointment(t, ctx, b, p.ID, time.Now(), model.FeeUnpaid, 12)

	if err := b.DeletePatient(ctx, p.ID); err != nil {
		t.Fatalf("delete patient: %v", err)
	}

	list, err := b.ListAppointments(ctx, store.AppointmentFilter{PatientID: p.ID})
	if err != nil {
		t.Fatalf("list appointments: %v", err)
	}
	if len(list) != 1 || list[0].ID != a.ID {
		t.Fatalf("expected orphaned appointment to remain, got %d", len(list))
	}

	if _, ok, err := b.TopPetType(ctx); err != nil || ok {
		t.Fatalf("expected orphan to be excluded from pet tally, ok=%v err=%v", ok, err)
	}
	total, err := b.PetTypeTotal(ctx, model.PetTypeDog, rates)
	if err != nil {
		t.Fatalf("pet type total: %v", err)
	}
	assertAmount(t, 0, total)
}

func testUnpaidTotal(t *testing.T, ctx context.Context, b store.Backend) {
	p := mustPatient(t, ctx, b, model.PetTypeCat)
	other := mustPatient(t, ctx, b, model.PetTypeCat)

	total, err := b.UnpaidTotal(ctx, p.ID)
	if err != nil {
		t.Fatalf("unpaid total: %v", err)
	}
	assertAmount(t, 0, total)

	now := time.Now()
	mustAppointment(t, ctx, b, p.ID, now, model.FeeUnpaid, 20)
	mustAppointment(t, ctx, b, p.ID, now, model.FeeUnpaid, 15.5)
	mustAppointment(t, ctx, b, p.ID, now, model.FeePaidEUR, 100)
	mustAppointment(t, ctx, b, other.ID, now, model.FeeUnpaid, 99)

	total, err = b.UnpaidTotal(ctx, p.ID)
	if err != nil {
		t.Fatalf("unpaid total: %v", err)
	}
	assertAmount(t, 35.5, total)
}

func testPeriodTotal(t *testing.T, ctx context.Context, b store.Backend) {
	p := mustPatient(t, ctx, b, model.PetTypeDog)

	now := time.Date(2024, 5, 15, 12, 0, 0, 0, time.UTC)
	rng := model.PeriodWeek.Bounds(now)

	mustAppointment(t, ctx, b, p.ID, rng.From, model.FeePaidUSD, 10)
	mustAppointment(t, ctx, b, p.ID, rng.To, model.FeePaidEUR, 10)
	mustAppointment(t, ctx, b, p.ID, now, model.FeePaidBTC, 0.001)
	mustAppointment(t, ctx, b, p.ID, now, model.FeeUnpaid, 40)
	mustAppointment(t, ctx, b, p.ID, rng.From.Add(-time.Millisecond), model.FeePaidUSD, 1000)
	mustAppointment(t, ctx, b, p.ID, rng.To.Add(time.Millisecond), model.FeeUnpaid, 1000)

	paid, err := b.PeriodTotal(ctx, rng, model.ReportPaid.Methods(), rates)
	if err != nil {
		t.Fatalf("paid total: %v", err)
	}
	assertAmount(t, 10+10*model.RateEUR+0.001*model.RateBTC, paid)

	unpaid, err := b.PeriodTotal(ctx, rng, model.ReportUnpaid.Methods(), rates)
	if err != nil {
		t.Fatalf("unpaid total: %v", err)
	}
	assertAmount(t, 40, unpaid)

	empty := model.TimeRange{From: rng.From.AddDate(1, 0, 0), To: rng.To.AddDate(1, 0, 0)}
	none, err := b.PeriodTotal(ctx, empty, model.ReportPaid.Methods(), rates)
	if err != nil {
		t.Fatalf("empty total: %v", err)
	}
	assertAmount(t, 0, none)
}

func testTopPetType(t *testing.T, ctx context.Context, b store.Backend) {
	if _, ok, err := b.TopPetType(ctx); err != nil || ok {
		t.Fatalf("expected no top pet on empty store, ok=%v err=%v", ok, err)
	}

	dog := mustPatient(t, ctx, b, model.PetTypeDog)
	cat := mustPatient(t, ctx, b, model.PetTypeCat)
	now := time.Now()

	mustAppointment(t, ctx, b, dog.ID, now, model.FeePaidUSD, 1)
	mustAppointment(t, ctx, b, dog.ID, now, model.FeePaidUSD, 1)
	mustAppointment(t, ctx, b, cat.ID, now, model.FeePaidUSD, 1)
	mustAppointment(t, ctx, b, cat.ID, now, model.FeePaidUSD, 1)

	top, ok, err := b.TopPetType(ctx)
	if err != nil || !ok {
		t.Fatalf("top pet type: ok=%v err=%v", ok, err)
	}
	if top.Type != model.PetTypeCat || top.Count != 2 {
		t.Fatalf("expected tie to go to cat with 2, got %+v", top)
	}

	mustAppointment(t, ctx, b, dog.ID, now, model.FeeUnpaid, 1)

	top, _, err = b.TopPetType(ctx)
	if err != nil {
		t.Fatalf("top pet type: %v", err)
	}
	if top.Type != model.PetTypeDog || top.Count != 3 {
		t.Fatalf("expected dog with 3, got %+v", top)
	}
}

func testPetTypeTotal(t *testing.T, ctx context.Context, b store.Backend) {
	dog := mustPatient(t, ctx, b, model.PetTypeDog)
	cat := mustPatient(t, ctx, b, model.PetTypeCat)
	now := time.Now()

	mustAppointment(t, ctx, b, dog.ID, now, model.FeePaidEUR, 100)
	mustAppointment(t, ctx, b, dog.ID, now, model.FeeUnpaid, 50)
	mustAppointment(t, ctx, b, cat.ID, now, model.FeePaidUSD, 5)

	total, err := b.PetTypeTotal(ctx, model.PetTypeDog, rates)
	if err != nil {
		t.Fatalf("pet type total: %v", err)
	}
	assertAmount(t, 100*model.RateEUR+50, total)

	total, err = b.PetTypeTotal(ctx, model.PetTypeBird, rates)
	if err != nil {
		t.Fatalf("pet type total: %v", err)
	}
	assertAmount(t, 0, total)
}

func mustPatient(t *testing.T, ctx context.Context, b store.Backend, petType model.PetType) *model.Patient {
	t.Helper()
	p := testutil.NewTestPatient(t, petType)
	if err := b.CreatePatient(ctx, p); err != nil {
		t.Fatalf("create patient: %v", err)
	}
	return p
}

func mustAppointment(t *testing.T, ctx context.Context, b store.Backend, patientID string, start time.Time, fee model.FeePaidBy, amount float64) *model.Appointment {
	t.Helper()
	a := testutil.NewTestAppointment(t, patientID, start, fee, amount)
	if err := b.CreateAppointment(ctx, a); err != nil {
		t.Fatalf("create appointment: %v", err)
	}
	return a
}

func assertPatientEqual(t *testing.T, want, got *model.Patient) {
	t.Helper()
	if got.ID != want.ID || got.Name != want.Name || got.Type != want.Type ||
		got.OwnerName != want.OwnerName || got.OwnerAddress != want.OwnerAddress ||
		got.OwnerPhoneNumber != want.OwnerPhoneNumber {
		t.Fatalf("patient mismatch:\nwant %+v\ngot  %+v", want, got)
	}
	if !got.CreatedAt.Equal(want.CreatedAt) || !got.UpdatedAt.Equal(want.UpdatedAt) {
		t.Fatalf("timestamp mismatch: want %v/%v got %v/%v", want.CreatedAt, want.UpdatedAt, got.CreatedAt, got.UpdatedAt)
	}
}

func assertAmount(t *testing.T, want, got float64) {
	t.Helper()
	if math.Abs(want-got) > 1e-6 {
		t.Fatalf("expected amount %v, got %v", want, got)
	}
}
