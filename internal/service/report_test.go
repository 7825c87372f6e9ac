package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/housetable/vetclinic/internal/model"
	"github.com/housetable/vetclinic/internal/store"
)

func TestRemainingBill(t *testing.T) {
	ts := newTestServices(t)
	ctx := context.Background()
	rex := ts.createPatient(t, model.PetTypeDog)
	tom := ts.createPatient(t, model.PetTypeCat)

	ts.createAppointment(t, rex.ID, reportNow, model.FeeUnpaid, 12.5)
	ts.createAppointment(t, rex.ID, reportNow.AddDate(0, -3, 0), model.FeeUnpaid, 7.5)
	ts.createAppointment(t, rex.ID, reportNow, model.FeePaidUSD, 100)
	ts.createAppointment(t, tom.ID, reportNow, model.FeeUnpaid, 1000)

	got, err := ts.reports.RemainingBill(ctx, rex.ID)
	if err != nil {
		t.Fatalf("remaining bill: %v", err)
	}
	assertAmount(t, got, 20)

	lonely := ts.createPatient(t, model.PetTypeBird)
	got, err = ts.reports.RemainingBill(ctx, lonely.ID)
	if err != nil {
		t.Fatalf("remaining bill without appointments: %v", err)
	}
	assertAmount(t, got, 0)
}

func TestReportWeekPaid(t *testing.T) {
	ts := newTestServices(t)
	rex := ts.createPatient(t, model.PetTypeDog)

	sunday := time.Date(2024, time.May, 12, 0, 0, 0, 0, time.UTC)
	saturdayEnd := time.Date(2024, time.May, 18, 23, 59, 59, int(999*time.Millisecond), time.UTC)

	ts.createAppointment(t, rex.ID, sunday, model.FeePaidEUR, 10)
	ts.createAppointment(t, rex.ID, saturdayEnd, model.FeePaidUSD, 20)
	ts.createAppointment(t, rex.ID, reportNow, model.FeeUnpaid, 500)
	ts.createAppointment(t, rex.ID, sunday.Add(-time.Millisecond), model.FeePaidUSD, 1000)
	ts.createAppointment(t, rex.ID, saturdayEnd.Add(time.Millisecond), model.FeePaidUSD, 1000)

	got, err := ts.reports.Report(context.Background(), model.PeriodWeek, model.ReportPaid)
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	assertAmount(t, got, 10*1.09+20)
}

func TestReportMonthUnpaid(t *testing.T) {
	ts := newTestServices(t)
	rex := ts.createPatient(t, model.PetTypeDog)

	ts.createAppointment(t, rex.ID, time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC), model.FeeUnpaid, 30)
	ts.createAppointment(t, rex.ID, time.Date(2024, time.May, 31, 22, 0, 0, 0, time.UTC), model.FeeUnpaid, 12)
	ts.createAppointment(t, rex.ID, time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC), model.FeeUnpaid, 99)
	ts.createAppointment(t, rex.ID, reportNow, model.FeePaidBTC, 1)

	got, err := ts.reports.Report(context.Background(), model.PeriodMonth, model.ReportUnpaid)
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	assertAmount(t, got, 42)
}

func TestReportEmptyIsZero(t *testing.T) {
	ts := newTestServices(t)

	got, err := ts.reports.Report(context.Background(), model.PeriodWeek, model.ReportPaid)
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	assertAmount(t, got, 0)
}

func TestReportValidation(t *testing.T) {
	ts := newTestServices(t)
	ctx := context.Background()

	if _, err := ts.reports.Report(ctx, "year", model.ReportPaid); !errors.Is(err, ErrInvalidPeriod) {
		t.Fatalf("expected invalid period, got %v", err)
	}
	if _, err := ts.reports.Report(ctx, model.PeriodWeek, "refunded"); !errors.Is(err, ErrInvalidReportType) {
		t.Fatalf("expected invalid report type, got %v", err)
	}
	if _, err := ts.reports.Balance(ctx, "day"); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestBalance(t *testing.T) {
	ts := newTestServices(t)
	rex := ts.createPatient(t, model.PetTypeDog)

	ts.createAppointment(t, rex.ID, reportNow, model.FeePaidBTC, 0.001)
	ts.createAppointment(t, rex.ID, reportNow, model.FeePaidUSD, 50)
	ts.createAppointment(t, rex.ID, reportNow, model.FeeUnpaid, 30)

	got, err := ts.reports.Balance(context.Background(), model.PeriodMonth)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	assertAmount(t, got, 0.001*41205.5+50-30)
}

func TestBalanceUsesOneWindow(t *testing.T) {
	ts := newTestServices(t)
	rex := ts.createPatient(t, model.PetTypeDog)

	ts.createAppointment(t, rex.ID, reportNow, model.FeePaidUSD, 50)
	ts.createAppointment(t, rex.ID, reportNow, model.FeeUnpaid, 30)

	// The clock crosses into June after the first reading.
	endOfMay := time.Date(2024, time.May, 31, 23, 59, 59, 999_000_000, time.UTC)
	calls := 0
	ts.reports.now = func() time.Time {
		calls++
		if calls == 1 {
			return endOfMay
		}
		return endOfMay.Add(time.Millisecond)
	}

	got, err := ts.reports.Balance(context.Background(), model.PeriodMonth)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	assertAmount(t, got, 20)
	if calls != 1 {
		t.Fatalf("expected one clock reading, got %d", calls)
	}
}

func TestMostPopularPet(t *testing.T) {
	ts := newTestServices(t)
	ctx := context.Background()

	if _, err := ts.reports.MostPopularPet(ctx); !errors.Is(err, ErrNoPopularPet) {
		t.Fatalf("expected no popular pet, got %v", err)
	}

	tweety := ts.createPatient(t, model.PetTypeBird)
	polly := ts.createPatient(t, model.PetTypeBird)
	rex := ts.createPatient(t, model.PetTypeDog)

	ts.createAppointment(t, tweety.ID, reportNow, model.FeeUnpaid, 1)
	ts.createAppointment(t, polly.ID, reportNow, model.FeePaidUSD, 1)
	ts.createAppointment(t, polly.ID, reportNow, model.FeePaidUSD, 1)
	ts.createAppointment(t, rex.ID, reportNow, model.FeePaidUSD, 1)

	got, err := ts.reports.MostPopularPet(ctx)
	if err != nil {
		t.Fatalf("most popular pet: %v", err)
	}
	if got != model.PetTypeBird {
		t.Fatalf("expected bird, got %s", got)
	}
}

func TestMostPopularPetTieAndOrphans(t *testing.T) {
	ts := newTestServices(t)
	ctx := context.Background()

	rex := ts.createPatient(t, model.PetTypeDog)
	tom := ts.createPatient(t, model.PetTypeCat)
	ghost := ts.createPatient(t, model.PetTypeBird)

	ts.createAppointment(t, rex.ID, reportNow, model.FeePaidUSD, 1)
	ts.createAppointment(t, tom.ID, reportNow, model.FeePaidUSD, 1)
	ts.createAppointment(t, ghost.ID, reportNow, model.FeePaidUSD, 1)
	ts.createAppointment(t, ghost.ID, reportNow, model.FeePaidUSD, 1)

	if err := ts.patients.Delete(ctx, ghost.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	got, err := ts.reports.MostPopularPet(ctx)
	if err != nil {
		t.Fatalf("most popular pet: %v", err)
	}
	if got != model.PetTypeCat {
		t.Fatalf("expected cat to win the tie, got %s", got)
	}
}

func TestTotalByPet(t *testing.T) {
	ts := newTestServices(t)
	ctx := context.Background()

	tweety := ts.createPatient(t, model.PetTypeBird)
	rex := ts.createPatient(t, model.PetTypeDog)

	ts.createAppointment(t, tweety.ID, reportNow, model.FeeUnpaid, 8)
	ts.createAppointment(t, tweety.ID, reportNow.AddDate(-1, 0, 0), model.FeeUnpaid, 4)
	ts.createAppointment(t, rex.ID, reportNow, model.FeePaidEUR, 100)

	got, err := ts.reports.TotalByPet(ctx, model.PetTypeBird)
	if err != nil {
		t.Fatalf("total by pet: %v", err)
	}
	assertAmount(t, got, 12)

	got, err = ts.reports.TotalByPet(ctx, model.PetTypeDog)
	if err != nil {
		t.Fatalf("total by pet: %v", err)
	}
	assertAmount(t, got, 109)

	got, err = ts.reports.TotalByPet(ctx, model.PetTypeCat)
	if err != nil {
		t.Fatalf("total by pet without appointments: %v", err)
	}
	assertAmount(t, got, 0)

	if _, err := ts.reports.TotalByPet(ctx, "fish"); !errors.Is(err, ErrInvalidPetType) {
		t.Fatalf("expected invalid pet type, got %v", err)
	}
}

type failingView struct{}

var errStoreDown = errors.New("store down")

func (failingView) UnpaidTotal(context.Context, string) (float64, error) {
	return 0, errStoreDown
}

func (failingView) PeriodTotal(context.Context, model.TimeRange, []model.FeePaidBy, model.Rates) (float64, error) {
	return 0, errStoreDown
}

func (failingView) TopPetType(context.Context) (store.PetTypeCount, bool, error) {
	return store.PetTypeCount{}, false, errStoreDown
}

func (failingView) PetTypeTotal(context.Context, model.PetType, model.Rates) (float64, error) {
	return 0, errStoreDown
}

func TestReportStoreFailures(t *testing.T) {
	svc := NewReportService(failingView{}, time.UTC, nil)
	ctx := context.Background()

	tests := []struct {
		name    string
		call    func() error
		wantErr error
	}{
		{"remaining_bill", func() error { _, err := svc.RemainingBill(ctx, "p"); return err }, ErrRemainingBillFailed},
		{"report", func() error { _, err := svc.Report(ctx, model.PeriodWeek, model.ReportPaid); return err }, ErrReportFailed},
		{"balance", func() error { _, err := svc.Balance(ctx, model.PeriodMonth); return err }, ErrReportFailed},
		{"popular_pet", func() error { _, err := svc.MostPopularPet(ctx); return err }, ErrPopularPetFailed},
		{"total_by_pet", func() error { _, err := svc.TotalByPet(ctx, model.PetTypeDog); return err }, ErrPetTotalFailed},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := test.call()
			if !errors.Is(err, test.wantErr) {
				t.Fatalf("expected %v, got %v", test.wantErr, err)
			}
			if !errors.Is(err, ErrAggregation) {
				t.Fatalf("expected aggregation kind, got %v", err)
			}
			if !errors.Is(err, errStoreDown) {
				t.Fatalf("expected cause to be wrapped, got %v", err)
			}
			if err.Error() != test.wantErr.Error() {
				t.Fatalf("expected message %q, got %q", test.wantErr.Error(), err.Error())
			}
		})
	}
}
