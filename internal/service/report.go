package service

import (
	"context"
	"time"

	"github.com/housetable/vetclinic/internal/metrics"
	"github.com/housetable/vetclinic/internal/model"
	"github.com/housetable/vetclinic/internal/store"
)

// ReportService computes financial and popularity reports. Every call is a
// single read-only query against the store; nothing is cached.
type ReportService struct {
	view    store.ReportView
	rates   model.Rates
	loc     *time.Location
	now     func() time.Time
	metrics metrics.Recorder
}

// NewReportService creates a new ReportService. Report periods are
// evaluated in loc; nil means UTC.
func NewReportService(view store.ReportView, loc *time.Location, recorder metrics.Recorder) *ReportService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &ReportService{
		view:    view,
		rates:   model.DefaultRates(),
		loc:     loc,
		now:     time.Now,
		metrics: recorder,
	}
}

// RemainingBill returns the sum of a patient's unpaid appointment amounts.
// A patient without unpaid appointments owes 0.
func (s *ReportService) RemainingBill(ctx context.Context, patientID string) (float64, error) {
	defer s.observe(time.Now())

	total, err := s.view.UnpaidTotal(ctx, patientID)
	if err != nil {
		s.metrics.IncReportFailed()
		return 0, ErrRemainingBillFailed.withCause(err)
	}
	return total, nil
}

// Report sums the normalized amounts of paid or unpaid appointments that
// start within the current calendar week or month.
func (s *ReportService) Report(ctx context.Context, period model.ReportPeriod, reportType model.ReportType) (float64, error) {
	if !period.IsValid() {
		return 0, ErrInvalidPeriod
	}
	if !reportType.IsValid() {
		return 0, ErrInvalidReportType
	}

	return s.periodTotal(ctx, period.Bounds(s.now().In(s.loc)), reportType)
}

// Balance returns paid minus unpaid for the current period. Both sums use
// the same window.
func (s *ReportService) Balance(ctx context.Context, period model.ReportPeriod) (float64, error) {
	if !period.IsValid() {
		return 0, ErrInvalidPeriod
	}

	rng := period.Bounds(s.now().In(s.loc))

	paid, err := s.periodTotal(ctx, rng, model.ReportPaid)
	if err != nil {
		return 0, err
	}

	unpaid, err := s.periodTotal(ctx, rng, model.ReportUnpaid)
	if err != nil {
		return 0, err
	}

	return paid - unpaid, nil
}

func (s *ReportService) periodTotal(ctx context.Context, rng model.TimeRange, reportType model.ReportType) (float64, error) {
	defer s.observe(time.Now())

	total, err := s.view.PeriodTotal(ctx, rng, reportType.Methods(), s.rates)
	if err != nil {
		s.metrics.IncReportFailed()
		return 0, ErrReportFailed.withCause(err)
	}
	return total, nil
}

// MostPopularPet returns the pet type with the most appointments.
// Ties go to the alphabetically first type.
func (s *ReportService) MostPopularPet(ctx context.Context) (model.PetType, error) {
	defer s.observe(time.Now())

	top, ok, err := s.view.TopPetType(ctx)
	if err != nil {
		s.metrics.IncReportFailed()
		return "", ErrPopularPetFailed.withCause(err)
	}
	if !ok {
		return "", ErrNoPopularPet
	}
	return top.Type, nil
}

// TotalByPet sums the normalized amounts of appointments for patients of
// the given type. A type without appointments totals 0.
func (s *ReportService) TotalByPet(ctx context.Context, petType model.PetType) (float64, error) {
	if !petType.IsValid() {
		return 0, ErrInvalidPetType
	}

	defer s.observe(time.Now())

	total, err := s.view.PetTypeTotal(ctx, petType, s.rates)
	if err != nil {
		s.metrics.IncReportFailed()
		return 0, ErrPetTotalFailed.withCause(err)
	}
	return total, nil
}

func (s *ReportService) observe(start time.Time) {
	s.metrics.ObserveReportDuration(time.Since(start))
}
