package model

import "time"

// ReportPeriod is the calendar window a financial report covers.
type ReportPeriod string

const (
	PeriodWeek  ReportPeriod = "week"
	PeriodMonth ReportPeriod = "month"
)

// IsValid checks if the period is supported.
func (p ReportPeriod) IsValid() bool {
	return p == PeriodWeek || p == PeriodMonth
}

// ReportType selects settled or outstanding appointments.
type ReportType string

const (
	ReportPaid   ReportType = "paid"
	ReportUnpaid ReportType = "unpaid"
)

// IsValid checks if the report type is supported.
func (t ReportType) IsValid() bool {
	return t == ReportPaid || t == ReportUnpaid
}

// Methods returns the payment states matched by the report type.
func (t ReportType) Methods() []FeePaidBy {
	if t == ReportUnpaid {
		return []FeePaidBy{FeeUnpaid}
	}
	return PaidMethods
}

// TimeRange is an inclusive [From, To] interval.
type TimeRange struct {
	From time.Time
	To   time.Time
}

// Contains reports whether t lies inside the range, bounds included.
func (r TimeRange) Contains(t time.Time) bool {
	return !t.Before(r.From) && !t.After(r.To)
}

// Bounds returns the calendar week (Sunday first) or month containing now,
// evaluated in now's location. The end is the last millisecond of the period.
func (p ReportPeriod) Bounds(now time.Time) TimeRange {
	y, m, d := now.Date()
	loc := now.Location()

	var start, next time.Time
	switch p {
	case PeriodMonth:
		start = time.Date(y, m, 1, 0, 0, 0, 0, loc)
		next = start.AddDate(0, 1, 0)
	default:
		start = time.Date(y, m, d-int(now.Weekday()), 0, 0, 0, 0, loc)
		next = start.AddDate(0, 0, 7)
	}

	return TimeRange{From: start, To: next.Add(-time.Millisecond)}
}

// DayBounds returns 00:00:00.000 through 23:59:59.999 of day's calendar date in loc.
func DayBounds(day time.Time, loc *time.Location) TimeRange {
	y, m, d := day.In(loc).Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, loc)
	return TimeRange{From: start, To: start.AddDate(0, 0, 1).Add(-time.Millisecond)}
}
