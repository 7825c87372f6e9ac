package service

import "errors"

// Error kinds. Every error returned by a service either wraps one of these
// or is an unexpected store failure.
var (
	ErrValidation  = errors.New("validation error")
	ErrNotFound    = errors.New("not found")
	ErrAggregation = errors.New("aggregation error")
)

// KindError is an error of a known kind with a caller-facing message.
// The underlying cause, if any, is reachable through errors.Is and errors.As
// but never leaks into Error().
type KindError struct {
	kind  error
	msg   string
	cause error
}

func newError(kind error, msg string) *KindError {
	return &KindError{kind: kind, msg: msg}
}

// Error returns the caller-facing message.
func (e *KindError) Error() string {
	return e.msg
}

// Unwrap exposes the kind and the cause.
func (e *KindError) Unwrap() []error {
	if e.cause == nil {
		return []error{e.kind}
	}
	return []error{e.kind, e.cause}
}

// Is matches another KindError with the same kind and message.
func (e *KindError) Is(target error) bool {
	t, ok := target.(*KindError)
	return ok && t.kind == e.kind && t.msg == e.msg
}

// Cause returns the underlying failure, or nil.
func (e *KindError) Cause() error {
	return e.cause
}

// withCause returns a copy of e that also wraps cause.
func (e *KindError) withCause(cause error) *KindError {
	return &KindError{kind: e.kind, msg: e.msg, cause: cause}
}

// Service errors.
var (
	ErrInvalidPatientID     = newError(ErrNotFound, "invalid patient id")
	ErrInvalidAppointmentID = newError(ErrNotFound, "invalid appointment id")
	ErrNoPopularPet         = newError(ErrNotFound, "could not fetch popular pet")

	ErrRemainingBillFailed = newError(ErrAggregation, "could not fetch remaining bill")
	ErrReportFailed        = newError(ErrAggregation, "could not get reports")
	ErrPopularPetFailed    = newError(ErrAggregation, "could not fetch popular pet")
	ErrPetTotalFailed      = newError(ErrAggregation, "could not fetch total for pet")

	ErrInvalidPeriod     = newError(ErrValidation, "invalid period")
	ErrInvalidReportType = newError(ErrValidation, "invalid report type")
	ErrInvalidPetType    = newError(ErrValidation, "invalid pet type")
	ErrInvalidDay        = newError(ErrValidation, "invalid day")
)

func validationError(msg string) error {
	return newError(ErrValidation, msg)
}
