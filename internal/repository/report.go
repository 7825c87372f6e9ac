package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/lib/pq"

	"github.com/housetable/vetclinic/internal/model"
	"github.com/housetable/vetclinic/internal/store"
)

// UnpaidTotal sums the outstanding amount of a patient's appointments.
func (r *Repository) UnpaidTotal(ctx context.Context, patientID string) (float64, error) {
	query := `
		SELECT COALESCE(SUM(amount), 0)
		FROM appointments
		WHERE patient_id = $1 AND fee_paid_by = $2
	`

	var total float64
	if err := r.pool.QueryRow(ctx, query, patientID, string(model.FeeUnpaid)).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to sum unpaid amount: %w", err)
	}

	return total, nil
}

// PeriodTotal sums normalized amounts of appointments starting inside rng.
func (r *Repository) PeriodTotal(ctx context.Context, rng model.TimeRange, methods []model.FeePaidBy, rates model.Rates) (float64, error) {
	rate, rateArgs := rateExpr("fee_paid_by", 4, rates)
	query := `
		SELECT COALESCE(SUM(amount * ` + rate + `), 0)
		FROM appointments
		WHERE start_time >= $1 AND start_time <= $2 AND fee_paid_by = ANY($3::text[])
	`

	args := append([]any{rng.From, rng.To, pq.Array(methodStrings(methods))}, rateArgs...)

	var total float64
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to sum period amount: %w", err)
	}

	return total, nil
}

// TopPetType joins appointments onto patients and returns the busiest type.
func (r *Repository) TopPetType(ctx context.Context) (store.PetTypeCount, bool, error) {
	query := `
		SELECT p.type, COUNT(*) AS appointments
		FROM appointments a
		JOIN patients p ON p.id = a.patient_id
		GROUP BY p.type
		ORDER BY appointments DESC, p.type ASC
		LIMIT 1
	`

	var (
		petType string
		count   int64
	)
	err := r.pool.QueryRow(ctx, query).Scan(&petType, &count)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return store.PetTypeCount{}, false, nil
		}
		return store.PetTypeCount{}, false, fmt.Errorf("failed to count pet types: %w", err)
	}

	return store.PetTypeCount{Type: model.PetType(petType), Count: count}, true, nil
}

// PetTypeTotal sums normalized amounts of appointments for patients of type t.
func (r *Repository) PetTypeTotal(ctx context.Context, t model.PetType, rates model.Rates) (float64, error) {
	rate, rateArgs := rateExpr("a.fee_paid_by", 2, rates)
	query := `
		SELECT COALESCE(SUM(a.amount * ` + rate + `), 0)
		FROM appointments a
		JOIN patients p ON p.id = a.patient_id
		WHERE p.type = $1
	`

	args := append([]any{string(t)}, rateArgs...)

	var total float64
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to sum pet type amount: %w", err)
	}

	return total, nil
}

// rateExpr builds a CASE expression selecting the conversion rate for column.
// Placeholders are numbered from firstArg; the returned args fill them.
func rateExpr(column string, firstArg int, rates model.Rates) (string, []any) {
	expr := "CASE " + column
	args := make([]any, 0, len(model.PaidMethods)+2)

	states := append(append([]model.FeePaidBy{}, model.PaidMethods...), model.FeeUnpaid)
	for i, state := range states {
		expr += fmt.Sprintf(" WHEN '%s' THEN $%d::double precision", state, firstArg+i)
		args = append(args, rates.Rate(state))
	}
	expr += " ELSE 1 END"

	return expr, args
}

func methodStrings(methods []model.FeePaidBy) []string {
	out := make([]string, len(methods))
	for i, m := range methods {
		out[i] = string(m)
	}
	return out
}
