package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/housetable/vetclinic/internal/model"
	"github.com/housetable/vetclinic/internal/store"
)

const appointmentColumns = `id, patient_id, start_time, end_time, description, fee_paid_by, amount, created_at, updated_at`

// CreateAppointment inserts an appointment only if its patient exists.
// The existence check and the insert are one statement.
func (r *Repository) CreateAppointment(ctx context.Context, a *model.Appointment) error {
	query := `
		INSERT INTO appointments (` + appointmentColumns + `)
		SELECT $1::text, $2::text, $3::timestamptz, $4::timestamptz, $5::text,
		       $6::text, $7::double precision, $8::timestamptz, $9::timestamptz
		WHERE EXISTS (SELECT 1 FROM patients WHERE id = $2::text)
	`

	result, err := r.pool.Exec(ctx, query,
		a.ID,
		a.PatientID,
		a.StartTime,
		a.EndTime,
		a.Description,
		string(a.FeePaidBy),
		a.Amount,
		a.CreatedAt,
		a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create appointment: %w", err)
	}

	if result.RowsAffected() == 0 {
		return store.ErrPatientNotFound
	}

	return nil
}

// ListAppointments retrieves appointments matching the filter, ordered by start time.
func (r *Repository) ListAppointments(ctx context.Context, filter store.AppointmentFilter) ([]*model.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE TRUE`
	args := []any{}
	argIndex := 1

	if filter.PatientID != "" {
		query += fmt.Sprintf(" AND patient_id = $%d", argIndex)
		args = append(args, filter.PatientID)
		argIndex++
	}

	if filter.FeePaidBy != "" {
		query += fmt.Sprintf(" AND fee_paid_by = $%d", argIndex)
		args = append(args, string(filter.FeePaidBy))
		argIndex++
	}

	if filter.StartFrom != nil {
		query += fmt.Sprintf(" AND start_time >= $%d", argIndex)
		args = append(args, *filter.StartFrom)
		argIndex++
	}

	if filter.StartTo != nil {
		query += fmt.Sprintf(" AND start_time <= $%d", argIndex)
		args = append(args, *filter.StartTo)
	}

	query += " ORDER BY start_time ASC, id ASC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	defer rows.Close()

	appointments := make([]*model.Appointment, 0)
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan appointment: %w", err)
		}
		appointments = append(appointments, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating appointments: %w", err)
	}

	return appointments, nil
}

// UpdateAppointment applies a partial update. When the patch moves the
// appointment to another patient, that patient is locked for the duration
// of the transaction so it cannot disappear underneath the update.
func (r *Repository) UpdateAppointment(ctx context.Context, id string, patch model.AppointmentPatch, updatedAt time.Time) (*model.Appointment, error) {
	query := `
		UPDATE appointments
		SET patient_id = COALESCE($2, patient_id),
		    start_time = COALESCE($3, start_time),
		    end_time = COALESCE($4, end_time),
		    description = COALESCE($5, description),
		    fee_paid_by = COALESCE($6, fee_paid_by),
		    amount = COALESCE($7, amount),
		    updated_at = $8
		WHERE id = $1
		RETURNING ` + appointmentColumns

	var feePaidBy *string
	if patch.FeePaidBy != nil {
		s := string(*patch.FeePaidBy)
		feePaidBy = &s
	}

	var updated *model.Appointment
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if patch.PatientID != nil {
			var patientID string
			err := tx.QueryRow(ctx,
				`SELECT id FROM patients WHERE id = $1 FOR SHARE`,
				*patch.PatientID,
			).Scan(&patientID)
			if errors.Is(err, pgx.ErrNoRows) {
				return store.ErrPatientNotFound
			}
			if err != nil {
				return fmt.Errorf("failed to check patient: %w", err)
			}
		}

		a, err := scanAppointment(tx.QueryRow(ctx, query,
			id,
			patch.PatientID,
			patch.StartTime,
			patch.EndTime,
			patch.Description,
			feePaidBy,
			patch.Amount,
			updatedAt,
		))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return store.ErrNotFound
			}
			return fmt.Errorf("failed to update appointment: %w", err)
		}

		updated = a
		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// DeleteAppointment removes an appointment.
func (r *Repository) DeleteAppointment(ctx context.Context, id string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM appointments WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete appointment: %w", err)
	}
	return nil
}

// scanAppointment scans a single row into an Appointment model.
func scanAppointment(row pgx.Row) (*model.Appointment, error) {
	var (
		a         model.Appointment
		feePaidBy string
	)
	err := row.Scan(
		&a.ID,
		&a.PatientID,
		&a.StartTime,
		&a.EndTime,
		&a.Description,
		&feePaidBy,
		&a.Amount,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	a.FeePaidBy = model.FeePaidBy(feePaidBy)
	return &a, err
}
