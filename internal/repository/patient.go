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

const patientColumns = `id, name, type, owner_name, owner_address, owner_phone_number, created_at, updated_at`

// CreatePatient inserts a new patient into the database.
func (r *Repository) CreatePatient(ctx context.Context, p *model.Patient) error {
	query := `
		INSERT INTO patients (` + patientColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.pool.Exec(ctx, query,
		p.ID,
		p.Name,
		string(p.Type),
		p.OwnerName,
		p.OwnerAddress,
		p.OwnerPhoneNumber,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create patient: %w", err)
	}

	return nil
}

// ListPatients retrieves every patient, oldest first.
func (r *Repository) ListPatients(ctx context.Context) ([]*model.Patient, error) {
	query := `SELECT ` + patientColumns + ` FROM patients ORDER BY created_at ASC, id ASC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list patients: %w", err)
	}
	defer rows.Close()

	patients := make([]*model.Patient, 0)
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan patient: %w", err)
		}
		patients = append(patients, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating patients: %w", err)
	}

	return patients, nil
}

// GetPatient retrieves a patient by its ID.
func (r *Repository) GetPatient(ctx context.Context, id string) (*model.Patient, error) {
	query := `SELECT ` + patientColumns + ` FROM patients WHERE id = $1`

	p, err := scanPatient(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get patient by ID: %w", err)
	}

	return p, nil
}

// UpdatePatient applies a partial update in a single statement.
func (r *Repository) UpdatePatient(ctx context.Context, id string, patch model.PatientPatch, updatedAt time.Time) (*model.Patient, error) {
	query := `
		UPDATE patients
		SET name = COALESCE($2, name),
		    type = COALESCE($3, type),
		    owner_name = COALESCE($4, owner_name),
		    owner_address = COALESCE($5, owner_address),
		    owner_phone_number = COALESCE($6, owner_phone_number),
		    updated_at = $7
		WHERE id = $1
		RETURNING ` + patientColumns

	var petType *string
	if patch.Type != nil {
		s := string(*patch.Type)
		petType = &s
	}

	p, err := scanPatient(r.pool.QueryRow(ctx, query,
		id,
		patch.Name,
		petType,
		patch.OwnerName,
		patch.OwnerAddress,
		patch.OwnerPhoneNumber,
		updatedAt,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to update patient: %w", err)
	}

	return p, nil
}

// DeletePatient removes a patient. Appointments referencing it are kept.
func (r *Repository) DeletePatient(ctx context.Context, id string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM patients WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete patient: %w", err)
	}
	return nil
}

// scanPatient scans a single row into a Patient model.
func scanPatient(row pgx.Row) (*model.Patient, error) {
	var (
		p       model.Patient
		petType string
	)
	err := row.Scan(
		&p.ID,
		&p.Name,
		&petType,
		&p.OwnerName,
		&p.OwnerAddress,
		&p.OwnerPhoneNumber,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	p.Type = model.PetType(petType)
	return &p, err
}
