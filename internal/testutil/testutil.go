// Package testutil holds helpers shared by integration tests.
package testutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"
	"github.com/redis/go-redis/v9"

	"github.com/housetable/vetclinic/internal/model"
)

// RequireEnv returns an environment variable or skips the test if missing.
func RequireEnv(t testing.TB, key string) string {
	t.Helper()
	value := os.Getenv(key)
	if value == "" {
		t.Skipf("%s not set", key)
	}
	return value
}

const advisoryLockID int64 = 420420

// AcquireDBLock grabs a global advisory lock to serialize DB tests.
func AcquireDBLock(ctx context.Context, pool *pgxpool.Pool) (func() error, error) {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}

	if _, err := conn.Exec(ctx, "SELECT pg_advisory_lock($1)", advisoryLockID); err != nil {
		conn.Release()
		return nil, fmt.Errorf("acquire advisory lock: %w", err)
	}

	unlock := func() error {
		defer conn.Release()
		if _, err := conn.Exec(ctx, "SELECT pg_advisory_unlock($1)", advisoryLockID); err != nil {
			return fmt.Errorf("release advisory lock: %w", err)
		}
		return nil
	}

	return unlock, nil
}

// FlushRedis clears the current Redis database.
func FlushRedis(ctx context.Context, client *redis.Client) error {
	return client.FlushDB(ctx).Err()
}

// ProjectRoot returns the project root directory.
func ProjectRoot() (string, error) {
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		return "", fmt.Errorf("failed to resolve testutil path")
	}
	root := filepath.Clean(filepath.Join(filepath.Dir(filename), "..", ".."))
	return root, nil
}

// ============================================================================
// Test Data Factories
// ============================================================================

// NewTestPatient creates a test patient with sensible defaults.
// Timestamps are truncated to the precision every store keeps.
func NewTestPatient(t testing.TB, petType model.PetType) *model.Patient {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Millisecond)
	return &model.Patient{
		ID:               UniqueID("patient"),
		Name:             "Test " + string(petType),
		Type:             petType,
		OwnerName:        "Test Owner",
		OwnerAddress:     "1 Test Street",
		OwnerPhoneNumber: "555-0100",
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// NewTestAppointment creates a test appointment for patientID starting at start.
func NewTestAppointment(t testing.TB, patientID string, start time.Time, fee model.FeePaidBy, amount float64) *model.Appointment {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Millisecond)
	start = start.UTC().Truncate(time.Millisecond)
	return &model.Appointment{
		ID:          UniqueID("appointment"),
		PatientID:   patientID,
		StartTime:   start,
		EndTime:     start.Add(30 * time.Minute),
		Description: "Test appointment",
		FeePaidBy:   fee,
		Amount:      amount,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// UniqueID generates a unique ID for tests.
func UniqueID(prefix string) string {
	return prefix + "-" + ulid.Make().String()
}
