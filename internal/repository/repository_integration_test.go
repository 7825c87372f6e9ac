//go:build integration

package repository

import (
	"context"
	"testing"

	"github.com/housetable/vetclinic/internal/store"
	"github.com/housetable/vetclinic/internal/store/storetest"
	"github.com/housetable/vetclinic/internal/testutil"
)

// ============================================================================
// Repository Integration Tests
// ============================================================================

func TestIntegrationRepository_Store(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Backend {
		_, repo := newTestEnv(t)
		return repo
	})
}

func TestIntegrationRepository_MigrateIsIdempotent(t *testing.T) {
	ctx, repo := newTestEnv(t)

	if err := repo.Migrate(ctx); err != nil {
		t.Fatalf("second migrate: %v", err)
	}

	for _, table := range []string{"patients", "appointments"} {
		var exists bool
		err := repo.Pool().QueryRow(ctx, `
			SELECT EXISTS (
				SELECT FROM information_schema.tables
				WHERE table_schema = 'public'
				AND table_name = $1
			)
		`, table).Scan(&exists)
		if err != nil {
			t.Fatalf("check table %s: %v", table, err)
		}
		if !exists {
			t.Errorf("table %q should exist after migrations", table)
		}
	}
}

func TestIntegrationRepository_RejectsInvalidFeeState(t *testing.T) {
	ctx, repo := newTestEnv(t)

	p := testutil.NewTestPatient(t, "dog")
	if err := repo.CreatePatient(ctx, p); err != nil {
		t.Fatalf("create patient: %v", err)
	}

	a := testutil.NewTestAppointment(t, p.ID, p.CreatedAt, "GBP", 10)
	if err := repo.CreateAppointment(ctx, a); err == nil {
		t.Fatal("expected check constraint violation for unknown fee state")
	}
}

// ============================================================================
// Test Environment Setup
// ============================================================================

func newTestEnv(t *testing.T) (context.Context, *Repository) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration tests in short mode")
	}

	ctx := context.Background()
	dbURL := testutil.RequireEnv(t, "DATABASE_URL")

	repo, err := New(ctx, dbURL, 4)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(repo.Close)

	unlock, err := testutil.AcquireDBLock(ctx, repo.Pool())
	if err != nil {
		t.Fatalf("acquire db lock: %v", err)
	}
	t.Cleanup(func() {
		_ = unlock()
	})

	if err := repo.Reset(ctx); err != nil {
		t.Fatalf("reset schema: %v", err)
	}

	return ctx, repo
}
