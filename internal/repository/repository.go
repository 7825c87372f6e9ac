// Package repository provides the PostgreSQL record store.
package repository

import (
	"context"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/housetable/vetclinic/internal/store"
	"github.com/housetable/vetclinic/migrations"
)

// Repository provides database access methods.
type Repository struct {
	pool *pgxpool.Pool
}

var _ store.Backend = (*Repository)(nil)

// New creates a new Repository with a connection pool.
// maxConns <= 0 keeps the default of 10.
func New(ctx context.Context, databaseURL string, maxConns int32) (*Repository, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	// Connection pool settings
	config.MaxConns = 10
	if maxConns > 0 {
		config.MaxConns = maxConns
	}
	config.MinConns = 2

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Repository{pool: pool}, nil
}

// Ping checks database connectivity.
func (r *Repository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// Close closes the database connection pool.
func (r *Repository) Close() {
	r.pool.Close()
}

// Pool returns the underlying connection pool.
// Use sparingly - prefer adding methods to Repository.
func (r *Repository) Pool() *pgxpool.Pool {
	return r.pool
}

// Migrate applies every embedded *.up.sql file in lexical order.
// The schema files are idempotent, so running Migrate on an up-to-date
// database is safe.
func (r *Repository) Migrate(ctx context.Context) error {
	files, err := migrationFiles(".up.sql")
	if err != nil {
		return err
	}

	for _, name := range files {
		body, err := fs.ReadFile(migrations.FS, name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		if _, err := r.pool.Exec(ctx, string(body)); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}
	}

	return nil
}

// Reset drops and recreates the schema. Intended for tests.
func (r *Repository) Reset(ctx context.Context) error {
	downs, err := migrationFiles(".down.sql")
	if err != nil {
		return err
	}

	// Drop in reverse order
	for i := len(downs) - 1; i >= 0; i-- {
		body, err := fs.ReadFile(migrations.FS, downs[i])
		if err != nil {
			return fmt.Errorf("read migration %s: %w", downs[i], err)
		}
		if _, err := r.pool.Exec(ctx, string(body)); err != nil {
			return fmt.Errorf("apply migration %s: %w", downs[i], err)
		}
	}

	return r.Migrate(ctx)
}

func migrationFiles(suffix string) ([]string, error) {
	entries, err := fs.ReadDir(migrations.FS, ".")
	if err != nil {
		return nil, fmt.Errorf("list migrations: %w", err)
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), suffix) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	return names, nil
}
