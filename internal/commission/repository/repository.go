package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Setting is the database model for the system-wide commission default.
// Exactly one row exists; it is keyed by a constant singleton id.
type Setting struct {
	Rate float64 `db:"rate"`
	Type string  `db:"commission_type"`
}

// ErrNoSetting is returned when the singleton row has not been seeded yet.
var ErrNoSetting = errors.New("commission setting not found")

// Repository provides database operations for the commission default.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new commission repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Get reads the singleton commission setting.
func (r *Repository) Get(ctx context.Context) (Setting, error) {
	var s Setting
	err := r.pool.QueryRow(ctx,
		`SELECT rate, commission_type FROM commission_settings WHERE singleton = TRUE`,
	).Scan(&s.Rate, &s.Type)
	if errors.Is(err, pgx.ErrNoRows) {
		return Setting{}, ErrNoSetting
	}
	if err != nil {
		return Setting{}, fmt.Errorf("get commission setting: %w", err)
	}
	return s, nil
}

// Update upserts the singleton commission setting.
func (r *Repository) Update(ctx context.Context, s Setting) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO commission_settings (singleton, rate, commission_type, updated_at)
		 VALUES (TRUE, $1, $2, now())
		 ON CONFLICT (singleton) DO UPDATE SET rate = $1, commission_type = $2, updated_at = now()`,
		s.Rate, s.Type,
	)
	if err != nil {
		return fmt.Errorf("update commission setting: %w", err)
	}
	return nil
}
