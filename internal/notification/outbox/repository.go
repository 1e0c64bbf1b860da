// Package outbox persists notification work durably so lifecycle operations
// can fire-and-forget: the triggering transaction inserts a record, the
// scheduler claims and delivers it.
package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"offermarket_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusEnqueued   Status = "enqueued"
	StatusProcessing Status = "processing"
	StatusSucceeded  Status = "succeeded"
	StatusFailed     Status = "failed"
)

// MaxAttempts is the delivery attempt ceiling before a record is parked as
// failed.
const MaxAttempts = 3

// Record is a durable notification job.
type Record struct {
	ID       uuid.UUID
	Kind     string
	Template string
	Payload  json.RawMessage
	RunAt    time.Time
	Status   Status
	Attempts int
}

// InsertParams describes a new outbox record.
type InsertParams struct {
	Kind     string
	Template string
	Payload  any
	RunAt    time.Time // zero means now
}

// Repository provides database operations for the notification outbox
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new outbox repository
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Insert stores a pending record and returns its id.
func (r *Repository) Insert(ctx context.Context, p InsertParams) (uuid.UUID, error) {
	if p.Kind == "" || p.Template == "" {
		return uuid.Nil, fmt.Errorf("kind and template are required")
	}
	if p.RunAt.IsZero() {
		p.RunAt = time.Now().UTC()
	}

	payloadBytes, err := json.Marshal(p.Payload)
	if err != nil {
		return uuid.Nil, fmt.Errorf("marshal payload: %w", err)
	}

	var id uuid.UUID
	err = r.pool.QueryRow(ctx, `
		INSERT INTO notification_outbox (kind, template, payload, run_at, status)
		VALUES ($1, $2, $3, $4, 'pending')
		RETURNING id`,
		p.Kind, p.Template, payloadBytes, p.RunAt,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("insert outbox record: %w", err)
	}
	return id, nil
}

// GetByID fetches one record.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Record, error) {
	rec, err := scanRecord(r.pool.QueryRow(ctx, `
		SELECT id, kind, template, payload, run_at, status, attempts
		FROM notification_outbox WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, apperr.NotFound("outbox record not found")
	}
	if err != nil {
		return Record{}, fmt.Errorf("get outbox record: %w", err)
	}
	return rec, nil
}

// ClaimPending atomically moves up to limit due pending records to enqueued
// and returns them. Concurrent dispatchers skip each other's rows.
func (r *Repository) ClaimPending(ctx context.Context, limit int) ([]Record, error) {
	if limit < 1 {
		limit = 50
	}

	rows, err := r.pool.Query(ctx, `
		WITH due AS (
			SELECT id FROM notification_outbox
			WHERE status = 'pending' AND run_at <= now()
			ORDER BY run_at ASC
			LIMIT $1
			FOR UPDATE SKIP LOCKED
		)
		UPDATE notification_outbox o
		SET status = 'enqueued', updated_at = now()
		FROM due WHERE o.id = due.id
		RETURNING o.id, o.kind, o.template, o.payload, o.run_at, o.status, o.attempts`, limit)
	if err != nil {
		return nil, fmt.Errorf("claim pending outbox records: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan outbox record: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// MarkProcessing flags a record as in-flight and counts the attempt.
func (r *Repository) MarkProcessing(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE notification_outbox
		SET status = 'processing', attempts = attempts + 1, updated_at = now()
		WHERE id = $1`, id)
	return err
}

// MarkSucceeded finishes a record.
func (r *Repository) MarkSucceeded(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE notification_outbox
		SET status = 'succeeded', last_error = NULL, updated_at = now()
		WHERE id = $1`, id)
	return err
}

// MarkFailed parks a record permanently.
func (r *Repository) MarkFailed(ctx context.Context, id uuid.UUID, lastError string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE notification_outbox
		SET status = 'failed', last_error = $2, updated_at = now()
		WHERE id = $1`, id, lastError)
	return err
}

// MarkPending returns a record to the pending pool for a later retry.
func (r *Repository) MarkPending(ctx context.Context, id uuid.UUID, lastError string, runAt time.Time) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE notification_outbox
		SET status = 'pending', last_error = $2, run_at = $3, updated_at = now()
		WHERE id = $1`, id, lastError, runAt)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (Record, error) {
	var rec Record
	var status string
	err := row.Scan(&rec.ID, &rec.Kind, &rec.Template, &rec.Payload, &rec.RunAt, &status, &rec.Attempts)
	rec.Status = Status(status)
	return rec, err
}
