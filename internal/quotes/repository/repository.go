package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"offermarket_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Quote statuses.
const (
	QuoteStatusPending        = "pending"
	QuoteStatusOffersReceived = "offers_received"
	QuoteStatusOfferApproved  = "offer_approved"
	QuoteStatusCompleted      = "completed"
	QuoteStatusCancelled      = "cancelled"
	QuoteStatusExpired        = "expired"
)

// Offer statuses.
const (
	OfferStatusPending   = "pending"
	OfferStatusApproved  = "approved"
	OfferStatusRejected  = "rejected"
	OfferStatusExpired   = "expired"
	OfferStatusWithdrawn = "withdrawn"
)

// Quote is the database model for a customer service request.
type Quote struct {
	ID              uuid.UUID `db:"id"`
	Status          string    `db:"status"`
	CustomerName    string    `db:"customer_name"`
	CustomerEmail   string    `db:"customer_email"`
	CustomerPhone   string    `db:"customer_phone"`
	ServiceType     string    `db:"service_type"`
	ServiceDate     time.Time `db:"service_date"`
	PickupAddress   string    `db:"pickup_address"`
	DeliveryAddress string    `db:"delivery_address"`
	Scope           string    `db:"scope"`
	CommissionRate  *float64  `db:"commission_rate"`
	CommissionType  *string   `db:"commission_type"`
	CreatedAt       time.Time `db:"created_at"`
}

// Offer is the database model for a partner bid on a quote.
type Offer struct {
	ID              uuid.UUID `db:"id"`
	QuoteID         uuid.UUID `db:"quote_id"`
	PartnerID       uuid.UUID `db:"partner_id"`
	Status          string    `db:"status"`
	TotalPriceCents int64     `db:"total_price_cents"`
	RankingScore    *float64  `db:"ranking_score"`
	CreatedAt       time.Time `db:"created_at"`
}

// OfferListing is an offer joined with the partner fields the customer
// listing needs for display and ordering.
type OfferListing struct {
	Offer
	PartnerName string `db:"company_name"`
	IsSponsored bool   `db:"is_sponsored"`
}

const (
	quoteNotFoundMsg = "quote not found"
	offerNotFoundMsg = "offer not found"
)

const quoteColumns = `id, status, customer_name, customer_email, customer_phone,
	service_type, service_date, pickup_address, delivery_address, scope,
	commission_rate, commission_type, created_at`

// Repository provides database operations for quotes and offers
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new quotes repository
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// CreateQuote inserts a new quote in pending status.
func (r *Repository) CreateQuote(ctx context.Context, q Quote) (Quote, error) {
	query := `
		INSERT INTO quotes (id, status, customer_name, customer_email, customer_phone,
			service_type, service_date, pickup_address, delivery_address, scope, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now())
		RETURNING created_at`

	q.ID = uuid.New()
	q.Status = QuoteStatusPending
	err := r.pool.QueryRow(ctx, query,
		q.ID, q.Status, q.CustomerName, q.CustomerEmail, q.CustomerPhone,
		q.ServiceType, q.ServiceDate, q.PickupAddress, q.DeliveryAddress, q.Scope,
	).Scan(&q.CreatedAt)
	if err != nil {
		return Quote{}, fmt.Errorf("create quote: %w", err)
	}
	return q, nil
}

// GetQuote fetches one quote.
func (r *Repository) GetQuote(ctx context.Context, id uuid.UUID) (Quote, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+quoteColumns+` FROM quotes WHERE id = $1`, id)
	q, err := scanQuote(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Quote{}, apperr.NotFound(quoteNotFoundMsg)
	}
	if err != nil {
		return Quote{}, fmt.Errorf("get quote: %w", err)
	}
	return q, nil
}

// GetOffer fetches one offer scoped to its quote. An offer id that exists
// under a different quote is treated as not found.
func (r *Repository) GetOffer(ctx context.Context, quoteID, offerID uuid.UUID) (Offer, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, quote_id, partner_id, status, total_price_cents, ranking_score, created_at
		FROM offers WHERE id = $1 AND quote_id = $2`, offerID, quoteID)

	var o Offer
	err := row.Scan(&o.ID, &o.QuoteID, &o.PartnerID, &o.Status, &o.TotalPriceCents, &o.RankingScore, &o.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Offer{}, apperr.NotFound(offerNotFoundMsg)
	}
	if err != nil {
		return Offer{}, fmt.Errorf("get offer: %w", err)
	}
	return o, nil
}

// ListOffers returns all offers for a quote joined with partner display
// fields, unordered; ordering is the ranking engine's job.
func (r *Repository) ListOffers(ctx context.Context, quoteID uuid.UUID) ([]OfferListing, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT o.id, o.quote_id, o.partner_id, o.status, o.total_price_cents,
			o.ranking_score, o.created_at, p.company_name, p.is_sponsored
		FROM offers o
		JOIN partners p ON p.id = o.partner_id
		WHERE o.quote_id = $1`, quoteID)
	if err != nil {
		return nil, fmt.Errorf("list offers: %w", err)
	}
	defer rows.Close()

	var offers []OfferListing
	for rows.Next() {
		var o OfferListing
		err := rows.Scan(&o.ID, &o.QuoteID, &o.PartnerID, &o.Status, &o.TotalPriceCents,
			&o.RankingScore, &o.CreatedAt, &o.PartnerName, &o.IsSponsored)
		if err != nil {
			return nil, fmt.Errorf("scan offer: %w", err)
		}
		offers = append(offers, o)
	}
	return offers, rows.Err()
}

// SubmitOffer inserts a pending offer and, in the same transaction, moves a
// pending quote to offers_received. The conditional update is a no-op once
// the quote has offers, and submissions against quotes past the open states
// are rejected.
func (r *Repository) SubmitOffer(ctx context.Context, o Offer) (Offer, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return Offer{}, fmt.Errorf("begin submit offer: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var status string
	err = tx.QueryRow(ctx, `SELECT status FROM quotes WHERE id = $1 FOR UPDATE`, o.QuoteID).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return Offer{}, apperr.NotFound(quoteNotFoundMsg)
	}
	if err != nil {
		return Offer{}, fmt.Errorf("lock quote: %w", err)
	}
	if status != QuoteStatusPending && status != QuoteStatusOffersReceived {
		return Offer{}, apperr.Conflict("quote is not open for offers")
	}

	o.ID = uuid.New()
	o.Status = OfferStatusPending
	err = tx.QueryRow(ctx, `
		INSERT INTO offers (id, quote_id, partner_id, status, total_price_cents, ranking_score, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())
		RETURNING created_at`,
		o.ID, o.QuoteID, o.PartnerID, o.Status, o.TotalPriceCents, o.RankingScore,
	).Scan(&o.CreatedAt)
	if err != nil {
		return Offer{}, fmt.Errorf("insert offer: %w", err)
	}

	if status == QuoteStatusPending {
		if _, err := tx.Exec(ctx,
			`UPDATE quotes SET status = $2 WHERE id = $1`, o.QuoteID, QuoteStatusOffersReceived,
		); err != nil {
			return Offer{}, fmt.Errorf("mark offers received: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return Offer{}, fmt.Errorf("commit submit offer: %w", err)
	}
	return o, nil
}

// ApproveOffer commits the approval decision atomically: the target offer
// becomes approved, every sibling offer is rejected regardless of its prior
// status, and the quote moves to offer_approved. The quote update is
// conditional on the quote still being open, so of two concurrent approvals
// exactly one commits; the loser rolls back with a conflict.
func (r *Repository) ApproveOffer(ctx context.Context, quoteID, offerID uuid.UUID) (Offer, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return Offer{}, fmt.Errorf("begin approve offer: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var o Offer
	err = tx.QueryRow(ctx, `
		UPDATE offers SET status = $3
		WHERE id = $1 AND quote_id = $2
		RETURNING id, quote_id, partner_id, status, total_price_cents, ranking_score, created_at`,
		offerID, quoteID, OfferStatusApproved,
	).Scan(&o.ID, &o.QuoteID, &o.PartnerID, &o.Status, &o.TotalPriceCents, &o.RankingScore, &o.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Offer{}, apperr.NotFound(offerNotFoundMsg)
	}
	if err != nil {
		return Offer{}, fmt.Errorf("approve offer: %w", err)
	}

	if _, err := tx.Exec(ctx, `
		UPDATE offers SET status = $3
		WHERE quote_id = $1 AND id <> $2`,
		quoteID, offerID, OfferStatusRejected,
	); err != nil {
		return Offer{}, fmt.Errorf("reject sibling offers: %w", err)
	}

	tag, err := tx.Exec(ctx, `
		UPDATE quotes SET status = $2
		WHERE id = $1 AND status IN ('pending', 'offers_received')`,
		quoteID, QuoteStatusOfferApproved,
	)
	if err != nil {
		return Offer{}, fmt.Errorf("mark quote approved: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Lost the race or the quote already left the open states.
		return Offer{}, apperr.Conflict("quote already has an approved offer or is closed")
	}

	if err := tx.Commit(ctx); err != nil {
		return Offer{}, fmt.Errorf("commit approve offer: %w", err)
	}
	return o, nil
}

// WithdrawOffer lets a partner retract a pending offer.
func (r *Repository) WithdrawOffer(ctx context.Context, quoteID, offerID, partnerID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE offers SET status = $4
		WHERE id = $1 AND quote_id = $2 AND partner_id = $3 AND status = $5`,
		offerID, quoteID, partnerID, OfferStatusWithdrawn, OfferStatusPending,
	)
	if err != nil {
		return fmt.Errorf("withdraw offer: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("no pending offer to withdraw")
	}
	return nil
}

// ExpireOffers marks pending offers on quotes whose service date has passed
// and expires the quotes themselves. Used by the background sweep.
func (r *Repository) ExpireOffers(ctx context.Context, cutoff time.Time) (int64, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin expire offers: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `
		UPDATE offers SET status = $2
		WHERE status = $3 AND quote_id IN (
			SELECT id FROM quotes
			WHERE service_date < $1 AND status IN ('pending', 'offers_received'))`,
		cutoff, OfferStatusExpired, OfferStatusPending,
	)
	if err != nil {
		return 0, fmt.Errorf("expire offers: %w", err)
	}

	if _, err := tx.Exec(ctx, `
		UPDATE quotes SET status = $2
		WHERE service_date < $1 AND status IN ('pending', 'offers_received')`,
		cutoff, QuoteStatusExpired,
	); err != nil {
		return 0, fmt.Errorf("expire quotes: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit expire offers: %w", err)
	}
	return tag.RowsAffected(), nil
}

// CompleteQuote closes an approved quote and snapshots the commission that
// applied at completion time, so later changes to the system default or the
// partner override never rewrite history.
func (r *Repository) CompleteQuote(ctx context.Context, id uuid.UUID, commissionRate float64, commissionType string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE quotes SET status = $2, commission_rate = $3, commission_type = $4
		WHERE id = $1 AND status = $5`,
		id, QuoteStatusCompleted, commissionRate, commissionType, QuoteStatusOfferApproved,
	)
	if err != nil {
		return fmt.Errorf("complete quote: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.Conflict("quote is not in an approvable state for completion")
	}
	return nil
}

// CancelQuote cancels an open quote and rejects its pending offers.
func (r *Repository) CancelQuote(ctx context.Context, id uuid.UUID) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin cancel quote: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `
		UPDATE quotes SET status = $2
		WHERE id = $1 AND status IN ('pending', 'offers_received')`,
		id, QuoteStatusCancelled,
	)
	if err != nil {
		return fmt.Errorf("cancel quote: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.Conflict("quote cannot be cancelled")
	}

	if _, err := tx.Exec(ctx, `
		UPDATE offers SET status = $2 WHERE quote_id = $1 AND status = $3`,
		id, OfferStatusRejected, OfferStatusPending,
	); err != nil {
		return fmt.Errorf("reject offers on cancel: %w", err)
	}

	return tx.Commit(ctx)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanQuote(row rowScanner) (Quote, error) {
	var q Quote
	err := row.Scan(&q.ID, &q.Status, &q.CustomerName, &q.CustomerEmail, &q.CustomerPhone,
		&q.ServiceType, &q.ServiceDate, &q.PickupAddress, &q.DeliveryAddress, &q.Scope,
		&q.CommissionRate, &q.CommissionType, &q.CreatedAt)
	return q, err
}
