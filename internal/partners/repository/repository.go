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

// Partner is the database model for a service provider.
type Partner struct {
	ID                     uuid.UUID  `db:"id"`
	CompanyName            string     `db:"company_name"`
	ContactEmail           string     `db:"contact_email"`
	ContactPhone           string     `db:"contact_phone"`
	CommissionRateOverride *float64   `db:"commission_rate_override"`
	CommissionTypeOverride *string    `db:"commission_type_override"`
	IsSponsored            bool       `db:"is_sponsored"`
	IsActive               bool       `db:"is_active"`
	CreatedAt              time.Time  `db:"created_at"`
}

const partnerNotFoundMsg = "partner not found"

const partnerColumns = `id, company_name, contact_email, contact_phone,
	commission_rate_override, commission_type_override, is_sponsored, is_active, created_at`

// Repository provides database operations for partners
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new partners repository
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a new partner application.
func (r *Repository) Create(ctx context.Context, p Partner) (Partner, error) {
	query := `
		INSERT INTO partners (id, company_name, contact_email, contact_phone,
			commission_rate_override, commission_type_override, is_sponsored, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())
		RETURNING created_at`

	p.ID = uuid.New()
	err := r.pool.QueryRow(ctx, query,
		p.ID, p.CompanyName, p.ContactEmail, p.ContactPhone,
		p.CommissionRateOverride, p.CommissionTypeOverride, p.IsSponsored, p.IsActive,
	).Scan(&p.CreatedAt)
	if err != nil {
		return Partner{}, fmt.Errorf("create partner: %w", err)
	}
	return p, nil
}

// GetByID fetches one partner.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Partner, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+partnerColumns+` FROM partners WHERE id = $1`, id)
	p, err := scanPartner(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Partner{}, apperr.NotFound(partnerNotFoundMsg)
	}
	if err != nil {
		return Partner{}, fmt.Errorf("get partner: %w", err)
	}
	return p, nil
}

// ListEligible returns all active partners, the broadcast audience for a new
// quote opportunity.
func (r *Repository) ListEligible(ctx context.Context) ([]Partner, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+partnerColumns+` FROM partners WHERE is_active = TRUE ORDER BY created_at`,
	)
	if err != nil {
		return nil, fmt.Errorf("list eligible partners: %w", err)
	}
	defer rows.Close()

	var partners []Partner
	for rows.Next() {
		p, err := scanPartner(rows)
		if err != nil {
			return nil, fmt.Errorf("scan partner: %w", err)
		}
		partners = append(partners, p)
	}
	return partners, rows.Err()
}

// UpdateCommissionOverride sets or clears a partner's commission override.
func (r *Repository) UpdateCommissionOverride(ctx context.Context, id uuid.UUID, rate *float64, commissionType *string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE partners
		 SET commission_rate_override = $2, commission_type_override = $3
		 WHERE id = $1`,
		id, rate, commissionType,
	)
	if err != nil {
		return fmt.Errorf("update commission override: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(partnerNotFoundMsg)
	}
	return nil
}

// SetSponsored toggles a partner's sponsored placement flag.
func (r *Repository) SetSponsored(ctx context.Context, id uuid.UUID, sponsored bool) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE partners SET is_sponsored = $2 WHERE id = $1`, id, sponsored,
	)
	if err != nil {
		return fmt.Errorf("set sponsored: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(partnerNotFoundMsg)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPartner(row rowScanner) (Partner, error) {
	var p Partner
	err := row.Scan(&p.ID, &p.CompanyName, &p.ContactEmail, &p.ContactPhone,
		&p.CommissionRateOverride, &p.CommissionTypeOverride, &p.IsSponsored, &p.IsActive, &p.CreatedAt)
	return p, err
}
