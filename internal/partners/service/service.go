// Package service implements partner management: applications, broadcast
// eligibility, and per-partner commission overrides.
package service

import (
	"context"

	commission "offermarket_backend/internal/commission/service"
	"offermarket_backend/internal/events"
	"offermarket_backend/internal/partners/repository"
	"offermarket_backend/platform/apperr"
	"offermarket_backend/platform/phone"

	"github.com/google/uuid"
)

// Store is the persistence port for partners.
type Store interface {
	Create(ctx context.Context, p repository.Partner) (repository.Partner, error)
	GetByID(ctx context.Context, id uuid.UUID) (repository.Partner, error)
	ListEligible(ctx context.Context) ([]repository.Partner, error)
	UpdateCommissionOverride(ctx context.Context, id uuid.UUID, rate *float64, commissionType *string) error
	SetSponsored(ctx context.Context, id uuid.UUID, sponsored bool) error
}

// Service coordinates partner operations.
type Service struct {
	store      Store
	commission *commission.Service
	bus        events.Bus
}

// New creates a new partners service.
func New(store Store, commissionSvc *commission.Service, bus events.Bus) *Service {
	return &Service{store: store, commission: commissionSvc, bus: bus}
}

// ApplyInput carries a new partner application.
type ApplyInput struct {
	CompanyName  string
	ContactEmail string
	ContactPhone string
}

// Apply registers a new partner. The contact phone is normalized to E.164 so
// downstream channels have a stable reference. New partners start active and
// unsponsored with no commission override.
func (s *Service) Apply(ctx context.Context, in ApplyInput) (repository.Partner, error) {
	partner, err := s.store.Create(ctx, repository.Partner{
		CompanyName:  in.CompanyName,
		ContactEmail: in.ContactEmail,
		ContactPhone: phone.NormalizeE164(in.ContactPhone),
		IsActive:     true,
	})
	if err != nil {
		return repository.Partner{}, err
	}

	s.bus.Publish(ctx, events.PartnerApplicationReceived{
		BaseEvent:    events.NewBaseEvent(),
		PartnerID:    partner.ID,
		CompanyName:  partner.CompanyName,
		ContactEmail: partner.ContactEmail,
		VerifyToken:  uuid.NewString(),
	})

	return partner, nil
}

// Get returns one partner.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (repository.Partner, error) {
	return s.store.GetByID(ctx, id)
}

// ListEligible returns the active partners that should receive new quote
// opportunity broadcasts.
func (s *Service) ListEligible(ctx context.Context) ([]repository.Partner, error) {
	return s.store.ListEligible(ctx)
}

// SetCommissionOverride validates and stores a per-partner override. Both
// fields are optional and independent; passing nil for both clears the
// override entirely.
func (s *Service) SetCommissionOverride(ctx context.Context, id uuid.UUID, rate *float64, commissionType *string) error {
	if rate != nil || commissionType != nil {
		effective, err := s.effectiveForValidation(ctx, rate, commissionType)
		if err != nil {
			return err
		}
		if err := commission.Validate(effective.Rate, effective.Type); err != nil {
			return err
		}
	}
	return s.store.UpdateCommissionOverride(ctx, id, rate, commissionType)
}

// effectiveForValidation resolves what the override would yield so a partial
// override (rate only, or type only) is validated against the field it
// inherits from the system default.
func (s *Service) effectiveForValidation(ctx context.Context, rate *float64, commissionType *string) (commission.Resolved, error) {
	return s.commission.ResolveForPartner(ctx, rate, commissionType)
}

// ResolveCommission returns the effective commission for a partner, combining
// any stored override with the system default.
func (s *Service) ResolveCommission(ctx context.Context, id uuid.UUID) (commission.Resolved, error) {
	partner, err := s.store.GetByID(ctx, id)
	if err != nil {
		return commission.Resolved{}, err
	}
	return s.commission.ResolveForPartner(ctx, partner.CommissionRateOverride, partner.CommissionTypeOverride)
}

// SetSponsored toggles a partner's sponsored placement.
func (s *Service) SetSponsored(ctx context.Context, id uuid.UUID, sponsored bool) error {
	return s.store.SetSponsored(ctx, id, sponsored)
}

// ErrInactivePartner signals an operation attempted by a deactivated partner.
var ErrInactivePartner = apperr.Forbidden("partner is not active")
