// Package service implements the offer lifecycle coordinator: quote and offer
// state transitions, the approval decision, and the domain events that drive
// customer and partner notifications.
package service

import (
	"context"
	"time"

	commission "offermarket_backend/internal/commission/service"
	"offermarket_backend/internal/events"
	partnerrepo "offermarket_backend/internal/partners/repository"
	partnersvc "offermarket_backend/internal/partners/service"
	"offermarket_backend/internal/quotes/repository"
	"offermarket_backend/platform/apperr"
	"offermarket_backend/platform/logger"

	"github.com/google/uuid"
)

// Store is the persistence port for quotes and offers.
type Store interface {
	CreateQuote(ctx context.Context, q repository.Quote) (repository.Quote, error)
	GetQuote(ctx context.Context, id uuid.UUID) (repository.Quote, error)
	GetOffer(ctx context.Context, quoteID, offerID uuid.UUID) (repository.Offer, error)
	ListOffers(ctx context.Context, quoteID uuid.UUID) ([]repository.OfferListing, error)
	SubmitOffer(ctx context.Context, o repository.Offer) (repository.Offer, error)
	ApproveOffer(ctx context.Context, quoteID, offerID uuid.UUID) (repository.Offer, error)
	WithdrawOffer(ctx context.Context, quoteID, offerID, partnerID uuid.UUID) error
	ExpireOffers(ctx context.Context, cutoff time.Time) (int64, error)
	CompleteQuote(ctx context.Context, id uuid.UUID, commissionRate float64, commissionType string) error
	CancelQuote(ctx context.Context, id uuid.UUID) error
}

// PartnerDirectory exposes the partner lookups the coordinator needs.
// Implemented by the partners service.
type PartnerDirectory interface {
	Get(ctx context.Context, id uuid.UUID) (partnerrepo.Partner, error)
	ResolveCommission(ctx context.Context, id uuid.UUID) (commission.Resolved, error)
}

// Service is the offer lifecycle coordinator.
type Service struct {
	store    Store
	partners PartnerDirectory
	bus      events.Bus
	log      *logger.Logger
}

// New creates a new quotes service.
func New(store Store, partners PartnerDirectory, bus events.Bus, log *logger.Logger) *Service {
	return &Service{store: store, partners: partners, bus: bus, log: log}
}

// CreateQuoteInput carries a new customer service request from the intake
// collaborator.
type CreateQuoteInput struct {
	CustomerName    string
	CustomerEmail   string
	CustomerPhone   string
	ServiceType     string
	ServiceDate     time.Time
	PickupAddress   string
	DeliveryAddress string
	Scope           string
}

// CreateQuote stores a new quote and publishes QuoteCreated, which fans the
// opportunity out to eligible partners.
func (s *Service) CreateQuote(ctx context.Context, in CreateQuoteInput) (repository.Quote, error) {
	quote, err := s.store.CreateQuote(ctx, repository.Quote{
		CustomerName:    in.CustomerName,
		CustomerEmail:   in.CustomerEmail,
		CustomerPhone:   in.CustomerPhone,
		ServiceType:     in.ServiceType,
		ServiceDate:     in.ServiceDate,
		PickupAddress:   in.PickupAddress,
		DeliveryAddress: in.DeliveryAddress,
		Scope:           in.Scope,
	})
	if err != nil {
		return repository.Quote{}, err
	}

	s.bus.Publish(ctx, events.QuoteCreated{
		BaseEvent:       events.NewBaseEvent(),
		QuoteID:         quote.ID,
		ServiceType:     quote.ServiceType,
		ServiceDate:     quote.ServiceDate,
		PickupAddress:   quote.PickupAddress,
		DeliveryAddress: quote.DeliveryAddress,
		Scope:           quote.Scope,
		CustomerName:    quote.CustomerName,
		CustomerEmail:   quote.CustomerEmail,
	})

	return quote, nil
}

// GetQuote returns one quote.
func (s *Service) GetQuote(ctx context.Context, id uuid.UUID) (repository.Quote, error) {
	return s.store.GetQuote(ctx, id)
}

// SubmitOffer records a partner's bid. The first offer moves the quote from
// pending to offers_received (handled transactionally by the store).
func (s *Service) SubmitOffer(ctx context.Context, quoteID, partnerID uuid.UUID, totalPriceCents int64, rankingScore *float64) (repository.Offer, error) {
	partner, err := s.partners.Get(ctx, partnerID)
	if err != nil {
		return repository.Offer{}, err
	}
	if !partner.IsActive {
		return repository.Offer{}, partnersvc.ErrInactivePartner
	}
	if totalPriceCents <= 0 {
		return repository.Offer{}, apperr.Validation("offer price must be positive")
	}

	offer, err := s.store.SubmitOffer(ctx, repository.Offer{
		QuoteID:         quoteID,
		PartnerID:       partnerID,
		TotalPriceCents: totalPriceCents,
		RankingScore:    rankingScore,
	})
	if err != nil {
		return repository.Offer{}, err
	}

	quote, err := s.store.GetQuote(ctx, quoteID)
	if err == nil {
		s.bus.Publish(ctx, events.OfferSubmitted{
			BaseEvent:       events.NewBaseEvent(),
			QuoteID:         quoteID,
			OfferID:         offer.ID,
			PartnerID:       partnerID,
			PartnerName:     partner.CompanyName,
			TotalPriceCents: offer.TotalPriceCents,
			CustomerName:    quote.CustomerName,
			CustomerEmail:   quote.CustomerEmail,
		})
	}

	return offer, nil
}

// ApproveOffer commits the customer's decision. The store performs the whole
// transition in one transaction: the winner is approved, every sibling offer
// is rejected, and the quote moves to offer_approved. After success exactly
// one offer on the quote is approved; a concurrent approval of a different
// offer surfaces as a conflict.
//
// Notification side effects ride on the published event and can never fail
// the approval.
func (s *Service) ApproveOffer(ctx context.Context, quoteID, offerID uuid.UUID) (repository.Offer, error) {
	offer, err := s.store.ApproveOffer(ctx, quoteID, offerID)
	if err != nil {
		return repository.Offer{}, err
	}

	event := events.OfferApproved{
		BaseEvent:       events.NewBaseEvent(),
		QuoteID:         quoteID,
		OfferID:         offer.ID,
		PartnerID:       offer.PartnerID,
		TotalPriceCents: offer.TotalPriceCents,
	}

	// Enrichment is best effort: the approval is already committed.
	if quote, err := s.store.GetQuote(ctx, quoteID); err == nil {
		event.ServiceDate = quote.ServiceDate
		event.CustomerName = quote.CustomerName
		event.CustomerEmail = quote.CustomerEmail
		event.CustomerPhone = quote.CustomerPhone
	} else {
		s.log.Warn("approved offer event missing quote details", "quote_id", quoteID, "error", err.Error())
	}
	if partner, err := s.partners.Get(ctx, offer.PartnerID); err == nil {
		event.PartnerName = partner.CompanyName
		event.PartnerEmail = partner.ContactEmail
	} else {
		s.log.Warn("approved offer event missing partner details", "partner_id", offer.PartnerID, "error", err.Error())
	}

	s.bus.Publish(ctx, event)
	return offer, nil
}

// WithdrawOffer retracts a partner's pending offer.
func (s *Service) WithdrawOffer(ctx context.Context, quoteID, offerID, partnerID uuid.UUID) error {
	return s.store.WithdrawOffer(ctx, quoteID, offerID, partnerID)
}

// ListOffers returns a quote's offers in display order. An unknown mode falls
// back to the price ordering.
func (s *Service) ListOffers(ctx context.Context, quoteID uuid.UUID, mode string) ([]repository.OfferListing, error) {
	if _, err := s.store.GetQuote(ctx, quoteID); err != nil {
		return nil, err
	}
	offers, err := s.store.ListOffers(ctx, quoteID)
	if err != nil {
		return nil, err
	}
	return SortOffers(offers, mode), nil
}

// CompleteQuote closes an approved quote. Only the partner owning the
// approved offer may complete it, and the commission snapshot is always
// resolved from that offer's partner, never from the caller.
func (s *Service) CompleteQuote(ctx context.Context, quoteID, partnerID uuid.UUID) error {
	winner, err := s.approvedOffer(ctx, quoteID)
	if err != nil {
		return err
	}
	if winner.PartnerID != partnerID {
		return apperr.Forbidden("job belongs to a different partner")
	}

	resolved, err := s.partners.ResolveCommission(ctx, winner.PartnerID)
	if err != nil {
		return err
	}
	return s.store.CompleteQuote(ctx, quoteID, resolved.Rate, resolved.Type)
}

// CancelQuote cancels an open quote and rejects its pending offers.
func (s *Service) CancelQuote(ctx context.Context, id uuid.UUID) error {
	return s.store.CancelQuote(ctx, id)
}

// ExpireOffers sweeps quotes whose service date passed without an approval,
// expiring them and their pending offers. Returns the number of offers
// expired. Run periodically by the scheduler.
func (s *Service) ExpireOffers(ctx context.Context, now time.Time) (int64, error) {
	expired, err := s.store.ExpireOffers(ctx, now)
	if err != nil {
		return 0, err
	}
	if expired > 0 {
		s.log.Info("expired stale offers", "count", expired)
	}
	return expired, nil
}

// UpdateJobStatus lets the winning partner report progress on an approved
// job. The update is advisory: it notifies the customer but does not change
// the quote state machine until completion.
func (s *Service) UpdateJobStatus(ctx context.Context, quoteID, partnerID uuid.UUID, newStatus, note string) error {
	quote, err := s.store.GetQuote(ctx, quoteID)
	if err != nil {
		return err
	}
	if quote.Status != repository.QuoteStatusOfferApproved {
		return apperr.Conflict("quote has no approved job")
	}

	winner, err := s.approvedOffer(ctx, quoteID)
	if err != nil {
		return err
	}
	if winner.PartnerID != partnerID {
		return apperr.Forbidden("job belongs to a different partner")
	}

	partner, err := s.partners.Get(ctx, partnerID)
	if err != nil {
		return err
	}

	s.bus.Publish(ctx, events.JobStatusChanged{
		BaseEvent:     events.NewBaseEvent(),
		QuoteID:       quoteID,
		PartnerName:   partner.CompanyName,
		NewStatus:     newStatus,
		Note:          note,
		CustomerName:  quote.CustomerName,
		CustomerEmail: quote.CustomerEmail,
	})
	return nil
}

// approvedOffer returns the quote's single approved offer, or a conflict when
// the quote has none.
func (s *Service) approvedOffer(ctx context.Context, quoteID uuid.UUID) (repository.OfferListing, error) {
	offers, err := s.store.ListOffers(ctx, quoteID)
	if err != nil {
		return repository.OfferListing{}, err
	}
	for _, o := range offers {
		if o.Status == repository.OfferStatusApproved {
			return o, nil
		}
	}
	return repository.OfferListing{}, apperr.Conflict("quote has no approved offer")
}
