// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"time"

	"offermarket_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Quote Lifecycle Events
// =============================================================================

// QuoteCreated is published when a customer's service request enters the
// system. The notification module fans the opportunity out to all eligible
// partners and confirms receipt to the customer.
type QuoteCreated struct {
	BaseEvent
	QuoteID         uuid.UUID `json:"quoteId"`
	ServiceType     string    `json:"serviceType"`
	ServiceDate     time.Time `json:"serviceDate"`
	PickupAddress   string    `json:"pickupAddress"`
	DeliveryAddress string    `json:"deliveryAddress"`
	Scope           string    `json:"scope,omitempty"`
	CustomerName    string    `json:"customerName"`
	CustomerEmail   string    `json:"customerEmail"`
}

func (e QuoteCreated) EventName() string { return "quotes.quote.created" }

// OfferSubmitted is published when a partner submits a bid against a quote.
type OfferSubmitted struct {
	BaseEvent
	QuoteID         uuid.UUID `json:"quoteId"`
	OfferID         uuid.UUID `json:"offerId"`
	PartnerID       uuid.UUID `json:"partnerId"`
	PartnerName     string    `json:"partnerName"`
	TotalPriceCents int64     `json:"totalPriceCents"`
	CustomerName    string    `json:"customerName"`
	CustomerEmail   string    `json:"customerEmail"`
}

func (e OfferSubmitted) EventName() string { return "quotes.offer.submitted" }

// OfferApproved is published after the coordinator commits an approval.
// Notifies the winning partner (with customer contact details) and,
// independently, the customer.
type OfferApproved struct {
	BaseEvent
	QuoteID         uuid.UUID `json:"quoteId"`
	OfferID         uuid.UUID `json:"offerId"`
	PartnerID       uuid.UUID `json:"partnerId"`
	PartnerName     string    `json:"partnerName"`
	PartnerEmail    string    `json:"partnerEmail"`
	TotalPriceCents int64     `json:"totalPriceCents"`
	ServiceDate     time.Time `json:"serviceDate"`
	CustomerName    string    `json:"customerName"`
	CustomerEmail   string    `json:"customerEmail"`
	CustomerPhone   string    `json:"customerPhone"`
}

func (e OfferApproved) EventName() string { return "quotes.offer.approved" }

// JobStatusChanged is published when the winning partner updates progress on
// an approved job.
type JobStatusChanged struct {
	BaseEvent
	QuoteID       uuid.UUID `json:"quoteId"`
	PartnerName   string    `json:"partnerName"`
	NewStatus     string    `json:"newStatus"`
	Note          string    `json:"note,omitempty"`
	CustomerName  string    `json:"customerName"`
	CustomerEmail string    `json:"customerEmail"`
}

func (e JobStatusChanged) EventName() string { return "quotes.job.status_changed" }

// =============================================================================
// Partner Events
// =============================================================================

// PartnerApplicationReceived is published when a new partner applies.
type PartnerApplicationReceived struct {
	BaseEvent
	PartnerID    uuid.UUID `json:"partnerId"`
	CompanyName  string    `json:"companyName"`
	ContactEmail string    `json:"contactEmail"`
	VerifyToken  string    `json:"verifyToken"`
}

func (e PartnerApplicationReceived) EventName() string { return "partners.application.received" }

// =============================================================================
// Identity Collaborator Events
// =============================================================================
// The identity system is an external collaborator; these events exist so the
// notification renderer covers its transactional mail.

// UserSignedUp is published when a new user successfully registers.
type UserSignedUp struct {
	BaseEvent
	UserID      uuid.UUID `json:"userId"`
	Email       string    `json:"email"`
	DisplayName string    `json:"displayName"`
	ActionToken string    `json:"actionToken"`
}

func (e UserSignedUp) EventName() string { return "identity.user.signed_up" }

// MagicLinkRequested is published when a user requests a login link.
type MagicLinkRequested struct {
	BaseEvent
	UserID      uuid.UUID `json:"userId"`
	Email       string    `json:"email"`
	DisplayName string    `json:"displayName"`
	ActionToken string    `json:"actionToken"`
}

func (e MagicLinkRequested) EventName() string { return "identity.magic_link.requested" }

// PasswordRecoveryRequested is published when a user requests a password reset.
type PasswordRecoveryRequested struct {
	BaseEvent
	UserID      uuid.UUID `json:"userId"`
	Email       string    `json:"email"`
	DisplayName string    `json:"displayName"`
	ActionToken string    `json:"actionToken"`
}

func (e PasswordRecoveryRequested) EventName() string { return "identity.password.recovery_requested" }

// EmailChangeRequested is published when a user asks to change their address.
type EmailChangeRequested struct {
	BaseEvent
	UserID      uuid.UUID `json:"userId"`
	Email       string    `json:"email"`
	DisplayName string    `json:"displayName"`
	ActionToken string    `json:"actionToken"`
}

func (e EmailChangeRequested) EventName() string { return "identity.email.change_requested" }

// =============================================================================
// Notification Outbox Events
// =============================================================================

// NotificationOutboxDue is published by the scheduler worker when a claimed
// outbox record is due for delivery.
type NotificationOutboxDue struct {
	BaseEvent
	OutboxID uuid.UUID `json:"outboxId"`
}

func (e NotificationOutboxDue) EventName() string { return "notification.outbox.due" }
