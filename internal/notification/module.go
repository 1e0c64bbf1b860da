// Package notification subscribes to domain events and turns them into
// delivery work. Single-recipient lifecycle mail goes through the durable
// outbox; the partner opportunity broadcast goes straight through the bulk
// dispatch engine.
package notification

import (
	"context"
	"fmt"
	"time"

	"offermarket_backend/internal/delivery"
	"offermarket_backend/internal/dispatch"
	"offermarket_backend/internal/events"
	"offermarket_backend/internal/notification/outbox"
	partnerrepo "offermarket_backend/internal/partners/repository"
	"offermarket_backend/platform/config"
	"offermarket_backend/platform/logger"

	"github.com/google/uuid"
)

// outboxKind tags outbox records written by this module.
const outboxKind = "email"

// retryDelay spaces outbox redelivery attempts.
const retryDelay = 2 * time.Minute

// PartnerLister exposes the broadcast audience. Implemented by the partners
// service.
type PartnerLister interface {
	ListEligible(ctx context.Context) ([]partnerrepo.Partner, error)
}

// Outbox is the durable notification store port.
type Outbox interface {
	Insert(ctx context.Context, p outbox.InsertParams) (uuid.UUID, error)
	GetByID(ctx context.Context, id uuid.UUID) (outbox.Record, error)
	MarkProcessing(ctx context.Context, id uuid.UUID) error
	MarkSucceeded(ctx context.Context, id uuid.UUID) error
	MarkFailed(ctx context.Context, id uuid.UUID, lastError string) error
	MarkPending(ctx context.Context, id uuid.UUID, lastError string, runAt time.Time) error
}

// Module owns the notification side of the event bus.
type Module struct {
	renderer *Renderer
	engine   *dispatch.Engine
	outbox   Outbox
	partners PartnerLister
	log      *logger.Logger
}

// NewModule creates the notification module and subscribes its handlers.
func NewModule(engine *dispatch.Engine, box Outbox, partners PartnerLister, cfg config.NotificationConfig, bus events.Bus, log *logger.Logger) *Module {
	m := &Module{
		renderer: NewRenderer(cfg),
		engine:   engine,
		outbox:   box,
		partners: partners,
		log:      log,
	}
	m.subscribe(bus)
	return m
}

// Name returns the module name for logging
func (m *Module) Name() string {
	return "notification"
}

func (m *Module) subscribe(bus events.Bus) {
	bus.Subscribe(events.QuoteCreated{}.EventName(), events.HandlerFunc(m.handleQuoteCreated))
	bus.Subscribe(events.OfferApproved{}.EventName(), events.HandlerFunc(m.handleOfferApproved))

	// Single-recipient events share one enqueue path.
	for _, name := range []string{
		events.OfferSubmitted{}.EventName(),
		events.JobStatusChanged{}.EventName(),
		events.PartnerApplicationReceived{}.EventName(),
		events.UserSignedUp{}.EventName(),
		events.MagicLinkRequested{}.EventName(),
		events.PasswordRecoveryRequested{}.EventName(),
		events.EmailChangeRequested{}.EventName(),
	} {
		bus.Subscribe(name, events.HandlerFunc(m.enqueueForEvent))
	}

	bus.Subscribe(events.NotificationOutboxDue{}.EventName(), events.HandlerFunc(m.handleOutboxDue))
}

// handleQuoteCreated confirms receipt to the customer and broadcasts the
// opportunity to every eligible partner. Both sides are best effort.
func (m *Module) handleQuoteCreated(ctx context.Context, event events.Event) error {
	e, ok := event.(events.QuoteCreated)
	if !ok {
		return fmt.Errorf("unexpected event type %T", event)
	}

	if _, err := m.enqueue(ctx, event); err != nil {
		m.log.NotificationError(TemplateQuoteConfirmation, e.CustomerEmail, err)
	}

	partners, err := m.partners.ListEligible(ctx)
	if err != nil {
		m.log.NotificationError(TemplatePartnerOpportunity, "", err)
		return nil
	}

	msgs := make([]delivery.Message, 0, len(partners))
	for _, p := range partners {
		msg, err := m.renderer.RenderOpportunity(e, p.CompanyName, p.ContactEmail)
		if err != nil {
			m.log.NotificationError(TemplatePartnerOpportunity, p.ContactEmail, err)
			continue
		}
		msgs = append(msgs, msg)
	}

	result := m.engine.Dispatch(ctx, event.EventName(), msgs)
	m.log.Info("partner opportunity broadcast finished",
		"quote_id", e.QuoteID,
		"notified", result.Notified,
		"total", result.Total,
	)
	return nil
}

// handleOfferApproved notifies the winning partner and, independently, the
// customer. Two outbox records so one failing never blocks the other.
func (m *Module) handleOfferApproved(ctx context.Context, event events.Event) error {
	e, ok := event.(events.OfferApproved)
	if !ok {
		return fmt.Errorf("unexpected event type %T", event)
	}

	partnerPayload := Payload{
		RecipientEmail:  e.PartnerEmail,
		RecipientName:   e.PartnerName,
		CustomerName:    e.CustomerName,
		CustomerEmail:   e.CustomerEmail,
		CustomerPhone:   e.CustomerPhone,
		ServiceDate:     e.ServiceDate,
		TotalPriceCents: e.TotalPriceCents,
	}
	if _, err := m.outbox.Insert(ctx, outbox.InsertParams{
		Kind: outboxKind, Template: TemplateOfferAccepted, Payload: partnerPayload,
	}); err != nil {
		m.log.NotificationError(TemplateOfferAccepted, e.PartnerEmail, err)
	}

	customerPayload := Payload{
		RecipientEmail:  e.CustomerEmail,
		RecipientName:   e.CustomerName,
		PartnerName:     e.PartnerName,
		TotalPriceCents: e.TotalPriceCents,
	}
	if _, err := m.outbox.Insert(ctx, outbox.InsertParams{
		Kind: outboxKind, Template: TemplateApprovalCustomer, Payload: customerPayload,
	}); err != nil {
		m.log.NotificationError(TemplateApprovalCustomer, e.CustomerEmail, err)
	}

	return nil
}

// enqueueForEvent is the shared handler for events that map 1:1 onto an
// outbox record.
func (m *Module) enqueueForEvent(ctx context.Context, event events.Event) error {
	if _, err := m.enqueue(ctx, event); err != nil {
		m.log.NotificationError(event.EventName(), "", err)
	}
	return nil
}

func (m *Module) enqueue(ctx context.Context, event events.Event) (uuid.UUID, error) {
	template, payload, err := For(event)
	if err != nil {
		return uuid.Nil, err
	}
	return m.outbox.Insert(ctx, outbox.InsertParams{
		Kind: outboxKind, Template: template, Payload: payload,
	})
}

// handleOutboxDue delivers one claimed outbox record. Unrenderable records
// are parked immediately; transient delivery failures go back to pending
// until the attempt budget runs out.
func (m *Module) handleOutboxDue(ctx context.Context, event events.Event) error {
	e, ok := event.(events.NotificationOutboxDue)
	if !ok {
		return fmt.Errorf("unexpected event type %T", event)
	}

	rec, err := m.outbox.GetByID(ctx, e.OutboxID)
	if err != nil {
		return err
	}
	if rec.Status == outbox.StatusSucceeded {
		return nil
	}

	if err := m.outbox.MarkProcessing(ctx, rec.ID); err != nil {
		return err
	}

	msg, err := m.renderer.RenderStored(rec.Template, rec.Payload)
	if err != nil {
		// Rendering is deterministic: retrying will not help.
		m.log.NotificationError(rec.Template, "", err)
		return m.outbox.MarkFailed(ctx, rec.ID, err.Error())
	}

	if err := m.engine.Send(ctx, msg); err != nil {
		m.log.NotificationError(rec.Template, msg.ToEmail, err)
		if rec.Attempts+1 >= outbox.MaxAttempts {
			return m.outbox.MarkFailed(ctx, rec.ID, err.Error())
		}
		return m.outbox.MarkPending(ctx, rec.ID, err.Error(), time.Now().UTC().Add(retryDelay))
	}

	return m.outbox.MarkSucceeded(ctx, rec.ID)
}
