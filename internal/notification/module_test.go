package notification

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"offermarket_backend/internal/delivery"
	"offermarket_backend/internal/dispatch"
	"offermarket_backend/internal/events"
	"offermarket_backend/internal/notification/outbox"
	partnerrepo "offermarket_backend/internal/partners/repository"
	"offermarket_backend/platform/logger"

	"github.com/google/uuid"
)

type fakeOutbox struct {
	mu      sync.Mutex
	records map[uuid.UUID]*outbox.Record
}

func newFakeOutbox() *fakeOutbox {
	return &fakeOutbox{records: make(map[uuid.UUID]*outbox.Record)}
}

func (f *fakeOutbox) Insert(_ context.Context, p outbox.InsertParams) (uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	raw, err := json.Marshal(p.Payload)
	if err != nil {
		return uuid.Nil, err
	}
	id := uuid.New()
	f.records[id] = &outbox.Record{
		ID: id, Kind: p.Kind, Template: p.Template, Payload: raw,
		RunAt: time.Now(), Status: outbox.StatusPending,
	}
	return id, nil
}

func (f *fakeOutbox) GetByID(_ context.Context, id uuid.UUID) (outbox.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.records[id]
	if !ok {
		return outbox.Record{}, errors.New("not found")
	}
	return *rec, nil
}

func (f *fakeOutbox) MarkProcessing(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records[id].Status = outbox.StatusProcessing
	f.records[id].Attempts++
	return nil
}

func (f *fakeOutbox) MarkSucceeded(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records[id].Status = outbox.StatusSucceeded
	return nil
}

func (f *fakeOutbox) MarkFailed(_ context.Context, id uuid.UUID, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records[id].Status = outbox.StatusFailed
	return nil
}

func (f *fakeOutbox) MarkPending(_ context.Context, id uuid.UUID, _ string, runAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records[id].Status = outbox.StatusPending
	f.records[id].RunAt = runAt
	return nil
}

func (f *fakeOutbox) byTemplate(template string) []*outbox.Record {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*outbox.Record
	for _, rec := range f.records {
		if rec.Template == template {
			out = append(out, rec)
		}
	}
	return out
}

type fakeLister struct {
	partners []partnerrepo.Partner
}

func (f *fakeLister) ListEligible(context.Context) ([]partnerrepo.Partner, error) {
	return f.partners, nil
}

type recordingProvider struct {
	mu      sync.Mutex
	singles []delivery.Message
	batches [][]delivery.Message
}

func (p *recordingProvider) SendOne(_ context.Context, msg delivery.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.singles = append(p.singles, msg)
	return nil
}

func (p *recordingProvider) SendBatch(_ context.Context, msgs []delivery.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.batches = append(p.batches, msgs)
	return nil
}

type testDispatchConfig struct{}

func (testDispatchConfig) GetDispatchMaxBatchSize() int              { return 100 }
func (testDispatchConfig) GetDispatchMaxRetries() int                { return 3 }
func (testDispatchConfig) GetDispatchInterBatchDelay() time.Duration { return time.Millisecond }

func newTestModule(t *testing.T) (*Module, *fakeOutbox, *recordingProvider, *fakeLister, events.Bus) {
	t.Helper()
	log := logger.New("test")
	provider := &recordingProvider{}
	engine := dispatch.New(provider, testDispatchConfig{}, log)
	box := newFakeOutbox()
	lister := &fakeLister{}
	bus := events.NewInMemoryBus(log)
	m := NewModule(engine, box, lister, testNotificationConfig{}, bus, log)
	return m, box, provider, lister, bus
}

func TestQuoteCreatedBroadcastsToEligiblePartners(t *testing.T) {
	m, box, provider, lister, _ := newTestModule(t)
	lister.partners = []partnerrepo.Partner{
		{ID: uuid.New(), CompanyName: "Mover A", ContactEmail: "a@example.com"},
		{ID: uuid.New(), CompanyName: "Mover B", ContactEmail: "b@example.com"},
	}

	err := m.handleQuoteCreated(context.Background(), events.QuoteCreated{
		BaseEvent:       events.NewBaseEvent(),
		QuoteID:         uuid.New(),
		ServiceType:     "verhuizing",
		ServiceDate:     time.Now().Add(14 * 24 * time.Hour),
		PickupAddress:   "Amsterdam",
		DeliveryAddress: "Utrecht",
		CustomerName:    "Eva Jansen",
		CustomerEmail:   "eva@example.com",
	})
	if err != nil {
		t.Fatalf("handleQuoteCreated failed: %v", err)
	}

	if len(provider.batches) != 1 || len(provider.batches[0]) != 2 {
		t.Fatalf("expected one batch of 2, got %v", provider.batches)
	}
	if recs := box.byTemplate(TemplateQuoteConfirmation); len(recs) != 1 {
		t.Fatalf("quote confirmation records = %d, want 1", len(recs))
	}
}

func TestOfferApprovedEnqueuesPartnerAndCustomerMail(t *testing.T) {
	m, box, _, _, _ := newTestModule(t)

	err := m.handleOfferApproved(context.Background(), events.OfferApproved{
		BaseEvent:       events.NewBaseEvent(),
		QuoteID:         uuid.New(),
		OfferID:         uuid.New(),
		PartnerName:     "Mover A",
		PartnerEmail:    "a@example.com",
		TotalPriceCents: 40000,
		CustomerName:    "Eva Jansen",
		CustomerEmail:   "eva@example.com",
		CustomerPhone:   "+31612345678",
	})
	if err != nil {
		t.Fatalf("handleOfferApproved failed: %v", err)
	}

	if recs := box.byTemplate(TemplateOfferAccepted); len(recs) != 1 {
		t.Fatalf("partner records = %d, want 1", len(recs))
	}
	if recs := box.byTemplate(TemplateApprovalCustomer); len(recs) != 1 {
		t.Fatalf("customer records = %d, want 1", len(recs))
	}
}

func TestOutboxDueDeliversAndMarksSucceeded(t *testing.T) {
	m, box, provider, _, _ := newTestModule(t)

	id, err := box.Insert(context.Background(), outbox.InsertParams{
		Kind: outboxKind, Template: TemplateOfferReceived,
		Payload: Payload{
			RecipientEmail: "eva@example.com", RecipientName: "Eva Jansen",
			PartnerName: "Mover A", TotalPriceCents: 40000,
		},
	})
	if err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	err = m.handleOutboxDue(context.Background(), events.NotificationOutboxDue{OutboxID: id})
	if err != nil {
		t.Fatalf("handleOutboxDue failed: %v", err)
	}

	if len(provider.singles) != 1 || provider.singles[0].ToEmail != "eva@example.com" {
		t.Fatalf("delivered = %v", provider.singles)
	}
	if rec, _ := box.GetByID(context.Background(), id); rec.Status != outbox.StatusSucceeded {
		t.Fatalf("record status = %s, want succeeded", rec.Status)
	}
}

func TestOutboxDueUnrenderableRecordParkedFailed(t *testing.T) {
	m, box, provider, _, _ := newTestModule(t)

	// Missing recipient makes this record permanently unrenderable.
	id, err := box.Insert(context.Background(), outbox.InsertParams{
		Kind: outboxKind, Template: TemplateOfferReceived, Payload: Payload{},
	})
	if err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	if err := m.handleOutboxDue(context.Background(), events.NotificationOutboxDue{OutboxID: id}); err != nil {
		t.Fatalf("handleOutboxDue failed: %v", err)
	}

	if len(provider.singles) != 0 {
		t.Fatalf("nothing should be sent for an unrenderable record")
	}
	if rec, _ := box.GetByID(context.Background(), id); rec.Status != outbox.StatusFailed {
		t.Fatalf("record status = %s, want failed", rec.Status)
	}
}

func TestOutboxDueSucceededRecordSkipped(t *testing.T) {
	m, box, provider, _, _ := newTestModule(t)

	id, _ := box.Insert(context.Background(), outbox.InsertParams{
		Kind: outboxKind, Template: TemplateOfferReceived,
		Payload: Payload{
			RecipientEmail: "eva@example.com", RecipientName: "Eva Jansen",
			PartnerName: "Mover A", TotalPriceCents: 40000,
		},
	})
	_ = box.MarkSucceeded(context.Background(), id)

	if err := m.handleOutboxDue(context.Background(), events.NotificationOutboxDue{OutboxID: id}); err != nil {
		t.Fatalf("handleOutboxDue failed: %v", err)
	}
	if len(provider.singles) != 0 {
		t.Fatalf("already-succeeded record must not be re-sent")
	}
}

func TestEventSubscriptionEndToEnd(t *testing.T) {
	_, box, _, _, bus := newTestModule(t)

	if err := bus.PublishSync(context.Background(), events.OfferSubmitted{
		BaseEvent:       events.NewBaseEvent(),
		QuoteID:         uuid.New(),
		OfferID:         uuid.New(),
		PartnerID:       uuid.New(),
		PartnerName:     "Mover A",
		TotalPriceCents: 40000,
		CustomerName:    "Eva Jansen",
		CustomerEmail:   "eva@example.com",
	}); err != nil {
		t.Fatalf("PublishSync failed: %v", err)
	}

	if recs := box.byTemplate(TemplateOfferReceived); len(recs) != 1 {
		t.Fatalf("offer_received records = %d, want 1", len(recs))
	}
}
