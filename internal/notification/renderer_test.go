package notification

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"offermarket_backend/internal/events"
	"offermarket_backend/platform/apperr"

	"github.com/google/uuid"
)

type testNotificationConfig struct{}

func (testNotificationConfig) GetAppBaseURL() string { return "https://app.example.com" }

func newTestRenderer() *Renderer {
	return NewRenderer(testNotificationConfig{})
}

func TestRenderQuoteConfirmation(t *testing.T) {
	r := newTestRenderer()

	msg, err := r.Render(events.QuoteCreated{
		BaseEvent:       events.NewBaseEvent(),
		QuoteID:         uuid.New(),
		ServiceType:     "verhuizing",
		ServiceDate:     time.Date(2026, 10, 3, 0, 0, 0, 0, time.UTC),
		PickupAddress:   "Amsterdam",
		DeliveryAddress: "Utrecht",
		CustomerName:    "Eva Jansen",
		CustomerEmail:   "eva@example.com",
	})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	if msg.ToEmail != "eva@example.com" || msg.ToName != "Eva Jansen" {
		t.Fatalf("recipient wrong: %+v", msg)
	}
	if msg.Subject != subjectQuoteConfirmation {
		t.Fatalf("subject = %q", msg.Subject)
	}
	for _, want := range []string{"verhuizing", "03-10-2026", "Amsterdam", "Utrecht"} {
		if !strings.Contains(msg.HTML, want) {
			t.Fatalf("body missing %q:\n%s", want, msg.HTML)
		}
	}
}

func TestRenderOfferReceivedFormatsPrice(t *testing.T) {
	r := newTestRenderer()

	msg, err := r.Render(events.OfferSubmitted{
		BaseEvent:       events.NewBaseEvent(),
		PartnerName:     "Snelle Verhuizers",
		TotalPriceCents: 42050,
		CustomerName:    "Eva Jansen",
		CustomerEmail:   "eva@example.com",
	})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if !strings.Contains(msg.HTML, "€420.50") {
		t.Fatalf("price not formatted: %s", msg.HTML)
	}
	if !strings.Contains(msg.Subject, "Snelle Verhuizers") {
		t.Fatalf("subject = %q", msg.Subject)
	}
}

func TestRenderMagicLinkCarriesActionURL(t *testing.T) {
	r := newTestRenderer()

	msg, err := r.Render(events.MagicLinkRequested{
		BaseEvent:   events.NewBaseEvent(),
		Email:       "user@example.com",
		DisplayName: "User",
		ActionToken: "tok-123",
	})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if !strings.Contains(msg.HTML, "https://app.example.com/magic-link?token=tok-123") {
		t.Fatalf("action link missing: %s", msg.HTML)
	}
}

func TestRenderMissingFieldsIsValidationError(t *testing.T) {
	r := newTestRenderer()

	_, err := r.Build(TemplateOfferAccepted, Payload{RecipientEmail: "p@example.com"})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("error = %v, want validation", err)
	}

	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *apperr.Error, got %T", err)
	}
	missing, ok := appErr.Details.([]string)
	if !ok {
		t.Fatalf("details = %#v, want field list", appErr.Details)
	}
	if len(missing) == 0 {
		t.Fatalf("expected missing field names")
	}
}

func TestRenderUnknownTemplateRejected(t *testing.T) {
	r := newTestRenderer()

	_, err := r.Build("no_such_template", Payload{RecipientEmail: "a@b.nl"})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("error = %v, want validation", err)
	}
}

func TestRenderStoredRoundTrip(t *testing.T) {
	r := newTestRenderer()

	raw, err := json.Marshal(Payload{
		RecipientEmail:  "partner@example.com",
		RecipientName:   "Snelle Verhuizers",
		CustomerName:    "Eva Jansen",
		CustomerEmail:   "eva@example.com",
		CustomerPhone:   "+31612345678",
		TotalPriceCents: 50000,
		ServiceDate:     time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}

	msg, err := r.RenderStored(TemplateOfferAccepted, raw)
	if err != nil {
		t.Fatalf("RenderStored failed: %v", err)
	}
	for _, want := range []string{"Eva Jansen", "€500.00", "+31612345678"} {
		if !strings.Contains(msg.HTML, want) {
			t.Fatalf("body missing %q:\n%s", want, msg.HTML)
		}
	}
}

func TestRenderStoredMalformedPayload(t *testing.T) {
	r := newTestRenderer()

	_, err := r.RenderStored(TemplateOfferAccepted, json.RawMessage(`{not json`))
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("error = %v, want validation", err)
	}
}

func TestForUnknownEventRejected(t *testing.T) {
	_, _, err := For(events.NotificationOutboxDue{OutboxID: uuid.New()})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("error = %v, want validation", err)
	}
}
