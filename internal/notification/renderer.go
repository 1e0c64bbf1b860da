package notification

import (
	"encoding/json"
	"fmt"
	"time"

	"offermarket_backend/internal/delivery"
	"offermarket_backend/internal/events"
	"offermarket_backend/platform/apperr"
	"offermarket_backend/platform/config"
)

// Template names. These are persisted in outbox records, so renaming one is
// a data migration.
const (
	TemplateSignupWelcome       = "signup_welcome"
	TemplateMagicLink           = "magic_link"
	TemplatePasswordRecovery    = "password_recovery"
	TemplateEmailChange         = "email_change"
	TemplatePartnerApplication  = "partner_application_received"
	TemplateQuoteConfirmation   = "quote_confirmation"
	TemplateOfferReceived       = "offer_received"
	TemplateOfferAccepted       = "offer_accepted"
	TemplateApprovalCustomer    = "offer_approved_customer"
	TemplateJobStatusChanged    = "job_status_changed"
	TemplatePartnerOpportunity  = "partner_opportunity"
)

// Subjects (customer-facing copy is Dutch).
const (
	subjectSignupWelcome      = "Welkom! Bevestig uw account"
	subjectMagicLink          = "Uw inloglink"
	subjectPasswordRecovery   = "Wachtwoord opnieuw instellen"
	subjectEmailChange        = "Bevestig uw nieuwe e-mailadres"
	subjectPartnerApplication = "Uw aanmelding als partner is ontvangen"
	subjectQuoteConfirmation  = "Uw aanvraag is ontvangen"
	subjectOfferReceivedFmt   = "Nieuwe offerte van %s"
	subjectOfferAcceptedFmt   = "Uw offerte is geaccepteerd door %s"
	subjectApprovalCustomer   = "Bevestiging: u heeft een offerte geaccepteerd"
	subjectJobStatusFmt       = "Statusupdate van %s"
	subjectOpportunityFmt     = "Nieuwe klus beschikbaar: %s"
)

// Payload is the renderer's input, also the shape persisted in outbox
// records. Fields are template-specific; Build validates the required set.
type Payload struct {
	RecipientEmail  string    `json:"recipientEmail"`
	RecipientName   string    `json:"recipientName"`
	PartnerName     string    `json:"partnerName,omitempty"`
	CustomerName    string    `json:"customerName,omitempty"`
	CustomerEmail   string    `json:"customerEmail,omitempty"`
	CustomerPhone   string    `json:"customerPhone,omitempty"`
	ServiceType     string    `json:"serviceType,omitempty"`
	ServiceDate     time.Time `json:"serviceDate,omitempty"`
	PickupAddress   string    `json:"pickupAddress,omitempty"`
	DeliveryAddress string    `json:"deliveryAddress,omitempty"`
	Scope           string    `json:"scope,omitempty"`
	TotalPriceCents int64     `json:"totalPriceCents,omitempty"`
	NewStatus       string    `json:"newStatus,omitempty"`
	Note            string    `json:"note,omitempty"`
	ActionToken     string    `json:"actionToken,omitempty"`
}

// Renderer turns domain events into delivery messages. It performs no I/O.
type Renderer struct {
	baseURL string
}

// NewRenderer creates a renderer with the app base URL for action links.
func NewRenderer(cfg config.NotificationConfig) *Renderer {
	return &Renderer{baseURL: cfg.GetAppBaseURL()}
}

// For maps a domain event onto its template and payload. Events the
// notification side does not know are a validation error.
func For(event events.Event) (string, Payload, error) {
	switch e := event.(type) {
	case events.UserSignedUp:
		return TemplateSignupWelcome, Payload{
			RecipientEmail: e.Email, RecipientName: e.DisplayName, ActionToken: e.ActionToken,
		}, nil
	case events.MagicLinkRequested:
		return TemplateMagicLink, Payload{
			RecipientEmail: e.Email, RecipientName: e.DisplayName, ActionToken: e.ActionToken,
		}, nil
	case events.PasswordRecoveryRequested:
		return TemplatePasswordRecovery, Payload{
			RecipientEmail: e.Email, RecipientName: e.DisplayName, ActionToken: e.ActionToken,
		}, nil
	case events.EmailChangeRequested:
		return TemplateEmailChange, Payload{
			RecipientEmail: e.Email, RecipientName: e.DisplayName, ActionToken: e.ActionToken,
		}, nil
	case events.PartnerApplicationReceived:
		return TemplatePartnerApplication, Payload{
			RecipientEmail: e.ContactEmail, RecipientName: e.CompanyName, ActionToken: e.VerifyToken,
		}, nil
	case events.QuoteCreated:
		return TemplateQuoteConfirmation, Payload{
			RecipientEmail: e.CustomerEmail, RecipientName: e.CustomerName,
			ServiceType: e.ServiceType, ServiceDate: e.ServiceDate,
			PickupAddress: e.PickupAddress, DeliveryAddress: e.DeliveryAddress, Scope: e.Scope,
		}, nil
	case events.OfferSubmitted:
		return TemplateOfferReceived, Payload{
			RecipientEmail: e.CustomerEmail, RecipientName: e.CustomerName,
			PartnerName: e.PartnerName, TotalPriceCents: e.TotalPriceCents,
		}, nil
	case events.JobStatusChanged:
		return TemplateJobStatusChanged, Payload{
			RecipientEmail: e.CustomerEmail, RecipientName: e.CustomerName,
			PartnerName: e.PartnerName, NewStatus: e.NewStatus, Note: e.Note,
		}, nil
	default:
		return "", Payload{}, apperr.Validation(fmt.Sprintf("no notification template for event %s", event.EventName()))
	}
}

// Render maps an event straight to a message.
func (r *Renderer) Render(event events.Event) (delivery.Message, error) {
	template, payload, err := For(event)
	if err != nil {
		return delivery.Message{}, err
	}
	return r.Build(template, payload)
}

// RenderStored renders an outbox record's persisted payload.
func (r *Renderer) RenderStored(template string, raw json.RawMessage) (delivery.Message, error) {
	var payload Payload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return delivery.Message{}, apperr.Wrap(apperr.KindValidation, "malformed notification payload", err)
	}
	return r.Build(template, payload)
}

// RenderOpportunity builds the partner broadcast message for a new quote.
func (r *Renderer) RenderOpportunity(e events.QuoteCreated, partnerName, partnerEmail string) (delivery.Message, error) {
	return r.Build(TemplatePartnerOpportunity, Payload{
		RecipientEmail: partnerEmail, RecipientName: partnerName,
		ServiceType: e.ServiceType, ServiceDate: e.ServiceDate,
		PickupAddress: e.PickupAddress, DeliveryAddress: e.DeliveryAddress, Scope: e.Scope,
	})
}

// Build validates the payload against the template's required fields and
// produces the message.
func (r *Renderer) Build(template string, p Payload) (delivery.Message, error) {
	if err := validatePayload(template, p); err != nil {
		return delivery.Message{}, err
	}

	msg := delivery.Message{ToEmail: p.RecipientEmail, ToName: p.RecipientName}

	switch template {
	case TemplateSignupWelcome:
		msg.Subject = subjectSignupWelcome
		msg.HTML = r.layout("Welkom!",
			fmt.Sprintf("<p>Hallo %s,</p><p>Bevestig uw account via onderstaande link.</p>", p.RecipientName),
			r.actionLink("verify", p.ActionToken, "Account bevestigen"))
	case TemplateMagicLink:
		msg.Subject = subjectMagicLink
		msg.HTML = r.layout("Inloggen",
			fmt.Sprintf("<p>Hallo %s,</p><p>Gebruik onderstaande link om in te loggen. De link is eenmalig geldig.</p>", p.RecipientName),
			r.actionLink("magic-link", p.ActionToken, "Inloggen"))
	case TemplatePasswordRecovery:
		msg.Subject = subjectPasswordRecovery
		msg.HTML = r.layout("Wachtwoord herstellen",
			fmt.Sprintf("<p>Hallo %s,</p><p>Stel via onderstaande link een nieuw wachtwoord in.</p>", p.RecipientName),
			r.actionLink("reset-password", p.ActionToken, "Nieuw wachtwoord"))
	case TemplateEmailChange:
		msg.Subject = subjectEmailChange
		msg.HTML = r.layout("E-mailadres wijzigen",
			fmt.Sprintf("<p>Hallo %s,</p><p>Bevestig uw nieuwe e-mailadres via onderstaande link.</p>", p.RecipientName),
			r.actionLink("confirm-email", p.ActionToken, "E-mailadres bevestigen"))
	case TemplatePartnerApplication:
		msg.Subject = subjectPartnerApplication
		msg.HTML = r.layout("Aanmelding ontvangen",
			fmt.Sprintf("<p>Beste %s,</p><p>Uw aanmelding als partner is ontvangen. Bevestig uw e-mailadres om te starten.</p>", p.RecipientName),
			r.actionLink("partners/verify", p.ActionToken, "E-mailadres bevestigen"))
	case TemplateQuoteConfirmation:
		msg.Subject = subjectQuoteConfirmation
		msg.HTML = r.layout("Aanvraag ontvangen",
			fmt.Sprintf("<p>Beste %s,</p><p>Uw aanvraag (%s op %s) van %s naar %s is ontvangen. Partners nemen binnenkort contact op met een offerte.</p>",
				p.RecipientName, p.ServiceType, formatDate(p.ServiceDate), p.PickupAddress, p.DeliveryAddress), "")
	case TemplateOfferReceived:
		msg.Subject = fmt.Sprintf(subjectOfferReceivedFmt, p.PartnerName)
		msg.HTML = r.layout("Nieuwe offerte",
			fmt.Sprintf("<p>Beste %s,</p><p>%s heeft een offerte uitgebracht van %s.</p>",
				p.RecipientName, p.PartnerName, formatCurrencyEUR(p.TotalPriceCents)), "")
	case TemplateOfferAccepted:
		msg.Subject = fmt.Sprintf(subjectOfferAcceptedFmt, p.CustomerName)
		msg.HTML = r.layout("Offerte geaccepteerd",
			fmt.Sprintf("<p>Beste %s,</p><p>%s heeft uw offerte van %s geaccepteerd voor %s.</p><p>Contactgegevens: %s, %s</p>",
				p.RecipientName, p.CustomerName, formatCurrencyEUR(p.TotalPriceCents),
				formatDate(p.ServiceDate), p.CustomerEmail, p.CustomerPhone), "")
	case TemplateApprovalCustomer:
		msg.Subject = subjectApprovalCustomer
		msg.HTML = r.layout("Offerte geaccepteerd",
			fmt.Sprintf("<p>Beste %s,</p><p>U heeft de offerte van %s (%s) geaccepteerd. De partner neemt contact met u op.</p>",
				p.RecipientName, p.PartnerName, formatCurrencyEUR(p.TotalPriceCents)), "")
	case TemplateJobStatusChanged:
		msg.Subject = fmt.Sprintf(subjectJobStatusFmt, p.PartnerName)
		body := fmt.Sprintf("<p>Beste %s,</p><p>%s heeft de status van uw klus bijgewerkt naar: <strong>%s</strong>.</p>",
			p.RecipientName, p.PartnerName, p.NewStatus)
		if p.Note != "" {
			body += fmt.Sprintf("<p>Toelichting: %s</p>", p.Note)
		}
		msg.HTML = r.layout("Statusupdate", body, "")
	case TemplatePartnerOpportunity:
		msg.Subject = fmt.Sprintf(subjectOpportunityFmt, p.ServiceType)
		body := fmt.Sprintf("<p>Beste %s,</p><p>Er is een nieuwe aanvraag: %s op %s, van %s naar %s.</p>",
			p.RecipientName, p.ServiceType, formatDate(p.ServiceDate), p.PickupAddress, p.DeliveryAddress)
		if p.Scope != "" {
			body += fmt.Sprintf("<p>Omschrijving: %s</p>", p.Scope)
		}
		msg.HTML = r.layout("Nieuwe klus", body, "")
	default:
		return delivery.Message{}, apperr.Validation(fmt.Sprintf("unknown notification template %q", template))
	}

	return msg, nil
}

// requiredFields lists what each template cannot render without.
var requiredFields = map[string][]string{
	TemplateSignupWelcome:      {"recipientEmail", "actionToken"},
	TemplateMagicLink:          {"recipientEmail", "actionToken"},
	TemplatePasswordRecovery:   {"recipientEmail", "actionToken"},
	TemplateEmailChange:        {"recipientEmail", "actionToken"},
	TemplatePartnerApplication: {"recipientEmail", "recipientName", "actionToken"},
	TemplateQuoteConfirmation:  {"recipientEmail", "recipientName", "serviceType"},
	TemplateOfferReceived:      {"recipientEmail", "recipientName", "partnerName", "totalPriceCents"},
	TemplateOfferAccepted:      {"recipientEmail", "recipientName", "customerName", "customerEmail", "totalPriceCents"},
	TemplateApprovalCustomer:   {"recipientEmail", "recipientName", "partnerName", "totalPriceCents"},
	TemplateJobStatusChanged:   {"recipientEmail", "recipientName", "partnerName", "newStatus"},
	TemplatePartnerOpportunity: {"recipientEmail", "recipientName", "serviceType"},
}

func validatePayload(template string, p Payload) error {
	required, ok := requiredFields[template]
	if !ok {
		return apperr.Validation(fmt.Sprintf("unknown notification template %q", template))
	}

	present := map[string]bool{
		"recipientEmail":  p.RecipientEmail != "",
		"recipientName":   p.RecipientName != "",
		"partnerName":     p.PartnerName != "",
		"customerName":    p.CustomerName != "",
		"customerEmail":   p.CustomerEmail != "",
		"serviceType":     p.ServiceType != "",
		"newStatus":       p.NewStatus != "",
		"actionToken":     p.ActionToken != "",
		"totalPriceCents": p.TotalPriceCents > 0,
	}

	var missing []string
	for _, field := range required {
		if !present[field] {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return apperr.Validation(fmt.Sprintf("template %s is missing required payload fields", template)).
			WithDetails(missing)
	}
	return nil
}

func (r *Renderer) layout(heading, body, cta string) string {
	return fmt.Sprintf(`<html><body style="font-family:sans-serif;color:#1a1a2e">
<h2>%s</h2>
%s
%s
<p style="color:#888;font-size:12px">Dit bericht is automatisch verstuurd.</p>
</body></html>`, heading, body, cta)
}

func (r *Renderer) actionLink(path, token, label string) string {
	return fmt.Sprintf(`<p><a href="%s/%s?token=%s">%s</a></p>`, r.baseURL, path, token, label)
}

func formatCurrencyEUR(cents int64) string {
	return fmt.Sprintf("€%.2f", float64(cents)/100)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "nader te bepalen"
	}
	return t.Format("02-01-2006")
}
