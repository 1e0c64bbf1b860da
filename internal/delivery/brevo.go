package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"offermarket_backend/platform/config"
)

// Single and batch sends share one endpoint; batch uses messageVersions.
const brevoSendURL = "https://api.brevo.com/v3/smtp/email"

// BrevoProvider delivers messages through the Brevo transactional email API.
type BrevoProvider struct {
	apiKey    string
	fromName  string
	fromEmail string
	client    *http.Client
}

// NewBrevoProvider creates a Brevo-backed Provider.
func NewBrevoProvider(cfg config.EmailConfig) *BrevoProvider {
	return &BrevoProvider{
		apiKey:    cfg.GetBrevoAPIKey(),
		fromName:  cfg.GetEmailFromName(),
		fromEmail: cfg.GetEmailFromAddress(),
		client:    &http.Client{Timeout: 10 * time.Second},
	}
}

type brevoRecipient struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type brevoSender struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type brevoEmailRequest struct {
	Sender      brevoSender      `json:"sender"`
	To          []brevoRecipient `json:"to"`
	Subject     string           `json:"subject"`
	HTMLContent string           `json:"htmlContent"`
}

type brevoMessageVersion struct {
	To          []brevoRecipient `json:"to"`
	Subject     string           `json:"subject"`
	HTMLContent string           `json:"htmlContent"`
}

type brevoBatchRequest struct {
	Sender          brevoSender           `json:"sender"`
	Subject         string                `json:"subject"`
	HTMLContent     string                `json:"htmlContent"`
	MessageVersions []brevoMessageVersion `json:"messageVersions"`
}

// SendOne delivers a single message.
func (b *BrevoProvider) SendOne(ctx context.Context, msg Message) error {
	payload := brevoEmailRequest{
		Sender:      brevoSender{Name: b.fromName, Email: b.fromEmail},
		To:          []brevoRecipient{{Email: msg.ToEmail, Name: msg.ToName}},
		Subject:     msg.Subject,
		HTMLContent: msg.HTML,
	}
	return b.post(ctx, brevoSendURL, payload)
}

// SendBatch delivers up to MaxBatchMessages messages in one API call using
// Brevo message versions.
func (b *BrevoProvider) SendBatch(ctx context.Context, msgs []Message) error {
	if len(msgs) == 0 {
		return nil
	}
	if len(msgs) > MaxBatchMessages {
		return &Error{Message: fmt.Sprintf("batch of %d exceeds provider limit of %d", len(msgs), MaxBatchMessages)}
	}

	payload := brevoBatchRequest{
		Sender:      brevoSender{Name: b.fromName, Email: b.fromEmail},
		Subject:     msgs[0].Subject,
		HTMLContent: msgs[0].HTML,
	}
	for _, msg := range msgs {
		payload.MessageVersions = append(payload.MessageVersions, brevoMessageVersion{
			To:          []brevoRecipient{{Email: msg.ToEmail, Name: msg.ToName}},
			Subject:     msg.Subject,
			HTMLContent: msg.HTML,
		})
	}
	return b.post(ctx, brevoSendURL, payload)
}

func (b *BrevoProvider) post(ctx context.Context, url string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("api-key", b.apiKey)
	req.Header.Set("content-type", "application/json")
	req.Header.Set("accept", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return &Error{Message: "request failed", Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(resp.Body)
		return newStatusError(resp.StatusCode, string(data))
	}

	return nil
}
