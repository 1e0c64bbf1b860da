// Package delivery wraps the external message-delivery provider. It is the
// only package that talks to the provider API; everything above it works
// with Message values and provider-agnostic errors.
package delivery

import (
	"context"

	"offermarket_backend/platform/config"
)

// MaxBatchMessages is the provider's hard ceiling per batch call.
const MaxBatchMessages = 100

// Message is a single renderable notification addressed to one recipient.
type Message struct {
	ToEmail string
	ToName  string
	Subject string
	HTML    string
}

// Provider exposes the delivery collaborator's two entry points. Neither call
// is guaranteed idempotent: a batch that times out may have been partially
// processed, so retrying can deliver duplicates.
type Provider interface {
	// SendOne delivers a single message.
	SendOne(ctx context.Context, msg Message) error
	// SendBatch delivers up to MaxBatchMessages messages in one provider call.
	SendBatch(ctx context.Context, msgs []Message) error
}

// NewProvider selects a Provider implementation from configuration:
// disabled → Noop, SMTP host configured → SMTP, otherwise Brevo.
func NewProvider(cfg config.EmailConfig) (Provider, error) {
	if !cfg.GetEmailEnabled() {
		return NoopProvider{}, nil
	}
	if cfg.GetSMTPHost() != "" {
		return NewSMTPProvider(cfg), nil
	}
	return NewBrevoProvider(cfg), nil
}

// NoopProvider discards all messages. Used when email is disabled.
type NoopProvider struct{}

func (NoopProvider) SendOne(ctx context.Context, msg Message) error { return nil }

func (NoopProvider) SendBatch(ctx context.Context, msgs []Message) error { return nil }
