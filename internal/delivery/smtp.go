package delivery

import (
	"context"
	"fmt"
	"net"
	"time"

	"offermarket_backend/platform/config"

	gomail "github.com/wneessen/go-mail"
)

// SMTPProvider delivers messages over a direct SMTP connection via go-mail.
// A batch is sent on a single connection.
type SMTPProvider struct {
	host      string
	port      int
	username  string
	password  string
	fromName  string
	fromEmail string
}

// NewSMTPProvider creates an SMTP-backed Provider.
func NewSMTPProvider(cfg config.EmailConfig) *SMTPProvider {
	return &SMTPProvider{
		host:      cfg.GetSMTPHost(),
		port:      cfg.GetSMTPPort(),
		username:  cfg.GetSMTPUsername(),
		password:  cfg.GetSMTPPassword(),
		fromName:  cfg.GetEmailFromName(),
		fromEmail: cfg.GetEmailFromAddress(),
	}
}

// SendOne delivers a single message.
func (s *SMTPProvider) SendOne(ctx context.Context, msg Message) error {
	return s.deliver(ctx, msg)
}

// SendBatch delivers up to MaxBatchMessages messages over one connection.
func (s *SMTPProvider) SendBatch(ctx context.Context, msgs []Message) error {
	if len(msgs) == 0 {
		return nil
	}
	if len(msgs) > MaxBatchMessages {
		return &Error{Message: fmt.Sprintf("batch of %d exceeds provider limit of %d", len(msgs), MaxBatchMessages)}
	}
	return s.deliver(ctx, msgs...)
}

func (s *SMTPProvider) deliver(ctx context.Context, msgs ...Message) error {
	mails := make([]*gomail.Msg, 0, len(msgs))
	for _, m := range msgs {
		mail := gomail.NewMsg()
		if err := mail.FromFormat(s.fromName, s.fromEmail); err != nil {
			return &Error{Message: "smtp from", Err: err}
		}
		if err := mail.To(m.ToEmail); err != nil {
			return &Error{Message: "smtp to", Err: err}
		}
		mail.Subject(m.Subject)
		mail.SetBodyString(gomail.TypeTextHTML, m.HTML)
		mails = append(mails, mail)
	}

	client, err := gomail.NewClient(s.host,
		gomail.WithPort(s.port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(s.username),
		gomail.WithPassword(s.password),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
		gomail.WithTimeout(15*time.Second),
		gomail.WithDialContextFunc(func(dctx context.Context, _ string, addr string) (net.Conn, error) {
			return (&net.Dialer{}).DialContext(dctx, "tcp4", addr)
		}),
	)
	if err != nil {
		return &Error{Message: "smtp client", Err: err}
	}

	if err := client.DialAndSendWithContext(ctx, mails...); err != nil {
		return &Error{Message: "smtp send", Err: err}
	}

	return nil
}
