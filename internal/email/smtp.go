package email

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/wneessen/go-mail"
)

// SMTPConfig holds SMTP connection parameters.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string // optional - some servers allow unauthenticated relay
	Password string // optional
	From     string // default sender address
}

// SMTPSender implements Sender using go-mail for robust SMTP support:
// TLS/STARTTLS detection by port, the usual auth methods, and proper MIME
// multipart construction for the PDF attachments.
type SMTPSender struct {
	config *SMTPConfig
	logger *slog.Logger
}

// NewSMTPSender creates a new SMTP email sender using go-mail.
func NewSMTPSender(config *SMTPConfig, logger *slog.Logger) *SMTPSender {
	if logger == nil {
		logger = slog.Default()
	}
	return &SMTPSender{config: config, logger: logger}
}

// Send sends an email via SMTP using go-mail.
func (s *SMTPSender) Send(ctx context.Context, email *Email) (string, error) {
	msg := mail.NewMsg()

	from := email.From
	if from == "" {
		from = s.config.From
	}
	if err := msg.From(from); err != nil {
		return "", fmt.Errorf("invalid from address: %w", err)
	}

	if err := msg.To(email.To...); err != nil {
		return "", fmt.Errorf("invalid to address: %w", err)
	}
	if len(email.Cc) > 0 {
		if err := msg.Cc(email.Cc...); err != nil {
			return "", fmt.Errorf("invalid cc address: %w", err)
		}
	}
	if len(email.Bcc) > 0 {
		if err := msg.Bcc(email.Bcc...); err != nil {
			return "", fmt.Errorf("invalid bcc address: %w", err)
		}
	}

	msg.Subject(email.Subject)
	msg.SetBodyString(mail.TypeTextPlain, email.TextBody)

	for key, value := range email.Headers {
		msg.SetGenHeader(mail.Header(key), value)
	}

	for _, att := range email.Attachments {
		if err := msg.AttachReader(att.Filename, bytes.NewReader(att.Content),
			mail.WithFileContentType(mail.ContentType(att.ContentType))); err != nil {
			return "", fmt.Errorf("failed to attach file %s: %w", att.Filename, err)
		}
	}

	client, err := mail.NewClient(s.config.Host, s.buildClientOptions()...)
	if err != nil {
		return "", fmt.Errorf("failed to create SMTP client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		s.logger.Error("smtp: failed to send email", "error", err)
		return "", fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Info("smtp: email sent", "to", email.To, "subject", email.Subject)

	// SMTP doesn't reliably provide a message ID; synthesize one.
	messageID := fmt.Sprintf("smtp-%d-%d", time.Now().UnixNano(), len(email.To))
	return messageID, nil
}

// buildClientOptions returns go-mail client options based on configuration.
func (s *SMTPSender) buildClientOptions() []mail.Option {
	opts := []mail.Option{
		mail.WithPort(s.config.Port),
		mail.WithTimeout(30 * time.Second),
	}

	// TLS mode based on port (go-mail auto-detects, but we can be explicit)
	switch s.config.Port {
	case 465:
		// Implicit TLS (SMTPS)
		opts = append(opts, mail.WithSSL())
	case 587:
		// STARTTLS (submission port)
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
	default:
		// Plain SMTP or local relays (like Mailhog on 1025)
		opts = append(opts, mail.WithTLSPolicy(mail.TLSOpportunistic))
	}

	if s.config.Username != "" && s.config.Password != "" {
		opts = append(opts,
			mail.WithUsername(s.config.Username),
			mail.WithPassword(s.config.Password),
			mail.WithSMTPAuth(mail.SMTPAuthAutoDiscover),
		)
	}

	return opts
}
