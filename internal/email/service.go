package email

import (
	"context"
	"fmt"
	"strings"

	"github.com/nordview/invoicer/internal/domain"
)

// Service composes and sends the invoice emails.
type Service struct {
	sender       Sender
	fromAddress  string
	fromName     string
	attachPrefix string // prefix of the attached PDF file name
}

// NewService creates a new email service.
func NewService(sender Sender, fromAddress, fromName, attachPrefix string) *Service {
	return &Service{
		sender:       sender,
		fromAddress:  fromAddress,
		fromName:     fromName,
		attachPrefix: attachPrefix,
	}
}

// SendInvoice emails the rendered invoice PDF to the client's recipients.
// The sender address is blind-copied for visibility into what went out.
func (s *Service) SendInvoice(ctx context.Context, inv domain.Invoice, pdf []byte) error {
	msg := &Email{
		To:       inv.Client.EmailTo,
		Cc:       inv.Client.EmailCC,
		Bcc:      []string{s.fromAddress},
		From:     s.from(),
		Subject:  inv.Subject(),
		TextBody: s.invoiceBody(inv),
		Attachments: []Attachment{
			{
				Filename:    domain.ArtifactName(s.attachPrefix, inv.Number),
				ContentType: "application/pdf",
				Content:     pdf,
			},
		},
	}

	if _, err := s.sender.Send(ctx, msg); err != nil {
		return fmt.Errorf("failed to send invoice %d: %w", inv.Number, err)
	}

	return nil
}

func (s *Service) from() string {
	if s.fromName != "" {
		return fmt.Sprintf("%s <%s>", s.fromName, s.fromAddress)
	}
	return s.fromAddress
}

// invoiceBody builds the plain-text body accompanying the attachment.
func (s *Service) invoiceBody(inv domain.Invoice) string {
	totals := inv.Totals()

	var b strings.Builder
	fmt.Fprintf(&b, "Dear %s,\n\n", inv.Client.Name)
	fmt.Fprintf(&b, "Please find attached invoice %d for %s %d.\n\n",
		inv.Number, inv.IssuedAt.Month().String(), inv.IssuedAt.Year())
	fmt.Fprintf(&b, "Amount due: %s\n\n", domain.Money(totals.GrandTotal))

	if len(inv.Client.PaymentDetails) > 0 {
		b.WriteString("Payment details:\n")
		for _, line := range inv.Client.PaymentDetails {
			fmt.Fprintf(&b, "  %s\n", line)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "Kind regards,\n%s\n", s.fromName)

	return b.String()
}
