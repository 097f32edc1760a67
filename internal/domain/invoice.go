package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Outcome labels the delivery result of a single invoice for a run.
// It determines the archive path of the rendered PDF and is recorded once
// per (client, invoice number) pair, never updated retroactively.
type Outcome string

const (
	OutcomeSent   Outcome = "sent"
	OutcomeFailed Outcome = "failed"
)

// Company identifies the issuing party printed on every invoice.
type Company struct {
	Name    string   `json:"name"`
	Details []string `json:"details"` // address and registration lines, in print order
}

// Client is one billable party. The roster is static configuration and is
// never mutated during a run.
type Client struct {
	Name           string        `json:"name"`
	Details        []string      `json:"details"`         // addressee lines, in print order
	EmailTo        []string      `json:"email_to"`        // primary recipients
	EmailCC        []string      `json:"email_cc"`        // copy recipients, may be empty but must exist
	PaymentDetails []string      `json:"payment_details"` // bank/payment instruction lines
	Services       []ServiceLine `json:"services"`
}

// ServiceLine is one billable row on an invoice.
type ServiceLine struct {
	Description string          `json:"description"`
	Period      string          `json:"period,omitempty"` // optional period label, e.g. "March 2026"
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TaxRate     decimal.Decimal `json:"tax_rate"` // fraction, e.g. 0.1 for 10%
}

// Total returns quantity x unit price for the line, unrounded.
func (l ServiceLine) Total() decimal.Decimal {
	return l.Quantity.Mul(l.UnitPrice)
}

// Tax returns the tax amount for the line, unrounded.
func (l ServiceLine) Tax() decimal.Decimal {
	return l.Total().Mul(l.TaxRate)
}

// GrandTotal returns line total plus line tax, unrounded.
func (l ServiceLine) GrandTotal() decimal.Decimal {
	return l.Total().Add(l.Tax())
}

// Totals aggregates the amounts of one client's invoice.
// Values are exact; rounding to two decimals happens at presentation only,
// so the summary never drifts from the per-line amounts.
type Totals struct {
	Subtotal   decimal.Decimal
	Tax        decimal.Decimal
	GrandTotal decimal.Decimal
}

// TotalsFor computes invoice totals over a client's service lines.
func TotalsFor(lines []ServiceLine) Totals {
	t := Totals{
		Subtotal: decimal.Zero,
		Tax:      decimal.Zero,
	}
	for _, l := range lines {
		t.Subtotal = t.Subtotal.Add(l.Total())
		t.Tax = t.Tax.Add(l.Tax())
	}
	t.GrandTotal = t.Subtotal.Add(t.Tax)
	return t
}

// Money formats an amount for display, rounded to two decimal places.
func Money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// Config is the static configuration a run operates on.
// It is threaded explicitly into each component rather than held as
// ambient state, so components test against fabricated configs.
type Config struct {
	Company Company  `json:"company"`
	Clients []Client `json:"clients"`
}

// Invoice pairs one client with the invoice number reserved for it in the
// current batch.
type Invoice struct {
	Number   int64
	Client   Client
	IssuedAt time.Time
}

// Totals computes the invoice's aggregate amounts.
func (i Invoice) Totals() Totals {
	return TotalsFor(i.Client.Services)
}

// ArtifactName returns the canonical file name of the rendered PDF,
// shared by the email attachment and the archive key.
func ArtifactName(prefix string, number int64) string {
	return fmt.Sprintf("%s-invoice-%d.pdf", prefix, number)
}

// Subject returns the invoice email subject for the issue date's month.
func (i Invoice) Subject() string {
	return fmt.Sprintf("Invoice for %s %d", i.IssuedAt.Month().String(), i.IssuedAt.Year())
}
