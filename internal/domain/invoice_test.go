package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func line(desc string, qty, price, rate string) ServiceLine {
	return ServiceLine{
		Description: desc,
		Quantity:    decimal.RequireFromString(qty),
		UnitPrice:   decimal.RequireFromString(price),
		TaxRate:     decimal.RequireFromString(rate),
	}
}

func TestServiceLineAmounts(t *testing.T) {
	l := line("consulting", "2", "100.00", "0.1")

	assert.Equal(t, "200.00", Money(l.Total()))
	assert.Equal(t, "20.00", Money(l.Tax()))
	assert.Equal(t, "220.00", Money(l.GrandTotal()))
}

func TestTotalsFor(t *testing.T) {
	tests := []struct {
		name       string
		lines      []ServiceLine
		subtotal   string
		tax        string
		grandTotal string
	}{
		{
			name:       "empty service list",
			lines:      nil,
			subtotal:   "0.00",
			tax:        "0.00",
			grandTotal: "0.00",
		},
		{
			name:       "single line",
			lines:      []ServiceLine{line("consulting", "2", "100.00", "0.1")},
			subtotal:   "200.00",
			tax:        "20.00",
			grandTotal: "220.00",
		},
		{
			name: "multiple lines sum without premature rounding",
			lines: []ServiceLine{
				line("consulting", "2", "100.00", "0.1"),
				line("support", "3", "33.335", "0.1"),
				line("hosting", "1", "0.005", "0"),
			},
			// 200 + 100.005 + 0.005 = 300.01 exactly; rounding each line
			// first would have produced 300.02.
			subtotal:   "300.01",
			tax:        "30.00",
			grandTotal: "330.01",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TotalsFor(tt.lines)
			assert.Equal(t, tt.subtotal, Money(got.Subtotal))
			assert.Equal(t, tt.tax, Money(got.Tax))
			assert.Equal(t, tt.grandTotal, Money(got.GrandTotal))
		})
	}
}

func TestTotalsExactUnderlyingValues(t *testing.T) {
	lines := []ServiceLine{
		line("a", "3", "33.335", "0.075"),
		line("b", "7", "0.333", "0.075"),
	}

	got := TotalsFor(lines)

	// Stored values stay exact; only presentation rounds.
	want := decimal.RequireFromString("100.005").Add(decimal.RequireFromString("2.331"))
	assert.True(t, got.Subtotal.Equal(want), "subtotal %s != %s", got.Subtotal, want)
	assert.True(t, got.GrandTotal.Equal(got.Subtotal.Add(got.Tax)))
}

func TestInvoiceSubject(t *testing.T) {
	inv := Invoice{
		Number:   1042,
		IssuedAt: time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC),
	}

	assert.Equal(t, "Invoice for March 2026", inv.Subject())
}

func TestArtifactName(t *testing.T) {
	assert.Equal(t, "acme-invoice-1042.pdf", ArtifactName("acme", 1042))
}
