package email

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nordview/invoicer/internal/domain"
)

func testInvoice() domain.Invoice {
	return domain.Invoice{
		Number: 1042,
		Client: domain.Client{
			Name:           "Globex",
			EmailTo:        []string{"ap@globex.test", "cfo@globex.test"},
			EmailCC:        []string{"records@globex.test"},
			PaymentDetails: []string{"IBAN XX00 1234", "BIC TESTBIC"},
			Services: []domain.ServiceLine{
				{
					Description: "consulting",
					Quantity:    decimal.NewFromInt(2),
					UnitPrice:   decimal.RequireFromString("100.00"),
					TaxRate:     decimal.RequireFromString("0.1"),
				},
			},
		},
		IssuedAt: time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC),
	}
}

func TestSendInvoiceComposesMessage(t *testing.T) {
	sender := NewMockSender()
	svc := NewService(sender, "billing@acme.test", "Acme Billing", "acme")

	err := svc.SendInvoice(context.Background(), testInvoice(), []byte("%PDF-1.4"))
	require.NoError(t, err)

	sent := sender.Sent()
	require.Len(t, sent, 1)
	msg := sent[0]

	assert.Equal(t, []string{"ap@globex.test", "cfo@globex.test"}, msg.To)
	assert.Equal(t, []string{"records@globex.test"}, msg.Cc)
	assert.Equal(t, []string{"billing@acme.test"}, msg.Bcc, "sender is blind-copied")
	assert.Equal(t, "Acme Billing <billing@acme.test>", msg.From)
	assert.Equal(t, "Invoice for March 2026", msg.Subject)

	assert.Contains(t, msg.TextBody, "Dear Globex,")
	assert.Contains(t, msg.TextBody, "invoice 1042")
	assert.Contains(t, msg.TextBody, "Amount due: 220.00")
	assert.Contains(t, msg.TextBody, "IBAN XX00 1234")

	require.Len(t, msg.Attachments, 1)
	att := msg.Attachments[0]
	assert.Equal(t, "acme-invoice-1042.pdf", att.Filename)
	assert.Equal(t, "application/pdf", att.ContentType)
	assert.Equal(t, []byte("%PDF-1.4"), att.Content)
}

func TestSendInvoicePropagatesSendError(t *testing.T) {
	sender := NewMockSender()
	sender.SendErr = errors.New("provider down")
	svc := NewService(sender, "billing@acme.test", "Acme Billing", "acme")

	err := svc.SendInvoice(context.Background(), testInvoice(), []byte("x"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invoice 1042")
}

func TestPostmarkSenderSuccess(t *testing.T) {
	var got postmarkEmail
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-token", r.Header.Get("X-Postmark-Server-Token"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"To":"ap@globex.test","MessageID":"pm-1","ErrorCode":0,"Message":"OK"}`))
	}))
	defer srv.Close()

	sender := NewPostmarkSenderWithEndpoint("test-token", srv.URL, srv.Client())

	id, err := sender.Send(context.Background(), &Email{
		From:     "billing@acme.test",
		To:       []string{"ap@globex.test", "cfo@globex.test"},
		Cc:       []string{"records@globex.test"},
		Bcc:      []string{"billing@acme.test"},
		Subject:  "Invoice for March 2026",
		TextBody: "body",
		Attachments: []Attachment{
			{Filename: "acme-invoice-1042.pdf", ContentType: "application/pdf", Content: []byte("%PDF-1.4")},
		},
	})

	require.NoError(t, err)
	assert.Equal(t, "pm-1", id)

	// Recipient lists are joined, attachment content base64-encoded.
	assert.Equal(t, "ap@globex.test,cfo@globex.test", got.To)
	assert.Equal(t, "records@globex.test", got.Cc)
	assert.Equal(t, "billing@acme.test", got.Bcc)
	require.Len(t, got.Attachments, 1)
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("%PDF-1.4")), got.Attachments[0].Content)
	assert.Equal(t, "application/pdf", got.Attachments[0].ContentType)
}

func TestPostmarkSenderNon200IsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"ErrorCode":300,"Message":"Invalid email request"}`))
	}))
	defer srv.Close()

	sender := NewPostmarkSenderWithEndpoint("test-token", srv.URL, srv.Client())

	_, err := sender.Send(context.Background(), &Email{
		From: "billing@acme.test", To: []string{"ap@globex.test"}, Subject: "s", TextBody: "b",
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 422")
}

func TestPostmarkSenderProviderErrorCodeIsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// 200 with a non-zero provider code still counts as failure.
		w.Write([]byte(`{"ErrorCode":406,"Message":"Inactive recipient"}`))
	}))
	defer srv.Close()

	sender := NewPostmarkSenderWithEndpoint("test-token", srv.URL, srv.Client())

	_, err := sender.Send(context.Background(), &Email{
		From: "billing@acme.test", To: []string{"ap@globex.test"}, Subject: "s", TextBody: "b",
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "postmark error 406")
}
