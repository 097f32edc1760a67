package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nordview/invoicer/internal/alert"
	"github.com/nordview/invoicer/internal/archive"
	"github.com/nordview/invoicer/internal/counter"
	"github.com/nordview/invoicer/internal/domain"
	"github.com/nordview/invoicer/internal/render"
	"github.com/nordview/invoicer/internal/storage"
)

// mockMailer implements Mailer with per-client failure injection.
type mockMailer struct {
	mu      sync.Mutex
	sent    []int64
	failFor map[string]error // keyed by client name
}

func newMockMailer() *mockMailer {
	return &mockMailer{failFor: make(map[string]error)}
}

func (m *mockMailer) SendInvoice(ctx context.Context, inv domain.Invoice, pdf []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.failFor[inv.Client.Name]; ok {
		return err
	}
	m.sent = append(m.sent, inv.Number)
	return nil
}

func testClient(name string) domain.Client {
	return domain.Client{
		Name:           name,
		Details:        []string{"somewhere"},
		EmailTo:        []string{"ap@" + name + ".test"},
		EmailCC:        []string{},
		PaymentDetails: []string{"IBAN XX00 1234"},
		Services: []domain.ServiceLine{
			{
				Description: "consulting",
				Quantity:    decimal.NewFromInt(1),
				UnitPrice:   decimal.RequireFromString("100.00"),
				TaxRate:     decimal.RequireFromString("0.1"),
			},
		},
	}
}

func testConfig(clients ...string) domain.Config {
	cfg := domain.Config{
		Company: domain.Company{Name: "Acme", Details: []string{"1 Main St"}},
	}
	for _, name := range clients {
		cfg.Clients = append(cfg.Clients, testClient(name))
	}
	return cfg
}

type fixture struct {
	cfg      domain.Config
	store    *counter.MockStore
	renderer *render.MockRenderer
	mailer   *mockMailer
	objects  *storage.MockStorage
	notifier *alert.MockNotifier
	runner   *Runner
}

func newFixture(t *testing.T, cfg domain.Config) *fixture {
	t.Helper()
	f := &fixture{
		cfg:      cfg,
		store:    counter.NewMockStore(),
		renderer: render.NewMockRenderer(),
		mailer:   newMockMailer(),
		objects:  storage.NewMockStorage(),
		notifier: alert.NewMockNotifier(),
	}
	f.store.Seed(1000)
	f.runner = NewRunner(
		cfg,
		counter.NewAllocator(f.store, nil),
		f.renderer,
		f.mailer,
		archive.NewArchiver(f.objects, "acme"),
		f.notifier,
		nil,
		Options{Now: func() time.Time { return time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC) }},
	)
	return f
}

func TestRunHappyPath(t *testing.T) {
	f := newFixture(t, testConfig("globex", "initech", "hooli"))

	report, err := f.runner.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, counter.Range{Start: 1001, End: 1003}, report.Range)
	assert.Equal(t, 3, report.Sent)
	assert.Zero(t, report.SendFailed)
	assert.Zero(t, report.RenderFailed)
	assert.Equal(t, int64(1003), f.store.Value())

	// Every invoice was archived under sent/ and nothing under failed/.
	for n := int64(1001); n <= 1003; n++ {
		key := archive.NewArchiver(f.objects, "acme").Key(domain.OutcomeSent, n)
		_, ok := f.objects.Object(key)
		assert.True(t, ok, "missing artifact %s", key)
	}
	for _, key := range f.objects.Keys() {
		assert.NotContains(t, key, "failed/")
	}
	assert.Empty(t, f.notifier.InvoiceAlerts())
	assert.Empty(t, f.notifier.RunAlerts())
}

func TestRunSequentialRunsIssueIncreasingNumbers(t *testing.T) {
	f := newFixture(t, testConfig("globex", "initech", "hooli"))

	first, err := f.runner.Run(context.Background())
	require.NoError(t, err)
	second, err := f.runner.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, counter.Range{Start: 1001, End: 1003}, first.Range)
	assert.Equal(t, counter.Range{Start: 1004, End: 1006}, second.Range)
}

func TestRunConfigErrorStopsBeforeAnySideEffect(t *testing.T) {
	cfg := testConfig("globex")
	cfg.Company.Name = ""
	cfg.Clients[0].PaymentDetails = nil
	f := newFixture(t, cfg)

	_, err := f.runner.Run(context.Background())

	require.Error(t, err)
	assert.Equal(t, domain.EINVALID, domain.ErrorCode(err))
	// Both defects surface in the failure, not just the first.
	assert.Contains(t, err.Error(), "company name is missing")
	assert.Contains(t, err.Error(), "payment detail lines are missing")

	assert.Zero(t, f.store.PutCalls, "counter must not be touched")
	assert.Empty(t, f.renderer.Rendered())
	assert.Empty(t, f.mailer.sent)
	assert.Empty(t, f.objects.Keys())
	assert.Empty(t, f.notifier.RunAlerts(), "config errors are logged, not alerted")
}

func TestRunCounterPersistFailureAbortsAndAlerts(t *testing.T) {
	f := newFixture(t, testConfig("globex", "initech"))
	f.store.PutErr = errors.New("disk full")

	_, err := f.runner.Run(context.Background())

	require.Error(t, err)
	assert.Equal(t, domain.EFATAL, domain.ErrorCode(err))
	assert.Equal(t, int64(1000), f.store.Value(), "counter keeps its pre-run value")
	assert.Empty(t, f.renderer.Rendered(), "no client is rendered")
	assert.Empty(t, f.mailer.sent, "no client is emailed")
	assert.Empty(t, f.objects.Keys(), "nothing is archived")
	require.Len(t, f.notifier.RunAlerts(), 1)
}

func TestRunRenderFailureConsumesNumberAndAlerts(t *testing.T) {
	f := newFixture(t, testConfig("globex", "initech", "hooli"))
	f.renderer.FailFor[1002] = errors.New("layout exploded")

	report, err := f.runner.Run(context.Background())

	require.NoError(t, err, "per-client failures never abort the run")
	assert.Equal(t, 2, report.Sent)
	assert.Equal(t, 1, report.RenderFailed)

	// initech's number 1002 is spent: the next run starts after it.
	assert.Equal(t, int64(1003), f.store.Value())

	// No artifact anywhere for the failed render.
	for _, key := range f.objects.Keys() {
		assert.NotContains(t, key, "1002")
	}

	// The alert names the invoice and the client; the remaining clients
	// were still processed.
	alerts := f.notifier.InvoiceAlerts()
	require.Len(t, alerts, 1)
	assert.Equal(t, int64(1002), alerts[0].InvoiceNumber)
	assert.Equal(t, "initech", alerts[0].ClientName)
	assert.Equal(t, []int64{1001, 1003}, f.mailer.sent)
}

func TestRunSendFailureArchivesUnderFailedPath(t *testing.T) {
	f := newFixture(t, testConfig("globex", "initech"))
	f.mailer.failFor["globex"] = errors.New("smtp refused")

	report, err := f.runner.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, report.Sent)
	assert.Equal(t, 1, report.SendFailed)

	// Exactly one artifact at failed/...-1001.pdf and none at sent/.
	_, ok := f.objects.Object("failed/acme-invoice-1001.pdf")
	assert.True(t, ok)
	exists, err := f.objects.Exists(context.Background(), "sent/acme-invoice-1001.pdf")
	require.NoError(t, err)
	assert.False(t, exists)

	// The second client was delivered normally.
	_, ok = f.objects.Object("sent/acme-invoice-1002.pdf")
	assert.True(t, ok)

	// Send failures never alert; the archive is the signal.
	assert.Empty(t, f.notifier.InvoiceAlerts())
}

func TestRunSendSuccessArchivesUnderSentPath(t *testing.T) {
	f := newFixture(t, testConfig("globex"))

	report, err := f.runner.Run(context.Background())

	require.NoError(t, err)
	require.Len(t, report.Results, 1)
	assert.Equal(t, StatusSent, report.Results[0].Status)
	assert.Equal(t, "sent/acme-invoice-1001.pdf", report.Results[0].ArchivePath)

	_, ok := f.objects.Object("sent/acme-invoice-1001.pdf")
	assert.True(t, ok)
	exists, _ := f.objects.Exists(context.Background(), "failed/acme-invoice-1001.pdf")
	assert.False(t, exists)
}

func TestRunArchiveErrorIsBestEffort(t *testing.T) {
	f := newFixture(t, testConfig("globex", "initech"))
	f.objects.PutErr = errors.New("bucket unreachable")

	report, err := f.runner.Run(context.Background())

	// Archive failures are logged only: no abort, no alert, the delivery
	// outcome stands.
	require.NoError(t, err)
	assert.Equal(t, 2, report.Sent)
	assert.Empty(t, f.notifier.InvoiceAlerts())
	assert.Empty(t, f.notifier.RunAlerts())
	for _, res := range report.Results {
		assert.Empty(t, res.ArchivePath)
	}
}

// slowMailer hangs until the step deadline cancels it.
type slowMailer struct{}

func (slowMailer) SendInvoice(ctx context.Context, inv domain.Invoice, pdf []byte) error {
	<-ctx.Done()
	return ctx.Err()
}

// slowArchiver hangs until the step deadline cancels it.
type slowArchiver struct{}

func (slowArchiver) Store(ctx context.Context, outcome domain.Outcome, number int64, pdf []byte) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func TestRunSendTimeoutCountsAsSendFailure(t *testing.T) {
	store := counter.NewMockStore()
	store.Seed(1000)
	objects := storage.NewMockStorage()
	notifier := alert.NewMockNotifier()
	runner := NewRunner(
		testConfig("globex"),
		counter.NewAllocator(store, nil),
		render.NewMockRenderer(),
		slowMailer{},
		archive.NewArchiver(objects, "acme"),
		notifier,
		nil,
		Options{StepTimeout: 10 * time.Millisecond},
	)

	report, err := runner.Run(context.Background())

	require.NoError(t, err, "a hung send never aborts the run")
	assert.Equal(t, 1, report.SendFailed)
	require.Len(t, report.Results, 1)
	assert.Equal(t, StatusSendFailed, report.Results[0].Status)
	assert.ErrorIs(t, report.Results[0].Err, context.DeadlineExceeded)

	// The timeout is an ordinary send failure: failed/ artifact, no alert.
	_, ok := objects.Object("failed/acme-invoice-1001.pdf")
	assert.True(t, ok)
	assert.Empty(t, notifier.InvoiceAlerts())
}

func TestRunArchiveTimeoutStaysBestEffort(t *testing.T) {
	store := counter.NewMockStore()
	store.Seed(1000)
	mailer := newMockMailer()
	notifier := alert.NewMockNotifier()
	runner := NewRunner(
		testConfig("globex"),
		counter.NewAllocator(store, nil),
		render.NewMockRenderer(),
		mailer,
		slowArchiver{},
		notifier,
		nil,
		Options{StepTimeout: 10 * time.Millisecond},
	)

	report, err := runner.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, report.Sent, "delivery outcome stands when archiving times out")
	require.Len(t, report.Results, 1)
	assert.Equal(t, StatusSent, report.Results[0].Status)
	assert.Empty(t, report.Results[0].ArchivePath)
	assert.Empty(t, notifier.InvoiceAlerts())
	assert.Empty(t, notifier.RunAlerts())
}

func TestRunAssignsNumbersInClientOrder(t *testing.T) {
	f := newFixture(t, testConfig("globex", "initech", "hooli"))

	report, err := f.runner.Run(context.Background())

	require.NoError(t, err)
	require.Len(t, report.Results, 3)
	assert.Equal(t, int64(1001), report.Results[0].InvoiceNumber)
	assert.Equal(t, "globex", report.Results[0].ClientName)
	assert.Equal(t, int64(1002), report.Results[1].InvoiceNumber)
	assert.Equal(t, "initech", report.Results[1].ClientName)
	assert.Equal(t, int64(1003), report.Results[2].InvoiceNumber)
	assert.Equal(t, "hooli", report.Results[2].ClientName)
}
