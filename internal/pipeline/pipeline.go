// Package pipeline orchestrates one scheduled invoice run: validate the
// configuration, reserve the invoice-number block, then deliver per
// client and record each outcome.
package pipeline

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/nordview/invoicer/internal/alert"
	"github.com/nordview/invoicer/internal/counter"
	"github.com/nordview/invoicer/internal/domain"
	"github.com/nordview/invoicer/internal/render"
	"github.com/nordview/invoicer/internal/telemetry"
)

// Status is the per-client result of a run.
type Status string

const (
	StatusSent         Status = "sent"
	StatusSendFailed   Status = "send_failed"
	StatusRenderFailed Status = "render_failed"
)

// Mailer sends one rendered invoice to its client's recipients.
// Implemented by email.Service.
type Mailer interface {
	SendInvoice(ctx context.Context, inv domain.Invoice, pdf []byte) error
}

// Archiver persists a rendered PDF under an outcome-labeled path.
// Implemented by archive.Archiver.
type Archiver interface {
	Store(ctx context.Context, outcome domain.Outcome, number int64, pdf []byte) (string, error)
}

// ClientResult records what happened to one client's invoice.
type ClientResult struct {
	InvoiceNumber int64
	ClientName    string
	Status        Status
	ArchivePath   string // empty when no artifact was stored
	Err           error  // the step failure, nil for StatusSent
}

// RunReport summarizes a completed run.
type RunReport struct {
	Range   counter.Range
	Results []ClientResult

	Sent         int
	SendFailed   int
	RenderFailed int
}

// Runner executes the batch. Configuration is threaded in explicitly so
// runs are reproducible against fabricated configs in tests.
type Runner struct {
	cfg      domain.Config
	alloc    *counter.Allocator
	renderer render.Renderer
	mailer   Mailer
	archiver Archiver
	notifier alert.Notifier
	logger   *slog.Logger
	metrics  *telemetry.Metrics

	// stepTimeout caps each network-bound step (send, archive); expiry
	// counts as that step's failure outcome. Zero disables the deadline.
	stepTimeout time.Duration

	now func() time.Time
}

// Options tunes a Runner beyond its required collaborators.
type Options struct {
	StepTimeout time.Duration
	Metrics     *telemetry.Metrics
	Now         func() time.Time
}

// NewRunner wires a batch runner from its collaborators.
func NewRunner(
	cfg domain.Config,
	alloc *counter.Allocator,
	renderer render.Renderer,
	mailer Mailer,
	archiver Archiver,
	notifier alert.Notifier,
	logger *slog.Logger,
	opts Options,
) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Runner{
		cfg:         cfg,
		alloc:       alloc,
		renderer:    renderer,
		mailer:      mailer,
		archiver:    archiver,
		notifier:    notifier,
		logger:      logger,
		metrics:     opts.Metrics,
		stepTimeout: opts.StepTimeout,
		now:         now,
	}
}

// Run executes one batch. The returned error is non-nil only for the two
// fatal classes (configuration, counter); per-client failures are
// recorded in the report and never abort the run.
func (r *Runner) Run(ctx context.Context) (*RunReport, error) {
	started := r.now()
	if r.metrics != nil {
		r.metrics.RunsStarted.Inc()
	}

	// Configuration gates entry: a single defect fails the whole run
	// before any side effect, and every defect is logged.
	if errs := domain.Validate(r.cfg); len(errs) > 0 {
		for _, e := range errs {
			r.logger.Error("invalid configuration", "error", e)
		}
		if r.metrics != nil {
			r.metrics.RunsFailed.WithLabelValues("config").Inc()
		}
		return nil, domain.Errorf(domain.EINVALID, "pipeline.run",
			"configuration invalid: %s", strings.Join(errs, "; "))
	}

	// One counter mutation per run, before any client work. A failure
	// here is fatal and alerts the operator; numbers that were never
	// persisted are never considered consumed.
	rng, err := r.alloc.Reserve(ctx, len(r.cfg.Clients))
	if err != nil {
		if r.metrics != nil {
			r.metrics.RunsFailed.WithLabelValues("counter").Inc()
		}
		if alertErr := r.notifier.RunFailure(ctx, err); alertErr != nil {
			r.logger.Error("failed to send run failure alert", "error", alertErr)
		}
		return nil, err
	}

	report := &RunReport{
		Range:   rng,
		Results: make([]ClientResult, 0, len(r.cfg.Clients)),
	}

	issuedAt := r.now()
	for i, client := range r.cfg.Clients {
		inv := domain.Invoice{
			Number:   rng.Start + int64(i),
			Client:   client,
			IssuedAt: issuedAt,
		}
		report.Results = append(report.Results, r.deliver(ctx, inv))
	}

	for _, res := range report.Results {
		switch res.Status {
		case StatusSent:
			report.Sent++
		case StatusSendFailed:
			report.SendFailed++
		case StatusRenderFailed:
			report.RenderFailed++
		}
	}

	if r.metrics != nil {
		r.metrics.RunsCompleted.Inc()
		r.metrics.RunDuration.Observe(r.now().Sub(started).Seconds())
	}

	r.logger.Info("invoice run complete",
		"range", rng.String(),
		"sent", report.Sent,
		"send_failed", report.SendFailed,
		"render_failed", report.RenderFailed,
	)

	return report, nil
}

// deliver runs one client through Rendering -> Sending -> Recording.
// Every exit is absorbing: the next client is never blocked, skipped or
// retried because of this one.
func (r *Runner) deliver(ctx context.Context, inv domain.Invoice) ClientResult {
	result := ClientResult{
		InvoiceNumber: inv.Number,
		ClientName:    inv.Client.Name,
	}

	pdf, err := r.renderer.Render(ctx, inv)
	if err != nil {
		// The invoice number stays consumed; only the artifact is missing.
		result.Status = StatusRenderFailed
		result.Err = err
		if r.metrics != nil {
			r.metrics.RenderFailed.Inc()
		}
		r.logger.Error("render failed",
			"invoice", inv.Number,
			"client", inv.Client.Name,
			"error", err,
		)
		if alertErr := r.notifier.InvoiceFailure(ctx, inv.Number, inv.Client.Name, err); alertErr != nil {
			r.logger.Error("failed to send invoice failure alert", "invoice", inv.Number, "error", alertErr)
		}
		return result
	}
	if r.metrics != nil {
		r.metrics.InvoicesRendered.Inc()
	}

	outcome := domain.OutcomeSent
	sendCtx, cancel := r.stepContext(ctx)
	err = r.mailer.SendInvoice(sendCtx, inv, pdf)
	cancel()
	if err != nil {
		// No alert: the failed/ archive is the operator's signal.
		outcome = domain.OutcomeFailed
		result.Status = StatusSendFailed
		result.Err = err
		if r.metrics != nil {
			r.metrics.SendFailed.Inc()
		}
		r.logger.Error("send failed, archiving under failed path",
			"invoice", inv.Number,
			"client", inv.Client.Name,
			"error", err,
		)
	} else {
		result.Status = StatusSent
		if r.metrics != nil {
			r.metrics.InvoicesSent.Inc()
		}
	}

	archiveCtx, cancel := r.stepContext(ctx)
	path, archiveErr := r.archiver.Store(archiveCtx, outcome, inv.Number, pdf)
	cancel()
	if archiveErr != nil {
		// Best-effort audit trail: log and count, never alert or abort.
		if r.metrics != nil {
			r.metrics.ArchiveFailures.Inc()
		}
		r.logger.Error("archive write failed",
			"invoice", inv.Number,
			"outcome", string(outcome),
			"error", archiveErr,
		)
	} else {
		result.ArchivePath = path
		if r.metrics != nil {
			r.metrics.ArchiveWrites.WithLabelValues(string(outcome)).Inc()
		}
		r.logger.Info("invoice archived",
			"invoice", inv.Number,
			"client", inv.Client.Name,
			"outcome", string(outcome),
			"path", path,
		)
	}

	return result
}

func (r *Runner) stepContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.stepTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, r.stepTimeout)
}
