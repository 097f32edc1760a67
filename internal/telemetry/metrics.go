package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for run-level observability.
type Metrics struct {
	// Runs
	RunsStarted   prometheus.Counter
	RunsCompleted prometheus.Counter
	RunsFailed    *prometheus.CounterVec // labeled by failure class
	RunDuration   prometheus.Histogram

	// Invoices
	InvoicesRendered prometheus.Counter
	InvoicesSent     prometheus.Counter
	RenderFailed     prometheus.Counter
	SendFailed       prometheus.Counter

	// Archive
	ArchiveWrites   *prometheus.CounterVec // labeled by outcome
	ArchiveFailures prometheus.Counter

	// Trigger surface
	TriggerRejected prometheus.Counter
}

// NewMetrics creates and registers all run metrics against reg.
// Pass prometheus.DefaultRegisterer in production and a fresh registry in
// tests.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "invoicer"
	}
	factory := promauto.With(reg)

	return &Metrics{
		RunsStarted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_started_total",
			Help:      "Total invoice runs started",
		}),
		RunsCompleted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_completed_total",
			Help:      "Total invoice runs that finished the full batch",
		}),
		RunsFailed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_failed_total",
			Help:      "Total invoice runs aborted before client work",
		}, []string{"reason"}), // reason: config, counter
		RunDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Invoice run duration",
			Buckets:   []float64{.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}),
		InvoicesRendered: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invoices_rendered_total",
			Help:      "Total invoice PDFs rendered",
		}),
		InvoicesSent: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invoices_sent_total",
			Help:      "Total invoices emailed successfully",
		}),
		RenderFailed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invoices_render_failed_total",
			Help:      "Total invoices whose rendering failed",
		}),
		SendFailed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invoices_send_failed_total",
			Help:      "Total invoices whose email delivery failed",
		}),
		ArchiveWrites: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "archive_writes_total",
			Help:      "Total archived invoice artifacts by outcome",
		}, []string{"outcome"}), // outcome: sent, failed
		ArchiveFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "archive_failures_total",
			Help:      "Total artifact archive write failures (best-effort, run continues)",
		}),
		TriggerRejected: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "trigger_rejected_total",
			Help:      "Total direct invocations rejected by the trigger endpoint",
		}),
	}
}
