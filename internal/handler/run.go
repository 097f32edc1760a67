// Package handler exposes the HTTP surface of the invoicer: the
// scheduler-only run trigger and a health probe.
package handler

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/nordview/invoicer/internal/domain"
	"github.com/nordview/invoicer/internal/middleware"
	"github.com/nordview/invoicer/internal/pipeline"
	"github.com/nordview/invoicer/internal/telemetry"
)

// SchedulerTokenHeader authenticates scheduled invocations. The value is
// shared with the scheduler out of band.
const SchedulerTokenHeader = "X-Scheduler-Token"

// BatchRunner executes one invoice run. Implemented by pipeline.Runner.
type BatchRunner interface {
	Run(ctx context.Context) (*pipeline.RunReport, error)
}

// RunHandler guards and serves the batch trigger endpoint.
type RunHandler struct {
	runner  BatchRunner
	token   string
	logger  *slog.Logger
	metrics *telemetry.Metrics
}

// NewRunHandler creates the trigger handler.
func NewRunHandler(runner BatchRunner, token string, logger *slog.Logger, metrics *telemetry.Metrics) *RunHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &RunHandler{
		runner:  runner,
		token:   token,
		logger:  logger,
		metrics: metrics,
	}
}

// runResponse is the JSON body returned for an executed run.
type runResponse struct {
	Range        string `json:"range"`
	Sent         int    `json:"sent"`
	SendFailed   int    `json:"send_failed"`
	RenderFailed int    `json:"render_failed"`
}

// Trigger handles POST /run.
//
// Only the scheduler may start a run: the request must carry the
// shared token header. Anything else is turned away with a fixed
// rejection before the pipeline is touched, so a stray manual request
// can never consume invoice numbers or send mail.
func (h *RunHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLogger(r.Context(), h.logger)

	if !h.authorized(r) {
		if h.metrics != nil {
			h.metrics.TriggerRejected.Inc()
		}
		logger.Warn("rejected unscheduled trigger request",
			"remote_addr", r.RemoteAddr,
		)
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte("not allowed"))
		return
	}

	report, err := h.runner.Run(r.Context())
	if err != nil {
		status := http.StatusInternalServerError
		if domain.ErrorCode(err) == domain.EINVALID {
			status = http.StatusUnprocessableEntity
		}
		logger.Error("invoice run failed", "error", err)
		writeJSON(w, status, map[string]string{"error": domain.ErrorMessage(err)})
		return
	}

	writeJSON(w, http.StatusOK, runResponse{
		Range:        report.Range.String(),
		Sent:         report.Sent,
		SendFailed:   report.SendFailed,
		RenderFailed: report.RenderFailed,
	})
}

// authorized reports whether the request carries the scheduler token.
// An unconfigured token rejects everything: an open trigger would let any
// stray request consume invoice numbers and send mail.
func (h *RunHandler) authorized(r *http.Request) bool {
	if h.token == "" {
		return false
	}
	got := r.Header.Get(SchedulerTokenHeader)
	return subtle.ConstantTimeCompare([]byte(got), []byte(h.token)) == 1
}

// Health handles GET /healthz.
func Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
