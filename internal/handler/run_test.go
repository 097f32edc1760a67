package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nordview/invoicer/internal/counter"
	"github.com/nordview/invoicer/internal/domain"
	"github.com/nordview/invoicer/internal/pipeline"
)

// stubRunner counts invocations so tests can prove the pipeline was
// never reached on rejected requests.
type stubRunner struct {
	calls  int
	report *pipeline.RunReport
	err    error
}

func (s *stubRunner) Run(ctx context.Context) (*pipeline.RunReport, error) {
	s.calls++
	return s.report, s.err
}

func triggerRequest(token string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/run", nil)
	if token != "" {
		req.Header.Set(SchedulerTokenHeader, token)
	}
	return req
}

func TestTriggerRejectsMissingToken(t *testing.T) {
	runner := &stubRunner{}
	h := NewRunHandler(runner, "s3cret", nil, nil)

	w := httptest.NewRecorder()
	h.Trigger(w, triggerRequest(""))

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "not allowed", w.Body.String())
	assert.Zero(t, runner.calls, "pipeline must not run for unscheduled requests")
}

func TestTriggerRejectsAllWhenTokenUnconfigured(t *testing.T) {
	runner := &stubRunner{}
	h := NewRunHandler(runner, "", nil, nil)

	w := httptest.NewRecorder()
	h.Trigger(w, triggerRequest(""))

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "not allowed", w.Body.String())
	assert.Zero(t, runner.calls, "an empty configured token must not open the trigger")
}

func TestTriggerRejectsWrongToken(t *testing.T) {
	runner := &stubRunner{}
	h := NewRunHandler(runner, "s3cret", nil, nil)

	w := httptest.NewRecorder()
	h.Trigger(w, triggerRequest("guess"))

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "not allowed", w.Body.String())
	assert.Zero(t, runner.calls)
}

func TestTriggerRunsWithValidToken(t *testing.T) {
	runner := &stubRunner{
		report: &pipeline.RunReport{
			Range: counter.Range{Start: 1001, End: 1003},
			Sent:  3,
		},
	}
	h := NewRunHandler(runner, "s3cret", nil, nil)

	w := httptest.NewRecorder()
	h.Trigger(w, triggerRequest("s3cret"))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, runner.calls)

	var body struct {
		Range string `json:"range"`
		Sent  int    `json:"sent"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "[1001, 1003]", body.Range)
	assert.Equal(t, 3, body.Sent)
}

func TestTriggerReportsConfigFailure(t *testing.T) {
	runner := &stubRunner{
		err: domain.Invalid("pipeline.run", "configuration invalid: company name is missing"),
	}
	h := NewRunHandler(runner, "s3cret", nil, nil)

	w := httptest.NewRecorder()
	h.Trigger(w, triggerRequest("s3cret"))

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "company name is missing")
}

func TestTriggerReportsFatalFailure(t *testing.T) {
	runner := &stubRunner{
		err: domain.Fatal(errors.New("disk full"), "counter.reserve", "failed to persist invoice counter"),
	}
	h := NewRunHandler(runner, "s3cret", nil, nil)

	w := httptest.NewRecorder()
	h.Trigger(w, triggerRequest("s3cret"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "failed to persist invoice counter")
}

func TestHealth(t *testing.T) {
	w := httptest.NewRecorder()
	Health(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}
