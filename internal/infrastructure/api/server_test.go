package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doeshing/smartos-go/internal/application/assistant"
	"github.com/doeshing/smartos-go/internal/application/dispatch"
	"github.com/doeshing/smartos-go/internal/application/intent"
	"github.com/doeshing/smartos-go/internal/application/recorder"
	"github.com/doeshing/smartos-go/internal/domain"
	"github.com/doeshing/smartos-go/internal/infrastructure/handlers"
	"github.com/doeshing/smartos-go/internal/pkg/logger"
)

type confirmShutdown struct{}

func (confirmShutdown) Evaluate(in domain.Intent) domain.PolicyDecision {
	if in.Target == "shutdown" {
		return domain.PolicyDecision{Verdict: domain.VerdictConfirm, Reasons: []string{"power action"}}
	}
	return domain.Allowed()
}

type stubHealth struct{ report domain.HealthReport }

func (s stubHealth) Run(context.Context) (domain.HealthReport, error) { return s.report, nil }

func newTestServer(t *testing.T, fallback bool, health HealthChecker) *httptest.Server {
	t.Helper()
	reg, err := intent.BuildRegistry(domain.Config{})
	require.NoError(t, err)
	d := dispatch.New(dispatch.Options{Timeout: time.Second}, dispatch.Dependencies{Policy: confirmShutdown{}})
	require.NoError(t, d.Register(&handlers.SimulatedHandler{}))
	rec := recorder.New(nil)
	svc := &assistant.Service{
		Matcher:      intent.NewMatcher(reg),
		Dispatcher:   d,
		Recorder:     rec,
		Logger:       logger.NewNop(),
		FallbackMode: fallback,
	}
	handler, err := New(Config{Commands: svc, Records: rec, Confirmations: d, Health: health})
	require.NoError(t, err)
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url string, body any, out any) int {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if out != nil {
		require.NoError(t, json.Unmarshal(data, out), string(data))
	}
	return resp.StatusCode
}

func TestRunCommandAndListRecords(t *testing.T) {
	srv := newTestServer(t, true, nil)

	var resp CommandResponse
	status := doJSON(t, http.MethodPost, srv.URL+"/v1/commands", CommandRequest{Text: "open calculator"}, &resp)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, domain.ActionOpenApplication, resp.Record.Intent.Action)
	assert.Equal(t, "calculator", resp.Record.Intent.Target)
	assert.True(t, resp.Record.Result.Success)
	assert.Equal(t, "open calculator", resp.Record.Command)

	var unknown CommandResponse
	status = doJSON(t, http.MethodPost, srv.URL+"/v1/commands", CommandRequest{Text: "asdkjasd"}, &unknown)
	require.Equal(t, http.StatusOK, status)
	assert.True(t, unknown.Clarification)
	assert.False(t, unknown.Record.Result.Success)

	var records []RecordDTO
	status = doJSON(t, http.MethodGet, srv.URL+"/v1/records", nil, &records)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, records, 2)
	assert.Equal(t, uint64(1), records[0].Seq)

	status = doJSON(t, http.MethodGet, srv.URL+"/v1/records?success=true", nil, &records)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, records, 1)
	assert.Equal(t, "open calculator", records[0].Command)

	status = doJSON(t, http.MethodGet, srv.URL+"/v1/records?limit=1", nil, &records)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, records, 1)
	assert.Equal(t, "asdkjasd", records[0].Command)

	var metrics recorder.Metrics
	status = doJSON(t, http.MethodGet, srv.URL+"/v1/metrics", nil, &metrics)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 2, metrics.TotalCommands)
	assert.Equal(t, 1, metrics.Succeeded)
	assert.Equal(t, 2, metrics.LastHour.Total)
	assert.Equal(t, 2, metrics.LastDay.Total)
}

func TestBadRequests(t *testing.T) {
	srv := newTestServer(t, false, nil)

	var envelope struct {
		Error apiErrorBody `json:"error"`
	}
	status := doJSON(t, http.MethodPost, srv.URL+"/v1/commands", CommandRequest{Text: "  "}, &envelope)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "bad_request", envelope.Error.Code)

	status = doJSON(t, http.MethodPost, srv.URL+"/v1/commands", CommandRequest{Text: "asdkjasd"}, &envelope)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "unrecognized", envelope.Error.Code)

	status = doJSON(t, http.MethodGet, srv.URL+"/v1/records?since=yesterday", nil, &envelope)
	assert.Equal(t, http.StatusBadRequest, status)

	status = doJSON(t, http.MethodGet, srv.URL+"/v1/records?success=maybe", nil, &envelope)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestConfirmationFlow(t *testing.T) {
	srv := newTestServer(t, true, nil)

	var held CommandResponse
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodPost, srv.URL+"/v1/commands", CommandRequest{Text: "shutdown"}, &held))
	id := held.Record.Result.ConfirmationID
	require.NotEmpty(t, id)
	assert.False(t, held.Record.Result.Success)

	var pending []dispatch.Pending
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodGet, srv.URL+"/v1/confirmations", nil, &pending))
	require.Len(t, pending, 1)
	assert.Equal(t, id, pending[0].ID)

	var resolved CommandResponse
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodPost, srv.URL+"/v1/confirmations/"+id, ResolveRequest{Approve: true}, &resolved))
	assert.True(t, resolved.Record.Result.Success)
	assert.Equal(t, "shutdown", resolved.Record.Command)

	require.Equal(t, http.StatusOK, doJSON(t, http.MethodGet, srv.URL+"/v1/confirmations", nil, &pending))
	assert.Empty(t, pending)

	status := doJSON(t, http.MethodPost, srv.URL+"/v1/confirmations/"+id, ResolveRequest{Approve: true}, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestHealth(t *testing.T) {
	var body struct {
		Status string               `json:"status"`
		Checks []domain.HealthCheck `json:"checks"`
	}
	srv := newTestServer(t, true, nil)
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodGet, srv.URL+"/v1/health", nil, &body))
	assert.Equal(t, "ok", body.Status)

	degraded := stubHealth{report: domain.HealthReport{Checks: []domain.HealthCheck{{Name: "Config file", Status: domain.HealthError}}}}
	srv = newTestServer(t, true, degraded)
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodGet, srv.URL+"/v1/health", nil, &body))
	assert.Equal(t, "degraded", body.Status)
	assert.Len(t, body.Checks, 1)
}

func TestNewRequiresDependencies(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}
