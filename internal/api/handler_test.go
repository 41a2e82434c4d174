package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"RateProjector/internal/calculator"
	"RateProjector/internal/metrics"
	"RateProjector/internal/model"
	"RateProjector/internal/recorder"
	"RateProjector/internal/scheduler"
)

type fakeService struct {
	latest     *model.Projection
	runs       []recorder.RunRecord
	runResult  *model.Projection
	runErr     error
	trigger    string
	gotLimit   int
	historyErr error
}

func (f *fakeService) Run(_ context.Context, trigger string) (*model.Projection, error) {
	f.trigger = trigger
	return f.runResult, f.runErr
}

func (f *fakeService) Latest() *model.Projection { return f.latest }

func (f *fakeService) History(limit int) ([]recorder.RunRecord, error) {
	f.gotLimit = limit
	return f.runs, f.historyErr
}

func sampleProjection() *model.Projection {
	return &model.Projection{
		Mode:   "single",
		Keys:   2,
		Status: model.FetchStatusComplete,
		Observations: []model.Observation{
			{Key: "2016-01-15", X: 1, Y: 2},
			{Key: "2016-02-15", X: 2, Y: 4},
		},
		Attempts: []model.Attempt{
			{Key: "2016-01-15", Outcome: model.OutcomeSuccess, Observation: model.Observation{Key: "2016-01-15", X: 1, Y: 2}},
			{Key: "2016-02-15", Outcome: model.OutcomeSuccess, Observation: model.Observation{Key: "2016-02-15", X: 2, Y: 4}},
			{Key: "2016-03-15", Outcome: model.OutcomeSkipped, Reason: model.SkipStatus, Detail: "status 503"},
		},
		Model:      &model.LinearModel{Slope: 2, Intercept: 0, N: 2},
		QueryPoint: 1.5,
		Predicted:  3,
		StartedAt:  time.Date(2026, 1, 2, 9, 0, 0, 0, time.UTC),
		Duration:   1500 * time.Millisecond,
	}
}

func do(t *testing.T, h http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(method, target, nil))
	return rr
}

func TestHealth(t *testing.T) {
	rr := do(t, New(&fakeService{}, nil), http.MethodGet, "/healthz")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
}

func TestLatest(t *testing.T) {
	svc := &fakeService{}
	h := New(svc, nil)

	rr := do(t, h, http.MethodGet, "/api/v1/projections/latest")
	assert.Equal(t, http.StatusNotFound, rr.Code)

	svc.latest = sampleProjection()
	rr = do(t, h, http.MethodGet, "/api/v1/projections/latest")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var resp ProjectionResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Collected)
	assert.Equal(t, 1, resp.Skipped)
	require.NotNil(t, resp.Predicted)
	assert.Equal(t, 3.0, *resp.Predicted)
	assert.Equal(t, int64(1500), resp.DurationMS)
	require.Len(t, resp.Attempts, 3)
	assert.Equal(t, "status", resp.Attempts[2].Reason)
	assert.Nil(t, resp.Attempts[2].X)
}

func TestHistory(t *testing.T) {
	svc := &fakeService{}
	h := New(svc, nil)

	rr := do(t, h, http.MethodGet, "/api/v1/projections")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 20, svc.gotLimit)
	assert.JSONEq(t, `[]`, rr.Body.String())

	svc.runs = []recorder.RunRecord{{ID: 7, Mode: "multi", Status: "OFFLINE"}}
	rr = do(t, h, http.MethodGet, "/api/v1/projections?limit=5")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 5, svc.gotLimit)
	assert.Contains(t, rr.Body.String(), `"id":7`)

	rr = do(t, h, http.MethodGet, "/api/v1/projections?limit=abc")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	svc.historyErr = errors.New("db locked")
	rr = do(t, h, http.MethodGet, "/api/v1/projections")
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestTrigger(t *testing.T) {
	tests := []struct {
		name   string
		result *model.Projection
		err    error
		want   int
	}{
		{name: "ok", result: sampleProjection(), want: http.StatusOK},
		{name: "busy", err: scheduler.ErrBusy, want: http.StatusConflict},
		{name: "undefined fit", result: &model.Projection{Mode: "single", FitError: calculator.ErrUndefinedFit.Error()},
			err: fmt.Errorf("fit 0 observations: %w", calculator.ErrUndefinedFit), want: http.StatusUnprocessableEntity},
		{name: "plan error", err: errors.New("plan keys: bad"), want: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeService{runResult: tt.result, runErr: tt.err}
			rr := do(t, New(svc, nil), http.MethodPost, "/api/v1/projections")
			assert.Equal(t, tt.want, rr.Code)
			assert.Equal(t, scheduler.TriggerAPI, svc.trigger)
		})
	}
}

func TestUndefinedFitOmitsCoefficients(t *testing.T) {
	resp := NewProjectionResponse(&model.Projection{Mode: "single", FitError: "undefined"})
	body, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.NotContains(t, string(body), "slope")
	assert.NotContains(t, string(body), "predicted")
}

func TestMetricsRoute(t *testing.T) {
	reg := metrics.New()
	reg.ObserveProjection(sampleProjection())
	h := New(&fakeService{}, reg.Handler())

	rr := do(t, h, http.MethodGet, "/metrics")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, strings.Contains(rr.Body.String(), "rateprojector_runs_total"))

	rr = do(t, New(&fakeService{}, nil), http.MethodGet, "/metrics")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestMethodNotAllowed(t *testing.T) {
	rr := do(t, New(&fakeService{}, nil), http.MethodDelete, "/api/v1/projections")
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}
