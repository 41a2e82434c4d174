package scheduler

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"RateProjector/internal/calculator"
	"RateProjector/internal/collector"
	"RateProjector/internal/model"
	"RateProjector/internal/projector"
	"RateProjector/internal/recorder"
)

type fakeNotifier struct {
	mu   sync.Mutex
	sent []string
}

func (f *fakeNotifier) SendWithRetry(_ context.Context, text string, _ int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, text)
	return nil
}

// gatedCollector blocks until release is closed.
type gatedCollector struct {
	entered chan struct{}
	release chan struct{}
}

func (g *gatedCollector) Collect(ctx context.Context, keys []string) (*model.FetchResult, error) {
	close(g.entered)
	<-g.release
	return &model.FetchResult{Status: model.FetchStatusComplete}, nil
}

func mockCollector() *collector.Collector {
	return collector.NewCollector(
		&collector.RatesRequestBuilder{BaseURL: "mock://rates", XSymbol: "USD", YSymbol: "TRY"},
		&collector.MockTransport{XSymbol: "USD", YSymbol: "TRY"},
		&collector.RatesDecoder{XSymbol: "USD", YSymbol: "TRY"},
		nil,
		time.Second,
	)
}

var single2016 = collector.Plan{Mode: collector.ModeSingle, Year: 2016, Day: 15}

func newTestScheduler(t *testing.T, col projector.Collector, n Notifier) (*Scheduler, *recorder.SQLiteRecorder) {
	t.Helper()
	rec, err := recorder.NewSQLiteRecorder(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = rec.Close() })
	s := NewScheduler(context.Background(), projector.New(col, 1.0661, nil), single2016, rec, n, "USD", "TRY")
	return s, rec
}

func TestRun_RecordsAndKeepsLatest(t *testing.T) {
	s, rec := newTestScheduler(t, mockCollector(), nil)

	proj, err := s.Run(context.Background(), TriggerAPI)
	require.NoError(t, err)
	require.True(t, proj.OK())
	assert.Equal(t, 12, proj.Collected())
	assert.Same(t, proj, s.Latest())

	runs, err := rec.RecentRuns(5)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, TriggerAPI, runs[0].Trigger)
	assert.InDelta(t, proj.Predicted, runs[0].Predicted, 1e-12)
}

func TestRun_Busy(t *testing.T) {
	gate := &gatedCollector{entered: make(chan struct{}), release: make(chan struct{})}
	s, _ := newTestScheduler(t, gate, nil)

	done := make(chan error, 1)
	go func() {
		_, err := s.Run(context.Background(), TriggerCron)
		done <- err
	}()
	<-gate.entered

	_, err := s.Run(context.Background(), TriggerAPI)
	assert.ErrorIs(t, err, ErrBusy)
	assert.Contains(t, s.HandleCommand(context.Background(), "/predict"), "already running")

	close(gate.release)
	assert.ErrorIs(t, <-done, calculator.ErrUndefinedFit)
	assert.NotNil(t, s.Latest())
}

func TestSetQuery(t *testing.T) {
	s, _ := newTestScheduler(t, mockCollector(), nil)
	s.SetQuery(collector.Plan{Mode: collector.ModeMulti, Year: 2016, FromDay: 10, ToDay: 12}, 1.1)

	proj, err := s.Run(context.Background(), TriggerCLI)
	require.NoError(t, err)
	assert.Equal(t, 24, proj.Keys)
	assert.Equal(t, 1.1, proj.QueryPoint)
	assert.Equal(t, 1.0661, s.Projector.QueryPoint)
}

func TestCronTask_Notifies(t *testing.T) {
	n := &fakeNotifier{}
	s, _ := newTestScheduler(t, mockCollector(), n)

	s.RunNow()

	require.Len(t, n.sent, 1)
	assert.Contains(t, n.sent[0], "TRY at USD=1.0661")
}

func TestHandleCommand(t *testing.T) {
	n := &fakeNotifier{}
	s, _ := newTestScheduler(t, mockCollector(), n)
	ctx := context.Background()

	assert.Contains(t, s.HandleCommand(ctx, "/latest"), "No projection has run yet")
	assert.Equal(t, "No runs recorded yet.", s.HandleCommand(ctx, "/history"))

	reply := s.HandleCommand(ctx, "/predict")
	assert.Contains(t, reply, "Collected: 12")
	assert.Empty(t, n.sent, "command replies go through the bot, not the notifier")

	assert.Equal(t, reply, s.HandleCommand(ctx, "/latest"))
	assert.True(t, strings.Contains(s.HandleCommand(ctx, "/history"), "single 12/12 complete"))
	assert.Contains(t, s.HandleCommand(ctx, "hello"), "/predict")
}

func TestRegister(t *testing.T) {
	s, _ := newTestScheduler(t, mockCollector(), nil)
	assert.NoError(t, s.Register("0 0 9 * * *"))
	assert.Error(t, s.Register("not a cron"))
	s.Start()
	s.Stop()
}
