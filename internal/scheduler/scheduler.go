package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/robfig/cron/v3"

	"RateProjector/internal/collector"
	"RateProjector/internal/model"
	"RateProjector/internal/notifier"
	"RateProjector/internal/projector"
	"RateProjector/internal/recorder"
)

// Run triggers.
const (
	TriggerCron    = "CRON"
	TriggerCommand = "COMMAND"
	TriggerAPI     = "API"
	TriggerCLI     = "CLI"
)

// ErrBusy is returned when a run is requested while another is in progress.
var ErrBusy = errors.New("a projection run is already in progress")

// Notifier delivers reports.
type Notifier interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// Scheduler owns the projection schedule and guarantees one run at a time.
type Scheduler struct {
	Cron      *cron.Cron
	Projector *projector.Projector
	Recorder  recorder.Recorder
	Notifier  Notifier // nil disables notifications
	Ctx       context.Context
	XSymbol   string
	YSymbol   string

	running sync.Mutex

	mu     sync.Mutex
	plan   collector.Plan
	point  float64
	latest *model.Projection
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, proj *projector.Projector, plan collector.Plan, rec recorder.Recorder, n Notifier, xSymbol, ySymbol string) *Scheduler {
	logger := cron.PrintfLogger(log.Default())
	return &Scheduler{
		Cron:      cron.New(cron.WithSeconds(), cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger))),
		Projector: proj,
		Recorder:  rec,
		Notifier:  n,
		Ctx:       ctx,
		XSymbol:   xSymbol,
		YSymbol:   ySymbol,
		plan:      plan,
		point:     proj.QueryPoint,
	}
}

// Register schedules the projection job.
func (s *Scheduler) Register(spec string) error {
	if _, err := s.Cron.AddFunc(spec, s.cronTask); err != nil {
		return fmt.Errorf("register projection task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Println("[INFO] scheduler stopped")
}

// SetQuery swaps the plan and query point used by subsequent runs.
func (s *Scheduler) SetQuery(plan collector.Plan, point float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.plan = plan
	s.point = point
	log.Printf("[INFO] query updated: mode=%s year=%d point=%.4f", plan.Mode, plan.Year, point)
}

// Latest returns the most recent projection, or nil.
func (s *Scheduler) Latest() *model.Projection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest
}

// History returns recorded run summaries, newest first.
func (s *Scheduler) History(limit int) ([]recorder.RunRecord, error) {
	return s.Recorder.RecentRuns(limit)
}

// Run executes one projection. It returns ErrBusy without waiting when
// another run holds the lock. A projection with an undefined fit is still
// returned together with the error.
func (s *Scheduler) Run(ctx context.Context, trigger string) (*model.Projection, error) {
	if !s.running.TryLock() {
		return nil, ErrBusy
	}
	defer s.running.Unlock()

	s.mu.Lock()
	plan, point := s.plan, s.point
	s.mu.Unlock()

	keys, err := plan.Keys()
	if err != nil {
		return nil, fmt.Errorf("plan keys: %w", err)
	}

	p := *s.Projector
	p.QueryPoint = point
	log.Printf("[INFO] running projection: trigger=%s mode=%s keys=%d", trigger, plan.Mode, len(keys))
	proj, runErr := p.Project(ctx, plan.Mode, keys)
	if proj == nil {
		return nil, runErr
	}

	s.mu.Lock()
	s.latest = proj
	s.mu.Unlock()

	if err := s.Recorder.RecordRun(recorder.NewRunRecord(trigger, proj)); err != nil {
		log.Printf("[ERROR] record run: %v", err)
	}
	return proj, runErr
}

func (s *Scheduler) cronTask() {
	proj, err := s.Run(s.Ctx, TriggerCron)
	if errors.Is(err, ErrBusy) {
		log.Println("[WARN] scheduled projection skipped: previous run still in progress")
		return
	}
	if proj == nil {
		log.Printf("[ERROR] scheduled projection: %v", err)
		s.trySend(fmt.Sprintf("❌ Projection failed: %v", err))
		return
	}
	s.trySend(notifier.FormatProjection(proj, s.XSymbol, s.YSymbol))
}

// RunNow executes the scheduled task immediately (RUN_ON_START).
func (s *Scheduler) RunNow() {
	s.cronTask()
}

// HandleCommand processes a bot command and returns the reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	switch command {
	case "/predict":
		proj, err := s.Run(ctx, TriggerCommand)
		if errors.Is(err, ErrBusy) {
			return "⏳ A projection is already running, try again shortly."
		}
		if proj == nil {
			return fmt.Sprintf("❌ Projection failed: %v", err)
		}
		return notifier.FormatProjection(proj, s.XSymbol, s.YSymbol)
	case "/latest":
		proj := s.Latest()
		if proj == nil {
			return "No projection has run yet. Send /predict."
		}
		return notifier.FormatProjection(proj, s.XSymbol, s.YSymbol)
	case "/history":
		runs, err := s.History(10)
		if err != nil {
			return fmt.Sprintf("❌ Could not load history: %v", err)
		}
		return notifier.FormatHistory(runs)
	default:
		return notifier.HelpText
	}
}

func (s *Scheduler) trySend(text string) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		log.Printf("[ERROR] send notification: %v", err)
	}
}
