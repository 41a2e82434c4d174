package recorder

import (
	"time"

	"RateProjector/internal/model"
)

// RunRecord is the summary of one projection run. Individual observations
// are not part of it.
type RunRecord struct {
	ID         int64     `json:"id"`
	Timestamp  time.Time `json:"timestamp"`
	Trigger    string    `json:"trigger"` // "CRON", "COMMAND", "API", "CLI"
	Mode       string    `json:"mode"`
	Keys       int       `json:"keys"`
	Collected  int       `json:"collected"`
	Skipped    int       `json:"skipped"`
	Status     string    `json:"status"`
	Slope      float64   `json:"slope"`
	Intercept  float64   `json:"intercept"`
	QueryPoint float64   `json:"query_point"`
	Predicted  float64   `json:"predicted"`
	FitError   string    `json:"fit_error,omitempty"`
	DurationMS int64     `json:"duration_ms"`
}

// NewRunRecord summarises a projection.
func NewRunRecord(trigger string, p *model.Projection) *RunRecord {
	rec := &RunRecord{
		Timestamp:  p.StartedAt,
		Trigger:    trigger,
		Mode:       p.Mode,
		Keys:       p.Keys,
		Collected:  p.Collected(),
		Skipped:    p.Skipped(),
		Status:     string(p.Status),
		QueryPoint: p.QueryPoint,
		FitError:   p.FitError,
		DurationMS: p.Duration.Milliseconds(),
	}
	if p.Model != nil {
		rec.Slope = p.Model.Slope
		rec.Intercept = p.Model.Intercept
		rec.Predicted = p.Predicted
	}
	return rec
}

// Recorder persists run history.
type Recorder interface {
	RecordRun(rec *RunRecord) error
	RecentRuns(limit int) ([]RunRecord, error)
	Close() error
}
