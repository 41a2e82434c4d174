package projector

import (
	"context"
	"fmt"
	"log"
	"time"

	"RateProjector/internal/calculator"
	"RateProjector/internal/model"
)

// Collector is the fetch stage.
type Collector interface {
	Collect(ctx context.Context, keys []string) (*model.FetchResult, error)
}

// Observer receives every finished projection.
type Observer interface {
	ObserveProjection(p *model.Projection)
}

// Projector runs fetch then fit, and evaluates the line at QueryPoint.
type Projector struct {
	Collector  Collector
	QueryPoint float64
	Observer   Observer
	now        func() time.Time
}

func New(col Collector, queryPoint float64, obs Observer) *Projector {
	return &Projector{Collector: col, QueryPoint: queryPoint, Observer: obs, now: time.Now}
}

// Project fetches the keys and fits whatever was collected. The returned
// projection is non-nil whenever the keys were valid; err wraps
// calculator.ErrUndefinedFit when too little usable data came back.
func (p *Projector) Project(ctx context.Context, mode string, keys []string) (*model.Projection, error) {
	now := p.now
	if now == nil {
		now = time.Now
	}
	started := now()

	res, err := p.Collector.Collect(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("collect: %w", err)
	}

	proj := &model.Projection{
		Mode:         mode,
		Keys:         len(keys),
		Status:       res.Status,
		Observations: res.Observations,
		Attempts:     res.Attempts,
		QueryPoint:   p.QueryPoint,
		StartedAt:    started,
	}

	m, predicted, fitErr := calculator.ProjectLinear(res.Observations, p.QueryPoint)
	proj.Duration = now().Sub(started)
	if fitErr != nil {
		proj.FitError = fitErr.Error()
	} else {
		proj.Model = m
		proj.Predicted = predicted
	}

	if p.Observer != nil {
		p.Observer.ObserveProjection(proj)
	}

	if fitErr != nil {
		log.Printf("[WARN] projection: collected=%d skipped=%d status=%s fit failed: %v",
			proj.Collected(), proj.Skipped(), proj.Status, fitErr)
		return proj, fmt.Errorf("fit %d observations: %w", proj.Collected(), fitErr)
	}
	log.Printf("[INFO] projection: collected=%d skipped=%d status=%s slope=%.6f intercept=%.6f predicted=%.6f",
		proj.Collected(), proj.Skipped(), proj.Status, m.Slope, m.Intercept, predicted)
	return proj, nil
}
