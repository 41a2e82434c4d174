package model

import "time"

// LinearModel is a least-squares line y = Intercept + Slope*x fitted to N points.
type LinearModel struct {
	Slope     float64
	Intercept float64
	N         int
}

// Projection is the outcome of one fetch-and-fit run.
type Projection struct {
	Mode         string
	Keys         int
	Status       FetchStatus
	Observations []Observation
	Attempts     []Attempt
	Model        *LinearModel // nil when the fit is undefined
	QueryPoint   float64
	Predicted    float64
	FitError     string
	StartedAt    time.Time
	Duration     time.Duration
}

// Collected returns the number of observations that went into the fit.
func (p *Projection) Collected() int { return len(p.Observations) }

// Skipped returns the number of keys that were skipped.
func (p *Projection) Skipped() int {
	n := 0
	for _, a := range p.Attempts {
		if a.Outcome == OutcomeSkipped {
			n++
		}
	}
	return n
}

// OK reports whether the projection produced a predicted value.
func (p *Projection) OK() bool { return p.Model != nil }
