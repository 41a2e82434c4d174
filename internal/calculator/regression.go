package calculator

import (
	"errors"
	"fmt"
	"math"

	"RateProjector/internal/model"
)

// ErrUndefinedFit is returned when a line cannot be fitted or evaluated:
// fewer than two observations, all x-values identical, or a result that is
// not a finite number.
var ErrUndefinedFit = errors.New("undefined fit: need at least 2 observations with distinct x values")

// FitLinear computes the ordinary least-squares line through the observations.
//
//	slope     = (N*sumXY - sumX*sumY) / (N*sumXX - sumX*sumX)
//	intercept = (sumY - slope*sumX) / N
func FitLinear(obs []model.Observation) (*model.LinearModel, error) {
	if len(obs) < 2 {
		return nil, ErrUndefinedFit
	}

	distinct := false
	var sumX, sumY, sumXY, sumXX float64
	for _, o := range obs {
		if o.X != obs[0].X {
			distinct = true
		}
		sumX += o.X
		sumY += o.Y
		sumXY += o.X * o.Y
		sumXX += o.X * o.X
	}
	if !distinct {
		return nil, ErrUndefinedFit
	}

	n := float64(len(obs))
	denominator := n*sumXX - sumX*sumX
	if denominator == 0 || !isFinite(denominator) {
		return nil, ErrUndefinedFit
	}

	slope := (n*sumXY - sumX*sumY) / denominator
	intercept := (sumY - slope*sumX) / n
	if !isFinite(slope) || !isFinite(intercept) {
		return nil, ErrUndefinedFit
	}

	return &model.LinearModel{Slope: slope, Intercept: intercept, N: len(obs)}, nil
}

// Predict evaluates the fitted line at x.
func Predict(m *model.LinearModel, x float64) float64 {
	return m.Intercept + m.Slope*x
}

// ProjectLinear fits the observations and evaluates the line at x. A
// prediction that is not finite is reported as ErrUndefinedFit.
func ProjectLinear(obs []model.Observation, x float64) (*model.LinearModel, float64, error) {
	m, err := FitLinear(obs)
	if err != nil {
		return nil, 0, err
	}
	predicted := Predict(m, x)
	if !isFinite(predicted) {
		return nil, 0, fmt.Errorf("%w: prediction at x=%g is %g", ErrUndefinedFit, x, predicted)
	}
	return m, predicted, nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
