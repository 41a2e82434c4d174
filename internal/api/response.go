package api

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"RateProjector/internal/model"
)

// ProjectionResponse is the JSON view of a projection.
type ProjectionResponse struct {
	Mode       string            `json:"mode"`
	Keys       int               `json:"keys"`
	Status     string            `json:"status"`
	Collected  int               `json:"collected"`
	Skipped    int               `json:"skipped"`
	Slope      *float64          `json:"slope,omitempty"`
	Intercept  *float64          `json:"intercept,omitempty"`
	QueryPoint float64           `json:"query_point"`
	Predicted  *float64          `json:"predicted,omitempty"`
	FitError   string            `json:"fit_error,omitempty"`
	StartedAt  time.Time         `json:"started_at"`
	DurationMS int64             `json:"duration_ms"`
	Attempts   []AttemptResponse `json:"attempts"`
}

type AttemptResponse struct {
	Key     string   `json:"key"`
	Outcome string   `json:"outcome"`
	Reason  string   `json:"reason,omitempty"`
	Detail  string   `json:"detail,omitempty"`
	X       *float64 `json:"x,omitempty"`
	Y       *float64 `json:"y,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// NewProjectionResponse builds the JSON view. Coefficients and the predicted
// value are omitted when the fit is undefined.
func NewProjectionResponse(p *model.Projection) ProjectionResponse {
	resp := ProjectionResponse{
		Mode:       p.Mode,
		Keys:       p.Keys,
		Status:     string(p.Status),
		Collected:  p.Collected(),
		Skipped:    p.Skipped(),
		QueryPoint: p.QueryPoint,
		FitError:   p.FitError,
		StartedAt:  p.StartedAt,
		DurationMS: p.Duration.Milliseconds(),
		Attempts:   make([]AttemptResponse, 0, len(p.Attempts)),
	}
	if p.OK() {
		slope, intercept, predicted := p.Model.Slope, p.Model.Intercept, p.Predicted
		resp.Slope, resp.Intercept, resp.Predicted = &slope, &intercept, &predicted
	}
	for _, a := range p.Attempts {
		ar := AttemptResponse{Key: a.Key, Outcome: string(a.Outcome), Reason: string(a.Reason), Detail: a.Detail}
		if a.Outcome == model.OutcomeSuccess {
			x, y := a.Observation.X, a.Observation.Y
			ar.X, ar.Y = &x, &y
		}
		resp.Attempts = append(resp.Attempts, ar)
	}
	return resp
}

func jsonResp(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[WARN] encode response: %v", err)
	}
}

func jsonErr(w http.ResponseWriter, status int, msg string) {
	jsonResp(w, status, errorResponse{Error: msg})
}
