package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"RateProjector/internal/model"
	"RateProjector/internal/recorder"
	"RateProjector/internal/scheduler"
)

// Service is the part of the scheduler the API drives.
type Service interface {
	Run(ctx context.Context, trigger string) (*model.Projection, error)
	Latest() *model.Projection
	History(limit int) ([]recorder.RunRecord, error)
}

// Handler serves the projection API.
type Handler struct {
	svc     Service
	metrics http.Handler
	router  *mux.Router
}

// New creates a Handler and registers all routes. metrics may be nil.
func New(svc Service, metrics http.Handler) *Handler {
	h := &Handler{svc: svc, metrics: metrics, router: mux.NewRouter()}

	h.router.HandleFunc("/healthz", h.health).Methods(http.MethodGet)
	if metrics != nil {
		h.router.Handle("/metrics", metrics).Methods(http.MethodGet)
	}
	h.router.HandleFunc("/api/v1/projections/latest", h.latest).Methods(http.MethodGet)
	h.router.HandleFunc("/api/v1/projections", h.history).Methods(http.MethodGet)
	h.router.HandleFunc("/api/v1/projections", h.trigger).Methods(http.MethodPost)

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	jsonResp(w, http.StatusOK, map[string]string{"status": "ok"})
}

// latest returns GET /api/v1/projections/latest.
func (h *Handler) latest(w http.ResponseWriter, r *http.Request) {
	p := h.svc.Latest()
	if p == nil {
		jsonErr(w, http.StatusNotFound, "no projection has run yet")
		return
	}
	jsonResp(w, http.StatusOK, NewProjectionResponse(p))
}

// history returns GET /api/v1/projections?limit=N.
func (h *Handler) history(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			jsonErr(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}
	runs, err := h.svc.History(limit)
	if err != nil {
		jsonErr(w, http.StatusInternalServerError, err.Error())
		return
	}
	if runs == nil {
		runs = []recorder.RunRecord{}
	}
	jsonResp(w, http.StatusOK, runs)
}

// trigger runs a projection synchronously. An undefined fit still returns
// the projection, with 422.
func (h *Handler) trigger(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.Run(r.Context(), scheduler.TriggerAPI)
	switch {
	case errors.Is(err, scheduler.ErrBusy):
		jsonErr(w, http.StatusConflict, err.Error())
	case p == nil:
		jsonErr(w, http.StatusInternalServerError, err.Error())
	case err != nil:
		jsonResp(w, http.StatusUnprocessableEntity, NewProjectionResponse(p))
	default:
		jsonResp(w, http.StatusOK, NewProjectionResponse(p))
	}
}
