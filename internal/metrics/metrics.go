package metrics

import (
	"io"
	"log"
	"net/http"
	"sort"
	"sync"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"

	"RateProjector/internal/model"
)

const namespace = "rateprojector_"

// Registry accumulates projection run statistics and renders them in the
// Prometheus text exposition format.
type Registry struct {
	mu            sync.Mutex
	runs          map[string]float64 // by fetch status
	attempts      map[string]float64 // by outcome or skip reason
	fitFailures   float64
	lastPredicted float64
	lastDuration  float64
	lastRunUnix   float64
	lastCollected float64
}

func New() *Registry {
	return &Registry{
		runs:     map[string]float64{},
		attempts: map[string]float64{},
	}
}

// ObserveProjection folds one finished run into the registry.
func (r *Registry) ObserveProjection(p *model.Projection) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.runs[string(p.Status)]++
	for _, a := range p.Attempts {
		label := string(a.Outcome)
		if a.Outcome == model.OutcomeSkipped {
			label = "skipped_" + string(a.Reason)
		}
		r.attempts[label]++
	}
	if p.OK() {
		r.lastPredicted = p.Predicted
	} else {
		r.fitFailures++
	}
	r.lastDuration = p.Duration.Seconds()
	r.lastRunUnix = float64(p.StartedAt.Unix())
	r.lastCollected = float64(p.Collected())
}

// Gather snapshots the registry as metric families.
func (r *Registry) Gather() []*dto.MetricFamily {
	r.mu.Lock()
	defer r.mu.Unlock()

	return []*dto.MetricFamily{
		labelled(namespace+"runs_total", "Projection runs by fetch status.", "status", r.runs),
		labelled(namespace+"fetch_attempts_total", "Per-key fetch attempts by outcome.", "outcome", r.attempts),
		counter(namespace+"fit_failures_total", "Runs whose regression fit was undefined.", r.fitFailures),
		gauge(namespace+"last_predicted_value", "Predicted value of the last successful run.", r.lastPredicted),
		gauge(namespace+"last_run_duration_seconds", "Wall-clock duration of the last run.", r.lastDuration),
		gauge(namespace+"last_run_timestamp_seconds", "Start time of the last run.", r.lastRunUnix),
		gauge(namespace+"last_run_observations", "Observations collected by the last run.", r.lastCollected),
	}
}

// WriteText writes all families in text format.
func (r *Registry) WriteText(w io.Writer) error {
	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range r.Gather() {
		if len(mf.Metric) == 0 {
			continue
		}
		if err := enc.Encode(mf); err != nil {
			return err
		}
	}
	return nil
}

// Handler serves the registry for scraping.
func (r *Registry) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", string(expfmt.NewFormat(expfmt.TypeTextPlain)))
		if err := r.WriteText(w); err != nil {
			log.Printf("[ERROR] write metrics: %v", err)
		}
	})
}

func labelled(name, help, label string, values map[string]float64) *dto.MetricFamily {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	mf := &dto.MetricFamily{Name: ptr(name), Help: ptr(help), Type: dto.MetricType_COUNTER.Enum()}
	for _, k := range keys {
		mf.Metric = append(mf.Metric, &dto.Metric{
			Label:   []*dto.LabelPair{{Name: ptr(label), Value: ptr(k)}},
			Counter: &dto.Counter{Value: ptr(values[k])},
		})
	}
	return mf
}

func counter(name, help string, v float64) *dto.MetricFamily {
	return &dto.MetricFamily{
		Name:   ptr(name),
		Help:   ptr(help),
		Type:   dto.MetricType_COUNTER.Enum(),
		Metric: []*dto.Metric{{Counter: &dto.Counter{Value: ptr(v)}}},
	}
}

func gauge(name, help string, v float64) *dto.MetricFamily {
	return &dto.MetricFamily{
		Name:   ptr(name),
		Help:   ptr(help),
		Type:   dto.MetricType_GAUGE.Enum(),
		Metric: []*dto.Metric{{Gauge: &dto.Gauge{Value: ptr(v)}}},
	}
}

func ptr[T any](v T) *T { return &v }
