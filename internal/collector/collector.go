package collector

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"RateProjector/internal/model"
)

// DefaultTimeout bounds each individual request.
const DefaultTimeout = 20 * time.Second

// ErrNoKeys is returned when Collect is called without query keys.
var ErrNoKeys = errors.New("no query keys")

// Collector fetches one observation per query key, sequentially.
type Collector struct {
	Builder   RequestBuilder
	Transport Transport
	Decoder   Decoder
	Probe     Probe
	Timeout   time.Duration
}

// NewCollector creates a Collector. A nil probe means always online.
func NewCollector(builder RequestBuilder, transport Transport, decoder Decoder, probe Probe, timeout time.Duration) *Collector {
	if probe == nil {
		probe = AlwaysOnline
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Collector{
		Builder:   builder,
		Transport: transport,
		Decoder:   decoder,
		Probe:     probe,
		Timeout:   timeout,
	}
}

// Collect walks keys in order. A failing key is skipped; going offline or a
// cancelled ctx stops the walk and returns what was collected so far.
func (c *Collector) Collect(ctx context.Context, keys []string) (*model.FetchResult, error) {
	if len(keys) == 0 {
		return nil, ErrNoKeys
	}

	res := &model.FetchResult{
		Status:       model.FetchStatusComplete,
		Observations: make([]model.Observation, 0, len(keys)),
		Attempts:     make([]model.Attempt, 0, len(keys)),
	}

	for _, key := range keys {
		if ctx.Err() != nil {
			log.Printf("[WARN] fetch cancelled before %s: %v", key, ctx.Err())
			res.Status = model.FetchStatusCancelled
			res.Attempts = append(res.Attempts, model.Attempt{Key: key, Outcome: model.OutcomeCancelled})
			return res, nil
		}
		if !c.Probe.Online(ctx) {
			log.Printf("[WARN] offline before %s, stopping after %d observations", key, len(res.Observations))
			res.Status = model.FetchStatusOffline
			res.Attempts = append(res.Attempts, model.Attempt{Key: key, Outcome: model.OutcomeOffline})
			return res, nil
		}

		att := c.attempt(ctx, key)
		if att.Outcome == model.OutcomeSkipped && ctx.Err() != nil {
			// the caller cancelled mid-request; report it as such, not as a skip
			res.Status = model.FetchStatusCancelled
			res.Attempts = append(res.Attempts, model.Attempt{Key: key, Outcome: model.OutcomeCancelled, Detail: att.Detail})
			return res, nil
		}
		res.Attempts = append(res.Attempts, att)
		if att.Outcome == model.OutcomeSuccess {
			res.Observations = append(res.Observations, att.Observation)
			continue
		}
		log.Printf("[WARN] skip %s (%s): %s", key, att.Reason, att.Detail)
	}
	return res, nil
}

func (c *Collector) attempt(ctx context.Context, key string) model.Attempt {
	skip := func(reason model.SkipReason, err error) model.Attempt {
		return model.Attempt{Key: key, Outcome: model.OutcomeSkipped, Reason: reason, Detail: err.Error()}
	}

	rawURL, err := c.Builder.BuildURL(key)
	if err != nil {
		return skip(model.SkipBuild, err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	resp, err := c.Transport.Fetch(reqCtx, rawURL)
	if err != nil {
		if isTimeout(err) || reqCtx.Err() == context.DeadlineExceeded {
			return skip(model.SkipTimeout, fmt.Errorf("no response within %v: %w", c.Timeout, err))
		}
		return skip(model.SkipTransport, err)
	}
	if resp == nil {
		return skip(model.SkipTransport, errors.New("transport returned no response"))
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return skip(model.SkipStatus, fmt.Errorf("status %d, body: %s", resp.StatusCode, truncate(resp.Body, 200)))
	}

	obs, err := c.Decoder.Decode(resp.Body)
	if err != nil {
		return skip(model.SkipDecode, fmt.Errorf("%s: %w", rawURL, err))
	}
	obs.Key = key
	return model.Attempt{Key: key, Outcome: model.OutcomeSuccess, Observation: obs}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
