package collector

import (
	"context"

	"RateProjector/internal/model"
)

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Body       []byte
}

// RequestBuilder turns a query key into a fetchable URL.
type RequestBuilder interface {
	BuildURL(key string) (string, error)
}

// Transport issues a single GET. Implementations must honour ctx cancellation.
type Transport interface {
	Fetch(ctx context.Context, rawURL string) (*Response, error)
}

// Decoder extracts one observation from a response body.
type Decoder interface {
	Decode(body []byte) (model.Observation, error)
}

// Probe reports network reachability.
type Probe interface {
	Online(ctx context.Context) bool
}

// ProbeFunc adapts a function to Probe.
type ProbeFunc func(ctx context.Context) bool

func (f ProbeFunc) Online(ctx context.Context) bool { return f(ctx) }

// AlwaysOnline is a Probe that never reports offline.
var AlwaysOnline Probe = ProbeFunc(func(context.Context) bool { return true })
