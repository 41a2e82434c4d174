package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"
)

// MockTransport serves deterministic rates payloads for development and demos.
// The X rate drifts up through the year and Y follows it linearly with a
// small day-of-month wobble.
type MockTransport struct {
	Base    string
	XSymbol string
	YSymbol string
}

func (m *MockTransport) Fetch(ctx context.Context, rawURL string) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	day, err := time.Parse("2006-01-02", path.Base(u.Path))
	if err != nil {
		return &Response{StatusCode: 404, Body: []byte(`{"error":"unknown date"}`)}, nil
	}

	x := 1.05 + 0.005*float64(day.Month()) + 0.0002*float64(day.Day())
	y := 0.4 + 2.6*x + 0.001*float64(day.Day()%3)

	rates := map[string]*float64{}
	for _, sym := range strings.Split(u.Query().Get("symbols"), ",") {
		switch sym {
		case m.XSymbol:
			rates[sym] = &x
		case m.YSymbol:
			rates[sym] = &y
		}
	}
	base := m.Base
	if base == "" {
		base = "EUR"
	}
	body, err := json.Marshal(ratesPayload{Base: base, Date: day.Format("2006-01-02"), Rates: rates})
	if err != nil {
		return nil, fmt.Errorf("mock encode: %w", err)
	}
	return &Response{StatusCode: 200, Body: body}, nil
}
