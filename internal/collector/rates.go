package collector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"RateProjector/internal/model"
)

// DefaultBaseURL is the historical rates endpoint used when none is configured.
const DefaultBaseURL = "https://api.fixer.io"

var (
	ErrEmptyPayload = errors.New("empty payload")
	ErrMissingRate  = errors.New("rate missing from payload")
)

// RatesRequestBuilder builds {BaseURL}/{date}?symbols=X,Y URLs.
type RatesRequestBuilder struct {
	BaseURL string
	APIKey  string
	XSymbol string
	YSymbol string
}

func (b *RatesRequestBuilder) BuildURL(key string) (string, error) {
	if key == "" {
		return "", errors.New("empty query key")
	}
	base := b.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	u, err := url.Parse(strings.TrimRight(base, "/") + "/" + url.PathEscape(key))
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}
	q := u.Query()
	q.Set("symbols", b.XSymbol+","+b.YSymbol)
	if b.APIKey != "" {
		q.Set("access_key", b.APIKey)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// HTTPTransport implements Transport over net/http.
type HTTPTransport struct {
	Client *http.Client
}

// NewHTTPTransport creates a transport with optional proxy support. The
// per-request deadline comes from the context; timeout is a backstop.
func NewHTTPTransport(proxyURL string, timeout time.Duration) *HTTPTransport {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &HTTPTransport{
		Client: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
	}
}

func (t *HTTPTransport) Fetch(ctx context.Context, rawURL string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "RateProjector/1.0")

	resp, err := t.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rates fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("rates read body: %w", err)
	}
	return &Response{StatusCode: resp.StatusCode, Body: body}, nil
}

// ratesPayload is the response shape of the historical rates API.
type ratesPayload struct {
	Base  string              `json:"base"`
	Date  string              `json:"date"`
	Rates map[string]*float64 `json:"rates"`
}

// RatesDecoder extracts XSymbol and YSymbol from a rates payload.
type RatesDecoder struct {
	XSymbol string
	YSymbol string
}

func (d *RatesDecoder) Decode(body []byte) (model.Observation, error) {
	var p *ratesPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return model.Observation{}, fmt.Errorf("rates decode: %w", err)
	}
	if p == nil || p.Rates == nil {
		return model.Observation{}, ErrEmptyPayload
	}
	x, err := p.rate(d.XSymbol)
	if err != nil {
		return model.Observation{}, err
	}
	y, err := p.rate(d.YSymbol)
	if err != nil {
		return model.Observation{}, err
	}
	return model.Observation{Date: p.Date, X: x, Y: y}, nil
}

// rate treats an absent symbol and "SYM": null alike.
func (p *ratesPayload) rate(symbol string) (float64, error) {
	v := p.Rates[symbol]
	if v == nil {
		return 0, fmt.Errorf("%w: %s", ErrMissingRate, symbol)
	}
	return *v, nil
}
