package collector

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"RateProjector/internal/model"
)

func TestRatesRequestBuilder_BuildURL(t *testing.T) {
	b := &RatesRequestBuilder{XSymbol: "USD", YSymbol: "TRY"}
	u, err := b.BuildURL("2016-03-15")
	require.NoError(t, err)
	assert.Equal(t, "https://api.fixer.io/2016-03-15?symbols=USD%2CTRY", u)

	b = &RatesRequestBuilder{BaseURL: "http://localhost:8080/v1/", APIKey: "secret", XSymbol: "USD", YSymbol: "GBP"}
	u, err = b.BuildURL("2016-03-15")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/v1/2016-03-15?access_key=secret&symbols=USD%2CGBP", u)

	_, err = b.BuildURL("")
	assert.Error(t, err)
}

func TestRatesDecoder_Decode(t *testing.T) {
	d := &RatesDecoder{XSymbol: "USD", YSymbol: "TRY"}

	obs, err := d.Decode([]byte(`{"base":"EUR","date":"2017-01-13","rates":{"TRY":4.0387,"USD":1.0661}}`))
	require.NoError(t, err)
	assert.Equal(t, model.Observation{Date: "2017-01-13", X: 1.0661, Y: 4.0387}, obs)

	tests := []struct {
		name string
		body string
		want error
	}{
		{"null", `null`, ErrEmptyPayload},
		{"no rates", `{"base":"EUR","date":"2017-01-13"}`, ErrEmptyPayload},
		{"missing y", `{"base":"EUR","rates":{"USD":1.0661}}`, ErrMissingRate},
		{"missing x", `{"base":"EUR","rates":{"TRY":4.0387}}`, ErrMissingRate},
		{"null x", `{"base":"EUR","rates":{"USD":null,"TRY":3.2}}`, ErrMissingRate},
		{"null y", `{"base":"EUR","rates":{"USD":1.0661,"TRY":null}}`, ErrMissingRate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := d.Decode([]byte(tt.body))
			assert.ErrorIs(t, err, tt.want)
		})
	}

	_, err = d.Decode([]byte(`<html>rate limited</html>`))
	assert.Error(t, err)
}

func TestHTTPTransport_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		if strings.HasSuffix(r.URL.Path, "/2016-02-15") {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":"rate limited"}`))
			return
		}
		_, _ = w.Write([]byte(`{"base":"EUR","date":"` + strings.TrimPrefix(r.URL.Path, "/") + `","rates":{"USD":1.08,"TRY":3.2}}`))
	}))
	defer srv.Close()

	tr := NewHTTPTransport("", 5*time.Second)
	resp, err := tr.Fetch(context.Background(), srv.URL+"/2016-01-15?symbols=USD,TRY")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(resp.Body), `"date":"2016-01-15"`)

	resp, err = tr.Fetch(context.Background(), srv.URL+"/2016-02-15")
	require.NoError(t, err)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
}

func TestCollect_AgainstHTTPServer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/2016-02-15":
			http.Error(w, "boom", http.StatusBadGateway)
		case "/2016-03-15":
			_, _ = w.Write([]byte(`null`))
		case "/2016-04-15":
			time.Sleep(200 * time.Millisecond)
			_, _ = w.Write([]byte(`{"rates":{"USD":1.1,"TRY":3.3}}`))
		default:
			_, _ = w.Write([]byte(`{"base":"EUR","date":"2016-01-15","rates":{"USD":1.09,"TRY":3.25}}`))
		}
	}))
	defer srv.Close()

	c := NewCollector(
		&RatesRequestBuilder{BaseURL: srv.URL, XSymbol: "USD", YSymbol: "TRY"},
		NewHTTPTransport("", 0),
		&RatesDecoder{XSymbol: "USD", YSymbol: "TRY"},
		nil,
		50*time.Millisecond,
	)
	res, err := c.Collect(context.Background(), []string{"2016-01-15", "2016-02-15", "2016-03-15", "2016-04-15", "2016-05-15"})
	require.NoError(t, err)

	require.Len(t, res.Observations, 2)
	assert.Equal(t, "2016-01-15", res.Observations[0].Key)
	assert.Equal(t, "2016-05-15", res.Observations[1].Key)
	assert.Equal(t, model.SkipStatus, res.Attempts[1].Reason)
	assert.Equal(t, model.SkipDecode, res.Attempts[2].Reason)
	assert.Equal(t, model.SkipTimeout, res.Attempts[3].Reason)
}

func TestMockTransport_Collect(t *testing.T) {
	c := NewCollector(
		&RatesRequestBuilder{BaseURL: "mock://rates", XSymbol: "USD", YSymbol: "TRY"},
		&MockTransport{XSymbol: "USD", YSymbol: "TRY"},
		&RatesDecoder{XSymbol: "USD", YSymbol: "TRY"},
		nil,
		time.Second,
	)
	keys, err := Plan{Mode: ModeSingle, Year: 2016, Day: 15}.Keys()
	require.NoError(t, err)

	res, err := c.Collect(context.Background(), keys)
	require.NoError(t, err)
	require.Len(t, res.Observations, 12)
	assert.Less(t, res.Observations[0].X, res.Observations[11].X)
}
