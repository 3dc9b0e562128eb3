package httputil

import (
	"net/http"
	"time"

	"github.com/matzehuels/autolayout/pkg/observability"
)

// Transport reports every round trip to observability.HTTP().
type Transport struct {
	// Base performs the request; http.DefaultTransport when nil.
	Base http.RoundTripper
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	ctx := req.Context()
	hooks := observability.HTTP()
	method, host, path := req.Method, req.URL.Host, req.URL.Path

	hooks.OnRequest(ctx, method, host, path)
	start := time.Now()
	resp, err := base.RoundTrip(req)
	if err != nil {
		hooks.OnError(ctx, method, host, path, err)
		return nil, err
	}
	hooks.OnResponse(ctx, method, host, path, resp.StatusCode, time.Since(start))
	return resp, nil
}

// NewClient returns a client with the given overall timeout whose transport
// is instrumented. A zero timeout means no client-side limit.
func NewClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: &Transport{},
	}
}
