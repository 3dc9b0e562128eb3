// Package remote delegates layout to an HTTP service that speaks ELK JSON.
//
// The engine POSTs the projected [layout.Graph] as JSON and expects the same
// graph back with x and y set on its children, which is what an elkjs
// instance wrapped in a small HTTP handler returns. The response's children
// replace the request's children, so a service may drop nodes.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"

	apperrors "github.com/matzehuels/autolayout/pkg/errors"
	"github.com/matzehuels/autolayout/pkg/httputil"
	"github.com/matzehuels/autolayout/pkg/layout"
)

// Name identifies the engine in config, cache keys and the API.
const Name = "remote"

const (
	// DefaultTimeout bounds a single request.
	DefaultTimeout = 30 * time.Second
	// DefaultBackoff is the initial delay between attempts.
	DefaultBackoff = 500 * time.Millisecond

	maxResponseBytes = 32 << 20
	maxErrorBody     = 512
)

// Engine is a layout.Engine that calls a remote service. It is safe for
// concurrent use.
type Engine struct {
	url      string
	client   *http.Client
	attempts int
	backoff  time.Duration
	logger   *log.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithTimeout sets the per-request timeout of the default client.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.client.Timeout = d
		}
	}
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(e *Engine) {
		if c != nil {
			e.client = c
		}
	}
}

// WithAttempts sets how many times a transient failure is tried.
// 1 disables retrying.
func WithAttempts(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.attempts = n
		}
	}
}

// WithBackoff sets the initial delay between attempts.
func WithBackoff(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.backoff = d
		}
	}
}

// WithLogger sets the logger for debug output.
func WithLogger(l *log.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// New creates an engine posting to url, which must be an absolute http or
// https URL.
func New(url string, opts ...Option) (*Engine, error) {
	if err := apperrors.ValidateURL(url); err != nil {
		return nil, err
	}
	e := &Engine{
		url:      url,
		client:   httputil.NewClient(DefaultTimeout),
		attempts: 1,
		backoff:  DefaultBackoff,
		logger:   log.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// URL returns the service endpoint.
func (e *Engine) URL() string { return e.url }

// Layout implements layout.Engine.
//
// Non-2xx responses carry errors.ErrCodeEngineFailed, transport failures
// errors.ErrCodeNetwork and timeouts errors.ErrCodeTimeout. Server errors and
// transport failures are retried up to the configured number of attempts.
func (e *Engine) Layout(ctx context.Context, g *layout.Graph) error {
	body, err := json.Marshal(g)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrCodeInternal, err, "encode graph")
	}

	start := time.Now()
	var result layout.Graph
	err = httputil.Retry(ctx, e.attempts, e.backoff, func() error {
		result = layout.Graph{}
		return e.post(ctx, body, &result)
	})
	if err != nil {
		return classify(err, e.url)
	}

	children := make([]*layout.GraphNode, 0, len(result.Children))
	for _, c := range result.Children {
		if c != nil {
			children = append(children, c)
		}
	}
	g.Children = children

	e.logger.Debug("remote layout",
		"url", e.url,
		"nodes", len(children),
		"duration", time.Since(start))
	return nil
}

func (e *Engine) post(ctx context.Context, body []byte, out *layout.Graph) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return err
		}
		return &httputil.RetryableError{Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return &httputil.RetryableError{Err: fmt.Errorf("read response: %w", err)}
	}
	if err := httputil.CheckStatus(resp.StatusCode, snippet(data)); err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &decodeError{err: err}
	}
	return nil
}

type decodeError struct{ err error }

func (e *decodeError) Error() string { return "decode response: " + e.err.Error() }
func (e *decodeError) Unwrap() error { return e.err }

// classify attaches an error code to a failed call.
func classify(err error, url string) error {
	var (
		statusErr *httputil.StatusError
		decodeErr *decodeError
		netErr    net.Error
	)
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return apperrors.Wrap(apperrors.ErrCodeTimeout, err, "layout service %s", url)
	case errors.As(err, &statusErr), errors.As(err, &decodeErr):
		return apperrors.Wrap(apperrors.ErrCodeEngineFailed, err, "layout service %s", url)
	case errors.As(err, &netErr) && netErr.Timeout():
		return apperrors.Wrap(apperrors.ErrCodeTimeout, err, "layout service %s", url)
	default:
		return apperrors.Wrap(apperrors.ErrCodeNetwork, err, "layout service %s", url)
	}
}

func snippet(b []byte) string {
	if len(b) > maxErrorBody {
		b = b[:maxErrorBody]
	}
	return string(bytes.TrimSpace(b))
}

var _ layout.Engine = (*Engine)(nil)
