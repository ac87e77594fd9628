// Package client builds the HTTP clients resource modules served over HTTP
// are read with.
package client

import (
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	defaultHTTPTimeoutSeconds     = 30
	defaultHTTPIdleTimeoutSeconds = 90
)

// HTTPOption configures HTTP client behavior.
type HTTPOption func(*httpConfig)

type httpConfig struct {
	timeout     time.Duration
	transport   http.RoundTripper
	idleTimeout time.Duration

	traceRequests       bool
	traceRequestHeaders bool
}

// WithHTTPTimeout sets the request timeout.
func WithHTTPTimeout(timeout time.Duration) HTTPOption {
	return func(c *httpConfig) {
		c.timeout = timeout
	}
}

// WithHTTPTransport sets the HTTP transport. It replaces the traced default.
func WithHTTPTransport(transport http.RoundTripper) HTTPOption {
	return func(c *httpConfig) {
		c.transport = transport
	}
}

// WithHTTPIdleTimeout sets the idle timeout of *http.Transport transports.
func WithHTTPIdleTimeout(timeout time.Duration) HTTPOption {
	return func(c *httpConfig) {
		c.idleTimeout = timeout
	}
}

// WithHTTPTraceRequests logs every resource fetch.
func WithHTTPTraceRequests() HTTPOption {
	return func(c *httpConfig) {
		c.traceRequests = true
	}
}

// WithHTTPTraceRequestHeaders adds headers to the logged fetches.
func WithHTTPTraceRequestHeaders() HTTPOption {
	return func(c *httpConfig) {
		c.traceRequestHeaders = true
	}
}

func (c *httpConfig) process(opts ...HTTPOption) {
	for _, opt := range opts {
		opt(c)
	}
}

// NewHTTPClient creates a new HTTP client with the provided options.
// If no transport is specified, it defaults to otelhttp.NewTransport(http.DefaultTransport).
func NewHTTPClient(opts ...HTTPOption) *http.Client {
	cfg := &httpConfig{
		timeout:     time.Duration(defaultHTTPTimeoutSeconds) * time.Second,
		idleTimeout: time.Duration(defaultHTTPIdleTimeoutSeconds) * time.Second,
	}
	cfg.process(opts...)

	if cfg.transport == nil {
		base := http.DefaultTransport.(*http.Transport).Clone()
		if cfg.idleTimeout > 0 {
			base.IdleConnTimeout = cfg.idleTimeout
		}
		cfg.transport = otelhttp.NewTransport(base)
	} else if t, ok := cfg.transport.(*http.Transport); ok && cfg.idleTimeout > 0 {
		t.IdleConnTimeout = cfg.idleTimeout
	}

	if cfg.traceRequests {
		cfg.transport = NewLoggingTransport(cfg.transport, WithTransportLogHeaders(cfg.traceRequestHeaders))
	}

	return &http.Client{
		Transport: cfg.transport,
		Timeout:   cfg.timeout,
	}
}
