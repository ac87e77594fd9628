package client

import (
	"net/http"
	"strings"
	"time"

	"github.com/pitabwire/util"
)

// LoggingTransportOption configures the logging HTTP transport.
type LoggingTransportOption func(*loggingTransport)

// loggingTransport logs resource fetches at debug level. Bodies are never
// logged, resources may be large binaries.
type loggingTransport struct {
	transport  http.RoundTripper
	logHeaders bool
}

// NewLoggingTransport wraps transport, http.DefaultTransport when nil.
func NewLoggingTransport(transport http.RoundTripper, opts ...LoggingTransportOption) http.RoundTripper {
	if transport == nil {
		transport = http.DefaultTransport
	}

	t := &loggingTransport{transport: transport}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// WithTransportLogHeaders enables or disables header logging.
// Note: Be careful when enabling this as headers may contain sensitive information.
func WithTransportLogHeaders(enabled bool) LoggingTransportOption {
	return func(t *loggingTransport) {
		t.logHeaders = enabled
	}
}

// RoundTrip implements http.RoundTripper.
func (t *loggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()

	resp, err := t.transport.RoundTrip(req)

	logger := util.Log(req.Context()).WithFields(map[string]any{
		"method":   req.Method,
		"url":      req.URL.String(),
		"duration": time.Since(start).String(),
	})
	if t.logHeaders {
		logger = logger.WithField("headers", flatten(req.Header))
	}

	if err != nil {
		logger.WithError(err).Debug("resource fetch failed")
		return resp, err
	}

	logger = logger.WithFields(map[string]any{
		"status": resp.StatusCode,
		"length": resp.ContentLength,
	})
	if t.logHeaders {
		logger = logger.WithField("responseHeaders", flatten(resp.Header))
	}
	logger.Debug("resource fetched")
	return resp, nil
}

func flatten(headers http.Header) map[string]string {
	out := make(map[string]string, len(headers))
	for name, values := range headers {
		if len(values) > 0 {
			out[name] = strings.Join(values, " , ")
		}
	}
	return out
}

// WrapClient wraps an existing HTTP client with logging transport.
func WrapClient(client *http.Client, opts ...LoggingTransportOption) *http.Client {
	if client == nil {
		client = http.DefaultClient
	}

	newClient := *client
	newClient.Transport = NewLoggingTransport(client.Transport, opts...)
	return &newClient
}
