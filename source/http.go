package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/pitabwire/resources/client"
)

// HTTPModule is a module served by an HTTP server: resource name is fetched
// with a GET of <base>/<name>.
type HTTPModule struct {
	name   string
	root   string
	base   *url.URL
	client *http.Client
}

// NewHTTP creates a module reading below baseURL with client, a client of
// its own from client.NewHTTPClient when nil. Missing resources are those
// answered with 403, 404 or 410; static bucket hosts answer 403 for them.
func NewHTTP(name, root, baseURL string, httpClient *http.Client) (*HTTPModule, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("module %s: base url: %w", name, err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("module %s: base url %q is not http(s)", name, baseURL)
	}
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}
	if httpClient == nil {
		httpClient = client.NewHTTPClient()
	}
	return &HTTPModule{name: name, root: strings.TrimSuffix(root, "/"), base: base, client: httpClient}, nil
}

func (m *HTTPModule) Name() string {
	return m.name
}

func (m *HTTPModule) Root() string {
	return m.root
}

func (m *HTTPModule) String() string {
	return "http module " + m.name + " (" + m.base.String() + ")"
}

func (m *HTTPModule) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	target := m.base.JoinPath(strings.TrimPrefix(name, "/"))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("module %s: open %s: %w", m.name, name, err)
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("module %s: open %s: %w", m.name, name, err)
	}
	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone ||
		resp.StatusCode == http.StatusForbidden:
		_ = resp.Body.Close()
		return nil, fmt.Errorf("module %s: open %s: %w", m.name, name, ErrNotExist)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		_ = resp.Body.Close()
		return nil, fmt.Errorf("module %s: open %s: unexpected status %s", m.name, name, resp.Status)
	}
	return resp.Body, nil
}

// Client returns the client resources are fetched with.
func (m *HTTPModule) Client() *http.Client {
	return m.client
}

// Close releases idle connections of the client.
func (m *HTTPModule) Close() error {
	m.client.CloseIdleConnections()
	return nil
}
