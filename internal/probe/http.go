package probe

import (
	"context"
	"net/http"
	"time"

	"arrmada/pkg/logging"
)

const (
	httpPollInterval   = 3 * time.Second
	httpRequestTimeout = 5 * time.Second
)

// HTTPProbe declares a target ready once a GET on URL yields any response
// with a status below 500. Connection errors and 5xx both count as
// not-yet-ready.
type HTTPProbe struct {
	Name string
	URL  string

	client *http.Client
}

// NewHTTPProbe creates an HTTP readiness probe for url.
func NewHTTPProbe(name, url string) *HTTPProbe {
	return &HTTPProbe{
		Name:   name,
		URL:    url,
		client: &http.Client{Timeout: httpRequestTimeout},
	}
}

// Describe implements Prober.
func (p *HTTPProbe) Describe() string {
	return p.Name + " (" + p.URL + ")"
}

// WaitUntilReady implements Prober.
func (p *HTTPProbe) WaitUntilReady(ctx context.Context, timeout time.Duration) bool {
	logging.Info(subsystem, "Waiting for %s to respond (timeout %s)", p.Describe(), timeout)

	ready := pollUntil(ctx, timeout, httpPollInterval, func(ctx context.Context) bool {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.URL, nil)
		if err != nil {
			return false
		}
		resp, err := p.client.Do(req)
		if err != nil {
			logging.Debug(subsystem, "%s still waiting: %v", p.Name, err)
			return false
		}
		resp.Body.Close()
		if resp.StatusCode < 500 {
			logging.Info(subsystem, "%s is up (%d)", p.Name, resp.StatusCode)
			return true
		}
		logging.Debug(subsystem, "%s answered %d, not ready", p.Name, resp.StatusCode)
		return false
	})

	if !ready {
		logging.Warn(subsystem, "%s not ready before timeout", p.Describe())
	}
	return ready
}
