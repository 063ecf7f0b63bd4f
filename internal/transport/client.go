package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"arrmada/pkg/logging"
)

const subsystem = "Transport"

// maxBodyDiagnostic caps how much of a response body is kept for error
// reporting.
const maxBodyDiagnostic = 400

// Response is the decoded outcome of a single HTTP exchange.
type Response struct {
	Status int
	Body   []byte
}

// OK reports whether the response carries a 2xx status.
func (r Response) OK() bool {
	return r.Status >= 200 && r.Status < 300
}

// DecodeJSON unmarshals the response body into v.
func (r Response) DecodeJSON(v interface{}) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("decoding response body: %w", err)
	}
	return nil
}

// BodyExcerpt returns the response body truncated for diagnostics.
func (r Response) BodyExcerpt() string {
	return Truncate(string(r.Body), maxBodyDiagnostic)
}

// Truncate shortens s to at most n bytes for log/error payloads.
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// Client wraps http.Client with bounded fixed-delay retry for transport
// level failures. The zero value is not usable; construct with New.
type Client struct {
	httpClient *http.Client
	attempts   int
	delay      time.Duration

	// sleep is a seam for tests.
	sleep func(time.Duration)
}

// New creates a Client that makes up to attempts tries per request,
// sleeping delay between tries.
func New(attempts int, delay time.Duration) *Client {
	if attempts < 1 {
		attempts = 1
	}
	return &Client{
		httpClient: &http.Client{},
		attempts:   attempts,
		delay:      delay,
		sleep:      time.Sleep,
	}
}

// Do performs one HTTP exchange. The body, if any, is replayed on each
// retry; timeout bounds each individual attempt independently of ctx.
// When all attempts fail at the transport level, the last error is
// returned.
func (c *Client) Do(ctx context.Context, method, url string, header http.Header, body []byte, timeout time.Duration) (Response, error) {
	var lastErr error
	for attempt := 1; attempt <= c.attempts; attempt++ {
		resp, err := c.doOnce(ctx, method, url, header, body, timeout)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		// The caller went away; retrying would only mask that.
		if ctx.Err() != nil {
			return Response{}, fmt.Errorf("%s %s: %w", method, url, ctx.Err())
		}
		if attempt < c.attempts {
			logging.Debug(subsystem, "%s %s retry %d/%d after error: %v", method, url, attempt, c.attempts, err)
			c.sleep(c.delay)
		}
	}
	return Response{}, fmt.Errorf("%s %s after %d attempts: %w", method, url, c.attempts, lastErr)
}

func (c *Client) doOnce(ctx context.Context, method, url string, header http.Header, body []byte, timeout time.Duration) (Response, error) {
	attemptCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		attemptCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(attemptCtx, method, url, reader)
	if err != nil {
		return Response{}, err
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// No response was received: connection failure or timeout.
		return Response{}, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		// The status line arrived but the body did not; treat it like
		// a read timeout so the caller sees a transport error.
		return Response{}, fmt.Errorf("reading response body: %w", err)
	}
	return Response{Status: resp.StatusCode, Body: data}, nil
}

// DoJSON marshals payload (if non-nil), sends it with a JSON content type
// and decodes nothing; callers inspect the returned Response.
func (c *Client) DoJSON(ctx context.Context, method, url string, header http.Header, payload interface{}, timeout time.Duration) (Response, error) {
	var body []byte
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		if err != nil {
			return Response{}, fmt.Errorf("encoding request body: %w", err)
		}
	}

	h := http.Header{}
	for k, vs := range header {
		h[k] = vs
	}
	if payload != nil {
		h.Set("Content-Type", "application/json")
	}
	return c.Do(ctx, method, url, h, body, timeout)
}

// IsTransportError reports whether err came from the transport layer (no
// HTTP response was received) rather than from an application response.
func IsTransportError(err error) bool {
	if err == nil {
		return false
	}
	var rr *RemoteRejection
	return !errors.As(err, &rr)
}

// RemoteRejection is a non-2xx application response: the remote answered
// and refused. It is never retried by this package.
type RemoteRejection struct {
	Method string
	URL    string
	Status int
	Body   string
}

// Error implements the error interface.
func (e *RemoteRejection) Error() string {
	return fmt.Sprintf("%s %s rejected with status %d: %s", e.Method, e.URL, e.Status, e.Body)
}

// Reject wraps a response into a RemoteRejection error.
func Reject(method, url string, resp Response) *RemoteRejection {
	return &RemoteRejection{Method: method, URL: url, Status: resp.Status, Body: resp.BodyExcerpt()}
}
