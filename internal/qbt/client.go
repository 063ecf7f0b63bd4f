package qbt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"arrmada/pkg/logging"
)

const subsystem = "QBittorrent"

// ErrBadCredentials is returned by Login when the server answered but
// rejected the username/password pair.
var ErrBadCredentials = errors.New("qbittorrent rejected the credentials")

// Client is a session-holding qBittorrent Web API client.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a client for the Web UI at baseURL. The cookie jar holds
// the SID session cookie across calls.
func New(baseURL string, timeout time.Duration) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Jar: jar, Timeout: timeout},
	}, nil
}

// BaseURL returns the Web UI address the client talks to.
func (c *Client) BaseURL() string { return c.baseURL }

// Login opens a session. qBittorrent checks the Referer and Origin
// headers against its own address and answers a bad pair with 200 and a
// non-"Ok." body, so both cases map to ErrBadCredentials.
func (c *Client) Login(ctx context.Context, username, password string) error {
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)

	status, body, err := c.postForm(ctx, "/api/v2/auth/login", form)
	if err != nil {
		return err
	}
	if status == http.StatusForbidden {
		return ErrBadCredentials
	}
	if status != http.StatusOK {
		return fmt.Errorf("login: unexpected status %d", status)
	}
	if strings.TrimSpace(body) != "Ok." {
		return ErrBadCredentials
	}
	logging.Debug(subsystem, "Logged in as %q", username)
	return nil
}

// Authenticate obtains a session and returns the credential pair that
// actually worked. The configured credentials are tried first; when the
// server rejects them, the temporary password qBittorrent prints into
// its container logs on first start is tried with the admin user. The
// caller needs the returned pair because it is what other applications
// must use to reach this instance.
func (c *Client) Authenticate(ctx context.Context, username, password, logs string) (string, string, error) {
	err := c.Login(ctx, username, password)
	if err == nil {
		return username, password, nil
	}
	if !errors.Is(err, ErrBadCredentials) {
		return "", "", err
	}

	temp, ok := TempPasswordFromLogs(logs)
	if !ok {
		return "", "", fmt.Errorf("no session: credentials rejected and no temporary password in logs: %w", err)
	}
	logging.Info(subsystem, "Configured credentials rejected, trying the temporary password from the container logs")
	if err := c.Login(ctx, "admin", temp); err != nil {
		return "", "", fmt.Errorf("no session: temporary password rejected too: %w", err)
	}
	return "admin", temp, nil
}

// SetPreferences applies a partial preferences update. The endpoint
// takes the JSON document form-encoded under a single "json" key.
func (c *Client) SetPreferences(ctx context.Context, prefs map[string]interface{}) error {
	doc, err := json.Marshal(prefs)
	if err != nil {
		return fmt.Errorf("encode preferences: %w", err)
	}
	form := url.Values{}
	form.Set("json", string(doc))

	status, body, err := c.postForm(ctx, "/api/v2/app/setPreferences", form)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("setPreferences: status %d: %s", status, strings.TrimSpace(body))
	}
	return nil
}

// EnsurePaths points completed downloads at save_path and in-flight
// downloads at the incomplete directory.
func (c *Client) EnsurePaths(ctx context.Context, completed, incomplete string) error {
	return c.SetPreferences(ctx, map[string]interface{}{
		"save_path":         completed,
		"temp_path_enabled": true,
		"temp_path":         incomplete,
		"use_temp_path":     true,
	})
}

// SetCredentials replaces the Web UI login with a known pair. The
// current session stays valid afterwards.
func (c *Client) SetCredentials(ctx context.Context, username, password string) error {
	if err := c.SetPreferences(ctx, map[string]interface{}{
		"web_ui_username": username,
		"web_ui_password": password,
	}); err != nil {
		return err
	}
	logging.Info(subsystem, "Web UI credentials set for %q", username)
	return nil
}

func (c *Client) postForm(ctx context.Context, path string, form url.Values) (int, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return 0, "", fmt.Errorf("build request for %s: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Referer", c.baseURL)
	req.Header.Set("Origin", c.baseURL)

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, "", fmt.Errorf("POST %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return 0, "", fmt.Errorf("read response of %s: %w", path, err)
	}
	return resp.StatusCode, string(body), nil
}
