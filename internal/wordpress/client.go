// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package wordpress is a small client for the WordPress REST API (wp/v2)
// covering what the story pipeline needs: media upload, post creation and
// reading/writing a registered site setting. Requests authenticate with
// Basic auth using an application password.
package wordpress

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// apiPrefix is appended to the site URL to reach the wp/v2 namespace.
const apiPrefix = "/wp-json/wp/v2"

// maxErrorBody caps how much of an error response ends up in messages.
const maxErrorBody = 2000

// Config holds the site location and credentials.
type Config struct {
	BaseURL     string // site root, e.g. https://example.com
	Username    string
	AppPassword string
	Timeout     time.Duration // per request; 0 means 60s
}

// Client talks to one WordPress site. Safe for concurrent use.
type Client struct {
	baseURL  string
	username string
	password string
	http     *http.Client
}

// New creates a client. Missing credentials are not an error here: they
// are reported by each call as a *ConfigurationError, so a misconfigured
// deployment still starts and answers health checks.
func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/") + apiPrefix,
		username: cfg.Username,
		password: cfg.AppPassword,
		http:     &http.Client{Timeout: timeout},
	}
}

// ConfigurationError reports missing credentials.
type ConfigurationError struct {
	Missing []string
}

func (e *ConfigurationError) Error() string {
	return "wordpress: missing credentials: " + strings.Join(e.Missing, ", ")
}

// APIError is returned for any non-2xx response. Op names the failed
// operation ("upload media", "create post", ...).
type APIError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("wordpress %s: status %d: %s", e.Op, e.StatusCode, e.Body)
}

// ErrSettingNotFound is returned by GetSetting when the option is absent
// or empty.
var ErrSettingNotFound = errors.New("wordpress: setting not found")

// authHeader builds the Basic auth header value, failing fast when either
// half of the credential pair is unset.
func (c *Client) authHeader() (string, error) {
	var missing []string
	if c.username == "" {
		missing = append(missing, "username")
	}
	if c.password == "" {
		missing = append(missing, "application password")
	}
	if len(missing) > 0 {
		return "", &ConfigurationError{Missing: missing}
	}
	token := base64.StdEncoding.EncodeToString([]byte(c.username + ":" + c.password))
	return "Basic " + token, nil
}

// do sends an authenticated request and decodes a 2xx JSON response into
// out (which may be nil). Non-2xx responses become *APIError.
func (c *Client) do(ctx context.Context, op, method, path string, body io.Reader, headers map[string]string, out any) error {
	auth, err := c.authHeader()
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("wordpress %s: request: %w", op, err)
	}
	req.Header.Set("Authorization", auth)
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("wordpress %s: http: %w", op, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("wordpress %s: read body: %w", op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{Op: op, StatusCode: resp.StatusCode, Body: truncate(string(respBody), maxErrorBody)}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("wordpress %s: unmarshal: %w", op, err)
	}
	return nil
}

// postJSON is do with a JSON-encoded body.
func (c *Client) postJSON(ctx context.Context, op, path string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("wordpress %s: marshal: %w", op, err)
	}
	return c.do(ctx, op, http.MethodPost, path, bytes.NewReader(payload),
		map[string]string{"Content-Type": "application/json"}, out)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
