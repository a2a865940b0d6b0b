package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	xerrors "rtx-client/internal/pkg/errors"
	"rtx-client/internal/pkg/session"

	"github.com/google/uuid"
)

// Options control a single API request.
type Options struct {
	Method       string
	Body         interface{}
	RequiresAuth bool
	Headers      map[string]string
}

// Client wraps outbound calls to the reservation API. It attaches bearer
// credentials from the session slot (falling back to the configured dev
// token) and normalizes error responses. It never retries; callers own
// retry policy.
type Client struct {
	baseURL  string
	devToken string
	sessions *session.Manager
	http     *http.Client
}

// New creates an API client against baseURL.
func New(baseURL, devToken string, sessions *session.Manager, timeout time.Duration) *Client {
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		devToken: devToken,
		sessions: sessions,
		http:     &http.Client{Timeout: timeout},
	}
}

// Request performs one API call. Absolute URLs are used as-is; relative
// paths are prefixed with the configured base URL. When out is non-nil the
// JSON response body is decoded into it; a non-JSON body is delivered as raw
// text when out is a *string. A 204 resolves with no content.
func (c *Client) Request(ctx context.Context, path string, opts Options, out interface{}) error {
	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}

	url := path
	if !strings.HasPrefix(path, "http") {
		url = c.baseURL + path
	}

	var reqBody io.Reader
	if opts.Body != nil {
		data, err := json.Marshal(opts.Body)
		if err != nil {
			return fmt.Errorf("api: encode body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return fmt.Errorf("api: build request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-Id", uuid.NewString())
	for k, v := range opts.Headers {
		req.Header.Set(k, v)
	}

	if opts.RequiresAuth {
		if token := c.sessions.Token(c.devToken); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("api: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("api: read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Best effort: a non-JSON error body just yields the generic message.
		var body map[string]interface{}
		_ = json.Unmarshal(data, &body)
		return xerrors.NewAPIError(resp.StatusCode, body)
	}

	if out == nil {
		return nil
	}

	if strings.Contains(resp.Header.Get("Content-Type"), "application/json") {
		if len(data) == 0 {
			return nil
		}
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("api: decode response: %w", err)
		}
		return nil
	}

	if s, ok := out.(*string); ok {
		*s = string(data)
		return nil
	}
	return fmt.Errorf("api: unexpected content type %q", resp.Header.Get("Content-Type"))
}
