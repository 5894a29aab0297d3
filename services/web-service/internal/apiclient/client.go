// Package apiclient talks to the grooming REST API on behalf of the signed-in user.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/md-rashed-zaman/groombook/libs/httpx"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const DefaultTimeout = 10 * time.Second

// maxErrorBody caps how much of a failed response is kept on StatusError.
const maxErrorBody = 4 << 10

// TokenSource returns the access token of the session bound to ctx, if any.
type TokenSource func(ctx context.Context) (string, bool)

type Options struct {
	// BaseURL is the API root including the /api prefix.
	BaseURL   string
	Timeout   time.Duration
	Tokens    TokenSource
	Transport http.RoundTripper
}

type Client struct {
	base *url.URL
	http *http.Client
}

// BaseURL turns the configured API_URL into the root every call is made against.
func BaseURL(apiURL string) string {
	return strings.TrimRight(apiURL, "/") + "/api"
}

func New(opts Options) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse api base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("api base url %q must be absolute", opts.BaseURL)
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	next := opts.Transport
	if next == nil {
		next = http.DefaultTransport
	}
	return &Client{
		base: base,
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(&bearerTransport{next: next, tokens: opts.Tokens}),
		},
	}, nil
}

// bearerTransport attaches the session token at dispatch time, so a token
// rotated mid-request is never sent stale.
type bearerTransport struct {
	next   http.RoundTripper
	tokens TokenSource
}

func (t *bearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	if t.tokens != nil {
		if token, ok := t.tokens(req.Context()); ok && token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
	if id := httpx.RequestIDFromContext(req.Context()); id != "" {
		req.Header.Set(httpx.RequestIDHeader, id)
	}
	return t.next.RoundTrip(req)
}

// StatusError is returned for any non-2xx response.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.StatusCode, http.StatusText(e.StatusCode))
}

func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode
	}
	return 0
}

func IsNotFound(err error) bool { return StatusCode(err) == http.StatusNotFound }

// IsUnauthorized reports whether the API refused the token itself.
func IsUnauthorized(err error) bool {
	code := StatusCode(err)
	return code == http.StatusUnauthorized || code == http.StatusForbidden
}

func IsForbidden(err error) bool { return StatusCode(err) == http.StatusForbidden }

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	u := *c.base
	u.Path = c.base.Path + path
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{Method: method, Path: path, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}
