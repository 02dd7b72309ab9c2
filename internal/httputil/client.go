// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides the HTTP plumbing shared by the registry clients:
// a JSON GET helper with typed status errors and an optional token-bucket
// limiter per service.
package httputil

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// maxBodyBytes bounds how much of a response body is decoded.
const maxBodyBytes = 10 << 20

// maxErrorBody bounds how much of a non-200 body is kept on a StatusError.
const maxErrorBody = 512

// Doer is the subset of *http.Client used by Client.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// StatusError reports a non-200 response from an upstream service.
type StatusError struct {
	Service    string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s API returned HTTP %d", e.Service, e.StatusCode)
	}
	return fmt.Sprintf("%s API returned HTTP %d: %s", e.Service, e.StatusCode, e.Body)
}

// Client issues GET requests against one upstream service. A zero Limiter
// never waits.
type Client struct {
	// Service names the upstream in errors and logs (e.g. "OpenAlex").
	Service string

	HTTP      Doer
	UserAgent string
	Limiter   *Limiter

	user, password string
}

// NewClient returns a Client for service. perSecond <= 0 disables rate
// limiting.
func NewClient(service string, doer Doer, userAgent string, perSecond float64) *Client {
	if doer == nil {
		doer = http.DefaultClient
	}
	return &Client{
		Service:   service,
		HTTP:      doer,
		UserAgent: userAgent,
		Limiter:   NewLimiter(perSecond),
	}
}

// SetBasicAuth makes every request carry HTTP basic credentials.
func (c *Client) SetBasicAuth(user, password string) {
	c.user, c.password = user, password
}

// GetJSON fetches rawURL and decodes a 200 JSON body into v. Extra headers
// are added to the request.
func (c *Client) GetJSON(ctx context.Context, rawURL string, header http.Header, v any) error {
	if err := c.Limiter.Wait(ctx); err != nil {
		return fmt.Errorf("waiting for %s rate limiter: %w", c.Service, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("creating %s request: %w", c.Service, err)
	}
	req.Header.Set("Accept", "application/json")
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	if c.user != "" {
		req.SetBasicAuth(c.user, c.password)
	}
	for k, vals := range header {
		req.Header.Del(k)
		for _, val := range vals {
			req.Header.Add(k, val)
		}
	}

	return DecodeJSON(c.HTTP, req, c.Service, v)
}

// DecodeJSON executes req and decodes a 200 JSON body into v. Any other
// status yields a *StatusError carrying a prefix of the body.
func DecodeJSON(doer Doer, req *http.Request, service string, v any) error {
	resp, err := doer.Do(req)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", service, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{
			Service:    service,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
		}
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(v); err != nil {
		return fmt.Errorf("parsing %s response: %w", service, err)
	}
	return nil
}
