package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Defaults applied by NewClient.
const (
	DefaultTimeout    = 30 * time.Second
	DefaultMaxRetries = 3
	DefaultRetryWait  = time.Second
	DefaultMaxWait    = 30 * time.Second
)

// Config configures a Client.
type Config struct {
	BaseURL string
	Service string

	// HTTPClient defaults to a client with DefaultTimeout.
	HTTPClient *http.Client

	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int
	RetryWait  time.Duration
	MaxWait    time.Duration

	// Authorize is called on every outgoing request.
	Authorize func(*http.Request)
}

// Client performs JSON requests against one API.
type Client struct {
	cfg  Config
	http *http.Client
}

// NewClient creates a client, filling in defaults.
func NewClient(cfg Config) *Client {
	cfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	if cfg.RetryWait <= 0 {
		cfg.RetryWait = DefaultRetryWait
	}
	if cfg.MaxWait <= 0 {
		cfg.MaxWait = DefaultMaxWait
	}

	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: DefaultTimeout}
	}
	return &Client{cfg: cfg, http: hc}
}

// BaseURL returns the API root the client was created with.
func (c *Client) BaseURL() string {
	return c.cfg.BaseURL
}

// Get decodes the response of a GET into out.
func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.Do(ctx, http.MethodGet, path, nil, out)
}

// Post sends body as JSON and decodes the response into out.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPost, path, body, out)
}

// Do sends a request and decodes a 2xx response into out, which may be
// nil. Network errors, 429 and 5xx responses are retried with exponential
// backoff, honouring Retry-After. Other failures return *APIError.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return fmt.Errorf("marshal %s request: %w", c.cfg.Service, err)
		}
	}

	wait := c.cfg.RetryWait
	for attempt := 0; ; attempt++ {
		resp, err := c.send(ctx, method, path, payload)
		last := attempt >= c.cfg.MaxRetries

		if err != nil {
			if last || ctx.Err() != nil {
				return fmt.Errorf("%s request %s %s: %w", c.cfg.Service, method, path, err)
			}
		} else {
			if !retryableStatus(resp.StatusCode) || last {
				defer resp.Body.Close()
				return c.decode(resp, path, out)
			}
			if after := retryAfter(resp); after > 0 {
				wait = after
			}
			_ = resp.Body.Close()
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
		wait = min(wait*2, c.cfg.MaxWait)
	}
}

func (c *Client) send(ctx context.Context, method, path string, payload []byte) (*http.Response, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.cfg.Authorize != nil {
		c.cfg.Authorize(req)
	}
	return c.http.Do(req)
}

func (c *Client) decode(resp *http.Response, path string, out any) error {
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.parseError(resp, path)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response from %s: %w", c.cfg.Service, path, err)
	}
	return nil
}

// parseError understands the common error bodies: {"message"}, {"error"},
// and Jira's {"errorMessages": [...], "errors": {...}}.
func (c *Client) parseError(resp *http.Response, path string) error {
	apiErr := &APIError{
		Service:    c.cfg.Service,
		StatusCode: resp.StatusCode,
		Endpoint:   path,
	}

	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var body struct {
		Message       string            `json:"message"`
		Error         string            `json:"error"`
		ErrorMessages []string          `json:"errorMessages"`
		Errors        map[string]string `json:"errors"`
	}
	if json.Unmarshal(data, &body) == nil {
		switch {
		case len(body.ErrorMessages) > 0:
			apiErr.Message = strings.Join(body.ErrorMessages, "; ")
		case body.Message != "":
			apiErr.Message = body.Message
		case body.Error != "":
			apiErr.Message = body.Error
		}
		if len(body.Errors) > 0 {
			apiErr.Fields = body.Errors
		}
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}

func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= 500
}

func retryAfter(resp *http.Response) time.Duration {
	if seconds, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	return 0
}
