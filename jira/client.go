package jira

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	agdthttp "github.com/randalmurphal/agdt/http"
)

// commentPageSize is the maxResults requested per comment page.
const commentPageSize = 50

// Client talks to one Jira instance.
type Client struct {
	cfg  Config
	rest *agdthttp.Client
}

// ClientOption configures a Client.
type ClientOption func(*agdthttp.Config)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *agdthttp.Config) { c.HTTPClient = hc }
}

// NewClient validates cfg and creates a client.
func NewClient(cfg *Config, opts ...ClientOption) (*Client, error) {
	if cfg == nil {
		return nil, ErrConfigURLRequired
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Client{cfg: *cfg}
	restCfg := agdthttp.Config{
		BaseURL:    strings.TrimSuffix(cfg.URL, "/"),
		Service:    "jira",
		MaxRetries: cfg.MaxRetries,
		Authorize:  c.authorize,
	}
	if cfg.Timeout > 0 {
		restCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}
	for _, opt := range opts {
		opt(&restCfg)
	}
	c.rest = agdthttp.NewClient(restCfg)
	return c, nil
}

// Version returns the API version requests use.
func (c *Client) Version() APIVersion {
	return c.cfg.Version()
}

// IssueURL returns the browser URL of an issue.
func (c *Client) IssueURL(key string) string {
	return c.rest.BaseURL() + "/browse/" + key
}

// GetIssue fetches an issue by key.
func (c *Client) GetIssue(ctx context.Context, key string) (*Issue, error) {
	if !ValidateIssueKey(key) {
		return nil, fmt.Errorf("%w: %q", ErrIssueKeyInvalid, key)
	}

	var issue Issue
	if err := c.rest.Get(ctx, c.path("/issue/"+key), &issue); err != nil {
		return nil, c.wrapIssueErr(key, err)
	}
	return &issue, nil
}

// GetComments returns every comment on an issue, oldest first, following
// pagination.
func (c *Client) GetComments(ctx context.Context, key string) ([]Comment, error) {
	if !ValidateIssueKey(key) {
		return nil, fmt.Errorf("%w: %q", ErrIssueKeyInvalid, key)
	}

	comments, err := agdthttp.CollectOffsets(ctx, func(ctx context.Context, start int) ([]Comment, bool, error) {
		q := url.Values{}
		q.Set("startAt", fmt.Sprint(start))
		q.Set("maxResults", fmt.Sprint(commentPageSize))

		var page commentPage
		if err := c.rest.Get(ctx, c.path("/issue/"+key+"/comment?"+q.Encode()), &page); err != nil {
			return nil, false, err
		}
		more := page.StartAt+len(page.Comments) < page.Total
		return page.Comments, more, nil
	})
	if err != nil {
		return nil, c.wrapIssueErr(key, err)
	}
	return comments, nil
}

// AddComment posts markdown as a comment, converted to ADF or wiki
// markup to suit the API version.
func (c *Client) AddComment(ctx context.Context, key, markdown string) (*Comment, error) {
	if !ValidateIssueKey(key) {
		return nil, fmt.Errorf("%w: %q", ErrIssueKeyInvalid, key)
	}
	if strings.TrimSpace(markdown) == "" {
		return nil, ErrEmptyComment
	}

	var body any = MarkdownToWiki(markdown)
	if c.Version() == APIVersionV3 {
		body = MarkdownToADF(markdown)
	}

	var comment Comment
	err := c.rest.Post(ctx, c.path("/issue/"+key+"/comment"), addCommentRequest{Body: body}, &comment)
	if err != nil {
		return nil, c.wrapIssueErr(key, err)
	}
	return &comment, nil
}

func (c *Client) path(endpoint string) string {
	return "/rest/api/" + strings.TrimPrefix(string(c.Version()), "v") + endpoint
}

func (c *Client) authorize(req *http.Request) {
	switch c.cfg.AuthType {
	case AuthAPIToken:
		req.SetBasicAuth(c.cfg.Email, c.cfg.Token)
	case AuthBasic:
		req.SetBasicAuth(c.cfg.Username, c.cfg.Password)
	case AuthPAT:
		req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	}
}

func (c *Client) wrapIssueErr(key string, err error) error {
	if agdthttp.IsNotFound(err) {
		return fmt.Errorf("%w: %s: %w", ErrIssueNotFound, key, err)
	}
	var apiErr *agdthttp.APIError
	if errors.As(err, &apiErr) {
		return err
	}
	return fmt.Errorf("jira %s: %w", key, err)
}
