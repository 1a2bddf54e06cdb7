package pr

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/go-github/v57/github"
	"golang.org/x/oauth2"
)

const githubPageSize = 100

// GitHubProvider implements Provider for one GitHub repository.
type GitHubProvider struct {
	client *github.Client
	owner  string
	repo   string
}

// GitHubOption adjusts the underlying client.
type GitHubOption func(*github.Client) (*github.Client, error)

// WithGitHubEnterprise targets a GitHub Enterprise Server host, e.g.
// "https://github.example.com".
func WithGitHubEnterprise(hostURL string) GitHubOption {
	return func(c *github.Client) (*github.Client, error) {
		return c.WithEnterpriseURLs(hostURL, hostURL)
	}
}

// WithGitHubBaseURL uses apiURL as the API root unchanged.
func WithGitHubBaseURL(apiURL string) GitHubOption {
	return func(c *github.Client) (*github.Client, error) {
		u, err := url.Parse(strings.TrimSuffix(apiURL, "/") + "/")
		if err != nil {
			return nil, err
		}
		c.BaseURL = u
		return c, nil
	}
}

// NewGitHubProvider authenticates with a personal access token or app
// token.
func NewGitHubProvider(token, owner, repo string, opts ...GitHubOption) (*GitHubProvider, error) {
	if token == "" {
		return nil, fmt.Errorf("%w for GitHub", ErrNoToken)
	}
	if owner == "" || repo == "" {
		return nil, fmt.Errorf("GitHub owner and repo are required")
	}

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	client := github.NewClient(oauth2.NewClient(context.Background(), ts))
	for _, opt := range opts {
		var err error
		if client, err = opt(client); err != nil {
			return nil, fmt.Errorf("configure GitHub client: %w", err)
		}
	}

	return &GitHubProvider{client: client, owner: owner, repo: repo}, nil
}

// CreatePR opens a pull request. Labels and reviewers are applied
// afterwards; failing to apply them is logged, not returned.
func (p *GitHubProvider) CreatePR(ctx context.Context, opts Options) (*PullRequest, error) {
	base := opts.Base
	if base == "" {
		base = "main"
	}

	pull, resp, err := p.client.PullRequests.Create(ctx, p.owner, p.repo, &github.NewPullRequest{
		Title: github.String(opts.Title),
		Body:  github.String(opts.Body),
		Base:  github.String(base),
		Head:  github.String(opts.Head),
		Draft: github.Bool(opts.Draft),
	})
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusUnprocessableEntity {
			switch msg := err.Error(); {
			case strings.Contains(msg, "A pull request already exists"):
				return nil, ErrExists
			case strings.Contains(msg, "No commits between"):
				return nil, ErrNoChanges
			}
		}
		return nil, fmt.Errorf("create PR: %w", err)
	}

	if len(opts.Labels) > 0 {
		if _, _, err := p.client.Issues.AddLabelsToIssue(ctx, p.owner, p.repo, pull.GetNumber(), opts.Labels); err != nil {
			slog.Warn("failed to add labels to PR", "error", err, "pr", pull.GetNumber(), "labels", opts.Labels)
		}
	}
	if len(opts.Reviewers) > 0 {
		_, _, err := p.client.PullRequests.RequestReviewers(ctx, p.owner, p.repo, pull.GetNumber(),
			github.ReviewersRequest{Reviewers: opts.Reviewers})
		if err != nil {
			slog.Warn("failed to request reviewers", "error", err, "pr", pull.GetNumber(), "reviewers", opts.Reviewers)
		}
	}

	return fromGitHub(pull), nil
}

func (p *GitHubProvider) GetPR(ctx context.Context, id int) (*PullRequest, error) {
	pull, resp, err := p.client.PullRequests.Get(ctx, p.owner, p.repo, id)
	if err != nil {
		return nil, githubErr("get PR", resp, err)
	}
	return fromGitHub(pull), nil
}

func (p *GitHubProvider) FindPR(ctx context.Context, head string) (*PullRequest, error) {
	pulls, resp, err := p.client.PullRequests.List(ctx, p.owner, p.repo, &github.PullRequestListOptions{
		State:       "open",
		Head:        p.owner + ":" + head,
		ListOptions: github.ListOptions{PerPage: 1},
	})
	if err != nil {
		return nil, githubErr("find PR", resp, err)
	}
	if len(pulls) == 0 {
		return nil, fmt.Errorf("%w for branch %s", ErrNotFound, head)
	}
	return fromGitHub(pulls[0]), nil
}

// ListFiles follows pagination until every changed file is listed.
func (p *GitHubProvider) ListFiles(ctx context.Context, id int) ([]File, error) {
	var files []File
	opts := &github.ListOptions{PerPage: githubPageSize}
	for {
		page, resp, err := p.client.PullRequests.ListFiles(ctx, p.owner, p.repo, id, opts)
		if err != nil {
			return nil, githubErr("list PR files", resp, err)
		}
		for _, f := range page {
			files = append(files, File{
				Path:         f.GetFilename(),
				PreviousPath: f.GetPreviousFilename(),
				Status:       f.GetStatus(),
				Additions:    f.GetAdditions(),
				Deletions:    f.GetDeletions(),
			})
		}
		if resp.NextPage == 0 {
			return files, nil
		}
		opts.Page = resp.NextPage
	}
}

func (p *GitHubProvider) AddComment(ctx context.Context, id int, body string) error {
	if strings.TrimSpace(body) == "" {
		return ErrEmptyComment
	}
	_, resp, err := p.client.Issues.CreateComment(ctx, p.owner, p.repo, id,
		&github.IssueComment{Body: github.String(body)})
	if err != nil {
		return githubErr("add comment", resp, err)
	}
	return nil
}

// SubmitReview creates a submitted review. GitHub requires a body for
// everything except approval.
func (p *GitHubProvider) SubmitReview(ctx context.Context, id int, review Review) error {
	var event string
	switch review.Decision {
	case DecisionApprove:
		event = "APPROVE"
	case DecisionRequestChanges:
		event = "REQUEST_CHANGES"
	case DecisionComment:
		event = "COMMENT"
	default:
		return fmt.Errorf("%w: %q", ErrInvalidDecision, review.Decision)
	}
	if event != "APPROVE" && strings.TrimSpace(review.Body) == "" {
		return ErrEmptyComment
	}

	req := &github.PullRequestReviewRequest{Event: github.String(event)}
	if review.Body != "" {
		req.Body = github.String(review.Body)
	}
	_, resp, err := p.client.PullRequests.CreateReview(ctx, p.owner, p.repo, id, req)
	if err != nil {
		return githubErr("submit review", resp, err)
	}
	return nil
}

func githubErr(op string, resp *github.Response, err error) error {
	if resp != nil && resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	var rateErr *github.RateLimitError
	if errors.As(err, &rateErr) {
		return fmt.Errorf("%s: rate limited until %s: %w", op, rateErr.Rate.Reset.Format("15:04:05"), err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func fromGitHub(pull *github.PullRequest) *PullRequest {
	result := &PullRequest{
		ID:           pull.GetNumber(),
		URL:          pull.GetURL(),
		HTMLURL:      pull.GetHTMLURL(),
		Title:        pull.GetTitle(),
		Body:         pull.GetBody(),
		Draft:        pull.GetDraft(),
		Author:       pull.GetUser().GetLogin(),
		Additions:    pull.GetAdditions(),
		Deletions:    pull.GetDeletions(),
		ChangedFiles: pull.GetChangedFiles(),
	}

	switch pull.GetState() {
	case "open":
		result.State = StateOpen
	case "closed":
		result.State = StateClosed
		if pull.GetMerged() || pull.MergedAt != nil {
			result.State = StateMerged
		}
	}

	if pull.Head != nil {
		result.Head = pull.Head.GetRef()
	}
	if pull.Base != nil {
		result.Base = pull.Base.GetRef()
	}
	if pull.CreatedAt != nil {
		result.CreatedAt = pull.CreatedAt.Time
	}
	if pull.UpdatedAt != nil {
		result.UpdatedAt = pull.UpdatedAt.Time
	}
	if pull.MergedAt != nil {
		t := pull.MergedAt.Time
		result.MergedAt = &t
	}
	for _, label := range pull.Labels {
		result.Labels = append(result.Labels, label.GetName())
	}
	for _, reviewer := range pull.RequestedReviewers {
		result.Reviewers = append(result.Reviewers, reviewer.GetLogin())
	}
	return result
}
