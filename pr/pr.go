package pr

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// State is the lifecycle state of a pull request.
type State string

const (
	StateOpen   State = "open"
	StateClosed State = "closed"
	StateMerged State = "merged"
)

// Provider opens and reviews pull requests on one hosting platform.
// GitHub pull requests and GitLab merge requests are both addressed by
// their per-repository number.
type Provider interface {
	// CreatePR opens a pull request. It returns ErrExists when one is
	// already open for the head branch.
	CreatePR(ctx context.Context, opts Options) (*PullRequest, error)

	// GetPR fetches a pull request by number.
	GetPR(ctx context.Context, id int) (*PullRequest, error)

	// FindPR returns the open pull request for a head branch, or
	// ErrNotFound.
	FindPR(ctx context.Context, head string) (*PullRequest, error)

	// ListFiles returns every file the pull request changes.
	ListFiles(ctx context.Context, id int) ([]File, error)

	// AddComment posts a Markdown comment.
	AddComment(ctx context.Context, id int, body string) error

	// SubmitReview records a review decision.
	SubmitReview(ctx context.Context, id int, review Review) error
}

// Options configures pull request creation.
type Options struct {
	Title     string
	Body      string // Markdown
	Base      string // default "main"
	Head      string
	Labels    []string
	Reviewers []string
	Draft     bool
}

// PullRequest is the provider-neutral view of a pull or merge request.
type PullRequest struct {
	ID           int        `json:"id"`
	URL          string     `json:"url,omitempty"`      // API URL on GitHub
	HTMLURL      string     `json:"html_url,omitempty"` // browser URL
	Title        string     `json:"title"`
	Body         string     `json:"body,omitempty"`
	State        State      `json:"state,omitempty"`
	Draft        bool       `json:"draft,omitempty"`
	Head         string     `json:"head,omitempty"`
	Base         string     `json:"base,omitempty"`
	Author       string     `json:"author,omitempty"`
	CreatedAt    time.Time  `json:"created_at,omitzero"`
	UpdatedAt    time.Time  `json:"updated_at,omitzero"`
	MergedAt     *time.Time `json:"merged_at,omitempty"`
	Additions    int        `json:"additions,omitempty"`
	Deletions    int        `json:"deletions,omitempty"`
	ChangedFiles int        `json:"changed_files,omitempty"`
	Labels       []string   `json:"labels,omitempty"`
	Reviewers    []string   `json:"reviewers,omitempty"`
}

// WebURL returns the browser URL, falling back to URL.
func (p *PullRequest) WebURL() string {
	if p.HTMLURL != "" {
		return p.HTMLURL
	}
	return p.URL
}

// File change statuses.
const (
	FileAdded    = "added"
	FileModified = "modified"
	FileRemoved  = "removed"
	FileRenamed  = "renamed"
)

// File is one file changed by a pull request.
type File struct {
	Path         string `json:"path"`
	PreviousPath string `json:"previous_path,omitempty"`
	Status       string `json:"status"`
	Additions    int    `json:"additions"`
	Deletions    int    `json:"deletions"`
}

// Decision is the outcome of a review.
type Decision string

const (
	DecisionApprove        Decision = "approve"
	DecisionRequestChanges Decision = "request_changes"
	DecisionComment        Decision = "comment"
)

// ParseDecision accepts the decision names and the common spellings used
// on the command line.
func ParseDecision(s string) (Decision, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "approve", "approved", "lgtm":
		return DecisionApprove, nil
	case "request_changes", "request-changes", "changes", "reject":
		return DecisionRequestChanges, nil
	case "comment":
		return DecisionComment, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidDecision, s)
	}
}

// Review is a review submission.
type Review struct {
	Decision Decision
	Body     string
}

// Builder assembles Options.
type Builder struct {
	opts Options
}

// NewBuilder starts a pull request targeting main.
func NewBuilder(title string) *Builder {
	return &Builder{opts: Options{Title: title, Base: "main"}}
}

// WithTicket prefixes the title with an issue key: "[PROJ-1] Fix login".
func (b *Builder) WithTicket(key string) *Builder {
	if key != "" && !strings.HasPrefix(b.opts.Title, "["+key+"]") {
		b.opts.Title = fmt.Sprintf("[%s] %s", key, b.opts.Title)
	}
	return b
}

func (b *Builder) WithBody(body string) *Builder {
	b.opts.Body = body
	return b
}

// WithSummary renders the body from a summary, a change list and a test
// plan. Empty sections are omitted.
func (b *Builder) WithSummary(summary string, changes []string, testPlan string) *Builder {
	var body strings.Builder

	body.WriteString("## Summary\n\n")
	body.WriteString(strings.TrimSpace(summary))
	body.WriteString("\n")

	if len(changes) > 0 {
		body.WriteString("\n## Changes\n\n")
		for _, change := range changes {
			fmt.Fprintf(&body, "- %s\n", change)
		}
	}
	if testPlan = strings.TrimSpace(testPlan); testPlan != "" {
		body.WriteString("\n## Test Plan\n\n")
		body.WriteString(testPlan)
		body.WriteString("\n")
	}

	body.WriteString("\n---\n*Opened with agdt*\n")
	b.opts.Body = body.String()
	return b
}

func (b *Builder) WithBase(base string) *Builder {
	if base != "" {
		b.opts.Base = base
	}
	return b
}

func (b *Builder) WithHead(head string) *Builder {
	b.opts.Head = head
	return b
}

func (b *Builder) WithLabels(labels ...string) *Builder {
	b.opts.Labels = append(b.opts.Labels, labels...)
	return b
}

func (b *Builder) WithReviewers(reviewers ...string) *Builder {
	b.opts.Reviewers = append(b.opts.Reviewers, reviewers...)
	return b
}

func (b *Builder) AsDraft() *Builder {
	b.opts.Draft = true
	return b
}

// Build returns the options, validated.
func (b *Builder) Build() (Options, error) {
	if strings.TrimSpace(b.opts.Title) == "" {
		return Options{}, ErrTitleRequired
	}
	if b.opts.Head == "" {
		return Options{}, ErrHeadRequired
	}
	if b.opts.Head == b.opts.Base {
		return Options{}, fmt.Errorf("%w: head and base are both %q", ErrNoChanges, b.opts.Head)
	}
	return b.opts, nil
}
