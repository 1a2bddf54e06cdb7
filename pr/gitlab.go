package pr

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/xanzy/go-gitlab"
)

const gitlabPageSize = 100

// GitLabProvider implements Provider for one GitLab project, treating
// merge requests as pull requests.
type GitLabProvider struct {
	client    *gitlab.Client
	projectID string // numeric ID or "namespace/project"
}

// NewGitLabProvider creates a provider. baseURL is empty for gitlab.com.
func NewGitLabProvider(token, baseURL, projectID string, opts ...gitlab.ClientOptionFunc) (*GitLabProvider, error) {
	if token == "" {
		return nil, fmt.Errorf("%w for GitLab", ErrNoToken)
	}
	if projectID == "" {
		return nil, fmt.Errorf("GitLab project ID is required")
	}

	if baseURL != "" {
		opts = append([]gitlab.ClientOptionFunc{gitlab.WithBaseURL(baseURL)}, opts...)
	}
	client, err := gitlab.NewClient(token, opts...)
	if err != nil {
		return nil, fmt.Errorf("create GitLab client: %w", err)
	}
	return &GitLabProvider{client: client, projectID: projectID}, nil
}

// CreatePR opens a merge request. GitLab marks drafts by title prefix and
// takes reviewers as numeric user IDs; other reviewer names are ignored.
func (p *GitLabProvider) CreatePR(ctx context.Context, opts Options) (*PullRequest, error) {
	target := opts.Base
	if target == "" {
		target = "main"
	}

	title := opts.Title
	if opts.Draft {
		title = "Draft: " + title
	}
	mrOpts := &gitlab.CreateMergeRequestOptions{
		Title:        gitlab.Ptr(title),
		Description:  gitlab.Ptr(opts.Body),
		SourceBranch: gitlab.Ptr(opts.Head),
		TargetBranch: gitlab.Ptr(target),
	}
	if len(opts.Labels) > 0 {
		mrOpts.Labels = gitlab.Ptr(gitlab.LabelOptions(opts.Labels))
	}
	if ids := numericIDs(opts.Reviewers); len(ids) > 0 {
		mrOpts.ReviewerIDs = gitlab.Ptr(ids)
	}

	mr, resp, err := p.client.MergeRequests.CreateMergeRequest(p.projectID, mrOpts, gitlab.WithContext(ctx))
	if err != nil {
		if resp != nil {
			switch {
			case resp.StatusCode == http.StatusConflict:
				return nil, ErrExists
			case resp.StatusCode == http.StatusBadRequest && strings.Contains(err.Error(), "No commits between"):
				return nil, ErrNoChanges
			}
		}
		return nil, fmt.Errorf("create MR: %w", err)
	}
	return fromGitLab(mr), nil
}

func (p *GitLabProvider) GetPR(ctx context.Context, id int) (*PullRequest, error) {
	mr, resp, err := p.client.MergeRequests.GetMergeRequest(p.projectID, id, nil, gitlab.WithContext(ctx))
	if err != nil {
		return nil, gitlabErr("get MR", resp, err)
	}
	return fromGitLab(mr), nil
}

func (p *GitLabProvider) FindPR(ctx context.Context, head string) (*PullRequest, error) {
	mrs, resp, err := p.client.MergeRequests.ListProjectMergeRequests(p.projectID, &gitlab.ListProjectMergeRequestsOptions{
		ListOptions:  gitlab.ListOptions{PerPage: 1},
		State:        gitlab.Ptr("opened"),
		SourceBranch: gitlab.Ptr(head),
	}, gitlab.WithContext(ctx))
	if err != nil {
		return nil, gitlabErr("find MR", resp, err)
	}
	if len(mrs) == 0 {
		return nil, fmt.Errorf("%w for branch %s", ErrNotFound, head)
	}
	return fromGitLab(mrs[0]), nil
}

// ListFiles lists the merge request diffs. Line counts are taken from the
// unified diff text.
func (p *GitLabProvider) ListFiles(ctx context.Context, id int) ([]File, error) {
	var files []File
	opts := &gitlab.ListMergeRequestDiffsOptions{
		ListOptions: gitlab.ListOptions{PerPage: gitlabPageSize},
	}
	for {
		diffs, resp, err := p.client.MergeRequests.ListMergeRequestDiffs(p.projectID, id, opts, gitlab.WithContext(ctx))
		if err != nil {
			return nil, gitlabErr("list MR diffs", resp, err)
		}
		for _, d := range diffs {
			files = append(files, fileFromDiff(d))
		}
		if resp.NextPage == 0 {
			return files, nil
		}
		opts.Page = resp.NextPage
	}
}

func (p *GitLabProvider) AddComment(ctx context.Context, id int, body string) error {
	if strings.TrimSpace(body) == "" {
		return ErrEmptyComment
	}
	_, resp, err := p.client.Notes.CreateMergeRequestNote(p.projectID, id,
		&gitlab.CreateMergeRequestNoteOptions{Body: gitlab.Ptr(body)}, gitlab.WithContext(ctx))
	if err != nil {
		return gitlabErr("add note", resp, err)
	}
	return nil
}

// SubmitReview approves through the approvals API. GitLab has no
// request-changes state, so that decision is posted as a note.
func (p *GitLabProvider) SubmitReview(ctx context.Context, id int, review Review) error {
	switch review.Decision {
	case DecisionApprove:
		_, resp, err := p.client.MergeRequestApprovals.ApproveMergeRequest(p.projectID, id, nil, gitlab.WithContext(ctx))
		if err != nil {
			return gitlabErr("approve MR", resp, err)
		}
		if strings.TrimSpace(review.Body) == "" {
			return nil
		}
		return p.AddComment(ctx, id, review.Body)

	case DecisionRequestChanges:
		if strings.TrimSpace(review.Body) == "" {
			return ErrEmptyComment
		}
		return p.AddComment(ctx, id, "**Changes requested**\n\n"+review.Body)

	case DecisionComment:
		return p.AddComment(ctx, id, review.Body)

	default:
		return fmt.Errorf("%w: %q", ErrInvalidDecision, review.Decision)
	}
}

func gitlabErr(op string, resp *gitlab.Response, err error) error {
	if resp != nil && resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func fileFromDiff(d *gitlab.MergeRequestDiff) File {
	f := File{Path: d.NewPath, Status: FileModified}
	switch {
	case d.NewFile:
		f.Status = FileAdded
	case d.DeletedFile:
		f.Status = FileRemoved
		f.Path = d.OldPath
	case d.RenamedFile:
		f.Status = FileRenamed
		f.PreviousPath = d.OldPath
	}
	f.Additions, f.Deletions = countDiffLines(d.Diff)
	return f
}

// countDiffLines counts added and removed lines in a unified diff body.
func countDiffLines(diff string) (additions, deletions int) {
	for _, line := range strings.Split(diff, "\n") {
		switch {
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
		case strings.HasPrefix(line, "+"):
			additions++
		case strings.HasPrefix(line, "-"):
			deletions++
		}
	}
	return additions, deletions
}

func numericIDs(names []string) []int {
	var ids []int
	for _, name := range names {
		if id, err := strconv.Atoi(name); err == nil {
			ids = append(ids, id)
		}
	}
	return ids
}

func fromGitLab(mr *gitlab.MergeRequest) *PullRequest {
	result := &PullRequest{
		ID:      mr.IID,
		URL:     mr.WebURL,
		HTMLURL: mr.WebURL,
		Title:   mr.Title,
		Body:    mr.Description,
		Head:    mr.SourceBranch,
		Base:    mr.TargetBranch,
		Labels:  mr.Labels,
		Draft:   strings.HasPrefix(mr.Title, "Draft:") || strings.HasPrefix(mr.Title, "WIP:"),
	}

	if count, err := strconv.Atoi(strings.TrimSuffix(mr.ChangesCount, "+")); err == nil {
		result.ChangedFiles = count
	}
	if mr.Author != nil {
		result.Author = mr.Author.Username
	}

	switch mr.State {
	case "opened":
		result.State = StateOpen
	case "merged":
		result.State = StateMerged
	case "closed":
		result.State = StateClosed
	}

	if mr.CreatedAt != nil {
		result.CreatedAt = *mr.CreatedAt
	}
	if mr.UpdatedAt != nil {
		result.UpdatedAt = *mr.UpdatedAt
	}
	if mr.MergedAt != nil {
		result.MergedAt = mr.MergedAt
	}
	for _, reviewer := range mr.Reviewers {
		result.Reviewers = append(result.Reviewers, reviewer.Username)
	}
	return result
}
