package workflow

import (
	"context"
	"fmt"
	"slices"

	"github.com/randalmurphal/agdt/checklist"
	"github.com/randalmurphal/agdt/jira"
	"github.com/randalmurphal/agdt/pr"
)

// Context keys written by the helpers and read by the step templates.
const (
	KeyIssueKey          = "issue_key"
	KeyJiraSummary       = "jira_summary"
	KeyJiraIssueType     = "jira_issue_type"
	KeyJiraStatus        = "jira_status"
	KeyJiraLabels        = "jira_labels"
	KeyJiraDescription   = "jira_description"
	KeyJiraCommentID     = "jira_comment_id"
	KeyChecklistMarkdown = "checklist_markdown"
	KeyBranchName        = "branch_name"
	KeyPRID              = "pr_id"
	KeyPRTitle           = "pr_title"
	KeyPRURL             = "pr_url"
	KeyPRBase            = "pr_base"
	KeyPRHead            = "pr_head"
	KeyPRFiles           = "pr_files"
	KeyCurrentFile       = "current_file"
	KeyReviewedFiles     = "reviewed_files"
	KeyPRDecision        = "pr_decision"
)

// JiraIssueRetrieved records a fetched issue.
func (e *Engine) JiraIssueRetrieved(ctx context.Context, issue *jira.Issue) (NotifyResult, error) {
	if issue == nil {
		return NotifyResult{}, fmt.Errorf("jira issue is required")
	}

	description, err := issue.DescriptionMarkdown()
	if err != nil {
		e.logger.WarnContext(ctx, "could not convert issue description", "issue", issue.Key, "error", err)
	}

	updates := map[string]any{
		KeyIssueKey:        issue.Key,
		KeyJiraSummary:     issue.Fields.Summary,
		KeyJiraLabels:      nonNil(issue.Fields.Labels),
		KeyJiraDescription: description,
	}
	if issue.Fields.IssueType != nil {
		updates[KeyJiraIssueType] = issue.Fields.IssueType.Name
	}
	if issue.Fields.Status != nil {
		updates[KeyJiraStatus] = issue.Fields.Status.Name
	}
	return e.Notify(ctx, EventJiraIssueRetrieved, WithContextUpdates(updates))
}

// JiraCommentAdded records a comment posted to the issue.
func (e *Engine) JiraCommentAdded(ctx context.Context, issueKey, commentID string) (NotifyResult, error) {
	return e.Notify(ctx, EventJiraCommentAdded, WithContextUpdates(map[string]any{
		KeyIssueKey:      issueKey,
		KeyJiraCommentID: commentID,
	}))
}

// ChecklistCreated records a new implementation checklist.
func (e *Engine) ChecklistCreated(ctx context.Context, c *checklist.Checklist) (NotifyResult, error) {
	return e.Notify(ctx, EventChecklistCreated, WithContextUpdates(checklistUpdates(c)))
}

// ChecklistUpdated records a changed checklist. It reports
// CHECKLIST_COMPLETE once every item is done, CHECKLIST_UPDATED otherwise.
func (e *Engine) ChecklistUpdated(ctx context.Context, c *checklist.Checklist) (NotifyResult, error) {
	event := EventChecklistUpdated
	if c.IsComplete() {
		event = EventChecklistComplete
	}
	return e.Notify(ctx, event, WithContextUpdates(checklistUpdates(c)))
}

func checklistUpdates(c *checklist.Checklist) map[string]any {
	return map[string]any{
		checklist.ContextKey: c.ContextValue(),
		KeyChecklistMarkdown: c.Markdown(),
	}
}

// ImplementationReviewed records that the implementation passed review.
func (e *Engine) ImplementationReviewed(ctx context.Context) (NotifyResult, error) {
	return e.Notify(ctx, EventImplementationReviewed)
}

// VerificationComplete records that tests and checks passed.
func (e *Engine) VerificationComplete(ctx context.Context) (NotifyResult, error) {
	return e.Notify(ctx, EventVerificationComplete)
}

// CommitCreated records a commit made, and pushed, by a background task.
func (e *Engine) CommitCreated(ctx context.Context, branch, taskID string) (NotifyResult, error) {
	return e.Notify(ctx, EventGitCommitCreated,
		WithTaskID(taskID),
		WithContextUpdates(map[string]any{KeyBranchName: branch}),
	)
}

// PullRequestCreated records a pull request opened by a background task.
// p may only carry the fields known before the task ran.
func (e *Engine) PullRequestCreated(ctx context.Context, p *pr.PullRequest, taskID string) (NotifyResult, error) {
	return e.Notify(ctx, EventPRCreated,
		WithTaskID(taskID),
		WithContextUpdates(pullRequestUpdates(p)),
	)
}

// PullRequestDetailsRetrieved records the pull request under review and
// its changed files. The first file becomes the current file.
func (e *Engine) PullRequestDetailsRetrieved(ctx context.Context, p *pr.PullRequest, files []pr.File) (NotifyResult, error) {
	paths := make([]string, 0, len(files))
	for _, f := range files {
		paths = append(paths, f.Path)
	}

	updates := pullRequestUpdates(p)
	updates[KeyPRFiles] = paths
	updates[KeyReviewedFiles] = []string{}
	updates[KeyCurrentFile] = ""
	if len(paths) > 0 {
		updates[KeyCurrentFile] = paths[0]
	}
	return e.Notify(ctx, EventPRDetailsRetrieved, WithContextUpdates(updates))
}

func pullRequestUpdates(p *pr.PullRequest) map[string]any {
	updates := map[string]any{}
	if p == nil {
		return updates
	}
	if p.ID != 0 {
		updates[KeyPRID] = p.ID
	}
	if p.Title != "" {
		updates[KeyPRTitle] = p.Title
	}
	if url := p.WebURL(); url != "" {
		updates[KeyPRURL] = url
	}
	if p.Base != "" {
		updates[KeyPRBase] = p.Base
	}
	if p.Head != "" {
		updates[KeyPRHead] = p.Head
	}
	return updates
}

// FileReviewed marks a file reviewed. It reports PR_REVIEWED while other
// files remain, and PR_FILES_REVIEWED once all are done.
func (e *Engine) FileReviewed(ctx context.Context, path string) (NotifyResult, error) {
	ws, err := e.store.GetWorkflowState()
	if err != nil {
		return NotifyResult{}, err
	}

	var files, reviewed []string
	if ws != nil {
		files = stringList(ws.Context[KeyPRFiles])
		reviewed = stringList(ws.Context[KeyReviewedFiles])
	}
	if !slices.Contains(reviewed, path) {
		reviewed = append(reviewed, path)
	}

	current := ""
	for _, f := range files {
		if !slices.Contains(reviewed, f) {
			current = f
			break
		}
	}

	event := EventPRReviewed
	if current == "" {
		event = EventPRFilesReviewed
	}
	return e.Notify(ctx, event, WithContextUpdates(map[string]any{
		KeyReviewedFiles: reviewed,
		KeyCurrentFile:   current,
	}))
}

// ReviewSummaryPosted records a review summary posted by a background task.
func (e *Engine) ReviewSummaryPosted(ctx context.Context, taskID string) (NotifyResult, error) {
	return e.Notify(ctx, EventPRSummaryPosted, WithTaskID(taskID))
}

// ReviewDecisionMade records the outcome of a review.
func (e *Engine) ReviewDecisionMade(ctx context.Context, decision string) (NotifyResult, error) {
	return e.Notify(ctx, EventPRDecisionMade, WithContextUpdates(map[string]any{
		KeyPRDecision: decision,
	}))
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// stringList reads a list stored in the context, which comes back from
// JSON as []any.
func stringList(v any) []string {
	switch list := v.(type) {
	case []string:
		return slices.Clone(list)
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
