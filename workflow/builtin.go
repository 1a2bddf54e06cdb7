package workflow

// Built-in workflow names.
const (
	WorkOnJiraIssue   = "work-on-jira-issue"
	PullRequestReview = "pull-request-review"
)

// Background commands that gate built-in transitions.
const (
	TaskGitCommit         = "agdt-git-commit"
	TaskCreatePullRequest = "agdt-create-pull-request"
	TaskPostPRSummary     = "agdt-post-pr-summary"
)

// Step names shared by the built-in workflows.
const (
	StepInitiate   = "initiate"
	StepCompletion = "completion"
)

func builtinDefinitions() []*Definition {
	return []*Definition{
		MustDefinition(WorkOnJiraIssue, StepInitiate,
			On(StepInitiate, "planning", EventJiraIssueRetrieved),
			On("planning", "checklist-creation", EventJiraCommentAdded),
			On("checklist-creation", "implementation", EventChecklistCreated),
			On("implementation", "implementation-review", EventChecklistComplete),
			On("implementation-review", "verification", EventImplementationReviewed),
			On("implementation-review", "implementation", EventChecklistUpdated),
			On("verification", "commit", EventVerificationComplete),
			On("commit", "pull-request", EventGitCommitCreated).Requires(TaskGitCommit),
			On("pull-request", StepCompletion, EventPRCreated).Requires(TaskCreatePullRequest),
		).Describe("Take a Jira issue from retrieval through planning, implementation and review to a pull request"),

		MustDefinition(PullRequestReview, StepInitiate,
			On(StepInitiate, "file-review", EventPRDetailsRetrieved),
			On("file-review", "file-review", EventPRReviewed),
			On("file-review", "summary", EventPRFilesReviewed),
			On("summary", "decision", EventPRSummaryPosted).Requires(TaskPostPRSummary),
			On("decision", StepCompletion, EventPRDecisionMade),
		).Describe("Review a pull request file by file, post a summary and record a decision"),
	}
}
