package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/agdt/pr"
	"github.com/randalmurphal/agdt/workflow"
)

func newPRCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "pr",
		Aliases: []string{"mr"},
		Short:   "Open and review pull requests",
	}
	cmd.AddCommand(
		newPRCreateCmd(a),
		newPRReviewStartCmd(a),
		newPRFileReviewedCmd(a),
		newPRSummaryCmd(a),
		newPRDecisionCmd(a),
	)
	return cmd
}

// prID returns flagID, or the pull request recorded in the workflow.
func (a *app) prID(flagID int) (int, error) {
	if flagID > 0 {
		return flagID, nil
	}
	if id, err := strconv.Atoi(a.contextString(workflow.KeyPRID)); err == nil && id > 0 {
		return id, nil
	}
	return 0, errors.New("no pull request given (--id) and none in the workflow context")
}

type prCreateFlags struct {
	title      string
	body       string
	base       string
	labels     []string
	reviewers  []string
	draft      bool
	foreground bool
}

func (f prCreateFlags) argv(title, body, head string) []string {
	args := []string{"pr", "create", "--foreground", "--title", title, "--body", body, "--base", f.base, "--head", head}
	for _, l := range f.labels {
		args = append(args, "--label", l)
	}
	for _, r := range f.reviewers {
		args = append(args, "--reviewer", r)
	}
	if f.draft {
		args = append(args, "--draft")
	}
	return args
}

func newPRCreateCmd(a *app) *cobra.Command {
	var (
		f    prCreateFlags
		head string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Open a pull request for the current branch, as a background task",
		Long: `Open a pull request for the current branch.

The title defaults to "[ISSUE] summary" from the workflow context. By
default the request is made by the background task
agdt-create-pull-request and the workflow moves on once it succeeds.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if f.base == "" {
				f.base = a.settings.BaseBranch
			}
			if head == "" {
				repo, err := a.repo(ctx)
				if err != nil {
					return err
				}
				if head, err = repo.CurrentBranch(ctx); err != nil {
					return err
				}
			}

			title := f.title
			if title == "" {
				title = a.contextString(workflow.KeyJiraSummary)
			}
			b := pr.NewBuilder(title).
				WithTicket(a.contextString(workflow.KeyIssueKey)).
				WithBase(f.base).
				WithHead(head).
				WithLabels(f.labels...).
				WithReviewers(f.reviewers...)
			if f.draft {
				b.AsDraft()
			}
			if f.body != "" {
				b.WithBody(f.body)
			} else {
				summary, changes := a.prSummary()
				b.WithSummary(summary, changes, "")
			}
			opts, err := b.Build()
			if err != nil {
				return err
			}

			if f.foreground {
				return a.createPRForeground(cmd, opts)
			}

			argv, err := a.selfArgv(f.argv(opts.Title, opts.Body, head)...)
			if err != nil {
				return err
			}
			t, err := a.runner.Launch(ctx, workflow.TaskCreatePullRequest, argv...)
			if err != nil {
				return err
			}
			if !a.jsonOut {
				a.success("Pull request creation running as background task %s", t.ShortID())
			}

			known := &pr.PullRequest{Title: opts.Title, Base: opts.Base, Head: opts.Head}
			res, err := a.engine.PullRequestCreated(ctx, known, t.ID)
			if err != nil {
				return err
			}
			return a.reportEvent(ctx, workflow.EventPRCreated, res, map[string]string{"task_id": t.ID, "title": opts.Title})
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&f.title, "title", "t", "", "Title (default: workflow issue summary)")
	flags.StringVarP(&f.body, "body", "b", "", "Body in Markdown (default: built from the checklist)")
	flags.StringVar(&f.base, "base", "", "Target branch (default: base_branch setting)")
	flags.StringVar(&head, "head", "", "Source branch (default: current branch)")
	flags.StringArrayVar(&f.labels, "label", nil, "Label to add (repeatable)")
	flags.StringArrayVar(&f.reviewers, "reviewer", nil, "Reviewer to request (repeatable)")
	flags.BoolVar(&f.draft, "draft", false, "Open as draft")
	flags.BoolVar(&f.foreground, "foreground", false, "Run in this process and skip the workflow event")
	return cmd
}

// prSummary describes the issue and lists the checklist as changes.
func (a *app) prSummary() (string, []string) {
	summary := a.contextString(workflow.KeyJiraSummary)
	if key := a.contextString(workflow.KeyIssueKey); key != "" {
		summary = fmt.Sprintf("%s\n\nResolves %s.", summary, key)
	}

	var changes []string
	if c, err := a.loadChecklist(); err == nil && c != nil {
		for _, item := range c.Items {
			changes = append(changes, item.Text)
		}
	}
	return summary, changes
}

func (a *app) createPRForeground(cmd *cobra.Command, opts pr.Options) error {
	ctx := cmd.Context()
	provider, err := a.provider(ctx)
	if err != nil {
		return err
	}

	created, err := provider.CreatePR(ctx, opts)
	if errors.Is(err, pr.ErrExists) {
		existing, findErr := provider.FindPR(ctx, opts.Head)
		if findErr != nil {
			return err
		}
		created = existing
		err = nil
		if !a.jsonOut {
			a.printf("A pull request already exists for %s.\n", opts.Head)
		}
	}
	if err != nil {
		return err
	}

	if a.jsonOut {
		return a.printJSON(created)
	}
	a.success("Pull request #%d: %s", created.ID, created.WebURL())
	return nil
}

type reviewStart struct {
	PullRequest *pr.PullRequest `json:"pull_request"`
	Files       []pr.File       `json:"files"`
}

func newPRReviewStartCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "review-start <number>",
		Short: "Load a pull request and its files into the review workflow",
		Long: `Load a pull request and its changed files into the
pull-request-review workflow, starting that workflow when it is not active.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := strconv.Atoi(args[0])
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid pull request number %q", args[0])
			}

			provider, err := a.provider(ctx)
			if err != nil {
				return err
			}
			p, err := provider.GetPR(ctx, id)
			if err != nil {
				return err
			}
			files, err := provider.ListFiles(ctx, id)
			if err != nil {
				return err
			}

			ws, err := a.engine.Current(ctx)
			if err != nil {
				return err
			}
			if ws == nil || ws.Active != workflow.PullRequestReview {
				if _, err := a.engine.Initiate(ctx, workflow.PullRequestReview, map[string]any{workflow.KeyPRID: id}); err != nil {
					return err
				}
			}

			if !a.jsonOut {
				a.printf("%s #%d %s\n", a.heading("Reviewing"), p.ID, p.Title)
				a.printf("%s\n", a.dim(p.WebURL()))
				for _, f := range files {
					a.printf("  %-8s %s (+%d -%d)\n", f.Status, f.Path, f.Additions, f.Deletions)
				}
				a.printf("\n")
			}

			res, err := a.engine.PullRequestDetailsRetrieved(ctx, p, files)
			if err != nil {
				return err
			}
			return a.reportEvent(ctx, workflow.EventPRDetailsRetrieved, res, reviewStart{PullRequest: p, Files: files})
		},
	}
}

func newPRFileReviewedCmd(a *app) *cobra.Command {
	var (
		comment string
		id      int
	)

	cmd := &cobra.Command{
		Use:   "file-reviewed <path>",
		Short: "Mark a file reviewed, optionally posting a comment about it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			path := args[0]

			if comment != "" {
				prID, err := a.prID(id)
				if err != nil {
					return err
				}
				provider, err := a.provider(ctx)
				if err != nil {
					return err
				}
				if err := provider.AddComment(ctx, prID, fmt.Sprintf("**`%s`**\n\n%s", path, comment)); err != nil {
					return err
				}
			}

			res, err := a.engine.FileReviewed(ctx, path)
			if err != nil {
				return err
			}
			if !a.jsonOut && !res.ImmediateAdvance {
				a.success("%s reviewed", path)
			}
			return a.reportEvent(ctx, 0, res, map[string]string{"file": path})
		},
	}
	cmd.Flags().StringVarP(&comment, "comment", "m", "", "Comment to post about the file")
	cmd.Flags().IntVar(&id, "id", 0, "Pull request number (default: from the workflow)")
	return cmd
}

func newPRSummaryCmd(a *app) *cobra.Command {
	var (
		message    string
		file       string
		id         int
		foreground bool
	)

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Post the review summary, as a background task",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			prID, err := a.prID(id)
			if err != nil {
				return err
			}
			body, err := readBody(cmd.InOrStdin(), message, file)
			if err != nil {
				return err
			}

			if foreground {
				provider, err := a.provider(ctx)
				if err != nil {
					return err
				}
				if err := provider.AddComment(ctx, prID, body); err != nil {
					return err
				}
				if !a.jsonOut {
					a.success("Summary posted to #%d", prID)
				}
				return nil
			}

			argv, err := a.selfArgv("pr", "summary", "--foreground", "--id", strconv.Itoa(prID), "--message", body)
			if err != nil {
				return err
			}
			t, err := a.runner.Launch(ctx, workflow.TaskPostPRSummary, argv...)
			if err != nil {
				return err
			}
			if !a.jsonOut {
				a.success("Summary posting as background task %s", t.ShortID())
			}

			res, err := a.engine.ReviewSummaryPosted(ctx, t.ID)
			if err != nil {
				return err
			}
			return a.reportEvent(ctx, workflow.EventPRSummaryPosted, res, map[string]string{"task_id": t.ID})
		},
	}
	cmd.Flags().StringVarP(&message, "message", "m", "", "Summary text (Markdown)")
	cmd.Flags().StringVarP(&file, "file", "f", "", "Read the summary from a file, or - for stdin")
	cmd.Flags().IntVar(&id, "id", 0, "Pull request number (default: from the workflow)")
	cmd.Flags().BoolVar(&foreground, "foreground", false, "Run in this process and skip the workflow event")
	cmd.MarkFlagsMutuallyExclusive("message", "file")
	return cmd
}

func newPRDecisionCmd(a *app) *cobra.Command {
	var (
		message string
		id      int
	)

	cmd := &cobra.Command{
		Use:       "decision <approve|request_changes|comment>",
		Short:     "Submit the review decision",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{string(pr.DecisionApprove), string(pr.DecisionRequestChanges), string(pr.DecisionComment)},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			decision, err := pr.ParseDecision(args[0])
			if err != nil {
				return err
			}
			prID, err := a.prID(id)
			if err != nil {
				return err
			}
			provider, err := a.provider(ctx)
			if err != nil {
				return err
			}

			if err := provider.SubmitReview(ctx, prID, pr.Review{Decision: decision, Body: message}); err != nil {
				return err
			}
			if !a.jsonOut {
				a.success("Review submitted on #%d: %s", prID, decision)
			}

			res, err := a.engine.ReviewDecisionMade(ctx, string(decision))
			if err != nil {
				return err
			}
			return a.reportEvent(ctx, workflow.EventPRDecisionMade, res, map[string]any{"pr_id": prID, "decision": decision})
		},
	}
	cmd.Flags().StringVarP(&message, "message", "m", "", "Review body (required unless approving)")
	cmd.Flags().IntVar(&id, "id", 0, "Pull request number (default: from the workflow)")
	return cmd
}
