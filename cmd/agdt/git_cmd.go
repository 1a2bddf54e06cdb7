package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/agdt/git"
	"github.com/randalmurphal/agdt/workflow"
)

func newGitCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "git",
		Short: "Branch, commit and push for the active workflow",
	}
	cmd.AddCommand(
		newGitBranchCmd(a),
		newGitCommitCmd(a),
		newGitPushCmd(a),
	)
	return cmd
}

func newGitBranchCmd(a *app) *cobra.Command {
	var prefix string

	cmd := &cobra.Command{
		Use:   "branch [issue-key]",
		Short: "Create and check out a branch named after the Jira issue",
		Long: `Create and check out a branch named after the Jira issue, such as
feature/proj-123-fix-login. Bugs get the bugfix/ prefix. The issue key and
summary default to the active workflow's context.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			key := a.contextString(workflow.KeyIssueKey)
			if len(args) == 1 {
				key = args[0]
			}
			if key == "" {
				return errors.New("no issue key given and none in the workflow context")
			}

			namer := git.DefaultBranchNamer()
			if prefix != "" {
				namer.Prefix = prefix
			}
			name := namer.ForIssueType(
				a.contextString(workflow.KeyJiraIssueType),
				key,
				a.contextString(workflow.KeyJiraSummary),
			)

			repo, err := a.repo(ctx)
			if err != nil {
				return err
			}
			if repo.BranchExists(ctx, name) {
				err = repo.Checkout(ctx, name)
			} else {
				err = repo.CreateBranch(ctx, name)
			}
			if err != nil {
				return err
			}

			if a.jsonOut {
				return a.printJSON(map[string]string{"branch": name})
			}
			a.success("On branch %s", name)
			return nil
		},
	}
	cmd.Flags().StringVar(&prefix, "prefix", "", "Branch prefix (default feature, or bugfix for bugs)")
	return cmd
}

type commitFlags struct {
	message    string
	body       string
	commitType string
	scope      string
	issue      string
	noPush     bool
	foreground bool
}

// argv rebuilds the flags for the background process.
func (f commitFlags) argv() []string {
	args := []string{"git", "commit", "--foreground", "--message", f.message}
	if f.body != "" {
		args = append(args, "--body", f.body)
	}
	if f.commitType != "" {
		args = append(args, "--type", f.commitType)
	}
	if f.scope != "" {
		args = append(args, "--scope", f.scope)
	}
	if f.issue != "" {
		args = append(args, "--issue", f.issue)
	}
	if f.noPush {
		args = append(args, "--no-push")
	}
	return args
}

func newGitCommitCmd(a *app) *cobra.Command {
	var f commitFlags

	cmd := &cobra.Command{
		Use:   "commit",
		Short: "Commit all changes and push, as a background task",
		Long: `Stage everything, commit and push the current branch.

By default the work runs as the background task agdt-git-commit and the
workflow moves on once it succeeds; run 'agdt workflow next' to check.
--foreground runs it in this process without touching the workflow.`,
		Example: `  agdt git commit -m "Fix login race"
  agdt git commit -m "add export" --type feat --scope api --no-push`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			repo, err := a.repo(ctx)
			if err != nil {
				return err
			}

			if f.issue == "" {
				f.issue = a.contextString(workflow.KeyIssueKey)
			}
			if f.issue == "" {
				if branch, err := repo.CurrentBranch(ctx); err == nil {
					f.issue = git.IssueKeyFromBranch(branch)
				}
			}

			msg := git.NewCommitMessage(f.message).WithBody(f.body).WithIssue(f.issue)
			if f.commitType != "" {
				msg.WithType(git.CommitType(f.commitType), f.scope)
			}
			if err := msg.Validate(); err != nil {
				return err
			}

			if f.foreground {
				return a.commitForeground(cmd, repo, msg, !f.noPush)
			}

			branch, err := repo.CurrentBranch(ctx)
			if err != nil {
				return err
			}
			argv, err := a.selfArgv(f.argv()...)
			if err != nil {
				return err
			}
			t, err := a.runner.Launch(ctx, workflow.TaskGitCommit, argv...)
			if err != nil {
				return err
			}
			if !a.jsonOut {
				a.success("Commit running as background task %s", t.ShortID())
			}

			res, err := a.engine.CommitCreated(ctx, branch, t.ID)
			if err != nil {
				return err
			}
			return a.reportEvent(ctx, workflow.EventGitCommitCreated, res, map[string]string{"task_id": t.ID, "branch": branch})
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&f.message, "message", "m", "", "Commit subject")
	flags.StringVar(&f.body, "body", "", "Commit body")
	flags.StringVar(&f.commitType, "type", "", "Conventional commit type (feat, fix, docs, refactor, test, chore)")
	flags.StringVar(&f.scope, "scope", "", "Conventional commit scope")
	flags.StringVar(&f.issue, "issue", "", "Issue key for the Refs trailer (default: workflow issue or branch name)")
	flags.BoolVar(&f.noPush, "no-push", false, "Commit without pushing")
	flags.BoolVar(&f.foreground, "foreground", false, "Run in this process and skip the workflow event")
	_ = cmd.MarkFlagRequired("message")
	return cmd
}

func (a *app) commitForeground(cmd *cobra.Command, repo *git.Repo, msg *git.CommitMessage, push bool) error {
	ctx := cmd.Context()
	commit, err := repo.CommitAll(ctx, msg.String())
	if err != nil {
		return err
	}

	var pushed *git.PushResult
	if push {
		pushed, err = repo.PushCurrent(ctx, a.settings.GitRemote)
		if err != nil {
			return fmt.Errorf("committed %s but push failed: %w", shortSHA(commit.SHA), err)
		}
	}

	if a.jsonOut {
		return a.printJSON(map[string]any{"commit": commit, "push": pushed})
	}
	a.success("Committed %s on %s", shortSHA(commit.SHA), commit.Branch)
	if pushed != nil {
		a.success("Pushed %s to %s", pushed.Branch, pushed.Remote)
	}
	return nil
}

func newGitPushCmd(a *app) *cobra.Command {
	var remote string

	cmd := &cobra.Command{
		Use:   "push",
		Short: "Push the current branch, setting upstream on first push",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			repo, err := a.repo(ctx)
			if err != nil {
				return err
			}
			if remote == "" {
				remote = a.settings.GitRemote
			}

			res, err := repo.PushCurrent(ctx, remote)
			if err != nil {
				return err
			}
			if a.jsonOut {
				return a.printJSON(res)
			}
			a.success("Pushed %s to %s", res.Branch, res.Remote)
			return nil
		},
	}
	cmd.Flags().StringVar(&remote, "remote", "", "Remote to push to (default: git_remote setting)")
	return cmd
}

func shortSHA(sha string) string {
	if len(sha) > 7 {
		return sha[:7]
	}
	return sha
}
