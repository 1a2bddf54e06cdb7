package main

import (
	"errors"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/agdt/jira"
	"github.com/randalmurphal/agdt/workflow"
)

func newJiraCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jira",
		Short: "Fetch and comment on Jira issues",
	}
	cmd.AddCommand(
		newJiraGetIssueCmd(a),
		newJiraCommentCmd(a),
	)
	return cmd
}

// issueKeyArg returns the key argument, or the active workflow's issue.
func (a *app) issueKeyArg(args []string) (string, error) {
	if len(args) > 0 {
		return strings.ToUpper(args[0]), nil
	}
	if key := a.contextString(workflow.KeyIssueKey); key != "" {
		return key, nil
	}
	return "", errors.New("no issue key given and none in the workflow context")
}

type issueView struct {
	Key         string        `json:"key"`
	URL         string        `json:"url"`
	Summary     string        `json:"summary"`
	Type        string        `json:"type,omitempty"`
	Status      string        `json:"status,omitempty"`
	Labels      []string      `json:"labels,omitempty"`
	Description string        `json:"description,omitempty"`
	Comments    []commentView `json:"comments,omitempty"`
}

type commentView struct {
	ID     string `json:"id"`
	Author string `json:"author,omitempty"`
	Body   string `json:"body"`
}

func newJiraGetIssueCmd(a *app) *cobra.Command {
	var withComments bool

	cmd := &cobra.Command{
		Use:   "get-issue [issue-key]",
		Short: "Fetch an issue and record it in the workflow",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			key, err := a.issueKeyArg(args)
			if err != nil {
				return err
			}
			client, err := a.jira()
			if err != nil {
				return err
			}

			issue, err := client.GetIssue(ctx, key)
			if err != nil {
				return err
			}
			view := newIssueView(client, issue)

			if withComments {
				comments, err := client.GetComments(ctx, key)
				if err != nil {
					return err
				}
				for _, c := range comments {
					body, _ := c.BodyMarkdown()
					cv := commentView{ID: c.ID, Body: body}
					if c.Author != nil {
						cv.Author = c.Author.DisplayName
					}
					view.Comments = append(view.Comments, cv)
				}
			}

			if !a.jsonOut {
				a.printIssue(view)
			}
			res, err := a.engine.JiraIssueRetrieved(ctx, issue)
			if err != nil {
				return err
			}
			return a.reportEvent(ctx, workflow.EventJiraIssueRetrieved, res, view)
		},
	}
	cmd.Flags().BoolVar(&withComments, "comments", false, "Include the issue's comments")
	return cmd
}

func newIssueView(client *jira.Client, issue *jira.Issue) issueView {
	description, _ := issue.DescriptionMarkdown()
	view := issueView{
		Key:         issue.Key,
		URL:         client.IssueURL(issue.Key),
		Summary:     issue.Fields.Summary,
		Labels:      issue.Fields.Labels,
		Description: description,
	}
	if issue.Fields.IssueType != nil {
		view.Type = issue.Fields.IssueType.Name
	}
	if issue.Fields.Status != nil {
		view.Status = issue.Fields.Status.Name
	}
	return view
}

func (a *app) printIssue(v issueView) {
	a.printf("%s %s\n", a.heading(v.Key), v.Summary)
	a.printf("%s\n", a.dim(v.URL))
	if v.Type != "" || v.Status != "" {
		a.printf("%s · %s\n", v.Type, v.Status)
	}
	if len(v.Labels) > 0 {
		a.printf("Labels: %s\n", strings.Join(v.Labels, ", "))
	}
	if v.Description != "" {
		a.printf("\n%s\n", strings.TrimRight(v.Description, "\n"))
	}
	for _, c := range v.Comments {
		a.printf("\n%s\n%s\n", a.heading("Comment by "+c.Author), strings.TrimRight(c.Body, "\n"))
	}
	a.printf("\n")
}

func newJiraCommentCmd(a *app) *cobra.Command {
	var (
		message string
		file    string
	)

	cmd := &cobra.Command{
		Use:   "comment [issue-key]",
		Short: "Post a Markdown comment and record it in the workflow",
		Example: `  agdt jira comment -m "## Plan\n- step one"
  agdt jira comment PROJ-1 --file plan.md
  cat plan.md | agdt jira comment --file -`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			key, err := a.issueKeyArg(args)
			if err != nil {
				return err
			}
			body, err := readBody(cmd.InOrStdin(), message, file)
			if err != nil {
				return err
			}
			client, err := a.jira()
			if err != nil {
				return err
			}

			comment, err := client.AddComment(ctx, key, body)
			if err != nil {
				return err
			}
			if !a.jsonOut {
				a.success("Comment %s added to %s", comment.ID, key)
			}

			res, err := a.engine.JiraCommentAdded(ctx, key, comment.ID)
			if err != nil {
				return err
			}
			return a.reportEvent(ctx, workflow.EventJiraCommentAdded, res, map[string]string{"issue_key": key, "comment_id": comment.ID})
		},
	}
	cmd.Flags().StringVarP(&message, "message", "m", "", "Comment text (Markdown)")
	cmd.Flags().StringVarP(&file, "file", "f", "", "Read the comment from a file, or - for stdin")
	cmd.MarkFlagsMutuallyExclusive("message", "file")
	return cmd
}

// readBody returns message, or the contents of file ("-" reads stdin).
func readBody(stdin io.Reader, message, file string) (string, error) {
	switch {
	case message != "":
		return message, nil
	case file == "-":
		data, err := io.ReadAll(stdin)
		return string(data), err
	case file != "":
		data, err := os.ReadFile(file)
		return string(data), err
	}
	return "", errors.New("provide --message or --file")
}
