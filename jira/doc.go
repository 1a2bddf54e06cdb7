// Package jira is the slice of the Jira REST API agdt needs: fetching an
// issue, reading its comments and posting a comment.
//
// Jira Cloud (API v3) speaks Atlassian Document Format for rich text and
// Jira Server/Data Center (API v2) speaks wiki markup. Both are converted
// to and from Markdown, which is what agents read and write:
//
//	client, err := jira.NewClient(&jira.Config{
//		URL:      "https://example.atlassian.net",
//		AuthType: jira.AuthAPIToken,
//		Email:    "dev@example.com",
//		Token:    token,
//	})
//	issue, err := client.GetIssue(ctx, "AB-123")
//	md, err := issue.DescriptionMarkdown()
//
// Transport errors come from the agdt http package; use errors.Is with
// its sentinels, or IsNotFound here.
package jira
