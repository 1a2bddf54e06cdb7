package jira

import (
	"regexp"
	"time"
)

// TimeFormat is the timestamp layout Jira returns.
const TimeFormat = "2006-01-02T15:04:05.000-0700"

// Issue is a Jira issue with the fields agdt reads.
type Issue struct {
	ID     string      `json:"id"`
	Key    string      `json:"key"`
	Self   string      `json:"self,omitempty"`
	Fields IssueFields `json:"fields"`
}

// IssueFields holds the standard issue fields.
type IssueFields struct {
	Summary     string     `json:"summary"`
	Description any        `json:"description,omitempty"` // ADF (v3) or wiki string (v2)
	Status      *Status    `json:"status,omitempty"`
	Priority    *Priority  `json:"priority,omitempty"`
	IssueType   *IssueType `json:"issuetype,omitempty"`
	Project     *Project   `json:"project,omitempty"`
	Assignee    *User      `json:"assignee,omitempty"`
	Reporter    *User      `json:"reporter,omitempty"`
	Labels      []string   `json:"labels,omitempty"`
	Created     string     `json:"created,omitempty"`
	Updated     string     `json:"updated,omitempty"`
}

// DescriptionMarkdown returns the description as Markdown, whichever API
// version produced it.
func (i *Issue) DescriptionMarkdown() (string, error) {
	return richTextToMarkdown(i.Fields.Description)
}

// User is a Jira account. Cloud identifies users by AccountID, Server by
// Name.
type User struct {
	AccountID    string `json:"accountId,omitempty"`
	Name         string `json:"name,omitempty"`
	EmailAddress string `json:"emailAddress,omitempty"`
	DisplayName  string `json:"displayName"`
}

// GetID returns AccountID on Cloud and Name on Server.
func (u *User) GetID() string {
	if u.AccountID != "" {
		return u.AccountID
	}
	return u.Name
}

// Status is an issue's workflow status.
type Status struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Priority is an issue priority.
type Priority struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// IssueType is an issue's type, e.g. Bug or Story.
type IssueType struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Subtask bool   `json:"subtask"`
}

// Project is the project an issue belongs to.
type Project struct {
	ID   string `json:"id"`
	Key  string `json:"key"`
	Name string `json:"name"`
}

// Comment is a comment on an issue.
type Comment struct {
	ID      string `json:"id"`
	Author  *User  `json:"author,omitempty"`
	Body    any    `json:"body"` // ADF (v3) or wiki string (v2)
	Created string `json:"created"`
	Updated string `json:"updated,omitempty"`
}

// BodyMarkdown returns the comment body as Markdown.
func (c *Comment) BodyMarkdown() (string, error) {
	return richTextToMarkdown(c.Body)
}

// CreatedTime parses Created.
func (c *Comment) CreatedTime() (time.Time, error) {
	return ParseTime(c.Created)
}

type commentPage struct {
	StartAt    int       `json:"startAt"`
	MaxResults int       `json:"maxResults"`
	Total      int       `json:"total"`
	Comments   []Comment `json:"comments"`
}

type addCommentRequest struct {
	Body any `json:"body"`
}

var issueKeyPattern = regexp.MustCompile(`^[A-Z][A-Z0-9_]*-[1-9][0-9]*$`)

// ValidateIssueKey reports whether key looks like PROJ-123.
func ValidateIssueKey(key string) bool {
	return issueKeyPattern.MatchString(key)
}

// ParseTime parses a Jira timestamp. The empty string is the zero time.
func ParseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}

	var firstErr error
	for _, layout := range []string{TimeFormat, "2006-01-02T15:04:05.000Z07:00", time.RFC3339} {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return time.Time{}, firstErr
}
