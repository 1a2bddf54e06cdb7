package git

import (
	"fmt"
	"strings"
)

// CommitType is a conventional commit type.
type CommitType string

const (
	CommitTypeFeat     CommitType = "feat"
	CommitTypeFix      CommitType = "fix"
	CommitTypeDocs     CommitType = "docs"
	CommitTypeRefactor CommitType = "refactor"
	CommitTypeTest     CommitType = "test"
	CommitTypeChore    CommitType = "chore"
)

// MaxSubjectLen is the longest subject line Validate accepts.
const MaxSubjectLen = 100

// CommitMessage builds a commit message. Type and Scope are optional; when
// Type is set the subject line follows conventional commits.
type CommitMessage struct {
	Type        CommitType
	Scope       string
	Subject     string
	Body        string
	Issues      []string // rendered as "Refs:" trailers
	GeneratedBy string
}

// NewCommitMessage starts a message carrying the agdt trailer.
func NewCommitMessage(subject string) *CommitMessage {
	return &CommitMessage{Subject: strings.TrimSpace(subject), GeneratedBy: "agdt"}
}

func (c *CommitMessage) WithType(t CommitType, scope string) *CommitMessage {
	c.Type, c.Scope = t, scope
	return c
}

func (c *CommitMessage) WithBody(body string) *CommitMessage {
	c.Body = strings.TrimSpace(body)
	return c
}

// WithIssue adds an issue reference. Empty and repeated keys are ignored.
func (c *CommitMessage) WithIssue(key string) *CommitMessage {
	if key == "" {
		return c
	}
	for _, existing := range c.Issues {
		if existing == key {
			return c
		}
	}
	c.Issues = append(c.Issues, key)
	return c
}

func (c *CommitMessage) WithoutGeneratedBy() *CommitMessage {
	c.GeneratedBy = ""
	return c
}

// String renders subject, wrapped body and trailers.
func (c *CommitMessage) String() string {
	var b strings.Builder

	if c.Type != "" {
		b.WriteString(string(c.Type))
		if c.Scope != "" {
			fmt.Fprintf(&b, "(%s)", c.Scope)
		}
		b.WriteString(": ")
	}
	b.WriteString(c.Subject)

	if c.Body != "" {
		b.WriteString("\n\n")
		b.WriteString(wrapText(c.Body, 72))
	}

	var trailers []string
	for _, key := range c.Issues {
		trailers = append(trailers, "Refs: "+key)
	}
	if c.GeneratedBy != "" {
		trailers = append(trailers, "Generated-By: "+c.GeneratedBy)
	}
	if len(trailers) > 0 {
		b.WriteString("\n\n")
		b.WriteString(strings.Join(trailers, "\n"))
	}
	return b.String()
}

// Validate checks the subject line.
func (c *CommitMessage) Validate() error {
	if c.Subject == "" {
		return ErrEmptyMessage
	}
	if strings.Contains(c.Subject, "\n") {
		return fmt.Errorf("commit subject must be a single line")
	}
	if len(c.Subject) > MaxSubjectLen {
		return fmt.Errorf("commit subject too long (%d > %d characters)", len(c.Subject), MaxSubjectLen)
	}
	return nil
}

// wrapText wraps lines longer than width at word boundaries, keeping
// existing line breaks.
func wrapText(text string, width int) string {
	var out []string
	for _, paragraph := range strings.Split(text, "\n") {
		if len(paragraph) <= width {
			out = append(out, paragraph)
			continue
		}

		var line string
		for _, word := range strings.Fields(paragraph) {
			switch {
			case line == "":
				line = word
			case len(line)+1+len(word) > width:
				out = append(out, line)
				line = word
			default:
				line += " " + word
			}
		}
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}
