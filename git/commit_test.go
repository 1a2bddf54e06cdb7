package git

import (
	"errors"
	"strings"
	"testing"
)

func TestCommitMessageString(t *testing.T) {
	tests := []struct {
		name string
		msg  *CommitMessage
		want string
	}{
		{
			name: "plain with issue",
			msg:  NewCommitMessage("Fix login race").WithIssue("PROJ-1"),
			want: "Fix login race\n\nRefs: PROJ-1\nGenerated-By: agdt",
		},
		{
			name: "conventional with scope and body",
			msg: NewCommitMessage("add export").
				WithType(CommitTypeFeat, "api").
				WithBody("Exports as CSV.").
				WithoutGeneratedBy(),
			want: "feat(api): add export\n\nExports as CSV.",
		},
		{
			name: "duplicate and empty issues ignored",
			msg:  NewCommitMessage("x").WithIssue("A-1").WithIssue("").WithIssue("A-1").WithIssue("B-2").WithoutGeneratedBy(),
			want: "x\n\nRefs: A-1\nRefs: B-2",
		},
		{
			name: "subject only",
			msg:  NewCommitMessage("  tidy  ").WithoutGeneratedBy(),
			want: "tidy",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.msg.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCommitMessageWrapsBody(t *testing.T) {
	body := strings.Repeat("word ", 30)
	got := NewCommitMessage("s").WithBody(body).WithoutGeneratedBy().String()

	for _, line := range strings.Split(got, "\n") {
		if len(line) > 72 {
			t.Errorf("line longer than 72: %q", line)
		}
	}
}

func TestCommitMessageValidate(t *testing.T) {
	if err := NewCommitMessage("ok").Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
	if err := NewCommitMessage("").Validate(); !errors.Is(err, ErrEmptyMessage) {
		t.Errorf("empty subject: %v", err)
	}
	if err := NewCommitMessage("a\nb").Validate(); err == nil {
		t.Error("multi-line subject accepted")
	}
	if err := NewCommitMessage(strings.Repeat("x", MaxSubjectLen+1)).Validate(); err == nil {
		t.Error("long subject accepted")
	}
}
