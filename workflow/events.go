package workflow

import (
	"fmt"
	"strings"
)

// Event is an occurrence that may trigger a transition. The set of events
// is closed: only the constants below are valid.
type Event uint8

// Workflow events. The zero value is not a valid event.
const (
	EventJiraIssueRetrieved Event = iota + 1
	EventJiraCommentAdded
	EventChecklistCreated
	EventChecklistUpdated
	EventChecklistComplete
	EventImplementationReviewed
	EventVerificationComplete
	EventGitCommitCreated
	EventPRCreated
	EventPRDetailsRetrieved
	EventPRReviewed
	EventPRFilesReviewed
	EventPRSummaryPosted
	EventPRDecisionMade
	EventManualAdvance

	eventSentinel
)

var eventNames = [...]string{
	EventJiraIssueRetrieved:     "JIRA_ISSUE_RETRIEVED",
	EventJiraCommentAdded:       "JIRA_COMMENT_ADDED",
	EventChecklistCreated:       "CHECKLIST_CREATED",
	EventChecklistUpdated:       "CHECKLIST_UPDATED",
	EventChecklistComplete:      "CHECKLIST_COMPLETE",
	EventImplementationReviewed: "IMPLEMENTATION_REVIEWED",
	EventVerificationComplete:   "VERIFICATION_COMPLETE",
	EventGitCommitCreated:       "GIT_COMMIT_CREATED",
	EventPRCreated:              "PR_CREATED",
	EventPRDetailsRetrieved:     "PR_DETAILS_RETRIEVED",
	EventPRReviewed:             "PR_REVIEWED",
	EventPRFilesReviewed:        "PR_FILES_REVIEWED",
	EventPRSummaryPosted:        "PR_SUMMARY_POSTED",
	EventPRDecisionMade:         "PR_DECISION_MADE",
	EventManualAdvance:          "MANUAL_ADVANCE",
}

// Valid reports whether e is one of the declared events.
func (e Event) Valid() bool {
	return e > 0 && e < eventSentinel
}

func (e Event) String() string {
	if !e.Valid() {
		return fmt.Sprintf("Event(%d)", uint8(e))
	}
	return eventNames[e]
}

// ParseEvent returns the event with the given name. Matching ignores case
// and accepts '-' for '_'.
func ParseEvent(name string) (Event, error) {
	normalized := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(name), "-", "_"))
	for e := Event(1); e < eventSentinel; e++ {
		if eventNames[e] == normalized {
			return e, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownEvent, name)
}

// Events returns every valid event in declaration order.
func Events() []Event {
	out := make([]Event, 0, int(eventSentinel)-1)
	for e := Event(1); e < eventSentinel; e++ {
		out = append(out, e)
	}
	return out
}

// MarshalText implements encoding.TextMarshaler.
func (e Event) MarshalText() ([]byte, error) {
	if !e.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownEvent, uint8(e))
	}
	return []byte(e.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (e *Event) UnmarshalText(text []byte) error {
	parsed, err := ParseEvent(string(text))
	if err != nil {
		return err
	}
	*e = parsed
	return nil
}
