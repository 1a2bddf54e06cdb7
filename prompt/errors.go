package prompt

import (
	"errors"
	"fmt"
	"strings"
)

// ErrTemplateNotFound is matched by errors.Is for every NotFoundError.
var ErrTemplateNotFound = errors.New("prompt template not found")

// NotFoundError reports a missing template and every location searched.
type NotFoundError struct {
	Name     string   // template name, e.g. "work-on-jira-issue/planning"
	Searched []string // paths checked, embedded defaults last
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("prompt template %s not found (searched: %s)", e.Name, strings.Join(e.Searched, ", "))
}

// Is reports whether target is ErrTemplateNotFound.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrTemplateNotFound
}
