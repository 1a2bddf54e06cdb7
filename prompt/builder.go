package prompt

import (
	"fmt"
	"strings"
)

// Builder assembles the short Markdown messages the engine prints when no
// template applies. Blocks are separated by a blank line.
type Builder struct {
	blocks []string
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Text appends a paragraph.
func (b *Builder) Text(s string) *Builder {
	b.blocks = append(b.blocks, s)
	return b
}

// Textf appends a formatted paragraph.
func (b *Builder) Textf(format string, args ...any) *Builder {
	return b.Text(fmt.Sprintf(format, args...))
}

// Bullets appends items as a list, under a level two heading when title
// is set. An empty list appends nothing.
func (b *Builder) Bullets(title string, items ...string) *Builder {
	if len(items) == 0 {
		return b
	}
	if title != "" {
		b.blocks = append(b.blocks, "## "+title)
	}
	b.blocks = append(b.blocks, "- "+strings.Join(items, "\n- "))
	return b
}

func (b *Builder) String() string {
	return strings.Join(b.blocks, "\n\n")
}
