// Package checklist models the implementation checklist an agent works
// through while implementing an issue.
//
// A checklist is stored in the workflow context under the "checklist" key
// and always replaced as a whole.
package checklist

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ContextKey is the workflow context key holding the checklist.
const ContextKey = "checklist"

var (
	// ErrEmpty indicates a checklist was created without items.
	ErrEmpty = errors.New("checklist has no items")

	// ErrUnknownItem indicates an item ID that is not on the checklist.
	ErrUnknownItem = errors.New("unknown checklist item")
)

// Item is one checklist entry. IDs start at 1.
type Item struct {
	ID   int    `json:"id"`
	Text string `json:"text"`
	Done bool   `json:"done"`
}

// Checklist is an ordered list of items.
type Checklist struct {
	Items []Item `json:"items"`
}

// New creates a checklist from item texts. Blank texts are skipped.
func New(texts ...string) (*Checklist, error) {
	c := &Checklist{}
	for _, text := range texts {
		c.Add(text)
	}
	if len(c.Items) == 0 {
		return nil, ErrEmpty
	}
	return c, nil
}

// Parse builds a checklist from markdown-ish text: one item per line,
// with optional "-", "*", "1." or "[ ]" / "[x]" prefixes.
func Parse(text string) (*Checklist, error) {
	c := &Checklist{}
	for _, line := range strings.Split(text, "\n") {
		item, done := parseLine(line)
		if item == "" {
			continue
		}
		c.Add(item)
		c.Items[len(c.Items)-1].Done = done
	}
	if len(c.Items) == 0 {
		return nil, ErrEmpty
	}
	return c, nil
}

func parseLine(line string) (string, bool) {
	line = strings.TrimSpace(line)
	for _, bullet := range []string{"- ", "* ", "+ "} {
		line = strings.TrimPrefix(line, bullet)
	}
	line = trimNumber(line)

	done := false
	switch {
	case strings.HasPrefix(line, "[ ]"):
		line = line[3:]
	case strings.HasPrefix(line, "[x]"), strings.HasPrefix(line, "[X]"):
		line = line[3:]
		done = true
	}
	// Markdown output puts the number after the box.
	return trimNumber(strings.TrimSpace(line)), done
}

func trimNumber(line string) string {
	if i := strings.Index(line, ". "); i > 0 && isDigits(line[:i]) {
		return strings.TrimSpace(line[i+2:])
	}
	return line
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

// Add appends an item and returns its ID. Blank text is ignored and
// returns 0.
func (c *Checklist) Add(text string) int {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0
	}
	id := 1
	for _, item := range c.Items {
		if item.ID >= id {
			id = item.ID + 1
		}
	}
	c.Items = append(c.Items, Item{ID: id, Text: text})
	return id
}

// Complete marks items done. Unknown IDs fail the whole call and leave
// the checklist unchanged.
func (c *Checklist) Complete(ids ...int) error {
	index := make(map[int]int, len(c.Items))
	for i, item := range c.Items {
		index[item.ID] = i
	}
	for _, id := range ids {
		if _, ok := index[id]; !ok {
			return fmt.Errorf("%w: %d", ErrUnknownItem, id)
		}
	}
	for _, id := range ids {
		c.Items[index[id]].Done = true
	}
	return nil
}

// IsComplete reports whether every item is done.
func (c *Checklist) IsComplete() bool {
	if len(c.Items) == 0 {
		return false
	}
	for _, item := range c.Items {
		if !item.Done {
			return false
		}
	}
	return true
}

// Remaining returns the items not yet done.
func (c *Checklist) Remaining() []Item {
	var out []Item
	for _, item := range c.Items {
		if !item.Done {
			out = append(out, item)
		}
	}
	return out
}

// Progress returns the number of done items and the total.
func (c *Checklist) Progress() (done, total int) {
	for _, item := range c.Items {
		if item.Done {
			done++
		}
	}
	return done, len(c.Items)
}

// Markdown renders the checklist as a task list.
func (c *Checklist) Markdown() string {
	var b strings.Builder
	for _, item := range c.Items {
		mark := " "
		if item.Done {
			mark = "x"
		}
		fmt.Fprintf(&b, "- [%s] %d. %s\n", mark, item.ID, item.Text)
	}
	return b.String()
}

// ContextValue returns the checklist in the generic form stored in the
// workflow context.
func (c *Checklist) ContextValue() map[string]any {
	items := make([]any, 0, len(c.Items))
	for _, item := range c.Items {
		items = append(items, map[string]any{
			"id":   item.ID,
			"text": item.Text,
			"done": item.Done,
		})
	}
	return map[string]any{"items": items}
}

// FromContext decodes a checklist previously stored with ContextValue.
// It returns nil when v is nil.
func FromContext(v any) (*Checklist, error) {
	if v == nil {
		return nil, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode checklist: %w", err)
	}
	var c Checklist
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decode checklist: %w", err)
	}
	return &c, nil
}
