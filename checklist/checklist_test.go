package checklist

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	c, err := New("write tests", "  ", "implement parser")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if len(c.Items) != 2 {
		t.Fatalf("len(Items) = %d, want 2", len(c.Items))
	}
	if c.Items[0].ID != 1 || c.Items[1].ID != 2 {
		t.Errorf("IDs = %d, %d", c.Items[0].ID, c.Items[1].ID)
	}

	if _, err := New(); !errors.Is(err, ErrEmpty) {
		t.Errorf("New() with no items error = %v, want ErrEmpty", err)
	}
}

func TestParse(t *testing.T) {
	input := `
- [ ] add endpoint
* [x] update schema
3. write docs
plain line
`
	c, err := Parse(input)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	want := []Item{
		{ID: 1, Text: "add endpoint"},
		{ID: 2, Text: "update schema", Done: true},
		{ID: 3, Text: "write docs"},
		{ID: 4, Text: "plain line"},
	}
	if len(c.Items) != len(want) {
		t.Fatalf("Items = %+v", c.Items)
	}
	for i := range want {
		if c.Items[i] != want[i] {
			t.Errorf("Items[%d] = %+v, want %+v", i, c.Items[i], want[i])
		}
	}
}

func TestParseMarkdownOutput(t *testing.T) {
	orig, _ := New("add endpoint", "write tests")
	_ = orig.Complete(2)

	c, err := Parse(orig.Markdown())
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(c.Items) != 2 || c.Items[0] != orig.Items[0] || c.Items[1] != orig.Items[1] {
		t.Errorf("Items = %+v, want %+v", c.Items, orig.Items)
	}
}

func TestComplete(t *testing.T) {
	c, _ := New("a", "b", "c")

	if err := c.Complete(1, 3); err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if c.IsComplete() {
		t.Error("IsComplete() = true with item 2 open")
	}
	if done, total := c.Progress(); done != 2 || total != 3 {
		t.Errorf("Progress() = %d/%d", done, total)
	}

	if err := c.Complete(2, 9); !errors.Is(err, ErrUnknownItem) {
		t.Errorf("Complete(9) error = %v, want ErrUnknownItem", err)
	}
	if c.Items[1].Done {
		t.Error("failed Complete() must not mark any item")
	}

	if err := c.Complete(2); err != nil {
		t.Fatal(err)
	}
	if !c.IsComplete() || len(c.Remaining()) != 0 {
		t.Error("checklist should be complete")
	}
}

func TestIsComplete_Empty(t *testing.T) {
	if (&Checklist{}).IsComplete() {
		t.Error("empty checklist must not count as complete")
	}
}

func TestMarkdown(t *testing.T) {
	c, _ := New("a", "b")
	_ = c.Complete(2)

	got := c.Markdown()
	if !strings.Contains(got, "- [ ] 1. a") || !strings.Contains(got, "- [x] 2. b") {
		t.Errorf("Markdown() = %q", got)
	}
}

func TestContextRoundTrip(t *testing.T) {
	c, _ := New("a", "b")
	_ = c.Complete(1)

	// Simulate persistence: numbers come back as float64.
	data, err := json.Marshal(c.ContextValue())
	if err != nil {
		t.Fatal(err)
	}
	var generic any
	if err := json.Unmarshal(data, &generic); err != nil {
		t.Fatal(err)
	}

	back, err := FromContext(generic)
	if err != nil {
		t.Fatalf("FromContext() error = %v", err)
	}
	if len(back.Items) != 2 || !back.Items[0].Done || back.Items[1].ID != 2 {
		t.Errorf("round trip = %+v", back.Items)
	}

	if none, err := FromContext(nil); none != nil || err != nil {
		t.Errorf("FromContext(nil) = %v, %v", none, err)
	}
}
