package workflow

import (
	"fmt"
	"slices"
)

// Transition moves a workflow from one step to another when one of its
// trigger events arrives.
type Transition struct {
	From     string
	To       string
	Triggers []Event

	// RequiredTasks names background commands that must finish before the
	// transition is applied. Empty means apply immediately.
	RequiredTasks []string

	// AutoAdvance applies the transition as soon as it matches and its
	// tasks allow. When false the transition is always parked as pending
	// and only applied by the next Resolve, which acts as a manual gate.
	AutoAdvance bool
}

// On declares a transition from one step to another, triggered by any of
// the given events. The transition auto-advances.
func On(from, to string, triggers ...Event) Transition {
	return Transition{
		From:        from,
		To:          to,
		Triggers:    triggers,
		AutoAdvance: true,
	}
}

// Requires returns a copy of t that waits for the named background tasks.
func (t Transition) Requires(tasks ...string) Transition {
	t.RequiredTasks = append(slices.Clone(t.RequiredTasks), tasks...)
	return t
}

// Gated returns a copy of t that never auto-advances.
func (t Transition) Gated() Transition {
	t.AutoAdvance = false
	return t
}

// TriggeredBy reports whether e is one of the transition's triggers.
func (t *Transition) TriggeredBy(e Event) bool {
	return slices.Contains(t.Triggers, e)
}

// IsSelfLoop reports whether the transition stays on its step.
func (t *Transition) IsSelfLoop() bool {
	return t.From == t.To
}

// Definition is a named, validated set of transitions.
type Definition struct {
	Name        string
	Description string
	InitialStep string
	Transitions []Transition

	steps []string
}

// NewDefinition validates and builds a definition.
//
// Every transition must start from a declared step (the initial step or
// some transition's target), name at least one valid trigger, and no two
// transitions may share a (from, event) pair.
func NewDefinition(name, initialStep string, transitions ...Transition) (*Definition, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidDefinition)
	}
	if initialStep == "" {
		return nil, fmt.Errorf("%w: %s: initial step is required", ErrInvalidDefinition, name)
	}

	d := &Definition{
		Name:        name,
		InitialStep: initialStep,
		Transitions: slices.Clone(transitions),
	}

	// Declared steps are the initial step and every transition target.
	d.steps = []string{initialStep}
	declared := map[string]bool{initialStep: true}
	for _, t := range d.Transitions {
		if t.To != "" && !declared[t.To] {
			declared[t.To] = true
			d.steps = append(d.steps, t.To)
		}
	}

	type key struct {
		from  string
		event Event
	}
	seen := make(map[key]int)

	for i, t := range d.Transitions {
		if t.From == "" || t.To == "" {
			return nil, fmt.Errorf("%w: %s: transition %d has an empty step", ErrInvalidDefinition, name, i)
		}
		if !declared[t.From] {
			return nil, fmt.Errorf("%w: %s: transition from undeclared step %q", ErrInvalidDefinition, name, t.From)
		}
		if len(t.Triggers) == 0 {
			return nil, fmt.Errorf("%w: %s: transition %s -> %s has no triggers", ErrInvalidDefinition, name, t.From, t.To)
		}
		for _, task := range t.RequiredTasks {
			if task == "" {
				return nil, fmt.Errorf("%w: %s: transition %s -> %s has an empty required task", ErrInvalidDefinition, name, t.From, t.To)
			}
		}
		for _, e := range t.Triggers {
			if !e.Valid() {
				return nil, fmt.Errorf("%w: %s: transition %s -> %s: %v", ErrInvalidDefinition, name, t.From, t.To, e)
			}
			k := key{t.From, e}
			if prev, dup := seen[k]; dup {
				return nil, fmt.Errorf("%w: %s: %s on %s is declared by transitions %d and %d",
					ErrDuplicateTransition, name, t.From, e, prev, i)
			}
			seen[k] = i
		}
	}

	return d, nil
}

// MustDefinition is like NewDefinition but panics on error.
// It is meant for static definition tables.
func MustDefinition(name, initialStep string, transitions ...Transition) *Definition {
	d, err := NewDefinition(name, initialStep, transitions...)
	if err != nil {
		panic(err)
	}
	return d
}

// Describe sets the description and returns d.
func (d *Definition) Describe(description string) *Definition {
	d.Description = description
	return d
}

// Steps returns the declared steps, initial step first.
func (d *Definition) Steps() []string {
	return slices.Clone(d.steps)
}

// HasStep reports whether step is declared.
func (d *Definition) HasStep(step string) bool {
	return slices.Contains(d.steps, step)
}

// IsTerminal reports whether step is declared and has no outgoing transition.
func (d *Definition) IsTerminal(step string) bool {
	if !d.HasStep(step) {
		return false
	}
	for i := range d.Transitions {
		if d.Transitions[i].From == step {
			return false
		}
	}
	return true
}

// GetTransition returns the transition taken from step on event.
func (d *Definition) GetTransition(from string, event Event) (*Transition, bool) {
	for i := range d.Transitions {
		if d.Transitions[i].From == from && d.Transitions[i].TriggeredBy(event) {
			t := d.Transitions[i]
			t.Triggers = slices.Clone(t.Triggers)
			t.RequiredTasks = slices.Clone(t.RequiredTasks)
			return &t, true
		}
	}
	return nil, false
}

// Outgoing returns the transitions leaving step, in declaration order.
func (d *Definition) Outgoing(step string) []Transition {
	var out []Transition
	for _, t := range d.Transitions {
		if t.From == step {
			out = append(out, t)
		}
	}
	return out
}

// NextStep returns the step a manual advance from current moves to.
// A transition triggered by MANUAL_ADVANCE wins; otherwise the first
// transition leaving the step, preferring one that does not loop back.
func (d *Definition) NextStep(current string) (string, error) {
	if !d.HasStep(current) {
		return "", fmt.Errorf("%w: %s has no step %q", ErrUnknownStep, d.Name, current)
	}

	outgoing := d.Outgoing(current)
	if len(outgoing) == 0 {
		return "", fmt.Errorf("%w: %s/%s", ErrTerminalStep, d.Name, current)
	}

	for i := range outgoing {
		if outgoing[i].TriggeredBy(EventManualAdvance) {
			return outgoing[i].To, nil
		}
	}
	for i := range outgoing {
		if !outgoing[i].IsSelfLoop() {
			return outgoing[i].To, nil
		}
	}
	return outgoing[0].To, nil
}
