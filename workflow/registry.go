package workflow

import (
	"fmt"
	"slices"
)

// Registry is a catalogue of workflow definitions keyed by name.
// It is not safe for concurrent registration.
type Registry struct {
	defs  map[string]*Definition
	order []string
}

// NewRegistry creates a registry holding defs.
func NewRegistry(defs ...*Definition) (*Registry, error) {
	r := &Registry{defs: make(map[string]*Definition)}
	for _, d := range defs {
		if err := r.Register(d); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds a definition. Names must be unique.
func (r *Registry) Register(d *Definition) error {
	if d == nil {
		return fmt.Errorf("%w: nil definition", ErrInvalidDefinition)
	}
	if _, exists := r.defs[d.Name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateWorkflow, d.Name)
	}
	r.defs[d.Name] = d
	r.order = append(r.order, d.Name)
	return nil
}

// Get returns the definition registered under name.
func (r *Registry) Get(name string) (*Definition, bool) {
	d, ok := r.defs[name]
	return d, ok
}

// Names returns registered names in registration order.
func (r *Registry) Names() []string {
	return slices.Clone(r.order)
}

var defaultRegistry = func() *Registry {
	r, err := NewRegistry(builtinDefinitions()...)
	if err != nil {
		panic(err)
	}
	return r
}()

// DefaultRegistry returns the registry of built-in workflows.
func DefaultRegistry() *Registry {
	return defaultRegistry
}

// GetWorkflowDefinition looks a definition up in the default registry.
func GetWorkflowDefinition(name string) (*Definition, bool) {
	return defaultRegistry.Get(name)
}
