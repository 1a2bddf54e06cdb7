package workflow

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/randalmurphal/agdt/notify"
	"github.com/randalmurphal/agdt/prompt"
	"github.com/randalmurphal/agdt/state"
	"github.com/randalmurphal/agdt/task"
)

// StateStore is the persistence the engine needs. *state.Store implements it.
type StateStore interface {
	GetWorkflowState() (*state.WorkflowState, error)
	SaveWorkflowState(ws *state.WorkflowState) error
	ClearWorkflowState() error
	All() (map[string]any, error)
}

// TaskLister reports background tasks. *task.Store implements it.
type TaskLister interface {
	ListActive(ctx context.Context) ([]task.Task, error)
}

// Renderer renders the prompt for a workflow step. *prompt.Loader
// implements it. A missing template is reported as *prompt.NotFoundError.
type Renderer interface {
	Render(workflow, step string, vars map[string]string) (string, error)
}

// Engine drives the active workflow.
type Engine struct {
	store    StateStore
	registry *Registry
	renderer Renderer
	tasks    TaskLister
	notifier notify.Notifier
	out      io.Writer
	logger   *slog.Logger
	now      func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithRegistry sets the workflow definitions. Defaults to DefaultRegistry.
func WithRegistry(r *Registry) Option {
	return func(e *Engine) { e.registry = r }
}

// WithRenderer sets the prompt renderer. Defaults to a prompt.Loader for
// the working directory.
func WithRenderer(r Renderer) Option {
	return func(e *Engine) { e.renderer = r }
}

// WithTaskLister sets the background task source. Without one every
// pending transition resolves as if its tasks had finished.
func WithTaskLister(l TaskLister) Option {
	return func(e *Engine) { e.tasks = l }
}

// WithNotifier sets the lifecycle notifier.
func WithNotifier(n notify.Notifier) Option {
	return func(e *Engine) { e.notifier = n }
}

// WithOutput sets where immediate advances print their banner and prompt.
// Defaults to os.Stdout.
func WithOutput(w io.Writer) Option {
	return func(e *Engine) { e.out = w }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithClock sets the time source for event log timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine creates an engine over store.
func NewEngine(store StateStore, opts ...Option) *Engine {
	e := &Engine{
		store:    store,
		registry: DefaultRegistry(),
		tasks:    noTasks{},
		notifier: notify.NopNotifier{},
		out:      os.Stdout,
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.renderer == nil {
		e.renderer = prompt.NewLoader(".")
	}
	return e
}

// Registry returns the engine's workflow definitions.
func (e *Engine) Registry() *Registry {
	return e.registry
}

type noTasks struct{}

func (noTasks) ListActive(context.Context) ([]task.Task, error) { return nil, nil }

// emit sends a lifecycle notification. Failures are logged, never returned.
func (e *Engine) emit(ctx context.Context, event notify.Event) {
	event.Timestamp = e.now().UTC()
	if event.Severity == "" {
		event.Severity = notify.SeverityInfo
	}
	if err := e.notifier.Notify(ctx, event); err != nil {
		e.logger.WarnContext(ctx, "workflow notification failed",
			"type", event.Type,
			"error", err,
		)
	}
}
