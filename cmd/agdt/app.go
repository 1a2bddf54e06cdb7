package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/randalmurphal/agdt/config"
	"github.com/randalmurphal/agdt/git"
	"github.com/randalmurphal/agdt/jira"
	"github.com/randalmurphal/agdt/notify"
	"github.com/randalmurphal/agdt/pr"
	"github.com/randalmurphal/agdt/prompt"
	"github.com/randalmurphal/agdt/state"
	"github.com/randalmurphal/agdt/task"
	"github.com/randalmurphal/agdt/workflow"
)

// app holds everything a command needs. setup fills it once flags are
// parsed; fields set before setup act as overrides.
type app struct {
	stdout io.Writer
	stderr io.Writer

	jsonOut      bool
	flagStateDir string
	flagLogLevel string
	flagNoColor  bool

	resolver *config.Resolver
	resolved *config.Resolved
	settings config.Settings
	logger   *slog.Logger
	style    *lipgloss.Renderer

	state  *state.Store
	tasks  *task.Store
	runner *task.Runner
	engine *workflow.Engine

	// executable is re-invoked for background tasks. Empty means the
	// running binary.
	executable string
	// openProvider replaces remote detection when set.
	openProvider func(ctx context.Context) (pr.Provider, error)
	jiraOptions  []jira.ClientOption
	resolverCfg  *config.ResolverConfig
}

func newApp(stdout, stderr io.Writer) *app {
	return &app{stdout: stdout, stderr: stderr}
}

func (a *app) setup() error {
	cfg := config.Default()
	if a.resolverCfg != nil {
		cfg = *a.resolverCfg
	}
	cfg.ErrWriter = a.stderr
	a.resolver = config.NewResolver(cfg)

	flags := map[string]string{
		config.KeyStateDir: a.flagStateDir,
		config.KeyLogLevel: a.flagLogLevel,
	}
	if a.flagNoColor {
		flags[config.KeyNoColor] = "true"
	}
	a.resolved = a.resolver.ResolveWithFlags(flags)
	a.settings = config.SettingsFrom(a.resolved)

	a.logger = slog.New(slog.NewTextHandler(a.stderr, &slog.HandlerOptions{Level: a.settings.SlogLevel()}))
	a.style = lipgloss.NewRenderer(a.stdout)
	if a.settings.NoColor {
		a.style.SetColorProfile(termenv.Ascii)
	}

	dir, err := a.stateDir()
	if err != nil {
		return err
	}
	a.state = state.NewStore(dir)
	a.tasks = task.NewStore(dir)

	runnerOpts := []task.RunnerOption{
		task.WithLogger(a.logger),
		task.WithEnv(state.EnvStateDir + "=" + dir),
	}
	if a.executable != "" {
		runnerOpts = append(runnerOpts, task.WithExecutable(a.executable))
	}
	a.runner = task.NewRunner(a.tasks, runnerOpts...)

	a.engine = workflow.NewEngine(a.state,
		workflow.WithRenderer(a.prompts()),
		workflow.WithTaskLister(a.tasks),
		workflow.WithNotifier(a.notifier()),
		workflow.WithOutput(a.promptOutput()),
		workflow.WithLogger(a.logger),
	)
	return nil
}

// promptOutput is where the engine prints advance banners. JSON output
// carries the prompt in the report instead.
func (a *app) promptOutput() io.Writer {
	if a.jsonOut {
		return io.Discard
	}
	return a.stdout
}

func (a *app) stateDir() (string, error) {
	if a.settings.StateDir != "" {
		return filepath.Abs(a.settings.StateDir)
	}
	return state.Dir()
}

func (a *app) prompts() *prompt.Loader {
	root := a.resolver.GitRoot()
	if root == "" {
		root = "."
	}
	loader := prompt.NewLoader(root)
	if a.settings.PromptsDir != "" {
		loader.AddSearchDir(a.settings.PromptsDir)
	}
	return loader
}

func (a *app) notifier() notify.Notifier {
	notifiers := []notify.Notifier{notify.NewLogNotifier(a.logger)}
	if url := a.settings.NotifyWebhookURL; url != "" {
		notifiers = append(notifiers, notify.NewWebhookNotifier(url))
	}
	if url := a.settings.NotifySlackURL; url != "" {
		notifiers = append(notifiers, notify.NewWebhookNotifier(url, notify.WithFormat(notify.FormatSlack)))
	}
	return notify.NewMultiNotifier(notifiers...)
}

func (a *app) jira() (*jira.Client, error) {
	cfg, err := a.settings.JiraConfig()
	if err != nil {
		return nil, err
	}
	return jira.NewClient(cfg, a.jiraOptions...)
}

func (a *app) repo(ctx context.Context) (*git.Repo, error) {
	return git.Open(ctx, ".")
}

// provider picks GitHub or GitLab from the configured remote's URL.
func (a *app) provider(ctx context.Context) (pr.Provider, error) {
	if a.openProvider != nil {
		return a.openProvider(ctx)
	}
	repo, err := a.repo(ctx)
	if err != nil {
		return nil, err
	}
	remoteURL, err := repo.RemoteURL(ctx, a.settings.GitRemote)
	if err != nil {
		return nil, err
	}
	return pr.NewProvider(remoteURL, a.settings.Tokens())
}

// selfArgv returns the argv prefix that re-invokes agdt.
func (a *app) selfArgv(args ...string) ([]string, error) {
	exe := a.executable
	if exe == "" {
		self, err := os.Executable()
		if err != nil {
			return nil, fmt.Errorf("resolve executable: %w", err)
		}
		exe = self
	}
	return append([]string{exe}, args...), nil
}

// contextString reads a string from the active workflow context.
func (a *app) contextString(key string) string {
	ws, err := a.state.GetWorkflowState()
	if err != nil || ws == nil {
		return ""
	}
	switch v := ws.Context[key].(type) {
	case string:
		return v
	case float64:
		return fmt.Sprintf("%.0f", v)
	case int:
		return fmt.Sprint(v)
	}
	return ""
}

func (a *app) printJSON(v any) error {
	enc := json.NewEncoder(a.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (a *app) printf(format string, args ...any) {
	fmt.Fprintf(a.stdout, format, args...)
}

func (a *app) success(format string, args ...any) {
	mark := a.style.NewStyle().Foreground(lipgloss.Color("10")).Render("✓")
	fmt.Fprintf(a.stdout, "%s %s\n", mark, fmt.Sprintf(format, args...))
}

func (a *app) heading(text string) string {
	return a.style.NewStyle().Bold(true).Render(text)
}

func (a *app) dim(text string) string {
	return a.style.NewStyle().Faint(true).Render(text)
}

// eventReport is the JSON form of a workflow event fired by a command.
type eventReport struct {
	Event string `json:"event,omitempty"`
	workflow.NotifyResult
	Prompt *workflow.PromptResult `json:"prompt,omitempty"`
}

func (a *app) newEventReport(ctx context.Context, event workflow.Event, res workflow.NotifyResult) (*eventReport, error) {
	report := &eventReport{NotifyResult: res}
	if event.Valid() {
		report.Event = event.String()
	}
	if res.ImmediateAdvance {
		prompt, err := a.engine.Resolve(ctx)
		if err != nil {
			return nil, err
		}
		report.Prompt = &prompt
	}
	return report, nil
}

// reportEvent describes what a workflow event did. In text mode an
// immediate advance was already printed by the engine. event may be zero
// when a helper picked it.
func (a *app) reportEvent(ctx context.Context, event workflow.Event, res workflow.NotifyResult, data any) error {
	if a.jsonOut {
		report, err := a.newEventReport(ctx, event, res)
		if err != nil {
			return err
		}
		if data == nil {
			return a.printJSON(report)
		}
		return a.printJSON(map[string]any{"result": data, "workflow": report})
	}

	switch {
	case !res.Triggered:
		a.logger.Debug("workflow event had no effect", "event", event)
	case !res.ImmediateAdvance:
		a.printf("%s\n", a.dim("The workflow moves on once the background task finishes. Run 'agdt workflow next' to check."))
	}
	return nil
}

// parseValue reads a command-line value as JSON when it parses, otherwise
// as a plain string.
func parseValue(raw string) any {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err == nil {
		return v
	}
	return raw
}

// parseAssignments turns k=v pairs into a map.
func parseAssignments(pairs []string) (map[string]any, error) {
	out := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid assignment %q, want key=value", pair)
		}
		out[key] = parseValue(value)
	}
	return out, nil
}
