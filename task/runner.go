package task

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"time"
)

// Runner launches background tasks and executes them.
//
// Launch runs in the foreground CLI process: it records the task and
// re-invokes the executable as "<exe> task exec <id>" in a new process
// group. That child calls Exec, which runs the recorded argv and writes
// the outcome back to the store.
type Runner struct {
	store      *Store
	executable string
	env        []string
	logger     *slog.Logger
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithExecutable sets the program re-invoked by Launch.
// Defaults to the running binary.
func WithExecutable(path string) RunnerOption {
	return func(r *Runner) { r.executable = path }
}

// WithEnv adds environment entries to launched task processes.
func WithEnv(env ...string) RunnerOption {
	return func(r *Runner) { r.env = append(r.env, env...) }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) { r.logger = logger }
}

// NewRunner creates a runner backed by store.
func NewRunner(store *Store, opts ...RunnerOption) *Runner {
	r := &Runner{
		store:  store,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Store returns the runner's task store.
func (r *Runner) Store() *Store {
	return r.store
}

// Launch records a task for argv under the given command name and starts
// a detached process to execute it. It returns as soon as the process has
// been started.
func (r *Runner) Launch(ctx context.Context, command string, argv ...string) (*Task, error) {
	exe := r.executable
	if exe == "" {
		self, err := os.Executable()
		if err != nil {
			return nil, fmt.Errorf("resolve executable: %w", err)
		}
		exe = self
	}

	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("resolve working directory: %w", err)
	}

	t, err := r.store.Create(command, argv, wd)
	if err != nil {
		return nil, err
	}

	// Not tied to ctx: the child must outlive this process.
	cmd := exec.Command(exe, "task", "exec", t.ID)
	cmd.Dir = wd
	cmd.Env = append(os.Environ(), r.env...)
	setSysProcAttr(cmd)

	if err := cmd.Start(); err != nil {
		_, _ = r.store.MarkFinished(t.ID, -1, fmt.Errorf("start task process: %w", err))
		return nil, fmt.Errorf("start task %s: %w", command, err)
	}
	_ = cmd.Process.Release()

	r.logger.DebugContext(ctx, "background task launched",
		"task_id", t.ID,
		"command", command,
	)
	return t, nil
}

// Exec runs a pending task to completion, writing combined output to its
// log file. The returned error covers bookkeeping failures only; a failing
// command is recorded on the task with status failed.
func (r *Runner) Exec(ctx context.Context, id string) (*Task, error) {
	t, err := r.store.MarkRunning(id, os.Getpid())
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(t.LogFile), 0o755); err != nil {
		return r.store.MarkFinished(t.ID, -1, fmt.Errorf("create log dir: %w", err))
	}
	logFile, err := os.Create(t.LogFile)
	if err != nil {
		return r.store.MarkFinished(t.ID, -1, fmt.Errorf("create log file: %w", err))
	}
	defer logFile.Close()

	exitCode, runErr := run(ctx, t, logFile)
	if runErr != nil {
		fmt.Fprintf(logFile, "\n[agdt] task failed: %v\n", runErr)
		r.logger.WarnContext(ctx, "background task failed",
			"task_id", t.ID,
			"command", t.Command,
			"exit_code", exitCode,
			"error", runErr,
		)
	}
	return r.store.MarkFinished(t.ID, exitCode, runErr)
}

// Wait polls until the task finishes or ctx is done.
func (r *Runner) Wait(ctx context.Context, id string, interval time.Duration) (*Task, error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		t, err := r.store.Get(id)
		if err != nil {
			return nil, err
		}
		if t.Status.IsFinished() {
			return t, nil
		}

		select {
		case <-ctx.Done():
			return t, ctx.Err()
		case <-ticker.C:
		}
	}
}

func run(ctx context.Context, t *Task, out io.Writer) (int, error) {
	cmd := exec.CommandContext(ctx, t.Argv[0], t.Argv[1:]...)
	cmd.Dir = t.Dir
	cmd.Stdout = out
	cmd.Stderr = out

	err := cmd.Run()
	if err == nil {
		return 0, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), fmt.Errorf("%s exited with code %d", filepath.Base(t.Argv[0]), exitErr.ExitCode())
	}
	return -1, err
}
