package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	nanoid "github.com/matoous/go-nanoid/v2"
)

const (
	// DirName is the directory under the state directory holding task records.
	DirName = "background-tasks"

	logDirName = "logs"
	idAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
	idLength   = 16
)

// Store persists tasks as one JSON file each.
type Store struct {
	dir string
	now func() time.Time
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithClock sets the time source used for timestamps.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) { s.now = now }
}

// NewStore creates a store rooted at <stateDir>/background-tasks.
func NewStore(stateDir string, opts ...StoreOption) *Store {
	s := &Store{
		dir: filepath.Join(stateDir, DirName),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dir returns the directory holding task records.
func (s *Store) Dir() string {
	return s.dir
}

// LogPath returns the log file path for a task ID.
func (s *Store) LogPath(id string) string {
	return filepath.Join(s.dir, logDirName, id+".log")
}

// Create records a new pending task.
func (s *Store) Create(command string, argv []string, dir string) (*Task, error) {
	if command == "" || len(argv) == 0 {
		return nil, ErrNoCommand
	}

	id, err := nanoid.Generate(idAlphabet, idLength)
	if err != nil {
		return nil, fmt.Errorf("generate task id: %w", err)
	}

	t := &Task{
		ID:        id,
		Command:   command,
		Argv:      argv,
		Dir:       dir,
		Status:    StatusPending,
		LogFile:   s.LogPath(id),
		CreatedAt: s.now().UTC(),
	}
	if err := s.write(t); err != nil {
		return nil, err
	}
	return t, nil
}

// Get loads a task by ID. A unique ID prefix of at least ShortIDLen
// characters is accepted.
func (s *Store) Get(id string) (*Task, error) {
	t, err := s.read(id)
	if err == nil {
		return t, nil
	}
	if !errors.Is(err, ErrNotFound) || len(id) < ShortIDLen {
		return nil, err
	}

	tasks, err := s.List()
	if err != nil {
		return nil, err
	}
	var match *Task
	for _, candidate := range tasks {
		if strings.HasPrefix(candidate.ID, id) {
			if match != nil {
				return nil, fmt.Errorf("task id prefix %q is ambiguous", id)
			}
			match = candidate
		}
	}
	if match == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return match, nil
}

// Update loads a task, applies fn and writes it back.
func (s *Store) Update(id string, fn func(*Task) error) (*Task, error) {
	t, err := s.read(id)
	if err != nil {
		return nil, err
	}
	if err := fn(t); err != nil {
		return nil, err
	}
	if err := s.write(t); err != nil {
		return nil, err
	}
	return t, nil
}

// MarkRunning records that the task process has started.
func (s *Store) MarkRunning(id string, pid int) (*Task, error) {
	return s.Update(id, func(t *Task) error {
		if t.Status != StatusPending {
			return fmt.Errorf("%w: %s is %s", ErrAlreadyStarted, t.ShortID(), t.Status)
		}
		now := s.now().UTC()
		t.Status = StatusRunning
		t.PID = pid
		t.StartedAt = &now
		return nil
	})
}

// MarkFinished records the outcome of a task. A nil runErr means success.
func (s *Store) MarkFinished(id string, exitCode int, runErr error) (*Task, error) {
	return s.Update(id, func(t *Task) error {
		now := s.now().UTC()
		t.FinishedAt = &now
		t.ExitCode = &exitCode
		if runErr != nil {
			t.Status = StatusFailed
			t.Error = runErr.Error()
			return nil
		}
		t.Status = StatusCompleted
		t.Error = ""
		return nil
	})
}

// List returns every recorded task, newest first.
func (s *Store) List() ([]*Task, error) {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read task dir: %w", err)
	}

	var tasks []*Task
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		t, err := s.read(strings.TrimSuffix(e.Name(), ".json"))
		if err != nil {
			// A half-written record from a crashed process is skipped.
			continue
		}
		tasks = append(tasks, t)
	}

	sort.SliceStable(tasks, func(i, j int) bool {
		return tasks[i].CreatedAt.After(tasks[j].CreatedAt)
	})
	return tasks, nil
}

// ListActive returns the most recent task for each command name.
// Older runs of the same command are superseded by a retry and ignored.
func (s *Store) ListActive(ctx context.Context) ([]Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tasks, err := s.List()
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var active []Task
	for _, t := range tasks {
		if seen[t.Command] {
			continue
		}
		seen[t.Command] = true
		active = append(active, *t)
	}
	return active, nil
}

// Prune deletes finished tasks, and their logs, that finished before the
// cutoff. It returns the number of tasks removed.
func (s *Store) Prune(olderThan time.Duration) (int, error) {
	tasks, err := s.List()
	if err != nil {
		return 0, err
	}

	cutoff := s.now().Add(-olderThan)
	removed := 0
	for _, t := range tasks {
		if !t.Status.IsFinished() || t.FinishedAt == nil || t.FinishedAt.After(cutoff) {
			continue
		}
		if err := os.Remove(s.recordPath(t.ID)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return removed, fmt.Errorf("remove task %s: %w", t.ShortID(), err)
		}
		_ = os.Remove(t.LogFile)
		removed++
	}
	return removed, nil
}

func (s *Store) recordPath(id string) string {
	return filepath.Join(s.dir, id+".json")
}

func (s *Store) read(id string) (*Task, error) {
	if id == "" || strings.ContainsAny(id, `/\`) {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, id)
	}

	data, err := os.ReadFile(s.recordPath(id))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("read task %s: %w", id, err)
	}

	var t Task
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("decode task %s: %w", id, err)
	}
	return &t, nil
}

// write atomically replaces the task record.
func (s *Store) write(t *Task) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create task dir: %w", err)
	}

	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal task: %w", err)
	}

	path := s.recordPath(t.ID)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write task: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename task: %w", err)
	}
	return nil
}
