package state

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(t.TempDir())
}

func TestStore_GetMissingKey(t *testing.T) {
	s := newTestStore(t)

	value, ok, err := s.Get("nope")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ok || value != nil {
		t.Errorf("Get(nope) = %v, %v; want nil, false", value, ok)
	}

	if _, err := os.Stat(s.Path()); !os.IsNotExist(err) {
		t.Error("reading must not create the state file")
	}
}

func TestStore_SetAndGet(t *testing.T) {
	s := newTestStore(t)

	if err := s.Set("issue_key", "DFLY-1234"); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, err := s.GetString("issue_key")
	if err != nil {
		t.Fatalf("GetString: %v", err)
	}
	if got != "DFLY-1234" {
		t.Errorf("GetString = %q, want %q", got, "DFLY-1234")
	}
}

func TestStore_DottedKeysMerge(t *testing.T) {
	s := newTestStore(t)

	if err := s.Set("jira.issue_key", "DFLY-1"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := s.Set("jira.summary", "Fix login"); err != nil {
		t.Fatalf("Set: %v", err)
	}

	value, ok, err := s.Get("jira")
	if err != nil || !ok {
		t.Fatalf("Get(jira) = %v, %v, %v", value, ok, err)
	}

	want := map[string]any{"issue_key": "DFLY-1", "summary": "Fix login"}
	if !reflect.DeepEqual(value, want) {
		t.Errorf("Get(jira) = %#v, want %#v", value, want)
	}
}

func TestStore_NumericComponentIsObjectKey(t *testing.T) {
	s := newTestStore(t)

	if err := s.Set("files.0", "main.go"); err != nil {
		t.Fatalf("Set: %v", err)
	}

	value, _, err := s.Get("files")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if _, isMap := value.(map[string]any); !isMap {
		t.Errorf("files = %#v, want an object", value)
	}
}

func TestStore_Delete(t *testing.T) {
	s := newTestStore(t)

	if err := s.Set("a.b", 1); err != nil {
		t.Fatalf("Set: %v", err)
	}

	existed, err := s.Delete("a.b")
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if !existed {
		t.Error("Delete(a.b) reported missing key")
	}

	existed, err = s.Delete("a.b")
	if err != nil {
		t.Fatalf("Delete again: %v", err)
	}
	if existed {
		t.Error("second Delete(a.b) reported existing key")
	}
}

func TestStore_ReservedAndEmptyKeys(t *testing.T) {
	s := newTestStore(t)

	tests := []struct {
		key     string
		wantErr error
	}{
		{"", ErrEmptyKey},
		{"workflow", ErrReservedKey},
		{"workflow.step", ErrReservedKey},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			if err := s.Set(tt.key, "x"); !errors.Is(err, tt.wantErr) {
				t.Errorf("Set(%q) error = %v, want %v", tt.key, err, tt.wantErr)
			}
			if _, err := s.Delete(tt.key); !errors.Is(err, tt.wantErr) {
				t.Errorf("Delete(%q) error = %v, want %v", tt.key, err, tt.wantErr)
			}
		})
	}

	// A key that merely starts with the word is fine.
	if err := s.Set("workflows_seen", 2); err != nil {
		t.Errorf("Set(workflows_seen): %v", err)
	}
}

func TestStore_ClearAndKeys(t *testing.T) {
	s := newTestStore(t)

	for _, key := range []string{"b", "a", "c.d"} {
		if err := s.Set(key, true); err != nil {
			t.Fatalf("Set(%s): %v", key, err)
		}
	}

	keys, err := s.Keys()
	if err != nil {
		t.Fatalf("Keys: %v", err)
	}
	if !reflect.DeepEqual(keys, []string{"a", "b", "c"}) {
		t.Errorf("Keys = %v", keys)
	}

	if err := s.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	all, err := s.All()
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(all) != 0 {
		t.Errorf("All after Clear = %v, want empty", all)
	}
}

func TestStore_CorruptDocument(t *testing.T) {
	s := newTestStore(t)

	for name, content := range map[string]string{
		"invalid": "{not json",
		"array":   "[1, 2]",
	} {
		t.Run(name, func(t *testing.T) {
			if err := os.WriteFile(s.Path(), []byte(content), 0o644); err != nil {
				t.Fatal(err)
			}
			if _, _, err := s.Get("x"); !errors.Is(err, ErrCorruptDocument) {
				t.Errorf("Get error = %v, want ErrCorruptDocument", err)
			}
			if err := s.Set("x", 1); !errors.Is(err, ErrCorruptDocument) {
				t.Errorf("Set error = %v, want ErrCorruptDocument", err)
			}
		})
	}
}

func TestStore_EmptyFileIsEmptyDocument(t *testing.T) {
	s := newTestStore(t)
	if err := os.WriteFile(s.Path(), []byte("  \n"), 0o644); err != nil {
		t.Fatal(err)
	}

	all, err := s.All()
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(all) != 0 {
		t.Errorf("All = %v, want empty", all)
	}
}

func TestStore_SaveIsPrettyAndLeavesNoTemp(t *testing.T) {
	s := newTestStore(t)
	if err := s.Set("a", 1); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(s.Path())
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "\n") {
		t.Errorf("state file is not pretty printed: %s", data)
	}

	if _, err := os.Stat(s.Path() + ".tmp"); !os.IsNotExist(err) {
		t.Error("temp file left behind")
	}
}

func TestStore_CreatesDirectoryOnWrite(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "state")
	s := NewStore(dir)

	if err := s.Set("k", "v"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, FileName)); err != nil {
		t.Errorf("state file not created: %v", err)
	}
}

func TestStore_SpecialCharactersInKey(t *testing.T) {
	s := newTestStore(t)

	if err := s.Set("glob*key", "v"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := s.GetString("glob*key")
	if err != nil {
		t.Fatal(err)
	}
	if got != "v" {
		t.Errorf("GetString = %q, want v", got)
	}
}

func TestDir(t *testing.T) {
	t.Run("env override", func(t *testing.T) {
		want := t.TempDir()
		t.Setenv(EnvStateDir, want)

		got, err := Dir()
		if err != nil {
			t.Fatal(err)
		}
		if got != want {
			t.Errorf("Dir = %q, want %q", got, want)
		}
	})

	t.Run("git root", func(t *testing.T) {
		t.Setenv(EnvStateDir, "")
		root := t.TempDir()
		if err := os.Mkdir(filepath.Join(root, ".git"), 0o755); err != nil {
			t.Fatal(err)
		}
		sub := filepath.Join(root, "pkg", "deep")
		if err := os.MkdirAll(sub, 0o755); err != nil {
			t.Fatal(err)
		}

		if got := findGitRoot(sub); got != root {
			t.Errorf("findGitRoot = %q, want %q", got, root)
		}
	})

	t.Run("worktree git file", func(t *testing.T) {
		root := t.TempDir()
		if err := os.WriteFile(filepath.Join(root, ".git"), []byte("gitdir: /elsewhere"), 0o644); err != nil {
			t.Fatal(err)
		}
		if got := findGitRoot(root); got != root {
			t.Errorf("findGitRoot = %q, want %q", got, root)
		}
	})
}
