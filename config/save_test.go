package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

func readYAML(t *testing.T, path string) map[string]any {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	var m map[string]any
	if err := yaml.Unmarshal(data, &m); err != nil {
		t.Fatalf("parse %s: %v", path, err)
	}
	return m
}

func TestSaveGlobal(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	s := DefaultSave()

	if err := s.SaveGlobal(KeyJiraURL, "https://acme.atlassian.net"); err != nil {
		t.Fatalf("SaveGlobal: %v", err)
	}
	if err := s.SaveGlobal(KeyNoColor, "TRUE"); err != nil {
		t.Fatalf("SaveGlobal bool: %v", err)
	}

	path := filepath.Join(home, ".config", "agdt", "config.yaml")
	m := readYAML(t, path)
	if m[KeyJiraURL] != "https://acme.atlassian.net" || m[KeyNoColor] != true {
		t.Errorf("file = %v", m)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("perm = %v, want 0600", info.Mode().Perm())
	}

	if err := s.DeleteGlobalKey(KeyNoColor); err != nil {
		t.Fatalf("DeleteGlobalKey: %v", err)
	}
	if _, ok := readYAML(t, path)[KeyNoColor]; ok {
		t.Error("key not deleted")
	}
}

func TestSaveGlobalRoundTripsThroughResolver(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	if err := DefaultSave().SaveGlobal(KeyBaseBranch, "develop"); err != nil {
		t.Fatal(err)
	}

	cfg := testConfig()
	cfg.GitRootFinder = func(string) (string, error) { return "", nil }
	got, source := NewResolver(cfg).Resolve().GetWithSource(KeyBaseBranch)
	if got != "develop" || source != SourceGlobal {
		t.Errorf("base_branch = %q (%s)", got, source)
	}
}

func TestSaveRejectsUnknownKey(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	err := DefaultSave().SaveGlobal("colour", "blue")
	if err == nil || !strings.Contains(err.Error(), "unknown config key") {
		t.Errorf("err = %v", err)
	}
}

func TestSaveLocal(t *testing.T) {
	root := t.TempDir()
	s := DefaultSave()

	if err := s.SaveLocal(root, KeyBaseBranch, "trunk"); err != nil {
		t.Fatalf("SaveLocal: %v", err)
	}
	if m := readYAML(t, filepath.Join(root, ".agdt.yaml")); m[KeyBaseBranch] != "trunk" {
		t.Errorf("file = %v", m)
	}

	if err := s.SaveLocal(root, KeyGitHubToken, "ghp"); err == nil {
		t.Error("secret saved to local config")
	}
	if err := s.SaveLocal("", KeyBaseBranch, "x"); err == nil {
		t.Error("empty git root accepted")
	}
}

func TestDeleteGlobalKeyMissingFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	if err := DefaultSave().DeleteGlobalKey(KeyBaseBranch); err != nil {
		t.Errorf("DeleteGlobalKey: %v", err)
	}
}
