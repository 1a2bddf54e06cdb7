package config

import (
	"errors"
	"log/slog"
	"testing"

	"github.com/randalmurphal/agdt/jira"
)

func TestSettingsFrom(t *testing.T) {
	r := NewResolverWithPaths(testConfig(), "", "").ResolveWithFlags(map[string]string{
		KeyGitHubToken: "ghp_x",
		KeyNoColor:     "true",
	})
	s := SettingsFrom(r)

	if s.BaseBranch != "main" || s.GitRemote != "origin" {
		t.Errorf("git settings = %q %q", s.BaseBranch, s.GitRemote)
	}
	if !s.NoColor {
		t.Error("NoColor = false")
	}
	if s.Tokens().GitHub != "ghp_x" {
		t.Errorf("tokens = %+v", s.Tokens())
	}
}

func TestSlogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		if got := (Settings{LogLevel: in}).SlogLevel(); got != want {
			t.Errorf("SlogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestJiraConfig(t *testing.T) {
	_, err := Settings{}.JiraConfig()
	if !errors.Is(err, ErrJiraNotConfigured) {
		t.Errorf("err = %v, want ErrJiraNotConfigured", err)
	}

	cfg, err := Settings{
		JiraURL:      "https://acme.atlassian.net/",
		JiraAuthType: "api_token",
		JiraEmail:    "dev@acme.io",
		JiraToken:    "tok",
	}.JiraConfig()
	if err != nil {
		t.Fatalf("JiraConfig: %v", err)
	}
	if cfg.URL != "https://acme.atlassian.net" || cfg.Version() != jira.APIVersionV3 {
		t.Errorf("cfg = %+v", cfg)
	}

	cfg, err = Settings{
		JiraURL:        "https://jira.internal",
		JiraAuthType:   "basic",
		JiraAPIVersion: "v2",
		JiraEmail:      "dev",
		JiraToken:      "secret",
	}.JiraConfig()
	if err != nil {
		t.Fatalf("JiraConfig basic: %v", err)
	}
	if cfg.Username != "dev" || cfg.Password != "secret" {
		t.Errorf("basic credentials = %q/%q", cfg.Username, cfg.Password)
	}

	_, err = Settings{JiraURL: "https://x", JiraAuthType: "api_token"}.JiraConfig()
	if !errors.Is(err, jira.ErrConfigAPITokenAuth) {
		t.Errorf("missing credentials: %v", err)
	}
}

func TestSecrets(t *testing.T) {
	if !IsSecret(KeyJiraToken) || !IsSecret(KeyGitLabToken) || IsSecret(KeyJiraURL) {
		t.Error("IsSecret misclassified keys")
	}
	if got := Mask("ghp_abcdef1234"); got != "**********1234" {
		t.Errorf("Mask = %q", got)
	}
	if got := Mask("abc"); got != "***" {
		t.Errorf("Mask short = %q", got)
	}
	if !IsKnown(KeyStateDir) || IsKnown("bogus") {
		t.Error("IsKnown wrong")
	}
}
