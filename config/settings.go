package config

import (
	"errors"
	"log/slog"
	"slices"
	"strconv"
	"strings"

	"github.com/randalmurphal/agdt/jira"
	"github.com/randalmurphal/agdt/pr"
)

// Configuration keys.
const (
	KeyStateDir         = "state_dir"
	KeyPromptsDir       = "prompts_dir"
	KeyLogLevel         = "log_level"
	KeyJiraURL          = "jira_url"
	KeyJiraAuthType     = "jira_auth_type"
	KeyJiraAPIVersion   = "jira_api_version"
	KeyJiraEmail        = "jira_email"
	KeyJiraToken        = "jira_token"
	KeyGitRemote        = "git_remote"
	KeyBaseBranch       = "base_branch"
	KeyGitHubToken      = "github_token"
	KeyGitLabToken      = "gitlab_token"
	KeyNotifyWebhookURL = "notify_webhook_url"
	KeyNotifySlackURL   = "notify_slack_url"
	KeyNoColor          = "no_color"
)

// ErrJiraNotConfigured is returned by Settings.JiraConfig without a jira_url.
var ErrJiraNotConfigured = errors.New("jira is not configured")

var defaults = map[string]string{
	KeyLogLevel:     "info",
	KeyJiraAuthType: string(jira.AuthAPIToken),
	KeyGitRemote:    "origin",
	KeyBaseBranch:   "main",
	KeyNoColor:      "false",
}

// Keys lists every recognised key in sorted order.
func Keys() []string {
	return []string{
		KeyBaseBranch,
		KeyGitRemote,
		KeyGitHubToken,
		KeyGitLabToken,
		KeyJiraAPIVersion,
		KeyJiraAuthType,
		KeyJiraEmail,
		KeyJiraToken,
		KeyJiraURL,
		KeyLogLevel,
		KeyNoColor,
		KeyNotifySlackURL,
		KeyNotifyWebhookURL,
		KeyPromptsDir,
		KeyStateDir,
	}
}

// IsKnown reports whether key is a recognised configuration key.
func IsKnown(key string) bool {
	return slices.Contains(Keys(), key)
}

// IsSecret reports whether values of key should be masked on display.
func IsSecret(key string) bool {
	return strings.HasSuffix(key, "_token")
}

// Mask hides all but the last four characters of a secret.
func Mask(value string) string {
	if len(value) <= 4 {
		return strings.Repeat("*", len(value))
	}
	return strings.Repeat("*", len(value)-4) + value[len(value)-4:]
}

// Settings is the typed view of a Resolved configuration.
type Settings struct {
	StateDir   string
	PromptsDir string
	LogLevel   string

	JiraURL        string
	JiraAuthType   string
	JiraAPIVersion string
	JiraEmail      string
	JiraToken      string

	GitRemote  string
	BaseBranch string

	GitHubToken string
	GitLabToken string

	NotifyWebhookURL string
	NotifySlackURL   string

	NoColor bool
}

// SettingsFrom reads every known key from r.
func SettingsFrom(r *Resolved) Settings {
	noColor, _ := strconv.ParseBool(r.Get(KeyNoColor))
	return Settings{
		StateDir:         r.Get(KeyStateDir),
		PromptsDir:       r.Get(KeyPromptsDir),
		LogLevel:         r.Get(KeyLogLevel),
		JiraURL:          r.Get(KeyJiraURL),
		JiraAuthType:     r.Get(KeyJiraAuthType),
		JiraAPIVersion:   r.Get(KeyJiraAPIVersion),
		JiraEmail:        r.Get(KeyJiraEmail),
		JiraToken:        r.Get(KeyJiraToken),
		GitRemote:        r.Get(KeyGitRemote),
		BaseBranch:       r.Get(KeyBaseBranch),
		GitHubToken:      r.Get(KeyGitHubToken),
		GitLabToken:      r.Get(KeyGitLabToken),
		NotifyWebhookURL: r.Get(KeyNotifyWebhookURL),
		NotifySlackURL:   r.Get(KeyNotifySlackURL),
		NoColor:          noColor,
	}
}

// SlogLevel parses LogLevel, falling back to info.
func (s Settings) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// JiraConfig builds a validated client configuration. For basic auth the
// email doubles as the username and the token as the password.
func (s Settings) JiraConfig() (*jira.Config, error) {
	if s.JiraURL == "" {
		return nil, ErrJiraNotConfigured
	}

	cfg := &jira.Config{
		URL:        strings.TrimRight(s.JiraURL, "/"),
		APIVersion: jira.APIVersion(s.JiraAPIVersion),
		AuthType:   jira.AuthType(s.JiraAuthType),
		Email:      s.JiraEmail,
		Token:      s.JiraToken,
	}
	if cfg.AuthType == jira.AuthBasic {
		cfg.Username, cfg.Password = s.JiraEmail, s.JiraToken
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Tokens returns the configured forge tokens. Empty fields fall back to
// the usual environment variables inside pr.NewProvider.
func (s Settings) Tokens() pr.Tokens {
	return pr.Tokens{GitHub: s.GitHubToken, GitLab: s.GitLabToken}
}
