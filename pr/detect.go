package pr

import (
	"fmt"
	"os"
)

// Tokens holds configured API tokens. Empty fields fall back to the
// environment.
type Tokens struct {
	GitHub string
	GitLab string
}

// Token environment variables, most specific first.
var (
	githubTokenEnv = []string{"GITHUB_TOKEN", "GH_TOKEN", "GIT_TOKEN"}
	gitlabTokenEnv = []string{"GITLAB_TOKEN", "GIT_TOKEN"}
)

// NewProvider picks GitHub or GitLab from the remote URL and creates a
// provider for that repository. Self-hosted instances get their API
// rooted at the remote host.
func NewProvider(remoteURL string, tokens Tokens) (Provider, error) {
	remote, err := ParseRemote(remoteURL)
	if err != nil {
		return nil, err
	}
	platform, err := remote.Platform()
	if err != nil {
		return nil, err
	}

	switch platform {
	case PlatformGitHub:
		token := firstNonEmpty(tokens.GitHub, githubTokenEnv)
		if token == "" {
			return nil, fmt.Errorf("%w for GitHub: set github_token or GITHUB_TOKEN", ErrNoToken)
		}
		var opts []GitHubOption
		if !remote.IsPublicHost() {
			opts = append(opts, WithGitHubEnterprise("https://"+remote.Host))
		}
		return NewGitHubProvider(token, remote.Owner(), remote.Name(), opts...)

	default:
		token := firstNonEmpty(tokens.GitLab, gitlabTokenEnv)
		if token == "" {
			return nil, fmt.Errorf("%w for GitLab: set gitlab_token or GITLAB_TOKEN", ErrNoToken)
		}
		baseURL := ""
		if !remote.IsPublicHost() {
			baseURL = "https://" + remote.Host
		}
		return NewGitLabProvider(token, baseURL, remote.Path)
	}
}

func firstNonEmpty(configured string, envs []string) string {
	if configured != "" {
		return configured
	}
	for _, name := range envs {
		if v := os.Getenv(name); v != "" {
			return v
		}
	}
	return ""
}
