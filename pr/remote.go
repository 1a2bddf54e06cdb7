package pr

import (
	"fmt"
	"net/url"
	"strings"
)

// Platform is a pull request hosting platform.
type Platform string

const (
	PlatformGitHub Platform = "github"
	PlatformGitLab Platform = "gitlab"
)

// Remote is a parsed git remote URL.
type Remote struct {
	Host string // without port
	Path string // "owner/repo" or "group/subgroup/project"
}

// ParseRemote understands scp-like SSH ("git@host:owner/repo.git"),
// ssh:// and http(s):// remotes.
func ParseRemote(remoteURL string) (*Remote, error) {
	raw := strings.TrimSpace(remoteURL)
	if raw == "" {
		return nil, fmt.Errorf("parse remote: empty URL")
	}

	var host, path string
	if !strings.Contains(raw, "://") {
		// scp-like syntax has no scheme and a colon before the path.
		at := strings.LastIndex(raw, "@")
		colon := strings.Index(raw[at+1:], ":")
		if colon < 0 {
			return nil, fmt.Errorf("parse remote %q: missing host separator", remoteURL)
		}
		host = raw[at+1 : at+1+colon]
		path = raw[at+1+colon+1:]
	} else {
		u, err := url.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("parse remote %q: %w", remoteURL, err)
		}
		host = u.Hostname()
		path = u.Path
	}

	path = strings.TrimSuffix(strings.Trim(path, "/"), ".git")
	if host == "" || !strings.Contains(path, "/") {
		return nil, fmt.Errorf("parse remote %q: want host and owner/repo", remoteURL)
	}
	return &Remote{Host: strings.ToLower(host), Path: path}, nil
}

// Owner is everything before the final path element.
func (r *Remote) Owner() string {
	return r.Path[:strings.LastIndex(r.Path, "/")]
}

// Name is the final path element.
func (r *Remote) Name() string {
	return r.Path[strings.LastIndex(r.Path, "/")+1:]
}

// Platform guesses the hosting platform from the host name.
func (r *Remote) Platform() (Platform, error) {
	switch {
	case r.Host == "github.com" || strings.Contains(r.Host, "github"):
		return PlatformGitHub, nil
	case strings.Contains(r.Host, "gitlab"):
		return PlatformGitLab, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownProvider, r.Host)
	}
}

// IsPublicHost reports whether the remote is github.com or gitlab.com
// rather than a self-hosted instance.
func (r *Remote) IsPublicHost() bool {
	return r.Host == "github.com" || r.Host == "gitlab.com"
}
