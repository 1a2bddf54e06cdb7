// Package pr opens and reviews pull requests on GitHub and GitLab.
//
// Provider is the platform-neutral interface. NewProvider picks the
// implementation from a git remote URL:
//
//	p, err := pr.NewProvider(remoteURL, pr.Tokens{GitHub: cfg.GitHubToken})
//	if err != nil {
//	    return err
//	}
//	opts, err := pr.NewBuilder("Fix login").
//	    WithTicket("PROJ-1").
//	    WithHead("feature/PROJ-1").
//	    Build()
//	pull, err := p.CreatePR(ctx, opts)
//
// GitHubProvider uses go-github with an oauth2 token source; GitLabProvider
// uses go-gitlab. GitLab merge requests are addressed by their IID.
package pr
