package git

import (
	"regexp"
	"strings"
)

// BranchNamer derives branch names such as "feature/proj-1-fix-login".
type BranchNamer struct {
	Prefix    string // e.g. "feature", "bugfix"
	MaxSlug   int    // summary slug length limit, 0 for none
	MaxLength int    // whole branch name limit, 0 for none
}

// DefaultBranchNamer uses the "feature" prefix.
func DefaultBranchNamer() *BranchNamer {
	return &BranchNamer{Prefix: "feature", MaxSlug: 50, MaxLength: 100}
}

// ForIssue names a branch after an issue key and its summary.
func (n *BranchNamer) ForIssue(key, summary string) string {
	name := strings.ToLower(key)
	if slug := Slugify(summary); slug != "" {
		if n.MaxSlug > 0 && len(slug) > n.MaxSlug {
			slug = strings.TrimRight(slug[:n.MaxSlug], "-")
		}
		name += "-" + slug
	}
	return n.finish(name)
}

// ForIssueType picks the prefix from a Jira issue type: bugs go to
// "bugfix", everything else to the namer's prefix.
func (n *BranchNamer) ForIssueType(issueType, key, summary string) string {
	if strings.EqualFold(issueType, "bug") {
		bug := *n
		bug.Prefix = "bugfix"
		return bug.ForIssue(key, summary)
	}
	return n.ForIssue(key, summary)
}

func (n *BranchNamer) finish(name string) string {
	branch := name
	if n.Prefix != "" {
		branch = n.Prefix + "/" + name
	}
	if n.MaxLength > 0 && len(branch) > n.MaxLength {
		branch = branch[:n.MaxLength]
	}
	return CleanBranch(branch)
}

var (
	nonSlug      = regexp.MustCompile(`[^a-z0-9-]`)
	repeatedDash = regexp.MustCompile(`-+`)
)

// Slugify lowercases s and reduces it to letters, digits and single
// hyphens.
func Slugify(s string) string {
	s = strings.ToLower(s)
	s = strings.NewReplacer(" ", "-", "_", "-", "/", "-", ".", "-").Replace(s)
	s = nonSlug.ReplaceAllString(s, "")
	s = repeatedDash.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// CleanBranch collapses repeated hyphens and trims them from each path
// element.
func CleanBranch(s string) string {
	s = repeatedDash.ReplaceAllString(s, "-")
	parts := strings.Split(s, "/")
	for i, part := range parts {
		parts[i] = strings.Trim(part, "-")
	}
	return strings.Join(parts, "/")
}

var issueKeyInBranch = regexp.MustCompile(`(?i)\b([a-z][a-z0-9_]*-[1-9][0-9]*)\b`)

// IssueKeyFromBranch extracts an issue key such as "PROJ-1" from a branch
// name, or returns "".
func IssueKeyFromBranch(branch string) string {
	branch = strings.TrimPrefix(branch, "refs/heads/")
	if i := strings.LastIndex(branch, "/"); i >= 0 {
		branch = branch[i+1:]
	}
	m := issueKeyInBranch.FindStringSubmatch(branch)
	if m == nil {
		return ""
	}
	return strings.ToUpper(m[1])
}
