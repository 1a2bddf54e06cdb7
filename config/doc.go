// Package config resolves agdt settings from layered sources.
//
// Precedence, lowest first:
//  1. built-in defaults
//  2. global config, ~/.config/agdt/config.yaml
//  3. local config, .agdt.yaml in the git root
//  4. AGDT_* environment variables (AGDT_JIRA_URL sets "jira_url")
//  5. command-line flags
//
// Every resolved value remembers its Source so `agdt config show` can say
// where it came from:
//
//	r := config.NewResolver(config.Default())
//	resolved := r.Resolve()
//	settings := config.SettingsFrom(resolved)
//
// SaveConfig writes single keys back to the global or local file.
package config
