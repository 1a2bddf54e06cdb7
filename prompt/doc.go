// Package prompt loads and renders the instruction templates shown for
// each workflow step.
//
// Templates live at <workflow>/<step>.md. The Loader searches its
// directories in order and falls back to the defaults embedded in the
// binary, so a project can override any step by dropping a file into
// .agdt/prompts/.
//
// Templates are text/template documents rendered against the step's
// variables. A bare {{issue_key}} is accepted as shorthand for
// {{.issue_key}}; missing variables render as empty strings.
//
// Example usage:
//
//	loader := prompt.NewLoader(projectDir)
//	content, err := loader.Render("work-on-jira-issue", "planning", vars)
//	if errors.Is(err, prompt.ErrTemplateNotFound) {
//	    // packaging or configuration problem
//	}
package prompt
