// Command agdt drives developer workflows for an AI coding agent: it keeps
// workflow state, runs git, Jira and pull request operations, and prints
// the instructions for the next step.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/lipgloss"

	agdterrors "github.com/randalmurphal/agdt/errors"
)

// exitError ends the process with a status after output was already written.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	a := newApp(stdout, stderr)
	return execute(ctx, a, args)
}

func execute(ctx context.Context, a *app, args []string) int {
	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return 0
	}

	var exit *exitError
	if errors.As(err, &exit) {
		return exit.code
	}

	err = agdterrors.Wrap(err)
	label := lipgloss.NewRenderer(a.stderr).NewStyle().Bold(true).Foreground(lipgloss.Color("9")).Render("Error:")
	fmt.Fprintln(a.stderr, label, err)
	return agdterrors.ExitCode(err)
}
