// Package testutil holds helpers shared by agdt package tests: temporary
// state directories, fakes for the workflow engine's collaborators, and
// throwaway git repositories.
package testutil
