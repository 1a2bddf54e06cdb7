// Package errors turns agdt failures into messages a developer can act on.
//
// CLIError carries a message, optional details and a suggestion. Wrap
// recognises the errors agdt commands commonly hit (missing prompt
// templates, corrupt or missing workflows, unconfigured integrations,
// rejected credentials, unreachable servers) and returns a CLIError;
// anything else is returned unchanged. The predicates classify errors
// without wrapping them.
package errors
