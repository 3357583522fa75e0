// Package console prints the bridge's user-visible diagnostics.
//
// Structured logs go through internal/logging; this package is the plain,
// human-facing channel: discovery progress, connection status, one line per
// processed shot, errors with the offending raw input, and the
// "Retrying in Ns..." notice before each reconnect.
//
// Output is styled with lipgloss when the destination is a terminal and left
// plain otherwise, so piping the bridge into a file yields clean text.
// Status and results go to stdout; errors go to stderr.
package console
