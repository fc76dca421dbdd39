//go:build !windows

// Package console decides whether the process owns a visible console and
// installs a Ctrl+C handler. Outside Windows both are no-ops.
package console

import "log/slog"

// IsRunningFromConsole returns true on non-Windows platforms as they always run in console mode.
func IsRunningFromConsole() bool {
	return true
}

// SetupConsoleHandler returns a no-op function on non-Windows platforms.
// Go's standard os.Interrupt signal handling works fine on Unix-like systems.
func SetupConsoleHandler(shutdown chan struct{}, logger *slog.Logger) func() {
	return func() {}
}
