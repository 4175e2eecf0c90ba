// Copyright 2025 James Ross
package pluginmanager

import "errors"

// Sentinel errors for the three load-time failure kinds.
// Each is wrapped with platform/version detail via fmt.Errorf("...: %w", ...)
// at the call site; Manager.LastError() returns the formatted string, since
// the C ABI this crosses into only exposes text to the UI, not structured
// error values.
var (
	ErrLoadFailure       = errors.New("plugin: load failure")
	ErrAbiMismatch       = errors.New("plugin: interface version mismatch")
	ErrMissingEntrypoint = errors.New("plugin: missing required entrypoint")
)
