package core

import (
	"errors"
	"fmt"
)

// ErrSessionNotFound is returned by SessionService.Get (and surfaced by the
// Runner) when the requested (appName, userID, sessionID) tuple is unknown.
// Fatal to the current run.
var ErrSessionNotFound = errors.New("session not found")

// ErrMaxModelCalls is returned when a run exceeds its model-call budget.
var ErrMaxModelCalls = errors.New("exceeded maximum model calls for run")

// ToolNotFoundError indicates the model requested a tool the agent never
// declared. It is fatal to the turn: the flow fails the invocation instead
// of handing the model an error payload to recover from.
type ToolNotFoundError struct {
	Tool string
}

func (e *ToolNotFoundError) Error() string {
	return fmt.Sprintf("tool %q not found", e.Tool)
}

// ModelError wraps a provider/transport failure from a model backend. It is
// fatal to the current turn and propagates out of the agent's event stream;
// events persisted before the failure remain in the session.
type ModelError struct {
	Provider string
	Code     string
	Err      error
}

func (e *ModelError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("model error [%s/%s]: %v", e.Provider, e.Code, e.Err)
	}
	return fmt.Sprintf("model error [%s]: %v", e.Provider, e.Err)
}

func (e *ModelError) Unwrap() error { return e.Err }

// ConfigError indicates an invalid agent or builder configuration (missing
// model, empty sub-agent list, reused builder). Raised synchronously at
// construction/build time.
type ConfigError struct {
	Msg string
}

func (e *ConfigError) Error() string { return "invalid configuration: " + e.Msg }

// NewConfigError formats a ConfigError.
func NewConfigError(format string, args ...any) *ConfigError {
	return &ConfigError{Msg: fmt.Sprintf(format, args...)}
}
