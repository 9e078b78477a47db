// Package logging provides a minimal logging interface and adapters for the
// agent runtime.
//
// The Logger interface defines the standard logging methods (Debug, Info,
// Warn, Error) that the runner and agents use for observability. This package
// includes:
//
//   - Logger interface for dependency injection
//   - SlogAdapter and RuntimeLogger wrapping Go's structured logging
//   - ZapLogger adapter for zap based deployments
//   - NoOpLogger for silent operation (testing, minimal setups)
//
// Usage:
//
//	logger := logging.NewSlogLogger(logging.LogLevelInfo, "json", false)
//	r := runner.New("chat-app", agent, sessionService, runner.WithLogger(logger))
//
// The design intentionally keeps the interface minimal to avoid vendor
// lock-in while supporting structured logging where available.
package logging
