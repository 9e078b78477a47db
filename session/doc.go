// Package session houses concrete implementations of core.SessionService.
// The interface itself (and the Session struct) live in the core package to
// centralize domain contracts. Keeping only implementations here prevents
// higher level packages (agents, runner) from depending on concrete storage.
//
// Two backends ship with the runtime: a volatile in-memory service suited to
// tests and prototypes, and a Redis service for multi-process deployments.
// Additional backends (Postgres, Firestore, etc.) fit alongside without
// changing any calling code; only the wiring layer decides which
// implementation to instantiate.
package session
