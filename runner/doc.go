// Package runner binds a root agent and an application name to a
// SessionService and drives invocations end to end.
//
// One Run call is one conversation turn: the runner loads the session,
// appends the user's event, executes the agent tree, and streams the agent's
// events to the caller. Every non-partial event is persisted through
// SessionService.AppendEvent before it is forwarded, and the agent is only
// resumed after the persistence succeeds, so a consumer never observes an
// event that is not already in the session log. Partial (streaming) events
// are forwarded without persistence.
//
// Errors from the agent arrive on the returned error channel. Events
// persisted before a failure stay in the session; there is no rollback.
package runner
