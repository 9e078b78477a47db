package core

import "context"

// SessionService persists sessions and their evolving state / event history.
// A session is addressed by the (appName, userID, sessionID) tuple.
//
// Implementations must serialize AppendEvent calls per session: two
// concurrent runs against the same session must not interleave writes to the
// state map or the event log. The in-memory reference service uses a
// per-session mutex; external stores must provide an equivalent guarantee
// (e.g. row-level transactions).
type SessionService interface {
	// Create creates a new session. When sessionID is empty a fresh id is
	// generated; when it names an existing session, the session is replaced
	// (create-or-replace policy). initialState seeds the session scope; app:
	// and user: prefixed keys seed the corresponding shared scopes.
	Create(ctx context.Context, appName, userID, sessionID string, initialState map[string]any) (*Session, error)

	// Get returns the session with merged effective state (app and user
	// scopes overlaid), or ErrSessionNotFound.
	Get(ctx context.Context, appName, userID, sessionID string) (*Session, error)

	// List returns the sessions of (appName, userID) ordered by
	// LastUpdateTime descending. Event logs may be omitted from the results.
	List(ctx context.Context, appName, userID string) ([]*Session, error)

	// Delete removes a session. Deleting an unknown session is a no-op.
	Delete(ctx context.Context, appName, userID, sessionID string) error

	// AppendEvent atomically applies the event's state delta (prefix rules:
	// app:/user: routed to shared scopes, temp: applied to the live session
	// only and never persisted), appends the event to the log and advances
	// LastUpdateTime. Partial events update the live session but are not
	// persisted. The passed session object is updated in place.
	AppendEvent(ctx context.Context, sess *Session, ev Event) error
}
