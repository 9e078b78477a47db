package core

import "context"

// ArtifactService stores versioned binary artifacts scoped to a session.
// Every Save of an existing filename creates a new version; version numbers
// start at 0 and increment per save. Implementations must be safe for
// concurrent use.
type ArtifactService interface {
	// Save stores data as the next version of filename and returns the
	// assigned version number.
	Save(ctx context.Context, appName, userID, sessionID, filename string, data []byte) (int, error)

	// Load returns the given version of filename; a negative version loads
	// the latest.
	Load(ctx context.Context, appName, userID, sessionID, filename string, version int) ([]byte, error)

	// List returns the filenames stored for the session.
	List(ctx context.Context, appName, userID, sessionID string) ([]string, error)

	// Versions returns the stored version numbers of filename in ascending
	// order.
	Versions(ctx context.Context, appName, userID, sessionID, filename string) ([]int, error)

	// Delete removes all versions of filename.
	Delete(ctx context.Context, appName, userID, sessionID, filename string) error
}
