package core

import "context"

// MemoryEntry is one recalled item from the memory service.
type MemoryEntry struct {
	SessionID string
	Content   string
	Score     float64
	Metadata  map[string]any
}

// MemoryService is the optional long-term recall layer. It ingests completed
// sessions and answers free-text queries scoped to (appName, userID). The
// turn loop functions without it.
type MemoryService interface {
	// AddSession ingests a session's conversation into memory.
	AddSession(ctx context.Context, sess *Session) error

	// Search returns relevant memories for the query, best first.
	Search(ctx context.Context, appName, userID, query string) ([]MemoryEntry, error)
}
