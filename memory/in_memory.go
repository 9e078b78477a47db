package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/hupe1980/agentcore/core"
)

// entry is one ingested turn of a session's conversation.
type entry struct {
	sessionID string
	author    string
	text      string
}

// InMemoryService is a naive process-local core.MemoryService. AddSession
// ingests the text content of a session's non-partial events; Search runs a
// case-insensitive keyword scan over everything ingested for the (appName,
// userID) scope, scoring by the fraction of query words matched.
//
// Suitable only for tests and demos; swap for a vector store or semantic
// index for production retrieval.
type InMemoryService struct {
	mu      sync.RWMutex
	entries map[string][]entry // appName/userID -> ingested turns
}

// NewInMemoryService creates an empty in-memory memory service.
func NewInMemoryService() *InMemoryService {
	return &InMemoryService{entries: make(map[string][]entry)}
}

func scopeKey(appName, userID string) string {
	return appName + "/" + userID
}

// AddSession ingests the session's conversation. Re-ingesting the same
// session replaces its previous entries.
func (m *InMemoryService) AddSession(_ context.Context, sess *core.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := scopeKey(sess.AppName, sess.UserID)

	kept := m.entries[key][:0]
	for _, e := range m.entries[key] {
		if e.sessionID != sess.ID {
			kept = append(kept, e)
		}
	}

	for _, ev := range sess.GetConversationHistory() {
		text := ev.Text()
		if text == "" {
			continue
		}
		kept = append(kept, entry{sessionID: sess.ID, author: ev.Author, text: text})
	}
	m.entries[key] = kept
	return nil
}

// Search returns entries matching at least one query word, best first.
func (m *InMemoryService) Search(_ context.Context, appName, userID, query string) ([]core.MemoryEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	words := strings.Fields(strings.ToLower(query))
	if len(words) == 0 {
		return []core.MemoryEntry{}, nil
	}

	var results []core.MemoryEntry
	for _, e := range m.entries[scopeKey(appName, userID)] {
		lower := strings.ToLower(e.text)
		matched := 0
		for _, w := range words {
			if strings.Contains(lower, w) {
				matched++
			}
		}
		if matched == 0 {
			continue
		}
		results = append(results, core.MemoryEntry{
			SessionID: e.sessionID,
			Content:   e.text,
			Score:     float64(matched) / float64(len(words)),
			Metadata:  map[string]any{"author": e.author},
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	return results, nil
}

var _ core.MemoryService = (*InMemoryService)(nil)
