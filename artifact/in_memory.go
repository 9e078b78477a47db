package artifact

import (
	"context"
	"fmt"
	"sync"

	"github.com/hupe1980/agentcore/core"
)

// InMemoryService is an in-process core.ArtifactService useful for tests,
// examples and single-process prototypes. Artifacts live in a nested map
// guarded by an RWMutex; data is copied on save and load to avoid external
// mutation of internal buffers.
//
// Layout: appName/userID/sessionID -> filename -> ordered versions
//
// This implementation does not enforce retention limits, size quotas or
// eviction. For production, prefer a durable backend that survives process
// restarts.
type InMemoryService struct {
	mu        sync.RWMutex
	artifacts map[string]map[string][][]byte
}

// NewInMemoryService returns an empty in-memory artifact service.
func NewInMemoryService() *InMemoryService {
	return &InMemoryService{artifacts: make(map[string]map[string][][]byte)}
}

func scopeKey(appName, userID, sessionID string) string {
	return fmt.Sprintf("%s/%s/%s", appName, userID, sessionID)
}

// Save appends data as the next version of filename and returns the assigned
// version number (starting at 0).
func (a *InMemoryService) Save(_ context.Context, appName, userID, sessionID, filename string, data []byte) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	scope := scopeKey(appName, userID, sessionID)
	files, ok := a.artifacts[scope]
	if !ok {
		files = make(map[string][][]byte)
		a.artifacts[scope] = files
	}

	cp := make([]byte, len(data))
	copy(cp, data)
	files[filename] = append(files[filename], cp)
	return len(files[filename]) - 1, nil
}

// Load returns a copy of the requested version of filename; a negative
// version loads the latest.
func (a *InMemoryService) Load(_ context.Context, appName, userID, sessionID, filename string, version int) ([]byte, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	versions, ok := a.artifacts[scopeKey(appName, userID, sessionID)][filename]
	if !ok || len(versions) == 0 {
		return nil, ErrNotFound
	}
	if version < 0 {
		version = len(versions) - 1
	}
	if version >= len(versions) {
		return nil, ErrNotFound
	}

	data := versions[version]
	cp := make([]byte, len(data))
	copy(cp, data)
	return cp, nil
}

// List returns the filenames stored for the session.
func (a *InMemoryService) List(_ context.Context, appName, userID, sessionID string) ([]string, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	files := a.artifacts[scopeKey(appName, userID, sessionID)]
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	return names, nil
}

// Versions returns the stored version numbers of filename in ascending order.
func (a *InMemoryService) Versions(_ context.Context, appName, userID, sessionID, filename string) ([]int, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	versions, ok := a.artifacts[scopeKey(appName, userID, sessionID)][filename]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]int, len(versions))
	for i := range versions {
		out[i] = i
	}
	return out, nil
}

// Delete removes all versions of filename. Unknown filenames are a no-op.
func (a *InMemoryService) Delete(_ context.Context, appName, userID, sessionID, filename string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if files, ok := a.artifacts[scopeKey(appName, userID, sessionID)]; ok {
		delete(files, filename)
	}
	return nil
}

var _ core.ArtifactService = (*InMemoryService)(nil)
