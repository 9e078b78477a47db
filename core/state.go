package core

import (
	"maps"
	"strings"
	"sync"
)

// State key prefixes partition the flat state map into scopes. Unprefixed
// keys are session-scoped.
const (
	// AppPrefix marks keys shared by every session of an application.
	AppPrefix = "app:"

	// UserPrefix marks keys shared by every session of one (app, user) pair.
	UserPrefix = "user:"

	// TempPrefix marks keys that live only for the current invocation and
	// are never persisted across turns.
	TempPrefix = "temp:"
)

// IsTempKey reports whether key belongs to the invocation-scoped namespace.
func IsTempKey(key string) bool { return strings.HasPrefix(key, TempPrefix) }

// IsAppKey reports whether key belongs to the application namespace.
func IsAppKey(key string) bool { return strings.HasPrefix(key, AppPrefix) }

// IsUserKey reports whether key belongs to the user namespace.
func IsUserKey(key string) bool { return strings.HasPrefix(key, UserPrefix) }

// State holds the committed value of a session's state map plus any pending
// delta that has not been committed yet. Reads prefer pending values so an
// agent sees its own staged writes within a turn. Safe for concurrent use.
type State struct {
	mu    sync.RWMutex
	value map[string]any
	delta map[string]any
}

// NewState creates a State from committed values and a pending delta. Nil
// maps are replaced with empty ones.
func NewState(value, delta map[string]any) *State {
	if value == nil {
		value = make(map[string]any)
	}
	if delta == nil {
		delta = make(map[string]any)
	}
	return &State{value: value, delta: delta}
}

// Get returns the value for key, checking the pending delta first.
func (s *State) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if v, ok := s.delta[key]; ok {
		return v, true
	}
	v, ok := s.value[key]
	return v, ok
}

// Set stages and commits a value for key in one step.
func (s *State) Set(key string, val any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.value[key] = val
	s.delta[key] = val
}

// Update merges all pairs of delta into the state (value and pending delta).
func (s *State) Update(delta map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	maps.Copy(s.value, delta)
	maps.Copy(s.delta, delta)
}

// Has reports whether key is present in either layer.
func (s *State) Has(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.delta[key]; ok {
		return true
	}
	_, ok := s.value[key]
	return ok
}

// HasDelta reports whether uncommitted changes exist.
func (s *State) HasDelta() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.delta) > 0
}

// ClearDelta drops pending changes without committing them.
func (s *State) ClearDelta() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delta = make(map[string]any)
}

// ToMap returns a merged copy (value overlaid with delta) of the state.
func (s *State) ToMap() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]any, len(s.value)+len(s.delta))
	maps.Copy(out, s.value)
	maps.Copy(out, s.delta)
	return out
}

// WithoutTemp returns the merged state stripped of temp-scoped keys, i.e.
// the shape a storage backend is allowed to persist.
func (s *State) WithoutTemp() map[string]any {
	merged := s.ToMap()
	for k := range merged {
		if IsTempKey(k) {
			delete(merged, k)
		}
	}
	return merged
}

// SplitDelta partitions a state delta by namespace. Temp keys land in their
// own bucket so services can apply them to the live session only.
func SplitDelta(delta map[string]any) (app, user, session, temp map[string]any) {
	app = make(map[string]any)
	user = make(map[string]any)
	session = make(map[string]any)
	temp = make(map[string]any)

	for k, v := range delta {
		switch {
		case IsAppKey(k):
			app[k] = v
		case IsUserKey(k):
			user[k] = v
		case IsTempKey(k):
			temp[k] = v
		default:
			session[k] = v
		}
	}
	return app, user, session, temp
}
