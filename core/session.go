package core

import (
	"sync"
	"time"
)

// Session is the durable record of one user/agent conversation: an ordered,
// append-only event log plus the current state map. A session is uniquely
// identified by (AppName, UserID, ID) and owned by its SessionService; the
// runtime mutates it only through SessionService.AppendEvent.
//
// Contract:
//   - Events is append-only
//   - LastUpdateTime strictly increases on every mutation
//   - GetEvents returns a defensive copy
//   - Clone deep-copies maps and slices for safe divergence
type Session struct {
	ID             string    `json:"id"`
	AppName        string    `json:"app_name"`
	UserID         string    `json:"user_id"`
	State          *State    `json:"-"`
	Events         []Event   `json:"events"`
	Created        time.Time `json:"created"`
	LastUpdateTime time.Time `json:"last_update_time"`
	mu             sync.RWMutex
}

// NewSession creates an empty session owned by (appName, userID).
func NewSession(appName, userID, id string) *Session {
	now := time.Now().UTC()
	return &Session{
		ID:             id,
		AppName:        appName,
		UserID:         userID,
		State:          NewState(nil, nil),
		Events:         []Event{},
		Created:        now,
		LastUpdateTime: now,
	}
}

// GetState returns the value and existence flag for a state key.
func (s *Session) GetState(key string) (any, bool) {
	return s.State.Get(key)
}

// MergeState merges a key/value delta into the state and bumps
// LastUpdateTime. Used by SessionService implementations; agents never call
// this directly.
func (s *Session) MergeState(delta map[string]any) {
	s.State.Update(delta)
	s.Touch()
}

// AddEvent appends an event to the history and bumps LastUpdateTime. Used by
// SessionService implementations.
func (s *Session) AddEvent(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Events = append(s.Events, ev)
	s.touchLocked()
}

// Touch advances LastUpdateTime, guaranteeing a strict increase even when
// the wall clock has not moved between two mutations.
func (s *Session) Touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchLocked()
}

func (s *Session) touchLocked() {
	now := time.Now().UTC()
	if !now.After(s.LastUpdateTime) {
		now = s.LastUpdateTime.Add(time.Nanosecond)
	}
	s.LastUpdateTime = now
}

// EventCount returns the current length of the event log.
func (s *Session) EventCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.Events)
}

// GetEvents returns a defensive copy of the full event slice.
func (s *Session) GetEvents() []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	events := make([]Event, len(s.Events))
	copy(events, s.Events)
	return events
}

// GetConversationHistory returns events suitable as model context: only
// user/assistant/tool roles, partial streaming fragments excluded.
func (s *Session) GetConversationHistory() []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()

	allowed := map[string]bool{"user": true, "assistant": true, "tool": true}
	res := make([]Event, 0, len(s.Events))
	for _, ev := range s.Events {
		if ev.Content == nil || !allowed[ev.Content.Role] {
			continue
		}
		if ev.IsPartial() {
			continue
		}
		res = append(res, ev)
	}
	return res
}

// Clone returns a deep copy of the session safe for independent mutation.
func (s *Session) Clone() *Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	clone := &Session{
		ID:             s.ID,
		AppName:        s.AppName,
		UserID:         s.UserID,
		State:          NewState(s.State.ToMap(), nil),
		Events:         make([]Event, len(s.Events)),
		Created:        s.Created,
		LastUpdateTime: s.LastUpdateTime,
	}
	copy(clone.Events, s.Events)
	return clone
}
