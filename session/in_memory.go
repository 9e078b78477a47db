package session

import (
	"context"
	"maps"
	"sort"
	"sync"

	"github.com/hupe1980/agentcore/core"
)

// InMemoryService is a volatile core.SessionService storing sessions, app
// scoped state and user scoped state in process local maps. It is safe for
// concurrent access and best suited for tests, examples and single-process
// deployments. Returned sessions are clones with the shared scopes merged
// in, so callers never observe internal mutation.
type InMemoryService struct {
	mu sync.RWMutex

	// appName -> userID -> sessionID -> session
	sessions map[string]map[string]map[string]*core.Session

	// appName -> app scoped state (keys keep their "app:" prefix)
	appState map[string]map[string]any

	// appName -> userID -> user scoped state (keys keep their "user:" prefix)
	userState map[string]map[string]map[string]any

	// appName/userID/sessionID -> append lock serializing event commits
	sessionLocks map[string]*sync.Mutex
}

// NewInMemoryService constructs an empty in-memory session service.
func NewInMemoryService() *InMemoryService {
	return &InMemoryService{
		sessions:     make(map[string]map[string]map[string]*core.Session),
		appState:     make(map[string]map[string]any),
		userState:    make(map[string]map[string]map[string]any),
		sessionLocks: make(map[string]*sync.Mutex),
	}
}

// Create creates (or replaces) a session. Prefixed keys in initialState seed
// the shared scopes; temp keys are discarded.
func (s *InMemoryService) Create(_ context.Context, appName, userID, sessionID string, initialState map[string]any) (*core.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sessionID == "" {
		sessionID = core.NewID()
	}

	app, user, sessState, _ := core.SplitDelta(initialState)
	maps.Copy(s.appStateLocked(appName), app)
	maps.Copy(s.userStateLocked(appName, userID), user)

	sess := core.NewSession(appName, userID, sessionID)
	sess.State.Update(sessState)
	s.sessionsLocked(appName, userID)[sessionID] = sess

	return s.effectiveClone(sess), nil
}

// Get returns a clone of the session with app and user scoped state merged
// into its effective state, or core.ErrSessionNotFound.
func (s *InMemoryService) Get(_ context.Context, appName, userID, sessionID string) (*core.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.lookupLocked(appName, userID, sessionID)
	if !ok {
		return nil, core.ErrSessionNotFound
	}
	return s.effectiveClone(sess), nil
}

// List returns the user's sessions newest first. Event logs are omitted from
// the results to keep listings cheap.
func (s *InMemoryService) List(_ context.Context, appName, userID string) ([]*core.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*core.Session
	for _, sess := range s.sessions[appName][userID] {
		c := s.effectiveClone(sess)
		c.Events = nil
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].LastUpdateTime.After(out[j].LastUpdateTime)
	})
	return out, nil
}

// Delete removes a session. Deleting an unknown session is a no-op.
func (s *InMemoryService) Delete(_ context.Context, appName, userID, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if users, ok := s.sessions[appName]; ok {
		if byID, ok := users[userID]; ok {
			delete(byID, sessionID)
		}
	}
	delete(s.sessionLocks, lockKey(appName, userID, sessionID))
	return nil
}

// AppendEvent commits an event: the state delta is routed by prefix (app and
// user keys to the shared scopes, temp keys to the live session only), the
// event is appended to the stored log and LastUpdateTime advances. Partial
// events only touch the passed live session. Commits for the same session
// are serialized by a per-session mutex.
func (s *InMemoryService) AppendEvent(_ context.Context, sess *core.Session, ev core.Event) error {
	// The live session always sees the full delta, temp keys included, so the
	// remainder of the invocation reads its own writes.
	if len(ev.Actions.StateDelta) > 0 {
		sess.State.Update(ev.Actions.StateDelta)
	}

	if ev.IsPartial() {
		return nil
	}

	lock := s.lockFor(sess.AppName, sess.UserID, sess.ID)
	lock.Lock()
	defer lock.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.lookupLocked(sess.AppName, sess.UserID, sess.ID)
	if !ok {
		return core.ErrSessionNotFound
	}

	app, user, sessState, _ := core.SplitDelta(ev.Actions.StateDelta)
	maps.Copy(s.appStateLocked(sess.AppName), app)
	maps.Copy(s.userStateLocked(sess.AppName, sess.UserID), user)
	if len(sessState) > 0 {
		stored.State.Update(sessState)
	}
	stored.AddEvent(ev)

	sess.AddEvent(ev)
	sess.LastUpdateTime = stored.LastUpdateTime
	return nil
}

func (s *InMemoryService) lockFor(appName, userID, sessionID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := lockKey(appName, userID, sessionID)
	lock, ok := s.sessionLocks[key]
	if !ok {
		lock = &sync.Mutex{}
		s.sessionLocks[key] = lock
	}
	return lock
}

func lockKey(appName, userID, sessionID string) string {
	return appName + "\x00" + userID + "\x00" + sessionID
}

func (s *InMemoryService) lookupLocked(appName, userID, sessionID string) (*core.Session, bool) {
	users, ok := s.sessions[appName]
	if !ok {
		return nil, false
	}
	byID, ok := users[userID]
	if !ok {
		return nil, false
	}
	sess, ok := byID[sessionID]
	return sess, ok
}

func (s *InMemoryService) sessionsLocked(appName, userID string) map[string]*core.Session {
	users, ok := s.sessions[appName]
	if !ok {
		users = make(map[string]map[string]*core.Session)
		s.sessions[appName] = users
	}
	byID, ok := users[userID]
	if !ok {
		byID = make(map[string]*core.Session)
		users[userID] = byID
	}
	return byID
}

func (s *InMemoryService) appStateLocked(appName string) map[string]any {
	st, ok := s.appState[appName]
	if !ok {
		st = make(map[string]any)
		s.appState[appName] = st
	}
	return st
}

func (s *InMemoryService) userStateLocked(appName, userID string) map[string]any {
	users, ok := s.userState[appName]
	if !ok {
		users = make(map[string]map[string]any)
		s.userState[appName] = users
	}
	st, ok := users[userID]
	if !ok {
		st = make(map[string]any)
		users[userID] = st
	}
	return st
}

// effectiveClone overlays the shared scopes onto a clone of the stored
// session. Caller must hold at least a read lock.
func (s *InMemoryService) effectiveClone(sess *core.Session) *core.Session {
	c := sess.Clone()
	merged := c.State.ToMap()
	maps.Copy(merged, s.appState[sess.AppName])
	if users, ok := s.userState[sess.AppName]; ok {
		maps.Copy(merged, users[sess.UserID])
	}
	c.State = core.NewState(merged, nil)
	return c
}

var _ core.SessionService = (*InMemoryService)(nil)
