package core

import (
	"context"
	"fmt"
	"maps"
	"sync"

	"github.com/hupe1980/agentcore/logging"
)

// RunContext is the per-invocation execution scope passed to an Agent's Run
// method. It aggregates:
//   - The ambient cancellation Context
//   - Identity (AppName, UserID, SessionID, InvocationID, Agent info)
//   - The incoming user Content
//   - The Emit channel events stream through and the Resume channel the
//     runner signals after persisting each non-partial event
//   - Backing services (session, artifact, memory)
//   - A working Session snapshot plus a pending StateDelta buffer
//   - A Branch label isolating parallel sub-trees
//
// State staged via SetState accumulates in StateDelta until an emitted event
// carries it (EmitEvent merges the buffer into Event.Actions.StateDelta).
// Agents never write session state by any other road.
type RunContext struct {
	Context      context.Context
	AppName      string
	UserID       string
	SessionID    string
	InvocationID string
	Agent        AgentInfo
	UserContent  Content

	Emit   chan<- Event
	Resume <-chan struct{}

	SessionService  SessionService
	ArtifactService ArtifactService
	MemoryService   MemoryService

	Limiter    *ModelLimiter
	Session    *Session
	StateDelta map[string]any
	Branch     string

	// temp holds the invocation-scoped state namespace (temp: keys). It is
	// shared by every context derived from the same invocation, so values
	// written in one model turn survive session refreshes and stay readable
	// for the rest of the invocation.
	temp   map[string]any
	tempMu *sync.Mutex

	// emitMu serializes the emit-then-resume handshake between contexts
	// sharing the same Emit/Resume channel pair. Holding it across both
	// steps keeps a resume signal bound to the event it acknowledges.
	emitMu *sync.Mutex

	*loggerAdapter
}

// RunContextParams collects the inputs to NewRunContext.
type RunContextParams struct {
	Context         context.Context
	AppName         string
	UserID          string
	SessionID       string
	InvocationID    string
	Agent           AgentInfo
	UserContent     Content
	MaxModelCalls   int
	Emit            chan<- Event
	Resume          <-chan struct{}
	Session         *Session
	SessionService  SessionService
	ArtifactService ArtifactService
	MemoryService   MemoryService
	Logger          logging.Logger
}

// NewRunContext constructs a RunContext with an empty state delta buffer.
func NewRunContext(p RunContextParams) *RunContext {
	return &RunContext{
		Context:         p.Context,
		AppName:         p.AppName,
		UserID:          p.UserID,
		SessionID:       p.SessionID,
		InvocationID:    p.InvocationID,
		Agent:           p.Agent,
		UserContent:     p.UserContent,
		Emit:            p.Emit,
		Resume:          p.Resume,
		Session:         p.Session,
		SessionService:  p.SessionService,
		ArtifactService: p.ArtifactService,
		MemoryService:   p.MemoryService,
		Limiter:         NewModelLimiter(p.MaxModelCalls),
		StateDelta:      map[string]any{},
		temp:            map[string]any{},
		tempMu:          &sync.Mutex{},
		emitMu:          &sync.Mutex{},
		loggerAdapter:   newLoggerAdapter(p.Logger),
	}
}

// Done mirrors context.Context's Done.
func (rc *RunContext) Done() <-chan struct{} { return rc.Context.Done() }

// Err returns the cancellation error (if any) from the underlying context.
func (rc *RunContext) Err() error { return rc.Context.Err() }

// GetState returns a staged value if present, then an invocation-scoped temp
// value, else the session value.
func (rc *RunContext) GetState(k string) (any, bool) {
	if v, ok := rc.StateDelta[k]; ok {
		return v, true
	}
	if IsTempKey(k) {
		rc.tempMu.Lock()
		v, ok := rc.temp[k]
		rc.tempMu.Unlock()
		if ok {
			return v, true
		}
	}
	if rc.Session != nil {
		return rc.Session.GetState(k)
	}
	return nil, false
}

// SetState stages a state mutation in the delta buffer. It is carried by the
// next emitted event. Temp-scoped keys are additionally recorded in the
// invocation overlay so they outlive the emission cycle.
func (rc *RunContext) SetState(k string, v any) {
	if IsTempKey(k) {
		rc.tempMu.Lock()
		rc.temp[k] = v
		rc.tempMu.Unlock()
	}
	rc.StateDelta[k] = v
}

// ApplyStateDelta merges all pairs from d into the staged StateDelta.
func (rc *RunContext) ApplyStateDelta(d map[string]any) {
	for k, v := range d {
		rc.SetState(k, v)
	}
}

// SaveArtifact stores a new artifact version for the current session.
func (rc *RunContext) SaveArtifact(filename string, data []byte) (int, error) {
	if rc.ArtifactService == nil {
		return 0, fmt.Errorf("artifact service not configured")
	}
	return rc.ArtifactService.Save(rc.Context, rc.AppName, rc.UserID, rc.SessionID, filename, data)
}

// LoadArtifact retrieves an artifact version; pass a negative version for
// the latest.
func (rc *RunContext) LoadArtifact(filename string, version int) ([]byte, error) {
	if rc.ArtifactService == nil {
		return nil, fmt.Errorf("artifact service not configured")
	}
	return rc.ArtifactService.Load(rc.Context, rc.AppName, rc.UserID, rc.SessionID, filename, version)
}

// ListArtifacts returns artifact filenames stored for the session.
func (rc *RunContext) ListArtifacts() ([]string, error) {
	if rc.ArtifactService == nil {
		return []string{}, nil
	}
	return rc.ArtifactService.List(rc.Context, rc.AppName, rc.UserID, rc.SessionID)
}

// SearchMemory queries the MemoryService for relevant content.
func (rc *RunContext) SearchMemory(query string) ([]MemoryEntry, error) {
	if rc.MemoryService == nil {
		return []MemoryEntry{}, nil
	}
	return rc.MemoryService.Search(rc.Context, rc.AppName, rc.UserID, query)
}

// RefreshSession reloads the session snapshot from the SessionService. The
// service never returns temp-scoped keys, so the invocation's temp overlay
// is merged back into the fresh snapshot afterwards; temp values stay
// visible to state reads and instruction templating across model turns.
func (rc *RunContext) RefreshSession() error {
	if rc.SessionService == nil {
		return fmt.Errorf("session service not configured")
	}

	s, err := rc.SessionService.Get(rc.Context, rc.AppName, rc.UserID, rc.SessionID)
	if err != nil {
		return err
	}

	rc.tempMu.Lock()
	if len(rc.temp) > 0 {
		s.State.Update(maps.Clone(rc.temp))
	}
	rc.tempMu.Unlock()

	rc.Session = s
	return nil
}

// GetSessionHistory returns all historical events for the session.
func (rc *RunContext) GetSessionHistory() []Event {
	if rc.Session == nil {
		return []Event{}
	}
	return rc.Session.GetEvents()
}

// Clone returns a shallow copy with a deep-copied delta buffer.
func (rc *RunContext) Clone() *RunContext {
	c := &RunContext{
		Context:         rc.Context,
		AppName:         rc.AppName,
		UserID:          rc.UserID,
		SessionID:       rc.SessionID,
		InvocationID:    rc.InvocationID,
		Agent:           rc.Agent,
		UserContent:     rc.UserContent,
		Emit:            rc.Emit,
		Resume:          rc.Resume,
		SessionService:  rc.SessionService,
		ArtifactService: rc.ArtifactService,
		MemoryService:   rc.MemoryService,
		Limiter:         rc.Limiter,
		Session:         rc.Session,
		StateDelta:      map[string]any{},
		Branch:          rc.Branch,
		temp:            rc.temp,
		tempMu:          rc.tempMu,
		emitMu:          rc.emitMu,
		loggerAdapter:   rc.loggerAdapter,
	}
	maps.Copy(c.StateDelta, rc.StateDelta)
	return c
}

// WithBranch clones the context and sets the Branch label.
func (rc *RunContext) WithBranch(b string) *RunContext {
	c := rc.Clone()
	c.Branch = b
	return c
}

// NewChildContext derives a context for a nested execution path: fresh Emit
// and Resume channels, an empty delta buffer, and an optional branch label.
// Composite agents use it to intercept or isolate child output without
// touching the parent's transient buffers.
func (rc *RunContext) NewChildContext(emit chan<- Event, resume <-chan struct{}, branch string) *RunContext {
	finalBranch := rc.Branch
	if branch != "" {
		finalBranch = branch
	}

	return &RunContext{
		Context:         rc.Context,
		AppName:         rc.AppName,
		UserID:          rc.UserID,
		SessionID:       rc.SessionID,
		InvocationID:    rc.InvocationID,
		Agent:           rc.Agent,
		UserContent:     rc.UserContent,
		Emit:            emit,
		Resume:          resume,
		SessionService:  rc.SessionService,
		ArtifactService: rc.ArtifactService,
		MemoryService:   rc.MemoryService,
		Limiter:         rc.Limiter,
		Session:         rc.Session,
		StateDelta:      map[string]any{},
		Branch:          finalBranch,
		temp:            rc.temp,
		tempMu:          rc.tempMu,
		emitMu:          &sync.Mutex{},
		loggerAdapter:   rc.loggerAdapter,
	}
}

// EmitEvent merges the pending StateDelta into the event, stamps the branch
// label, and sends it on the Emit channel. Returns the cancellation error if
// the context ends before emission.
func (rc *RunContext) EmitEvent(ev Event) error {
	if len(rc.StateDelta) > 0 {
		if ev.Actions.StateDelta == nil {
			ev.Actions.StateDelta = map[string]any{}
		}
		maps.Copy(ev.Actions.StateDelta, rc.StateDelta)
	}

	if rc.Branch != "" && ev.Branch == nil {
		b := rc.Branch
		ev.Branch = &b
	}

	select {
	case <-rc.Context.Done():
		return rc.Context.Err()
	case rc.Emit <- ev:
	}

	rc.StateDelta = map[string]any{}
	return nil
}

// EmitAndWait emits the event and, for non-partial events, blocks until the
// persistence acknowledgement arrives on Resume. Contexts sharing an
// Emit/Resume pair (parallel branch clones) serialize the whole handshake,
// so the acknowledgement a caller observes is always for its own event.
func (rc *RunContext) EmitAndWait(ev Event) error {
	rc.emitMu.Lock()
	defer rc.emitMu.Unlock()

	if err := rc.EmitEvent(ev); err != nil {
		return err
	}
	if ev.IsPartial() {
		return nil
	}
	return rc.WaitForResume()
}

// WaitForResume blocks until the runner acknowledges persistence of the last
// emitted event, or the context is cancelled. A nil Resume channel returns
// immediately.
func (rc *RunContext) WaitForResume() error {
	if rc.Resume == nil {
		return nil
	}
	select {
	case <-rc.Resume:
		return nil
	case <-rc.Context.Done():
		return rc.Context.Err()
	}
}
