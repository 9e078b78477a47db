package runner

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/hupe1980/agentcore/core"
	"github.com/hupe1980/agentcore/logging"
)

// Options holds dependency and configuration overrides passed to New.
type Options struct {
	// ArtifactService stores binary artifacts; nil disables artifact tools.
	ArtifactService core.ArtifactService
	// MemoryService serves memory searches; nil disables memory tools.
	MemoryService core.MemoryService
	// Logger receives structured runtime logs. Defaults to NoOpLogger.
	Logger logging.Logger
	// MaxModelCalls bounds model calls per invocation.
	MaxModelCalls int
	// EventBufferSize sets channel buffering for event delivery.
	EventBufferSize int
}

// Runner executes a root agent against persisted sessions. Public methods
// are safe for concurrent use; concurrent runs against the same session are
// serialized by the SessionService's append guarantee.
type Runner struct {
	appName string
	agent   core.Agent

	sessionService  core.SessionService
	artifactService core.ArtifactService
	memoryService   core.MemoryService
	logger          logging.Logger

	maxModelCalls   int
	eventBufferSize int

	activeRuns map[string]context.CancelFunc
	mu         sync.Mutex
}

// New constructs a Runner for the given application and root agent.
func New(appName string, agent core.Agent, sessionService core.SessionService, optFns ...func(o *Options)) *Runner {
	opts := Options{
		Logger:          logging.NoOpLogger{},
		MaxModelCalls:   100,
		EventBufferSize: 100,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Runner{
		appName:         appName,
		agent:           agent,
		sessionService:  sessionService,
		artifactService: opts.ArtifactService,
		memoryService:   opts.MemoryService,
		logger:          opts.Logger,
		maxModelCalls:   opts.MaxModelCalls,
		eventBufferSize: opts.EventBufferSize,
		activeRuns:      make(map[string]context.CancelFunc),
	}
}

// WithLogger sets the runner's logger.
func WithLogger(l logging.Logger) func(o *Options) {
	return func(o *Options) { o.Logger = l }
}

// WithArtifactService sets the artifact store available to tools.
func WithArtifactService(s core.ArtifactService) func(o *Options) {
	return func(o *Options) { o.ArtifactService = s }
}

// WithMemoryService sets the memory store available to tools.
func WithMemoryService(s core.MemoryService) func(o *Options) {
	return func(o *Options) { o.MemoryService = s }
}

// WithMaxModelCalls bounds model calls per invocation.
func WithMaxModelCalls(n int) func(o *Options) {
	return func(o *Options) { o.MaxModelCalls = n }
}

// Run starts an asynchronous invocation of one conversation turn. It returns
// the invocation id, the event stream, and an error channel carrying at most
// one fatal error; both channels close when the invocation finishes. The
// session must exist (core.ErrSessionNotFound otherwise), and the user
// content is appended to the session before the agent starts.
func (r *Runner) Run(
	ctx context.Context,
	userID string,
	sessionID string,
	content core.Content,
) (string, <-chan core.Event, <-chan error, error) {
	sess, err := r.sessionService.Get(ctx, r.appName, userID, sessionID)
	if err != nil {
		return "", nil, nil, err
	}

	invocationID := uuid.NewString()

	userEvent := core.NewUserContentEvent(invocationID, &content)
	if err := r.sessionService.AppendEvent(ctx, sess, userEvent); err != nil {
		return "", nil, nil, fmt.Errorf("append user event: %w", err)
	}

	eventsCh := make(chan core.Event, r.eventBufferSize)
	errorsCh := make(chan error, 1)
	agentEmit := make(chan core.Event, r.eventBufferSize)
	resumeCh := make(chan struct{}, 1)

	ctx, cancel := context.WithCancel(ctx)
	r.mu.Lock()
	r.activeRuns[invocationID] = cancel
	r.mu.Unlock()

	runCtx := core.NewRunContext(core.RunContextParams{
		Context:         ctx,
		AppName:         r.appName,
		UserID:          userID,
		SessionID:       sessionID,
		InvocationID:    invocationID,
		Agent:           core.AgentInfo{Name: r.agent.Name()},
		UserContent:     content,
		MaxModelCalls:   r.maxModelCalls,
		Emit:            agentEmit,
		Resume:          resumeCh,
		Session:         sess,
		SessionService:  r.sessionService,
		ArtifactService: r.artifactService,
		MemoryService:   r.memoryService,
		Logger:          r.logger,
	})

	agentDone := make(chan error, 1)

	go func() {
		defer close(agentEmit)
		agentDone <- r.agent.Run(runCtx)
	}()

	go func() {
		defer func() {
			cancel()
			r.mu.Lock()
			delete(r.activeRuns, invocationID)
			r.mu.Unlock()
			close(eventsCh)
			close(errorsCh)
		}()

		if err := r.processEvents(runCtx, sess, agentEmit, resumeCh, eventsCh); err != nil {
			errorsCh <- err
			return
		}

		if err := <-agentDone; err != nil {
			errorsCh <- fmt.Errorf("agent %s failed: %w", r.agent.Name(), err)
		}
	}()

	r.logger.Debug("runner.run.start",
		"app", r.appName,
		"user", userID,
		"session", sessionID,
		"invocation", invocationID,
	)

	return invocationID, eventsCh, errorsCh, nil
}

// RunSync executes one turn to completion, returning all emitted events.
func (r *Runner) RunSync(
	ctx context.Context,
	userID string,
	sessionID string,
	content core.Content,
) ([]core.Event, error) {
	_, eventsCh, errorsCh, err := r.Run(ctx, userID, sessionID, content)
	if err != nil {
		return nil, err
	}

	var events []core.Event
	for ev := range eventsCh {
		events = append(events, ev)
	}

	if err := <-errorsCh; err != nil {
		return events, err
	}
	return events, nil
}

// Cancel aborts a running invocation by id.
func (r *Runner) Cancel(invocationID string) error {
	r.mu.Lock()
	cancel, exists := r.activeRuns[invocationID]
	r.mu.Unlock()

	if !exists {
		return fmt.Errorf("invocation %s not found", invocationID)
	}
	cancel()
	return nil
}

// processEvents drains the agent's emit channel: persist, forward, resume.
// The resume signal is sent only after AppendEvent succeeded, which is what
// keeps agents from racing ahead of the session log.
func (r *Runner) processEvents(
	runCtx *core.RunContext,
	sess *core.Session,
	agentEmit <-chan core.Event,
	resumeCh chan<- struct{},
	eventsCh chan<- core.Event,
) error {
	for {
		select {
		case <-runCtx.Done():
			return runCtx.Err()

		case ev, ok := <-agentEmit:
			if !ok {
				return nil
			}

			// The service skips persistence for partials but still applies
			// the delta to the live session.
			if err := r.sessionService.AppendEvent(runCtx.Context, sess, ev); err != nil {
				return fmt.Errorf("append event %s: %w", ev.ID, err)
			}

			if !ev.IsPartial() {
				r.logger.Debug("runner.event.persisted",
					"event", ev.ID,
					"author", ev.Author,
					"invocation", ev.InvocationID,
				)
			}

			select {
			case <-runCtx.Done():
				return runCtx.Err()
			case eventsCh <- ev:
			}

			if !ev.IsPartial() {
				select {
				case <-runCtx.Done():
					return runCtx.Err()
				case resumeCh <- struct{}{}:
				}
			}
		}
	}
}
