package agent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentcore/core"
	"github.com/hupe1980/agentcore/session"
)

// scriptedAgent is a leaf agent emitting a fixed event sequence, used to
// exercise composite coordinators without a model.
type scriptedAgent struct {
	BaseAgent
	events []core.Event
	err    error

	// onRun, when set, produces the events for each run; it overrides the
	// static events slice and receives the 1-based run count.
	onRun func(run int) []core.Event
	runs  int
}

func newScriptedAgent(name string, events ...core.Event) *scriptedAgent {
	return &scriptedAgent{BaseAgent: NewBaseAgent(name), events: events}
}

func (s *scriptedAgent) Run(runCtx *core.RunContext) error {
	s.runs++

	events := s.events
	if s.onRun != nil {
		events = s.onRun(s.runs)
	}

	for _, ev := range events {
		ev.InvocationID = runCtx.InvocationID
		ev.Author = s.Name()
		if err := runCtx.EmitEvent(ev); err != nil {
			return err
		}
		if !ev.IsPartial() {
			if err := runCtx.WaitForResume(); err != nil {
				return err
			}
		}
	}
	return s.err
}

func textEvent(text string) core.Event {
	ev := core.NewEvent("", "")
	c := core.NewTextContent("assistant", text)
	ev.Content = &c
	return ev
}

func escalationEvent(text string) core.Event {
	c := core.NewTextContent("assistant", text)
	return NewEscalationEvent("", "", &c)
}

// agentHarness mimics the runner's event loop: it drains the emit channel,
// persists each event, and acknowledges non-partial events on the resume
// channel.
type agentHarness struct {
	svc     *session.InMemoryService
	sess    *core.Session
	runCtx  *core.RunContext
	emitCh  chan core.Event
	drained chan struct{}

	Events []core.Event
}

func newAgentHarness(t *testing.T) *agentHarness {
	t.Helper()

	svc := session.NewInMemoryService()
	sess, err := svc.Create(context.Background(), "app", "user", "s1", nil)
	require.NoError(t, err)

	emitCh := make(chan core.Event, 100)
	resumeCh := make(chan struct{}, 1)

	h := &agentHarness{
		svc:     svc,
		sess:    sess,
		emitCh:  emitCh,
		drained: make(chan struct{}),
	}

	h.runCtx = core.NewRunContext(core.RunContextParams{
		Context:        context.Background(),
		AppName:        "app",
		UserID:         "user",
		SessionID:      "s1",
		InvocationID:   "inv-1",
		Agent:          core.AgentInfo{Name: "root", Type: "test"},
		UserContent:    core.NewTextContent("user", "go"),
		MaxModelCalls:  50,
		Emit:           emitCh,
		Resume:         resumeCh,
		Session:        sess,
		SessionService: svc,
	})

	go func() {
		defer close(h.drained)
		for ev := range emitCh {
			_ = svc.AppendEvent(context.Background(), sess, ev)
			h.Events = append(h.Events, ev)
			if !ev.IsPartial() {
				resumeCh <- struct{}{}
			}
		}
	}()

	return h
}

// Run executes the agent against the harness context and waits until every
// emitted event has been processed.
func (h *agentHarness) Run(a core.Agent) error {
	err := a.Run(h.runCtx)
	close(h.emitCh)
	<-h.drained
	return err
}

// Texts returns the text of every captured non-partial event.
func (h *agentHarness) Texts() []string {
	var out []string
	for _, ev := range h.Events {
		if !ev.IsPartial() {
			if text := ev.Text(); text != "" {
				out = append(out, text)
			}
		}
	}
	return out
}
