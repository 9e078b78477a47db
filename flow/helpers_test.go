package flow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentcore/core"
	"github.com/hupe1980/agentcore/model"
	"github.com/hupe1980/agentcore/session"
	"github.com/hupe1980/agentcore/tool"
)

// fakeFlowAgent is a configurable FlowAgent implementation for flow tests.
type fakeFlowAgent struct {
	name            string
	model           model.Model
	instructions    string
	instructionsErr error
	tools           map[string]tool.Tool
	targets         []core.Agent
	functionCalling bool
	streaming       bool
	transfer        bool
	outputKey       string
	maxHistory      int

	transferredTo string
	transferErr   error
}

func (a *fakeFlowAgent) Name() string       { return a.name }
func (a *fakeFlowAgent) Model() model.Model { return a.model }

func (a *fakeFlowAgent) ResolveInstructions(*core.RunContext) (string, error) {
	return a.instructions, a.instructionsErr
}

func (a *fakeFlowAgent) Tools() map[string]tool.Tool {
	if a.tools == nil {
		return map[string]tool.Tool{}
	}
	return a.tools
}

func (a *fakeFlowAgent) TransferTargets() []core.Agent { return a.targets }
func (a *fakeFlowAgent) IsFunctionCallingEnabled() bool { return a.functionCalling }
func (a *fakeFlowAgent) IsStreamingEnabled() bool        { return a.streaming }
func (a *fakeFlowAgent) IsTransferEnabled() bool         { return a.transfer }
func (a *fakeFlowAgent) OutputKey() string               { return a.outputKey }

func (a *fakeFlowAgent) MaxHistoryMessages() int { return a.maxHistory }

func (a *fakeFlowAgent) TransferToAgent(_ *core.RunContext, agentName string) error {
	a.transferredTo = agentName
	return a.transferErr
}

// stubAgent is a minimal core.Agent used as a transfer target.
type stubAgent struct {
	name string
	desc string
}

func (s *stubAgent) Name() string                  { return s.name }
func (s *stubAgent) Description() string           { return s.desc }
func (s *stubAgent) Run(*core.RunContext) error    { return nil }
func (s *stubAgent) SetSubAgents(...core.Agent) error { return nil }
func (s *stubAgent) SubAgents() []core.Agent       { return nil }
func (s *stubAgent) Parent() core.Agent            { return nil }
func (s *stubAgent) FindAgent(string) core.Agent   { return nil }

// newFlowRunContext creates a run context backed by an in-memory session
// service holding one session with a persisted user message.
func newFlowRunContext(t *testing.T, userText string) *core.RunContext {
	t.Helper()

	svc := session.NewInMemoryService()
	sess, err := svc.Create(context.Background(), "app", "user", "s1", nil)
	require.NoError(t, err)

	userEv := core.NewUserMessageEvent("inv-1", userText)
	require.NoError(t, svc.AppendEvent(context.Background(), sess, userEv))

	return core.NewRunContext(core.RunContextParams{
		Context:        context.Background(),
		AppName:        "app",
		UserID:         "user",
		SessionID:      "s1",
		InvocationID:   "inv-1",
		Agent:          core.AgentInfo{Name: "agent", Type: "llm"},
		UserContent:    core.NewTextContent("user", userText),
		MaxModelCalls:  10,
		Session:        sess,
		SessionService: svc,
	})
}

// drainFlow collects all events and the fatal error (if any) from a flow run.
func drainFlow(eventChan <-chan core.Event, errChan <-chan error) ([]core.Event, error) {
	var events []core.Event
	var fatal error
	for eventChan != nil || errChan != nil {
		select {
		case ev, ok := <-eventChan:
			if !ok {
				eventChan = nil
				continue
			}
			events = append(events, ev)
		case err, ok := <-errChan:
			if !ok {
				errChan = nil
				continue
			}
			if err != nil {
				fatal = err
			}
		}
	}
	return events, fatal
}
