package core

import (
	"context"
	"fmt"

	"github.com/hupe1980/agentcore/logging"
)

// ToolContext is the capability object handed to a tool invocation. It scopes
// the tool to the current state, session artifacts and function call id, and
// accumulates EventActions (state deltas, transfer, escalation) that the flow
// merges into the function-response event. Tools have no other channel to
// the session.
type ToolContext struct {
	runCtx         *RunContext
	functionCallID string
	agentInfo      AgentInfo
	eventActions   EventActions

	*loggerAdapter
}

// NewToolContext constructs a tool context bound to a parent RunContext and
// the id of the function call being served.
func NewToolContext(runCtx *RunContext, functionCallID string) *ToolContext {
	return &ToolContext{
		runCtx:         runCtx,
		functionCallID: functionCallID,
		agentInfo:      runCtx.Agent,
		eventActions:   EventActions{},
		loggerAdapter:  newLoggerAdapter(runCtx.Logger()),
	}
}

// Context returns the context of the surrounding run.
func (tc *ToolContext) Context() context.Context { return tc.runCtx.Context }

// SessionID returns the session the tool is operating in.
func (tc *ToolContext) SessionID() string { return tc.runCtx.SessionID }

// InvocationID returns the current invocation id.
func (tc *ToolContext) InvocationID() string { return tc.runCtx.InvocationID }

// FunctionCallID returns the id of the function call being served.
func (tc *ToolContext) FunctionCallID() string { return tc.functionCallID }

// AgentName returns the calling agent's name.
func (tc *ToolContext) AgentName() string { return tc.agentInfo.Name }

// GetState retrieves a state value visible to the current run.
func (tc *ToolContext) GetState(k string) (any, bool) {
	return tc.runCtx.GetState(k)
}

// SetState records a state mutation both on the run context (immediate
// visibility) and in the local EventActions delta for emission.
func (tc *ToolContext) SetState(k string, v any) {
	tc.runCtx.SetState(k, v)
	if tc.eventActions.StateDelta == nil {
		tc.eventActions.StateDelta = map[string]any{}
	}
	tc.eventActions.StateDelta[k] = v
}

// Actions returns the event actions accumulated so far.
func (tc *ToolContext) Actions() *EventActions { return &tc.eventActions }

// SkipSummarization requests that post-processing summarization be bypassed
// for the originating event.
func (tc *ToolContext) SkipSummarization() {
	b := true
	tc.eventActions.SkipSummarization = &b
}

// TransferToAgent signals orchestration to hand control to another agent.
func (tc *ToolContext) TransferToAgent(name string) {
	tc.eventActions.TransferToAgent = &name
	tc.LogInfo("tool.transfer.request", "from_agent", tc.AgentName(), "to_agent", name, "function_call_id", tc.functionCallID)
}

// Escalate requests early termination of an enclosing loop or escalation to
// a parent agent.
func (tc *ToolContext) Escalate() {
	b := true
	tc.eventActions.Escalate = &b
	tc.LogInfo("tool.escalate.request", "agent", tc.AgentName(), "function_call_id", tc.functionCallID)
}

// SaveArtifact persists a new artifact version and records the delta for
// emission. Returns the assigned version.
func (tc *ToolContext) SaveArtifact(filename string, data []byte) (int, error) {
	version, err := tc.runCtx.SaveArtifact(filename, data)
	if err != nil {
		return 0, err
	}

	if tc.eventActions.ArtifactDelta == nil {
		tc.eventActions.ArtifactDelta = map[string]int{}
	}
	tc.eventActions.ArtifactDelta[filename] = version

	return version, nil
}

// LoadArtifact retrieves a persisted artifact; negative version = latest.
func (tc *ToolContext) LoadArtifact(filename string, version int) ([]byte, error) {
	return tc.runCtx.LoadArtifact(filename, version)
}

// ListArtifacts returns artifact filenames stored for the session.
func (tc *ToolContext) ListArtifacts() ([]string, error) {
	return tc.runCtx.ListArtifacts()
}

// SearchMemory performs a recall query against the configured MemoryService.
func (tc *ToolContext) SearchMemory(query string) ([]MemoryEntry, error) {
	return tc.runCtx.SearchMemory(query)
}

// GetSessionHistory returns filtered conversation history for context.
func (tc *ToolContext) GetSessionHistory() []Event {
	if tc.runCtx.Session == nil {
		return nil
	}
	return tc.runCtx.Session.GetConversationHistory()
}

// Logger returns the logger associated with the tool invocation.
func (tc *ToolContext) Logger() logging.Logger { return tc.loggerAdapter.Logger() }

// Validate performs a structural sanity check of the context.
func (tc *ToolContext) Validate() error {
	if tc.runCtx == nil || tc.runCtx.SessionID == "" || tc.functionCallID == "" {
		return fmt.Errorf("invalid ToolContext")
	}
	return nil
}

// ApplyActions merges accumulated EventActions into the provided event. Used
// by the flow when finalizing function-response events.
func (tc *ToolContext) ApplyActions(ev *Event) {
	if len(tc.eventActions.StateDelta) > 0 {
		if ev.Actions.StateDelta == nil {
			ev.Actions.StateDelta = map[string]any{}
		}
		for k, v := range tc.eventActions.StateDelta {
			ev.Actions.StateDelta[k] = v
		}
	}

	if len(tc.eventActions.ArtifactDelta) > 0 {
		if ev.Actions.ArtifactDelta == nil {
			ev.Actions.ArtifactDelta = map[string]int{}
		}
		for k, v := range tc.eventActions.ArtifactDelta {
			ev.Actions.ArtifactDelta[k] = v
		}
	}

	if tc.eventActions.SkipSummarization != nil {
		ev.Actions.SkipSummarization = tc.eventActions.SkipSummarization
	}

	if tc.eventActions.TransferToAgent != nil {
		ev.Actions.TransferToAgent = tc.eventActions.TransferToAgent
	}

	if tc.eventActions.Escalate != nil {
		ev.Actions.Escalate = tc.eventActions.Escalate
	}
}
