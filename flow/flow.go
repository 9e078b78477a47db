package flow

import (
	"github.com/hupe1980/agentcore/core"
	"github.com/hupe1980/agentcore/model"
	"github.com/hupe1980/agentcore/tool"
)

// Flow defines the interface for agent execution flows.
//
// A flow orchestrates the complete execution pipeline of an agent, from
// processing the initial request to generating the final response. Execute
// returns an event channel and an error channel; both are closed when the
// flow finishes. A value on the error channel is fatal to the invocation.
type Flow interface {
	Execute(runCtx *core.RunContext) (<-chan core.Event, <-chan error)
}

// FlowAgent is the capability surface flows need from a model-backed agent
// without exposing the full agent implementation.
type FlowAgent interface {
	// Name returns the agent's display name, used as event author.
	Name() string

	// Model returns the language model driving the agent.
	Model() model.Model

	// ResolveInstructions produces the raw (untemplated) instruction text.
	ResolveInstructions(runCtx *core.RunContext) (string, error)

	// Tools returns the registered tools for function calling.
	Tools() map[string]tool.Tool

	// TransferTargets returns the agents this agent may delegate to.
	TransferTargets() []core.Agent

	// IsFunctionCallingEnabled reports whether tools are exposed to the model.
	IsFunctionCallingEnabled() bool

	// IsStreamingEnabled reports whether partial responses are streamed.
	IsStreamingEnabled() bool

	// IsTransferEnabled reports whether agent transfer is enabled.
	IsTransferEnabled() bool

	// OutputKey returns the session state key for saving final responses
	// (empty disables the capture).
	OutputKey() string

	// MaxHistoryMessages returns how many conversation history messages to
	// send to the model.
	MaxHistoryMessages() int

	// TransferToAgent delegates the invocation to a named agent in the tree.
	TransferToAgent(runCtx *core.RunContext, agentName string) error
}

// RequestProcessor mutates the model request before generation.
type RequestProcessor interface {
	// Name returns the processor's identifier.
	Name() string
	// ProcessRequest modifies the request before model execution.
	ProcessRequest(runCtx *core.RunContext, req *model.Request, agent FlowAgent) error
}

// ResponseProcessor inspects or mutates each model response chunk.
type ResponseProcessor interface {
	// Name returns the processor's identifier.
	Name() string
	// ProcessResponse handles a model response before it becomes an event.
	ProcessResponse(runCtx *core.RunContext, resp *model.Response, agent FlowAgent) error
}
