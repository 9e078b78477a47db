package agent

import (
	"fmt"

	"github.com/hupe1980/agentcore/core"
	"github.com/hupe1980/agentcore/flow"
	"github.com/hupe1980/agentcore/model"
	"github.com/hupe1980/agentcore/tool"
)

// LLMAgentOptions configures an LLMAgent instance.
//
// Use functional options with NewLLMAgent to override defaults.
type LLMAgentOptions struct {
	Description           string
	Instruction           Instruction
	EnableStreaming       bool
	EnableFunctionCalling bool
	OutputKey             string
	MaxHistoryMessages    int
	AllowTransfer         bool
	Tools                 map[string]tool.Tool
}

// LLMAgent is the model-backed agent: it converses through a language model,
// calls registered tools, and may delegate to other agents in its tree.
//
// Supported capabilities:
//   - Natural language conversation driven by instructions
//   - Function calling with registered tools
//   - Streaming partial responses for real-time interactions
//   - Saving final responses under a session state key (OutputKey)
//   - Transfer of control to sub-agents via the model
//
// LLMAgent embeds BaseAgent for hierarchy management and delegates its turn
// loop to the flow package.
type LLMAgent struct {
	BaseAgent
	llm                   model.Model
	instruction           Instruction
	tools                 map[string]tool.Tool
	enableFunctionCalling bool
	enableStreaming       bool
	outputKey             string
	maxHistoryMessages    int
	allowTransfer         bool
}

// NewLLMAgent creates a model-backed agent with sensible defaults: streaming
// and function calling enabled, a 20-message history window, and transfer
// allowed when sub-agents exist.
func NewLLMAgent(name string, llm model.Model, optFns ...func(o *LLMAgentOptions)) *LLMAgent {
	opts := LLMAgentOptions{
		Instruction:           NewInstructionFromText(fmt.Sprintf("You are %s, a helpful AI assistant.", name)),
		EnableStreaming:       true,
		EnableFunctionCalling: true,
		MaxHistoryMessages:    20,
		AllowTransfer:         true,
		Tools:                 make(map[string]tool.Tool),
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	a := &LLMAgent{
		BaseAgent:             NewBaseAgent(name),
		llm:                   llm,
		instruction:           opts.Instruction,
		enableStreaming:       opts.EnableStreaming,
		enableFunctionCalling: opts.EnableFunctionCalling,
		outputKey:             opts.OutputKey,
		maxHistoryMessages:    opts.MaxHistoryMessages,
		allowTransfer:         opts.AllowTransfer,
		tools:                 opts.Tools,
	}

	if opts.Description != "" {
		a.SetDescription(opts.Description)
	}

	return a
}

// SetInstruction replaces the agent's instruction source.
func (a *LLMAgent) SetInstruction(instruction Instruction) {
	a.instruction = instruction
}

// RegisterTool adds a tool to the agent's capability set. Registered tools
// become callable by the model when function calling is enabled.
func (a *LLMAgent) RegisterTool(t tool.Tool) {
	a.tools[t.Name()] = t
}

// RegisterTools adds multiple tools at once.
func (a *LLMAgent) RegisterTools(tools ...tool.Tool) {
	for _, t := range tools {
		a.RegisterTool(t)
	}
}

// UnregisterTool removes a tool, reporting whether it was registered.
func (a *LLMAgent) UnregisterTool(name string) bool {
	if _, exists := a.tools[name]; exists {
		delete(a.tools, name)
		return true
	}
	return false
}

// HasTool checks if a tool is registered with the agent.
func (a *LLMAgent) HasTool(name string) bool {
	_, exists := a.tools[name]
	return exists
}

// ListTools returns the names of all registered tools.
func (a *LLMAgent) ListTools() []string {
	names := make([]string, 0, len(a.tools))
	for name := range a.tools {
		names = append(names, name)
	}
	return names
}

// Model returns the language model driving the agent.
func (a *LLMAgent) Model() model.Model { return a.llm }

// Tools returns the tool registry exposed to the flow. When transfer is
// possible the delegation tool is included so the executor can resolve the
// model's transfer calls.
func (a *LLMAgent) Tools() map[string]tool.Tool {
	tools := make(map[string]tool.Tool, len(a.tools)+1)
	for name, t := range a.tools {
		tools[name] = t
	}

	if a.IsTransferEnabled() && len(a.TransferTargets()) > 0 {
		if _, exists := tools[tool.TransferToAgentToolName]; !exists {
			tools[tool.TransferToAgentToolName] = tool.NewTransferToAgentTool()
		}
	}

	return tools
}

// TransferTargets returns the agents this agent may delegate to: its direct
// sub-agents.
func (a *LLMAgent) TransferTargets() []core.Agent {
	return a.SubAgents()
}

// IsFunctionCallingEnabled reports whether tools are exposed to the model.
func (a *LLMAgent) IsFunctionCallingEnabled() bool { return a.enableFunctionCalling }

// IsStreamingEnabled reports whether partial responses are streamed.
func (a *LLMAgent) IsStreamingEnabled() bool { return a.enableStreaming }

// IsTransferEnabled reports whether the agent may hand control to others.
func (a *LLMAgent) IsTransferEnabled() bool { return a.allowTransfer }

// OutputKey returns the session state key final responses are saved under;
// empty disables the capture.
func (a *LLMAgent) OutputKey() string { return a.outputKey }

// MaxHistoryMessages returns the conversation history window sent to the
// model.
func (a *LLMAgent) MaxHistoryMessages() int { return a.maxHistoryMessages }

// ResolveInstructions produces the raw instruction text; {key} placeholders
// are filled from session state by the flow's instruction processor.
func (a *LLMAgent) ResolveInstructions(runCtx *core.RunContext) (string, error) {
	return a.instruction.Resolve(runCtx)
}

// TransferToAgent delegates the invocation to a named agent anywhere in the
// tree, sharing the current context (session state, emit channel).
func (a *LLMAgent) TransferToAgent(runCtx *core.RunContext, agentName string) error {
	target := core.FindInTree(a, agentName)
	if target == nil {
		return fmt.Errorf("agent %q not found in hierarchy", agentName)
	}
	return target.Run(runCtx)
}

// Run implements core.Agent. It selects the flow matching the agent's
// capabilities, executes it, and streams the flow's events to the invocation
// context. A value on the flow's error channel fails the invocation.
func (a *LLMAgent) Run(runCtx *core.RunContext) error {
	runCtx.LogDebug("agent.run.start", "agent", a.Name(), "invocation", runCtx.InvocationID)

	selector := flow.NewSelector()
	fl := selector.SelectFlow(a)

	runCtx.LogDebug("agent.flow.selected", "agent", a.Name(), "flow", fmt.Sprintf("%T", fl))

	eventChan, errChan := fl.Execute(runCtx)

	var flowErr error
	for eventChan != nil || errChan != nil {
		select {
		case ev, ok := <-eventChan:
			if !ok {
				eventChan = nil
				continue
			}
			if err := runCtx.EmitEvent(ev); err != nil {
				return err
			}

		case err, ok := <-errChan:
			if !ok {
				errChan = nil
				continue
			}
			if err != nil {
				flowErr = err
			}

		case <-runCtx.Done():
			return runCtx.Err()
		}
	}

	if flowErr != nil {
		runCtx.LogError("agent.run.failed", "agent", a.Name(), "error", flowErr.Error())
		return flowErr
	}

	runCtx.LogDebug("agent.run.complete", "agent", a.Name())
	return nil
}
