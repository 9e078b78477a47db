package flow

import (
	"fmt"

	"github.com/hupe1980/agentcore/core"
	"github.com/hupe1980/agentcore/internal/util"
	"github.com/hupe1980/agentcore/model"
)

// InstructionsProcessor resolves the agent instruction and renders {key}
// placeholders from the session state.
type InstructionsProcessor struct{}

// NewInstructionsProcessor creates a new instructions processor.
func NewInstructionsProcessor() *InstructionsProcessor { return &InstructionsProcessor{} }

// Name returns the processor's identifier.
func (p *InstructionsProcessor) Name() string { return "instructions" }

// ProcessRequest sets req.Instructions from the resolved, templated
// instruction text.
func (p *InstructionsProcessor) ProcessRequest(runCtx *core.RunContext, req *model.Request, agent FlowAgent) error {
	instructions, err := agent.ResolveInstructions(runCtx)
	if err != nil {
		return fmt.Errorf("failed to resolve instruction: %w", err)
	}

	runCtx.LogDebug("agent.instruction.resolved", "agent", agent.Name(), "length", len(instructions))

	if runCtx.Session != nil && runCtx.Session.State != nil {
		rendered, err := util.RenderTemplate(instructions, runCtx.Session.State.ToMap())
		if err != nil {
			return fmt.Errorf("failed to render instruction template: %w", err)
		}
		req.Instructions = rendered
		return nil
	}

	req.Instructions = instructions
	return nil
}

// ContentsProcessor assembles the conversation history sent to the model.
type ContentsProcessor struct{}

// NewContentsProcessor creates a new contents processor.
func NewContentsProcessor() *ContentsProcessor { return &ContentsProcessor{} }

// Name returns the processor's identifier.
func (p *ContentsProcessor) Name() string { return "contents" }

// ProcessRequest adds the trailing window of conversation history to the
// request. The current user message is part of the history because the
// runner persists it before the agent runs.
func (p *ContentsProcessor) ProcessRequest(runCtx *core.RunContext, req *model.Request, agent FlowAgent) error {
	if runCtx.Session == nil {
		req.Contents = append(req.Contents, runCtx.UserContent)
		return nil
	}

	events := runCtx.Session.GetConversationHistory()
	if max := agent.MaxHistoryMessages(); max > 0 && len(events) > max {
		events = events[len(events)-max:]
	}

	for _, ev := range events {
		if ev.Content != nil && len(ev.Content.Parts) > 0 {
			req.Contents = append(req.Contents, *ev.Content)
		}
	}
	return nil
}
