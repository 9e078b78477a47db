package tool

import (
	"github.com/hupe1980/agentcore/core"
)

// ExitLoopToolName is the function name models use to break out of a loop agent.
const ExitLoopToolName = "exit_loop"

// exitLoopTool escalates to the enclosing loop agent, ending iteration early.
type exitLoopTool struct{}

// NewExitLoopTool constructs the exit_loop tool instance. Register it on
// agents running inside a loop so the model can stop iterating once the goal
// is met.
func NewExitLoopTool() Tool { return &exitLoopTool{} }

func (t *exitLoopTool) Name() string { return ExitLoopToolName }

func (t *exitLoopTool) Description() string {
	return "Exit the current loop. Call this when the task is complete and no further iterations are needed."
}

func (t *exitLoopTool) Parameters() map[string]any {
	return map[string]any{
		"type":       "object",
		"properties": map[string]any{},
	}
}

func (t *exitLoopTool) Call(tc *core.ToolContext, _ map[string]any) (any, error) {
	tc.Escalate()
	return map[string]any{"exited": true}, nil
}
