package tool

import (
	"fmt"

	"github.com/hupe1980/agentcore/core"
)

// TransferToAgentToolName is the function name models use to delegate control.
const TransferToAgentToolName = "transfer_to_agent"

// transferToAgentTool requests orchestration transfer to a named sub-agent.
type transferToAgentTool struct{}

// NewTransferToAgentTool constructs the transfer tool instance.
func NewTransferToAgentTool() Tool { return &transferToAgentTool{} }

func (t *transferToAgentTool) Name() string { return TransferToAgentToolName }

func (t *transferToAgentTool) Description() string {
	return "Request transfer of control to another agent by name. Use when another agent is better suited to handle the request."
}

func (t *transferToAgentTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"agent_name": map[string]any{"type": "string", "description": "Target agent name"},
		},
		"required": []string{"agent_name"},
	}
}

func (t *transferToAgentTool) Call(tc *core.ToolContext, args map[string]any) (any, error) {
	raw, ok := args["agent_name"]
	if !ok {
		return nil, fmt.Errorf("missing required field 'agent_name'")
	}
	agentName, ok := raw.(string)
	if !ok || agentName == "" {
		return nil, fmt.Errorf("field 'agent_name' must be a non-empty string")
	}
	tc.TransferToAgent(agentName)
	return map[string]any{"transferred": true, "agent_name": agentName}, nil
}
