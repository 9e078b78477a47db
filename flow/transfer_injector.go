package flow

import (
	"fmt"
	"strings"

	"github.com/hupe1980/agentcore/core"
	"github.com/hupe1980/agentcore/model"
	"github.com/hupe1980/agentcore/tool"
)

// TransferToolInjector exposes the transfer_to_agent function to the model
// when the agent has transfer targets. The definition lists the available
// agents with their descriptions so the model can pick a suitable delegate.
type TransferToolInjector struct{}

// NewTransferToolInjector creates a new transfer tool injector.
func NewTransferToolInjector() *TransferToolInjector { return &TransferToolInjector{} }

// Name returns the processor's identifier.
func (p *TransferToolInjector) Name() string { return "transfer_injector" }

// ProcessRequest appends the transfer_to_agent tool definition when transfer
// is enabled and targets exist. Repeated calls never duplicate the
// definition.
func (p *TransferToolInjector) ProcessRequest(_ *core.RunContext, req *model.Request, agent FlowAgent) error {
	if !agent.IsTransferEnabled() {
		return nil
	}
	targets := agent.TransferTargets()
	if len(targets) == 0 {
		return nil
	}

	for _, td := range req.Tools {
		if td.Function.Name == tool.TransferToAgentToolName {
			return nil
		}
	}

	names := make([]string, 0, len(targets))
	var desc strings.Builder
	desc.WriteString("Transfer the conversation to another agent. Available agents:\n")
	for _, t := range targets {
		names = append(names, t.Name())
		fmt.Fprintf(&desc, "- %s: %s\n", t.Name(), t.Description())
	}

	req.Tools = append(req.Tools, model.ToolDefinition{
		Type: "function",
		Function: model.FunctionDefinition{
			Name:        tool.TransferToAgentToolName,
			Description: desc.String(),
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"agent_name": map[string]any{
						"type":        "string",
						"description": "Name of the agent to transfer to",
						"enum":        stringsToAny(names),
					},
				},
				"required": []string{"agent_name"},
			},
		},
	})
	return nil
}

func stringsToAny(in []string) []any {
	out := make([]any, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}
