package tool

import (
	"fmt"
	"strings"

	"github.com/hupe1980/agentcore/core"
)

// StateManagerTool exposes session state, flow control, artifact and memory
// operations to the model as a single multiplexed tool.
type StateManagerTool struct {
	name        string
	description string
}

// NewStateManagerTool creates a new state management tool.
//
// Supported operations:
//   - get_state / set_state for session state access
//   - transfer_agent / escalate / skip_summarization for flow control
//   - save_artifact / load_artifact / list_artifacts for artifact handling
//   - search_memory for long-term memory retrieval
//   - get_session_history for conversation inspection
func NewStateManagerTool() *StateManagerTool {
	return &StateManagerTool{
		name: "state_manager",
		description: "Manages session state, agent flow control, and runtime integration. " +
			"Supports operations: get_state, set_state, transfer_agent, escalate, save_artifact, " +
			"load_artifact, list_artifacts, search_memory, get_session_history, skip_summarization.",
	}
}

// Name returns the tool identifier.
func (t *StateManagerTool) Name() string { return t.name }

// Description returns the tool description.
func (t *StateManagerTool) Description() string { return t.description }

// Parameters returns the JSON schema for tool parameters.
func (t *StateManagerTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"operation": map[string]any{
				"type": "string",
				"enum": []any{
					"get_state", "set_state", "transfer_agent", "escalate",
					"save_artifact", "load_artifact", "list_artifacts",
					"search_memory", "get_session_history", "skip_summarization",
				},
				"description": "The state management operation to perform",
			},
			"key": map[string]any{
				"type":        "string",
				"description": "State key for get_state/set_state operations",
			},
			"value": map[string]any{
				"description": "Value for set_state operations (any type)",
			},
			"agent_name": map[string]any{
				"type":        "string",
				"description": "Agent name for transfer_agent operation",
			},
			"filename": map[string]any{
				"type":        "string",
				"description": "Artifact filename for artifact operations",
			},
			"data": map[string]any{
				"type":        "string",
				"description": "Text content for save_artifact operation",
			},
			"version": map[string]any{
				"type":        "integer",
				"description": "Artifact version for load_artifact (omit or -1 for latest)",
			},
			"query": map[string]any{
				"type":        "string",
				"description": "Search query for search_memory operation",
			},
			"limit": map[string]any{
				"type":        "integer",
				"description": "Maximum number of memory results (default: 10)",
			},
		},
		"required": []string{"operation"},
	}
}

// Call dispatches to the requested operation.
func (t *StateManagerTool) Call(toolCtx *core.ToolContext, args map[string]any) (any, error) {
	operation, ok := args["operation"].(string)
	if !ok {
		return nil, fmt.Errorf("operation parameter is required")
	}

	switch operation {
	case "get_state":
		return t.getState(toolCtx, args)
	case "set_state":
		return t.setState(toolCtx, args)
	case "transfer_agent":
		return t.transferAgent(toolCtx, args)
	case "escalate":
		toolCtx.Escalate()
		return okResult("Escalation initiated"), nil
	case "save_artifact":
		return t.saveArtifact(toolCtx, args)
	case "load_artifact":
		return t.loadArtifact(toolCtx, args)
	case "list_artifacts":
		return t.listArtifacts(toolCtx)
	case "search_memory":
		return t.searchMemory(toolCtx, args)
	case "get_session_history":
		return t.sessionHistory(toolCtx)
	case "skip_summarization":
		toolCtx.SkipSummarization()
		return okResult("Summarization will be skipped for this interaction"), nil
	default:
		return nil, fmt.Errorf("unknown operation: %s", operation)
	}
}

func okResult(message string) map[string]any {
	return map[string]any{"success": true, "message": message}
}

// stringArg extracts a mandatory string argument for the named operation.
func stringArg(args map[string]any, key, op string) (string, error) {
	s, ok := args[key].(string)
	if !ok {
		return "", fmt.Errorf("%s parameter is required for %s operation", key, op)
	}
	return s, nil
}

func (t *StateManagerTool) getState(toolCtx *core.ToolContext, args map[string]any) (any, error) {
	key, err := stringArg(args, "key", "get_state")
	if err != nil {
		return nil, err
	}
	value, exists := toolCtx.GetState(key)
	return map[string]any{"key": key, "exists": exists, "value": value}, nil
}

func (t *StateManagerTool) setState(toolCtx *core.ToolContext, args map[string]any) (any, error) {
	key, err := stringArg(args, "key", "set_state")
	if err != nil {
		return nil, err
	}
	toolCtx.SetState(key, args["value"])
	return map[string]any{"key": key, "value": args["value"], "success": true}, nil
}

func (t *StateManagerTool) transferAgent(toolCtx *core.ToolContext, args map[string]any) (any, error) {
	target, err := stringArg(args, "agent_name", "transfer_agent")
	if err != nil {
		return nil, err
	}
	toolCtx.TransferToAgent(target)
	return map[string]any{
		"agent_name": target,
		"success":    true,
		"message":    fmt.Sprintf("Transfer to agent '%s' initiated", target),
	}, nil
}

func (t *StateManagerTool) saveArtifact(toolCtx *core.ToolContext, args map[string]any) (any, error) {
	filename, err := stringArg(args, "filename", "save_artifact")
	if err != nil {
		return nil, err
	}
	data, err := stringArg(args, "data", "save_artifact")
	if err != nil {
		return nil, err
	}
	version, err := toolCtx.SaveArtifact(filename, []byte(data))
	if err != nil {
		return nil, fmt.Errorf("failed to save artifact: %w", err)
	}
	return map[string]any{
		"filename": filename,
		"version":  version,
		"size":     len(data),
		"success":  true,
	}, nil
}

func (t *StateManagerTool) loadArtifact(toolCtx *core.ToolContext, args map[string]any) (any, error) {
	filename, err := stringArg(args, "filename", "load_artifact")
	if err != nil {
		return nil, err
	}
	version := -1
	if v, ok := args["version"].(float64); ok {
		version = int(v)
	}
	data, err := toolCtx.LoadArtifact(filename, version)
	if err != nil {
		return nil, fmt.Errorf("failed to load artifact: %w", err)
	}
	return map[string]any{
		"filename": filename,
		"data":     string(data),
		"size":     len(data),
		"success":  true,
	}, nil
}

func (t *StateManagerTool) listArtifacts(toolCtx *core.ToolContext) (any, error) {
	artifacts, err := toolCtx.ListArtifacts()
	if err != nil {
		return nil, fmt.Errorf("failed to list artifacts: %w", err)
	}
	return map[string]any{"artifacts": artifacts, "count": len(artifacts), "success": true}, nil
}

func (t *StateManagerTool) searchMemory(toolCtx *core.ToolContext, args map[string]any) (any, error) {
	query, err := stringArg(args, "query", "search_memory")
	if err != nil {
		return nil, err
	}
	limit := 10
	if l, ok := args["limit"].(float64); ok && l > 0 {
		limit = int(l)
	}
	results, err := toolCtx.SearchMemory(query)
	if err != nil {
		return nil, fmt.Errorf("failed to search memory: %w", err)
	}
	if len(results) > limit {
		results = results[:limit]
	}
	return map[string]any{
		"query":   query,
		"count":   len(results),
		"results": results,
		"success": true,
	}, nil
}

func (t *StateManagerTool) sessionHistory(toolCtx *core.ToolContext) (any, error) {
	history := toolCtx.GetSessionHistory()
	events := make([]map[string]any, len(history))
	for i, ev := range history {
		events[i] = map[string]any{
			"id":          ev.ID,
			"author":      ev.Author,
			"timestamp":   ev.Timestamp,
			"partial":     ev.Partial,
			"has_content": ev.Content != nil,
		}
		if summary := summarizeContent(ev.Content); summary != "" {
			events[i]["content_summary"] = summary
		}
	}
	return map[string]any{"events": events, "count": len(events), "success": true}, nil
}

// summarizeContent renders a compact one line description of an event's parts
// so the model can scan history without pulling full payloads.
func summarizeContent(c *core.Content) string {
	if c == nil || len(c.Parts) == 0 {
		return ""
	}
	parts := make([]string, 0, len(c.Parts))
	for _, part := range c.Parts {
		switch p := part.(type) {
		case core.TextPart:
			preview := p.Text
			if len(preview) > 100 {
				preview = preview[:100] + "..."
			}
			parts = append(parts, "text: "+preview)
		case core.FunctionCallPart:
			parts = append(parts, "function_call: "+p.FunctionCall.Name)
		case core.FunctionResponsePart:
			parts = append(parts, "function_response: "+p.FunctionResponse.Name)
		default:
			parts = append(parts, "other")
		}
	}
	return strings.Join(parts, ", ")
}
