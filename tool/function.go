package tool

import (
	"errors"
	"fmt"
	"time"

	"github.com/hupe1980/agentcore/core"
	"github.com/hupe1980/agentcore/internal/util"
)

// FunctionTool exposes a plain Go function as a tool.
//
// It holds a lightweight JSON-Schema-like parameter specification, validates
// model supplied arguments against it before execution, and hands the wrapped
// function a *core.ToolContext for session state, logging and artifact
// access. Failures are normalized into *ToolError: VALIDATION_ERROR for
// schema mismatches, EXECUTION_ERROR for plain errors from the function, and
// custom codes preserved when the function returns a *ToolError itself.
//
// A FunctionTool carries no mutable state after construction and is safe for
// concurrent use. The result can be any value the higher layer can serialize
// to JSON; implement Tool directly when more structure is needed.
type FunctionTool struct {
	name        string
	description string
	parameters  map[string]any
	fn          func(toolCtx *core.ToolContext, args map[string]any) (any, error)
}

// NewFunctionTool constructs a FunctionTool from an explicit schema and
// implementation.
//
// Example:
//
//	lookup := NewFunctionTool(
//	  "lookup_order",
//	  "Look up an order by its number",
//	  map[string]any{
//	    "type": "object",
//	    "properties": map[string]any{
//	      "order_number": map[string]any{"type": "string"},
//	    },
//	    "required": []string{"order_number"},
//	  },
//	  func(tc *core.ToolContext, args map[string]any) (any, error) {
//	    return findOrder(args["order_number"].(string))
//	  },
//	)
func NewFunctionTool(
	name, description string,
	parameters map[string]any,
	fn func(toolCtx *core.ToolContext, args map[string]any) (any, error),
) *FunctionTool {
	return &FunctionTool{
		name:        name,
		description: description,
		parameters:  parameters,
		fn:          fn,
	}
}

// NewFunctionToolFromStruct derives the parameter schema from a struct via
// reflection, honoring json, description and enum tags.
//
// Example:
//
//	type LookupArgs struct {
//	  OrderNumber string `json:"order_number" description:"Order to look up"`
//	}
//
//	lookup := NewFunctionToolFromStruct("lookup_order", "Look up an order by its number", LookupArgs{}, fn)
func NewFunctionToolFromStruct(
	name, description string,
	structType any,
	fn func(toolCtx *core.ToolContext, args map[string]any) (any, error),
) *FunctionTool {
	return NewFunctionTool(name, description, util.CreateSchema(structType), fn)
}

// Name returns the unique tool name used in function call declarations and routing.
func (t *FunctionTool) Name() string { return t.name }

// Description returns the short natural language description exposed to models.
func (t *FunctionTool) Description() string { return t.description }

// Parameters returns the JSON schema describing expected arguments.
func (t *FunctionTool) Parameters() map[string]any { return t.parameters }

// Call validates args against the declared schema and runs the wrapped
// function, converting any failure into a *ToolError.
func (t *FunctionTool) Call(toolCtx *core.ToolContext, args map[string]any) (any, error) {
	logger := toolCtx.Logger()
	started := time.Now()

	logger.Debug("tool.call.start", "tool", t.name, "fc_id", toolCtx.FunctionCallID())

	if err := util.ValidateParameters(args, t.parameters); err != nil {
		logger.Warn("tool.call.rejected", "tool", t.name, "error", err.Error())
		return nil, &ToolError{
			Tool:    t.name,
			Message: fmt.Sprintf("parameter validation failed: %v", err),
			Code:    "VALIDATION_ERROR",
			Details: err,
		}
	}

	result, err := t.fn(toolCtx, args)
	if err == nil {
		logger.Info("tool.call.success", "tool", t.name, "duration_ms", time.Since(started).Milliseconds())
		return result, nil
	}

	var toolErr *ToolError
	if errors.As(err, &toolErr) {
		logger.Error("tool.call.error", "tool", t.name, "error", toolErr.Message)
		return nil, toolErr
	}
	logger.Error("tool.call.error", "tool", t.name, "error", err.Error())
	return nil, &ToolError{
		Tool:    t.name,
		Message: err.Error(),
		Code:    "EXECUTION_ERROR",
	}
}
