package tool

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentcore/artifact"
	"github.com/hupe1980/agentcore/core"
	"github.com/hupe1980/agentcore/internal/testutil"
	"github.com/hupe1980/agentcore/memory"
)

func newTestToolContext(t *testing.T) *core.ToolContext {
	t.Helper()

	sess := testutil.NewSessionBuilder("app", "user", "s1").
		State("existing", "value").
		Build()

	runCtx := core.NewRunContext(core.RunContextParams{
		Context:         context.Background(),
		AppName:         "app",
		UserID:          "user",
		SessionID:       "s1",
		InvocationID:    "inv-1",
		Agent:           core.AgentInfo{Name: "agent", Type: "llm"},
		Session:         sess,
		ArtifactService: artifact.NewInMemoryService(),
		MemoryService:   memory.NewInMemoryService(),
	})
	return core.NewToolContext(runCtx, "call-1")
}

func TestFunctionToolCall(t *testing.T) {
	sumSchema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"a": map[string]any{"type": "number"},
			"b": map[string]any{"type": "number"},
		},
		"required": []string{"a", "b"},
	}
	sum := NewFunctionTool("calculate_sum", "Adds two numbers", sumSchema,
		func(_ *core.ToolContext, args map[string]any) (any, error) {
			return args["a"].(float64) + args["b"].(float64), nil
		})

	assert.Equal(t, "calculate_sum", sum.Name())
	assert.Equal(t, "Adds two numbers", sum.Description())
	assert.Equal(t, sumSchema, sum.Parameters())

	t.Run("success", func(t *testing.T) {
		result, err := sum.Call(newTestToolContext(t), map[string]any{"a": 1.5, "b": 2.5})
		require.NoError(t, err)
		assert.Equal(t, 4.0, result)
	})

	t.Run("missing required argument", func(t *testing.T) {
		_, err := sum.Call(newTestToolContext(t), map[string]any{"a": 1.0})
		var toolErr *ToolError
		require.ErrorAs(t, err, &toolErr)
		assert.Equal(t, "VALIDATION_ERROR", toolErr.Code)
		assert.Equal(t, "calculate_sum", toolErr.Tool)
	})

	t.Run("wrong argument type", func(t *testing.T) {
		_, err := sum.Call(newTestToolContext(t), map[string]any{"a": "one", "b": 2.0})
		var toolErr *ToolError
		require.ErrorAs(t, err, &toolErr)
		assert.Equal(t, "VALIDATION_ERROR", toolErr.Code)
	})

	t.Run("execution error is wrapped", func(t *testing.T) {
		failing := NewFunctionTool("fail", "always fails", map[string]any{"type": "object", "properties": map[string]any{}},
			func(_ *core.ToolContext, _ map[string]any) (any, error) {
				return nil, errors.New("boom")
			})
		_, err := failing.Call(newTestToolContext(t), map[string]any{})
		var toolErr *ToolError
		require.ErrorAs(t, err, &toolErr)
		assert.Equal(t, "EXECUTION_ERROR", toolErr.Code)
		assert.Equal(t, "boom", toolErr.Message)
	})

	t.Run("tool errors pass through untouched", func(t *testing.T) {
		custom := NewToolError("rate", "quota exceeded", "RATE_LIMITED")
		failing := NewFunctionTool("rate", "rate limited", map[string]any{"type": "object", "properties": map[string]any{}},
			func(_ *core.ToolContext, _ map[string]any) (any, error) {
				return nil, custom
			})
		_, err := failing.Call(newTestToolContext(t), map[string]any{})
		var toolErr *ToolError
		require.ErrorAs(t, err, &toolErr)
		assert.Same(t, custom, toolErr)
	})
}

func TestNewFunctionToolFromStruct(t *testing.T) {
	type weatherArgs struct {
		Location string `json:"location" description:"City name"`
		Unit     string `json:"unit,omitempty" enum:"celsius,fahrenheit"`
	}

	wt := NewFunctionToolFromStruct("get_weather", "Gets the weather", weatherArgs{},
		func(_ *core.ToolContext, args map[string]any) (any, error) {
			return fmt.Sprintf("sunny in %s", args["location"]), nil
		})

	schema := wt.Parameters()
	props := schema["properties"].(map[string]any)
	loc := props["location"].(map[string]any)
	assert.Equal(t, "string", loc["type"])
	assert.Equal(t, "City name", loc["description"])
	assert.Equal(t, []string{"location"}, schema["required"])
	unit := props["unit"].(map[string]any)
	assert.Equal(t, []any{"celsius", "fahrenheit"}, unit["enum"])

	t.Run("enum is enforced", func(t *testing.T) {
		_, err := wt.Call(newTestToolContext(t), map[string]any{"location": "Berlin", "unit": "kelvin"})
		var toolErr *ToolError
		require.ErrorAs(t, err, &toolErr)
		assert.Equal(t, "VALIDATION_ERROR", toolErr.Code)
	})

	t.Run("optional field may be absent", func(t *testing.T) {
		result, err := wt.Call(newTestToolContext(t), map[string]any{"location": "Berlin"})
		require.NoError(t, err)
		assert.Equal(t, "sunny in Berlin", result)
	})
}

func TestToolErrorError(t *testing.T) {
	withCode := NewToolError("t", "broke", "EXECUTION_ERROR")
	assert.Equal(t, "tool error [EXECUTION_ERROR] in t: broke", withCode.Error())

	withoutCode := &ToolError{Tool: "t", Message: "broke"}
	assert.Equal(t, "tool error in t: broke", withoutCode.Error())
}

func TestExitLoopTool(t *testing.T) {
	tc := newTestToolContext(t)
	el := NewExitLoopTool()
	assert.Equal(t, ExitLoopToolName, el.Name())

	result, err := el.Call(tc, nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"exited": true}, result)

	require.NotNil(t, tc.Actions().Escalate)
	assert.True(t, *tc.Actions().Escalate)
}

func TestTransferToAgentTool(t *testing.T) {
	tr := NewTransferToAgentTool()
	assert.Equal(t, TransferToAgentToolName, tr.Name())

	t.Run("records transfer action", func(t *testing.T) {
		tc := newTestToolContext(t)
		result, err := tr.Call(tc, map[string]any{"agent_name": "Researcher"})
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"transferred": true, "agent_name": "Researcher"}, result)

		require.NotNil(t, tc.Actions().TransferToAgent)
		assert.Equal(t, "Researcher", *tc.Actions().TransferToAgent)
	})

	t.Run("rejects missing or empty target", func(t *testing.T) {
		_, err := tr.Call(newTestToolContext(t), map[string]any{})
		assert.Error(t, err)

		_, err = tr.Call(newTestToolContext(t), map[string]any{"agent_name": ""})
		assert.Error(t, err)
	})
}

func TestStateManagerTool(t *testing.T) {
	sm := NewStateManagerTool()
	assert.Equal(t, "state_manager", sm.Name())

	t.Run("get and set state", func(t *testing.T) {
		tc := newTestToolContext(t)

		result, err := sm.Call(tc, map[string]any{"operation": "set_state", "key": "color", "value": "blue"})
		require.NoError(t, err)
		assert.Equal(t, true, result.(map[string]any)["success"])

		result, err = sm.Call(tc, map[string]any{"operation": "get_state", "key": "color"})
		require.NoError(t, err)
		got := result.(map[string]any)
		assert.Equal(t, true, got["exists"])
		assert.Equal(t, "blue", got["value"])

		result, err = sm.Call(tc, map[string]any{"operation": "get_state", "key": "unset"})
		require.NoError(t, err)
		assert.Equal(t, false, result.(map[string]any)["exists"])
	})

	t.Run("flow control operations", func(t *testing.T) {
		tc := newTestToolContext(t)

		_, err := sm.Call(tc, map[string]any{"operation": "transfer_agent", "agent_name": "Writer"})
		require.NoError(t, err)
		require.NotNil(t, tc.Actions().TransferToAgent)
		assert.Equal(t, "Writer", *tc.Actions().TransferToAgent)

		_, err = sm.Call(tc, map[string]any{"operation": "escalate"})
		require.NoError(t, err)
		require.NotNil(t, tc.Actions().Escalate)

		_, err = sm.Call(tc, map[string]any{"operation": "skip_summarization"})
		require.NoError(t, err)
		require.NotNil(t, tc.Actions().SkipSummarization)
	})

	t.Run("artifact round trip", func(t *testing.T) {
		tc := newTestToolContext(t)

		result, err := sm.Call(tc, map[string]any{"operation": "save_artifact", "filename": "notes.txt", "data": "hello"})
		require.NoError(t, err)
		saved := result.(map[string]any)
		assert.Equal(t, 0, saved["version"])

		result, err = sm.Call(tc, map[string]any{"operation": "load_artifact", "filename": "notes.txt"})
		require.NoError(t, err)
		assert.Equal(t, "hello", result.(map[string]any)["data"])

		result, err = sm.Call(tc, map[string]any{"operation": "list_artifacts"})
		require.NoError(t, err)
		assert.Equal(t, 1, result.(map[string]any)["count"])

		assert.Equal(t, map[string]int{"notes.txt": 0}, tc.Actions().ArtifactDelta)
	})

	t.Run("unknown operation", func(t *testing.T) {
		_, err := sm.Call(newTestToolContext(t), map[string]any{"operation": "self_destruct"})
		assert.ErrorContains(t, err, "unknown operation")
	})

	t.Run("missing operation", func(t *testing.T) {
		_, err := sm.Call(newTestToolContext(t), map[string]any{})
		assert.Error(t, err)
	})
}
