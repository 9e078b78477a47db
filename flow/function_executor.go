package flow

import (
	"encoding/json"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/agentcore/core"
	"github.com/hupe1980/agentcore/tool"
)

// FunctionExecutor executes a batch of function/tool calls, possibly in
// parallel, and emits function response events through the provided emit
// callback. Implementations must:
//   - Respect runCtx.Context cancellation
//   - Fail the whole batch with *core.ToolNotFoundError when a requested
//     tool is not in the registry, before executing anything
//   - Never panic (recover internally and surface the panic as an error
//     payload in the function response)
//   - Emit exactly one FunctionResponse event per executed FunctionCall,
//     carrying the originating call ID
//   - Apply ToolContext accumulated actions to emitted events
//
// Tool execution failures are not fatal: they travel back to the model as
// error payloads inside the function response. The returned error is fatal
// to the turn; it is reserved for unknown tool names and failed emission.
// The emit callback is responsible for persistence synchronization (resume
// handling).
type FunctionExecutor interface {
	Execute(runCtx *core.RunContext, agent FlowAgent, toolRegistry map[string]tool.Tool, fnCalls []core.FunctionCall, emit func(core.Event) error) error
}

// FunctionExecutorConfig configures the default parallel executor.
type FunctionExecutorConfig struct {
	MaxParallel    int  // 0 or <1 => no explicit limit (len(fnCalls))
	PreserveOrder  bool // if true, buffer results and emit in original order
	LogStartEvents bool // log a start line per function
}

// parallelFunctionExecutor is the default implementation.
type parallelFunctionExecutor struct {
	cfg FunctionExecutorConfig
}

// NewParallelFunctionExecutor constructs a new executor with the given config.
func NewParallelFunctionExecutor(cfg FunctionExecutorConfig) FunctionExecutor {
	return &parallelFunctionExecutor{cfg: cfg}
}

func (e *parallelFunctionExecutor) Execute(
	runCtx *core.RunContext,
	agent FlowAgent,
	toolRegistry map[string]tool.Tool,
	fnCalls []core.FunctionCall,
	emit func(core.Event) error,
) error {
	if len(fnCalls) == 0 {
		return nil
	}

	// Resolve every name before running anything: a call the agent never
	// declared a tool for fails the batch instead of producing a payload
	// the model could talk its way past.
	for _, fc := range fnCalls {
		if _, ok := toolRegistry[fc.Name]; !ok {
			runCtx.LogError("agent.function.unknown", "agent", agent.Name(), "function", fc.Name)
			return &core.ToolNotFoundError{Tool: fc.Name}
		}
	}

	// Single call: no goroutine machinery needed.
	if len(fnCalls) == 1 {
		return emit(e.runOne(runCtx, agent, toolRegistry, fnCalls[0]))
	}

	limit := e.cfg.MaxParallel
	if limit <= 0 || limit > len(fnCalls) {
		limit = len(fnCalls)
	}

	batchStart := time.Now()

	var g errgroup.Group
	g.SetLimit(limit)

	var emitErr error

	if e.cfg.PreserveOrder {
		// Each goroutine writes only its own slot, so no locking is needed;
		// everything is emitted in call order once the group drains.
		ordered := make([]core.Event, len(fnCalls))
		for i, fc := range fnCalls {
			i, fc := i, fc
			if runCtx.Context.Err() != nil {
				break
			}
			g.Go(func() error {
				if runCtx.Context.Err() == nil {
					ordered[i] = e.runOne(runCtx, agent, toolRegistry, fc)
				}
				return nil
			})
		}
		_ = g.Wait()
		for _, ev := range ordered {
			if ev.ID == "" {
				continue
			}
			if err := emit(ev); err != nil {
				emitErr = err
				break
			}
		}
	} else {
		var emitMu sync.Mutex
		for _, fc := range fnCalls {
			fc := fc
			if runCtx.Context.Err() != nil {
				break
			}
			g.Go(func() error {
				if runCtx.Context.Err() != nil {
					return nil
				}
				ev := e.runOne(runCtx, agent, toolRegistry, fc)
				emitMu.Lock()
				defer emitMu.Unlock()
				if emitErr == nil {
					emitErr = emit(ev)
				}
				return nil
			})
		}
		_ = g.Wait()
	}

	runCtx.LogDebug(
		"agent.functions.batch.complete",
		"agent", agent.Name(),
		"count", len(fnCalls),
		"parallelism", limit,
		"preserve_order", e.cfg.PreserveOrder,
		"duration_ms", time.Since(batchStart).Milliseconds(),
	)

	return emitErr
}

// runOne executes a single call with panic recovery and returns the response
// event with tool actions applied.
func (e *parallelFunctionExecutor) runOne(
	runCtx *core.RunContext,
	agent FlowAgent,
	toolRegistry map[string]tool.Tool,
	fc core.FunctionCall,
) core.Event {
	toolCtx := core.NewToolContext(runCtx, fc.ID)
	if e.cfg.LogStartEvents {
		runCtx.LogInfo("agent.function.start", "agent", agent.Name(), "function", fc.Name, "function_call_id", fc.ID)
	}

	start := time.Now()
	result, err := e.callGuarded(runCtx, agent, toolRegistry, toolCtx, fc)

	runCtx.LogInfo(
		"agent.function.executed",
		"agent", agent.Name(),
		"function", fc.Name,
		"duration_ms", time.Since(start).Milliseconds(),
		"error", err != nil,
	)

	respEv := core.NewFunctionResponseEvent(runCtx.InvocationID, agent.Name(), fc.ID, fc.Name, result, err)
	toolCtx.ApplyActions(&respEv)
	return respEv
}

// callGuarded invokes the tool, turning panics and argument decode failures
// into plain errors. Execute has already checked the name resolves.
func (e *parallelFunctionExecutor) callGuarded(
	runCtx *core.RunContext,
	agent FlowAgent,
	toolRegistry map[string]tool.Tool,
	toolCtx *core.ToolContext,
	fc core.FunctionCall,
) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &panicErr{val: r, stack: debug.Stack()}
			runCtx.LogError("agent.function.panic", "agent", agent.Name(), "function", fc.Name, "recover", r)
		}
	}()

	argMap := map[string]any{}
	if fc.Arguments != "" {
		if err := json.Unmarshal([]byte(fc.Arguments), &argMap); err != nil {
			return nil, fmt.Errorf("failed to unmarshal args: %w", err)
		}
	}
	return toolRegistry[fc.Name].Call(toolCtx, argMap)
}

type panicErr struct {
	val   any
	stack []byte
}

func (p *panicErr) Error() string { return fmt.Sprintf("tool panicked: %v", p.val) }
