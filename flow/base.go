package flow

import (
	"fmt"

	"github.com/hupe1980/agentcore/core"
	"github.com/hupe1980/agentcore/model"
	"github.com/hupe1980/agentcore/tool"
)

// turnOutcome signals how the flow loop should proceed after one model turn.
type turnOutcome int

const (
	// turnDone ends the invocation: a final response was emitted, control
	// was transferred, or a tool escalated.
	turnDone turnOutcome = iota
	// turnContinue requests another model turn (tool responses are pending
	// summarization by the model).
	turnContinue
)

// BaseFlow is a single-agent turn loop supporting request -> model ->
// (optional tool batch) cycles with pluggable pre/post processors. Tool
// execution failures feed back to the model as error payloads; calls to
// tools the agent never declared, model transport errors and call budget
// exhaustion are fatal to the invocation.
type BaseFlow struct {
	agent              FlowAgent
	requestProcessors  []RequestProcessor
	responseProcessors []ResponseProcessor
	executor           FunctionExecutor
}

// NewBaseFlow creates a new basic single-agent flow with a parallel function
// executor that preserves call order.
func NewBaseFlow(agent FlowAgent) *BaseFlow {
	return &BaseFlow{
		agent:              agent,
		requestProcessors:  []RequestProcessor{},
		responseProcessors: []ResponseProcessor{},
		executor:           NewParallelFunctionExecutor(FunctionExecutorConfig{PreserveOrder: true}),
	}
}

// AddRequestProcessor appends a request processor; order of registration
// defines execution order.
func (f *BaseFlow) AddRequestProcessor(processor RequestProcessor) {
	f.requestProcessors = append(f.requestProcessors, processor)
}

// AddResponseProcessor appends a response processor executed after each model
// chunk.
func (f *BaseFlow) AddResponseProcessor(processor ResponseProcessor) {
	f.responseProcessors = append(f.responseProcessors, processor)
}

// Execute launches the flow asynchronously. The event channel carries the
// invocation's events; the error channel carries at most one fatal error.
// Both are closed when the flow finishes.
func (f *BaseFlow) Execute(runCtx *core.RunContext) (<-chan core.Event, <-chan error) {
	eventChan := make(chan core.Event, 100)
	errChan := make(chan error, 1)

	go func() {
		defer close(eventChan)
		defer close(errChan)

		for {
			outcome, err := f.runOnce(runCtx, eventChan)
			if err != nil {
				errChan <- err
				return
			}
			if outcome == turnDone {
				return
			}
		}
	}()

	return eventChan, errChan
}

// emit forwards an event to the flow consumer and, for non-partial events,
// blocks until the runner confirms persistence via the resume channel.
func (f *BaseFlow) emit(runCtx *core.RunContext, eventChan chan<- core.Event, ev core.Event) error {
	select {
	case eventChan <- ev:
	case <-runCtx.Done():
		return runCtx.Err()
	}

	if !ev.IsPartial() && runCtx.Resume != nil {
		select {
		case <-runCtx.Done():
			return runCtx.Err()
		case <-runCtx.Resume:
		}
	}
	return nil
}

// runOnce performs one model turn including any tool executions.
func (f *BaseFlow) runOnce(runCtx *core.RunContext, eventChan chan<- core.Event) (turnOutcome, error) {
	// Refresh the session snapshot so request processors see the latest
	// conversation, including tool responses from the previous turn.
	if err := runCtx.RefreshSession(); err != nil {
		return turnDone, err
	}

	req := &model.Request{Stream: f.agent.IsStreamingEnabled()}

	for _, processor := range f.requestProcessors {
		if err := processor.ProcessRequest(runCtx, req, f.agent); err != nil {
			return turnDone, fmt.Errorf("request processor %s failed: %w", processor.Name(), err)
		}
	}

	toolRegistry := f.agent.Tools()
	f.appendToolDefinitions(req, toolRegistry)

	// One model call against the invocation budget.
	if err := runCtx.Limiter.Increment(); err != nil {
		return turnDone, err
	}

	respCh, errCh := f.agent.Model().Generate(runCtx.Context, *req)

	for {
		select {
		case resp, ok := <-respCh:
			if !ok {
				// Drain a trailing transport error if one is pending.
				if errCh != nil {
					if err, ok := <-errCh; ok && err != nil {
						return turnDone, err
					}
				}
				return turnDone, nil
			}

			outcome, handled, err := f.handleResponse(runCtx, eventChan, toolRegistry, resp)
			if err != nil {
				return turnDone, err
			}
			if handled {
				return outcome, nil
			}

		case err, ok := <-errCh:
			if ok && err != nil {
				return turnDone, err
			}
			errCh = nil

		case <-runCtx.Done():
			return turnDone, runCtx.Err()
		}
	}
}

// handleResponse turns a model response into events. handled reports whether
// the turn reached a decision (final response, tool batch, transfer).
func (f *BaseFlow) handleResponse(
	runCtx *core.RunContext,
	eventChan chan<- core.Event,
	toolRegistry map[string]tool.Tool,
	resp model.Response,
) (turnOutcome, bool, error) {
	for _, processor := range f.responseProcessors {
		if err := processor.ProcessResponse(runCtx, &resp, f.agent); err != nil {
			return turnDone, true, fmt.Errorf("response processor %s failed: %w", processor.Name(), err)
		}
	}

	ev := core.NewEvent(runCtx.InvocationID, f.agent.Name())
	ev.Content = &resp.Content
	ev.Partial = &resp.Partial

	if resp.Partial {
		return turnDone, false, f.emit(runCtx, eventChan, ev)
	}

	fnCalls := ev.GetFunctionCalls()

	if len(fnCalls) == 0 {
		// Final assistant response: capture it under the output key and
		// close the turn.
		if key := f.agent.OutputKey(); key != "" {
			if text := ev.Text(); text != "" {
				if ev.Actions.StateDelta == nil {
					ev.Actions.StateDelta = map[string]any{}
				}
				ev.Actions.StateDelta[key] = text
			}
		}
		complete := true
		ev.TurnComplete = &complete

		return turnDone, true, f.emit(runCtx, eventChan, ev)
	}

	// A call to an undeclared tool fails the turn before the call event is
	// persisted; the model gets no chance to talk past it.
	for _, fc := range fnCalls {
		if _, ok := toolRegistry[fc.Name]; !ok {
			return turnDone, true, &core.ToolNotFoundError{Tool: fc.Name}
		}
	}

	// Tool calls: persist the call event, run the batch, then decide.
	if err := f.emit(runCtx, eventChan, ev); err != nil {
		return turnDone, true, err
	}

	var transferTarget string
	escalated := false

	err := f.executor.Execute(runCtx, f.agent, toolRegistry, fnCalls, func(respEv core.Event) error {
		if respEv.Actions.TransferToAgent != nil {
			transferTarget = *respEv.Actions.TransferToAgent
		}
		if respEv.Actions.Escalate != nil && *respEv.Actions.Escalate {
			escalated = true
		}
		return f.emit(runCtx, eventChan, respEv)
	})
	if err != nil {
		return turnDone, true, err
	}

	if transferTarget != "" {
		runCtx.LogInfo("agent.transfer", "from", f.agent.Name(), "to", transferTarget)
		if err := f.agent.TransferToAgent(runCtx, transferTarget); err != nil {
			return turnDone, true, err
		}
		return turnDone, true, nil
	}

	if escalated {
		return turnDone, true, nil
	}

	return turnContinue, true, nil
}

// appendToolDefinitions adds the registry's tool schemas to the request,
// skipping names a processor already injected.
func (f *BaseFlow) appendToolDefinitions(req *model.Request, toolRegistry map[string]tool.Tool) {
	if !f.agent.IsFunctionCallingEnabled() || len(toolRegistry) == 0 {
		return
	}

	existing := make(map[string]bool, len(req.Tools))
	for _, td := range req.Tools {
		existing[td.Function.Name] = true
	}

	for _, t := range toolRegistry {
		if existing[t.Name()] {
			continue
		}
		req.Tools = append(req.Tools, model.ToolDefinition{
			Type: "function",
			Function: model.FunctionDefinition{
				Name:        t.Name(),
				Description: t.Description(),
				Parameters:  t.Parameters(),
			},
		})
	}
}
