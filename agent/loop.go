package agent

import (
	"fmt"
	"time"

	"github.com/hupe1980/agentcore/core"
)

// LoopAgent repeatedly executes its sub-agents in order until a termination
// condition fires: a configured iteration cap, an escalation signalled by a
// sub-agent (for example via the exit_loop tool), or context cancellation.
// The same session state flows across iterations, so each pass sees what the
// previous passes wrote.
//
// LoopAgent is ideal for:
//   - Draft / critique refinement cycles
//   - Retry logic where an agent decides when the result is good enough
//   - Polling or monitoring workflows
type LoopAgent struct {
	BaseAgent
	maxIterations int
	interval      time.Duration
	stopOnError   bool
}

// LoopAgentOptions configures a LoopAgent instance.
type LoopAgentOptions struct {
	// MaxIterations caps full passes over the sub-agents. Zero means no cap:
	// the loop runs until a sub-agent escalates.
	MaxIterations int
	// Interval is the delay between iterations.
	Interval time.Duration
	// StopOnError stops the loop on the first failing sub-agent.
	StopOnError bool
}

// NewLoopAgent creates a looping coordinator over the given sub-agents.
// Defaults: no iteration cap, no interval, stop on first error.
func NewLoopAgent(name string, children []core.Agent, optFns ...func(o *LoopAgentOptions)) (*LoopAgent, error) {
	opts := LoopAgentOptions{
		StopOnError: true,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	l := &LoopAgent{
		BaseAgent:     NewBaseAgent(name),
		maxIterations: opts.MaxIterations,
		interval:      opts.Interval,
		stopOnError:   opts.StopOnError,
	}
	if err := l.SetSubAgents(children...); err != nil {
		return nil, err
	}
	return l, nil
}

// MaxIterations returns the configured iteration cap (zero means none).
func (l *LoopAgent) MaxIterations() int { return l.maxIterations }

// Run implements core.Agent. Sub-agents execute in order each iteration;
// events are intercepted to detect escalation, which ends the loop without
// error. Reaching the iteration cap also ends the loop normally.
func (l *LoopAgent) Run(runCtx *core.RunContext) error {
	for i := 0; l.maxIterations == 0 || i < l.maxIterations; i++ {
		select {
		case <-runCtx.Done():
			return runCtx.Err()
		default:
		}

		runCtx.LogDebug("agent.loop.iteration", "agent", l.Name(), "iteration", i+1)

		for _, child := range l.SubAgents() {
			outcome, err := runChildIntercepted(runCtx, child, runCtx.Branch)
			if err != nil {
				if l.stopOnError {
					return fmt.Errorf("loop iteration %d failed at agent %s: %w", i+1, child.Name(), err)
				}
				runCtx.LogWarn("agent.loop.step_failed",
					"agent", l.Name(),
					"iteration", i+1,
					"step", child.Name(),
					"error", err.Error(),
				)
				continue
			}
			if outcome.escalated {
				runCtx.LogInfo("agent.loop.escalated",
					"agent", l.Name(),
					"iteration", i+1,
					"step", child.Name(),
				)
				return nil
			}
		}

		if l.interval > 0 {
			select {
			case <-runCtx.Done():
				return runCtx.Err()
			case <-time.After(l.interval):
			}
		}
	}

	runCtx.LogDebug("agent.loop.complete", "agent", l.Name(), "iterations", l.maxIterations)
	return nil
}

// NewEscalationEvent constructs an event signalling escalation, which stops
// an enclosing LoopAgent. Agents emit it when they decide the loop's work is
// done or cannot proceed.
func NewEscalationEvent(invocationID, author string, content *core.Content) core.Event {
	escalate := true
	ev := core.NewEvent(invocationID, author)
	ev.Actions.Escalate = &escalate
	ev.Content = content
	return ev
}
