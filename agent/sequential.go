package agent

import (
	"fmt"

	"github.com/hupe1980/agentcore/core"
)

// SequentialAgent executes its sub-agents one after another against the same
// invocation context. Each step sees the accumulated session state of the
// steps before it, so outputs captured under an OutputKey become template
// inputs for later agents.
//
// SequentialAgent is ideal for:
//   - Multi-step processing pipelines
//   - Workflows requiring a fixed execution order
//   - Tasks broken into specialized subtasks whose outputs build on each other
type SequentialAgent struct {
	BaseAgent
}

// NewSequentialAgent creates a sequential coordinator over the given
// sub-agents, executed in the order supplied.
func NewSequentialAgent(name string, children ...core.Agent) (*SequentialAgent, error) {
	s := &SequentialAgent{BaseAgent: NewBaseAgent(name)}
	if err := s.SetSubAgents(children...); err != nil {
		return nil, err
	}
	return s, nil
}

// Run implements core.Agent. Sub-agents run in order sharing the context;
// the first error stops the pipeline, and an escalation from a step skips
// the remaining steps.
func (s *SequentialAgent) Run(runCtx *core.RunContext) error {
	for _, child := range s.SubAgents() {
		outcome, err := runChildIntercepted(runCtx, child, runCtx.Branch)
		if err != nil {
			return fmt.Errorf("sequential step %s failed: %w", child.Name(), err)
		}
		if outcome.escalated {
			runCtx.LogInfo("agent.sequential.escalated", "agent", s.Name(), "step", child.Name())
			return nil
		}
	}
	return nil
}
