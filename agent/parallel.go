package agent

import (
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/agentcore/core"
)

// ParallelAgent executes its sub-agents concurrently. Each child runs under
// an isolated branch context ("Parent.Child" appended to the inherited branch
// path) so state written by one branch never collides with the others, while
// all branches share the same session history.
//
// ParallelAgent is ideal for:
//   - Independent subtasks with no ordering requirement
//   - Fan-out data gathering from multiple sources
//   - I/O bound agent work that benefits from concurrency
type ParallelAgent struct {
	BaseAgent
}

// NewParallelAgent creates a concurrent coordinator over the given
// sub-agents.
func NewParallelAgent(name string, children ...core.Agent) (*ParallelAgent, error) {
	p := &ParallelAgent{BaseAgent: NewBaseAgent(name)}
	if err := p.SetSubAgents(children...); err != nil {
		return nil, err
	}
	return p, nil
}

// Run implements core.Agent. All sub-agents are launched concurrently; Run
// waits for every branch to finish and returns the first error encountered.
// Surviving branches keep running even when a sibling fails.
func (p *ParallelAgent) Run(runCtx *core.RunContext) error {
	var g errgroup.Group

	for _, child := range p.SubAgents() {
		child := child
		branch := buildBranchPath(runCtx.Branch, fmt.Sprintf("%s.%s", p.Name(), child.Name()))

		// Each branch forwards through its own clone: the relay consumes
		// the context's delta buffer, which must not be shared across
		// goroutines. Clones keep the shared handshake lock, so resume
		// signals stay bound to the branch that emitted the event.
		fwd := runCtx.Clone()

		g.Go(func() error {
			if _, err := runChildIntercepted(fwd, child, branch); err != nil {
				return fmt.Errorf("parallel branch %s failed: %w", child.Name(), err)
			}
			return nil
		})
	}

	return g.Wait()
}
