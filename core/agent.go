package core

// Agent is a node in the agent tree producing a stream of events in response
// to conversation input. Leaf agents talk to a model; composite agents
// coordinate sub-agents. Implementations must:
//   - Respect context cancellation on the RunContext
//   - Emit events only through the RunContext
//   - Return an error for unrecoverable failures (persisted events remain)
type Agent interface {
	// Name returns the unique name used for transfer routing and authorship.
	Name() string

	// Description returns a short statement of the agent's purpose, exposed
	// to coordinating models when deciding transfers.
	Description() string

	// Run executes one invocation against the supplied context. It returns
	// when the agent's event stream for this turn is exhausted.
	Run(runCtx *RunContext) error

	// SetSubAgents replaces the child set, enforcing the single-parent rule.
	SetSubAgents(children ...Agent) error

	// SubAgents returns the current child agents.
	SubAgents() []Agent

	// Parent returns the parent agent, or nil for a root.
	Parent() Agent

	// FindAgent searches the subtree rooted at this agent (inclusive) for a
	// named agent, returning nil when absent.
	FindAgent(name string) Agent
}

// AgentInfo carries identifying details about an agent used in contexts and
// events. Name is the external identifier; Type categorizes the
// implementation ("llm", "sequential", "parallel", "loop", "graph").
type AgentInfo struct{ Name, Type string }

// FindInTree resolves a named agent from anywhere in a tree: it walks up to
// the root from start, then searches downward. This is the lookup used for
// transfer-to-agent routing, which may target a sibling.
func FindInTree(start Agent, name string) Agent {
	if start == nil {
		return nil
	}
	root := start
	for root.Parent() != nil {
		root = root.Parent()
	}
	return root.FindAgent(name)
}
