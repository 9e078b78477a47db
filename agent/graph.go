package agent

import (
	"fmt"

	"github.com/hupe1980/agentcore/core"
)

// GraphEnd is the pseudo-node name that terminates graph execution. Routers
// return it (or point an edge at it) to finish the invocation.
const GraphEnd = "__end__"

// defaultMaxSteps bounds graph execution when no explicit cap is set.
const defaultMaxSteps = 25

// Router chooses the next node after a node finishes. lastOutput is the text
// of the node's last non-partial event; state is readable through runCtx.
// Returning GraphEnd terminates the graph.
type Router func(runCtx *core.RunContext, lastOutput string) (string, error)

// GraphAgent executes named agent nodes connected by static edges and
// optional per-node routers. Execution starts at the entry node and follows
// a router when one is registered for the finished node, the static edge
// otherwise, and terminates on GraphEnd or when a node has neither. A step
// cap bounds cyclic graphs: exceeding it fails the invocation.
//
// GraphAgent is ideal for:
//   - Conditional workflows where the next step depends on model output
//   - Cyclic refine / evaluate topologies that Sequential cannot express
//   - Routing between specialist agents without model-driven transfer
type GraphAgent struct {
	BaseAgent
	entry    string
	nodes    map[string]core.Agent
	edges    map[string]string
	routers  map[string]Router
	maxSteps int
}

// GraphAgentOptions configures a GraphAgent instance.
type GraphAgentOptions struct {
	// MaxSteps caps node executions per invocation. Zero selects the
	// default cap.
	MaxSteps int
}

// NewGraphAgent creates an empty graph coordinator. Add nodes and edges,
// then set the entry point before running.
func NewGraphAgent(name string, optFns ...func(o *GraphAgentOptions)) *GraphAgent {
	opts := GraphAgentOptions{}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.MaxSteps <= 0 {
		opts.MaxSteps = defaultMaxSteps
	}

	return &GraphAgent{
		BaseAgent: NewBaseAgent(name),
		nodes:     map[string]core.Agent{},
		edges:     map[string]string{},
		routers:   map[string]Router{},
		maxSteps:  opts.MaxSteps,
	}
}

// AddNode registers an agent under a node name. The agent joins the graph's
// sub-agent tree so transfer and lookup work across it.
func (g *GraphAgent) AddNode(name string, a core.Agent) error {
	if _, exists := g.nodes[name]; exists {
		return fmt.Errorf("graph node %q already exists", name)
	}
	g.nodes[name] = a

	children := make([]core.Agent, 0, len(g.nodes))
	for _, node := range g.nodes {
		children = append(children, node)
	}
	return g.SetSubAgents(children...)
}

// AddEdge registers the static successor of a node. The target must be an
// existing node or GraphEnd.
func (g *GraphAgent) AddEdge(from, to string) error {
	if _, exists := g.nodes[from]; !exists {
		return fmt.Errorf("graph edge source %q is not a node", from)
	}
	if to != GraphEnd {
		if _, exists := g.nodes[to]; !exists {
			return fmt.Errorf("graph edge target %q is not a node", to)
		}
	}
	g.edges[from] = to
	return nil
}

// AddRouter registers a dynamic successor chooser for a node, taking
// precedence over the node's static edge.
func (g *GraphAgent) AddRouter(from string, r Router) error {
	if _, exists := g.nodes[from]; !exists {
		return fmt.Errorf("graph router source %q is not a node", from)
	}
	g.routers[from] = r
	return nil
}

// SetEntryPoint selects the node execution starts at.
func (g *GraphAgent) SetEntryPoint(name string) error {
	if _, exists := g.nodes[name]; !exists {
		return fmt.Errorf("graph entry point %q is not a node", name)
	}
	g.entry = name
	return nil
}

// Validate checks the graph is runnable: at least one node and an entry
// point. Edge and router endpoints are checked at registration time.
func (g *GraphAgent) Validate() error {
	if len(g.nodes) == 0 {
		return fmt.Errorf("graph %s has no nodes", g.Name())
	}
	if g.entry == "" {
		return fmt.Errorf("graph %s has no entry point", g.Name())
	}
	return nil
}

// Run implements core.Agent. Nodes execute one at a time against the shared
// context; an escalation from a node terminates the graph like GraphEnd.
func (g *GraphAgent) Run(runCtx *core.RunContext) error {
	if err := g.Validate(); err != nil {
		return err
	}

	current := g.entry
	for step := 0; ; step++ {
		if step >= g.maxSteps {
			return fmt.Errorf("graph %s exceeded %d steps at node %q", g.Name(), g.maxSteps, current)
		}

		select {
		case <-runCtx.Done():
			return runCtx.Err()
		default:
		}

		node, exists := g.nodes[current]
		if !exists {
			return fmt.Errorf("graph %s routed to unknown node %q", g.Name(), current)
		}

		runCtx.LogDebug("agent.graph.node", "agent", g.Name(), "node", current, "step", step+1)

		outcome, err := runChildIntercepted(runCtx, node, runCtx.Branch)
		if err != nil {
			return fmt.Errorf("graph node %s failed: %w", current, err)
		}
		if outcome.escalated {
			runCtx.LogInfo("agent.graph.escalated", "agent", g.Name(), "node", current)
			return nil
		}

		next, err := g.nextNode(runCtx, current, outcome.lastText)
		if err != nil {
			return err
		}
		if next == GraphEnd {
			return nil
		}
		current = next
	}
}

// nextNode resolves the successor of a finished node: router first, static
// edge second, GraphEnd when neither exists.
func (g *GraphAgent) nextNode(runCtx *core.RunContext, current, lastOutput string) (string, error) {
	if router, exists := g.routers[current]; exists {
		next, err := router(runCtx, lastOutput)
		if err != nil {
			return "", fmt.Errorf("graph router for node %s failed: %w", current, err)
		}
		return next, nil
	}

	if next, exists := g.edges[current]; exists {
		return next, nil
	}

	return GraphEnd, nil
}
