package flow

// Selector picks the flow pipeline matching an agent's capabilities.
type Selector struct{}

// NewSelector creates a flow selector.
func NewSelector() *Selector {
	return &Selector{}
}

// SelectFlow returns a multi-agent flow when the agent can delegate to other
// agents, and the simpler single-agent flow otherwise.
func (s *Selector) SelectFlow(agent FlowAgent) Flow {
	if agent.IsTransferEnabled() && len(agent.TransferTargets()) > 0 {
		return NewMultiAgentFlow(agent)
	}
	return NewSingleAgentFlow(agent)
}
