package flow

// SingleAgentFlow handles agents that work alone: instructions and
// conversation contents, no delegation tooling.
type SingleAgentFlow struct {
	*BaseFlow
}

// NewSingleAgentFlow creates a flow for an agent with no transfer targets.
func NewSingleAgentFlow(agent FlowAgent) *SingleAgentFlow {
	f := &SingleAgentFlow{BaseFlow: NewBaseFlow(agent)}

	f.AddRequestProcessor(NewInstructionsProcessor())
	f.AddRequestProcessor(NewContentsProcessor())

	return f
}
