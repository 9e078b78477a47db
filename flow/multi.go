package flow

// MultiAgentFlow extends the single-agent pipeline with delegation: a
// transfer tool is injected so the model can hand the conversation to a
// sub-agent, parent, or peer.
type MultiAgentFlow struct {
	*BaseFlow
}

// NewMultiAgentFlow creates a flow for an agent that can transfer control to
// other agents in its tree.
func NewMultiAgentFlow(agent FlowAgent) *MultiAgentFlow {
	f := &MultiAgentFlow{BaseFlow: NewBaseFlow(agent)}

	f.AddRequestProcessor(NewInstructionsProcessor())
	f.AddRequestProcessor(NewContentsProcessor())
	f.AddRequestProcessor(NewTransferToolInjector())

	return f
}
