// Package flow implements the request/response pipeline that drives a model
// backed agent's turn loop.
//
// A Flow owns one invocation of an agent: it assembles the model request from
// the session (instructions, conversation history, tool schemas), streams the
// model's response as events, executes any requested tool calls, and repeats
// until the model produces a final answer, transfers control to another
// agent, or a tool escalates.
//
// Two pipelines are provided. SingleAgentFlow serves agents that work alone.
// MultiAgentFlow additionally injects a transfer tool so the model can
// delegate to sub-agents, its parent, or peers. Selector picks the right one
// from the agent's capabilities.
//
// Tool execution failures are not fatal: they travel back to the model as
// error payloads in function response events so it can recover or explain.
// Calls to tools the agent never declared, model transport errors, and an
// exhausted call budget terminate the invocation through the flow's error
// channel.
package flow
