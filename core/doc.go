// Package core contains the shared contracts of the agent runtime: events,
// sessions, state, the Agent interface, service abstractions (sessions,
// artifacts, memory) and the per-run execution contexts handed to agents and
// tools. Higher-level packages (agent, flow, runner) build on these types and
// never bypass them.
package core
