// Package agent contains the concrete agent implementations that make up an
// agent tree:
//
//  1. Hierarchy plumbing shared by all agents (BaseAgent)
//  2. Workflow coordinators (SequentialAgent, ParallelAgent, LoopAgent,
//     GraphAgent)
//  3. The model-backed conversational / tool-calling agent (LLMAgent)
//
// Design principles:
//   - No hidden global state; everything flows through *core.RunContext
//   - Composability; agents nest arbitrarily via SetSubAgents / FindAgent
//   - Extensibility; embed BaseAgent and implement Run plus any custom API
//
// Execution model:
//   - An agent's Run receives a *core.RunContext (shared or derived)
//   - Workflow agents coordinate child Runs; they never call a model
//   - LLMAgent delegates its turn loop to the flow package and streams
//     events to the runner
//
// Persistence, model specifics, and tool abstractions live in their own
// packages to avoid cyclic dependencies.
package agent
