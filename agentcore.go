// Package agentcore provides a high-level builder over the agent, runner and
// service packages, enabling construction of a working agent application in a
// few chained calls. Most applications interact with this package by:
//  1. Creating a builder via New(name)
//  2. Configuring the agent (model, instruction, tools, sub-agents, shape)
//  3. Calling Build() for full control, or Ask() for one-shot question answering
//
// All defaults are safe for local development and testing: unset services
// fall back to in-memory implementations and an existing session for the
// (app, user) pair is reused when present. Production deployments supply
// durable session stores and a structured logger.
package agentcore

import (
	"context"
	"strings"

	"github.com/hupe1980/agentcore/agent"
	"github.com/hupe1980/agentcore/artifact"
	"github.com/hupe1980/agentcore/core"
	"github.com/hupe1980/agentcore/logging"
	"github.com/hupe1980/agentcore/memory"
	"github.com/hupe1980/agentcore/model"
	"github.com/hupe1980/agentcore/runner"
	"github.com/hupe1980/agentcore/session"
	"github.com/hupe1980/agentcore/tool"
)

// agentKind selects the shape of the agent the builder produces.
type agentKind int

const (
	kindLLM agentKind = iota
	kindSequential
	kindParallel
	kindLoop
	kindGraph
)

// AgentBuilder assembles an agent, a runner, and a session through a fluent
// interface. A builder is single-use: Build (and Ask, which calls it)
// consumes it, and further Build calls fail.
type AgentBuilder struct {
	name        string
	description string
	instruction string
	llm         model.Model
	tools       []tool.Tool
	outputKey   string
	subAgents   []core.Agent
	kind        agentKind

	loopOpts  []func(o *agent.LoopAgentOptions)
	graphCfgs []func(g *agent.GraphAgent) error

	appName         string
	userID          string
	sessionID       string
	maxModelCalls   int
	sessionService  core.SessionService
	artifactService core.ArtifactService
	memoryService   core.MemoryService
	logger          logging.Logger

	built bool
}

// BuildResult bundles the artifacts of a successful Build.
type BuildResult struct {
	// Agent is the constructed root agent.
	Agent core.Agent
	// Runner is ready to execute turns against the session.
	Runner *runner.Runner
	// Session is the session the runner will use.
	Session *core.Session
}

// New starts building an agent with the given name.
func New(name string) *AgentBuilder {
	return &AgentBuilder{
		name:    name,
		appName: "agentcore",
		userID:  "default-user",
	}
}

// WithModel sets the language model backing an LLM agent.
func (b *AgentBuilder) WithModel(m model.Model) *AgentBuilder {
	b.llm = m
	return b
}

// WithDescription sets the agent description shown to coordinating models.
func (b *AgentBuilder) WithDescription(desc string) *AgentBuilder {
	b.description = desc
	return b
}

// WithInstruction sets the system instruction. {key} placeholders are filled
// from session state at request time.
func (b *AgentBuilder) WithInstruction(instruction string) *AgentBuilder {
	b.instruction = instruction
	return b
}

// WithTools registers tools on the agent.
func (b *AgentBuilder) WithTools(tools ...tool.Tool) *AgentBuilder {
	b.tools = append(b.tools, tools...)
	return b
}

// WithOutputKey saves the agent's final responses under a session state key.
func (b *AgentBuilder) WithOutputKey(key string) *AgentBuilder {
	b.outputKey = key
	return b
}

// WithSubAgents attaches child agents to the root.
func (b *AgentBuilder) WithSubAgents(children ...core.Agent) *AgentBuilder {
	b.subAgents = append(b.subAgents, children...)
	return b
}

// AsSequential shapes the root as a SequentialAgent over the sub-agents.
func (b *AgentBuilder) AsSequential() *AgentBuilder {
	b.kind = kindSequential
	return b
}

// AsParallel shapes the root as a ParallelAgent over the sub-agents.
func (b *AgentBuilder) AsParallel() *AgentBuilder {
	b.kind = kindParallel
	return b
}

// AsLoop shapes the root as a LoopAgent over the sub-agents.
func (b *AgentBuilder) AsLoop(optFns ...func(o *agent.LoopAgentOptions)) *AgentBuilder {
	b.kind = kindLoop
	b.loopOpts = optFns
	return b
}

// AsGraph shapes the root as a GraphAgent; configure adds nodes, edges, and
// the entry point.
func (b *AgentBuilder) AsGraph(configure func(g *agent.GraphAgent) error) *AgentBuilder {
	b.kind = kindGraph
	b.graphCfgs = append(b.graphCfgs, configure)
	return b
}

// WithAppName sets the application name sessions are scoped to.
func (b *AgentBuilder) WithAppName(appName string) *AgentBuilder {
	b.appName = appName
	return b
}

// WithUserID sets the user the session belongs to.
func (b *AgentBuilder) WithUserID(userID string) *AgentBuilder {
	b.userID = userID
	return b
}

// WithSessionID pins a specific session id instead of reuse-or-create.
func (b *AgentBuilder) WithSessionID(sessionID string) *AgentBuilder {
	b.sessionID = sessionID
	return b
}

// WithMaxModelCalls bounds model calls per invocation.
func (b *AgentBuilder) WithMaxModelCalls(n int) *AgentBuilder {
	b.maxModelCalls = n
	return b
}

// WithSessionService sets a custom session backend.
func (b *AgentBuilder) WithSessionService(s core.SessionService) *AgentBuilder {
	b.sessionService = s
	return b
}

// WithArtifactService sets a custom artifact backend.
func (b *AgentBuilder) WithArtifactService(s core.ArtifactService) *AgentBuilder {
	b.artifactService = s
	return b
}

// WithMemoryService sets a custom memory backend.
func (b *AgentBuilder) WithMemoryService(s core.MemoryService) *AgentBuilder {
	b.memoryService = s
	return b
}

// WithLogger sets the structured logger used across the runtime.
func (b *AgentBuilder) WithLogger(l logging.Logger) *AgentBuilder {
	b.logger = l
	return b
}

// Build validates the configuration and assembles the agent, runner, and
// session. The builder is consumed; a second Build returns a ConfigError.
func (b *AgentBuilder) Build(ctx context.Context) (*BuildResult, error) {
	if b.built {
		return nil, core.NewConfigError("builder for %q already used", b.name)
	}
	b.built = true

	root, err := b.buildAgent()
	if err != nil {
		return nil, err
	}

	if b.sessionService == nil {
		b.sessionService = session.NewInMemoryService()
	}
	if b.artifactService == nil {
		b.artifactService = artifact.NewInMemoryService()
	}
	if b.memoryService == nil {
		b.memoryService = memory.NewInMemoryService()
	}
	if b.logger == nil {
		b.logger = logging.NoOpLogger{}
	}

	sess, err := b.resolveSession(ctx)
	if err != nil {
		return nil, err
	}

	runnerOpts := []func(o *runner.Options){
		runner.WithLogger(b.logger),
		runner.WithArtifactService(b.artifactService),
		runner.WithMemoryService(b.memoryService),
	}
	if b.maxModelCalls > 0 {
		runnerOpts = append(runnerOpts, runner.WithMaxModelCalls(b.maxModelCalls))
	}

	r := runner.New(b.appName, root, b.sessionService, runnerOpts...)

	return &BuildResult{Agent: root, Runner: r, Session: sess}, nil
}

// Ask builds the application, runs a single turn with the message, and
// returns the concatenated text of all non-partial events.
func (b *AgentBuilder) Ask(ctx context.Context, message string) (string, error) {
	result, err := b.Build(ctx)
	if err != nil {
		return "", err
	}

	events, err := result.Runner.RunSync(ctx, b.userID, result.Session.ID, core.NewTextContent("user", message))
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for _, ev := range events {
		if ev.IsPartial() {
			continue
		}
		if text := ev.Text(); text != "" {
			sb.WriteString(text)
		}
	}

	return sb.String(), nil
}

// buildAgent constructs the root agent matching the configured shape.
func (b *AgentBuilder) buildAgent() (core.Agent, error) {
	switch b.kind {
	case kindSequential, kindParallel, kindLoop, kindGraph:
		if b.kind != kindGraph && len(b.subAgents) == 0 {
			return nil, core.NewConfigError("composite agent %q requires sub-agents", b.name)
		}
	case kindLLM:
		if b.llm == nil {
			return nil, core.NewConfigError("agent %q requires a model", b.name)
		}
	}

	switch b.kind {
	case kindSequential:
		return agent.NewSequentialAgent(b.name, b.subAgents...)

	case kindParallel:
		return agent.NewParallelAgent(b.name, b.subAgents...)

	case kindLoop:
		return agent.NewLoopAgent(b.name, b.subAgents, b.loopOpts...)

	case kindGraph:
		g := agent.NewGraphAgent(b.name)
		for _, configure := range b.graphCfgs {
			if configure == nil {
				continue
			}
			if err := configure(g); err != nil {
				return nil, core.NewConfigError("graph agent %q: %v", b.name, err)
			}
		}
		// A graph that cannot run (no nodes, no entry point) fails here
		// rather than on the first invocation.
		if err := g.Validate(); err != nil {
			return nil, core.NewConfigError("graph agent %q: %v", b.name, err)
		}
		return g, nil

	default:
		a := agent.NewLLMAgent(b.name, b.llm, func(o *agent.LLMAgentOptions) {
			o.Description = b.description
			o.OutputKey = b.outputKey
			if b.instruction != "" {
				o.Instruction = agent.NewInstructionFromText(b.instruction)
			}
		})
		a.RegisterTools(b.tools...)
		if len(b.subAgents) > 0 {
			if err := a.SetSubAgents(b.subAgents...); err != nil {
				return nil, core.NewConfigError("agent %q: %v", b.name, err)
			}
		}
		return a, nil
	}
}

// resolveSession reuses the most recently updated session for (app, user),
// creates one when none exists, or honors a pinned session id.
func (b *AgentBuilder) resolveSession(ctx context.Context) (*core.Session, error) {
	if b.sessionID != "" {
		sess, err := b.sessionService.Get(ctx, b.appName, b.userID, b.sessionID)
		if err == nil {
			return sess, nil
		}
		return b.sessionService.Create(ctx, b.appName, b.userID, b.sessionID, nil)
	}

	existing, err := b.sessionService.List(ctx, b.appName, b.userID)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		// List orders by LastUpdateTime descending.
		return b.sessionService.Get(ctx, b.appName, b.userID, existing[0].ID)
	}

	return b.sessionService.Create(ctx, b.appName, b.userID, "", nil)
}
