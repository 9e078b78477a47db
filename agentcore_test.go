package agentcore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentcore/agent"
	"github.com/hupe1980/agentcore/core"
	"github.com/hupe1980/agentcore/model"
	"github.com/hupe1980/agentcore/session"
)

func TestBuildValidation(t *testing.T) {
	ctx := context.Background()

	t.Run("llm agent requires a model", func(t *testing.T) {
		_, err := New("Assistant").Build(ctx)
		var cfgErr *core.ConfigError
		require.ErrorAs(t, err, &cfgErr)
		assert.Contains(t, err.Error(), "model")
	})

	t.Run("composite requires sub-agents", func(t *testing.T) {
		_, err := New("Pipeline").AsSequential().Build(ctx)
		var cfgErr *core.ConfigError
		assert.ErrorAs(t, err, &cfgErr)
	})

	t.Run("builder is single-use", func(t *testing.T) {
		b := New("Assistant").WithModel(model.NewMockModel("mock"))
		_, err := b.Build(ctx)
		require.NoError(t, err)

		_, err = b.Build(ctx)
		var cfgErr *core.ConfigError
		require.ErrorAs(t, err, &cfgErr)
		assert.Contains(t, err.Error(), "already used")
	})
}

func TestBuildDefaults(t *testing.T) {
	result, err := New("Assistant").
		WithModel(model.NewMockModel("mock")).
		Build(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "Assistant", result.Agent.Name())
	assert.NotNil(t, result.Runner)
	require.NotNil(t, result.Session)
	assert.Equal(t, "agentcore", result.Session.AppName)
	assert.Equal(t, "default-user", result.Session.UserID)
	assert.NotEmpty(t, result.Session.ID)
}

func TestBuildShapes(t *testing.T) {
	ctx := context.Background()
	child := func(name string) core.Agent {
		return agent.NewLLMAgent(name, model.NewMockModel("mock"))
	}

	t.Run("sequential", func(t *testing.T) {
		result, err := New("Pipeline").
			WithSubAgents(child("A"), child("B")).
			AsSequential().
			Build(ctx)
		require.NoError(t, err)
		_, ok := result.Agent.(*agent.SequentialAgent)
		assert.True(t, ok)
		assert.Len(t, result.Agent.SubAgents(), 2)
	})

	t.Run("parallel", func(t *testing.T) {
		result, err := New("FanOut").
			WithSubAgents(child("A"), child("B")).
			AsParallel().
			Build(ctx)
		require.NoError(t, err)
		_, ok := result.Agent.(*agent.ParallelAgent)
		assert.True(t, ok)
	})

	t.Run("loop", func(t *testing.T) {
		result, err := New("Refiner").
			WithSubAgents(child("Worker")).
			AsLoop(func(o *agent.LoopAgentOptions) { o.MaxIterations = 3 }).
			Build(ctx)
		require.NoError(t, err)
		loop, ok := result.Agent.(*agent.LoopAgent)
		require.True(t, ok)
		assert.Equal(t, 3, loop.MaxIterations())
	})

	t.Run("graph", func(t *testing.T) {
		result, err := New("Workflow").
			AsGraph(func(g *agent.GraphAgent) error {
				if err := g.AddNode("start", child("Start")); err != nil {
					return err
				}
				return g.SetEntryPoint("start")
			}).
			Build(ctx)
		require.NoError(t, err)
		_, ok := result.Agent.(*agent.GraphAgent)
		assert.True(t, ok)
	})

	t.Run("graph configure error becomes config error", func(t *testing.T) {
		_, err := New("Workflow").
			AsGraph(func(g *agent.GraphAgent) error {
				return g.SetEntryPoint("missing")
			}).
			Build(ctx)
		var cfgErr *core.ConfigError
		assert.ErrorAs(t, err, &cfgErr)
	})

	t.Run("empty graph fails at build", func(t *testing.T) {
		_, err := New("Workflow").
			AsGraph(nil).
			Build(ctx)
		var cfgErr *core.ConfigError
		require.ErrorAs(t, err, &cfgErr)
		assert.ErrorContains(t, err, "no nodes")
	})

	t.Run("graph without entry point fails at build", func(t *testing.T) {
		_, err := New("Workflow").
			AsGraph(func(g *agent.GraphAgent) error {
				return g.AddNode("start", child("Start"))
			}).
			Build(ctx)
		var cfgErr *core.ConfigError
		require.ErrorAs(t, err, &cfgErr)
		assert.ErrorContains(t, err, "entry point")
	})
}

func TestAsk(t *testing.T) {
	mock := model.NewMockModel("mock")
	mock.AddResponse("What is Go?", "Go is a programming language.")

	answer, err := New("Assistant").
		WithModel(mock).
		WithInstruction("Answer briefly.").
		Ask(context.Background(), "What is Go?")
	require.NoError(t, err)
	assert.Equal(t, "Go is a programming language.", answer)
}

func TestSessionResolution(t *testing.T) {
	ctx := context.Background()

	t.Run("pinned id creates when absent", func(t *testing.T) {
		svc := session.NewInMemoryService()
		result, err := New("Assistant").
			WithModel(model.NewMockModel("mock")).
			WithSessionService(svc).
			WithSessionID("pinned").
			Build(ctx)
		require.NoError(t, err)
		assert.Equal(t, "pinned", result.Session.ID)
	})

	t.Run("pinned id reuses when present", func(t *testing.T) {
		svc := session.NewInMemoryService()
		_, err := svc.Create(ctx, "agentcore", "default-user", "pinned", map[string]any{"k": "v"})
		require.NoError(t, err)

		result, err := New("Assistant").
			WithModel(model.NewMockModel("mock")).
			WithSessionService(svc).
			WithSessionID("pinned").
			Build(ctx)
		require.NoError(t, err)
		v, ok := result.Session.GetState("k")
		require.True(t, ok)
		assert.Equal(t, "v", v)
	})

	t.Run("reuses the most recently updated session", func(t *testing.T) {
		svc := session.NewInMemoryService()
		_, err := svc.Create(ctx, "agentcore", "default-user", "older", nil)
		require.NoError(t, err)
		newer, err := svc.Create(ctx, "agentcore", "default-user", "newer", nil)
		require.NoError(t, err)
		newer.Touch()
		ev := core.NewMessageEvent("inv-1", "agent", "touch")
		require.NoError(t, svc.AppendEvent(ctx, newer, ev))

		result, err := New("Assistant").
			WithModel(model.NewMockModel("mock")).
			WithSessionService(svc).
			Build(ctx)
		require.NoError(t, err)
		assert.Equal(t, "newer", result.Session.ID)
	})
}
