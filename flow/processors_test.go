package flow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentcore/core"
	"github.com/hupe1980/agentcore/internal/testutil"
	"github.com/hupe1980/agentcore/model"
)

func TestInstructionsProcessor(t *testing.T) {
	p := NewInstructionsProcessor()
	assert.Equal(t, "instructions", p.Name())

	t.Run("renders state placeholders", func(t *testing.T) {
		runCtx := newFlowRunContext(t, "hi")
		runCtx.Session.State.Set("topic", "databases")

		agent := &fakeFlowAgent{name: "a", instructions: "You are an expert on {topic}."}
		req := &model.Request{}
		require.NoError(t, p.ProcessRequest(runCtx, req, agent))
		assert.Equal(t, "You are an expert on databases.", req.Instructions)
	})

	t.Run("fails on undefined placeholder", func(t *testing.T) {
		runCtx := newFlowRunContext(t, "hi")
		agent := &fakeFlowAgent{name: "a", instructions: "Use {undefined_key}."}
		err := p.ProcessRequest(runCtx, &model.Request{}, agent)
		assert.ErrorContains(t, err, "undefined_key")
	})

	t.Run("propagates resolution errors", func(t *testing.T) {
		runCtx := newFlowRunContext(t, "hi")
		agent := &fakeFlowAgent{name: "a", instructionsErr: assert.AnError}
		err := p.ProcessRequest(runCtx, &model.Request{}, agent)
		assert.ErrorIs(t, err, assert.AnError)
	})
}

func TestContentsProcessor(t *testing.T) {
	p := NewContentsProcessor()
	assert.Equal(t, "contents", p.Name())

	t.Run("uses persisted conversation history", func(t *testing.T) {
		runCtx := newFlowRunContext(t, "what's new?")
		agent := &fakeFlowAgent{name: "a", maxHistory: 20}

		req := &model.Request{}
		require.NoError(t, p.ProcessRequest(runCtx, req, agent))
		require.Len(t, req.Contents, 1)
		assert.Equal(t, "user", req.Contents[0].Role)
		assert.Equal(t, "what's new?", req.Contents[0].Text())
	})

	t.Run("windows history to the trailing max", func(t *testing.T) {
		runCtx := newFlowRunContext(t, "first")
		for i := 0; i < 5; i++ {
			ev := testutil.NewEventBuilder().Invocation("inv-1").AssistantText("reply").Build()
			runCtx.Session.AddEvent(ev)
		}
		agent := &fakeFlowAgent{name: "a", maxHistory: 3}

		req := &model.Request{}
		require.NoError(t, p.ProcessRequest(runCtx, req, agent))
		assert.Len(t, req.Contents, 3)
	})

	t.Run("partials are excluded", func(t *testing.T) {
		runCtx := newFlowRunContext(t, "hello")
		partial := testutil.NewEventBuilder().Invocation("inv-1").AssistantText("chu").Partial(true).Build()
		runCtx.Session.AddEvent(partial)
		agent := &fakeFlowAgent{name: "a", maxHistory: 20}

		req := &model.Request{}
		require.NoError(t, p.ProcessRequest(runCtx, req, agent))
		assert.Len(t, req.Contents, 1)
	})

	t.Run("falls back to user content without a session", func(t *testing.T) {
		runCtx := newFlowRunContext(t, "hi")
		runCtx.Session = nil
		agent := &fakeFlowAgent{name: "a"}

		req := &model.Request{}
		require.NoError(t, p.ProcessRequest(runCtx, req, agent))
		require.Len(t, req.Contents, 1)
		assert.Equal(t, "hi", req.Contents[0].Text())
	})
}

func TestSelector(t *testing.T) {
	s := NewSelector()

	solo := &fakeFlowAgent{name: "solo", transfer: true}
	_, ok := s.SelectFlow(solo).(*SingleAgentFlow)
	assert.True(t, ok, "no targets means single-agent flow")

	coordinator := &fakeFlowAgent{
		name:     "coordinator",
		transfer: true,
		targets:  []core.Agent{&stubAgent{name: "worker"}},
	}
	_, ok = s.SelectFlow(coordinator).(*MultiAgentFlow)
	assert.True(t, ok)

	disabled := &fakeFlowAgent{
		name:    "disabled",
		targets: []core.Agent{&stubAgent{name: "worker"}},
	}
	_, ok = s.SelectFlow(disabled).(*SingleAgentFlow)
	assert.True(t, ok, "transfer disabled means single-agent flow")
}
