package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentcore/internal/testutil"
)

func TestInMemoryServiceSearch(t *testing.T) {
	svc := NewInMemoryService()
	ctx := context.Background()

	sess := testutil.NewSessionBuilder("app", "user", "s1").
		Event(testutil.NewEventBuilder().Author("user").UserText("Tell me about the Gophers conference").Build()).
		Event(testutil.NewEventBuilder().AssistantText("The Gophers conference covers Go tooling and networking").Build()).
		Event(testutil.NewEventBuilder().AssistantText("streaming chunk").Partial(true).Build()).
		Build()
	require.NoError(t, svc.AddSession(ctx, sess))

	t.Run("matches case-insensitively and scores by word coverage", func(t *testing.T) {
		results, err := svc.Search(ctx, "app", "user", "gophers networking")
		require.NoError(t, err)
		require.Len(t, results, 2)

		// Both query words match the assistant turn, only one the user turn.
		assert.Equal(t, 1.0, results[0].Score)
		assert.Contains(t, results[0].Content, "networking")
		assert.Equal(t, 0.5, results[1].Score)
		assert.Equal(t, "s1", results[0].SessionID)
		assert.Equal(t, "agent", results[0].Metadata["author"])
	})

	t.Run("partials are never ingested", func(t *testing.T) {
		results, err := svc.Search(ctx, "app", "user", "chunk")
		require.NoError(t, err)
		assert.Empty(t, results)
	})

	t.Run("empty query", func(t *testing.T) {
		results, err := svc.Search(ctx, "app", "user", "   ")
		require.NoError(t, err)
		assert.Empty(t, results)
	})

	t.Run("scoped to app and user", func(t *testing.T) {
		results, err := svc.Search(ctx, "app", "other", "gophers")
		require.NoError(t, err)
		assert.Empty(t, results)
	})
}

func TestInMemoryServiceReingestReplaces(t *testing.T) {
	svc := NewInMemoryService()
	ctx := context.Background()

	first := testutil.NewSessionBuilder("app", "user", "s1").
		Event(testutil.NewEventBuilder().AssistantText("old fact").Build()).
		Build()
	require.NoError(t, svc.AddSession(ctx, first))

	updated := testutil.NewSessionBuilder("app", "user", "s1").
		Event(testutil.NewEventBuilder().AssistantText("new fact").Build()).
		Build()
	require.NoError(t, svc.AddSession(ctx, updated))

	results, err := svc.Search(ctx, "app", "user", "fact")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "new fact", results[0].Content)
}
