package session

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentcore/core"
	"github.com/hupe1980/agentcore/internal/testutil"
)

func TestInMemoryServiceCreate(t *testing.T) {
	svc := NewInMemoryService()
	ctx := context.Background()

	t.Run("seeds prefixed scopes and drops temp keys", func(t *testing.T) {
		sess, err := svc.Create(ctx, "app", "user", "s1", map[string]any{
			"app:theme":   "dark",
			"user:locale": "de",
			"counter":     1,
			"temp:draft":  "scratch",
		})
		require.NoError(t, err)
		assert.Equal(t, "s1", sess.ID)

		got, err := svc.Get(ctx, "app", "user", "s1")
		require.NoError(t, err)

		v, _ := got.GetState("app:theme")
		assert.Equal(t, "dark", v)
		v, _ = got.GetState("user:locale")
		assert.Equal(t, "de", v)
		v, _ = got.GetState("counter")
		assert.Equal(t, 1, v)
		_, ok := got.GetState("temp:draft")
		assert.False(t, ok, "temp keys must never be stored")
	})

	t.Run("generates an id when empty", func(t *testing.T) {
		sess, err := svc.Create(ctx, "app", "user", "", nil)
		require.NoError(t, err)
		assert.NotEmpty(t, sess.ID)
	})

	t.Run("app scope is visible across sessions of the app", func(t *testing.T) {
		other, err := svc.Create(ctx, "app", "other-user", "s2", nil)
		require.NoError(t, err)

		v, ok := other.GetState("app:theme")
		require.True(t, ok)
		assert.Equal(t, "dark", v)

		// User scope stays private to its owner.
		_, ok = other.GetState("user:locale")
		assert.False(t, ok)
	})
}

func TestInMemoryServiceGet(t *testing.T) {
	svc := NewInMemoryService()
	ctx := context.Background()

	_, err := svc.Get(ctx, "app", "user", "missing")
	assert.ErrorIs(t, err, core.ErrSessionNotFound)

	created, err := svc.Create(ctx, "app", "user", "s1", map[string]any{"k": "v"})
	require.NoError(t, err)

	// Mutating the returned clone must not leak into the store.
	created.State.Set("k", "mutated")
	got, err := svc.Get(ctx, "app", "user", "s1")
	require.NoError(t, err)
	v, _ := got.GetState("k")
	assert.Equal(t, "v", v)
}

func TestInMemoryServiceAppendEvent(t *testing.T) {
	ctx := context.Background()

	t.Run("routes delta by prefix", func(t *testing.T) {
		svc := NewInMemoryService()
		sess, err := svc.Create(ctx, "app", "user", "s1", nil)
		require.NoError(t, err)

		ev := testutil.NewEventBuilder().
			Invocation("inv-1").
			AssistantText("done").
			StateDelta("app:flag", true).
			StateDelta("user:name", "alice").
			StateDelta("step", 2).
			StateDelta("temp:scratch", "x").
			Build()
		require.NoError(t, svc.AppendEvent(ctx, sess, ev))

		// The live session reads its own writes, temp included.
		v, _ := sess.GetState("temp:scratch")
		assert.Equal(t, "x", v)

		got, err := svc.Get(ctx, "app", "user", "s1")
		require.NoError(t, err)
		v, _ = got.GetState("app:flag")
		assert.Equal(t, true, v)
		v, _ = got.GetState("user:name")
		assert.Equal(t, "alice", v)
		v, _ = got.GetState("step")
		assert.Equal(t, 2, v)
		_, ok := got.GetState("temp:scratch")
		assert.False(t, ok, "temp keys must not survive a reload")

		require.Equal(t, 1, got.EventCount())
	})

	t.Run("partial events are not persisted", func(t *testing.T) {
		svc := NewInMemoryService()
		sess, err := svc.Create(ctx, "app", "user", "s1", nil)
		require.NoError(t, err)

		partial := testutil.NewEventBuilder().
			Invocation("inv-1").
			AssistantText("chunk").
			Partial(true).
			StateDelta("seen", true).
			Build()
		require.NoError(t, svc.AppendEvent(ctx, sess, partial))

		// Live session sees the delta immediately.
		v, _ := sess.GetState("seen")
		assert.Equal(t, true, v)

		got, err := svc.Get(ctx, "app", "user", "s1")
		require.NoError(t, err)
		assert.Equal(t, 0, got.EventCount())
		_, ok := got.GetState("seen")
		assert.False(t, ok)
	})

	t.Run("unknown session", func(t *testing.T) {
		svc := NewInMemoryService()
		orphan := core.NewSession("app", "user", "nope")
		ev := testutil.NewEventBuilder().AssistantText("hi").Build()
		assert.ErrorIs(t, svc.AppendEvent(ctx, orphan, ev), core.ErrSessionNotFound)
	})

	t.Run("last update time strictly increases", func(t *testing.T) {
		svc := NewInMemoryService()
		sess, err := svc.Create(ctx, "app", "user", "s1", nil)
		require.NoError(t, err)

		prev := sess.LastUpdateTime
		for i := 0; i < 5; i++ {
			ev := testutil.NewEventBuilder().Invocation("inv-1").AssistantText("t").Build()
			require.NoError(t, svc.AppendEvent(ctx, sess, ev))
			assert.True(t, sess.LastUpdateTime.After(prev))
			prev = sess.LastUpdateTime
		}
	})

	t.Run("concurrent appends all commit", func(t *testing.T) {
		svc := NewInMemoryService()
		sess, err := svc.Create(ctx, "app", "user", "s1", nil)
		require.NoError(t, err)

		const n = 20
		var wg sync.WaitGroup
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				ev := testutil.NewEventBuilder().
					Invocation("inv-1").
					AssistantText(fmt.Sprintf("msg-%d", i)).
					Build()
				assert.NoError(t, svc.AppendEvent(ctx, sess, ev))
			}(i)
		}
		wg.Wait()

		got, err := svc.Get(ctx, "app", "user", "s1")
		require.NoError(t, err)
		assert.Equal(t, n, got.EventCount())
	})
}

func TestInMemoryServiceList(t *testing.T) {
	svc := NewInMemoryService()
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		_, err := svc.Create(ctx, "app", "user", id, nil)
		require.NoError(t, err)
	}

	// Touch "a" so it becomes the most recent.
	sess, err := svc.Get(ctx, "app", "user", "a")
	require.NoError(t, err)
	ev := testutil.NewEventBuilder().Invocation("inv-1").AssistantText("hi").Build()
	require.NoError(t, svc.AppendEvent(ctx, sess, ev))

	list, err := svc.List(ctx, "app", "user")
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "a", list[0].ID)
	assert.Nil(t, list[0].Events, "listings omit event logs")

	list, err = svc.List(ctx, "app", "unknown")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestInMemoryServiceDelete(t *testing.T) {
	svc := NewInMemoryService()
	ctx := context.Background()

	_, err := svc.Create(ctx, "app", "user", "s1", nil)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, "app", "user", "s1"))
	_, err = svc.Get(ctx, "app", "user", "s1")
	assert.ErrorIs(t, err, core.ErrSessionNotFound)

	// Deleting an unknown session is a no-op.
	assert.NoError(t, svc.Delete(ctx, "app", "user", "s1"))
}
