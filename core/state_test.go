package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatePrefixHelpers(t *testing.T) {
	assert.True(t, IsAppKey("app:theme"))
	assert.True(t, IsUserKey("user:lang"))
	assert.True(t, IsTempKey("temp:scratch"))
	assert.False(t, IsAppKey("theme"))
	assert.False(t, IsUserKey("app:user:odd"))
	assert.False(t, IsTempKey("user:temp"))
}

func TestStateGetPrefersDelta(t *testing.T) {
	s := NewState(map[string]any{"k": "committed"}, map[string]any{"k": "staged"})

	v, ok := s.Get("k")
	require.True(t, ok)
	assert.Equal(t, "staged", v)

	s.ClearDelta()
	v, ok = s.Get("k")
	require.True(t, ok)
	assert.Equal(t, "committed", v)
}

func TestStateSetAndUpdate(t *testing.T) {
	s := NewState(nil, nil)
	assert.False(t, s.HasDelta())

	s.Set("a", 1)
	assert.True(t, s.HasDelta())
	assert.True(t, s.Has("a"))

	s.Update(map[string]any{"b": 2, "c": 3})
	m := s.ToMap()
	assert.Equal(t, 1, m["a"])
	assert.Equal(t, 2, m["b"])
	assert.Equal(t, 3, m["c"])
}

func TestStateWithoutTemp(t *testing.T) {
	s := NewState(map[string]any{
		"plain":     "v",
		"app:a":     "v",
		"temp:gone": "v",
	}, nil)
	s.Set("temp:also_gone", "v")

	persistable := s.WithoutTemp()
	assert.Contains(t, persistable, "plain")
	assert.Contains(t, persistable, "app:a")
	assert.NotContains(t, persistable, "temp:gone")
	assert.NotContains(t, persistable, "temp:also_gone")
}

func TestSplitDelta(t *testing.T) {
	app, user, session, temp := SplitDelta(map[string]any{
		"app:theme":    "dark",
		"user:lang":    "de",
		"result":       42,
		"temp:scratch": "x",
	})

	assert.Equal(t, map[string]any{"app:theme": "dark"}, app)
	assert.Equal(t, map[string]any{"user:lang": "de"}, user)
	assert.Equal(t, map[string]any{"result": 42}, session)
	assert.Equal(t, map[string]any{"temp:scratch": "x"}, temp)
}
