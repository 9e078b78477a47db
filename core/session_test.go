package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionAddEventMonotonicTime(t *testing.T) {
	sess := NewSession("app", "user", "s1")
	prev := sess.LastUpdateTime

	for i := 0; i < 5; i++ {
		sess.AddEvent(NewMessageEvent("inv", "agent", "hello"))
		require.True(t, sess.LastUpdateTime.After(prev), "LastUpdateTime must strictly increase")
		prev = sess.LastUpdateTime
	}
	assert.Equal(t, 5, sess.EventCount())
}

func TestSessionGetEventsDefensiveCopy(t *testing.T) {
	sess := NewSession("app", "user", "s1")
	sess.AddEvent(NewMessageEvent("inv", "agent", "one"))

	events := sess.GetEvents()
	events[0].Author = "mutated"

	assert.Equal(t, "agent", sess.GetEvents()[0].Author)
}

func TestSessionConversationHistoryFiltersPartialsAndSystem(t *testing.T) {
	sess := NewSession("app", "user", "s1")

	sess.AddEvent(NewUserMessageEvent("inv", "question"))

	partial := NewMessageEvent("inv", "agent", "chu")
	p := true
	partial.Partial = &p
	sess.AddEvent(partial)

	system := NewEvent("inv", "agent")
	system.Content = &Content{Role: "system", Parts: []Part{TextPart{Text: "internal"}}}
	sess.AddEvent(system)

	sess.AddEvent(NewMessageEvent("inv", "agent", "answer"))

	history := sess.GetConversationHistory()
	require.Len(t, history, 2)
	assert.Equal(t, "question", history[0].Text())
	assert.Equal(t, "answer", history[1].Text())
}

func TestSessionClone(t *testing.T) {
	sess := NewSession("app", "user", "s1")
	sess.State.Set("k", "v")
	sess.AddEvent(NewMessageEvent("inv", "agent", "hello"))

	clone := sess.Clone()
	clone.State.Set("k", "changed")
	clone.AddEvent(NewMessageEvent("inv", "agent", "extra"))

	v, _ := sess.GetState("k")
	assert.Equal(t, "v", v)
	assert.Equal(t, 1, sess.EventCount())
	assert.Equal(t, 2, clone.EventCount())
}
