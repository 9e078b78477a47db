package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToolContextStateRoundTrip(t *testing.T) {
	rc := newTestRunContext(nil, nil)
	tc := NewToolContext(rc, "call-1")

	tc.SetState("computed", 99)

	// Visible through the run context immediately.
	v, ok := rc.GetState("computed")
	require.True(t, ok)
	assert.Equal(t, 99, v)

	// And recorded for the function response event.
	assert.Equal(t, 99, tc.Actions().StateDelta["computed"])
}

func TestToolContextActionsApply(t *testing.T) {
	rc := newTestRunContext(nil, nil)
	tc := NewToolContext(rc, "call-1")

	tc.SetState("k", "v")
	tc.TransferToAgent("Helper")
	tc.Escalate()
	tc.SkipSummarization()

	ev := NewFunctionResponseEvent("inv-1", "agent", "call-1", "tool", "ok", nil)
	tc.ApplyActions(&ev)

	assert.Equal(t, "v", ev.Actions.StateDelta["k"])
	require.NotNil(t, ev.Actions.TransferToAgent)
	assert.Equal(t, "Helper", *ev.Actions.TransferToAgent)
	require.NotNil(t, ev.Actions.Escalate)
	assert.True(t, *ev.Actions.Escalate)
	require.NotNil(t, ev.Actions.SkipSummarization)
	assert.True(t, *ev.Actions.SkipSummarization)
}

func TestToolContextIdentity(t *testing.T) {
	rc := newTestRunContext(nil, nil)
	tc := NewToolContext(rc, "call-7")

	assert.Equal(t, "s1", tc.SessionID())
	assert.Equal(t, "inv-1", tc.InvocationID())
	assert.Equal(t, "call-7", tc.FunctionCallID())
	assert.Equal(t, "agent", tc.AgentName())
	assert.NoError(t, tc.Validate())

	bad := NewToolContext(rc, "")
	assert.Error(t, bad.Validate())
}

func TestToolContextServicesUnconfigured(t *testing.T) {
	rc := newTestRunContext(nil, nil)
	tc := NewToolContext(rc, "call-1")

	// Artifact service missing is an error for saves.
	_, err := tc.SaveArtifact("f.txt", []byte("x"))
	assert.Error(t, err)

	// Listing and memory search degrade to empty results.
	files, err := tc.ListArtifacts()
	assert.NoError(t, err)
	assert.Empty(t, files)

	entries, err := tc.SearchMemory("anything")
	assert.NoError(t, err)
	assert.Empty(t, entries)
}
