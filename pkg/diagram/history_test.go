package diagram

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func named(name string) *State {
	s := NewState()
	s.BackgroundImage = name
	return s
}

func TestHistorySnapshotIsDeepCopy(t *testing.T) {
	s := NewState()
	s.Components = append(s.Components, Component{ID: "a", Kind: "lamp_OFF", Width: 1, Height: 1, IsOn: boolPtr(false)})
	h := NewHistory(NewState(), 0)
	h.Snapshot(s)

	// Mutate the live state after snapshotting
	*s.Components[0].IsOn = true
	s.Components[0].X = 99

	prev, ok := h.Undo(s)
	require.True(t, ok)
	assert.Empty(t, prev.Components)

	next, ok := h.Redo(prev)
	require.True(t, ok)
	require.Len(t, next.Components, 1)
	assert.Equal(t, 99.0, next.Components[0].X, "redo restores what was live at undo time")
	assert.True(t, *next.Components[0].IsOn)
}

func TestHistoryLimit(t *testing.T) {
	h := NewHistory(named("base"), 50)
	for i := 0; i < 60; i++ {
		h.Snapshot(named(fmt.Sprintf("s%d", i)))
	}

	undo, _ := h.Depth()
	assert.Equal(t, 50, undo)

	cur := named("s59")
	var last *State
	for h.CanUndo() {
		var ok bool
		last, ok = h.Undo(cur)
		require.True(t, ok)
		cur = last
	}
	// The oldest ten entries, baseline included, were dropped
	assert.Equal(t, "s9", last.BackgroundImage)
}

func TestHistoryTrimReleasesDroppedEntries(t *testing.T) {
	h := NewHistory(named("base"), 3)
	for i := 0; i < 10; i++ {
		h.Snapshot(named(fmt.Sprintf("s%d", i)))
		// A trimmed stack owns a fresh array with no room for old entries
		assert.LessOrEqual(t, len(h.undo), 4)
		if i >= 3 {
			assert.Equal(t, len(h.undo), cap(h.undo))
		}
	}
	assert.Equal(t, "s6", h.undo[0].BackgroundImage)
}

func TestHistoryRedoClearedBySnapshot(t *testing.T) {
	h := NewHistory(named("base"), 0)
	h.Snapshot(named("one"))
	_, ok := h.Undo(named("one"))
	require.True(t, ok)
	assert.True(t, h.CanRedo())

	h.Snapshot(named("two"))
	assert.False(t, h.CanRedo())
	_, ok = h.Redo(named("two"))
	assert.False(t, ok)
}

func TestHistoryReset(t *testing.T) {
	h := NewHistory(named("base"), 0)
	h.Snapshot(named("one"))
	h.Reset(named("fresh"))

	assert.False(t, h.CanUndo())
	assert.False(t, h.CanRedo())
}
