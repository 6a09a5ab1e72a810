package diagram

// DefaultHistoryLimit is the number of undo levels kept.
const DefaultHistoryLimit = 50

// History keeps deep snapshots of committed states.
//
// The undo stack always holds the live committed state on top, with a
// baseline at the bottom that cannot be undone past. Undo moves the top
// entry to the redo stack and restores the one beneath it.
type History struct {
	undo  []*State
	redo  []*State
	limit int
}

// NewHistory creates a history seeded with baseline. A limit <= 0 keeps
// every entry.
func NewHistory(baseline *State, limit int) *History {
	h := &History{limit: limit}
	h.Reset(baseline)
	return h
}

// Reset discards both stacks and makes s the new baseline.
func (h *History) Reset(s *State) {
	h.undo = []*State{s.Clone()}
	h.redo = nil
}

// Snapshot records s after a committed mutation and clears redo.
func (h *History) Snapshot(s *State) {
	h.undo = append(h.undo, s.Clone())
	if h.limit > 0 && len(h.undo) > h.limit+1 {
		kept := make([]*State, h.limit+1)
		copy(kept, h.undo[len(h.undo)-h.limit-1:])
		h.undo = kept
	}
	h.redo = nil
}

// Undo returns the state to restore, or false if there is nothing to undo.
// current is what the caller holds live; it goes onto the redo stack.
func (h *History) Undo(current *State) (*State, bool) {
	if len(h.undo) < 2 {
		return nil, false
	}
	h.undo = h.undo[:len(h.undo)-1]
	h.redo = append(h.redo, current.Clone())
	return h.undo[len(h.undo)-1].Clone(), true
}

// Redo returns the state to restore, or false if there is nothing to redo.
func (h *History) Redo(current *State) (*State, bool) {
	if len(h.redo) == 0 {
		return nil, false
	}
	next := h.redo[len(h.redo)-1]
	h.redo = h.redo[:len(h.redo)-1]
	h.undo = append(h.undo, next)
	return next.Clone(), true
}

// CanUndo reports whether Undo would do anything.
func (h *History) CanUndo() bool { return len(h.undo) > 1 }

// CanRedo reports whether Redo would do anything.
func (h *History) CanRedo() bool { return len(h.redo) > 0 }

// Depth returns the number of undoable and redoable steps.
func (h *History) Depth() (undo, redo int) {
	return len(h.undo) - 1, len(h.redo)
}
