// Package history implements linear undo/redo over whole-document snapshots.
package history

import "github.com/zjrosen/codepad/internal/log"

// DefaultDepth is the number of undo snapshots kept before the oldest is dropped.
const DefaultDepth = 50

// History holds the undo and redo stacks. The undo side is bounded; the redo
// side only ever holds states undone since the last recorded edit.
//
// History does not know whether an edit is user-originated. Callers must not
// call Record while replaying a snapshot returned by Undo or Redo.
type History struct {
	undo *ring
	redo []string
}

// New creates a history keeping at most depth undo snapshots.
// depth <= 0 selects DefaultDepth.
func New(depth int) *History {
	if depth <= 0 {
		depth = DefaultDepth
	}
	return &History{undo: newRing(depth)}
}

// Record pushes the text as it was before a user edit and discards any redo
// path.
func (h *History) Record(previous string) {
	if h.undo.push(previous) {
		log.Debug(log.CatHistory, "undo depth exceeded, dropped oldest snapshot", "depth", h.undo.capacity())
	}
	h.dropRedo()
}

// Undo returns the snapshot to restore and saves current for Redo.
// It reports false, changing nothing, when there is nothing to undo.
func (h *History) Undo(current string) (string, bool) {
	prev, ok := h.undo.pop()
	if !ok {
		return current, false
	}
	h.redo = append(h.redo, current)
	return prev, true
}

// Redo is the inverse of Undo.
func (h *History) Redo(current string) (string, bool) {
	if len(h.redo) == 0 {
		return current, false
	}
	last := len(h.redo) - 1
	next := h.redo[last]
	h.redo[last] = ""
	h.redo = h.redo[:last]
	h.undo.push(current)
	return next, true
}

// Clear empties both stacks.
func (h *History) Clear() {
	h.undo.reset()
	h.dropRedo()
}

// dropRedo empties the redo stack, releasing the snapshots it held while
// keeping the backing array.
func (h *History) dropRedo() {
	clear(h.redo)
	h.redo = h.redo[:0]
}

// CanUndo reports whether Undo would change anything.
func (h *History) CanUndo() bool { return h.undo.count() > 0 }

// CanRedo reports whether Redo would change anything.
func (h *History) CanRedo() bool { return len(h.redo) > 0 }

// UndoLen returns the number of undo snapshots.
func (h *History) UndoLen() int { return h.undo.count() }

// RedoLen returns the number of redo snapshots.
func (h *History) RedoLen() int { return len(h.redo) }

// Depth returns the undo capacity.
func (h *History) Depth() int { return h.undo.capacity() }
