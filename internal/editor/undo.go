package editor

import "github.com/sppas/phoenix/internal/anndata"

// DefaultUndoDepth bounds the number of undoable changes kept.
const DefaultUndoDepth = 50

// UndoEntry is the content of one tier before a change.
type UndoEntry struct {
	File   string
	TierID string
	What   string
	Snap   anndata.Snapshot
}

// UndoStack is a bounded LIFO of tier snapshots.
type UndoStack struct {
	entries []UndoEntry
	depth   int
}

func NewUndoStack(depth int) *UndoStack {
	if depth <= 0 {
		depth = DefaultUndoDepth
	}
	return &UndoStack{depth: depth}
}

func (u *UndoStack) Push(e UndoEntry) {
	if len(u.entries) == u.depth {
		copy(u.entries, u.entries[1:])
		u.entries = u.entries[:len(u.entries)-1]
	}
	u.entries = append(u.entries, e)
}

func (u *UndoStack) Pop() (UndoEntry, bool) {
	if len(u.entries) == 0 {
		return UndoEntry{}, false
	}
	e := u.entries[len(u.entries)-1]
	u.entries = u.entries[:len(u.entries)-1]
	return e, true
}

func (u *UndoStack) Len() int { return len(u.entries) }

// Forget drops the entries of file, e.g. when it is closed.
func (u *UndoStack) Forget(file string) {
	kept := u.entries[:0]
	for _, e := range u.entries {
		if e.File != file {
			kept = append(kept, e)
		}
	}
	u.entries = kept
}

// Peek describes the change Pop would undo.
func (u *UndoStack) Peek() (string, bool) {
	if len(u.entries) == 0 {
		return "", false
	}
	return u.entries[len(u.entries)-1].What, true
}
