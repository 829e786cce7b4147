package game

import "slices"

// snapshot is a deep copy of the mutable parts of a Session.
type snapshot struct {
	players      []*Player
	currentRound int
	lastRound    []int
}

// undoStack is a bounded LIFO; pushing past the limit evicts the oldest entry.
type undoStack struct {
	limit   int
	entries []snapshot
}

func newUndoStack(limit int) *undoStack {
	return &undoStack{limit: limit, entries: make([]snapshot, 0, limit)}
}

func (u *undoStack) push(s snapshot) {
	if len(u.entries) == u.limit {
		copy(u.entries, u.entries[1:])
		u.entries = u.entries[:len(u.entries)-1]
	}
	u.entries = append(u.entries, s)
}

func (u *undoStack) pop() (snapshot, bool) {
	if len(u.entries) == 0 {
		return snapshot{}, false
	}
	last := len(u.entries) - 1
	s := u.entries[last]
	u.entries[last] = snapshot{}
	u.entries = u.entries[:last]
	return s, true
}

func (u *undoStack) clear() {
	clear(u.entries)
	u.entries = u.entries[:0]
}

func (u *undoStack) len() int {
	return len(u.entries)
}

func (s *Session) capture() snapshot {
	return snapshot{
		players:      clonePlayers(s.players),
		currentRound: s.currentRound,
		lastRound:    slices.Clone(s.lastRound),
	}
}

// save pushes the current state; it must run before the mutation it protects.
func (s *Session) save() {
	s.undo.push(s.capture())
}
