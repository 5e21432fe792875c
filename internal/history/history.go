// Package history implements a linear undo/redo log over full schema snapshots.
//
// Recording after an undo discards every entry past the cursor. Entries are
// never mutated once recorded; every read hands out a deep copy.
package history

import (
	"time"

	"github.com/hlop3z/erdlab/internal/model"
)

// Entry is one recorded action and the model state after it completed.
type Entry struct {
	Action     string       `json:"action"`
	State      model.Schema `json:"state"`
	RecordedAt time.Time    `json:"recorded_at"`
}

// Log is a linear history with a cursor.
// The cursor is a valid index whenever entries exist, and -1 otherwise.
// Log is not safe for concurrent use; the modeler serializes access.
type Log struct {
	entries []Entry
	cursor  int
	limit   int
	now     func() time.Time
}

// Option configures a Log.
type Option func(*Log)

// WithLimit bounds the number of retained entries. Zero means unbounded.
// When a record would exceed the limit, the oldest entries are dropped.
func WithLimit(n int) Option {
	return func(l *Log) {
		if n > 0 {
			l.limit = n
		}
	}
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(l *Log) {
		l.now = now
	}
}

// New creates an empty log.
func New(opts ...Option) *Log {
	l := &Log{cursor: -1, now: time.Now}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Record truncates everything after the cursor, appends a snapshot of state
// tagged with action, and moves the cursor to the new entry.
func (l *Log) Record(action string, state model.Schema) {
	l.entries = append(l.entries[:l.cursor+1], Entry{
		Action:     action,
		State:      state.Clone(),
		RecordedAt: l.now(),
	})

	if l.limit > 0 && len(l.entries) > l.limit {
		drop := len(l.entries) - l.limit
		// Copy so the dropped prefix can be collected.
		kept := make([]Entry, l.limit)
		copy(kept, l.entries[drop:])
		l.entries = kept
	}

	l.cursor = len(l.entries) - 1
}

// Undo steps the cursor back and returns the snapshot to install.
// It is a no-op at the oldest entry.
func (l *Log) Undo() (model.Schema, bool) {
	if l.cursor <= 0 {
		return model.Schema{}, false
	}
	l.cursor--
	return l.entries[l.cursor].State.Clone(), true
}

// Redo steps the cursor forward and returns the snapshot to install.
// It is a no-op at the newest entry.
func (l *Log) Redo() (model.Schema, bool) {
	if l.cursor >= len(l.entries)-1 {
		return model.Schema{}, false
	}
	l.cursor++
	return l.entries[l.cursor].State.Clone(), true
}

// CanUndo reports whether Undo would move the cursor.
func (l *Log) CanUndo() bool {
	return l.cursor > 0
}

// CanRedo reports whether Redo would move the cursor.
func (l *Log) CanRedo() bool {
	return l.cursor < len(l.entries)-1
}

// Cursor returns the active entry index, or -1 when empty.
func (l *Log) Cursor() int {
	return l.cursor
}

// Len returns the number of retained entries.
func (l *Log) Len() int {
	return len(l.entries)
}

// Current returns the entry at the cursor.
func (l *Log) Current() (Entry, bool) {
	if l.cursor < 0 {
		return Entry{}, false
	}
	return l.entries[l.cursor].clone(), true
}

// Entries returns a deep copy of every retained entry, oldest first.
func (l *Log) Entries() []Entry {
	out := make([]Entry, len(l.entries))
	for i, e := range l.entries {
		out[i] = e.clone()
	}
	return out
}

func (e Entry) clone() Entry {
	e.State = e.State.Clone()
	return e
}
