package session

import (
	"time"

	"farmsession/internal/domain/farm"

	"github.com/google/uuid"
)

// Log is the ordered record of accepted actions not yet confirmed remotely.
// Entries are only removed by Prune after a successful flush.
type Log struct {
	now     func() time.Time
	newID   func() string
	entries []farm.LoggedAction
}

func NewLog(now func() time.Time) *Log {
	return newLog(now, nil)
}

func newLog(now func() time.Time, newID func() string) *Log {
	if now == nil {
		now = time.Now
	}
	if newID == nil {
		newID = uuid.NewString
	}
	return &Log{now: now, newID: newID}
}

// Append stamps a with the current time and records it.
func (l *Log) Append(a farm.Action) farm.LoggedAction {
	return l.appendAt(a, l.now())
}

func (l *Log) appendAt(a farm.Action, at time.Time) farm.LoggedAction {
	// createdAt never goes backwards, so insertion order and time order agree.
	if n := len(l.entries); n > 0 && at.Before(l.entries[n-1].CreatedAt) {
		at = l.entries[n-1].CreatedAt
	}
	entry := farm.LoggedAction{ID: l.newID(), Action: a, CreatedAt: at}
	l.entries = append(l.entries, entry)
	return entry
}

func (l *Log) Len() int { return len(l.entries) }

// Entries returns a copy of every pending entry in insertion order.
func (l *Log) Entries() []farm.LoggedAction {
	out := make([]farm.LoggedAction, len(l.entries))
	copy(out, l.entries)
	return out
}

// EntriesAfter returns the entries created strictly after t.
func (l *Log) EntriesAfter(t time.Time) []farm.LoggedAction {
	out := make([]farm.LoggedAction, 0, len(l.entries))
	for _, entry := range l.entries {
		if entry.CreatedAt.After(t) {
			out = append(out, entry)
		}
	}
	return out
}

// Prune drops entries with CreatedAt <= confirmedBefore and returns how many
// were removed.
func (l *Log) Prune(confirmedBefore time.Time) int {
	kept := l.EntriesAfter(confirmedBefore)
	removed := len(l.entries) - len(kept)
	l.entries = kept
	return removed
}

// Clone returns an independent log with the same entries and clock.
func (l *Log) Clone() *Log {
	return &Log{now: l.now, newID: l.newID, entries: l.Entries()}
}
