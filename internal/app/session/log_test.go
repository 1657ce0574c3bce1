package session

import (
	"testing"
	"time"

	"farmsession/internal/domain/farm"
)

func TestLog_AppendStampsInsertionOrder(t *testing.T) {
	clock := newFakeClock()
	l := NewLog(clock.Now)

	first := l.Append(buySeeds(1))
	clock.Advance(time.Second)
	second := l.Append(buySeeds(2))

	if first.ID == "" || first.ID == second.ID {
		t.Fatalf("expected distinct ids, got %q and %q", first.ID, second.ID)
	}
	if !second.CreatedAt.After(first.CreatedAt) {
		t.Fatalf("expected increasing createdAt")
	}
	entries := l.Entries()
	if len(entries) != 2 || entries[0].ID != first.ID || entries[1].ID != second.ID {
		t.Fatalf("unexpected entries: %+v", entries)
	}
}

func TestLog_CreatedAtNeverGoesBackwards(t *testing.T) {
	clock := newFakeClock()
	l := NewLog(clock.Now)
	first := l.Append(buySeeds(1))
	clock.Advance(-time.Minute)
	second := l.Append(buySeeds(1))
	if second.CreatedAt.Before(first.CreatedAt) {
		t.Fatalf("expected non-decreasing createdAt, got %v before %v", second.CreatedAt, first.CreatedAt)
	}
}

func TestLog_PruneKeepsEntriesAfterBoundary(t *testing.T) {
	clock := newFakeClock()
	l := NewLog(clock.Now)
	var entries []farm.LoggedAction
	for i := 0; i < 4; i++ {
		entries = append(entries, l.Append(buySeeds(int64(i+1))))
		clock.Advance(time.Second)
	}
	boundary := entries[1].CreatedAt

	removed := l.Prune(boundary)
	if removed != 2 {
		t.Fatalf("expected 2 pruned, got %d", removed)
	}
	left := l.Entries()
	if len(left) != 2 {
		t.Fatalf("expected 2 entries left, got %d", len(left))
	}
	for _, entry := range left {
		if !entry.CreatedAt.After(boundary) {
			t.Fatalf("entry at %v should have been pruned", entry.CreatedAt)
		}
	}
	if left[0].ID != entries[2].ID || left[1].ID != entries[3].ID {
		t.Fatalf("expected order preserved after prune")
	}
}

func TestLog_EntriesAfterIsStrict(t *testing.T) {
	clock := newFakeClock()
	l := NewLog(clock.Now)
	at := l.Append(buySeeds(1)).CreatedAt
	if got := l.EntriesAfter(at); len(got) != 0 {
		t.Fatalf("expected no entries strictly after %v, got %d", at, len(got))
	}
	if got := l.EntriesAfter(at.Add(-time.Nanosecond)); len(got) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(got))
	}
}

func TestLog_EntriesReturnsCopy(t *testing.T) {
	l := NewLog(nil)
	l.Append(buySeeds(1))
	entries := l.Entries()
	entries[0].ID = "mutated"
	if l.Entries()[0].ID == "mutated" {
		t.Fatalf("expected Entries to return a copy")
	}
}

func TestLog_CloneIsIndependent(t *testing.T) {
	clock := newFakeClock()
	l := NewLog(clock.Now)
	first := l.Append(buySeeds(1))

	c := l.Clone()
	clock.Advance(time.Second)
	c.Append(buySeeds(2))
	if l.Len() != 1 || c.Len() != 2 {
		t.Fatalf("expected independent logs, got %d and %d", l.Len(), c.Len())
	}
	c.Prune(first.CreatedAt)
	if l.Entries()[0].ID != first.ID {
		t.Fatalf("expected original entries untouched by clone prune")
	}
}
