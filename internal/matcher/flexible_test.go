package matcher

import (
	"testing"
	"time"
)

func newFlexibleEntry(id string, playerCount int) Entry {
	players := make([]string, playerCount)
	for i := range players {
		players[i] = id + "-p" + string(rune('a'+i))
	}
	return Entry{ID: id, Players: players, TimeQueued: time.Now()}
}

func TestFlexibleConstructionValidation(t *testing.T) {
	_, err := NewFlexible(FlexibleSettings{TeamSize: 2, NumberOfTeams: 1, MinEntrySize: 2, MaxEntrySize: 1})
	if err == nil {
		t.Fatal("expected error when minEntrySize > maxEntrySize")
	}

	_, err = NewFlexible(FlexibleSettings{TeamSize: 0, NumberOfTeams: 1, MinEntrySize: 1, MaxEntrySize: 1})
	if err == nil {
		t.Fatal("expected error for non-positive teamSize")
	}
}

func TestFlexibleOneVOne(t *testing.T) {
	m, err := NewFlexible(FlexibleSettings{TeamSize: 1, NumberOfTeams: 2, MinEntrySize: 1, MaxEntrySize: 1})
	if err != nil {
		t.Fatal(err)
	}

	e1 := newFlexibleEntry("e1", 1)
	e2 := newFlexibleEntry("e2", 1)
	if err := m.Add(e1); err != nil {
		t.Fatal(err)
	}
	if err := m.Add(e2); err != nil {
		t.Fatal(err)
	}

	out := m.Attempt(time.Now())
	if out.Kind != Matched {
		t.Fatalf("expected Matched, got %v (%s)", out.Kind, out.Reason)
	}
	if len(out.Teams) != 2 || len(out.Teams[0]) != 1 || len(out.Teams[1]) != 1 {
		t.Fatalf("unexpected teams shape: %v", out.Teams)
	}
}

func TestFlexibleInsufficientPlayers(t *testing.T) {
	m, _ := NewFlexible(FlexibleSettings{TeamSize: 1, NumberOfTeams: 2, MinEntrySize: 1, MaxEntrySize: 1})
	m.Add(newFlexibleEntry("e1", 1))

	out := m.Attempt(time.Now())
	if out.Kind != Skip {
		t.Fatalf("expected Skip, got %v", out.Kind)
	}
	if out.Reason != "Not enough players to form a match" {
		t.Fatalf("unexpected reason: %q", out.Reason)
	}
	if len(m.List()) != 1 {
		t.Fatalf("entry should remain queued")
	}
}

func TestFlexiblePartitionPrefersAvailableSizes(t *testing.T) {
	m, _ := NewFlexible(FlexibleSettings{TeamSize: 2, NumberOfTeams: 1, MinEntrySize: 1, MaxEntrySize: 2})
	e1 := newFlexibleEntry("e1", 1)
	e2 := newFlexibleEntry("e2", 1)
	m.Add(e1)
	m.Add(e2)

	out := m.Attempt(time.Now())
	if out.Kind != Matched {
		t.Fatalf("expected Matched, got %v", out.Kind)
	}
	if len(out.Teams) != 1 || len(out.Teams[0]) != 2 {
		t.Fatalf("expected one team of two single-player entries, got %v", out.Teams)
	}
	if out.Teams[0][0] != "e1" || out.Teams[0][1] != "e2" {
		t.Fatalf("expected [e1 e2], got %v", out.Teams[0])
	}
}

func TestFlexibleRejectsOutOfBoundsPartySize(t *testing.T) {
	m, _ := NewFlexible(FlexibleSettings{TeamSize: 4, NumberOfTeams: 1, MinEntrySize: 2, MaxEntrySize: 3})
	if err := m.Add(newFlexibleEntry("solo", 1)); err != ErrWrongShape {
		t.Fatalf("expected ErrWrongShape, got %v", err)
	}
}

func TestFlexibleRemoveAndSerializeRoundTrip(t *testing.T) {
	m, _ := NewFlexible(FlexibleSettings{TeamSize: 2, NumberOfTeams: 1, MinEntrySize: 1, MaxEntrySize: 2})
	e1 := newFlexibleEntry("e1", 1)
	m.Add(e1)

	removed, err := m.Remove("e1")
	if err != nil || removed.ID != "e1" {
		t.Fatalf("Remove failed: %v %v", removed, err)
	}
	if _, err := m.Remove("e1"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound on double remove, got %v", err)
	}

	data, err := m.Serialize()
	if err != nil {
		t.Fatal(err)
	}
	restored, err := New(TypeFlexible, data)
	if err != nil {
		t.Fatal(err)
	}
	out := restored.Attempt(time.Now())
	if out.Kind != Skip {
		t.Fatalf("expected fresh empty matcher to Skip, got %v", out.Kind)
	}
}
