package matcher

import (
	"testing"
	"time"
)

func newEloEntry(id string, elo int) Entry {
	return Entry{
		ID:         id,
		Players:    []string{id + "-p1"},
		TimeQueued: time.Now(),
		Metadata:   map[string]interface{}{"elo": elo},
	}
}

func TestEloExactTieOnly(t *testing.T) {
	m, err := NewElo(EloSettings{ScalingFactor: 0, TeamSize: 1, MaxSkillDiff: 0})
	if err != nil {
		t.Fatal(err)
	}
	m.Add(newEloEntry("a", 1000))
	m.Add(newEloEntry("b", 1000))

	out := m.Attempt(time.Now())
	if out.Kind != Matched {
		t.Fatalf("expected Matched, got %v (%s)", out.Kind, out.Reason)
	}
	if len(out.Teams) != 2 || len(out.Teams[0]) != 1 || len(out.Teams[1]) != 1 {
		t.Fatalf("unexpected teams: %v", out.Teams)
	}
}

func TestEloOutOfWindowThenWidened(t *testing.T) {
	m, _ := NewElo(EloSettings{ScalingFactor: 0, TeamSize: 1, MaxSkillDiff: 0})
	m.Add(newEloEntry("a", 1000))
	m.Add(newEloEntry("b", 1001))

	out := m.Attempt(time.Now())
	if out.Kind != Skip {
		t.Fatalf("expected Skip, got %v", out.Kind)
	}

	m2, _ := NewElo(EloSettings{ScalingFactor: 0, TeamSize: 1, MaxSkillDiff: 1})
	m2.Add(newEloEntry("a", 1000))
	m2.Add(newEloEntry("b", 1001))

	out2 := m2.Attempt(time.Now())
	if out2.Kind != Matched {
		t.Fatalf("expected Matched after widening maxSkillDiff, got %v", out2.Kind)
	}
}

func TestEloRejectsWrongTeamSizeOrMissingMetadata(t *testing.T) {
	m, _ := NewElo(EloSettings{ScalingFactor: 0, TeamSize: 1, MaxSkillDiff: 0})
	if err := m.Add(Entry{ID: "x", Players: []string{"p1", "p2"}, TimeQueued: time.Now(), Metadata: map[string]interface{}{"elo": 1000}}); err != ErrWrongShape {
		t.Fatalf("expected ErrWrongShape for wrong team size, got %v", err)
	}
	if err := m.Add(Entry{ID: "y", Players: []string{"p1"}, TimeQueued: time.Now()}); err != ErrWrongShape {
		t.Fatalf("expected ErrWrongShape for missing elo, got %v", err)
	}
}

func TestEloScalingFactorWidensWindowOverTime(t *testing.T) {
	m, _ := NewElo(EloSettings{ScalingFactor: 1, TeamSize: 1, MaxSkillDiff: 0})
	past := time.Now().Add(-10 * time.Second)
	m.Add(Entry{ID: "a", Players: []string{"a-p1"}, TimeQueued: past, Metadata: map[string]interface{}{"elo": 1000}})
	m.Add(Entry{ID: "b", Players: []string{"b-p1"}, TimeQueued: time.Now(), Metadata: map[string]interface{}{"elo": 1005}})

	out := m.Attempt(time.Now())
	if out.Kind != Matched {
		t.Fatalf("expected widened window to match after waiting, got %v", out.Kind)
	}
}

func TestEloRemoveAndSerializeRoundTrip(t *testing.T) {
	m, _ := NewElo(EloSettings{ScalingFactor: 0.5, TeamSize: 1, MaxSkillDiff: 10})
	e := newEloEntry("a", 1200)
	m.Add(e)

	removed, err := m.Remove("a")
	if err != nil || removed.ID != "a" {
		t.Fatalf("Remove failed: %v %v", removed, err)
	}
	if _, err := m.Remove("a"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	data, err := m.Serialize()
	if err != nil {
		t.Fatal(err)
	}
	restored, err := New(TypeElo, data)
	if err != nil {
		t.Fatal(err)
	}
	if restored.Attempt(time.Now()).Kind != Skip {
		t.Fatal("expected empty restored matcher to Skip")
	}
}
