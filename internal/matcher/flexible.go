package matcher

import (
	"encoding/json"
	"fmt"
	"time"
)

const TypeFlexible = "flexible"

func init() {
	Register(TypeFlexible, func(settings json.RawMessage) (Matcher, error) {
		var cfg FlexibleSettings
		if err := json.Unmarshal(settings, &cfg); err != nil {
			return nil, fmt.Errorf("flexible matcher: %w", err)
		}
		return NewFlexible(cfg)
	})
}

// FlexibleSettings is the persisted configuration of a Flexible matcher.
type FlexibleSettings struct {
	TeamSize      int `json:"teamSize"`
	NumberOfTeams int `json:"numberOfTeams"`
	MinEntrySize  int `json:"minEntrySize"`
	MaxEntrySize  int `json:"maxEntrySize"`
}

// Flexible packs currently-waiting entries (parties of 1..maxEntrySize
// players) into numberOfTeams teams of exactly teamSize players each. An
// entry is never split across teams.
type Flexible struct {
	settings     FlexibleSettings
	compositions [][]int // every unordered partition of teamSize

	entries       map[string]Entry
	entriesBySize map[int][]string // insertion order per party size
	order         []string         // overall insertion order, for List()
}

// NewFlexible validates settings and precomputes the partition table.
func NewFlexible(cfg FlexibleSettings) (*Flexible, error) {
	if cfg.TeamSize <= 0 || cfg.NumberOfTeams <= 0 {
		return nil, fmt.Errorf("%w: teamSize and numberOfTeams must be positive", ErrInvalidConfig)
	}
	if cfg.MinEntrySize < 1 {
		return nil, fmt.Errorf("%w: minEntrySize must be >= 1", ErrInvalidConfig)
	}
	if cfg.MinEntrySize > cfg.MaxEntrySize {
		return nil, fmt.Errorf("%w: minEntrySize must be <= maxEntrySize", ErrInvalidConfig)
	}
	if cfg.MaxEntrySize > cfg.TeamSize {
		return nil, fmt.Errorf("%w: maxEntrySize must be <= teamSize", ErrInvalidConfig)
	}

	compositions, err := FindUniqueAddends(cfg.TeamSize)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	return &Flexible{
		settings:      cfg,
		compositions:  compositions,
		entries:       make(map[string]Entry),
		entriesBySize: make(map[int][]string),
	}, nil
}

func (f *Flexible) TypeName() string { return TypeFlexible }

func (f *Flexible) Add(e Entry) error {
	size := len(e.Players)
	if size < f.settings.MinEntrySize || size > f.settings.MaxEntrySize {
		return ErrWrongShape
	}

	f.entries[e.ID] = e.Clone()
	f.entriesBySize[size] = append(f.entriesBySize[size], e.ID)
	f.order = append(f.order, e.ID)
	return nil
}

func (f *Flexible) Remove(id string) (Entry, error) {
	e, ok := f.entries[id]
	if !ok {
		return Entry{}, ErrNotFound
	}
	delete(f.entries, id)

	size := len(e.Players)
	f.entriesBySize[size] = removeID(f.entriesBySize[size], id)
	f.order = removeID(f.order, id)
	return e, nil
}

func (f *Flexible) RemoveAll() []Entry {
	out := make([]Entry, 0, len(f.entries))
	for _, id := range f.order {
		out = append(out, f.entries[id])
	}
	f.entries = make(map[string]Entry)
	f.entriesBySize = make(map[int][]string)
	f.order = nil
	return out
}

func (f *Flexible) List() []Entry {
	out := make([]Entry, 0, len(f.order))
	for _, id := range f.order {
		out = append(out, f.entries[id])
	}
	return out
}

func (f *Flexible) Serialize() (json.RawMessage, error) {
	return json.Marshal(f.settings)
}

// Attempt implements the algorithm of §4.1: filter compositions that are
// individually feasible against the current per-size counts, then
// backtrack over numberOfTeams slots (with repetition) in the
// compositions' own deterministic order, returning the first full
// assignment that never over-consumes a size bucket.
func (f *Flexible) Attempt(now time.Time) Outcome {
	sizeCount := make(map[int]int, len(f.entriesBySize))
	for size, ids := range f.entriesBySize {
		if len(ids) > 0 {
			sizeCount[size] = len(ids)
		}
	}

	multiplicities := make([]map[int]int, len(f.compositions))
	var feasible []int
	for idx, comp := range f.compositions {
		mult := multiplicityOf(comp)
		multiplicities[idx] = mult
		if fitsWithin(mult, sizeCount) {
			feasible = append(feasible, idx)
		}
	}

	chosen, ok := assignTeams(feasible, multiplicities, sizeCount, f.settings.NumberOfTeams, nil, map[int]int{})
	if !ok {
		return Outcome{Kind: Skip, Reason: "Not enough players to form a match"}
	}

	counters := make(map[int]int)
	teams := make([][]string, 0, len(chosen))
	for _, compIdx := range chosen {
		var team []string
		for _, size := range f.compositions[compIdx] {
			pool := f.entriesBySize[size]
			team = append(team, pool[counters[size]])
			counters[size]++
		}
		teams = append(teams, team)
	}

	return Outcome{Kind: Matched, Teams: teams}
}

func multiplicityOf(comp []int) map[int]int {
	m := make(map[int]int, len(comp))
	for _, s := range comp {
		m[s]++
	}
	return m
}

func fitsWithin(mult, available map[int]int) bool {
	for size, need := range mult {
		if available[size] < need {
			return false
		}
	}
	return true
}

// assignTeams is the explicit backtracking search over `remainingSlots`
// team assignments, each drawn from `candidates` (indices into
// `multiplicities`), trying candidates in their given order and pruning
// as soon as a size bucket would be over-consumed.
func assignTeams(candidates []int, multiplicities []map[int]int, sizeCount map[int]int, remainingSlots int, chosen []int, used map[int]int) ([]int, bool) {
	if remainingSlots == 0 {
		out := make([]int, len(chosen))
		copy(out, chosen)
		return out, true
	}

	for _, idx := range candidates {
		mult := multiplicities[idx]

		ok := true
		for size, need := range mult {
			if used[size]+need > sizeCount[size] {
				ok = false
				break
			}
		}
		if !ok {
			continue
		}

		for size, need := range mult {
			used[size] += need
		}
		if result, found := assignTeams(candidates, multiplicities, sizeCount, remainingSlots-1, append(chosen, idx), used); found {
			return result, true
		}
		for size, need := range mult {
			used[size] -= need
		}
	}

	return nil, false
}

func removeID(ids []string, target string) []string {
	out := ids[:0:0]
	for _, id := range ids {
		if id != target {
			out = append(out, id)
		}
	}
	return out
}
