package matcher

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
)

const TypeElo = "elo"

func init() {
	Register(TypeElo, func(settings json.RawMessage) (Matcher, error) {
		var cfg EloSettings
		if err := json.Unmarshal(settings, &cfg); err != nil {
			return nil, fmt.Errorf("elo matcher: %w", err)
		}
		return NewElo(cfg)
	})
}

// EloSettings is the persisted configuration of an Elo matcher.
type EloSettings struct {
	ScalingFactor float64 `json:"scalingFactor"`
	TeamSize      int     `json:"teamSize"`
	MaxSkillDiff  int     `json:"maxSkillDiff"`
}

// Elo pairs two entries whose "elo" metadata values are closest, within a
// wait-time-expanded window.
type Elo struct {
	settings EloSettings

	entries  map[string]Entry
	eloIndex map[int][]string // rating -> entry ids with that rating, insertion order
	ratings  []int            // sorted unique ratings present in eloIndex
}

// NewElo validates settings and builds an empty Elo matcher.
func NewElo(cfg EloSettings) (*Elo, error) {
	if cfg.ScalingFactor < 0 {
		return nil, fmt.Errorf("%w: scalingFactor must be >= 0", ErrInvalidConfig)
	}
	if cfg.TeamSize < 1 {
		return nil, fmt.Errorf("%w: teamSize must be >= 1", ErrInvalidConfig)
	}
	if cfg.MaxSkillDiff < 0 {
		return nil, fmt.Errorf("%w: maxSkillDiff must be >= 0", ErrInvalidConfig)
	}

	return &Elo{
		settings: cfg,
		entries:  make(map[string]Entry),
		eloIndex: make(map[int][]string),
	}, nil
}

func (m *Elo) TypeName() string { return TypeElo }

// eloOf extracts the integer "elo" metadata value, accepting the numeric
// representations both hand-built entries (int) and JSON-decoded entries
// (float64) use.
func eloOf(e Entry) (int, bool) {
	if e.Metadata == nil {
		return 0, false
	}
	raw, ok := e.Metadata["elo"]
	if !ok {
		return 0, false
	}
	switch v := raw.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		if v != math.Trunc(v) {
			return 0, false
		}
		return int(v), true
	default:
		return 0, false
	}
}

func (m *Elo) Add(e Entry) error {
	if len(e.Players) != m.settings.TeamSize {
		return ErrWrongShape
	}
	elo, ok := eloOf(e)
	if !ok {
		return ErrWrongShape
	}

	m.entries[e.ID] = e.Clone()
	if _, exists := m.eloIndex[elo]; !exists {
		m.insertRating(elo)
	}
	m.eloIndex[elo] = append(m.eloIndex[elo], e.ID)
	return nil
}

func (m *Elo) insertRating(rating int) {
	i := sort.SearchInts(m.ratings, rating)
	m.ratings = append(m.ratings, 0)
	copy(m.ratings[i+1:], m.ratings[i:])
	m.ratings[i] = rating
}

func (m *Elo) removeRating(rating int) {
	i := sort.SearchInts(m.ratings, rating)
	if i < len(m.ratings) && m.ratings[i] == rating {
		m.ratings = append(m.ratings[:i], m.ratings[i+1:]...)
	}
}

func (m *Elo) Remove(id string) (Entry, error) {
	e, ok := m.entries[id]
	if !ok {
		return Entry{}, ErrNotFound
	}
	delete(m.entries, id)

	if elo, ok := eloOf(e); ok {
		ids := removeID(m.eloIndex[elo], id)
		if len(ids) == 0 {
			delete(m.eloIndex, elo)
			m.removeRating(elo)
		} else {
			m.eloIndex[elo] = ids
		}
	}
	return e, nil
}

func (m *Elo) RemoveAll() []Entry {
	out := make([]Entry, 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, e)
	}
	m.entries = make(map[string]Entry)
	m.eloIndex = make(map[int][]string)
	m.ratings = nil
	return out
}

func (m *Elo) List() []Entry {
	out := make([]Entry, 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, e)
	}
	return out
}

func (m *Elo) Serialize() (json.RawMessage, error) {
	return json.Marshal(m.settings)
}

// Attempt implements §4.2: for each seed entry, the acceptable rating
// difference is the wait-time-grown half-width Δ plus the matcher's fixed
// maxSkillDiff baseline (so "scalingFactor=0, maxSkillDiff=0" accepts only
// exact ties, and raising maxSkillDiff alone still widens acceptance for
// entries that haven't waited at all). The sorted rating index is scanned
// within that combined radius and the closest candidate wins.
func (m *Elo) Attempt(now time.Time) Outcome {
	for _, seedID := range m.sortedEntryIDs() {
		seed, ok := m.entries[seedID]
		if !ok {
			continue
		}
		rating, ok := eloOf(seed)
		if !ok {
			logrus.WithField("entry_id", seed.ID).Warn("elo matcher: admitted entry missing elo metadata")
			continue
		}

		secondsWaited := now.Sub(seed.TimeQueued).Seconds()
		if secondsWaited < 0 {
			secondsWaited = 0
		}
		delta := int(math.Floor(secondsWaited * m.settings.ScalingFactor))
		radius := delta + m.settings.MaxSkillDiff

		bestID := ""
		bestDiff := math.MaxInt32
		lo, hi := rating-radius, rating+radius
		startIdx := sort.SearchInts(m.ratings, lo)
		for i := startIdx; i < len(m.ratings) && m.ratings[i] <= hi; i++ {
			candidateRating := m.ratings[i]
			diff := abs(candidateRating - rating)
			for _, otherID := range m.eloIndex[candidateRating] {
				if otherID == seedID {
					continue
				}
				if diff < bestDiff {
					bestDiff = diff
					bestID = otherID
				}
			}
		}

		if bestID != "" {
			return Outcome{Kind: Matched, Teams: [][]string{{seedID}, {bestID}}}
		}
	}

	return Outcome{Kind: Skip, Reason: "No teams found"}
}

// sortedEntryIDs gives Attempt a deterministic seed order (by rating, then
// insertion order within a rating) even though map iteration is not
// ordered; the property under test is only "some valid pair is found", but
// determinism keeps the matcher reproducible for a fixed pool.
func (m *Elo) sortedEntryIDs() []string {
	ids := make([]string, 0, len(m.entries))
	for _, rating := range m.ratings {
		ids = append(ids, m.eloIndex[rating]...)
	}
	return ids
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
