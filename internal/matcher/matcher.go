package matcher

import (
	"encoding/json"
	"errors"
	"time"
)

// Kind identifies the three possible outcomes of Attempt.
type Kind int

const (
	// Skip means the matcher could not form a match this tick but
	// encountered no error; it will be retried next tick.
	Skip Kind = iota
	// Matched means a full set of teams was formed and is ready for
	// delivery to the locator.
	Matched
	// Fail means the matcher hit an unrecoverable error. If Affected is
	// non-empty, only those entries are ejected; otherwise the whole
	// queue should be drained.
	Fail
)

// Outcome is the result of one Attempt call.
type Outcome struct {
	Kind     Kind
	Teams    [][]string // entry ids, grouped by team; only set when Kind == Matched
	Reason   string     // human-readable explanation for Skip/Fail
	Affected []string   // entry ids affected by a Fail, if scoped
}

// Matcher is the capability set every matching algorithm must implement.
// Concrete types: *Flexible, *Elo.
type Matcher interface {
	// TypeName returns the constant wire name of the algorithm.
	TypeName() string
	// Add admits an entry into the pool, or fails with ErrWrongShape.
	Add(e Entry) error
	// Remove withdraws an entry by id, returning it, or ErrNotFound.
	Remove(id string) (Entry, error)
	// RemoveAll drains every entry from the pool.
	RemoveAll() []Entry
	// List returns a read-only snapshot of the current pool.
	List() []Entry
	// Attempt makes one pass at forming a match. It never fails for the
	// two built-in matchers; Fail is part of the contract for future ones.
	Attempt(now time.Time) Outcome
	// Serialize round-trips the matcher's configuration (not its
	// entries) to a JSON value.
	Serialize() (json.RawMessage, error)
}

// Factory builds a fresh, empty Matcher of a given type from persisted
// settings. Used by the tracker to reconstruct matchers on load and by the
// admin API to validate a create-queue request.
type Factory func(settings json.RawMessage) (Matcher, error)

// registry maps the wire type name to its factory. Populated by each
// matcher implementation's init().
var registry = map[string]Factory{}

// Register adds a matcher type to the registry. Intended to be called from
// package init() only.
func Register(typeName string, f Factory) {
	registry[typeName] = f
}

// New builds a matcher of the named type from its settings.
func New(typeName string, settings json.RawMessage) (Matcher, error) {
	f, ok := registry[typeName]
	if !ok {
		return nil, ErrUnknownType
	}
	return f(settings)
}

// ErrUnknownType is returned by New when no matcher is registered under
// the requested type name.
var ErrUnknownType = errors.New("unknown matcher type")
