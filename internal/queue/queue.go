// Package queue implements one named matchmaking queue: it binds a single
// Matcher to the set of clients currently waiting on it, drives the tick
// operation, and delivers match results exactly once per entry.
package queue

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"matchqueue/internal/locator"
	"matchqueue/internal/matcher"
)

// ErrNotFound is returned when an operation references an entry id that
// isn't currently queued.
var ErrNotFound = errors.New("entry not found in queue")

// Result is delivered to a Handle exactly once: either a completed match
// with its resolved server, or an error explaining why the caller will
// never be matched.
type Result struct {
	Teams [][]matcher.Entry
	Game  *locator.GameDescriptor
	Err   error
}

// Handle is a single-producer, single-consumer, single-shot delivery
// channel for one entry's eventual match result. The first fulfilment
// wins; later attempts are silently dropped.
type Handle struct {
	ch   chan Result
	once sync.Once
}

func newHandle() *Handle {
	return &Handle{ch: make(chan Result, 1)}
}

func (h *Handle) fulfil(r Result) {
	h.once.Do(func() {
		h.ch <- r
	})
}

// Wait blocks until the handle is fulfilled or ctx is cancelled.
func (h *Handle) Wait(ctx context.Context) (Result, error) {
	select {
	case r := <-h.ch:
		return r, nil
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

// LocateFunc resolves a formed match's teams to a game server. Queue never
// calls the locator while holding its own guard.
type LocateFunc func(ctx context.Context, queueName string, teams [][]string) (*locator.GameDescriptor, error)

// Queue is one named queue: a matcher plus the pending-result handle for
// every entry currently waiting on it.
type Queue struct {
	Name    string
	matcher matcher.Matcher

	mu             sync.Mutex
	pendingResults map[string]*Handle
}

// New binds m to a freshly created, empty queue named name.
func New(name string, m matcher.Matcher) *Queue {
	return &Queue{
		Name:           name,
		matcher:        m,
		pendingResults: make(map[string]*Handle),
	}
}

// MatcherType returns the wire type name of the bound matcher.
func (q *Queue) MatcherType() string {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.matcher.TypeName()
}

// MatcherSettings serializes the bound matcher's configuration.
func (q *Queue) MatcherSettings() (interface{ MarshalJSON() ([]byte, error) }, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	raw, err := q.matcher.Serialize()
	if err != nil {
		return nil, err
	}
	return rawMessage(raw), nil
}

type rawMessage []byte

func (r rawMessage) MarshalJSON() ([]byte, error) { return r, nil }

// EntryCount reports how many entries are currently queued.
func (q *Queue) EntryCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.matcher.List())
}

// Entries returns a snapshot of the currently queued entries.
func (q *Queue) Entries() []matcher.Entry {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.matcher.List()
}

// Add admits e into the matcher and allocates its result handle.
func (q *Queue) Add(e matcher.Entry) (*Handle, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if err := q.matcher.Add(e); err != nil {
		return nil, err
	}
	h := newHandle()
	q.pendingResults[e.ID] = h
	return h, nil
}

// HasPlayer reports whether any currently queued entry contains player.
func (q *Queue) HasPlayer(player string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, e := range q.matcher.List() {
		for _, p := range e.Players {
			if p == player {
				return true
			}
		}
	}
	return false
}

// RemoveEntry silently cancels entryId: it is removed from the matcher and
// its handle is dropped without ever being fulfilled. Idempotent — a
// missing id (already matched and delivered, or never present) is a no-op.
func (q *Queue) RemoveEntry(entryID string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.matcher.Remove(entryID)
	delete(q.pendingResults, entryID)
}

// RemoveAll drains every pending handle, delivering err to each.
func (q *Queue) RemoveAll(err error) {
	q.mu.Lock()
	handles := q.pendingResults
	q.pendingResults = make(map[string]*Handle)
	q.matcher.RemoveAll()
	q.mu.Unlock()

	for _, h := range handles {
		h.fulfil(Result{Err: err})
	}
}

// TickOutcome summarizes what one Tick call did, for logging/diagnostics.
type TickOutcome struct {
	Kind       matcher.Kind
	MatchCount int
	Err        error
}

// Tick invokes the matcher once and resolves the outcome per spec.md §4.3:
// on Matched, the matcher guard is released before the (possibly slow)
// locator call and reacquired to deliver results and remove entries
// atomically with respect to each other; on Skip nothing happens; on Fail
// the affected (or all) entries are ejected with the error delivered.
func (q *Queue) Tick(ctx context.Context, locate LocateFunc) TickOutcome {
	q.mu.Lock()
	outcome := q.matcher.Attempt(time.Now())

	switch outcome.Kind {
	case matcher.Skip:
		q.mu.Unlock()
		return TickOutcome{Kind: matcher.Skip}

	case matcher.Fail:
		if len(outcome.Affected) > 0 {
			for _, id := range outcome.Affected {
				q.matcher.Remove(id)
				if h, ok := q.pendingResults[id]; ok {
					delete(q.pendingResults, id)
					h.fulfil(Result{Err: errors.New(outcome.Reason)})
				}
			}
			q.mu.Unlock()
			return TickOutcome{Kind: matcher.Fail, Err: errors.New(outcome.Reason)}
		}
		q.mu.Unlock()
		q.RemoveAll(errors.New(outcome.Reason))
		return TickOutcome{Kind: matcher.Fail, Err: errors.New(outcome.Reason)}

	case matcher.Matched:
		teamEntries, teamIDs := q.snapshotTeams(outcome.Teams)
		q.mu.Unlock()

		game, locErr := locate(ctx, q.Name, teamIDs.players())
		_ = teamEntries

		q.mu.Lock()
		defer q.mu.Unlock()

		var result Result
		if locErr != nil {
			logrus.WithError(locErr).WithField("queue", q.Name).Warn("queue: locator failed for matched teams, ejecting entries")
			result = Result{Err: locErr}
		} else {
			result = Result{Teams: teamEntries, Game: game}
		}

		for _, team := range outcome.Teams {
			for _, id := range team {
				q.matcher.Remove(id)
				if h, ok := q.pendingResults[id]; ok {
					delete(q.pendingResults, id)
					h.fulfil(result)
				}
			}
		}

		return TickOutcome{Kind: matcher.Matched, MatchCount: len(outcome.Teams)}
	}

	q.mu.Unlock()
	return TickOutcome{}
}

// teamIDSets is the [][]string shape the locator expects (player ids per
// team, not entry ids).
type teamIDSets [][]string

func (t teamIDSets) players() [][]string { return t }

// snapshotTeams reads (never removes) the concrete entries for each team
// of entry ids, for building both the client-facing response and the
// locator request. Caller must hold q.mu.
func (q *Queue) snapshotTeams(teams [][]string) ([][]matcher.Entry, teamIDSets) {
	all := make(map[string]matcher.Entry, len(q.matcher.List()))
	for _, e := range q.matcher.List() {
		all[e.ID] = e
	}

	entryTeams := make([][]matcher.Entry, len(teams))
	playerTeams := make(teamIDSets, len(teams))
	for i, team := range teams {
		entries := make([]matcher.Entry, 0, len(team))
		var players []string
		for _, id := range team {
			e := all[id]
			entries = append(entries, e)
			players = append(players, e.Players...)
		}
		entryTeams[i] = entries
		playerTeams[i] = players
	}
	return entryTeams, playerTeams
}
