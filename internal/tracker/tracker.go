// Package tracker owns the live set of named queues: creating them,
// routing joins and leaves, and driving each queue's tick loop.
package tracker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"matchqueue/internal/locator"
	"matchqueue/internal/matcher"
	"matchqueue/internal/models"
	"matchqueue/internal/queue"
	"matchqueue/internal/repositories"
	"matchqueue/internal/services"
)

var (
	// ErrQueueExists is returned by CreateQueue when the name is already taken.
	ErrQueueExists = errors.New("queue already exists")
	// ErrQueueNotFound is returned when a referenced queue name doesn't exist.
	ErrQueueNotFound = errors.New("queue not found")
	// ErrAlreadyQueued is returned when a player tries to join a queue they
	// are already waiting in.
	ErrAlreadyQueued = errors.New("player already queued on this queue")
	// ErrLocked is returned by Join and CreateQueue once the tracker has
	// begun a graceful shutdown drain. Leave, RestoreQueue and
	// UpdateLocatorSettings are not affected by the lock.
	ErrLocked = errors.New("tracker is locked for shutdown")
)

// QueueDescriptor is the persisted/wire shape of one queue's configuration.
type QueueDescriptor struct {
	Name         string          `json:"name"`
	MatcherType  string          `json:"matcherType"`
	Settings     json.RawMessage `json:"settings"`
}

type entry struct {
	q *queue.Queue
}

// Tracker owns every live queue, keyed by name. Each queue is independent:
// operations on one queue never block on another, but CreateQueue/ListQueues
// briefly hold the tracker-level lock to read or mutate the queue set itself.
type Tracker struct {
	mu      sync.RWMutex
	queues  map[string]*entry
	locator *locator.Locator

	tickInterval time.Duration

	lockedMu sync.Mutex
	locked   bool

	runCtx    context.Context
	cancelRun context.CancelFunc
	wg        sync.WaitGroup

	domainMu     sync.RWMutex
	locatorCache *services.LocatorCacheService
	auditRepo    *repositories.MatchAuditRepository
}

// WireDomainStack attaches the optional persistence/caching components
// that sit alongside the core matching algorithm: a short-TTL cache in
// front of the GameLocator call, and a durable audit log of every
// resolved match attempt. Both are no-ops until wired; call before Start
// so every tick loop picks them up from the first tick.
func (t *Tracker) WireDomainStack(locatorCache *services.LocatorCacheService, auditRepo *repositories.MatchAuditRepository) {
	t.domainMu.Lock()
	defer t.domainMu.Unlock()
	t.locatorCache = locatorCache
	t.auditRepo = auditRepo
}

// New builds an empty Tracker bound to loc for game resolution. tickInterval
// governs how often each queue's matcher is given a chance to form a match.
func New(loc *locator.Locator, tickInterval time.Duration) *Tracker {
	if tickInterval <= 0 {
		tickInterval = time.Second
	}
	return &Tracker{
		queues:       make(map[string]*entry),
		locator:      loc,
		tickInterval: tickInterval,
	}
}

// CreateQueue registers a new queue named name backed by a matcher of the
// given type and settings.
func (t *Tracker) CreateQueue(name, matcherType string, settings json.RawMessage) error {
	if t.isLocked() {
		return ErrLocked
	}

	m, err := matcher.New(matcherType, settings)
	if err != nil {
		return fmt.Errorf("tracker: create queue %q: %w", name, err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if _, exists := t.queues[name]; exists {
		return ErrQueueExists
	}
	q := queue.New(name, m)
	t.queues[name] = &entry{q: q}

	if t.runCtx != nil {
		t.startTickLoopLocked(t.runCtx, name, q)
	}

	logrus.WithFields(logrus.Fields{"queue": name, "matcher": matcherType}).Info("tracker: queue created")
	return nil
}

// RestoreQueue re-registers a queue loaded from persisted state, bypassing
// the locked/duplicate checks CreateQueue applies to fresh operator calls.
// An unknown matcher type is reported so the caller can skip and log it
// rather than aborting the whole load.
func (t *Tracker) RestoreQueue(name, matcherType string, settings json.RawMessage) error {
	m, err := matcher.New(matcherType, settings)
	if err != nil {
		return fmt.Errorf("tracker: restore queue %q: %w", name, err)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	q := queue.New(name, m)
	t.queues[name] = &entry{q: q}
	return nil
}

// ExportDescriptors snapshots every queue's matcher type and settings, for
// persistence. Waiting entries are not part of the snapshot: only queue
// configuration survives a restart.
func (t *Tracker) ExportDescriptors() ([]QueueDescriptor, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]QueueDescriptor, 0, len(t.queues))
	for name, e := range t.queues {
		raw, err := e.q.MatcherSettings()
		if err != nil {
			return nil, fmt.Errorf("tracker: export queue %q: %w", name, err)
		}
		data, err := raw.MarshalJSON()
		if err != nil {
			return nil, fmt.Errorf("tracker: export queue %q: %w", name, err)
		}
		out = append(out, QueueDescriptor{
			Name:        name,
			MatcherType: e.q.MatcherType(),
			Settings:    data,
		})
	}
	return out, nil
}

// GetQueue returns the queue's live snapshot, or ErrQueueNotFound.
func (t *Tracker) GetQueue(name string) (*queue.Queue, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, ok := t.queues[name]
	if !ok {
		return nil, ErrQueueNotFound
	}
	return e.q, nil
}

// ListQueues returns the name of every currently registered queue.
func (t *Tracker) ListQueues() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	names := make([]string, 0, len(t.queues))
	for name := range t.queues {
		names = append(names, name)
	}
	return names
}

// Join admits a client entry into queueName, enforcing that none of its
// players are already waiting anywhere on that queue.
func (t *Tracker) Join(queueName string, e matcher.Entry) (*queue.Handle, error) {
	if t.isLocked() {
		return nil, ErrLocked
	}

	q, err := t.GetQueue(queueName)
	if err != nil {
		return nil, err
	}

	for _, p := range e.Players {
		if q.HasPlayer(p) {
			return nil, ErrAlreadyQueued
		}
	}

	return q.Add(e)
}

// Leave cancels entryID's wait on queueName without delivering a result.
func (t *Tracker) Leave(queueName, entryID string) error {
	q, err := t.GetQueue(queueName)
	if err != nil {
		return err
	}
	q.RemoveEntry(entryID)
	return nil
}

// UpdateLocatorSettings hot-reloads the shared GameLocator configuration.
func (t *Tracker) UpdateLocatorSettings(s locator.Settings) {
	t.locator.UpdateSettings(s)
}

// Start launches one independent tick goroutine per currently registered
// queue and arms future CreateQueue calls to do the same.
func (t *Tracker) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)

	t.mu.Lock()
	t.runCtx = ctx
	t.cancelRun = cancel
	for name, e := range t.queues {
		t.startTickLoopLocked(ctx, name, e.q)
	}
	t.mu.Unlock()
}

func (t *Tracker) startTickLoopLocked(ctx context.Context, name string, q *queue.Queue) {
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		ticker := time.NewTicker(t.tickInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				outcome := q.Tick(ctx, t.locate)
				if outcome.Err != nil {
					logrus.WithError(outcome.Err).WithField("queue", name).Warn("tracker: tick reported an error")
				}
			}
		}
	}()
}

// locate resolves a matched team set to a game server, through the
// locator cache when one has been wired, and records the outcome (success
// or failure) to the audit log when one has been wired.
func (t *Tracker) locate(ctx context.Context, queueName string, teams [][]string) (*locator.GameDescriptor, error) {
	t.domainMu.RLock()
	locatorCache := t.locatorCache
	auditRepo := t.auditRepo
	t.domainMu.RUnlock()

	var (
		game *locator.GameDescriptor
		err  error
	)
	if locatorCache != nil {
		game, err = locatorCache.Find(ctx, queueName, teams)
	} else {
		game, err = t.locator.Find(ctx, queueName, teams)
	}

	if auditRepo != nil {
		entry := &models.MatchAuditEntry{Queue: queueName, Teams: teams, CreatedAt: time.Now()}
		if game != nil {
			entry.GameID = game.GameID
			entry.Host = game.Host
			entry.Port = game.Port
		}
		if err != nil {
			entry.Error = err.Error()
		}
		if recErr := auditRepo.Record(ctx, entry); recErr != nil {
			logrus.WithError(recErr).WithField("queue", queueName).Warn("tracker: failed to record match audit entry")
		}
	}

	return game, err
}

// Lock begins a graceful shutdown: no further joins or queue creations are
// accepted, but already-queued entries are left untouched so ongoing ticks
// can still match them. Callers poll Empty and give up after their own
// drain deadline; Lock itself never forces entries out.
func (t *Tracker) Lock() {
	t.lockedMu.Lock()
	t.locked = true
	t.lockedMu.Unlock()
}

func (t *Tracker) isLocked() bool {
	t.lockedMu.Lock()
	defer t.lockedMu.Unlock()
	return t.locked
}

// Empty reports whether every queue has drained, used by shutdown polling.
func (t *Tracker) Empty() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, e := range t.queues {
		if e.q.EntryCount() > 0 {
			return false
		}
	}
	return true
}

// Stop halts every tick loop and waits for them to exit.
func (t *Tracker) Stop() {
	t.mu.Lock()
	cancel := t.cancelRun
	t.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	t.wg.Wait()
}
