package queue

import (
	"context"
	"errors"
	"testing"
	"time"

	"matchqueue/internal/locator"
	"matchqueue/internal/matcher"
)

func newTestQueue(t *testing.T) *Queue {
	t.Helper()
	m, err := matcher.NewFlexible(matcher.FlexibleSettings{TeamSize: 1, NumberOfTeams: 2, MinEntrySize: 1, MaxEntrySize: 1})
	if err != nil {
		t.Fatal(err)
	}
	return New("ranked", m)
}

func entry(id string) matcher.Entry {
	return matcher.Entry{ID: id, Players: []string{id + "-p1"}, TimeQueued: time.Now()}
}

func TestQueueAddAndEntryCount(t *testing.T) {
	q := newTestQueue(t)
	if _, err := q.Add(entry("e1")); err != nil {
		t.Fatal(err)
	}
	if q.EntryCount() != 1 {
		t.Fatalf("expected 1 entry, got %d", q.EntryCount())
	}
}

func TestQueueTickDeliversMatchedResult(t *testing.T) {
	q := newTestQueue(t)
	h1, err := q.Add(entry("e1"))
	if err != nil {
		t.Fatal(err)
	}
	h2, err := q.Add(entry("e2"))
	if err != nil {
		t.Fatal(err)
	}

	locate := func(ctx context.Context, queueName string, teams [][]string) (*locator.GameDescriptor, error) {
		if queueName != "ranked" {
			t.Fatalf("unexpected queue name: %s", queueName)
		}
		return &locator.GameDescriptor{GameID: "g-1", Host: "10.0.0.1", Port: 7777}, nil
	}

	outcome := q.Tick(context.Background(), locate)
	if outcome.Kind != matcher.Matched {
		t.Fatalf("expected Matched tick, got %v", outcome.Kind)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	r1, err := h1.Wait(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if r1.Err != nil || r1.Game == nil || r1.Game.GameID != "g-1" {
		t.Fatalf("unexpected result for e1: %+v", r1)
	}

	r2, err := h2.Wait(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if r2.Err != nil || r2.Game == nil {
		t.Fatalf("unexpected result for e2: %+v", r2)
	}

	if q.EntryCount() != 0 {
		t.Fatalf("expected queue drained after match, got %d entries", q.EntryCount())
	}
}

func TestQueueTickEjectsOnLocatorFailure(t *testing.T) {
	q := newTestQueue(t)
	h1, _ := q.Add(entry("e1"))
	q.Add(entry("e2"))

	wantErr := errors.New("locator unreachable")
	locate := func(ctx context.Context, queueName string, teams [][]string) (*locator.GameDescriptor, error) {
		return nil, wantErr
	}

	outcome := q.Tick(context.Background(), locate)
	if outcome.Kind != matcher.Matched {
		t.Fatalf("expected matcher to still report Matched, got %v", outcome.Kind)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	r1, err := h1.Wait(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if r1.Err == nil {
		t.Fatal("expected locator failure to be delivered as an error result")
	}
	if q.EntryCount() != 0 {
		t.Fatalf("expected entries ejected after locator failure, got %d", q.EntryCount())
	}
}

func TestQueueTickSkipLeavesEntriesQueued(t *testing.T) {
	q := newTestQueue(t)
	q.Add(entry("e1"))

	outcome := q.Tick(context.Background(), func(ctx context.Context, queueName string, teams [][]string) (*locator.GameDescriptor, error) {
		t.Fatal("locator should not be called on Skip")
		return nil, nil
	})
	if outcome.Kind != matcher.Skip {
		t.Fatalf("expected Skip, got %v", outcome.Kind)
	}
	if q.EntryCount() != 1 {
		t.Fatalf("expected entry to remain queued, got %d", q.EntryCount())
	}
}

func TestQueueRemoveEntryCancelsSilently(t *testing.T) {
	q := newTestQueue(t)
	h1, _ := q.Add(entry("e1"))

	q.RemoveEntry("e1")
	if q.EntryCount() != 0 {
		t.Fatalf("expected entry removed, got %d", q.EntryCount())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := h1.Wait(ctx); err == nil {
		t.Fatal("expected handle to never be fulfilled after silent removal")
	}

	q.RemoveEntry("e1")
}

func TestQueueRemoveAllDeliversError(t *testing.T) {
	q := newTestQueue(t)
	h1, _ := q.Add(entry("e1"))
	h2, _ := q.Add(entry("e2"))

	wantErr := errors.New("queue closing")
	q.RemoveAll(wantErr)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	for _, h := range []*Handle{h1, h2} {
		r, err := h.Wait(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if r.Err != wantErr {
			t.Fatalf("expected drain error delivered, got %v", r.Err)
		}
	}
	if q.EntryCount() != 0 {
		t.Fatalf("expected empty queue after RemoveAll, got %d", q.EntryCount())
	}
}

func TestHandleFulfilIsIdempotent(t *testing.T) {
	h := newHandle()
	h.fulfil(Result{Err: errors.New("first")})
	h.fulfil(Result{Err: errors.New("second")})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	r, err := h.Wait(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if r.Err.Error() != "first" {
		t.Fatalf("expected first fulfilment to win, got %v", r.Err)
	}
}
