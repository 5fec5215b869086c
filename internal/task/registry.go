package task

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/addy0032/hate-speech-detection/internal/types"
)

type record struct {
	snap   Snapshot
	cancel context.CancelFunc
	done   chan struct{}
}

// Registry maps task ids to their state. Live tasks are kept in a map;
// finished tasks move to an LRU bounded by capacity and age.
type Registry struct {
	mu       sync.RWMutex
	live     map[string]*record
	finished *expirable.LRU[string, *record]
	now      func() time.Time
}

// NewRegistry creates a registry. capacity 0 keeps any number of
// finished tasks and ttl 0 keeps them forever.
func NewRegistry(capacity int, ttl time.Duration) *Registry {
	return &Registry{
		live:     make(map[string]*record),
		finished: expirable.NewLRU[string, *record](capacity, nil, ttl),
		now:      time.Now,
	}
}

// create registers a pending task
func (r *Registry) create(id string, sources []string, windowDays int, cancel context.CancelFunc) Snapshot {
	rec := &record{
		snap: Snapshot{
			ID:         id,
			Status:     StatusPending,
			Progress:   []string{},
			Results:    []types.ItemResult{},
			Sources:    append([]string(nil), sources...),
			WindowDays: windowDays,
			CreatedAt:  r.now(),
		},
		cancel: cancel,
		done:   make(chan struct{}),
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.live[id] = rec
	return rec.snap.clone()
}

// putFinished stores an already-terminal task such as existing_data,
// replacing any previous task with the same id
func (r *Registry) putFinished(snap Snapshot) {
	rec := &record{snap: snap.clone(), done: make(chan struct{})}
	close(rec.done)

	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.live, snap.ID)
	r.finished.Add(snap.ID, rec)
}

func (r *Registry) lookup(id string) (*record, bool) {
	if rec, ok := r.live[id]; ok {
		return rec, true
	}
	return r.finished.Get(id)
}

// Get returns a copy of the task's state
func (r *Registry) Get(id string) (Snapshot, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.lookup(id)
	if !ok {
		return Snapshot{}, false
	}
	return rec.snap.clone(), true
}

// List returns copies of all known tasks, oldest first
func (r *Registry) List() []Snapshot {
	r.mu.RLock()
	out := make([]Snapshot, 0, len(r.live)+r.finished.Len())
	for _, rec := range r.live {
		out = append(out, rec.snap.clone())
	}
	for _, rec := range r.finished.Values() {
		out = append(out, rec.snap.clone())
	}
	r.mu.RUnlock()

	slices.SortFunc(out, func(a, b Snapshot) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return out
}

// update applies fn to a live task under the write lock
func (r *Registry) update(id string, fn func(*Snapshot)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.live[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	fn(&rec.snap)
	return nil
}

// progress appends a human-readable entry
func (r *Registry) progress(id, msg string) {
	_ = r.update(id, func(s *Snapshot) {
		s.Progress = append(s.Progress, msg)
	})
}

// addResult appends an item's comments as soon as the item is done
func (r *Registry) addResult(id string, res types.ItemResult) {
	_ = r.update(id, func(s *Snapshot) {
		s.Results = append(s.Results, res)
	})
}

// transition moves a task to status and optionally records a progress
// entry and an error. Reaching a terminal status retires the task to the
// finished cache and releases waiters.
func (r *Registry) transition(id string, to Status, msg, errMsg string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.live[id]
	if !ok {
		if _, done := r.finished.Peek(id); done {
			return fmt.Errorf("%w: task %s already finished", ErrInvalidTransition, id)
		}
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err := ValidateTransition(rec.snap.Status, to); err != nil {
		return err
	}

	now := r.now()
	rec.snap.Status = to
	if msg != "" {
		rec.snap.Progress = append(rec.snap.Progress, msg)
	}
	if errMsg != "" {
		rec.snap.Error = errMsg
	}
	switch {
	case to == StatusProcessing:
		rec.snap.StartedAt = now
	case to.Terminal():
		rec.snap.FinishedAt = now
		delete(r.live, id)
		r.finished.Add(id, rec)
		close(rec.done)
		if rec.cancel != nil {
			rec.cancel()
		}
	}
	return nil
}

// cancelFunc returns the cancel function of a live task
func (r *Registry) cancelFunc(id string) (context.CancelFunc, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.live[id]
	if !ok {
		if _, done := r.finished.Peek(id); done {
			return nil, fmt.Errorf("%w: task %s already finished", ErrInvalidTransition, id)
		}
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return rec.cancel, nil
}

// doneChan returns a channel closed when the task becomes terminal
func (r *Registry) doneChan(id string) (<-chan struct{}, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.lookup(id)
	if !ok {
		return nil, false
	}
	return rec.done, true
}
