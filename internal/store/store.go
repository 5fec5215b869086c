// Package store keeps the deduplicated, append-only comment collection that
// all scrape tasks merge into.
package store

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/addy0032/hate-speech-detection/internal/types"
)

// Backend is the durable medium behind a Store
type Backend interface {
	// Load returns the persisted records. A missing medium is not an error.
	Load(ctx context.Context) ([]types.Comment, error)

	// Save replaces the persisted records atomically
	Save(ctx context.Context, records []types.Comment) error

	Close() error
}

// key identifies a record for deduplication: the platform identity when
// present, else the (item URL, text) pair
type key struct {
	identity string
	url      string
	text     string
}

func keyOf(identity, url, text string) key {
	if identity != "" {
		return key{identity: identity}
	}
	return key{url: url, text: text}
}

// Store handles the in-memory collection and its persistence
type Store struct {
	mu       sync.Mutex
	backend  Backend
	records  []types.Comment
	seen     map[key]struct{}
	maxIndex int
	now      func() time.Time
	logger   *slog.Logger
}

// Open loads the backend's records and rebuilds the dedup index. Data that
// cannot be read is logged and the store starts empty.
func Open(ctx context.Context, backend Backend, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{
		backend: backend,
		seen:    make(map[key]struct{}),
		now:     time.Now,
		logger:  logger.With("component", "store"),
	}

	records, err := backend.Load(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		s.logger.Warn("could not load existing comments, starting empty", "error", err)
		records = nil
	}

	for _, r := range records {
		s.seen[keyOf(r.Identity, r.SourceURL, r.Text)] = struct{}{}
		if r.Index > s.maxIndex {
			s.maxIndex = r.Index
		}
	}
	s.records = records
	if len(records) > 0 {
		s.logger.Info("loaded existing comments", "count", len(records))
	}
	return s, nil
}

// Add appends the records of batch not already present and returns how
// many were added. Records with neither identity nor text are skipped.
func (s *Store) Add(batch []types.RawComment) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.add(batch)
}

func (s *Store) add(batch []types.RawComment) int {
	added := 0
	for _, c := range batch {
		if c.Identity == "" && c.Text == "" {
			continue
		}
		k := keyOf(c.Identity, c.SourceURL, c.Text)
		if _, dup := s.seen[k]; dup {
			continue
		}
		s.seen[k] = struct{}{}

		label := c.Label
		if label == "" {
			label = types.LabelUnknown
		}
		s.maxIndex++
		s.records = append(s.records, types.Comment{
			Index:            s.maxIndex,
			Identity:         c.Identity,
			SourceURL:        c.SourceURL,
			Text:             c.Text,
			AuthorProfileURL: c.AuthorProfileURL,
			AuthorName:       c.AuthorName,
			Label:            label,
			ScrapedAt:        s.now().UTC(),
		})
		added++
	}
	return added
}

// Persist writes the full collection to the backend
func (s *Store) Persist(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persist(ctx)
}

func (s *Store) persist(ctx context.Context) error {
	if err := s.backend.Save(ctx, s.records); err != nil {
		return fmt.Errorf("failed to persist comments: %w", err)
	}
	s.logger.Debug("saved comments", "count", len(s.records))
	return nil
}

// Merge adds batch and persists under one lock. Concurrent tasks use it
// so that no write interleaves with another task's add.
func (s *Store) Merge(ctx context.Context, batch []types.RawComment) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	added := s.add(batch)
	if added == 0 {
		return 0, nil
	}
	if err := s.persist(ctx); err != nil {
		return added, err
	}
	return added, nil
}

// Len returns the number of stored records
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// Records returns a copy of every record in index order
func (s *Store) Records() []types.Comment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]types.Comment(nil), s.records...)
}

// GroupByItem groups records by item URL, ordered by each item's first
// appearance. Records without an item URL are left out.
func (s *Store) GroupByItem() []types.ItemResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	pos := make(map[string]int)
	var groups []types.ItemResult
	for _, r := range s.records {
		if r.SourceURL == "" {
			continue
		}
		i, ok := pos[r.SourceURL]
		if !ok {
			i = len(groups)
			pos[r.SourceURL] = i
			groups = append(groups, types.ItemResult{ItemURL: r.SourceURL})
		}
		groups[i].Comments = append(groups[i].Comments, r.Raw())
		groups[i].CommentCount++
	}
	return groups
}

// Close releases the backend
func (s *Store) Close() error {
	return s.backend.Close()
}
