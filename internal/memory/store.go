// Package memory implements the agent's associative memory log.
package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/rcliao/agent-persona/internal/model"
	"github.com/rcliao/agent-persona/internal/storage"
)

// DefaultCollection is the storage collection memories are written to.
const DefaultCollection = "memories"

// ErrNotFound is returned by Purge when no memory has the given id.
var ErrNotFound = errors.New("memory not found")

// Store is the append-only memory log. Reads work on an immutable snapshot
// and never wait for writers; writes are serialized and durable before
// they become visible.
type Store struct {
	storage    storage.Storage
	collection string
	logger     *zap.Logger
	now        func() time.Time

	mu      sync.Mutex // serializes writers
	entropy *ulid.MonotonicEntropy
	log     atomic.Pointer[[]model.MemoryRecord]
}

// Option configures a Store.
type Option func(*Store)

// WithCollection overrides DefaultCollection.
func WithCollection(name string) Option {
	return func(s *Store) {
		if name != "" {
			s.collection = name
		}
	}
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New creates an empty memory store writing through to st.
// Call Load to hydrate it from previously persisted records.
func New(st storage.Storage, opts ...Option) *Store {
	s := &Store{
		storage:    st,
		collection: DefaultCollection,
		logger:     zap.NewNop(),
		now:        time.Now,
		entropy:    ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0),
	}
	for _, o := range opts {
		o(s)
	}
	empty := []model.MemoryRecord{}
	s.log.Store(&empty)
	return s
}

func (s *Store) snapshot() []model.MemoryRecord {
	return *s.log.Load()
}

// Len returns the number of records currently held.
func (s *Store) Len() int {
	return len(s.snapshot())
}

// AppendParams holds parameters for appending a memory.
type AppendParams struct {
	Content          string
	Kind             model.Kind
	EmotionalContext model.EmotionalState // empty means neutral
	Platform         model.Platform       // empty means chat
}

// Append validates, scores and durably stores a new memory. The record is
// visible to readers only after the storage write succeeded.
func (s *Store) Append(ctx context.Context, p AppendParams) (model.MemoryRecord, error) {
	p, err := checkParams(p)
	if err != nil {
		return model.MemoryRecord{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	rec := model.MemoryRecord{
		ID:               ulid.MustNew(ulid.Timestamp(now), s.entropy).String(),
		Content:          p.Content,
		Kind:             p.Kind,
		CreatedAt:        now,
		EmotionalContext: p.EmotionalContext,
		Platform:         p.Platform,
		Importance:       Importance(p.Content),
		Associations:     Associations(p.Content),
	}

	if err := s.persist(ctx, rec); err != nil {
		return model.MemoryRecord{}, &model.PersistenceError{Op: "append", Err: err}
	}

	// Readers hold slices bounded by their own length, so appending into
	// spare capacity never touches anything they can see.
	next := append(s.snapshot(), rec)
	s.log.Store(&next)

	s.logger.Debug("memory appended",
		zap.String("id", rec.ID),
		zap.String("kind", string(rec.Kind)),
		zap.Int("associations", len(rec.Associations)),
	)
	return detach(rec), nil
}

// checkParams rejects blank content and unknown enums, filling defaults.
func checkParams(p AppendParams) (AppendParams, error) {
	if strings.TrimSpace(p.Content) == "" {
		return p, &model.ValidationError{Field: "content", Msg: "must not be empty"}
	}
	var err error
	if p.Kind, err = model.ParseKind(string(p.Kind)); err != nil {
		return p, err
	}
	if p.EmotionalContext, err = model.ParseEmotionalState(string(p.EmotionalContext)); err != nil {
		return p, err
	}
	if p.Platform, err = model.ParsePlatform(string(p.Platform)); err != nil {
		return p, err
	}
	return p, nil
}

func (s *Store) persist(ctx context.Context, rec model.MemoryRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal memory: %w", err)
	}
	return s.storage.Put(ctx, s.collection, storage.Record{
		ID:        rec.ID,
		CreatedAt: rec.CreatedAt,
		Attrs: map[string]string{
			"kind":             string(rec.Kind),
			"emotionalContext": string(rec.EmotionalContext),
			"platform":         string(rec.Platform),
		},
		Data: data,
	})
}

// Load replaces the in-memory log with every record persisted in the
// collection, oldest first.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	recs, err := s.storage.Query(ctx, s.collection, storage.Query{Order: storage.OldestFirst})
	if err != nil {
		return &model.PersistenceError{Op: "load", Err: err}
	}

	loaded := make([]model.MemoryRecord, 0, len(recs))
	for _, r := range recs {
		var m model.MemoryRecord
		if err := json.Unmarshal(r.Data, &m); err != nil {
			return &model.PersistenceError{Op: "load", Err: fmt.Errorf("decode memory %s: %w", r.ID, err)}
		}
		loaded = append(loaded, m)
	}
	s.log.Store(&loaded)

	s.logger.Debug("memories loaded", zap.Int("count", len(loaded)))
	return nil
}

// PruneExpired removes every memory created at or before now minus
// retentionDays. The storage delete is a single atomic call and the
// in-memory log is swapped only after it succeeds, so readers see either
// the full log or the pruned one.
func (s *Store) PruneExpired(ctx context.Context, retentionDays int) (int, error) {
	if retentionDays < 0 {
		return 0, &model.ValidationError{Field: "retentionDays", Msg: "must not be negative"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().UTC().Add(-time.Duration(retentionDays) * 24 * time.Hour)
	cur := s.snapshot()

	var expired []string
	kept := make([]model.MemoryRecord, 0, len(cur))
	for _, m := range cur {
		if m.CreatedAt.After(cutoff) {
			kept = append(kept, m)
		} else {
			expired = append(expired, m.ID)
		}
	}
	if len(expired) == 0 {
		return 0, nil
	}

	if err := s.storage.Delete(ctx, s.collection, expired...); err != nil {
		return 0, &model.PersistenceError{Op: "prune", Err: err}
	}
	s.log.Store(&kept)

	s.logger.Info("memories pruned",
		zap.Int("removed", len(expired)),
		zap.Int("retention_days", retentionDays),
	)
	return len(expired), nil
}

// Purge explicitly deletes one memory.
func (s *Store) Purge(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur := s.snapshot()
	idx := -1
	for i := range cur {
		if cur[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("purge %s: %w", id, ErrNotFound)
	}

	if err := s.storage.Delete(ctx, s.collection, id); err != nil {
		return &model.PersistenceError{Op: "purge", Err: err}
	}

	next := make([]model.MemoryRecord, 0, len(cur)-1)
	next = append(next, cur[:idx]...)
	next = append(next, cur[idx+1:]...)
	s.log.Store(&next)
	return nil
}
