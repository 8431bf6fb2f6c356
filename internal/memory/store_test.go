package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcliao/agent-persona/internal/model"
	"github.com/rcliao/agent-persona/internal/storage"
)

// fakeClock advances one second per call so every record gets a distinct time.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// flakyStorage fails writes while failing is set.
type flakyStorage struct {
	*storage.MemoryStorage
	failing bool
}

var errDiskFull = errors.New("disk full")

func (f *flakyStorage) Put(ctx context.Context, collection string, rec storage.Record) error {
	if f.failing {
		return errDiskFull
	}
	return f.MemoryStorage.Put(ctx, collection, rec)
}

func (f *flakyStorage) Delete(ctx context.Context, collection string, ids ...string) error {
	if f.failing {
		return errDiskFull
	}
	return f.MemoryStorage.Delete(ctx, collection, ids...)
}

func newTestStore(t *testing.T) (*Store, *fakeClock, *flakyStorage) {
	t.Helper()
	clock := newFakeClock()
	st := &flakyStorage{MemoryStorage: storage.NewMemoryStorage()}
	return New(st, WithClock(clock.Now)), clock, st
}

func mustAppend(t *testing.T, s *Store, content string, kind model.Kind) model.MemoryRecord {
	t.Helper()
	rec, err := s.Append(context.Background(), AppendParams{Content: content, Kind: kind})
	require.NoError(t, err)
	return rec
}

func TestAppend(t *testing.T) {
	s, _, st := newTestStore(t)
	ctx := context.Background()

	rec, err := s.Append(ctx, AppendParams{
		Content:          "I am thrilled about this launch",
		Kind:             model.KindInteraction,
		EmotionalContext: model.StateExcited,
		Platform:         model.PlatformTelegram,
	})
	require.NoError(t, err)

	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, model.KindInteraction, rec.Kind)
	assert.Equal(t, model.StateExcited, rec.EmotionalContext)
	assert.Equal(t, model.PlatformTelegram, rec.Platform)
	assert.Equal(t, []string{"thrilled", "launch"}, rec.Associations)
	assert.Greater(t, rec.Importance, 0.0)
	assert.Equal(t, 1, s.Len())

	stored, err := st.Get(ctx, DefaultCollection, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "interaction", stored.Attrs["kind"])
	assert.Equal(t, "telegram", stored.Attrs["platform"])
}

func TestAppend_Defaults(t *testing.T) {
	s, _, _ := newTestStore(t)
	rec := mustAppend(t, s, "plain fact", model.KindFact)
	assert.Equal(t, model.StateNeutral, rec.EmotionalContext)
	assert.Equal(t, model.PlatformChat, rec.Platform)
}

func TestAppend_Validation(t *testing.T) {
	s, _, _ := newTestStore(t)
	ctx := context.Background()

	cases := []AppendParams{
		{Content: "", Kind: model.KindFact},
		{Content: "   \n\t", Kind: model.KindFact},
		{Content: "ok", Kind: "gossip"},
		{Content: "ok", Kind: model.KindFact, Platform: "myspace"},
		{Content: "ok", Kind: model.KindFact, EmotionalContext: "grumpy"},
	}
	for _, p := range cases {
		_, err := s.Append(ctx, p)
		var verr *model.ValidationError
		assert.ErrorAs(t, err, &verr, "%+v", p)
	}
	assert.Equal(t, 0, s.Len())
}

func TestAppend_PersistenceFailure(t *testing.T) {
	s, _, st := newTestStore(t)
	st.failing = true

	_, err := s.Append(context.Background(), AppendParams{Content: "lost words", Kind: model.KindFact})
	require.Error(t, err)
	assert.Equal(t, model.ErrKindPersistence, model.KindOf(err))
	assert.ErrorIs(t, err, errDiskFull)
	assert.Equal(t, 0, s.Len(), "failed append must not be visible")
}

func TestAppend_IDsSortByCreation(t *testing.T) {
	s, _, _ := newTestStore(t)
	a := mustAppend(t, s, "first entry", model.KindFact)
	b := mustAppend(t, s, "second entry", model.KindFact)
	assert.Less(t, a.ID, b.ID)
}

func TestQuery(t *testing.T) {
	s, _, _ := newTestStore(t)
	ctx := context.Background()

	s.Append(ctx, AppendParams{Content: "one", Kind: model.KindFact, Platform: model.PlatformChat})
	s.Append(ctx, AppendParams{Content: "two", Kind: model.KindInteraction, Platform: model.PlatformTwitter, EmotionalContext: model.StateExcited})
	s.Append(ctx, AppendParams{Content: "three", Kind: model.KindInteraction, Platform: model.PlatformChat, EmotionalContext: model.StateExcited})
	s.Append(ctx, AppendParams{Content: "four", Kind: model.KindFact, Platform: model.PlatformTwitter})

	all := s.Query(QueryParams{})
	require.Len(t, all, 4)
	assert.Equal(t, "four", all[0].Content)
	assert.Equal(t, "one", all[3].Content)

	inter := s.Query(QueryParams{Kind: model.KindInteraction})
	require.Len(t, inter, 2)
	assert.Equal(t, "three", inter[0].Content)

	both := s.Query(QueryParams{Kind: model.KindInteraction, Platform: model.PlatformTwitter})
	require.Len(t, both, 1)
	assert.Equal(t, "two", both[0].Content)

	excited := s.Query(QueryParams{EmotionalContext: model.StateExcited, Limit: 1})
	require.Len(t, excited, 1)
	assert.Equal(t, "three", excited[0].Content)

	none := s.Query(QueryParams{Kind: model.KindNarrative})
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestQuery_LimitNeverExceeded(t *testing.T) {
	s, _, _ := newTestStore(t)
	for i := 0; i < 10; i++ {
		mustAppend(t, s, "entry", model.KindFact)
	}
	for limit := 1; limit <= 12; limit++ {
		got := s.Query(QueryParams{Limit: limit})
		assert.LessOrEqual(t, len(got), limit)
	}
}

func TestLoad(t *testing.T) {
	clock := newFakeClock()
	st := storage.NewMemoryStorage()
	ctx := context.Background()

	first := New(st, WithClock(clock.Now))
	a := mustAppend(t, first, "remember the ocean", model.KindExperience)
	b := mustAppend(t, first, "remember the mountains", model.KindExperience)

	second := New(st, WithClock(clock.Now))
	require.NoError(t, second.Load(ctx))
	require.Equal(t, 2, second.Len())

	got := second.Query(QueryParams{})
	assert.Equal(t, b.ID, got[0].ID)
	assert.Equal(t, a.ID, got[1].ID)
	assert.Equal(t, a.Associations, got[1].Associations)
	assert.True(t, a.CreatedAt.Equal(got[1].CreatedAt))
}

func TestLoad_CorruptRecord(t *testing.T) {
	st := storage.NewMemoryStorage()
	ctx := context.Background()
	require.NoError(t, st.Put(ctx, DefaultCollection, storage.Record{ID: "bad", CreatedAt: time.Now(), Data: []byte("{")}))

	s := New(st)
	err := s.Load(ctx)
	assert.Equal(t, model.ErrKindPersistence, model.KindOf(err))
}

func TestPruneExpired(t *testing.T) {
	s, clock, st := newTestStore(t)
	ctx := context.Background()

	old := mustAppend(t, s, "ancient history", model.KindFact)
	clock.Advance(10 * 24 * time.Hour)
	fresh := mustAppend(t, s, "breaking news", model.KindFact)

	n, err := s.PruneExpired(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	left := s.Query(QueryParams{})
	require.Len(t, left, 1)
	assert.Equal(t, fresh.ID, left[0].ID)

	_, err = st.Get(ctx, DefaultCollection, old.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestPruneExpired_ZeroDaysRemovesAll(t *testing.T) {
	s, _, _ := newTestStore(t)
	ctx := context.Background()
	for _, c := range []string{"alpha", "beta", "gamma"} {
		mustAppend(t, s, c, model.KindFact)
	}

	n, err := s.PruneExpired(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Empty(t, s.Query(QueryParams{}))
}

func TestPruneExpired_FailureKeepsLog(t *testing.T) {
	s, _, st := newTestStore(t)
	mustAppend(t, s, "keep me", model.KindFact)
	st.failing = true

	_, err := s.PruneExpired(context.Background(), 0)
	assert.Equal(t, model.ErrKindPersistence, model.KindOf(err))
	assert.Equal(t, 1, s.Len())
}

func TestPruneExpired_NegativeDays(t *testing.T) {
	s, _, _ := newTestStore(t)
	_, err := s.PruneExpired(context.Background(), -1)
	assert.Equal(t, model.ErrKindValidation, model.KindOf(err))
}

func TestPurge(t *testing.T) {
	s, _, st := newTestStore(t)
	ctx := context.Background()
	a := mustAppend(t, s, "first", model.KindFact)
	b := mustAppend(t, s, "second", model.KindFact)

	require.NoError(t, s.Purge(ctx, a.ID))
	left := s.Query(QueryParams{})
	require.Len(t, left, 1)
	assert.Equal(t, b.ID, left[0].ID)

	_, err := st.Get(ctx, DefaultCollection, a.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	assert.ErrorIs(t, s.Purge(ctx, a.ID), ErrNotFound)
}

func TestConcurrentReadsDuringWrites(t *testing.T) {
	s, _, _ := newTestStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			s.Append(ctx, AppendParams{Content: "river stone", Kind: model.KindFact})
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			for _, m := range s.Query(QueryParams{Limit: 10}) {
				if m.Content != "river stone" || m.ID == "" {
					t.Errorf("observed partial record %+v", m)
					return
				}
			}
			s.GetAssociated("stone", 3)
			s.DetectPatterns()
		}
	}()
	wg.Wait()
	assert.Equal(t, 200, s.Len())
}
