// Package storagetest provides a conformance suite for storage.Storage backends.
package storagetest

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rcliao/agent-persona/internal/storage"
)

// Base is the creation time of Rec(id, 0, ...).
var Base = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

// Rec builds a record created minute minutes after a fixed base time.
func Rec(id string, minute int, attrs map[string]string) storage.Record {
	return storage.Record{
		ID:        id,
		CreatedAt: Base.Add(time.Duration(minute) * time.Minute),
		Attrs:     attrs,
		Data:      []byte(fmt.Sprintf(`{"id":%q}`, id)),
	}
}

// Run checks the behaviour every storage.Storage backend must share.
// open must return a fresh, empty storage for each call.
func Run(t *testing.T, open func(t *testing.T) storage.Storage) {
	t.Run("PutAndGet", func(t *testing.T) {
		ctx := context.Background()
		s := open(t)

		if err := s.Put(ctx, "memories", Rec("m1", 0, map[string]string{"kind": "fact"})); err != nil {
			t.Fatalf("put: %v", err)
		}
		got, err := s.Get(ctx, "memories", "m1")
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if string(got.Data) != `{"id":"m1"}` {
			t.Errorf("unexpected data %s", got.Data)
		}
		if !got.CreatedAt.Equal(Base) {
			t.Errorf("expected created_at %v, got %v", Base, got.CreatedAt)
		}
		if got.Attrs["kind"] != "fact" {
			t.Errorf("expected kind 'fact', got %q", got.Attrs["kind"])
		}
	})

	t.Run("GetMissing", func(t *testing.T) {
		s := open(t)
		_, err := s.Get(context.Background(), "memories", "nope")
		if !errors.Is(err, storage.ErrNotFound) {
			t.Fatalf("expected storage.ErrNotFound, got %v", err)
		}
	})

	t.Run("PutReplaces", func(t *testing.T) {
		ctx := context.Background()
		s := open(t)

		s.Put(ctx, "state", Rec("agent", 0, map[string]string{"v": "1"}))
		r := Rec("agent", 5, map[string]string{"v": "2"})
		r.Data = []byte(`{"current":"excited"}`)
		if err := s.Put(ctx, "state", r); err != nil {
			t.Fatalf("put: %v", err)
		}

		all, _ := s.Query(ctx, "state", storage.Query{})
		if len(all) != 1 {
			t.Fatalf("expected 1 record after replace, got %d", len(all))
		}
		if string(all[0].Data) != `{"current":"excited"}` {
			t.Errorf("expected replaced data, got %s", all[0].Data)
		}
		old, _ := s.Query(ctx, "state", storage.Query{Attrs: map[string]string{"v": "1"}})
		if len(old) != 0 {
			t.Errorf("stale attr still indexed: %d", len(old))
		}
	})

	t.Run("QueryOrderAndLimit", func(t *testing.T) {
		ctx := context.Background()
		s := open(t)

		s.Put(ctx, "memories", Rec("a", 1, nil))
		s.Put(ctx, "memories", Rec("c", 3, nil))
		s.Put(ctx, "memories", Rec("b", 2, nil))
		s.Put(ctx, "other", Rec("z", 9, nil))

		newest, err := s.Query(ctx, "memories", storage.Query{})
		if err != nil {
			t.Fatal(err)
		}
		if ids(newest) != "c,b,a" {
			t.Errorf("expected c,b,a got %s", ids(newest))
		}

		oldest, _ := s.Query(ctx, "memories", storage.Query{Order: storage.OldestFirst, Limit: 2})
		if ids(oldest) != "a,b" {
			t.Errorf("expected a,b got %s", ids(oldest))
		}
	})

	t.Run("QueryTieBreakByID", func(t *testing.T) {
		ctx := context.Background()
		s := open(t)

		s.Put(ctx, "memories", Rec("01A", 0, nil))
		s.Put(ctx, "memories", Rec("01B", 0, nil))

		newest, _ := s.Query(ctx, "memories", storage.Query{})
		if ids(newest) != "01B,01A" {
			t.Errorf("expected 01B,01A got %s", ids(newest))
		}
	})

	t.Run("QueryAttrs", func(t *testing.T) {
		ctx := context.Background()
		s := open(t)

		s.Put(ctx, "memories", Rec("a", 1, map[string]string{"kind": "fact", "platform": "chat"}))
		s.Put(ctx, "memories", Rec("b", 2, map[string]string{"kind": "fact", "platform": "twitter"}))
		s.Put(ctx, "memories", Rec("c", 3, map[string]string{"kind": "interaction", "platform": "chat"}))

		facts, _ := s.Query(ctx, "memories", storage.Query{Attrs: map[string]string{"kind": "fact"}})
		if ids(facts) != "b,a" {
			t.Errorf("expected b,a got %s", ids(facts))
		}

		both, _ := s.Query(ctx, "memories", storage.Query{Attrs: map[string]string{"kind": "fact", "platform": "chat"}})
		if ids(both) != "a" {
			t.Errorf("expected a got %s", ids(both))
		}

		none, _ := s.Query(ctx, "memories", storage.Query{Attrs: map[string]string{"kind": "narrative"}})
		if len(none) != 0 {
			t.Errorf("expected 0, got %d", len(none))
		}
	})

	t.Run("Delete", func(t *testing.T) {
		ctx := context.Background()
		s := open(t)

		s.Put(ctx, "memories", Rec("a", 1, map[string]string{"kind": "fact"}))
		s.Put(ctx, "memories", Rec("b", 2, nil))
		s.Put(ctx, "memories", Rec("c", 3, nil))

		if err := s.Delete(ctx, "memories", "a", "c", "missing"); err != nil {
			t.Fatalf("delete: %v", err)
		}
		left, _ := s.Query(ctx, "memories", storage.Query{})
		if ids(left) != "b" {
			t.Errorf("expected b got %s", ids(left))
		}
		facts, _ := s.Query(ctx, "memories", storage.Query{Attrs: map[string]string{"kind": "fact"}})
		if len(facts) != 0 {
			t.Errorf("deleted record still matched by attrs")
		}
		if err := s.Delete(ctx, "memories"); err != nil {
			t.Errorf("empty delete should be a no-op: %v", err)
		}
	})
}

func ids(recs []storage.Record) string {
	out := ""
	for i, r := range recs {
		if i > 0 {
			out += ","
		}
		out += r.ID
	}
	return out
}
