// Package storage provides the durable record storage interface and its backends.
package storage

import (
	"context"
	"errors"
	"sort"
	"time"
)

// ErrNotFound is returned by Get when no record has the given id.
var ErrNotFound = errors.New("record not found")

// Record is one stored document in a collection.
type Record struct {
	ID        string
	CreatedAt time.Time
	// Attrs are indexed string fields usable in Query filters.
	Attrs map[string]string
	// Data is the JSON-encoded document.
	Data []byte
}

// Order controls Query result ordering by CreatedAt.
type Order int

const (
	NewestFirst Order = iota
	OldestFirst
)

// Query holds parameters for listing records in a collection.
type Query struct {
	Attrs map[string]string // equality filters, all must match
	Order Order
	Limit int // 0 means unlimited
}

// Storage defines the durable record storage interface.
type Storage interface {
	// Put inserts or replaces a record. It returns only after the write is durable.
	Put(ctx context.Context, collection string, rec Record) error

	// Get retrieves a record by id. Returns ErrNotFound if missing.
	Get(ctx context.Context, collection, id string) (*Record, error)

	// Query lists records matching the filter. Ties on CreatedAt are broken by id.
	Query(ctx context.Context, collection string, q Query) ([]Record, error)

	// Delete removes the given records atomically. Unknown ids are ignored.
	Delete(ctx context.Context, collection string, ids ...string) error

	// Close closes the storage.
	Close() error
}

// MatchAttrs reports whether have contains every key/value in want.
func MatchAttrs(have, want map[string]string) bool {
	for k, v := range want {
		if have[k] != v {
			return false
		}
	}
	return true
}

// SortedKeys returns the filter keys in a stable order so generated SQL is deterministic.
func SortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// SortRecords orders records by CreatedAt, breaking ties by id.
func SortRecords(recs []Record, order Order) {
	sort.SliceStable(recs, func(i, j int) bool {
		a, b := recs[i], recs[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			if order == OldestFirst {
				return a.CreatedAt.Before(b.CreatedAt)
			}
			return a.CreatedAt.After(b.CreatedAt)
		}
		if order == OldestFirst {
			return a.ID < b.ID
		}
		return a.ID > b.ID
	})
}

// CloneRecord returns a deep copy of r.
func CloneRecord(r Record) Record {
	out := Record{ID: r.ID, CreatedAt: r.CreatedAt}
	if r.Attrs != nil {
		out.Attrs = make(map[string]string, len(r.Attrs))
		for k, v := range r.Attrs {
			out.Attrs[k] = v
		}
	}
	if r.Data != nil {
		out.Data = append([]byte(nil), r.Data...)
	}
	return out
}
