package sqlitestore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rcliao/agent-persona/internal/storage"
	"github.com/rcliao/agent-persona/internal/storage/storagetest"
)

func newTestSQLite(t *testing.T) *SQLiteStorage {
	t.Helper()
	dir := t.TempDir()
	s, err := NewSQLiteStorage(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteStorage(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.Storage { return newTestSQLite(t) })
}

func TestDBPathCreation(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "nested", "deep", "test.db")
	s, err := NewSQLiteStorage(dbPath)
	if err != nil {
		t.Fatalf("failed to create store with nested path: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestSQLiteReopenKeepsRecords(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "persist.db")

	s, err := NewSQLiteStorage(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Put(ctx, "memories", storagetest.Rec("m1", 0, map[string]string{"kind": "fact"})); err != nil {
		t.Fatal(err)
	}
	s.Close()

	s2, err := NewSQLiteStorage(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	defer s2.Close()

	recs, err := s2.Query(ctx, "memories", storage.Query{Attrs: map[string]string{"kind": "fact"}})
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 1 || recs[0].ID != "m1" {
		t.Fatalf("expected m1 after reopen, got %+v", recs)
	}
}
