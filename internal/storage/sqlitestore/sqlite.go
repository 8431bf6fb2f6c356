// Package sqlitestore implements storage.Storage on SQLite.
package sqlitestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/rcliao/agent-persona/internal/storage"
)

// SQLiteStorage implements storage.Storage using SQLite.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens or creates a SQLite database at the given path.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=foreign_keys(on)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	s := &SQLiteStorage{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

func (s *SQLiteStorage) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS records (
		collection  TEXT NOT NULL,
		id          TEXT NOT NULL,
		created_at  INTEGER NOT NULL,
		attrs       TEXT,
		data        TEXT NOT NULL,
		PRIMARY KEY (collection, id)
	);
	CREATE INDEX IF NOT EXISTS idx_records_created ON records(collection, created_at DESC);

	CREATE TABLE IF NOT EXISTS record_attrs (
		collection  TEXT NOT NULL,
		record_id   TEXT NOT NULL,
		attr_key    TEXT NOT NULL,
		attr_value  TEXT NOT NULL,
		PRIMARY KEY (collection, record_id, attr_key)
	);
	CREATE INDEX IF NOT EXISTS idx_record_attrs_lookup ON record_attrs(collection, attr_key, attr_value);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStorage) Put(ctx context.Context, collection string, rec storage.Record) error {
	var attrsJSON *string
	if len(rec.Attrs) > 0 {
		b, err := json.Marshal(rec.Attrs)
		if err != nil {
			return fmt.Errorf("encode attrs: %w", err)
		}
		str := string(b)
		attrsJSON = &str
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO records (collection, id, created_at, attrs, data)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(collection, id) DO UPDATE SET
		   created_at = excluded.created_at, attrs = excluded.attrs, data = excluded.data`,
		collection, rec.ID, rec.CreatedAt.UTC().UnixNano(), attrsJSON, string(rec.Data))
	if err != nil {
		return fmt.Errorf("insert record: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM record_attrs WHERE collection = ? AND record_id = ?`, collection, rec.ID); err != nil {
		return fmt.Errorf("clear attrs: %w", err)
	}
	for _, k := range storage.SortedKeys(rec.Attrs) {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO record_attrs (collection, record_id, attr_key, attr_value) VALUES (?, ?, ?, ?)`,
			collection, rec.ID, k, rec.Attrs[k])
		if err != nil {
			return fmt.Errorf("insert attr: %w", err)
		}
	}

	return tx.Commit()
}

func (s *SQLiteStorage) Get(ctx context.Context, collection, id string) (*storage.Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, created_at, attrs, data FROM records WHERE collection = ? AND id = ?`,
		collection, id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *SQLiteStorage) Query(ctx context.Context, collection string, q storage.Query) ([]storage.Record, error) {
	where := []string{"r.collection = ?"}
	args := []interface{}{collection}

	for _, k := range storage.SortedKeys(q.Attrs) {
		where = append(where, `EXISTS (SELECT 1 FROM record_attrs a
			WHERE a.collection = r.collection AND a.record_id = r.id AND a.attr_key = ? AND a.attr_value = ?)`)
		args = append(args, k, q.Attrs[k])
	}

	order := "r.created_at DESC, r.id DESC"
	if q.Order == storage.OldestFirst {
		order = "r.created_at ASC, r.id ASC"
	}

	query := fmt.Sprintf(`SELECT r.id, r.created_at, r.attrs, r.data FROM records r
		WHERE %s ORDER BY %s`, strings.Join(where, " AND "), order)
	if q.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, q.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []storage.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (s *SQLiteStorage) Delete(ctx context.Context, collection string, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, id := range ids {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM record_attrs WHERE collection = ? AND record_id = ?`, collection, id); err != nil {
			return fmt.Errorf("delete attrs: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM records WHERE collection = ? AND id = ?`, collection, id); err != nil {
			return fmt.Errorf("delete record: %w", err)
		}
	}

	return tx.Commit()
}

func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row scanner) (storage.Record, error) {
	var r storage.Record
	var createdAt int64
	var attrs sql.NullString
	var data string

	if err := row.Scan(&r.ID, &createdAt, &attrs, &data); err != nil {
		return r, err
	}

	r.CreatedAt = time.Unix(0, createdAt).UTC()
	r.Data = []byte(data)
	if attrs.Valid {
		if err := json.Unmarshal([]byte(attrs.String), &r.Attrs); err != nil {
			return r, fmt.Errorf("decode attrs: %w", err)
		}
	}
	return r, nil
}
