// Package gormstore implements storage.Storage on gorm, used with Postgres.
package gormstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rcliao/agent-persona/internal/storage"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// recordRow is the gorm model for a stored record.
type recordRow struct {
	Collection  string `gorm:"primaryKey;size:64"`
	ID          string `gorm:"primaryKey;size:64"`
	CreatedAtNS int64  `gorm:"column:created_at_ns;not null;index:idx_persona_records_created"`
	Attrs       string `gorm:"type:text"`
	Data        string `gorm:"type:text;not null"`
}

// TableName specifies the table name for recordRow
func (recordRow) TableName() string {
	return "persona_records"
}

// attrRow indexes one filterable attribute of a record.
type attrRow struct {
	Collection string `gorm:"primaryKey;size:64"`
	RecordID   string `gorm:"primaryKey;size:64"`
	AttrKey    string `gorm:"primaryKey;size:64"`
	AttrValue  string `gorm:"not null;index"`
}

// TableName specifies the table name for attrRow
func (attrRow) TableName() string {
	return "persona_record_attrs"
}

// GormStorage implements storage.Storage on any gorm dialect. Production uses Postgres.
type GormStorage struct {
	db *gorm.DB
}

// NewGormStorage wraps an open gorm connection and migrates the schema.
func NewGormStorage(db *gorm.DB) (*GormStorage, error) {
	if err := db.AutoMigrate(&recordRow{}, &attrRow{}); err != nil {
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}
	return &GormStorage{db: db}, nil
}

func (s *GormStorage) Put(ctx context.Context, collection string, rec storage.Record) error {
	row := recordRow{
		Collection:  collection,
		ID:          rec.ID,
		CreatedAtNS: rec.CreatedAt.UTC().UnixNano(),
		Data:        string(rec.Data),
	}
	if len(rec.Attrs) > 0 {
		b, err := json.Marshal(rec.Attrs)
		if err != nil {
			return fmt.Errorf("failed to encode attrs: %w", err)
		}
		row.Attrs = string(b)
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&row).Error; err != nil {
			return fmt.Errorf("failed to upsert record: %w", err)
		}
		if err := tx.Where("collection = ? AND record_id = ?", collection, rec.ID).Delete(&attrRow{}).Error; err != nil {
			return fmt.Errorf("failed to clear attrs: %w", err)
		}
		if len(rec.Attrs) == 0 {
			return nil
		}
		attrs := make([]attrRow, 0, len(rec.Attrs))
		for _, k := range storage.SortedKeys(rec.Attrs) {
			attrs = append(attrs, attrRow{Collection: collection, RecordID: rec.ID, AttrKey: k, AttrValue: rec.Attrs[k]})
		}
		if err := tx.Create(&attrs).Error; err != nil {
			return fmt.Errorf("failed to insert attrs: %w", err)
		}
		return nil
	})
}

func (s *GormStorage) Get(ctx context.Context, collection, id string) (*storage.Record, error) {
	var row recordRow
	err := s.db.WithContext(ctx).Where("collection = ? AND id = ?", collection, id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get record: %w", err)
	}
	rec, err := row.toRecord()
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *GormStorage) Query(ctx context.Context, collection string, q storage.Query) ([]storage.Record, error) {
	tx := s.db.WithContext(ctx).Model(&recordRow{}).Where("collection = ?", collection)
	for _, k := range storage.SortedKeys(q.Attrs) {
		tx = tx.Where(`EXISTS (SELECT 1 FROM persona_record_attrs a
			WHERE a.collection = persona_records.collection AND a.record_id = persona_records.id
			AND a.attr_key = ? AND a.attr_value = ?)`, k, q.Attrs[k])
	}
	if q.Order == storage.OldestFirst {
		tx = tx.Order("created_at_ns ASC, id ASC")
	} else {
		tx = tx.Order("created_at_ns DESC, id DESC")
	}
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}

	var rows []recordRow
	if err := tx.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}

	records := make([]storage.Record, 0, len(rows))
	for _, row := range rows {
		rec, err := row.toRecord()
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

func (s *GormStorage) Delete(ctx context.Context, collection string, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("collection = ? AND record_id IN ?", collection, ids).Delete(&attrRow{}).Error; err != nil {
			return fmt.Errorf("failed to delete attrs: %w", err)
		}
		if err := tx.Where("collection = ? AND id IN ?", collection, ids).Delete(&recordRow{}).Error; err != nil {
			return fmt.Errorf("failed to delete records: %w", err)
		}
		return nil
	})
}

// Close closes the underlying sql.DB.
func (s *GormStorage) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.Close()
}

func (r recordRow) toRecord() (storage.Record, error) {
	rec := storage.Record{
		ID:        r.ID,
		CreatedAt: time.Unix(0, r.CreatedAtNS).UTC(),
		Data:      []byte(r.Data),
	}
	if r.Attrs != "" {
		if err := json.Unmarshal([]byte(r.Attrs), &rec.Attrs); err != nil {
			return rec, fmt.Errorf("failed to decode attrs: %w", err)
		}
	}
	return rec, nil
}
