package repository

import (
	"context"
	"errors"
	"time"

	"github.com/smallbiznis/snelcrm/internal/snapshot/domain"
	"github.com/smallbiznis/snelcrm/pkg/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type gormStore struct {
	db *gorm.DB
}

// NewGormStore migrates the snapshot table and returns a database backed store.
func NewGormStore(conn *gorm.DB) (domain.Store, error) {
	if err := conn.AutoMigrate(&domain.Snapshot{}); err != nil {
		return nil, err
	}
	return &gormStore{db: conn}, nil
}

func (s *gormStore) Name() string { return "database" }

func (s *gormStore) Get(ctx context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, domain.ErrInvalidKey
	}
	var row domain.Snapshot
	err := s.db.WithContext(ctx).Where("snapshot_key = ?", key).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return []byte(row.Data), nil
}

func (s *gormStore) Put(ctx context.Context, key string, data []byte) error {
	if key == "" {
		return domain.ErrInvalidKey
	}
	row := domain.Snapshot{Key: key, Data: data, UpdatedAt: time.Now().UTC()}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "snapshot_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"data", "updated_at"}),
	}).Create(&row).Error
	if err == nil || !db.IsDuplicateKeyErr(err) {
		return err
	}
	// some mysql setups reject the upsert form, fall back to a plain update
	return s.db.WithContext(ctx).Model(&domain.Snapshot{}).
		Where("snapshot_key = ?", key).
		Updates(map[string]any{"data": row.Data, "updated_at": row.UpdatedAt}).Error
}
