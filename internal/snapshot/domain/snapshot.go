package domain

import (
	"context"
	"errors"
	"time"

	"gorm.io/datatypes"
)

var (
	ErrNotFound       = errors.New("snapshot_not_found")
	ErrInvalidKey     = errors.New("invalid_snapshot_key")
	ErrUnknownVersion = errors.New("unknown_snapshot_version")
)

// Store persists one encoded document per collection key.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte) error
	Name() string
}

// Snapshot is the relational row behind the database backend.
type Snapshot struct {
	Key       string         `gorm:"column:snapshot_key;primaryKey;type:varchar(128)"`
	Data      datatypes.JSON `gorm:"not null"`
	UpdatedAt time.Time      `gorm:"not null"`
}

func (Snapshot) TableName() string { return "state_snapshots" }
