package storage

import "time"

// KeyValue is the single table backing GormStore.
type KeyValue struct {
	Key       string `gorm:"primaryKey;size:255"`
	Value     []byte
	CreatedAt time.Time
	UpdatedAt time.Time
}
