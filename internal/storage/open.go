package storage

import (
	"context"
	"fmt"
)

const (
	DriverMemory   = "memory"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
)

// Open builds the Store named by driver.
func Open(ctx context.Context, driver, redisURL, databaseURL string) (Store, error) {
	switch driver {
	case DriverMemory, "":
		return NewMemoryStore(), nil
	case DriverRedis:
		return NewRedisStore(ctx, redisURL)
	case DriverPostgres:
		if databaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL required for postgres storage")
		}
		db, err := OpenPostgres(databaseURL)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		return NewGormStore(db), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", driver)
	}
}
