package store

import (
	"context"
	"fmt"

	mydb "github.com/passiotour/tourpricing/internal/db"
)

// NewStore creates a new store based on the given store type.
// Supported types: "memory", "postgres". The postgres store is migrated
// before it is returned.
func NewStore(ctx context.Context, storeType, dbDSN string) (Store, error) {
	switch storeType {
	case "memory":
		return NewMemoryStore(), nil
	case "postgres":
		pool, err := mydb.Open(ctx, dbDSN)
		if err != nil {
			return nil, fmt.Errorf("failed to open postgres store: %w", err)
		}
		return NewPostgresStore(pool), nil
	default:
		return nil, fmt.Errorf("unsupported store type: %s", storeType)
	}
}
