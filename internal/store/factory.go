package store

import (
	"fmt"
	"log/slog"
)

// NewStore creates a ProductStore for the configured database type and
// ensures the schema exists (idempotent, important for in-memory SQLite).
func NewStore(databaseType, connectionString string) (ProductStore, error) {
	var (
		productStore ProductStore
		err          error
	)

	switch databaseType {
	case "sqlite":
		productStore, err = NewSQLiteStore(connectionString)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", databaseType)
	}

	slog.Info("initializing database schema (ensuring tables exist)")
	if err = productStore.CreateSchema(); err != nil {
		return nil, fmt.Errorf("failed to create database schema: %w", err)
	}

	return productStore, nil
}
