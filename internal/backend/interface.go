package backend

import (
	"context"

	"cashflow/internal/store"
)

// Backend bundles everything the HTTP layer needs from persistence.
type Backend interface {
	store.TransactionStore
	store.UserStore
}

// CleanupFunc releases backend resources on shutdown.
type CleanupFunc func() error

// Result contains the backend instance and optional cleanup function.
type Result struct {
	Backend Backend
	Cleanup CleanupFunc
}

// Factory creates backends based on configuration.
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*Result, error)
}

// Config holds configuration for backend creation.
type Config struct {
	Type Type

	// SQLite specific (shared with the gorm backend)
	SQLiteDBPath string

	// Postgres specific
	PostgresURL string

	// Memory backend specific
	SeedDemoData bool
}

// Type represents the kind of persistence backing the ledger.
type Type string

const (
	MemoryBackend   Type = "memory"
	SQLiteBackend   Type = "sqlite"
	GormBackend     Type = "gorm"
	PostgresBackend Type = "postgres"
)

// String implements fmt.Stringer
func (t Type) String() string {
	return string(t)
}

// IsValid returns true if the backend type is valid
func (t Type) IsValid() bool {
	switch t {
	case MemoryBackend, SQLiteBackend, GormBackend, PostgresBackend:
		return true
	default:
		return false
	}
}

// Types returns all valid backend types.
func Types() []Type {
	return []Type{MemoryBackend, SQLiteBackend, GormBackend, PostgresBackend}
}
