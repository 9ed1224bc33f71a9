package backend

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"cashflow/internal/core"
	"cashflow/internal/gormstore"
	"cashflow/internal/memstore"
	"cashflow/internal/postgres"
	"cashflow/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger,
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*Result, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case MemoryBackend:
		return f.createMemoryBackend(config)
	case SQLiteBackend:
		return f.createSQLiteBackend(config)
	case GormBackend:
		return f.createGormBackend(config)
	case PostgresBackend:
		return f.createPostgresBackend(ctx, config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createMemoryBackend(config Config) (*Result, error) {
	st := memstore.New()
	if config.SeedDemoData {
		st.Seed(demoTransactions())
	}

	f.logger.Info("Initialized memory backend", "seeded", config.SeedDemoData)

	return &Result{
		Backend: st,
		Cleanup: nil, // nothing to release
	}, nil
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (*Result, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)

	return &Result{
		Backend: repo,
		Cleanup: repo.Close,
	}, nil
}

func (f *DefaultFactory) createGormBackend(config Config) (*Result, error) {
	db, err := gormstore.NewDatabase(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize gorm backend: %w", err)
	}

	f.logger.Info("Initialized gorm backend", "db_path", config.SQLiteDBPath)

	return &Result{
		Backend: db,
		Cleanup: db.Close,
	}, nil
}

func (f *DefaultFactory) createPostgresBackend(ctx context.Context, config Config) (*Result, error) {
	repo, err := postgres.NewRepository(ctx, config.PostgresURL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize postgres backend: %w", err)
	}

	f.logger.Info("Initialized postgres backend")

	return &Result{
		Backend: repo,
		Cleanup: repo.Close,
	}, nil
}

// demoTransactions returns the starter ledger the memory backend ships with,
// so a fresh install has something to show on the dashboard. The rows belong
// to the seeded admin account, which gets id 1 as the first user created.
func demoTransactions() []core.Transaction {
	now := time.Now()
	mk := func(daysAgo int, desc string, cat core.Category, typ core.TransactionType, cents int64) core.Transaction {
		return core.Transaction{
			UserID:      1,
			Description: desc,
			Category:    cat,
			Type:        typ,
			Amount:      core.Money{Cents: cents},
			Timestamp:   now.AddDate(0, 0, -daysAgo),
		}
	}

	return []core.Transaction{
		mk(5, "Gaji bulanan", core.Cash, core.Income, 10_000_000_00),
		mk(4, "Belanja bulanan", core.Cash, core.Expenditure, 500_000_00),
		mk(3, "Bayar listrik", core.NonCash, core.Expenditure, 2_000_000_00),
		mk(2, "Transfer dari klien", core.NonCash, core.Income, 3_000_000_00),
		mk(1, "Sewa kantor", core.Cash, core.Expenditure, 1_500_000_00),
	}
}
