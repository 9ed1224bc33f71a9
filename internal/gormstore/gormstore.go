// Package gormstore is the ORM-mapped persistence backend, kept alongside
// the plain-SQL sqlite backend the way the original tracker shipped both a
// raw-SQL and an ORM variant of the same table.
package gormstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"cashflow/internal/core"
	"cashflow/internal/store"
)

// Transaction is the ORM row mapped to the transactions table.
type Transaction struct {
	ID          int64     `gorm:"primaryKey;autoIncrement"`
	UserID      int64     `gorm:"index;not null"`
	Description string    `gorm:"size:200;not null"`
	Category    string    `gorm:"size:16;index;not null"`
	Type        string    `gorm:"column:transaction_type;size:16;not null"`
	AmountCents int64     `gorm:"not null"`
	CreatedAt   time.Time `gorm:"index"`
}

func (Transaction) TableName() string { return "transactions" }

// User is the ORM row for login accounts.
type User struct {
	ID        int64  `gorm:"primaryKey;autoIncrement"`
	Username  string `gorm:"uniqueIndex;size:64;not null"`
	Email     string `gorm:"size:128"`
	FullName  string `gorm:"size:128"`
	Password  string `gorm:"size:128;not null"`
	CreatedAt time.Time
}

type Database struct {
	db *gorm.DB
}

func NewDatabase(dbPath string) (*Database, error) {
	// TranslateError maps driver constraint errors onto gorm's sentinels,
	// making the ErrDuplicatedKey check below portable across drivers.
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.AutoMigrate(&Transaction{}, &User{}); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	return &Database{db: db}, nil
}

func (d *Database) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (d *Database) Add(ctx context.Context, tx core.Transaction) (int64, error) {
	if err := tx.Validate(); err != nil {
		return 0, err
	}
	row := toRow(tx)
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	if err := d.db.WithContext(ctx).Create(&row).Error; err != nil {
		return 0, fmt.Errorf("failed to save transaction: %w", err)
	}
	return row.ID, nil
}

func (d *Database) Update(ctx context.Context, tx core.Transaction) error {
	if err := tx.Validate(); err != nil {
		return err
	}
	res := d.db.WithContext(ctx).Model(&Transaction{}).
		Where("id = ? AND user_id = ?", tx.ID, tx.UserID).
		Updates(map[string]any{
			"description":      tx.Description,
			"category":         string(tx.Category),
			"transaction_type": string(tx.Type),
			"amount_cents":     tx.Amount.Cents,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to update transaction: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (d *Database) Delete(ctx context.Context, userID, id int64) error {
	res := d.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&Transaction{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete transaction: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (d *Database) Clear(ctx context.Context, userID int64) error {
	if err := d.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&Transaction{}).Error; err != nil {
		return fmt.Errorf("failed to clear transactions: %w", err)
	}
	return nil
}

func (d *Database) Get(ctx context.Context, userID, id int64) (core.Transaction, error) {
	var row Transaction
	err := d.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return core.Transaction{}, core.ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("failed to load transaction: %w", err)
	}
	return fromRow(row), nil
}

func (d *Database) List(ctx context.Context, userID int64, f core.Filter) ([]core.Transaction, error) {
	var rows []Transaction
	err := d.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").Order("id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}

	out := make([]core.Transaction, 0, len(rows))
	for _, row := range rows {
		out = append(out, fromRow(row))
	}
	return f.Apply(out), nil
}

func (d *Database) Recent(ctx context.Context, userID int64, limit int) ([]core.Transaction, error) {
	var rows []Transaction
	err := d.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").Order("id DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load recent transactions: %w", err)
	}

	out := make([]core.Transaction, 0, len(rows))
	for _, row := range rows {
		out = append(out, fromRow(row))
	}
	return out, nil
}

func (d *Database) CreateUser(ctx context.Context, u store.User) (int64, error) {
	row := User{
		Username:  u.Username,
		Email:     u.Email,
		FullName:  u.FullName,
		Password:  u.Password,
		CreatedAt: u.CreatedAt,
	}
	if err := d.db.WithContext(ctx).Create(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return 0, store.ErrUsernameTaken
		}
		return 0, fmt.Errorf("failed to create user: %w", err)
	}
	return row.ID, nil
}

func (d *Database) UserByUsername(ctx context.Context, username string) (store.User, error) {
	var row User
	err := d.db.WithContext(ctx).Where("username = ?", username).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return store.User{}, core.ErrNotFound
	}
	if err != nil {
		return store.User{}, fmt.Errorf("failed to load user: %w", err)
	}
	return store.User{
		ID:        row.ID,
		Username:  row.Username,
		Email:     row.Email,
		FullName:  row.FullName,
		Password:  row.Password,
		CreatedAt: row.CreatedAt,
	}, nil
}

func toRow(tx core.Transaction) Transaction {
	return Transaction{
		ID:          tx.ID,
		UserID:      tx.UserID,
		Description: tx.Description,
		Category:    string(tx.Category),
		Type:        string(tx.Type),
		AmountCents: tx.Amount.Cents,
		CreatedAt:   tx.Timestamp,
	}
}

func fromRow(row Transaction) core.Transaction {
	return core.Transaction{
		ID:          row.ID,
		UserID:      row.UserID,
		Description: row.Description,
		Category:    core.Category(row.Category),
		Type:        core.TransactionType(row.Type),
		Amount:      core.Money{Cents: row.AmountCents},
		Timestamp:   row.CreatedAt,
	}
}
