package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	Cash    Category = "cash"
	NonCash Category = "non_cash"
)

const (
	Income      TransactionType = "income"
	Expenditure TransactionType = "expenditure"
)

type (
	// Category is the account bucket a transaction belongs to.
	Category string

	// TransactionType is the sign of a transaction's effect on its bucket.
	TransactionType string

	Money struct {
		Cents int64
	}

	// Transaction is a single ledger entry. ID and Timestamp are assigned
	// by the storage backend on insert and preserved across updates.
	// UserID scopes the row to the account that created it.
	Transaction struct {
		ID          int64
		UserID      int64
		Description string
		Category    Category
		Type        TransactionType
		Amount      Money
		Timestamp   time.Time
	}
)

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrEmptyDescription = errors.New("empty description")
	ErrInvalidCategory  = errors.New("invalid category")
	ErrInvalidType      = errors.New("invalid transaction type")

	ErrNotFound = errors.New("transaction not found")
)

// DataIntegrityError reports a stored row that fails invariants the write
// path should have enforced. The aggregator fails the whole computation
// rather than coercing the row.
type DataIntegrityError struct {
	ID     int64
	Field  string
	Reason error
}

func (e *DataIntegrityError) Error() string {
	return fmt.Sprintf("data integrity: transaction %d field %s: %v", e.ID, e.Field, e.Reason)
}

func (e *DataIntegrityError) Unwrap() error { return e.Reason }

func (c Category) Valid() bool {
	return c == Cash || c == NonCash
}

func (t TransactionType) Valid() bool {
	return t == Income || t == Expenditure
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (tx Transaction) Validate() error {
	if len(strings.TrimSpace(tx.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(tx.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	if err := tx.Amount.Validate(); err != nil {
		return err
	}
	if !tx.Category.Valid() {
		return ErrInvalidCategory
	}
	if !tx.Type.Valid() {
		return ErrInvalidType
	}
	return nil
}

// Signed returns the amount with the sign implied by the transaction type:
// income adds to its bucket, expenditure subtracts.
func (tx Transaction) Signed() int64 {
	if tx.Type == Expenditure {
		return -tx.Amount.Cents
	}
	return tx.Amount.Cents
}
