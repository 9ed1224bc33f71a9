// Package store declares the persistence contracts the application is
// written against. Every backend (sqlite, gorm, postgres, memory) satisfies
// them; the aggregator itself only ever sees plain []core.Transaction.
package store

import (
	"context"
	"errors"
	"time"

	"cashflow/internal/core"
)

// ErrUsernameTaken is returned by CreateUser for a duplicate username.
var ErrUsernameTaken = errors.New("username already taken")

type (
	// TransactionReader provides snapshot reads over one user's ledger.
	// Every read is scoped by userID; no query crosses accounts.
	TransactionReader interface {
		// List returns the user's transactions matching the filter, newest first.
		List(ctx context.Context, userID int64, f core.Filter) ([]core.Transaction, error)
		// Get returns the user's transaction or core.ErrNotFound.
		Get(ctx context.Context, userID, id int64) (core.Transaction, error)
		// Recent returns up to limit of the user's transactions, newest first.
		Recent(ctx context.Context, userID int64, limit int) ([]core.Transaction, error)
	}

	// TransactionWriter mutates one user's ledger. Add assigns id and
	// timestamp and persists tx.UserID; Update preserves both and is scoped
	// by tx.UserID; Delete and Update return core.ErrNotFound for ids the
	// user does not own; Clear removes only the user's rows.
	TransactionWriter interface {
		Add(ctx context.Context, tx core.Transaction) (int64, error)
		Update(ctx context.Context, tx core.Transaction) error
		Delete(ctx context.Context, userID, id int64) error
		Clear(ctx context.Context, userID int64) error
	}

	// TransactionStore is the full read/write contract.
	TransactionStore interface {
		TransactionReader
		TransactionWriter
	}

	// User is an authenticated account. Password holds the bcrypt hash,
	// never the plain text.
	User struct {
		ID        int64
		Username  string
		Email     string
		FullName  string
		Password  string
		CreatedAt time.Time
	}

	// UserStore persists accounts for login.
	UserStore interface {
		CreateUser(ctx context.Context, u User) (int64, error)
		// UserByUsername returns the account or core.ErrNotFound.
		UserByUsername(ctx context.Context, username string) (User, error)
	}
)
