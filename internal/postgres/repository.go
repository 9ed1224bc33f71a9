// Package postgres is the Postgres persistence backend. Filtering is
// pushed down with squirrel-built predicates; semantics stay aligned with
// core.Filter (ILIKE gives the documented caseless substring match).
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"cashflow/internal/core"
	"cashflow/internal/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS transactions (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT NOT NULL,
    description TEXT NOT NULL,
    category TEXT NOT NULL CHECK (category IN ('cash', 'non_cash')),
    transaction_type TEXT NOT NULL CHECK (transaction_type IN ('income', 'expenditure')),
    amount_cents BIGINT NOT NULL CHECK (amount_cents > 0),
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_transactions_user_id ON transactions (user_id);
CREATE INDEX IF NOT EXISTS idx_transactions_created_at ON transactions (created_at);

CREATE TABLE IF NOT EXISTS users (
    id BIGSERIAL PRIMARY KEY,
    username TEXT NOT NULL UNIQUE,
    email TEXT NOT NULL DEFAULT '',
    full_name TEXT NOT NULL DEFAULT '',
    password TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(ctx context.Context, url string) (*Repository, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return &Repository{db: pool}, nil
}

func (r *Repository) Close() error {
	r.db.Close()
	return nil
}

func (r *Repository) Add(ctx context.Context, tx core.Transaction) (int64, error) {
	if err := tx.Validate(); err != nil {
		return 0, err
	}
	ts := tx.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	query := psql.Insert("transactions").
		Columns("user_id", "description", "category", "transaction_type", "amount_cents", "created_at").
		Values(tx.UserID, tx.Description, string(tx.Category), string(tx.Type), tx.Amount.Cents, ts).
		Suffix("RETURNING id")

	sql, args, err := query.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build insert: %w", err)
	}

	var id int64
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&id); err != nil {
		return 0, fmt.Errorf("insert transaction: %w", err)
	}
	return id, nil
}

func (r *Repository) Update(ctx context.Context, tx core.Transaction) error {
	if err := tx.Validate(); err != nil {
		return err
	}

	query := psql.Update("transactions").
		Set("description", tx.Description).
		Set("category", string(tx.Category)).
		Set("transaction_type", string(tx.Type)).
		Set("amount_cents", tx.Amount.Cents).
		Where(sq.Eq{"id": tx.ID, "user_id": tx.UserID})

	sql, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *Repository) Delete(ctx context.Context, userID, id int64) error {
	sql, args, err := psql.Delete("transactions").Where(sq.Eq{"id": id, "user_id": userID}).ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}
	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *Repository) Clear(ctx context.Context, userID int64) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM transactions WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("clear transactions: %w", err)
	}
	return nil
}

func (r *Repository) Get(ctx context.Context, userID, id int64) (core.Transaction, error) {
	sql, args, err := selectTransactions().Where(sq.Eq{"id": id, "user_id": userID}).ToSql()
	if err != nil {
		return core.Transaction{}, fmt.Errorf("build select: %w", err)
	}

	tx, err := scanOne(r.db.QueryRow(ctx, sql, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return core.Transaction{}, core.ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return tx, nil
}

func (r *Repository) List(ctx context.Context, userID int64, f core.Filter) ([]core.Transaction, error) {
	query := selectTransactions().
		Where(sq.Eq{"user_id": userID}).
		OrderBy("created_at DESC", "id DESC")

	if f.Category != "" && string(f.Category) != "all" {
		query = query.Where(sq.Eq{"category": string(f.Category)})
	}
	if f.Type != "" && string(f.Type) != "all" {
		query = query.Where(sq.Eq{"transaction_type": string(f.Type)})
	}
	if f.Search != "" {
		query = query.Where(sq.ILike{"description": "%" + f.Search + "%"})
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list: %w", err)
	}
	return r.queryMany(ctx, sql, args)
}

func (r *Repository) Recent(ctx context.Context, userID int64, limit int) ([]core.Transaction, error) {
	sql, args, err := selectTransactions().
		Where(sq.Eq{"user_id": userID}).
		OrderBy("created_at DESC", "id DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build recent: %w", err)
	}
	return r.queryMany(ctx, sql, args)
}

func (r *Repository) queryMany(ctx context.Context, sql string, args []any) ([]core.Transaction, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		tx, err := scanOne(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

func (r *Repository) CreateUser(ctx context.Context, u store.User) (int64, error) {
	query := psql.Insert("users").
		Columns("username", "email", "full_name", "password").
		Values(u.Username, u.Email, u.FullName, u.Password).
		Suffix("ON CONFLICT (username) DO NOTHING RETURNING id")

	sql, args, err := query.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build insert user: %w", err)
	}

	var id int64
	err = r.db.QueryRow(ctx, sql, args...).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, store.ErrUsernameTaken
	}
	if err != nil {
		return 0, fmt.Errorf("create user: %w", err)
	}
	return id, nil
}

func (r *Repository) UserByUsername(ctx context.Context, username string) (store.User, error) {
	sql, args, err := psql.Select("id", "username", "email", "full_name", "password", "created_at").
		From("users").
		Where(sq.Eq{"username": username}).
		ToSql()
	if err != nil {
		return store.User{}, fmt.Errorf("build select user: %w", err)
	}

	var u store.User
	err = r.db.QueryRow(ctx, sql, args...).
		Scan(&u.ID, &u.Username, &u.Email, &u.FullName, &u.Password, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return store.User{}, core.ErrNotFound
	}
	if err != nil {
		return store.User{}, fmt.Errorf("user by username: %w", err)
	}
	return u, nil
}

func selectTransactions() sq.SelectBuilder {
	return psql.Select("id", "user_id", "description", "category", "transaction_type", "amount_cents", "created_at").
		From("transactions")
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOne(row rowScanner) (core.Transaction, error) {
	var (
		tx       core.Transaction
		category string
		txType   string
	)
	if err := row.Scan(&tx.ID, &tx.UserID, &tx.Description, &category, &txType, &tx.Amount.Cents, &tx.Timestamp); err != nil {
		return core.Transaction{}, err
	}
	tx.Category = core.Category(category)
	tx.Type = core.TransactionType(txType)
	return tx, nil
}
