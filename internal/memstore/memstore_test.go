package memstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"cashflow/internal/core"
	"cashflow/internal/store"
)

func newTx(desc string, cat core.Category, typ core.TransactionType, cents int64) core.Transaction {
	return core.Transaction{
		UserID:      1,
		Description: desc,
		Category:    cat,
		Type:        typ,
		Amount:      core.Money{Cents: cents},
	}
}

func TestAddAssignsIDAndTimestamp(t *testing.T) {
	s := New()
	ctx := context.Background()

	id, err := s.Add(ctx, newTx("Gaji", core.Cash, core.Income, 100))
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if id != 1 {
		t.Fatalf("first id should be 1, got %d", id)
	}

	got, err := s.Get(ctx, 1, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Timestamp.IsZero() {
		t.Fatalf("timestamp not assigned")
	}

	id2, _ := s.Add(ctx, newTx("Listrik", core.Cash, core.Expenditure, 50))
	if id2 != 2 {
		t.Fatalf("ids must be monotonic, got %d", id2)
	}
}

func TestAddRejectsInvalid(t *testing.T) {
	s := New()
	ctx := context.Background()

	cases := []core.Transaction{
		newTx("", core.Cash, core.Income, 100),
		newTx("x", core.Cash, core.Income, 0),
		newTx("x", core.Cash, core.Income, -5),
		newTx("x", "credit", core.Income, 100),
		newTx("x", core.Cash, "swap", 100),
	}
	for i, tx := range cases {
		if _, err := s.Add(ctx, tx); err == nil {
			t.Fatalf("case %d: invalid transaction accepted", i)
		}
	}

	// The ledger must be unchanged after rejections.
	all, err := s.List(ctx, 1, core.Filter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 0 {
		t.Fatalf("rejected adds leaked into the store: %d rows", len(all))
	}
}

func TestUpdatePreservesTimestamp(t *testing.T) {
	s := New()
	ctx := context.Background()

	id, _ := s.Add(ctx, newTx("Gaji", core.Cash, core.Income, 100))
	before, _ := s.Get(ctx, 1, id)

	upd := newTx("Gaji Revisi", core.NonCash, core.Income, 200)
	upd.ID = id
	upd.Timestamp = time.Now().Add(48 * time.Hour) // must be ignored
	if err := s.Update(ctx, upd); err != nil {
		t.Fatalf("update: %v", err)
	}

	after, _ := s.Get(ctx, 1, id)
	if after.Description != "Gaji Revisi" || after.Category != core.NonCash || after.Amount.Cents != 200 {
		t.Fatalf("fields not updated: %+v", after)
	}
	if !after.Timestamp.Equal(before.Timestamp) {
		t.Fatalf("update must preserve the original timestamp")
	}
}

func TestNotFound(t *testing.T) {
	s := New()
	ctx := context.Background()

	if _, err := s.Get(ctx, 1, 42); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("get: expected ErrNotFound, got %v", err)
	}
	if err := s.Delete(ctx, 1, 42); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("delete: expected ErrNotFound, got %v", err)
	}
	missing := newTx("x", core.Cash, core.Income, 1)
	missing.ID = 42
	if err := s.Update(ctx, missing); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("update: expected ErrNotFound, got %v", err)
	}
}

func TestDeleteAndClear(t *testing.T) {
	s := New()
	ctx := context.Background()

	id1, _ := s.Add(ctx, newTx("a", core.Cash, core.Income, 1))
	id2, _ := s.Add(ctx, newTx("b", core.NonCash, core.Income, 2))

	if err := s.Delete(ctx, 1, id1); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.Get(ctx, 1, id1); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("row survived delete")
	}
	if _, err := s.Get(ctx, 1, id2); err != nil {
		t.Fatalf("wrong row deleted: %v", err)
	}

	if err := s.Clear(ctx, 1); err != nil {
		t.Fatalf("clear: %v", err)
	}
	all, _ := s.List(ctx, 1, core.Filter{})
	if len(all) != 0 {
		t.Fatalf("clear left %d rows", len(all))
	}
}

func TestUserIsolation(t *testing.T) {
	s := New()
	ctx := context.Background()

	mine, _ := s.Add(ctx, newTx("gaji", core.Cash, core.Income, 100))
	other := newTx("tagihan", core.Cash, core.Expenditure, 50)
	other.UserID = 2
	theirs, _ := s.Add(ctx, other)

	// Reads never cross accounts.
	if _, err := s.Get(ctx, 1, theirs); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("get crossed accounts: %v", err)
	}
	all, _ := s.List(ctx, 1, core.Filter{})
	if len(all) != 1 || all[0].ID != mine {
		t.Fatalf("list crossed accounts: %v", all)
	}

	// Neither do writes.
	if err := s.Delete(ctx, 1, theirs); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("delete crossed accounts: %v", err)
	}
	steal := newTx("overwrite", core.Cash, core.Income, 1)
	steal.ID = theirs
	if err := s.Update(ctx, steal); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("update crossed accounts: %v", err)
	}

	// Clear removes only the caller's rows.
	if err := s.Clear(ctx, 1); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, err := s.Get(ctx, 2, theirs); err != nil {
		t.Fatalf("clear wiped another account's row: %v", err)
	}
}

func TestListOrderAndFilter(t *testing.T) {
	s := New()
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s.Seed([]core.Transaction{
		{ID: 1, UserID: 1, Description: "oldest", Category: core.Cash, Type: core.Income, Amount: core.Money{Cents: 1}, Timestamp: base},
		{ID: 2, UserID: 1, Description: "middle", Category: core.NonCash, Type: core.Income, Amount: core.Money{Cents: 2}, Timestamp: base.AddDate(0, 0, 1)},
		{ID: 3, UserID: 1, Description: "newest", Category: core.Cash, Type: core.Expenditure, Amount: core.Money{Cents: 3}, Timestamp: base.AddDate(0, 0, 2)},
	})

	all, err := s.List(ctx, 1, core.Filter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if all[0].Description != "newest" || all[2].Description != "oldest" {
		t.Fatalf("expected newest-first order, got %v", []string{all[0].Description, all[1].Description, all[2].Description})
	}

	cashOnly, _ := s.List(ctx, 1, core.Filter{Category: core.Cash})
	if len(cashOnly) != 2 {
		t.Fatalf("category filter: got %d rows", len(cashOnly))
	}

	recent, _ := s.Recent(ctx, 1, 2)
	if len(recent) != 2 || recent[0].Description != "newest" {
		t.Fatalf("recent: %v", recent)
	}
}

func TestUserStore(t *testing.T) {
	s := New()
	ctx := context.Background()

	id, err := s.CreateUser(ctx, store.User{Username: "admin", Password: "hash"})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if id == 0 {
		t.Fatalf("user id not assigned")
	}

	if _, err := s.CreateUser(ctx, store.User{Username: "admin"}); !errors.Is(err, store.ErrUsernameTaken) {
		t.Fatalf("duplicate username: expected ErrUsernameTaken, got %v", err)
	}

	u, err := s.UserByUsername(ctx, "admin")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if u.Password != "hash" {
		t.Fatalf("stored hash lost")
	}

	if _, err := s.UserByUsername(ctx, "ghost"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
