package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"cashflow/internal/core"
	"cashflow/internal/store"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()

	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "cashflow.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() {
		_ = repo.Close()
	})
	return repo
}

func testTx(userID int64, desc string, cat core.Category, typ core.TransactionType, cents int64) core.Transaction {
	return core.Transaction{
		UserID:      userID,
		Description: desc,
		Category:    cat,
		Type:        typ,
		Amount:      core.Money{Cents: cents},
		Timestamp:   time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestRepositoryAddAndGet(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	id, err := repo.Add(ctx, testTx(1, "Gaji bulanan", core.Cash, core.Income, 10_000_000_00))
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if id == 0 {
		t.Fatalf("id not assigned")
	}

	got, err := repo.Get(ctx, 1, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Description != "Gaji bulanan" || got.Category != core.Cash ||
		got.Type != core.Income || got.Amount.Cents != 10_000_000_00 || got.UserID != 1 {
		t.Fatalf("row round trip lost fields: %+v", got)
	}
	if got.Timestamp.IsZero() {
		t.Fatalf("created_at not persisted")
	}

	if _, err := repo.Get(ctx, 1, 999); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("unknown id: expected ErrNotFound, got %v", err)
	}
	// Another account cannot see the row; the unscoped fetch can.
	if _, err := repo.Get(ctx, 2, id); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("get crossed accounts: %v", err)
	}
	if _, err := repo.GetByID(ctx, id); err != nil {
		t.Fatalf("GetByID: %v", err)
	}
}

func TestRepositoryAddRejectsInvalid(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	bad := testTx(1, "", core.Cash, core.Income, 100)
	if _, err := repo.Add(ctx, bad); !errors.Is(err, core.ErrEmptyDescription) {
		t.Fatalf("expected ErrEmptyDescription, got %v", err)
	}

	all, err := repo.List(ctx, 1, core.Filter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 0 {
		t.Fatalf("rejected add leaked into the table")
	}
}

func TestRepositoryUpdate(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	id, err := repo.Add(ctx, testTx(1, "Listrik", core.NonCash, core.Expenditure, 2_000_000_00))
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	before, _ := repo.Get(ctx, 1, id)
	if err := repo.MarkSynced(ctx, id); err != nil {
		t.Fatalf("mark synced: %v", err)
	}

	upd := testTx(1, "Listrik dan air", core.NonCash, core.Expenditure, 2_500_000_00)
	upd.ID = id
	if err := repo.Update(ctx, upd); err != nil {
		t.Fatalf("update: %v", err)
	}

	after, _ := repo.Get(ctx, 1, id)
	if after.Description != "Listrik dan air" || after.Amount.Cents != 2_500_000_00 {
		t.Fatalf("fields not updated: %+v", after)
	}
	if !after.Timestamp.Equal(before.Timestamp) {
		t.Fatalf("update must preserve created_at")
	}

	// An updated row goes back to pending sync.
	pending, err := repo.GetPendingSync(ctx, 10)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != id {
		t.Fatalf("updated row not pending again: %v", pending)
	}

	upd.ID = 999
	if err := repo.Update(ctx, upd); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("unknown id: expected ErrNotFound, got %v", err)
	}
	upd.ID = id
	upd.UserID = 2
	if err := repo.Update(ctx, upd); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("update crossed accounts: %v", err)
	}
}

func TestRepositoryDeleteAndClearScoping(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	mine, _ := repo.Add(ctx, testTx(1, "Sewa kantor", core.Cash, core.Expenditure, 1_500_000_00))
	theirs, _ := repo.Add(ctx, testTx(2, "Transfer klien", core.NonCash, core.Income, 3_000_000_00))

	if err := repo.Delete(ctx, 1, theirs); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("delete crossed accounts: %v", err)
	}
	if err := repo.Delete(ctx, 1, mine); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := repo.Delete(ctx, 1, mine); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("second delete: expected ErrNotFound, got %v", err)
	}

	if err := repo.Clear(ctx, 1); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, err := repo.Get(ctx, 2, theirs); err != nil {
		t.Fatalf("clear wiped another account's row: %v", err)
	}
}

func TestRepositoryListAndRecent(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, desc := range []string{"oldest", "middle", "newest"} {
		tx := testTx(1, desc, core.Cash, core.Income, 100)
		tx.Timestamp = base.AddDate(0, 0, i)
		if _, err := repo.Add(ctx, tx); err != nil {
			t.Fatalf("add %s: %v", desc, err)
		}
	}
	other := testTx(2, "not mine", core.Cash, core.Income, 100)
	if _, err := repo.Add(ctx, other); err != nil {
		t.Fatalf("add other: %v", err)
	}

	all, err := repo.List(ctx, 1, core.Filter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("list crossed accounts: %d rows", len(all))
	}
	if all[0].Description != "newest" || all[2].Description != "oldest" {
		t.Fatalf("expected newest-first order: %v", []string{all[0].Description, all[1].Description, all[2].Description})
	}

	filtered, err := repo.List(ctx, 1, core.Filter{Search: "MIDDLE"})
	if err != nil {
		t.Fatalf("filtered list: %v", err)
	}
	if len(filtered) != 1 || filtered[0].Description != "middle" {
		t.Fatalf("caseless search: %v", filtered)
	}

	recent, err := repo.Recent(ctx, 1, 2)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(recent) != 2 || recent[0].Description != "newest" {
		t.Fatalf("recent: %v", recent)
	}
}

func TestRepositoryPendingSyncStateMachine(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	id1, _ := repo.Add(ctx, testTx(1, "a", core.Cash, core.Income, 1))
	id2, _ := repo.Add(ctx, testTx(1, "b", core.Cash, core.Income, 2))

	pending, err := repo.GetPendingSync(ctx, 10)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("fresh rows should be pending, got %d", len(pending))
	}

	if err := repo.MarkSynced(ctx, id1); err != nil {
		t.Fatalf("mark synced: %v", err)
	}
	if err := repo.MarkSyncError(ctx, id2); err != nil {
		t.Fatalf("mark sync error: %v", err)
	}

	// Synced rows and errored rows both leave the sweep queue.
	pending, err = repo.GetPendingSync(ctx, 10)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("sweep queue should be empty, got %v", pending)
	}
}

func TestRepositoryUserStore(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	id, err := repo.CreateUser(ctx, store.User{Username: "admin", Password: "hash", Email: "a@b.c"})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if id == 0 {
		t.Fatalf("user id not assigned")
	}

	if _, err := repo.CreateUser(ctx, store.User{Username: "admin", Password: "other"}); !errors.Is(err, store.ErrUsernameTaken) {
		t.Fatalf("duplicate username: expected ErrUsernameTaken, got %v", err)
	}

	u, err := repo.UserByUsername(ctx, "admin")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if u.Password != "hash" || u.Email != "a@b.c" {
		t.Fatalf("user round trip lost fields: %+v", u)
	}

	if _, err := repo.UserByUsername(ctx, "ghost"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
