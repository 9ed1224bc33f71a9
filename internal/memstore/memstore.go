// Package memstore is the in-memory backend, the modern counterpart of the
// session-storage variant of the tracker. Data lives for the process
// lifetime only.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"cashflow/internal/core"
	"cashflow/internal/store"
)

type Store struct {
	mu     sync.Mutex
	nextID int64
	txs    []core.Transaction

	nextUserID int64
	users      map[string]store.User
}

func New() *Store {
	return &Store{
		nextID:     1,
		nextUserID: 1,
		users:      make(map[string]store.User),
	}
}

// Seed loads transactions verbatim, assigning ids where missing. Used by
// demo seeding and tests.
func (s *Store) Seed(txs []core.Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, tx := range txs {
		if tx.ID == 0 {
			tx.ID = s.nextID
		}
		if tx.ID >= s.nextID {
			s.nextID = tx.ID + 1
		}
		if tx.Timestamp.IsZero() {
			tx.Timestamp = time.Now()
		}
		s.txs = append(s.txs, tx)
	}
}

func (s *Store) Add(_ context.Context, tx core.Transaction) (int64, error) {
	if err := tx.Validate(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	tx.ID = s.nextID
	s.nextID++
	if tx.Timestamp.IsZero() {
		tx.Timestamp = time.Now()
	}
	s.txs = append(s.txs, tx)
	return tx.ID, nil
}

func (s *Store) Update(_ context.Context, tx core.Transaction) error {
	if err := tx.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.txs {
		if s.txs[i].ID == tx.ID && s.txs[i].UserID == tx.UserID {
			// id and original timestamp are preserved
			tx.Timestamp = s.txs[i].Timestamp
			s.txs[i] = tx
			return nil
		}
	}
	return core.ErrNotFound
}

func (s *Store) Delete(_ context.Context, userID, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.txs {
		if s.txs[i].ID == id && s.txs[i].UserID == userID {
			s.txs = append(s.txs[:i], s.txs[i+1:]...)
			return nil
		}
	}
	return core.ErrNotFound
}

func (s *Store) Clear(_ context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.txs[:0]
	for _, tx := range s.txs {
		if tx.UserID != userID {
			kept = append(kept, tx)
		}
	}
	s.txs = kept
	return nil
}

func (s *Store) Get(_ context.Context, userID, id int64) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, tx := range s.txs {
		if tx.ID == id && tx.UserID == userID {
			return tx, nil
		}
	}
	return core.Transaction{}, core.ErrNotFound
}

// List returns a filtered snapshot of the user's rows, newest first.
func (s *Store) List(_ context.Context, userID int64, f core.Filter) ([]core.Transaction, error) {
	s.mu.Lock()
	var snapshot []core.Transaction
	for _, tx := range s.txs {
		if tx.UserID == userID {
			snapshot = append(snapshot, tx)
		}
	}
	s.mu.Unlock()

	out := f.Apply(snapshot)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].ID > out[j].ID
		}
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out, nil
}

func (s *Store) Recent(ctx context.Context, userID int64, limit int) ([]core.Transaction, error) {
	all, err := s.List(ctx, userID, core.Filter{})
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (s *Store) CreateUser(_ context.Context, u store.User) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[u.Username]; exists {
		return 0, store.ErrUsernameTaken
	}
	u.ID = s.nextUserID
	s.nextUserID++
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}
	s.users[u.Username] = u
	return u.ID, nil
}

func (s *Store) UserByUsername(_ context.Context, username string) (store.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[username]
	if !ok {
		return store.User{}, core.ErrNotFound
	}
	return u, nil
}
