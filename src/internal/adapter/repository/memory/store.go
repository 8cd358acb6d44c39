// Package memory provides an in-memory AccountStore. It mirrors the postgres
// implementation's locking contract with per-account mutexes acquired in the
// caller's sorted order, and is the store the test suite injects.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/api-sage/account-transaction-processor/src/internal/adapter/repository/repo_interfaces"
	"github.com/api-sage/account-transaction-processor/src/internal/domain"
	"github.com/google/uuid"
)

type accountSlot struct {
	mu      sync.Mutex
	account domain.Account
}

type Store struct {
	mu      sync.Mutex
	slots   map[string]*accountSlot
	entries []domain.Transaction
}

func NewStore() *Store {
	return &Store{
		slots: make(map[string]*accountSlot),
	}
}

var _ repo_interfaces.AccountStore = (*Store)(nil)

func (s *Store) CreateAccount(ctx context.Context, account domain.Account) (domain.Account, error) {
	now := time.Now().UTC()
	account.CreatedAt = now
	account.UpdatedAt = now

	s.mu.Lock()
	defer s.mu.Unlock()

	s.slots[account.ID] = &accountSlot{account: account}
	return account, nil
}

func (s *Store) GetAccount(ctx context.Context, id string) (domain.Account, error) {
	s.mu.Lock()
	slot, ok := s.slots[id]
	s.mu.Unlock()

	if !ok {
		return domain.Account{}, domain.ErrAccountNotFound
	}

	slot.mu.Lock()
	defer slot.mu.Unlock()
	return slot.account, nil
}

// LockAccounts acquires each account's mutex in the order the ids arrive.
// Callers sort ids first, which keeps overlapping transactions from forming a
// wait cycle. Unknown ids are skipped rather than failed so the engine can
// report them as not found.
func (s *Store) LockAccounts(ctx context.Context, ids []string) (repo_interfaces.StoreTx, error) {
	locked := make([]*accountSlot, 0, len(ids))
	accounts := make(map[string]domain.Account, len(ids))

	for _, id := range ids {
		s.mu.Lock()
		slot, ok := s.slots[id]
		s.mu.Unlock()
		if !ok {
			continue
		}

		slot.mu.Lock()
		locked = append(locked, slot)
		accounts[id] = slot.account
	}

	return &memTx{
		store:    s,
		locked:   locked,
		accounts: accounts,
		staged:   make(map[string]domain.Account),
	}, nil
}

func (s *Store) ListTransactions(ctx context.Context, limit int) ([]domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := make([]domain.Transaction, 0, limit)
	for i := len(s.entries) - 1; i >= 0 && len(entries) < limit; i-- {
		entries = append(entries, s.entries[i])
	}
	return entries, nil
}

// LedgerSize reports the number of committed ledger entries.
func (s *Store) LedgerSize() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

type memTx struct {
	store    *Store
	locked   []*accountSlot
	accounts map[string]domain.Account
	staged   map[string]domain.Account
	pending  []domain.Transaction
	done     bool
}

func (t *memTx) Accounts() map[string]domain.Account {
	return t.accounts
}

func (t *memTx) SaveBalance(ctx context.Context, account domain.Account) error {
	if _, ok := t.accounts[account.ID]; !ok {
		return domain.ErrAccountNotFound
	}
	t.staged[account.ID] = account
	return nil
}

func (t *memTx) AppendEntry(ctx context.Context, entry domain.Transaction) (domain.Transaction, error) {
	entry.ID = uuid.NewString()
	entry.CreatedAt = time.Now().UTC()
	t.pending = append(t.pending, entry)
	return entry, nil
}

func (t *memTx) Commit(ctx context.Context) error {
	if t.done {
		return nil
	}

	now := time.Now().UTC()
	for _, slot := range t.locked {
		if staged, ok := t.staged[slot.account.ID]; ok {
			staged.UpdatedAt = now
			slot.account = staged
		}
	}

	t.store.mu.Lock()
	t.store.entries = append(t.store.entries, t.pending...)
	t.store.mu.Unlock()

	t.release()
	return nil
}

func (t *memTx) Rollback() error {
	if t.done {
		return nil
	}
	t.release()
	return nil
}

func (t *memTx) release() {
	t.done = true
	// Unlock in reverse acquisition order.
	for i := len(t.locked) - 1; i >= 0; i-- {
		t.locked[i].mu.Unlock()
	}
}
