package repo_interfaces

import (
	"context"

	"github.com/api-sage/account-transaction-processor/src/internal/domain"
)

// AccountStore owns account records and the ledger. Balance mutation happens
// only through a StoreTx obtained from LockAccounts.
type AccountStore interface {
	CreateAccount(ctx context.Context, account domain.Account) (domain.Account, error)
	GetAccount(ctx context.Context, id string) (domain.Account, error)

	// LockAccounts blocks until exclusive access to every listed row is held.
	// Callers must pass ids sorted by value so that concurrent transactions
	// sharing accounts request locks in the same relative order. Unknown ids
	// are simply absent from the returned snapshot.
	LockAccounts(ctx context.Context, ids []string) (StoreTx, error)

	ListTransactions(ctx context.Context, limit int) ([]domain.Transaction, error)
}

// StoreTx scopes one atomic unit of work: balance writes and the ledger entry
// become visible together at Commit, or not at all. Rollback must be safe to
// call after Commit so callers can defer it unconditionally.
type StoreTx interface {
	Accounts() map[string]domain.Account
	SaveBalance(ctx context.Context, account domain.Account) error
	AppendEntry(ctx context.Context, entry domain.Transaction) (domain.Transaction, error)
	Commit(ctx context.Context) error
	Rollback() error
}
