package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/api-sage/account-transaction-processor/src/internal/adapter/repository/repo_interfaces"
	"github.com/api-sage/account-transaction-processor/src/internal/domain"
	"github.com/api-sage/account-transaction-processor/src/internal/logger"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

type AccountStore struct {
	db *sql.DB
}

func NewAccountStore(db *sql.DB) *AccountStore {
	return &AccountStore{db: db}
}

var _ repo_interfaces.AccountStore = (*AccountStore)(nil)

func (s *AccountStore) CreateAccount(ctx context.Context, account domain.Account) (domain.Account, error) {
	logger.Info("account store create", logger.Fields{
		"accountId":   account.ID,
		"accountType": account.AccountType,
	})

	const query = `
INSERT INTO accounts (id, account_type, balance, is_active)
VALUES ($1, $2, $3, $4)
RETURNING created_at, updated_at`

	var createdAt time.Time
	var updatedAt time.Time

	if err := s.db.QueryRowContext(
		ctx,
		query,
		account.ID,
		account.AccountType,
		account.Balance.StringFixed(2),
		account.IsActive,
	).Scan(&createdAt, &updatedAt); err != nil {
		logger.Error("account store create failed", err, logger.Fields{
			"accountId": account.ID,
		})
		return domain.Account{}, fmt.Errorf("create account: %w", err)
	}

	account.CreatedAt = createdAt
	account.UpdatedAt = updatedAt

	logger.Info("account store create success", logger.Fields{
		"accountId": account.ID,
	})

	return account, nil
}

func (s *AccountStore) GetAccount(ctx context.Context, id string) (domain.Account, error) {
	logger.Info("account store get", logger.Fields{
		"accountId": id,
	})

	const query = `
SELECT id, account_type, balance, is_active, created_at, updated_at
FROM accounts
WHERE id = $1`

	account, err := scanAccount(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			logger.Info("account store record not found", logger.Fields{
				"accountId": id,
			})
			return domain.Account{}, domain.ErrAccountNotFound
		}
		logger.Error("account store get failed", err, logger.Fields{
			"accountId": id,
		})
		return domain.Account{}, fmt.Errorf("get account: %w", err)
	}

	return account, nil
}

// LockAccounts opens a database transaction and takes row locks on every
// listed account with SELECT ... FOR UPDATE. The ORDER BY id matches the
// caller's sorted lock order, so overlapping transactions cannot form a wait
// cycle. Unknown ids produce no row and are left out of the snapshot.
func (s *AccountStore) LockAccounts(ctx context.Context, ids []string) (repo_interfaces.StoreTx, error) {
	logger.Info("account store lock accounts", logger.Fields{
		"accountIds": ids,
	})

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		logger.Error("account store begin tx failed", err, nil)
		return nil, fmt.Errorf("begin account transaction: %w", err)
	}

	const query = `
SELECT id, account_type, balance, is_active, created_at, updated_at
FROM accounts
WHERE id = ANY($1)
ORDER BY id
FOR UPDATE`

	rows, err := tx.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		_ = tx.Rollback()
		logger.Error("account store lock accounts query failed", err, logger.Fields{
			"accountIds": ids,
		})
		return nil, fmt.Errorf("lock accounts: %w", err)
	}
	defer rows.Close()

	accounts := make(map[string]domain.Account, len(ids))
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			_ = tx.Rollback()
			return nil, fmt.Errorf("scan locked account: %w", err)
		}
		accounts[account.ID] = account
	}
	if err := rows.Err(); err != nil {
		_ = tx.Rollback()
		return nil, fmt.Errorf("iterate locked accounts: %w", err)
	}

	return &storeTx{tx: tx, accounts: accounts}, nil
}

func (s *AccountStore) ListTransactions(ctx context.Context, limit int) ([]domain.Transaction, error) {
	logger.Info("account store list transactions", logger.Fields{
		"limit": limit,
	})

	const query = `
SELECT id, transaction_type, sender_id, receiver_id, amount, description, created_at
FROM transactions
ORDER BY created_at DESC
LIMIT $1`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		logger.Error("account store list transactions failed", err, nil)
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var entries []domain.Transaction
	for rows.Next() {
		entry, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}

	return entries, nil
}

type storeTx struct {
	tx       *sql.Tx
	accounts map[string]domain.Account
	done     bool
}

func (t *storeTx) Accounts() map[string]domain.Account {
	return t.accounts
}

func (t *storeTx) SaveBalance(ctx context.Context, account domain.Account) error {
	const query = `
UPDATE accounts
SET balance = $2::numeric,
    updated_at = NOW()
WHERE id = $1`

	result, err := t.tx.ExecContext(ctx, query, account.ID, account.Balance.StringFixed(2))
	if err != nil {
		logger.Error("account store save balance failed", err, logger.Fields{
			"accountId": account.ID,
		})
		return fmt.Errorf("save balance: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("save balance rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return domain.ErrAccountNotFound
	}

	return nil
}

func (t *storeTx) AppendEntry(ctx context.Context, entry domain.Transaction) (domain.Transaction, error) {
	const query = `
INSERT INTO transactions (transaction_type, sender_id, receiver_id, amount, description)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, created_at`

	var id string
	var createdAt time.Time

	if err := t.tx.QueryRowContext(
		ctx,
		query,
		entry.Type,
		nullString(entry.SenderID),
		nullString(entry.ReceiverID),
		entry.Amount.StringFixed(2),
		entry.Description,
	).Scan(&id, &createdAt); err != nil {
		logger.Error("account store append entry failed", err, logger.Fields{
			"transactionType": entry.Type,
		})
		return domain.Transaction{}, fmt.Errorf("append ledger entry: %w", err)
	}

	entry.ID = id
	entry.CreatedAt = createdAt
	return entry, nil
}

func (t *storeTx) Commit(ctx context.Context) error {
	if err := t.tx.Commit(); err != nil {
		logger.Error("account store commit tx failed", err, nil)
		return fmt.Errorf("commit account transaction: %w", err)
	}
	t.done = true
	return nil
}

func (t *storeTx) Rollback() error {
	if t.done {
		return nil
	}
	t.done = true
	if err := t.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return fmt.Errorf("rollback account transaction: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (domain.Account, error) {
	var account domain.Account
	var balanceRaw string

	if err := row.Scan(
		&account.ID,
		&account.AccountType,
		&balanceRaw,
		&account.IsActive,
		&account.CreatedAt,
		&account.UpdatedAt,
	); err != nil {
		return domain.Account{}, err
	}

	balance, err := decimal.NewFromString(balanceRaw)
	if err != nil {
		return domain.Account{}, fmt.Errorf("parse stored balance %q: %w", balanceRaw, err)
	}
	account.Balance = balance

	return account, nil
}

func scanTransaction(row rowScanner) (domain.Transaction, error) {
	var entry domain.Transaction
	var senderID sql.NullString
	var receiverID sql.NullString
	var amountRaw string

	if err := row.Scan(
		&entry.ID,
		&entry.Type,
		&senderID,
		&receiverID,
		&amountRaw,
		&entry.Description,
		&entry.CreatedAt,
	); err != nil {
		return domain.Transaction{}, err
	}

	amount, err := decimal.NewFromString(amountRaw)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("parse stored amount %q: %w", amountRaw, err)
	}
	entry.Amount = amount

	if senderID.Valid {
		value := senderID.String
		entry.SenderID = &value
	}
	if receiverID.Valid {
		value := receiverID.String
		entry.ReceiverID = &value
	}

	return entry, nil
}

func nullString(value *string) sql.NullString {
	if value == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *value, Valid: true}
}
