package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionTypeDeposit    TransactionType = "DEPOSIT"
	TransactionTypeWithdrawal TransactionType = "WITHDRAWAL"
	TransactionTypeTransfer   TransactionType = "TRANSFER"
)

func (t TransactionType) Valid() bool {
	switch t {
	case TransactionTypeDeposit, TransactionTypeWithdrawal, TransactionTypeTransfer:
		return true
	}
	return false
}

// Transaction is one immutable ledger entry. It is created exactly once, at
// commit time, and never updated or deleted afterwards.
type Transaction struct {
	ID          string
	Type        TransactionType
	SenderID    *string
	ReceiverID  *string
	Amount      decimal.Decimal
	Description string
	CreatedAt   time.Time
}
