package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type AccountType string

const (
	AccountTypeSavings AccountType = "SAVINGS"
	AccountTypeCurrent AccountType = "CURRENT"
)

// Account is the system of record for a balance. The transaction engine only
// ever updates Balance, and only while holding the account's row lock.
type Account struct {
	ID          string
	AccountType AccountType
	Balance     decimal.Decimal
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
