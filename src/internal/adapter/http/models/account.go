package models

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

type CreateAccountRequest struct {
	AccountType    string `json:"accountType"`
	OpeningBalance string `json:"openingBalance,omitempty"`
}

func (r CreateAccountRequest) Validate() error {
	var errs []string

	accountType := strings.ToUpper(strings.TrimSpace(r.AccountType))
	if accountType != "SAVINGS" && accountType != "CURRENT" {
		errs = append(errs, "accountType must be SAVINGS or CURRENT")
	}

	if opening := strings.TrimSpace(r.OpeningBalance); opening != "" {
		balance, err := decimal.NewFromString(opening)
		if err != nil {
			errs = append(errs, "openingBalance must be a decimal number")
		} else if balance.IsNegative() {
			errs = append(errs, "openingBalance cannot be negative")
		}
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

type AccountResponse struct {
	ID          string `json:"id"`
	AccountType string `json:"accountType"`
	Balance     string `json:"balance"`
	IsActive    bool   `json:"isActive"`
	CreatedAt   string `json:"createdAt"`
	UpdatedAt   string `json:"updatedAt"`
}

type BalanceResponse struct {
	AccountID string `json:"accountId"`
	Balance   string `json:"balance"`
}
