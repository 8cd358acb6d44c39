package models

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

type CreateTransactionRequest struct {
	Type        string  `json:"type"`
	Amount      string  `json:"amount"`
	SenderID    *string `json:"senderId,omitempty"`
	ReceiverID  *string `json:"receiverId,omitempty"`
	Description string  `json:"description,omitempty"`
}

// Validate performs the request-boundary pass. The transaction engine repeats
// every one of these checks itself; a caller reaching the engine through some
// other path gets the same rejections there.
func (r CreateTransactionRequest) Validate() error {
	var errs []string

	txType := strings.TrimSpace(r.Type)
	switch txType {
	case "DEPOSIT", "WITHDRAWAL", "TRANSFER":
	default:
		errs = append(errs, "type must be one of DEPOSIT, WITHDRAWAL, TRANSFER")
	}

	amount, err := decimal.NewFromString(strings.TrimSpace(r.Amount))
	if err != nil {
		errs = append(errs, "amount must be a decimal number")
	} else if amount.LessThanOrEqual(decimal.Zero) {
		errs = append(errs, "amount must be greater than zero")
	}

	sender := trimmedID(r.SenderID)
	receiver := trimmedID(r.ReceiverID)

	switch txType {
	case "DEPOSIT":
		if receiver == "" || sender != "" {
			errs = append(errs, "deposit requires only a receiver account")
		}
	case "WITHDRAWAL":
		if sender == "" || receiver != "" {
			errs = append(errs, "withdrawal requires only a sender account")
		}
	case "TRANSFER":
		if sender == "" || receiver == "" {
			errs = append(errs, "transfer requires both sender and receiver")
		} else if sender == receiver {
			errs = append(errs, "sender and receiver cannot be the same account")
		}
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

type TransactionResponse struct {
	ID          string  `json:"id"`
	Type        string  `json:"type"`
	SenderID    *string `json:"senderId"`
	ReceiverID  *string `json:"receiverId"`
	Amount      string  `json:"amount"`
	Description string  `json:"description,omitempty"`
	CreatedAt   string  `json:"createdAt"`
}

type ListTransactionsResponse struct {
	Transactions []TransactionResponse `json:"transactions"`
}

func trimmedID(value *string) string {
	if value == nil {
		return ""
	}
	return strings.TrimSpace(*value)
}
