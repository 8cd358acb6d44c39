package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/api-sage/account-transaction-processor/src/internal/adapter/http/models"
	"github.com/api-sage/account-transaction-processor/src/internal/adapter/repository/memory"
	"github.com/api-sage/account-transaction-processor/src/internal/domain"
	"github.com/api-sage/account-transaction-processor/src/internal/usecase/services"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func newTestAccount(t *testing.T, store *memory.Store, balance string, active bool) string {
	t.Helper()

	amount, err := decimal.NewFromString(balance)
	if err != nil {
		t.Fatalf("parse balance %q: %v", balance, err)
	}

	account, err := store.CreateAccount(context.Background(), domain.Account{
		ID:          uuid.NewString(),
		AccountType: domain.AccountTypeSavings,
		Balance:     amount,
		IsActive:    active,
	})
	if err != nil {
		t.Fatalf("create account: %v", err)
	}
	return account.ID
}

func accountBalance(t *testing.T, store *memory.Store, id string) decimal.Decimal {
	t.Helper()

	account, err := store.GetAccount(context.Background(), id)
	if err != nil {
		t.Fatalf("get account %s: %v", id, err)
	}
	return account.Balance
}

func requireBalance(t *testing.T, store *memory.Store, id string, want string) {
	t.Helper()

	got := accountBalance(t, store, id)
	if got.StringFixed(2) != want {
		t.Fatalf("account %s balance = %s, want %s", id, got.StringFixed(2), want)
	}
}

func TestProcessTransactionDepositIncreasesBalance(t *testing.T) {
	store := memory.NewStore()
	svc := services.NewTransactionService(store, nil)
	accountID := newTestAccount(t, store, "1000.00", true)

	response, err := svc.ProcessTransaction(context.Background(), models.CreateTransactionRequest{
		Type:        "DEPOSIT",
		Amount:      "200",
		ReceiverID:  &accountID,
		Description: "Cash deposit",
	})
	if err != nil {
		t.Fatalf("process deposit: %v", err)
	}

	requireBalance(t, store, accountID, "1200.00")

	if response.Data == nil {
		t.Fatal("expected response data")
	}
	if response.Data.SenderID != nil {
		t.Fatalf("deposit sender = %v, want nil", *response.Data.SenderID)
	}
	if response.Data.ReceiverID == nil || *response.Data.ReceiverID != accountID {
		t.Fatalf("deposit receiver = %v, want %s", response.Data.ReceiverID, accountID)
	}
	if response.Data.ID == "" || response.Data.CreatedAt == "" {
		t.Fatal("expected ledger entry id and creation timestamp")
	}
}

func TestProcessTransactionWithdrawalDecreasesBalance(t *testing.T) {
	store := memory.NewStore()
	svc := services.NewTransactionService(store, nil)
	accountID := newTestAccount(t, store, "1000.00", true)

	response, err := svc.ProcessTransaction(context.Background(), models.CreateTransactionRequest{
		Type:        "WITHDRAWAL",
		Amount:      "300",
		SenderID:    &accountID,
		Description: "ATM withdrawal",
	})
	if err != nil {
		t.Fatalf("process withdrawal: %v", err)
	}

	requireBalance(t, store, accountID, "700.00")

	if response.Data.ReceiverID != nil {
		t.Fatalf("withdrawal receiver = %v, want nil", *response.Data.ReceiverID)
	}
	if response.Data.SenderID == nil || *response.Data.SenderID != accountID {
		t.Fatalf("withdrawal sender = %v, want %s", response.Data.SenderID, accountID)
	}
}

func TestProcessTransactionTransferMovesMoneyAtomically(t *testing.T) {
	store := memory.NewStore()
	svc := services.NewTransactionService(store, nil)
	senderID := newTestAccount(t, store, "1000.00", true)
	receiverID := newTestAccount(t, store, "500.00", true)

	_, err := svc.ProcessTransaction(context.Background(), models.CreateTransactionRequest{
		Type:        "TRANSFER",
		Amount:      "400",
		SenderID:    &senderID,
		ReceiverID:  &receiverID,
		Description: "Rent payment",
	})
	if err != nil {
		t.Fatalf("process transfer: %v", err)
	}

	requireBalance(t, store, senderID, "600.00")
	requireBalance(t, store, receiverID, "900.00")

	total := accountBalance(t, store, senderID).Add(accountBalance(t, store, receiverID))
	if total.StringFixed(2) != "1500.00" {
		t.Fatalf("total after transfer = %s, want 1500.00", total.StringFixed(2))
	}
}

func TestProcessTransactionQuantizesAmountHalfUp(t *testing.T) {
	store := memory.NewStore()
	svc := services.NewTransactionService(store, nil)
	accountID := newTestAccount(t, store, "1000.00", true)

	response, err := svc.ProcessTransaction(context.Background(), models.CreateTransactionRequest{
		Type:       "DEPOSIT",
		Amount:     "10.999",
		ReceiverID: &accountID,
	})
	if err != nil {
		t.Fatalf("process deposit: %v", err)
	}

	if response.Data.Amount != "11.00" {
		t.Fatalf("recorded amount = %s, want 11.00", response.Data.Amount)
	}
	requireBalance(t, store, accountID, "1011.00")
}

func TestProcessTransactionWithdrawalInsufficientFunds(t *testing.T) {
	store := memory.NewStore()
	svc := services.NewTransactionService(store, nil)
	accountID := newTestAccount(t, store, "1000.00", true)

	_, err := svc.ProcessTransaction(context.Background(), models.CreateTransactionRequest{
		Type:     "WITHDRAWAL",
		Amount:   "5000",
		SenderID: &accountID,
	})
	if !errors.Is(err, domain.ErrInsufficientFunds) {
		t.Fatalf("err = %v, want ErrInsufficientFunds", err)
	}

	requireBalance(t, store, accountID, "1000.00")
	if store.LedgerSize() != 0 {
		t.Fatalf("ledger size = %d, want 0", store.LedgerSize())
	}
}

func TestProcessTransactionFailedTransferHasNoPartialUpdate(t *testing.T) {
	store := memory.NewStore()
	svc := services.NewTransactionService(store, nil)
	senderID := newTestAccount(t, store, "1000.00", true)
	receiverID := newTestAccount(t, store, "500.00", true)

	_, err := svc.ProcessTransaction(context.Background(), models.CreateTransactionRequest{
		Type:       "TRANSFER",
		Amount:     "2000",
		SenderID:   &senderID,
		ReceiverID: &receiverID,
	})
	if !errors.Is(err, domain.ErrInsufficientFunds) {
		t.Fatalf("err = %v, want ErrInsufficientFunds", err)
	}

	requireBalance(t, store, senderID, "1000.00")
	requireBalance(t, store, receiverID, "500.00")
	if store.LedgerSize() != 0 {
		t.Fatalf("ledger size = %d, want 0", store.LedgerSize())
	}
}

func TestProcessTransactionSameSenderAndReceiver(t *testing.T) {
	store := memory.NewStore()
	svc := services.NewTransactionService(store, nil)
	accountID := newTestAccount(t, store, "1000.00", true)

	_, err := svc.ProcessTransaction(context.Background(), models.CreateTransactionRequest{
		Type:       "TRANSFER",
		Amount:     "100",
		SenderID:   &accountID,
		ReceiverID: &accountID,
	})
	if !errors.Is(err, domain.ErrRoleMismatch) {
		t.Fatalf("err = %v, want ErrRoleMismatch", err)
	}

	requireBalance(t, store, accountID, "1000.00")
	if store.LedgerSize() != 0 {
		t.Fatalf("ledger size = %d, want 0", store.LedgerSize())
	}
}

func TestProcessTransactionInactiveSender(t *testing.T) {
	store := memory.NewStore()
	svc := services.NewTransactionService(store, nil)
	senderID := newTestAccount(t, store, "1000.00", false)
	receiverID := newTestAccount(t, store, "500.00", true)

	_, err := svc.ProcessTransaction(context.Background(), models.CreateTransactionRequest{
		Type:       "TRANSFER",
		Amount:     "100",
		SenderID:   &senderID,
		ReceiverID: &receiverID,
	})
	if !errors.Is(err, domain.ErrInactiveAccount) {
		t.Fatalf("err = %v, want ErrInactiveAccount", err)
	}

	requireBalance(t, store, senderID, "1000.00")
	requireBalance(t, store, receiverID, "500.00")
	if store.LedgerSize() != 0 {
		t.Fatalf("ledger size = %d, want 0", store.LedgerSize())
	}
}

func TestProcessTransactionValidationFailures(t *testing.T) {
	store := memory.NewStore()
	svc := services.NewTransactionService(store, nil)
	accountID := newTestAccount(t, store, "1000.00", true)
	unknownID := uuid.NewString()

	cases := []struct {
		name string
		req  models.CreateTransactionRequest
		want error
	}{
		{
			name: "unknown type",
			req:  models.CreateTransactionRequest{Type: "REFUND", Amount: "10", ReceiverID: &accountID},
			want: domain.ErrInvalidTransactionType,
		},
		{
			name: "lowercase type",
			req:  models.CreateTransactionRequest{Type: "deposit", Amount: "10", ReceiverID: &accountID},
			want: domain.ErrInvalidTransactionType,
		},
		{
			name: "malformed amount",
			req:  models.CreateTransactionRequest{Type: "DEPOSIT", Amount: "ten", ReceiverID: &accountID},
			want: domain.ErrMalformedAmount,
		},
		{
			name: "negative amount",
			req:  models.CreateTransactionRequest{Type: "DEPOSIT", Amount: "-100", ReceiverID: &accountID},
			want: domain.ErrNonPositiveAmount,
		},
		{
			name: "zero amount",
			req:  models.CreateTransactionRequest{Type: "DEPOSIT", Amount: "0", ReceiverID: &accountID},
			want: domain.ErrNonPositiveAmount,
		},
		{
			name: "amount rounds away to zero",
			req:  models.CreateTransactionRequest{Type: "DEPOSIT", Amount: "0.004", ReceiverID: &accountID},
			want: domain.ErrNonPositiveAmount,
		},
		{
			name: "deposit with sender",
			req:  models.CreateTransactionRequest{Type: "DEPOSIT", Amount: "10", SenderID: &accountID, ReceiverID: &accountID},
			want: domain.ErrRoleMismatch,
		},
		{
			name: "withdrawal without sender",
			req:  models.CreateTransactionRequest{Type: "WITHDRAWAL", Amount: "10", ReceiverID: &accountID},
			want: domain.ErrRoleMismatch,
		},
		{
			name: "transfer missing receiver",
			req:  models.CreateTransactionRequest{Type: "TRANSFER", Amount: "10", SenderID: &accountID},
			want: domain.ErrRoleMismatch,
		},
		{
			name: "unknown account",
			req:  models.CreateTransactionRequest{Type: "DEPOSIT", Amount: "10", ReceiverID: &unknownID},
			want: domain.ErrAccountNotFound,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.ProcessTransaction(context.Background(), tc.req)
			if !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
		})
	}

	requireBalance(t, store, accountID, "1000.00")
	if store.LedgerSize() != 0 {
		t.Fatalf("ledger size = %d, want 0", store.LedgerSize())
	}
}

func TestGetBalance(t *testing.T) {
	store := memory.NewStore()
	svc := services.NewTransactionService(store, nil)
	accountID := newTestAccount(t, store, "42.50", true)

	response, err := svc.GetBalance(context.Background(), accountID)
	if err != nil {
		t.Fatalf("get balance: %v", err)
	}
	if response.Data.Balance != "42.50" {
		t.Fatalf("balance = %s, want 42.50", response.Data.Balance)
	}

	_, err = svc.GetBalance(context.Background(), uuid.NewString())
	if !errors.Is(err, domain.ErrAccountNotFound) {
		t.Fatalf("err = %v, want ErrAccountNotFound", err)
	}
}

func TestListTransactionsNewestFirst(t *testing.T) {
	store := memory.NewStore()
	svc := services.NewTransactionService(store, nil)
	accountID := newTestAccount(t, store, "1000.00", true)

	for _, amount := range []string{"10", "20", "30"} {
		if _, err := svc.ProcessTransaction(context.Background(), models.CreateTransactionRequest{
			Type:       "DEPOSIT",
			Amount:     amount,
			ReceiverID: &accountID,
		}); err != nil {
			t.Fatalf("process deposit %s: %v", amount, err)
		}
	}

	response, err := svc.ListTransactions(context.Background(), 2)
	if err != nil {
		t.Fatalf("list transactions: %v", err)
	}

	entries := response.Data.Transactions
	if len(entries) != 2 {
		t.Fatalf("len(entries) = %d, want 2", len(entries))
	}
	if entries[0].Amount != "30.00" || entries[1].Amount != "20.00" {
		t.Fatalf("entries ordered %s, %s; want 30.00, 20.00", entries[0].Amount, entries[1].Amount)
	}
}
