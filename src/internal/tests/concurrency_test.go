package services_test

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/api-sage/account-transaction-processor/src/internal/adapter/http/models"
	"github.com/api-sage/account-transaction-processor/src/internal/adapter/repository/memory"
	"github.com/api-sage/account-transaction-processor/src/internal/usecase/services"
	"golang.org/x/sync/errgroup"
)

// Opposing transfers over the same two accounts exercise both lock orders at
// once. Sorted-id acquisition means the test must run to completion instead of
// deadlocking, and money is conserved across every interleaving.
func TestConcurrentOpposingTransfers(t *testing.T) {
	store := memory.NewStore()
	svc := services.NewTransactionService(store, nil)
	accountA := newTestAccount(t, store, "1000.00", true)
	accountB := newTestAccount(t, store, "1000.00", true)

	const rounds = 100

	var g errgroup.Group
	g.Go(func() error {
		for i := 0; i < rounds; i++ {
			if _, err := svc.ProcessTransaction(context.Background(), models.CreateTransactionRequest{
				Type:       "TRANSFER",
				Amount:     "1",
				SenderID:   &accountA,
				ReceiverID: &accountB,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	g.Go(func() error {
		for i := 0; i < rounds; i++ {
			if _, err := svc.ProcessTransaction(context.Background(), models.CreateTransactionRequest{
				Type:       "TRANSFER",
				Amount:     "1",
				SenderID:   &accountB,
				ReceiverID: &accountA,
			}); err != nil {
				return err
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		t.Fatalf("concurrent transfers: %v", err)
	}

	total := accountBalance(t, store, accountA).Add(accountBalance(t, store, accountB))
	if total.StringFixed(2) != "2000.00" {
		t.Fatalf("total after opposing transfers = %s, want 2000.00", total.StringFixed(2))
	}
	if store.LedgerSize() != 2*rounds {
		t.Fatalf("ledger size = %d, want %d", store.LedgerSize(), 2*rounds)
	}
}

func TestConcurrentDepositsAllApply(t *testing.T) {
	store := memory.NewStore()
	svc := services.NewTransactionService(store, nil)
	accountID := newTestAccount(t, store, "0.00", true)

	const workers = 8
	const depositsPerWorker = 25

	var g errgroup.Group
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			for i := 0; i < depositsPerWorker; i++ {
				if _, err := svc.ProcessTransaction(context.Background(), models.CreateTransactionRequest{
					Type:       "DEPOSIT",
					Amount:     "0.50",
					ReceiverID: &accountID,
				}); err != nil {
					return err
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		t.Fatalf("concurrent deposits: %v", err)
	}

	requireBalance(t, store, accountID, "100.00")
	if store.LedgerSize() != workers*depositsPerWorker {
		t.Fatalf("ledger size = %d, want %d", store.LedgerSize(), workers*depositsPerWorker)
	}
}

// Withdrawals racing over the same balance must never drive it negative: once
// funds run out the remaining attempts fail cleanly and leave no ledger entry.
func TestConcurrentWithdrawalsNeverOverdraw(t *testing.T) {
	store := memory.NewStore()
	svc := services.NewTransactionService(store, nil)
	accountID := newTestAccount(t, store, "50.00", true)

	const workers = 10
	var succeeded atomic.Int64

	var g errgroup.Group
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			_, err := svc.ProcessTransaction(context.Background(), models.CreateTransactionRequest{
				Type:     "WITHDRAWAL",
				Amount:   "10",
				SenderID: &accountID,
			})
			if err == nil {
				succeeded.Add(1)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		t.Fatalf("concurrent withdrawals: %v", err)
	}

	if succeeded.Load() != 5 {
		t.Fatalf("successful withdrawals = %d, want 5", succeeded.Load())
	}
	requireBalance(t, store, accountID, "0.00")
	if store.LedgerSize() != 5 {
		t.Fatalf("ledger size = %d, want 5", store.LedgerSize())
	}

	balance := accountBalance(t, store, accountID)
	if balance.IsNegative() {
		t.Fatalf("balance went negative: %s", balance.StringFixed(2))
	}
}
