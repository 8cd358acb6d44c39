package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/api-sage/account-transaction-processor/src/internal/adapter/http/models"
	"github.com/api-sage/account-transaction-processor/src/internal/adapter/repository/repo_interfaces"
	"github.com/api-sage/account-transaction-processor/src/internal/commons"
	"github.com/api-sage/account-transaction-processor/src/internal/domain"
	"github.com/api-sage/account-transaction-processor/src/internal/logger"
	"github.com/shopspring/decimal"
)

const defaultListLimit = 50
const maxListLimit = 500

// EventPublisher receives committed ledger entries. Publishing is best-effort
// and never affects the outcome of the transaction itself.
type EventPublisher interface {
	PublishTransactionCompleted(ctx context.Context, entry domain.Transaction) error
}

// TransactionService is the transaction engine: it validates a requested
// movement, locks the referenced accounts in sorted-id order, enforces state
// and balance invariants, mutates balances and appends one ledger entry, all
// within a single store transaction. It re-runs every validation itself and
// does not rely on any check performed at the request boundary.
type TransactionService struct {
	store     repo_interfaces.AccountStore
	publisher EventPublisher
}

func NewTransactionService(store repo_interfaces.AccountStore, publisher EventPublisher) *TransactionService {
	return &TransactionService{
		store:     store,
		publisher: publisher,
	}
}

func (s *TransactionService) ProcessTransaction(ctx context.Context, req models.CreateTransactionRequest) (commons.Response[models.TransactionResponse], error) {
	logger.Info("transaction service process request", logger.Fields{
		"payload": logger.SanitizePayload(req),
	})

	txType := domain.TransactionType(strings.TrimSpace(req.Type))
	if !txType.Valid() {
		return transactionFailure(domain.ErrInvalidTransactionType)
	}

	amount, err := decimal.NewFromString(strings.TrimSpace(req.Amount))
	if err != nil {
		return transactionFailure(domain.ErrMalformedAmount)
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return transactionFailure(domain.ErrNonPositiveAmount)
	}

	senderID := normalizeID(req.SenderID)
	receiverID := normalizeID(req.ReceiverID)
	if err := validateRoles(txType, senderID, receiverID); err != nil {
		return transactionFailure(err)
	}

	// Amounts are stored at two decimal places; anything finer is rounded
	// half-up before it touches a balance or the ledger. An amount that
	// rounds away to nothing is rejected like any other non-positive amount.
	amount = amount.Round(2)
	if amount.IsZero() {
		return transactionFailure(domain.ErrNonPositiveAmount)
	}

	ids := referencedIDs(senderID, receiverID)
	sort.Strings(ids)

	tx, err := s.store.LockAccounts(ctx, ids)
	if err != nil {
		logger.Error("transaction service lock accounts failed", err, logger.Fields{
			"accountIds": ids,
		})
		return commons.ErrorResponse[models.TransactionResponse]("failed to process transaction", "Unable to process transaction right now"), err
	}

	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	accounts := tx.Accounts()
	for _, id := range ids {
		if _, ok := accounts[id]; !ok {
			logger.Info("transaction service account not found", logger.Fields{
				"accountId": id,
			})
			return transactionFailure(domain.ErrAccountNotFound)
		}
	}

	// Same rule set as above, re-checked against the locked snapshot.
	if err := validateRoles(txType, senderID, receiverID); err != nil {
		return transactionFailure(err)
	}

	for _, id := range ids {
		if !accounts[id].IsActive {
			logger.Info("transaction service account inactive", logger.Fields{
				"accountId": id,
			})
			return transactionFailure(domain.ErrInactiveAccount)
		}
	}

	var touched []domain.Account
	switch txType {
	case domain.TransactionTypeDeposit:
		receiver := accounts[receiverID]
		receiver.Balance = receiver.Balance.Add(amount)
		touched = append(touched, receiver)

	case domain.TransactionTypeWithdrawal:
		sender := accounts[senderID]
		if sender.Balance.LessThan(amount) {
			return transactionFailure(domain.ErrInsufficientFunds)
		}
		sender.Balance = sender.Balance.Sub(amount)
		touched = append(touched, sender)

	case domain.TransactionTypeTransfer:
		sender := accounts[senderID]
		receiver := accounts[receiverID]
		if sender.Balance.LessThan(amount) {
			return transactionFailure(domain.ErrInsufficientFunds)
		}
		sender.Balance = sender.Balance.Sub(amount)
		receiver.Balance = receiver.Balance.Add(amount)
		touched = append(touched, sender, receiver)
	}

	for _, account := range touched {
		if err := tx.SaveBalance(ctx, account); err != nil {
			logger.Error("transaction service save balance failed", err, logger.Fields{
				"accountId": account.ID,
			})
			return commons.ErrorResponse[models.TransactionResponse]("failed to process transaction", "Unable to process transaction right now"), err
		}
	}

	entry := domain.Transaction{
		Type:        txType,
		SenderID:    optionalID(senderID),
		ReceiverID:  optionalID(receiverID),
		Amount:      amount,
		Description: strings.TrimSpace(req.Description),
	}

	created, err := tx.AppendEntry(ctx, entry)
	if err != nil {
		logger.Error("transaction service append ledger entry failed", err, logger.Fields{
			"transactionType": txType,
		})
		return commons.ErrorResponse[models.TransactionResponse]("failed to process transaction", "Unable to process transaction right now"), err
	}

	if err := tx.Commit(ctx); err != nil {
		logger.Error("transaction service commit failed", err, logger.Fields{
			"transactionType": txType,
		})
		return commons.ErrorResponse[models.TransactionResponse]("failed to process transaction", "Unable to process transaction right now"), err
	}
	committed = true

	logger.Info("transaction service process success", logger.Fields{
		"transactionId":   created.ID,
		"transactionType": created.Type,
		"amount":          created.Amount.StringFixed(2),
	})

	if s.publisher != nil {
		if err := s.publisher.PublishTransactionCompleted(ctx, created); err != nil {
			logger.Error("transaction service publish event failed", err, logger.Fields{
				"transactionId": created.ID,
			})
		}
	}

	return commons.SuccessResponse("transaction processed successfully", mapTransactionToResponse(created)), nil
}

func (s *TransactionService) GetBalance(ctx context.Context, accountID string) (commons.Response[models.BalanceResponse], error) {
	logger.Info("transaction service get balance request", logger.Fields{
		"accountId": accountID,
	})

	accountID = strings.TrimSpace(accountID)
	if accountID == "" {
		err := errors.New("accountId is required")
		return commons.ErrorResponse[models.BalanceResponse]("validation failed", err.Error()), err
	}

	account, err := s.store.GetAccount(ctx, accountID)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return commons.ErrorResponse[models.BalanceResponse]("Account not found"), err
		}
		logger.Error("transaction service get balance failed", err, logger.Fields{
			"accountId": accountID,
		})
		return commons.ErrorResponse[models.BalanceResponse]("failed to get balance", "Unable to fetch balance right now"), err
	}

	response := models.BalanceResponse{
		AccountID: account.ID,
		Balance:   account.Balance.StringFixed(2),
	}
	return commons.SuccessResponse("balance fetched successfully", response), nil
}

func (s *TransactionService) ListTransactions(ctx context.Context, limit int) (commons.Response[models.ListTransactionsResponse], error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	entries, err := s.store.ListTransactions(ctx, limit)
	if err != nil {
		logger.Error("transaction service list transactions failed", err, nil)
		return commons.ErrorResponse[models.ListTransactionsResponse]("failed to list transactions", "Unable to fetch transactions right now"), err
	}

	response := models.ListTransactionsResponse{
		Transactions: make([]models.TransactionResponse, 0, len(entries)),
	}
	for _, entry := range entries {
		response.Transactions = append(response.Transactions, mapTransactionToResponse(entry))
	}

	return commons.SuccessResponse("transactions fetched successfully", response), nil
}

func validateRoles(txType domain.TransactionType, senderID, receiverID string) error {
	switch txType {
	case domain.TransactionTypeDeposit:
		if receiverID == "" || senderID != "" {
			return domain.ErrRoleMismatch
		}
	case domain.TransactionTypeWithdrawal:
		if senderID == "" || receiverID != "" {
			return domain.ErrRoleMismatch
		}
	case domain.TransactionTypeTransfer:
		if senderID == "" || receiverID == "" {
			return domain.ErrRoleMismatch
		}
		if senderID == receiverID {
			return domain.ErrRoleMismatch
		}
	default:
		return domain.ErrInvalidTransactionType
	}
	return nil
}

func referencedIDs(senderID, receiverID string) []string {
	ids := make([]string, 0, 2)
	if senderID != "" {
		ids = append(ids, senderID)
	}
	if receiverID != "" && receiverID != senderID {
		ids = append(ids, receiverID)
	}
	return ids
}

func transactionFailure(err error) (commons.Response[models.TransactionResponse], error) {
	return commons.ErrorResponse[models.TransactionResponse]("transaction rejected", err.Error()), err
}

func mapTransactionToResponse(entry domain.Transaction) models.TransactionResponse {
	return models.TransactionResponse{
		ID:          entry.ID,
		Type:        string(entry.Type),
		SenderID:    entry.SenderID,
		ReceiverID:  entry.ReceiverID,
		Amount:      entry.Amount.StringFixed(2),
		Description: entry.Description,
		CreatedAt:   entry.CreatedAt.Format(time.RFC3339),
	}
}

func normalizeID(value *string) string {
	if value == nil {
		return ""
	}
	return strings.TrimSpace(*value)
}

func optionalID(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
