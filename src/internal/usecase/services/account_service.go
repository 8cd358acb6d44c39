package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/api-sage/account-transaction-processor/src/internal/adapter/http/models"
	"github.com/api-sage/account-transaction-processor/src/internal/adapter/repository/repo_interfaces"
	"github.com/api-sage/account-transaction-processor/src/internal/commons"
	"github.com/api-sage/account-transaction-processor/src/internal/domain"
	"github.com/api-sage/account-transaction-processor/src/internal/logger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccountService owns account creation and lookup. The transaction engine
// never creates or deletes accounts.
type AccountService struct {
	store repo_interfaces.AccountStore
}

func NewAccountService(store repo_interfaces.AccountStore) *AccountService {
	return &AccountService{store: store}
}

func (s *AccountService) CreateAccount(ctx context.Context, req models.CreateAccountRequest) (commons.Response[models.AccountResponse], error) {
	logger.Info("account service create account request", logger.Fields{
		"payload": logger.SanitizePayload(req),
	})

	if err := req.Validate(); err != nil {
		logger.Error("account service create account validation failed", err, nil)
		return commons.ErrorResponse[models.AccountResponse]("validation failed", err.Error()), err
	}

	balance := decimal.Zero
	if opening := strings.TrimSpace(req.OpeningBalance); opening != "" {
		parsed, err := decimal.NewFromString(opening)
		if err != nil {
			return commons.ErrorResponse[models.AccountResponse]("validation failed", "openingBalance must be a decimal number"), err
		}
		balance = parsed.Round(2)
	}

	account := domain.Account{
		ID:          uuid.NewString(),
		AccountType: domain.AccountType(strings.ToUpper(strings.TrimSpace(req.AccountType))),
		Balance:     balance,
		IsActive:    true,
	}

	created, err := s.store.CreateAccount(ctx, account)
	if err != nil {
		logger.Error("account service create account store failed", err, logger.Fields{
			"accountId": account.ID,
		})
		return commons.ErrorResponse[models.AccountResponse]("failed to create account", "Unable to create account right now"), err
	}

	logger.Info("account service create account success", logger.Fields{
		"accountId":   created.ID,
		"accountType": created.AccountType,
	})

	return commons.SuccessResponse("account created successfully", mapAccountToResponse(created)), nil
}

func (s *AccountService) GetAccount(ctx context.Context, id string) (commons.Response[models.AccountResponse], error) {
	logger.Info("account service get account request", logger.Fields{
		"accountId": id,
	})

	id = strings.TrimSpace(id)
	if id == "" {
		err := errors.New("accountId is required")
		return commons.ErrorResponse[models.AccountResponse]("validation failed", err.Error()), err
	}

	account, err := s.store.GetAccount(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return commons.ErrorResponse[models.AccountResponse]("Account not found"), err
		}
		logger.Error("account service get account failed", err, logger.Fields{
			"accountId": id,
		})
		return commons.ErrorResponse[models.AccountResponse]("failed to get account", "Unable to fetch account right now"), err
	}

	return commons.SuccessResponse("account fetched successfully", mapAccountToResponse(account)), nil
}

func mapAccountToResponse(account domain.Account) models.AccountResponse {
	return models.AccountResponse{
		ID:          account.ID,
		AccountType: string(account.AccountType),
		Balance:     account.Balance.StringFixed(2),
		IsActive:    account.IsActive,
		CreatedAt:   account.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   account.UpdatedAt.Format(time.RFC3339),
	}
}
