package domain

import "errors"

// Validation and invariant failures raised by the transaction engine. The set
// is closed: callers classify with errors.Is rather than by message.
var ErrInvalidTransactionType = errors.New("Invalid transaction type")
var ErrMalformedAmount = errors.New("Invalid amount format")
var ErrNonPositiveAmount = errors.New("Transaction amount must be positive")
var ErrRoleMismatch = errors.New("Sender/receiver do not match the transaction type")
var ErrAccountNotFound = errors.New("Account not found")
var ErrInactiveAccount = errors.New("Account is inactive")
var ErrInsufficientFunds = errors.New("Insufficient balance")
