package apperrors

import (
	"errors"
)

var (
	ErrUserAlreadyExists = errors.New("user already exists")
	ErrUserNotFound      = errors.New("user not found")

	ErrWalletNotFound   = errors.New("wallet not found")
	ErrWalletInactive   = errors.New("wallet is inactive")
	ErrWalletNumberUsed = errors.New("wallet number already used")

	ErrTransactionNotFound = errors.New("transaction not found")
	ErrTransactionFinal    = errors.New("transaction already finalized")
	ErrDuplicateReference  = errors.New("reference code already used")

	ErrLimitNotDefined = errors.New("limit not defined")

	ErrInvalidAmount       = errors.New("amount must be positive")
	ErrSameWallet          = errors.New("sender and receiver wallet are the same")
	ErrInvalidIBAN         = errors.New("destination iban is invalid")
	ErrCurrencyMismatch    = errors.New("currency does not match wallet currency")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrLimitExceeded       = errors.New("transaction limit exceeded")

	ErrUnauthorizedWallet = errors.New("wallet does not belong to user")
)
