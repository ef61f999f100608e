package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"walletcore/internal/models"
)

// User repository interface
type UserRepo interface {
	// Create user with the given category
	// If user with username exists already has to return apperrors.ErrUserAlreadyExists
	CreateUser(ctx context.Context, username string, hashedPassword string, category string) (models.User, error)

	// Get user by it's id or username
	// If user not found must return apperrors.ErrUserNotFound
	GetUserByID(ctx context.Context, userID uuid.UUID) (models.User, error)
	GetUserByUsername(ctx context.Context, username string) (models.User, error)
}

// Wallet repository interface
type WalletRepo interface {
	// Create wallet for user
	// Wallet number and virtual iban are unique: on collision has to return
	// apperrors.ErrWalletNumberUsed
	CreateWallet(ctx context.Context, userID uuid.UUID, number string, virtualIBAN *string, currencyCode string) (models.Wallet, error)

	// Get wallet by id or by it's human facing number
	// If wallet not found must return apperrors.ErrWalletNotFound
	GetWallet(ctx context.Context, id int64) (models.Wallet, error)
	GetWalletByNumber(ctx context.Context, number string) (models.Wallet, error)

	// List all wallets owned by user ordered by creation time
	ListUserWallets(ctx context.Context, userID uuid.UUID) ([]models.Wallet, error)

	// Atomically apply delta (positive or negative) to wallet balance
	// Must return apperrors.ErrInsufficientBalance if the balance would go negative,
	// apperrors.ErrWalletInactive if the wallet is deactivated
	AdjustBalance(ctx context.Context, walletID int64, delta decimal.Decimal) (models.Wallet, error)

	// Deactivate flips the active flag, wallets are never deleted
	Deactivate(ctx context.Context, walletID int64) error
}

// Transaction repository interface
// Transaction rows are immutable except the pending -> success/failed promotion
type TransactionRepo interface {
	// Insert transaction row
	// If reference code collides must return apperrors.ErrDuplicateReference
	CreateTransaction(ctx context.Context, tr models.Transaction) (models.Transaction, error)

	// Promote a pending transaction to success or failed
	// Must return apperrors.ErrTransactionFinal if it is not pending anymore
	FinalizeTransaction(ctx context.Context, id uuid.UUID, status string) (models.Transaction, error)

	// Get one transaction with counterparty wallet numbers
	GetTransaction(ctx context.Context, id uuid.UUID) (models.TransactionDetail, error)

	// List transactions the wallet participates in, most recent first
	ListWalletTransactions(ctx context.Context, walletID int64) ([]models.Transaction, error)

	// List oldest transactions still pending at the cutoff, for reconciliation
	ListPendingBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.Transaction, error)

	// Sum of successful transactions of this kind over all wallets of the user
	// created at 'since' or later. Receiver side counts for topup, sender side
	// for p2p and withdraw.
	SumSuccessfulSince(ctx context.Context, userID uuid.UUID, kind string, since time.Time) (decimal.Decimal, error)
}

// Limit definitions are read only at request time
type LimitRepo interface {
	// Get limit for (category, kind, currency)
	// If no such row exists must return apperrors.ErrLimitNotDefined
	GetLimit(ctx context.Context, category string, kind string, currencyCode string) (models.LimitDefinition, error)
}

// Storage combines repositories with transactional boundaries.
// InTx runs fn against a storage view bound to one database transaction.
// InSerializableTx does the same under serializable isolation: the p2p flow
// mutates three balances atomically and must not lose updates.
type Storage interface {
	User() UserRepo
	Wallet() WalletRepo
	Transaction() TransactionRepo
	Limit() LimitRepo

	InTx(ctx context.Context, fn func(Storage) error) error
	InSerializableTx(ctx context.Context, fn func(Storage) error) error
}
