package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"walletcore/internal/apperrors"
	"walletcore/internal/models"
)

type WalletRepo struct {
	DB DBTX
}

const walletColumns = `id, created_at, user_id, number, virtual_iban, balance, currency_code, is_active`

const createWallet = `-- name: CreateWallet
INSERT INTO wallets (user_id, number, virtual_iban, currency_code)
VALUES ($1, $2, $3, upper($4))
RETURNING ` + walletColumns

func (r *WalletRepo) CreateWallet(ctx context.Context, userID uuid.UUID, number string, virtualIBAN *string, currencyCode string) (models.Wallet, error) {
	rows, _ := r.DB.Query(ctx, createWallet, userID, number, virtualIBAN, currencyCode)
	wallet, err := pgx.CollectOneRow(rows, rowToWallet)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return wallet, apperrors.ErrWalletNumberUsed
		}
		return wallet, fmt.Errorf("db error: %w", err)
	}

	return wallet, nil
}

const getWallet = `-- name: GetWallet
SELECT ` + walletColumns + ` FROM wallets
WHERE id = $1
`

func (r *WalletRepo) GetWallet(ctx context.Context, id int64) (models.Wallet, error) {
	rows, _ := r.DB.Query(ctx, getWallet, id)
	return collectWallet(rows)
}

const getWalletByNumber = `-- name: GetWalletByNumber
SELECT ` + walletColumns + ` FROM wallets
WHERE number = $1
`

func (r *WalletRepo) GetWalletByNumber(ctx context.Context, number string) (models.Wallet, error) {
	rows, _ := r.DB.Query(ctx, getWalletByNumber, number)
	return collectWallet(rows)
}

const listUserWallets = `-- name: ListUserWallets
SELECT ` + walletColumns + ` FROM wallets
WHERE user_id = $1
ORDER BY created_at
`

func (r *WalletRepo) ListUserWallets(ctx context.Context, userID uuid.UUID) ([]models.Wallet, error) {
	rows, _ := r.DB.Query(ctx, listUserWallets, userID)
	wallets, err := pgx.CollectRows(rows, rowToWallet)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return wallets, nil
}

const adjustBalance = `-- name: AdjustBalance
UPDATE wallets
SET balance = balance + $2
WHERE id = $1 AND is_active
RETURNING ` + walletColumns

// AdjustBalance applies delta atomically in one statement: concurrent updates
// of the same wallet row serialize on the row lock
func (r *WalletRepo) AdjustBalance(ctx context.Context, walletID int64, delta decimal.Decimal) (models.Wallet, error) {
	rows, _ := r.DB.Query(ctx, adjustBalance, walletID, delta)
	wallet, err := pgx.CollectOneRow(rows, rowToWallet)

	if err == nil {
		return wallet, nil
	}

	var pgErr *pgconn.PgError
	switch {
	case errors.As(err, &pgErr) && pgErr.Code == pgerrcode.CheckViolation:
		return wallet, apperrors.ErrInsufficientBalance
	case errors.Is(err, pgx.ErrNoRows):
		// Either the wallet does not exist or it is deactivated
		w, getErr := r.GetWallet(ctx, walletID)
		if getErr == nil && !w.IsActive {
			return wallet, apperrors.ErrWalletInactive
		}
		return wallet, apperrors.ErrWalletNotFound
	default:
		return wallet, fmt.Errorf("db error: %w", err)
	}
}

const deactivateWallet = `-- name: DeactivateWallet
UPDATE wallets
SET is_active = false
WHERE id = $1
`

func (r *WalletRepo) Deactivate(ctx context.Context, walletID int64) error {
	tag, err := r.DB.Exec(ctx, deactivateWallet, walletID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrWalletNotFound
	}

	return nil
}

func collectWallet(rows pgx.Rows) (models.Wallet, error) {
	wallet, err := pgx.CollectOneRow(rows, rowToWallet)

	switch {
	case err == nil:
		return wallet, nil
	case errors.Is(err, pgx.ErrNoRows):
		return wallet, apperrors.ErrWalletNotFound
	default:
		return wallet, fmt.Errorf("db error: %w", err)
	}
}

func rowToWallet(row pgx.CollectableRow) (models.Wallet, error) {
	var w models.Wallet
	err := row.Scan(&w.ID, &w.CreatedAt, &w.UserID, &w.Number, &w.VirtualIBAN, &w.Balance, &w.CurrencyCode, &w.IsActive)
	return w, err
}
