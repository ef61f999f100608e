package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"walletcore/internal/apperrors"
	"walletcore/internal/models"
)

type TransactionRepo struct {
	DB DBTX
}

const transactionColumns = `id, created_at, sender_wallet_id, receiver_wallet_id, kind, amount, fee, currency_code, status, reference_code, description`

const createTransaction = `-- name: CreateTransaction
INSERT INTO transactions (id, created_at, sender_wallet_id, receiver_wallet_id, kind, amount, fee, currency_code, status, reference_code, description)
VALUES ($1, $2, $3, $4, $5, $6, $7, upper($8), $9, $10, $11)
RETURNING ` + transactionColumns

func (r *TransactionRepo) CreateTransaction(ctx context.Context, tr models.Transaction) (models.Transaction, error) {
	// Fill generated attributes if the caller left them empty
	if tr.ID == uuid.Nil {
		tr.ID = uuid.New()
	}
	if tr.CreatedAt.IsZero() {
		tr.CreatedAt = time.Now()
	}
	if tr.Status == "" {
		tr.Status = models.StatusPending
	}

	rows, _ := r.DB.Query(ctx, createTransaction,
		tr.ID, tr.CreatedAt, tr.SenderWalletID, tr.ReceiverWalletID,
		tr.Kind, tr.Amount, tr.Fee, tr.CurrencyCode,
		tr.Status, tr.ReferenceCode, tr.Description,
	)
	created, err := pgx.CollectOneRow(rows, rowToTransaction)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return created, apperrors.ErrDuplicateReference
		}
		return created, fmt.Errorf("db error: %w", err)
	}

	return created, nil
}

const finalizeTransaction = `-- name: FinalizeTransaction
UPDATE transactions
SET status = $2
WHERE id = $1 AND status = 'pending'
RETURNING ` + transactionColumns

// FinalizeTransaction promotes a pending transaction to a terminal status.
// Success and failed are terminal: a second promotion attempt fails.
func (r *TransactionRepo) FinalizeTransaction(ctx context.Context, id uuid.UUID, status string) (models.Transaction, error) {
	if status != models.StatusSuccess && status != models.StatusFailed {
		return models.Transaction{}, fmt.Errorf("status %q is not terminal", status)
	}

	rows, _ := r.DB.Query(ctx, finalizeTransaction, id, status)
	tr, err := pgx.CollectOneRow(rows, rowToTransaction)

	if err == nil {
		return tr, nil
	}

	if errors.Is(err, pgx.ErrNoRows) {
		// Not pending anymore or never existed
		if _, getErr := r.GetTransaction(ctx, id); getErr == nil {
			return tr, apperrors.ErrTransactionFinal
		}
		return tr, apperrors.ErrTransactionNotFound
	}

	return tr, fmt.Errorf("db error: %w", err)
}

const getTransaction = `-- name: GetTransaction
SELECT t.id, t.created_at, t.sender_wallet_id, t.receiver_wallet_id, t.kind, t.amount, t.fee, t.currency_code, t.status, t.reference_code, t.description,
       sw.number, rw.number
FROM transactions t
LEFT JOIN wallets sw ON sw.id = t.sender_wallet_id
LEFT JOIN wallets rw ON rw.id = t.receiver_wallet_id
WHERE t.id = $1
`

func (r *TransactionRepo) GetTransaction(ctx context.Context, id uuid.UUID) (models.TransactionDetail, error) {
	rows, _ := r.DB.Query(ctx, getTransaction, id)
	detail, err := pgx.CollectOneRow(rows, func(row pgx.CollectableRow) (models.TransactionDetail, error) {
		var d models.TransactionDetail
		err := row.Scan(
			&d.ID, &d.CreatedAt, &d.SenderWalletID, &d.ReceiverWalletID,
			&d.Kind, &d.Amount, &d.Fee, &d.CurrencyCode,
			&d.Status, &d.ReferenceCode, &d.Description,
			&d.SenderWalletNumber, &d.ReceiverWalletNumber,
		)
		return d, err
	})

	switch {
	case err == nil:
		return detail, nil
	case errors.Is(err, pgx.ErrNoRows):
		return detail, apperrors.ErrTransactionNotFound
	default:
		return detail, fmt.Errorf("db error: %w", err)
	}
}

const listWalletTransactions = `-- name: ListWalletTransactions
SELECT ` + transactionColumns + ` FROM transactions
WHERE sender_wallet_id = $1 OR receiver_wallet_id = $1
ORDER BY created_at DESC
`

func (r *TransactionRepo) ListWalletTransactions(ctx context.Context, walletID int64) ([]models.Transaction, error) {
	rows, _ := r.DB.Query(ctx, listWalletTransactions, walletID)
	transactions, err := pgx.CollectRows(rows, rowToTransaction)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return transactions, nil
}

const listPendingBefore = `-- name: ListPendingBefore
SELECT ` + transactionColumns + ` FROM transactions
WHERE status = 'pending' AND created_at < $1
ORDER BY created_at
LIMIT $2
`

// ListPendingBefore returns the oldest transactions still pending at the
// cutoff. Used by the settlement reconciler.
func (r *TransactionRepo) ListPendingBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.Transaction, error) {
	rows, _ := r.DB.Query(ctx, listPendingBefore, cutoff, limit)
	transactions, err := pgx.CollectRows(rows, rowToTransaction)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return transactions, nil
}

// Daily totals count the wallet side appropriate to the kind:
// money arrives on the receiver wallet for topup, leaves the sender wallet
// for p2p and withdraw
const sumSuccessfulSince = `-- name: SumSuccessfulSince
SELECT COALESCE(SUM(t.amount), 0)
FROM transactions t
JOIN wallets w ON w.id = CASE WHEN t.kind = 'topup' THEN t.receiver_wallet_id ELSE t.sender_wallet_id END
WHERE w.user_id = $1 AND t.kind = $2 AND t.status = 'success' AND t.created_at >= $3
`

func (r *TransactionRepo) SumSuccessfulSince(ctx context.Context, userID uuid.UUID, kind string, since time.Time) (decimal.Decimal, error) {
	var total decimal.Decimal

	err := r.DB.QueryRow(ctx, sumSuccessfulSince, userID, kind, since).Scan(&total)
	if err != nil {
		return total, fmt.Errorf("db error: %w", err)
	}

	return total, nil
}

func rowToTransaction(row pgx.CollectableRow) (models.Transaction, error) {
	var t models.Transaction
	err := row.Scan(
		&t.ID, &t.CreatedAt, &t.SenderWalletID, &t.ReceiverWalletID,
		&t.Kind, &t.Amount, &t.Fee, &t.CurrencyCode,
		&t.Status, &t.ReferenceCode, &t.Description,
	)
	return t, err
}
