package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"walletcore/internal/apperrors"
	"walletcore/internal/models"
)

type LimitRepo struct {
	DB DBTX
}

const getLimit = `-- name: GetLimit
SELECT id, user_category, transaction_kind, currency_code, max_per_transaction, max_daily_amount
FROM limit_definitions
WHERE user_category = $1 AND transaction_kind = $2 AND currency_code = upper($3)
`

func (r *LimitRepo) GetLimit(ctx context.Context, category string, kind string, currencyCode string) (models.LimitDefinition, error) {
	rows, _ := r.DB.Query(ctx, getLimit, category, kind, currencyCode)
	limit, err := pgx.CollectOneRow(rows, func(row pgx.CollectableRow) (models.LimitDefinition, error) {
		var l models.LimitDefinition
		err := row.Scan(&l.ID, &l.UserCategory, &l.TransactionKind, &l.CurrencyCode, &l.MaxPerTransaction, &l.MaxDailyAmount)
		return l, err
	})

	switch {
	case err == nil:
		return limit, nil
	case errors.Is(err, pgx.ErrNoRows):
		return limit, apperrors.ErrLimitNotDefined
	default:
		return limit, fmt.Errorf("db error: %w", err)
	}
}
