package limits

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"walletcore/internal/apperrors"
	"walletcore/internal/repository"
)

// Evaluator decides whether an operation fits the per transaction and rolling
// daily caps configured for the user's category. It only reads: the check is
// advisory and is not re-verified inside the balance mutating transaction, so
// two concurrent requests may jointly overshoot the daily cap. Accepted
// trade-off, see DESIGN.md.
type Evaluator struct {
	storage repository.Storage
}

func NewEvaluator(storage repository.Storage) *Evaluator {
	return &Evaluator{storage: storage}
}

// Validate approves or rejects (userID, kind, amount) against the limit
// definition for the user's category in the given currency.
// No matching definition means the operation is unconstrained.
func (e *Evaluator) Validate(ctx context.Context, userID uuid.UUID, kind string, currencyCode string, amount decimal.Decimal) error {
	if amount.Sign() <= 0 {
		return apperrors.ErrInvalidAmount
	}

	user, err := e.storage.User().GetUserByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("limit check: %w", err)
	}

	limit, err := e.storage.Limit().GetLimit(ctx, user.Category, kind, currencyCode)
	switch {
	case errors.Is(err, apperrors.ErrLimitNotDefined):
		return nil
	case err != nil:
		return fmt.Errorf("limit check: %w", err)
	}

	if amount.GreaterThan(limit.MaxPerTransaction) {
		return fmt.Errorf("%w: amount %s above per transaction cap %s", apperrors.ErrLimitExceeded, amount, limit.MaxPerTransaction)
	}

	dailyTotal, err := e.storage.Transaction().SumSuccessfulSince(ctx, userID, kind, startOfDayUTC(time.Now()))
	if err != nil {
		return fmt.Errorf("limit check: %w", err)
	}

	if dailyTotal.Add(amount).GreaterThan(limit.MaxDailyAmount) {
		return fmt.Errorf("%w: daily total %s plus amount %s above daily cap %s", apperrors.ErrLimitExceeded, dailyTotal, amount, limit.MaxDailyAmount)
	}

	return nil
}

func startOfDayUTC(t time.Time) time.Time {
	year, month, day := t.UTC().Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
