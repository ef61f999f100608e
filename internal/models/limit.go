package models

import (
	"github.com/shopspring/decimal"
)

// LimitDefinition is a policy row resolved by (user category, transaction kind,
// currency). Read only at request time, seeded outside the transaction engine.
type LimitDefinition struct {
	ID                int64
	UserCategory      string
	TransactionKind   string
	CurrencyCode      string
	MaxPerTransaction decimal.Decimal
	MaxDailyAmount    decimal.Decimal
}
