package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Wallet is a currency denominated balance account owned by exactly one user.
// Balance never goes below zero: the database enforces it with a check
// constraint, services pre-check it for friendlier errors.
type Wallet struct {
	ID           int64
	CreatedAt    time.Time
	UserID       uuid.UUID
	Number       string
	VirtualIBAN  *string
	Balance      decimal.Decimal
	CurrencyCode string
	IsActive     bool
}
