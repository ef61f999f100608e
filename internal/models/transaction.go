package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Transaction kinds
const (
	KindTopUp    = "topup"
	KindP2P      = "p2p"
	KindWithdraw = "withdraw"
)

// Transaction statuses
// Once a transaction reaches success or failed it never changes again
const (
	StatusPending = "pending"
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// Transaction is one recorded money movement attempt.
// TopUp has no sender wallet, withdraw has no receiver wallet, p2p has both.
type Transaction struct {
	ID               uuid.UUID
	CreatedAt        time.Time
	SenderWalletID   *int64
	ReceiverWalletID *int64
	Kind             string
	Amount           decimal.Decimal
	Fee              decimal.Decimal
	CurrencyCode     string
	Status           string
	ReferenceCode    string
	Description      string
}

// TransactionDetail is a Transaction joined with counterparty wallet numbers,
// used for single transaction reads.
type TransactionDetail struct {
	Transaction
	SenderWalletNumber   *string
	ReceiverWalletNumber *string
}
