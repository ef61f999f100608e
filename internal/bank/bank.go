package bank

import (
	"context"

	"github.com/shopspring/decimal"
)

// Gateway is the external settlement party contract. A call returns exactly
// once with the bank's approve/decline answer; there is no partial outcome
// and no retry, one synchronous attempt per request.
type Gateway interface {
	RequestTopUp(ctx context.Context, sourceRef string, amount decimal.Decimal, currencyCode string, referenceCode string) (approved bool, err error)
	RequestWithdraw(ctx context.Context, destinationIBAN string, amount decimal.Decimal, currencyCode string, referenceCode string) (approved bool, err error)
}

// Settlement states the status endpoint reports
const (
	SettlementPending  = "pending"
	SettlementApproved = "approved"
	SettlementDeclined = "declined"
)

// StatusChecker answers what happened to a settlement that was requested
// earlier, keyed by reference code. Used to resolve transactions the process
// lost track of.
type StatusChecker interface {
	CheckSettlement(ctx context.Context, referenceCode string) (string, error)
}
