package fee

import (
	"github.com/shopspring/decimal"

	"walletcore/internal/models"
)

// Fees are kept at two fractional digits, ties round away from zero
const feePlaces = 2

// Rates holds the configured fee rate per transaction kind
type Rates struct {
	TopUp    decimal.Decimal
	P2P      decimal.Decimal
	Withdraw decimal.Decimal
}

// DefaultRates returns the stock configuration:
// transfers between wallets cost 1 percent, external legs are free
func DefaultRates() Rates {
	return Rates{
		TopUp:    decimal.Zero,
		P2P:      decimal.NewFromFloat(0.01),
		Withdraw: decimal.Zero,
	}
}

type Calculator struct {
	rates Rates
}

func NewCalculator(rates Rates) *Calculator {
	return &Calculator{rates: rates}
}

// ForKind computes the fee for amount under the configured rate of kind.
// Unknown kinds cost nothing.
func (c *Calculator) ForKind(kind string, amount decimal.Decimal) decimal.Decimal {
	switch kind {
	case models.KindTopUp:
		return Calculate(amount, c.rates.TopUp)
	case models.KindP2P:
		return Calculate(amount, c.rates.P2P)
	case models.KindWithdraw:
		return Calculate(amount, c.rates.Withdraw)
	default:
		return decimal.Zero
	}
}

// Calculate is the fee function itself: amount * rate rounded to two
// fractional digits half away from zero. Pure and deterministic.
func Calculate(amount decimal.Decimal, rate decimal.Decimal) decimal.Decimal {
	return amount.Mul(rate).Round(feePlaces)
}
