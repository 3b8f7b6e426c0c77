package pricer

import (
	"context"

	"github.com/hausmon/coinbase-sensor/internal/domain"
	"github.com/shopspring/decimal"
)

// Pricer quotes prices and exchange rates for account currencies.
type Pricer interface {
	Price(ctx context.Context, kind domain.PriceKind, pair domain.Pair) (decimal.Decimal, error)
	ExchangeRate(ctx context.Context, currency string) (decimal.Decimal, error)
}
