// Package poller maintains throttled per-account caches of Coinbase data.
package poller

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/hausmon/coinbase-sensor/internal/coinbase"
	"github.com/hausmon/coinbase-sensor/internal/domain"
)

// DefaultMinInterval floor between remote refresh attempts.
const DefaultMinInterval = time.Minute

// WalletClient subset of the wallet API used during a refresh pass.
type WalletClient interface {
	GetAccount(ctx context.Context, accountID string) (*coinbase.Account, error)
}

// ClientFactory builds the wallet client for a single refresh pass.
type ClientFactory func() WalletClient

// Quoter subset of the pricing API used during a refresh pass.
type Quoter interface {
	Price(ctx context.Context, kind domain.PriceKind, pair domain.Pair) (decimal.Decimal, error)
	ExchangeRate(ctx context.Context, currency string) (decimal.Decimal, error)
}

// AccountPoller refreshes the cached snapshot of a single Coinbase account.
// The host drives every poller from one goroutine, so the poller keeps no
// locks; concurrent readers must work on published copies.
type AccountPoller struct {
	accountID   string
	clients     ClientFactory
	quotes      Quoter
	logger      *zap.Logger
	minInterval time.Duration

	lastAttempt time.Time
	snapshot    domain.AccountSnapshot
}

// New creates a poller for the given account id. A minInterval of zero or
// less falls back to DefaultMinInterval.
func New(accountID string, clients ClientFactory, quotes Quoter, minInterval time.Duration, logger *zap.Logger) *AccountPoller {
	if minInterval <= 0 {
		minInterval = DefaultMinInterval
	}

	return &AccountPoller{
		accountID:   accountID,
		clients:     clients,
		quotes:      quotes,
		minInterval: minInterval,
		logger:      logger,
	}
}

// Refresh updates the cached snapshot from the remote APIs. Attempts inside
// the throttle window are no-ops. Failures never propagate: the previous
// snapshot stays in place and the error is logged. The throttle clock
// advances on every attempt, successful or not.
func (p *AccountPoller) Refresh(ctx context.Context) {
	if time.Since(p.lastAttempt) < p.minInterval {
		return
	}
	p.lastAttempt = time.Now()

	account, err := p.clients().GetAccount(ctx, p.accountID)
	if err != nil {
		if coinbase.IsAuthenticationError(err) {
			p.logger.Error("authentication failed, keeping cached account data",
				zap.String("account_id", p.accountID),
				zap.Error(err))
			return
		}
		p.logger.Error("failed to fetch account, keeping cached data",
			zap.String("account_id", p.accountID),
			zap.Error(err))
		return
	}

	snapshot := domain.AccountSnapshot{
		ID:        account.ID,
		Name:      account.Name,
		Kind:      domain.AccountKind(account.Type),
		Resource:  account.Resource,
		Primary:   account.Primary,
		CreatedAt: account.CreatedAt,
		UpdatedAt: account.UpdatedAt,
		Balance: domain.Balance{
			Amount:   account.Balance.Amount,
			Currency: account.Balance.Currency,
		},
		NativeBalance: domain.Balance{
			Amount:   account.NativeBalance.Amount,
			Currency: account.NativeBalance.Currency,
		},
	}

	snapshot.ExchangeRate = p.fetchRate(ctx, account.NativeBalance.Currency)

	if snapshot.Kind == domain.AccountKindWallet {
		pair := domain.Pair{Base: account.Balance.Currency, Native: account.NativeBalance.Currency}
		snapshot.BuyPrice = p.fetchPrice(ctx, domain.PriceKindBuy, pair)
		snapshot.SellPrice = p.fetchPrice(ctx, domain.PriceKindSell, pair)
		snapshot.SpotPrice = p.fetchPrice(ctx, domain.PriceKindSpot, pair)
	}

	p.snapshot = snapshot
}

// Balance returns the cached balance amount, in the native currency when
// native is true and in the account currency otherwise. Never hits the
// network.
func (p *AccountPoller) Balance(native bool) string {
	if native {
		return p.snapshot.NativeBalance.Amount
	}

	return p.snapshot.Balance.Amount
}

// Snapshot returns a copy of the cached account state.
func (p *AccountPoller) Snapshot() domain.AccountSnapshot {
	return p.snapshot
}

func (p *AccountPoller) fetchPrice(ctx context.Context, kind domain.PriceKind, pair domain.Pair) domain.PriceResult {
	price, err := p.quotes.Price(ctx, kind, pair)
	if err != nil {
		p.logger.Warn("price fetch failed",
			zap.String("account_id", p.accountID),
			zap.String("kind", kind.String()),
			zap.String("pair", pair.String()),
			zap.Error(err))

		return domain.PriceUnavailable(err.Error())
	}

	return domain.PriceAvailable(price)
}

func (p *AccountPoller) fetchRate(ctx context.Context, currency string) domain.PriceResult {
	rate, err := p.quotes.ExchangeRate(ctx, currency)
	if err != nil {
		p.logger.Warn("exchange rate fetch failed",
			zap.String("account_id", p.accountID),
			zap.String("currency", currency),
			zap.Error(err))

		return domain.PriceUnavailable(err.Error())
	}

	return domain.PriceAvailable(rate)
}
