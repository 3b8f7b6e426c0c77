package poller

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hausmon/coinbase-sensor/internal/coinbase"
	"github.com/hausmon/coinbase-sensor/internal/domain"
	"github.com/hausmon/coinbase-sensor/internal/services/pricer"
)

type fakeWallet struct {
	account coinbase.Account
	err     error
	calls   int
}

func (f *fakeWallet) GetAccount(_ context.Context, _ string) (*coinbase.Account, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	account := f.account
	return &account, nil
}

type fakeQuoter struct {
	prices     map[domain.PriceKind]decimal.Decimal
	priceErr   error
	rate       decimal.Decimal
	rateErr    error
	priceCalls int
	rateCalls  int
}

func (f *fakeQuoter) Price(_ context.Context, kind domain.PriceKind, _ domain.Pair) (decimal.Decimal, error) {
	f.priceCalls++
	if f.priceErr != nil {
		return decimal.Decimal{}, f.priceErr
	}
	return f.prices[kind], nil
}

func (f *fakeQuoter) ExchangeRate(_ context.Context, _ string) (decimal.Decimal, error) {
	f.rateCalls++
	if f.rateErr != nil {
		return decimal.Decimal{}, f.rateErr
	}
	return f.rate, nil
}

func walletAccount() coinbase.Account {
	return coinbase.Account{
		ID:      "abc-123",
		Name:    "My Wallet",
		Type:    "wallet",
		Primary: true,
		Balance: coinbase.Money{
			Amount:   "39.59",
			Currency: "BTC",
		},
		NativeBalance: coinbase.Money{
			Amount:   "395906.01",
			Currency: "USD",
		},
		CreatedAt: "2015-01-31T20:49:02Z",
		UpdatedAt: "2015-03-31T17:25:29-07:00",
		Resource:  "account",
	}
}

func newTestPoller(wallet *fakeWallet, quotes *fakeQuoter) *AccountPoller {
	return New("abc-123", func() WalletClient { return wallet }, quotes, time.Minute, zap.NewNop())
}

func TestAccountPoller_RefreshWallet(t *testing.T) {
	wallet := &fakeWallet{account: walletAccount()}
	quotes := &fakeQuoter{
		prices: map[domain.PriceKind]decimal.Decimal{
			domain.PriceKindBuy:  decimal.RequireFromString("16295.52"),
			domain.PriceKindSell: decimal.RequireFromString("15916.32"),
			domain.PriceKindSpot: decimal.RequireFromString("16102.93"),
		},
		rate: decimal.RequireFromString("0.000062"),
	}

	p := newTestPoller(wallet, quotes)
	p.Refresh(context.Background())

	assert.Equal(t, 1, wallet.calls)
	assert.Equal(t, 1, quotes.rateCalls)
	assert.Equal(t, 3, quotes.priceCalls)

	snapshot := p.Snapshot()
	assert.Equal(t, "My Wallet", snapshot.Name)
	assert.Equal(t, domain.AccountKindWallet, snapshot.Kind)
	assert.Equal(t, "39.59", snapshot.Balance.Amount)
	assert.Equal(t, "BTC", snapshot.Balance.Currency)
	assert.Equal(t, "395906.01", snapshot.NativeBalance.Amount)
	assert.Equal(t, "USD", snapshot.NativeBalance.Currency)

	require.True(t, snapshot.BuyPrice.OK())
	assert.Equal(t, "16295.52", snapshot.BuyPrice.Display())
	require.True(t, snapshot.SellPrice.OK())
	assert.Equal(t, "15916.32", snapshot.SellPrice.Display())
	require.True(t, snapshot.SpotPrice.OK())
	assert.Equal(t, "16102.93", snapshot.SpotPrice.Display())
	require.True(t, snapshot.ExchangeRate.OK())
	assert.Equal(t, "0.000062", snapshot.ExchangeRate.Display())
}

func TestAccountPoller_RefreshFiat(t *testing.T) {
	account := walletAccount()
	account.Type = "fiat"
	account.Balance = coinbase.Money{Amount: "1234.56", Currency: "USD"}
	account.NativeBalance = coinbase.Money{Amount: "1234.56", Currency: "USD"}

	wallet := &fakeWallet{account: account}
	quotes := &fakeQuoter{rate: decimal.NewFromInt(1)}

	p := newTestPoller(wallet, quotes)
	p.Refresh(context.Background())

	assert.Equal(t, 1, quotes.rateCalls)
	assert.Equal(t, 0, quotes.priceCalls)

	snapshot := p.Snapshot()
	assert.Equal(t, domain.AccountKindFiat, snapshot.Kind)
	assert.False(t, snapshot.BuyPrice.Set())
	assert.False(t, snapshot.SellPrice.Set())
	assert.False(t, snapshot.SpotPrice.Set())
	assert.True(t, snapshot.ExchangeRate.OK())
}

func TestAccountPoller_Throttle(t *testing.T) {
	wallet := &fakeWallet{account: walletAccount()}
	quotes := &fakeQuoter{rate: decimal.NewFromInt(1)}

	p := newTestPoller(wallet, quotes)
	p.Refresh(context.Background())
	p.Refresh(context.Background())
	p.Refresh(context.Background())

	assert.Equal(t, 1, wallet.calls, "refreshes inside the window must not hit the network")

	p.lastAttempt = p.lastAttempt.Add(-2 * time.Minute)
	p.Refresh(context.Background())

	assert.Equal(t, 2, wallet.calls)
}

func TestAccountPoller_ThrottleStampsFailedAttempts(t *testing.T) {
	wallet := &fakeWallet{err: errors.New("connection refused")}
	quotes := &fakeQuoter{}

	p := newTestPoller(wallet, quotes)
	p.Refresh(context.Background())
	p.Refresh(context.Background())

	assert.Equal(t, 1, wallet.calls, "failed attempt must still start the throttle window")

	p.lastAttempt = p.lastAttempt.Add(-2 * time.Minute)
	p.Refresh(context.Background())

	assert.Equal(t, 2, wallet.calls)
}

func TestAccountPoller_KeepsStaleSnapshotOnError(t *testing.T) {
	wallet := &fakeWallet{account: walletAccount()}
	quotes := &fakeQuoter{
		prices: map[domain.PriceKind]decimal.Decimal{
			domain.PriceKindBuy:  decimal.RequireFromString("16295.52"),
			domain.PriceKindSell: decimal.RequireFromString("15916.32"),
			domain.PriceKindSpot: decimal.RequireFromString("16102.93"),
		},
		rate: decimal.RequireFromString("0.000062"),
	}

	p := newTestPoller(wallet, quotes)
	p.Refresh(context.Background())
	before := p.Snapshot()

	wallet.err = &coinbase.APIError{StatusCode: 401, ID: "authentication_error"}
	p.lastAttempt = p.lastAttempt.Add(-2 * time.Minute)
	p.Refresh(context.Background())

	assert.Equal(t, before, p.Snapshot(), "stale snapshot must survive a failed refresh")
	assert.Equal(t, "39.59", p.Balance(false))
}

func TestAccountPoller_PriceFailureKeptAsReason(t *testing.T) {
	wallet := &fakeWallet{account: walletAccount()}
	quotes := &fakeQuoter{
		priceErr: &pricer.APIError{
			URL:    "https://api.coinbase.com/v2/prices/BTC-USD/buy",
			Detail: "402 Payment Required",
		},
		rate: decimal.RequireFromString("0.000062"),
	}

	p := newTestPoller(wallet, quotes)
	p.Refresh(context.Background())

	snapshot := p.Snapshot()
	require.True(t, snapshot.BuyPrice.Set())
	assert.False(t, snapshot.BuyPrice.OK())
	assert.Contains(t, snapshot.BuyPrice.Reason(), "https://api.coinbase.com/v2/prices/BTC-USD/buy")
	assert.Equal(t,
		"Coinbase API error (https://api.coinbase.com/v2/prices/BTC-USD/buy): 402 Payment Required",
		snapshot.BuyPrice.Display())

	require.True(t, snapshot.ExchangeRate.OK(), "rate fetch is independent of price failures")
}

func TestAccountPoller_UnsupportedCurrencyKeptAsReason(t *testing.T) {
	account := walletAccount()
	account.NativeBalance.Currency = "XYZ"

	wallet := &fakeWallet{account: account}
	quotes := &fakeQuoter{
		prices: map[domain.PriceKind]decimal.Decimal{
			domain.PriceKindBuy:  decimal.RequireFromString("16295.52"),
			domain.PriceKindSell: decimal.RequireFromString("15916.32"),
			domain.PriceKindSpot: decimal.RequireFromString("16102.93"),
		},
		rateErr: &pricer.UnsupportedCurrencyError{Currency: "XYZ"},
	}

	p := newTestPoller(wallet, quotes)
	p.Refresh(context.Background())

	snapshot := p.Snapshot()
	require.True(t, snapshot.ExchangeRate.Set())
	assert.False(t, snapshot.ExchangeRate.OK())
	assert.Equal(t, `Currency "XYZ" not supported by Coinbase`, snapshot.ExchangeRate.Display())
}

func TestAccountPoller_Balance(t *testing.T) {
	wallet := &fakeWallet{account: walletAccount()}
	quotes := &fakeQuoter{rate: decimal.NewFromInt(1)}

	p := newTestPoller(wallet, quotes)

	assert.Empty(t, p.Balance(false), "balance is empty before the first refresh")
	assert.Empty(t, p.Balance(true))

	p.Refresh(context.Background())

	assert.Equal(t, "39.59", p.Balance(false))
	assert.Equal(t, "395906.01", p.Balance(true))

	walletCallsBefore := wallet.calls
	p.Balance(true)
	assert.Equal(t, walletCallsBefore, wallet.calls, "balance reads never hit the network")
}
