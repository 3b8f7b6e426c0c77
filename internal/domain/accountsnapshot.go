package domain

// Balance currency amount as reported by Coinbase. Amounts stay strings
// to avoid float precision issues.
type Balance struct {
	Amount   string
	Currency string
}

// AccountSnapshot cached state of one Coinbase account after a refresh
// pass. The zero value is an account that was never fetched. Snapshots are
// replaced wholesale, never merged.
type AccountSnapshot struct {
	ID            string
	Name          string
	Kind          AccountKind
	Resource      string
	Primary       bool
	CreatedAt     string
	UpdatedAt     string
	Balance       Balance
	NativeBalance Balance

	// Pricing fetched alongside the account record. Buy, sell and spot are
	// requested for wallet accounts only; the exchange rate for every kind.
	BuyPrice     PriceResult
	SellPrice    PriceResult
	SpotPrice    PriceResult
	ExchangeRate PriceResult
}
