package domain

import "github.com/shopspring/decimal"

// PriceResult outcome of a single price fetch. The zero value means the
// price was never requested.
type PriceResult struct {
	set    bool
	ok     bool
	amount decimal.Decimal
	reason string
}

// PriceAvailable returns a result carrying a fetched amount.
func PriceAvailable(amount decimal.Decimal) PriceResult {
	return PriceResult{set: true, ok: true, amount: amount}
}

// PriceUnavailable returns a result carrying the failure reason.
func PriceUnavailable(reason string) PriceResult {
	return PriceResult{set: true, reason: reason}
}

// Set reports whether a fetch was attempted at all.
func (r PriceResult) Set() bool {
	return r.set
}

// OK reports whether the fetch produced an amount.
func (r PriceResult) OK() bool {
	return r.ok
}

// Amount returns the fetched amount, zero when the result is not OK.
func (r PriceResult) Amount() decimal.Decimal {
	return r.amount
}

// Reason returns the failure reason, empty when the result is OK.
func (r PriceResult) Reason() string {
	return r.reason
}

// Display renders the amount, or the failure reason for failed fetches.
// Intended for the attribute boundary only.
func (r PriceResult) Display() string {
	if r.ok {
		return r.amount.String()
	}
	return r.reason
}
