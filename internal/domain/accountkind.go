package domain

// AccountKind type of Coinbase account.
type AccountKind string

const (
	// AccountKindWallet cryptocurrency wallet account.
	AccountKindWallet AccountKind = "wallet"
	// AccountKindFiat fiat currency account.
	AccountKindFiat AccountKind = "fiat"
)

// String returns the string representation.
func (k AccountKind) String() string {
	return string(k)
}

// IsValid checks if the AccountKind value is valid.
func (k AccountKind) IsValid() bool {
	return k == AccountKindWallet || k == AccountKindFiat
}
