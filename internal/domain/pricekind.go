package domain

// PriceKind Coinbase price endpoint variant.
type PriceKind string

const (
	// PriceKindBuy buy price including Coinbase fees.
	PriceKindBuy PriceKind = "buy"
	// PriceKindSell sell price including Coinbase fees.
	PriceKindSell PriceKind = "sell"
	// PriceKindSpot market spot price.
	PriceKindSpot PriceKind = "spot"
)

// String returns the string representation.
func (k PriceKind) String() string {
	return string(k)
}

// IsValid checks if the PriceKind value is valid.
func (k PriceKind) IsValid() bool {
	return k == PriceKindBuy || k == PriceKindSell || k == PriceKindSpot
}
