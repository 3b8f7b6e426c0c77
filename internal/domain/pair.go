// Package domain defines core data structures used throughout the integration.
package domain

import "fmt"

// Pair currency pair priced by Coinbase.
type Pair struct {
	// Base account currency symbol.
	Base string
	// Native home currency symbol.
	Native string
}

// String returns the string representation.
func (p *Pair) String() string {
	return fmt.Sprintf("%s_%s", p.Base, p.Native)
}

// Slug returns the dash-joined form used in Coinbase price paths.
func (p *Pair) Slug() string {
	return fmt.Sprintf("%s-%s", p.Base, p.Native)
}
