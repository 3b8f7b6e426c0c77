package pricer

import "fmt"

// APIError failed request to a Coinbase pricing endpoint. The message keeps
// the request URL so cached error strings identify the failing endpoint.
type APIError struct {
	URL    string
	Detail string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("Coinbase API error (%s): %s", e.URL, e.Detail)
}

// UnsupportedCurrencyError requested currency missing from the Coinbase
// exchange-rate table.
type UnsupportedCurrencyError struct {
	Currency string
}

func (e *UnsupportedCurrencyError) Error() string {
	return fmt.Sprintf("Currency %q not supported by Coinbase", e.Currency)
}
