package clients

import (
	"github.com/hausmon/coinbase-sensor/internal/coinbase"
)

// NewCoinbaseClient creates a wallet API client for the given key pair.
// Platform code builds one per refresh pass through this factory so tests
// can swap the construction out.
func NewCoinbaseClient(apiKey, apiSecret string, opts ...coinbase.Option) *coinbase.Client {
	client := coinbase.New(apiKey, apiSecret, opts...)
	return client
}
