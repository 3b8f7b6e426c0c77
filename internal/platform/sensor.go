// Package platform assembles Coinbase account sensors for the host.
package platform

import (
	"context"

	"github.com/hausmon/coinbase-sensor/internal/domain"
)

// Attribution credit line attached to every sensor.
const Attribution = "Data provided by Coinbase.com"

// accountReader cached account state consumed by the sensor.
type accountReader interface {
	Refresh(ctx context.Context)
	Balance(native bool) string
	Snapshot() domain.AccountSnapshot
}

// Sensor exposes one Coinbase account as a read-only host entity.
type Sensor struct {
	name   string
	native bool
	data   accountReader
	state  string
}

// NewSensor creates a sensor bound to the given account data and performs
// the first refresh so the host registers a populated entity.
func NewSensor(ctx context.Context, name string, data accountReader, native bool) *Sensor {
	s := &Sensor{
		name:   name,
		native: native,
		data:   data,
	}
	s.data.Refresh(ctx)
	s.state = s.data.Balance(native)

	return s
}

// Name returns the static sensor name.
func (s *Sensor) Name() string {
	return s.name
}

// State returns the balance captured by the last update.
func (s *Sensor) State() string {
	return s.state
}

// Unit returns the currency code of the reported balance.
func (s *Sensor) Unit() string {
	snapshot := s.data.Snapshot()
	if s.native {
		return snapshot.NativeBalance.Currency
	}

	return snapshot.Balance.Currency
}

// Attributes returns the account details for the host attribute map. The
// account id stays out of the map. Pricing attributes appear for wallet
// accounts only.
func (s *Sensor) Attributes() map[string]any {
	snapshot := s.data.Snapshot()
	attrs := map[string]any{
		"attribution":             Attribution,
		"resource":                snapshot.Resource,
		"primary":                 snapshot.Primary,
		"type":                    snapshot.Kind.String(),
		"created_at":              snapshot.CreatedAt,
		"updated_at":              snapshot.UpdatedAt,
		"balance_amount":          snapshot.Balance.Amount,
		"balance_currency":        snapshot.Balance.Currency,
		"native_balance_amount":   snapshot.NativeBalance.Amount,
		"native_balance_currency": snapshot.NativeBalance.Currency,
		"show_native":             s.native,
	}

	if snapshot.Kind == domain.AccountKindWallet {
		attrs["buy_price"] = snapshot.BuyPrice.Display()
		attrs["sell_price"] = snapshot.SellPrice.Display()
		attrs["spot_price"] = snapshot.SpotPrice.Display()
		attrs["exch_rate_native_usd"] = snapshot.ExchangeRate.Display()
	}

	return attrs
}

// Update refreshes the underlying account data and recaptures the state.
func (s *Sensor) Update(ctx context.Context) {
	s.data.Refresh(ctx)
	s.state = s.data.Balance(s.native)
}
