package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestPriceResult_ZeroValue(t *testing.T) {
	var r PriceResult

	assert.False(t, r.Set())
	assert.False(t, r.OK())
	assert.Empty(t, r.Reason())
	assert.True(t, r.Amount().IsZero())
}

func TestPriceResult_Available(t *testing.T) {
	amount := decimal.RequireFromString("16102.93")
	r := PriceAvailable(amount)

	assert.True(t, r.Set())
	assert.True(t, r.OK())
	assert.True(t, amount.Equal(r.Amount()))
	assert.Empty(t, r.Reason())
	assert.Equal(t, "16102.93", r.Display())
}

func TestPriceResult_Unavailable(t *testing.T) {
	r := PriceUnavailable(`Currency "XYZ" not supported by Coinbase`)

	assert.True(t, r.Set())
	assert.False(t, r.OK())
	assert.True(t, r.Amount().IsZero())
	assert.Equal(t, `Currency "XYZ" not supported by Coinbase`, r.Reason())
	assert.Equal(t, `Currency "XYZ" not supported by Coinbase`, r.Display())
}
