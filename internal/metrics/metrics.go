// Package metrics exports Prometheus gauges derived from published sensor
// states.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"

	"github.com/hausmon/coinbase-sensor/internal/hub"
)

// Recorder keeps Prometheus gauges in sync with published sensor states.
// It carries its own registry so the process default stays untouched.
type Recorder struct {
	registry      *prometheus.Registry
	balance       *prometheus.GaugeVec
	nativeBalance *prometheus.GaugeVec
	price         *prometheus.GaugeVec
	exchangeRate  *prometheus.GaugeVec
	publishes     prometheus.Counter
}

// NewRecorder registers the sensor gauges on a fresh registry.
func NewRecorder() *Recorder {
	r := &Recorder{registry: prometheus.NewRegistry()}

	r.balance = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "coinbase",
		Name:      "account_balance",
		Help:      "Account balance in the account currency",
	}, []string{"sensor", "currency"})
	r.nativeBalance = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "coinbase",
		Name:      "account_native_balance",
		Help:      "Account balance converted to the user's native currency",
	}, []string{"sensor", "currency"})
	r.price = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "coinbase",
		Name:      "wallet_price",
		Help:      "Latest wallet currency price in the native currency by side",
	}, []string{"sensor", "side"})
	r.exchangeRate = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "coinbase",
		Name:      "exchange_rate_native_usd",
		Help:      "Exchange rate from the native currency to USD",
	}, []string{"sensor"})
	r.publishes = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "coinbase",
		Name:      "state_publishes_total",
		Help:      "Number of state publish passes observed",
	})

	r.registry.MustRegister(r.balance, r.nativeBalance, r.price, r.exchangeRate, r.publishes)

	return r
}

// Handler serves the gauges in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Observe updates the gauges from one publish pass. Values that do not parse
// as decimals are skipped; unavailable prices carry their failure reason in
// place of a number.
func (r *Recorder) Observe(states []hub.EntityState) {
	r.publishes.Inc()

	for _, state := range states {
		attrs := state.Attributes
		r.set(r.balance, attrs, "balance_amount", state.Name, attrString(attrs, "balance_currency"))
		r.set(r.nativeBalance, attrs, "native_balance_amount", state.Name, attrString(attrs, "native_balance_currency"))
		r.set(r.price, attrs, "buy_price", state.Name, "buy")
		r.set(r.price, attrs, "sell_price", state.Name, "sell")
		r.set(r.price, attrs, "spot_price", state.Name, "spot")
		r.set(r.exchangeRate, attrs, "exch_rate_native_usd", state.Name)
	}
}

func (r *Recorder) set(gauge *prometheus.GaugeVec, attrs map[string]any, key string, labels ...string) {
	raw := attrString(attrs, key)
	if raw == "" {
		return
	}

	val, err := decimal.NewFromString(raw)
	if err != nil {
		return
	}
	gauge.WithLabelValues(labels...).Set(val.InexactFloat64())
}

func attrString(attrs map[string]any, key string) string {
	val, ok := attrs[key].(string)
	if !ok {
		return ""
	}

	return val
}
