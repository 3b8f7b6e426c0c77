package pricer

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/hausmon/coinbase-sensor/internal/coinbase"
	"github.com/hausmon/coinbase-sensor/internal/domain"
	"github.com/shopspring/decimal"
)

// CoinbasePricer fetches quotes from the public Coinbase data endpoints.
// These endpoints take no credentials.
type CoinbasePricer struct {
	baseURL string
	client  *http.Client
}

type priceResponse struct {
	Data struct {
		Amount   string `json:"amount"`
		Currency string `json:"currency"`
	} `json:"data"`
}

type exchangeRatesResponse struct {
	Data struct {
		Currency string            `json:"currency"`
		Rates    map[string]string `json:"rates"`
	} `json:"data"`
}

// NewCoinbasePricer creates a pricer against the given endpoint, falling
// back to the production API when baseURL is empty.
func NewCoinbasePricer(baseURL string, timeout time.Duration) *CoinbasePricer {
	if baseURL == "" {
		baseURL = coinbase.DefaultBaseURL
	}
	tr := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 60 * time.Second,
		}).DialContext,
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 5 * time.Second,
	}

	return &CoinbasePricer{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout:   timeout,
			Transport: tr,
		},
	}
}

// Price fetches the buy, sell or spot price for the pair.
func (p *CoinbasePricer) Price(ctx context.Context, kind domain.PriceKind, pair domain.Pair) (decimal.Decimal, error) {
	reqURL := fmt.Sprintf("%s/v2/prices/%s/%s", p.baseURL, pair.Slug(), kind)

	var resp priceResponse
	if err := p.getJSON(ctx, reqURL, &resp); err != nil {
		return decimal.Decimal{}, err
	}

	return decimal.NewFromString(resp.Data.Amount)
}

// ExchangeRate fetches the default exchange-rate table and returns the rate
// for the given currency.
func (p *CoinbasePricer) ExchangeRate(ctx context.Context, currency string) (decimal.Decimal, error) {
	reqURL := p.baseURL + "/v2/exchange-rates"

	var resp exchangeRatesResponse
	if err := p.getJSON(ctx, reqURL, &resp); err != nil {
		return decimal.Decimal{}, err
	}

	rate, ok := resp.Data.Rates[currency]
	if !ok {
		return decimal.Decimal{}, &UnsupportedCurrencyError{Currency: currency}
	}

	return decimal.NewFromString(rate)
}

func (p *CoinbasePricer) getJSON(ctx context.Context, reqURL string, result any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("CB-VERSION", coinbase.APIVersion)
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return &APIError{URL: reqURL, Detail: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return &APIError{URL: reqURL, Detail: resp.Status}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return &APIError{URL: reqURL, Detail: err.Error()}
	}

	return nil
}
