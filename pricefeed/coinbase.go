// Package pricefeed fetches the external fair price the quoter centers its
// quotes on.
package pricefeed

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
)

// Feed is a blocking fair-price lookup, performed once per driver cycle.
type Feed interface {
	FairPrice(ctx context.Context) (decimal.Decimal, error)
}

// ErrNoPrice is returned when a feed has no usable price.
var ErrNoPrice = errors.New("no price available")

const DefaultCoinbaseURL = "https://api.coinbase.com"

// CoinbaseSpot looks up the spot price for one ticker (e.g. "SOL-USD")
// from the Coinbase price API.
type CoinbaseSpot struct {
	BaseURL    string
	Ticker     string
	HTTPClient *http.Client
}

// NewCoinbaseSpot builds a REST feed for ticker with sane timeouts.
func NewCoinbaseSpot(ticker string) *CoinbaseSpot {
	return &CoinbaseSpot{
		BaseURL:    DefaultCoinbaseURL,
		Ticker:     ticker,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type spotResponse struct {
	Data struct {
		Base     string `json:"base"`
		Currency string `json:"currency"`
		Amount   string `json:"amount"`
	} `json:"data"`
}

func (c *CoinbaseSpot) FairPrice(ctx context.Context) (decimal.Decimal, error) {
	url := fmt.Sprintf("%s/v2/prices/%s/spot", c.BaseURL, c.Ticker)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("build spot request: %w", err)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("fetch spot price: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("fetch spot price: unexpected status %d", resp.StatusCode)
	}
	var body spotResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return decimal.Zero, fmt.Errorf("decode spot response: %w", err)
	}
	if body.Data.Amount == "" {
		return decimal.Zero, ErrNoPrice
	}
	price, err := decimal.NewFromString(body.Data.Amount)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse spot price %q: %w", body.Data.Amount, err)
	}
	if !price.IsPositive() {
		return decimal.Zero, ErrNoPrice
	}
	return price, nil
}

// ToQuoteAtoms converts a decimal price into the quote asset's smallest
// unit, truncating any fraction below one atom.
func ToQuoteAtoms(price decimal.Decimal, atomsPerQuoteUnit int64) uint64 {
	atoms := price.Mul(decimal.NewFromInt(atomsPerQuoteUnit)).IntPart()
	if atoms < 0 {
		return 0
	}
	return uint64(atoms)
}
