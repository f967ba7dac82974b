// Package refprice fetches the native asset's USD price.
package refprice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"
)

// DefaultURL is the coinpaprika ticker for XEL quoted in USD.
const DefaultURL = "https://api.coinpaprika.com/v1/tickers/xel-xelis?quotes=USD"

// ErrPriceUnavailable is returned when the feed has no usable price.
var ErrPriceUnavailable = errors.New("reference price unavailable")

// Fetcher reads the reference price from a coinpaprika-style ticker.
type Fetcher struct {
	url     string
	client  *http.Client
	limiter *rate.Limiter
}

// NewFetcher builds a Fetcher allowing perSecond requests per second. A
// non-positive rate disables limiting.
func NewFetcher(url string, perSecond float64, client *http.Client) *Fetcher {
	if url == "" {
		url = DefaultURL
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	limit := rate.Inf
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
	}
	return &Fetcher{url: url, client: client, limiter: rate.NewLimiter(limit, 1)}
}

type tickerResponse struct {
	Quotes map[string]struct {
		Price json.Number `json:"price"`
	} `json:"quotes"`
}

// Fetch returns the current USD price.
func (f *Fetcher) Fetch(ctx context.Context) (decimal.Decimal, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return decimal.Zero, fmt.Errorf("wait for price limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("build price request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("fetch price: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return decimal.Zero, fmt.Errorf("fetch price: status %d", resp.StatusCode)
	}

	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	var ticker tickerResponse
	if err := dec.Decode(&ticker); err != nil {
		return decimal.Zero, fmt.Errorf("decode price response: %w", err)
	}

	quote, ok := ticker.Quotes["USD"]
	if !ok || quote.Price == "" {
		return decimal.Zero, ErrPriceUnavailable
	}
	price, err := decimal.NewFromString(quote.Price.String())
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse price %q: %w", quote.Price, err)
	}
	if !price.IsPositive() {
		return decimal.Zero, ErrPriceUnavailable
	}
	return price, nil
}
