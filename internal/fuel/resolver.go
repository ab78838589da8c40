// README: Fuel price resolver: fetches the current diesel price, cached.
package fuel

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"frete/internal/ratecache"
)

// ErrUnavailable is returned when the pricing provider fails or returns a
// value that does not parse to a finite number.
var ErrUnavailable = errors.New("fuel price unavailable")

// cacheKey is fixed: there is one reference diesel price in scope.
const cacheKey = "fuel:diesel-sc"

// Quote is the raw provider answer. Raw carries a locale-formatted decimal
// string with a comma separator, e.g. "6,10".
type Quote struct {
	Raw         string
	CollectedAt string
	Source      string
}

// Provider fetches the current diesel price quote.
type Provider interface {
	CurrentDieselPrice(ctx context.Context) (Quote, error)
}

// Price is the parsed diesel price.
type Price struct {
	Value       float64 `json:"value"`
	CollectedAt string  `json:"collected_at"`
	Source      string  `json:"source"`
}

type Resolver struct {
	provider Provider
	cache    *ratecache.Cache
	ttl      time.Duration
	timeout  time.Duration
}

func NewResolver(provider Provider, cache *ratecache.Cache, ttl, timeout time.Duration) *Resolver {
	return &Resolver{provider: provider, cache: cache, ttl: ttl, timeout: timeout}
}

func (r *Resolver) Resolve(ctx context.Context) (Price, error) {
	return ratecache.GetOrFetch(ctx, r.cache, cacheKey, r.ttl, r.fetch)
}

func (r *Resolver) fetch(ctx context.Context) (Price, error) {
	fctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	quote, err := r.provider.CurrentDieselPrice(fctx)
	if err != nil {
		return Price{}, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	value, err := parsePrice(quote.Raw)
	if err != nil {
		return Price{}, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	return Price{Value: value, CollectedAt: quote.CollectedAt, Source: quote.Source}, nil
}

func parsePrice(raw string) (float64, error) {
	if raw == "" {
		return 0, errors.New("price missing from provider response")
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", "."), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("invalid price %q", raw)
	}
	return v, nil
}
