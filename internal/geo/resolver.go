// README: Distance resolver: geocodes two place names and routes between them, cached.
package geo

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"frete/internal/ratecache"
	"frete/internal/types"
)

// ErrUnavailable is returned when either place name cannot be resolved or the
// routing provider finds no route between the two points.
var ErrUnavailable = errors.New("distance unavailable")

// Geocoder resolves a place name to coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, place string) (types.Point, error)
}

// Router computes the driving route between two coordinate pairs.
type Router interface {
	Route(ctx context.Context, from, to types.Point) (Leg, error)
}

// Leg is the raw route result as returned by the routing provider.
type Leg struct {
	DistanceMeters float64
	Duration       time.Duration
}

// Route is the resolved one-way driving route between two places.
type Route struct {
	DistanceKm  float64 `json:"distance_km"`
	DurationMin int     `json:"duration_min"`
}

type Resolver struct {
	geocoder Geocoder
	router   Router
	cache    *ratecache.Cache
	ttl      time.Duration
	timeout  time.Duration
}

func NewResolver(geocoder Geocoder, router Router, cache *ratecache.Cache, ttl, timeout time.Duration) *Resolver {
	return &Resolver{geocoder: geocoder, router: router, cache: cache, ttl: ttl, timeout: timeout}
}

// Resolve returns the one-way driving distance and duration between origin and
// destination. Results are cached under a normalized key so "Joinville" and
// "joinville" share an entry.
func (r *Resolver) Resolve(ctx context.Context, origin, destination string) (Route, error) {
	key := cacheKey(origin, destination)
	return ratecache.GetOrFetch(ctx, r.cache, key, r.ttl, func(ctx context.Context) (Route, error) {
		return r.fetch(ctx, origin, destination)
	})
}

func (r *Resolver) fetch(ctx context.Context, origin, destination string) (Route, error) {
	from, err := r.geocode(ctx, origin)
	if err != nil {
		return Route{}, err
	}
	to, err := r.geocode(ctx, destination)
	if err != nil {
		return Route{}, err
	}

	rctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	leg, err := r.router.Route(rctx, from, to)
	if err != nil {
		return Route{}, fmt.Errorf("%w: route %q -> %q: %w", ErrUnavailable, origin, destination, err)
	}

	return Route{
		DistanceKm:  finiteOrZero(leg.DistanceMeters / 1000),
		DurationMin: int(math.Round(finiteOrZero(leg.Duration.Seconds() / 60))),
	}, nil
}

func (r *Resolver) geocode(ctx context.Context, place string) (types.Point, error) {
	gctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	p, err := r.geocoder.Geocode(gctx, place)
	if err != nil {
		return types.Point{}, fmt.Errorf("%w: geocode %q: %w", ErrUnavailable, place, err)
	}
	return p, nil
}

func cacheKey(origin, destination string) string {
	norm := func(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
	return "distance:" + norm(origin) + "->" + norm(destination)
}

func finiteOrZero(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
