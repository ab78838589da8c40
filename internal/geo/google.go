package geo

import (
	"context"
	"fmt"

	"googlemaps.github.io/maps"

	"frete/internal/types"
)

// GoogleClient implements Geocoder and Router against the Google Maps API.
type GoogleClient struct {
	client *maps.Client
}

func NewGoogleClient(apiKey string) (*GoogleClient, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return &GoogleClient{client: client}, nil
}

func (g *GoogleClient) Geocode(ctx context.Context, place string) (types.Point, error) {
	results, err := g.client.Geocode(ctx, &maps.GeocodingRequest{Address: place})
	if err != nil {
		return types.Point{}, fmt.Errorf("geocoding api error: %w", err)
	}
	if len(results) == 0 {
		return types.Point{}, fmt.Errorf("place %q not found", place)
	}
	loc := results[0].Geometry.Location
	return types.Point{Lat: loc.Lat, Lng: loc.Lng}, nil
}

func (g *GoogleClient) Route(ctx context.Context, from, to types.Point) (Leg, error) {
	r := &maps.DirectionsRequest{
		Origin:      fmt.Sprintf("%f,%f", from.Lat, from.Lng),
		Destination: fmt.Sprintf("%f,%f", to.Lat, to.Lng),
		Mode:        maps.TravelModeDriving,
	}

	routes, _, err := g.client.Directions(ctx, r)
	if err != nil {
		return Leg{}, fmt.Errorf("maps api error: %w", err)
	}
	if len(routes) == 0 || len(routes[0].Legs) == 0 {
		return Leg{}, fmt.Errorf("no route found")
	}

	leg := routes[0].Legs[0]
	return Leg{
		DistanceMeters: float64(leg.Distance.Meters),
		Duration:       leg.Duration,
	}, nil
}
