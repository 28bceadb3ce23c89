// Package geo answers "near me" style questions with Google geocoding and places.
package geo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/wolfman30/aria-bots/pkg/logging"
	"googlemaps.github.io/maps"
)

// ErrNotFound means the location could not be resolved.
var ErrNotFound = errors.New("geo: location not found")

const (
	nearbyRadiusMeters = 1000
	maxNearbyResults   = 5
)

// Place is a single nearby point of interest.
type Place struct {
	Name             string
	Vicinity         string
	Rating           float32
	UserRatingsTotal int
}

// Location is a geocoded address.
type Location struct {
	FormattedAddress string
	Lat, Lng         float64
}

// Provider is the subset of the maps client used by Service.
type Provider interface {
	Geocode(ctx context.Context, address string) ([]Location, error)
	NearbyRestaurants(ctx context.Context, at Location, radiusMeters uint) ([]Place, error)
}

// Service formats location replies.
type Service struct {
	provider Provider
	logger   *logging.Logger
}

// NewService wires a Service over provider.
func NewService(provider Provider, logger *logging.Logger) *Service {
	if provider == nil {
		panic("geo: provider required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{provider: provider, logger: logger}
}

// Describe geocodes location and lists up to five nearby restaurants. When the places
// lookup fails or is empty it falls back to the resolved address alone.
func (s *Service) Describe(ctx context.Context, location string) (string, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return "", ErrNotFound
	}
	results, err := s.provider.Geocode(ctx, location)
	if err != nil {
		return "", fmt.Errorf("geo: geocode %q: %w", location, err)
	}
	if len(results) == 0 {
		return "", ErrNotFound
	}
	loc := results[0]

	places, err := s.provider.NearbyRestaurants(ctx, loc, nearbyRadiusMeters)
	if err != nil {
		s.logger.Warn("nearby places lookup failed", "address", loc.FormattedAddress, "error", err)
	}
	if len(places) == 0 {
		return fmt.Sprintf("📍 *Location found:*\n%s", loc.FormattedAddress), nil
	}
	if len(places) > maxNearbyResults {
		places = places[:maxNearbyResults]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📍 *Nearby restaurants in %s:*\n\n", loc.FormattedAddress)
	for i, p := range places {
		fmt.Fprintf(&b, "*%d.* %s - %s\n", i+1, p.Name, p.Vicinity)
		if p.Rating > 0 {
			fmt.Fprintf(&b, "   Rating: %.1f⭐ (%d reviews)\n", p.Rating, p.UserRatingsTotal)
		}
	}
	return b.String(), nil
}

// MapsProvider adapts the Google Maps client to Provider.
type MapsProvider struct {
	client *maps.Client
}

// NewMapsProvider builds a provider authenticated with apiKey. baseURL overrides the
// API host and is only set in tests.
func NewMapsProvider(apiKey, baseURL string) (*MapsProvider, error) {
	opts := []maps.ClientOption{maps.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, maps.WithBaseURL(baseURL))
	}
	client, err := maps.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("geo: maps client: %w", err)
	}
	return &MapsProvider{client: client}, nil
}

func (p *MapsProvider) Geocode(ctx context.Context, address string) ([]Location, error) {
	results, err := p.client.Geocode(ctx, &maps.GeocodingRequest{Address: address})
	if err != nil {
		if strings.Contains(err.Error(), "ZERO_RESULTS") {
			return nil, nil
		}
		return nil, err
	}
	out := make([]Location, 0, len(results))
	for _, r := range results {
		out = append(out, Location{
			FormattedAddress: r.FormattedAddress,
			Lat:              r.Geometry.Location.Lat,
			Lng:              r.Geometry.Location.Lng,
		})
	}
	return out, nil
}

func (p *MapsProvider) NearbyRestaurants(ctx context.Context, at Location, radiusMeters uint) ([]Place, error) {
	resp, err := p.client.NearbySearch(ctx, &maps.NearbySearchRequest{
		Location: &maps.LatLng{Lat: at.Lat, Lng: at.Lng},
		Radius:   radiusMeters,
		Type:     maps.PlaceTypeRestaurant,
	})
	if err != nil {
		if strings.Contains(err.Error(), "ZERO_RESULTS") {
			return nil, nil
		}
		return nil, err
	}
	out := make([]Place, 0, len(resp.Results))
	for _, r := range resp.Results {
		out = append(out, Place{
			Name:             r.Name,
			Vicinity:         r.Vicinity,
			Rating:           r.Rating,
			UserRatingsTotal: r.UserRatingsTotal,
		})
	}
	return out, nil
}
