// Package geocode resolves operator base locations through the Google Maps
// Geocoding API.
package geocode

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"googlemaps.github.io/maps"

	"github.com/pkordes/charter-broker/internal/geo"
)

// ErrNoResults is returned when the API found nothing for the address.
var ErrNoResults = errors.New("geocode: no results")

// geocodeClient is the subset of *maps.Client the geocoder uses.
type geocodeClient interface {
	Geocode(ctx context.Context, r *maps.GeocodingRequest) ([]maps.GeocodingResult, error)
}

// Geocoder implements service.Geocoder.
type Geocoder struct {
	client geocodeClient
	region string
}

// New creates a Geocoder for apiKey. region is an optional ccTLD bias
// ("au", "tw").
func New(apiKey, region string) (*Geocoder, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("geocode.New: create maps client: %w", err)
	}
	return &Geocoder{client: client, region: region}, nil
}

// Geocode returns the coordinates of the best match for address.
func (g *Geocoder) Geocode(ctx context.Context, address string) (geo.Point, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return geo.Point{}, fmt.Errorf("geocode.Geocoder.Geocode: empty address")
	}

	results, err := g.client.Geocode(ctx, &maps.GeocodingRequest{Address: address, Region: g.region})
	if err != nil {
		return geo.Point{}, fmt.Errorf("geocode.Geocoder.Geocode: %w", err)
	}
	if len(results) == 0 {
		return geo.Point{}, fmt.Errorf("geocode.Geocoder.Geocode: %q: %w", address, ErrNoResults)
	}

	loc := results[0].Geometry.Location
	p := geo.Point{Lat: loc.Lat, Lng: loc.Lng}
	if !p.Valid() {
		return geo.Point{}, fmt.Errorf("geocode.Geocoder.Geocode: %q resolved to invalid point %v", address, p)
	}
	return p, nil
}
