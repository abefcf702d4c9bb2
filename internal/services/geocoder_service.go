// internal/services/geocoder_service.go
package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	geo "github.com/codingsince1985/geo-golang"
	"github.com/codingsince1985/geo-golang/google"
	"github.com/codingsince1985/geo-golang/mapquest/open"
	"github.com/codingsince1985/geo-golang/openstreetmap"

	"github.com/javajoker/coopmarket-backend/internal/config"
)

type GeoPoint struct {
	Latitude  float64
	Longitude float64
}

// Geocoder resolves a free-form address or postal code to coordinates. An
// empty result means the query matched nothing.
type Geocoder interface {
	Geocode(ctx context.Context, query string) ([]GeoPoint, error)
}

type providerGeocoder struct {
	provider geo.Geocoder
	timeout  time.Duration
}

func NewGeocoder(cfg config.GeocoderConfig) (Geocoder, error) {
	var provider geo.Geocoder
	switch strings.ToLower(cfg.Provider) {
	case "", "openstreetmap":
		provider = openstreetmap.Geocoder()
	case "mapquest":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("GEOCODER_API_KEY is required for mapquest")
		}
		provider = open.Geocoder(cfg.APIKey)
	case "google":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("GEOCODER_API_KEY is required for google")
		}
		provider = google.Geocoder(cfg.APIKey)
	default:
		return nil, fmt.Errorf("unsupported geocoder provider %q", cfg.Provider)
	}

	return &providerGeocoder{provider: provider, timeout: 10 * time.Second}, nil
}

func (g *providerGeocoder) Geocode(ctx context.Context, query string) ([]GeoPoint, error) {
	type result struct {
		location *geo.Location
		err      error
	}

	// geo-golang has no context support; bound the call ourselves
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	done := make(chan result, 1)
	go func() {
		location, err := g.provider.Geocode(query)
		done <- result{location: location, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("geocoding %q: %w", query, ctx.Err())
	case res := <-done:
		if res.err != nil {
			return nil, fmt.Errorf("geocoding %q: %w", query, res.err)
		}
		if res.location == nil {
			return nil, nil
		}
		return []GeoPoint{{Latitude: res.location.Lat, Longitude: res.location.Lng}}, nil
	}
}
