// README: Google Maps geocoding adapter implementing address.Geocoder.
package maps

import (
	"context"
	"fmt"
	"strings"

	"googlemaps.github.io/maps"

	"ridesafe/internal/modules/address"
	"ridesafe/internal/types"
)

// GeocodeService wraps the Geocoding API.
type GeocodeService struct {
	client *maps.Client
}

// NewGeocodeService creates a new GeocodeService with the given API Key.
func NewGeocodeService(apiKey string, opts ...maps.ClientOption) (*GeocodeService, error) {
	client, err := newClient(apiKey, opts...)
	if err != nil {
		return nil, err
	}
	return &GeocodeService{client: client}, nil
}

func newClient(apiKey string, opts ...maps.ClientOption) (*maps.Client, error) {
	all := append([]maps.ClientOption{maps.WithAPIKey(apiKey)}, opts...)
	client, err := maps.NewClient(all...)
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return client, nil
}

// Geocode queries the API with free text. Non-success statuses are returned in
// the response rather than as errors so the resolver can tell them apart from
// transport failures.
func (s *GeocodeService) Geocode(ctx context.Context, query string) (address.GeocodeResponse, error) {
	results, err := s.client.Geocode(ctx, &maps.GeocodingRequest{Address: query})
	if err != nil {
		if status, ok := statusFromError(err); ok {
			return address.GeocodeResponse{Status: status}, nil
		}
		return address.GeocodeResponse{}, fmt.Errorf("maps api error: %w", err)
	}
	if len(results) == 0 {
		return address.GeocodeResponse{Status: address.StatusZeroResults}, nil
	}
	return address.GeocodeResponse{Status: address.StatusOK, Results: toCandidates(results)}, nil
}

func toCandidates(results []maps.GeocodingResult) []address.Candidate {
	out := make([]address.Candidate, 0, len(results))
	for _, r := range results {
		comps := make([]address.Component, 0, len(r.AddressComponents))
		for _, c := range r.AddressComponents {
			comps = append(comps, address.Component{LongName: c.LongName, ShortName: c.ShortName, Types: c.Types})
		}
		out = append(out, address.Candidate{
			FormattedAddress: r.FormattedAddress,
			Location:         types.Point{Lat: r.Geometry.Location.Lat, Lng: r.Geometry.Location.Lng},
			Components:       comps,
		})
	}
	return out
}

// statusFromError extracts the API status from errors of the form
// "maps: REQUEST_DENIED - message".
func statusFromError(err error) (string, bool) {
	msg, ok := strings.CutPrefix(err.Error(), "maps: ")
	if !ok {
		return "", false
	}
	status, _, _ := strings.Cut(msg, " ")
	if status == "" || strings.ToUpper(status) != status {
		return "", false
	}
	return status, true
}
