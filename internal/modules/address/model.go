// README: Address candidates and the geocoding / distance oracle contracts.
package address

import (
	"context"

	"ridesafe/internal/types"
)

// Oracle status codes, as reported by the geocoding and distance providers.
const (
	StatusOK          = "OK"
	StatusZeroResults = "ZERO_RESULTS"
)

type Component struct {
	LongName  string
	ShortName string
	Types     []string
}

// Candidate is one geocoding result. Score and DistanceKm are filled in by the
// resolver and only live for the duration of one resolution.
type Candidate struct {
	FormattedAddress string
	Location         types.Point
	Components       []Component
	Score            float64
	DistanceKm       *float64
}

type GeocodeResponse struct {
	Status  string
	Results []Candidate
}

// Geocoder turns free text into candidate addresses.
type Geocoder interface {
	Geocode(ctx context.Context, query string) (GeocodeResponse, error)
}

type DurationResult struct {
	Status string
	Text   string
}

// DurationOracle estimates travel duration between two addresses.
type DurationOracle interface {
	TravelDuration(ctx context.Context, origin, destination string) (DurationResult, error)
}
