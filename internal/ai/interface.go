package ai

import (
	"context"
)

// TripExtractor pulls a pickup and destination out of a free-form booking
// message that did not follow the address formatting rules.
type TripExtractor interface {
	ExtractTrip(ctx context.Context, message string) (*TripResult, error)
}
