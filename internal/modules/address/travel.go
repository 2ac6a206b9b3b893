package address

import (
	"context"
	"fmt"
)

// TravelTimer asks the distance oracle for a display duration between two
// canonical addresses.
type TravelTimer struct {
	oracle DurationOracle
}

func NewTravelTimer(oracle DurationOracle) *TravelTimer {
	return &TravelTimer{oracle: oracle}
}

// Estimate returns the human readable duration, or an error wrapping ErrTravelTime.
func (t *TravelTimer) Estimate(ctx context.Context, origin, destination string) (string, error) {
	res, err := t.oracle.TravelDuration(ctx, origin, destination)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTravelTime, err)
	}
	if res.Status != StatusOK || res.Text == "" {
		return "", fmt.Errorf("%w: status %s", ErrTravelTime, res.Status)
	}
	return res.Text, nil
}
