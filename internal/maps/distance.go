package maps

import (
	"context"
	"fmt"
	"strings"
	"time"

	"googlemaps.github.io/maps"

	"ridesafe/internal/modules/address"
)

// DistanceService handles Distance Matrix lookups between two addresses.
type DistanceService struct {
	client *maps.Client
}

func NewDistanceService(apiKey string, opts ...maps.ClientOption) (*DistanceService, error) {
	client, err := newClient(apiKey, opts...)
	if err != nil {
		return nil, err
	}
	return &DistanceService{client: client}, nil
}

// TravelDuration returns the driving duration between origin and destination
// as a display string. It assumes driving mode.
func (s *DistanceService) TravelDuration(ctx context.Context, origin, destination string) (address.DurationResult, error) {
	resp, err := s.client.DistanceMatrix(ctx, &maps.DistanceMatrixRequest{
		Origins:      []string{origin},
		Destinations: []string{destination},
		Mode:         maps.TravelModeDriving,
	})
	if err != nil {
		if status, ok := statusFromError(err); ok {
			return address.DurationResult{Status: status}, nil
		}
		return address.DurationResult{}, fmt.Errorf("maps api error: %w", err)
	}
	if len(resp.Rows) == 0 || len(resp.Rows[0].Elements) == 0 {
		return address.DurationResult{Status: address.StatusZeroResults}, nil
	}
	el := resp.Rows[0].Elements[0]
	if el.Status != address.StatusOK {
		return address.DurationResult{Status: el.Status}, nil
	}
	return address.DurationResult{Status: address.StatusOK, Text: FormatDuration(el.Duration)}, nil
}

// FormatDuration renders a duration the way the Distance Matrix API does in its
// text field: "1 min", "25 mins", "1 hour 5 mins", "2 days 3 hours".
func FormatDuration(d time.Duration) string {
	mins := int((d + 30*time.Second) / time.Minute)
	if mins < 1 {
		mins = 1
	}
	days, hours := mins/(24*60), (mins/60)%24
	mins %= 60

	var parts []string
	switch {
	case days > 0:
		parts = append(parts, plural(days, "day"))
		if hours > 0 {
			parts = append(parts, plural(hours, "hour"))
		}
	case hours > 0:
		parts = append(parts, plural(hours, "hour"))
		if mins > 0 {
			parts = append(parts, plural(mins, "min"))
		}
	default:
		parts = append(parts, plural(mins, "min"))
	}
	return strings.Join(parts, " ")
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
