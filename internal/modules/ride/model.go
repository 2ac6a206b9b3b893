// README: Append-only ride log entries.
package ride

import (
	"time"

	"ridesafe/internal/types"
)

type Ride struct {
	ID          int64
	Phone       types.Phone
	Pickup      string
	Destination string
	TravelTime  string
	CreatedAt   time.Time
}
