package ride

import (
	"context"

	"ridesafe/internal/infra"
	"ridesafe/internal/types"
)

// Store appends to and reads from the ride log. db may be a pool or an open
// transaction.
type Store struct {
	db infra.DBTX
}

func NewStore(db infra.DBTX) *Store {
	return &Store{db: db}
}

// Insert appends r and fills in its ID.
func (s *Store) Insert(ctx context.Context, r *Ride) error {
	return s.db.QueryRow(ctx, `
		INSERT INTO rides (phone_number, pickup, destination, travel_time, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		string(r.Phone), r.Pickup, r.Destination, r.TravelTime, r.CreatedAt,
	).Scan(&r.ID)
}

// ListByPhone returns the most recent rides for phone, newest first.
func (s *Store) ListByPhone(ctx context.Context, phone types.Phone, limit int) ([]Ride, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(ctx, `
		SELECT id, phone_number, pickup, destination, travel_time, created_at
		FROM rides
		WHERE phone_number = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2`, string(phone), limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Ride
	for rows.Next() {
		var r Ride
		if err := rows.Scan(&r.ID, &r.Phone, &r.Pickup, &r.Destination, &r.TravelTime, &r.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
