package profile

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"ridesafe/internal/infra"
	"ridesafe/internal/types"
)

// Store reads and writes profiles. db may be a pool or an open transaction.
type Store struct {
	db infra.DBTX
}

func NewStore(db infra.DBTX) *Store {
	return &Store{db: db}
}

func (s *Store) Get(ctx context.Context, phone types.Phone) (*Profile, error) {
	var p Profile
	err := s.db.QueryRow(ctx, `
		SELECT phone_number, profile_token, gender, zip_code, created_at
		FROM profiles
		WHERE phone_number = $1`, string(phone),
	).Scan(&p.Phone, &p.Token, &p.Gender, &p.Zip, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Upsert inserts the profile or replaces an existing one for the same phone.
func (s *Store) Upsert(ctx context.Context, p Profile) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO profiles (phone_number, profile_token, gender, zip_code, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (phone_number) DO UPDATE
		SET profile_token = EXCLUDED.profile_token,
		    gender = EXCLUDED.gender,
		    zip_code = EXCLUDED.zip_code,
		    created_at = EXCLUDED.created_at`,
		string(p.Phone), p.Token, string(p.Gender), p.Zip, p.CreatedAt,
	)
	return err
}

func (s *Store) UpdateZip(ctx context.Context, phone types.Phone, zip string) error {
	tag, err := s.db.Exec(ctx, `UPDATE profiles SET zip_code = $1 WHERE phone_number = $2`, zip, string(phone))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
