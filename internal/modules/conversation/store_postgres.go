package conversation

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"ridesafe/internal/infra"
	"ridesafe/internal/modules/profile"
	"ridesafe/internal/modules/ride"
	"ridesafe/internal/types"
)

// PostgresStore persists profiles, rides and conversation_states. Each Commit
// runs in one transaction.
type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Load(ctx context.Context, phone types.Phone) (Snapshot, error) {
	var snap Snapshot

	p, err := profile.NewStore(s.db).Get(ctx, phone)
	switch {
	case err == nil:
		snap.Profile = p
	case !errors.Is(err, profile.ErrNotFound):
		return Snapshot{}, err
	}

	c, version, err := getConversation(ctx, s.db, phone)
	if err != nil {
		return Snapshot{}, err
	}
	snap.Conversation = c
	snap.version = version
	return snap, nil
}

func (s *PostgresStore) Commit(ctx context.Context, m Mutation) error {
	return pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		// The version check goes first so a losing writer touches nothing.
		if err := writeConversation(ctx, tx, m); err != nil {
			return err
		}

		profiles := profile.NewStore(tx)
		if m.SaveProfile != nil {
			if err := profiles.Upsert(ctx, *m.SaveProfile); err != nil {
				return err
			}
		}
		if m.UpdateZip != "" {
			if err := profiles.UpdateZip(ctx, m.Phone, m.UpdateZip); err != nil {
				return err
			}
		}
		if m.AppendRide != nil {
			if err := ride.NewStore(tx).Insert(ctx, m.AppendRide); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *PostgresStore) Reset(ctx context.Context, phone types.Phone) error {
	_, err := s.db.Exec(ctx, tombstoneSQL+` WHERE phone_number = $1`, string(phone))
	return err
}

// A finished conversation leaves its row behind in state NONE so the version
// keeps counting up across conversations.
const tombstoneSQL = `
	UPDATE conversation_states
	SET current_step = 'NONE',
	    temp_profile_token = '',
	    temp_gender = '',
	    temp_zip_code = '',
	    temp_pickup = '',
	    temp_destination = '',
	    temp_travel_time = '',
	    suggested_zip = '',
	    retries = 0,
	    updated_at = NOW(),
	    version = version + 1`

// getConversation returns the live conversation, or nil, plus the stored
// version (0 when the phone has never had a row).
func getConversation(ctx context.Context, db infra.DBTX, phone types.Phone) (*Conversation, int, error) {
	var c Conversation
	err := db.QueryRow(ctx, `
		SELECT phone_number, current_step, temp_profile_token, temp_gender, temp_zip_code,
		       temp_pickup, temp_destination, temp_travel_time, suggested_zip,
		       channel, retries, version, updated_at
		FROM conversation_states
		WHERE phone_number = $1`, string(phone),
	).Scan(
		&c.Phone, &c.State, &c.Token, &c.Gender, &c.Zip,
		&c.Pickup, &c.Destination, &c.TravelTime, &c.SuggestedZip,
		&c.Channel, &c.Retries, &c.Version, &c.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, 0, nil
	}
	if err != nil {
		return nil, 0, err
	}
	if c.State == StateNone {
		return nil, c.Version, nil
	}
	return &c, c.Version, nil
}

func writeConversation(ctx context.Context, tx pgx.Tx, m Mutation) error {
	switch {
	case m.Put != nil && m.ExpectedVersion == 0:
		c := m.Put
		tag, err := tx.Exec(ctx, `
			INSERT INTO conversation_states (
				phone_number, current_step, temp_profile_token, temp_gender, temp_zip_code,
				temp_pickup, temp_destination, temp_travel_time, suggested_zip,
				channel, retries, version, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, 1, $12)
			ON CONFLICT (phone_number) DO NOTHING`,
			string(m.Phone), string(c.State), c.Token, string(c.Gender), c.Zip,
			c.Pickup, c.Destination, c.TravelTime, c.SuggestedZip,
			string(c.Channel), c.Retries, c.UpdatedAt,
		)
		if err != nil {
			return err
		}
		if tag.RowsAffected() != 1 {
			return ErrConflict
		}
	case m.Put != nil:
		c := m.Put
		tag, err := tx.Exec(ctx, `
			UPDATE conversation_states
			SET current_step = $2,
			    temp_profile_token = $3,
			    temp_gender = $4,
			    temp_zip_code = $5,
			    temp_pickup = $6,
			    temp_destination = $7,
			    temp_travel_time = $8,
			    suggested_zip = $9,
			    channel = $10,
			    retries = $11,
			    updated_at = $12,
			    version = version + 1
			WHERE phone_number = $1 AND version = $13`,
			string(m.Phone), string(c.State), c.Token, string(c.Gender), c.Zip,
			c.Pickup, c.Destination, c.TravelTime, c.SuggestedZip,
			string(c.Channel), c.Retries, c.UpdatedAt, m.ExpectedVersion,
		)
		if err != nil {
			return err
		}
		if tag.RowsAffected() != 1 {
			return ErrConflict
		}
	case m.Delete && m.ExpectedVersion > 0:
		tag, err := tx.Exec(ctx, tombstoneSQL+` WHERE phone_number = $1 AND version = $2`, string(m.Phone), m.ExpectedVersion)
		if err != nil {
			return err
		}
		if tag.RowsAffected() != 1 {
			return ErrConflict
		}
	default:
		// Nothing to write; the stored version must still be the one we read.
		var version int
		err := tx.QueryRow(ctx, `SELECT version FROM conversation_states WHERE phone_number = $1 FOR UPDATE`, string(m.Phone)).Scan(&version)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return err
		}
		if version != m.ExpectedVersion {
			return ErrConflict
		}
	}
	return nil
}
