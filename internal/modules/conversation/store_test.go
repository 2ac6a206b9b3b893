package conversation

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"ridesafe/internal/infra"
	"ridesafe/internal/modules/profile"
	"ridesafe/internal/modules/ride"
	"ridesafe/internal/types"
)

// storeContract runs the behaviour every Store must share. rides lists the
// ride log for a phone.
func storeContract(t *testing.T, newStore func(t *testing.T) (Store, func(types.Phone) []ride.Ride)) {
	ctx := context.Background()
	now := time.Date(2025, 1, 8, 12, 0, 0, 0, time.UTC)
	const phone types.Phone = "+15550002222"
	p := profile.Profile{Phone: phone, Token: "1234", Gender: profile.GenderFemale, Zip: "90210", CreatedAt: now}
	conv := func(s State) *Conversation {
		return &Conversation{Phone: phone, State: s, Channel: ChannelSMS, UpdatedAt: now}
	}

	t.Run("empty load", func(t *testing.T) {
		store, _ := newStore(t)
		snap, err := store.Load(ctx, phone)
		if err != nil {
			t.Fatalf("load: %v", err)
		}
		if snap.Profile != nil || snap.Conversation != nil || snap.Version() != 0 {
			t.Fatalf("snapshot = %+v", snap)
		}
	})

	t.Run("put increments version", func(t *testing.T) {
		store, _ := newStore(t)
		if err := store.Commit(ctx, Mutation{Phone: phone, Put: conv(StateAwaitingProfileName)}); err != nil {
			t.Fatalf("insert: %v", err)
		}
		c := conv(StateAwaitingGender)
		c.Token = "1234"
		if err := store.Commit(ctx, Mutation{Phone: phone, ExpectedVersion: 1, Put: c}); err != nil {
			t.Fatalf("update: %v", err)
		}
		snap, _ := store.Load(ctx, phone)
		if snap.Version() != 2 || snap.Conversation.State != StateAwaitingGender || snap.Conversation.Token != "1234" {
			t.Fatalf("conversation = %+v", snap.Conversation)
		}
	})

	t.Run("stale version conflicts", func(t *testing.T) {
		store, _ := newStore(t)
		if err := store.Commit(ctx, Mutation{Phone: phone, Put: conv(StateAwaitingProfileName)}); err != nil {
			t.Fatal(err)
		}
		if err := store.Commit(ctx, Mutation{Phone: phone, Put: conv(StateAwaitingGender)}); !errors.Is(err, ErrConflict) {
			t.Fatalf("second insert: expected ErrConflict, got %v", err)
		}
		if err := store.Commit(ctx, Mutation{Phone: phone, ExpectedVersion: 7, Delete: true}); !errors.Is(err, ErrConflict) {
			t.Fatalf("stale delete: expected ErrConflict, got %v", err)
		}
		snap, _ := store.Load(ctx, phone)
		if snap.Conversation == nil || snap.Conversation.State != StateAwaitingProfileName {
			t.Fatalf("conversation changed: %+v", snap.Conversation)
		}
	})

	t.Run("version keeps growing after delete", func(t *testing.T) {
		store, _ := newStore(t)
		if err := store.Commit(ctx, Mutation{Phone: phone, Put: conv(StateAwaitingProfileName)}); err != nil {
			t.Fatal(err)
		}
		if err := store.Commit(ctx, Mutation{Phone: phone, ExpectedVersion: 1, Delete: true}); err != nil {
			t.Fatalf("delete: %v", err)
		}
		snap, _ := store.Load(ctx, phone)
		if snap.Conversation != nil || snap.Version() != 2 {
			t.Fatalf("after delete: conversation=%+v version=%d", snap.Conversation, snap.Version())
		}
		if err := store.Commit(ctx, Mutation{Phone: phone, Put: conv(StateMenuChoice)}); !errors.Is(err, ErrConflict) {
			t.Fatalf("insert at version 0 after delete: expected ErrConflict, got %v", err)
		}
		if err := store.Commit(ctx, Mutation{Phone: phone, ExpectedVersion: 2, Put: conv(StateMenuChoice)}); err != nil {
			t.Fatalf("restart: %v", err)
		}

		// A writer that read version 1 before the delete must still lose.
		if err := store.Commit(ctx, Mutation{Phone: phone, ExpectedVersion: 1, Put: conv(StateAwaitingGender)}); !errors.Is(err, ErrConflict) {
			t.Fatalf("stale writer: expected ErrConflict, got %v", err)
		}
		snap, _ = store.Load(ctx, phone)
		if snap.Version() != 3 || snap.Conversation == nil || snap.Conversation.State != StateMenuChoice {
			t.Fatalf("conversation = %+v version=%d", snap.Conversation, snap.Version())
		}
	})

	t.Run("conflict applies nothing", func(t *testing.T) {
		store, rides := newStore(t)
		if err := store.Commit(ctx, Mutation{Phone: phone, SaveProfile: &p, Put: conv(StateAwaitingConfirmation)}); err != nil {
			t.Fatal(err)
		}
		r := &ride.Ride{Phone: phone, Pickup: "A", Destination: "B", TravelTime: "5 mins", CreatedAt: now}
		err := store.Commit(ctx, Mutation{Phone: phone, ExpectedVersion: 0, AppendRide: r, UpdateZip: "10001", Delete: true})
		if !errors.Is(err, ErrConflict) {
			t.Fatalf("expected ErrConflict, got %v", err)
		}
		if got := rides(phone); len(got) != 0 {
			t.Fatalf("ride appended by a losing commit: %+v", got)
		}
		snap, _ := store.Load(ctx, phone)
		if snap.Profile.Zip != "90210" {
			t.Fatalf("zip changed by a losing commit: %s", snap.Profile.Zip)
		}
	})

	t.Run("profile ride and delete commit together", func(t *testing.T) {
		store, rides := newStore(t)
		if err := store.Commit(ctx, Mutation{Phone: phone, SaveProfile: &p, Put: conv(StateAwaitingConfirmation)}); err != nil {
			t.Fatal(err)
		}
		r := &ride.Ride{Phone: phone, Pickup: "A", Destination: "B", TravelTime: "5 mins", CreatedAt: now}
		if err := store.Commit(ctx, Mutation{Phone: phone, ExpectedVersion: 1, AppendRide: r, Delete: true}); err != nil {
			t.Fatalf("commit: %v", err)
		}
		if r.ID == 0 {
			t.Error("ride id not assigned")
		}
		got := rides(phone)
		if len(got) != 1 || got[0].Pickup != "A" || got[0].TravelTime != "5 mins" {
			t.Fatalf("rides = %+v", got)
		}
		snap, _ := store.Load(ctx, phone)
		if snap.Conversation != nil {
			t.Fatal("conversation not deleted")
		}
		if snap.Profile == nil || snap.Profile.Token != "1234" || snap.Profile.Gender != profile.GenderFemale {
			t.Fatalf("profile = %+v", snap.Profile)
		}
	})

	t.Run("update zip", func(t *testing.T) {
		store, _ := newStore(t)
		if err := store.Commit(ctx, Mutation{Phone: "+15550009999", UpdateZip: "10001"}); !errors.Is(err, profile.ErrNotFound) {
			t.Fatalf("expected profile.ErrNotFound, got %v", err)
		}
		if err := store.Commit(ctx, Mutation{Phone: phone, SaveProfile: &p}); err != nil {
			t.Fatal(err)
		}
		if err := store.Commit(ctx, Mutation{Phone: phone, UpdateZip: "10001", Put: conv(StateAwaitingRideBooking)}); err != nil {
			t.Fatalf("update zip: %v", err)
		}
		snap, _ := store.Load(ctx, phone)
		if snap.Profile.Zip != "10001" || snap.Conversation.State != StateAwaitingRideBooking {
			t.Fatalf("snapshot = %+v %+v", snap.Profile, snap.Conversation)
		}
	})

	t.Run("reset ignores version", func(t *testing.T) {
		store, _ := newStore(t)
		if err := store.Commit(ctx, Mutation{Phone: phone, Put: conv(StateUpdatingZip)}); err != nil {
			t.Fatal(err)
		}
		if err := store.Reset(ctx, phone); err != nil {
			t.Fatalf("reset: %v", err)
		}
		if err := store.Reset(ctx, phone); err != nil {
			t.Fatalf("second reset: %v", err)
		}
		snap, _ := store.Load(ctx, phone)
		if snap.Conversation != nil {
			t.Fatal("conversation survived reset")
		}
		if snap.Version() <= 1 {
			t.Fatalf("version = %d after reset", snap.Version())
		}
		if err := store.Commit(ctx, Mutation{Phone: phone, ExpectedVersion: 1, Put: conv(StateUpdatingZip)}); !errors.Is(err, ErrConflict) {
			t.Fatalf("write from before reset: expected ErrConflict, got %v", err)
		}
	})

	t.Run("concurrent writers one winner", func(t *testing.T) {
		store, _ := newStore(t)
		if err := store.Commit(ctx, Mutation{Phone: phone, Put: conv(StateAwaitingRideBooking)}); err != nil {
			t.Fatal(err)
		}
		const writers = 8
		var wg sync.WaitGroup
		results := make(chan error, writers)
		for i := 0; i < writers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				results <- store.Commit(ctx, Mutation{Phone: phone, ExpectedVersion: 1, Put: conv(StateAwaitingConfirmation)})
			}()
		}
		wg.Wait()
		close(results)

		wins := 0
		for err := range results {
			switch {
			case err == nil:
				wins++
			case !errors.Is(err, ErrConflict):
				t.Errorf("unexpected error: %v", err)
			}
		}
		if wins != 1 {
			t.Fatalf("expected exactly one winner, got %d", wins)
		}
		snap, _ := store.Load(ctx, phone)
		if snap.Version() != 2 {
			t.Fatalf("version = %d", snap.Version())
		}
	})
}

func TestMemoryStore(t *testing.T) {
	storeContract(t, func(t *testing.T) (Store, func(types.Phone) []ride.Ride) {
		s := NewMemoryStore()
		return s, s.Rides
	})
}

func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("RIDESAFE_TEST_DB_DSN")
	if dsn == "" {
		t.Skip("RIDESAFE_TEST_DB_DSN not set; skipping postgres store test")
	}
	ctx := context.Background()
	db, err := infra.NewDB(ctx, dsn)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(db.Close)
	if err := infra.Migrate(ctx, db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	storeContract(t, func(t *testing.T) (Store, func(types.Phone) []ride.Ride) {
		if _, err := db.Exec(ctx, `TRUNCATE profiles, rides, conversation_states RESTART IDENTITY`); err != nil {
			t.Fatalf("truncate: %v", err)
		}
		rides := func(phone types.Phone) []ride.Ride {
			out, err := ride.NewStore(db).ListByPhone(ctx, phone, 0)
			if err != nil {
				t.Fatalf("list rides: %v", err)
			}
			return out
		}
		return NewPostgresStore(db), rides
	})
}
