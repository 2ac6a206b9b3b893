package ride

import (
	"context"
	"os"
	"testing"
	"time"

	"ridesafe/internal/infra"
)

func TestStoreInsertAndList(t *testing.T) {
	dsn := os.Getenv("RIDESAFE_TEST_DB_DSN")
	if dsn == "" {
		t.Skip("RIDESAFE_TEST_DB_DSN not set; skipping ride store test")
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
	if _, err := db.Exec(ctx, `DELETE FROM rides WHERE phone_number = '+15550007777'`); err != nil {
		t.Fatal(err)
	}

	s := NewStore(db)
	base := time.Date(2025, 1, 8, 9, 0, 0, 0, time.UTC)
	for i, dest := range []string{"First", "Second", "Third"} {
		r := &Ride{Phone: "+15550007777", Pickup: "Home", Destination: dest, TravelTime: "10 mins", CreatedAt: base.Add(time.Duration(i) * time.Hour)}
		if err := s.Insert(ctx, r); err != nil {
			t.Fatalf("insert: %v", err)
		}
		if r.ID == 0 {
			t.Fatal("id not assigned")
		}
	}

	got, err := s.ListByPhone(ctx, "+15550007777", 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 || got[0].Destination != "Third" || got[1].Destination != "Second" {
		t.Fatalf("rides = %+v", got)
	}
	if !got[0].CreatedAt.Equal(base.Add(2 * time.Hour)) {
		t.Errorf("created_at = %v", got[0].CreatedAt)
	}
}
