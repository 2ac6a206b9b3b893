package maps

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"ridesafe/internal/modules/address"
)

type countingGeocoder struct {
	calls int
	resp  address.GeocodeResponse
}

func (c *countingGeocoder) Geocode(context.Context, string) (address.GeocodeResponse, error) {
	c.calls++
	return c.resp, nil
}

func TestCachedGeocoder(t *testing.T) {
	addr := os.Getenv("RIDESAFE_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("RIDESAFE_TEST_REDIS_ADDR not set")
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = rdb.Close() })

	ctx := context.Background()
	query := "1 Main St " + uuid.NewString()
	t.Cleanup(func() { rdb.Del(ctx, cacheKey(query)) })

	inner := &countingGeocoder{resp: address.GeocodeResponse{
		Status:  address.StatusOK,
		Results: []address.Candidate{{FormattedAddress: "1 Main St, Springfield"}},
	}}
	g := NewCachedGeocoder(inner, rdb, time.Minute, nil)

	for i := 0; i < 3; i++ {
		resp, err := g.Geocode(ctx, query)
		if err != nil {
			t.Fatalf("geocode: %v", err)
		}
		if len(resp.Results) != 1 || resp.Results[0].FormattedAddress != "1 Main St, Springfield" {
			t.Fatalf("unexpected response: %+v", resp)
		}
	}
	if inner.calls != 1 {
		t.Errorf("inner geocoder called %d times, want 1", inner.calls)
	}
}

func TestCachedGeocoder_RedisDown(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 50 * time.Millisecond, MaxRetries: -1})
	t.Cleanup(func() { _ = rdb.Close() })

	inner := &countingGeocoder{resp: address.GeocodeResponse{Status: address.StatusZeroResults}}
	g := NewCachedGeocoder(inner, rdb, time.Minute, nil)

	resp, err := g.Geocode(context.Background(), "nowhere")
	if err != nil {
		t.Fatalf("cache outage must not fail geocoding: %v", err)
	}
	if resp.Status != address.StatusZeroResults || inner.calls != 1 {
		t.Errorf("got %+v after %d calls", resp, inner.calls)
	}
}
