package maps

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"ridesafe/internal/modules/address"
)

const geocodeKeyPrefix = "geocode:"

// CachedGeocoder keeps successful geocoding responses in Redis. Cache failures
// fall through to the wrapped geocoder.
type CachedGeocoder struct {
	inner  address.Geocoder
	redis  *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewCachedGeocoder(inner address.Geocoder, rdb *redis.Client, ttl time.Duration, logger *slog.Logger) *CachedGeocoder {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &CachedGeocoder{inner: inner, redis: rdb, ttl: ttl, logger: logger}
}

func (c *CachedGeocoder) Geocode(ctx context.Context, query string) (address.GeocodeResponse, error) {
	key := cacheKey(query)

	raw, err := c.redis.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var results []address.Candidate
		if jerr := json.Unmarshal(raw, &results); jerr == nil {
			return address.GeocodeResponse{Status: address.StatusOK, Results: results}, nil
		}
		c.logger.Warn("dropping corrupt geocode cache entry", "key", key)
	case !errors.Is(err, redis.Nil):
		c.logger.Warn("geocode cache read failed", "key", key, "error", err)
	}

	resp, err := c.inner.Geocode(ctx, query)
	if err != nil || resp.Status != address.StatusOK {
		return resp, err
	}
	if data, jerr := json.Marshal(resp.Results); jerr == nil {
		if serr := c.redis.Set(ctx, key, data, c.ttl).Err(); serr != nil {
			c.logger.Warn("geocode cache write failed", "key", key, "error", serr)
		}
	}
	return resp, nil
}

// cacheKey normalises case and whitespace so trivially different spellings of
// the same query share an entry.
func cacheKey(query string) string {
	return geocodeKeyPrefix + strings.ToLower(strings.Join(strings.Fields(query), " "))
}
