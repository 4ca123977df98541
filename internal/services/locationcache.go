package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"logitrack-backend/internal/models"
)

const (
	locationHashKey = "locations:motos:latest"
	locationTTL     = 24 * time.Hour
)

// LocationCache keeps the latest reported position per moto in Redis so the
// dashboard map can load without hitting Postgres.
type LocationCache struct {
	client *redis.Client
}

// NewLocationCache connects to Redis using a URL of the form
// redis://[:password@]host:port[/db]. Returns an error if the server is
// unreachable so callers can fall back to Postgres-only reads.
func NewLocationCache(redisURL string) (*LocationCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("error parsing Redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("error connecting to Redis: %w", err)
	}

	return &LocationCache{client: client}, nil
}

// SaveLatest stores the location as the moto's latest known position.
func (c *LocationCache) SaveLatest(ctx context.Context, loc models.MotoLocation) error {
	payload, err := json.Marshal(loc)
	if err != nil {
		return fmt.Errorf("error marshaling location: %w", err)
	}

	pipe := c.client.Pipeline()
	pipe.HSet(ctx, locationHashKey, loc.MotoID, payload)
	pipe.Expire(ctx, locationHashKey, locationTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("error caching location: %w", err)
	}
	return nil
}

// LatestAll returns the latest cached location for every moto.
func (c *LocationCache) LatestAll(ctx context.Context) ([]models.MotoLocation, error) {
	entries, err := c.client.HGetAll(ctx, locationHashKey).Result()
	if err != nil {
		return nil, fmt.Errorf("error reading cached locations: %w", err)
	}

	locations := make([]models.MotoLocation, 0, len(entries))
	for _, raw := range entries {
		var loc models.MotoLocation
		if err := json.Unmarshal([]byte(raw), &loc); err != nil {
			continue
		}
		locations = append(locations, loc)
	}
	return locations, nil
}

// Close releases the underlying Redis connection.
func (c *LocationCache) Close() error {
	return c.client.Close()
}
