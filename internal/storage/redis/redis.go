// Package redis stores client values in Redis with a sliding TTL.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/utafrali/storefront/internal/storage"
	"github.com/utafrali/storefront/pkg/database"
)

// Storage implements storage.Storage on a Redis client.
type Storage struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// New creates a Redis-backed storage. A zero ttl keeps values forever.
func New(client redis.UniversalClient, ttl time.Duration) *Storage {
	return &Storage{client: client, ttl: ttl}
}

// Get reads a value and refreshes its TTL.
func (s *Storage) Get(ctx context.Context, clientID, key string) (_ []byte, err error) {
	k := storage.Key(clientID, key)
	ctx, end := database.TraceQuery(ctx, "redis", "kv.get", "GETEX "+k)
	defer func() { end(err) }()

	var cmd *redis.StringCmd
	if s.ttl > 0 {
		cmd = s.client.GetEx(ctx, k, s.ttl)
	} else {
		cmd = s.client.Get(ctx, k)
	}

	data, err := cmd.Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, storage.ErrNotFound(clientID, key)
		}
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	return data, nil
}

// Set writes a value with the configured TTL.
func (s *Storage) Set(ctx context.Context, clientID, key string, value []byte) (err error) {
	k := storage.Key(clientID, key)
	ctx, end := database.TraceQuery(ctx, "redis", "kv.set", "SET "+k)
	defer func() { end(err) }()

	if err := s.client.Set(ctx, k, value, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Delete removes a value. Deleting an absent key succeeds.
func (s *Storage) Delete(ctx context.Context, clientID, key string) (err error) {
	k := storage.Key(clientID, key)
	ctx, end := database.TraceQuery(ctx, "redis", "kv.delete", "DEL "+k)
	defer func() { end(err) }()

	if err := s.client.Del(ctx, k).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}

// Ping checks connectivity.
func (s *Storage) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
