// Package dedupe keeps a send from being delivered twice when the same
// command is retried, by claiming an idempotency key in Redis before the
// message goes out.
package dedupe

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix    = "viber-cli:dedupe:"
	pendingValue = "pending"

	// DefaultTTL is how long a claimed key blocks repeats.
	DefaultTTL = 24 * time.Hour
)

// ErrNotFound is returned by Get for unknown keys.
var ErrNotFound = errors.New("dedupe key not found")

// Store records idempotency keys in Redis.
type Store struct {
	client *redis.Client
}

// Open connects to the Redis server at rawURL (redis://[:password@]host:port/db)
// and verifies the connection.
func Open(ctx context.Context, rawURL string) (*Store, error) {
	opts, err := redis.ParseURL(strings.TrimSpace(rawURL))
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return &Store{client: client}, nil
}

// New wraps an existing client.
func New(client *redis.Client) *Store {
	return &Store{client: client}
}

func storeKey(key string) string {
	return keyPrefix + key
}

// Claim reserves key for ttl. It returns false when the key was already
// claimed by an earlier run.
func (s *Store) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if strings.TrimSpace(key) == "" {
		return false, fmt.Errorf("dedupe key cannot be empty")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	ok, err := s.client.SetNX(ctx, storeKey(key), pendingValue, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to claim dedupe key: %w", err)
	}
	return ok, nil
}

// Complete records the outcome of a claimed send, keeping the key's TTL.
func (s *Store) Complete(ctx context.Context, key, result string) error {
	err := s.client.SetArgs(ctx, storeKey(key), result, redis.SetArgs{Mode: "XX", KeepTTL: true}).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("failed to record dedupe result: %w", err)
	}
	return nil
}

// Release frees key so the send can be attempted again.
func (s *Store) Release(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, storeKey(key)).Err(); err != nil {
		return fmt.Errorf("failed to release dedupe key: %w", err)
	}
	return nil
}

// Get returns the recorded value of key: "pending" while in flight, or the
// value passed to Complete.
func (s *Store) Get(ctx context.Context, key string) (string, error) {
	v, err := s.client.Get(ctx, storeKey(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to read dedupe key: %w", err)
	}
	return v, nil
}

// IsPending reports whether v is the placeholder of an unfinished send.
func IsPending(v string) bool {
	return v == pendingValue
}

// Close closes the Redis connection
func (s *Store) Close() error {
	return s.client.Close()
}
