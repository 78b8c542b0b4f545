package cmd

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/viber/viber-cli/internal/dedupe"
)

const envRedisURL = "VIBER_REDIS_URL"

var errRedisRequired = errors.New("--redis-url (or " + envRedisURL + ") is required with --idempotency-key")

// dedupeOptions are the --idempotency-key/--redis-url flags of send.
type dedupeOptions struct {
	Key      string
	RedisURL string
}

func newIdempotencyKey() string {
	return "vbcli_" + uuid.NewString()
}

// resolveKey expands "auto" into a fresh key.
func (o dedupeOptions) resolveKey() string {
	key := strings.TrimSpace(o.Key)
	if strings.EqualFold(key, "auto") {
		return newIdempotencyKey()
	}
	return key
}

// receiverKey scopes key to one receiver so fan-out sends dedupe per user.
func receiverKey(key, receiver string) string {
	sum := sha256.Sum256([]byte(receiver))
	return key + ":" + hex.EncodeToString(sum[:8])
}

// open connects to Redis when a key was given. It returns nil when
// dedupe is off.
func (o dedupeOptions) open(ctx context.Context) (*dedupe.Store, error) {
	if strings.TrimSpace(o.Key) == "" {
		return nil, nil
	}
	url := strings.TrimSpace(o.RedisURL)
	if url == "" {
		url = strings.TrimSpace(os.Getenv(envRedisURL))
	}
	if url == "" {
		return nil, errRedisRequired
	}
	return dedupe.Open(ctx, url)
}

// claimStore is the part of *dedupe.Store used to claim a receiver.
type claimStore interface {
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Get(ctx context.Context, key string) (string, error)
}
