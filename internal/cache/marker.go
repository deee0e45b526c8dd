package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// OnceMarker records first-use of short-lived artifacts via SETNX.
// The reset flow uses it to make each reset token single-use even
// though token validity itself is stateless.
type OnceMarker struct {
	client *redis.Client
	prefix string
}

func NewOnceMarker(client *redis.Client, prefix string) *OnceMarker {
	return &OnceMarker{client: client, prefix: prefix}
}

// FirstUse returns true exactly once per value within ttl.
func (m *OnceMarker) FirstUse(ctx context.Context, value string, ttl time.Duration) (bool, error) {
	sum := sha256.Sum256([]byte(value))
	key := fmt.Sprintf("%s:%s", m.prefix, hex.EncodeToString(sum[:]))

	ok, err := m.client.SetNX(ctx, key, "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("mark first use: %w", err)
	}
	return ok, nil
}
