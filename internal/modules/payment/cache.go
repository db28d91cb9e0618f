package payment

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	verifyTTL = 30 * time.Second
	replayTTL = 24 * time.Hour
)

// Cache keeps short-lived payment state in Redis: verification results
// so repeated polling does not hammer provider APIs, and webhook replay
// markers so a re-delivered callback is processed once. A nil client
// disables caching (every lookup misses), which keeps redis optional
// in tests and small deployments.
type Cache struct {
	client *redis.Client
}

func NewCache(client *redis.Client) *Cache {
	return &Cache{client: client}
}

// GetVerified returns (settled, found) for a cached verification.
func (c *Cache) GetVerified(ctx context.Context, transactionID string) (bool, bool) {
	if c.client == nil {
		return false, false
	}
	val, err := c.client.Get(ctx, verifyKey(transactionID)).Result()
	if err != nil {
		return false, false
	}
	return val == "1", true
}

// SetVerified caches a verification verdict for verifyTTL.
func (c *Cache) SetVerified(ctx context.Context, transactionID string, settled bool) {
	if c.client == nil {
		return
	}
	val := "0"
	if settled {
		val = "1"
	}
	// Best effort; a cache write failure never fails the request.
	_ = c.client.Set(ctx, verifyKey(transactionID), val, verifyTTL).Err()
}

// MarkWebhookSeen records a webhook event id and reports whether this
// delivery is the first. Without redis every delivery counts as first.
func (c *Cache) MarkWebhookSeen(ctx context.Context, provider, eventID string) bool {
	if c.client == nil || eventID == "" {
		return true
	}
	first, err := c.client.SetNX(ctx, fmt.Sprintf("webhook:%s:%s", provider, eventID), "1", replayTTL).Result()
	if err != nil {
		return true
	}
	return first
}

func verifyKey(transactionID string) string {
	return "payment:verify:" + transactionID
}
