package notification

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Dedup remembers which one-off notifications were already sent.
// Claim returns true the first time a key is seen within the TTL.
type Dedup interface {
	Claim(ctx context.Context, key string) (bool, error)
}

type setNXer interface {
	SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd
}

type RedisDedup struct {
	client setNXer
	prefix string
	ttl    time.Duration
}

func NewRedisDedup(client *redis.Client, ttl time.Duration) *RedisDedup {
	return &RedisDedup{client: client, prefix: "commonspace:notified:", ttl: ttl}
}

func (d *RedisDedup) Claim(ctx context.Context, key string) (bool, error) {
	ok, err := d.client.SetNX(ctx, d.prefix+key, time.Now().UTC().Format(time.RFC3339), d.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to claim notification key %s: %w", key, err)
	}
	return ok, nil
}

// MemoryDedup is the single-process fallback when Redis is not configured.
// Claims are lost on restart, so a notification may repeat once after one.
type MemoryDedup struct {
	mu   sync.Mutex
	ttl  time.Duration
	seen map[string]time.Time
	now  func() time.Time
}

func NewMemoryDedup(ttl time.Duration) *MemoryDedup {
	return &MemoryDedup{ttl: ttl, seen: make(map[string]time.Time), now: time.Now}
}

func (d *MemoryDedup) Claim(_ context.Context, key string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	for k, expires := range d.seen {
		if !now.Before(expires) {
			delete(d.seen, k)
		}
	}

	if _, claimed := d.seen[key]; claimed {
		return false, nil
	}
	d.seen[key] = now.Add(d.ttl)
	return true, nil
}

func ReminderKey(bookingID, date string) string {
	return "reminder:" + bookingID + ":" + date
}

func FeedbackKey(bookingID string) string {
	return "feedback:" + bookingID
}

func WeeklyKey(userID, date string) string {
	return "weekly:" + userID + ":" + date
}
