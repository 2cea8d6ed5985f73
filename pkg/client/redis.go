package client

import (
	"context"
	"time"

	"commonspace/pkg/logger"

	"github.com/redis/go-redis/v9"
)

// SetRedis connects to Redis when addr is set. A failed ping is logged and the
// client is left unset so callers fall back to running without it.
func (c *Client) SetRedis(log *logger.Logger, addr string, timeout time.Duration) {
	if addr == "" {
		return
	}

	rdb := redis.NewClient(&redis.Options{Addr: addr})

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Warn("Redis unavailable, continuing without it", "addr", addr, "error", err)
		_ = rdb.Close()
		return
	}

	log.Info("Successfully connected to Redis", "addr", addr)
	c.Redis = rdb
	c.log = log
}
