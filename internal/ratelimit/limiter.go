// Package ratelimit implements fixed-window request limits backed by Redis,
// with an in-process fallback when Redis is not configured.
package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// Connect returns a client for addr, or nil when addr is empty. The server
// stays available without Redis, so callers treat a ping failure as "not
// configured" after logging it.
func Connect(addr, password string, db int) (*redis.Client, error) {
	if addr == "" {
		return nil, nil
	}
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return client, nil
}

// Limiter allows at most max hits per identifier per window.
// A nil *Limiter allows everything.
type Limiter struct {
	client *redis.Client
	local  *window
	prefix string
	max    int
	window time.Duration
}

// New builds a limiter. With a nil client the count is kept in memory, which
// is only correct for a single server process.
func New(client *redis.Client, prefix string, max int, window time.Duration) *Limiter {
	l := &Limiter{
		client: client,
		prefix: prefix,
		max:    max,
		window: window,
	}
	if client == nil {
		l.local = newWindow(window, time.Now)
	}
	return l
}

// Distributed reports whether counts are shared through Redis.
func (l *Limiter) Distributed() bool {
	return l != nil && l.client != nil
}

// Allow counts one hit for ident. On a Redis error it fails open and returns
// the error so the caller can log it.
func (l *Limiter) Allow(ctx context.Context, endpoint, ident string) (bool, error) {
	if l == nil || l.max <= 0 {
		return true, nil
	}

	var (
		n   int64
		err error
	)
	if l.client != nil {
		n, err = l.incr(ctx, ident)
		if err != nil {
			return true, err
		}
	} else {
		n = l.local.hit(ident)
	}

	if n > int64(l.max) {
		Blocked.WithLabelValues(endpoint).Inc()
		return false, nil
	}
	Requests.WithLabelValues(endpoint).Inc()
	return true, nil
}

// incr bumps rl:<prefix>:<window_seconds>:<ident>, setting the expiry on the
// first hit of a window.
func (l *Limiter) incr(ctx context.Context, ident string) (int64, error) {
	key := "rl:" + l.prefix + ":" + strconv.FormatInt(int64(l.window.Seconds()), 10) + ":" + ident

	n, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if n == 1 {
		if err := l.client.Expire(ctx, key, l.window).Err(); err != nil {
			return n, err
		}
	}
	return n, nil
}
