package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// SlidingWindowLimiter counts requests per identity over a rolling window
// using one sorted set per identity, scored by request time.
type SlidingWindowLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
	now    func() time.Time
}

func NewSlidingWindowLimiter(client *redis.Client, limit int, window time.Duration) *SlidingWindowLimiter {
	return &SlidingWindowLimiter{client: client, limit: limit, window: window, now: time.Now}
}

func limiterKey(identity string) string {
	return "ratelimit:" + identity
}

// Allow records the attempt and reports whether it fits in the window.
// Rejected attempts are removed again so they do not extend the block.
func (l *SlidingWindowLimiter) Allow(ctx context.Context, identity string) (bool, error) {
	key := limiterKey(identity)
	now := l.now()
	member := uuid.NewString()
	floor := strconv.FormatInt(now.Add(-l.window).UnixMicro(), 10)

	var card *redis.IntCmd
	_, err := l.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.ZRemRangeByScore(ctx, key, "-inf", "("+floor)
		p.ZAdd(ctx, key, redis.Z{Score: float64(now.UnixMicro()), Member: member})
		card = p.ZCard(ctx, key)
		p.Expire(ctx, key, l.window)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("rate limiter: %w", err)
	}

	if card.Val() > int64(l.limit) {
		// the verdict stands even if the rejected attempt cannot be removed
		if err := l.client.ZRem(ctx, key, member).Err(); err != nil {
			log.WithFields(log.Fields{"key": key, "error": err}).Warn("failed to drop rejected attempt")
		}
		return false, nil
	}
	return true, nil
}
