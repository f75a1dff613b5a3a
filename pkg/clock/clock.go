package clock

import (
	"context"
	"time"

	"github.com/anthanhphan/gosdk/logger"
	"github.com/redis/go-redis/v9"
)

const defaultRedisTimeout = 200 * time.Millisecond

// Clock abstracts the time source stamped on vector clocks.
type Clock interface {
	// Now returns the current timestamp in milliseconds.
	Now() int64
}

// SystemClock uses the local system time.
type SystemClock struct{}

func (s *SystemClock) Now() int64 {
	return time.Now().UnixMilli()
}

// RedisClock reads the time of a shared Redis server so every node stamps
// versions from the same source.
type RedisClock struct {
	client  redis.UniversalClient
	timeout time.Duration
}

func NewRedisClock(client redis.UniversalClient) *RedisClock {
	return &RedisClock{
		client:  client,
		timeout: defaultRedisTimeout,
	}
}

func (r *RedisClock) Now() int64 {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	// Redis TIME returns [seconds, microseconds]
	res, err := r.client.Time(ctx).Result()
	if err != nil {
		// Timestamps are informational on a vector clock, so the local time is
		// an acceptable substitute while Redis is unreachable.
		logger.Debugw("redis clock unavailable, using system time", "error", err.Error())
		return time.Now().UnixMilli()
	}

	return res.UnixMilli()
}

// Close releases the Redis client.
func (r *RedisClock) Close() error {
	return r.client.Close()
}
