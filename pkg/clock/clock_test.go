package clock

import (
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestSystemClock_Now(t *testing.T) {
	c := &SystemClock{}
	before := time.Now().UnixMilli()
	now := c.Now()
	after := time.Now().UnixMilli()

	if now < before || now > after {
		t.Errorf("expected %d in [%d, %d]", now, before, after)
	}
}

func TestRedisClock_FallsBackWhenUnreachable(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	c := NewRedisClock(client)
	defer c.Close()

	before := time.Now().UnixMilli()
	now := c.Now()
	after := time.Now().UnixMilli()

	if now < before || now > after {
		t.Errorf("expected fallback to system time, got %d not in [%d, %d]", now, before, after)
	}
}
