package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const nameGuardPrefix = "todolist:task-name"

// RedisNameGuard reserves task names per calendar day in Redis so that
// concurrent creates across instances cannot both pass the duplicate check.
type RedisNameGuard struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisNameGuard creates a guard whose reservations expire after ttl.
func NewRedisNameGuard(client *redis.Client, ttl time.Duration) *RedisNameGuard {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisNameGuard{client: client, ttl: ttl}
}

func nameGuardKey(day time.Time, name string) string {
	return fmt.Sprintf("%s:%s:%s", nameGuardPrefix, day.Format("2006-01-02"), name)
}

// Reserve records name for day. It returns false when the name is already
// taken for that day.
func (g *RedisNameGuard) Reserve(ctx context.Context, day time.Time, name string) (bool, error) {
	ok, err := g.client.SetNX(ctx, nameGuardKey(day, name), 1, g.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("reserve task name: %w", err)
	}
	return ok, nil
}

// Release drops a reservation made by Reserve.
func (g *RedisNameGuard) Release(ctx context.Context, day time.Time, name string) error {
	if err := g.client.Del(ctx, nameGuardKey(day, name)).Err(); err != nil {
		return fmt.Errorf("release task name: %w", err)
	}
	return nil
}

// NewRedisClient parses a redis:// URL, falling back to a bare host:port.
func NewRedisClient(url string) *redis.Client {
	opts, err := redis.ParseURL(url)
	if err != nil {
		opts = &redis.Options{Addr: url}
	}
	return redis.NewClient(opts)
}
