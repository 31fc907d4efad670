package usage

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fermoza/mika-go/internal/mika/config"
)

const keyPrefix = "mika:usage:"

// RedisStore keeps one hash per UTC day, e.g. mika:usage:20261017, expiring after
// the configured number of days.
type RedisStore struct {
	c   *redis.Client
	ttl time.Duration
	now func() time.Time
}

// NewRedis connects lazily; the first command dials the server.
func NewRedis(cfg config.UsageConfig) *RedisStore {
	ttlDays := cfg.TTLDays
	if ttlDays <= 0 {
		ttlDays = 7
	}
	return &RedisStore{
		c: redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}),
		ttl: time.Duration(ttlDays) * 24 * time.Hour,
		now: time.Now,
	}
}

func redisKey(day time.Time) string {
	return keyPrefix + day.UTC().Format("20060102")
}

func (s *RedisStore) Record(ctx context.Context, ev Event) error {
	key := redisKey(s.now())
	_, err := s.c.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for field, n := range counters(ev) {
			pipe.HIncrBy(ctx, key, field, n)
		}
		pipe.Expire(ctx, key, s.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("record usage: %w", err)
	}
	return nil
}

func (s *RedisStore) Stats(ctx context.Context, day time.Time) (Stats, error) {
	values, err := s.c.HGetAll(ctx, redisKey(day)).Result()
	if err != nil {
		return Stats{}, fmt.Errorf("read usage: %w", err)
	}
	stats := Stats{Day: dayKey(day)}
	for field, raw := range values {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			continue
		}
		stats.add(field, n)
	}
	return stats, nil
}

// Ping checks connectivity.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.c.Ping(ctx).Err()
}

// Close releases the connection pool.
func (s *RedisStore) Close() error {
	return s.c.Close()
}
