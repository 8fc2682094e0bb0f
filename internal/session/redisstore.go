package session

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps the pair under two keys so several headless clients can
// share one session.
type RedisStore struct {
	rdb    *redis.Client
	prefix string
}

// NewRedisStore creates a RedisStore. Keys are prefix+"access_token" and prefix+"refresh_token".
func NewRedisStore(rdb *redis.Client, prefix string) *RedisStore {
	return &RedisStore{rdb: rdb, prefix: prefix}
}

func (s *RedisStore) accessKey() string  { return s.prefix + "access_token" }
func (s *RedisStore) refreshKey() string { return s.prefix + "refresh_token" }

func (s *RedisStore) Load(ctx context.Context) (Pair, error) {
	vals, err := s.rdb.MGet(ctx, s.accessKey(), s.refreshKey()).Result()
	if err != nil {
		return Pair{}, fmt.Errorf("loading session from redis: %w", err)
	}
	var p Pair
	if v, ok := vals[0].(string); ok {
		p.AccessToken = v
	}
	if v, ok := vals[1].(string); ok {
		p.RefreshToken = v
	}
	return p, nil
}

// Save writes both keys in one MULTI/EXEC so readers never observe a mixed pair.
func (s *RedisStore) Save(ctx context.Context, p Pair) error {
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.accessKey(), p.AccessToken, 0)
		pipe.Set(ctx, s.refreshKey(), p.RefreshToken, 0)
		return nil
	})
	if err != nil {
		return fmt.Errorf("saving session to redis: %w", err)
	}
	return nil
}

func (s *RedisStore) Clear(ctx context.Context) error {
	if err := s.rdb.Del(ctx, s.accessKey(), s.refreshKey()).Err(); err != nil {
		return fmt.Errorf("clearing session in redis: %w", err)
	}
	return nil
}
