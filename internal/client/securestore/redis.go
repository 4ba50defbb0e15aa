package securestore

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStore is the web-platform backend: browser local storage rendered as
// persistent Redis keys scoped to one client id. Keys carry no TTL.
type RedisStore struct {
	rdb    *redis.Client
	prefix string
}

func NewRedisStore(rdb *redis.Client, namespace, clientID string) *RedisStore {
	return &RedisStore{rdb: rdb, prefix: fmt.Sprintf("%s:local:%s:", namespace, clientID)}
}

func (s *RedisStore) key(k string) string {
	return s.prefix + k
}

func (s *RedisStore) Save(ctx context.Context, key, value string) error {
	return wrap("save", key, s.rdb.Set(ctx, s.key(key), value, 0).Err())
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := s.rdb.Get(ctx, s.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, wrap("get", key, err)
	}
	return v, true, nil
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	return wrap("delete", key, s.rdb.Del(ctx, s.key(key)).Err())
}
