package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrijs2005/cropdoc/internal/client/models"
)

// RedisSessionBackend is the web backend: session storage rendered as one
// Redis key per browser session. The TTL is refreshed on every write and the
// key is removed by Close when the session ends.
type RedisSessionBackend struct {
	rdb *redis.Client
	key string
	ttl time.Duration
}

func NewRedisSessionBackend(rdb *redis.Client, namespace, sessionID string, ttl time.Duration) *RedisSessionBackend {
	return &RedisSessionBackend{
		rdb: rdb,
		key: fmt.Sprintf("%s:session:%s:%s", namespace, sessionID, StorageKey),
		ttl: ttl,
	}
}

func (b *RedisSessionBackend) Load(ctx context.Context) ([]models.HistoryEntry, error) {
	data, err := b.rdb.Get(ctx, b.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", b.key, err)
	}

	var entries []models.HistoryEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decode %s: %w", b.key, err)
	}
	return entries, nil
}

func (b *RedisSessionBackend) Store(ctx context.Context, entries []models.HistoryEntry) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return err
	}
	if err := b.rdb.Set(ctx, b.key, data, b.ttl).Err(); err != nil {
		return fmt.Errorf("set %s: %w", b.key, err)
	}
	return nil
}

func (b *RedisSessionBackend) Clear(ctx context.Context) error {
	return b.rdb.Del(ctx, b.key).Err()
}

// Close ends the session.
func (b *RedisSessionBackend) Close(ctx context.Context) error {
	return b.Clear(ctx)
}
