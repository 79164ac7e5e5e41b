package wizard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const keyWizard = "stats:wizard:%d"

// RedisStore - тот же контракт поверх Redis, чтобы мастер переживал рестарт бота.
// Мастер не истекает сам по себе, поэтому ключи пишутся без TTL.
type RedisStore struct {
	rdb *redis.Client
}

// NewRedisStore подключается по URL и проверяет соединение.
func NewRedisStore(ctx context.Context, url string) (*RedisStore, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return &RedisStore{rdb: rdb}, nil
}

func (s *RedisStore) Put(ctx context.Context, w *Wizard) error {
	data, err := json.Marshal(w)
	if err != nil {
		return fmt.Errorf("failed to marshal wizard: %w", err)
	}
	return s.rdb.Set(ctx, fmt.Sprintf(keyWizard, w.ChatID), data, 0).Err()
}

func (s *RedisStore) Get(ctx context.Context, chatID int64) (*Wizard, error) {
	data, err := s.rdb.Get(ctx, fmt.Sprintf(keyWizard, chatID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var w Wizard
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("failed to unmarshal wizard: %w", err)
	}
	return &w, nil
}

func (s *RedisStore) Delete(ctx context.Context, chatID int64) error {
	return s.rdb.Del(ctx, fmt.Sprintf(keyWizard, chatID)).Err()
}

func (s *RedisStore) Close() error {
	return s.rdb.Close()
}
