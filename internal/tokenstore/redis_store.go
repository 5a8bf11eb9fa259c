package tokenstore

import (
	"context"
	"fmt"

	"github.com/go-redis/redis"
)

const redisKeyPrefix = "salesdash"

// RedisStore はRedisに値を保存するStore実装。
// キーは "salesdash:<key>" の形式で、有効期限は設定しない。
type RedisStore struct {
	client *redis.Client
	key    string
}

// NewRedisStore はRedisStoreを生成する。
func NewRedisStore(client *redis.Client, key string) *RedisStore {
	return &RedisStore{client: client, key: key}
}

func (s *RedisStore) redisKey() string {
	return fmt.Sprintf("%s:%s", redisKeyPrefix, s.key)
}

// Save は値を保存する。
func (s *RedisStore) Save(ctx context.Context, value string) error {
	if value == "" {
		return ErrEmptyValue
	}
	if err := s.client.WithContext(ctx).Set(s.redisKey(), value, 0).Err(); err != nil {
		return fmt.Errorf("failed to save to redis: %w", err)
	}
	return nil
}

// Read は保存された値を返す。
func (s *RedisStore) Read(ctx context.Context) (string, bool, error) {
	value, err := s.client.WithContext(ctx).Get(s.redisKey()).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read from redis: %w", err)
	}
	return value, true, nil
}

// Clear は値を削除する。
func (s *RedisStore) Clear(ctx context.Context) error {
	if err := s.client.WithContext(ctx).Del(s.redisKey()).Err(); err != nil {
		return fmt.Errorf("failed to delete from redis: %w", err)
	}
	return nil
}

var _ Store = (*RedisStore)(nil)
