package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"taleweaver/client/internal/config"
)

// ErrNoSave reports that no saved state exists for the requested key.
var ErrNoSave = errors.New("storage: no saved state")

type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(cfg config.RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &RedisStore{client: client}, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) GetClient() *redis.Client {
	return s.client
}

// Helper methods for common operations
func (s *RedisStore) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return s.client.Set(ctx, key, value, expiration).Err()
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, error) {
	return s.client.Get(ctx, key).Result()
}

func (s *RedisStore) Del(ctx context.Context, keys ...string) error {
	return s.client.Del(ctx, keys...).Err()
}

// Quick-save storage. Each session has a single autosave blob that the
// client overwrites freely; named durable slots live in MySQL.
const (
	quickSaveKeyPrefix = "taleweaver:quicksave"
	quickSaveTTL       = 30 * 24 * time.Hour
)

func quickSaveKey(sessionID string) string {
	return fmt.Sprintf("%s:%s", quickSaveKeyPrefix, sessionID)
}

// SaveQuickSlot overwrites the session's autosave blob.
func (s *RedisStore) SaveQuickSlot(ctx context.Context, sessionID string, blob []byte) error {
	if err := s.Set(ctx, quickSaveKey(sessionID), blob, quickSaveTTL); err != nil {
		return fmt.Errorf("failed to store quick save: %w", err)
	}
	return nil
}

// LoadQuickSlot returns the session's autosave blob.
func (s *RedisStore) LoadQuickSlot(ctx context.Context, sessionID string) ([]byte, error) {
	data, err := s.client.Get(ctx, quickSaveKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNoSave
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load quick save: %w", err)
	}
	return data, nil
}

// DeleteQuickSlot drops the session's autosave blob.
func (s *RedisStore) DeleteQuickSlot(ctx context.Context, sessionID string) error {
	return s.Del(ctx, quickSaveKey(sessionID))
}
