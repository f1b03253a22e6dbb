package cachestore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore is an alternative Store backend for deployments that share
// one cache between several instances. Entries expire from Redis after
// the configured retention; the freshness metadata inside the entry is
// still what decides revalidation.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

var _ Store = (*RedisStore)(nil)

func NewRedisStore(cfg RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("%w: failed to connect to redis: %v", ErrStore, err)
	}

	ttl := cfg.TTL
	if ttl == 0 {
		ttl = 7 * 24 * time.Hour
	}

	return &RedisStore{
		client: client,
		ttl:    ttl,
	}, nil
}

func (s *RedisStore) keyFor(key string) string {
	return "slmap:" + key
}

func (s *RedisStore) Get(ctx context.Context, key string) (Entry, bool, error) {
	data, err := s.client.Get(ctx, s.keyFor(key)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return Entry{}, false, nil
		}
		return Entry{}, false, fmt.Errorf("%w: redis get: %v", ErrStore, err)
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return Entry{}, false, fmt.Errorf("%w: redis entry decode: %v", ErrStore, err)
	}

	return entry, true, nil
}

func (s *RedisStore) Put(ctx context.Context, key string, entry Entry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("%w: redis entry encode: %v", ErrStore, err)
	}

	if err := s.client.Set(ctx, s.keyFor(key), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("%w: redis set: %v", ErrStore, err)
	}

	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
