package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/julianstephens/ibadah/internal/constants"
)

const redisTimeout = 5 * time.Second

// RedisStore keeps the key/value port in Redis under a namespace prefix so one
// server can hold several devices or profiles.
type RedisStore struct {
	url       string
	namespace string
	client    *redis.Client
}

// NewRedisStore builds a store for a redis:// URL. An empty namespace uses
// the application default.
func NewRedisStore(url, namespace string) *RedisStore {
	if namespace == "" {
		namespace = constants.RedisKeyNamespace
	}
	return &RedisStore{url: url, namespace: namespace}
}

func (s *RedisStore) Init() error {
	return s.Load()
}

func (s *RedisStore) Load() error {
	if s.client != nil {
		return nil
	}
	opts, err := redis.ParseURL(s.url)
	if err != nil {
		return fmt.Errorf("invalid redis url: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), redisTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	s.client = client
	return nil
}

func (s *RedisStore) Close() error {
	if s.client != nil {
		err := s.client.Close()
		s.client = nil
		return err
	}
	return nil
}

func (s *RedisStore) GetConfigPath() string {
	return s.url
}

func (s *RedisStore) Get(key string) (string, error) {
	if s.client == nil {
		return "", fmt.Errorf("storage not loaded")
	}
	ctx, cancel := context.WithTimeout(context.Background(), redisTimeout)
	defer cancel()

	v, err := s.client.Get(ctx, s.namespace+key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to read %q: %w", key, err)
	}
	return v, nil
}

func (s *RedisStore) Set(key, value string) error {
	if s.client == nil {
		return fmt.Errorf("storage not loaded")
	}
	ctx, cancel := context.WithTimeout(context.Background(), redisTimeout)
	defer cancel()

	if err := s.client.Set(ctx, s.namespace+key, value, 0).Err(); err != nil {
		return fmt.Errorf("failed to write %q: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Remove(key string) error {
	if s.client == nil {
		return fmt.Errorf("storage not loaded")
	}
	ctx, cancel := context.WithTimeout(context.Background(), redisTimeout)
	defer cancel()

	if err := s.client.Del(ctx, s.namespace+key).Err(); err != nil {
		return fmt.Errorf("failed to remove %q: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Keys() ([]string, error) {
	if s.client == nil {
		return nil, fmt.Errorf("storage not loaded")
	}
	ctx, cancel := context.WithTimeout(context.Background(), redisTimeout)
	defer cancel()

	// SCAN may yield a key more than once.
	seen := make(map[string]struct{})
	iter := s.client.Scan(ctx, 0, s.namespace+"*", 100).Iterator()
	for iter.Next(ctx) {
		seen[strings.TrimPrefix(iter.Val(), s.namespace)] = struct{}{}
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}
