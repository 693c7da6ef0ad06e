package progress

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix namespaces progress keys: <prefix><owner>.
const DefaultRedisPrefix = "arcade:progress:"

// RedisStore keeps one JSON-encoded Book per owner under a plain string key.
type RedisStore struct {
	rdb    redis.UniversalClient
	prefix string
}

// NewRedisStore wraps a redis client. An empty prefix uses DefaultRedisPrefix.
func NewRedisStore(rdb redis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisStore{rdb: rdb, prefix: prefix}
}

func (s *RedisStore) key(owner string) string { return s.prefix + owner }

// Load returns the owner's Book, or an empty Book if the key is missing.
func (s *RedisStore) Load(ctx context.Context, owner string) (Book, error) {
	raw, err := s.rdb.Get(ctx, s.key(owner)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Book{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get progress: %w", err)
	}
	b := Book{}
	if err := json.Unmarshal(raw, &b); err != nil {
		return nil, fmt.Errorf("decode progress book: %w", err)
	}
	return b, nil
}

// Save overwrites the owner's Book. Keys do not expire.
func (s *RedisStore) Save(ctx context.Context, owner string, b Book) error {
	raw, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("encode progress book: %w", err)
	}
	if err := s.rdb.Set(ctx, s.key(owner), raw, 0).Err(); err != nil {
		return fmt.Errorf("redis set progress: %w", err)
	}
	return nil
}

// Claim merges fromOwner into toOwner (toOwner's entries win) and deletes the source key.
func (s *RedisStore) Claim(ctx context.Context, fromOwner, toOwner string) error {
	if fromOwner == "" || toOwner == "" || fromOwner == toOwner {
		return nil
	}
	from, err := s.Load(ctx, fromOwner)
	if err != nil || len(from) == 0 {
		return err
	}
	to, err := s.Load(ctx, toOwner)
	if err != nil {
		return err
	}
	for k, v := range from {
		if _, ok := to[k]; !ok {
			to[k] = v
		}
	}
	if err := s.Save(ctx, toOwner, to); err != nil {
		return err
	}
	if err := s.rdb.Del(ctx, s.key(fromOwner)).Err(); err != nil {
		return fmt.Errorf("redis del claimed progress: %w", err)
	}
	return nil
}
