// Package redisstore keeps wizard sessions in Redis so they survive restarts and are shared
// between server instances.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"payops/internal/config"
	"payops/internal/domain"
	"payops/internal/port"
)

const defaultKeyPrefix = "payops:session:"

// SessionStore implements port.SessionStore on Redis. Values are stored as JSON strings
// with the session TTL as key expiry.
type SessionStore struct {
	client    redis.Cmdable
	keyPrefix string
}

var _ port.SessionStore = (*SessionStore)(nil)

// NewClient connects to Redis and verifies the connection.
func NewClient(cfg *config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// NewSessionStore creates a store on an existing client. An empty prefix uses the default.
func NewSessionStore(client redis.Cmdable, keyPrefix string) *SessionStore {
	if keyPrefix == "" {
		keyPrefix = defaultKeyPrefix
	}
	return &SessionStore{client: client, keyPrefix: keyPrefix}
}

// Key returns the Redis key of a session.
func (s *SessionStore) Key(kind string, id uuid.UUID) string {
	return s.keyPrefix + kind + ":" + id.String()
}

func (s *SessionStore) Save(ctx context.Context, kind string, id uuid.UUID, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encoding %s session: %w", kind, err)
	}
	if err := s.client.Set(ctx, s.Key(kind, id), data, ttl).Err(); err != nil {
		return fmt.Errorf("saving %s session: %w", kind, err)
	}
	return nil
}

func (s *SessionStore) Load(ctx context.Context, kind string, id uuid.UUID, dst any) error {
	data, err := s.client.Get(ctx, s.Key(kind, id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.ErrSessionNotFound
	}
	if err != nil {
		return fmt.Errorf("loading %s session: %w", kind, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decoding %s session: %w", kind, err)
	}
	return nil
}

func (s *SessionStore) Delete(ctx context.Context, kind string, id uuid.UUID) error {
	if err := s.client.Del(ctx, s.Key(kind, id)).Err(); err != nil {
		return fmt.Errorf("deleting %s session: %w", kind, err)
	}
	return nil
}
