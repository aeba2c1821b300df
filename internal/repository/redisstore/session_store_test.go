package redisstore_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"

	"payops/internal/domain"
	"payops/internal/repository/redisstore"
)

func unreachableClient() *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
}

func TestSessionStore_Key(t *testing.T) {
	id := uuid.MustParse("6f1c2c1e-4a57-4c8e-9f59-0f1f2d1d9a11")

	s := redisstore.NewSessionStore(unreachableClient(), "")
	assert.Equal(t, "payops:session:duplicate:6f1c2c1e-4a57-4c8e-9f59-0f1f2d1d9a11", s.Key("duplicate", id))

	custom := redisstore.NewSessionStore(unreachableClient(), "test:")
	assert.Equal(t, "test:import:6f1c2c1e-4a57-4c8e-9f59-0f1f2d1d9a11", custom.Key("import", id))
}

func TestSessionStore_ConnectionErrorsAreNotMissingSessions(t *testing.T) {
	client := unreachableClient()
	defer client.Close()
	s := redisstore.NewSessionStore(client, "")
	ctx := context.Background()

	var dst map[string]any
	err := s.Load(ctx, "duplicate", uuid.New(), &dst)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrSessionNotFound)

	assert.Error(t, s.Save(ctx, "duplicate", uuid.New(), map[string]int{"a": 1}, time.Minute))
	assert.Error(t, s.Save(ctx, "duplicate", uuid.New(), make(chan int), time.Minute))
}
