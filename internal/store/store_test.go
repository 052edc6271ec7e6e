package store

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	_, err := s.Get(ctx, KeyTests)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, PutJSON(ctx, s, KeyTests, payload{Name: "go", Count: 3}))
	var got payload
	require.NoError(t, GetJSON(ctx, s, KeyTests, &got))
	assert.Equal(t, payload{Name: "go", Count: 3}, got)

	require.NoError(t, s.Delete(ctx, KeyTests))
	assert.ErrorIs(t, GetJSON(ctx, s, KeyTests, &got), ErrNotFound)
}

func TestMemoryStoreCopiesValues(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	value := []byte("abc")
	require.NoError(t, s.Put(ctx, "k", value))
	value[0] = 'z'

	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))
}

func TestScopedPrefixesKeys(t *testing.T) {
	ctx := context.Background()
	mem := NewMemoryStore()
	alice := Scoped(mem, "user:alice")
	bob := Scoped(mem, "user:bob")

	require.NoError(t, alice.Put(ctx, KeyQuestions, []byte("a")))
	_, err := bob.Get(ctx, KeyQuestions)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ElementsMatch(t, []string{"user:alice:qcm_questions"}, mem.Keys())

	unlock, err := alice.(Locker).Lock(ctx, KeyQuestions)
	require.NoError(t, err)
	assert.NoError(t, unlock())
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	ctx := context.Background()
	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()
	s := NewRedisStore(client, "talentquiz-test", time.Minute)
	require.NoError(t, s.Ping(ctx))
	defer s.Delete(ctx, KeyTests)

	require.NoError(t, s.Put(ctx, KeyTests, []byte(`[]`)))
	got, err := s.Get(ctx, KeyTests)
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(got))

	unlock, err := s.Lock(ctx, KeyTests)
	require.NoError(t, err)
	_, err = s.Lock(ctx, KeyTests)
	assert.ErrorIs(t, err, ErrLockHeld)
	require.NoError(t, unlock())

	require.NoError(t, s.Delete(ctx, KeyTests))
	_, err = s.Get(ctx, KeyTests)
	assert.ErrorIs(t, err, ErrNotFound)
}
