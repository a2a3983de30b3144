package session

import (
	"context"
	"flag"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

var testRedisURL string

func TestMain(m *testing.M) {
	flag.Parse()

	if testing.Short() {
		os.Exit(m.Run())
	}

	os.Exit(runWithRedis(m))
}

func runWithRedis(m *testing.M) int {
	ctx := context.Background()

	container, err := tcredis.Run(ctx, "redis:7-alpine")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start redis container: %v\n", err)
		return 1
	}
	defer func() {
		if err := container.Terminate(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "failed to terminate redis container: %v\n", err)
		}
	}()

	testRedisURL, err = container.ConnectionString(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to get redis connection string: %v\n", err)
		return 1
	}
	return m.Run()
}

func setupTestClient(t *testing.T) *goredis.Client {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()
	client, err := NewRedisClient(ctx, testRedisURL)
	require.NoError(t, err)
	require.NoError(t, client.FlushAll(ctx).Err())

	t.Cleanup(func() {
		_ = client.Close()
	})
	return client
}

func TestNewRedisClient_InvalidURL(t *testing.T) {
	_, err := NewRedisClient(context.Background(), "://nope")
	assert.Error(t, err)
}

func TestRedisStore_SaveLoadDelete(t *testing.T) {
	client := setupTestClient(t)
	clock := clockwork.NewRealClock()
	store := NewRedisStore(client, clock)
	ctx := context.Background()

	now := clock.Now().UTC().Truncate(time.Second)
	s := Session{ID: "abc", UserID: 9, CreatedAt: now, ExpiresAt: now.Add(time.Hour)}
	require.NoError(t, store.Save(ctx, s))

	ttl, err := client.TTL(ctx, keyPrefix+"abc").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, 59*time.Minute)

	loaded, err := store.Load(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, s.UserID, loaded.UserID)
	assert.True(t, s.ExpiresAt.Equal(loaded.ExpiresAt))

	require.NoError(t, store.Delete(ctx, "abc"))
	_, err = store.Load(ctx, "abc")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.NoError(t, store.Delete(ctx, "abc"))
}

func TestRedisStore_SkipsExpired(t *testing.T) {
	client := setupTestClient(t)
	clock := clockwork.NewRealClock()
	store := NewRedisStore(client, clock)
	ctx := context.Background()

	s := Session{ID: "old", UserID: 1, ExpiresAt: clock.Now().Add(-time.Minute)}
	require.NoError(t, store.Save(ctx, s))

	exists, err := client.Exists(ctx, keyPrefix+"old").Result()
	require.NoError(t, err)
	assert.Zero(t, exists)
}

func TestRedisStore_WithManager(t *testing.T) {
	client := setupTestClient(t)
	clock := clockwork.NewRealClock()
	m := NewManager(NewRedisStore(client, clock), testSecret, time.Hour, clock)
	ctx := context.Background()

	token, _, err := m.Create(ctx, 5)
	require.NoError(t, err)

	s, err := m.Resolve(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, int64(5), s.UserID)

	require.NoError(t, m.Destroy(ctx, token))
	_, err = m.Resolve(ctx, token)
	assert.ErrorIs(t, err, ErrNoSession)
}
