package bridge

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func TestRedisSurface_Integration(t *testing.T) {
	_ = godotenv.Load("../../../.env")

	host := getEnv("REDIS_HOST", "localhost")
	port := getEnv("REDIS_PORT", "6379")
	pass := getEnv("REDIS_PASSWORD", "")

	rdb, err := NewRedisClient(host, port, pass, 1)
	if err != nil {
		t.Skipf("Skipping Redis integration test: %v", err)
	}
	defer rdb.Close()

	ctx := context.Background()
	require.NoError(t, rdb.FlushDB(ctx).Err(), "Failed to flush test DB")

	group := "group.test.habits"
	surface := NewRedisSurface(rdb, group)

	t.Run("Missing item reads as empty", func(t *testing.T) {
		val, err := surface.GetItem(ctx, "habitData", group)
		assert.NoError(t, err)
		assert.Empty(t, val)
	})

	t.Run("Set, Get and Remove", func(t *testing.T) {
		require.NoError(t, surface.SetItem(ctx, "habitData", `{"habits":[]}`, group))

		val, err := surface.GetItem(ctx, "habitData", group)
		assert.NoError(t, err)
		assert.Equal(t, `{"habits":[]}`, val)

		stored, err := rdb.Get(ctx, "group.test.habits:habitData").Result()
		assert.NoError(t, err)
		assert.Equal(t, val, stored, "items must live under <group>:<key>")

		require.NoError(t, surface.RemoveItem(ctx, "habitData", group))
		val, _ = surface.GetItem(ctx, "habitData", group)
		assert.Empty(t, val)
	})

	t.Run("Reload is published on the timeline channel", func(t *testing.T) {
		sub := rdb.Subscribe(ctx, TimelineChannel(group))
		defer sub.Close()

		_, err := sub.Receive(ctx)
		require.NoError(t, err)

		require.NoError(t, surface.ReloadAllTimelines(ctx))

		select {
		case msg := <-sub.Channel():
			assert.Equal(t, "reload", msg.Payload)
		case <-time.After(2 * time.Second):
			t.Fatal("timeline reload was not published")
		}
	})
}
