package testutil

import (
	"context"
	"testing"

	"github.com/redis/go-redis/v9"
)

// testRedisDB keeps integration tests away from the default database.
const testRedisDB = 15

// NewRedis returns a client connected to TEST_REDIS_ADDR, database 15,
// flushed before and after the test. The test is skipped if the variable is
// not set.
func NewRedis(t *testing.T) *redis.Client {
	t.Helper()

	addr := requireEnv(t, "TEST_REDIS_ADDR")
	client := redis.NewClient(&redis.Options{Addr: addr, DB: testRedisDB})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		t.Fatalf("testutil.NewRedis: ping: %v", err)
	}
	if err := client.FlushDB(ctx).Err(); err != nil {
		client.Close()
		t.Fatalf("testutil.NewRedis: flush: %v", err)
	}

	t.Cleanup(func() {
		_ = client.FlushDB(context.Background()).Err()
		_ = client.Close()
	})
	return client
}
