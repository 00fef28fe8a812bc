//go:build integration

package cache

import (
	"context"
	"testing"

	"github.com/vitalink/vitalink/internal/testutil"
)

func newCacheTestEnv(t *testing.T) (context.Context, *Cache) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration tests in short mode")
	}

	ctx := context.Background()
	redisURL := testutil.RequireEnv(t, "REDIS_URL")

	cacheClient, err := New(ctx, redisURL)
	if err != nil {
		t.Fatalf("connect redis: %v", err)
	}
	t.Cleanup(func() {
		_ = cacheClient.Close()
	})

	if err := testutil.FlushRedis(ctx, cacheClient.Client()); err != nil {
		t.Fatalf("flush redis: %v", err)
	}

	return ctx, cacheClient
}

func TestIntegrationCheckLoginRateLimit_BurstThenDeny(t *testing.T) {
	ctx, cacheClient := newCacheTestEnv(t)

	const burst = 3
	ip := "203.0.113.7"

	for i := 0; i < burst; i++ {
		result, err := cacheClient.CheckLoginRateLimit(ctx, ip, 1, burst)
		if err != nil {
			t.Fatalf("CheckLoginRateLimit failed: %v", err)
		}
		if !result.Allowed {
			t.Fatalf("request %d within burst should be allowed", i+1)
		}
	}

	result, err := cacheClient.CheckLoginRateLimit(ctx, ip, 1, burst)
	if err != nil {
		t.Fatalf("CheckLoginRateLimit failed: %v", err)
	}
	if result.Allowed {
		t.Error("request beyond burst should be denied")
	}
	if result.RetryAfter <= 0 {
		t.Errorf("expected positive retry-after, got %v", result.RetryAfter)
	}
}

func TestIntegrationCheckLoginRateLimit_PerIPIsolation(t *testing.T) {
	ctx, cacheClient := newCacheTestEnv(t)

	// Drain one IP's bucket
	for i := 0; i < 2; i++ {
		if _, err := cacheClient.CheckLoginRateLimit(ctx, "198.51.100.1", 1, 2); err != nil {
			t.Fatalf("CheckLoginRateLimit failed: %v", err)
		}
	}

	result, err := cacheClient.CheckLoginRateLimit(ctx, "198.51.100.2", 1, 2)
	if err != nil {
		t.Fatalf("CheckLoginRateLimit failed: %v", err)
	}
	if !result.Allowed {
		t.Error("a different IP must have its own bucket")
	}
}
