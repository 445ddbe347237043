//go:build integration
// +build integration

package valkey_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/krishisahayak/krishi/internal/adapters/valkey"
	"github.com/krishisahayak/krishi/internal/core/ports"
	"github.com/krishisahayak/krishi/internal/pkg/config"
)

func setupCache(t *testing.T) *valkey.Cache {
	t.Helper()
	cfg, err := config.Load("krishi-test")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	cache, err := valkey.New(cfg.Valkey.Addr)
	if err != nil {
		t.Fatalf("connect valkey: %v", err)
	}
	t.Cleanup(cache.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := cache.Ping(ctx); err != nil {
		t.Fatalf("ping valkey: %v", err)
	}
	return cache
}

func TestCache_Integration_RoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	cache := setupCache(t)
	ctx := context.Background()
	key := "krishi-test:" + uuid.NewString()

	if _, err := cache.Get(ctx, key); !errors.Is(err, ports.ErrCacheMiss) {
		t.Fatalf("expected ErrCacheMiss for a new key, got %v", err)
	}
	if err := cache.Set(ctx, key, []byte("India"), 60); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err := cache.Get(ctx, key)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != "India" {
		t.Errorf("expected India, got %q", got)
	}
	if err := cache.Delete(ctx, key); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := cache.Get(ctx, key); !errors.Is(err, ports.ErrCacheMiss) {
		t.Errorf("expected ErrCacheMiss after delete, got %v", err)
	}
}
