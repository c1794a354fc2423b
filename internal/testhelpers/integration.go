//go:build integration
// +build integration

package testhelpers

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mkadlec/binsim/internal/cache"
	"github.com/mkadlec/binsim/internal/service"
	"github.com/mkadlec/binsim/internal/store"
)

// IntegrationTestConfig holds configuration for integration tests.
type IntegrationTestConfig struct {
	CacheBackend  string // "in_memory", "memcached" or "redis"
	MemcachedAddr string
	RedisAddr     string
	RedisPassword string
}

// GetIntegrationConfig loads integration test configuration from environment.
// Skips the test unless BINSIM_INTEGRATION is set.
func GetIntegrationConfig(t *testing.T) IntegrationTestConfig {
	if os.Getenv("BINSIM_INTEGRATION") == "" {
		t.Skip("BINSIM_INTEGRATION not set, skipping integration test")
	}

	memcachedAddr := os.Getenv("BINSIM_MEMCACHED_ADDRS")
	if memcachedAddr == "" {
		memcachedAddr = "localhost:11211"
	}
	redisAddr := os.Getenv("BINSIM_REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}

	return IntegrationTestConfig{
		CacheBackend:  os.Getenv("BINSIM_CACHE_BACKEND"),
		MemcachedAddr: memcachedAddr,
		RedisAddr:     redisAddr,
		RedisPassword: os.Getenv("BINSIM_REDIS_PASSWORD"),
	}
}

// SetupIntegrationStore opens a throwaway SQLite store under t.TempDir.
// The store is closed automatically when the test finishes.
func SetupIntegrationStore(t *testing.T) *store.Repository {
	path := filepath.Join(t.TempDir(), "binsim.db")
	repo, err := store.Open(path, 5*time.Second)
	if err != nil {
		t.Fatalf("store.Open(%s) error = %v", path, err)
	}
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

// SetupIntegrationCache builds the cache backend requested by env, falling
// back to in-memory when the remote backend is unreachable.
func SetupIntegrationCache(t *testing.T, cfg IntegrationTestConfig) cache.Cache {
	switch cfg.CacheBackend {
	case "memcached":
		mc, err := cache.NewMemcachedCache(cfg.MemcachedAddr, 500*time.Millisecond, 2)
		if err == nil && mc.Ping() == nil {
			t.Cleanup(func() { _ = mc.Close() })
			t.Logf("Using memcached cache at %s", cfg.MemcachedAddr)
			return mc
		}
		t.Logf("Memcached not available, using in-memory cache")
	case "redis":
		rc, err := cache.NewRedisCache(cfg.RedisAddr, cfg.RedisPassword, 0)
		if err == nil && rc.Ping() == nil {
			t.Cleanup(func() { _ = rc.Close() })
			t.Logf("Using redis cache at %s", cfg.RedisAddr)
			return rc
		}
		t.Logf("Redis not available, using in-memory cache")
	}
	return cache.NewInMemoryCache()
}

// SetupIntegrationService wires a CompareService with a real SQLite store and
// the configured cache backend.
func SetupIntegrationService(t *testing.T, cfg IntegrationTestConfig) (*service.CompareService, cache.Cache, *store.Repository) {
	repo := SetupIntegrationStore(t)
	cacheSvc := SetupIntegrationCache(t, cfg)
	svc := service.NewCompareService(repo, cacheSvc, 5*time.Minute, time.Hour, 10*time.Second, 256)
	return svc, cacheSvc, repo
}
