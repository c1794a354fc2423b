package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	origWd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd: %v", err)
	}
	dir := t.TempDir()
	writeEnvFile(t, dir, minimalEnvYAML)
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Chdir: %v", err)
	}
	defer func() { _ = os.Chdir(origWd) }()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.ServerPort != "8080" {
		t.Errorf("ServerPort = %q, want 8080", cfg.ServerPort)
	}
	if cfg.CacheBackend != "in_memory" {
		t.Errorf("CacheBackend = %q, want in_memory", cfg.CacheBackend)
	}
	if cfg.MinVectorLen != 1 {
		t.Errorf("MinVectorLen = %d, want 1", cfg.MinVectorLen)
	}
	if cfg.MaxVectorLen != 1<<20 {
		t.Errorf("MaxVectorLen = %d, want %d", cfg.MaxVectorLen, 1<<20)
	}
	if cfg.MaxBatchMeasures != 128 {
		t.Errorf("MaxBatchMeasures = %d, want 128", cfg.MaxBatchMeasures)
	}
	if cfg.MaxMatrixNames != 256 {
		t.Errorf("MaxMatrixNames = %d, want 256", cfg.MaxMatrixNames)
	}
	if cfg.StoreBusyTimeout != 5*time.Second {
		t.Errorf("StoreBusyTimeout = %v, want 5s", cfg.StoreBusyTimeout)
	}
	if cfg.WarmEnabled {
		t.Error("WarmEnabled = true, want false when omitted (default)")
	}
	if cfg.WarmInterval != 15*time.Minute {
		t.Errorf("WarmInterval = %v, want 15m", cfg.WarmInterval)
	}
	if cfg.CacheStaleTTL != time.Hour {
		t.Errorf("CacheStaleTTL = %v, want 1h", cfg.CacheStaleTTL)
	}
	if cfg.CoalesceTimeout != 10*time.Second {
		t.Errorf("CoalesceTimeout = %v, want 10s", cfg.CoalesceTimeout)
	}
}

func TestLoad_EnvFileNotFound(t *testing.T) {
	savedEnv := os.Getenv("ENV_NAME")
	os.Setenv("ENV_NAME", "nonexistent")
	defer func() {
		os.Setenv("ENV_NAME", savedEnv)
	}()

	origWd, _ := os.Getwd()
	os.Chdir(findProjectRoot(t))
	defer os.Chdir(origWd)

	cfg, err := Load()
	if err == nil {
		t.Fatal("Load() expected error for missing env file, got nil")
	}
	if cfg != nil {
		t.Fatalf("Load() expected nil config on error, got %+v", cfg)
	}
	if !strings.Contains(err.Error(), "not found") && !strings.Contains(err.Error(), "config file") {
		t.Errorf("Load() error = %v, want message about config file not found", err)
	}
}

func TestLoad_InvalidConfigYAML(t *testing.T) {
	origWd, _ := os.Getwd()
	dir := t.TempDir()
	configDir := filepath.Join(dir, "config")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		t.Fatalf("mkdir config: %v", err)
	}
	if err := os.WriteFile(filepath.Join(configDir, "dev.yaml"), []byte("not: valid: yaml: [[["), 0644); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	os.Chdir(dir)
	defer os.Chdir(origWd)

	cfg, err := Load()
	if err == nil {
		t.Fatal("Load() expected error for invalid config YAML, got nil")
	}
	if cfg != nil {
		t.Fatalf("Load() expected nil config on error, got %+v", cfg)
	}
	if !strings.Contains(err.Error(), "parse") && !strings.Contains(err.Error(), "config") {
		t.Errorf("Load() error = %v, want message about parse or config", err)
	}
}

func TestLoad_EmptyDurationFallsBackToDefault(t *testing.T) {
	emptyDurationYAML := `
server:
  port: "8080"
request:
  timeout: ""
cache:
  backend: "in_memory"
  ttl: "5m"
store:
  path: "data/test.db"
shutdown:
  timeout: "30s"
`
	origWd, _ := os.Getwd()
	dir := t.TempDir()
	writeEnvFile(t, dir, emptyDurationYAML)
	os.Chdir(dir)
	defer os.Chdir(origWd)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.RequestTimeout != 10*time.Second {
		t.Errorf("RequestTimeout = %v, want default 10s for empty duration", cfg.RequestTimeout)
	}
}

func TestLoad_InvalidDurationFallsBackToDefault(t *testing.T) {
	invalidDurationYAML := `
server:
  port: "8080"
request:
  timeout: "5s"
cache:
  backend: "in_memory"
  ttl: "invalid"
store:
  path: "data/test.db"
shutdown:
  timeout: "30s"
`
	origWd, _ := os.Getwd()
	dir := t.TempDir()
	writeEnvFile(t, dir, invalidDurationYAML)
	os.Chdir(dir)
	defer os.Chdir(origWd)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg == nil {
		t.Fatal("Load() returned nil config")
	}
	if cfg.CacheTTL != 5*time.Minute {
		t.Errorf("CacheTTL = %v, want default 5m for invalid duration", cfg.CacheTTL)
	}
}

func TestLoad_CacheBackendEnvOverride(t *testing.T) {
	savedBackend := os.Getenv("CACHE_BACKEND")
	os.Setenv("CACHE_BACKEND", "redis")
	defer func() {
		os.Unsetenv("CACHE_BACKEND")
		if savedBackend != "" {
			os.Setenv("CACHE_BACKEND", savedBackend)
		}
	}()

	origWd, _ := os.Getwd()
	dir := t.TempDir()
	writeEnvFile(t, dir, minimalEnvYAML)
	os.Chdir(dir)
	defer os.Chdir(origWd)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.CacheBackend != "redis" {
		t.Errorf("CacheBackend = %q, want redis from CACHE_BACKEND env", cfg.CacheBackend)
	}
	if cfg.RedisAddr == "" {
		t.Error("RedisAddr empty, want default localhost:6379")
	}
}

func TestLoad_InvalidCacheBackend(t *testing.T) {
	badBackendYAML := strings.Replace(minimalEnvYAML, `backend: "in_memory"`, `backend: "filesystem"`, 1)
	origWd, _ := os.Getwd()
	dir := t.TempDir()
	writeEnvFile(t, dir, badBackendYAML)
	os.Chdir(dir)
	defer os.Chdir(origWd)

	cfg, err := Load()
	if err == nil {
		t.Fatal("Load() expected error for invalid cache backend, got nil")
	}
	if cfg != nil {
		t.Fatalf("Load() expected nil config on error, got %+v", cfg)
	}
	if !strings.Contains(err.Error(), "cache.backend") {
		t.Errorf("Load() error = %v, want message about cache.backend", err)
	}
}

func TestLoad_StorePathEnvOverride(t *testing.T) {
	savedPath := os.Getenv("STORE_PATH")
	os.Setenv("STORE_PATH", "/tmp/override.db")
	defer func() {
		os.Unsetenv("STORE_PATH")
		if savedPath != "" {
			os.Setenv("STORE_PATH", savedPath)
		}
	}()

	origWd, _ := os.Getwd()
	dir := t.TempDir()
	writeEnvFile(t, dir, minimalEnvYAML)
	os.Chdir(dir)
	defer os.Chdir(origWd)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.StorePath != "/tmp/override.db" {
		t.Errorf("StorePath = %q, want STORE_PATH env value", cfg.StorePath)
	}
}

func TestLoad_LimitsConfig(t *testing.T) {
	limitsYAML := minimalEnvYAML + `
limits:
  min_vector_len: 8
  max_vector_len: 4096
  max_batch_measures: 16
  max_matrix_names: 32
`
	origWd, _ := os.Getwd()
	dir := t.TempDir()
	writeEnvFile(t, dir, limitsYAML)
	os.Chdir(dir)
	defer os.Chdir(origWd)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.MinVectorLen != 8 {
		t.Errorf("MinVectorLen = %d, want 8", cfg.MinVectorLen)
	}
	if cfg.MaxVectorLen != 4096 {
		t.Errorf("MaxVectorLen = %d, want 4096", cfg.MaxVectorLen)
	}
	if cfg.MaxBatchMeasures != 16 {
		t.Errorf("MaxBatchMeasures = %d, want 16", cfg.MaxBatchMeasures)
	}
	if cfg.MaxMatrixNames != 32 {
		t.Errorf("MaxMatrixNames = %d, want 32", cfg.MaxMatrixNames)
	}
}

func TestLoad_ValidationFailsWhenLimitsInverted(t *testing.T) {
	invertedYAML := minimalEnvYAML + `
limits:
  min_vector_len: 64
  max_vector_len: 8
`
	origWd, _ := os.Getwd()
	dir := t.TempDir()
	writeEnvFile(t, dir, invertedYAML)
	os.Chdir(dir)
	defer os.Chdir(origWd)

	cfg, err := Load()
	if err == nil {
		t.Fatal("Load() expected error when max_vector_len < min_vector_len, got nil")
	}
	if cfg != nil {
		t.Fatalf("Load() expected nil config on error, got %+v", cfg)
	}
	if !strings.Contains(err.Error(), "max_vector_len") {
		t.Errorf("Load() error = %v, want message about max_vector_len", err)
	}
}

func TestLoad_ValidationFailsWhenPortNotNumeric(t *testing.T) {
	badPortYAML := strings.Replace(minimalEnvYAML, `port: "8080"`, `port: "http"`, 1)
	origWd, _ := os.Getwd()
	dir := t.TempDir()
	writeEnvFile(t, dir, badPortYAML)
	os.Chdir(dir)
	defer os.Chdir(origWd)

	cfg, err := Load()
	if err == nil {
		t.Fatal("Load() expected error for non-numeric port, got nil")
	}
	if cfg != nil {
		t.Fatalf("Load() expected nil config on error, got %+v", cfg)
	}
	if !strings.Contains(err.Error(), "server.port") {
		t.Errorf("Load() error = %v, want message about server.port", err)
	}
}

func TestLoad_ShutdownTimeoutAutoAdjusted(t *testing.T) {
	shortShutdownYAML := `
server:
  port: "8080"
request:
  timeout: "10s"
cache:
  backend: "in_memory"
  ttl: "5m"
store:
  path: "data/test.db"
shutdown:
  timeout: "1s"
`
	origWd, _ := os.Getwd()
	dir := t.TempDir()
	writeEnvFile(t, dir, shortShutdownYAML)
	os.Chdir(dir)
	defer os.Chdir(origWd)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.ShutdownTimeout != cfg.RequestTimeout+time.Second {
		t.Errorf("ShutdownTimeout = %v, want request timeout + 1s", cfg.ShutdownTimeout)
	}
}

func TestLoad_LifecycleOverloadConfig(t *testing.T) {
	lifecycleYAML := minimalEnvYAML + `
lifecycle:
  overload_window: "30s"
  overload_threshold_pct: 90
  idle_threshold_req_per_min: 3
  idle_window: "2m"
  minimum_lifespan: "1m"
  degraded_window: "60s"
  degraded_error_pct: 10
  degraded_retry_initial: "2m"
  degraded_retry_max: "15m"
`
	origWd, _ := os.Getwd()
	dir := t.TempDir()
	writeEnvFile(t, dir, lifecycleYAML)
	os.Chdir(dir)
	defer os.Chdir(origWd)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.OverloadWindow != 30*time.Second {
		t.Errorf("OverloadWindow = %v, want 30s", cfg.OverloadWindow)
	}
	if cfg.OverloadThresholdPct != 90 {
		t.Errorf("OverloadThresholdPct = %d, want 90", cfg.OverloadThresholdPct)
	}
	if cfg.IdleThresholdReqPerMin != 3 {
		t.Errorf("IdleThresholdReqPerMin = %d, want 3", cfg.IdleThresholdReqPerMin)
	}
	if cfg.IdleWindow != 2*time.Minute {
		t.Errorf("IdleWindow = %v, want 2m", cfg.IdleWindow)
	}
	if cfg.MinimumLifespan != 1*time.Minute {
		t.Errorf("MinimumLifespan = %v, want 1m", cfg.MinimumLifespan)
	}
	if cfg.DegradedWindow != 60*time.Second {
		t.Errorf("DegradedWindow = %v, want 60s", cfg.DegradedWindow)
	}
	if cfg.DegradedErrorPct != 10 {
		t.Errorf("DegradedErrorPct = %d, want 10", cfg.DegradedErrorPct)
	}
	if cfg.DegradedRetryInitial != 2*time.Minute {
		t.Errorf("DegradedRetryInitial = %v, want 2m", cfg.DegradedRetryInitial)
	}
	if cfg.DegradedRetryMax != 15*time.Minute {
		t.Errorf("DegradedRetryMax = %v, want 15m", cfg.DegradedRetryMax)
	}
}

func TestLoad_WarmConfig(t *testing.T) {
	warmYAML := minimalEnvYAML + `
warm:
  enabled: true
  measures: ["jaccard", "smc"]
  interval: "10m"
`
	origWd, _ := os.Getwd()
	dir := t.TempDir()
	writeEnvFile(t, dir, warmYAML)
	os.Chdir(dir)
	defer os.Chdir(origWd)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !cfg.WarmEnabled {
		t.Error("WarmEnabled = false, want true")
	}
	if len(cfg.WarmMeasures) != 2 || cfg.WarmMeasures[0] != "jaccard" || cfg.WarmMeasures[1] != "smc" {
		t.Errorf("WarmMeasures = %v, want [jaccard smc]", cfg.WarmMeasures)
	}
	if cfg.WarmInterval != 10*time.Minute {
		t.Errorf("WarmInterval = %v, want 10m", cfg.WarmInterval)
	}
}

func TestLoad_TestingModeDefaultsFalse(t *testing.T) {
	origWd, _ := os.Getwd()
	dir := t.TempDir()
	writeEnvFile(t, dir, minimalEnvYAML)
	os.Chdir(dir)
	defer os.Chdir(origWd)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.TestingMode {
		t.Error("TestingMode = true, want false when omitted (default)")
	}
}

func TestLoad_TestingModeTrue(t *testing.T) {
	yamlWithTesting := minimalEnvYAML + "\ntesting_mode: true\n"
	origWd, _ := os.Getwd()
	dir := t.TempDir()
	writeEnvFile(t, dir, yamlWithTesting)
	os.Chdir(dir)
	defer os.Chdir(origWd)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !cfg.TestingMode {
		t.Error("TestingMode = false, want true")
	}
}

func TestLoad_FromProjectRoot(t *testing.T) {
	origWd, _ := os.Getwd()
	os.Chdir(findProjectRoot(t))
	defer os.Chdir(origWd)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg == nil {
		t.Fatal("Load() returned nil config")
	}
	if cfg.ServerPort == "" || cfg.StorePath == "" {
		t.Errorf("Load() did not populate config from config/dev.yaml")
	}
}

const minimalEnvYAML = `
server:
  port: "8080"
request:
  timeout: "5s"
cache:
  backend: "in_memory"
  ttl: "5m"
store:
  path: "data/test.db"
reliability:
  retry_max_attempts: 3
  retry_base_delay: "100ms"
  retry_max_delay: "2s"
  rate_limit_rps: 5
  rate_limit_burst: 10
shutdown:
  timeout: "10s"
`

func writeEnvFile(t *testing.T, dir, content string) {
	t.Helper()
	configDir := filepath.Join(dir, "config")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		t.Fatalf("mkdir config: %v", err)
	}
	if err := os.WriteFile(filepath.Join(configDir, "dev.yaml"), []byte(content), 0644); err != nil {
		t.Fatalf("write config file: %v", err)
	}
}

// TestCoverageGaps_IntentionallyUntested documents paths we reviewed but chose not to test.
// Run with -v to see skip reasons. These gaps do not affect coverage targets.
func TestCoverageGaps_IntentionallyUntested(t *testing.T) {
	t.Run("Load_read_config_error", func(t *testing.T) {
		t.Skip("ReadFile error path (permission denied, etc.) would require injecting failure; not worth portability cost")
	})
	t.Run("Load_getwd_error", func(t *testing.T) {
		t.Skip("Getwd failure requires removing the working directory mid-test; OS-specific and flaky")
	})
}

func findProjectRoot(t *testing.T) string {
	t.Helper()
	dir, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "config", "dev.yaml")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("config/dev.yaml not found (run tests from project root)")
		}
		dir = parent
	}
}
