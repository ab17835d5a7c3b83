package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/gabgate/internal/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()

	cfg := config.Default()
	cfg.Addr = "127.0.0.1:0"
	cfg.DatabasePath = filepath.Join(t.TempDir(), "gabgate.db")
	cfg.ShutdownTimeout = time.Second
	return &cfg
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.PresenceBackend = "etcd"
	logger := zerolog.Nop()

	if _, err := New(cfg, &logger); err == nil {
		t.Fatalf("expected config validation error")
	}
}

func TestNewFailsWhenRedisUnreachable(t *testing.T) {
	cfg := testConfig(t)
	cfg.PresenceBackend = config.PresenceRedis
	cfg.RedisAddr = "127.0.0.1:1"
	logger := zerolog.Nop()

	if _, err := New(cfg, &logger); err == nil {
		t.Fatalf("expected redis connection error")
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	for _, backend := range []string{config.PresenceMemory, config.PresenceRedis} {
		t.Run(backend, func(t *testing.T) {
			cfg := testConfig(t)
			cfg.PresenceBackend = backend
			if backend == config.PresenceRedis {
				cfg.RedisAddr = miniredis.RunT(t).Addr()
			}
			logger := zerolog.Nop()

			a, err := New(cfg, &logger)
			if err != nil {
				t.Fatalf("new app: %v", err)
			}

			// The handler is fully wired before Run.
			w := httptest.NewRecorder()
			a.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
			if w.Code != http.StatusOK {
				t.Fatalf("health: %d", w.Code)
			}

			ctx, cancel := context.WithCancel(context.Background())
			done := make(chan error, 1)
			go func() { done <- a.Run(ctx) }()

			time.Sleep(100 * time.Millisecond)
			cancel()

			select {
			case err := <-done:
				if err != nil {
					t.Fatalf("run returned error: %v", err)
				}
			case <-time.After(3 * time.Second):
				t.Fatalf("run did not stop")
			}
		})
	}
}
