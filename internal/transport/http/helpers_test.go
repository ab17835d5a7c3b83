package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/gabgate/internal/auth"
	"github.com/vovakirdan/gabgate/internal/config"
	"github.com/vovakirdan/gabgate/internal/core"
	"github.com/vovakirdan/gabgate/internal/service/friends"
	"github.com/vovakirdan/gabgate/internal/store/sqlite"
)

type testEnv struct {
	deps   Deps
	cfg    config.Config
	router http.Handler
}

func testConfig() config.Config {
	cfg := config.Default()
	cfg.JWTSecret = "test-secret"
	cfg.JWTTTL = time.Hour
	cfg.MaxFrameBytes = 1 << 20
	return cfg
}

// newTestEnv wires the HTTP layer over an in-memory store and hub.
func newTestEnv(t *testing.T, cfg config.Config) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	auth.SetHashCost(0)

	st, err := sqlite.NewWithSetup(":memory:", sqlite.Migrate)
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	authService := auth.NewService(st, &auth.JWTConfig{
		Secret:   []byte(cfg.JWTSecret),
		Issuer:   cfg.JWTIssuer,
		Audience: cfg.JWTAudience,
		TTL:      cfg.JWTTTL,
	})
	hub := core.NewHub(nil, nil, core.Policy{
		Production: cfg.IsProduction(),
		ClientType: cfg.ClientType,
		ServerName: cfg.ServerName,
	}, nil)

	deps := Deps{Hub: hub, Auth: authService, Store: st, Friends: friends.New(st)}
	logger := zerolog.Nop()
	return &testEnv{deps: deps, cfg: cfg, router: NewHandler(deps, &cfg, &logger)}
}

// register creates a user through the service and returns its id and token.
func (e *testEnv) register(t *testing.T, username string) (int64, string) {
	t.Helper()

	user, token, err := e.deps.Auth.Register(t.Context(), username+"@example.com", username, "password123")
	if err != nil {
		t.Fatalf("register %s: %v", username, err)
	}
	return user.ID, token
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return v
}

func expectStatus(t *testing.T, w *httptest.ResponseRecorder, status int) {
	t.Helper()

	if w.Code != status {
		t.Fatalf("expected status %d, got %d: %s", status, w.Code, w.Body.String())
	}
}

