package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/vovakirdan/gabgate/internal/store/sqlite"
)

func testJWTConfig() *JWTConfig {
	return &JWTConfig{
		Secret:   []byte("test-secret-change-me"),
		Issuer:   "gabgate-api",
		Audience: "gabgate-cli",
		TTL:      24 * time.Hour,
	}
}

func newTestAuthService(t *testing.T) *Service {
	t.Helper()

	SetHashCost(0)
	st, err := sqlite.NewWithSetup(":memory:", sqlite.Migrate)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	return NewService(st, testJWTConfig())
}

func TestRegister_Validation(t *testing.T) {
	svc := newTestAuthService(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		email    string
		username string
		password string
		want     error
	}{
		{"bad email", "not-an-email", "alice", "password123", ErrInvalidEmail},
		{"display name email", "Alice <alice@example.com>", "alice", "password123", ErrInvalidEmail},
		{"short username", "a@example.com", "ab", "password123", ErrInvalidUsername},
		{"short username after trim", "a@example.com", " ab ", "password123", ErrInvalidUsername},
		{"username with space", "a@example.com", "al ice", "password123", ErrInvalidUsername},
		{"short password", "a@example.com", "alice", "12345", ErrInvalidPassword},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := svc.Register(ctx, tt.email, tt.username, tt.password); !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestRegister_CreatesUserAndRejectsDuplicates(t *testing.T) {
	svc := newTestAuthService(t)
	ctx := context.Background()

	user, token, err := svc.Register(ctx, " Alice@Example.com ", " alice ", "password123")
	if err != nil {
		t.Fatalf("expected registration success, got %v", err)
	}
	if token == "" {
		t.Fatalf("expected non-empty token")
	}
	if user.Email != "alice@example.com" || user.Username != "alice" {
		t.Fatalf("unexpected user: %+v", user)
	}

	claims, err := svc.ValidateToken(token)
	if err != nil {
		t.Fatalf("validate token: %v", err)
	}
	if claims.UserID != user.ID || claims.Username != "alice" {
		t.Fatalf("unexpected claims: %+v", claims)
	}

	if _, _, err := svc.Register(ctx, "alice@example.com", "other", "password123"); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
	if _, _, err := svc.Register(ctx, "other@example.com", "alice", "password123"); !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}
}

func TestLogin(t *testing.T) {
	svc := newTestAuthService(t)
	ctx := context.Background()

	if _, _, err := svc.Register(ctx, "bob@example.com", "bob", "password123"); err != nil {
		t.Fatalf("register: %v", err)
	}

	user, token, err := svc.Login(ctx, "BOB@example.com", "password123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if user.Username != "bob" || token == "" {
		t.Fatalf("unexpected login result: %+v %q", user, token)
	}

	if _, _, err := svc.Login(ctx, "bob@example.com", "wrong-password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, _, err := svc.Login(ctx, "nobody@example.com", "password123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestValidateToken_Errors(t *testing.T) {
	cfg := testJWTConfig()

	expiredCfg := *cfg
	expiredCfg.TTL = -time.Minute
	expired, err := GenerateToken(&expiredCfg, 1, "alice")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	otherAudience := *cfg
	otherAudience.Audience = "browser"
	wrongAud, _ := GenerateToken(&otherAudience, 1, "alice")

	otherSecret := *cfg
	otherSecret.Secret = []byte("another-secret")
	forged, _ := GenerateToken(&otherSecret, 1, "alice")

	none := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{Username: "alice"})
	unsigned, _ := none.SignedString(jwt.UnsafeAllowNoneSignatureType)

	tests := []struct {
		name  string
		token string
		want  error
	}{
		{"empty", "", ErrInvalidToken},
		{"garbage", "not.a.jwt", ErrInvalidToken},
		{"expired", expired, ErrTokenExpired},
		{"wrong audience", wrongAud, ErrInvalidToken},
		{"wrong secret", forged, ErrInvalidToken},
		{"alg none", unsigned, ErrInvalidToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ValidateToken(cfg, tt.token); !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}
