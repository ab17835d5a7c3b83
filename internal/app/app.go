package app

import (
	"context"
	"errors"
	"fmt"
	stdhttp "net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/pool"

	"github.com/vovakirdan/gabgate/internal/auth"
	"github.com/vovakirdan/gabgate/internal/config"
	"github.com/vovakirdan/gabgate/internal/core"
	"github.com/vovakirdan/gabgate/internal/log"
	"github.com/vovakirdan/gabgate/internal/service/friends"
	"github.com/vovakirdan/gabgate/internal/store"
	"github.com/vovakirdan/gabgate/internal/store/redisstore"
	"github.com/vovakirdan/gabgate/internal/store/sqlite"
	transporthttp "github.com/vovakirdan/gabgate/internal/transport/http"
)

// redisPingTimeout bounds the startup connectivity check.
const redisPingTimeout = 3 * time.Second

// App wires together core and transport layers.
type App struct {
	server          *stdhttp.Server
	shutdownTimeout time.Duration
	hub             *core.Hub
	store           store.Store
	redis           *redis.Client
	log             *zerolog.Logger
}

// New constructs the application with provided configuration.
func New(cfg *config.Config, logger *zerolog.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	st, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}
	logger.Info().Str("db_path", cfg.DatabasePath).Msg("database initialized")

	a := &App{
		shutdownTimeout: cfg.ShutdownTimeout,
		store:           st,
		log:             logger,
	}

	presence, rooms, err := a.registries(cfg)
	if err != nil {
		a.cleanup()
		return nil, err
	}

	authService := auth.NewService(st, &auth.JWTConfig{
		Secret:   []byte(cfg.JWTSecret),
		Issuer:   cfg.JWTIssuer,
		Audience: cfg.JWTAudience,
		TTL:      cfg.JWTTTL,
	})

	a.hub = core.NewHub(presence, rooms, core.Policy{
		Production:         cfg.IsProduction(),
		ClientType:         cfg.ClientType,
		ServerName:         cfg.ServerName,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	}, log.Module(logger, "core"))

	a.server = transporthttp.NewServer(transporthttp.Deps{
		Hub:     a.hub,
		Auth:    authService,
		Store:   st,
		Friends: friends.New(st),
	}, cfg, log.Module(logger, "http"))

	return a, nil
}

// registries picks the presence and room backends named by the config.
func (a *App) registries(cfg *config.Config) (core.Presence, core.RoomRegistry, error) {
	if cfg.PresenceBackend != config.PresenceRedis {
		a.log.Info().Msg("using in-memory presence and rooms")
		return core.NewMemoryPresence(), core.NewMemoryRooms(), nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	a.redis = rdb

	ctx, cancel := context.WithTimeout(context.Background(), redisPingTimeout)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, nil, fmt.Errorf("connect redis %s: %w", cfg.RedisAddr, err)
	}

	a.log.Info().Str("redis_addr", cfg.RedisAddr).Msg("using redis presence and rooms")
	return redisstore.NewPresence(rdb), redisstore.NewRooms(rdb, "", a.log), nil
}

// Handler exposes the HTTP handler, mainly for tests.
func (a *App) Handler() stdhttp.Handler {
	return a.server.Handler
}

// Run starts the HTTP server and the hub's background work and blocks until
// context cancellation or the first fatal error.
func (a *App) Run(ctx context.Context) error {
	defer a.cleanup()

	p := pool.New().WithContext(ctx).WithCancelOnError()
	p.Go(func(ctx context.Context) error {
		if err := a.hub.Run(ctx); err != nil {
			return fmt.Errorf("hub: %w", err)
		}
		return nil
	})
	p.Go(a.serve)

	return p.Wait()
}

func (a *App) serve(ctx context.Context) error {
	serverErr := make(chan error, 1)
	go func() {
		a.log.Info().Str("addr", a.server.Addr).Msg("http server listening")
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()

		a.log.Info().Msg("shutting down http server")
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return <-serverErr
	}
}

// cleanup closes database and other resources.
func (a *App) cleanup() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close redis client")
		}
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close store")
		} else {
			a.log.Info().Msg("store closed")
		}
	}
}
