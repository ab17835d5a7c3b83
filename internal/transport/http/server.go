package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/gabgate/internal/auth"
	"github.com/vovakirdan/gabgate/internal/config"
	"github.com/vovakirdan/gabgate/internal/core"
	"github.com/vovakirdan/gabgate/internal/service/friends"
	"github.com/vovakirdan/gabgate/internal/store"
)

// Deps are the services the HTTP layer dispatches to.
type Deps struct {
	Hub     *core.Hub
	Auth    *auth.Service
	Store   store.Store
	Friends *friends.Service
}

// NewRouter builds the gin engine serving the REST routes.
func NewRouter(deps Deps, cfg *config.Config, logger *zerolog.Logger) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery(), LoggerMiddleware(logger))

	r.GET("/health", healthHandler)

	api := r.Group("/")
	if cfg.IsProduction() {
		api.Use(ClientMiddleware(cfg.ClientType))
	}

	apiHandlers := NewAPIHandlers(deps.Auth, logger)
	api.POST("/auth/register", apiHandlers.Register)
	api.POST("/auth/login", apiHandlers.Login)

	presence := deps.Hub.Presence()
	users := NewUserHandlers(deps.Store, deps.Friends, presence, logger)
	friendsHandlers := NewFriendsHandlers(deps.Friends, deps.Store, presence, logger)

	authed := api.Group("/", AuthMiddleware(deps.Auth, logger))
	authed.GET("/users", users.ListUsers)
	authed.GET("/users/connected", users.ConnectedUsers)
	authed.GET("/users/:id", users.GetUser)
	authed.POST("/friends/:userId", friendsHandlers.Add)
	authed.DELETE("/friends/:userId", friendsHandlers.Remove)
	authed.GET("/friends/online", friendsHandlers.Online)

	return r
}

// NewHandler mounts the websocket endpoint next to the REST router.
// The upgrade must hijack the raw connection, so /ws stays outside gin's
// response writer.
func NewHandler(deps Deps, cfg *config.Config, logger *zerolog.Logger) stdhttp.Handler {
	mux := stdhttp.NewServeMux()
	mux.Handle("/ws", NewWSHandler(deps.Hub, deps.Auth, cfg.MaxFrameBytes, logger))
	mux.Handle("/", NewRouter(deps, cfg, logger))
	return mux
}

// NewServer wraps the handler in an http.Server.
func NewServer(deps Deps, cfg *config.Config, logger *zerolog.Logger) *stdhttp.Server {
	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           NewHandler(deps, cfg, logger),
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

func healthHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, "ok")
}
