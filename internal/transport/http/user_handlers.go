package http

import (
	"errors"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/gabgate/internal/core"
	"github.com/vovakirdan/gabgate/internal/service/friends"
	"github.com/vovakirdan/gabgate/internal/store"
)

// UserHandlers provides HTTP handlers for user lookups.
type UserHandlers struct {
	store    store.Store
	friends  *friends.Service
	presence core.Presence
	log      *zerolog.Logger
}

// NewUserHandlers creates a new user handlers instance.
func NewUserHandlers(st store.Store, svc *friends.Service, presence core.Presence, logger *zerolog.Logger) *UserHandlers {
	return &UserHandlers{
		store:    st,
		friends:  svc,
		presence: presence,
		log:      logger,
	}
}

// ListUsers returns the user with an exact username, or a substring search
// when the parameter is absent.
// GET /users?username=
func (h *UserHandlers) ListUsers(c *gin.Context) {
	ctx := c.Request.Context()
	username := strings.TrimSpace(c.Query("username"))

	var users []*store.User
	if username != "" {
		u, err := h.store.GetUserByUsername(ctx, username)
		switch {
		case err == nil:
			users = []*store.User{u}
		case errors.Is(err, store.ErrNotFound):
		default:
			h.log.Error().Err(err).Str("username", username).Msg("failed to look up user")
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
			return
		}
	} else {
		found, err := h.store.SearchUsers(ctx, c.Query("q"))
		if err != nil {
			h.log.Error().Err(err).Msg("failed to search users")
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
			return
		}
		users = found
	}

	response := make([]UserResponse, 0, len(users))
	for _, u := range users {
		names, err := h.friends.Usernames(ctx, u.ID)
		if err != nil {
			h.log.Error().Err(err).Int64("user_id", u.ID).Msg("failed to list friends")
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
			return
		}
		response = append(response, toUserResponse(u, names))
	}

	c.JSON(http.StatusOK, response)
}

// GetUser returns one user with their friend list.
// GET /users/:id
func (h *UserHandlers) GetUser(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request!"})
		return
	}

	ctx := c.Request.Context()
	user, err := h.store.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "User not found!"})
			return
		}
		h.log.Error().Err(err).Int64("user_id", id).Msg("failed to get user")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	names, err := h.friends.Usernames(ctx, user.ID)
	if err != nil {
		h.log.Error().Err(err).Int64("user_id", id).Msg("failed to list friends")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}
	c.JSON(http.StatusOK, toUserResponse(user, names))
}

// ConnectedUsers lists usernames with a live websocket connection.
// GET /users/connected
func (h *UserHandlers) ConnectedUsers(c *gin.Context) {
	users, err := h.presence.List(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("failed to list presence")
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "presence registry unavailable"})
		return
	}
	sort.Strings(users)
	c.JSON(http.StatusOK, users)
}
