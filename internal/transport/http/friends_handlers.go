package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/gabgate/internal/core"
	"github.com/vovakirdan/gabgate/internal/service/friends"
	"github.com/vovakirdan/gabgate/internal/store"
)

// FriendsHandlers provides HTTP handlers for friend management endpoints.
type FriendsHandlers struct {
	service  *friends.Service
	store    store.Store
	presence core.Presence
	log      *zerolog.Logger
}

// NewFriendsHandlers creates a new friends handlers instance.
func NewFriendsHandlers(svc *friends.Service, st store.Store, presence core.Presence, logger *zerolog.Logger) *FriendsHandlers {
	return &FriendsHandlers{
		service:  svc,
		store:    st,
		presence: presence,
		log:      logger,
	}
}

// targetIDs extracts the caller and the :userId path parameter, writing the
// error response itself when either is missing.
func (h *FriendsHandlers) targetIDs(c *gin.Context) (userID, targetID int64, ok bool) {
	userID, ok = currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized!"})
		return 0, 0, false
	}
	targetID, err := strconv.ParseInt(c.Param("userId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request!"})
		return 0, 0, false
	}
	return userID, targetID, true
}

// respondWithSelf writes the caller with their updated friend list.
func (h *FriendsHandlers) respondWithSelf(c *gin.Context, userID int64) {
	ctx := c.Request.Context()
	user, err := h.store.GetUserByID(ctx, userID)
	if err != nil {
		h.log.Error().Err(err).Int64("user_id", userID).Msg("failed to load current user")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}
	names, err := h.service.Usernames(ctx, userID)
	if err != nil {
		h.log.Error().Err(err).Int64("user_id", userID).Msg("failed to list friends")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}
	c.JSON(http.StatusOK, toUserResponse(user, names))
}

// Add handles adding a friend.
// POST /friends/:userId
func (h *FriendsHandlers) Add(c *gin.Context) {
	userID, targetID, ok := h.targetIDs(c)
	if !ok {
		return
	}

	if _, err := h.service.Add(c.Request.Context(), userID, targetID); err != nil {
		switch {
		case errors.Is(err, friends.ErrUserNotFound):
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "User not found!"})
		case errors.Is(err, friends.ErrCannotFriendSelf):
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "You cannot add yourself!"})
		case errors.Is(err, friends.ErrAlreadyFriends):
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "User is already a friend!"})
		default:
			h.log.Error().Err(err).Int64("user_id", userID).Int64("friend_id", targetID).Msg("failed to add friend")
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		}
		return
	}

	h.respondWithSelf(c, userID)
}

// Remove handles removing a friend.
// DELETE /friends/:userId
func (h *FriendsHandlers) Remove(c *gin.Context) {
	userID, targetID, ok := h.targetIDs(c)
	if !ok {
		return
	}

	if _, err := h.store.GetUserByID(c.Request.Context(), targetID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "User not found!"})
			return
		}
		h.log.Error().Err(err).Int64("friend_id", targetID).Msg("failed to get user")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	if err := h.service.Remove(c.Request.Context(), userID, targetID); err != nil {
		if errors.Is(err, friends.ErrNotFriend) {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "User is not a friend!"})
			return
		}
		h.log.Error().Err(err).Int64("user_id", userID).Int64("friend_id", targetID).Msg("failed to remove friend")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	h.respondWithSelf(c, userID)
}

// Online lists the caller's friends with their presence.
// GET /friends/online
func (h *FriendsHandlers) Online(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized!"})
		return
	}

	statuses, err := h.service.OnlineStatus(c.Request.Context(), userID, h.presence)
	if err != nil {
		h.log.Error().Err(err).Int64("user_id", userID).Msg("failed to get friends online status")
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "presence registry unavailable"})
		return
	}
	c.JSON(http.StatusOK, statuses)
}
