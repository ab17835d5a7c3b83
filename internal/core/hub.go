package core

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// DefaultServerName is the username the server speaks under in chat.
const DefaultServerName = "Gabgate"

// Policy controls how sessions are admitted and throttled.
type Policy struct {
	// Production enables the client type check during authentication.
	Production bool
	// ClientType is the only client accepted in production.
	ClientType string
	// ServerName tags notices emitted by the server.
	ServerName string
	// RateLimitPerMinute caps chat inputs per connection; zero disables the cap.
	RateLimitPerMinute int
}

// Hub holds the registries shared by every session.
type Hub struct {
	presence Presence
	rooms    RoomRegistry
	policy   Policy
	log      *zerolog.Logger
}

// NewHub creates a hub. Nil registries fall back to in-memory implementations.
func NewHub(presence Presence, rooms RoomRegistry, policy Policy, logger *zerolog.Logger) *Hub {
	if presence == nil {
		presence = NewMemoryPresence()
	}
	if rooms == nil {
		rooms = NewMemoryRooms()
	}
	if policy.ServerName == "" {
		policy.ServerName = DefaultServerName
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Hub{
		presence: presence,
		rooms:    rooms,
		policy:   policy,
		log:      logger,
	}
}

// Presence exposes the presence registry for read-only lookups.
func (h *Hub) Presence() Presence {
	return h.presence
}

// Rooms exposes the room registry.
func (h *Hub) Rooms() RoomRegistry {
	return h.rooms
}

// Run drives background work of the registries, if they have any, until ctx is done.
func (h *Hub) Run(ctx context.Context) error {
	runner, ok := h.rooms.(interface{ Run(context.Context) error })
	if !ok {
		<-ctx.Done()
		return nil
	}
	return runner.Run(ctx)
}

// FormatChatMessage renders a chat line the way clients display it.
func FormatChatMessage(message, username string) string {
	return fmt.Sprintf("<%s> %s", username, message)
}

func (h *Hub) serverText(raw string) Text {
	return Text{Formatted: FormatChatMessage(raw, h.policy.ServerName), Raw: raw}
}

func (h *Hub) notice(kind EventKind, room, raw string) *Event {
	return &Event{Kind: kind, Room: room, From: h.policy.ServerName, Text: h.serverText(raw)}
}
