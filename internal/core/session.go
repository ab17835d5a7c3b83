package core

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/gabgate/internal/transfer"
)

// State is a step in the server-side connection lifecycle.
type State int

const (
	StateConnecting State = iota
	StateAuthenticating
	StateIdle
	StateInRoom
	StateDisconnected
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateAuthenticating:
		return "authenticating"
	case StateIdle:
		return "idle"
	case StateInRoom:
		return "in_room"
	case StateDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// Handshake is the identity a connection declares when it opens.
// The token has already been verified by the transport.
type Handshake struct {
	Username   string
	ClientType string
}

// Session drives one connection through its lifecycle.
// Handle is expected to be called from a single goroutine; Close may race with it.
type Session struct {
	hub     *Hub
	client  *Client
	limiter *rateLimiter
	log     zerolog.Logger

	mu         sync.Mutex
	state      State
	room       string
	registered bool
	closeOnce  sync.Once
}

// NewSession creates a session in the Connecting state.
func NewSession(hub *Hub, client *Client) *Session {
	return &Session{
		hub:     hub,
		client:  client,
		limiter: newRateLimiter(hub.policy.RateLimitPerMinute),
		log:     hub.log.With().Str("conn_id", client.ID).Logger(),
		state:   StateConnecting,
	}
}

// Client returns the connection the session drives.
func (s *Session) Client() *Client {
	return s.client
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Room returns the current room, or "" when idle.
func (s *Session) Room() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.room
}

// Authenticate admits the connection and records its presence.
// Any failure leaves the session Disconnected.
func (s *Session) Authenticate(ctx context.Context, hs Handshake) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateConnecting {
		return ErrInvalidState
	}
	s.state = StateAuthenticating

	if hs.Username == "" || (s.hub.policy.Production && hs.ClientType != s.hub.policy.ClientType) {
		s.state = StateDisconnected
		s.log.Warn().Str("client", hs.ClientType).Str("username", hs.Username).Msg("client rejected")
		return coreError(ErrCodeClientRejected, "client rejected", ErrClientRejected)
	}

	added, err := s.hub.presence.Add(ctx, hs.Username)
	if err != nil {
		s.state = StateDisconnected
		s.log.Error().Err(err).Str("username", hs.Username).Msg("presence add failed")
		return coreError(ErrCodePresenceUnavailable, "presence registry unavailable", errors.Join(ErrPresenceUnavailable, err))
	}
	if !added {
		s.state = StateDisconnected
		s.log.Info().Str("username", hs.Username).Msg("duplicate login rejected")
		return coreError(ErrCodeUserConnected, "user already connected", ErrUserConnected)
	}

	s.client.Name = hs.Username
	s.registered = true
	s.state = StateIdle
	s.log = s.log.With().Str("username", hs.Username).Logger()
	s.log.Info().Msg("connected")
	return nil
}

// Handle processes one command. Validation and room errors are reported to the
// client as scoped events; the returned error is only non-nil when the session
// cannot process commands at all.
func (s *Session) Handle(ctx context.Context, cmd Command) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateIdle && s.state != StateInRoom {
		return ErrInvalidState
	}

	switch cmd.Kind {
	case CommandCreateRoom:
		s.createRoom(ctx, cmd.Room)
	case CommandJoinRoom:
		s.joinRoom(ctx, cmd.Room)
	case CommandLeaveRoom:
		s.leaveRoom(ctx)
	case CommandRoomDetails:
		s.roomDetails(ctx, cmd.Room)
	case CommandChatInput:
		s.chatInput(ctx, cmd.Text)
	case CommandChatFile:
		s.chatFile(ctx, cmd.File)
	default:
		s.scopedError("Unknown command!")
	}
	return nil
}

func (s *Session) createRoom(ctx context.Context, room string) {
	if room == "" {
		s.scopedError("Room id is required!")
		return
	}

	previous, err := s.hub.rooms.Create(ctx, room, s.client)
	if err != nil {
		s.internalError(err, "create room")
		return
	}
	s.enterRoom(ctx, room, previous)
	s.client.Deliver(&Event{Kind: EventCreatedRoom, Room: room})
	s.log.Info().Str("room", room).Msg("room created")
}

func (s *Session) joinRoom(ctx context.Context, room string) {
	if room == "" {
		s.client.Deliver(s.hub.notice(EventServerError, "", "Room id is required!"))
		return
	}

	previous, err := s.hub.rooms.Join(ctx, room, s.client)
	if errors.Is(err, ErrRoomNotFound) {
		s.client.Deliver(s.hub.notice(EventServerError, room, fmt.Sprintf("Room %s not found!", room)))
		return
	}
	if err != nil {
		s.internalError(err, "join room")
		return
	}

	s.client.Deliver(&Event{Kind: EventJoinedRoom, Room: room})
	if previous == room {
		return
	}
	s.enterRoom(ctx, room, previous)
	s.broadcast(ctx, room, s.client.ID, s.hub.notice(EventChatInfo, room, s.client.Name+" joined this room!"))
	s.log.Info().Str("room", room).Msg("joined room")
}

// enterRoom records the new room and notifies the room that was implicitly left.
func (s *Session) enterRoom(ctx context.Context, room, previous string) {
	s.room = room
	s.state = StateInRoom
	if previous != "" && previous != room {
		s.notifyLeft(ctx, previous)
	}
}

func (s *Session) leaveRoom(ctx context.Context) {
	room, err := s.hub.rooms.Leave(ctx, s.client)
	if err != nil {
		s.internalError(err, "leave room")
		return
	}
	s.room = ""
	s.state = StateIdle
	if room != "" {
		s.notifyLeft(ctx, room)
		s.log.Info().Str("room", room).Msg("left room")
	}
}

func (s *Session) notifyLeft(ctx context.Context, room string) {
	s.broadcast(ctx, room, s.client.ID, s.hub.notice(EventChatInfo, room, s.client.Name+" left this room!"))
}

// roomDetails is sent to the whole room, not only to the requester.
func (s *Session) roomDetails(ctx context.Context, requested string) {
	if s.state != StateInRoom {
		s.scopedError("You are not in a room!")
		return
	}
	if requested != "" && requested != s.room {
		s.scopedError(fmt.Sprintf("You are not in room %s!", requested))
		return
	}

	count, err := s.hub.rooms.MemberCount(ctx, s.room)
	if err != nil {
		s.internalError(err, "count members")
		return
	}
	raw := fmt.Sprintf("Room {id: %s, members: %d}", s.room, count)
	s.broadcast(ctx, s.room, "", s.hub.notice(EventChatMessage, s.room, raw))
}

func (s *Session) chatInput(ctx context.Context, text string) {
	if s.state != StateInRoom {
		s.scopedError("You are not in a room!")
		return
	}
	if text == "" {
		return
	}
	if !s.limiter.allow() {
		s.scopedError("Slow down! Message rate limit reached.")
		return
	}

	s.broadcast(ctx, s.room, s.client.ID, &Event{
		Kind: EventChatMessage,
		Room: s.room,
		From: s.client.Name,
		Text: Text{Formatted: FormatChatMessage(text, s.client.Name), Raw: text},
	})
}

func (s *Session) chatFile(ctx context.Context, file *transfer.File) {
	if s.state != StateInRoom {
		s.scopedError("You are not in a room!")
		return
	}
	if file == nil {
		s.scopedError("No file provided!")
		return
	}
	if !s.limiter.allow() {
		s.scopedError("Slow down! Message rate limit reached.")
		return
	}

	switch {
	case file.Size > transfer.MaxFileSize:
		s.scopedError("File too large! Max 10MB allowed.")
		return
	case !file.HasValidSize():
		s.scopedError("Invalid file size! Max 10MB allowed.")
		return
	case !file.HasValidType():
		s.scopedError("Invalid file type. Allowed file types: " + transfer.AllowedTypesList())
		return
	}

	s.broadcast(ctx, s.room, s.client.ID, &Event{
		Kind: EventChatFile,
		Room: s.room,
		From: s.client.Name,
		File: file,
	})
	s.log.Debug().Str("room", s.room).Str("file", file.FileName()).Int64("size", file.Size).Msg("file relayed")
}

func (s *Session) broadcast(ctx context.Context, room, exceptID string, ev *Event) {
	if err := s.hub.rooms.Broadcast(ctx, room, exceptID, ev); err != nil {
		s.log.Error().Err(err).Str("room", room).Stringer("event", ev.Kind).Msg("broadcast failed")
	}
}

func (s *Session) scopedError(raw string) {
	s.client.Deliver(s.hub.notice(EventChatError, s.room, raw))
}

// ReportError sends a scoped chat-error to this connection only.
// Transports use it for frames they could not decode.
func (s *Session) ReportError(raw string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scopedError(raw)
}

func (s *Session) internalError(err error, op string) {
	s.log.Error().Err(err).Str("op", op).Msg("registry error")
	s.scopedError("Unexpected server error!")
}

// Close runs the disconnect cleanup once: leave the room with a departure
// notice and drop the presence entry. Later calls are no-ops.
func (s *Session) Close(ctx context.Context) {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		registered := s.registered
		s.state = StateDisconnected
		s.registered = false
		if !registered {
			return
		}

		room, err := s.hub.rooms.Leave(ctx, s.client)
		if err != nil {
			s.log.Error().Err(err).Msg("leave on disconnect failed")
		}
		if room != "" {
			s.notifyLeft(ctx, room)
		}
		s.room = ""

		if err := s.hub.presence.Remove(ctx, s.client.Name); err != nil {
			s.log.Error().Err(err).Msg("presence remove failed")
		}
		s.log.Info().Msg("disconnected")
	})
}
