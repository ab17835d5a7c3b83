package proto

import (
	"encoding/json"

	"github.com/vovakirdan/gabgate/internal/transfer"
)

// Frame is the envelope for every message on the wire, in both directions.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Client to server events.
const (
	EventCreateRoom    = "create-room"
	EventJoinRoom      = "join-room"
	EventLeaveRoom     = "leave-room"
	EventRoomDetails   = "room-details"
	EventChatInput     = "chat-input"
	EventChatInputFile = "chat-input-file"
)

// Server to client events.
const (
	EventCreatedRoom = "created-room"
	EventJoinedRoom  = "joined-room"
	EventChatMsg     = "chat-msg"
	EventChatInfo    = "chat-info"
	EventChatError   = "chat-error"
	EventChatMsgFile = "chat-msg-file"
	EventServerError = "server-error"
)

// Handshake query parameters.
const (
	QueryToken    = "token"
	QueryUsername = "username"
	QueryClient   = "client"
)

// Handshake rejection codes returned in the HTTP body before upgrade.
const (
	CodeTokenExpired        = "token_expired"
	CodeInvalidToken        = "invalid_token"
	CodeClientRejected      = "client_rejected"
	CodeUserConnected       = "user_connected"
	CodePresenceUnavailable = "presence_unavailable"
)

// RoomData carries a room hash.
type RoomData struct {
	Room string `json:"room"`
}

// ChatInputData is a text line typed by the user.
type ChatInputData struct {
	Text string `json:"text"`
}

// TextBody holds both renderings of a chat line.
type TextBody struct {
	Formatted string `json:"formatted"`
	Raw       string `json:"raw"`
}

// ChatEnvelope is relayed for chat-msg, chat-info and chat-error.
type ChatEnvelope struct {
	Username string   `json:"username"`
	Msg      TextBody `json:"msg"`
}

// FileEnvelope is relayed for chat-msg-file.
type FileEnvelope struct {
	Username string        `json:"username"`
	Msg      transfer.File `json:"msg"`
}

// ServerErrorData is a fatal server message for the session.
type ServerErrorData struct {
	Message string `json:"message"`
}

// HandshakeError is the JSON body of a rejected websocket handshake.
type HandshakeError struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// NewFrame marshals data under the given event name.
func NewFrame(event string, data any) (Frame, error) {
	if data == nil {
		return Frame{Event: event}, nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return Frame{}, err
	}
	return Frame{Event: event, Data: raw}, nil
}

// Decode unmarshals the frame payload into v.
func (f Frame) Decode(v any) error {
	if len(f.Data) == 0 {
		return nil
	}
	return json.Unmarshal(f.Data, v)
}
