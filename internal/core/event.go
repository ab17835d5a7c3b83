package core

import "github.com/vovakirdan/gabgate/internal/transfer"

// EventKind is a notification the core emits to clients.
type EventKind int

const (
	// EventCreatedRoom confirms create-room to the initiator.
	EventCreatedRoom EventKind = iota
	// EventJoinedRoom confirms join-room to the initiator.
	EventJoinedRoom
	// EventChatMessage carries a chat line.
	EventChatMessage
	// EventChatInfo carries a server notice such as joins and leaves.
	EventChatInfo
	// EventChatError carries a recoverable error scoped to one connection.
	EventChatError
	// EventChatFile carries a file.
	EventChatFile
	// EventServerError carries an error after which the client gives up the session.
	EventServerError
)

func (k EventKind) String() string {
	switch k {
	case EventCreatedRoom:
		return "created-room"
	case EventJoinedRoom:
		return "joined-room"
	case EventChatMessage:
		return "chat-msg"
	case EventChatInfo:
		return "chat-info"
	case EventChatError:
		return "chat-error"
	case EventChatFile:
		return "chat-msg-file"
	case EventServerError:
		return "server-error"
	default:
		return "unknown"
	}
}

// Text is a chat line in raw and display form.
type Text struct {
	Formatted string `json:"formatted"`
	Raw       string `json:"raw"`
}

// Event is sent to clients to describe what happened in the system.
// Events are immutable once emitted; the same value may reach many clients.
type Event struct {
	Kind EventKind      `json:"kind"`
	Room string         `json:"room,omitempty"`
	From string         `json:"from,omitempty"`
	Text Text           `json:"text"`
	File *transfer.File `json:"file,omitempty"`
}
