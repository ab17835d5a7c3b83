package core

import "github.com/vovakirdan/gabgate/internal/transfer"

// CommandKind describes what the client wants to do.
type CommandKind int

const (
	// CommandCreateRoom registers a room and joins it.
	CommandCreateRoom CommandKind = iota
	// CommandJoinRoom joins an existing room.
	CommandJoinRoom
	// CommandLeaveRoom leaves the current room.
	CommandLeaveRoom
	// CommandRoomDetails reports id and member count of the current room.
	CommandRoomDetails
	// CommandChatInput relays a text line to the room.
	CommandChatInput
	// CommandChatFile relays a file to the room.
	CommandChatFile
)

func (k CommandKind) String() string {
	switch k {
	case CommandCreateRoom:
		return "create-room"
	case CommandJoinRoom:
		return "join-room"
	case CommandLeaveRoom:
		return "leave-room"
	case CommandRoomDetails:
		return "room-details"
	case CommandChatInput:
		return "chat-input"
	case CommandChatFile:
		return "chat-input-file"
	default:
		return "unknown"
	}
}

// Command represents an action requested by a client.
type Command struct {
	Kind CommandKind
	Room string
	Text string
	File *transfer.File
}
