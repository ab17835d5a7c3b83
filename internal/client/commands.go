package client

import (
	"context"
	"errors"
	"strings"

	"github.com/vovakirdan/gabgate/internal/proto"
	"github.com/vovakirdan/gabgate/internal/transfer"
)

// Slash commands understood in a room.
const (
	CmdClear  = "clear"
	CmdLeave  = "leave"
	CmdRoom   = "room"
	CmdMute   = "mute"
	CmdUnmute = "unmute"
	CmdFile   = "file"
)

// parseCommand splits "/name arg..." into its name and the remaining argument.
func parseCommand(line string) (string, string) {
	line = strings.TrimPrefix(strings.TrimSpace(line), "/")
	name, arg, _ := strings.Cut(line, " ")
	return strings.ToLower(name), strings.TrimSpace(arg)
}

func (s *Session) runCommand(ctx context.Context, line string) (bool, error) {
	name, arg := parseCommand(line)

	switch name {
	case CmdClear:
		s.r.Clear()
	case CmdLeave:
		if err := s.send(ctx, proto.EventLeaveRoom, nil); err != nil {
			s.log.Debug().Err(err).Msg("send leave")
		}
		s.r.Info("You left the room.")
		return true, nil
	case CmdRoom:
		if err := s.send(ctx, proto.EventRoomDetails, proto.RoomData{Room: s.room}); err != nil {
			return true, errors.Join(ErrDisconnected, err)
		}
	case CmdMute:
		s.notify = false
		s.r.Info("Notifications muted.")
	case CmdUnmute:
		s.notify = true
		s.r.Info("Notifications unmuted.")
	case CmdFile:
		return false, s.sendFile(ctx, arg)
	default:
		s.r.Error("Command not found!")
	}
	return false, nil
}

// sendFile loads and validates a local file before sending it to the room.
// Validation failures are reported locally and never reach the server.
func (s *Session) sendFile(ctx context.Context, path string) error {
	if path == "" {
		s.r.Error("No file path provided!")
		return nil
	}

	file, err := transfer.FromPath(path)
	if errors.Is(err, transfer.ErrNotFound) {
		s.r.Error("File not found!")
		return nil
	}
	if err != nil {
		s.log.Error().Err(err).Str("path", path).Msg("load file")
		s.r.Error(MsgUnexpected)
		return nil
	}

	switch {
	case !file.HasValidSize():
		s.r.Error("Invalid file size! Max 10MB allowed.")
		return nil
	case !file.HasValidType():
		s.r.Error("Invalid file type! Allowed file types: " + transfer.AllowedTypesList())
		return nil
	}

	if err := s.send(ctx, proto.EventChatInputFile, file); err != nil {
		return errors.Join(ErrDisconnected, err)
	}
	s.r.Info("File sent: " + file.FileName())
	return nil
}
