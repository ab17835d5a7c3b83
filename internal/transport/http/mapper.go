package http

import (
	"errors"
	"fmt"

	"github.com/vovakirdan/gabgate/internal/core"
	"github.com/vovakirdan/gabgate/internal/proto"
	"github.com/vovakirdan/gabgate/internal/transfer"
)

var errUnknownEvent = errors.New("unknown event")

// frameToCommand decodes an inbound frame. Errors are reported back to the
// sender as chat-error and do not end the connection.
func frameToCommand(frame proto.Frame) (core.Command, error) {
	switch frame.Event {
	case proto.EventCreateRoom, proto.EventJoinRoom, proto.EventRoomDetails:
		var data proto.RoomData
		if err := frame.Decode(&data); err != nil {
			return core.Command{}, fmt.Errorf("decode %s: %w", frame.Event, err)
		}
		kind := core.CommandCreateRoom
		switch frame.Event {
		case proto.EventJoinRoom:
			kind = core.CommandJoinRoom
		case proto.EventRoomDetails:
			kind = core.CommandRoomDetails
		}
		return core.Command{Kind: kind, Room: data.Room}, nil
	case proto.EventLeaveRoom:
		return core.Command{Kind: core.CommandLeaveRoom}, nil
	case proto.EventChatInput:
		var data proto.ChatInputData
		if err := frame.Decode(&data); err != nil {
			return core.Command{}, fmt.Errorf("decode %s: %w", frame.Event, err)
		}
		return core.Command{Kind: core.CommandChatInput, Text: data.Text}, nil
	case proto.EventChatInputFile:
		var file transfer.File
		if err := frame.Decode(&file); err != nil {
			return core.Command{}, fmt.Errorf("decode %s: %w", frame.Event, err)
		}
		return core.Command{Kind: core.CommandChatFile, File: &file}, nil
	default:
		return core.Command{}, fmt.Errorf("%w %q", errUnknownEvent, frame.Event)
	}
}

// eventToFrame encodes a core event for the wire.
func eventToFrame(ev *core.Event) (proto.Frame, error) {
	switch ev.Kind {
	case core.EventCreatedRoom:
		return proto.NewFrame(proto.EventCreatedRoom, proto.RoomData{Room: ev.Room})
	case core.EventJoinedRoom:
		return proto.NewFrame(proto.EventJoinedRoom, proto.RoomData{Room: ev.Room})
	case core.EventChatMessage, core.EventChatInfo, core.EventChatError:
		return proto.NewFrame(ev.Kind.String(), proto.ChatEnvelope{
			Username: ev.From,
			Msg:      proto.TextBody{Formatted: ev.Text.Formatted, Raw: ev.Text.Raw},
		})
	case core.EventChatFile:
		if ev.File == nil {
			return proto.Frame{}, errors.New("file event without file")
		}
		return proto.NewFrame(proto.EventChatMsgFile, proto.FileEnvelope{Username: ev.From, Msg: *ev.File})
	case core.EventServerError:
		return proto.NewFrame(proto.EventServerError, proto.ServerErrorData{Message: ev.Text.Raw})
	default:
		return proto.Frame{}, fmt.Errorf("unsupported event kind %v", ev.Kind)
	}
}
