// Package client implements the terminal side of a chat session: the websocket
// connection, the session state machine, slash commands and rendering.
package client

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/gabgate/internal/proto"
	"github.com/vovakirdan/gabgate/internal/transfer"
)

// Mode selects whether Run creates a room or joins an existing one.
type Mode int

const (
	ModeCreate Mode = iota
	ModeJoin
)

// State is a step in the client session lifecycle.
type State int

const (
	StateConnecting State = iota
	StateAwaitingRoom
	StateInRoom
	StateAwaitingFileDecision
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateAwaitingRoom:
		return "awaiting_room"
	case StateInRoom:
		return "in_room"
	case StateAwaitingFileDecision:
		return "awaiting_file_decision"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Options configure a Session.
type Options struct {
	StorageDir   string
	Sound        bool
	Notification bool
}

// Session drives one room conversation over a Transport.
// All state is owned by the goroutine calling Run.
type Session struct {
	conn  Transport
	input <-chan string
	r     *Renderer
	opts  Options
	log   *zerolog.Logger

	state   State
	room    string
	pending []*transfer.File
	notify  bool
}

// NewSession prepares a session reading local lines from input.
func NewSession(conn Transport, input <-chan string, r *Renderer, opts Options, logger *zerolog.Logger) *Session {
	return &Session{
		conn:   conn,
		input:  input,
		r:      r,
		opts:   opts,
		log:    logger,
		state:  StateConnecting,
		notify: opts.Notification,
	}
}

// State returns the current lifecycle state. Only safe to call after Run returns
// or from the goroutine running it.
func (s *Session) State() State {
	return s.state
}

// Run enters the room and processes inbound frames and local input until the
// user leaves, the connection ends or ctx is cancelled. A nil error means the
// session ended normally.
func (s *Session) Run(ctx context.Context, mode Mode, room string) error {
	defer s.close()

	event := proto.EventJoinRoom
	if mode == ModeCreate {
		event = proto.EventCreateRoom
	}
	if err := s.send(ctx, event, proto.RoomData{Room: room}); err != nil {
		return err
	}
	s.room = room
	s.state = StateAwaitingRoom

	frames := s.conn.Frames()
	input := s.input
	for {
		select {
		case <-ctx.Done():
			return nil
		case frame, ok := <-frames:
			if !ok {
				return s.disconnected()
			}
			done, err := s.handleFrame(frame)
			if done || err != nil {
				return err
			}
		case line, ok := <-input:
			if !ok {
				// stdin closed; keep receiving until the server or ctx ends the session
				input = nil
				continue
			}
			done, err := s.handleLine(ctx, line)
			if done || err != nil {
				return err
			}
		}
	}
}

func (s *Session) disconnected() error {
	err := s.conn.Err()
	if err == nil {
		err = ErrDisconnected
	}
	s.r.Error(MsgDisconnected)
	return err
}

func (s *Session) close() {
	s.state = StateClosed
	if err := s.conn.Close(); err != nil {
		s.log.Debug().Err(err).Msg("close connection")
	}
}

func (s *Session) send(ctx context.Context, event string, data any) error {
	frame, err := proto.NewFrame(event, data)
	if err != nil {
		return fmt.Errorf("encode %s: %w", event, err)
	}
	return s.conn.Send(ctx, frame)
}

func (s *Session) handleFrame(frame proto.Frame) (bool, error) {
	switch frame.Event {
	case proto.EventCreatedRoom, proto.EventJoinedRoom:
		var data proto.RoomData
		if err := frame.Decode(&data); err != nil {
			return s.badFrame(frame, err)
		}
		if data.Room != "" {
			s.room = data.Room
		}
		if s.state == StateAwaitingRoom {
			s.state = StateInRoom
		}
		if frame.Event == proto.EventCreatedRoom {
			s.r.Info("Created room! Your room id is: " + s.room)
		} else {
			s.r.Info(fmt.Sprintf("Joined room %s!", s.room))
		}
	case proto.EventChatMsg, proto.EventChatInfo, proto.EventChatError:
		var env proto.ChatEnvelope
		if err := frame.Decode(&env); err != nil {
			return s.badFrame(frame, err)
		}
		s.renderChat(frame.Event, env)
	case proto.EventChatMsgFile:
		var env proto.FileEnvelope
		if err := frame.Decode(&env); err != nil {
			return s.badFrame(frame, err)
		}
		s.queueFile(env)
	case proto.EventServerError:
		var data proto.ServerErrorData
		if err := frame.Decode(&data); err != nil {
			return s.badFrame(frame, err)
		}
		s.r.Error(data.Message)
		return true, fmt.Errorf("%w: %s", ErrServerClosed, data.Message)
	default:
		s.log.Debug().Str("event", frame.Event).Msg("ignoring unknown event")
	}
	return false, nil
}

func (s *Session) badFrame(frame proto.Frame, err error) (bool, error) {
	s.log.Error().Err(err).Str("event", frame.Event).Msg("decode frame")
	return false, nil
}

func (s *Session) renderChat(event string, env proto.ChatEnvelope) {
	switch event {
	case proto.EventChatInfo:
		s.r.Info(env.Msg.Raw)
	case proto.EventChatError:
		s.r.Error(env.Msg.Raw)
	default:
		s.r.Message(env.Username, env.Msg.Raw)
		if s.notify && s.opts.Sound {
			s.r.Bell()
		}
	}
}

// queueFile holds an incoming file until the user decides to keep it.
// Files arriving during a pending decision are prompted in arrival order.
func (s *Session) queueFile(env proto.FileEnvelope) {
	file := env.Msg
	if !file.Valid() || int64(len(file.Buffer)) != file.Size {
		s.log.Warn().Str("from", env.Username).Str("file", file.FileName()).Int64("size", file.Size).Msg("illegal file")
		s.r.Error("Illegal file received, file discarded.")
		return
	}
	s.pending = append(s.pending, &file)
	s.r.Info(fmt.Sprintf("%s sent a file: %s (%d bytes)", env.Username, file.FileName(), file.Size))
	if s.state == StateInRoom {
		s.promptFile()
	}
}

func (s *Session) promptFile() {
	s.state = StateAwaitingFileDecision
	s.r.Ask(fmt.Sprintf("Save %s? [y/N]", s.pending[0].FileName()))
}

func (s *Session) decideFile(answer string) {
	file := s.pending[0]
	s.pending = s.pending[1:]

	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		path, err := file.Save(s.opts.StorageDir)
		if err != nil {
			s.log.Error().Err(err).Str("file", file.FileName()).Msg("save file")
			s.r.Error(MsgUnexpected)
			break
		}
		s.r.Info("File saved to " + path)
	default:
		s.r.Info("File discarded.")
	}

	if len(s.pending) > 0 {
		s.promptFile()
		return
	}
	s.state = StateInRoom
	s.r.ResetPrompt()
}

func (s *Session) handleLine(ctx context.Context, line string) (bool, error) {
	switch s.state {
	case StateAwaitingFileDecision:
		s.decideFile(line)
		return false, nil
	case StateInRoom:
	default:
		// room not entered yet
		return false, nil
	}

	text := strings.TrimSpace(line)
	if text == "" {
		s.r.ResetPrompt()
		return false, nil
	}
	if strings.HasPrefix(text, "/") {
		return s.runCommand(ctx, text)
	}
	if err := s.send(ctx, proto.EventChatInput, proto.ChatInputData{Text: text}); err != nil {
		return true, errors.Join(ErrDisconnected, err)
	}
	s.r.ResetPrompt()
	return false, nil
}
