package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"

	"github.com/vovakirdan/gabgate/internal/proto"
)

// ws_smoke creates a room on a running server, asks for its details and
// exits once the server answers.
func main() {
	if err := run(); err != nil {
		log.Printf("ws_smoke: %v", err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", "ws://localhost:8080/ws", "WebSocket address")
	token := flag.String("token", "", "JWT issued by /auth/login")
	user := flag.String("user", "", "username the token was issued for")
	client := flag.String("client", "gabgate-cli", "client type sent during the handshake")
	room := flag.String("room", "", "room id (random when empty)")
	timeout := flag.Duration("timeout", 5*time.Second, "total timeout for the run")
	flag.Parse()

	if *room == "" {
		*room = uuid.NewString()
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	u, err := url.Parse(*addr)
	if err != nil {
		return fmt.Errorf("parse addr: %w", err)
	}
	q := u.Query()
	q.Set(proto.QueryToken, *token)
	q.Set(proto.QueryUsername, *user)
	q.Set(proto.QueryClient, *client)
	u.RawQuery = q.Encode()

	header := http.Header{}
	header.Set("client", *client)
	conn, resp, err := websocket.Dial(ctx, u.String(), &websocket.DialOptions{HTTPHeader: header})
	if err != nil {
		if resp != nil {
			return fmt.Errorf("dial: handshake rejected with %s: %w", resp.Status, err)
		}
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	send := func(event string, data any) error {
		frame, err := proto.NewFrame(event, data)
		if err != nil {
			return fmt.Errorf("encode %s: %w", event, err)
		}
		if err := wsjson.Write(ctx, conn, frame); err != nil {
			return fmt.Errorf("send %s: %w", event, err)
		}
		return nil
	}

	if err := send(proto.EventCreateRoom, proto.RoomData{Room: *room}); err != nil {
		return err
	}

	for {
		var frame proto.Frame
		if err := wsjson.Read(ctx, conn, &frame); err != nil {
			return fmt.Errorf("read: %w", err)
		}
		fmt.Printf("received event=%s data=%s\n", frame.Event, string(frame.Data))

		switch frame.Event {
		case proto.EventCreatedRoom:
			if err := send(proto.EventRoomDetails, proto.RoomData{Room: *room}); err != nil {
				return err
			}
		case proto.EventChatMsg:
			var env proto.ChatEnvelope
			if err := frame.Decode(&env); err != nil {
				return fmt.Errorf("decode chat-msg: %w", err)
			}
			fmt.Printf("room %s ok: %s\n", *room, env.Msg.Raw)
			return nil
		case proto.EventChatError, proto.EventServerError:
			return fmt.Errorf("server reported %s: %s", frame.Event, string(frame.Data))
		}
	}
}
