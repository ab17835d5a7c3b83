package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/gabgate/internal/auth"
	"github.com/vovakirdan/gabgate/internal/config"
	"github.com/vovakirdan/gabgate/internal/core"
	"github.com/vovakirdan/gabgate/internal/proto"
	"github.com/vovakirdan/gabgate/internal/transfer"
)

func startTestServer(t *testing.T, env *testEnv) string {
	t.Helper()

	ts := httptest.NewServer(env.router)
	t.Cleanup(ts.Close)
	return strings.Replace(ts.URL, "http", "ws", 1) + "/ws"
}

func wsURL(base, token, username, client string) string {
	q := url.Values{}
	q.Set(proto.QueryToken, token)
	if username != "" {
		q.Set(proto.QueryUsername, username)
	}
	if client != "" {
		q.Set(proto.QueryClient, client)
	}
	return base + "?" + q.Encode()
}

func dial(t *testing.T, ctx context.Context, u string) *websocket.Conn {
	t.Helper()

	conn, _, err := websocket.Dial(ctx, u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "done") })
	return conn
}

func dialRejected(t *testing.T, ctx context.Context, u string) (int, proto.HandshakeError) {
	t.Helper()

	conn, resp, err := websocket.Dial(ctx, u, nil)
	if err == nil {
		conn.Close(websocket.StatusNormalClosure, "done")
		t.Fatalf("expected handshake rejection")
	}
	if resp == nil {
		t.Fatalf("no handshake response: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	var herr proto.HandshakeError
	_ = json.Unmarshal(body, &herr)
	return resp.StatusCode, herr
}

func send(t *testing.T, ctx context.Context, conn *websocket.Conn, event string, data any) {
	t.Helper()

	frame, err := proto.NewFrame(event, data)
	if err != nil {
		t.Fatalf("frame: %v", err)
	}
	if err := wsjson.Write(ctx, conn, frame); err != nil {
		t.Fatalf("write %s: %v", event, err)
	}
}

// expectFrame reads frames until one with the given event arrives.
func expectFrame(t *testing.T, ctx context.Context, conn *websocket.Conn, event string) proto.Frame {
	t.Helper()

	for {
		var frame proto.Frame
		if err := wsjson.Read(ctx, conn, &frame); err != nil {
			t.Fatalf("waiting for %s: %v", event, err)
		}
		if frame.Event == event {
			return frame
		}
	}
}

// enterRoom creates room on conn and waits for the confirmation, proving the
// session behind the upgrade is live.
func enterRoom(t *testing.T, ctx context.Context, conn *websocket.Conn, room string) {
	t.Helper()

	send(t, ctx, conn, proto.EventCreateRoom, proto.RoomData{Room: room})
	var data proto.RoomData
	if err := expectFrame(t, ctx, conn, proto.EventCreatedRoom).Decode(&data); err != nil {
		t.Fatalf("decode created-room: %v", err)
	}
	if data.Room != room {
		t.Fatalf("expected room %q, got %q", room, data.Room)
	}
}

func chatText(t *testing.T, frame proto.Frame) proto.ChatEnvelope {
	t.Helper()

	var env proto.ChatEnvelope
	if err := frame.Decode(&env); err != nil {
		t.Fatalf("decode chat envelope: %v", err)
	}
	return env
}

func TestWebSocketRejectsBadTokens(t *testing.T) {
	env := newTestEnv(t, testConfig())
	base := startTestServer(t, env)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	status, herr := dialRejected(t, ctx, wsURL(base, "garbage", "", ""))
	if status != http.StatusUnauthorized || herr.Code != proto.CodeInvalidToken {
		t.Fatalf("unexpected rejection %d %+v", status, herr)
	}

	expired, err := auth.GenerateToken(&auth.JWTConfig{
		Secret:   []byte(env.cfg.JWTSecret),
		Issuer:   env.cfg.JWTIssuer,
		Audience: env.cfg.JWTAudience,
		TTL:      -time.Minute,
	}, 1, "alice")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	status, herr = dialRejected(t, ctx, wsURL(base, expired, "", ""))
	if status != http.StatusUnauthorized || herr.Code != proto.CodeTokenExpired {
		t.Fatalf("unexpected rejection %d %+v", status, herr)
	}

	_, token := env.register(t, "alice")
	status, herr = dialRejected(t, ctx, wsURL(base, token, "mallory", ""))
	if status != http.StatusForbidden || herr.Code != proto.CodeClientRejected {
		t.Fatalf("unexpected rejection %d %+v", status, herr)
	}
}

func TestWebSocketProductionClientCheck(t *testing.T) {
	cfg := testConfig()
	cfg.Mode = config.ModeProduction
	env := newTestEnv(t, cfg)
	base := startTestServer(t, env)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, token := env.register(t, "alice")
	status, herr := dialRejected(t, ctx, wsURL(base, token, "alice", "curl"))
	if status != http.StatusForbidden || herr.Code != proto.CodeClientRejected {
		t.Fatalf("unexpected rejection %d %+v", status, herr)
	}

	conn := dial(t, ctx, wsURL(base, token, "alice", cfg.ClientType))
	enterRoom(t, ctx, conn, "prod-room")

	// REST routes still sit behind the client check.
	w := env.do(t, http.MethodGet, "/users/connected", token, nil)
	expectStatus(t, w, http.StatusUnauthorized)
	w = env.do(t, http.MethodGet, "/users/connected", token, nil, ClientHeader, cfg.ClientType)
	expectStatus(t, w, http.StatusOK)
}

func TestWebSocketDuplicateLogin(t *testing.T) {
	env := newTestEnv(t, testConfig())
	base := startTestServer(t, env)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, token := env.register(t, "alice")
	first := dial(t, ctx, wsURL(base, token, "alice", ""))
	enterRoom(t, ctx, first, "r1")

	status, herr := dialRejected(t, ctx, wsURL(base, token, "alice", ""))
	if status != http.StatusConflict || herr.Code != proto.CodeUserConnected {
		t.Fatalf("unexpected rejection %d %+v", status, herr)
	}

	if ok, err := env.deps.Hub.Presence().Contains(ctx, "alice"); err != nil || !ok {
		t.Fatalf("expected alice to stay present, got %v %v", ok, err)
	}
	send(t, ctx, first, proto.EventRoomDetails, proto.RoomData{Room: "r1"})
	if details := chatText(t, expectFrame(t, ctx, first, proto.EventChatMsg)); details.Msg.Raw != "Room {id: r1, members: 1}" {
		t.Fatalf("unexpected room details %+v", details)
	}
}

type downPresence struct{ *core.MemoryPresence }

func (downPresence) Add(context.Context, string) (bool, error) {
	return false, errors.New("dial tcp: connection refused")
}

func TestWebSocketPresenceUnavailable(t *testing.T) {
	env := newTestEnv(t, testConfig())
	env.deps.Hub = core.NewHub(downPresence{core.NewMemoryPresence()}, nil, core.Policy{ServerName: env.cfg.ServerName}, nil)
	logger := zerolog.Nop()
	env.router = NewHandler(env.deps, &env.cfg, &logger)
	base := startTestServer(t, env)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, token := env.register(t, "alice")
	status, herr := dialRejected(t, ctx, wsURL(base, token, "alice", ""))
	if status != http.StatusServiceUnavailable || herr.Code != proto.CodePresenceUnavailable {
		t.Fatalf("unexpected rejection %d %+v", status, herr)
	}
}

func TestWebSocketRoomScenario(t *testing.T) {
	env := newTestEnv(t, testConfig())
	base := startTestServer(t, env)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, aliceToken := env.register(t, "alice")
	_, bobToken := env.register(t, "bob")
	alice := dial(t, ctx, wsURL(base, aliceToken, "alice", ""))
	bob := dial(t, ctx, wsURL(base, bobToken, "bob", ""))

	send(t, ctx, bob, proto.EventJoinRoom, proto.RoomData{Room: "r1"})
	var serverErr proto.ServerErrorData
	if err := expectFrame(t, ctx, bob, proto.EventServerError).Decode(&serverErr); err != nil {
		t.Fatalf("decode server error: %v", err)
	}
	if serverErr.Message != "Room r1 not found!" {
		t.Fatalf("unexpected server error %q", serverErr.Message)
	}

	send(t, ctx, alice, proto.EventCreateRoom, proto.RoomData{Room: "r1"})
	expectFrame(t, ctx, alice, proto.EventCreatedRoom)

	send(t, ctx, bob, proto.EventJoinRoom, proto.RoomData{Room: "r1"})
	expectFrame(t, ctx, bob, proto.EventJoinedRoom)
	if info := chatText(t, expectFrame(t, ctx, alice, proto.EventChatInfo)); info.Msg.Raw != "bob joined this room!" {
		t.Fatalf("unexpected join notice %+v", info)
	}

	send(t, ctx, alice, proto.EventChatInput, proto.ChatInputData{Text: "hi"})
	msg := chatText(t, expectFrame(t, ctx, bob, proto.EventChatMsg))
	if msg.Username != "alice" || msg.Msg.Raw != "hi" || msg.Msg.Formatted != "<alice> hi" {
		t.Fatalf("unexpected chat message %+v", msg)
	}

	send(t, ctx, bob, proto.EventChatInputFile, transfer.File{Buffer: []byte("x"), Name: "big", Size: 11_000_000, Type: ".png"})
	if e := chatText(t, expectFrame(t, ctx, bob, proto.EventChatError)); e.Msg.Raw != "File too large! Max 10MB allowed." {
		t.Fatalf("unexpected file error %+v", e)
	}

	send(t, ctx, bob, proto.EventChatInputFile, transfer.File{Buffer: []byte("png!"), Name: "cat", Size: 4, Type: ".png"})
	var file proto.FileEnvelope
	if err := expectFrame(t, ctx, alice, proto.EventChatMsgFile).Decode(&file); err != nil {
		t.Fatalf("decode file: %v", err)
	}
	if file.Username != "bob" || string(file.Msg.Buffer) != "png!" || file.Msg.FileName() != "cat.png" {
		t.Fatalf("unexpected file envelope %+v", file)
	}

	send(t, ctx, bob, "dance", nil)
	if e := chatText(t, expectFrame(t, ctx, bob, proto.EventChatError)); e.Msg.Raw != "Command not found!" {
		t.Fatalf("unexpected error for unknown event %+v", e)
	}

	if err := alice.Close(websocket.StatusNormalClosure, "bye"); err != nil && !errors.Is(err, context.Canceled) {
		t.Logf("close alice: %v", err)
	}
	if left := chatText(t, expectFrame(t, ctx, bob, proto.EventChatInfo)); left.Msg.Raw != "alice left this room!" {
		t.Fatalf("unexpected leave notice %+v", left)
	}

	// alice's presence is gone so she can reconnect.
	deadline := time.Now().Add(2 * time.Second)
	for {
		ok, _ := env.deps.Hub.Presence().Contains(ctx, "alice")
		if !ok {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("alice presence not cleaned up")
		}
		time.Sleep(10 * time.Millisecond)
	}
	dial(t, ctx, wsURL(base, aliceToken, "alice", ""))
}
