package http

import (
	"context"
	"errors"
	"io"
	stdhttp "net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/gabgate/internal/auth"
	"github.com/vovakirdan/gabgate/internal/core"
	"github.com/vovakirdan/gabgate/internal/proto"
)

// closeTimeout bounds the disconnect cleanup once the socket is gone.
const closeTimeout = 5 * time.Second

// TokenValidator checks bearer tokens for the websocket handshake.
type TokenValidator interface {
	ValidateToken(token string) (*auth.Claims, error)
}

// WSHandler authenticates the handshake, upgrades the connection and bridges
// it to a core.Session.
type WSHandler struct {
	hub       *core.Hub
	tokens    TokenValidator
	readLimit int64
	log       *zerolog.Logger
}

// NewWSHandler builds a new WebSocket handler.
func NewWSHandler(hub *core.Hub, tokens TokenValidator, readLimit int64, logger *zerolog.Logger) *WSHandler {
	return &WSHandler{hub: hub, tokens: tokens, readLimit: readLimit, log: logger}
}

func handshakeToken(r *stdhttp.Request) string {
	if token := r.URL.Query().Get(proto.QueryToken); token != "" {
		return token
	}
	if after, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		return after
	}
	return ""
}

func writeHandshakeError(w stdhttp.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, proto.HandshakeError{Error: msg, Code: code})
}

func (h *WSHandler) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	claims, err := h.tokens.ValidateToken(handshakeToken(r))
	if err != nil {
		h.log.Debug().Err(err).Msg("ws handshake: token rejected")
		if errors.Is(err, auth.ErrTokenExpired) {
			writeHandshakeError(w, stdhttp.StatusUnauthorized, proto.CodeTokenExpired, "token expired")
			return
		}
		writeHandshakeError(w, stdhttp.StatusUnauthorized, proto.CodeInvalidToken, "invalid token")
		return
	}

	query := r.URL.Query()
	if name := query.Get(proto.QueryUsername); name != "" && name != claims.Username {
		writeHandshakeError(w, stdhttp.StatusForbidden, proto.CodeClientRejected, "username does not match token")
		return
	}
	clientType := query.Get(proto.QueryClient)
	if clientType == "" {
		clientType = r.Header.Get(ClientHeader)
	}

	client := core.NewClient(uuid.NewString(), claims.Username)
	session := core.NewSession(h.hub, client)
	if err := session.Authenticate(r.Context(), core.Handshake{Username: claims.Username, ClientType: clientType}); err != nil {
		switch core.ErrorCode(err) {
		case core.ErrCodeUserConnected:
			writeHandshakeError(w, stdhttp.StatusConflict, proto.CodeUserConnected, "user already connected")
		case core.ErrCodePresenceUnavailable:
			h.log.Error().Err(err).Str("username", claims.Username).Msg("ws handshake: presence unavailable")
			writeHandshakeError(w, stdhttp.StatusServiceUnavailable, proto.CodePresenceUnavailable, "presence registry unavailable")
		case core.ErrCodeClientRejected:
			writeHandshakeError(w, stdhttp.StatusForbidden, proto.CodeClientRejected, "unknown client")
		default:
			h.log.Error().Err(err).Str("username", claims.Username).Msg("ws handshake: authenticate")
			writeHandshakeError(w, stdhttp.StatusInternalServerError, proto.CodeClientRejected, "internal error")
		}
		return
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
		defer cancel()
		session.Close(ctx)
	}()

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "internal error")
	if h.readLimit > 0 {
		conn.SetReadLimit(h.readLimit)
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	errCh := make(chan error, 2)
	go func() {
		errCh <- h.readLoop(ctx, conn, session)
	}()
	go func() {
		errCh <- h.writeLoop(ctx, conn, client)
	}()

	err = <-errCh
	cancel() // stop the other goroutine
	<-errCh

	status := websocket.StatusNormalClosure
	reason := "closing"
	if err != nil && !errors.Is(err, context.Canceled) {
		if errors.Is(err, io.EOF) {
			err = nil
		}
		if s := websocket.CloseStatus(err); s != -1 {
			status = s
		}
		if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
			err = nil
		}
		if err != nil {
			if status == websocket.StatusNormalClosure {
				status = websocket.StatusInternalError
			}
			reason = err.Error()
			h.log.Warn().Err(err).Str("conn_id", client.ID).Msg("ws connection closed with error")
		}
	}

	conn.Close(status, reason)
}

func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, session *core.Session) error {
	for {
		var frame proto.Frame
		if err := wsjson.Read(ctx, conn, &frame); err != nil {
			return err
		}

		cmd, err := frameToCommand(frame)
		if err != nil {
			h.log.Debug().Err(err).Str("conn_id", session.Client().ID).Str("event", frame.Event).Msg("bad frame")
			if errors.Is(err, errUnknownEvent) {
				session.ReportError("Command not found!")
			} else {
				session.ReportError("Invalid payload!")
			}
			continue
		}
		if err := session.Handle(ctx, cmd); err != nil {
			return err
		}
	}
}

func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, client *core.Client) error {
	for {
		select {
		case event, ok := <-client.Events:
			if !ok {
				return nil
			}
			frame, err := eventToFrame(event)
			if err != nil {
				h.log.Error().Err(err).Str("conn_id", client.ID).Msg("encode ws event")
				continue
			}
			if err := wsjson.Write(ctx, conn, frame); err != nil {
				h.log.Error().Err(err).Str("conn_id", client.ID).Msg("write ws event")
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
