package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/gabgate/internal/proto"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10

	frameBuffer = 64
)

// User-facing messages for connection failures.
const (
	MsgUnauthorized  = "Unauthorized! JWT expired or not provided, please login."
	MsgCannotConnect = "Cannot connect to Websocket!"
	MsgDisconnected  = "Disconnected from room!"
	MsgUnexpected    = "Unexpected error! Please check error log for more details."
)

var (
	// ErrUnauthorized means the server refused the token during the handshake.
	ErrUnauthorized = errors.New("websocket handshake unauthorized")
	// ErrCannotConnect covers every other dial failure.
	ErrCannotConnect = errors.New("cannot connect to websocket")
	// ErrDisconnected is returned when the server drops an established connection.
	ErrDisconnected = errors.New("disconnected")
	// ErrServerClosed is returned after the server reports a fatal server-error.
	ErrServerClosed = errors.New("server closed the session")
)

// HandshakeError is a rejected upgrade with the server's rejection code.
type HandshakeError struct {
	Status  int
	Code    string
	Message string
}

func (e *HandshakeError) Error() string {
	return fmt.Sprintf("handshake rejected with %d %s: %s", e.Status, e.Code, e.Message)
}

// Unwrap maps token rejections to ErrUnauthorized and everything else to ErrCannotConnect.
func (e *HandshakeError) Unwrap() error {
	if e.Status == http.StatusUnauthorized &&
		(e.Code == proto.CodeTokenExpired || e.Code == proto.CodeInvalidToken) {
		return ErrUnauthorized
	}
	return ErrCannotConnect
}

// Expired reports whether the rejection was caused by an expired token.
func (e *HandshakeError) Expired() bool {
	return e.Code == proto.CodeTokenExpired
}

// UserMessage translates a session or dial error into the line printed to the user.
func UserMessage(err error) string {
	switch {
	case errors.Is(err, ErrUnauthorized):
		return MsgUnauthorized
	case errors.Is(err, ErrCannotConnect):
		return MsgCannotConnect
	case errors.Is(err, ErrDisconnected):
		return MsgDisconnected
	default:
		return MsgUnexpected
	}
}

// Transport is the frame stream a Session drives.
type Transport interface {
	Send(ctx context.Context, frame proto.Frame) error
	Frames() <-chan proto.Frame
	Err() error
	Close() error
}

// DialOptions identify the caller during the websocket handshake.
type DialOptions struct {
	URL        string
	Token      string
	Username   string
	ClientType string
}

// Conn is a websocket connection to the chat server. Inbound frames are
// pumped into Frames until the connection ends, at which point Err explains why.
type Conn struct {
	ws     *websocket.Conn
	log    *zerolog.Logger
	frames chan proto.Frame

	writeMu   sync.Mutex
	done      chan struct{}
	closeOnce sync.Once

	errMu sync.Mutex
	err   error
}

// Dial opens the websocket and starts the read and ping pumps.
func Dial(ctx context.Context, opts DialOptions, logger *zerolog.Logger) (*Conn, error) {
	u, err := url.Parse(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("%w: parse url: %v", ErrCannotConnect, err)
	}
	q := u.Query()
	q.Set(proto.QueryToken, opts.Token)
	q.Set(proto.QueryUsername, opts.Username)
	q.Set(proto.QueryClient, opts.ClientType)
	u.RawQuery = q.Encode()

	header := http.Header{}
	header.Set("client", opts.ClientType)

	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: writeWait,
	}
	ws, resp, err := dialer.DialContext(ctx, u.String(), header)
	if err != nil {
		return nil, handshakeError(resp, err)
	}

	c := &Conn{
		ws:     ws,
		log:    logger,
		frames: make(chan proto.Frame, frameBuffer),
		done:   make(chan struct{}),
	}
	go c.readPump()
	go c.pingPump()
	return c, nil
}

func handshakeError(resp *http.Response, err error) error {
	if resp == nil {
		return fmt.Errorf("%w: %v", ErrCannotConnect, err)
	}
	defer resp.Body.Close()

	he := &HandshakeError{Status: resp.StatusCode}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var parsed proto.HandshakeError
	if json.Unmarshal(body, &parsed) == nil {
		he.Code = parsed.Code
		he.Message = parsed.Error
	}
	return he
}

// Frames delivers inbound frames in arrival order. It is closed when the connection ends.
func (c *Conn) Frames() <-chan proto.Frame {
	return c.frames
}

// Err returns why the read pump stopped, or nil for a local Close.
func (c *Conn) Err() error {
	c.errMu.Lock()
	defer c.errMu.Unlock()
	return c.err
}

// Send writes one frame.
func (c *Conn) Send(ctx context.Context, frame proto.Frame) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	deadline := time.Now().Add(writeWait)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = c.ws.SetWriteDeadline(deadline)
	if err := c.ws.WriteJSON(frame); err != nil {
		return fmt.Errorf("send %s: %w", frame.Event, err)
	}
	return nil
}

// Close sends a normal close frame and tears the connection down.
func (c *Conn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		c.writeMu.Lock()
		_ = c.ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"),
			time.Now().Add(writeWait))
		c.writeMu.Unlock()
		err = c.ws.Close()
	})
	return err
}

func (c *Conn) readPump() {
	defer close(c.frames)

	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var frame proto.Frame
		if err := c.ws.ReadJSON(&frame); err != nil {
			c.setErr(err)
			return
		}
		select {
		case c.frames <- frame:
		case <-c.done:
			return
		}
	}
}

func (c *Conn) setErr(err error) {
	select {
	case <-c.done:
		return
	default:
	}
	if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		err = ErrDisconnected
	} else {
		err = fmt.Errorf("%w: %v", ErrDisconnected, err)
	}
	c.log.Debug().Err(err).Msg("websocket read ended")

	c.errMu.Lock()
	c.err = err
	c.errMu.Unlock()
}

func (c *Conn) pingPump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.writeMu.Lock()
			err := c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
			c.writeMu.Unlock()
			if err != nil {
				c.log.Debug().Err(err).Msg("ping failed")
				return
			}
		}
	}
}
