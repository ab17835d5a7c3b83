package core

import "errors"

// Error codes carried by handshake failures.
const (
	ErrCodeUserConnected       = "user_connected"
	ErrCodeClientRejected      = "client_rejected"
	ErrCodePresenceUnavailable = "presence_unavailable"
)

var (
	ErrRoomNotFound        = errors.New("room not found")
	ErrInvalidState        = errors.New("invalid session state")
	ErrUserConnected       = errors.New("user already connected")
	ErrClientRejected      = errors.New("client rejected")
	ErrPresenceUnavailable = errors.New("presence registry unavailable")
)

// CoreError wraps a code and human-readable message.
type CoreError struct {
	Code    string
	Message string
	Err     error
}

func (e *CoreError) Error() string {
	return e.Message
}

func (e *CoreError) Unwrap() error {
	return e.Err
}

func coreError(code, msg string, err error) *CoreError {
	return &CoreError{Code: code, Message: msg, Err: err}
}

// ErrorCode extracts the domain code from err, or "" if err carries none.
func ErrorCode(err error) string {
	var ce *CoreError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return ""
}
