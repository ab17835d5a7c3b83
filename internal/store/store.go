package store

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when a lookup matches no record.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a unique constraint would be violated.
	ErrConflict = errors.New("conflict")
)

// User represents a registered account.
type User struct {
	ID           int64
	Email        string
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

// FriendStatus defines friend relationship status.
type FriendStatus string

const (
	FriendStatusAccepted FriendStatus = "accepted"
)

// Friend is a one-directional friendship: UserID lists FriendID as a friend.
type Friend struct {
	ID        int64
	UserID    int64
	FriendID  int64
	Status    FriendStatus
	CreatedAt time.Time
}

// UserStore handles user persistence.
type UserStore interface {
	// CreateUser creates a new user with hashed password.
	// Returns ErrConflict when the email or username is taken.
	CreateUser(ctx context.Context, email, username, passwordHash string) (*User, error)

	GetUserByID(ctx context.Context, id int64) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	GetUserByUsername(ctx context.Context, username string) (*User, error)

	// SearchUsers returns users whose username contains query, ordered by username.
	SearchUsers(ctx context.Context, query string) ([]*User, error)
}

// FriendStore handles friend persistence.
type FriendStore interface {
	// AddFriend records that userID befriended friendID.
	// Returns ErrConflict when the friendship already exists.
	AddFriend(ctx context.Context, userID, friendID int64) (*Friend, error)

	// RemoveFriend deletes the friendship. Returns ErrNotFound when absent.
	RemoveFriend(ctx context.Context, userID, friendID int64) error

	// IsFriend reports whether userID lists friendID as a friend.
	IsFriend(ctx context.Context, userID, friendID int64) (bool, error)

	// ListFriends returns the users userID lists as friends, ordered by username.
	ListFriends(ctx context.Context, userID int64) ([]*User, error)
}

// Store aggregates all storage interfaces.
type Store interface {
	UserStore
	FriendStore

	// Close closes the underlying database connection.
	Close() error
}
