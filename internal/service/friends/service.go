package friends

import (
	"context"
	"errors"
	"fmt"

	"github.com/vovakirdan/gabgate/internal/store"
)

// Common errors for friend operations.
var (
	ErrCannotFriendSelf = errors.New("cannot add yourself as a friend")
	ErrAlreadyFriends   = errors.New("already friends")
	ErrNotFriend        = errors.New("user is not in friend list")
	ErrUserNotFound     = errors.New("user not found")
)

// PresenceChecker reports whether a username currently has a live connection.
type PresenceChecker interface {
	Contains(ctx context.Context, username string) (bool, error)
}

// Status is a friend with their connection state.
type Status struct {
	Username string `json:"username"`
	Online   bool   `json:"online"`
}

// Service provides friend management business logic.
type Service struct {
	store store.Store
}

// New creates a new friends Service.
func New(st store.Store) *Service {
	return &Service{
		store: st,
	}
}

// Add puts friendID into userID's friend list. No acceptance is required.
func (s *Service) Add(ctx context.Context, userID, friendID int64) (*store.User, error) {
	if userID == friendID {
		return nil, ErrCannotFriendSelf
	}

	friend, err := s.store.GetUserByID(ctx, friendID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	if _, err := s.store.AddFriend(ctx, userID, friendID); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, ErrAlreadyFriends
		}
		return nil, fmt.Errorf("add friend: %w", err)
	}
	return friend, nil
}

// Remove drops friendID from userID's friend list.
func (s *Service) Remove(ctx context.Context, userID, friendID int64) error {
	if err := s.store.RemoveFriend(ctx, userID, friendID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFriend
		}
		return fmt.Errorf("remove friend: %w", err)
	}
	return nil
}

// List returns userID's friends ordered by username.
func (s *Service) List(ctx context.Context, userID int64) ([]*store.User, error) {
	friends, err := s.store.ListFriends(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list friends: %w", err)
	}
	return friends, nil
}

// Usernames returns the usernames of userID's friends.
func (s *Service) Usernames(ctx context.Context, userID int64) ([]string, error) {
	friends, err := s.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(friends))
	for _, f := range friends {
		names = append(names, f.Username)
	}
	return names, nil
}

// OnlineStatus lists userID's friends with their presence.
// A presence backend failure fails the whole call rather than reporting everyone offline.
func (s *Service) OnlineStatus(ctx context.Context, userID int64, presence PresenceChecker) ([]Status, error) {
	names, err := s.Usernames(ctx, userID)
	if err != nil {
		return nil, err
	}

	statuses := make([]Status, 0, len(names))
	for _, name := range names {
		online, err := presence.Contains(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("presence lookup: %w", err)
		}
		statuses = append(statuses, Status{Username: name, Online: online})
	}
	return statuses, nil
}
