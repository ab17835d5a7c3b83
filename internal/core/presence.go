package core

import (
	"context"

	"github.com/puzpuzpuz/xsync/v3"
)

// Presence tracks which usernames currently hold a live connection.
type Presence interface {
	// Add records username. It reports false if the username was already present.
	Add(ctx context.Context, username string) (bool, error)
	// Remove forgets username. Removing an absent username is not an error.
	Remove(ctx context.Context, username string) error
	// Contains reports whether username is present.
	Contains(ctx context.Context, username string) (bool, error)
	// List returns all present usernames in no particular order.
	List(ctx context.Context) ([]string, error)
}

// MemoryPresence is a Presence for a single server process.
type MemoryPresence struct {
	users *xsync.MapOf[string, struct{}]
}

// NewMemoryPresence creates an empty in-process presence registry.
func NewMemoryPresence() *MemoryPresence {
	return &MemoryPresence{users: xsync.NewMapOf[string, struct{}]()}
}

func (p *MemoryPresence) Add(_ context.Context, username string) (bool, error) {
	_, loaded := p.users.LoadOrStore(username, struct{}{})
	return !loaded, nil
}

func (p *MemoryPresence) Remove(_ context.Context, username string) error {
	p.users.Delete(username)
	return nil
}

func (p *MemoryPresence) Contains(_ context.Context, username string) (bool, error) {
	_, ok := p.users.Load(username)
	return ok, nil
}

func (p *MemoryPresence) List(_ context.Context) ([]string, error) {
	out := make([]string, 0, p.users.Size())
	p.users.Range(func(username string, _ struct{}) bool {
		out = append(out, username)
		return true
	})
	return out, nil
}
