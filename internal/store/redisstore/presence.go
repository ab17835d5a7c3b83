// Package redisstore keeps presence and room membership in Redis so several
// server nodes can share them.
package redisstore

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/vovakirdan/gabgate/internal/core"
)

// PresenceKey is the set holding every connected username.
const PresenceKey = "connected-users"

// Presence is a core.Presence backed by a Redis set.
type Presence struct {
	rdb redis.UniversalClient
	key string
}

var _ core.Presence = (*Presence)(nil)

// NewPresence creates a presence registry on rdb.
func NewPresence(rdb redis.UniversalClient) *Presence {
	return &Presence{rdb: rdb, key: PresenceKey}
}

// Add reports added=false when username was already present. SADD is atomic,
// so two nodes racing on the same username cannot both win.
func (p *Presence) Add(ctx context.Context, username string) (bool, error) {
	n, err := p.rdb.SAdd(ctx, p.key, username).Result()
	if err != nil {
		return false, fmt.Errorf("presence add: %w", err)
	}
	return n == 1, nil
}

func (p *Presence) Remove(ctx context.Context, username string) error {
	if err := p.rdb.SRem(ctx, p.key, username).Err(); err != nil {
		return fmt.Errorf("presence remove: %w", err)
	}
	return nil
}

func (p *Presence) Contains(ctx context.Context, username string) (bool, error) {
	ok, err := p.rdb.SIsMember(ctx, p.key, username).Result()
	if err != nil {
		return false, fmt.Errorf("presence lookup: %w", err)
	}
	return ok, nil
}

func (p *Presence) List(ctx context.Context) ([]string, error) {
	users, err := p.rdb.SMembers(ctx, p.key).Result()
	if err != nil {
		return nil, fmt.Errorf("presence list: %w", err)
	}
	return users, nil
}
