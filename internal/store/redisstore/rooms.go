package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/gabgate/internal/core"
)

const (
	// DefaultPrefix namespaces every room key. On Redis Cluster use a hash-tagged
	// prefix such as "{gabgate}:" so the scripts' derived keys share one slot.
	DefaultPrefix = "gabgate:"
	eventsChannel = "room-events"
)

// relayMessage is what travels over pub/sub between nodes.
type relayMessage struct {
	Room   string      `json:"room"`
	Except string      `json:"except,omitempty"`
	Event  *core.Event `json:"event"`
}

// Rooms is a core.RoomRegistry whose membership lives in Redis.
//
// Every node keeps the clients connected to it in a local index and runs one
// subscriber (Run) that delivers relayed events to them. Broadcast only
// publishes, so a node receives its own broadcasts through the same path.
type Rooms struct {
	rdb    redis.UniversalClient
	prefix string
	local  *core.MemoryRooms
	log    zerolog.Logger
	ready  chan struct{}
}

var _ core.RoomRegistry = (*Rooms)(nil)

// NewRooms creates a registry on rdb. An empty prefix uses DefaultPrefix.
func NewRooms(rdb redis.UniversalClient, prefix string, logger *zerolog.Logger) *Rooms {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	l := zerolog.Nop()
	if logger != nil {
		l = logger.With().Str("module", "redis_rooms").Logger()
	}
	return &Rooms{
		rdb:    rdb,
		prefix: prefix,
		local:  core.NewMemoryRooms(),
		log:    l,
		ready:  make(chan struct{}),
	}
}

func (r *Rooms) roomsKey() string              { return r.prefix + "rooms" }
func (r *Rooms) membersKey(room string) string { return r.prefix + "room:" + room + ":members" }
func (r *Rooms) connKey(connID string) string  { return r.prefix + "conn:" + connID }
func (r *Rooms) channel() string               { return r.prefix + eventsChannel }

func (r *Rooms) move(ctx context.Context, room string, c *core.Client, create bool) (string, error) {
	flag := "0"
	if create {
		flag = "1"
	}
	keys := []string{r.roomsKey(), r.membersKey(room), r.connKey(c.ID)}
	res, err := moveScript.Run(ctx, r.rdb, keys, room, c.ID, r.prefix, flag).Slice()
	if err != nil {
		return "", fmt.Errorf("move connection: %w", err)
	}
	if len(res) != 2 {
		return "", fmt.Errorf("move connection: unexpected reply %v", res)
	}
	found, _ := res[0].(int64)
	if found == 0 {
		return "", core.ErrRoomNotFound
	}
	previous, _ := res[1].(string)

	// The local index only tracks where this node's clients are.
	if _, err := r.local.Create(ctx, room, c); err != nil {
		return "", err
	}
	return previous, nil
}

func (r *Rooms) Create(ctx context.Context, room string, c *core.Client) (string, error) {
	return r.move(ctx, room, c, true)
}

func (r *Rooms) Join(ctx context.Context, room string, c *core.Client) (string, error) {
	return r.move(ctx, room, c, false)
}

// Leave drops the local index entry only once Redis has accepted the leave,
// so a failed call leaves both views unchanged.
func (r *Rooms) Leave(ctx context.Context, c *core.Client) (string, error) {
	room, err := leaveScript.Run(ctx, r.rdb, []string{r.connKey(c.ID), r.roomsKey()}, c.ID, r.prefix).Text()
	if err != nil {
		return "", fmt.Errorf("leave room: %w", err)
	}
	_, _ = r.local.Leave(ctx, c)
	return room, nil
}

func (r *Rooms) MembersExcluding(ctx context.Context, room, connID string) ([]string, error) {
	ids, err := r.rdb.SMembers(ctx, r.membersKey(room)).Result()
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	out := ids[:0]
	for _, id := range ids {
		if id != connID {
			out = append(out, id)
		}
	}
	return out, nil
}

func (r *Rooms) MemberCount(ctx context.Context, room string) (int, error) {
	n, err := r.rdb.SCard(ctx, r.membersKey(room)).Result()
	if err != nil {
		return 0, fmt.Errorf("count members: %w", err)
	}
	return int(n), nil
}

// Broadcast publishes ev for every node's subscriber to deliver.
func (r *Rooms) Broadcast(ctx context.Context, room, exceptID string, ev *core.Event) error {
	payload, err := json.Marshal(relayMessage{Room: room, Except: exceptID, Event: ev})
	if err != nil {
		return fmt.Errorf("encode relay message: %w", err)
	}
	if err := r.rdb.Publish(ctx, r.channel(), payload).Err(); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

// Ready is closed once Run has subscribed to the relay channel.
func (r *Rooms) Ready() <-chan struct{} {
	return r.ready
}

// Run subscribes to the relay channel and delivers events to local clients
// until ctx is cancelled. Messages are handled one at a time, in publish order.
func (r *Rooms) Run(ctx context.Context) error {
	sub := r.rdb.Subscribe(ctx, r.channel())
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return fmt.Errorf("subscribe: %w", err)
	}
	close(r.ready)
	r.log.Info().Str("channel", r.channel()).Msg("room relay subscribed")

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return errors.New("relay subscription closed")
			}
			var relay relayMessage
			if err := json.Unmarshal([]byte(msg.Payload), &relay); err != nil || relay.Event == nil {
				r.log.Warn().Err(err).Msg("dropping malformed relay message")
				continue
			}
			_ = r.local.Broadcast(ctx, relay.Room, relay.Except, relay.Event)
		}
	}
}
