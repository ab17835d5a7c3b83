package core

import (
	"context"
	"sync"
)

// RoomRegistry maps room ids to member connections.
// A connection belongs to at most one room at a time.
type RoomRegistry interface {
	// Create registers room if it does not exist and moves c into it.
	// It returns the room c was in before, or "".
	Create(ctx context.Context, room string, c *Client) (previous string, err error)
	// Join moves c into an existing room. A room without members does not exist
	// and yields ErrRoomNotFound without side effects.
	Join(ctx context.Context, room string, c *Client) (previous string, err error)
	// Leave removes c from its room and returns that room, or "" if c was in none.
	Leave(ctx context.Context, c *Client) (room string, err error)
	// MembersExcluding lists connection ids in room other than connID.
	MembersExcluding(ctx context.Context, room, connID string) ([]string, error)
	// MemberCount reports how many connections are in room.
	MemberCount(ctx context.Context, room string) (int, error)
	// Broadcast delivers ev to every member of room except exceptID.
	Broadcast(ctx context.Context, room, exceptID string, ev *Event) error
}

// Room groups clients subscribed to the same channel.
type Room struct {
	Name    string
	clients map[string]*Client
}

// NewRoom constructs a room with no clients.
func NewRoom(name string) *Room {
	return &Room{
		Name:    name,
		clients: make(map[string]*Client),
	}
}

// AddClient inserts a client into the room. Returns true if newly added.
func (r *Room) AddClient(c *Client) bool {
	if _, exists := r.clients[c.ID]; exists {
		return false
	}
	r.clients[c.ID] = c
	return true
}

// RemoveClient deletes a client from the room. Returns true if removed.
func (r *Room) RemoveClient(id string) bool {
	if _, exists := r.clients[id]; !exists {
		return false
	}
	delete(r.clients, id)
	return true
}

// Len returns the number of clients in the room.
func (r *Room) Len() int {
	return len(r.clients)
}

// Empty returns true if no clients are in the room.
func (r *Room) Empty() bool {
	return len(r.clients) == 0
}

func (r *Room) snapshot(exceptID string) []*Client {
	out := make([]*Client, 0, len(r.clients))
	for id, c := range r.clients {
		if id == exceptID {
			continue
		}
		out = append(out, c)
	}
	return out
}

// MemoryRooms is a RoomRegistry for a single server process.
// Empty rooms are removed as soon as their last member leaves.
type MemoryRooms struct {
	mu     sync.RWMutex
	rooms  map[string]*Room
	byConn map[string]string
}

// NewMemoryRooms creates an empty in-process room registry.
func NewMemoryRooms() *MemoryRooms {
	return &MemoryRooms{
		rooms:  make(map[string]*Room),
		byConn: make(map[string]string),
	}
}

func (m *MemoryRooms) Create(_ context.Context, room string, c *Client) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.rooms[room]
	if !ok {
		r = NewRoom(room)
		m.rooms[room] = r
	}
	return m.moveLocked(r, c), nil
}

func (m *MemoryRooms) Join(_ context.Context, room string, c *Client) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.rooms[room]
	if !ok || r.Empty() {
		return "", ErrRoomNotFound
	}
	return m.moveLocked(r, c), nil
}

// moveLocked takes c out of its current room, if any, and puts it into r.
func (m *MemoryRooms) moveLocked(r *Room, c *Client) string {
	previous := m.byConn[c.ID]
	if previous == r.Name {
		return previous
	}
	if previous != "" {
		m.removeLocked(previous, c.ID)
	}
	r.AddClient(c)
	m.byConn[c.ID] = r.Name
	return previous
}

func (m *MemoryRooms) removeLocked(room, connID string) {
	delete(m.byConn, connID)
	r, ok := m.rooms[room]
	if !ok {
		return
	}
	r.RemoveClient(connID)
	if r.Empty() {
		delete(m.rooms, room)
	}
}

func (m *MemoryRooms) Leave(_ context.Context, c *Client) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	room, ok := m.byConn[c.ID]
	if !ok {
		return "", nil
	}
	m.removeLocked(room, c.ID)
	return room, nil
}

func (m *MemoryRooms) MembersExcluding(_ context.Context, room, connID string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.rooms[room]
	if !ok {
		return nil, nil
	}
	out := make([]string, 0, r.Len())
	for id := range r.clients {
		if id != connID {
			out = append(out, id)
		}
	}
	return out, nil
}

func (m *MemoryRooms) MemberCount(_ context.Context, room string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if r, ok := m.rooms[room]; ok {
		return r.Len(), nil
	}
	return 0, nil
}

func (m *MemoryRooms) Broadcast(_ context.Context, room, exceptID string, ev *Event) error {
	m.mu.RLock()
	r, ok := m.rooms[room]
	var recipients []*Client
	if ok {
		recipients = r.snapshot(exceptID)
	}
	m.mu.RUnlock()

	for _, c := range recipients {
		c.Deliver(ev)
	}
	return nil
}

// RoomCount reports how many rooms currently exist.
func (m *MemoryRooms) RoomCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rooms)
}
