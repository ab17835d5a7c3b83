package core

import (
	"context"
	"errors"
	"sort"
	"testing"
)

func TestMemoryRoomsJoinUnknownRoom(t *testing.T) {
	ctx := context.Background()
	rooms := NewMemoryRooms()
	c := NewClient("c1", "carol")

	if _, err := rooms.Join(ctx, "ghost", c); !errors.Is(err, ErrRoomNotFound) {
		t.Fatalf("expected ErrRoomNotFound, got %v", err)
	}
	if rooms.RoomCount() != 0 {
		t.Fatalf("join must not create the room")
	}
	if room, _ := rooms.Leave(ctx, c); room != "" {
		t.Fatalf("client should not be in any room, got %q", room)
	}
}

func TestMemoryRoomsSingleMembership(t *testing.T) {
	ctx := context.Background()
	rooms := NewMemoryRooms()
	a := NewClient("a", "alice")
	b := NewClient("b", "bob")

	if _, err := rooms.Create(ctx, "r1", a); err != nil {
		t.Fatalf("create r1: %v", err)
	}
	if _, err := rooms.Create(ctx, "r2", b); err != nil {
		t.Fatalf("create r2: %v", err)
	}

	prev, err := rooms.Join(ctx, "r2", a)
	if err != nil {
		t.Fatalf("join r2: %v", err)
	}
	if prev != "r1" {
		t.Fatalf("expected previous room r1, got %q", prev)
	}

	if n, _ := rooms.MemberCount(ctx, "r1"); n != 0 {
		t.Fatalf("r1 should be empty, has %d", n)
	}
	if n, _ := rooms.MemberCount(ctx, "r2"); n != 2 {
		t.Fatalf("r2 should have 2 members, has %d", n)
	}
	if rooms.RoomCount() != 1 {
		t.Fatalf("empty r1 should have been reaped, rooms=%d", rooms.RoomCount())
	}

	others, _ := rooms.MembersExcluding(ctx, "r2", "a")
	if len(others) != 1 || others[0] != "b" {
		t.Fatalf("unexpected members: %v", others)
	}
}

func TestMemoryRoomsCreateIsIdempotent(t *testing.T) {
	ctx := context.Background()
	rooms := NewMemoryRooms()
	a := NewClient("a", "alice")
	b := NewClient("b", "bob")

	if _, err := rooms.Create(ctx, "r1", a); err != nil {
		t.Fatalf("create: %v", err)
	}
	prev, err := rooms.Create(ctx, "r1", a)
	if err != nil || prev != "r1" {
		t.Fatalf("re-create: prev=%q err=%v", prev, err)
	}
	if _, err := rooms.Create(ctx, "r1", b); err != nil {
		t.Fatalf("create existing room: %v", err)
	}

	members, _ := rooms.MembersExcluding(ctx, "r1", "")
	sort.Strings(members)
	if len(members) != 2 || members[0] != "a" || members[1] != "b" {
		t.Fatalf("unexpected members: %v", members)
	}
}

func TestMemoryRoomsLeaveReapsAndIsIdempotent(t *testing.T) {
	ctx := context.Background()
	rooms := NewMemoryRooms()
	a := NewClient("a", "alice")

	if _, err := rooms.Create(ctx, "r1", a); err != nil {
		t.Fatalf("create: %v", err)
	}
	room, err := rooms.Leave(ctx, a)
	if err != nil || room != "r1" {
		t.Fatalf("leave: room=%q err=%v", room, err)
	}
	room, err = rooms.Leave(ctx, a)
	if err != nil || room != "" {
		t.Fatalf("second leave: room=%q err=%v", room, err)
	}
	if rooms.RoomCount() != 0 {
		t.Fatalf("expected no rooms left")
	}
	if _, err := rooms.Join(ctx, "r1", NewClient("c", "carol")); !errors.Is(err, ErrRoomNotFound) {
		t.Fatalf("reaped room must not be joinable, got %v", err)
	}
}

func TestMemoryRoomsBroadcastSkipsSender(t *testing.T) {
	ctx := context.Background()
	rooms := NewMemoryRooms()
	a := NewClient("a", "alice")
	b := NewClient("b", "bob")
	outsider := NewClient("o", "oscar")

	_, _ = rooms.Create(ctx, "r1", a)
	_, _ = rooms.Join(ctx, "r1", b)
	_, _ = rooms.Create(ctx, "r2", outsider)

	ev := &Event{Kind: EventChatMessage, Room: "r1", From: "alice"}
	if err := rooms.Broadcast(ctx, "r1", "a", ev); err != nil {
		t.Fatalf("broadcast: %v", err)
	}

	if got := mustEvent(t, b.Events, EventChatMessage); got != ev {
		t.Fatalf("bob got a different event: %+v", got)
	}
	if len(a.Events) != 0 {
		t.Fatalf("sender must not receive its own broadcast")
	}
	if len(outsider.Events) != 0 {
		t.Fatalf("broadcast leaked into another room")
	}
}

func TestClientDeliverDropsWhenFull(t *testing.T) {
	c := NewClient("a", "alice")
	for range clientQueueSize {
		if !c.Deliver(&Event{}) {
			t.Fatalf("queue rejected an event before it was full")
		}
	}
	if c.Deliver(&Event{}) {
		t.Fatalf("expected drop on full queue")
	}
	if c.Dropped() != 1 {
		t.Fatalf("expected 1 dropped event, got %d", c.Dropped())
	}
}
