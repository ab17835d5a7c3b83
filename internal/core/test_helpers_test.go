package core

import (
	"context"
	"testing"
	"time"
)

func mustEvent(t *testing.T, ch <-chan *Event, kind EventKind) *Event {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		select {
		case ev := <-ch:
			if ev == nil {
				continue
			}
			if ev.Kind == kind {
				return ev
			}
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
	t.Fatalf("expected event kind %v not received", kind)
	return nil
}

func mustNoEvent(t *testing.T, ch <-chan *Event, kind EventKind) {
	t.Helper()

	deadline := time.Now().Add(100 * time.Millisecond)
	for time.Now().Before(deadline) {
		select {
		case ev := <-ch:
			if ev != nil && ev.Kind == kind {
				t.Fatalf("unexpected event %v: %+v", kind, ev)
			}
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
}

func drain(ch <-chan *Event) {
	for {
		select {
		case <-ch:
		default:
			return
		}
	}
}

func newTestHub(policy Policy) *Hub {
	return NewHub(NewMemoryPresence(), NewMemoryRooms(), policy, nil)
}

func connect(t *testing.T, hub *Hub, id, name string) *Session {
	t.Helper()

	sess := NewSession(hub, NewClient(id, name))
	if err := sess.Authenticate(context.Background(), Handshake{Username: name, ClientType: "gabgate-cli"}); err != nil {
		t.Fatalf("authenticate %s: %v", name, err)
	}
	return sess
}

func handle(t *testing.T, sess *Session, cmd Command) {
	t.Helper()

	if err := sess.Handle(context.Background(), cmd); err != nil {
		t.Fatalf("handle %v: %v", cmd.Kind, err)
	}
}
