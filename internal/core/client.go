package core

import "sync/atomic"

// clientQueueSize bounds the per-connection outbound queue.
const clientQueueSize = 64

// Client is a live connection as seen by the core layer.
type Client struct {
	ID     string
	Name   string
	Events chan *Event

	dropped atomic.Int64
}

// NewClient constructs a client with an initialized event queue.
func NewClient(id, name string) *Client {
	if name == "" {
		name = id
	}
	return &Client{
		ID:     id,
		Name:   name,
		Events: make(chan *Event, clientQueueSize),
	}
}

// Deliver enqueues an event without blocking. A full queue drops the event.
func (c *Client) Deliver(ev *Event) bool {
	select {
	case c.Events <- ev:
		return true
	default:
		c.dropped.Add(1)
		return false
	}
}

// Dropped reports how many events were discarded for this client.
func (c *Client) Dropped() int64 {
	return c.dropped.Load()
}
