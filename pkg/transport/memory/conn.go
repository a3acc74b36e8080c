package memory

import (
	"context"
	"sync"

	"github.com/goliatone/go-rtm/pkg/domain"
	"github.com/goliatone/go-rtm/pkg/interfaces/transport"
)

// Conn is an in-process connection. Frames queue on a buffered channel in
// Send order; readers drain them with Frames. Useful for tests and for
// bridging broadcasts into other in-process consumers.
type Conn struct {
	id     domain.ClientID
	frames chan []byte
	mu     sync.RWMutex
	closed bool
}

var _ transport.Connection = (*Conn)(nil)

// NewConn returns a connection buffering up to size frames.
func NewConn(id domain.ClientID, size int) *Conn {
	if id.IsZero() {
		id = domain.NewClientID()
	}
	if size <= 0 {
		size = 64
	}
	return &Conn{id: id, frames: make(chan []byte, size)}
}

func (c *Conn) ClientID() domain.ClientID { return c.id }

// Send queues frame without blocking.
func (c *Conn) Send(ctx context.Context, frame []byte) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return transport.ErrConnectionClosed
	}
	select {
	case c.frames <- frame:
		return nil
	default:
		return transport.ErrSendBufferFull
	}
}

// Frames exposes the outbound queue. It is closed by Close.
func (c *Conn) Frames() <-chan []byte { return c.frames }

// Drain returns every frame queued so far without waiting.
func (c *Conn) Drain() [][]byte {
	var out [][]byte
	for {
		select {
		case frame, ok := <-c.frames:
			if !ok {
				return out
			}
			out = append(out, frame)
		default:
			return out
		}
	}
}

// Close rejects further sends. Already queued frames remain readable.
func (c *Conn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.frames)
}
