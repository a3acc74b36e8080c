package transport

import (
	"context"
	"errors"

	"github.com/goliatone/go-rtm/pkg/domain"
)

var (
	// ErrConnectionClosed is returned when writing to a connection that is gone.
	ErrConnectionClosed = errors.New("transport: connection closed")
	// ErrSendBufferFull is returned when a connection cannot accept more frames.
	ErrSendBufferFull = errors.New("transport: send buffer full")
)

// Connection is a writable client channel. Send must not block on network I/O:
// implementations queue the frame and write frames in submission order.
type Connection interface {
	ClientID() domain.ClientID
	Send(ctx context.Context, frame []byte) error
}

// Subscriber is one connection listening on a topic under the subscription id
// the client chose when subscribing.
type Subscriber struct {
	Conn           Connection
	SubscriptionID string
}

// ClientID is a convenience accessor for the underlying connection identity.
func (s Subscriber) ClientID() domain.ClientID {
	if s.Conn == nil {
		return domain.ClientID{}
	}
	return s.Conn.ClientID()
}

// Func adapts a function into a Connection, mainly for tests and bridges.
type Func struct {
	ID     domain.ClientID
	SendFn func(ctx context.Context, frame []byte) error
}

var _ Connection = Func{}

func (f Func) ClientID() domain.ClientID { return f.ID }

func (f Func) Send(ctx context.Context, frame []byte) error {
	if f.SendFn == nil {
		return nil
	}
	return f.SendFn(ctx, frame)
}
