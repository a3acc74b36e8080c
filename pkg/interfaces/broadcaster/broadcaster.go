package broadcaster

import "context"

// Event carries a dispatched broadcast to an external broker so other nodes
// can fan it out to their own subscribers. Payload holds the domain.Consumable.
type Event struct {
	Topic   string
	Kind    string
	Payload any
}

// Broadcaster relays events to brokers or other transports.
type Broadcaster interface {
	Broadcast(ctx context.Context, event Event) error
}

// Nop broadcaster discards events.
type Nop struct{}

var _ Broadcaster = (*Nop)(nil)

func (n *Nop) Broadcast(ctx context.Context, event Event) error { return nil }
