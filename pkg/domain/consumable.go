package domain

import "errors"

var (
	// ErrInvalidInput flags missing or malformed producer input.
	ErrInvalidInput = errors.New("rtm: invalid input")
	// ErrUnknownEventKind is returned when a kind has no catalog entry.
	ErrUnknownEventKind = errors.New("rtm: unknown event kind")
)

// Consumable is one broadcastable event plus its routing metadata. It is
// built once per mutation and never modified afterwards.
type Consumable struct {
	kind     EventKind
	producer ProducingContext
	topic    Topic
	payload  Payload
}

// NewConsumable assembles a consumable, copying the payload.
func NewConsumable(kind EventKind, producer ProducingContext, topic Topic, payload Payload) Consumable {
	return Consumable{
		kind:     kind,
		producer: producer,
		topic:    topic,
		payload:  payload.Clone(),
	}
}

// Kind returns the event kind.
func (c Consumable) Kind() EventKind { return c.kind }

// Producer returns the producing context.
func (c Consumable) Producer() ProducingContext { return c.producer }

// Topic returns the routing topic.
func (c Consumable) Topic() Topic { return c.topic }

// Payload returns a copy of the payload.
func (c Consumable) Payload() Payload { return c.payload.Clone() }

// Equal implements structural equality over producing context and payload.
func (c Consumable) Equal(other Consumable) bool {
	return c.producer.Equal(other.producer) && c.payload.Equal(other.payload)
}
