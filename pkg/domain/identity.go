package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// ClientID identifies one connected client session. Echo suppression compares
// ClientIDs, never raw strings.
type ClientID struct {
	id uuid.UUID
}

// NewClientID returns a random client identity.
func NewClientID() ClientID {
	return ClientID{id: uuid.New()}
}

// ClientIDFrom wraps an existing uuid.
func ClientIDFrom(id uuid.UUID) ClientID {
	return ClientID{id: id}
}

// ParseClientID parses the textual form produced by String.
func ParseClientID(s string) (ClientID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return ClientID{}, fmt.Errorf("%w: client id: %v", ErrInvalidInput, err)
	}
	return ClientID{id: id}, nil
}

// UUID exposes the underlying identifier.
func (c ClientID) UUID() uuid.UUID { return c.id }

// IsZero reports whether the identity is unset (system originated events).
func (c ClientID) IsZero() bool { return c.id == uuid.Nil }

// Equal reports whether both values name the same client.
func (c ClientID) Equal(other ClientID) bool { return c.id == other.id }

func (c ClientID) String() string {
	if c.IsZero() {
		return ""
	}
	return c.id.String()
}

// ProducingContext identifies who caused an event.
type ProducingContext struct {
	Client    ClientID
	AccountID string
}

// ProducedBy is a shorthand for a producing context without an account.
func ProducedBy(client ClientID) ProducingContext {
	return ProducingContext{Client: client}
}

// Equal compares both the client and account.
func (p ProducingContext) Equal(other ProducingContext) bool {
	return p.Client.Equal(other.Client) && p.AccountID == other.AccountID
}

// Originated reports whether client is the one that produced the event.
// System events (zero client) never match.
func (p ProducingContext) Originated(client ClientID) bool {
	return !p.Client.IsZero() && p.Client.Equal(client)
}
