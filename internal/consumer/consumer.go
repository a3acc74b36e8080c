package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	masker "github.com/goliatone/go-masker"
	"github.com/goliatone/go-rtm/pkg/domain"
	"github.com/goliatone/go-rtm/pkg/interfaces/logger"
	"github.com/goliatone/go-rtm/pkg/interfaces/transport"
)

// ErrSuppressed is reported by Outcome when a delivery was skipped because
// the subscriber produced the event.
var ErrSuppressed = errors.New("consumer: echo suppressed")

// Consumer delivers a consumable to one subscriber.
type Consumer interface {
	Accept(ctx context.Context, sub transport.Subscriber, c domain.Consumable) error
}

// Func adapts a function to the Consumer interface.
type Func func(ctx context.Context, sub transport.Subscriber, c domain.Consumable) error

// Accept satisfies the Consumer interface.
func (f Func) Accept(ctx context.Context, sub transport.Subscriber, c domain.Consumable) error {
	if f == nil {
		return nil
	}
	return f(ctx, sub, c)
}

// Generic serialises any consumable into the broadcast envelope. One value is
// shared by every event kind that has no dedicated consumer.
type Generic struct {
	logger logger.Logger
}

var _ Consumer = (*Generic)(nil)

// New returns the generic consumer.
func New(lgr logger.Logger) *Generic {
	if lgr == nil {
		lgr = &logger.Nop{}
	}
	return &Generic{logger: lgr}
}

// Accept writes the envelope unless sub is the connection that caused the
// event, in which case nothing is written and ErrSuppressed is returned.
func (g *Generic) Accept(ctx context.Context, sub transport.Subscriber, c domain.Consumable) error {
	if sub.Conn == nil {
		return transport.ErrConnectionClosed
	}
	if c.Producer().Originated(sub.ClientID()) {
		return ErrSuppressed
	}

	frame, err := Encode(c, sub.SubscriptionID)
	if err != nil {
		return err
	}

	g.logger.Debug("consumer writing broadcast",
		logger.F("topic", c.Topic().Name()),
		logger.F("event", c.Kind().Name()),
		logger.F("client_id", sub.ClientID().String()),
		logger.F("subscription_id", sub.SubscriptionID),
		logger.F("config", maskedConfig(c.Payload().Config)),
	)

	return sub.Conn.Send(ctx, frame)
}

// Encode renders the broadcast envelope for c.
func Encode(c domain.Consumable, replyTo string) ([]byte, error) {
	frame, err := json.Marshal(domain.NewBroadcastEnvelope(c, replyTo))
	if err != nil {
		return nil, fmt.Errorf("consumer: encode %s: %w", c.Kind().Name(), err)
	}
	return frame, nil
}

func maskedConfig(cfg *string) string {
	if cfg == nil || *cfg == "" {
		return ""
	}
	if masked, err := masker.Default.String("preserveEnds(2,2)", *cfg); err == nil {
		return masked
	}
	return "***"
}
