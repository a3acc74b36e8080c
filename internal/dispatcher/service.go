package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/goliatone/go-rtm/internal/consumer"
	"github.com/goliatone/go-rtm/pkg/config"
	"github.com/goliatone/go-rtm/pkg/domain"
	"github.com/goliatone/go-rtm/pkg/interfaces/broadcaster"
	"github.com/goliatone/go-rtm/pkg/interfaces/logger"
	"github.com/goliatone/go-rtm/pkg/interfaces/transport"
)

type subscriberSource interface {
	Snapshot(topic domain.Topic) []transport.Subscriber
}

type consumerLookup interface {
	ConsumerFor(kind domain.EventKind) (consumer.Consumer, bool)
}

// Recorder receives one record per attempted delivery. Implementations must
// not block the caller.
type Recorder interface {
	Record(ctx context.Context, record domain.DeliveryRecord)
}

// Dependencies groups the collaborators required by the dispatcher.
type Dependencies struct {
	Registry  subscriberSource
	Consumers consumerLookup
	Relay     broadcaster.Broadcaster
	Recorder  Recorder
	Logger    logger.Logger
	Config    config.DispatcherConfig
}

// Service fans a consumable out to every live subscriber of its topic.
type Service struct {
	registry  subscriberSource
	consumers consumerLookup
	relay     broadcaster.Broadcaster
	recorder  Recorder
	logger    logger.Logger
	cfg       config.DispatcherConfig

	dispatched atomic.Int64
	delivered  atomic.Int64
	suppressed atomic.Int64
	failed     atomic.Int64
}

// Stats is a point-in-time view of dispatch counters.
type Stats struct {
	Dispatched int64 `json:"dispatched"`
	Delivered  int64 `json:"delivered"`
	Suppressed int64 `json:"suppressed"`
	Failed     int64 `json:"failed"`
}

var (
	ErrMissingRegistry  = errors.New("dispatcher: topic registry is required")
	ErrMissingConsumers = errors.New("dispatcher: consumer catalog is required")
)

// New builds the dispatcher service.
func New(deps Dependencies) (*Service, error) {
	if deps.Registry == nil {
		return nil, ErrMissingRegistry
	}
	if deps.Consumers == nil {
		return nil, ErrMissingConsumers
	}
	if deps.Logger == nil {
		deps.Logger = &logger.Nop{}
	}
	if deps.Config.RelayTimeout <= 0 {
		deps.Config.RelayTimeout = 5 * time.Second
	}

	return &Service{
		registry:  deps.Registry,
		consumers: deps.Consumers,
		relay:     deps.Relay,
		recorder:  deps.Recorder,
		logger:    deps.Logger,
		cfg:       deps.Config,
	}, nil
}

// Dispatch hands c to the consumer of its kind once per subscriber of its
// topic. Connections only queue frames, so Dispatch never waits on the
// network. Per-subscriber failures are logged and swallowed.
//
// Local fan-out completes before c is handed to the relay.
func (s *Service) Dispatch(ctx context.Context, c domain.Consumable) {
	s.dispatched.Add(1)
	s.fanOut(ctx, c)
	s.relayEvent(ctx, c)
}

func (s *Service) fanOut(ctx context.Context, c domain.Consumable) {
	subs := s.registry.Snapshot(c.Topic())
	if len(subs) == 0 {
		s.logger.Debug("dispatcher topic has no subscribers",
			logger.F("topic", c.Topic().Name()),
			logger.F("event", c.Kind().Name()),
		)
		return
	}

	cons, ok := s.consumers.ConsumerFor(c.Kind())
	if !ok {
		s.logger.Error("dispatcher has no consumer for event",
			logger.F("topic", c.Topic().Name()),
			logger.F("event", c.Kind().Name()),
		)
		return
	}

	for _, sub := range subs {
		s.deliver(ctx, cons, sub, c)
	}
}

func (s *Service) deliver(ctx context.Context, cons consumer.Consumer, sub transport.Subscriber, c domain.Consumable) {
	var err error
	func() {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("dispatcher: consumer panic: %v", r)
			}
		}()
		err = cons.Accept(ctx, sub, c)
	}()

	status := domain.DeliveryStatusDelivered
	switch {
	case err == nil:
		s.delivered.Add(1)
	case errors.Is(err, consumer.ErrSuppressed):
		s.suppressed.Add(1)
		status = domain.DeliveryStatusSuppressed
		err = nil
	default:
		s.failed.Add(1)
		status = domain.DeliveryStatusFailed
		s.logger.Warn("dispatcher delivery failed",
			logger.F("topic", c.Topic().Name()),
			logger.F("event", c.Kind().Name()),
			logger.F("client_id", sub.ClientID().String()),
			logger.F("subscription_id", sub.SubscriptionID),
			logger.F("error", err),
		)
	}
	s.record(ctx, sub, c, status, err)
}

func (s *Service) record(ctx context.Context, sub transport.Subscriber, c domain.Consumable, status string, err error) {
	if s.recorder == nil {
		return
	}
	rec := domain.DeliveryRecord{
		Event:          c.Kind().Name(),
		LegacyEvent:    c.Kind().LegacyName(),
		Topic:          c.Topic().Name(),
		ElementID:      c.Payload().ElementID.String(),
		ClientID:       sub.ClientID().String(),
		SubscriptionID: sub.SubscriptionID,
		ProducerID:     c.Producer().Client.String(),
		Status:         status,
	}
	if err != nil {
		rec.Error = err.Error()
	}
	s.recorder.Record(ctx, rec)
}

// relayEvent forwards c to the external broker without holding up local
// fan-out. The relay outlives the caller's context.
func (s *Service) relayEvent(ctx context.Context, c domain.Consumable) {
	if s.relay == nil || !s.cfg.RelayEnabled {
		return
	}
	event := broadcaster.Event{
		Topic:   c.Topic().Name(),
		Kind:    c.Kind().Name(),
		Payload: c,
	}
	base := context.WithoutCancel(ctx)
	go func() {
		rctx, cancel := context.WithTimeout(base, s.cfg.RelayTimeout)
		defer cancel()
		if err := s.relay.Broadcast(rctx, event); err != nil {
			s.logger.Warn("dispatcher relay failed",
				logger.F("topic", event.Topic),
				logger.F("event", event.Kind),
				logger.F("error", err),
			)
		}
	}()
}

// Stats returns the dispatch counters.
func (s *Service) Stats() Stats {
	return Stats{
		Dispatched: s.dispatched.Load(),
		Delivered:  s.delivered.Load(),
		Suppressed: s.suppressed.Load(),
		Failed:     s.failed.Load(),
	}
}
