package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	command "github.com/goliatone/go-command"
	"github.com/goliatone/go-rtm/internal/catalog"
	"github.com/goliatone/go-rtm/internal/producer"
	"github.com/goliatone/go-rtm/pkg/domain"
	"github.com/goliatone/go-rtm/pkg/interfaces/logger"
	"github.com/goliatone/go-rtm/pkg/interfaces/transport"
	"github.com/goliatone/go-rtm/pkg/roots"
	"github.com/google/uuid"
)

var (
	ErrRootMismatch  = errors.New("commands: resolved root does not own the element")
	ErrMissingTopics = errors.New("commands: topic registry is required")
)

// Catalog exposes go-command compatible handlers for host transports.
type Catalog struct {
	PublishEvent command.Commander[PublishEvent]
	Subscribe    command.Commander[Subscribe]
	Unsubscribe  command.Commander[Unsubscribe]
	Disconnect   command.Commander[Disconnect]

	drops *publishDrops
}

// PublishStats counts accepted publishes that never reached the dispatcher.
type PublishStats struct {
	RateLimited int64 `json:"rate_limited"`
	Unresolved  int64 `json:"unresolved"`
}

type publishDrops struct {
	rateLimited atomic.Int64
	unresolved  atomic.Int64
}

// PublishStats returns the publish drop counters.
func (c *Catalog) PublishStats() PublishStats {
	if c == nil || c.drops == nil {
		return PublishStats{}
	}
	return PublishStats{
		RateLimited: c.drops.rateLimited.Load(),
		Unresolved:  c.drops.unresolved.Load(),
	}
}

type producerFactory interface {
	For(kind domain.EventKind) (*producer.Producer, error)
	ForName(name string) (*producer.Producer, error)
	Namespace() string
}

type topicRegistry interface {
	Subscribe(topic domain.Topic, sub transport.Subscriber) (bool, error)
	Unsubscribe(topic domain.Topic, client domain.ClientID) bool
	RemoveConnection(client domain.ClientID) []string
}

type limiter interface {
	Allow(key string) bool
}

// Dependencies wires the broadcast engine into the command catalog.
type Dependencies struct {
	Producers producerFactory
	Topics    topicRegistry
	Roots     roots.Resolver
	Limiter   limiter
	Logger    logger.Logger
}

// NewCatalog builds the command catalog using the supplied dependencies.
func NewCatalog(deps Dependencies) (*Catalog, error) {
	if deps.Producers == nil {
		return nil, errors.New("commands: producer factory is required")
	}
	if deps.Topics == nil {
		return nil, ErrMissingTopics
	}
	if deps.Logger == nil {
		deps.Logger = &logger.Nop{}
	}

	drops := &publishDrops{}
	return &Catalog{
		PublishEvent: publishCommand{producers: deps.Producers, roots: deps.Roots, limiter: deps.Limiter, logger: deps.Logger, drops: drops},
		Subscribe:    subscribeCommand{topics: deps.Topics, namespace: deps.Producers.Namespace(), logger: deps.Logger},
		Unsubscribe:  unsubscribeCommand{topics: deps.Topics, namespace: deps.Producers.Namespace()},
		Disconnect:   disconnectCommand{topics: deps.Topics, logger: deps.Logger},
		drops:        drops,
	}, nil
}

// PublishEvent asks the engine to broadcast a mutation that already
// happened. Event names a registered kind; when empty, ElementType and
// Action select it. RootElementID may be omitted when a root resolver is
// configured.
//
// Only malformed input is reported back. An unresolvable root or a rate
// limited producer drops the broadcast and returns nil, so the mutation
// that triggered it is never affected.
type PublishEvent struct {
	Event               string              `json:"event"`
	ElementType         string              `json:"elementType"`
	Action              string              `json:"action"`
	ClientID            string              `json:"clientId"`
	AccountID           string              `json:"accountId"`
	RootElementID       string              `json:"rootElementId"`
	ElementID           string              `json:"elementId"`
	ParentElementID     string              `json:"parentElementId"`
	ParentElementType   string              `json:"parentElementType"`
	FromParentElementID string              `json:"fromParentElementId"`
	Config              *string             `json:"config"`
	OrderedIDs          []string            `json:"orderedIds"`
	Grant               *domain.AccessGrant `json:"grant"`
}

type publishCommand struct {
	producers producerFactory
	roots     roots.Resolver
	limiter   limiter
	logger    logger.Logger
	drops     *publishDrops
}

func (c publishCommand) Execute(ctx context.Context, msg PublishEvent) error {
	p, err := c.producerFor(msg)
	if err != nil {
		return err
	}
	def := p.Definition()

	producing := domain.ProducingContext{AccountID: strings.TrimSpace(msg.AccountID)}
	if strings.TrimSpace(msg.ClientID) != "" {
		client, err := domain.ParseClientID(strings.TrimSpace(msg.ClientID))
		if err != nil {
			return err
		}
		producing.Client = client
	}
	in := producer.Input{Producer: producing}
	if in.ElementID, err = parseID("elementId", msg.ElementID); err != nil {
		return err
	}
	if in.RootElementID, err = parseID("rootElementId", msg.RootElementID); err != nil {
		return err
	}
	if in.ParentElementID, err = parseID("parentElementId", msg.ParentElementID); err != nil {
		return err
	}
	if in.FromParentElementID, err = parseID("fromParentElementId", msg.FromParentElementID); err != nil {
		return err
	}
	if msg.ParentElementType != "" {
		if in.ParentElementType, err = domain.ParseElementType(msg.ParentElementType); err != nil {
			return err
		}
	}
	if msg.OrderedIDs != nil {
		in.OrderedIDs = make([]uuid.UUID, 0, len(msg.OrderedIDs))
		for _, raw := range msg.OrderedIDs {
			id, err := parseID("orderedIds", raw)
			if err != nil {
				return err
			}
			in.OrderedIDs = append(in.OrderedIDs, id)
		}
	}
	in.Config = msg.Config
	in.Grant = msg.Grant

	if err := p.ValidateFields(in); err != nil {
		return err
	}

	if in.RootElementID == uuid.Nil && c.roots != nil {
		root, err := c.resolveRoot(ctx, def, in.ElementID)
		if err != nil {
			c.drops.unresolved.Add(1)
			c.logger.Warn("publish root unresolved, broadcast dropped",
				logger.F("event", def.Kind.Name()),
				logger.F("element_id", in.ElementID.String()),
				logger.F("error", err),
			)
			return nil
		}
		in.RootElementID = root
	}

	if c.limiter != nil && !c.limiter.Allow(limitKey(producing)) {
		c.drops.rateLimited.Add(1)
		c.logger.Warn("publish rate limited, broadcast dropped",
			logger.F("event", def.Kind.Name()),
			logger.F("client_id", producing.Client.String()),
			logger.F("account_id", producing.AccountID),
		)
		return nil
	}

	_, err = p.Produce(ctx, in)
	return err
}

func (c publishCommand) resolveRoot(ctx context.Context, def catalog.Definition, element uuid.UUID) (uuid.UUID, error) {
	root, err := c.roots.ResolveRoot(ctx, def.Element, element)
	if err != nil {
		return uuid.Nil, err
	}
	if root.Kind != def.Root {
		return uuid.Nil, fmt.Errorf("%w: %s belongs to %s", ErrRootMismatch, def.Kind.Name(), root.Kind)
	}
	return root.ID, nil
}

func (c publishCommand) producerFor(msg PublishEvent) (*producer.Producer, error) {
	if name := strings.TrimSpace(msg.Event); name != "" {
		return c.producers.ForName(name)
	}
	element, err := domain.ParseElementType(msg.ElementType)
	if err != nil {
		return nil, err
	}
	action, err := domain.ParseAction(msg.Action)
	if err != nil {
		return nil, err
	}
	return c.producers.For(domain.NewEventKind(element, action))
}

func limitKey(p domain.ProducingContext) string {
	if !p.Client.IsZero() {
		return "client:" + p.Client.String()
	}
	if p.AccountID != "" {
		return "account:" + p.AccountID
	}
	return ""
}

func parseID(field, raw string) (uuid.UUID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return uuid.Nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %s: %v", domain.ErrInvalidInput, field, err)
	}
	return id, nil
}

// Subscribe attaches a connection to the topic of one aggregate root.
type Subscribe struct {
	Conn           transport.Connection `json:"-"`
	SubscriptionID string               `json:"id"`
	RootType       string               `json:"rootType"`
	RootID         string               `json:"rootId"`
}

type subscribeCommand struct {
	topics    topicRegistry
	namespace string
	logger    logger.Logger
}

func (c subscribeCommand) Execute(ctx context.Context, msg Subscribe) error {
	topic, err := topicFor(c.namespace, msg.RootType, msg.RootID)
	if err != nil {
		return err
	}
	if msg.Conn == nil {
		return transport.ErrConnectionClosed
	}
	added, err := c.topics.Subscribe(topic, transport.Subscriber{Conn: msg.Conn, SubscriptionID: msg.SubscriptionID})
	if err != nil {
		return err
	}
	c.logger.Debug("client subscribed",
		logger.F("topic", topic.Name()),
		logger.F("client_id", msg.Conn.ClientID().String()),
		logger.F("subscription_id", msg.SubscriptionID),
		logger.F("added", added),
	)
	return nil
}

// Unsubscribe detaches a client from one topic. Unknown subscriptions are a no-op.
type Unsubscribe struct {
	ClientID domain.ClientID `json:"-"`
	RootType string          `json:"rootType"`
	RootID   string          `json:"rootId"`
}

type unsubscribeCommand struct {
	topics    topicRegistry
	namespace string
}

func (c unsubscribeCommand) Execute(ctx context.Context, msg Unsubscribe) error {
	topic, err := topicFor(c.namespace, msg.RootType, msg.RootID)
	if err != nil {
		return err
	}
	c.topics.Unsubscribe(topic, msg.ClientID)
	return nil
}

// Disconnect removes a client from every topic it joined.
type Disconnect struct {
	ClientID domain.ClientID `json:"-"`
}

type disconnectCommand struct {
	topics topicRegistry
	logger logger.Logger
}

func (c disconnectCommand) Execute(ctx context.Context, msg Disconnect) error {
	if msg.ClientID.IsZero() {
		return fmt.Errorf("%w: client id is required", domain.ErrInvalidInput)
	}
	left := c.topics.RemoveConnection(msg.ClientID)
	c.logger.Debug("client disconnected",
		logger.F("client_id", msg.ClientID.String()),
		logger.F("topics", len(left)),
	)
	return nil
}

func topicFor(namespace, rootType, rootID string) (domain.Topic, error) {
	kind, err := domain.ParseRootKind(rootType)
	if err != nil {
		return domain.Topic{}, err
	}
	id, err := parseID("rootId", rootID)
	if err != nil {
		return domain.Topic{}, err
	}
	if id == uuid.Nil {
		return domain.Topic{}, fmt.Errorf("%w: rootId is required", domain.ErrInvalidInput)
	}
	return domain.NewTopic(namespace, domain.RootRef{Kind: kind, ID: id}), nil
}
