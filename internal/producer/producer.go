package producer

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/goliatone/go-rtm/internal/catalog"
	"github.com/goliatone/go-rtm/pkg/domain"
	"github.com/google/uuid"
)

// Input holds the post-mutation facts a producer needs. Producers never read
// storage, so callers pass everything here.
type Input struct {
	Producer            domain.ProducingContext
	RootElementID       uuid.UUID
	ElementID           uuid.UUID
	ParentElementID     uuid.UUID
	ParentElementType   domain.ElementType
	FromParentElementID uuid.UUID
	Config              *string
	OrderedIDs          []uuid.UUID
	Grant               *domain.AccessGrant
}

// Dispatcher hands consumables to the fan-out pipeline.
type Dispatcher interface {
	Dispatch(ctx context.Context, c domain.Consumable)
}

// Producer builds and dispatches consumables for one event kind.
type Producer struct {
	def        catalog.Definition
	namespace  string
	dispatcher Dispatcher
}

var (
	errNamespaceRequired = errors.New("producer: namespace is required")
	errKindRequired      = errors.New("producer: event kind is required")
)

// New returns the producer for def. A nil dispatcher turns Dispatch into a
// no-op, which is handy when only Build is needed.
func New(def catalog.Definition, namespace string, dispatcher Dispatcher) (*Producer, error) {
	if def.Kind.IsZero() {
		return nil, errKindRequired
	}
	if namespace == "" {
		return nil, errNamespaceRequired
	}
	return &Producer{def: def, namespace: namespace, dispatcher: dispatcher}, nil
}

// Kind returns the event kind this producer emits.
func (p *Producer) Kind() domain.EventKind { return p.def.Kind }

// Definition returns the catalog entry backing this producer.
func (p *Producer) Definition() catalog.Definition { return p.def }

// Build validates in and returns the consumable. It has no side effects.
func (p *Producer) Build(in Input) (domain.Consumable, error) {
	if err := p.validate(in); err != nil {
		return domain.Consumable{}, err
	}

	shape := p.def.Shape
	payload := domain.Payload{
		ElementID:   in.ElementID,
		ElementType: p.def.Element,
	}
	if shape.Allows(catalog.FieldParent) && in.ParentElementID != uuid.Nil {
		payload.ParentElementID = domain.IDRef(in.ParentElementID)
		payload.ParentElementType = in.ParentElementType
	}
	if shape.Allows(catalog.FieldFromParent) {
		payload.FromParentElementID = domain.IDRef(in.FromParentElementID)
	}
	if shape.Allows(catalog.FieldConfig) && in.Config != nil {
		payload.Config = in.Config
	}
	if shape.Allows(catalog.FieldOrderedIDs) && in.OrderedIDs != nil {
		payload.OrderedIDs = slices.Clone(in.OrderedIDs)
	}
	if shape.Allows(catalog.FieldGrant) && in.Grant != nil {
		payload.AccessGrant = in.Grant
	}

	topic := domain.NewTopic(p.namespace, domain.RootRef{Kind: p.def.Root, ID: in.RootElementID})
	return domain.NewConsumable(p.def.Kind, in.Producer, topic, payload), nil
}

// Dispatch hands c to the fan-out pipeline. Delivery outcomes are never
// reported back to the caller.
func (p *Producer) Dispatch(ctx context.Context, c domain.Consumable) {
	if p.dispatcher == nil {
		return
	}
	p.dispatcher.Dispatch(ctx, c)
}

// Produce builds and dispatches in one call.
func (p *Producer) Produce(ctx context.Context, in Input) (domain.Consumable, error) {
	c, err := p.Build(in)
	if err != nil {
		return domain.Consumable{}, err
	}
	p.Dispatch(ctx, c)
	return c, nil
}

func (p *Producer) validate(in Input) error {
	if in.RootElementID == uuid.Nil {
		return fmt.Errorf("%w: %s: root element id is required", domain.ErrInvalidInput, p.def.Kind.Name())
	}
	return p.ValidateFields(in)
}

// ValidateFields checks in against the payload shape, leaving out the root
// element id so callers can resolve it afterwards.
func (p *Producer) ValidateFields(in Input) error {
	name := p.def.Kind.Name()
	if in.ElementID == uuid.Nil {
		return fmt.Errorf("%w: %s: element id is required", domain.ErrInvalidInput, name)
	}

	shape := p.def.Shape
	if shape.Requires(catalog.FieldParent) && in.ParentElementID == uuid.Nil {
		return fmt.Errorf("%w: %s: parent element id is required", domain.ErrInvalidInput, name)
	}
	if shape.Requires(catalog.FieldFromParent) && in.FromParentElementID == uuid.Nil {
		return fmt.Errorf("%w: %s: previous parent element id is required", domain.ErrInvalidInput, name)
	}
	if shape.Requires(catalog.FieldConfig) && in.Config == nil {
		return fmt.Errorf("%w: %s: config is required", domain.ErrInvalidInput, name)
	}
	if shape.Requires(catalog.FieldOrderedIDs) && in.OrderedIDs == nil {
		return fmt.Errorf("%w: %s: ordered ids are required", domain.ErrInvalidInput, name)
	}
	if slices.Contains(in.OrderedIDs, uuid.Nil) {
		return fmt.Errorf("%w: %s: ordered ids must not contain empty ids", domain.ErrInvalidInput, name)
	}
	if shape.Requires(catalog.FieldGrant) {
		if in.Grant == nil {
			return fmt.Errorf("%w: %s: access grant is required", domain.ErrInvalidInput, name)
		}
		if !validRef(in.Grant.AccountID) && !validRef(in.Grant.TeamID) {
			return fmt.Errorf("%w: %s: access grant needs an account or team id", domain.ErrInvalidInput, name)
		}
	}
	return nil
}

func validRef(id *uuid.UUID) bool {
	return id != nil && *id != uuid.Nil
}

// Factory hands out producers for any registered kind.
type Factory struct {
	catalog    *catalog.Registry
	namespace  string
	dispatcher Dispatcher
}

// NewFactory wires a producer factory.
func NewFactory(reg *catalog.Registry, namespace string, dispatcher Dispatcher) (*Factory, error) {
	if reg == nil {
		return nil, errors.New("producer: catalog is required")
	}
	if namespace == "" {
		return nil, errNamespaceRequired
	}
	return &Factory{catalog: reg, namespace: namespace, dispatcher: dispatcher}, nil
}

// For returns the producer for kind.
func (f *Factory) For(kind domain.EventKind) (*Producer, error) {
	def, ok := f.catalog.Lookup(kind)
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownEventKind, kind.Name())
	}
	return New(def, f.namespace, f.dispatcher)
}

// ForName returns the producer registered under a canonical event name.
func (f *Factory) ForName(name string) (*Producer, error) {
	def, ok := f.catalog.LookupName(strings.ToUpper(strings.TrimSpace(name)))
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownEventKind, name)
	}
	return New(def, f.namespace, f.dispatcher)
}

// ForElement returns the producer for an element/action pair.
func (f *Factory) ForElement(element domain.ElementType, action domain.Action) (*Producer, error) {
	return f.For(domain.NewEventKind(element, action))
}

// Namespace returns the topic namespace producers use.
func (f *Factory) Namespace() string { return f.namespace }
