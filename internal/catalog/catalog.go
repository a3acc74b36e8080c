package catalog

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"sync"

	"github.com/goliatone/go-rtm/internal/consumer"
	"github.com/goliatone/go-rtm/pkg/domain"
	"github.com/goliatone/go-rtm/pkg/interfaces/logger"
)

// Field names a kind specific payload field.
type Field string

const (
	FieldParent     Field = "parentElementId"
	FieldFromParent Field = "fromParentElementId"
	FieldConfig     Field = "config"
	FieldOrderedIDs Field = "orderedIds"
	FieldGrant      Field = "grant"
)

// Shape lists the payload fields an event kind requires and accepts.
// Fields outside Required and Optional are dropped from the payload.
type Shape struct {
	Required []Field
	Optional []Field
}

// Requires reports whether f is mandatory.
func (s Shape) Requires(f Field) bool { return slices.Contains(s.Required, f) }

// Allows reports whether f may appear in the payload.
func (s Shape) Allows(f Field) bool {
	return s.Requires(f) || slices.Contains(s.Optional, f)
}

// Definition binds an event kind to its payload shape, the aggregate root
// kind that owns its topic, and the consumer that delivers it.
type Definition struct {
	Kind     domain.EventKind
	Element  domain.ElementType
	Action   domain.Action
	Root     domain.RootKind
	Shape    Shape
	Consumer consumer.Consumer
}

var (
	ErrDuplicateKind = errors.New("catalog: event kind already registered")
	errKindRequired  = errors.New("catalog: event kind is required")
	errRootRequired  = errors.New("catalog: root kind is required")
)

// Registry is the lookup of event kinds. New kinds are added with Register;
// the dispatcher and topic registry never change when the taxonomy grows.
type Registry struct {
	mu       sync.RWMutex
	defs     map[string]Definition
	fallback consumer.Consumer
}

// New returns an empty registry whose definitions default to fallback.
func New(fallback consumer.Consumer) *Registry {
	if fallback == nil {
		fallback = consumer.New(nil)
	}
	return &Registry{
		defs:     make(map[string]Definition),
		fallback: fallback,
	}
}

// Register adds def. Registering the same kind twice fails.
func (r *Registry) Register(def Definition) error {
	if def.Kind.IsZero() {
		return errKindRequired
	}
	if def.Root == "" {
		return errRootRequired
	}
	if def.Consumer == nil {
		def.Consumer = r.fallback
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.defs[def.Kind.Name()]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateKind, def.Kind.Name())
	}
	r.defs[def.Kind.Name()] = def
	return nil
}

// MustRegister panics when Register fails.
func (r *Registry) MustRegister(def Definition) {
	if err := r.Register(def); err != nil {
		panic(err)
	}
}

// Lookup returns the definition for kind.
func (r *Registry) Lookup(kind domain.EventKind) (Definition, bool) {
	return r.LookupName(kind.Name())
}

// LookupName returns the definition registered under a canonical name.
func (r *Registry) LookupName(name string) (Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.defs[name]
	return def, ok
}

// Resolve returns the definition for an element/action pair.
func (r *Registry) Resolve(element domain.ElementType, action domain.Action) (Definition, error) {
	kind := domain.NewEventKind(element, action)
	def, ok := r.Lookup(kind)
	if !ok {
		return Definition{}, fmt.Errorf("%w: %s", domain.ErrUnknownEventKind, kind.Name())
	}
	return def, nil
}

// ConsumerFor returns the consumer registered for kind.
func (r *Registry) ConsumerFor(kind domain.EventKind) (consumer.Consumer, bool) {
	def, ok := r.Lookup(kind)
	if !ok {
		return nil, false
	}
	return def.Consumer, true
}

// Definitions returns every registered definition ordered by name.
func (r *Registry) Definitions() []Definition {
	r.mu.RLock()
	out := make([]Definition, 0, len(r.defs))
	for _, def := range r.defs {
		out = append(out, def)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Kind.Name() < out[j].Kind.Name() })
	return out
}

// NewDefault returns a registry preloaded with the courseware taxonomy.
func NewDefault(lgr logger.Logger) *Registry {
	r := New(consumer.New(lgr))
	for _, def := range DefaultDefinitions() {
		r.MustRegister(def)
	}
	return r
}
