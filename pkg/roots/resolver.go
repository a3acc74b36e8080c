package roots

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/goliatone/go-rtm/pkg/domain"
	"github.com/goliatone/go-rtm/pkg/interfaces/cache"
	"github.com/goliatone/go-rtm/pkg/interfaces/logger"
	"github.com/google/uuid"
)

// ErrRootNotFound is returned when an element's aggregate root is unknown.
var ErrRootNotFound = errors.New("roots: root element not found")

// Resolver finds the aggregate root that owns an element. Callers use it
// when a mutation handler does not already know the root id.
type Resolver interface {
	ResolveRoot(ctx context.Context, element domain.ElementType, elementID uuid.UUID) (domain.RootRef, error)
}

// Func adapts a function to the Resolver interface.
type Func func(ctx context.Context, element domain.ElementType, elementID uuid.UUID) (domain.RootRef, error)

func (f Func) ResolveRoot(ctx context.Context, element domain.ElementType, elementID uuid.UUID) (domain.RootRef, error) {
	if f == nil {
		return domain.RootRef{}, ErrRootNotFound
	}
	return f(ctx, element, elementID)
}

type elementKey struct {
	element domain.ElementType
	id      uuid.UUID
}

// Static is an in-memory resolver fed by Register. Activities, workspaces
// and documents resolve to themselves without registration.
type Static struct {
	mu    sync.RWMutex
	roots map[elementKey]domain.RootRef
}

var _ Resolver = (*Static)(nil)

func NewStatic() *Static {
	return &Static{roots: make(map[elementKey]domain.RootRef)}
}

// Register records that element id belongs to root.
func (s *Static) Register(element domain.ElementType, id uuid.UUID, root domain.RootRef) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roots[elementKey{element: element, id: id}] = root
}

// Forget drops a registration, typically after the element is deleted.
func (s *Static) Forget(element domain.ElementType, id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.roots, elementKey{element: element, id: id})
}

func (s *Static) ResolveRoot(ctx context.Context, element domain.ElementType, elementID uuid.UUID) (domain.RootRef, error) {
	if elementID == uuid.Nil {
		return domain.RootRef{}, fmt.Errorf("%w: element id is required", domain.ErrInvalidInput)
	}
	s.mu.RLock()
	root, ok := s.roots[elementKey{element: element, id: elementID}]
	s.mu.RUnlock()
	if ok {
		return root, nil
	}
	if kind, self := selfRooted(element); self {
		return domain.RootRef{Kind: kind, ID: elementID}, nil
	}
	return domain.RootRef{}, fmt.Errorf("%w: %s %s", ErrRootNotFound, element, elementID)
}

func selfRooted(element domain.ElementType) (domain.RootKind, bool) {
	switch element {
	case domain.ElementActivity:
		return domain.RootActivity, true
	case domain.ElementWorkspace:
		return domain.RootWorkspace, true
	case domain.ElementDocument:
		return domain.RootDocument, true
	}
	return "", false
}

// Cached memoizes a Resolver. Misses are not cached.
type Cached struct {
	next   Resolver
	cache  cache.Cache
	ttl    time.Duration
	logger logger.Logger
}

var _ Resolver = (*Cached)(nil)

func NewCached(next Resolver, c cache.Cache, ttl time.Duration, lgr logger.Logger) *Cached {
	if c == nil {
		c = &cache.Nop{}
	}
	if lgr == nil {
		lgr = &logger.Nop{}
	}
	return &Cached{next: next, cache: c, ttl: ttl, logger: lgr}
}

func (c *Cached) ResolveRoot(ctx context.Context, element domain.ElementType, elementID uuid.UUID) (domain.RootRef, error) {
	key := cacheKey(element, elementID)
	if v, ok, err := c.cache.Get(ctx, key); err == nil && ok {
		if root, ok := v.(domain.RootRef); ok {
			return root, nil
		}
	} else if err != nil {
		c.logger.Warn("roots cache read failed", logger.F("key", key), logger.F("error", err))
	}

	root, err := c.next.ResolveRoot(ctx, element, elementID)
	if err != nil {
		return domain.RootRef{}, err
	}
	if err := c.cache.Set(ctx, key, root, c.ttl); err != nil {
		c.logger.Warn("roots cache write failed", logger.F("key", key), logger.F("error", err))
	}
	return root, nil
}

// Invalidate drops the cached root of an element, e.g. after it moved.
func (c *Cached) Invalidate(ctx context.Context, element domain.ElementType, elementID uuid.UUID) {
	_ = c.cache.Delete(ctx, cacheKey(element, elementID))
}

func cacheKey(element domain.ElementType, id uuid.UUID) string {
	return "root:" + string(element) + ":" + id.String()
}
