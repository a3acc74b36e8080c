package commands

import (
	command "github.com/goliatone/go-command"
	internalcommands "github.com/goliatone/go-rtm/internal/commands"
	"github.com/goliatone/go-rtm/internal/producer"
	"github.com/goliatone/go-rtm/internal/ratelimit"
	"github.com/goliatone/go-rtm/internal/topics"
	"github.com/goliatone/go-rtm/pkg/interfaces/logger"
	"github.com/goliatone/go-rtm/pkg/roots"
)

// Re-export request types so consumers need not import internal packages.
type (
	PublishEvent = internalcommands.PublishEvent
	Subscribe    = internalcommands.Subscribe
	Unsubscribe  = internalcommands.Unsubscribe
	Disconnect   = internalcommands.Disconnect
	PublishStats = internalcommands.PublishStats
)

// Registry exposes go-command compatible handlers backed by the broadcast engine.
type Registry struct {
	Catalog      *internalcommands.Catalog
	PublishEvent command.Commander[PublishEvent]
	Subscribe    command.Commander[Subscribe]
	Unsubscribe  command.Commander[Unsubscribe]
	Disconnect   command.Commander[Disconnect]
}

// Dependencies mirror the internal command dependencies but keep them public.
type Dependencies struct {
	Producers *producer.Factory
	Topics    *topics.Registry
	Roots     roots.Resolver
	Limiter   *ratelimit.Keyed
	Logger    logger.Logger
}

// New builds the registry using the provided dependencies.
func New(deps Dependencies) (*Registry, error) {
	internalDeps := internalcommands.Dependencies{
		Roots:  deps.Roots,
		Logger: deps.Logger,
	}
	// typed nils must not leak into the interface fields
	if deps.Producers != nil {
		internalDeps.Producers = deps.Producers
	}
	if deps.Topics != nil {
		internalDeps.Topics = deps.Topics
	}
	if deps.Limiter != nil {
		internalDeps.Limiter = deps.Limiter
	}
	catalog, err := internalcommands.NewCatalog(internalDeps)
	if err != nil {
		return nil, err
	}
	return &Registry{
		Catalog:      catalog,
		PublishEvent: catalog.PublishEvent,
		Subscribe:    catalog.Subscribe,
		Unsubscribe:  catalog.Unsubscribe,
		Disconnect:   catalog.Disconnect,
	}, nil
}

// Commanders returns every handler so callers can register them with go-command registries.
func (r *Registry) Commanders() []any {
	if r == nil {
		return nil
	}
	return []any{
		r.PublishEvent,
		r.Subscribe,
		r.Unsubscribe,
		r.Disconnect,
	}
}
