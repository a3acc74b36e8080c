package broadcast

import (
	"context"
	"net/http"

	"github.com/goliatone/go-rtm/internal/catalog"
	"github.com/goliatone/go-rtm/internal/di"
	"github.com/goliatone/go-rtm/internal/dispatcher"
	"github.com/goliatone/go-rtm/internal/producer"
	"github.com/goliatone/go-rtm/pkg/commands"
	"github.com/goliatone/go-rtm/pkg/config"
	"github.com/goliatone/go-rtm/pkg/domain"
	"github.com/goliatone/go-rtm/pkg/interfaces/broadcaster"
	"github.com/goliatone/go-rtm/pkg/interfaces/cache"
	"github.com/goliatone/go-rtm/pkg/interfaces/logger"
	"github.com/goliatone/go-rtm/pkg/interfaces/transport"
	"github.com/goliatone/go-rtm/pkg/roots"
	"github.com/goliatone/go-rtm/pkg/storage"
	"github.com/goliatone/go-rtm/pkg/transport/websocket"
)

// ModuleOptions configure the broadcast module facade.
type ModuleOptions struct {
	Config        config.Config
	Storage       storage.Providers
	Logger        logger.Logger
	Cache         cache.Cache
	Relay         broadcaster.Broadcaster
	Relays        []broadcaster.Broadcaster
	Roots         roots.Resolver
	Authenticator websocket.Authenticator
}

// Module bundles the container and exposes high-level accessors.
type Module struct {
	container *di.Container
}

// Stats summarises engine activity.
type Stats struct {
	Dispatch    dispatcher.Stats `json:"dispatch"`
	Connections int              `json:"connections"`
	Topics      int              `json:"topics"`
	LogStored   int64            `json:"log_stored"`
	LogDropped  int64            `json:"log_dropped"`

	Publish commands.PublishStats `json:"publish"`
}

// NewModule assembles the catalog, topic registry, dispatcher, commands, and
// websocket gateway.
func NewModule(opts ModuleOptions) (*Module, error) {
	container, err := di.New(di.Options{
		Config:        opts.Config,
		Storage:       opts.Storage,
		Logger:        opts.Logger,
		Cache:         opts.Cache,
		Relay:         opts.Relay,
		Relays:        opts.Relays,
		Roots:         opts.Roots,
		Authenticator: opts.Authenticator,
	})
	if err != nil {
		return nil, err
	}
	return &Module{container: container}, nil
}

// Producer returns the producer for kind.
func (m *Module) Producer(kind domain.EventKind) (*producer.Producer, error) {
	return m.container.Producers.For(kind)
}

// ProducerFor returns the producer for an element/action pair.
func (m *Module) ProducerFor(element domain.ElementType, action domain.Action) (*producer.Producer, error) {
	return m.container.Producers.ForElement(element, action)
}

// Publish runs the PublishEvent command. Mutation handlers call it after
// their change has been committed.
func (m *Module) Publish(ctx context.Context, msg commands.PublishEvent) error {
	return m.container.Commands.PublishEvent.Execute(ctx, msg)
}

// Subscribe attaches conn to the topic of the given root.
func (m *Module) Subscribe(ctx context.Context, conn transport.Connection, subscriptionID, rootType, rootID string) error {
	return m.container.Commands.Subscribe.Execute(ctx, commands.Subscribe{
		Conn:           conn,
		SubscriptionID: subscriptionID,
		RootType:       rootType,
		RootID:         rootID,
	})
}

// Disconnect drops every subscription held by client.
func (m *Module) Disconnect(ctx context.Context, client domain.ClientID) error {
	return m.container.Commands.Disconnect.Execute(ctx, commands.Disconnect{ClientID: client})
}

// Gateway returns the websocket handler.
func (m *Module) Gateway() http.Handler {
	if m == nil || m.container == nil {
		return nil
	}
	return m.container.Gateway
}

// Commands returns the go-command registry.
func (m *Module) Commands() *commands.Registry {
	if m == nil || m.container == nil {
		return nil
	}
	return m.container.Commands
}

// Definitions lists the registered event kinds.
func (m *Module) Definitions() []catalog.Definition {
	if m == nil || m.container == nil {
		return nil
	}
	return m.container.Catalog.Definitions()
}

// Stats returns a snapshot of engine counters.
func (m *Module) Stats() Stats {
	if m == nil || m.container == nil {
		return Stats{}
	}
	c := m.container
	stats := Stats{
		Dispatch:    c.Dispatcher.Stats(),
		Connections: c.Gateway.Active(),
		Topics:      len(c.Topics.Topics()),
		Publish:     c.Commands.Catalog.PublishStats(),
	}
	if c.Recorder != nil {
		stats.LogStored = c.Recorder.Stored()
		stats.LogDropped = c.Recorder.Dropped()
	}
	return stats
}

// Config returns the effective module configuration.
func (m *Module) Config() config.Config {
	if m == nil || m.container == nil {
		return config.Config{}
	}
	return m.container.Config
}

// Container returns the internal DI container.
// This is exposed for advanced use cases like direct storage access.
func (m *Module) Container() *di.Container {
	if m == nil {
		return nil
	}
	return m.container
}

// Close shuts the module down.
func (m *Module) Close(ctx context.Context) error {
	if m == nil {
		return nil
	}
	return m.container.Close(ctx)
}
