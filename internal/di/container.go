package di

import (
	"context"
	"reflect"
	"sync"

	"github.com/goliatone/go-rtm/internal/catalog"
	"github.com/goliatone/go-rtm/internal/deliverylog"
	"github.com/goliatone/go-rtm/internal/dispatcher"
	"github.com/goliatone/go-rtm/internal/producer"
	"github.com/goliatone/go-rtm/internal/ratelimit"
	"github.com/goliatone/go-rtm/internal/topics"
	rtmcache "github.com/goliatone/go-rtm/pkg/cache"
	"github.com/goliatone/go-rtm/pkg/commands"
	"github.com/goliatone/go-rtm/pkg/config"
	"github.com/goliatone/go-rtm/pkg/interfaces/broadcaster"
	"github.com/goliatone/go-rtm/pkg/interfaces/cache"
	"github.com/goliatone/go-rtm/pkg/interfaces/logger"
	"github.com/goliatone/go-rtm/pkg/roots"
	"github.com/goliatone/go-rtm/pkg/storage"
	"github.com/goliatone/go-rtm/pkg/transport/websocket"
)

// Options configure the DI container.
type Options struct {
	Config        config.Config
	Storage       storage.Providers
	Logger        logger.Logger
	Cache         cache.Cache
	Relay         broadcaster.Broadcaster
	Relays        []broadcaster.Broadcaster
	Roots         roots.Resolver
	Authenticator websocket.Authenticator
	Catalog       *catalog.Registry
}

// Container wires the catalog, registry, dispatcher, commands, and gateway.
type Container struct {
	Config     config.Config
	Storage    storage.Providers
	Catalog    *catalog.Registry
	Topics     *topics.Registry
	Dispatcher *dispatcher.Service
	Producers  *producer.Factory
	Recorder   *deliverylog.Recorder
	Roots      roots.Resolver
	Limiter    *ratelimit.Keyed
	Commands   *commands.Registry
	Gateway    *websocket.Gateway

	ownedCache *rtmcache.TTL
	closeOnce  sync.Once
	closeErr   error
}

func isZeroConfig(cfg config.Config) bool {
	return reflect.ValueOf(cfg).IsZero()
}

// New constructs the container using the supplied options.
func New(opts Options) (*Container, error) {
	cfg := opts.Config
	if isZeroConfig(cfg) {
		cfg = config.Defaults()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	lgr := opts.Logger
	if lgr == nil {
		lgr = &logger.Nop{}
	}

	cat := opts.Catalog
	if cat == nil {
		cat = catalog.NewDefault(lgr)
	}

	c := &Container{
		Config:  cfg,
		Catalog: cat,
		Topics:  topics.NewRegistry(),
	}

	dispatchDeps := dispatcher.Dependencies{
		Registry:  c.Topics,
		Consumers: cat,
		Relay:     broadcaster.Join(append([]broadcaster.Broadcaster{opts.Relay}, opts.Relays...)...),
		Logger:    lgr,
		Config:    cfg.Dispatcher,
	}

	if cfg.DeliveryLog.Enabled {
		providers := opts.Storage
		if providers.Deliveries == nil {
			providers = storage.NewMemoryProviders()
		}
		c.Storage = providers
		recorder, err := deliverylog.New(deliverylog.Dependencies{
			Deliveries: providers.Deliveries,
			Logger:     lgr,
			Config:     cfg.DeliveryLog,
		})
		if err != nil {
			return nil, err
		}
		c.Recorder = recorder
		dispatchDeps.Recorder = recorder
	}

	dispatcherSvc, err := dispatcher.New(dispatchDeps)
	if err != nil {
		c.Close(context.Background())
		return nil, err
	}
	c.Dispatcher = dispatcherSvc

	// a disabled engine still validates and builds, it just never fans out
	var sink producer.Dispatcher
	if cfg.Realtime.Enabled {
		sink = dispatcherSvc
	} else {
		lgr.Info("realtime broadcasting disabled")
	}
	c.Producers, err = producer.NewFactory(cat, cfg.Realtime.Namespace, sink)
	if err != nil {
		c.Close(context.Background())
		return nil, err
	}

	resolverCache := opts.Cache
	if resolverCache == nil {
		c.ownedCache = rtmcache.NewTTL(cfg.Roots.CacheTTL)
		resolverCache = c.ownedCache
	}
	base := opts.Roots
	if base == nil {
		base = roots.NewStatic()
	}
	c.Roots = roots.NewCached(base, resolverCache, cfg.Roots.CacheTTL, lgr)

	c.Limiter = ratelimit.New(cfg.RateLimit)

	c.Commands, err = commands.New(commands.Dependencies{
		Producers: c.Producers,
		Topics:    c.Topics,
		Roots:     c.Roots,
		Limiter:   c.Limiter,
		Logger:    lgr,
	})
	if err != nil {
		c.Close(context.Background())
		return nil, err
	}

	gatewayDeps := websocket.Dependencies{
		Subscribe:     c.Commands.Subscribe,
		Unsubscribe:   c.Commands.Unsubscribe,
		Disconnect:    c.Commands.Disconnect,
		Authenticator: opts.Authenticator,
		Logger:        lgr,
		Config:        cfg.Transport,
	}
	if c.Limiter != nil {
		gatewayDeps.Limiter = c.Limiter
	}
	c.Gateway, err = websocket.New(gatewayDeps)
	if err != nil {
		c.Close(context.Background())
		return nil, err
	}

	return c, nil
}

// Close ends open sessions, drains the delivery log, and stops background
// loops. Safe to call on a partially built container and more than once.
func (c *Container) Close(ctx context.Context) error {
	if c == nil {
		return nil
	}
	c.closeOnce.Do(func() {
		if c.Gateway != nil {
			c.Gateway.Close()
		}
		if c.Recorder != nil {
			c.closeErr = c.Recorder.Close(ctx)
		}
		c.Limiter.Stop()
		if c.ownedCache != nil {
			c.ownedCache.Stop()
		}
	})
	return c.closeErr
}
