package config

import (
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/goliatone/go-config/cfgx"
)

// Config captures module-level configuration knobs. Feature packages
// (dispatcher, transport, delivery log, etc.) pull from these nested structs.
type Config struct {
	Realtime    RealtimeConfig    `mapstructure:"realtime" json:"realtime"`
	Dispatcher  DispatcherConfig  `mapstructure:"dispatcher" json:"dispatcher"`
	Transport   TransportConfig   `mapstructure:"transport" json:"transport"`
	DeliveryLog DeliveryLogConfig `mapstructure:"delivery_log" json:"delivery_log"`
	Roots       RootsConfig       `mapstructure:"roots" json:"roots"`
	RateLimit   RateLimitConfig   `mapstructure:"rate_limit" json:"rate_limit"`
}

// RealtimeConfig toggles broadcasting and names the topic namespace.
type RealtimeConfig struct {
	Enabled   bool   `mapstructure:"enabled" json:"enabled"`
	Namespace string `mapstructure:"namespace" json:"namespace"`
}

// DispatcherConfig controls the optional external broker relay.
type DispatcherConfig struct {
	RelayEnabled bool          `mapstructure:"relay_enabled" json:"relay_enabled"`
	RelayTimeout time.Duration `mapstructure:"relay_timeout" json:"relay_timeout"`
}

// TransportConfig tunes subscriber connections.
type TransportConfig struct {
	SendBuffer     int           `mapstructure:"send_buffer" json:"send_buffer"`
	WriteWait      time.Duration `mapstructure:"write_wait" json:"write_wait"`
	PongWait       time.Duration `mapstructure:"pong_wait" json:"pong_wait"`
	MaxMessageSize int64         `mapstructure:"max_message_size" json:"max_message_size"`
	MaxConnections int           `mapstructure:"max_connections" json:"max_connections"`
}

// PingPeriod derives the ping interval from PongWait.
func (t TransportConfig) PingPeriod() time.Duration {
	return (t.PongWait * 9) / 10
}

// DeliveryLogConfig toggles the delivery audit trail and its worker pool.
type DeliveryLogConfig struct {
	Enabled    bool `mapstructure:"enabled" json:"enabled"`
	MaxWorkers int  `mapstructure:"max_workers" json:"max_workers"`
	MaxRetries int  `mapstructure:"max_retries" json:"max_retries"`
	QueueSize  int  `mapstructure:"queue_size" json:"queue_size"`
}

// RootsConfig scopes aggregate root resolution caching.
type RootsConfig struct {
	CacheTTL time.Duration `mapstructure:"cache_ttl" json:"cache_ttl"`
}

// RateLimitConfig bounds how many broadcasts one client may trigger.
// A zero EventsPerSecond disables limiting.
type RateLimitConfig struct {
	EventsPerSecond float64 `mapstructure:"events_per_second" json:"events_per_second"`
	Burst           int     `mapstructure:"burst" json:"burst"`
}

// Defaults returns the baseline configuration.
func Defaults() Config {
	return Config{
		Realtime: RealtimeConfig{
			Enabled:   true,
			Namespace: "author",
		},
		Dispatcher: DispatcherConfig{
			RelayEnabled: false,
			RelayTimeout: 5 * time.Second,
		},
		Transport: TransportConfig{
			SendBuffer:     256,
			WriteWait:      10 * time.Second,
			PongWait:       60 * time.Second,
			MaxMessageSize: 4096,
			MaxConnections: 10000,
		},
		DeliveryLog: DeliveryLogConfig{
			Enabled:    false,
			MaxWorkers: 4,
			MaxRetries: 3,
			QueueSize:  1024,
		},
		Roots: RootsConfig{
			CacheTTL: time.Minute,
		},
		RateLimit: RateLimitConfig{
			EventsPerSecond: 0,
			Burst:           20,
		},
	}
}

// Validate ensures required fields are present and sane.
func (c *Config) Validate() error {
	if c.Realtime.Namespace == "" {
		return errors.New("realtime.namespace is required")
	}
	if c.Transport.SendBuffer <= 0 {
		return fmt.Errorf("transport.send_buffer must be > 0")
	}
	if c.Transport.WriteWait <= 0 {
		return fmt.Errorf("transport.write_wait must be > 0")
	}
	if c.Transport.PongWait <= 0 {
		return fmt.Errorf("transport.pong_wait must be > 0")
	}
	if c.DeliveryLog.MaxWorkers <= 0 {
		return fmt.Errorf("delivery_log.max_workers must be > 0")
	}
	if c.DeliveryLog.MaxRetries < 0 {
		return fmt.Errorf("delivery_log.max_retries must be >= 0")
	}
	if c.Roots.CacheTTL < 0 {
		return fmt.Errorf("roots.cache_ttl must be >= 0")
	}
	if c.RateLimit.EventsPerSecond < 0 {
		return fmt.Errorf("rate_limit.events_per_second must be >= 0")
	}
	return nil
}

// Load decodes arbitrary input (struct, map, cfg struct) using cfgx helpers.
// Maps overlay Defaults key by key, so an explicit false or zero is kept.
// Structs are taken as written, with zero sizes and timeouts filled in; a zero
// Config loads Defaults.
func Load(input any, opts ...LoadOption) (Config, error) {
	settings := loadOptions{}
	for _, opt := range opts {
		opt(&settings)
	}

	var cfg Config
	switch v := input.(type) {
	case Config:
		cfg = fromStruct(v)
	case *Config:
		if v == nil {
			cfg = Defaults()
			break
		}
		cfg = fromStruct(*v)
	default:
		buildOpts := append([]cfgx.Option[Config]{
			cfgx.WithDefaults(Defaults()),
			cfgx.WithDecodeHooks[Config](mapstructure.StringToTimeDurationHookFunc()),
		}, settings.buildOpts...)
		built, err := cfgx.Build(input, buildOpts...)
		if err != nil {
			return Config{}, err
		}
		cfg = built
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// LoadOption lets callers amend cfgx build options.
type LoadOption func(*loadOptions)

type loadOptions struct {
	buildOpts []cfgx.Option[Config]
}

// WithBuildOptions forwards cfgx options (duration hooks, preprocessors, etc.).
func WithBuildOptions(opts ...cfgx.Option[Config]) LoadOption {
	return func(lo *loadOptions) {
		lo.buildOpts = append(lo.buildOpts, opts...)
	}
}

func fromStruct(c Config) Config {
	if isZero(c) {
		return Defaults()
	}
	return c.withDefaults()
}

// withDefaults fills zero sizes, timeouts and names. Switches and retry
// counts are left alone since their zero value is meaningful.
func (c Config) withDefaults() Config {
	defaults := Defaults()

	if c.Realtime.Namespace == "" {
		c.Realtime.Namespace = defaults.Realtime.Namespace
	}
	if c.Dispatcher.RelayTimeout == 0 {
		c.Dispatcher.RelayTimeout = defaults.Dispatcher.RelayTimeout
	}
	if c.Transport.SendBuffer == 0 {
		c.Transport.SendBuffer = defaults.Transport.SendBuffer
	}
	if c.Transport.WriteWait == 0 {
		c.Transport.WriteWait = defaults.Transport.WriteWait
	}
	if c.Transport.PongWait == 0 {
		c.Transport.PongWait = defaults.Transport.PongWait
	}
	if c.Transport.MaxMessageSize == 0 {
		c.Transport.MaxMessageSize = defaults.Transport.MaxMessageSize
	}
	if c.Transport.MaxConnections == 0 {
		c.Transport.MaxConnections = defaults.Transport.MaxConnections
	}
	if c.DeliveryLog.MaxWorkers == 0 {
		c.DeliveryLog.MaxWorkers = defaults.DeliveryLog.MaxWorkers
	}
	if c.DeliveryLog.QueueSize == 0 {
		c.DeliveryLog.QueueSize = defaults.DeliveryLog.QueueSize
	}
	if c.Roots.CacheTTL == 0 {
		c.Roots.CacheTTL = defaults.Roots.CacheTTL
	}
	if c.RateLimit.Burst == 0 {
		c.RateLimit.Burst = defaults.RateLimit.Burst
	}
	return c
}

func isZero(cfg Config) bool {
	return reflect.DeepEqual(cfg, Config{})
}
