package config

import (
	"testing"
	"time"
)

func TestLoadFromMap(t *testing.T) {
	input := map[string]any{
		"realtime": map[string]any{
			"namespace": "learner",
		},
		"transport": map[string]any{
			"send_buffer": 32,
			"write_wait":  "2s",
		},
		"delivery_log": map[string]any{
			"enabled":     true,
			"max_workers": 2,
		},
	}

	cfg, err := Load(input)
	if err != nil {
		t.Fatalf("load returned error: %v", err)
	}
	if cfg.Realtime.Namespace != "learner" {
		t.Fatalf("expected namespace learner, got %s", cfg.Realtime.Namespace)
	}
	if cfg.Transport.SendBuffer != 32 {
		t.Fatalf("expected send buffer 32, got %d", cfg.Transport.SendBuffer)
	}
	if cfg.Transport.WriteWait != 2*time.Second {
		t.Fatalf("expected write wait 2s, got %s", cfg.Transport.WriteWait)
	}
	if !cfg.DeliveryLog.Enabled || cfg.DeliveryLog.MaxWorkers != 2 {
		t.Fatalf("unexpected delivery log config %+v", cfg.DeliveryLog)
	}
	if cfg.Transport.PongWait != Defaults().Transport.PongWait {
		t.Fatalf("expected default pong wait, got %s", cfg.Transport.PongWait)
	}
}

func TestLoadFromStruct(t *testing.T) {
	input := Config{
		Realtime:  RealtimeConfig{Namespace: "author"},
		RateLimit: RateLimitConfig{EventsPerSecond: 5, Burst: 1},
	}

	cfg, err := Load(input)
	if err != nil {
		t.Fatalf("load returned error: %v", err)
	}
	if cfg.RateLimit.EventsPerSecond != 5 || cfg.RateLimit.Burst != 1 {
		t.Fatalf("unexpected rate limit %+v", cfg.RateLimit)
	}
	if cfg.Realtime.Enabled {
		t.Fatalf("expected struct switches to be taken as written")
	}
	if cfg.Transport.SendBuffer != Defaults().Transport.SendBuffer {
		t.Fatalf("expected default send buffer, got %d", cfg.Transport.SendBuffer)
	}
	if cfg.Roots.CacheTTL != time.Minute {
		t.Fatalf("expected default cache ttl, got %s", cfg.Roots.CacheTTL)
	}
}

func TestLoadNilUsesDefaults(t *testing.T) {
	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("load returned error: %v", err)
	}
	if cfg.Realtime.Namespace != "author" {
		t.Fatalf("expected default namespace, got %s", cfg.Realtime.Namespace)
	}
}

func TestLoadKeepsExplicitZeroValues(t *testing.T) {
	cfg, err := Load(map[string]any{
		"realtime":     map[string]any{"enabled": false},
		"delivery_log": map[string]any{"max_retries": 0},
	})
	if err != nil {
		t.Fatalf("load returned error: %v", err)
	}
	if cfg.Realtime.Enabled {
		t.Fatalf("expected realtime to stay disabled")
	}
	if cfg.DeliveryLog.MaxRetries != 0 {
		t.Fatalf("expected max retries 0, got %d", cfg.DeliveryLog.MaxRetries)
	}
	if cfg.Realtime.Namespace != "author" || cfg.DeliveryLog.MaxWorkers != Defaults().DeliveryLog.MaxWorkers {
		t.Fatalf("expected untouched keys to keep defaults, got %+v", cfg)
	}

	cfg, err = Load(map[string]any{"transport": map[string]any{"send_buffer": 8}})
	if err != nil {
		t.Fatalf("load returned error: %v", err)
	}
	if !cfg.Realtime.Enabled || cfg.DeliveryLog.MaxRetries != 3 {
		t.Fatalf("expected omitted keys to default, got %+v", cfg)
	}
}

func TestLoadZeroStructUsesDefaults(t *testing.T) {
	cfg, err := Load(Config{})
	if err != nil {
		t.Fatalf("load returned error: %v", err)
	}
	if !cfg.Realtime.Enabled || cfg.DeliveryLog.MaxRetries != 3 {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := Defaults()
	cfg.RateLimit.EventsPerSecond = -1
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected validation error")
	}
	cfg = Defaults()
	cfg.Transport.SendBuffer = 0
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected send buffer validation error")
	}
}

func TestPingPeriodBelowPongWait(t *testing.T) {
	cfg := Defaults()
	if cfg.Transport.PingPeriod() >= cfg.Transport.PongWait {
		t.Fatalf("ping period must be shorter than pong wait")
	}
}
