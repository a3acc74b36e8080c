package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goliatone/go-rtm/pkg/broadcast"
	"github.com/goliatone/go-rtm/pkg/config"
	"github.com/goliatone/go-rtm/pkg/domain"
	"github.com/goliatone/go-rtm/pkg/interfaces/logger"
	"github.com/goliatone/go-rtm/pkg/transport/memory"
	"github.com/google/uuid"
)

func newTestServer(t *testing.T, cfg config.Config) (*httptest.Server, *broadcast.Module) {
	t.Helper()
	module, err := broadcast.NewModule(broadcast.ModuleOptions{Config: cfg, Logger: &logger.Nop{}})
	if err != nil {
		t.Fatalf("module: %v", err)
	}
	srv := httptest.NewServer(newMux(module, &logger.Nop{}))
	t.Cleanup(func() {
		srv.Close()
		_ = module.Close(context.Background())
	})
	return srv, module
}

func post(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url+"/broadcast", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestPublishEndpointFansOut(t *testing.T) {
	srv, module := newTestServer(t, config.Defaults())
	root := uuid.New()
	conn := memory.NewConn(domain.NewClientID(), 4)
	if err := module.Subscribe(context.Background(), conn, "s", "activity", root.String()); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	body := fmt.Sprintf(`{"event":"PATHWAY_CREATED","rootElementId":%q,"elementId":%q,"parentElementId":%q}`,
		root, uuid.New(), root)
	resp := post(t, srv.URL, body)
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", resp.StatusCode)
	}
	if frames := conn.Drain(); len(frames) != 1 {
		t.Fatalf("expected one frame, got %d", len(frames))
	}
}

func TestPublishEndpointStatusCodes(t *testing.T) {
	cfg := config.Defaults()
	cfg.RateLimit = config.RateLimitConfig{EventsPerSecond: 0.001, Burst: 1}
	srv, module := newTestServer(t, cfg)

	if resp := post(t, srv.URL, "{"); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed body, got %d", resp.StatusCode)
	}
	if resp := post(t, srv.URL, `{"event":"NOPE"}`); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown event, got %d", resp.StatusCode)
	}

	client := domain.NewClientID().String()
	workspace := uuid.NewString()
	body := fmt.Sprintf(`{"event":"WORKSPACE_UPDATED","clientId":%q,"rootElementId":%q,"elementId":%q}`, client, workspace, workspace)
	if resp := post(t, srv.URL, body); resp.StatusCode != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", resp.StatusCode)
	}
	if resp := post(t, srv.URL, body); resp.StatusCode != http.StatusAccepted {
		t.Fatalf("rate limited publish should still be accepted, got %d", resp.StatusCode)
	}
	stats := module.Stats()
	if stats.Publish.RateLimited != 1 || stats.Dispatch.Dispatched != 1 {
		t.Fatalf("expected one dispatch and one rate limited drop, got %+v", stats)
	}
}

func TestHealthAndEventsEndpoints(t *testing.T) {
	srv, _ := newTestServer(t, config.Config{})

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("healthz: %v", err)
	}
	defer resp.Body.Close()
	var health struct {
		Status string          `json:"status"`
		Stats  broadcast.Stats `json:"stats"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		t.Fatalf("decode health: %v", err)
	}
	if health.Status != "ok" {
		t.Fatalf("unexpected health %+v", health)
	}

	resp2, err := http.Get(srv.URL + "/events")
	if err != nil {
		t.Fatalf("events: %v", err)
	}
	defer resp2.Body.Close()
	var events struct {
		Events []string `json:"events"`
	}
	if err := json.NewDecoder(resp2.Body).Decode(&events); err != nil {
		t.Fatalf("decode events: %v", err)
	}
	found := false
	for _, name := range events.Events {
		if name == "ACTIVITY_CONFIG_CHANGE" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected ACTIVITY_CONFIG_CHANGE in %v", events.Events)
	}
}
