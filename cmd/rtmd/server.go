package main

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/goliatone/go-rtm/pkg/broadcast"
	"github.com/goliatone/go-rtm/pkg/commands"
	"github.com/goliatone/go-rtm/pkg/domain"
	"github.com/goliatone/go-rtm/pkg/interfaces/logger"
)

const maxPublishBody = 1 << 20

type server struct {
	module *broadcast.Module
	logger logger.Logger
}

func newMux(module *broadcast.Module, lgr logger.Logger) *http.ServeMux {
	s := &server{module: module, logger: lgr}
	mux := http.NewServeMux()
	mux.Handle("GET /ws", module.Gateway())
	mux.HandleFunc("POST /broadcast", s.publish)
	mux.HandleFunc("GET /events", s.events)
	mux.HandleFunc("GET /healthz", s.health)
	return mux
}

// publish stands in for mutation handlers: they post the facts of a
// committed change and the engine fans it out.
func (s *server) publish(w http.ResponseWriter, r *http.Request) {
	var msg commands.PublishEvent
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxPublishBody)).Decode(&msg); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.module.Publish(r.Context(), msg); err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			s.logger.Error("publish failed", logger.F("event", msg.Event), logger.F("error", err))
		}
		writeError(w, status, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

func (s *server) events(w http.ResponseWriter, r *http.Request) {
	defs := s.module.Definitions()
	names := make([]string, 0, len(defs))
	for _, def := range defs {
		names = append(names, def.Kind.Name())
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": names})
}

func (s *server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"stats":  s.module.Stats(),
	})
}

// statusFor maps publish errors. Only input problems surface; dropped
// broadcasts are still accepted.
func statusFor(err error) int {
	if errors.Is(err, domain.ErrInvalidInput) || errors.Is(err, domain.ErrUnknownEventKind) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
