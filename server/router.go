// Package server exposes the running simulation over HTTP: a JSON state
// endpoint, a command endpoint, Prometheus metrics and a websocket stream.
package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pthm-cable/springsoup/game"
)

// Engine is the part of the world the server touches. Both methods are
// safe to call from handler goroutines.
type Engine interface {
	Latest() *game.Snapshot
	Enqueue(game.Command) error
}

// RouterConfig holds the router dependencies.
type RouterConfig struct {
	// Engine is the simulation (required)
	Engine Engine

	// Gatherer serves /metrics. If nil, the route is not registered.
	Gatherer prometheus.Gatherer

	// Hub streams snapshots over /ws. If nil, the route is not registered.
	Hub *Hub

	// CORSOrigins is the list of allowed origins. Nil allows localhost only.
	CORSOrigins []string

	// DisableLogging turns off the request logger middleware.
	DisableLogging bool

	Logger *slog.Logger
}

type handlers struct {
	engine Engine
	log    *slog.Logger
}

// NewRouter builds the HTTP router. It starts no goroutines.
func NewRouter(cfg RouterConfig) *chi.Mux {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	if !cfg.DisableLogging {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)

	origins := cfg.CORSOrigins
	if origins == nil {
		origins = []string{"http://localhost:*", "http://127.0.0.1:*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         300,
	}))

	h := &handlers{engine: cfg.Engine, log: logger}

	r.Get("/health", h.handleHealth)
	if cfg.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}
	if cfg.Hub != nil {
		r.Get("/ws", cfg.Hub.HandleWebSocket)
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/state", h.handleState)
		r.Get("/counts", h.handleCounts)
		r.Post("/command", h.handleCommand)
	})
	return r
}

func (h *handlers) handleHealth(w http.ResponseWriter, r *http.Request) {
	snap := h.engine.Latest()
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "tick": snap.Tick})
}

func (h *handlers) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.engine.Latest())
}

func (h *handlers) handleCounts(w http.ResponseWriter, r *http.Request) {
	snap := h.engine.Latest()
	writeJSON(w, http.StatusOK, map[string]any{
		"tick":    snap.Tick,
		"counts":  snap.Counts,
		"toggles": snap.Toggles,
	})
}

// commandRequest is the body of POST /api/command.
type commandRequest struct {
	Command string `json:"command"`
}

func (h *handlers) handleCommand(w http.ResponseWriter, r *http.Request) {
	var req commandRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<10)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	status, err := submit(h.engine, req.Command)
	if err != nil {
		h.log.Debug("command rejected", "command", req.Command, "error", err)
		writeError(w, status, err.Error())
		return
	}
	writeJSON(w, status, map[string]string{"queued": req.Command})
}

// submit parses and queues a command, mapping failures to HTTP statuses.
func submit(engine Engine, s string) (int, error) {
	cmd, err := game.ParseCommand(s)
	if err != nil {
		return http.StatusBadRequest, err
	}
	if err := engine.Enqueue(cmd); err != nil {
		if errors.Is(err, game.ErrQueueFull) {
			return http.StatusServiceUnavailable, err
		}
		return http.StatusInternalServerError, err
	}
	return http.StatusAccepted, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
