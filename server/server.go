package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"path"
	"strings"
	"time"
)

// Server runs the router and the websocket hub.
type Server struct {
	http *http.Server
	hub  *Hub
	log  *slog.Logger
}

// Config holds server settings.
type Config struct {
	Addr        string
	BroadcastHz float64
	RouterConfig
}

// New creates a server. Call Start to begin listening.
func New(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	hub := NewHub(cfg.Engine, cfg.BroadcastHz, OriginMatcher(cfg.CORSOrigins), logger)

	rc := cfg.RouterConfig
	rc.Hub = hub
	rc.Logger = logger

	return &Server{
		http: &http.Server{
			Addr:              cfg.Addr,
			Handler:           NewRouter(rc),
			ReadHeaderTimeout: 5 * time.Second,
		},
		hub: hub,
		log: logger.With("component", "server"),
	}
}

// Start listens on the configured address and serves in the background
// until ctx is cancelled or Shutdown is called. It returns the bound address.
func (s *Server) Start(ctx context.Context) (string, error) {
	ln, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		return "", fmt.Errorf("listening on %s: %w", s.http.Addr, err)
	}
	go s.hub.Run(ctx)
	go func() {
		if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("server stopped", "error", err)
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		s.Shutdown(shutdownCtx)
	}()
	addr := ln.Addr().String()
	s.log.Info("server listening", "addr", addr)
	return addr, nil
}

// Shutdown stops accepting requests and waits for handlers to finish.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

// Hub returns the websocket hub.
func (s *Server) Hub() *Hub { return s.hub }

// OriginMatcher builds an origin check from CORS-style patterns such as
// "http://localhost:*". A nil or empty list allows everything.
func OriginMatcher(patterns []string) func(string) bool {
	if len(patterns) == 0 {
		return nil
	}
	return func(origin string) bool {
		for _, p := range patterns {
			if p == "*" || p == origin {
				return true
			}
			if ok, _ := path.Match(strings.ReplaceAll(p, "/", "\x00"), strings.ReplaceAll(origin, "/", "\x00")); ok {
				return true
			}
		}
		return false
	}
}
