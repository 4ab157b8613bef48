package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// MaxClients bounds concurrent websocket connections.
const MaxClients = 64

// wsMessage is the envelope for everything sent to websocket clients.
type wsMessage struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// Hub pushes snapshots to websocket clients and accepts commands from them.
type Hub struct {
	engine   Engine
	log      *slog.Logger
	interval time.Duration
	upgrader websocket.Upgrader

	mu         sync.Mutex
	clients    map[*websocket.Conn]struct{}
	upgrading  int // slots held by handshakes in progress
	maxClients int
}

// NewHub creates a hub that broadcasts at hz snapshots per second.
// allowOrigin decides which browser origins may connect; nil allows all.
func NewHub(engine Engine, hz float64, allowOrigin func(origin string) bool, logger *slog.Logger) *Hub {
	if hz <= 0 {
		hz = 10
	}
	if logger == nil {
		logger = slog.Default()
	}
	h := &Hub{
		engine:   engine,
		log:      logger.With("component", "ws"),
		interval: time.Duration(float64(time.Second) / hz),
		clients:    make(map[*websocket.Conn]struct{}),
		maxClients: MaxClients,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1 << 16,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" || allowOrigin == nil || allowOrigin(origin) {
				return true
			}
			h.log.Warn("websocket origin rejected", "origin", origin)
			return false
		},
	}
	return h
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Run broadcasts each new snapshot until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	lastTick := int32(-1)
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case <-ticker.C:
			if h.ClientCount() == 0 {
				continue
			}
			snap := h.engine.Latest()
			if snap == nil || snap.Tick == lastTick {
				continue
			}
			lastTick = snap.Tick
			h.Broadcast("state", snap)
		}
	}
}

// Broadcast sends an event to every client, dropping clients that fail.
func (h *Hub) Broadcast(event string, data any) {
	msg, err := json.Marshal(wsMessage{Event: event, Data: data})
	if err != nil {
		h.log.Error("marshal broadcast", "event", event, "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		conn.SetWriteDeadline(time.Now().Add(time.Second))
		if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			h.log.Debug("dropping websocket client", "error", err)
			conn.Close()
			delete(h.clients, conn)
		}
	}
}

// HandleWebSocket upgrades the request and serves the client until it
// disconnects. Clients may send {"command": "..."} messages.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	if !h.reserve() {
		http.Error(w, "too many connections", http.StatusServiceUnavailable)
		return
	}
	conn, err := h.upgrader.Upgrade(w, r, nil)

	h.mu.Lock()
	h.upgrading--
	if err == nil {
		h.clients[conn] = struct{}{}
	}
	n := len(h.clients)
	h.mu.Unlock()
	if err != nil {
		h.log.Debug("websocket upgrade failed", "error", err)
		return
	}
	h.log.Info("websocket client connected", "remote", r.RemoteAddr, "clients", n)

	// first frame so clients do not wait for the next tick
	if snap := h.engine.Latest(); snap != nil {
		h.send(conn, "state", snap)
	}

	go h.readLoop(conn)
}

// reserve claims a client slot for the duration of a handshake.
func (h *Hub) reserve() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.clients)+h.upgrading >= h.maxClients {
		return false
	}
	h.upgrading++
	return true
}

func (h *Hub) send(conn *websocket.Conn, event string, data any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[conn]; !ok {
		return
	}
	conn.SetWriteDeadline(time.Now().Add(time.Second))
	conn.WriteJSON(wsMessage{Event: event, Data: data})
}

func (h *Hub) readLoop(conn *websocket.Conn) {
	defer h.remove(conn)
	conn.SetReadLimit(1 << 10)
	for {
		var req commandRequest
		if err := conn.ReadJSON(&req); err != nil {
			return
		}
		if _, err := submit(h.engine, req.Command); err != nil {
			h.send(conn, "error", err.Error())
			continue
		}
		h.send(conn, "queued", req.Command)
	}
}

func (h *Hub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	_, ok := h.clients[conn]
	delete(h.clients, conn)
	n := len(h.clients)
	h.mu.Unlock()
	conn.Close()
	if ok {
		h.log.Info("websocket client disconnected", "clients", n)
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		conn.Close()
		delete(h.clients, conn)
	}
}
