package realtime

import (
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/charlesng35/sponsorpass/pkg/logger"
	"github.com/charlesng35/sponsorpass/pkg/metrics"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 << 10 // control messages only

	defaultBufferSize = 64
)

// Named realtime streams.
const (
	StreamDashboardView = "dashboard.view"
)

// Events delivered on a stream.
const (
	EventSnapshot = "snapshot"
	EventUpdated  = "updated"
	EventPong     = "pong"
)

// Message represents a JSON payload delivered to realtime subscribers.
type Message struct {
	Stream string         `json:"stream"`
	Event  string         `json:"event"`
	Data   any            `json:"data,omitempty"`
	Meta   map[string]any `json:"meta,omitempty"`
}

type controlMessage struct {
	Action  string   `json:"action"`
	Streams []string `json:"streams"`
}

// SnapshotFunc returns the current state of a stream; it is sent to every new subscriber.
type SnapshotFunc func() any

// Hub fans stream messages out to connected websocket clients.
type Hub struct {
	mu            sync.RWMutex
	subscriptions map[string]map[*connection]struct{}
	connections   map[*connection]struct{}
	snapshots     map[string]SnapshotFunc
	upgrader      websocket.Upgrader
	log           *zap.Logger
}

// NewHub constructs a realtime hub.
func NewHub() *Hub {
	return &Hub{
		subscriptions: make(map[string]map[*connection]struct{}),
		connections:   make(map[*connection]struct{}),
		snapshots:     make(map[string]SnapshotFunc),
		log:           logger.WithModule("realtime"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				// Same-origin requests and localhost development only.
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				originHost := hostWithoutPort(origin)
				requestHost := hostWithoutPort(r.Host)
				return originHost == requestHost || isLoopback(originHost)
			},
		},
	}
}

// RegisterSnapshot installs the snapshot sent to clients when they subscribe to stream.
func (h *Hub) RegisterSnapshot(stream string, fn SnapshotFunc) {
	stream = normalizeStream(stream)
	h.mu.Lock()
	defer h.mu.Unlock()
	if fn == nil {
		delete(h.snapshots, stream)
		return
	}
	h.snapshots[stream] = fn
}

// Serve upgrades the HTTP connection to a WebSocket and subscribes the client to streams. It
// blocks until the client goes away.
func (h *Hub) Serve(streams []string, w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := newConnection(h, conn)
	h.register(client)
	h.subscribe(client, streams)

	go client.writeLoop()
	client.readLoop()
}

// BroadcastStream delivers a message to every subscriber of stream.
func (h *Hub) BroadcastStream(stream string, message Message) {
	stream = normalizeStream(stream)
	if stream == "" {
		return
	}

	h.mu.RLock()
	targets := make([]*connection, 0, len(h.subscriptions[stream]))
	for client := range h.subscriptions[stream] {
		targets = append(targets, client)
	}
	h.mu.RUnlock()

	message.Stream = stream
	for _, client := range targets {
		h.enqueue(client, message)
	}
}

// Subscribers returns the number of clients listening on stream.
func (h *Hub) Subscribers(stream string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscriptions[normalizeStream(stream)])
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.RLock()
	clients := make([]*connection, 0, len(h.connections))
	for client := range h.connections {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	for _, client := range clients {
		client.close()
	}
}

func (h *Hub) register(client *connection) {
	h.mu.Lock()
	h.connections[client] = struct{}{}
	h.mu.Unlock()

	metrics.ViewSubscribers.Inc()
	h.log.Debug("client connected", zap.String("connection_id", client.id))
}

func (h *Hub) subscribe(client *connection, streams []string) {
	if len(streams) == 0 {
		return
	}

	var added []string
	h.mu.Lock()
	for _, stream := range uniqueStreams(streams) {
		if _, exists := client.streams[stream]; exists {
			continue
		}
		if h.subscriptions[stream] == nil {
			h.subscriptions[stream] = make(map[*connection]struct{})
		}
		client.streams[stream] = struct{}{}
		h.subscriptions[stream][client] = struct{}{}
		added = append(added, stream)
	}
	snapshots := make(map[string]SnapshotFunc, len(added))
	for _, stream := range added {
		if fn, ok := h.snapshots[stream]; ok {
			snapshots[stream] = fn
		}
	}
	h.mu.Unlock()

	for _, stream := range added {
		if fn, ok := snapshots[stream]; ok {
			h.enqueue(client, Message{Stream: stream, Event: EventSnapshot, Data: fn()})
		}
	}
}

func (h *Hub) unsubscribe(client *connection, streams []string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, stream := range uniqueStreams(streams) {
		h.removeSubscriptionLocked(client, stream)
	}
}

func (h *Hub) unregister(client *connection) {
	h.mu.Lock()
	for stream := range client.streams {
		h.removeSubscriptionLocked(client, stream)
	}
	_, known := h.connections[client]
	delete(h.connections, client)
	h.mu.Unlock()

	if known {
		metrics.ViewSubscribers.Dec()
		h.log.Debug("client disconnected", zap.String("connection_id", client.id))
	}
}

func (h *Hub) removeSubscriptionLocked(client *connection, stream string) {
	delete(client.streams, stream)

	clients, ok := h.subscriptions[stream]
	if !ok {
		return
	}
	delete(clients, client)
	if len(clients) == 0 {
		delete(h.subscriptions, stream)
	}
}

func (h *Hub) enqueue(client *connection, message Message) {
	select {
	case <-client.done:
	case client.send <- message:
	default:
		h.log.Warn("dropping backpressured client", zap.String("connection_id", client.id))
		client.close()
	}
}

type connection struct {
	id      string
	hub     *Hub
	socket  *websocket.Conn
	streams map[string]struct{} // guarded by hub.mu
	send    chan Message
	done    chan struct{}
	once    sync.Once
}

func newConnection(hub *Hub, conn *websocket.Conn) *connection {
	return &connection{
		id:      uuid.NewString(),
		hub:     hub,
		socket:  conn,
		streams: make(map[string]struct{}),
		send:    make(chan Message, defaultBufferSize),
		done:    make(chan struct{}),
	}
}

func (c *connection) readLoop() {
	defer c.close()

	c.socket.SetReadLimit(maxMessageSize)
	_ = c.socket.SetReadDeadline(time.Now().Add(pongWait))
	c.socket.SetPongHandler(func(string) error {
		_ = c.socket.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, payload, err := c.socket.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				c.hub.log.Debug("unexpected close", zap.String("connection_id", c.id), zap.Error(err))
			}
			return
		}

		if len(payload) == 0 {
			continue
		}

		var ctrl controlMessage
		if err := json.Unmarshal(payload, &ctrl); err != nil {
			c.hub.log.Debug("invalid control payload", zap.String("connection_id", c.id), zap.Error(err))
			continue
		}

		switch strings.ToLower(strings.TrimSpace(ctrl.Action)) {
		case "subscribe":
			c.hub.subscribe(c, ctrl.Streams)
		case "unsubscribe":
			c.hub.unsubscribe(c, ctrl.Streams)
		case "ping":
			c.hub.enqueue(c, Message{Event: EventPong})
		default:
			c.hub.log.Debug("unsupported control action", zap.String("connection_id", c.id), zap.String("action", ctrl.Action))
		}
	}
}

func (c *connection) writeLoop() {
	defer c.close()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			_ = c.socket.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.socket.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case message := <-c.send:
			_ = c.socket.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.socket.WriteJSON(message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.socket.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.socket.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *connection) close() {
	c.once.Do(func() {
		c.hub.unregister(c)
		close(c.done)
		_ = c.socket.Close()
	})
}

func hostWithoutPort(host string) string {
	host = strings.TrimSpace(host)
	if host == "" {
		return ""
	}

	if strings.HasPrefix(host, "http://") || strings.HasPrefix(host, "https://") {
		parsed, err := http.NewRequest(http.MethodGet, host, nil)
		if err == nil {
			return hostWithoutPort(parsed.URL.Host)
		}
	}

	if h, _, err := net.SplitHostPort(host); err == nil {
		return h
	}
	return host
}

func isLoopback(host string) bool {
	ip := net.ParseIP(host)
	if ip != nil {
		return ip.IsLoopback()
	}
	return strings.EqualFold(host, "localhost")
}

func normalizeStream(stream string) string {
	return strings.ToLower(strings.TrimSpace(stream))
}

func uniqueStreams(streams []string) []string {
	unique := make(map[string]struct{}, len(streams))
	var result []string
	for _, stream := range streams {
		if stream = normalizeStream(stream); stream != "" {
			if _, exists := unique[stream]; !exists {
				unique[stream] = struct{}{}
				result = append(result, stream)
			}
		}
	}
	return result
}
