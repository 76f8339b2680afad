package http

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"genset-cloud/internal/observability/metrics"
	"genset-cloud/internal/telemetry/application/events"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// Broadcaster pushes each persisted snapshot to connected websocket clients.
type Broadcaster struct {
	upgrader websocket.Upgrader
	logger   *log.Logger

	mu      sync.Mutex
	clients map[*wsClient]struct{}
}

type wsClient struct {
	conn *websocket.Conn
	send chan []byte
}

// NewBroadcaster constructs a broadcaster.
func NewBroadcaster(logger *log.Logger) *Broadcaster {
	return &Broadcaster{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		logger:  logger,
		clients: make(map[*wsClient]struct{}),
	}
}

// HandleStatusReceived broadcasts the stamped snapshot. Subscribed on the
// event bus alongside the alert service.
func (b *Broadcaster) HandleStatusReceived(_ context.Context, evt events.StatusReceived) error {
	payload, err := json.Marshal(evt.Snapshot)
	if err != nil {
		return err
	}
	b.mu.Lock()
	for client := range b.clients {
		select {
		case client.send <- payload:
		default:
			// Slow client, drop it.
			delete(b.clients, client)
			close(client.send)
		}
	}
	b.mu.Unlock()
	return nil
}

// ServeHTTP upgrades GET /api/v1/engine-data/stream to a websocket.
func (b *Broadcaster) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	conn, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		if b.logger != nil {
			b.logger.Printf("stream: upgrade failed: %v", err)
		}
		return
	}

	client := &wsClient{conn: conn, send: make(chan []byte, 32)}
	b.mu.Lock()
	b.clients[client] = struct{}{}
	b.mu.Unlock()
	metrics.AddStreamClient("ws", 1)

	go b.writePump(client)
	b.readPump(client)
}

func (b *Broadcaster) remove(client *wsClient) {
	b.mu.Lock()
	if _, ok := b.clients[client]; ok {
		delete(b.clients, client)
		close(client.send)
	}
	b.mu.Unlock()
	metrics.AddStreamClient("ws", -1)
	_ = client.conn.Close()
}

// readPump only services control frames; clients never send data.
func (b *Broadcaster) readPump(client *wsClient) {
	defer b.remove(client)
	client.conn.SetReadLimit(512)
	_ = client.conn.SetReadDeadline(time.Now().Add(pongWait))
	client.conn.SetPongHandler(func(string) error {
		return client.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := client.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (b *Broadcaster) writePump(client *wsClient) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = client.conn.Close()
	}()
	for {
		select {
		case payload, ok := <-client.send:
			_ = client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = client.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := client.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
