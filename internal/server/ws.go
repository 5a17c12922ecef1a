package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/ayusman/mugglewand/internal/app"
	"github.com/ayusman/mugglewand/internal/capture"
	"github.com/ayusman/mugglewand/internal/pipeline"
)

const (
	clientBuffer = 32
	writeWait    = 5 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

type hubClient struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub broadcasts pipeline events to WebSocket clients. A client that
// falls behind loses messages rather than stalling the tick loop.
type Hub struct {
	clients map[*hubClient]struct{}
	mu      sync.RWMutex
	log     *logrus.Entry
}

// NewHub creates an empty Hub.
func NewHub(logger logrus.FieldLogger) *Hub {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Hub{
		clients: make(map[*hubClient]struct{}),
		log:     logger.WithField("component", "events"),
	}
}

// Publish implements app.Publisher.
func (h *Hub) Publish(e app.Event) {
	msg, err := json.Marshal(e)
	if err != nil {
		h.log.WithError(err).Warn("failed to encode event")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			h.log.Debug("dropping event for slow client")
		}
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Warn("websocket upgrade error")
		return
	}

	c := &hubClient{conn: conn, send: make(chan []byte, clientBuffer)}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	go h.writePump(c)

	// Keep connection alive by reading messages
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	h.mu.Lock()
	delete(h.clients, c)
	close(c.send)
	h.mu.Unlock()
}

func (h *Hub) writePump(c *hubClient) {
	defer c.conn.Close()
	for msg := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
	c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

// IngestHandler feeds samples from an external tracker into a ChanSource.
// WebSocket clients send one JSON sample per message; plain POST requests
// carry a batch.
type IngestHandler struct {
	source *capture.ChanSource
	log    *logrus.Entry
}

// NewIngestHandler creates an IngestHandler writing into source.
func NewIngestHandler(source *capture.ChanSource, logger logrus.FieldLogger) *IngestHandler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &IngestHandler{source: source, log: logger.WithField("component", "ingest")}
}

type ingestRequest struct {
	Samples []pipeline.Sample `json:"samples"`
}

type ingestResponse struct {
	Accepted int `json:"accepted"`
	Dropped  int `json:"dropped"`
}

// ServeHTTP implements the http.Handler interface.
func (h *IngestHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if websocket.IsWebSocketUpgrade(r) {
		h.serveWebSocket(w, r)
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	var resp ingestResponse
	for _, s := range req.Samples {
		if h.source.Push(s) {
			resp.Accepted++
		} else {
			resp.Dropped++
		}
	}
	if resp.Dropped > 0 {
		h.log.WithField("dropped", resp.Dropped).Warn("sample buffer full")
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *IngestHandler) serveWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Warn("websocket upgrade error")
		return
	}
	defer conn.Close()

	h.log.WithField("remote", r.RemoteAddr).Info("tracker connected")
	dropped := 0
	for {
		var s pipeline.Sample
		if err := conn.ReadJSON(&s); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.log.WithError(err).Warn("tracker connection lost")
			}
			break
		}
		if !h.source.Push(s) {
			dropped++
		}
	}
	h.log.WithFields(logrus.Fields{"remote": r.RemoteAddr, "dropped": dropped}).Info("tracker disconnected")
}
