package relay

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/ha1tch/mimic-toolkit/internal/logging"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4 << 20
	sendBuffer     = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// Any origin may connect, as with the browser frontend served from file://.
	CheckOrigin: func(r *http.Request) bool { return true },
}

type peer struct {
	id   string
	conn *websocket.Conn
	send chan []byte
}

// Hub relays every message it receives to every connected peer, the
// sender included. Delivery is best effort: a peer whose send buffer is
// full is disconnected.
type Hub struct {
	mu    sync.RWMutex
	peers map[*peer]struct{}
	log   *logging.Logger

	// onMessage, when set, is called with every inbound message before it
	// is broadcast.
	onMessage func([]byte)
}

// NewHub creates an empty hub.
func NewHub(log *logging.Logger) *Hub {
	if log == nil {
		log = logging.Named("relay.hub")
	}
	return &Hub{peers: make(map[*peer]struct{}), log: log}
}

// Clients returns the number of connected peers.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.peers)
}

// Broadcast queues msg for every peer and returns how many accepted it.
func (h *Hub) Broadcast(msg []byte) int {
	var slow []*peer
	sent := 0

	h.mu.RLock()
	for p := range h.peers {
		select {
		case p.send <- msg:
			sent++
		default:
			slow = append(slow, p)
		}
	}
	h.mu.RUnlock()

	for _, p := range slow {
		h.log.Warn("peer %s is not keeping up; disconnecting", p.id)
		h.remove(p)
	}
	return sent
}

// ServeHTTP upgrades the request to a WebSocket and serves the peer until
// it disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed: %v", err)
		return
	}
	p := &peer{id: uuid.NewString()[:8], conn: conn, send: make(chan []byte, sendBuffer)}

	h.mu.Lock()
	h.peers[p] = struct{}{}
	h.mu.Unlock()
	h.log.Info("peer %s connected from %s", p.id, r.RemoteAddr)

	go h.writePump(p)
	h.readPump(p)
}

// Close disconnects every peer.
func (h *Hub) Close() {
	h.mu.Lock()
	peers := h.peers
	h.peers = make(map[*peer]struct{})
	h.mu.Unlock()

	for p := range peers {
		close(p.send)
	}
}

func (h *Hub) remove(p *peer) {
	h.mu.Lock()
	_, ok := h.peers[p]
	if ok {
		delete(h.peers, p)
		close(p.send)
	}
	h.mu.Unlock()
	if ok {
		h.log.Info("peer %s disconnected", p.id)
	}
}

func (h *Hub) readPump(p *peer) {
	defer func() {
		h.remove(p)
		p.conn.Close()
	}()

	p.conn.SetReadLimit(maxMessageSize)
	p.conn.SetReadDeadline(time.Now().Add(pongWait))
	p.conn.SetPongHandler(func(string) error {
		return p.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, msg, err := p.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Warn("peer %s: %v", p.id, err)
			}
			return
		}
		if h.onMessage != nil {
			h.onMessage(msg)
		}
		h.Broadcast(msg)
	}
}

func (h *Hub) writePump(p *peer) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		p.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-p.send:
			p.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				p.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := p.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				h.log.Debug("peer %s write: %v", p.id, err)
				return
			}
		case <-ticker.C:
			p.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := p.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
