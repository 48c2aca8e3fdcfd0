// Package wsapi is the outward transport: one WebSocket connection per
// ClientSession, translating inbound/outbound JSON messages to and
// from registry calls. This is the "transport" the core spec treats as
// an external collaborator.
package wsapi

import (
	"fmt"
	"log"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"
	"github.com/riverbend/logtail/internal/registry"
	"github.com/riverbend/logtail/internal/session"
)

// Server upgrades HTTP connections to WebSocket and binds each one to
// a fresh Client Session.
type Server struct {
	registry *registry.Registry
	upgrader websocket.Upgrader
	nextID   atomic.Uint64
}

// NewServer returns a Server backed by reg.
func NewServer(reg *registry.Registry) *Server {
	return &Server{
		registry: reg,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // no cross-origin restriction; the UI is served by this same process
			},
		},
	}
}

// HandleWebSocket upgrades the request and runs the connection's read
// pump until the client disconnects or sends a close frame.
func (s *Server) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("wsapi: upgrade error: %v", err)
		return
	}
	defer conn.Close()

	id := fmt.Sprintf("ws-%d", s.nextID.Add(1))
	transport := &connTransport{conn: conn}
	sess := session.New(id, transport, s.registry)
	defer sess.Disconnect()

	log.Printf("wsapi: %s connected", id)

	if file := r.URL.Query().Get("file"); file != "" {
		sess.HandleInbound([]byte(fmt.Sprintf(`{"type":"watch","filePath":%q}`, file)))
	}

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			log.Printf("wsapi: %s disconnected: %v", id, err)
			return
		}
		sess.HandleInbound(raw)
	}
}

// connTransport serializes writes to one *websocket.Conn: gorilla's
// connections support at most one concurrent writer, and a session's
// outbound events can arrive from several Per-File Stream goroutines
// at once.
type connTransport struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (t *connTransport) WriteJSON(v any) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.conn.WriteJSON(v)
}
