// Package session implements the Client Session: it turns inbound
// control messages from one transport endpoint into registry calls,
// and turns delivered lines and notices back into outbound messages.
package session

import (
	"encoding/json"
	"fmt"
	"log"

	"github.com/riverbend/logtail/internal/registry"
)

// Transport is the minimal outward capability a session needs: the
// ability to push one JSON value to the remote client. internal/wsapi
// implements this over a *websocket.Conn; tests implement it in memory.
type Transport interface {
	WriteJSON(v any) error
}

// Session is one ClientSession: a transport handle plus whatever paths
// it is currently subscribed to. The subscription set itself lives in
// the registry, keyed by this session, not here.
type Session struct {
	id        string
	transport Transport
	registry  *registry.Registry
}

// New returns a Session bound to one transport connection. id is used
// only for logging.
func New(id string, transport Transport, reg *registry.Registry) *Session {
	return &Session{id: id, transport: transport, registry: reg}
}

type lineMessage struct {
	Type     string `json:"type"`
	Data     string `json:"data"`
	FilePath string `json:"filePath"`
}

type statusMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type errorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// DeliverLine sends one line event. It satisfies stream.Subscriber.
func (s *Session) DeliverLine(path, line string) error {
	return s.transport.WriteJSON(lineMessage{Type: "line", Data: line, FilePath: path})
}

// DeliverStatus sends one status notice. It satisfies stream.Subscriber.
func (s *Session) DeliverStatus(msg string) error {
	return s.transport.WriteJSON(statusMessage{Type: "status", Message: msg})
}

// DeliverError sends one error notice. It satisfies stream.Subscriber
// and carries the registry's attach-time error notices.
func (s *Session) DeliverError(msg string) error {
	return s.transport.WriteJSON(errorMessage{Type: "error", Message: msg})
}

type inboundMessage struct {
	Type     string `json:"type"`
	FilePath string `json:"filePath"`
}

// HandleInbound parses and dispatches one inbound control message.
// Unparseable or unrecognized messages are logged and dropped; they
// never terminate the session.
func (s *Session) HandleInbound(raw []byte) {
	var msg inboundMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		log.Printf("session %s: dropping malformed control message: %v", s.id, err)
		return
	}

	switch msg.Type {
	case "watch":
		if msg.FilePath == "" {
			log.Printf("session %s: watch message missing filePath", s.id)
			return
		}
		s.registry.Attach(s, msg.FilePath)
	case "unwatch":
		if msg.FilePath == "" {
			log.Printf("session %s: unwatch message missing filePath", s.id)
			return
		}
		s.registry.Detach(s, msg.FilePath)
	default:
		log.Printf("session %s: dropping unknown control message type %q", s.id, msg.Type)
	}
}

// Disconnect cascades a detach for every path this session watches and
// forgets it in the registry. Idempotent: calling it twice is safe.
func (s *Session) Disconnect() {
	s.registry.Disconnect(s)
}

// String supports %v in log lines without leaking the transport.
func (s *Session) String() string {
	return fmt.Sprintf("session(%s)", s.id)
}
