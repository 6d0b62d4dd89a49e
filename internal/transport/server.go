// Package transport implements the Transport Adapter (C1): it accepts
// bidirectional WebSocket connections, frames JSON messages (≤ 64 KiB),
// and forwards decoded envelopes to the dispatcher. Grounded on the
// gorilla/websocket upgrader + read-pump/write-pump shape used
// throughout the retrieval pack's other game-server reference files
// (e.g. jonradoff-chessmata's and lab1702-netrek-web's websocket
// handlers), since the teacher itself ships no raw JSON transport.
package transport

import (
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/duellab/pdserver/internal/session"
	"github.com/duellab/pdserver/internal/wire"
)

// Dispatcher is the inbound side the transport adapter talks to. It is
// satisfied by internal/dispatch.Loop.
type Dispatcher interface {
	Connected(clientID string, sender session.Sender)
	Message(clientID string, env wire.Envelope)
	Disconnected(clientID string)
}

// Server is the WebSocket transport adapter.
type Server struct {
	dispatcher Dispatcher
	logger     *log.Logger
	upgrader   websocket.Upgrader

	writeWait time.Duration
	pongWait  time.Duration
}

// Config controls the transport adapter's timeouts.
type Config struct {
	WriteWait time.Duration
	PongWait  time.Duration
}

// DefaultConfig returns sensible websocket keep-alive timeouts.
func DefaultConfig() Config {
	return Config{
		WriteWait: 10 * time.Second,
		PongWait:  60 * time.Second,
	}
}

// NewServer creates a transport adapter that forwards decoded messages
// to dispatcher.
func NewServer(dispatcher Dispatcher, logger *log.Logger, cfg Config) *Server {
	return &Server{
		dispatcher: dispatcher,
		logger:     logger,
		writeWait:  cfg.WriteWait,
		pongWait:   cfg.PongWait,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// ServeHTTP upgrades an HTTP request to a WebSocket connection and runs
// its read/write pumps until the connection closes.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err, "remote", r.RemoteAddr)
		return
	}

	clientID := uuid.NewString()
	wsConn := newWsConnection(clientID, conn, s.writeWait, s.pongWait, s.logger)

	s.dispatcher.Connected(clientID, wsConn)
	go wsConn.writePump()
	s.readPump(wsConn)
}

func (s *Server) readPump(c *wsConnection) {
	defer func() {
		c.Close()
		s.dispatcher.Disconnected(c.clientID)
	}()

	c.conn.SetReadLimit(wire.MaxFrameBytes)
	_ = c.conn.SetReadDeadline(time.Now().Add(c.pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		env, err := wire.DecodeEnvelope(raw)
		if err != nil {
			c.Send(wire.NewError(wire.ErrInvalidRequest, "malformed message"))
			continue
		}
		s.dispatcher.Message(c.clientID, env)
	}
}
