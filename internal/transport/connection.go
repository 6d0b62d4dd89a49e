package transport

import (
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/duellab/pdserver/internal/wire"
)

const outboundBufferSize = 64

// wsConnection adapts a gorilla/websocket.Conn to session.Sender. Its
// Send/writePump pairing is the teacher's ChannelSession.Send drop-oldest
// policy (internal/multiplayer/session.go), generalized from an
// in-process event channel to bytes destined for a real socket.
type wsConnection struct {
	clientID string
	conn     *websocket.Conn
	logger   *log.Logger

	writeWait time.Duration
	pongWait  time.Duration

	outbound chan []byte
	done     chan struct{}
	doneOnce sync.Once
}

func newWsConnection(clientID string, conn *websocket.Conn, writeWait, pongWait time.Duration, logger *log.Logger) *wsConnection {
	return &wsConnection{
		clientID:  clientID,
		conn:      conn,
		logger:    logger,
		writeWait: writeWait,
		pongWait:  pongWait,
		outbound:  make(chan []byte, outboundBufferSize),
		done:      make(chan struct{}),
	}
}

// ID implements session.Sender.
func (c *wsConnection) ID() string { return c.clientID }

// Done implements session.Sender.
func (c *wsConnection) Done() <-chan struct{} { return c.done }

// Send implements session.Sender. It never blocks: a full outbound
// buffer drops its oldest queued frame to make room for the newest one.
func (c *wsConnection) Send(msg wire.Outbound) {
	frame, err := wire.Frame(msg)
	if err != nil {
		c.logger.Error("failed to encode outbound frame", "type", msg.WireType(), "error", err)
		return
	}

	select {
	case <-c.done:
		return
	default:
	}

	select {
	case c.outbound <- frame:
		return
	default:
	}

	select {
	case <-c.outbound:
	default:
	}
	select {
	case c.outbound <- frame:
	default:
	}
}

// Close tears the connection down, safe to call more than once.
func (c *wsConnection) Close() {
	c.doneOnce.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
}

func (c *wsConnection) writePump() {
	ticker := time.NewTicker(c.pongWait * 9 / 10)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case <-c.done:
			return
		case frame := <-c.outbound:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
