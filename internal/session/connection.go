// Package session implements the Connection Registry and Session Store
// (SPEC_FULL.md C2/C3): per-connection identity, the client-id <->
// tournament-player-id alias map, and per-connection soft session state.
package session

import (
	"sync"
	"time"

	"github.com/duellab/pdserver/internal/wire"
)

// Sender is the transport-neutral side of a connection. The registry and
// every downstream component (broadcaster, match engine, lobby manager)
// send through this interface rather than touching a socket directly,
// mirroring the teacher's SessionHandle/ChannelSession split.
type Sender interface {
	// ID returns the connection's client id.
	ID() string
	// Send delivers a frame asynchronously; it must never block and must
	// tolerate a closed/gone connection.
	Send(msg wire.Outbound)
	// Done closes when the underlying transport connection ends.
	Done() <-chan struct{}
}

// Connection is a live transport channel bound to a client id.
type Connection struct {
	ID                 string // connection id, equals ClientID today but kept distinct for clarity
	ClientID           string
	UserID             string
	Authenticated      bool
	LastActivity       time.Time
	TournamentPlayerID string // optional alias, set at REGISTER

	sender Sender
	mu     sync.RWMutex
}

func newConnection(clientID string, sender Sender) *Connection {
	return &Connection{
		ID:           clientID,
		ClientID:     clientID,
		LastActivity: time.Now(),
		sender:       sender,
	}
}

// Send forwards a message to the connection's transport.
func (c *Connection) Send(msg wire.Outbound) {
	c.sender.Send(msg)
}

// Done returns the transport's lifetime channel.
func (c *Connection) Done() <-chan struct{} {
	return c.sender.Done()
}

// Touch updates the last-activity timestamp.
func (c *Connection) Touch() {
	c.mu.Lock()
	c.LastActivity = time.Now()
	c.mu.Unlock()
}
