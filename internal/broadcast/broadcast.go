// Package broadcast implements the Broadcaster (C10): resolving a
// recipient group (a single client, a match's two sides, a lobby's
// roster, or an arbitrary set of tournament-player-ids) against the
// connection registry and delivering through its send-tolerant-of-
// closed-channel primitive. Grounded on the teacher's
// SessionRegistry.Get + SessionHandle.Send pairing
// (internal/multiplayer/session.go), generalized from single-recipient
// lookups to group delivery.
package broadcast

import (
	"github.com/charmbracelet/log"

	"github.com/duellab/pdserver/internal/lobby"
	"github.com/duellab/pdserver/internal/session"
	"github.com/duellab/pdserver/internal/wire"
)

// Broadcaster delivers outbound messages by resolving recipients
// against the connection registry.
type Broadcaster struct {
	registry *session.Registry
	logger   *log.Logger
}

// New creates a Broadcaster over registry.
func New(registry *session.Registry, logger *log.Logger) *Broadcaster {
	return &Broadcaster{registry: registry, logger: logger}
}

// ToClient sends msg to a single connection by client id, silently
// dropping it if the client isn't currently connected (e.g. it
// disconnected between the engine decision and delivery).
func (b *Broadcaster) ToClient(clientID string, msg wire.Outbound) {
	conn, ok := b.registry.Get(clientID)
	if !ok {
		return
	}
	conn.Send(msg)
}

// ToAlias sends msg to whichever connection currently owns the
// tournament-player-id alias, resolving through both of the registry's
// maps per spec.md §9.
func (b *Broadcaster) ToAlias(playerID string, msg wire.Outbound) {
	conn, ok := b.registry.ResolveConnection(playerID)
	if !ok {
		return
	}
	conn.Send(msg)
}

// ToMatch delivers distinct per-perspective messages to a match's two
// client ids, e.g. the asymmetric ROUND_RESULT/SHOW_STATISTICS pairs
// the match engine produces.
func (b *Broadcaster) ToMatch(p1ClientID string, p1Msgs []wire.Outbound, p2ClientID string, p2Msgs []wire.Outbound) {
	for _, m := range p1Msgs {
		b.ToClient(p1ClientID, m)
	}
	for _, m := range p2Msgs {
		b.ToClient(p2ClientID, m)
	}
}

// ToLobby delivers msg to every current participant of l.
func (b *Broadcaster) ToLobby(l *lobby.Lobby, msg wire.Outbound) {
	for _, p := range l.Participants {
		b.ToClient(p.ClientID, msg)
	}
}

// ToClientIDs delivers msg to an explicit set of client ids.
func (b *Broadcaster) ToClientIDs(clientIDs []string, msg wire.Outbound) {
	for _, id := range clientIDs {
		b.ToClient(id, msg)
	}
}
