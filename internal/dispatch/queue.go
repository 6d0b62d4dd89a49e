package dispatch

import (
	"github.com/duellab/pdserver/internal/gameplay"
	"github.com/duellab/pdserver/internal/match"
	"github.com/duellab/pdserver/internal/matchmaking"
	"github.com/duellab/pdserver/internal/wire"
)

// createMatch instantiates a new regular (non-tournament) match,
// remembers source for the persistence bridge's gameMode label, and
// notifies both sides with their own MATCH_FOUND perspective.
func (l *Loop) createMatch(p1ClientID string, p1 gameplay.Player, p2ClientID string, p2 gameplay.Player, opts match.CreateOptions, source string) *match.Match {
	id := newID()
	m := l.matches.Create(id, p1ClientID, p1, p2ClientID, p2, opts)
	l.matchSource[id] = source
	l.cast.ToClient(p1ClientID, wire.MatchFoundMsg{MatchID: id, Opponent: p2, IsPlayer1: true})
	l.cast.ToClient(p2ClientID, wire.MatchFoundMsg{MatchID: id, Opponent: p1, IsPlayer1: false})
	return m
}

func (l *Loop) handleJoinQueue(clientID string, env wire.Envelope) {
	var msg wire.JoinQueueMsg
	if !l.decode(clientID, env, &msg) {
		return
	}
	if _, inLobby := l.lobbies.FindByParticipant(clientID); inLobby {
		l.cast.ToClient(clientID, wire.NewError(wire.ErrQueueConflict, ""))
		return
	}

	prefs := matchmaking.Preferences{
		TrustScoreMin: msg.Preferences.TrustScoreMin,
		TrustScoreMax: msg.Preferences.TrustScoreMax,
	}
	l.queue.Join(clientID, msg.Player.ToPlayer(), prefs)
	l.pairQueueOnce()

	if pos, size, ok := l.queue.Position(clientID); ok {
		l.cast.ToClient(clientID, wire.QueueStatusMsg{Position: pos, QueueSize: size})
	}
}

func (l *Loop) handleLeaveQueue(clientID string) {
	if !l.queue.Leave(clientID) {
		l.cast.ToClient(clientID, wire.NewError(wire.ErrNotInQueue, ""))
	}
}

// pairQueueOnce attempts a single FIFO pairing pass; the periodic Tick
// drives the rest so entries still waiting get matched without a
// further JOIN_QUEUE from anyone.
func (l *Loop) pairQueueOnce() {
	pairing, ok := l.queue.Pair()
	if !ok {
		return
	}
	l.createMatch(pairing.Left.ClientID, pairing.Left.Player, pairing.Right.ClientID, pairing.Right.Player, match.CreateOptions{}, "queue")
}

func (l *Loop) handleCreatePrivateGame(clientID string, env wire.Envelope) {
	var msg wire.CreatePrivateGameMsg
	if !l.decode(clientID, env, &msg) {
		return
	}
	if _, err := l.rooms.Create(msg.GameCode, clientID, msg.Player.ToPlayer()); err != nil {
		l.cast.ToClient(clientID, wire.NewError(wire.ErrInvalidRequest, "That game code is already in use."))
	}
}

func (l *Loop) handleJoinPrivateGame(clientID string, env wire.Envelope) {
	var msg wire.JoinPrivateGameMsg
	if !l.decode(clientID, env, &msg) {
		return
	}
	room, ok := l.rooms.Join(msg.GameCode, clientID, msg.Player.ToPlayer())
	if !ok {
		l.cast.ToClient(clientID, wire.NewError(wire.ErrLobbyNotFound, "That game code doesn't exist."))
		return
	}
	l.rooms.Remove(room.Code)
	l.createMatch(room.HostClientID, room.Host, room.GuestClientID, *room.Guest, match.CreateOptions{}, "private")
}
