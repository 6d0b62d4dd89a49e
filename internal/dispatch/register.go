package dispatch

import "github.com/duellab/pdserver/internal/wire"

// handleRegister resolves a connection's identity. A sessionToken that
// isn't guest-prefixed is treated as already authenticated (the actual
// auth-service lookup is out of scope, per spec.md); a guest or missing
// token is accepted without one. If the token was last seen bound to a
// different (now-stale) client id that still has a live match, that
// match is rebound to this connection and both sides are notified —
// this is how a reconnecting tab or a new socket after a dropped
// connection resumes a tournament match in progress.
func (l *Loop) handleRegister(clientID string, env wire.Envelope) {
	var msg wire.RegisterMsg
	if !l.decode(clientID, env, &msg) {
		return
	}

	l.sessions.Upsert(clientID)
	authenticated := msg.SessionToken != "" && !isGuestToken(msg.SessionToken)

	if msg.SessionToken != "" {
		if priorClientID, ok := l.tokenToClient[msg.SessionToken]; ok && priorClientID != clientID {
			l.rebindReconnection(priorClientID, clientID)
		}
		l.tokenToClient[msg.SessionToken] = clientID
	}

	if msg.PlayerID != "" {
		l.registry.SetAlias(clientID, msg.PlayerID)
	}

	l.cast.ToClient(clientID, wire.RegisteredMsg{
		ClientID:      clientID,
		Authenticated: authenticated,
		UserID:        msg.SessionToken,
	})
}

// rebindReconnection looks for a live match (regular or tournament)
// naming oldClientID that hasn't finished, rebinds it to newClientID,
// and forwards the resulting TOURNAMENT_MATCH_RECONNECTED/
// TOURNAMENT_OPPONENT_RECONNECTED messages, which are sent for either
// kind of match.
func (l *Loop) rebindReconnection(oldClientID, newClientID string) {
	m, ok := l.matches.FindByParticipant(oldClientID)
	if !ok || m.State == "COMPLETED" {
		return
	}
	out, err := l.matches.HandleReconnect(m.ID, oldClientID, newClientID)
	if err != nil {
		return
	}
	l.applyMatchOutcome(m.ID, out)
}
