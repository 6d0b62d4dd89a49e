package match

import (
	"time"

	"github.com/duellab/pdserver/internal/wire"
)

// remainingRounds estimates rounds not yet played, for forfeit scoring.
func remainingRounds(m *Match) int {
	n := m.MaxRounds - m.CurrentRound
	if m.State == StateShowingResults || m.State == StateAwaitingReversalResponses ||
		m.State == StateReversalSelection || m.State == StateCompleted {
		n--
	}
	if n < 0 {
		return 0
	}
	return n
}

// applyForfeitLocked awards the non-forfeiting side 3 points per
// remaining round (spec.md §4.5) and finalizes the match immediately.
func (e *Engine) applyForfeitLocked(m *Match, forfeiterIsP1 bool) Outcome {
	bonus := remainingRounds(m) * 3
	if forfeiterIsP1 {
		m.ScoreP2 += bonus
	} else {
		m.ScoreP1 += bonus
	}

	m.State = StateCompleted
	m.RoundDeadline = time.Time{}
	m.ResultsPauseDeadline = time.Time{}
	m.ReversalDeadline = time.Time{}
	m.ViewingExpiresAt = time.Now().Add(PostMatchViewingPause)

	out := Outcome{}
	if forfeiterIsP1 {
		out.ToP2 = append(out.ToP2, wire.ShowStatisticsMsg{
			YourScore: m.ScoreP2, OpponentScore: m.ScoreP1, Won: true, Forfeit: true, Immediate: true,
		})
		out.ToP1 = append(out.ToP1, wire.ForfeitConfirmedMsg{})
	} else {
		out.ToP1 = append(out.ToP1, wire.ShowStatisticsMsg{
			YourScore: m.ScoreP1, OpponentScore: m.ScoreP2, Won: true, Forfeit: true, Immediate: true,
		})
		out.ToP2 = append(out.ToP2, wire.ForfeitConfirmedMsg{})
	}

	if !m.ResultsSaved {
		m.ResultsSaved = true
		coopP1, betrayP1, coopP2, betrayP2 := decisionCounts(m)
		out.Persist = &Result{
			MatchID:        m.ID,
			P1ClientID:     m.P1.ClientID,
			P2ClientID:     m.P2.ClientID,
			P1:             toPlayerRef(m.P1.Player),
			P2:             toPlayerRef(m.P2.Player),
			ScoreP1:        m.ScoreP1,
			ScoreP2:        m.ScoreP2,
			WinnerID:       m.WinnerClientID(),
			Rounds:         m.MaxRounds,
			Forfeit:        true,
			TournamentID:   m.TournamentID,
			CreatedAt:      m.CreatedAt,
			CompletedAt:    time.Now(),
			CooperationsP1: coopP1,
			BetrayalsP1:    betrayP1,
			CooperationsP2: coopP2,
			BetrayalsP2:    betrayP2,
		}
	}
	if m.IsTournamentMatch {
		out.TournamentSignal = &TournamentSignal{
			TournamentID:   m.TournamentID,
			MatchID:        m.TournamentMatchID,
			WinnerClientID: m.WinnerClientID(),
			ScoreP1:        m.ScoreP1,
			ScoreP2:        m.ScoreP2,
		}
	}
	return out
}

// HandleForfeit processes a voluntary FORFEIT_MATCH / TOURNAMENT_FORFEIT.
func (e *Engine) HandleForfeit(matchID, clientID string) (Outcome, error) {
	return e.withLock(matchID, func(m *Match) (Outcome, error) {
		self, _, ok := m.clientFor(clientID)
		if !ok {
			return Outcome{}, ErrNotParticipant
		}
		if m.State == StateCompleted {
			return Outcome{}, ErrWrongPhase
		}
		return e.applyForfeitLocked(m, self == &m.P1), nil
	})
}

// HandleDisconnect marks clientID's side disconnected and notifies the
// opponent, arming the reconnection grace window checked by Sweep.
func (e *Engine) HandleDisconnect(matchID, clientID string) (Outcome, error) {
	return e.withLock(matchID, func(m *Match) (Outcome, error) {
		self, _, ok := m.clientFor(clientID)
		if !ok {
			return Outcome{}, ErrNotParticipant
		}
		self.Disconnected = true
		self.DisconnectedAt = time.Now()

		out := Outcome{}
		isP1 := self == &m.P1
		if m.IsTournamentMatch {
			if isP1 {
				out.ToP2 = append(out.ToP2, wire.TournamentOpponentDisconnectedMsg{})
			} else {
				out.ToP1 = append(out.ToP1, wire.TournamentOpponentDisconnectedMsg{})
			}
			return out, nil
		}
		if isP1 {
			out.ToP2 = append(out.ToP2, wire.OpponentDisconnectedMsg{})
		} else {
			out.ToP1 = append(out.ToP1, wire.OpponentDisconnectedMsg{})
		}
		return out, nil
	})
}

// HandleReconnect rebinds a disconnected side to a new client id (the
// connection it reconnected on) and notifies both sides.
func (e *Engine) HandleReconnect(matchID, oldClientID, newClientID string) (Outcome, error) {
	return e.withLock(matchID, func(m *Match) (Outcome, error) {
		self, opp, ok := m.clientFor(oldClientID)
		if !ok {
			return Outcome{}, ErrNotParticipant
		}
		self.ClientID = newClientID
		self.Disconnected = false

		isP1 := self == &m.P1
		yourScore, oppScore := m.ScoreP1, m.ScoreP2
		if !isP1 {
			yourScore, oppScore = m.ScoreP2, m.ScoreP1
		}
		reconnected := wire.TournamentMatchReconnectedMsg{
			MatchID:  m.ID,
			Opponent: opp.Player,
			Round:    m.CurrentRound,
			Scores:   map[string]int{"you": yourScore, "opponent": oppScore},
			State:    string(m.State),
		}

		out := Outcome{}
		if isP1 {
			out.ToP1 = append(out.ToP1, reconnected)
			out.ToP2 = append(out.ToP2, wire.TournamentOpponentReconnectedMsg{})
		} else {
			out.ToP2 = append(out.ToP2, reconnected)
			out.ToP1 = append(out.ToP1, wire.TournamentOpponentReconnectedMsg{})
		}
		return out, nil
	})
}

// handleDisconnectTimeoutLocked forfeits whichever side's reconnection
// grace window expired. Both sides share one grace length, so when both
// are disconnected the side that dropped first is the one that expired.
func (e *Engine) handleDisconnectTimeoutLocked(m *Match) Outcome {
	p1Expired := m.P1.Disconnected && (!m.P2.Disconnected || !m.P1.DisconnectedAt.After(m.P2.DisconnectedAt))
	return e.applyForfeitLocked(m, p1Expired)
}
