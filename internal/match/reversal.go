package match

import (
	"crypto/rand"
	"time"

	"github.com/duellab/pdserver/internal/gameplay"
	"github.com/duellab/pdserver/internal/wire"
)

// HandleReversalResponse records clientID's DECISION_REVERSAL_RESPONSE.
// A decline (from either side) or timeout (handled by Sweep) resolves
// the match immediately; an accept only resolves once both sides have
// accepted. A response after both sides already responded is ignored,
// per spec.md §4.5: "Duplicate RESPONSE messages after both sides
// responded are ignored."
func (e *Engine) HandleReversalResponse(matchID, clientID string, accept bool) (Outcome, error) {
	return e.withLock(matchID, func(m *Match) (Outcome, error) {
		self, _, ok := m.clientFor(clientID)
		if !ok {
			return Outcome{}, ErrNotParticipant
		}
		if m.ReversalP1 != nil && m.ReversalP2 != nil {
			return Outcome{}, nil
		}
		if m.State != StateAwaitingReversalResponses {
			return Outcome{}, ErrWrongPhase
		}

		isP1 := self == &m.P1
		alreadyResponded := (isP1 && m.ReversalP1 != nil) || (!isP1 && m.ReversalP2 != nil)
		if alreadyResponded {
			return Outcome{}, nil
		}
		v := accept
		if isP1 {
			m.ReversalP1 = &v
		} else {
			m.ReversalP2 = &v
		}

		if !accept {
			return e.finalizeLocked(m), nil
		}
		if m.ReversalP1 != nil && m.ReversalP2 != nil && *m.ReversalP1 && *m.ReversalP2 {
			m.State = StateReversalSelection
			m.ReversalDeadline = time.Time{}
			return Outcome{
				ToP1: []wire.Outbound{wire.ReversalApprovedMsg{}},
				ToP2: []wire.Outbound{wire.ReversalApprovedMsg{}},
			}, nil
		}
		return Outcome{}, nil
	})
}

// HandleDecisionChange mutates a past round's decision during
// REVERSAL_SELECTION and runs a full recomputation of every round's
// score and the match totals, per spec.md §4.5 ("not incremental
// delta"). The change is acknowledged only to the sender.
func (e *Engine) HandleDecisionChange(matchID, clientID string, round int, newDecision gameplay.Decision) (Outcome, error) {
	return e.withLock(matchID, func(m *Match) (Outcome, error) {
		self, _, ok := m.clientFor(clientID)
		if !ok {
			return Outcome{}, ErrNotParticipant
		}
		if m.State != StateReversalSelection {
			return Outcome{}, ErrWrongPhase
		}
		rr, ok := m.Rounds[round]
		if !ok {
			return Outcome{}, ErrStaleRound
		}

		isP1 := self == &m.P1
		d := newDecision
		if isP1 {
			rr.P1Decision = &d
		} else {
			rr.P2Decision = &d
		}

		e.recomputeAllLocked(m)
		rr = m.Rounds[round]

		if isP1 {
			return Outcome{ToP1: []wire.Outbound{wire.RoundResultMsg{
				Round:              round,
				YourDecision:       *rr.P1Decision,
				OpponentDecision:   *rr.P2Decision,
				YourRoundScore:     rr.P1Score,
				OpponentRoundScore: rr.P2Score,
				YourTotal:          m.ScoreP1,
				OpponentTotal:      m.ScoreP2,
			}}}, nil
		}
		return Outcome{ToP2: []wire.Outbound{wire.RoundResultMsg{
			Round:              round,
			YourDecision:       *rr.P2Decision,
			OpponentDecision:   *rr.P1Decision,
			YourRoundScore:     rr.P2Score,
			OpponentRoundScore: rr.P1Score,
			YourTotal:          m.ScoreP2,
			OpponentTotal:      m.ScoreP1,
		}}}, nil
	})
}

// recomputeAllLocked re-scores every round from its stored decisions and
// rebuilds the cumulative totals from scratch.
func (e *Engine) recomputeAllLocked(m *Match) {
	m.ScoreP1, m.ScoreP2 = 0, 0
	for i := 0; i < m.MaxRounds; i++ {
		rr, ok := m.Rounds[i]
		if !ok || !rr.ready() {
			continue
		}
		p1, p2 := gameplay.Score(*rr.P1Decision, *rr.P2Decision)
		rr.P1Score, rr.P2Score = p1, p2
		m.ScoreP1 += p1
		m.ScoreP2 += p2
	}
}

// HandleDecisionChangesComplete records clientID's
// DECISION_CHANGES_COMPLETE signal. Once both sides have signalled,
// FINAL_SCORES_UPDATE is emitted and the match finalizes (statistics,
// persistence, tournament advancement).
func (e *Engine) HandleDecisionChangesComplete(matchID, clientID string) (Outcome, error) {
	return e.withLock(matchID, func(m *Match) (Outcome, error) {
		self, _, ok := m.clientFor(clientID)
		if !ok {
			return Outcome{}, ErrNotParticipant
		}
		if m.State != StateReversalSelection {
			return Outcome{}, ErrWrongPhase
		}
		if self == &m.P1 {
			m.CompleteP1 = true
		} else {
			m.CompleteP2 = true
		}
		if !(m.CompleteP1 && m.CompleteP2) {
			return Outcome{}, nil
		}

		out := Outcome{
			ToP1: []wire.Outbound{wire.FinalScoresUpdateMsg{YourScore: m.ScoreP1, OpponentScore: m.ScoreP2}},
			ToP2: []wire.Outbound{wire.FinalScoresUpdateMsg{YourScore: m.ScoreP2, OpponentScore: m.ScoreP1}},
		}
		merge(&out, e.finalizeLocked(m))
		return out, nil
	})
}

// finalizeLocked is the single terminal path for a non-forfeit match
// ending, reached whether the reversal protocol was declined, timed
// out, or ran to DECISION_CHANGES_COMPLETE on both sides. It applies the
// single-elimination tiebreaker rule (spec.md §4.5: "Tie at terminal
// single-elimination match... after optional reversal"), emits
// SHOW_STATISTICS, and queues persistence/tournament advancement.
func (e *Engine) finalizeLocked(m *Match) Outcome {
	if m.ScoreP1 == m.ScoreP2 && m.TiebreakerEligible && !m.tiebreakerPlayed {
		return e.startTiebreakerLocked(m)
	}
	if m.ScoreP1 == m.ScoreP2 && m.IsTiebreaker {
		if randBool() {
			m.ScoreP1++
		} else {
			m.ScoreP2++
		}
	}

	m.State = StateCompleted
	m.ReversalDeadline = time.Time{}
	m.ViewingExpiresAt = time.Now().Add(PostMatchViewingPause)

	out := Outcome{
		ToP1: []wire.Outbound{wire.ShowStatisticsMsg{
			YourScore: m.ScoreP1, OpponentScore: m.ScoreP2,
			Won: m.ScoreP1 > m.ScoreP2, Tied: m.ScoreP1 == m.ScoreP2,
		}},
		ToP2: []wire.Outbound{wire.ShowStatisticsMsg{
			YourScore: m.ScoreP2, OpponentScore: m.ScoreP1,
			Won: m.ScoreP2 > m.ScoreP1, Tied: m.ScoreP1 == m.ScoreP2,
		}},
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

// startTiebreakerLocked resets the match for a single best-of-3
// tiebreaker block, played once.
func (e *Engine) startTiebreakerLocked(m *Match) Outcome {
	m.tiebreakerPlayed = true
	m.IsTiebreaker = true
	m.ScoreP1, m.ScoreP2 = 0, 0
	m.CurrentRound = 0
	m.MaxRounds = TiebreakerRounds
	m.Rounds = make(map[int]*RoundRecord)
	m.State = StateWaitingForDecisions
	m.armRoundTimeout()

	msg := wire.NewRoundMsg{Round: 0, TimerDuration: int(RoundTimeout.Seconds()), Tiebreaker: true}
	return Outcome{ToP1: []wire.Outbound{msg}, ToP2: []wire.Outbound{msg}}
}

// randBool picks a uniformly random winner for a still-tied tiebreaker.
func randBool() bool {
	var b [1]byte
	if _, err := rand.Read(b[:]); err != nil {
		return true
	}
	return b[0]&1 == 0
}
