package match

import (
	"time"

	"github.com/duellab/pdserver/internal/gameplay"
	"github.com/duellab/pdserver/internal/wire"
)

// HandleDecision records clientID's GAME_DECISION for round, scoring the
// round once both sides have decided.
func (e *Engine) HandleDecision(matchID, clientID string, round int, decision gameplay.Decision) (Outcome, error) {
	return e.withLock(matchID, func(m *Match) (Outcome, error) {
		self, opp, ok := m.clientFor(clientID)
		if !ok {
			return Outcome{}, ErrNotParticipant
		}
		if m.State != StateWaitingForDecisions {
			return Outcome{}, ErrWrongPhase
		}
		if round != m.CurrentRound {
			return Outcome{}, ErrStaleRound
		}

		rr := m.currentRoundRecord()
		isP1 := self == &m.P1
		if isP1 {
			if rr.P1Decision != nil {
				return Outcome{}, ErrAlreadyDecided
			}
			d := decision
			rr.P1Decision = &d
		} else {
			if rr.P2Decision != nil {
				return Outcome{}, ErrAlreadyDecided
			}
			d := decision
			rr.P2Decision = &d
		}
		_ = opp

		if !rr.ready() {
			out := Outcome{}
			if isP1 {
				out.ToP1 = append(out.ToP1, wire.WaitingForOtherPlayerMsg{})
			} else {
				out.ToP2 = append(out.ToP2, wire.WaitingForOtherPlayerMsg{})
			}
			return out, nil
		}

		return e.scoreCurrentRoundLocked(m), nil
	})
}

// scoreCurrentRoundLocked runs the payoff matrix over the current
// round's two decisions, updates cumulative totals, and transitions the
// match into SHOWING_RESULTS.
func (e *Engine) scoreCurrentRoundLocked(m *Match) Outcome {
	rr := m.Rounds[m.CurrentRound]
	p1Score, p2Score := gameplay.Score(*rr.P1Decision, *rr.P2Decision)
	rr.P1Score, rr.P2Score = p1Score, p2Score
	rr.Scored = true

	m.ScoreP1 += p1Score
	m.ScoreP2 += p2Score

	m.State = StateShowingResults
	m.RoundDeadline = time.Time{}
	m.ResultsPauseDeadline = time.Now().Add(ResultsPause)

	return Outcome{
		ToP1: []wire.Outbound{wire.RoundResultMsg{
			Round:              m.CurrentRound,
			YourDecision:       *rr.P1Decision,
			OpponentDecision:   *rr.P2Decision,
			YourRoundScore:     rr.P1Score,
			OpponentRoundScore: rr.P2Score,
			YourTotal:          m.ScoreP1,
			OpponentTotal:      m.ScoreP2,
		}},
		ToP2: []wire.Outbound{wire.RoundResultMsg{
			Round:              m.CurrentRound,
			YourDecision:       *rr.P2Decision,
			OpponentDecision:   *rr.P1Decision,
			YourRoundScore:     rr.P2Score,
			OpponentRoundScore: rr.P1Score,
			YourTotal:          m.ScoreP2,
			OpponentTotal:      m.ScoreP1,
		}},
	}
}

// applyTimeout defaults any undecided side's round decision to
// COOPERATE, per spec.md §4.5's liveness rule, then scores the round.
func (e *Engine) applyTimeoutLocked(m *Match) Outcome {
	rr := m.currentRoundRecord()
	if rr.P1Decision == nil {
		d := gameplay.Cooperate
		rr.P1Decision = &d
	}
	if rr.P2Decision == nil {
		d := gameplay.Cooperate
		rr.P2Decision = &d
	}
	return e.scoreCurrentRoundLocked(m)
}

// advanceAfterResultsLocked runs once the SHOWING_RESULTS display delay
// elapses: either arms the next round or opens the reversal protocol.
func (e *Engine) advanceAfterResultsLocked(m *Match) Outcome {
	m.ResultsPauseDeadline = time.Time{}

	if m.CurrentRound+1 < m.MaxRounds {
		m.CurrentRound++
		m.State = StateWaitingForDecisions
		m.armRoundTimeout()
		return Outcome{
			ToP1: []wire.Outbound{wire.NewRoundMsg{Round: m.CurrentRound, TimerDuration: int(RoundTimeout.Seconds())}},
			ToP2: []wire.Outbound{wire.NewRoundMsg{Round: m.CurrentRound, TimerDuration: int(RoundTimeout.Seconds())}},
		}
	}

	m.State = StateAwaitingReversalResponses
	m.ReversalDeadline = time.Now().Add(m.reversalWindow())
	gameOver := wire.GameOverMsg{
		Winner:      winnerLabel(m),
		FinalScores: map[string]int{"player1": m.ScoreP1, "player2": m.ScoreP2},
		TotalRounds: m.MaxRounds,
	}
	return Outcome{
		ToP1: []wire.Outbound{gameOver},
		ToP2: []wire.Outbound{gameOver},
	}
}

func winnerLabel(m *Match) string {
	switch {
	case m.ScoreP1 > m.ScoreP2:
		return "player1"
	case m.ScoreP2 > m.ScoreP1:
		return "player2"
	default:
		return "tie"
	}
}
