// Package match implements the Match Engine (C8): the two-player
// repeated prisoner's-dilemma state machine of spec.md §4.5 — round
// lifecycle, payoff-matrix scoring, the decision-reversal protocol, and
// forfeit/disconnect handling. Grounded on the teacher's OnlineMatch
// (internal/multiplayer/match.go): named, cancellable timer fields owned
// by the match record, a single authority sweeping them on a tick, and a
// terminal callback carrying the finished result — generalized from a
// per-match goroutine driving a continuous tick simulation to timer
// deadlines swept centrally by the dispatcher's own loop, since this
// server is request/response rather than a continuously simulated game.
package match

import (
	"time"

	"github.com/duellab/pdserver/internal/gameplay"
)

// State is a match's position in the lifecycle state machine.
type State string

const (
	StateWaitingForPlayers         State = "WAITING_FOR_PLAYERS"
	StateWaitingForDecisions       State = "WAITING_FOR_DECISIONS"
	StateShowingResults            State = "SHOWING_RESULTS"
	StateAwaitingReversalResponses State = "AWAITING_REVERSAL_RESPONSES"
	StateReversalSelection         State = "REVERSAL_SELECTION"
	StateCompleted                 State = "COMPLETED"
)

// Timer durations named per spec.md §4.5/§4.6.
const (
	RoundTimeout             = 30 * time.Second
	ResultsPause             = 3 * time.Second
	ReversalWindowRegular    = 60 * time.Second
	ReversalWindowTournament = 30 * time.Second
	ReconnectGraceRegular    = 30 * time.Second
	ReconnectGraceTournament = 5 * time.Minute
	PostMatchViewingPause    = 30 * time.Second

	DefaultMaxRounds = 10
	TiebreakerRounds = 3
)

// RoundRecord is the per-round decision/score bucket (spec.md §3 Match
// entity: "mapping round-index -> RoundDecisions").
type RoundRecord struct {
	P1Decision *gameplay.Decision
	P2Decision *gameplay.Decision
	P1Score    int
	P2Score    int
	Scored     bool
}

func (r *RoundRecord) ready() bool {
	return r.P1Decision != nil && r.P2Decision != nil
}

// Endpoint is one side of a match.
type Endpoint struct {
	ClientID       string
	Player         gameplay.Player
	Disconnected   bool
	DisconnectedAt time.Time
}

// Match is the live, volatile match-engine state for a single game.
type Match struct {
	ID  string
	P1  Endpoint
	P2  Endpoint

	CurrentRound int
	MaxRounds    int
	Rounds       map[int]*RoundRecord
	ScoreP1      int
	ScoreP2      int

	State State

	IsTournamentMatch  bool
	TournamentID       string
	TournamentMatchID  string
	TiebreakerEligible bool // true for single-elimination tournament matches
	IsTiebreaker       bool
	tiebreakerPlayed   bool

	ReversalP1 *bool
	ReversalP2 *bool
	CompleteP1 bool
	CompleteP2 bool

	ResultsSaved bool

	RoundDeadline        time.Time
	ResultsPauseDeadline time.Time
	ReversalDeadline     time.Time
	ViewingExpiresAt     time.Time

	CreatedAt time.Time
}

// New creates a match already in WAITING_FOR_DECISIONS for round 0, per
// spec.md §4.5: "A match begins in WAITING_FOR_DECISIONS for round 0."
func New(id string, p1ClientID string, p1 gameplay.Player, p2ClientID string, p2 gameplay.Player, maxRounds int) *Match {
	if maxRounds <= 0 {
		maxRounds = DefaultMaxRounds
	}
	m := &Match{
		ID:        id,
		P1:        Endpoint{ClientID: p1ClientID, Player: p1},
		P2:        Endpoint{ClientID: p2ClientID, Player: p2},
		MaxRounds: maxRounds,
		Rounds:    make(map[int]*RoundRecord),
		State:     StateWaitingForDecisions,
		CreatedAt: time.Now(),
	}
	m.armRoundTimeout()
	return m
}

func (m *Match) armRoundTimeout() {
	m.RoundDeadline = time.Now().Add(RoundTimeout)
}

func (m *Match) currentRoundRecord() *RoundRecord {
	r, ok := m.Rounds[m.CurrentRound]
	if !ok {
		r = &RoundRecord{}
		m.Rounds[m.CurrentRound] = r
	}
	return r
}

func (m *Match) clientFor(clientID string) (*Endpoint, *Endpoint, bool) {
	switch clientID {
	case m.P1.ClientID:
		return &m.P1, &m.P2, true
	case m.P2.ClientID:
		return &m.P2, &m.P1, true
	default:
		return nil, nil, false
	}
}

// reversalWindow returns the timeout governing the reversal protocol,
// shorter inside a tournament.
func (m *Match) reversalWindow() time.Duration {
	if m.IsTournamentMatch {
		return ReversalWindowTournament
	}
	return ReversalWindowRegular
}

func (m *Match) reconnectGrace() time.Duration {
	if m.IsTournamentMatch {
		return ReconnectGraceTournament
	}
	return ReconnectGraceRegular
}

// FinalScores returns the match scores keyed by client id. GAME_OVER
// does not use it; its score map is keyed "player1"/"player2".
func (m *Match) FinalScores() map[string]int {
	return map[string]int{
		m.P1.ClientID: m.ScoreP1,
		m.P2.ClientID: m.ScoreP2,
	}
}

// WinnerClientID returns the winning client id, or "" on a tie.
func (m *Match) WinnerClientID() string {
	switch {
	case m.ScoreP1 > m.ScoreP2:
		return m.P1.ClientID
	case m.ScoreP2 > m.ScoreP1:
		return m.P2.ClientID
	default:
		return ""
	}
}
