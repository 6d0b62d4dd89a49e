// Package tournament implements the Tournament Engine (C9): bracket
// generation and progression for single-elimination, double-elimination,
// and round-robin party-lobby tournaments, per spec.md §4.6. Grounded on
// the teacher's map-of-entities-keyed-by-id discipline
// (internal/multiplayer/coordinator.go's lobbies/matches maps) —
// Tournament state lives in plain maps owned by one Engine, mutated only
// through Engine methods, mirroring how the dispatcher is meant to be
// the sole caller.
package tournament

import (
	"time"

	"github.com/duellab/pdserver/internal/gameplay"
)

// Format is a supported bracket format.
type Format string

const (
	FormatSingleElimination Format = "single_elimination"
	FormatDoubleElimination Format = "double_elimination"
	FormatRoundRobin        Format = "round_robin"
)

// Status is a tournament's lifecycle stage.
type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

// Bracket names a double-elimination slot's bracket.
type Bracket string

const (
	BracketWinners Bracket = "winners"
	BracketLosers  Bracket = "losers"
	BracketNone    Bracket = "" // single-elim / round-robin
	BracketFinal   Bracket = "final"
)

const byePlayerID = "__BYE__"

// Player is a tournament participant's running statistics, keyed by
// tournament-player-id (spec.md §9's stable alias, distinct from the
// connection's client id).
type Player struct {
	TournamentPlayerID string
	ClientID            string
	Player              gameplay.Player

	Wins        int
	Losses      int
	TotalPoints int
	Cooperations int
	Betrayals    int
	Eliminated   bool
}

// CooperationRate is the match-count-weighted running average of
// cooperations over cooperations+betrayals, per spec.md §4.6.
func (p *Player) CooperationRate() float64 {
	total := p.Cooperations + p.Betrayals
	if total == 0 {
		return 0
	}
	return float64(p.Cooperations) / float64(total)
}

// MatchSlot is a bracket slot: a scheduled or completed pairing. It is
// the lightweight bookkeeping entity distinct from the volatile
// match.Match engine state (spec.md §3's Match/TournamentMatch split).
type MatchSlot struct {
	ID        string
	Round     int
	Bracket   Bracket
	PlayerA   string // tournament-player-id, or byePlayerID
	PlayerB   string
	EngineMatchID string // set once match.Engine.Create runs for this slot
	WinnerID  string
	LoserID   string
	ScoreA    int
	ScoreB    int
	Completed bool
	IsBye     bool
}

// StandingEntry is one row of a final ranking.
type StandingEntry struct {
	TournamentPlayerID string
	Rank               int
	Wins               int
	Losses             int
	TotalPoints        int
}

// pendingRound holds the TOURNAMENT_MATCH_READY batch waiting on the
// 100ms phase-ordering delay after TOURNAMENT_STARTED/TOURNAMENT_ROUND_STARTED.
type pendingRound struct {
	round  int
	fireAt time.Time
}

// Tournament is one live bracket run, owned by a lobby.
type Tournament struct {
	ID        string
	LobbyCode string
	Format    Format
	MaxRounds int // per-match round count, from lobby settings

	Players map[string]*Player // tournamentPlayerID -> Player
	Order   []string           // original seed order

	Slots map[string]*MatchSlot

	CurrentRound int
	Rounds       [][]string // round index -> slot ids

	Status    Status
	WinnerID  string
	Standings []StandingEntry

	// double-elimination bookkeeping. winnersPool/losersPool are the
	// players still alive in each bracket, merged and re-paired each
	// round; grandFinalPlayed guards the single winners-vs-losers-
	// champion decider.
	totalRoundsDE    int
	winnersPool      []string
	losersPool       []string
	grandFinalPlayed bool

	// inter-round pacing
	pending          *pendingRound
	nextRoundDeadline time.Time // 10s inter-round pause before building the next round

	CreatedAt time.Time
}
