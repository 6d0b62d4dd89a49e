package match

import (
	"time"

	"github.com/duellab/pdserver/internal/gameplay"
	"github.com/duellab/pdserver/internal/wire"
)

// Outcome is what the dispatcher must do after a match-engine
// operation: messages to deliver to each side, and optional signals
// for components the match engine itself never calls directly
// (persistence, tournament advancement).
type Outcome struct {
	ToP1 []wire.Outbound
	ToP2 []wire.Outbound

	// Persist is set once, when the match's scores should be written to
	// history (after the reversal protocol resolves, per spec.md §4.5's
	// "persistence is deliberately deferred" rule).
	Persist *Result

	// TournamentSignal is set when a tournament match has reached a
	// terminal outcome the tournament engine must react to.
	TournamentSignal *TournamentSignal

	// Removed is true once the match record should be deleted from the
	// engine (post-viewing-pause expiry).
	Removed bool
}

// Result is the persistence-ready summary of a finished match.
type Result struct {
	MatchID      string
	P1ClientID   string
	P2ClientID   string
	P1           wire.PlayerRef
	P2           wire.PlayerRef
	ScoreP1      int
	ScoreP2      int
	WinnerID     string // client id, or "" for a tie
	Rounds       int
	Forfeit      bool
	TournamentID string
	CreatedAt    time.Time
	CompletedAt  time.Time

	CooperationsP1 int
	BetrayalsP1    int
	CooperationsP2 int
	BetrayalsP2    int
}

// decisionCounts tallies how often each side cooperated or betrayed
// across every recorded decision (scored round or not), for the stats the persistence bridge
// maintains per user.
func decisionCounts(m *Match) (coopP1, betrayP1, coopP2, betrayP2 int) {
	for _, rr := range m.Rounds {
		if rr.P1Decision != nil {
			if *rr.P1Decision == gameplay.Cooperate {
				coopP1++
			} else {
				betrayP1++
			}
		}
		if rr.P2Decision != nil {
			if *rr.P2Decision == gameplay.Cooperate {
				coopP2++
			} else {
				betrayP2++
			}
		}
	}
	return
}

// TournamentSignal notifies the tournament engine that a tournament
// match slot has a result.
type TournamentSignal struct {
	TournamentID   string
	MatchID        string
	WinnerClientID string // resolved to a tournament-player-id by the dispatcher's alias map
	ScoreP1        int
	ScoreP2        int
}

func toPlayerRef(p gameplay.Player) wire.PlayerRef {
	return wire.PlayerRef{
		ID:          p.ID,
		DisplayName: p.DisplayName,
		IsAI:        p.IsAI,
		TrustScore:  p.TrustScore,
		GamesPlayed: p.GamesPlayed,
	}
}

func merge(dst *Outcome, src Outcome) {
	dst.ToP1 = append(dst.ToP1, src.ToP1...)
	dst.ToP2 = append(dst.ToP2, src.ToP2...)
	if src.Persist != nil {
		dst.Persist = src.Persist
	}
	if src.TournamentSignal != nil {
		dst.TournamentSignal = src.TournamentSignal
	}
	if src.Removed {
		dst.Removed = true
	}
}
