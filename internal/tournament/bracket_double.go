package tournament

import (
	"math/bits"
	"math/rand"
	"time"

	"github.com/duellab/pdserver/internal/wire"
)

// generateDoubleElimRound0 seeds the winners bracket from a shuffled
// roster; the losers bracket starts empty. Implements the Open
// Question resolution in SPEC_FULL.md: standard two-bracket design,
// elimination on a second loss, winners-vs-losers-champion grand final
// with no bracket reset. The exact losers-bracket seeding is simplified
// to sequential re-pairing of survivors plus new arrivals each round
// (bye-tolerant, via the same buildEliminationRound used by single
// elimination) rather than a classically seeded losers ladder — the
// elimination/grand-final invariants the spec actually pins down are
// preserved regardless of seeding order.
func (t *Tournament) generateDoubleElimRound0() {
	order := append([]string(nil), t.Order...)
	rand.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
	t.winnersPool = order
	t.losersPool = nil
	t.totalRoundsDE = 2 * ceilLog2(len(order))

	t.buildEliminationRound(t.winnersPool, 0, BracketWinners)
}

func ceilLog2(n int) int {
	if n <= 1 {
		return 0
	}
	return bits.Len(uint(n - 1))
}

// advanceDoubleElim processes a completed round: winners-bracket
// matches keep their winner in the winners pool and drop their loser
// into the losers pool; losers-bracket matches eliminate their loser
// outright (second loss). It then builds the next round, or the grand
// final once both pools have a single survivor, or completes the
// tournament once the grand final resolves.
func (t *Tournament) advanceDoubleElim() (Outcome, error) {
	if t.grandFinalPlayed {
		finalSlot := t.Slots[t.Rounds[t.CurrentRound][0]]
		return t.completeElimination([]string{finalSlot.WinnerID}), nil
	}

	var newWinnersPool, arrivals, lbSurvivors []string
	for _, id := range t.Rounds[t.CurrentRound] {
		slot := t.Slots[id]
		switch slot.Bracket {
		case BracketWinners:
			newWinnersPool = append(newWinnersPool, slot.WinnerID)
			if !slot.IsBye {
				arrivals = append(arrivals, slot.LoserID)
			}
		case BracketLosers:
			lbSurvivors = append(lbSurvivors, slot.WinnerID)
			if !slot.IsBye {
				if p, ok := t.Players[slot.LoserID]; ok {
					p.Eliminated = true
				}
			}
		}
	}
	t.winnersPool = newWinnersPool
	t.losersPool = append(lbSurvivors, arrivals...)

	if len(t.winnersPool) <= 1 && len(t.losersPool) <= 1 {
		return t.scheduleGrandFinal(), nil
	}

	t.CurrentRound++
	if len(t.winnersPool) > 1 {
		t.buildEliminationRound(t.winnersPool, t.CurrentRound, BracketWinners)
	}
	if len(t.losersPool) > 1 {
		t.buildEliminationRound(t.losersPool, t.CurrentRound, BracketLosers)
	}

	out := Outcome{LobbyBroadcast: []wire.Outbound{wire.TournamentRoundStartedMsg{Round: t.CurrentRound}}}
	t.pending = &pendingRound{round: t.CurrentRound, fireAt: time.Now().Add(InterRoundPause)}
	return out, nil
}

func (t *Tournament) scheduleGrandFinal() Outcome {
	if len(t.winnersPool) == 0 || len(t.losersPool) == 0 {
		// Degenerate tiny bracket: whichever pool still has a survivor wins outright.
		winners := append(append([]string(nil), t.winnersPool...), t.losersPool...)
		return t.completeElimination(winners)
	}

	t.CurrentRound++
	s := &MatchSlot{
		ID:      slotID(t.ID, t.CurrentRound, 0),
		Round:   t.CurrentRound,
		Bracket: BracketFinal,
		PlayerA: t.winnersPool[0],
		PlayerB: t.losersPool[0],
	}
	t.Slots[s.ID] = s
	t.Rounds = append(t.Rounds, []string{s.ID})
	t.grandFinalPlayed = true

	out := Outcome{LobbyBroadcast: []wire.Outbound{wire.TournamentRoundStartedMsg{Round: t.CurrentRound}}}
	t.pending = &pendingRound{round: t.CurrentRound, fireAt: time.Now().Add(InterRoundPause)}
	return out
}
