package tournament

import (
	"math/rand"
	"time"

	"github.com/duellab/pdserver/internal/wire"
)

// generateSingleElimRound0 shuffles the roster and pairs sequentially,
// setting aside a bye if the count is odd (spec.md §4.6). Valid sizes
// {4,8,16} are all powers of two so a bye never actually occurs at
// round 0; the fallback exists for robustness rather than the common
// case.
func (t *Tournament) generateSingleElimRound0() {
	order := append([]string(nil), t.Order...)
	rand.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
	t.buildEliminationRound(order, 0, BracketNone)
}

// buildEliminationRound pairs entrants sequentially, setting aside a
// trailing bye if the count is odd, and appends the resulting slots as
// a new round.
func (t *Tournament) buildEliminationRound(entrants []string, round int, bracket Bracket) {
	var byeID string
	if len(entrants)%2 == 1 {
		byeID = entrants[len(entrants)-1]
		entrants = entrants[:len(entrants)-1]
	}

	var ids []string
	for i := 0; i+1 < len(entrants); i += 2 {
		s := &MatchSlot{
			ID:      bracketSlotID(t.ID, round, bracket, i/2),
			Round:   round,
			Bracket: bracket,
			PlayerA: entrants[i],
			PlayerB: entrants[i+1],
		}
		t.Slots[s.ID] = s
		ids = append(ids, s.ID)
	}
	if byeID != "" {
		s := &MatchSlot{
			ID:        bracketSlotID(t.ID, round, bracket, len(ids)),
			Round:     round,
			Bracket:   bracket,
			PlayerA:   byeID,
			PlayerB:   byePlayerID,
			IsBye:     true,
			Completed: true,
			WinnerID:  byeID,
		}
		t.Slots[s.ID] = s
		ids = append(ids, s.ID)
	}

	for len(t.Rounds) <= round {
		t.Rounds = append(t.Rounds, nil)
	}
	t.Rounds[round] = append(t.Rounds[round], ids...)
}

// advanceSingleElim builds the next round from the current round's
// winners, or completes the tournament if one survivor remains.
func (t *Tournament) advanceSingleElim() (Outcome, error) {
	winners := t.roundWinners(t.CurrentRound)
	if len(winners) <= 1 {
		return t.completeElimination(winners), nil
	}

	t.CurrentRound++
	t.buildEliminationRound(winners, t.CurrentRound, BracketNone)

	out := Outcome{
		LobbyBroadcast: []wire.Outbound{wire.TournamentRoundStartedMsg{Round: t.CurrentRound}},
	}
	t.pending = &pendingRound{round: t.CurrentRound, fireAt: time.Now().Add(InterRoundPause)}
	return out, nil
}

func (t *Tournament) roundWinners(round int) []string {
	var winners []string
	for _, id := range t.Rounds[round] {
		winners = append(winners, t.Slots[id].WinnerID)
	}
	return winners
}

// completeElimination finalizes a single-elimination (or double-
// elimination grand final) tournament, ranking the champion first and
// the rest by descending wins.
func (t *Tournament) completeElimination(winners []string) Outcome {
	t.Status = StatusCompleted
	if len(winners) == 1 {
		t.WinnerID = winners[0]
	}
	t.Standings = t.rankByWinsThenPoints()
	return Outcome{
		LobbyBroadcast: []wire.Outbound{t.completedMsg()},
		Completed:      true,
	}
}
