package tournament

import (
	"time"

	"github.com/duellab/pdserver/internal/wire"
)

// generateRoundRobinSchedule schedules every round up front via the
// circle method: one entrant held fixed, the rest rotate one position
// each round. An odd roster gets a BYE placeholder so the rotation
// stays even; matches involving it are skipped (spec.md §4.6).
func (t *Tournament) generateRoundRobinSchedule() {
	arr := append([]string(nil), t.Order...)
	if len(arr)%2 == 1 {
		arr = append(arr, byePlayerID)
	}
	n := len(arr)
	rounds := n - 1

	for r := 0; r < rounds; r++ {
		var ids []string
		for i := 0; i < n/2; i++ {
			a, b := arr[i], arr[n-1-i]
			s := &MatchSlot{ID: slotID(t.ID, r, i), Round: r, PlayerA: a, PlayerB: b}
			if a == byePlayerID || b == byePlayerID {
				s.IsBye = true
				s.Completed = true
				if a == byePlayerID {
					s.WinnerID = b
				} else {
					s.WinnerID = a
				}
			}
			t.Slots[s.ID] = s
			ids = append(ids, s.ID)
		}
		t.Rounds = append(t.Rounds, ids)

		// Rotate: arr[0] stays fixed, the rest shift by one.
		last := arr[n-1]
		for i := n - 1; i > 1; i-- {
			arr[i] = arr[i-1]
		}
		arr[1] = last
	}
}

// advanceRoundRobin moves to the next pre-generated round, or completes
// the tournament once every round has been played, ranking by
// (wins desc, totalScore desc) with no tiebreaker match.
func (t *Tournament) advanceRoundRobin() (Outcome, error) {
	if t.CurrentRound+1 < len(t.Rounds) {
		t.CurrentRound++
		out := Outcome{LobbyBroadcast: []wire.Outbound{wire.TournamentRoundStartedMsg{Round: t.CurrentRound}}}
		t.pending = &pendingRound{round: t.CurrentRound, fireAt: time.Now().Add(InterRoundPause)}
		return out, nil
	}

	t.Status = StatusCompleted
	t.Standings = t.rankByWinsThenPoints()
	if len(t.Standings) > 0 {
		t.WinnerID = t.Standings[0].TournamentPlayerID
	}
	return Outcome{
		LobbyBroadcast: []wire.Outbound{t.completedMsg()},
		Completed:      true,
	}, nil
}
