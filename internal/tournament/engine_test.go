package tournament

import (
	"fmt"
	"testing"

	"github.com/duellab/pdserver/internal/gameplay"
)

func makeParticipants(n int) []Participant {
	out := make([]Participant, n)
	for i := 0; i < n; i++ {
		id := string(rune('A' + i))
		out[i] = Participant{
			TournamentPlayerID: id,
			ClientID:           "client-" + id,
			Player:             gameplay.Player{ID: id, DisplayName: id},
		}
	}
	return out
}

func TestStartRejectsInvalidSingleEliminationSize(t *testing.T) {
	e := NewEngine()
	_, _, err := e.Start("t1", "ABCD", FormatSingleElimination, 5, makeParticipants(5))
	if err != ErrInvalidSize {
		t.Fatalf("Start with 5 players (single-elim) = %v, want ErrInvalidSize", err)
	}
}

func TestStartAcceptsPowersOfTwoForElimination(t *testing.T) {
	e := NewEngine()
	for _, n := range []int{4, 8, 16} {
		if _, _, err := e.Start(fmt.Sprintf("t-%d", n), "ABCD", FormatSingleElimination, 10, makeParticipants(n)); err != nil {
			t.Errorf("Start with %d players (single-elim) = %v, want nil", n, err)
		}
	}
}

func TestStartRejectsRoundRobinOutOfRange(t *testing.T) {
	e := NewEngine()
	if _, _, err := e.Start("t1", "ABCD", FormatRoundRobin, 5, makeParticipants(3)); err != ErrInvalidSize {
		t.Errorf("round-robin with 3 players = %v, want ErrInvalidSize", err)
	}
	if _, _, err := e.Start("t2", "ABCD", FormatRoundRobin, 5, makeParticipants(17)); err != ErrInvalidSize {
		t.Errorf("round-robin with 17 players = %v, want ErrInvalidSize", err)
	}
}

func TestRoundRobinScheduleEveryPairPlaysOnce(t *testing.T) {
	e := NewEngine()
	tour, _, err := e.Start("t1", "ABCD", FormatRoundRobin, 5, makeParticipants(4))
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if len(tour.Rounds) != 3 {
		t.Fatalf("round-robin with 4 players scheduled %d rounds, want 3 (n-1)", len(tour.Rounds))
	}

	seen := make(map[[2]string]int)
	for _, round := range tour.Rounds {
		for _, id := range round {
			s := tour.Slots[id]
			pair := [2]string{s.PlayerA, s.PlayerB}
			if pair[0] > pair[1] {
				pair[0], pair[1] = pair[1], pair[0]
			}
			seen[pair]++
		}
	}
	if len(seen) != 6 { // C(4,2)
		t.Errorf("saw %d distinct pairings, want 6", len(seen))
	}
	for pair, count := range seen {
		if count != 1 {
			t.Errorf("pair %v scheduled %d times, want exactly once", pair, count)
		}
	}
}

func TestRoundRobinOddRosterInsertsBye(t *testing.T) {
	e := NewEngine()
	tour, _, err := e.Start("t1", "ABCD", FormatRoundRobin, 5, makeParticipants(5))
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if len(tour.Rounds) != 5 { // n becomes 6 with the bye slot, rounds = n-1
		t.Fatalf("round-robin with 5 players scheduled %d rounds, want 5", len(tour.Rounds))
	}
	byeCount := 0
	for _, round := range tour.Rounds {
		for _, id := range round {
			if tour.Slots[id].IsBye {
				byeCount++
			}
		}
	}
	if byeCount != 5 {
		t.Errorf("odd roster produced %d bye slots, want 5 (one per round)", byeCount)
	}
}

func TestRoundRobinCompletesAndRanksByWinsThenPoints(t *testing.T) {
	e := NewEngine()
	tour, _, err := e.Start("t1", "ABCD", FormatRoundRobin, 5, makeParticipants(4))
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	for !tour.roundComplete(len(tour.Rounds) - 1) && tour.Status == StatusInProgress {
		round := tour.Rounds[tour.CurrentRound]
		for _, id := range round {
			slot := tour.Slots[id]
			if slot.Completed {
				continue
			}
			out, err := e.ReportResult("t1", slot.ID, slot.PlayerA, slot.PlayerB, 20, 5)
			if err != nil {
				t.Fatalf("ReportResult: %v", err)
			}
			_ = out
		}
	}

	if tour.Status != StatusCompleted {
		t.Fatalf("tournament status = %s, want completed after every round reported", tour.Status)
	}
	if len(tour.Standings) != 4 {
		t.Fatalf("standings has %d entries, want 4", len(tour.Standings))
	}
	for i := 1; i < len(tour.Standings); i++ {
		prev, cur := tour.Standings[i-1], tour.Standings[i]
		if prev.Wins < cur.Wins {
			t.Errorf("standings not sorted by wins desc: entry %d has fewer wins than entry %d", i-1, i)
		}
	}
}

func TestSingleEliminationAdvancesAndCompletesWithOneWinner(t *testing.T) {
	e := NewEngine()
	tour, _, err := e.Start("t1", "ABCD", FormatSingleElimination, 10, makeParticipants(4))
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if len(tour.Rounds) != 1 || len(tour.Rounds[0]) != 2 {
		t.Fatalf("round 0 has %d slots, want 2 for a 4-player bracket", len(tour.Rounds[0]))
	}

	round0 := append([]string(nil), tour.Rounds[0]...)
	for _, id := range round0 {
		slot := tour.Slots[id]
		if _, err := e.ReportResult("t1", slot.ID, slot.PlayerA, slot.PlayerB, 15, 3); err != nil {
			t.Fatalf("ReportResult round 0: %v", err)
		}
	}
	if tour.Status != StatusInProgress {
		t.Fatalf("status = %s after round 0, want in_progress (one more round remains)", tour.Status)
	}
	if len(tour.Rounds) != 2 {
		t.Fatalf("expected round 1 to be built, got %d rounds", len(tour.Rounds))
	}

	finalSlotID := tour.Rounds[1][0]
	finalSlot := tour.Slots[finalSlotID]
	if _, err := e.ReportResult("t1", finalSlot.ID, finalSlot.PlayerA, finalSlot.PlayerB, 15, 3); err != nil {
		t.Fatalf("ReportResult final: %v", err)
	}
	if tour.Status != StatusCompleted {
		t.Fatalf("status = %s, want completed", tour.Status)
	}
	if tour.WinnerID != finalSlot.PlayerA {
		t.Errorf("WinnerID = %q, want %q", tour.WinnerID, finalSlot.PlayerA)
	}
}

func TestReportResultIgnoresAlreadyCompletedSlot(t *testing.T) {
	e := NewEngine()
	tour, _, err := e.Start("t1", "ABCD", FormatSingleElimination, 10, makeParticipants(4))
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	slotID := tour.Rounds[0][0]
	slot := tour.Slots[slotID]

	if _, err := e.ReportResult("t1", slotID, slot.PlayerA, slot.PlayerB, 15, 3); err != nil {
		t.Fatalf("first report: %v", err)
	}
	winnerAfterFirst := slot.WinnerID

	out, err := e.ReportResult("t1", slotID, slot.PlayerB, slot.PlayerA, 15, 3)
	if err != nil {
		t.Fatalf("duplicate report: %v", err)
	}
	if len(out.LobbyBroadcast) != 0 {
		t.Errorf("duplicate ReportResult produced a broadcast, want a silent no-op")
	}
	if slot.WinnerID != winnerAfterFirst {
		t.Errorf("duplicate report overwrote the original winner")
	}
}

func TestDoubleEliminationEliminatesOnSecondLoss(t *testing.T) {
	e := NewEngine()
	tour, _, err := e.Start("t1", "ABCD", FormatDoubleElimination, 10, makeParticipants(4))
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	round0 := append([]string(nil), tour.Rounds[0]...)
	for _, id := range round0 {
		slot := tour.Slots[id]
		if _, err := e.ReportResult("t1", slot.ID, slot.PlayerA, slot.PlayerB, 15, 3); err != nil {
			t.Fatalf("ReportResult round 0: %v", err)
		}
	}

	// Round-0 losers now form the losers-bracket round 1.
	var lbSlot *MatchSlot
	for _, id := range tour.Rounds[1] {
		if tour.Slots[id].Bracket == BracketLosers {
			lbSlot = tour.Slots[id]
		}
	}
	if lbSlot == nil {
		t.Fatalf("expected a losers-bracket slot in round 1")
	}
	loser := lbSlot.PlayerB
	if _, err := e.ReportResult("t1", lbSlot.ID, lbSlot.PlayerA, loser, 15, 3); err != nil {
		t.Fatalf("ReportResult losers-bracket: %v", err)
	}
	if p, ok := tour.Players[loser]; !ok || !p.Eliminated {
		t.Errorf("player %q lost in the losers bracket but was not marked eliminated", loser)
	}
}

func TestCooperationRateIsZeroWithNoRoundsPlayed(t *testing.T) {
	p := &Player{TournamentPlayerID: "A"}
	if got := p.CooperationRate(); got != 0 {
		t.Errorf("CooperationRate with no rounds = %v, want 0", got)
	}
	p.Cooperations, p.Betrayals = 3, 1
	if got := p.CooperationRate(); got != 0.75 {
		t.Errorf("CooperationRate(3 coop, 1 betray) = %v, want 0.75", got)
	}
}
