package match

import (
	"testing"
	"time"

	"github.com/duellab/pdserver/internal/gameplay"
)

func newTestMatch(t *testing.T, opts CreateOptions) (*Engine, *Match) {
	t.Helper()
	e := NewEngine()
	m := e.Create("m1", "p1", gameplay.Player{ID: "p1"}, "p2", gameplay.Player{ID: "p2"}, opts)
	return e, m
}

func TestHandleDecisionScoresOnceBothSidesDecide(t *testing.T) {
	e, _ := newTestMatch(t, CreateOptions{MaxRounds: 3})

	out, err := e.HandleDecision("m1", "p1", 0, gameplay.Cooperate)
	if err != nil {
		t.Fatalf("p1 decision: %v", err)
	}
	if len(out.ToP1) != 1 {
		t.Fatalf("expected a WAITING_FOR_OTHER_PLAYER ack, got %#v", out)
	}

	out, err = e.HandleDecision("m1", "p2", 0, gameplay.Betray)
	if err != nil {
		t.Fatalf("p2 decision: %v", err)
	}
	if len(out.ToP1) != 1 || len(out.ToP2) != 1 {
		t.Fatalf("expected round-result messages to both sides, got %#v", out)
	}

	m, _ := e.Get("m1")
	if m.ScoreP1 != 0 || m.ScoreP2 != 5 {
		t.Errorf("scores = (%d, %d), want (0, 5) for cooperate-vs-betray", m.ScoreP1, m.ScoreP2)
	}
	if m.State != StateShowingResults {
		t.Errorf("state = %s, want SHOWING_RESULTS", m.State)
	}
}

func TestHandleDecisionAlreadyDecided(t *testing.T) {
	e, _ := newTestMatch(t, CreateOptions{MaxRounds: 3})

	if _, err := e.HandleDecision("m1", "p1", 0, gameplay.Cooperate); err != nil {
		t.Fatalf("first decision: %v", err)
	}
	if _, err := e.HandleDecision("m1", "p1", 0, gameplay.Betray); err != ErrAlreadyDecided {
		t.Errorf("second decision from same side = %v, want ErrAlreadyDecided", err)
	}
}

func TestHandleDecisionWrongPhase(t *testing.T) {
	e, _ := newTestMatch(t, CreateOptions{MaxRounds: 1})
	if _, err := e.HandleDecision("m1", "p1", 0, gameplay.Cooperate); err != nil {
		t.Fatalf("p1: %v", err)
	}
	if _, err := e.HandleDecision("m1", "p2", 0, gameplay.Cooperate); err != nil {
		t.Fatalf("p2: %v", err)
	}
	// Match is now SHOWING_RESULTS; a further decision is the wrong phase.
	if _, err := e.HandleDecision("m1", "p1", 0, gameplay.Cooperate); err != ErrWrongPhase {
		t.Errorf("decision during SHOWING_RESULTS = %v, want ErrWrongPhase", err)
	}
}

func TestHandleDecisionStaleRound(t *testing.T) {
	e, _ := newTestMatch(t, CreateOptions{MaxRounds: 3})
	if _, err := e.HandleDecision("m1", "p1", 1, gameplay.Cooperate); err != ErrStaleRound {
		t.Errorf("decision for round 1 while on round 0 = %v, want ErrStaleRound", err)
	}
}

func TestHandleDecisionNotParticipant(t *testing.T) {
	e, _ := newTestMatch(t, CreateOptions{MaxRounds: 3})
	if _, err := e.HandleDecision("m1", "stranger", 0, gameplay.Cooperate); err != ErrNotParticipant {
		t.Errorf("decision from non-participant = %v, want ErrNotParticipant", err)
	}
}

func TestSweepRoundTimeoutDefaultsToCooperate(t *testing.T) {
	e, m := newTestMatch(t, CreateOptions{MaxRounds: 3})
	if _, err := e.HandleDecision("m1", "p1", 0, gameplay.Betray); err != nil {
		t.Fatalf("p1 decision: %v", err)
	}

	past := m.RoundDeadline.Add(time.Second)
	outs := e.Sweep(past)
	out, ok := outs["m1"]
	if !ok {
		t.Fatalf("expected match to be swept")
	}
	if len(out.ToP1) != 1 || len(out.ToP2) != 1 {
		t.Fatalf("expected round-result messages after timeout default, got %#v", out)
	}
	if m.ScoreP1 != 5 || m.ScoreP2 != 0 {
		t.Errorf("scores = (%d, %d), want (5, 0) — p2 defaulted to COOPERATE against p1's BETRAY", m.ScoreP1, m.ScoreP2)
	}
}

func TestForfeitAwardsRemainingRoundsAsBonus(t *testing.T) {
	e, m := newTestMatch(t, CreateOptions{MaxRounds: 10})
	m.ScoreP1, m.ScoreP2 = 3, 3
	m.CurrentRound = 4 // 6 rounds remain (4..9)

	out, err := e.HandleForfeit("m1", "p1")
	if err != nil {
		t.Fatalf("forfeit: %v", err)
	}
	// forfeiter is p1, so p2 gets 3 points per remaining round (4..9 = 6 rounds).
	if m.ScoreP2 != 3+6*3 {
		t.Errorf("ScoreP2 = %d, want %d (3 base + 6 remaining rounds * 3)", m.ScoreP2, 3+6*3)
	}
	if m.State != StateCompleted {
		t.Errorf("state = %s, want COMPLETED", m.State)
	}
	if out.Persist == nil || !out.Persist.Forfeit {
		t.Errorf("expected a Forfeit persist result")
	}
}

func TestHandleForfeitAlreadyCompleted(t *testing.T) {
	e, _ := newTestMatch(t, CreateOptions{MaxRounds: 1})
	if _, err := e.HandleForfeit("m1", "p1"); err != nil {
		t.Fatalf("first forfeit: %v", err)
	}
	if _, err := e.HandleForfeit("m1", "p2"); err != ErrWrongPhase {
		t.Errorf("forfeit on completed match = %v, want ErrWrongPhase", err)
	}
}

func TestReversalBothAcceptOpensSelection(t *testing.T) {
	e, m := newTestMatch(t, CreateOptions{MaxRounds: 1})
	m.State = StateAwaitingReversalResponses
	m.ReversalDeadline = time.Now().Add(time.Minute)

	if _, err := e.HandleReversalResponse("m1", "p1", true); err != nil {
		t.Fatalf("p1 accept: %v", err)
	}
	if m.State != StateAwaitingReversalResponses {
		t.Fatalf("state changed after only one accept: %s", m.State)
	}
	out, err := e.HandleReversalResponse("m1", "p2", true)
	if err != nil {
		t.Fatalf("p2 accept: %v", err)
	}
	if m.State != StateReversalSelection {
		t.Errorf("state = %s, want REVERSAL_SELECTION once both accept", m.State)
	}
	if len(out.ToP1) != 1 || len(out.ToP2) != 1 {
		t.Errorf("expected a REVERSAL_APPROVED to both sides, got %#v", out)
	}
}

func TestReversalDeclineFinalizesImmediately(t *testing.T) {
	e, m := newTestMatch(t, CreateOptions{MaxRounds: 1})
	m.State = StateAwaitingReversalResponses
	m.ReversalDeadline = time.Now().Add(time.Minute)

	out, err := e.HandleReversalResponse("m1", "p1", false)
	if err != nil {
		t.Fatalf("p1 decline: %v", err)
	}
	if m.State != StateCompleted {
		t.Errorf("state = %s, want COMPLETED after a decline", m.State)
	}
	if out.Persist == nil {
		t.Errorf("expected a Persist result on the terminal decline path")
	}
}

func TestReversalDuplicateResponseIsNoOp(t *testing.T) {
	e, m := newTestMatch(t, CreateOptions{MaxRounds: 1})
	m.State = StateAwaitingReversalResponses
	m.ReversalDeadline = time.Now().Add(time.Minute)

	if _, err := e.HandleReversalResponse("m1", "p1", true); err != nil {
		t.Fatalf("first response: %v", err)
	}
	out, err := e.HandleReversalResponse("m1", "p1", false)
	if err != nil {
		t.Fatalf("duplicate response: %v", err)
	}
	if len(out.ToP1) != 0 || len(out.ToP2) != 0 {
		t.Errorf("duplicate response produced messages, want a silent no-op: %#v", out)
	}
	if m.ReversalP1 == nil || !*m.ReversalP1 {
		t.Errorf("duplicate response overwrote the original accept")
	}
}

func TestDecisionChangeRecomputeIsIdempotent(t *testing.T) {
	e, m := newTestMatch(t, CreateOptions{MaxRounds: 2})
	m.Rounds[0] = &RoundRecord{P1Decision: decisionPtr(gameplay.Cooperate), P2Decision: decisionPtr(gameplay.Cooperate)}
	m.Rounds[1] = &RoundRecord{P1Decision: decisionPtr(gameplay.Betray), P2Decision: decisionPtr(gameplay.Cooperate)}
	m.State = StateReversalSelection

	if _, err := e.HandleDecisionChange("m1", "p1", 0, gameplay.Betray); err != nil {
		t.Fatalf("decision change: %v", err)
	}
	// Expect: round0 (BETRAY, COOPERATE) = 5/0, round1 (BETRAY, COOPERATE) = 5/0.
	if m.ScoreP1 != 10 || m.ScoreP2 != 0 {
		t.Fatalf("scores after one change = (%d, %d), want (10, 0)", m.ScoreP1, m.ScoreP2)
	}

	// Recomputing again with the same stored decisions must not change the total.
	e.recomputeAllLocked(m)
	if m.ScoreP1 != 10 || m.ScoreP2 != 0 {
		t.Errorf("scores after idempotent recompute = (%d, %d), want (10, 0)", m.ScoreP1, m.ScoreP2)
	}
}

func TestDecisionChangesCompleteWaitsForBothSides(t *testing.T) {
	e, m := newTestMatch(t, CreateOptions{MaxRounds: 1})
	m.Rounds[0] = &RoundRecord{P1Decision: decisionPtr(gameplay.Cooperate), P2Decision: decisionPtr(gameplay.Cooperate)}
	m.State = StateReversalSelection

	out, err := e.HandleDecisionChangesComplete("m1", "p1")
	if err != nil {
		t.Fatalf("p1 complete: %v", err)
	}
	if len(out.ToP1) != 0 || m.State != StateReversalSelection {
		t.Fatalf("match finalized after only one side completed: state=%s out=%#v", m.State, out)
	}

	out, err = e.HandleDecisionChangesComplete("m1", "p2")
	if err != nil {
		t.Fatalf("p2 complete: %v", err)
	}
	if m.State != StateCompleted {
		t.Errorf("state = %s, want COMPLETED once both sides complete", m.State)
	}
	if out.Persist == nil {
		t.Errorf("expected a Persist result bundled with FINAL_SCORES_UPDATE")
	}
}

func TestResultsSavedGuardsAgainstDoubleWrite(t *testing.T) {
	e, _ := newTestMatch(t, CreateOptions{MaxRounds: 1})
	out, err := e.HandleForfeit("m1", "p1")
	if err != nil {
		t.Fatalf("forfeit: %v", err)
	}
	if out.Persist == nil {
		t.Fatalf("expected a Persist result on first forfeit")
	}
	// A second forfeit call is rejected by the phase check (ErrWrongPhase),
	// but the ResultsSaved guard independently protects applyForfeitLocked
	// from emitting Persist twice if reached through another path (e.g. a
	// sweep race). Exercise the guard directly.
	m, _ := e.Get("m1")
	out2 := e.applyForfeitLocked(m, true)
	if out2.Persist != nil {
		t.Errorf("ResultsSaved guard did not prevent a second Persist emission")
	}
}

func decisionPtr(d gameplay.Decision) *gameplay.Decision { return &d }
