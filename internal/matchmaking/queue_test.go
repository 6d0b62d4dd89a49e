package matchmaking

import (
	"testing"
	"time"

	"github.com/duellab/pdserver/internal/gameplay"
)

func TestJoinReplacesExistingEntry(t *testing.T) {
	q := NewQueue()
	q.Join("c1", gameplay.Player{ID: "c1"}, Preferences{})
	q.Join("c1", gameplay.Player{ID: "c1"}, Preferences{})
	if q.Len() != 1 {
		t.Fatalf("Len = %d, want 1 (rejoin replaces, not duplicates)", q.Len())
	}
}

func TestLeaveReportsWhetherEntryExisted(t *testing.T) {
	q := NewQueue()
	if q.Leave("ghost") {
		t.Errorf("Leave on an absent entry reported true")
	}
	q.Join("c1", gameplay.Player{ID: "c1"}, Preferences{})
	if !q.Leave("c1") {
		t.Errorf("Leave on a present entry reported false")
	}
	if q.Len() != 0 {
		t.Errorf("Len after Leave = %d, want 0", q.Len())
	}
}

func TestPositionReflectsJoinOrder(t *testing.T) {
	q := NewQueue()
	q.Join("c1", gameplay.Player{ID: "c1"}, Preferences{})
	q.Join("c2", gameplay.Player{ID: "c2"}, Preferences{})

	pos, size, ok := q.Position("c2")
	if !ok || pos != 2 || size != 2 {
		t.Errorf("Position(c2) = (%d, %d, %v), want (2, 2, true)", pos, size, ok)
	}
	if _, _, ok := q.Position("ghost"); ok {
		t.Errorf("Position on an absent entry reported found")
	}
}

func TestPairTakesTwoOldestUnconditionally(t *testing.T) {
	q := NewQueue()
	q.Join("c1", gameplay.Player{ID: "c1"}, Preferences{})
	q.Join("c2", gameplay.Player{ID: "c2"}, Preferences{})
	q.Join("c3", gameplay.Player{ID: "c3"}, Preferences{})

	p, ok := q.Pair()
	if !ok {
		t.Fatalf("Pair with 3 waiting entries returned false")
	}
	if p.Left.ClientID != "c1" || p.Right.ClientID != "c2" {
		t.Errorf("Pair = (%s, %s), want the two oldest (c1, c2)", p.Left.ClientID, p.Right.ClientID)
	}
	if q.Len() != 1 {
		t.Errorf("Len after Pair = %d, want 1 remaining", q.Len())
	}
}

func TestPairRequiresAtLeastTwoEntries(t *testing.T) {
	q := NewQueue()
	if _, ok := q.Pair(); ok {
		t.Errorf("Pair on an empty queue returned true")
	}
	q.Join("c1", gameplay.Player{ID: "c1"}, Preferences{})
	if _, ok := q.Pair(); ok {
		t.Errorf("Pair with one waiting entry returned true")
	}
}

func TestPairAllDrainsDownToAnOddLeftover(t *testing.T) {
	q := NewQueue()
	for _, id := range []string{"c1", "c2", "c3", "c4", "c5"} {
		q.Join(id, gameplay.Player{ID: id}, Preferences{})
	}
	pairings := q.PairAll()
	if len(pairings) != 2 {
		t.Fatalf("PairAll produced %d pairings, want 2 (one left over)", len(pairings))
	}
	if q.Len() != 1 {
		t.Errorf("Len after PairAll = %d, want 1 leftover entry", q.Len())
	}
}

func TestExpireStaleRemovesOnlyEntriesPastTheirMaxWait(t *testing.T) {
	q := NewQueue()
	now := time.Now()
	q.entries = append(q.entries,
		Entry{ClientID: "stale", JoinedAt: now.Add(-DefaultMaxWait - time.Second)},
		Entry{ClientID: "fresh", JoinedAt: now},
	)

	expired := q.ExpireStale(now)
	if len(expired) != 1 || expired[0].ClientID != "stale" {
		t.Fatalf("ExpireStale = %#v, want exactly the stale entry", expired)
	}
	if q.Len() != 1 {
		t.Errorf("Len after ExpireStale = %d, want 1 (fresh entry survives)", q.Len())
	}
	if _, _, ok := q.Position("fresh"); !ok {
		t.Errorf("fresh entry no longer in queue after ExpireStale")
	}
}

func TestExpireStaleHonorsCustomMaxWait(t *testing.T) {
	q := NewQueue()
	now := time.Now()
	q.entries = append(q.entries, Entry{
		ClientID:    "c1",
		JoinedAt:    now.Add(-2 * time.Minute),
		Preferences: Preferences{MaxWait: time.Minute},
	})
	expired := q.ExpireStale(now)
	if len(expired) != 1 {
		t.Fatalf("ExpireStale with a short custom MaxWait = %d expired, want 1", len(expired))
	}
}

func TestScorePenalizesTrustGapBeyondToleranceAndRewardsWait(t *testing.T) {
	now := time.Now()
	a := Entry{Player: gameplay.Player{TrustScore: 50}, JoinedAt: now}
	b := Entry{Player: gameplay.Player{TrustScore: 50}, JoinedAt: now}
	baseline := Score(a, b, now)

	far := Entry{Player: gameplay.Player{TrustScore: 90}, JoinedAt: now}
	if got := Score(a, far, now); got >= baseline {
		t.Errorf("Score with a large trust gap = %v, want lower than matched-trust baseline %v", got, baseline)
	}

	waited := Entry{Player: gameplay.Player{TrustScore: 50}, JoinedAt: now.Add(-30 * time.Second)}
	if got := Score(waited, b, now); got <= baseline {
		t.Errorf("Score with accumulated wait = %v, want higher than baseline %v", got, baseline)
	}
}

func TestScoreNeverGoesNegative(t *testing.T) {
	now := time.Now()
	a := Entry{Player: gameplay.Player{TrustScore: 0, GamesPlayed: 0}, JoinedAt: now}
	b := Entry{Player: gameplay.Player{TrustScore: 1000, GamesPlayed: 1000}, JoinedAt: now}
	if got := Score(a, b, now); got < 0 {
		t.Errorf("Score = %v, want clipped to >= 0", got)
	}
}
