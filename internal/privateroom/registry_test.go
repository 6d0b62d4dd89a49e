package privateroom

import (
	"testing"
	"time"

	"github.com/duellab/pdserver/internal/gameplay"
)

func TestCreateRejectsDuplicateCode(t *testing.T) {
	r := NewRegistry()
	if _, err := r.Create("abc123", "host1", gameplay.Player{ID: "host1"}); err != nil {
		t.Fatalf("first Create: %v", err)
	}
	if _, err := r.Create("ABC123", "host2", gameplay.Player{ID: "host2"}); err != ErrCodeTaken {
		t.Errorf("duplicate code (case-insensitive) = %v, want ErrCodeTaken", err)
	}
}

func TestJoinMatchesWaitingRoom(t *testing.T) {
	r := NewRegistry()
	if _, err := r.Create("abc123", "host1", gameplay.Player{ID: "host1"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	room, ok := r.Join("abc123", "guest1", gameplay.Player{ID: "guest1"})
	if !ok {
		t.Fatalf("Join on a waiting room failed")
	}
	if room.Status != StatusMatched {
		t.Errorf("status = %s, want matched", room.Status)
	}
	if room.Guest == nil || room.Guest.ID != "guest1" {
		t.Errorf("Guest = %#v, want guest1", room.Guest)
	}
}

func TestJoinRejectsUnknownOrAlreadyMatchedCode(t *testing.T) {
	r := NewRegistry()
	if _, ok := r.Join("nope", "guest1", gameplay.Player{ID: "guest1"}); ok {
		t.Errorf("Join on unknown code succeeded, want failure")
	}

	if _, err := r.Create("abc123", "host1", gameplay.Player{ID: "host1"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, ok := r.Join("abc123", "guest1", gameplay.Player{ID: "guest1"}); !ok {
		t.Fatalf("first Join failed")
	}
	if _, ok := r.Join("abc123", "guest2", gameplay.Player{ID: "guest2"}); ok {
		t.Errorf("second Join on an already-matched room succeeded, want failure")
	}
}

func TestRemoveByHostDropsOwnedRoom(t *testing.T) {
	r := NewRegistry()
	if _, err := r.Create("abc123", "host1", gameplay.Player{ID: "host1"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	r.RemoveByHost("host1")
	if _, ok := r.Get("abc123"); ok {
		t.Errorf("room still present after RemoveByHost")
	}
}

func TestReapExpiredOnlyRemovesStaleWaitingRooms(t *testing.T) {
	r := NewRegistry()
	fresh, err := r.Create("fresh1", "host1", gameplay.Player{ID: "host1"})
	if err != nil {
		t.Fatalf("Create fresh: %v", err)
	}
	stale, err := r.Create("stale1", "host2", gameplay.Player{ID: "host2"})
	if err != nil {
		t.Fatalf("Create stale: %v", err)
	}
	stale.CreatedAt = time.Now().Add(-Timeout - time.Second)
	fresh.CreatedAt = time.Now()

	expired := r.ReapExpired(time.Now())
	if len(expired) != 1 || expired[0].Code != "STALE1" {
		t.Fatalf("ReapExpired = %#v, want exactly the stale room", expired)
	}
	if _, ok := r.Get("fresh1"); !ok {
		t.Errorf("fresh room was reaped, want it to survive")
	}
	if _, ok := r.Get("stale1"); ok {
		t.Errorf("stale room still present after ReapExpired")
	}
}

func TestCountReflectsLiveRooms(t *testing.T) {
	r := NewRegistry()
	if r.Count() != 0 {
		t.Fatalf("Count on empty registry = %d, want 0", r.Count())
	}
	if _, err := r.Create("abc123", "host1", gameplay.Player{ID: "host1"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if r.Count() != 1 {
		t.Errorf("Count after one Create = %d, want 1", r.Count())
	}
	r.Remove("abc123")
	if r.Count() != 0 {
		t.Errorf("Count after Remove = %d, want 0", r.Count())
	}
}
