package dispatch

import (
	"time"

	"github.com/duellab/pdserver/internal/match"
	"github.com/duellab/pdserver/internal/wire"
)

// Tick drives every timer-bearing engine: matchmaking expiry/pairing,
// private-room reaping, match-state sweeping, tournament pacing, stale
// session GC, and offline-write replay. The composition root calls this
// on a ticker at roughly TickInterval.
func (l *Loop) Tick(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, e := range l.queue.ExpireStale(now) {
		l.cast.ToClient(e.ClientID, wire.NewError(wire.ErrQueueTimeout, ""))
	}
	for _, p := range l.queue.PairAll() {
		l.createMatch(p.Left.ClientID, p.Left.Player, p.Right.ClientID, p.Right.Player, match.CreateOptions{}, "queue")
	}

	// Unmatched private rooms are reaped silently; the host simply never
	// sees a guest arrive (spec.md §9 leaves a timeout notification
	// undefined for this path).
	l.rooms.ReapExpired(now)

	for id, out := range l.matches.Sweep(now) {
		l.applyMatchOutcome(id, out)
	}
	for id, out := range l.tournaments.Sweep(now) {
		l.applyTournamentOutcome(id, out)
	}

	// Stale sessionToken->clientID entries for GC'd sessions are left in
	// place; the map is bounded by total distinct tokens ever seen and a
	// stale entry only causes a harmless no-op reconnection rebind later.
	l.sessions.GCDisconnected(SessionGCWindow)

	l.bridge.Flush(bgCtx())
}
