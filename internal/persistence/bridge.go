package persistence

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/duellab/pdserver/internal/match"
)

// guestPrefix marks a client id as an unregistered guest; guest
// results are skipped entirely, per spec.md §4.7.
const guestPrefix = "guest_"

// Bridge is the Persistence Bridge (C11): on every terminal match
// event it writes one game-history row and applies a stats delta to
// each side, all through the retry wrapper. The match's client ids are
// written as the player and user ids; they are not looked up through
// Users(). Exhausted retries fall into the offline
// queue for later replay. Grounded on the teacher's pattern of a
// single Store wired directly into the coordinator
// (internal/multiplayer/coordinator.go calling storage.Store.SaveMatchResult)
// generalized to two repositories plus retry/offline-queue logic the
// teacher's fire-and-forget save didn't need.
type Bridge struct {
	store  Store
	queue  *OfflineQueue
	logger *log.Logger
}

// NewBridge creates a Bridge writing through store. Record's gameMode
// argument carries the per-match label (e.g. "queue", "private",
// "tournament") since one bridge serves every match source. If store
// also implements OfflineQueueStore, any writes still queued from
// before a restart are loaded back in.
func NewBridge(store Store, logger *log.Logger) *Bridge {
	b := &Bridge{store: store, queue: NewOfflineQueue(), logger: logger}
	if durable, ok := store.(OfflineQueueStore); ok {
		b.queue.Restore(context.Background(), durable, logger)
	}
	return b
}

// QueueLen reports how many writes are waiting for offline replay.
func (b *Bridge) QueueLen() int {
	return b.queue.Len()
}

// Record handles one finished match's terminal Result: writes history
// and updates stats keyed by the two client ids. A guest_-prefixed
// client id on either side causes the whole match to be skipped; any
// other id is written as-is, with no check that it names a registered
// user.
//
// The actual write (including the retry backoff, which can run to
// several seconds) happens on its own goroutine so a caller holding
// the dispatcher's lock — every caller — never blocks on storage
// latency; Record itself only ever does in-memory work before
// returning.
func (b *Bridge) Record(ctx context.Context, res match.Result, gameMode string) {
	if isGuest(res.P1ClientID) || isGuest(res.P2ClientID) {
		return
	}

	rec := &GameHistoryRecord{
		Player1ID:      res.P1ClientID,
		Player2ID:      res.P2ClientID,
		Player1Score:   res.ScoreP1,
		Player2Score:   res.ScoreP2,
		WinnerID:       res.WinnerID,
		GameMode:       gameMode,
		RoundsPlayed:   res.Rounds,
		GameDurationMS: durationMS(res),
	}
	deltas := []StatsDelta{
		statsDelta(res.P1ClientID, res, true),
		statsDelta(res.P2ClientID, res, false),
	}

	go b.writeWithRetry(ctx, res.MatchID, rec, deltas)
}

func (b *Bridge) writeWithRetry(ctx context.Context, matchID string, rec *GameHistoryRecord, deltas []StatsDelta) {
	err := withRetry(ctx, func() error { return b.writeAll(ctx, rec, deltas) })
	if err != nil {
		if b.logger != nil {
			b.logger.Warn("persistence write exhausted retries, queued offline", "match", matchID, "error", err)
		}
		b.queue.Enqueue(ctx, rec, deltas)
	}
}

func (b *Bridge) writeAll(ctx context.Context, rec *GameHistoryRecord, deltas []StatsDelta) error {
	id, err := b.store.GameHistory().Insert(ctx, *rec)
	if err != nil {
		return err
	}
	rec.ID = id
	for _, d := range deltas {
		if err := b.store.UserStats().ApplyDelta(ctx, d); err != nil {
			return err
		}
	}
	return nil
}

// Flush attempts to replay every queued offline write. The dispatcher
// should call this periodically (or on an explicit "connectivity
// restored" signal) once its own sweep loop is idle.
func (b *Bridge) Flush(ctx context.Context) {
	b.queue.Drain(ctx, func(p pendingWrite) error {
		return b.writeAll(ctx, p.history, p.deltas)
	})
}

func isGuest(clientID string) bool {
	return strings.HasPrefix(clientID, guestPrefix)
}

func durationMS(res match.Result) int64 {
	if res.CreatedAt.IsZero() || res.CompletedAt.IsZero() {
		return 0
	}
	d := res.CompletedAt.Sub(res.CreatedAt)
	if d < 0 {
		return 0
	}
	return d.Milliseconds()
}

func statsDelta(clientID string, res match.Result, isP1 bool) StatsDelta {
	yourScore := res.ScoreP1
	cooperations, betrayals := res.CooperationsP1, res.BetrayalsP1
	if !isP1 {
		yourScore = res.ScoreP2
		cooperations, betrayals = res.CooperationsP2, res.BetrayalsP2
	}
	return StatsDelta{
		UserID:       clientID,
		Score:        yourScore,
		Cooperations: cooperations,
		Betrayals:    betrayals,
		Tied:         res.WinnerID == "",
		Won:          res.WinnerID == clientID,
		PlayedAt:     resultTime(res),
	}
}

func resultTime(res match.Result) time.Time {
	if !res.CompletedAt.IsZero() {
		return res.CompletedAt
	}
	return time.Now()
}
