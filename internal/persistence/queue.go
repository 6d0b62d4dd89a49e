package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// pendingWrite is one write that exhausted its retries, queued for
// replay once connectivity is restored. id is only meaningful once a
// durable backend is wired in; it is how SaveOfflineWrite/
// DeleteOfflineWrite address this entry's row.
type pendingWrite struct {
	id      string
	history *GameHistoryRecord
	deltas  []StatsDelta
}

// offlinePayload is what gets JSON-encoded into a durable backend's
// row for one pendingWrite.
type offlinePayload struct {
	History *GameHistoryRecord `json:"history"`
	Deltas  []StatsDelta       `json:"deltas"`
}

// OfflineQueue is a queue of writes that exhausted the retry wrapper,
// replayed oldest-first, dropping an entry only once its replay
// succeeds. It is always in-memory; when Restore wires in a durable
// backend (SQLiteStore's offline_queue table), every Enqueue/Drain
// also persists through it so the queue survives a process restart.
// Without one (MemoryStore), it is purely process-lifetime.
type OfflineQueue struct {
	mu      sync.Mutex
	pending []pendingWrite
	nextSeq int64
	durable OfflineQueueStore
}

// NewOfflineQueue creates an empty, purely in-memory queue.
func NewOfflineQueue() *OfflineQueue {
	return &OfflineQueue{}
}

// Restore wires a durable backend into the queue and loads whatever
// entries it already holds (e.g. left over from before a restart), so
// they rejoin the in-memory replay order. Call once, at startup.
func (q *OfflineQueue) Restore(ctx context.Context, durable OfflineQueueStore, logger *log.Logger) {
	q.mu.Lock()
	q.durable = durable
	q.mu.Unlock()
	if durable == nil {
		return
	}

	records, err := durable.LoadOfflineWrites(ctx)
	if err != nil {
		if logger != nil {
			logger.Warn("cannot load durable offline queue", "error", err)
		}
		return
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, rec := range records {
		var payload offlinePayload
		if err := json.Unmarshal(rec.Payload, &payload); err != nil {
			if logger != nil {
				logger.Warn("dropping unreadable offline queue row", "id", rec.ID, "error", err)
			}
			continue
		}
		q.pending = append(q.pending, pendingWrite{id: rec.ID, history: payload.History, deltas: payload.Deltas})
	}
}

// Enqueue appends a failed write for later replay, persisting it
// through the durable backend too when one is wired in.
func (q *OfflineQueue) Enqueue(ctx context.Context, history *GameHistoryRecord, deltas []StatsDelta) {
	q.mu.Lock()
	q.nextSeq++
	id := fmt.Sprintf("%d-%d", time.Now().UnixNano(), q.nextSeq)
	durable := q.durable
	q.pending = append(q.pending, pendingWrite{id: id, history: history, deltas: deltas})
	q.mu.Unlock()

	if durable == nil {
		return
	}
	payload, err := json.Marshal(offlinePayload{History: history, Deltas: deltas})
	if err != nil {
		return
	}
	_ = durable.SaveOfflineWrite(ctx, id, payload)
}

// Len reports the number of queued writes awaiting replay.
func (q *OfflineQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Drain attempts to replay every queued write in order, stopping at
// (and keeping) the first one that still fails so ordering is
// preserved across restarts. Each successful replay is also dropped
// from the durable backend, if one is wired in.
func (q *OfflineQueue) Drain(ctx context.Context, apply func(pendingWrite) error) {
	q.mu.Lock()
	items := q.pending
	durable := q.durable
	q.mu.Unlock()

	var remaining []pendingWrite
	for i, item := range items {
		if err := apply(item); err != nil {
			remaining = append(remaining, items[i:]...)
			break
		}
		if durable != nil {
			_ = durable.DeleteOfflineWrite(ctx, item.id)
		}
	}

	q.mu.Lock()
	q.pending = append(remaining, q.pending[len(items):]...)
	q.mu.Unlock()
}
