package match

import "time"

// Sweep checks every live match's armed deadlines against now and
// applies whichever timeout has elapsed — round decision default,
// SHOWING_RESULTS advance, reversal-window resolution, disconnect-grace
// forfeit, or post-match viewing expiry. It returns only the matches
// that changed, keyed by match id, for the dispatcher to broadcast.
// This is the single-goroutine analogue of the teacher's per-match
// ticker (internal/multiplayer/match.go's Run/runTick): one sweep call
// from the dispatcher's own tick, rather than a goroutine per match.
func (e *Engine) Sweep(now time.Time) map[string]Outcome {
	e.mu.Lock()
	ids := make([]string, 0, len(e.matches))
	for id := range e.matches {
		ids = append(ids, id)
	}
	e.mu.Unlock()

	results := make(map[string]Outcome)
	for _, id := range ids {
		e.mu.Lock()
		m, ok := e.matches[id]
		var out Outcome
		changed := false
		if ok {
			out, changed = e.sweepOne(m, now)
		}
		e.mu.Unlock()
		if !changed {
			continue
		}
		results[id] = out
		if out.Removed {
			e.remove(id)
		}
	}
	return results
}

func (e *Engine) sweepOne(m *Match, now time.Time) (Outcome, bool) {
	switch {
	case m.State == StateWaitingForDecisions && !m.RoundDeadline.IsZero() && now.After(m.RoundDeadline):
		return e.applyTimeoutLocked(m), true
	case m.State == StateShowingResults && !m.ResultsPauseDeadline.IsZero() && now.After(m.ResultsPauseDeadline):
		return e.advanceAfterResultsLocked(m), true
	case m.State == StateAwaitingReversalResponses && !m.ReversalDeadline.IsZero() && now.After(m.ReversalDeadline):
		return e.finalizeLocked(m), true
	case m.State == StateCompleted && !m.ViewingExpiresAt.IsZero() && now.After(m.ViewingExpiresAt):
		return Outcome{Removed: true}, true
	case m.State != StateCompleted && (m.P1.Disconnected || m.P2.Disconnected) && disconnectGraceExpired(m, now):
		return e.handleDisconnectTimeoutLocked(m), true
	}
	return Outcome{}, false
}

func disconnectGraceExpired(m *Match, now time.Time) bool {
	grace := m.reconnectGrace()
	if m.P1.Disconnected && now.Sub(m.P1.DisconnectedAt) > grace {
		return true
	}
	if m.P2.Disconnected && now.Sub(m.P2.DisconnectedAt) > grace {
		return true
	}
	return false
}
