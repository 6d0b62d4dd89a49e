package match

import (
	"errors"
	"sync"

	"github.com/duellab/pdserver/internal/gameplay"
)

var (
	ErrNotFound      = errors.New("match: not found")
	ErrNotParticipant = errors.New("match: caller is not a participant")
	ErrWrongPhase    = errors.New("match: action not valid in current phase")
	ErrAlreadyDecided = errors.New("match: decision already recorded for this round")
	ErrStaleRound    = errors.New("match: round index does not match current round")
)

// CreateOptions configures a new match; zero value is a regular (non-
// tournament) match with default round count.
type CreateOptions struct {
	MaxRounds          int
	IsTournamentMatch  bool
	TournamentID       string
	TournamentMatchID  string
	TiebreakerEligible bool
}

// Engine owns every live match, keyed by id. Like the lobby/matchmaking
// managers, all mutation runs under Engine's own mutex so the
// dispatcher remains the single caller driving order of operations.
type Engine struct {
	mu      sync.Mutex
	matches map[string]*Match
}

// NewEngine creates an empty match engine.
func NewEngine() *Engine {
	return &Engine{matches: make(map[string]*Match)}
}

// Create starts a new match between two endpoints.
func (e *Engine) Create(id, p1ClientID string, p1 gameplay.Player, p2ClientID string, p2 gameplay.Player, opts CreateOptions) *Match {
	m := New(id, p1ClientID, p1, p2ClientID, p2, opts.MaxRounds)
	m.IsTournamentMatch = opts.IsTournamentMatch
	m.TournamentID = opts.TournamentID
	m.TournamentMatchID = opts.TournamentMatchID
	m.TiebreakerEligible = opts.TiebreakerEligible

	e.mu.Lock()
	e.matches[id] = m
	e.mu.Unlock()
	return m
}

// Get returns the match for an id.
func (e *Engine) Get(id string) (*Match, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	m, ok := e.matches[id]
	return m, ok
}

// FindByParticipant returns the live match, if any, containing clientID.
func (e *Engine) FindByParticipant(clientID string) (*Match, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, m := range e.matches {
		if m.P1.ClientID == clientID || m.P2.ClientID == clientID {
			return m, true
		}
	}
	return nil, false
}

// remove deletes a match from the engine.
func (e *Engine) remove(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.matches, id)
}

// withLock runs fn against the named match under the engine-wide lock,
// mirroring the granularity of the lobby/matchmaking managers: one
// engine-wide critical section per operation rather than a lock per
// match, since match operations are cheap and rare enough that
// contention is a non-issue at this scale.
func (e *Engine) withLock(id string, fn func(*Match) (Outcome, error)) (Outcome, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	m, ok := e.matches[id]
	if !ok {
		return Outcome{}, ErrNotFound
	}
	return fn(m)
}

// All returns every live match, for sweeping.
func (e *Engine) All() []*Match {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]*Match, 0, len(e.matches))
	for _, m := range e.matches {
		out = append(out, m)
	}
	return out
}
