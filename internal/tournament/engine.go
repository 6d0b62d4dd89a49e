package tournament

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/duellab/pdserver/internal/gameplay"
	"github.com/duellab/pdserver/internal/wire"
)

var (
	ErrNotFound            = errors.New("tournament: not found")
	ErrInvalidSize         = errors.New("tournament: invalid player count for format")
	ErrUnsupportedFormat   = errors.New("tournament: unsupported format")
	ErrSlotNotFound        = errors.New("tournament: bracket slot not found")
)

// ReadyDelay is the 100ms phase-ordering pause between TOURNAMENT_STARTED
// (or TOURNAMENT_ROUND_STARTED) and the per-match TOURNAMENT_MATCH_READY
// batch, per spec.md §4.6.
const ReadyDelay = 100 * time.Millisecond

// InterRoundPause is the pause between a round completing and the next
// round's matches being built, per spec.md §5.
const InterRoundPause = 10 * time.Second

// Participant seeds a tournament's initial roster.
type Participant struct {
	TournamentPlayerID string
	ClientID           string
	Player             gameplay.Player
}

// Engine owns every live tournament, keyed by id.
type Engine struct {
	mu          sync.Mutex
	tournaments map[string]*Tournament
}

// NewEngine creates an empty tournament engine.
func NewEngine() *Engine {
	return &Engine{tournaments: make(map[string]*Tournament)}
}

// Get returns a tournament by id.
func (e *Engine) Get(id string) (*Tournament, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	t, ok := e.tournaments[id]
	return t, ok
}

// Count returns the number of live tournaments.
func (e *Engine) Count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.tournaments)
}

func validSize(format Format, n int) bool {
	switch format {
	case FormatSingleElimination, FormatDoubleElimination:
		return n == 4 || n == 8 || n == 16
	case FormatRoundRobin:
		return n >= 4 && n <= 16
	default:
		return false
	}
}

// Start creates and schedules round 0 of a new tournament.
func (e *Engine) Start(id, lobbyCode string, format Format, maxRounds int, participants []Participant) (*Tournament, Outcome, error) {
	if !validSize(format, len(participants)) {
		return nil, Outcome{}, ErrInvalidSize
	}

	t := &Tournament{
		ID:        id,
		LobbyCode: lobbyCode,
		Format:    format,
		MaxRounds: maxRounds,
		Players:   make(map[string]*Player, len(participants)),
		Slots:     make(map[string]*MatchSlot),
		Status:    StatusInProgress,
		CreatedAt: time.Now(),
	}
	for _, p := range participants {
		t.Order = append(t.Order, p.TournamentPlayerID)
		t.Players[p.TournamentPlayerID] = &Player{
			TournamentPlayerID: p.TournamentPlayerID,
			ClientID:           p.ClientID,
			Player:             p.Player,
		}
	}

	switch format {
	case FormatSingleElimination:
		t.generateSingleElimRound0()
	case FormatDoubleElimination:
		t.generateDoubleElimRound0()
	case FormatRoundRobin:
		t.generateRoundRobinSchedule()
	default:
		return nil, Outcome{}, ErrUnsupportedFormat
	}

	e.mu.Lock()
	e.tournaments[id] = t
	e.mu.Unlock()

	out := Outcome{
		LobbyBroadcast: []wire.Outbound{wire.TournamentStartedMsg{
			TournamentID: id,
			Format:       string(format),
			TotalRounds:  t.totalRounds(),
		}},
	}
	t.pending = &pendingRound{round: 0, fireAt: time.Now().Add(ReadyDelay)}
	return t, out, nil
}

func (t *Tournament) totalRounds() int {
	if t.Format == FormatDoubleElimination {
		return t.totalRoundsDE
	}
	return len(t.Rounds)
}

func slotID(tournamentID string, round, seq int) string {
	return fmt.Sprintf("%s-r%d-%d", tournamentID, round, seq)
}

// bracketSlotID namespaces a slot id by bracket so a round's winners-
// and losers-bracket matches (built in the same round index during
// double elimination) never collide.
func bracketSlotID(tournamentID string, round int, bracket Bracket, seq int) string {
	if bracket == BracketNone {
		return slotID(tournamentID, round, seq)
	}
	return fmt.Sprintf("%s-r%d-%s-%d", tournamentID, round, bracket, seq)
}

// ReportResult feeds a finished match.Engine match's outcome back into
// the bracket. winnerID/loserID are tournament-player-ids, already
// resolved by the dispatcher from the match's client ids via the alias
// map.
func (e *Engine) ReportResult(tournamentID, slotID, winnerID, loserID string, scoreWinner, scoreLoser int) (Outcome, error) {
	e.mu.Lock()
	t, ok := e.tournaments[tournamentID]
	e.mu.Unlock()
	if !ok {
		return Outcome{}, ErrNotFound
	}

	slot, ok := t.Slots[slotID]
	if !ok {
		return Outcome{}, ErrSlotNotFound
	}
	if slot.Completed {
		return Outcome{}, nil
	}
	slot.Completed = true
	slot.WinnerID = winnerID
	slot.LoserID = loserID
	if slot.PlayerA == winnerID {
		slot.ScoreA, slot.ScoreB = scoreWinner, scoreLoser
	} else {
		slot.ScoreA, slot.ScoreB = scoreLoser, scoreWinner
	}

	t.recordStats(winnerID, loserID, scoreWinner, scoreLoser)

	out := Outcome{
		LobbyBroadcast: []wire.Outbound{wire.TournamentMatchCompletedMsg{
			MatchID: slot.ID, WinnerID: winnerID, Score1: slot.ScoreA, Score2: slot.ScoreB,
		}},
	}

	if !t.roundComplete(slot.Round) {
		return out, nil
	}

	var advanceOut Outcome
	var err error
	switch t.Format {
	case FormatSingleElimination:
		advanceOut, err = t.advanceSingleElim()
	case FormatDoubleElimination:
		advanceOut, err = t.advanceDoubleElim()
	case FormatRoundRobin:
		advanceOut, err = t.advanceRoundRobin()
	}
	if err != nil {
		return out, err
	}
	merge(&out, advanceOut)
	return out, nil
}

func (t *Tournament) recordStats(winnerID, loserID string, scoreWinner, scoreLoser int) {
	if w, ok := t.Players[winnerID]; ok {
		w.Wins++
		w.TotalPoints += scoreWinner
	}
	if l, ok := t.Players[loserID]; ok {
		l.Losses++
		l.TotalPoints += scoreLoser
		if t.Format == FormatDoubleElimination && l.Losses >= 2 {
			l.Eliminated = true
		}
	}
}

func (t *Tournament) roundComplete(round int) bool {
	if round >= len(t.Rounds) {
		return false
	}
	for _, id := range t.Rounds[round] {
		if !t.Slots[id].Completed {
			return false
		}
	}
	return true
}

// Sweep fires any pending TOURNAMENT_MATCH_READY batch whose 100ms
// ordering delay, or inter-round pause, has elapsed.
func (e *Engine) Sweep(now time.Time) map[string]Outcome {
	e.mu.Lock()
	ids := make([]string, 0, len(e.tournaments))
	for id := range e.tournaments {
		ids = append(ids, id)
	}
	e.mu.Unlock()

	results := make(map[string]Outcome)
	for _, id := range ids {
		e.mu.Lock()
		t, ok := e.tournaments[id]
		e.mu.Unlock()
		if !ok {
			continue
		}
		if t.pending != nil && now.After(t.pending.fireAt) {
			round := t.pending.round
			t.pending = nil
			results[id] = t.readyOutcomeForRound(round)
		}
	}
	return results
}

func (t *Tournament) readyOutcomeForRound(round int) Outcome {
	out := Outcome{}
	if round >= len(t.Rounds) {
		return out
	}
	for _, id := range t.Rounds[round] {
		slot := t.Slots[id]
		if slot.IsBye {
			continue
		}
		a, b := t.Players[slot.PlayerA], t.Players[slot.PlayerB]
		out.Direct = append(out.Direct,
			RecipientMsg{TournamentPlayerID: slot.PlayerA, Msg: wire.TournamentMatchReadyMsg{MatchID: slot.ID, Opponent: b.Player, Round: round}},
			RecipientMsg{TournamentPlayerID: slot.PlayerB, Msg: wire.TournamentMatchReadyMsg{MatchID: slot.ID, Opponent: a.Player, Round: round}},
		)
		out.StartMatches = append(out.StartMatches, MatchStart{
			SlotID: slot.ID, Round: round, PlayerAID: slot.PlayerA, PlayerBID: slot.PlayerB,
			TiebreakerEligible: t.Format == FormatSingleElimination,
		})
	}
	return out
}
