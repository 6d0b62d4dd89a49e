// Package lobby implements the Lobby Manager (C7): party lobby
// creation, join/leave/kick, host transfer, settings mutation, chat, and
// the readiness/status state machine of spec.md §4.4. Grounded on the
// teacher's Lobby/Coordinator shape (internal/multiplayer/coordinator.go)
// generalized from a 1v1 host/joiner pairing to an ordered N-participant
// roster feeding the tournament engine.
package lobby

import (
	"time"

	"github.com/duellab/pdserver/internal/gameplay"
)

// Status is a lobby's lifecycle stage.
type Status string

const (
	StatusWaitingForPlayers  Status = "waiting_for_players"
	StatusReadyToStart       Status = "ready_to_start"
	StatusTournamentInProgress Status = "tournament_in_progress"
	StatusClosed             Status = "closed"
)

// Readiness is a participant's in-lobby/in-tournament state.
type Readiness string

const (
	ReadinessWaiting    Readiness = "waiting"
	ReadinessReady      Readiness = "ready"
	ReadinessInGame     Readiness = "in_game"
	ReadinessEliminated Readiness = "eliminated"
)

const (
	MinPlayers = 4
	MaxPlayers = 16
	MinRounds  = 5
	MaxRounds  = 20
	MaxChatLen = 500
)

// Format is a supported tournament bracket format.
type Format string

const (
	FormatSingleElimination Format = "single_elimination"
	FormatDoubleElimination Format = "double_elimination"
	FormatRoundRobin        Format = "round_robin"
)

// Settings are the host-mutable lobby parameters.
type Settings struct {
	MaxPlayers        int
	RoundCount        int
	TournamentFormat  Format
	AllowSpectators   bool
	ChatEnabled       bool
	AutoStartWhenFull bool
}

// SettingsPatch is a partial UPDATE_LOBBY_SETTINGS request. A
// zero-value MaxPlayers/RoundCount/TournamentFormat leaves that field
// unchanged; the three toggles are pointers for the same reason — a
// nil toggle means "not included in this update," not "set to false."
type SettingsPatch struct {
	MaxPlayers        int
	RoundCount        int
	TournamentFormat  Format
	AllowSpectators   *bool
	ChatEnabled       *bool
	AutoStartWhenFull *bool
}

// DefaultSettings returns the settings a newly created lobby starts with.
func DefaultSettings() Settings {
	return Settings{
		MaxPlayers:       8,
		RoundCount:       10,
		TournamentFormat: FormatSingleElimination,
		ChatEnabled:      true,
	}
}

// Clamp keeps MaxPlayers/RoundCount within spec.md §4.4's bounds.
func (s Settings) Clamp() Settings {
	if s.MaxPlayers < MinPlayers {
		s.MaxPlayers = MinPlayers
	}
	if s.MaxPlayers > MaxPlayers {
		s.MaxPlayers = MaxPlayers
	}
	if s.RoundCount < MinRounds {
		s.RoundCount = MinRounds
	}
	if s.RoundCount > MaxRounds {
		s.RoundCount = MaxRounds
	}
	return s
}

// Participant is one member of a lobby.
type Participant struct {
	ClientID  string
	Player    gameplay.Player
	IsHost    bool
	Readiness Readiness
}

// Lobby is a party lobby (SPEC_FULL.md/spec.md §3 Lobby entity).
type Lobby struct {
	Code         string
	Participants []*Participant // ordered by join; a host transfer passes IsHost to participants[0]
	Settings     Settings
	Status       Status
	TournamentID string // set once START_TOURNAMENT succeeds
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HostClientID returns the current host's client id, if any.
func (l *Lobby) HostClientID() string {
	for _, p := range l.Participants {
		if p.IsHost {
			return p.ClientID
		}
	}
	return ""
}

// Find returns the participant with the given client id.
func (l *Lobby) Find(clientID string) (*Participant, bool) {
	for _, p := range l.Participants {
		if p.ClientID == clientID {
			return p, true
		}
	}
	return nil, false
}

// recomputeStatus applies spec.md §4.4's invariant: status is
// ready_to_start iff count >= 4 and the lobby isn't already running a
// tournament.
func (l *Lobby) recomputeStatus() {
	if l.Status == StatusTournamentInProgress || l.Status == StatusClosed {
		return
	}
	if len(l.Participants) >= MinPlayers {
		l.Status = StatusReadyToStart
	} else {
		l.Status = StatusWaitingForPlayers
	}
}
