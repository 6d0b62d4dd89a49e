package lobby

import (
	"crypto/rand"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/duellab/pdserver/internal/gameplay"
)

// codeAlphabet excludes visually-confusable characters (0/O, 1/I) so a
// player reading a lobby code aloud or off a small screen doesn't
// transpose it.
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
const codeLength = 6

var (
	ErrNotFound          = errors.New("lobby: not found")
	ErrFull              = errors.New("lobby: full")
	ErrTournamentRunning = errors.New("lobby: tournament in progress")
	ErrNotHost           = errors.New("lobby: caller is not host")
	ErrChatDisabled      = errors.New("lobby: chat disabled")
	ErrMessageTooLong    = errors.New("lobby: message too long")
	ErrMessageEmpty      = errors.New("lobby: message empty")
)

// Manager owns every live lobby, keyed by code. Like the teacher's
// Coordinator, all mutation happens through Manager's own mutex rather
// than a background goroutine, so the dispatcher stays the single
// authority over ordering.
type Manager struct {
	mu      sync.Mutex
	lobbies map[string]*Lobby
}

// NewManager creates an empty lobby manager.
func NewManager() *Manager {
	return &Manager{lobbies: make(map[string]*Lobby)}
}

// Count returns the number of live lobbies.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.lobbies)
}

// Create makes a new lobby with clientID as host, returning it.
func (m *Manager) Create(clientID string, host gameplay.Player, settings Settings) *Lobby {
	m.mu.Lock()
	defer m.mu.Unlock()

	code := m.newCodeLocked()
	now := time.Now()
	l := &Lobby{
		Code:     code,
		Settings: settings.Clamp(),
		Status:   StatusWaitingForPlayers,
		Participants: []*Participant{{
			ClientID:  clientID,
			Player:    host,
			IsHost:    true,
			Readiness: ReadinessReady,
		}},
		CreatedAt: now,
		UpdatedAt: now,
	}
	m.lobbies[code] = l
	return l
}

// newCodeLocked draws a fresh codeLength-character lobby code, retrying
// on the vanishingly unlikely collision with a code already in use.
func (m *Manager) newCodeLocked() string {
	for {
		code := generateCode()
		if _, exists := m.lobbies[code]; !exists {
			return code
		}
	}
}

func generateCode() string {
	buf := make([]byte, codeLength)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand failing means the OS entropy source is broken;
		// fall back to a time-derived code rather than panicking.
		now := time.Now().UnixNano()
		out := make([]byte, codeLength)
		for i := range out {
			out[i] = codeAlphabet[now%int64(len(codeAlphabet))]
			now /= int64(len(codeAlphabet))
		}
		return string(out)
	}
	out := make([]byte, codeLength)
	for i, b := range buf {
		out[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return string(out)
}

// Get returns the lobby for a code.
func (m *Manager) Get(code string) (*Lobby, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.lobbies[strings.ToUpper(code)]
	return l, ok
}

// FindByParticipant returns the lobby, if any, clientID currently
// belongs to.
func (m *Manager) FindByParticipant(clientID string) (*Lobby, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range m.lobbies {
		if _, ok := l.Find(clientID); ok {
			return l, true
		}
	}
	return nil, false
}

// Join adds clientID to the lobby at code. Per spec.md §4.4, the
// joining client is silently removed from any other live lobby it
// belongs to first (with cleanup if that lobby becomes empty).
func (m *Manager) Join(code, clientID string, player gameplay.Player) (*Lobby, error) {
	code = strings.ToUpper(code)
	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.lobbies[code]
	if !ok || l.Status == StatusClosed {
		return nil, ErrNotFound
	}
	if l.Status == StatusTournamentInProgress {
		return nil, ErrTournamentRunning
	}
	if len(l.Participants) >= l.Settings.MaxPlayers {
		return nil, ErrFull
	}
	if _, dup := l.Find(clientID); dup {
		return nil, errors.New("lobby: already a member")
	}

	m.removeFromOtherLobbiesLocked(code, clientID)

	l.Participants = append(l.Participants, &Participant{
		ClientID:  clientID,
		Player:    player,
		Readiness: ReadinessReady,
	})
	l.recomputeStatus()
	l.UpdatedAt = time.Now()
	return l, nil
}

func (m *Manager) removeFromOtherLobbiesLocked(exceptCode, clientID string) {
	for code, l := range m.lobbies {
		if code == exceptCode {
			continue
		}
		if _, ok := l.Find(clientID); !ok {
			continue
		}
		m.leaveLocked(l, clientID)
		if len(l.Participants) == 0 {
			delete(m.lobbies, code)
		}
	}
}

// Leave removes clientID from its lobby. If it was host and others
// remain, host status transfers to the next participant in list order.
// If the lobby becomes empty, it is deleted. Returns the lobby (nil if
// it was deleted) and whether clientID was found.
func (m *Manager) Leave(code, clientID string) (*Lobby, bool) {
	code = strings.ToUpper(code)
	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.lobbies[code]
	if !ok {
		return nil, false
	}
	if !m.leaveLocked(l, clientID) {
		return l, false
	}
	if len(l.Participants) == 0 {
		delete(m.lobbies, code)
		return nil, true
	}
	l.recomputeStatus()
	l.UpdatedAt = time.Now()
	return l, true
}

func (m *Manager) leaveLocked(l *Lobby, clientID string) bool {
	idx := -1
	wasHost := false
	for i, p := range l.Participants {
		if p.ClientID == clientID {
			idx = i
			wasHost = p.IsHost
			break
		}
	}
	if idx == -1 {
		return false
	}
	l.Participants = append(l.Participants[:idx], l.Participants[idx+1:]...)
	if wasHost && len(l.Participants) > 0 {
		l.Participants[0].IsHost = true
	}
	return true
}

// Kick removes targetClientID from the lobby, requiring callerClientID
// to be host. Semantically identical to Leave save for the caller's
// authority check; the dispatcher sends KICKED_FROM_LOBBY only to the
// removed participant.
func (m *Manager) Kick(code, callerClientID, targetClientID string) (*Lobby, error) {
	code = strings.ToUpper(code)
	m.mu.Lock()
	l, ok := m.lobbies[code]
	if !ok {
		m.mu.Unlock()
		return nil, ErrNotFound
	}
	host := l.HostClientID()
	m.mu.Unlock()

	if host != callerClientID {
		return nil, ErrNotHost
	}
	updated, found := m.Leave(code, targetClientID)
	if !found {
		return nil, errors.New("lobby: target not a member")
	}
	return updated, nil
}

// UpdateSettings merges partial settings into the lobby, host-only and
// rejected while a tournament is running. Every field in patch is
// merged only when present (zero value for the numeric/string fields,
// nil for the three toggles); anything else is left as-is.
func (m *Manager) UpdateSettings(code, callerClientID string, patch SettingsPatch) (*Lobby, error) {
	code = strings.ToUpper(code)
	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.lobbies[code]
	if !ok {
		return nil, ErrNotFound
	}
	if l.HostClientID() != callerClientID {
		return nil, ErrNotHost
	}
	if l.Status == StatusTournamentInProgress {
		return nil, ErrTournamentRunning
	}

	if patch.MaxPlayers != 0 {
		l.Settings.MaxPlayers = patch.MaxPlayers
	}
	if patch.RoundCount != 0 {
		l.Settings.RoundCount = patch.RoundCount
	}
	if patch.TournamentFormat != "" {
		l.Settings.TournamentFormat = patch.TournamentFormat
	}
	if patch.AllowSpectators != nil {
		l.Settings.AllowSpectators = *patch.AllowSpectators
	}
	if patch.ChatEnabled != nil {
		l.Settings.ChatEnabled = *patch.ChatEnabled
	}
	if patch.AutoStartWhenFull != nil {
		l.Settings.AutoStartWhenFull = *patch.AutoStartWhenFull
	}
	l.Settings = l.Settings.Clamp()
	l.recomputeStatus()
	l.UpdatedAt = time.Now()
	return l, nil
}

// Close deletes the lobby, host-only.
func (m *Manager) Close(code, callerClientID string) (*Lobby, error) {
	code = strings.ToUpper(code)
	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.lobbies[code]
	if !ok {
		return nil, ErrNotFound
	}
	if l.HostClientID() != callerClientID {
		return nil, ErrNotHost
	}
	l.Status = StatusClosed
	delete(m.lobbies, code)
	return l, nil
}

// StartTournament flips the lobby into tournament_in_progress, host-only,
// called once the tournament engine has accepted the roster.
func (m *Manager) StartTournament(code, callerClientID, tournamentID string) (*Lobby, error) {
	code = strings.ToUpper(code)
	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.lobbies[code]
	if !ok {
		return nil, ErrNotFound
	}
	if l.HostClientID() != callerClientID {
		return nil, ErrNotHost
	}
	if l.Status == StatusTournamentInProgress {
		return nil, ErrTournamentRunning
	}
	if len(l.Participants) < MinPlayers {
		return nil, errors.New("lobby: not enough players")
	}
	l.Status = StatusTournamentInProgress
	l.TournamentID = tournamentID
	l.UpdatedAt = time.Now()
	return l, nil
}

// ValidateChat checks a chat message against spec.md §4.4's rules
// without mutating anything.
func (l *Lobby) ValidateChat(message string) error {
	if !l.Settings.ChatEnabled {
		return ErrChatDisabled
	}
	if strings.TrimSpace(message) == "" {
		return ErrMessageEmpty
	}
	if len(message) > MaxChatLen {
		return ErrMessageTooLong
	}
	return nil
}
