package lobby

import (
	"strings"
	"testing"

	"github.com/duellab/pdserver/internal/gameplay"
)

func TestSettingsClampBounds(t *testing.T) {
	tests := []struct {
		name           string
		in             Settings
		wantMaxPlayers int
		wantRoundCount int
	}{
		{"within bounds unchanged", Settings{MaxPlayers: 8, RoundCount: 10}, 8, 10},
		{"max players below minimum clamps up", Settings{MaxPlayers: 1, RoundCount: 10}, MinPlayers, 10},
		{"max players above maximum clamps down", Settings{MaxPlayers: 100, RoundCount: 10}, MaxPlayers, 10},
		{"round count below minimum clamps up", Settings{MaxPlayers: 8, RoundCount: 1}, 8, MinRounds},
		{"round count above maximum clamps down", Settings{MaxPlayers: 8, RoundCount: 100}, 8, MaxRounds},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.in.Clamp()
			if got.MaxPlayers != tt.wantMaxPlayers {
				t.Errorf("MaxPlayers = %d, want %d", got.MaxPlayers, tt.wantMaxPlayers)
			}
			if got.RoundCount != tt.wantRoundCount {
				t.Errorf("RoundCount = %d, want %d", got.RoundCount, tt.wantRoundCount)
			}
		})
	}
}

func TestCreateClampsSettingsAndSeedsHost(t *testing.T) {
	m := NewManager()
	l := m.Create("host1", gameplay.Player{ID: "host1"}, Settings{MaxPlayers: 100, RoundCount: 10})
	if l.Settings.MaxPlayers != MaxPlayers {
		t.Errorf("MaxPlayers = %d, want clamped %d", l.Settings.MaxPlayers, MaxPlayers)
	}
	if len(l.Participants) != 1 || !l.Participants[0].IsHost {
		t.Fatalf("expected exactly one host participant, got %#v", l.Participants)
	}
	if l.Status != StatusWaitingForPlayers {
		t.Errorf("status = %s, want waiting_for_players", l.Status)
	}
}

func TestJoinRejectsFullLobby(t *testing.T) {
	m := NewManager()
	l := m.Create("host1", gameplay.Player{ID: "host1"}, Settings{MaxPlayers: MinPlayers})
	for i := 1; i < MinPlayers; i++ {
		id := strings.Repeat("p", i)
		if _, err := m.Join(l.Code, id, gameplay.Player{ID: id}); err != nil {
			t.Fatalf("join %d: %v", i, err)
		}
	}
	if _, err := m.Join(l.Code, "overflow", gameplay.Player{ID: "overflow"}); err != ErrFull {
		t.Errorf("join beyond MaxPlayers = %v, want ErrFull", err)
	}
}

func TestJoinMovesParticipantOutOfPriorLobby(t *testing.T) {
	m := NewManager()
	first := m.Create("host1", gameplay.Player{ID: "host1"}, DefaultSettings())
	second := m.Create("host2", gameplay.Player{ID: "host2"}, DefaultSettings())

	if _, err := m.Join(first.Code, "wanderer", gameplay.Player{ID: "wanderer"}); err != nil {
		t.Fatalf("join first: %v", err)
	}
	if _, err := m.Join(second.Code, "wanderer", gameplay.Player{ID: "wanderer"}); err != nil {
		t.Fatalf("join second: %v", err)
	}
	if _, ok := first.Find("wanderer"); ok {
		t.Errorf("wanderer still present in first lobby after joining second")
	}
	if _, ok := second.Find("wanderer"); !ok {
		t.Errorf("wanderer not present in second lobby")
	}
}

func TestLeaveTransfersHostToNextParticipant(t *testing.T) {
	m := NewManager()
	l := m.Create("host1", gameplay.Player{ID: "host1"}, DefaultSettings())
	if _, err := m.Join(l.Code, "p2", gameplay.Player{ID: "p2"}); err != nil {
		t.Fatalf("join: %v", err)
	}
	updated, ok := m.Leave(l.Code, "host1")
	if !ok || updated == nil {
		t.Fatalf("Leave(host1) = (%v, %v), want found lobby", updated, ok)
	}
	if updated.HostClientID() != "p2" {
		t.Errorf("HostClientID = %q, want p2 after host left", updated.HostClientID())
	}
}

func TestLeaveLastParticipantDeletesLobby(t *testing.T) {
	m := NewManager()
	l := m.Create("host1", gameplay.Player{ID: "host1"}, DefaultSettings())
	updated, ok := m.Leave(l.Code, "host1")
	if !ok {
		t.Fatalf("Leave(last participant) = not found, want found")
	}
	if updated != nil {
		t.Errorf("Leave(last participant) returned %#v, want nil", updated)
	}
	if _, stillThere := m.Get(l.Code); stillThere {
		t.Errorf("lobby still present after last participant left")
	}
}

func TestKickRequiresHost(t *testing.T) {
	m := NewManager()
	l := m.Create("host1", gameplay.Player{ID: "host1"}, DefaultSettings())
	if _, err := m.Join(l.Code, "p2", gameplay.Player{ID: "p2"}); err != nil {
		t.Fatalf("join: %v", err)
	}
	if _, err := m.Kick(l.Code, "p2", "host1"); err != ErrNotHost {
		t.Errorf("non-host Kick = %v, want ErrNotHost", err)
	}
	if _, err := m.Kick(l.Code, "host1", "p2"); err != nil {
		t.Errorf("host Kick = %v, want nil", err)
	}
}

func TestUpdateSettingsRejectedDuringTournament(t *testing.T) {
	m := NewManager()
	l := m.Create("host1", gameplay.Player{ID: "host1"}, DefaultSettings())
	for i := 0; i < MinPlayers-1; i++ {
		id := strings.Repeat("x", i+1)
		if _, err := m.Join(l.Code, id, gameplay.Player{ID: id}); err != nil {
			t.Fatalf("join: %v", err)
		}
	}
	if _, err := m.StartTournament(l.Code, "host1", "tour-1"); err != nil {
		t.Fatalf("StartTournament: %v", err)
	}
	if _, err := m.UpdateSettings(l.Code, "host1", SettingsPatch{RoundCount: 8}); err != ErrTournamentRunning {
		t.Errorf("UpdateSettings during tournament = %v, want ErrTournamentRunning", err)
	}
}

func TestUpdateSettingsOnlyTouchesSentFields(t *testing.T) {
	m := NewManager()
	l := m.Create("host1", gameplay.Player{ID: "host1"}, DefaultSettings())
	if !l.Settings.ChatEnabled {
		t.Fatalf("test setup assumption broken: default ChatEnabled should be true")
	}

	updated, err := m.UpdateSettings(l.Code, "host1", SettingsPatch{MaxPlayers: 12})
	if err != nil {
		t.Fatalf("UpdateSettings: %v", err)
	}
	if updated.Settings.MaxPlayers != 12 {
		t.Errorf("MaxPlayers = %d, want 12", updated.Settings.MaxPlayers)
	}
	if !updated.Settings.ChatEnabled {
		t.Errorf("ChatEnabled flipped to false by an update that didn't mention it")
	}

	disable := false
	updated, err = m.UpdateSettings(l.Code, "host1", SettingsPatch{ChatEnabled: &disable})
	if err != nil {
		t.Fatalf("UpdateSettings: %v", err)
	}
	if updated.Settings.ChatEnabled {
		t.Errorf("ChatEnabled = true, want false after an explicit update")
	}
	if updated.Settings.MaxPlayers != 12 {
		t.Errorf("MaxPlayers regressed to %d after an unrelated update, want 12", updated.Settings.MaxPlayers)
	}
}

func TestStartTournamentRequiresMinimumPlayers(t *testing.T) {
	m := NewManager()
	l := m.Create("host1", gameplay.Player{ID: "host1"}, DefaultSettings())
	if _, err := m.StartTournament(l.Code, "host1", "tour-1"); err == nil {
		t.Errorf("StartTournament with 1 player succeeded, want an error")
	}
}

func TestValidateChat(t *testing.T) {
	l := &Lobby{Settings: Settings{ChatEnabled: true}}

	if err := l.ValidateChat("gg"); err != nil {
		t.Errorf("valid message rejected: %v", err)
	}
	if err := l.ValidateChat("   "); err != ErrMessageEmpty {
		t.Errorf("blank message = %v, want ErrMessageEmpty", err)
	}
	if err := l.ValidateChat(strings.Repeat("a", MaxChatLen)); err != nil {
		t.Errorf("message at exactly MaxChatLen rejected: %v", err)
	}
	if err := l.ValidateChat(strings.Repeat("a", MaxChatLen+1)); err != ErrMessageTooLong {
		t.Errorf("message over MaxChatLen = %v, want ErrMessageTooLong", err)
	}

	l.Settings.ChatEnabled = false
	if err := l.ValidateChat("gg"); err != ErrChatDisabled {
		t.Errorf("chat disabled = %v, want ErrChatDisabled", err)
	}
}
