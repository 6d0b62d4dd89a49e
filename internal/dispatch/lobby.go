package dispatch

import (
	"github.com/duellab/pdserver/internal/lobby"
	"github.com/duellab/pdserver/internal/tournament"
	"github.com/duellab/pdserver/internal/wire"
)

// settingsFromMsg builds a fresh lobby's full settings for
// CREATE_PARTY_LOBBY: it starts from lobby.DefaultSettings() and
// overlays whichever fields the client actually sent, so an omitted
// toggle falls back to the default rather than to false.
func settingsFromMsg(s wire.LobbySettingsMsg) lobby.Settings {
	out := lobby.DefaultSettings()
	if s.MaxPlayers != 0 {
		out.MaxPlayers = s.MaxPlayers
	}
	if s.RoundCount != 0 {
		out.RoundCount = s.RoundCount
	}
	if s.TournamentFormat != "" {
		out.TournamentFormat = lobby.Format(s.TournamentFormat)
	}
	if s.AllowSpectators != nil {
		out.AllowSpectators = *s.AllowSpectators
	}
	if s.ChatEnabled != nil {
		out.ChatEnabled = *s.ChatEnabled
	}
	if s.AutoStartWhenFull != nil {
		out.AutoStartWhenFull = *s.AutoStartWhenFull
	}
	return out
}

// settingsPatchFromMsg carries an UPDATE_LOBBY_SETTINGS request through
// unchanged, so lobby.Manager.UpdateSettings can tell an omitted field
// apart from one explicitly set to false/zero.
func settingsPatchFromMsg(s wire.LobbySettingsMsg) lobby.SettingsPatch {
	return lobby.SettingsPatch{
		MaxPlayers:        s.MaxPlayers,
		RoundCount:        s.RoundCount,
		TournamentFormat:  lobby.Format(s.TournamentFormat),
		AllowSpectators:   s.AllowSpectators,
		ChatEnabled:       s.ChatEnabled,
		AutoStartWhenFull: s.AutoStartWhenFull,
	}
}

func toLobbyView(l *lobby.Lobby) wire.LobbyView {
	participants := make([]wire.LobbyParticipantView, 0, len(l.Participants))
	for _, p := range l.Participants {
		participants = append(participants, wire.LobbyParticipantView{
			ID:        p.ClientID,
			Name:      p.Player.DisplayName,
			IsHost:    p.IsHost,
			Readiness: string(p.Readiness),
		})
	}
	return wire.LobbyView{
		Code:              l.Code,
		HostClientID:      l.HostClientID(),
		Participants:      participants,
		MaxPlayers:        l.Settings.MaxPlayers,
		RoundCount:        l.Settings.RoundCount,
		TournamentFormat:  string(l.Settings.TournamentFormat),
		AllowSpectators:   l.Settings.AllowSpectators,
		ChatEnabled:       l.Settings.ChatEnabled,
		AutoStartWhenFull: l.Settings.AutoStartWhenFull,
		Status:            string(l.Status),
		CurrentCount:      len(l.Participants),
	}
}

func lobbyErrorCode(err error) wire.ErrorCode {
	switch err {
	case lobby.ErrNotFound:
		return wire.ErrLobbyNotFound
	case lobby.ErrFull:
		return wire.ErrLobbyFull
	case lobby.ErrTournamentRunning:
		return wire.ErrTournamentInProgress
	case lobby.ErrNotHost:
		return wire.ErrNotHost
	default:
		return wire.ErrInvalidRequest
	}
}

func (l *Loop) handleCreatePartyLobby(clientID string, env wire.Envelope) {
	var msg wire.CreatePartyLobbyMsg
	if !l.decode(clientID, env, &msg) {
		return
	}
	host := msg.Player.ToPlayer()
	if msg.HostPlayerName != "" {
		host.DisplayName = msg.HostPlayerName
	}
	lb := l.lobbies.Create(clientID, host, settingsFromMsg(msg.Settings))
	l.cast.ToClient(clientID, wire.LobbyCreatedMsg{Code: lb.Code, View: toLobbyView(lb)})
}

func (l *Loop) handleJoinPartyLobby(clientID string, env wire.Envelope) {
	var msg wire.JoinPartyLobbyMsg
	if !l.decode(clientID, env, &msg) {
		return
	}
	player := msg.Player.ToPlayer()
	if msg.PlayerName != "" {
		player.DisplayName = msg.PlayerName
	}

	lb, err := l.lobbies.Join(msg.LobbyCode, clientID, player)
	if err != nil {
		l.cast.ToClient(clientID, wire.NewError(lobbyErrorCode(err), ""))
		return
	}
	l.cast.ToClient(clientID, wire.LobbyJoinedMsg{Code: lb.Code, View: toLobbyView(lb)})
	l.cast.ToLobby(lb, wire.LobbyUpdatedMsg{View: toLobbyView(lb)})
}

func (l *Loop) handleLeavePartyLobby(clientID string, env wire.Envelope) {
	var msg wire.LeavePartyLobbyMsg
	if !l.decode(clientID, env, &msg) {
		return
	}
	l.leaveLobbyLocked(msg.LobbyCode, clientID)
}

// leaveLobbyLocked removes clientID from a lobby and notifies whoever
// remains; safe to call with no effect if clientID wasn't a member.
func (l *Loop) leaveLobbyLocked(code, clientID string) {
	lb, found := l.lobbies.Leave(code, clientID)
	if !found {
		return
	}
	if lb != nil {
		l.cast.ToLobby(lb, wire.LobbyUpdatedMsg{View: toLobbyView(lb)})
	}
}

func (l *Loop) handleUpdateLobbySettings(clientID string, env wire.Envelope) {
	var msg wire.UpdateLobbySettingsMsg
	if !l.decode(clientID, env, &msg) {
		return
	}
	lb, err := l.lobbies.UpdateSettings(msg.LobbyID, clientID, settingsPatchFromMsg(msg.Settings))
	if err != nil {
		l.cast.ToClient(clientID, wire.NewError(lobbyErrorCode(err), ""))
		return
	}
	l.cast.ToLobby(lb, wire.LobbyUpdatedMsg{View: toLobbyView(lb)})
}

func (l *Loop) handleKickPlayer(clientID string, env wire.Envelope) {
	var msg wire.KickPlayerMsg
	if !l.decode(clientID, env, &msg) {
		return
	}
	lb, ok := l.lobbies.FindByParticipant(clientID)
	if !ok {
		l.cast.ToClient(clientID, wire.NewError(wire.ErrLobbyNotFound, ""))
		return
	}
	code := lb.Code
	updated, err := l.lobbies.Kick(code, clientID, msg.TargetPlayerID)
	if err != nil {
		l.cast.ToClient(clientID, wire.NewError(lobbyErrorCode(err), ""))
		return
	}
	l.cast.ToClient(msg.TargetPlayerID, wire.KickedFromLobbyMsg{Code: code})
	if updated != nil {
		l.cast.ToLobby(updated, wire.LobbyUpdatedMsg{View: toLobbyView(updated)})
	}
}

func (l *Loop) handleCloseLobby(clientID string) {
	lb, ok := l.lobbies.FindByParticipant(clientID)
	if !ok {
		l.cast.ToClient(clientID, wire.NewError(wire.ErrLobbyNotFound, ""))
		return
	}
	closed, err := l.lobbies.Close(lb.Code, clientID)
	if err != nil {
		l.cast.ToClient(clientID, wire.NewError(lobbyErrorCode(err), ""))
		return
	}
	l.cast.ToLobby(closed, wire.LobbyClosedMsg{Code: closed.Code})
}

func (l *Loop) handleStartTournament(clientID string, env wire.Envelope) {
	var msg wire.StartTournamentMsg
	if !l.decode(clientID, env, &msg) {
		return
	}
	lb, ok := l.lobbies.Get(msg.LobbyID)
	if !ok {
		l.cast.ToClient(clientID, wire.NewError(wire.ErrLobbyNotFound, ""))
		return
	}
	if lb.HostClientID() != clientID {
		l.cast.ToClient(clientID, wire.NewError(wire.ErrNotHost, ""))
		return
	}
	if len(lb.Participants) < lobby.MinPlayers {
		l.cast.ToClient(clientID, wire.NewError(wire.ErrInsufficientPlayers, ""))
		return
	}

	tournamentID := newID()
	participants := make([]tournament.Participant, 0, len(lb.Participants))
	for _, p := range lb.Participants {
		alias, ok := l.registry.AliasForClient(p.ClientID)
		if !ok {
			alias = newID()
			l.registry.SetAlias(p.ClientID, alias)
		}
		participants = append(participants, tournament.Participant{
			TournamentPlayerID: alias,
			ClientID:           p.ClientID,
			Player:             p.Player,
		})
	}

	_, out, err := l.tournaments.Start(tournamentID, lb.Code, tournament.Format(lb.Settings.TournamentFormat), lb.Settings.RoundCount, participants)
	if err != nil {
		if err == tournament.ErrInvalidSize {
			l.cast.ToClient(clientID, wire.NewError(wire.ErrInvalidTournamentSz, ""))
		} else {
			l.cast.ToClient(clientID, wire.NewError(wire.ErrFormatUnsupported, ""))
		}
		return
	}
	if _, err := l.lobbies.StartTournament(lb.Code, clientID, tournamentID); err != nil {
		return
	}
	l.applyTournamentOutcome(tournamentID, out)
}
