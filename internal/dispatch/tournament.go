package dispatch

import (
	"github.com/duellab/pdserver/internal/lobby"
	"github.com/duellab/pdserver/internal/match"
	"github.com/duellab/pdserver/internal/tournament"
	"github.com/duellab/pdserver/internal/wire"
)

// applyTournamentOutcome resolves a tournament-engine Outcome: lobby-wide
// broadcasts go to every current lobby participant, Direct messages go
// to whichever connection currently owns each tournament-player-id
// alias, and StartMatches become real match.Engine matches (one per
// bracket slot), with the resulting engine match id recorded back onto
// the slot so a later ReportResult can find it again.
func (l *Loop) applyTournamentOutcome(tournamentID string, out tournament.Outcome) {
	t, ok := l.tournaments.Get(tournamentID)
	if !ok {
		return
	}

	if lb, ok := l.lobbies.Get(t.LobbyCode); ok {
		for _, msg := range out.LobbyBroadcast {
			l.cast.ToLobby(lb, msg)
		}
		if out.Completed {
			if len(lb.Participants) >= lobby.MinPlayers {
				lb.Status = lobby.StatusReadyToStart
			} else {
				lb.Status = lobby.StatusWaitingForPlayers
			}
			l.cast.ToLobby(lb, wire.LobbyUpdatedMsg{View: toLobbyView(lb)})
		}
	}

	for _, d := range out.Direct {
		l.cast.ToAlias(d.TournamentPlayerID, d.Msg)
	}

	for _, ms := range out.StartMatches {
		a, aok := t.Players[ms.PlayerAID]
		b, bok := t.Players[ms.PlayerBID]
		if !aok || !bok {
			continue
		}
		m := l.createMatch(a.ClientID, a.Player, b.ClientID, b.Player, match.CreateOptions{
			MaxRounds:          t.MaxRounds,
			IsTournamentMatch:  true,
			TournamentID:       tournamentID,
			TournamentMatchID:  ms.SlotID,
			TiebreakerEligible: ms.TiebreakerEligible,
		}, "tournament")
		if slot, ok := t.Slots[ms.SlotID]; ok {
			slot.EngineMatchID = m.ID
		}
	}
}
