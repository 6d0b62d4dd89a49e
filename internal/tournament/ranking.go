package tournament

import (
	"sort"

	"github.com/duellab/pdserver/internal/wire"
)

// rankByWinsThenPoints orders every participant by descending (wins,
// totalPoints), per spec.md §4.6, assigning 1-based ranks.
func (t *Tournament) rankByWinsThenPoints() []StandingEntry {
	entries := make([]StandingEntry, 0, len(t.Players))
	for id, p := range t.Players {
		entries = append(entries, StandingEntry{
			TournamentPlayerID: id,
			Wins:               p.Wins,
			Losses:             p.Losses,
			TotalPoints:        p.TotalPoints,
		})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Wins != entries[j].Wins {
			return entries[i].Wins > entries[j].Wins
		}
		return entries[i].TotalPoints > entries[j].TotalPoints
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries
}

func (t *Tournament) completedMsg() wire.TournamentCompletedMsg {
	views := make([]wire.StandingView, 0, len(t.Standings))
	for _, s := range t.Standings {
		views = append(views, wire.StandingView{
			PlayerID: s.TournamentPlayerID, Rank: s.Rank,
			Wins: s.Wins, Losses: s.Losses, TotalPoints: s.TotalPoints,
		})
	}
	return wire.TournamentCompletedMsg{
		TournamentID: t.ID,
		WinnerID:     t.WinnerID,
		Standings:    views,
	}
}
