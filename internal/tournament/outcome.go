package tournament

import "github.com/duellab/pdserver/internal/wire"

// RecipientMsg pairs a tournament-player-id with a message addressed to
// it; the dispatcher resolves the id to a live connection via the
// alias map (session.Registry.ResolveConnection) before sending.
type RecipientMsg struct {
	TournamentPlayerID string
	Msg                wire.Outbound
}

// MatchStart asks the dispatcher to instantiate a match.Engine match for
// one bracket slot.
type MatchStart struct {
	SlotID           string
	Round            int
	PlayerAID        string
	PlayerBID        string
	TiebreakerEligible bool
}

// Outcome is what the dispatcher must do after a tournament-engine
// operation.
type Outcome struct {
	LobbyBroadcast []wire.Outbound // sent to every lobby participant
	Direct         []RecipientMsg  // sent to specific tournament-player-ids
	StartMatches   []MatchStart    // matches the dispatcher must now create
	Completed      bool
}

func merge(dst *Outcome, src Outcome) {
	dst.LobbyBroadcast = append(dst.LobbyBroadcast, src.LobbyBroadcast...)
	dst.Direct = append(dst.Direct, src.Direct...)
	dst.StartMatches = append(dst.StartMatches, src.StartMatches...)
	if src.Completed {
		dst.Completed = true
	}
}
