package wire

import "github.com/duellab/pdserver/internal/gameplay"

type RegisteredMsg struct {
	ClientID      string `json:"clientId"`
	Authenticated bool   `json:"authenticated"`
	UserID        string `json:"userId"`
}

func (RegisteredMsg) WireType() string { return "REGISTERED" }

type QueueStatusMsg struct {
	Position       int `json:"position"`
	QueueSize      int `json:"queueSize"`
	EstimatedWaitS int `json:"estimatedWaitSeconds"`
}

func (QueueStatusMsg) WireType() string { return "QUEUE_STATUS" }

type MatchFoundMsg struct {
	MatchID   string           `json:"matchId"`
	Opponent  gameplay.Player  `json:"opponent"`
	IsPlayer1 bool             `json:"isPlayer1"`
}

func (MatchFoundMsg) WireType() string { return "MATCH_FOUND" }

type NewRoundMsg struct {
	Round         int  `json:"round"`
	TimerDuration int  `json:"timerDuration"`
	Tiebreaker    bool `json:"tiebreaker,omitempty"`
}

func (NewRoundMsg) WireType() string { return "NEW_ROUND" }

type RoundResultMsg struct {
	Round              int               `json:"round"`
	YourDecision       gameplay.Decision `json:"yourDecision"`
	OpponentDecision   gameplay.Decision `json:"opponentDecision"`
	YourRoundScore     int               `json:"yourRoundScore"`
	OpponentRoundScore int               `json:"opponentRoundScore"`
	YourTotal          int               `json:"yourTotal"`
	OpponentTotal      int               `json:"opponentTotal"`
}

func (RoundResultMsg) WireType() string { return "ROUND_RESULT" }

type GameOverMsg struct {
	Winner      string         `json:"winner"` // "player1" | "player2" | "tie"
	FinalScores map[string]int `json:"finalScores"`
	TotalRounds int            `json:"totalRounds"`
}

func (GameOverMsg) WireType() string { return "GAME_OVER" }

type ShowStatisticsMsg struct {
	YourScore     int  `json:"yourScore"`
	OpponentScore int  `json:"opponentScore"`
	Won           bool `json:"won"`
	Tied          bool `json:"tied"`
	Forfeit       bool `json:"forfeit"`
	Immediate     bool `json:"immediate"`
}

func (ShowStatisticsMsg) WireType() string { return "SHOW_STATISTICS" }

type ReversalApprovedMsg struct{}

func (ReversalApprovedMsg) WireType() string { return "REVERSAL_APPROVED" }

type ReversalRejectedMsg struct{}

func (ReversalRejectedMsg) WireType() string { return "REVERSAL_REJECTED" }

type WaitingForOtherPlayerMsg struct{}

func (WaitingForOtherPlayerMsg) WireType() string { return "WAITING_FOR_OTHER_PLAYER" }

type FinalScoresUpdateMsg struct {
	YourScore     int `json:"yourScore"`
	OpponentScore int `json:"opponentScore"`
}

func (FinalScoresUpdateMsg) WireType() string { return "FINAL_SCORES_UPDATE" }

type ForfeitConfirmedMsg struct{}

func (ForfeitConfirmedMsg) WireType() string { return "FORFEIT_CONFIRMED" }

type OpponentDisconnectedMsg struct{}

func (OpponentDisconnectedMsg) WireType() string { return "OPPONENT_DISCONNECTED" }

type TournamentOpponentDisconnectedMsg struct{}

func (TournamentOpponentDisconnectedMsg) WireType() string {
	return "TOURNAMENT_OPPONENT_DISCONNECTED"
}

type TournamentOpponentReconnectedMsg struct{}

func (TournamentOpponentReconnectedMsg) WireType() string {
	return "TOURNAMENT_OPPONENT_RECONNECTED"
}

type TournamentMatchReconnectedMsg struct {
	MatchID  string          `json:"matchId"`
	Opponent gameplay.Player `json:"opponent"`
	Round    int             `json:"round"`
	Scores   map[string]int  `json:"scores"`
	State    string          `json:"state"`
}

func (TournamentMatchReconnectedMsg) WireType() string { return "TOURNAMENT_MATCH_RECONNECTED" }

type TournamentStartedMsg struct {
	TournamentID string `json:"tournamentId"`
	Format       string `json:"format"`
	TotalRounds  int    `json:"totalRounds"`
}

func (TournamentStartedMsg) WireType() string { return "TOURNAMENT_STARTED" }

type TournamentMatchReadyMsg struct {
	MatchID  string          `json:"matchId"`
	Opponent gameplay.Player `json:"opponent"`
	Round    int             `json:"round"`
}

func (TournamentMatchReadyMsg) WireType() string { return "TOURNAMENT_MATCH_READY" }

type TournamentRoundStartedMsg struct {
	Round int `json:"round"`
}

func (TournamentRoundStartedMsg) WireType() string { return "TOURNAMENT_ROUND_STARTED" }

type TournamentMatchCompletedMsg struct {
	MatchID  string `json:"matchId"`
	WinnerID string `json:"winnerId"`
	Score1   int    `json:"score1"`
	Score2   int    `json:"score2"`
}

func (TournamentMatchCompletedMsg) WireType() string { return "TOURNAMENT_MATCH_COMPLETED" }

type TournamentCompletedMsg struct {
	TournamentID string         `json:"tournamentId"`
	WinnerID     string         `json:"winnerId"`
	Standings    []StandingView `json:"standings,omitempty"`
}

func (TournamentCompletedMsg) WireType() string { return "TOURNAMENT_COMPLETED" }

// StandingView is the outbound shape for a round-robin/elimination
// leaderboard entry.
type StandingView struct {
	PlayerID    string `json:"playerId"`
	Rank        int    `json:"rank"`
	Wins        int    `json:"wins"`
	Losses      int    `json:"losses"`
	TotalPoints int    `json:"totalPoints"`
}

type LobbyCreatedMsg struct {
	Code string     `json:"code"`
	View LobbyView  `json:"lobby"`
}

func (LobbyCreatedMsg) WireType() string { return "LOBBY_CREATED" }

type LobbyJoinedMsg struct {
	Code string    `json:"code"`
	View LobbyView `json:"lobby"`
}

func (LobbyJoinedMsg) WireType() string { return "LOBBY_JOINED" }

type LobbyUpdatedMsg struct {
	View LobbyView `json:"lobby"`
}

func (LobbyUpdatedMsg) WireType() string { return "LOBBY_UPDATED" }

type LobbyClosedMsg struct {
	Code string `json:"code"`
}

func (LobbyClosedMsg) WireType() string { return "LOBBY_CLOSED" }

type KickedFromLobbyMsg struct {
	Code string `json:"code"`
}

func (KickedFromLobbyMsg) WireType() string { return "KICKED_FROM_LOBBY" }

type PongMsg struct{}

func (PongMsg) WireType() string { return "PONG" }

// LobbyView / LobbyParticipantView are the outbound projections of the
// lobby entity (SPEC_FULL.md §3).
type LobbyView struct {
	Code              string                   `json:"code"`
	HostClientID      string                   `json:"hostClientId"`
	Participants      []LobbyParticipantView    `json:"participants"`
	MaxPlayers        int                       `json:"maxPlayers"`
	RoundCount        int                       `json:"roundCount"`
	TournamentFormat  string                    `json:"tournamentFormat"`
	AllowSpectators   bool                      `json:"allowSpectators"`
	ChatEnabled       bool                      `json:"chatEnabled"`
	AutoStartWhenFull bool                      `json:"autoStartWhenFull"`
	Status            string                    `json:"status"`
	CurrentCount      int                       `json:"currentPlayerCount"`
}

type LobbyParticipantView struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	IsHost    bool   `json:"isHost"`
	Readiness string `json:"readiness"`
}

type ChatMsg struct {
	MatchID   string `json:"matchId"`
	SenderID  string `json:"senderId"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

func (ChatMsg) WireType() string { return "GAME_MESSAGE" }
