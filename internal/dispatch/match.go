package dispatch

import (
	"crypto/rand"
	"strings"

	"github.com/duellab/pdserver/internal/match"
	"github.com/duellab/pdserver/internal/wire"
)

const matchChatMaxLen = 500

func matchErrorCode(err error) wire.ErrorCode {
	switch err {
	case match.ErrNotFound:
		return wire.ErrMatchNotFound
	case match.ErrWrongPhase:
		return wire.ErrWrongPhase
	case match.ErrAlreadyDecided:
		return wire.ErrAlreadyDecided
	default: // ErrNotParticipant, ErrStaleRound
		return wire.ErrInvalidRequest
	}
}

// applyMatchOutcome delivers a match-engine Outcome's per-side messages
// and forwards its Persist/TournamentSignal side effects. m must still
// be present in the engine (true for every caller: direct handlers
// never trigger removal, and Sweep's Removed branch carries no
// messages or signals to deliver in the first place).
func (l *Loop) applyMatchOutcome(matchID string, out match.Outcome) {
	m, ok := l.matches.Get(matchID)
	if ok {
		l.cast.ToMatch(m.P1.ClientID, out.ToP1, m.P2.ClientID, out.ToP2)
	}
	if out.Persist != nil {
		gameMode := l.matchSource[matchID]
		if gameMode == "" {
			gameMode = "queue"
		}
		l.bridge.Record(bgCtx(), *out.Persist, gameMode)
		delete(l.matchSource, matchID)
	}
	if out.TournamentSignal != nil && ok {
		l.reportTournamentResult(m, *out.TournamentSignal)
	}
}

// reportTournamentResult resolves a finished tournament match's client
// ids to tournament-player-ids and feeds the bracket. A tie in a
// non-tiebreaker-eligible match (round-robin, double-elimination) has
// no draw representation in the bracket model, so it is broken by a
// fair coin flip here — an Open Question spec.md leaves unresolved for
// formats other than single-elimination's built-in tiebreaker rounds.
func (l *Loop) reportTournamentResult(m *match.Match, sig match.TournamentSignal) {
	winnerClientID := sig.WinnerClientID
	if winnerClientID == "" {
		winnerClientID = m.P1.ClientID
		if !coinFlipP1() {
			winnerClientID = m.P2.ClientID
		}
	}

	isP1Winner := winnerClientID == m.P1.ClientID
	winnerClient, loserClient := m.P1.ClientID, m.P2.ClientID
	scoreWinner, scoreLoser := sig.ScoreP1, sig.ScoreP2
	if !isP1Winner {
		winnerClient, loserClient = m.P2.ClientID, m.P1.ClientID
		scoreWinner, scoreLoser = sig.ScoreP2, sig.ScoreP1
	}

	winnerAlias, ok := l.registry.AliasForClient(winnerClient)
	if !ok {
		winnerAlias = winnerClient
	}
	loserAlias, ok := l.registry.AliasForClient(loserClient)
	if !ok {
		loserAlias = loserClient
	}

	out, err := l.tournaments.ReportResult(sig.TournamentID, sig.MatchID, winnerAlias, loserAlias, scoreWinner, scoreLoser)
	if err != nil {
		return
	}
	l.applyTournamentOutcome(sig.TournamentID, out)
}

func coinFlipP1() bool {
	var b [1]byte
	if _, err := rand.Read(b[:]); err != nil {
		return true
	}
	return b[0]&1 == 0
}

func (l *Loop) handleGameDecision(clientID string, env wire.Envelope) {
	var msg wire.GameDecisionMsg
	if !l.decode(clientID, env, &msg) {
		return
	}
	out, err := l.matches.HandleDecision(msg.MatchID, clientID, msg.Round, msg.Decision)
	if err != nil {
		l.cast.ToClient(clientID, wire.NewError(matchErrorCode(err), ""))
		return
	}
	l.applyMatchOutcome(msg.MatchID, out)
}

func (l *Loop) handleGameMessage(clientID string, env wire.Envelope) {
	var msg wire.GameMessageMsg
	if !l.decode(clientID, env, &msg) {
		return
	}
	m, ok := l.matches.Get(msg.MatchID)
	if !ok {
		l.cast.ToClient(clientID, wire.NewError(wire.ErrMatchNotFound, ""))
		return
	}
	var opponent string
	switch clientID {
	case m.P1.ClientID:
		opponent = m.P2.ClientID
	case m.P2.ClientID:
		opponent = m.P1.ClientID
	default:
		l.cast.ToClient(clientID, wire.NewError(wire.ErrInvalidRequest, ""))
		return
	}
	if strings.TrimSpace(msg.Message) == "" {
		l.cast.ToClient(clientID, wire.NewError(wire.ErrMessageEmpty, ""))
		return
	}
	if len(msg.Message) > matchChatMaxLen {
		l.cast.ToClient(clientID, wire.NewError(wire.ErrMessageTooLong, ""))
		return
	}

	chat := wire.ChatMsg{MatchID: msg.MatchID, SenderID: clientID, Message: msg.Message, Timestamp: msg.Timestamp}
	l.cast.ToClient(clientID, chat)
	l.cast.ToClient(opponent, chat)
}

func (l *Loop) handleForfeitMatch(clientID string) {
	m, ok := l.matches.FindByParticipant(clientID)
	if !ok {
		l.cast.ToClient(clientID, wire.NewError(wire.ErrMatchNotFound, ""))
		return
	}
	out, err := l.matches.HandleForfeit(m.ID, clientID)
	if err != nil {
		l.cast.ToClient(clientID, wire.NewError(matchErrorCode(err), ""))
		return
	}
	l.applyMatchOutcome(m.ID, out)
}

func (l *Loop) handleTournamentForfeit(clientID string, env wire.Envelope) {
	var msg wire.TournamentForfeitMsg
	if !l.decode(clientID, env, &msg) {
		return
	}
	out, err := l.matches.HandleForfeit(msg.MatchID, clientID)
	if err != nil {
		l.cast.ToClient(clientID, wire.NewError(matchErrorCode(err), ""))
		return
	}
	l.applyMatchOutcome(msg.MatchID, out)
}

func (l *Loop) handleDecisionReversalResponse(clientID string, env wire.Envelope) {
	var msg wire.DecisionReversalResponseMsg
	if !l.decode(clientID, env, &msg) {
		return
	}
	out, err := l.matches.HandleReversalResponse(msg.MatchID, clientID, msg.Accept)
	if err != nil {
		l.cast.ToClient(clientID, wire.NewError(matchErrorCode(err), ""))
		return
	}
	l.applyMatchOutcome(msg.MatchID, out)
}

func (l *Loop) handleDecisionChangeRequest(clientID string, env wire.Envelope) {
	var msg wire.DecisionChangeRequestMsg
	if !l.decode(clientID, env, &msg) {
		return
	}
	out, err := l.matches.HandleDecisionChange(msg.MatchID, clientID, msg.RoundNumber, msg.NewDecision)
	if err != nil {
		l.cast.ToClient(clientID, wire.NewError(matchErrorCode(err), ""))
		return
	}
	l.applyMatchOutcome(msg.MatchID, out)
}

func (l *Loop) handleDecisionChangesComplete(clientID string, env wire.Envelope) {
	var msg wire.DecisionChangesCompleteMsg
	if !l.decode(clientID, env, &msg) {
		return
	}
	out, err := l.matches.HandleDecisionChangesComplete(msg.MatchID, clientID)
	if err != nil {
		l.cast.ToClient(clientID, wire.NewError(matchErrorCode(err), ""))
		return
	}
	l.applyMatchOutcome(msg.MatchID, out)
}
