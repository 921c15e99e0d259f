// FILE: internal/core/state.go
package core

// Phase is the session lifecycle state.
type Phase int

const (
	PhaseCreated Phase = iota
	PhaseInProgress
	PhaseTerminated
	PhaseRestarting
)

func (p Phase) String() string {
	switch p {
	case PhaseInProgress:
		return "in_progress"
	case PhaseTerminated:
		return "terminated"
	case PhaseRestarting:
		return "restarting"
	default:
		return "created"
	}
}

// Reason tags why a session left the InProgress phase.
type Reason string

const (
	ReasonNone                 Reason = ""
	ReasonCheckmate            Reason = "checkmate"
	ReasonStalemate            Reason = "stalemate"
	ReasonInsufficientMaterial Reason = "insufficient_material"
	ReasonThreefold            Reason = "threefold_repetition"
	ReasonFiftyMove            Reason = "fifty_move_rule"
	ReasonForfeit              Reason = "forfeit"
	ReasonStopped              Reason = "stopped"
	ReasonRestart              Reason = "restart"
	ReasonQuit                 Reason = "quit"
)

// Describe renders the game-over message shown to the operator and used to
// name the saved record. mover is the side that made the final move.
func (r Reason) Describe(mover Color) string {
	switch r {
	case ReasonCheckmate:
		return mover.Name() + " wins by checkmate!"
	case ReasonStalemate:
		return "The game ends in a stalemate."
	case ReasonInsufficientMaterial:
		return "Draw due to insufficient material."
	case ReasonThreefold:
		return "Draw due to threefold repetition."
	case ReasonFiftyMove:
		return "Draw due to the fifty-move rule."
	case ReasonForfeit:
		return OppositeColor(mover).Name() + " wins by forfeit."
	default:
		return string(r)
	}
}

// AttemptState tracks the retry protocol for a single turn.
type AttemptState struct {
	Number   int
	Max      int
	Tried    []string
	Guidance string
}

// NewAttemptState starts a turn at attempt 1.
func NewAttemptState(max int) *AttemptState {
	return &AttemptState{Number: 1, Max: max}
}

// Reject records an illegal token and advances the attempt counter.
func (a *AttemptState) Reject(token string) {
	a.Tried = append(a.Tried, token)
	a.Number++
}

// Exhausted is true once the counter has passed the maximum.
func (a *AttemptState) Exhausted() bool {
	return a.Number > a.Max
}

// Escalated is true from the halfway attempt onward.
func (a *AttemptState) Escalated() bool {
	return 2*a.Number >= a.Max
}

// Renew restarts counting after external guidance was injected. Tried tokens are kept.
func (a *AttemptState) Renew(guidance string) {
	a.Number = 1
	a.Guidance = guidance
}

// TimestampLayout stamps session artifacts: transcripts and saved records.
const TimestampLayout = "20060102_150405"
