package gamestate

// Phase is one state of the game-mode state machine.
type Phase uint8

const (
	PhaseWaitingForPlayers Phase = iota
	PhaseCountdown
	PhaseInProgress
	PhaseRoundOver
)

func (p Phase) String() string {
	switch p {
	case PhaseWaitingForPlayers:
		return "WaitingForPlayers"
	case PhaseCountdown:
		return "Countdown"
	case PhaseInProgress:
		return "InProgress"
	case PhaseRoundOver:
		return "RoundOver"
	default:
		return "Unknown"
	}
}

// transitions lists the legal next phases. RoundOver -> WaitingForPlayers is
// the only backward edge and is taken on an explicit reset.
var transitions = map[Phase][]Phase{
	PhaseWaitingForPlayers: {PhaseCountdown},
	PhaseCountdown:         {PhaseInProgress},
	PhaseInProgress:        {PhaseRoundOver},
	PhaseRoundOver:         {PhaseWaitingForPlayers},
}

// CanTransitionTo reports whether next directly follows p.
func (p Phase) CanTransitionTo(next Phase) bool {
	for _, allowed := range transitions[p] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Valid reports whether p is a known phase.
func (p Phase) Valid() bool {
	_, ok := transitions[p]
	return ok
}
