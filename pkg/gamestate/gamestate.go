package gamestate

import (
	"fmt"

	"github.com/cbodonnell/lobbyhost/pkg/state"
)

// GameState is the minimal record broadcast to every participant during a session.
type GameState struct {
	Phase          *state.Value[Phase]
	CountdownTimer *state.Value[float64]
	GameTimer      *state.Value[float64]
}

// Snapshot is a plain copy of a GameState for the wire.
type Snapshot struct {
	Phase          Phase   `json:"phase"`
	CountdownTimer float64 `json:"countdownTimer"`
	GameTimer      float64 `json:"gameTimer"`
}

// New creates a GameState in WaitingForPlayers with zeroed timers.
func New(authoritative bool) *GameState {
	return &GameState{
		Phase:          state.NewValue(PhaseWaitingForPlayers, authoritative),
		CountdownTimer: state.NewValue(0.0, authoritative),
		GameTimer:      state.NewValue(0.0, authoritative),
	}
}

func (s *GameState) Authoritative() bool {
	return s.Phase.Authoritative()
}

func (s *GameState) Snapshot() Snapshot {
	return Snapshot{
		Phase:          s.Phase.Get(),
		CountdownTimer: s.CountdownTimer.Get(),
		GameTimer:      s.GameTimer.Get(),
	}
}

// ApplySnapshot replicates a snapshot received from the authority.
func (s *GameState) ApplySnapshot(snap Snapshot) error {
	if !snap.Phase.Valid() {
		return fmt.Errorf("invalid phase %d", snap.Phase)
	}
	if err := s.CountdownTimer.Replicate(snap.CountdownTimer); err != nil {
		return err
	}
	if err := s.GameTimer.Replicate(snap.GameTimer); err != nil {
		return err
	}
	return s.Phase.Replicate(snap.Phase)
}
