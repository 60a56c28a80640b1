package gamemode

import (
	"fmt"

	apperrors "github.com/cbodonnell/lobbyhost/pkg/errors"
	"github.com/cbodonnell/lobbyhost/pkg/gamestate"
	"github.com/cbodonnell/lobbyhost/pkg/log"
	"github.com/cbodonnell/lobbyhost/pkg/session"
)

// DefaultCountdownDuration is the countdown length in seconds.
const DefaultCountdownDuration = 3.0

// Machine drives a Mode through the game phases and owns the replicated GameState.
type Machine struct {
	mode              Mode
	state             *gamestate.GameState
	registry          *session.Registry
	feed              *log.Feed
	countdownDuration float64

	halted  bool
	haltErr error
	unsub   func()
}

// NewMachineOptions contains options for creating a new Machine.
type NewMachineOptions struct {
	Mode     Mode
	State    *gamestate.GameState
	Registry *session.Registry
	Feed     *log.Feed
	// CountdownDuration defaults to DefaultCountdownDuration when zero.
	CountdownDuration float64
}

// NewMachine binds a Mode to an authoritative GameState.
func NewMachine(opts NewMachineOptions) (*Machine, error) {
	if opts.Mode == nil {
		return nil, apperrors.New(apperrors.CodeConfiguration, "game mode is nil")
	}
	if opts.State == nil || !opts.State.Authoritative() {
		return nil, apperrors.New(apperrors.CodeAuthorityViolation, "the machine requires an authoritative game state")
	}
	feed := opts.Feed
	if feed == nil {
		feed = log.NewFeed(nil)
	}
	duration := opts.CountdownDuration
	if duration <= 0 {
		duration = DefaultCountdownDuration
	}

	m := &Machine{
		mode:              opts.Mode,
		state:             opts.State,
		registry:          opts.Registry,
		feed:              feed,
		countdownDuration: duration,
	}
	m.unsub = m.state.Phase.Subscribe(func(old, new gamestate.Phase) {
		m.feed.SystemInfo("GameState - Phase Changed: OLD: %s | NEW: %s", old, new)
	})
	return m, nil
}

// Initialize puts the machine in WaitingForPlayers with zeroed timers.
func (m *Machine) Initialize() error {
	if err := m.state.CountdownTimer.Set(0); err != nil {
		return err
	}
	if err := m.state.GameTimer.Set(0); err != nil {
		return err
	}
	if err := m.state.Phase.Set(gamestate.PhaseWaitingForPlayers); err != nil {
		return err
	}
	if i, ok := m.mode.(Initializer); ok {
		i.Initialize(m)
	}
	return nil
}

// Close detaches the machine from its GameState.
func (m *Machine) Close() {
	if m.unsub != nil {
		m.unsub()
		m.unsub = nil
	}
}

func (m *Machine) Mode() Mode { return m.mode }
func (m *Machine) State() *gamestate.GameState { return m.state }
func (m *Machine) Registry() *session.Registry { return m.registry }
func (m *Machine) Feed() *log.Feed { return m.feed }
func (m *Machine) Phase() gamestate.Phase { return m.state.Phase.Get() }
func (m *Machine) CountdownDuration() float64 { return m.countdownDuration }
func (m *Machine) Halted() bool { return m.halted }
func (m *Machine) Err() error { return m.haltErr }

// Tick runs one step of the current phase. After a tick callback fails the
// machine is halted and further ticks do nothing until Reset.
func (m *Machine) Tick(dt float64) {
	if m.halted {
		return
	}

	phase := m.Phase()
	var err error
	switch phase {
	case gamestate.PhaseWaitingForPlayers:
		err = m.mode.TickWaitingForPlayers(m, dt)
	case gamestate.PhaseCountdown:
		if ct, ok := m.mode.(CountdownTicker); ok {
			err = ct.TickCountdown(m, dt)
		} else {
			err = m.TickCountdownDefault(dt)
		}
	case gamestate.PhaseInProgress:
		if err = m.state.GameTimer.Set(m.state.GameTimer.Get() + dt); err == nil {
			err = m.mode.TickInProgress(m, dt)
		}
	case gamestate.PhaseRoundOver:
		err = m.mode.TickRoundOver(m, dt)
	default:
		err = fmt.Errorf("unknown phase %d", phase)
	}

	if err != nil {
		m.halted = true
		m.haltErr = err
		m.feed.Error("GameMode - %s tick failed, halting: %v", phase, err)
	}
}

// TickCountdownDefault decrements the countdown and moves to InProgress in
// the same tick the timer reaches zero.
func (m *Machine) TickCountdownDefault(dt float64) error {
	remaining := m.state.CountdownTimer.Get() - dt
	if remaining <= 0 {
		if err := m.state.CountdownTimer.Set(0); err != nil {
			return err
		}
		return m.Transition(gamestate.PhaseInProgress)
	}
	return m.state.CountdownTimer.Set(remaining)
}

// Transition moves to next if it directly follows the current phase.
func (m *Machine) Transition(next gamestate.Phase) error {
	current := m.Phase()
	if !current.CanTransitionTo(next) {
		return apperrors.New(apperrors.CodeInvalidArgument, fmt.Sprintf("illegal phase transition %s -> %s", current, next))
	}
	return m.state.Phase.Set(next)
}

// ForcePhase is the server override that may skip phases.
func (m *Machine) ForcePhase(next gamestate.Phase) error {
	if !next.Valid() {
		return apperrors.New(apperrors.CodeInvalidArgument, fmt.Sprintf("unknown phase %d", next))
	}
	current := m.Phase()
	if current == next {
		return nil
	}
	m.feed.Warn("GameMode - forcing phase %s -> %s", current, next)
	return m.state.Phase.Set(next)
}

// BeginCountdown starts the countdown from WaitingForPlayers.
func (m *Machine) BeginCountdown() error {
	if err := m.Transition(gamestate.PhaseCountdown); err != nil {
		return err
	}
	return m.state.CountdownTimer.Set(m.countdownDuration)
}

// OnAllPlayersSpawned is called once after a spawn batch. A waiting session
// begins its countdown only when every connected participant has an actor.
func (m *Machine) OnAllPlayersSpawned(allSpawned bool) {
	m.feed.SystemInfo("GameMode - AllPlayerSpawned")
	if !allSpawned {
		m.feed.Warn("GameMode - some participants have no actor, staying in %s", m.Phase())
	} else if m.Phase() == gamestate.PhaseWaitingForPlayers {
		if err := m.BeginCountdown(); err != nil {
			m.feed.Error("GameMode - failed to begin countdown: %v", err)
		}
	}
	if l, ok := m.mode.(SpawnListener); ok {
		l.OnAllPlayersSpawned(m)
	}
}

// OnAllPlayersDespawned is called once after a despawn batch. The phase is
// left alone; only Reset returns the session to WaitingForPlayers.
func (m *Machine) OnAllPlayersDespawned() {
	m.feed.SystemInfo("GameMode - AllPlayerDespawned")
	if l, ok := m.mode.(SpawnListener); ok {
		l.OnAllPlayersDespawned(m)
	}
}

// Reset clears the mode and the timers, returns to WaitingForPlayers and
// lifts a halt. Resetting a round that is not over yet forces the phase.
func (m *Machine) Reset() error {
	if r, ok := m.mode.(Resetter); ok {
		r.Reset()
	}
	if err := m.state.CountdownTimer.Set(0); err != nil {
		return err
	}
	if err := m.state.GameTimer.Set(0); err != nil {
		return err
	}
	if err := m.returnToWaiting(); err != nil {
		return err
	}
	m.halted = false
	m.haltErr = nil
	return nil
}

// Kill forwards to the mode's Killer capability. handled is false when the
// mode does not implement it.
func (m *Machine) Kill(victimID uint64, instigatorID *uint64, reason string) (handled bool, err error) {
	k, ok := m.mode.(Killer)
	if !ok {
		return false, nil
	}
	return true, k.Kill(victimID, instigatorID, reason)
}

// Score forwards to the mode's Scorer capability.
func (m *Machine) Score(clientID uint64, delta float64) (handled bool, err error) {
	s, ok := m.mode.(Scorer)
	if !ok {
		return false, nil
	}
	return true, s.AddScore(clientID, delta)
}

func (m *Machine) returnToWaiting() error {
	switch m.Phase() {
	case gamestate.PhaseWaitingForPlayers:
		return nil
	case gamestate.PhaseRoundOver:
		return m.Transition(gamestate.PhaseWaitingForPlayers)
	default:
		return m.ForcePhase(gamestate.PhaseWaitingForPlayers)
	}
}
