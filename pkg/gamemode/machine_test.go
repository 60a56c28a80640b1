package gamemode

import (
	"bytes"
	"fmt"
	"testing"

	apperrors "github.com/cbodonnell/lobbyhost/pkg/errors"
	"github.com/cbodonnell/lobbyhost/pkg/gamestate"
	"github.com/cbodonnell/lobbyhost/pkg/log"
	"github.com/cbodonnell/lobbyhost/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingMode counts tick callbacks and ends the round after roundEnd seconds.
type recordingMode struct {
	calls      map[gamestate.Phase]int
	roundEnd   float64
	inProgress error
}

func newRecordingMode() *recordingMode {
	return &recordingMode{calls: make(map[gamestate.Phase]int), roundEnd: 10}
}

func (r *recordingMode) TickWaitingForPlayers(m *Machine, dt float64) error {
	r.calls[gamestate.PhaseWaitingForPlayers]++
	return nil
}

func (r *recordingMode) TickInProgress(m *Machine, dt float64) error {
	r.calls[gamestate.PhaseInProgress]++
	if r.inProgress != nil {
		return r.inProgress
	}
	if m.State().GameTimer.Get() >= r.roundEnd {
		return m.Transition(gamestate.PhaseRoundOver)
	}
	return nil
}

func (r *recordingMode) TickRoundOver(m *Machine, dt float64) error {
	r.calls[gamestate.PhaseRoundOver]++
	return nil
}

type killerMode struct {
	*recordingMode
	victims []uint64
}

func (k *killerMode) Kill(victimID uint64, instigatorID *uint64, reason string) error {
	k.victims = append(k.victims, victimID)
	return nil
}

func newTestMachine(t *testing.T, mode Mode) *Machine {
	t.Helper()
	m, err := NewMachine(NewMachineOptions{
		Mode:  mode,
		State: gamestate.New(true),
		Feed:  log.NewFeed(log.New(&bytes.Buffer{}, "", log.LogLevelError)),
	})
	require.NoError(t, err)
	require.NoError(t, m.Initialize())
	return m
}

func TestNewMachine(t *testing.T) {
	_, err := NewMachine(NewMachineOptions{State: gamestate.New(true)})
	assert.Equal(t, apperrors.CodeConfiguration, apperrors.CodeOf(err))

	_, err = NewMachine(NewMachineOptions{Mode: newRecordingMode(), State: gamestate.New(false)})
	assert.Equal(t, apperrors.CodeAuthorityViolation, apperrors.CodeOf(err))

	m, err := NewMachine(NewMachineOptions{Mode: newRecordingMode(), State: gamestate.New(true)})
	require.NoError(t, err)
	assert.Equal(t, DefaultCountdownDuration, m.CountdownDuration())
}

func TestMachine_FullRound(t *testing.T) {
	mode := newRecordingMode()
	m := newTestMachine(t, mode)

	m.Tick(1)
	assert.Equal(t, gamestate.PhaseWaitingForPlayers, m.Phase())
	assert.Equal(t, 1, mode.calls[gamestate.PhaseWaitingForPlayers])

	m.OnAllPlayersSpawned(true)
	assert.Equal(t, gamestate.PhaseCountdown, m.Phase())
	assert.Equal(t, 3.0, m.State().CountdownTimer.Get())

	m.Tick(1)
	m.Tick(1)
	assert.Equal(t, gamestate.PhaseCountdown, m.Phase())
	assert.Equal(t, 1.0, m.State().CountdownTimer.Get())

	m.Tick(1)
	assert.Equal(t, gamestate.PhaseInProgress, m.Phase())
	assert.Equal(t, 0, mode.calls[gamestate.PhaseInProgress])

	for i := 0; i < 10; i++ {
		m.Tick(1)
	}
	assert.Equal(t, gamestate.PhaseRoundOver, m.Phase())
	assert.Equal(t, 10.0, m.State().GameTimer.Get())

	for i := 0; i < 5; i++ {
		m.Tick(1)
	}
	assert.Equal(t, gamestate.PhaseRoundOver, m.Phase(), "round over never resets on its own")

	require.NoError(t, m.Reset())
	assert.Equal(t, gamestate.PhaseWaitingForPlayers, m.Phase())
	assert.Equal(t, 0.0, m.State().GameTimer.Get())
}

func TestMachine_CountdownThreshold(t *testing.T) {
	tests := []struct {
		name      string
		ticks     []float64
		wantPhase gamestate.Phase
		wantTimer float64
	}{
		{name: "exactly zero", ticks: []float64{0.5, 2.5}, wantPhase: gamestate.PhaseInProgress, wantTimer: 0},
		{name: "overshoot", ticks: []float64{4}, wantPhase: gamestate.PhaseInProgress, wantTimer: 0},
		{name: "not yet", ticks: []float64{2.75}, wantPhase: gamestate.PhaseCountdown, wantTimer: 0.25},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestMachine(t, newRecordingMode())
			m.OnAllPlayersSpawned(true)
			for _, dt := range tt.ticks {
				m.Tick(dt)
			}
			assert.Equal(t, tt.wantPhase, m.Phase())
			assert.Equal(t, tt.wantTimer, m.State().CountdownTimer.Get())
		})
	}
}

func TestMachine_PhasesAreMonotonic(t *testing.T) {
	m := newTestMachine(t, newRecordingMode())

	var seen []gamestate.Phase
	m.State().Phase.Subscribe(func(old, new gamestate.Phase) {
		seen = append(seen, new)
		if new != gamestate.PhaseWaitingForPlayers {
			assert.True(t, new > old, "backward transition %s -> %s", old, new)
		} else {
			assert.Equal(t, gamestate.PhaseRoundOver, old)
		}
	})

	m.OnAllPlayersSpawned(true)
	for i := 0; i < 20; i++ {
		m.Tick(1)
	}
	require.NoError(t, m.Reset())

	assert.Equal(t, []gamestate.Phase{
		gamestate.PhaseCountdown,
		gamestate.PhaseInProgress,
		gamestate.PhaseRoundOver,
		gamestate.PhaseWaitingForPlayers,
	}, seen)
}

func TestMachine_Transition(t *testing.T) {
	m := newTestMachine(t, newRecordingMode())

	err := m.Transition(gamestate.PhaseInProgress)
	assert.Equal(t, apperrors.CodeInvalidArgument, apperrors.CodeOf(err))
	assert.Equal(t, gamestate.PhaseWaitingForPlayers, m.Phase())

	err = m.Transition(gamestate.PhaseRoundOver)
	assert.Error(t, err)

	require.NoError(t, m.ForcePhase(gamestate.PhaseRoundOver))
	assert.Equal(t, gamestate.PhaseRoundOver, m.Phase())
	assert.Error(t, m.ForcePhase(gamestate.Phase(7)))
}

func TestMachine_FailStop(t *testing.T) {
	mode := newRecordingMode()
	mode.inProgress = fmt.Errorf("mode exploded")
	m := newTestMachine(t, mode)
	m.OnAllPlayersSpawned(true)
	m.Tick(3)
	require.Equal(t, gamestate.PhaseInProgress, m.Phase())

	m.Tick(1)
	m.Tick(1)
	m.Tick(1)

	assert.True(t, m.Halted())
	assert.EqualError(t, m.Err(), "mode exploded")
	assert.Equal(t, 1, mode.calls[gamestate.PhaseInProgress])

	var errorsLogged int
	for _, e := range m.Feed().Entries() {
		if e.Severity == log.SeverityError {
			errorsLogged++
		}
	}
	assert.Equal(t, 1, errorsLogged)

	mode.inProgress = nil
	require.NoError(t, m.Reset())
	assert.False(t, m.Halted())
	m.Tick(1)
	assert.Equal(t, 1, mode.calls[gamestate.PhaseWaitingForPlayers])
}

func TestMachine_OnAllPlayersDespawned(t *testing.T) {
	m := newTestMachine(t, newRecordingMode())
	m.OnAllPlayersSpawned(true)
	m.Tick(3)
	require.Equal(t, gamestate.PhaseInProgress, m.Phase())

	m.OnAllPlayersDespawned()
	assert.Equal(t, gamestate.PhaseInProgress, m.Phase(), "despawning does not move the phase")

	require.NoError(t, m.Reset())
	assert.Equal(t, gamestate.PhaseWaitingForPlayers, m.Phase())
	assert.Equal(t, 0.0, m.State().GameTimer.Get())
}

func TestMachine_PartialSpawnKeepsWaiting(t *testing.T) {
	m := newTestMachine(t, newRecordingMode())
	m.OnAllPlayersSpawned(false)
	assert.Equal(t, gamestate.PhaseWaitingForPlayers, m.Phase())
	assert.Equal(t, 0.0, m.State().CountdownTimer.Get())

	m.Tick(5)
	assert.Equal(t, gamestate.PhaseWaitingForPlayers, m.Phase())

	// a later batch that covers everyone starts the countdown
	m.OnAllPlayersSpawned(true)
	assert.Equal(t, gamestate.PhaseCountdown, m.Phase())
	assert.Equal(t, DefaultCountdownDuration, m.State().CountdownTimer.Get())
}

func TestMachine_Capabilities(t *testing.T) {
	plain := newTestMachine(t, newRecordingMode())
	handled, err := plain.Kill(1, nil, "fell")
	assert.False(t, handled)
	assert.NoError(t, err)
	handled, err = plain.Score(1, 10)
	assert.False(t, handled)
	assert.NoError(t, err)

	mode := &killerMode{recordingMode: newRecordingMode()}
	killer := newTestMachine(t, mode)
	instigator := uint64(2)
	handled, err = killer.Kill(1, &instigator, "")
	assert.True(t, handled)
	assert.NoError(t, err)
	assert.Equal(t, []uint64{1}, mode.victims)
	handled, _ = killer.Score(1, 10)
	assert.False(t, handled)
}

func TestMachine_LogsPhaseChanges(t *testing.T) {
	m := newTestMachine(t, newRecordingMode())
	m.OnAllPlayersSpawned(true)

	var texts []string
	for _, e := range m.Feed().Entries() {
		if e.Severity == log.SeveritySystemInfo {
			texts = append(texts, e.Text)
		}
	}
	assert.Contains(t, texts, "GameState - Phase Changed: OLD: WaitingForPlayers | NEW: Countdown")
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	factory := func() Mode { return newRecordingMode() }

	require.NoError(t, r.Register(session.ModeSample, factory))
	assert.Equal(t, apperrors.CodeConfiguration, apperrors.CodeOf(r.Register(session.ModeSample, factory)))
	assert.Equal(t, apperrors.CodeConfiguration, apperrors.CodeOf(r.Register(session.ModeNone, factory)))
	assert.Error(t, r.Register("other", nil))

	f, ok := r.Lookup(session.ModeSample)
	require.True(t, ok)
	assert.NotNil(t, f())
	_, ok = r.Lookup("missing")
	assert.False(t, ok)
	assert.Equal(t, []session.ModeID{session.ModeSample}, r.Modes())
	assert.Panics(t, func() { r.MustRegister(session.ModeSample, factory) })
}
