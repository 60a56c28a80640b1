package orchestrator_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	networkmocks "github.com/cbodonnell/lobbyhost/mocks/github.com/cbodonnell/lobbyhost/pkg/network"
	spawnmocks "github.com/cbodonnell/lobbyhost/mocks/github.com/cbodonnell/lobbyhost/pkg/spawn"
	apperrors "github.com/cbodonnell/lobbyhost/pkg/errors"
	"github.com/cbodonnell/lobbyhost/pkg/gamemode"
	"github.com/cbodonnell/lobbyhost/pkg/gamemode/sample"
	"github.com/cbodonnell/lobbyhost/pkg/gamestate"
	"github.com/cbodonnell/lobbyhost/pkg/log"
	"github.com/cbodonnell/lobbyhost/pkg/messages"
	"github.com/cbodonnell/lobbyhost/pkg/network"
	"github.com/cbodonnell/lobbyhost/pkg/orchestrator"
	"github.com/cbodonnell/lobbyhost/pkg/scenes"
	"github.com/cbodonnell/lobbyhost/pkg/session"
	"github.com/cbodonnell/lobbyhost/pkg/spawn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type connected struct {
	ids []uint64
}

func (c *connected) ConnectedClientIDs() []uint64 {
	return c.ids
}

type transportSource struct {
	transport network.Transport
}

func (s *transportSource) Transport() network.Transport {
	return s.transport
}

type fixture struct {
	registry     *session.Registry
	factory      *spawnmocks.ActorFactory
	spawner      *spawn.Coordinator
	scenes       *scenes.Manager
	participants *connected
	transports   *transportSource
	feed         *log.Feed
	orch         *orchestrator.Orchestrator
	loads        []scenes.LoadEvent
}

type fixtureOptions struct {
	authoritative bool
	mode          session.ModeID
	noModes       bool
	noPrefabs     bool
	ids           []uint64
}

func newFixture(t *testing.T, opts fixtureOptions) *fixture {
	t.Helper()
	f := &fixture{
		registry: session.NewRegistry(session.NewRegistryOptions{
			Authoritative:   opts.authoritative,
			IsHost:          opts.authoritative,
			MaxParticipants: 4,
		}),
		factory:      spawnmocks.NewActorFactory(t),
		participants: &connected{ids: opts.ids},
		transports:   &transportSource{},
		feed:         log.NewFeed(log.New(&bytes.Buffer{}, "", log.LogLevelError)),
	}
	f.factory.EXPECT().Spawn(mock.Anything).Return(nil).Maybe()
	f.factory.EXPECT().Despawn(mock.Anything).Return(nil).Maybe()

	if opts.authoritative && opts.mode != session.ModeNone {
		roster := make([]session.Participant, 0, len(opts.ids))
		for _, id := range opts.ids {
			roster = append(roster, session.Participant{ClientID: id, DisplayName: session.DefaultDisplayName(id)})
		}
		require.NoError(t, f.registry.Start(opts.mode, roster))
	}

	var modes *gamemode.Registry
	if !opts.noModes {
		modes = gamemode.NewRegistry()
		modes.MustRegister(session.ModeSample, sample.New)
	}

	prefabs := map[session.ModeID]string{session.ModeSample: "sample-player"}
	if opts.noPrefabs {
		prefabs = map[session.ModeID]string{}
	}
	f.spawner = spawn.NewCoordinator(spawn.NewCoordinatorOptions{
		Registry:     f.registry,
		Factory:      f.factory,
		Participants: f.participants,
		Prefabs:      prefabs,
		Feed:         f.feed,
	})
	f.scenes = scenes.NewManager(scenes.NewManagerOptions{
		Participants: f.participants,
		Timeout:      10 * time.Second,
	})
	f.scenes.OnLoaded(func(e scenes.LoadEvent) { f.loads = append(f.loads, e) })
	f.orch = orchestrator.NewOrchestrator(orchestrator.NewOrchestratorOptions{
		Registry:     f.registry,
		Modes:        modes,
		Spawner:      f.spawner,
		Scenes:       f.scenes,
		Participants: f.participants,
		Transports:   f.transports,
		Feed:         f.feed,
		LogDir:       t.TempDir(),
	})
	return f
}

func (f *fixture) hasEntry(severity log.Severity, text string) bool {
	for _, e := range f.feed.Entries() {
		if e.Severity == severity && e.Text == text {
			return true
		}
	}
	return false
}

func TestOrchestrator_SampleSessionScenario(t *testing.T) {
	f := newFixture(t, fixtureOptions{authoritative: true, mode: session.ModeSample, ids: []uint64{0, 1}})

	opID := f.scenes.Load(context.Background(), scenes.SceneGame)
	machine := f.orch.Machine()
	require.NotNil(t, machine)
	assert.Equal(t, gamestate.PhaseWaitingForPlayers, machine.Phase())
	assert.Equal(t, 0, f.spawner.Count(), "spawning waits for every participant to load")
	assert.True(t, f.orch.BarrierArmed())

	f.scenes.ReportLoaded(1, opID)
	assert.False(t, f.orch.BarrierArmed())
	assert.Equal(t, 2, f.spawner.Count())
	assert.Equal(t, gamestate.PhaseCountdown, machine.Phase())
	assert.Equal(t, 3.0, f.orch.Snapshot().CountdownTimer)

	f.orch.Tick(1.0)
	f.orch.Tick(1.0)
	assert.Equal(t, gamestate.PhaseCountdown, machine.Phase())
	assert.Equal(t, 1.0, f.orch.Snapshot().CountdownTimer)

	f.orch.Tick(1.0)
	assert.Equal(t, gamestate.Snapshot{Phase: gamestate.PhaseInProgress}, f.orch.Snapshot())
	assert.True(t, f.hasEntry(log.SeverityInfo, "Session - Current GameMode: sample"))
	assert.True(t, f.hasEntry(log.SeveritySystemInfo, "GameState - Phase Changed: OLD: Countdown | NEW: InProgress"))
}

func TestOrchestrator_OnSessionSceneReady(t *testing.T) {
	tests := []struct {
		name          string
		opts          fixtureOptions
		wantMachine   bool
		wantSeverity  log.Severity
		wantEntryText string
	}{
		{
			name:        "sample",
			opts:        fixtureOptions{authoritative: true, mode: session.ModeSample},
			wantMachine: true, wantSeverity: log.SeverityInfo, wantEntryText: "Session - Current GameMode: sample",
		},
		{
			name:         "nil registry",
			opts:         fixtureOptions{authoritative: true, mode: session.ModeSample, noModes: true},
			wantSeverity: log.SeverityWarn, wantEntryText: "Session - game mode registry is nil",
		},
		{
			name:         "no mode selected",
			opts:         fixtureOptions{authoritative: true},
			wantSeverity: log.SeverityWarn, wantEntryText: "Session - no game mode selected",
		},
		{
			name:         "unregistered mode",
			opts:         fixtureOptions{authoritative: true, mode: "capture-the-flag"},
			wantSeverity: log.SeverityError, wantEntryText: "Session - game mode capture-the-flag is not registered",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.opts)
			assert.NotPanics(t, f.orch.OnSessionSceneReady)
			assert.Equal(t, tt.wantMachine, f.orch.Machine() != nil)
			assert.True(t, f.hasEntry(tt.wantSeverity, tt.wantEntryText), "feed: %v", f.feed.Entries())

			// ticking without a machine is a no-op
			assert.NotPanics(t, func() { f.orch.Tick(1.0) })
		})
	}
}

func TestOrchestrator_ReplicaDoesNotBuildMachine(t *testing.T) {
	f := newFixture(t, fixtureOptions{ids: []uint64{0, 1}})
	f.orch.OnSessionSceneReady()
	assert.Nil(t, f.orch.Machine())
	assert.Zero(t, f.feed.Len())
}

func TestOrchestrator_LoadBarrier(t *testing.T) {
	t.Run("counts distinct connected ids once", func(t *testing.T) {
		f := newFixture(t, fixtureOptions{authoritative: true, mode: session.ModeSample, ids: []uint64{0, 1, 2}})
		f.orch.OnSessionSceneReady()
		f.orch.AwaitLoadBarrier()

		f.orch.ReportLoaded(0)
		f.orch.ReportLoaded(0)
		f.orch.ReportLoaded(7)
		assert.True(t, f.orch.BarrierArmed(), "duplicates and strangers do not count")

		f.orch.OnLoadEventCompleted([]uint64{1}, []uint64{2})
		assert.True(t, f.orch.BarrierArmed(), "timed out ids do not count")
		assert.True(t, f.hasEntry(log.SeverityWarn, "Session - Client 2 timed out loading the game scene"))

		f.orch.ReportLoaded(2)
		assert.False(t, f.orch.BarrierArmed())
		assert.Equal(t, 3, f.spawner.Count())

		// the barrier is one shot
		f.orch.ReportLoaded(2)
		f.factory.AssertNumberOfCalls(t, "Spawn", 3)
	})

	t.Run("zero participants fire on arm", func(t *testing.T) {
		f := newFixture(t, fixtureOptions{authoritative: true, mode: session.ModeSample})
		f.orch.OnSessionSceneReady()
		f.orch.AwaitLoadBarrier()
		assert.False(t, f.orch.BarrierArmed())
		assert.Equal(t, gamestate.PhaseCountdown, f.orch.Machine().Phase())
	})

	t.Run("disconnect re-evaluates", func(t *testing.T) {
		f := newFixture(t, fixtureOptions{authoritative: true, mode: session.ModeSample, ids: []uint64{0, 1}})
		f.orch.OnSessionSceneReady()
		f.orch.AwaitLoadBarrier()
		f.orch.ReportLoaded(0)

		f.participants.ids = []uint64{0}
		f.orch.OnParticipantDisconnected(1)
		assert.False(t, f.orch.BarrierArmed())
		assert.Equal(t, 1, f.spawner.Count())
	})
}

func TestOrchestrator_RequestReplay(t *testing.T) {
	t.Run("replica is rejected", func(t *testing.T) {
		f := newFixture(t, fixtureOptions{ids: []uint64{0, 1}})
		err := f.orch.RequestReplay(context.Background())
		assert.Equal(t, apperrors.CodeAuthorityViolation, apperrors.CodeOf(err))
	})

	t.Run("host restarts on the same connections", func(t *testing.T) {
		f := newFixture(t, fixtureOptions{authoritative: true, mode: session.ModeSample, ids: []uint64{0, 1}})
		transport := networkmocks.NewTransport(t)
		f.transports.transport = transport

		opID := f.scenes.Load(context.Background(), scenes.SceneGame)
		f.scenes.ReportLoaded(1, opID)
		machine := f.orch.Machine()
		f.orch.Tick(5.0)
		require.Equal(t, gamestate.PhaseInProgress, machine.Phase())

		transport.EXPECT().LocalClientID().Return(uint64(0))
		transport.EXPECT().Broadcast(mock.Anything, mock.MatchedBy(func(msg *messages.Message) bool {
			return msg.Type == messages.MessageTypeServerGameReset
		})).Once()

		require.NoError(t, f.orch.RequestReplay(context.Background()))
		assert.Same(t, machine, f.orch.Machine(), "the machine is reset, not rebuilt")
		assert.Equal(t, gamestate.Snapshot{Phase: gamestate.PhaseWaitingForPlayers}, f.orch.Snapshot())
		assert.Equal(t, 0, f.spawner.Count())
		assert.True(t, f.orch.BarrierArmed())
		assert.True(t, f.registry.Config().Started)

		// client 1 never answers the reload and reports late
		f.scenes.Tick(time.Hour)
		assert.True(t, f.orch.BarrierArmed())
		f.orch.ReportLoaded(1)
		assert.Equal(t, 2, f.spawner.Count())
		assert.Equal(t, gamestate.PhaseCountdown, machine.Phase())
	})
}

func TestOrchestrator_MissingPrefabKeepsWaiting(t *testing.T) {
	f := newFixture(t, fixtureOptions{authoritative: true, mode: session.ModeSample, ids: []uint64{0, 1}, noPrefabs: true})
	opID := f.scenes.Load(context.Background(), scenes.SceneGame)
	f.scenes.ReportLoaded(1, opID)

	assert.False(t, f.orch.BarrierArmed())
	assert.Equal(t, 0, f.spawner.Count())
	f.orch.Tick(5.0)
	assert.Equal(t, gamestate.Snapshot{Phase: gamestate.PhaseWaitingForPlayers}, f.orch.Snapshot())
}

func TestOrchestrator_Exit(t *testing.T) {
	t.Run("host", func(t *testing.T) {
		f := newFixture(t, fixtureOptions{authoritative: true, mode: session.ModeSample, ids: []uint64{0, 1}})
		opID := f.scenes.Load(context.Background(), scenes.SceneGame)
		f.scenes.ReportLoaded(1, opID)
		require.Equal(t, 2, f.spawner.Count())

		f.orch.Exit(context.Background())
		assert.Equal(t, 0, f.spawner.Count())
		assert.Nil(t, f.orch.Machine())
		assert.False(t, f.registry.Config().Started)
		assert.Len(t, f.registry.InGameRoster(), 2, "the snapshot is kept for the lobby")
		assert.Equal(t, scenes.SceneLobby, f.scenes.Current())
	})

	t.Run("client", func(t *testing.T) {
		f := newFixture(t, fixtureOptions{ids: []uint64{0, 1}})
		transport := networkmocks.NewTransport(t)
		transport.EXPECT().Shutdown().Return(nil).Once()
		f.transports.transport = transport

		f.orch.Exit(context.Background())
		assert.Equal(t, scenes.SceneLobby, f.scenes.Current())
	})
}

func TestOrchestrator_OnParticipantDisconnected(t *testing.T) {
	f := newFixture(t, fixtureOptions{authoritative: true, mode: session.ModeSample, ids: []uint64{0, 1}})
	opID := f.scenes.Load(context.Background(), scenes.SceneGame)
	f.scenes.ReportLoaded(1, opID)

	f.participants.ids = []uint64{0}
	f.orch.OnParticipantDisconnected(1)
	_, ok := f.spawner.Actor(1)
	assert.False(t, ok)
	assert.Equal(t, []session.Participant{{ClientID: 0, DisplayName: "Player0"}}, f.registry.InGameRoster())
	assert.True(t, f.hasEntry(log.SeveritySystemInfo, "Player removed: 1"))

	// a second disconnect for the same id logs nothing new
	n := f.feed.Len()
	f.orch.OnParticipantDisconnected(1)
	assert.Equal(t, n, f.feed.Len())
}

func TestOrchestrator_SaveLog(t *testing.T) {
	f := newFixture(t, fixtureOptions{authoritative: true, mode: session.ModeSample})
	f.orch.OnSessionSceneReady()
	require.NotZero(t, f.feed.Len())

	path, err := f.orch.SaveLog(time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "Log_240309140507.txt", filepath.Base(path))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "[Info] Session - Current GameMode: sample\n")
	assert.Zero(t, f.feed.Len())
}
