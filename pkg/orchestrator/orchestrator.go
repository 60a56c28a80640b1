package orchestrator

import (
	"context"
	"time"

	apperrors "github.com/cbodonnell/lobbyhost/pkg/errors"
	"github.com/cbodonnell/lobbyhost/pkg/gamemode"
	"github.com/cbodonnell/lobbyhost/pkg/gamestate"
	"github.com/cbodonnell/lobbyhost/pkg/log"
	"github.com/cbodonnell/lobbyhost/pkg/messages"
	"github.com/cbodonnell/lobbyhost/pkg/network"
	"github.com/cbodonnell/lobbyhost/pkg/scenes"
	"github.com/cbodonnell/lobbyhost/pkg/session"
	"github.com/cbodonnell/lobbyhost/pkg/spawn"
)

// DefaultLogDir is where SaveLog writes when no directory is configured.
const DefaultLogDir = "Log"

// TransportSource returns the current transport, or nil before one is up.
type TransportSource interface {
	Transport() network.Transport
}

// Orchestrator runs the in-game half of a session: it builds the mode
// machine when the game scene is ready, holds spawning back until every
// participant has loaded, and handles exit and replay.
type Orchestrator struct {
	registry     *session.Registry
	modes        *gamemode.Registry
	spawner      *spawn.Coordinator
	scenes       *scenes.Manager
	participants spawn.ParticipantSource
	transports   TransportSource
	feed         *log.Feed
	logDir       string
	countdown    float64

	state     *gamestate.GameState
	machine   *gamemode.Machine
	barrier   map[uint64]struct{}
	replaying bool
}

// NewOrchestratorOptions contains options for creating a new Orchestrator.
type NewOrchestratorOptions struct {
	Registry     *session.Registry
	Modes        *gamemode.Registry
	Spawner      *spawn.Coordinator
	Scenes       *scenes.Manager
	Participants spawn.ParticipantSource
	Transports   TransportSource
	Feed         *log.Feed
	LogDir       string
	// CountdownDuration is passed to every machine built for the session.
	CountdownDuration float64
}

// NewOrchestrator creates an Orchestrator and subscribes it to the scene manager.
func NewOrchestrator(opts NewOrchestratorOptions) *Orchestrator {
	feed := opts.Feed
	if feed == nil {
		feed = log.NewFeed(nil)
	}
	logDir := opts.LogDir
	if logDir == "" {
		logDir = DefaultLogDir
	}
	o := &Orchestrator{
		registry:     opts.Registry,
		modes:        opts.Modes,
		spawner:      opts.Spawner,
		scenes:       opts.Scenes,
		participants: opts.Participants,
		transports:   opts.Transports,
		feed:         feed,
		logDir:       logDir,
		countdown:    opts.CountdownDuration,
	}
	if o.scenes != nil {
		o.scenes.OnSceneChanged(o.handleSceneChanged)
		o.scenes.OnLoaded(o.handleSceneLoaded)
	}
	return o
}

func (o *Orchestrator) authoritative() bool {
	return o.registry != nil && o.registry.Authoritative()
}

// Feed returns the session log feed.
func (o *Orchestrator) Feed() *log.Feed {
	return o.feed
}

// Machine returns the running mode machine, or nil outside a game.
func (o *Orchestrator) Machine() *gamemode.Machine {
	return o.machine
}

// Snapshot returns the replicated game state, zero valued outside a game.
func (o *Orchestrator) Snapshot() gamestate.Snapshot {
	if o.state == nil {
		return gamestate.Snapshot{}
	}
	return o.state.Snapshot()
}

// OnSessionSceneReady builds the machine for the selected mode. Missing
// configuration is written to the feed and leaves the session without a
// machine; it is never returned as an error.
func (o *Orchestrator) OnSessionSceneReady() {
	if !o.authoritative() {
		return
	}
	o.closeMachine()

	if o.modes == nil {
		o.feed.Warn("Session - game mode registry is nil")
		return
	}
	mode := o.registry.Config().SelectedMode
	if mode == session.ModeNone {
		o.feed.Warn("Session - no game mode selected")
		return
	}
	factory, ok := o.modes.Lookup(mode)
	if !ok {
		o.feed.Error("Session - game mode %s is not registered", mode)
		return
	}
	o.feed.Info("Session - Current GameMode: %s", mode)

	state := gamestate.New(true)
	machine, err := gamemode.NewMachine(gamemode.NewMachineOptions{
		Mode:              factory(),
		State:             state,
		Registry:          o.registry,
		Feed:              o.feed,
		CountdownDuration: o.countdown,
	})
	if err != nil {
		o.feed.Error("Session - failed to create game mode %s: %v", mode, err)
		return
	}
	if err := machine.Initialize(); err != nil {
		machine.Close()
		o.feed.Error("Session - failed to initialize game mode %s: %v", mode, err)
		return
	}
	o.state = state
	o.machine = machine
	if o.spawner != nil {
		o.spawner.SetListener(machine)
	}
}

// AwaitLoadBarrier arms the barrier that spawns every participant once they
// have all loaded the game scene.
func (o *Orchestrator) AwaitLoadBarrier() {
	o.barrier = make(map[uint64]struct{})
	o.evaluateBarrier()
}

// OnLoadEventCompleted feeds the result of a scene load into the barrier.
func (o *Orchestrator) OnLoadEventCompleted(completed, timedOut []uint64) {
	if o.barrier == nil {
		return
	}
	for _, id := range timedOut {
		o.feed.Warn("Session - Client %d timed out loading the game scene", id)
	}
	for _, id := range completed {
		o.barrier[id] = struct{}{}
	}
	o.evaluateBarrier()
}

// ReportLoaded feeds a single late load report into the barrier.
func (o *Orchestrator) ReportLoaded(clientID uint64) {
	if o.barrier == nil {
		return
	}
	o.barrier[clientID] = struct{}{}
	o.evaluateBarrier()
}

// BarrierArmed reports whether spawning is still waiting on load reports.
func (o *Orchestrator) BarrierArmed() bool {
	return o.barrier != nil
}

func (o *Orchestrator) evaluateBarrier() {
	if o.barrier == nil {
		return
	}
	var connected []uint64
	if o.participants != nil {
		connected = o.participants.ConnectedClientIDs()
	}
	loaded := 0
	for _, id := range connected {
		if _, ok := o.barrier[id]; ok {
			loaded++
		}
	}
	if loaded < len(connected) {
		return
	}

	o.barrier = nil
	log.Debug("All %d participants loaded, spawning", len(connected))
	if o.spawner != nil {
		o.spawner.SpawnAll()
	}
}

// Tick advances the machine on the authority.
func (o *Orchestrator) Tick(dt float64) {
	if !o.authoritative() || o.machine == nil {
		return
	}
	o.machine.Tick(dt)
}

// Exit ends the game. The authority despawns everyone, ends the session and
// takes all participants back to the lobby. A client leaves the host and
// returns to its own lobby scene.
func (o *Orchestrator) Exit(ctx context.Context) {
	if !o.authoritative() {
		if o.transports != nil {
			if t := o.transports.Transport(); t != nil {
				if err := t.Shutdown(); err != nil {
					log.Warn("Failed to shut down transport: %v", err)
				}
			}
		}
		if o.scenes != nil {
			o.scenes.LoadLocal(scenes.SceneLobby)
		}
		return
	}

	if o.spawner != nil {
		o.spawner.DespawnAll()
	}
	if err := o.registry.EndSession(); err != nil {
		o.feed.Error("Session - failed to end session: %v", err)
	}
	o.barrier = nil
	o.closeMachine()
	if o.scenes != nil {
		o.scenes.Load(ctx, scenes.SceneLobby)
	}
}

// RequestReplay restarts the round on the same connections.
func (o *Orchestrator) RequestReplay(ctx context.Context) error {
	if !o.authoritative() {
		return apperrors.New(apperrors.CodeAuthorityViolation, "only the host can restart the game")
	}

	if o.spawner != nil {
		o.spawner.DespawnAll()
	}
	if o.machine != nil {
		if err := o.machine.Reset(); err != nil {
			o.feed.Error("Session - failed to reset game mode: %v", err)
		}
	}

	if o.transports != nil {
		if t := o.transports.Transport(); t != nil {
			msg, err := messages.NewMessage(t.LocalClientID(), messages.MessageTypeServerGameReset, messages.ServerGameReset{
				Scene: string(scenes.SceneGame),
			})
			if err != nil {
				log.Error("Failed to create game reset message: %v", err)
			} else {
				t.Broadcast(ctx, msg)
			}
		}
	}

	if o.scenes != nil {
		o.replaying = true
		o.scenes.Load(ctx, scenes.SceneGame)
		o.replaying = false
		return nil
	}
	o.AwaitLoadBarrier()
	return nil
}

// OnParticipantDisconnected drops a participant that left mid-game.
func (o *Orchestrator) OnParticipantDisconnected(clientID uint64) {
	if !o.authoritative() {
		return
	}
	if o.spawner != nil {
		o.spawner.Despawn(clientID)
	}
	removed, err := o.registry.RemoveFromSnapshot(clientID)
	if err != nil {
		o.feed.Error("Session - failed to remove client %d: %v", clientID, err)
	} else if removed {
		o.feed.SystemInfo("Player removed: %d", clientID)
	}
	if o.scenes != nil {
		o.scenes.OnParticipantDisconnected(clientID)
	}
	o.evaluateBarrier()
}

// SaveLog writes the feed to the log directory and clears it.
func (o *Orchestrator) SaveLog(now time.Time) (string, error) {
	path, err := o.feed.Save(o.logDir, now)
	if err != nil {
		log.Error("Failed to save session log: %v", err)
		return "", err
	}
	log.Info("Session log saved to %s", path)
	return path, nil
}

func (o *Orchestrator) handleSceneChanged(scene scenes.Scene) {
	if scene != scenes.SceneGame || !o.authoritative() {
		return
	}
	if !o.replaying {
		o.OnSessionSceneReady()
	}
	o.AwaitLoadBarrier()
}

func (o *Orchestrator) handleSceneLoaded(event scenes.LoadEvent) {
	if event.Scene != scenes.SceneGame {
		return
	}
	o.OnLoadEventCompleted(event.Completed, event.TimedOut)
}

func (o *Orchestrator) closeMachine() {
	if o.machine == nil {
		return
	}
	o.machine.Close()
	o.machine = nil
	o.state = nil
	if o.spawner != nil {
		o.spawner.SetListener(nil)
	}
}
