package game

import (
	"context"
	"sync"
	"time"

	"github.com/cbodonnell/lobbyhost/pkg/admin"
	apperrors "github.com/cbodonnell/lobbyhost/pkg/errors"
	"github.com/cbodonnell/lobbyhost/pkg/game/types"
	"github.com/cbodonnell/lobbyhost/pkg/log"
	"github.com/cbodonnell/lobbyhost/pkg/lobby"
	"github.com/cbodonnell/lobbyhost/pkg/messages"
	"github.com/cbodonnell/lobbyhost/pkg/orchestrator"
	"github.com/cbodonnell/lobbyhost/pkg/queue"
	"github.com/cbodonnell/lobbyhost/pkg/repositories/models"
	"github.com/cbodonnell/lobbyhost/pkg/scenes"
	"github.com/cbodonnell/lobbyhost/pkg/session"
	"github.com/cbodonnell/lobbyhost/pkg/workers"
	"github.com/google/uuid"
)

// GameManager owns the single authoritative context of a hosted session.
// Every registry, roster and phase write happens on its tick.
type GameManager struct {
	lobby            *lobby.Coordinator
	registry         *session.Registry
	orchestrator     *orchestrator.Orchestrator
	scenes           *scenes.Manager
	console          *admin.Console
	kill             *admin.KillCommand
	serverEventQueue queue.Queue[types.ServerEvent]
	saveLogChan      chan<- workers.SaveLogRequest
	gameLoopInterval time.Duration

	inGame bool

	lock    sync.RWMutex
	latest  *messages.SessionState
	current *models.SessionRecord
}

// NewGameManagerOptions contains options for creating a new GameManager.
type NewGameManagerOptions struct {
	Lobby            *lobby.Coordinator
	Registry         *session.Registry
	Orchestrator     *orchestrator.Orchestrator
	Scenes           *scenes.Manager
	Console          *admin.Console
	Kill             *admin.KillCommand
	ServerEventQueue queue.Queue[types.ServerEvent]
	// SaveLogChan is optional; without it nothing is persisted.
	SaveLogChan      chan<- workers.SaveLogRequest
	GameLoopInterval time.Duration
}

func NewGameManager(opts NewGameManagerOptions) *GameManager {
	gm := &GameManager{
		lobby:            opts.Lobby,
		registry:         opts.Registry,
		orchestrator:     opts.Orchestrator,
		scenes:           opts.Scenes,
		console:          opts.Console,
		kill:             opts.Kill,
		serverEventQueue: opts.ServerEventQueue,
		saveLogChan:      opts.SaveLogChan,
		gameLoopInterval: opts.GameLoopInterval,
	}
	gm.scenes.OnSceneChanged(gm.onSceneChanged)
	return gm
}

// Start starts the game loop.
func (gm *GameManager) Start(ctx context.Context) error {
	ticker := time.NewTicker(gm.gameLoopInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case t := <-ticker.C:
			gm.gameTick(ctx, t)
		}
	}
}

// gameTick runs one iteration of the game loop.
func (gm *GameManager) gameTick(ctx context.Context, t time.Time) {
	gm.processServerEvents(ctx, t)
	gm.scenes.Tick(gm.gameLoopInterval)
	gm.orchestrator.Tick(gm.gameLoopInterval.Seconds())
	gm.publishState(t)
}

// processServerEvents processes all pending server events in the queue.
func (gm *GameManager) processServerEvents(ctx context.Context, t time.Time) {
	pendingEvents, err := gm.serverEventQueue.ReadAllMessages()
	if err != nil {
		log.Error("Failed to read server events: %v", err)
		return
	}
	for _, item := range pendingEvents {
		switch event := item.(type) {
		case *types.ConnectPlayerEvent:
			gm.lobby.OnParticipantConnected(event.ClientID)
		case *types.DisconnectPlayerEvent:
			log.Debug("Client %d disconnected: %s", event.ClientID, event.Reason)
			gm.lobby.OnParticipantDisconnected(event.ClientID)
			gm.orchestrator.OnParticipantDisconnected(event.ClientID)
		case *types.ClientMessageEvent:
			gm.handleClientMessage(ctx, event.Message)
		case *types.ProviderResultEvent:
			gm.handleProviderResult(event.Result)
		case *types.StartSessionCommand:
			event.Reply <- gm.startSession(ctx, session.HostClientID, event.Mode, t)
		case *types.ExitGameCommand:
			event.Reply <- gm.exitGame(ctx, t)
		case *types.ReplayCommand:
			event.Reply <- gm.orchestrator.RequestReplay(ctx)
		case *types.KickCommand:
			event.Reply <- gm.lobby.Kick(session.HostClientID, event.TargetID)
		case *types.KillCommand:
			event.Reply <- gm.kill.Execute(event.Args)
		case *types.ConsoleCommand:
			event.Reply <- gm.console.Run(event.Line)
		case *types.SaveLogCommand:
			event.Reply <- gm.saveLog(t)
		case *types.SessionInfoQuery:
			event.Reply <- gm.sessionInfo()
		default:
			log.Error("Unhandled server event type: %T", event)
		}
	}
}

// handleClientMessage applies a request sent by a participant. The sender
// is the id stamped by the transport.
func (gm *GameManager) handleClientMessage(ctx context.Context, message *messages.Message) {
	clientID := message.ClientID
	var err error
	switch message.Type {
	case messages.MessageTypeClientPing:
		gm.send(ctx, clientID, messages.MessageTypeServerPong, nil)
	case messages.MessageTypeClientSetDisplayName:
		payload := &messages.ClientSetDisplayName{}
		if err = message.Decode(payload); err == nil {
			err = gm.lobby.SetDisplayName(clientID, clientID, payload.DisplayName)
		}
	case messages.MessageTypeClientStartSession:
		payload := &messages.ClientStartSession{}
		if err = message.Decode(payload); err == nil {
			err = gm.startSession(ctx, clientID, payload.Mode, time.Now())
		}
	case messages.MessageTypeClientKick:
		payload := &messages.ClientKick{}
		if err = message.Decode(payload); err == nil {
			err = gm.lobby.Kick(clientID, payload.TargetID)
		}
	case messages.MessageTypeClientLoadComplete:
		payload := &messages.ClientLoadComplete{}
		if err = message.Decode(payload); err == nil {
			gm.reportLoaded(clientID, payload)
		}
	default:
		log.Error("Unhandled message type: %s", message.Type)
	}
	if err != nil {
		log.Warn("Rejected %s from client %d: %v", message.Type, clientID, err)
	}
}

// reportLoaded routes a load report to the running scene operation. A report
// that arrives after the operation timed out still counts for spawning.
func (gm *GameManager) reportLoaded(clientID uint64, payload *messages.ClientLoadComplete) {
	if gm.scenes.Loading() {
		gm.scenes.ReportLoaded(clientID, payload.OperationID)
		return
	}
	if scenes.Scene(payload.Scene) == gm.scenes.Current() {
		gm.orchestrator.ReportLoaded(clientID)
	}
}

func (gm *GameManager) handleProviderResult(result lobby.ProviderResult) {
	gm.lobby.HandleProviderResult(result)
	if result.Err != nil || !result.Host {
		return
	}
	gm.scenes.SetBroadcaster(result.Transport)
	gm.scenes.LoadLocal(scenes.SceneLobby)
}

func (gm *GameManager) startSession(ctx context.Context, requesterID uint64, mode session.ModeID, now time.Time) error {
	if err := gm.lobby.StartSession(requesterID, mode); err != nil {
		return err
	}
	gm.inGame = true

	cfg := gm.registry.Config()
	record := &models.SessionRecord{
		ID:           uuid.New(),
		JoinCode:     cfg.JoinCode,
		Mode:         cfg.SelectedMode,
		Participants: gm.registry.InGameRoster(),
		StartedAt:    now,
	}
	gm.lock.Lock()
	gm.current = record
	gm.lock.Unlock()
	gm.persist(workers.SaveLogRequest{Session: copyRecord(record)})

	gm.scenes.Load(ctx, scenes.SceneGame)
	return nil
}

func (gm *GameManager) exitGame(ctx context.Context, now time.Time) error {
	if gm.scenes.Current() != scenes.SceneGame {
		return apperrors.New(apperrors.CodeInvalidArgument, "no game is running")
	}

	gm.lock.Lock()
	record := gm.current
	gm.current = nil
	gm.lock.Unlock()
	if record != nil {
		record.Participants = gm.registry.InGameRoster()
		record.EndedAt = &now
		gm.persist(workers.SaveLogRequest{Session: record})
	}

	gm.orchestrator.Exit(ctx)
	return nil
}

func (gm *GameManager) onSceneChanged(scene scenes.Scene) {
	if scene != scenes.SceneLobby || !gm.inGame {
		return
	}
	gm.inGame = false
	if err := gm.lobby.RestoreFromSession(); err != nil {
		log.Error("Failed to restore lobby from session: %v", err)
	}
}

func (gm *GameManager) saveLog(now time.Time) types.SaveLogResult {
	entries := gm.orchestrator.Feed().Entries()
	path, err := gm.orchestrator.SaveLog(now)
	if err != nil {
		return types.SaveLogResult{Err: err}
	}

	if record, ok := gm.CurrentSession(); ok {
		persisted := make([]models.LogEntry, 0, len(entries))
		for _, e := range entries {
			persisted = append(persisted, models.LogEntry{
				SessionID: record.ID,
				Timestamp: now.UnixMilli(),
				Severity:  e.Severity.String(),
				Text:      e.Text,
			})
		}
		gm.persist(workers.SaveLogRequest{Session: record, Entries: persisted})
	}
	return types.SaveLogResult{Path: path}
}

func (gm *GameManager) sessionInfo() types.SessionInfo {
	state := gm.lobby.State()
	snapshot := gm.orchestrator.Snapshot()
	info := types.SessionInfo{
		Config:       gm.registry.Config(),
		LobbyState:   state.State.String(),
		LobbyReason:  state.Reason,
		Scene:        string(gm.scenes.Current()),
		Roster:       gm.lobby.Roster(),
		InGameRoster: gm.registry.InGameRoster(),
		Game:         snapshot,
	}
	if gm.orchestrator.Machine() != nil {
		info.Phase = snapshot.Phase.String()
	}
	return info
}

func (gm *GameManager) send(ctx context.Context, clientID uint64, t messages.MessageType, payload interface{}) {
	transport := gm.lobby.Transport()
	if transport == nil {
		return
	}
	msg, err := messages.NewMessage(transport.LocalClientID(), t, payload)
	if err != nil {
		log.Error("Failed to create %s message: %v", t, err)
		return
	}
	if err := transport.Send(ctx, clientID, msg); err != nil {
		log.Warn("Failed to send %s to client %d: %v", t, clientID, err)
	}
}

func (gm *GameManager) persist(req workers.SaveLogRequest) {
	if gm.saveLogChan == nil {
		return
	}
	select {
	case gm.saveLogChan <- req:
	default:
		log.Warn("Save queue is full, dropping save request")
	}
}

// publishState stores the snapshot the broadcast worker sends next.
func (gm *GameManager) publishState(t time.Time) {
	state := &messages.SessionState{
		Timestamp:          t.UnixMilli(),
		Config:             gm.registry.Config(),
		Participants:       gm.lobby.Roster(),
		InGameParticipants: gm.registry.InGameRoster(),
		Game:               gm.orchestrator.Snapshot(),
	}
	gm.lock.Lock()
	gm.latest = state
	gm.lock.Unlock()
}

// SessionState returns the latest published session state. It is safe for
// concurrent use.
func (gm *GameManager) SessionState() *messages.SessionState {
	gm.lock.RLock()
	defer gm.lock.RUnlock()
	return gm.latest
}

// CurrentSession returns a copy of the running session record with the
// current in-game roster. It is safe for concurrent use.
func (gm *GameManager) CurrentSession() (*models.SessionRecord, bool) {
	gm.lock.RLock()
	record := gm.current
	gm.lock.RUnlock()
	if record == nil {
		return nil, false
	}
	out := copyRecord(record)
	out.Participants = gm.registry.InGameRoster()
	return out, true
}

func copyRecord(record *models.SessionRecord) *models.SessionRecord {
	out := *record
	out.Participants = session.CopyRoster(record.Participants)
	return &out
}
