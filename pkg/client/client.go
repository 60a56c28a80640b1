package client

import (
	"context"
	"time"

	"github.com/cbodonnell/lobbyhost/pkg/gamestate"
	"github.com/cbodonnell/lobbyhost/pkg/log"
	"github.com/cbodonnell/lobbyhost/pkg/lobby"
	"github.com/cbodonnell/lobbyhost/pkg/messages"
	"github.com/cbodonnell/lobbyhost/pkg/network"
	"github.com/cbodonnell/lobbyhost/pkg/scenes"
	"github.com/cbodonnell/lobbyhost/pkg/session"
)

// DefaultPingInterval is how often the replica pings the host.
const DefaultPingInterval = 2 * time.Second

// Replica mirrors a hosted session on a joining client. It applies the
// host's snapshots and answers scene loads. It never mutates session state
// on its own authority.
type Replica struct {
	lobby        *lobby.Coordinator
	registry     *session.Registry
	state        *gamestate.GameState
	scenes       *scenes.Manager
	displayName  string
	pingInterval time.Duration

	transport network.Transport
	inGame    bool
	ping      pingTracker
}

type NewReplicaOptions struct {
	Lobby    *lobby.Coordinator
	Registry *session.Registry
	State    *gamestate.GameState
	Scenes   *scenes.Manager
	// DisplayName is requested from the host once connected. Empty keeps
	// the default name.
	DisplayName  string
	PingInterval time.Duration
}

func NewReplica(opts NewReplicaOptions) *Replica {
	pingInterval := opts.PingInterval
	if pingInterval <= 0 {
		pingInterval = DefaultPingInterval
	}
	r := &Replica{
		lobby:        opts.Lobby,
		registry:     opts.Registry,
		state:        opts.State,
		scenes:       opts.Scenes,
		displayName:  opts.DisplayName,
		pingInterval: pingInterval,
	}
	r.scenes.OnSceneChanged(r.onSceneChanged)
	return r
}

// Run applies provider results and host events until ctx is done. All
// replica state is touched from this goroutine only.
func (r *Replica) Run(ctx context.Context, results <-chan lobby.ProviderResult) {
	ticker := time.NewTicker(r.pingInterval)
	defer ticker.Stop()

	var events <-chan network.Event
	for {
		select {
		case <-ctx.Done():
			return
		case result, ok := <-results:
			if !ok {
				results = nil
				continue
			}
			r.HandleProviderResult(ctx, result)
			if r.transport != nil {
				events = r.transport.Events()
			}
		case event, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			r.HandleEvent(ctx, event)
			if r.transport == nil {
				events = nil
			}
		case t := <-ticker.C:
			r.sendPing(ctx, t)
		}
	}
}

// HandleProviderResult finishes a join attempt.
func (r *Replica) HandleProviderResult(ctx context.Context, result lobby.ProviderResult) {
	r.lobby.HandleProviderResult(result)
	if result.Err != nil {
		return
	}
	r.transport = result.Transport
	log.Info("Joined lobby %s as client %d", result.JoinCode, r.transport.LocalClientID())
	r.scenes.LoadLocal(scenes.SceneLobby)
	if r.displayName != "" {
		r.send(ctx, messages.MessageTypeClientSetDisplayName, messages.ClientSetDisplayName{DisplayName: r.displayName})
	}
}

// HandleEvent applies a single event from the host connection.
func (r *Replica) HandleEvent(ctx context.Context, event network.Event) {
	switch event.Type {
	case network.EventTypeDisconnect:
		log.Info("Disconnected from host: %s", event.Reason)
		r.transport = nil
		r.inGame = false
		r.lobby.OnLocalDisconnected(event.Reason)
		r.scenes.LoadLocal(scenes.SceneNone)
	case network.EventTypeMessage:
		if event.Message != nil {
			r.handleMessage(ctx, event.Message)
		}
	}
}

func (r *Replica) handleMessage(ctx context.Context, msg *messages.Message) {
	switch msg.Type {
	case messages.MessageTypeServerSessionState:
		state, err := messages.DeserializeSessionState(msg.Payload)
		if err != nil {
			log.Error("Failed to deserialize session state: %v", err)
			return
		}
		r.applySessionState(state)
	case messages.MessageTypeServerLoadScene:
		load := &messages.ServerLoadScene{}
		if err := msg.Decode(load); err != nil {
			log.Error("Failed to decode scene load: %v", err)
			return
		}
		r.scenes.LoadLocal(scenes.Scene(load.Scene))
		r.send(ctx, messages.MessageTypeClientLoadComplete, messages.ClientLoadComplete{
			Scene:       load.Scene,
			OperationID: load.OperationID,
		})
	case messages.MessageTypeServerGameReset:
		log.Info("Host restarted the game")
	case messages.MessageTypeServerPong:
		r.ping.received(time.Now())
	case messages.MessageTypeServerDisconnect:
		// the reason arrives again with the disconnect event
	default:
		log.Debug("Ignoring %s from host", msg.Type)
	}
}

func (r *Replica) applySessionState(state *messages.SessionState) {
	if err := r.registry.Replicate(state.Config, state.InGameParticipants); err != nil {
		log.Error("Failed to replicate session config: %v", err)
	}
	r.lobby.ReplicateRoster(state.Participants)
	if r.state != nil {
		if err := r.state.ApplySnapshot(state.Game); err != nil {
			log.Error("Failed to apply game state: %v", err)
		}
	}
}

func (r *Replica) onSceneChanged(scene scenes.Scene) {
	switch scene {
	case scenes.SceneGame:
		r.inGame = true
	case scenes.SceneLobby:
		if !r.inGame {
			return
		}
		r.inGame = false
		if err := r.lobby.RestoreFromSession(); err != nil {
			log.Error("Failed to restore lobby from session: %v", err)
		}
	}
}

// Leave disconnects from the host and returns to the local lobby scene.
// Call it after Run returns.
func (r *Replica) Leave() error {
	if err := r.lobby.LeaveLobby(); err != nil {
		return err
	}
	r.transport = nil
	r.inGame = false
	r.scenes.LoadLocal(scenes.SceneLobby)
	return nil
}

// Ping returns the estimated round trip time to the host.
func (r *Replica) Ping() time.Duration {
	return r.ping.estimate()
}

func (r *Replica) sendPing(ctx context.Context, now time.Time) {
	if r.transport == nil {
		return
	}
	r.ping.sent(now)
	r.send(ctx, messages.MessageTypeClientPing, nil)
}

func (r *Replica) send(ctx context.Context, t messages.MessageType, payload interface{}) {
	if r.transport == nil {
		return
	}
	msg, err := messages.NewMessage(r.transport.LocalClientID(), t, payload)
	if err != nil {
		log.Error("Failed to create %s message: %v", t, err)
		return
	}
	if err := r.transport.Send(ctx, network.HostClientID, msg); err != nil {
		log.Warn("Failed to send %s to host: %v", t, err)
	}
}
