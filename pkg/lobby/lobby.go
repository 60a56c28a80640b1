package lobby

import (
	"context"
	"fmt"
	"sync"

	apperrors "github.com/cbodonnell/lobbyhost/pkg/errors"
	"github.com/cbodonnell/lobbyhost/pkg/log"
	"github.com/cbodonnell/lobbyhost/pkg/network"
	"github.com/cbodonnell/lobbyhost/pkg/session"
)

const (
	// KickedReason is shown to a client the host removed.
	KickedReason = "You have been kicked by host"
	// UnavailableReason is shown to a client that lost or never got its connection.
	UnavailableReason = "Lobby is full or unavailable"
	// StartedReason is the denial reason once the session is running.
	StartedReason = "Session already started"
	// ShutdownReason accompanies the Idle state after the host closes the lobby.
	ShutdownReason = "Lobby was shut down"
	// InvalidModeReason accompanies a start request without a game mode.
	InvalidModeReason = "Select valid gamemode"
	// ReconnectedReason accompanies a client returning from a game.
	ReconnectedReason = "Lobby Reconnected"
)

// State is the lobby connection state shown to the local user.
type State int

const (
	StateNone State = iota
	StateIdle
	StateConnecting
	StateHostSuccess
	StateClientSuccess
	StateError
)

func (s State) String() string {
	switch s {
	case StateNone:
		return "None"
	case StateIdle:
		return "Idle"
	case StateConnecting:
		return "Connecting"
	case StateHostSuccess:
		return "HostSuccess"
	case StateClientSuccess:
		return "ClientSuccess"
	case StateError:
		return "Error"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// StateEvent is emitted on every lobby state change. For HostSuccess the
// reason is the join code.
type StateEvent struct {
	State  State
	Reason string
}

// Approval is the outcome of a connection request.
type Approval struct {
	Approved bool
	Reason   string
	Code     apperrors.Code
}

// ProviderResult is the outcome of a detached host or join attempt.
type ProviderResult struct {
	Host      bool
	JoinCode  string
	Transport network.Transport
	Err       error
}

// ResultSink hands a ProviderResult back to the tick context.
type ResultSink func(result ProviderResult)

// Coordinator owns the pre-game roster. Approval may be called from any
// goroutine; everything else runs on the tick context.
type Coordinator struct {
	registry         *session.Registry
	provider         network.Provider
	deliver          ResultSink
	onTransportReady func(network.Transport)

	lock      sync.Mutex
	transport network.Transport
	roster    []session.Participant
	pending   map[uint64]struct{}
	kicked    map[uint64]struct{}
	state     StateEvent

	handlerLock    sync.Mutex
	rosterHandlers []func([]session.Participant)
	stateHandlers  []func(StateEvent)
}

// NewCoordinatorOptions contains options for creating a new Coordinator.
type NewCoordinatorOptions struct {
	Registry *session.Registry
	Provider network.Provider
	// Deliver receives provider results. Without it results are applied
	// directly on the provider goroutine, which is only safe in tests.
	Deliver ResultSink
	// OnTransportReady is called on the tick context once a transport is up.
	OnTransportReady func(network.Transport)
}

func NewCoordinator(opts NewCoordinatorOptions) *Coordinator {
	c := &Coordinator{
		registry:         opts.Registry,
		provider:         opts.Provider,
		deliver:          opts.Deliver,
		onTransportReady: opts.OnTransportReady,
		pending:          make(map[uint64]struct{}),
		kicked:           make(map[uint64]struct{}),
	}
	if c.deliver == nil {
		c.deliver = c.HandleProviderResult
	}
	if setter, ok := opts.Provider.(network.ApprovalSetter); ok {
		setter.SetApprovalFunc(func(clientID uint64) (bool, string) {
			approval := c.ApproveConnection(clientID)
			return approval.Approved, approval.Reason
		})
	}
	return c
}

// OnRosterChanged subscribes to roster changes. Handlers receive a copy.
func (c *Coordinator) OnRosterChanged(h func(roster []session.Participant)) {
	c.handlerLock.Lock()
	defer c.handlerLock.Unlock()
	c.rosterHandlers = append(c.rosterHandlers, h)
}

// OnStateChanged subscribes to lobby state changes.
func (c *Coordinator) OnStateChanged(h func(event StateEvent)) {
	c.handlerLock.Lock()
	defer c.handlerLock.Unlock()
	c.stateHandlers = append(c.stateHandlers, h)
}

// ApproveConnection decides whether a candidate may join. An approved
// candidate holds a pending slot until it connects or disconnects.
func (c *Coordinator) ApproveConnection(clientID uint64) Approval {
	c.lock.Lock()
	defer c.lock.Unlock()

	if c.registry.Config().Started {
		return Approval{Reason: StartedReason, Code: apperrors.CodeAlreadyStarted}
	}
	capacity := c.registry.Config().MaxParticipants
	if len(c.roster)+len(c.pending) >= capacity {
		return Approval{Reason: UnavailableReason, Code: apperrors.CodeCapacityExceeded}
	}
	c.pending[clientID] = struct{}{}
	return Approval{Approved: true}
}

// OnParticipantConnected adds a participant under its default name. A
// candidate approved before the session started but connected after it is
// disconnected instead.
func (c *Coordinator) OnParticipantConnected(clientID uint64) {
	c.lock.Lock()
	delete(c.pending, clientID)
	delete(c.kicked, clientID)
	if c.registry.Authoritative() && c.registry.Config().Started && c.indexLocked(clientID) < 0 {
		transport := c.transport
		c.lock.Unlock()
		log.Warn("Client %d connected after the session started, disconnecting", clientID)
		if transport != nil {
			if err := transport.DisconnectClient(clientID, StartedReason); err != nil {
				log.Warn("Failed to disconnect late client %d: %v", clientID, err)
			}
		}
		return
	}
	if c.indexLocked(clientID) >= 0 {
		c.lock.Unlock()
		return
	}
	c.roster = append(c.roster, session.Participant{
		ClientID:    clientID,
		DisplayName: session.DefaultDisplayName(clientID),
	})
	roster := session.CopyRoster(c.roster)
	c.lock.Unlock()

	log.Info("Client %d joined the lobby", clientID)
	c.emitRoster(roster)
}

// OnParticipantDisconnected removes a participant. Absent ids are ignored.
func (c *Coordinator) OnParticipantDisconnected(clientID uint64) {
	c.lock.Lock()
	delete(c.pending, clientID)
	_, wasKicked := c.kicked[clientID]
	delete(c.kicked, clientID)
	i := c.indexLocked(clientID)
	if i < 0 {
		c.lock.Unlock()
		if wasKicked {
			log.Debug("Kicked client %d disconnected", clientID)
		}
		return
	}
	c.roster = append(c.roster[:i:i], c.roster[i+1:]...)
	roster := session.CopyRoster(c.roster)
	c.lock.Unlock()

	log.Info("Client %d left the lobby", clientID)
	c.emitRoster(roster)
}

// SetDisplayName renames targetID. callerID must be the authenticated
// sender of the request; participants can only rename themselves.
func (c *Coordinator) SetDisplayName(callerID, targetID uint64, name string) error {
	if callerID != targetID {
		return apperrors.New(apperrors.CodeAuthorityViolation, "participants can only rename themselves")
	}
	if err := session.ValidateDisplayName(name); err != nil {
		return err
	}

	c.lock.Lock()
	i := c.indexLocked(targetID)
	if i < 0 || c.roster[i].DisplayName == name {
		c.lock.Unlock()
		return nil
	}
	c.roster[i].DisplayName = name
	roster := session.CopyRoster(c.roster)
	c.lock.Unlock()

	c.emitRoster(roster)
	return nil
}

// Kick removes targetID from the lobby. Only the host may kick, and never itself.
func (c *Coordinator) Kick(requesterID, targetID uint64) error {
	if requesterID != session.HostClientID {
		return apperrors.New(apperrors.CodeAuthorityViolation, "only the host can kick participants")
	}
	if targetID == requesterID {
		return apperrors.New(apperrors.CodeInvalidArgument, "the host cannot kick itself")
	}

	c.lock.Lock()
	i := c.indexLocked(targetID)
	if i < 0 {
		c.lock.Unlock()
		return nil
	}
	c.kicked[targetID] = struct{}{}
	c.roster = append(c.roster[:i:i], c.roster[i+1:]...)
	roster := session.CopyRoster(c.roster)
	transport := c.transport
	c.lock.Unlock()

	if transport != nil {
		if err := transport.DisconnectClient(targetID, KickedReason); err != nil {
			log.Warn("Failed to disconnect kicked client %d: %v", targetID, err)
		}
	}
	log.Info("Client %d was kicked", targetID)
	c.emitRoster(roster)
	return nil
}

// RestoreFromSession refills the roster from the in-game snapshot when the
// lobby comes back after a game, then clears the snapshot.
func (c *Coordinator) RestoreFromSession() error {
	snapshot := c.registry.InGameRoster()

	c.lock.Lock()
	c.roster = session.CopyRoster(snapshot)
	roster := session.CopyRoster(c.roster)
	c.lock.Unlock()

	c.emitRoster(roster)
	if c.registry.Authoritative() {
		if err := c.registry.ClearSnapshot(); err != nil {
			return err
		}
		c.setState(StateHostSuccess, c.registry.Config().JoinCode)
	} else {
		c.setState(StateClientSuccess, ReconnectedReason)
	}
	return nil
}

// StartSession snapshots the roster into the registry. Host only.
func (c *Coordinator) StartSession(requesterID uint64, mode session.ModeID) error {
	if requesterID != session.HostClientID {
		return apperrors.New(apperrors.CodeAuthorityViolation, "only the host can start the session")
	}
	c.lock.Lock()
	roster := session.CopyRoster(c.roster)
	c.lock.Unlock()

	if err := c.registry.Start(mode, roster); err != nil {
		if apperrors.HasCode(err, apperrors.CodeConfiguration) {
			c.setState(StateNone, InvalidModeReason)
		}
		return err
	}
	log.Info("Session started with mode %s and %d participants", mode, len(roster))
	return nil
}

// StartHost allocates a lobby in the background. The outcome arrives as a
// ProviderResult through the configured sink.
func (c *Coordinator) StartHost(ctx context.Context, maxParticipants int) error {
	if c.provider == nil {
		return apperrors.New(apperrors.CodeConfiguration, "no connectivity provider configured")
	}
	if err := c.registry.SetMaxParticipants(maxParticipants); err != nil {
		return err
	}
	c.lock.Lock()
	c.roster = nil
	c.pending = make(map[uint64]struct{})
	c.lock.Unlock()
	c.setState(StateConnecting, "Creating lobby...")

	go func() {
		code, transport, err := c.provider.ConnectAsHost(ctx, maxParticipants)
		c.deliver(ProviderResult{Host: true, JoinCode: code, Transport: transport, Err: err})
	}()
	return nil
}

// JoinLobby connects to a hosted lobby in the background.
func (c *Coordinator) JoinLobby(ctx context.Context, joinCode string) error {
	if c.provider == nil {
		return apperrors.New(apperrors.CodeConfiguration, "no connectivity provider configured")
	}
	c.setState(StateConnecting, "Joining lobby...")

	go func() {
		transport, err := c.provider.ConnectAsClient(ctx, joinCode)
		c.deliver(ProviderResult{JoinCode: joinCode, Transport: transport, Err: err})
	}()
	return nil
}

// HandleProviderResult applies the outcome of StartHost or JoinLobby.
func (c *Coordinator) HandleProviderResult(result ProviderResult) {
	if result.Err != nil {
		reason := "invalid code or unconnectable lobby"
		if result.Host {
			reason = "failed to create lobby"
		}
		if apperrors.HasCode(result.Err, apperrors.CodeProviderFailure) || apperrors.HasCode(result.Err, apperrors.CodeInvalidArgument) {
			reason = apperrors.Reason(result.Err)
		}
		log.Error("Lobby connection failed: %v", result.Err)
		c.setState(StateError, reason)
		return
	}

	c.lock.Lock()
	c.transport = result.Transport
	c.lock.Unlock()
	if c.onTransportReady != nil {
		c.onTransportReady(result.Transport)
	}

	if result.Host {
		if err := c.registry.SetJoinCode(result.JoinCode); err != nil {
			log.Error("Failed to store join code: %v", err)
		}
		c.setState(StateHostSuccess, result.JoinCode)
		return
	}
	c.setState(StateClientSuccess, "connected")
}

// Transport returns the active transport, or nil before a successful setup.
func (c *Coordinator) Transport() network.Transport {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.transport
}

// LeaveLobby disconnects a client from its host.
func (c *Coordinator) LeaveLobby() error {
	if c.registry.Authoritative() {
		return apperrors.New(apperrors.CodeInvalidArgument, "the host shuts the lobby down instead of leaving")
	}
	c.closeTransport()
	c.setState(StateIdle, "Left lobby")
	return nil
}

// ShutdownLobby closes the hosted lobby for everyone.
func (c *Coordinator) ShutdownLobby() error {
	if !c.registry.Authoritative() {
		return apperrors.New(apperrors.CodeAuthorityViolation, "only the host can shut the lobby down")
	}
	c.closeTransport()
	c.setState(StateIdle, ShutdownReason)
	return nil
}

// OnLocalDisconnected handles the client side of a lost connection. The
// reason is whatever the host sent before closing.
func (c *Coordinator) OnLocalDisconnected(reason string) {
	c.lock.Lock()
	c.transport = nil
	c.roster = nil
	c.lock.Unlock()
	c.emitRoster(nil)

	if reason == KickedReason {
		c.setState(StateIdle, KickedReason)
		return
	}
	c.setState(StateIdle, UnavailableReason)
}

// Roster returns a copy of the lobby roster.
func (c *Coordinator) Roster() []session.Participant {
	c.lock.Lock()
	defer c.lock.Unlock()
	return session.CopyRoster(c.roster)
}

// ReplicateRoster replaces the roster with one received from the host.
func (c *Coordinator) ReplicateRoster(roster []session.Participant) {
	c.lock.Lock()
	c.roster = session.CopyRoster(roster)
	c.lock.Unlock()
	c.emitRoster(session.CopyRoster(roster))
}

// ConnectedClientIDs lists participants in roster order.
func (c *Coordinator) ConnectedClientIDs() []uint64 {
	c.lock.Lock()
	defer c.lock.Unlock()
	ids := make([]uint64, 0, len(c.roster))
	for _, p := range c.roster {
		ids = append(ids, p.ClientID)
	}
	return ids
}

// State returns the latest lobby state event.
func (c *Coordinator) State() StateEvent {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.state
}

func (c *Coordinator) closeTransport() {
	c.lock.Lock()
	transport := c.transport
	c.transport = nil
	c.roster = nil
	c.pending = make(map[uint64]struct{})
	c.lock.Unlock()

	if transport != nil {
		if err := transport.Shutdown(); err != nil {
			log.Warn("Failed to shut transport down: %v", err)
		}
	}
	c.emitRoster(nil)
}

func (c *Coordinator) indexLocked(clientID uint64) int {
	for i, p := range c.roster {
		if p.ClientID == clientID {
			return i
		}
	}
	return -1
}

func (c *Coordinator) setState(state State, reason string) {
	event := StateEvent{State: state, Reason: reason}
	c.lock.Lock()
	c.state = event
	c.lock.Unlock()

	log.Debug("Lobby state %s: %s", state, reason)
	c.handlerLock.Lock()
	handlers := append([]func(StateEvent){}, c.stateHandlers...)
	c.handlerLock.Unlock()
	for _, h := range handlers {
		h(event)
	}
}

func (c *Coordinator) emitRoster(roster []session.Participant) {
	c.handlerLock.Lock()
	handlers := append([]func([]session.Participant){}, c.rosterHandlers...)
	c.handlerLock.Unlock()
	for _, h := range handlers {
		h(session.CopyRoster(roster))
	}
}
