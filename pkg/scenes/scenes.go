package scenes

import (
	"context"
	"sort"
	"time"

	"github.com/cbodonnell/lobbyhost/pkg/log"
	"github.com/cbodonnell/lobbyhost/pkg/messages"
	"github.com/google/uuid"
)

// Scene names a loadable scene.
type Scene string

const (
	SceneNone  Scene = ""
	SceneLobby Scene = "Lobby"
	SceneGame  Scene = "Game"
)

// DefaultLoadTimeout is how long a load operation waits for slow clients.
const DefaultLoadTimeout = 30 * time.Second

// LoadEvent reports the end of a load operation. Completed holds the ids
// that finished loading, TimedOut the ids that did not report in time.
type LoadEvent struct {
	Scene       Scene
	OperationID string
	Completed   []uint64
	TimedOut    []uint64
}

// Broadcaster sends a message to every remote participant.
type Broadcaster interface {
	Broadcast(ctx context.Context, msg *messages.Message)
}

// ParticipantSource lists the participants expected to load a scene.
type ParticipantSource interface {
	ConnectedClientIDs() []uint64
}

type operation struct {
	id        string
	scene     Scene
	pending   map[uint64]struct{}
	completed map[uint64]struct{}
	elapsed   time.Duration
}

// Manager runs scene loads across the session. It is driven from the tick
// loop; none of its methods are safe for concurrent use.
type Manager struct {
	localID      uint64
	participants ParticipantSource
	broadcaster  Broadcaster
	timeout      time.Duration

	current   Scene
	op        *operation
	onLoaded  []func(LoadEvent)
	onChanged []func(Scene)
}

// NewManagerOptions contains options for creating a new Manager.
type NewManagerOptions struct {
	// LocalID is the id of the participant running this manager. Its own
	// load completes as soon as the scene is switched.
	LocalID      uint64
	Participants ParticipantSource
	Broadcaster  Broadcaster
	Timeout      time.Duration
}

func NewManager(opts NewManagerOptions) *Manager {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultLoadTimeout
	}
	return &Manager{
		localID:      opts.LocalID,
		participants: opts.Participants,
		broadcaster:  opts.Broadcaster,
		timeout:      timeout,
	}
}

// SetBroadcaster replaces the broadcaster once a transport is up.
func (m *Manager) SetBroadcaster(b Broadcaster) {
	m.broadcaster = b
}

// OnLoaded subscribes to the end of load operations.
func (m *Manager) OnLoaded(h func(LoadEvent)) {
	m.onLoaded = append(m.onLoaded, h)
}

// OnSceneChanged subscribes to local scene switches.
func (m *Manager) OnSceneChanged(h func(Scene)) {
	m.onChanged = append(m.onChanged, h)
}

// Current returns the scene loaded locally.
func (m *Manager) Current() Scene {
	return m.current
}

// Loading reports whether a load operation is waiting for participants.
func (m *Manager) Loading() bool {
	return m.op != nil
}

// Load switches every participant to scene. The previous operation, if
// any, is abandoned without an event. It returns the operation id clients
// echo back in their load-complete message.
func (m *Manager) Load(ctx context.Context, scene Scene) string {
	if m.op != nil {
		log.Debug("Abandoning load of %s (%s)", m.op.scene, m.op.id)
	}
	op := &operation{
		id:        uuid.NewString(),
		scene:     scene,
		pending:   make(map[uint64]struct{}),
		completed: make(map[uint64]struct{}),
	}
	if m.participants != nil {
		for _, id := range m.participants.ConnectedClientIDs() {
			op.pending[id] = struct{}{}
		}
	}
	m.op = op

	if m.broadcaster != nil {
		msg, err := messages.NewMessage(m.localID, messages.MessageTypeServerLoadScene, messages.ServerLoadScene{
			Scene:       string(scene),
			OperationID: op.id,
		})
		if err != nil {
			log.Error("Failed to create load scene message: %v", err)
		} else {
			m.broadcaster.Broadcast(ctx, msg)
		}
	}

	m.LoadLocal(scene)
	if m.op != op {
		return op.id
	}
	if _, ok := op.pending[m.localID]; ok {
		op.completed[m.localID] = struct{}{}
	}
	m.checkDone()
	return op.id
}

// LoadLocal switches the local scene without starting an operation.
func (m *Manager) LoadLocal(scene Scene) {
	m.current = scene
	log.Info("Scene loaded: %s", scene)
	for _, h := range m.onChanged {
		h(scene)
	}
}

// ReportLoaded records that clientID finished loading. Reports for an
// unknown operation or from a participant that was not expected are ignored.
func (m *Manager) ReportLoaded(clientID uint64, operationID string) {
	if m.op == nil || m.op.id != operationID {
		log.Debug("Ignoring load report from client %d for operation %s", clientID, operationID)
		return
	}
	if _, ok := m.op.pending[clientID]; !ok {
		return
	}
	m.op.completed[clientID] = struct{}{}
	m.checkDone()
}

// OnParticipantDisconnected stops waiting for clientID.
func (m *Manager) OnParticipantDisconnected(clientID uint64) {
	if m.op == nil {
		return
	}
	delete(m.op.pending, clientID)
	delete(m.op.completed, clientID)
	m.checkDone()
}

// Tick advances the timeout of the running operation.
func (m *Manager) Tick(dt time.Duration) {
	if m.op == nil {
		return
	}
	m.op.elapsed += dt
	if m.op.elapsed >= m.timeout {
		m.finish()
	}
}

func (m *Manager) checkDone() {
	if len(m.op.completed) >= len(m.op.pending) {
		m.finish()
	}
}

func (m *Manager) finish() {
	op := m.op
	m.op = nil

	event := LoadEvent{
		Scene:       op.scene,
		OperationID: op.id,
		Completed:   sortedIDs(op.completed),
	}
	for id := range op.pending {
		if _, ok := op.completed[id]; !ok {
			event.TimedOut = append(event.TimedOut, id)
		}
	}
	sort.Slice(event.TimedOut, func(i, j int) bool { return event.TimedOut[i] < event.TimedOut[j] })

	for _, h := range m.onLoaded {
		h(event)
	}
}

func sortedIDs(set map[uint64]struct{}) []uint64 {
	ids := make([]uint64, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
