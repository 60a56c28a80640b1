package session

import (
	"strings"
	"sync"

	apperrors "github.com/cbodonnell/lobbyhost/pkg/errors"
	"github.com/cbodonnell/lobbyhost/pkg/state"
)

// Registry holds the replicated session configuration and the in-game roster
// snapshot taken when the session starts. It outlives the lobby and game
// scenes so players can be restored on return to the lobby.
type Registry struct {
	config *state.Value[Config]

	lock              sync.RWMutex
	snapshot          []Participant
	snapshotHandlers  map[int]func([]Participant)
	nextSnapshotIndex int
}

// NewRegistryOptions contains options for creating a new Registry.
type NewRegistryOptions struct {
	// Authoritative is true on the hosting side. Replicas only accept Replicate.
	Authoritative   bool
	IsHost          bool
	MaxParticipants int
	SelectedMode    ModeID
}

func NewRegistry(opts NewRegistryOptions) *Registry {
	return &Registry{
		config: state.NewValue(Config{
			SelectedMode:    opts.SelectedMode,
			MaxParticipants: opts.MaxParticipants,
			IsHost:          opts.IsHost,
		}, opts.Authoritative),
		snapshotHandlers: make(map[int]func([]Participant)),
	}
}

func (r *Registry) Authoritative() bool {
	return r.config.Authoritative()
}

// Config returns the current configuration.
func (r *Registry) Config() Config {
	return r.config.Get()
}

// OnConfigChanged subscribes to configuration changes.
func (r *Registry) OnConfigChanged(h func(old, new Config)) func() {
	return r.config.Subscribe(h)
}

// OnSnapshotChanged subscribes to changes of the in-game roster snapshot.
func (r *Registry) OnSnapshotChanged(h func(roster []Participant)) func() {
	r.lock.Lock()
	defer r.lock.Unlock()
	id := r.nextSnapshotIndex
	r.nextSnapshotIndex++
	r.snapshotHandlers[id] = h
	return func() {
		r.lock.Lock()
		defer r.lock.Unlock()
		delete(r.snapshotHandlers, id)
	}
}

func (r *Registry) SetSelectedMode(mode ModeID) error {
	cfg := r.config.Get()
	cfg.SelectedMode = mode
	return r.config.Set(cfg)
}

func (r *Registry) SetMaxParticipants(max int) error {
	if max < 1 {
		return apperrors.New(apperrors.CodeInvalidArgument, "max participants must be at least 1")
	}
	cfg := r.config.Get()
	cfg.MaxParticipants = max
	return r.config.Set(cfg)
}

func (r *Registry) SetJoinCode(code string) error {
	cfg := r.config.Get()
	cfg.JoinCode = code
	return r.config.Set(cfg)
}

// Start marks the session started with mode and copies roster into the
// in-game snapshot. The copy is taken under the registry lock so no roster
// change can land halfway through it.
func (r *Registry) Start(mode ModeID, roster []Participant) error {
	if !r.Authoritative() {
		return apperrors.New(apperrors.CodeAuthorityViolation, "only the host can start the session")
	}
	if mode == ModeNone {
		return apperrors.New(apperrors.CodeConfiguration, "cannot start a session without a game mode")
	}
	cfg := r.config.Get()
	if cfg.Started {
		return apperrors.New(apperrors.CodeAlreadyStarted, "session already started")
	}

	r.lock.Lock()
	r.snapshot = CopyRoster(roster)
	if r.snapshot == nil {
		r.snapshot = []Participant{}
	}
	snapshot, handlers := r.snapshotStateLocked()
	r.lock.Unlock()

	cfg.SelectedMode = mode
	cfg.Started = true
	if err := r.config.Set(cfg); err != nil {
		return err
	}
	r.notifySnapshot(snapshot, handlers)
	return nil
}

// EndSession clears the started flag but keeps the snapshot for the lobby to restore.
func (r *Registry) EndSession() error {
	cfg := r.config.Get()
	cfg.Started = false
	return r.config.Set(cfg)
}

// Teardown clears the in-game snapshot and resets the started flag.
func (r *Registry) Teardown() error {
	if err := r.EndSession(); err != nil {
		return err
	}
	return r.ClearSnapshot()
}

// ClearSnapshot empties the in-game roster snapshot.
func (r *Registry) ClearSnapshot() error {
	if !r.Authoritative() {
		return apperrors.New(apperrors.CodeAuthorityViolation, "only the host can modify the in-game roster")
	}
	r.lock.Lock()
	r.snapshot = nil
	snapshot, handlers := r.snapshotStateLocked()
	r.lock.Unlock()
	r.notifySnapshot(snapshot, handlers)
	return nil
}

// RemoveFromSnapshot drops a participant that disconnected mid-game.
// A missing id is not an error; removed reports whether anything changed.
func (r *Registry) RemoveFromSnapshot(clientID uint64) (removed bool, err error) {
	if !r.Authoritative() {
		return false, apperrors.New(apperrors.CodeAuthorityViolation, "only the host can modify the in-game roster")
	}
	r.lock.Lock()
	for i, p := range r.snapshot {
		if p.ClientID == clientID {
			r.snapshot = append(r.snapshot[:i:i], r.snapshot[i+1:]...)
			removed = true
			break
		}
	}
	if !removed {
		r.lock.Unlock()
		return false, nil
	}
	snapshot, handlers := r.snapshotStateLocked()
	r.lock.Unlock()
	r.notifySnapshot(snapshot, handlers)
	return true, nil
}

// InGameRoster returns a copy of the in-game roster snapshot.
func (r *Registry) InGameRoster() []Participant {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return CopyRoster(r.snapshot)
}

// LookupClientID resolves a display name in the in-game roster.
// Names match exactly, ignoring case.
func (r *Registry) LookupClientID(displayName string) (uint64, bool) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	for _, p := range r.snapshot {
		if strings.EqualFold(p.DisplayName, displayName) {
			return p.ClientID, true
		}
	}
	return 0, false
}

// LookupDisplayName resolves a client id in the in-game roster.
func (r *Registry) LookupDisplayName(clientID uint64) (string, bool) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	for _, p := range r.snapshot {
		if p.ClientID == clientID {
			return p.DisplayName, true
		}
	}
	return "", false
}

// Replicate applies a configuration and snapshot received from the host.
func (r *Registry) Replicate(cfg Config, roster []Participant) error {
	if err := r.config.Replicate(cfg); err != nil {
		return err
	}
	r.lock.Lock()
	r.snapshot = CopyRoster(roster)
	snapshot, handlers := r.snapshotStateLocked()
	r.lock.Unlock()
	r.notifySnapshot(snapshot, handlers)
	return nil
}

func (r *Registry) snapshotStateLocked() ([]Participant, []func([]Participant)) {
	handlers := make([]func([]Participant), 0, len(r.snapshotHandlers))
	for _, h := range r.snapshotHandlers {
		handlers = append(handlers, h)
	}
	return CopyRoster(r.snapshot), handlers
}

func (r *Registry) notifySnapshot(snapshot []Participant, handlers []func([]Participant)) {
	for _, h := range handlers {
		h(CopyRoster(snapshot))
	}
}
