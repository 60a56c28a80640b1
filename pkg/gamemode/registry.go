package gamemode

import (
	"fmt"
	"sort"
	"sync"

	apperrors "github.com/cbodonnell/lobbyhost/pkg/errors"
	"github.com/cbodonnell/lobbyhost/pkg/session"
)

// Factory creates a fresh Mode for one session.
type Factory func() Mode

// Registry maps mode ids to factories. It is filled once at startup.
type Registry struct {
	lock      sync.RWMutex
	factories map[session.ModeID]Factory
}

func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[session.ModeID]Factory),
	}
}

// Register adds a factory. The unset mode, nil factories and duplicates are rejected.
func (r *Registry) Register(id session.ModeID, factory Factory) error {
	if id == session.ModeNone {
		return apperrors.New(apperrors.CodeConfiguration, "cannot register the unset mode")
	}
	if factory == nil {
		return apperrors.New(apperrors.CodeConfiguration, fmt.Sprintf("nil factory for mode %s", id))
	}

	r.lock.Lock()
	defer r.lock.Unlock()
	if _, ok := r.factories[id]; ok {
		return apperrors.New(apperrors.CodeConfiguration, fmt.Sprintf("mode %s is already registered", id))
	}
	r.factories[id] = factory
	return nil
}

// MustRegister is Register for startup code; it panics on error.
func (r *Registry) MustRegister(id session.ModeID, factory Factory) {
	if err := r.Register(id, factory); err != nil {
		panic(err)
	}
}

func (r *Registry) Lookup(id session.ModeID) (Factory, bool) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	f, ok := r.factories[id]
	return f, ok
}

// Modes returns the registered mode ids in sorted order.
func (r *Registry) Modes() []session.ModeID {
	r.lock.RLock()
	defer r.lock.RUnlock()
	ids := make([]session.ModeID, 0, len(r.factories))
	for id := range r.factories {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
