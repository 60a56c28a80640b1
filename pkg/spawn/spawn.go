package spawn

import (
	"fmt"
	"sort"

	apperrors "github.com/cbodonnell/lobbyhost/pkg/errors"
	"github.com/cbodonnell/lobbyhost/pkg/log"
	"github.com/cbodonnell/lobbyhost/pkg/session"
	"github.com/google/uuid"
)

// Actor is the controlled entity of one participant.
type Actor struct {
	ID          uuid.UUID `json:"id"`
	OwnerID     uint64    `json:"ownerID"`
	DisplayName string    `json:"displayName"`
	Prefab      string    `json:"prefab"`
}

// ActorFactory creates and destroys actors in the game world.
type ActorFactory interface {
	Spawn(actor Actor) error
	Despawn(actor Actor) error
}

// ParticipantSource lists the participants that are currently connected.
type ParticipantSource interface {
	ConnectedClientIDs() []uint64
}

// Listener receives one notification per spawn or despawn batch. allSpawned
// is false when some connected participant was left without an actor.
type Listener interface {
	OnAllPlayersSpawned(allSpawned bool)
	OnAllPlayersDespawned()
}

// Coordinator keeps exactly one actor per connected participant.
type Coordinator struct {
	registry     *session.Registry
	factory      ActorFactory
	participants ParticipantSource
	prefabs      map[session.ModeID]string
	feed         *log.Feed
	listener     Listener
	actors       map[uint64]Actor
}

// NewCoordinatorOptions contains options for creating a new Coordinator.
type NewCoordinatorOptions struct {
	Registry     *session.Registry
	Factory      ActorFactory
	Participants ParticipantSource
	// Prefabs maps each mode to the actor prefab spawned for it.
	Prefabs map[session.ModeID]string
	Feed    *log.Feed
}

func NewCoordinator(opts NewCoordinatorOptions) *Coordinator {
	feed := opts.Feed
	if feed == nil {
		feed = log.NewFeed(nil)
	}
	return &Coordinator{
		registry:     opts.Registry,
		factory:      opts.Factory,
		participants: opts.Participants,
		prefabs:      opts.Prefabs,
		feed:         feed,
		actors:       make(map[uint64]Actor),
	}
}

// SetListener sets the batch listener, normally the session's game mode machine.
func (c *Coordinator) SetListener(l Listener) {
	c.listener = l
}

// SpawnAll spawns an actor for every connected participant that has none and
// then notifies the listener once, including for an empty batch.
func (c *Coordinator) SpawnAll() {
	for _, clientID := range c.connected() {
		if _, ok := c.actors[clientID]; ok {
			continue
		}
		if err := c.spawn(clientID); err != nil {
			c.feed.Error("GameMode - SpawnPlayer(Client: %d) skipped: %v", clientID, err)
		}
	}

	if c.listener != nil {
		c.listener.OnAllPlayersSpawned(c.AllSpawned())
	}
}

// DespawnAll removes every live actor and then notifies the listener once.
// Connected participants without an actor are skipped.
func (c *Coordinator) DespawnAll() {
	for _, clientID := range c.connected() {
		if _, ok := c.actors[clientID]; !ok {
			c.feed.SystemInfo("GameMode - Cant DespawnPlayer(Client: %d)", clientID)
			continue
		}
		c.Despawn(clientID)
	}
	// actors whose owner already left
	for _, clientID := range c.liveOwners() {
		c.Despawn(clientID)
	}

	if c.listener != nil {
		c.listener.OnAllPlayersDespawned()
	}
}

// Despawn removes the actor owned by clientID. A missing actor is a no-op.
func (c *Coordinator) Despawn(clientID uint64) bool {
	actor, ok := c.actors[clientID]
	if !ok {
		return false
	}
	delete(c.actors, clientID)
	if err := c.factory.Despawn(actor); err != nil {
		c.feed.Warn("GameMode - DespawnPlayer(Client: %d) failed: %v", clientID, err)
		return true
	}
	c.feed.SystemInfo("GameMode - DespawnPlayer(Client: %d)", clientID)
	return true
}

// Actor returns the live actor owned by clientID.
func (c *Coordinator) Actor(clientID uint64) (Actor, bool) {
	a, ok := c.actors[clientID]
	return a, ok
}

// Count returns the number of live actors.
func (c *Coordinator) Count() int {
	return len(c.actors)
}

// AllSpawned reports whether every connected participant has an actor.
func (c *Coordinator) AllSpawned() bool {
	for _, clientID := range c.connected() {
		if _, ok := c.actors[clientID]; !ok {
			return false
		}
	}
	return true
}

func (c *Coordinator) spawn(clientID uint64) error {
	cfg := c.registry.Config()
	prefab, ok := c.prefabs[cfg.SelectedMode]
	if !ok || prefab == "" {
		return apperrors.New(apperrors.CodeConfiguration, fmt.Sprintf("no actor prefab configured for mode %s", cfg.SelectedMode))
	}

	name, ok := c.registry.LookupDisplayName(clientID)
	if !ok {
		name = session.FallbackDisplayName(clientID)
	}

	actor := Actor{
		ID:          uuid.New(),
		OwnerID:     clientID,
		DisplayName: name,
		Prefab:      prefab,
	}
	if err := c.factory.Spawn(actor); err != nil {
		return fmt.Errorf("failed to spawn actor: %v", err)
	}
	c.actors[clientID] = actor
	c.feed.SystemInfo("GameMode - SpawnPlayer(Client: %d)", clientID)
	return nil
}

func (c *Coordinator) connected() []uint64 {
	if c.participants == nil {
		return nil
	}
	return c.participants.ConnectedClientIDs()
}

func (c *Coordinator) liveOwners() []uint64 {
	ids := make([]uint64, 0, len(c.actors))
	for id := range c.actors {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
