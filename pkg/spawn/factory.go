package spawn

import (
	"fmt"
	"sync"

	"github.com/cbodonnell/lobbyhost/pkg/log"
	"github.com/google/uuid"
)

var _ ActorFactory = &LoggingFactory{}

// LoggingFactory stands in for a game world on a headless host. It records
// the live actors and logs every spawn and despawn.
type LoggingFactory struct {
	lock   sync.Mutex
	actors map[uuid.UUID]Actor
}

func NewLoggingFactory() *LoggingFactory {
	return &LoggingFactory{actors: make(map[uuid.UUID]Actor)}
}

func (f *LoggingFactory) Spawn(actor Actor) error {
	f.lock.Lock()
	defer f.lock.Unlock()
	if _, ok := f.actors[actor.ID]; ok {
		return fmt.Errorf("actor %s already exists", actor.ID)
	}
	f.actors[actor.ID] = actor
	log.Debug("Spawned %s for client %d (%s)", actor.Prefab, actor.OwnerID, actor.DisplayName)
	return nil
}

func (f *LoggingFactory) Despawn(actor Actor) error {
	f.lock.Lock()
	defer f.lock.Unlock()
	if _, ok := f.actors[actor.ID]; !ok {
		return fmt.Errorf("actor %s does not exist", actor.ID)
	}
	delete(f.actors, actor.ID)
	log.Debug("Despawned %s for client %d", actor.Prefab, actor.OwnerID)
	return nil
}

// Len returns the number of live actors.
func (f *LoggingFactory) Len() int {
	f.lock.Lock()
	defer f.lock.Unlock()
	return len(f.actors)
}
