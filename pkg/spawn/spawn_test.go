package spawn_test

import (
	"bytes"
	"fmt"
	"testing"

	mocks "github.com/cbodonnell/lobbyhost/mocks/github.com/cbodonnell/lobbyhost/pkg/spawn"
	"github.com/cbodonnell/lobbyhost/pkg/log"
	"github.com/cbodonnell/lobbyhost/pkg/session"
	"github.com/cbodonnell/lobbyhost/pkg/spawn"
	"github.com/google/uuid"
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

type batchCounter struct {
	spawned, despawned int
	allSpawned         []bool
}

func (b *batchCounter) OnAllPlayersSpawned(allSpawned bool) {
	b.spawned++
	b.allSpawned = append(b.allSpawned, allSpawned)
}

func (b *batchCounter) OnAllPlayersDespawned() { b.despawned++ }

func owner(id uint64, name string) interface{} {
	return mock.MatchedBy(func(a spawn.Actor) bool {
		return a.OwnerID == id && a.DisplayName == name && a.Prefab == "sample-player" && a.ID != uuid.Nil
	})
}

func newCoordinator(t *testing.T, ids []uint64, prefabs map[session.ModeID]string) (*spawn.Coordinator, *mocks.ActorFactory, *batchCounter, *connected, *log.Feed) {
	t.Helper()
	registry := session.NewRegistry(session.NewRegistryOptions{Authoritative: true, MaxParticipants: 4})
	require.NoError(t, registry.Start(session.ModeSample, []session.Participant{
		{ClientID: 1, DisplayName: "Alice"},
		{ClientID: 2, DisplayName: "Bob"},
	}))

	factory := mocks.NewActorFactory(t)
	source := &connected{ids: ids}
	feed := log.NewFeed(log.New(&bytes.Buffer{}, "", log.LogLevelError))
	counter := &batchCounter{}
	c := spawn.NewCoordinator(spawn.NewCoordinatorOptions{
		Registry:     registry,
		Factory:      factory,
		Participants: source,
		Prefabs:      prefabs,
		Feed:         feed,
	})
	c.SetListener(counter)
	return c, factory, counter, source, feed
}

var samplePrefabs = map[session.ModeID]string{session.ModeSample: "sample-player"}

func TestCoordinator_SpawnAllThenDespawnAll(t *testing.T) {
	c, factory, counter, _, _ := newCoordinator(t, []uint64{1, 2, 5}, samplePrefabs)

	factory.EXPECT().Spawn(owner(1, "Alice")).Return(nil).Once()
	factory.EXPECT().Spawn(owner(2, "Bob")).Return(nil).Once()
	factory.EXPECT().Spawn(owner(5, "Player 5")).Return(nil).Once()

	c.SpawnAll()
	assert.Equal(t, 3, c.Count())
	assert.True(t, c.AllSpawned())
	assert.Equal(t, 1, counter.spawned)

	// a second batch only tops up missing actors
	c.SpawnAll()
	assert.Equal(t, 3, c.Count())
	assert.Equal(t, 2, counter.spawned)

	factory.EXPECT().Despawn(mock.Anything).Return(nil).Times(3)
	c.DespawnAll()
	assert.Equal(t, 0, c.Count())
	assert.Equal(t, 1, counter.despawned)
}

func TestCoordinator_ZeroParticipants(t *testing.T) {
	c, _, counter, _, _ := newCoordinator(t, nil, samplePrefabs)

	c.SpawnAll()
	c.DespawnAll()

	assert.Equal(t, 0, c.Count())
	assert.Equal(t, 1, counter.spawned)
	assert.Equal(t, 1, counter.despawned)
}

func TestCoordinator_MissingPrefab(t *testing.T) {
	c, _, counter, _, feed := newCoordinator(t, []uint64{1, 2}, map[session.ModeID]string{"other": "other-player"})

	c.SpawnAll()

	assert.Equal(t, 0, c.Count())
	assert.Equal(t, 1, counter.spawned)
	assert.Equal(t, []bool{false}, counter.allSpawned)
	var errs int
	for _, e := range feed.Entries() {
		if e.Severity == log.SeverityError {
			errs++
		}
	}
	assert.Equal(t, 2, errs)
}

func TestCoordinator_FactoryFailureSkipsOne(t *testing.T) {
	c, factory, counter, _, _ := newCoordinator(t, []uint64{1, 2}, samplePrefabs)

	factory.EXPECT().Spawn(owner(1, "Alice")).Return(fmt.Errorf("no room")).Once()
	factory.EXPECT().Spawn(owner(2, "Bob")).Return(nil).Once()

	c.SpawnAll()

	_, ok := c.Actor(1)
	assert.False(t, ok)
	actor, ok := c.Actor(2)
	assert.True(t, ok)
	assert.Equal(t, "Bob", actor.DisplayName)
	assert.False(t, c.AllSpawned())
	assert.Equal(t, 1, counter.spawned)
	assert.Equal(t, []bool{false}, counter.allSpawned)
}

func TestCoordinator_DespawnSkipsAbsentAndCleansUpLeavers(t *testing.T) {
	c, factory, counter, source, _ := newCoordinator(t, []uint64{1, 2}, samplePrefabs)

	factory.EXPECT().Spawn(mock.Anything).Return(nil).Times(2)
	c.SpawnAll()

	// 2 left mid-game without being despawned, 3 joined without an actor
	source.ids = []uint64{1, 3}

	factory.EXPECT().Despawn(mock.MatchedBy(func(a spawn.Actor) bool { return a.OwnerID == 1 })).Return(nil).Once()
	factory.EXPECT().Despawn(mock.MatchedBy(func(a spawn.Actor) bool { return a.OwnerID == 2 })).Return(nil).Once()
	c.DespawnAll()

	assert.Equal(t, 0, c.Count())
	assert.Equal(t, 1, counter.despawned)
	assert.False(t, c.Despawn(1))
}

func TestLoggingFactory(t *testing.T) {
	f := spawn.NewLoggingFactory()
	actor := spawn.Actor{ID: uuid.New(), OwnerID: 1, DisplayName: "Player 1", Prefab: "sample-player"}

	require.NoError(t, f.Spawn(actor))
	assert.Error(t, f.Spawn(actor))
	assert.Equal(t, 1, f.Len())

	require.NoError(t, f.Despawn(actor))
	assert.Error(t, f.Despawn(actor))
	assert.Equal(t, 0, f.Len())
}
