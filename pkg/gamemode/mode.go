package gamemode

// Mode is the per-phase behaviour every game mode supplies. The Machine
// calls exactly one of these per tick, on the authoritative side only.
// Returning an error halts the machine.
type Mode interface {
	TickWaitingForPlayers(m *Machine, dt float64) error
	TickInProgress(m *Machine, dt float64) error
	TickRoundOver(m *Machine, dt float64) error
}

// The interfaces below are optional capabilities. Callers check for them
// with a type assertion and treat a missing capability as a no-op.

// CountdownTicker replaces the default countdown. Implementations may call
// Machine.TickCountdownDefault to keep the standard behaviour.
type CountdownTicker interface {
	TickCountdown(m *Machine, dt float64) error
}

// Killer handles a participant being killed. instigatorID is nil when the
// kill has no instigator.
type Killer interface {
	Kill(victimID uint64, instigatorID *uint64, reason string) error
}

// Scorer handles a score change for a participant.
type Scorer interface {
	AddScore(clientID uint64, delta float64) error
}

// SpawnListener is notified once per spawn or despawn batch.
type SpawnListener interface {
	OnAllPlayersSpawned(m *Machine)
	OnAllPlayersDespawned(m *Machine)
}

// Initializer is called once when the machine is initialized.
type Initializer interface {
	Initialize(m *Machine)
}

// Resetter clears mode-private state on a replay.
type Resetter interface {
	Reset()
}
