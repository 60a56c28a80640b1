package sample

import (
	"fmt"
	"sort"

	"github.com/cbodonnell/lobbyhost/pkg/gamemode"
	"github.com/cbodonnell/lobbyhost/pkg/gamestate"
	"github.com/cbodonnell/lobbyhost/pkg/log"
)

// RoundDuration is how long a round runs before it is over, in seconds.
const RoundDuration = 30.0

var (
	_ gamemode.Mode            = &Mode{}
	_ gamemode.CountdownTicker = &Mode{}
	_ gamemode.Killer          = &Mode{}
	_ gamemode.Scorer          = &Mode{}
	_ gamemode.Resetter        = &Mode{}
	_ gamemode.Initializer     = &Mode{}
)

// Mode is a timed round with kill logging and free-form scoring.
type Mode struct {
	roundDuration float64
	loggedRoster  bool
	scores        map[uint64]float64
	kills         map[uint64]int
	feed          *log.Feed
}

// New is the gamemode.Factory for the sample mode.
func New() gamemode.Mode {
	return NewWithDuration(RoundDuration)
}

// NewWithDuration creates a sample mode with a custom round length.
func NewWithDuration(roundDuration float64) *Mode {
	return &Mode{
		roundDuration: roundDuration,
		scores:        make(map[uint64]float64),
		kills:         make(map[uint64]int),
	}
}

func (s *Mode) Initialize(m *gamemode.Machine) {
	s.feed = m.Feed()
}

func (s *Mode) TickWaitingForPlayers(m *gamemode.Machine, dt float64) error {
	return nil
}

func (s *Mode) TickCountdown(m *gamemode.Machine, dt float64) error {
	if !s.loggedRoster && m.Registry() != nil {
		for _, p := range m.Registry().InGameRoster() {
			m.Feed().Info("Client %d: %s connected", p.ClientID, p.DisplayName)
		}
		s.loggedRoster = true
	}
	return m.TickCountdownDefault(dt)
}

func (s *Mode) TickInProgress(m *gamemode.Machine, dt float64) error {
	if m.State().GameTimer.Get() > s.roundDuration {
		return m.Transition(gamestate.PhaseRoundOver)
	}
	return nil
}

func (s *Mode) TickRoundOver(m *gamemode.Machine, dt float64) error {
	return nil
}

func (s *Mode) Kill(victimID uint64, instigatorID *uint64, reason string) error {
	suffix := ""
	if reason != "" {
		suffix = fmt.Sprintf(" (%s)", reason)
	}
	if instigatorID == nil {
		s.log("Gamemode - KillPlayer: Client%d%s", victimID, suffix)
		return nil
	}
	s.kills[*instigatorID]++
	s.log("Gamemode - KillPlayer: Client%d kill Client%d%s", *instigatorID, victimID, suffix)
	return nil
}

func (s *Mode) AddScore(clientID uint64, delta float64) error {
	s.scores[clientID] += delta
	s.log("Gamemode - Score: Client%d %+g (total %g)", clientID, delta, s.scores[clientID])
	return nil
}

func (s *Mode) Reset() {
	s.loggedRoster = false
	s.scores = make(map[uint64]float64)
	s.kills = make(map[uint64]int)
}

// Score returns the accumulated score of a participant.
func (s *Mode) Score(clientID uint64) float64 {
	return s.scores[clientID]
}

// Kills returns the number of kills credited to a participant.
func (s *Mode) Kills(clientID uint64) int {
	return s.kills[clientID]
}

// Leaderboard returns participant ids ordered by score, highest first.
func (s *Mode) Leaderboard() []uint64 {
	ids := make([]uint64, 0, len(s.scores))
	for id := range s.scores {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if s.scores[ids[i]] == s.scores[ids[j]] {
			return ids[i] < ids[j]
		}
		return s.scores[ids[i]] > s.scores[ids[j]]
	})
	return ids
}

func (s *Mode) log(format string, args ...interface{}) {
	if s.feed != nil {
		s.feed.Info(format, args...)
	}
}
