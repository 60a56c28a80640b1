package types

import (
	"github.com/cbodonnell/lobbyhost/pkg/gamestate"
	"github.com/cbodonnell/lobbyhost/pkg/lobby"
	"github.com/cbodonnell/lobbyhost/pkg/messages"
	"github.com/cbodonnell/lobbyhost/pkg/session"
)

// ServerEvent is anything handed to the tick loop. Producers enqueue pointers
// to the event types below.
type ServerEvent interface{}

// ConnectPlayerEvent is emitted once a remote participant finished the handshake.
type ConnectPlayerEvent struct {
	ClientID uint64
}

type DisconnectPlayerEvent struct {
	ClientID uint64
	Reason   string
}

// ClientMessageEvent carries a request message sent by a participant.
type ClientMessageEvent struct {
	Message *messages.Message
}

// ProviderResultEvent carries the outcome of a detached host or join setup.
type ProviderResultEvent struct {
	Result lobby.ProviderResult
}

// Admin commands. Each carries a buffered reply channel that the tick loop
// answers exactly once.

type StartSessionCommand struct {
	Mode  session.ModeID
	Reply chan<- error
}

type ExitGameCommand struct {
	Reply chan<- error
}

type ReplayCommand struct {
	Reply chan<- error
}

type KickCommand struct {
	TargetID uint64
	Reply    chan<- error
}

// KillCommand runs the kill console command with already split arguments.
type KillCommand struct {
	Args  []string
	Reply chan<- error
}

// ConsoleCommand runs a raw console line.
type ConsoleCommand struct {
	Line  string
	Reply chan<- error
}

type SaveLogResult struct {
	Path string
	Err  error
}

type SaveLogCommand struct {
	Reply chan<- SaveLogResult
}

// SessionInfo is a point-in-time view of the session for operators.
type SessionInfo struct {
	Config       session.Config        `json:"config"`
	LobbyState   string                `json:"lobbyState"`
	LobbyReason  string                `json:"lobbyReason,omitempty"`
	Scene        string                `json:"scene"`
	Roster       []session.Participant `json:"roster"`
	InGameRoster []session.Participant `json:"inGameRoster"`
	Game         gamestate.Snapshot    `json:"game"`
	Phase        string                `json:"phase"`
}

type SessionInfoQuery struct {
	Reply chan<- SessionInfo
}
