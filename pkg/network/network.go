package network

import (
	"context"

	"github.com/cbodonnell/lobbyhost/pkg/messages"
)

// HostClientID is the connection id of the hosting participant. Remote
// clients are numbered from 1.
const HostClientID uint64 = 0

// EventChannelSize is the buffer size of a transport's event channel.
const EventChannelSize = 1024

// EventType represents the type of a transport event.
type EventType int

const (
	EventTypeConnect EventType = iota
	EventTypeDisconnect
	EventTypeMessage
)

func (t EventType) String() string {
	switch t {
	case EventTypeConnect:
		return "Connect"
	case EventTypeDisconnect:
		return "Disconnect"
	case EventTypeMessage:
		return "Message"
	default:
		return "Unknown"
	}
}

// Event is something that happened on a transport. On a client transport a
// Disconnect for the local id means the connection to the host was lost,
// and Reason carries what the host said, if anything.
type Event struct {
	ClientID uint64
	Type     EventType
	Message  *messages.Message
	Reason   string
}

// Transport is an established connection set, seen from one participant.
type Transport interface {
	LocalClientID() uint64
	IsHost() bool
	// Send delivers msg to one participant. On a client the only valid
	// destination is the host.
	Send(ctx context.Context, clientID uint64, msg *messages.Message) error
	// Broadcast delivers msg to every remote participant.
	Broadcast(ctx context.Context, msg *messages.Message)
	// DisconnectClient closes a remote connection after telling it why. Host only.
	DisconnectClient(clientID uint64, reason string) error
	ConnectedClientIDs() []uint64
	Events() <-chan Event
	Shutdown() error
}

// Provider establishes transports. It stands in for the relay and
// cloud-auth services a hosted deployment would use.
type Provider interface {
	ConnectAsHost(ctx context.Context, maxParticipants int) (joinCode string, transport Transport, err error)
	ConnectAsClient(ctx context.Context, joinCode string) (Transport, error)
}

// ApprovalFunc decides whether a candidate connection may join. It is called
// synchronously before the handshake response is written.
type ApprovalFunc func(clientID uint64) (approved bool, reason string)

// ApprovalSetter is implemented by providers whose host side asks for approval.
type ApprovalSetter interface {
	SetApprovalFunc(fn ApprovalFunc)
}
