package messages

import (
	"encoding/json"
	"fmt"

	"github.com/cbodonnell/lobbyhost/pkg/gamestate"
	"github.com/cbodonnell/lobbyhost/pkg/session"
)

// MessageType identifies the payload carried by a Message.
type MessageType byte

const (
	MessageTypeClientPing MessageType = iota + 1
	MessageTypeServerPong
	MessageTypeServerWelcome
	MessageTypeServerDisconnect
	MessageTypeServerSessionState
	MessageTypeServerLoadScene
	MessageTypeServerGameReset
	MessageTypeClientSetDisplayName
	MessageTypeClientStartSession
	MessageTypeClientKick
	MessageTypeClientLoadComplete
)

func (t MessageType) String() string {
	switch t {
	case MessageTypeClientPing:
		return "ClientPing"
	case MessageTypeServerPong:
		return "ServerPong"
	case MessageTypeServerWelcome:
		return "ServerWelcome"
	case MessageTypeServerDisconnect:
		return "ServerDisconnect"
	case MessageTypeServerSessionState:
		return "ServerSessionState"
	case MessageTypeServerLoadScene:
		return "ServerLoadScene"
	case MessageTypeServerGameReset:
		return "ServerGameReset"
	case MessageTypeClientSetDisplayName:
		return "ClientSetDisplayName"
	case MessageTypeClientStartSession:
		return "ClientStartSession"
	case MessageTypeClientKick:
		return "ClientKick"
	case MessageTypeClientLoadComplete:
		return "ClientLoadComplete"
	default:
		return fmt.Sprintf("Unknown(%d)", byte(t))
	}
}

// Message represents a generic message for serialization/deserialization.
// ClientID is the sender as stamped by the transport, never by the payload.
type Message struct {
	ClientID uint64          `json:"clientID"`
	Type     MessageType     `json:"type"`
	Payload  json.RawMessage `json:"payload"`
}

// NewMessage marshals payload as JSON into a message of type t.
func NewMessage(clientID uint64, t MessageType, payload interface{}) (*Message, error) {
	var b []byte
	if payload != nil {
		var err error
		b, err = json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal %s payload: %v", t, err)
		}
	}
	return &Message{
		ClientID: clientID,
		Type:     t,
		Payload:  b,
	}, nil
}

// Decode unmarshals the JSON payload of m into v.
func (m *Message) Decode(v interface{}) error {
	if err := json.Unmarshal(m.Payload, v); err != nil {
		return fmt.Errorf("failed to unmarshal %s payload: %v", m.Type, err)
	}
	return nil
}

type ServerWelcome struct {
	ClientID uint64 `json:"clientID"`
}

type ServerDisconnect struct {
	Reason string `json:"reason"`
}

type ServerLoadScene struct {
	Scene       string `json:"scene"`
	OperationID string `json:"operationID"`
}

type ServerGameReset struct {
	Scene string `json:"scene"`
}

type ClientSetDisplayName struct {
	DisplayName string `json:"displayName"`
}

type ClientStartSession struct {
	Mode session.ModeID `json:"mode"`
}

type ClientKick struct {
	TargetID uint64 `json:"targetID"`
}

type ClientLoadComplete struct {
	Scene       string `json:"scene"`
	OperationID string `json:"operationID"`
}

// SessionState is the replicated snapshot the host broadcasts to every client.
// It travels as a flatbuffer, not JSON.
type SessionState struct {
	Timestamp          int64
	Config             session.Config
	Participants       []session.Participant
	// InGameParticipants is the roster snapshot taken when the session started.
	InGameParticipants []session.Participant
	Game               gamestate.Snapshot
}
