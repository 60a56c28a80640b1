package network

import (
	"context"
	"testing"
	"time"

	apperrors "github.com/cbodonnell/lobbyhost/pkg/errors"
	"github.com/cbodonnell/lobbyhost/pkg/messages"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nextEvent(t *testing.T, events <-chan Event, eventType EventType) Event {
	t.Helper()
	timeout := time.After(5 * time.Second)
	for {
		select {
		case e := <-events:
			if e.Type == eventType {
				return e
			}
		case <-timeout:
			t.Fatalf("timed out waiting for %s event", eventType)
		}
	}
}

func startHost(t *testing.T, approve ApprovalFunc) (*WSHost, string) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	host, err := NewWSHost(ctx, NewWSHostOptions{
		Addr:     "127.0.0.1:0",
		JoinCode: "ABCD1234",
		Approve:  approve,
	})
	require.NoError(t, err)
	t.Cleanup(func() { host.Shutdown() })

	local := nextEvent(t, host.Events(), EventTypeConnect)
	require.Equal(t, HostClientID, local.ClientID)
	return host, "ws://" + host.Addr().String()
}

func TestWSHost_JoinSendAndKick(t *testing.T) {
	host, serverURL := startHost(t, nil)
	ctx := context.Background()

	client, err := DialWSClient(ctx, NewWSClientOptions{ServerURL: serverURL, JoinCode: "abcd1234"})
	require.NoError(t, err)
	defer client.Shutdown()

	assert.Equal(t, uint64(1), client.LocalClientID())
	assert.False(t, client.IsHost())
	connected := nextEvent(t, host.Events(), EventTypeConnect)
	assert.Equal(t, uint64(1), connected.ClientID)
	assert.Equal(t, []uint64{0, 1}, host.ConnectedClientIDs())

	msg, err := messages.NewMessage(0, messages.MessageTypeClientSetDisplayName, &messages.ClientSetDisplayName{DisplayName: "Alice"})
	require.NoError(t, err)
	msg.ClientID = 42 // overwritten by the transport
	require.NoError(t, client.Send(ctx, HostClientID, msg))

	received := nextEvent(t, host.Events(), EventTypeMessage)
	assert.Equal(t, uint64(1), received.ClientID)
	assert.Equal(t, uint64(1), received.Message.ClientID)
	assert.Equal(t, messages.MessageTypeClientSetDisplayName, received.Message.Type)

	require.NoError(t, host.DisconnectClient(1, "You have been kicked by host"))
	local := nextEvent(t, client.Events(), EventTypeDisconnect)
	assert.Equal(t, uint64(1), local.ClientID)
	assert.Equal(t, "You have been kicked by host", local.Reason)

	gone := nextEvent(t, host.Events(), EventTypeDisconnect)
	assert.Equal(t, uint64(1), gone.ClientID)
	assert.Equal(t, apperrors.CodeStaleReference, apperrors.CodeOf(host.DisconnectClient(1, "again")))
}

func TestWSHost_DeniedApproval(t *testing.T) {
	asked := make(chan uint64, 1)
	_, serverURL := startHost(t, func(clientID uint64) (bool, string) {
		asked <- clientID
		return false, "Lobby is full or unavailable"
	})

	_, err := DialWSClient(context.Background(), NewWSClientOptions{ServerURL: serverURL, JoinCode: "ABCD1234"})
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeProviderFailure, apperrors.CodeOf(err))
	assert.Equal(t, "Lobby is full or unavailable", apperrors.Reason(err))
	assert.Equal(t, uint64(1), <-asked)
}

func TestWSHost_UnknownJoinCode(t *testing.T) {
	_, serverURL := startHost(t, nil)

	_, err := DialWSClient(context.Background(), NewWSClientOptions{ServerURL: serverURL, JoinCode: "WRONG"})
	assert.Equal(t, apperrors.CodeProviderFailure, apperrors.CodeOf(err))
}

func TestWSHost_SendToSelfIsNoop(t *testing.T) {
	host, _ := startHost(t, nil)
	assert.NoError(t, host.Send(context.Background(), HostClientID, &messages.Message{Type: messages.MessageTypeServerGameReset}))
	assert.Error(t, host.DisconnectClient(HostClientID, "no"))
}

func TestNewJoinCode(t *testing.T) {
	code := NewJoinCode()
	assert.Len(t, code, JoinCodeLength)
	assert.NotEqual(t, code, NewJoinCode())
}
