package network

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	apperrors "github.com/cbodonnell/lobbyhost/pkg/errors"
	"github.com/cbodonnell/lobbyhost/pkg/log"
	"github.com/cbodonnell/lobbyhost/pkg/messages"
	"nhooyr.io/websocket"
)

// DefaultWelcomeTimeout bounds the wait for the host to assign a client id.
const DefaultWelcomeTimeout = 10 * time.Second

var _ Transport = &WSClient{}

// WSClient is the client side transport, a single connection to the host.
type WSClient struct {
	conn    *websocket.Conn
	localID uint64
	events  chan Event

	reasonLock sync.Mutex
	reason     string

	ctx      context.Context
	cancel   context.CancelFunc
	shutdown sync.Once
}

type NewWSClientOptions struct {
	// ServerURL is the host base URL, e.g. "ws://localhost:8080".
	ServerURL      string
	JoinCode       string
	Token          string
	WelcomeTimeout time.Duration
}

// DialWSClient connects to the host and waits for its welcome. A denied
// approval surfaces as a ProviderFailure carrying the host's reason.
func DialWSClient(ctx context.Context, opts NewWSClientOptions) (*WSClient, error) {
	joinURL := strings.TrimRight(opts.ServerURL, "/") + "/join/" + url.PathEscape(opts.JoinCode)
	dialOpts := &websocket.DialOptions{}
	if opts.Token != "" {
		dialOpts.HTTPHeader = http.Header{"Authorization": []string{"Bearer " + opts.Token}}
	}

	log.Info("Joining lobby at %s", joinURL)
	conn, resp, err := websocket.Dial(ctx, joinURL, dialOpts)
	if err != nil {
		if resp != nil && resp.Body != nil {
			body, _ := io.ReadAll(resp.Body)
			if reason := strings.TrimSpace(string(body)); reason != "" {
				return nil, apperrors.Wrap(apperrors.CodeProviderFailure, reason, err)
			}
		}
		return nil, apperrors.Wrap(apperrors.CodeProviderFailure, "failed to join lobby", err)
	}

	timeout := opts.WelcomeTimeout
	if timeout <= 0 {
		timeout = DefaultWelcomeTimeout
	}
	welcomeCtx, cancelWelcome := context.WithTimeout(ctx, timeout)
	defer cancelWelcome()
	localID, err := readWelcome(welcomeCtx, conn)
	if err != nil {
		conn.Close(websocket.StatusProtocolError, "no welcome")
		return nil, apperrors.Wrap(apperrors.CodeProviderFailure, "host did not assign a client id", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	c := &WSClient{
		conn:    conn,
		localID: localID,
		events:  make(chan Event, EventChannelSize),
		ctx:     ctx,
		cancel:  cancel,
	}
	go c.handleMessages()
	return c, nil
}

func readWelcome(ctx context.Context, conn *websocket.Conn) (uint64, error) {
	msg, err := readMessage(ctx, conn)
	if err != nil {
		return 0, err
	}
	if msg.Type != messages.MessageTypeServerWelcome {
		return 0, fmt.Errorf("expected %s, got %s", messages.MessageTypeServerWelcome, msg.Type)
	}
	welcome := &messages.ServerWelcome{}
	if err := msg.Decode(welcome); err != nil {
		return 0, err
	}
	return welcome.ClientID, nil
}

// handleMessages reads from the host until the connection closes, then
// reports a Disconnect for the local id.
func (c *WSClient) handleMessages() {
	for {
		msg, err := readMessage(c.ctx, c.conn)
		if err != nil {
			reason := c.disconnectReason(err)
			log.Trace("Connection to host closed: %v", err)
			c.emit(Event{ClientID: c.localID, Type: EventTypeDisconnect, Reason: reason})
			return
		}

		if msg.Type == messages.MessageTypeServerDisconnect {
			disconnect := &messages.ServerDisconnect{}
			if err := msg.Decode(disconnect); err != nil {
				log.Warn("Failed to decode disconnect reason: %v", err)
			} else {
				c.setReason(disconnect.Reason)
			}
		}
		msg.ClientID = HostClientID
		c.emit(Event{ClientID: HostClientID, Type: EventTypeMessage, Message: msg})
	}
}

func (c *WSClient) setReason(reason string) {
	c.reasonLock.Lock()
	defer c.reasonLock.Unlock()
	c.reason = reason
}

func (c *WSClient) disconnectReason(err error) string {
	c.reasonLock.Lock()
	reason := c.reason
	c.reasonLock.Unlock()
	if reason != "" {
		return reason
	}
	var closeErr websocket.CloseError
	if errors.As(err, &closeErr) {
		return closeErr.Reason
	}
	return ""
}

func (c *WSClient) emit(event Event) {
	select {
	case c.events <- event:
	case <-c.ctx.Done():
	}
}

func (c *WSClient) LocalClientID() uint64 {
	return c.localID
}

func (c *WSClient) IsHost() bool {
	return false
}

func (c *WSClient) Send(ctx context.Context, clientID uint64, msg *messages.Message) error {
	if clientID != HostClientID {
		return apperrors.New(apperrors.CodeInvalidArgument, "clients can only send to the host")
	}
	msg.ClientID = c.localID
	b, err := messages.SerializeMessage(msg)
	if err != nil {
		return fmt.Errorf("failed to serialize message: %v", err)
	}
	if err := c.conn.Write(ctx, websocket.MessageBinary, b); err != nil {
		return fmt.Errorf("failed to write message to WebSocket connection: %v", err)
	}
	return nil
}

// Broadcast on a client can only reach the host.
func (c *WSClient) Broadcast(ctx context.Context, msg *messages.Message) {
	if err := c.Send(ctx, HostClientID, msg); err != nil {
		log.Error("Failed to send %s to host: %v", msg.Type, err)
	}
}

func (c *WSClient) DisconnectClient(clientID uint64, reason string) error {
	return apperrors.New(apperrors.CodeAuthorityViolation, "only the host can disconnect clients")
}

func (c *WSClient) ConnectedClientIDs() []uint64 {
	return []uint64{c.localID}
}

func (c *WSClient) Events() <-chan Event {
	return c.events
}

// Shutdown leaves the lobby.
func (c *WSClient) Shutdown() error {
	var err error
	c.shutdown.Do(func() {
		err = c.conn.Close(websocket.StatusNormalClosure, "leaving")
		c.cancel()
	})
	return err
}

func readMessage(ctx context.Context, conn *websocket.Conn) (*messages.Message, error) {
	_, b, err := conn.Read(ctx)
	if err != nil {
		return nil, err
	}
	msg, err := messages.DeserializeMessage(b)
	if err != nil {
		return nil, fmt.Errorf("failed to deserialize message: %v", err)
	}
	return msg, nil
}
