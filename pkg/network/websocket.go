package network

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	authproviders "github.com/cbodonnell/lobbyhost/pkg/auth/providers"
	apperrors "github.com/cbodonnell/lobbyhost/pkg/errors"
	"github.com/cbodonnell/lobbyhost/pkg/log"
	"github.com/cbodonnell/lobbyhost/pkg/messages"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

const (
	// writeTimeout bounds control frame writes
	writeTimeout = 5 * time.Second
	// maxCloseReasonBytes is the close frame payload limit minus the status code
	maxCloseReasonBytes = 123
)

var _ Transport = &WSHost{}

// WSHost is the host side transport: a WebSocket server that accepts
// approved clients on /join/{code}.
type WSHost struct {
	joinCode     string
	maxClients   int
	approve      ApprovalFunc
	authProvider authproviders.AuthProvider
	tls          *TLSConfig

	clients  *ClientManager
	server   *http.Server
	listener net.Listener

	ctx      context.Context
	cancel   context.CancelFunc
	shutdown sync.Once
}

type TLSConfig struct {
	CertFile string
	KeyFile  string
}

type NewWSHostOptions struct {
	// Addr is the listen address, e.g. ":8080". Port 0 picks a free port.
	Addr     string
	JoinCode string
	// MaxClients caps remote connections as a last line of defence behind Approve.
	MaxClients   int
	Approve      ApprovalFunc
	AuthProvider authproviders.AuthProvider
	TLS          *TLSConfig
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// NewWSHost listens on opts.Addr and starts serving in the background. The
// local host participant is announced with a Connect event right away.
func NewWSHost(ctx context.Context, opts NewWSHostOptions) (*WSHost, error) {
	listener, err := net.Listen("tcp", opts.Addr)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeProviderFailure, "failed to listen for clients", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	h := &WSHost{
		joinCode:     opts.JoinCode,
		maxClients:   opts.MaxClients,
		approve:      opts.Approve,
		authProvider: opts.AuthProvider,
		tls:          opts.TLS,
		clients:      NewClientManager(),
		listener:     listener,
		ctx:          ctx,
		cancel:       cancel,
	}

	router := mux.NewRouter()
	router.HandleFunc("/join/{code}", h.handleJoin).Methods(http.MethodGet)
	h.server = &http.Server{Handler: router}

	h.clients.emit(ctx, Event{ClientID: HostClientID, Type: EventTypeConnect})
	go h.serve()
	go func() {
		<-ctx.Done()
		h.Shutdown()
	}()
	return h, nil
}

func (h *WSHost) serve() {
	var err error
	if h.tls != nil {
		log.Info("WebSocket host listening on %s with TLS", h.listener.Addr())
		err = h.server.ServeTLS(h.listener, h.tls.CertFile, h.tls.KeyFile)
	} else {
		log.Info("WebSocket host listening on %s", h.listener.Addr())
		err = h.server.Serve(h.listener)
	}
	if err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			log.Info("WebSocket host closed")
			return
		}
		log.Error("WebSocket host error: %v", err)
	}
}

// Addr returns the address the host is listening on.
func (h *WSHost) Addr() net.Addr {
	return h.listener.Addr()
}

func (h *WSHost) JoinCode() string {
	return h.joinCode
}

func (h *WSHost) handleJoin(w http.ResponseWriter, r *http.Request) {
	if !strings.EqualFold(mux.Vars(r)["code"], h.joinCode) {
		http.Error(w, "Unknown join code", http.StatusNotFound)
		return
	}

	if h.authProvider != nil {
		token, err := parseToken(r)
		if err != nil {
			http.Error(w, "failed to parse token", http.StatusUnauthorized)
			return
		}
		if _, err := h.authProvider.VerifyToken(r.Context(), token); err != nil {
			log.Warn("Rejected connection from %s: %v", r.RemoteAddr, err)
			http.Error(w, "failed to verify token", http.StatusUnauthorized)
			return
		}
	}

	clientID := h.clients.NextClientID()
	if approved, reason := h.approveClient(clientID); !approved {
		log.Info("Denied connection %d from %s: %s", clientID, r.RemoteAddr, reason)
		http.Error(w, reason, http.StatusForbidden)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error("Failed to upgrade to WebSocket: %v", err)
		// release the approval reservation
		h.clients.emit(h.ctx, Event{ClientID: clientID, Type: EventTypeDisconnect})
		return
	}
	log.Debug("New WebSocket connection %d from %s", clientID, conn.RemoteAddr().String())

	client, err := h.clients.ConnectClient(h.ctx, clientID, conn)
	if err != nil {
		log.Error("Failed to register client %d: %v", clientID, err)
		conn.Close()
		return
	}
	welcome, err := messages.NewMessage(HostClientID, messages.MessageTypeServerWelcome, &messages.ServerWelcome{ClientID: clientID})
	if err == nil {
		err = client.write(welcome)
	}
	if err != nil {
		log.Error("Failed to welcome client %d: %v", clientID, err)
	}

	go h.handleWSConnection(client)
}

func (h *WSHost) approveClient(clientID uint64) (bool, string) {
	if h.maxClients > 0 && len(h.clients.GetClients()) >= h.maxClients {
		return false, "host is full"
	}
	if h.approve == nil {
		return true, ""
	}
	return h.approve(clientID)
}

// handleWSConnection reads messages from one client until the connection closes.
func (h *WSHost) handleWSConnection(client *Client) {
	defer func() {
		h.clients.DisconnectClient(h.ctx, client.ID, "")
		client.conn.Close()
	}()

	for {
		message, err := ReadMessageFromWS(client.conn)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.ClosePolicyViolation, websocket.CloseAbnormalClosure) {
				log.Error("Error reading WebSocket message from client %d: %v", client.ID, err)
			}
			log.Trace("Connection closed for client %d", client.ID)
			return
		}

		// the sender is whoever owns the connection
		message.ClientID = client.ID
		h.clients.emit(h.ctx, Event{ClientID: client.ID, Type: EventTypeMessage, Message: message})
	}
}

func (h *WSHost) LocalClientID() uint64 {
	return HostClientID
}

func (h *WSHost) IsHost() bool {
	return true
}

// Send writes msg to a remote client. Sending to the host itself is a no-op.
func (h *WSHost) Send(ctx context.Context, clientID uint64, msg *messages.Message) error {
	if clientID == HostClientID {
		return nil
	}
	client, err := h.clients.GetClient(clientID)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeStaleReference, fmt.Sprintf("cannot send to client %d", clientID), err)
	}
	if err := client.write(msg); err != nil {
		return fmt.Errorf("failed to send message to client %d: %v", clientID, err)
	}
	return nil
}

func (h *WSHost) Broadcast(ctx context.Context, msg *messages.Message) {
	for _, client := range h.clients.GetClients() {
		if err := client.write(msg); err != nil {
			log.Error("Failed to send %s to client %d: %v", msg.Type, client.ID, err)
		}
	}
}

// DisconnectClient tells a client why it is being dropped and closes its
// connection. The Disconnect event follows from the read loop.
func (h *WSHost) DisconnectClient(clientID uint64, reason string) error {
	if clientID == HostClientID {
		return apperrors.New(apperrors.CodeInvalidArgument, "the host cannot disconnect itself")
	}
	client, err := h.clients.GetClient(clientID)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeStaleReference, fmt.Sprintf("cannot disconnect client %d", clientID), err)
	}
	msg, err := messages.NewMessage(HostClientID, messages.MessageTypeServerDisconnect, &messages.ServerDisconnect{Reason: reason})
	if err != nil {
		return err
	}
	if err := client.write(msg); err != nil {
		log.Warn("Failed to send disconnect reason to client %d: %v", clientID, err)
	}
	client.close(reason)
	return nil
}

// ConnectedClientIDs includes the host itself.
func (h *WSHost) ConnectedClientIDs() []uint64 {
	clients := h.clients.GetClients()
	ids := make([]uint64, 0, len(clients)+1)
	ids = append(ids, HostClientID)
	for _, c := range clients {
		ids = append(ids, c.ID)
	}
	return ids
}

func (h *WSHost) Events() <-chan Event {
	return h.clients.Events()
}

// Shutdown closes every client connection and stops the server.
func (h *WSHost) Shutdown() error {
	var err error
	h.shutdown.Do(func() {
		for _, client := range h.clients.GetClients() {
			client.close("host shut down")
		}
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		defer cancel()
		err = h.server.Shutdown(ctx)
		h.cancel()
	})
	return err
}

// WriteMessageToWS writes a Message to a WebSocket connection
func WriteMessageToWS(conn *websocket.Conn, msg *messages.Message) error {
	b, err := messages.SerializeMessage(msg)
	if err != nil {
		return fmt.Errorf("failed to serialize message: %v", err)
	}

	if err := conn.WriteMessage(websocket.BinaryMessage, b); err != nil {
		return fmt.Errorf("failed to write message to WebSocket connection: %v", err)
	}

	return nil
}

// ReadMessageFromWS reads a Message from a WebSocket connection
func ReadMessageFromWS(conn *websocket.Conn) (*messages.Message, error) {
	_, message, err := conn.ReadMessage()
	if err != nil {
		return nil, err
	}

	msg, err := messages.DeserializeMessage(message)
	if err != nil {
		return nil, fmt.Errorf("failed to deserialize message: %v", err)
	}

	return msg, nil
}

// parseToken reads a bearer token from the Authorization header, falling
// back to the token query parameter for browser clients.
func parseToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		if token := r.URL.Query().Get("token"); token != "" {
			return token, nil
		}
		return "", fmt.Errorf("authorization header is missing")
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return "", fmt.Errorf("invalid Authorization header format")
	}
	return parts[1], nil
}

func truncateCloseReason(reason string) string {
	if len(reason) <= maxCloseReasonBytes {
		return reason
	}
	return reason[:maxCloseReasonBytes]
}

func deadline() time.Time {
	return time.Now().Add(writeTimeout)
}
