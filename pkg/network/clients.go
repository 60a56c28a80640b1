package network

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/cbodonnell/lobbyhost/pkg/log"
	"github.com/cbodonnell/lobbyhost/pkg/messages"
	"github.com/gorilla/websocket"
)

// Client represents a connected remote client
type Client struct {
	ID   uint64
	conn *websocket.Conn
	// gorilla connections support one concurrent writer
	writeLock sync.Mutex
}

func (c *Client) write(msg *messages.Message) error {
	c.writeLock.Lock()
	defer c.writeLock.Unlock()
	return WriteMessageToWS(c.conn, msg)
}

func (c *Client) close(reason string) {
	c.writeLock.Lock()
	defer c.writeLock.Unlock()
	closeMessage := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, truncateCloseReason(reason))
	if err := c.conn.WriteControl(websocket.CloseMessage, closeMessage, deadline()); err != nil {
		log.Debug("Failed to write close message to client %d: %v", c.ID, err)
	}
	c.conn.Close()
}

// ClientManager manages connected clients and numbers new ones
type ClientManager struct {
	clients     map[uint64]*Client
	clientsLock sync.RWMutex
	nextID      uint64
	eventChan   chan Event
}

// NewClientManager creates a new ClientManager
func NewClientManager() *ClientManager {
	return &ClientManager{
		clients:   make(map[uint64]*Client),
		nextID:    HostClientID + 1,
		eventChan: make(chan Event, EventChannelSize),
	}
}

// Events returns a one-way channel for receiving client events
func (cm *ClientManager) Events() <-chan Event {
	return cm.eventChan
}

// NextClientID reserves the id of the next candidate connection. Ids are
// never reused within a transport.
func (cm *ClientManager) NextClientID() uint64 {
	cm.clientsLock.Lock()
	defer cm.clientsLock.Unlock()
	id := cm.nextID
	cm.nextID++
	return id
}

// ConnectClient registers an upgraded connection under a reserved id
func (cm *ClientManager) ConnectClient(ctx context.Context, clientID uint64, conn *websocket.Conn) (*Client, error) {
	cm.clientsLock.Lock()
	if _, ok := cm.clients[clientID]; ok {
		cm.clientsLock.Unlock()
		return nil, fmt.Errorf("client %d is already connected", clientID)
	}
	client := &Client{ID: clientID, conn: conn}
	cm.clients[clientID] = client
	cm.clientsLock.Unlock()

	cm.emit(ctx, Event{ClientID: clientID, Type: EventTypeConnect})
	return client, nil
}

// DisconnectClient removes a client from the manager. It reports false when
// the client was already gone.
func (cm *ClientManager) DisconnectClient(ctx context.Context, clientID uint64, reason string) bool {
	cm.clientsLock.Lock()
	_, ok := cm.clients[clientID]
	delete(cm.clients, clientID)
	cm.clientsLock.Unlock()

	if ok {
		cm.emit(ctx, Event{ClientID: clientID, Type: EventTypeDisconnect, Reason: reason})
	}
	return ok
}

// GetClient returns a connected client
func (cm *ClientManager) GetClient(clientID uint64) (*Client, error) {
	cm.clientsLock.RLock()
	defer cm.clientsLock.RUnlock()
	client, ok := cm.clients[clientID]
	if !ok {
		return nil, fmt.Errorf("client %d not found", clientID)
	}
	return client, nil
}

// GetClients returns a slice of all connected clients ordered by id
func (cm *ClientManager) GetClients() []*Client {
	cm.clientsLock.RLock()
	defer cm.clientsLock.RUnlock()
	clients := make([]*Client, 0, len(cm.clients))
	for _, client := range cm.clients {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool { return clients[i].ID < clients[j].ID })
	return clients
}

func (cm *ClientManager) Exists(clientID uint64) bool {
	cm.clientsLock.RLock()
	defer cm.clientsLock.RUnlock()
	_, ok := cm.clients[clientID]
	return ok
}

func (cm *ClientManager) emit(ctx context.Context, event Event) {
	select {
	case cm.eventChan <- event:
	case <-ctx.Done():
		log.Warn("Dropped %s event for client %d: %v", event.Type, event.ClientID, ctx.Err())
	}
}
