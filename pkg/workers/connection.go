package workers

import (
	"context"
	"time"

	"github.com/cbodonnell/lobbyhost/pkg/game/types"
	"github.com/cbodonnell/lobbyhost/pkg/log"
	"github.com/cbodonnell/lobbyhost/pkg/network"
	"github.com/cbodonnell/lobbyhost/pkg/queue"
)

// DefaultEnqueueRetryInterval is how long the worker waits before retrying
// an event the server event queue rejected.
const DefaultEnqueueRetryInterval = 10 * time.Millisecond

type ConnectionEventWorker struct {
	events           <-chan network.Event
	serverEventQueue queue.Queue[types.ServerEvent]
	retryInterval    time.Duration
}

type NewConnectionEventWorkerOptions struct {
	Events           <-chan network.Event
	ServerEventQueue queue.Queue[types.ServerEvent]
	// RetryInterval defaults to DefaultEnqueueRetryInterval.
	RetryInterval time.Duration
}

// NewConnectionEventWorker creates a new ConnectionEventWorker.
// The worker turns transport events like connect, disconnect and client
// messages into server events for the game loop to process.
func NewConnectionEventWorker(opts NewConnectionEventWorkerOptions) *ConnectionEventWorker {
	retryInterval := opts.RetryInterval
	if retryInterval <= 0 {
		retryInterval = DefaultEnqueueRetryInterval
	}
	return &ConnectionEventWorker{
		events:           opts.Events,
		serverEventQueue: opts.ServerEventQueue,
		retryInterval:    retryInterval,
	}
}

// Start runs until ctx is done or the transport closes its event channel.
func (w *ConnectionEventWorker) Start(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.events:
			if !ok {
				log.Debug("Transport event channel closed")
				return
			}
			w.handleEvent(ctx, event)
		}
	}
}

// handleEvent converts event and enqueues it. A full queue is retried until
// it accepts the event or ctx is done, so events reach the game loop in
// transport order and none are lost.
func (w *ConnectionEventWorker) handleEvent(ctx context.Context, event network.Event) {
	var serverEvent types.ServerEvent
	switch event.Type {
	case network.EventTypeConnect:
		serverEvent = &types.ConnectPlayerEvent{ClientID: event.ClientID}
	case network.EventTypeDisconnect:
		serverEvent = &types.DisconnectPlayerEvent{ClientID: event.ClientID, Reason: event.Reason}
	case network.EventTypeMessage:
		if event.Message == nil {
			log.Warn("Dropping empty message event from client %d", event.ClientID)
			return
		}
		serverEvent = &types.ClientMessageEvent{Message: event.Message}
	default:
		log.Error("Unknown transport event type: %v", event.Type)
		return
	}

	err := w.serverEventQueue.Enqueue(serverEvent)
	if err == nil {
		return
	}
	log.Warn("Failed to enqueue %s event for client %d, retrying: %v", event.Type, event.ClientID, err)

	ticker := time.NewTicker(w.retryInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Error("Dropping %s event for client %d: %v", event.Type, event.ClientID, ctx.Err())
			return
		case <-ticker.C:
			if err := w.serverEventQueue.Enqueue(serverEvent); err == nil {
				return
			}
		}
	}
}
