package workers

import (
	"context"
	"time"

	"github.com/cbodonnell/lobbyhost/pkg/log"
	"github.com/cbodonnell/lobbyhost/pkg/messages"
	"github.com/cbodonnell/lobbyhost/pkg/network"
)

// Broadcaster sends a message to every remote participant.
type Broadcaster interface {
	Broadcast(ctx context.Context, msg *messages.Message)
}

// SessionStateSource returns the latest replicated session state, or nil
// when there is nothing to send yet. It must be safe to call from any goroutine.
type SessionStateSource interface {
	SessionState() *messages.SessionState
}

type BroadcastWorker struct {
	broadcaster Broadcaster
	source      SessionStateSource
	interval    time.Duration
}

type NewBroadcastWorkerOptions struct {
	Broadcaster Broadcaster
	Source      SessionStateSource
	Interval    time.Duration
}

// NewBroadcastWorker creates a new BroadcastWorker.
// The worker pushes the replicated session state to all clients at a fixed cadence.
func NewBroadcastWorker(opts NewBroadcastWorkerOptions) *BroadcastWorker {
	return &BroadcastWorker{
		broadcaster: opts.Broadcaster,
		source:      opts.Source,
		interval:    opts.Interval,
	}
}

func (w *BroadcastWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.broadcast(ctx); err != nil {
				log.Error("Failed to broadcast session state: %v", err)
			}
		}
	}
}

func (w *BroadcastWorker) broadcast(ctx context.Context) error {
	state := w.source.SessionState()
	if state == nil {
		return nil
	}
	payload, err := messages.SerializeSessionState(state)
	if err != nil {
		return err
	}
	w.broadcaster.Broadcast(ctx, &messages.Message{
		ClientID: network.HostClientID,
		Type:     messages.MessageTypeServerSessionState,
		Payload:  payload,
	})
	return nil
}
