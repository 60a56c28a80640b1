package workers

import (
	"context"
	"time"

	"github.com/cbodonnell/lobbyhost/pkg/log"
	"github.com/cbodonnell/lobbyhost/pkg/repositories"
	"github.com/cbodonnell/lobbyhost/pkg/repositories/models"
)

type SaveLogWorker struct {
	repository repositories.Repository
	requests   <-chan SaveLogRequest
	sessions   SessionSource
	interval   time.Duration
}

type NewSaveLogWorkerOptions struct {
	Repository repositories.Repository
	Requests   <-chan SaveLogRequest
	Sessions   SessionSource
	Interval   time.Duration
}

// SaveLogRequest persists a session record, log entries, or both.
type SaveLogRequest struct {
	Session *models.SessionRecord
	Entries []models.LogEntry
}

// SessionSource returns the running session, if any. It must be safe to
// call from any goroutine.
type SessionSource interface {
	CurrentSession() (*models.SessionRecord, bool)
}

// NewSaveLogWorker creates a new SaveLogWorker.
// The worker processes save requests from the game loop and
// periodically saves the running session record to the repository.
func NewSaveLogWorker(opts NewSaveLogWorkerOptions) *SaveLogWorker {
	return &SaveLogWorker{
		repository: opts.Repository,
		requests:   opts.Requests,
		sessions:   opts.Sessions,
		interval:   opts.Interval,
	}
}

func (w *SaveLogWorker) Start(ctx context.Context) {
	var tick <-chan time.Time
	if w.interval > 0 && w.sessions != nil {
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return
		case req := <-w.requests:
			w.save(ctx, req)
		case <-tick:
			if record, ok := w.sessions.CurrentSession(); ok {
				w.save(ctx, SaveLogRequest{Session: record})
			}
		}
	}
}

func (w *SaveLogWorker) save(ctx context.Context, req SaveLogRequest) {
	if req.Session == nil {
		if len(req.Entries) > 0 {
			log.Warn("Dropping %d log entries without a session", len(req.Entries))
		}
		return
	}
	if err := w.repository.SaveSession(ctx, req.Session); err != nil {
		log.Error("Failed to save session %s: %v", req.Session.ID, err)
		return
	}
	if err := w.repository.AppendLogEntries(ctx, req.Session.ID, req.Entries); err != nil {
		log.Error("Failed to save log entries for session %s: %v", req.Session.ID, err)
	}
}
