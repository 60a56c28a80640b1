package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	apperrors "github.com/cbodonnell/lobbyhost/pkg/errors"
	"github.com/cbodonnell/lobbyhost/pkg/game/types"
	"github.com/cbodonnell/lobbyhost/pkg/log"
	"github.com/cbodonnell/lobbyhost/pkg/queue"
	"github.com/cbodonnell/lobbyhost/pkg/session"
)

// DefaultCommandTimeout bounds how long a request waits for the game loop.
const DefaultCommandTimeout = 5 * time.Second

var errTimeout = errors.New("timed out waiting for the game loop")

// Commands hands requests to the game loop and waits for its reply.
type Commands struct {
	queue   queue.Queue[types.ServerEvent]
	feed    *log.Feed
	timeout time.Duration
}

type NewCommandsOptions struct {
	ServerEventQueue queue.Queue[types.ServerEvent]
	Feed             *log.Feed
	Timeout          time.Duration
}

func NewCommands(opts NewCommandsOptions) *Commands {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultCommandTimeout
	}
	return &Commands{
		queue:   opts.ServerEventQueue,
		feed:    opts.Feed,
		timeout: timeout,
	}
}

// submit enqueues event and waits for the value the game loop sends on reply.
func submit[T any](ctx context.Context, c *Commands, event types.ServerEvent, reply <-chan T) (T, error) {
	var zero T
	if err := c.queue.Enqueue(event); err != nil {
		return zero, err
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	select {
	case v := <-reply:
		return v, nil
	case <-ctx.Done():
		return zero, errTimeout
	}
}

func (c *Commands) HandleGetSession() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reply := make(chan types.SessionInfo, 1)
		info, err := submit(r.Context(), c, &types.SessionInfoQuery{Reply: reply}, reply)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, info)
	}
}

type StartSessionRequest struct {
	Mode session.ModeID `json:"mode"`
}

func (c *Commands) HandleStartSession() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := StartSessionRequest{}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		reply := make(chan error, 1)
		c.runCommand(w, r, &types.StartSessionCommand{Mode: req.Mode, Reply: reply}, reply)
	}
}

func (c *Commands) HandleExitGame() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reply := make(chan error, 1)
		c.runCommand(w, r, &types.ExitGameCommand{Reply: reply}, reply)
	}
}

func (c *Commands) HandleReplay() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reply := make(chan error, 1)
		c.runCommand(w, r, &types.ReplayCommand{Reply: reply}, reply)
	}
}

type KickRequest struct {
	Target uint64 `json:"target"`
}

func (c *Commands) HandleKick() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := KickRequest{}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		reply := make(chan error, 1)
		c.runCommand(w, r, &types.KickCommand{TargetID: req.Target, Reply: reply}, reply)
	}
}

// KillRequest names participants by display name or client id.
type KillRequest struct {
	Target     string `json:"target"`
	Instigator string `json:"instigator,omitempty"`
	Reason     string `json:"reason,omitempty"`
}

func (c *Commands) HandleKill() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := KillRequest{}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if req.Target == "" {
			http.Error(w, "Missing target", http.StatusBadRequest)
			return
		}
		if req.Reason != "" && req.Instigator == "" {
			http.Error(w, "A reason needs an instigator", http.StatusBadRequest)
			return
		}
		args := []string{req.Target}
		if req.Instigator != "" {
			args = append(args, req.Instigator)
		}
		if req.Reason != "" {
			args = append(args, req.Reason)
		}
		reply := make(chan error, 1)
		c.runCommand(w, r, &types.KillCommand{Args: args, Reply: reply}, reply)
	}
}

func (c *Commands) HandleGetLog() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, c.feed.Entries())
	}
}

type SaveLogResponse struct {
	Path string `json:"path"`
}

func (c *Commands) HandleSaveLog() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reply := make(chan types.SaveLogResult, 1)
		result, err := submit(r.Context(), c, &types.SaveLogCommand{Reply: reply}, reply)
		if err == nil {
			err = result.Err
		}
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, SaveLogResponse{Path: result.Path})
	}
}

func (c *Commands) runCommand(w http.ResponseWriter, r *http.Request, event types.ServerEvent, reply <-chan error) {
	result, err := submit(r.Context(), c, event, reply)
	if err == nil {
		err = result
	}
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type errorResponse struct {
	Code    apperrors.Code `json:"code"`
	Message string         `json:"message"`
}

func writeError(w http.ResponseWriter, err error) {
	if errors.Is(err, errTimeout) {
		log.Warn("API request timed out: %v", err)
		http.Error(w, "Game loop did not respond", http.StatusGatewayTimeout)
		return
	}
	code := apperrors.CodeOf(err)
	status := statusFor(code)
	if status >= http.StatusInternalServerError {
		log.Error("API request failed: %v", err)
	}
	writeJSON(w, status, errorResponse{Code: code, Message: apperrors.Reason(err)})
}

func statusFor(code apperrors.Code) int {
	switch code {
	case apperrors.CodeInvalidArgument, apperrors.CodeConfiguration:
		return http.StatusBadRequest
	case apperrors.CodeAuthorityViolation:
		return http.StatusForbidden
	case apperrors.CodeCapacityExceeded, apperrors.CodeAlreadyStarted, apperrors.CodeStaleReference:
		return http.StatusConflict
	case apperrors.CodeProviderFailure:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("failed to encode response: %v", err)
	}
}
