package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	queuemocks "github.com/cbodonnell/lobbyhost/mocks/github.com/cbodonnell/lobbyhost/pkg/queue"
	"github.com/cbodonnell/lobbyhost/pkg/api"
	"github.com/cbodonnell/lobbyhost/pkg/api/handlers"
	authproviders "github.com/cbodonnell/lobbyhost/pkg/auth/providers"
	apperrors "github.com/cbodonnell/lobbyhost/pkg/errors"
	"github.com/cbodonnell/lobbyhost/pkg/game/types"
	"github.com/cbodonnell/lobbyhost/pkg/log"
	"github.com/cbodonnell/lobbyhost/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const validToken = "valid-token"

type staticAuthProvider struct{}

func (staticAuthProvider) VerifyToken(ctx context.Context, idToken string) (*authproviders.TokenClaims, error) {
	if idToken != validToken {
		return nil, fmt.Errorf("unknown token")
	}
	return &authproviders.TokenClaims{UID: "admin"}, nil
}

// loop answers commands the way the game loop would and records them.
type loop struct {
	events  []types.ServerEvent
	err     error
	info    types.SessionInfo
	saveLog types.SaveLogResult
}

func (l *loop) enqueue(event types.ServerEvent) error {
	l.events = append(l.events, event)
	switch e := event.(type) {
	case *types.StartSessionCommand:
		e.Reply <- l.err
	case *types.ExitGameCommand:
		e.Reply <- l.err
	case *types.ReplayCommand:
		e.Reply <- l.err
	case *types.KickCommand:
		e.Reply <- l.err
	case *types.KillCommand:
		e.Reply <- l.err
	case *types.SessionInfoQuery:
		e.Reply <- l.info
	case *types.SaveLogCommand:
		e.Reply <- l.saveLog
	}
	return nil
}

func newServer(t *testing.T, l *loop, feed *log.Feed) http.Handler {
	t.Helper()
	q := queuemocks.NewQueue[types.ServerEvent](t)
	q.EXPECT().Enqueue(mock.Anything).RunAndReturn(l.enqueue).Maybe()
	return api.NewRouter(api.NewAPIServerOptions{
		AuthProvider:     staticAuthProvider{},
		ServerEventQueue: q,
		Feed:             feed,
	})
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+validToken)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestAPI_Unauthorized(t *testing.T) {
	h := newServer(t, &loop{}, log.NewFeed(nil))
	tests := []struct {
		name   string
		header string
	}{
		{name: "missing header"},
		{name: "wrong scheme", header: "Basic " + validToken},
		{name: "bad token", header: "Bearer nope"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/session", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestAPI_Preflight(t *testing.T) {
	h := newServer(t, &loop{}, log.NewFeed(nil))
	req := httptest.NewRequest(http.MethodOptions, "/session/start", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestAPI_Commands(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		body       string
		loopErr    error
		wantStatus int
		wantEvent  types.ServerEvent
	}{
		{
			name: "start", path: "/session/start", body: `{"mode":"sample"}`,
			wantStatus: http.StatusNoContent, wantEvent: &types.StartSessionCommand{Mode: session.ModeSample},
		},
		{
			name: "start with invalid mode", path: "/session/start", body: `{"mode":""}`,
			loopErr:    apperrors.New(apperrors.CodeConfiguration, "Select valid gamemode"),
			wantStatus: http.StatusBadRequest, wantEvent: &types.StartSessionCommand{},
		},
		{
			name: "start twice", path: "/session/start", body: `{"mode":"sample"}`,
			loopErr:    apperrors.New(apperrors.CodeAlreadyStarted, "session already started"),
			wantStatus: http.StatusConflict, wantEvent: &types.StartSessionCommand{Mode: session.ModeSample},
		},
		{name: "start with bad body", path: "/session/start", body: `{`, wantStatus: http.StatusBadRequest},
		{name: "exit", path: "/session/exit", wantStatus: http.StatusNoContent, wantEvent: &types.ExitGameCommand{}},
		{name: "replay", path: "/session/replay", wantStatus: http.StatusNoContent, wantEvent: &types.ReplayCommand{}},
		{
			name: "kick", path: "/lobby/kick", body: `{"target":2}`,
			wantStatus: http.StatusNoContent, wantEvent: &types.KickCommand{TargetID: 2},
		},
		{
			name: "kill", path: "/admin/kill", body: `{"target":"bob"}`,
			wantStatus: http.StatusNoContent, wantEvent: &types.KillCommand{Args: []string{"bob"}},
		},
		{
			name: "kill with instigator and reason", path: "/admin/kill", body: `{"target":"bob","instigator":"alice","reason":"fall"}`,
			wantStatus: http.StatusNoContent, wantEvent: &types.KillCommand{Args: []string{"bob", "alice", "fall"}},
		},
		{name: "kill reason without instigator", path: "/admin/kill", body: `{"target":"bob","reason":"fall"}`, wantStatus: http.StatusBadRequest},
		{name: "kill without target", path: "/admin/kill", body: `{}`, wantStatus: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := &loop{err: tt.loopErr}
			rec := do(t, newServer(t, l, log.NewFeed(nil)), http.MethodPost, tt.path, tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			if tt.wantEvent == nil {
				assert.Empty(t, l.events)
				return
			}
			require.Len(t, l.events, 1)
			assert.Equal(t, withoutReply(tt.wantEvent), withoutReply(l.events[0]))
		})
	}
}

func withoutReply(event types.ServerEvent) types.ServerEvent {
	switch e := event.(type) {
	case *types.StartSessionCommand:
		return types.StartSessionCommand{Mode: e.Mode}
	case *types.ExitGameCommand:
		return types.ExitGameCommand{}
	case *types.ReplayCommand:
		return types.ReplayCommand{}
	case *types.KickCommand:
		return types.KickCommand{TargetID: e.TargetID}
	case *types.KillCommand:
		return types.KillCommand{Args: e.Args}
	}
	return event
}

func TestAPI_GetSession(t *testing.T) {
	l := &loop{info: types.SessionInfo{
		Config:     session.Config{SelectedMode: session.ModeSample, MaxParticipants: 4, JoinCode: "JOINCODE", IsHost: true},
		LobbyState: "HostSuccess",
		Scene:      "Lobby",
		Roster:     []session.Participant{{ClientID: 0, DisplayName: "Host"}},
	}}
	rec := do(t, newServer(t, l, log.NewFeed(nil)), http.MethodGet, "/session", "")
	require.Equal(t, http.StatusOK, rec.Code)

	got := types.SessionInfo{}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, l.info, got)
}

func TestAPI_Log(t *testing.T) {
	feed := log.NewFeed(log.New(&bytes.Buffer{}, "", log.LogLevelError))
	feed.Info("Session - Current GameMode: sample")
	feed.Warn("Session - Client 2 timed out loading the game scene")

	l := &loop{saveLog: types.SaveLogResult{Path: "Log/Log_231114221320.txt"}}
	h := newServer(t, l, feed)

	rec := do(t, h, http.MethodGet, "/log", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var entries []log.Entry
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&entries))
	assert.Equal(t, feed.Entries(), entries)

	rec = do(t, h, http.MethodPost, "/log/save", "")
	require.Equal(t, http.StatusOK, rec.Code)
	saved := handlers.SaveLogResponse{}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&saved))
	assert.Equal(t, "Log/Log_231114221320.txt", saved.Path)

	l.saveLog = types.SaveLogResult{Err: fmt.Errorf("disk full")}
	rec = do(t, h, http.MethodPost, "/log/save", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestAPI_Timeout(t *testing.T) {
	q := queuemocks.NewQueue[types.ServerEvent](t)
	q.EXPECT().Enqueue(mock.Anything).Return(nil).Once()
	h := api.NewRouter(api.NewAPIServerOptions{
		ServerEventQueue: q,
		Feed:             log.NewFeed(nil),
		CommandTimeout:   10 * time.Millisecond,
	})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/session/exit", nil))
	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
}

func TestAPI_QueueFull(t *testing.T) {
	q := queuemocks.NewQueue[types.ServerEvent](t)
	q.EXPECT().Enqueue(mock.Anything).Return(assert.AnError).Once()
	h := api.NewRouter(api.NewAPIServerOptions{
		ServerEventQueue: q,
		Feed:             log.NewFeed(nil),
	})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/session/replay", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
