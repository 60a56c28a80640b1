package admin

import (
	"bytes"
	"testing"

	apperrors "github.com/cbodonnell/lobbyhost/pkg/errors"
	"github.com/cbodonnell/lobbyhost/pkg/gamemode"
	"github.com/cbodonnell/lobbyhost/pkg/gamemode/sample"
	"github.com/cbodonnell/lobbyhost/pkg/gamestate"
	"github.com/cbodonnell/lobbyhost/pkg/log"
	"github.com/cbodonnell/lobbyhost/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type idleMode struct{}

func (idleMode) TickWaitingForPlayers(m *gamemode.Machine, dt float64) error { return nil }
func (idleMode) TickInProgress(m *gamemode.Machine, dt float64) error        { return nil }
func (idleMode) TickRoundOver(m *gamemode.Machine, dt float64) error         { return nil }

type machineSource struct {
	machine *gamemode.Machine
}

func (s *machineSource) Machine() *gamemode.Machine { return s.machine }

func newRegistry(t *testing.T) *session.Registry {
	t.Helper()
	registry := session.NewRegistry(session.NewRegistryOptions{Authoritative: true, MaxParticipants: 4})
	require.NoError(t, registry.Start(session.ModeSample, []session.Participant{
		{ClientID: 1, DisplayName: "Alice"},
		{ClientID: 2, DisplayName: "Bob"},
		{ClientID: 3, DisplayName: "42"},
	}))
	return registry
}

func newMachine(t *testing.T, mode gamemode.Mode, registry *session.Registry, feed *log.Feed) *gamemode.Machine {
	t.Helper()
	m, err := gamemode.NewMachine(gamemode.NewMachineOptions{
		Mode:     mode,
		State:    gamestate.New(true),
		Registry: registry,
		Feed:     feed,
	})
	require.NoError(t, err)
	require.NoError(t, m.Initialize())
	return m
}

func lastText(feed *log.Feed) string {
	entries := feed.Entries()
	if len(entries) == 0 {
		return ""
	}
	return entries[len(entries)-1].Text
}

func TestResolver_Resolve(t *testing.T) {
	r := NewResolver(newRegistry(t))
	tests := []struct {
		token  string
		wantID uint64
		wantOK bool
	}{
		{token: "Alice", wantID: 1, wantOK: true},
		{token: "bob", wantID: 2, wantOK: true},
		{token: "2", wantID: 2, wantOK: true},
		{token: "42", wantID: 3, wantOK: true},
		{token: "17", wantID: 17, wantOK: true},
		{token: "Mallory"},
		{token: "-1"},
		{token: ""},
	}
	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			id, ok := r.Resolve(tt.token)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantID, id)
		})
	}
}

func TestKillCommand_Execute(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantCode apperrors.Code
		wantLog  string
	}{
		{name: "target by name", args: []string{"alice"}, wantLog: "Gamemode - KillPlayer: Client1"},
		{name: "target by id", args: []string{"2"}, wantLog: "Gamemode - KillPlayer: Client2"},
		{name: "with instigator", args: []string{"Alice", "2"}, wantLog: "Gamemode - KillPlayer: Client2 kill Client1"},
		{name: "with reason", args: []string{"Bob", "Alice", "fall"}, wantLog: "Gamemode - KillPlayer: Client1 kill Client2 (fall)"},
		{name: "no args", args: nil, wantCode: apperrors.CodeInvalidArgument},
		{name: "too many args", args: []string{"a", "b", "c", "d"}, wantCode: apperrors.CodeInvalidArgument},
		{name: "unknown target", args: []string{"Mallory"}, wantCode: apperrors.CodeInvalidArgument},
		{name: "unknown instigator", args: []string{"Alice", "Mallory"}, wantCode: apperrors.CodeInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			registry := newRegistry(t)
			feed := log.NewFeed(log.New(&bytes.Buffer{}, "", log.LogLevelError))
			machine := newMachine(t, sample.New(), registry, feed)
			cmd := NewKillCommand(NewResolver(registry), NewDispatcher(NewDispatcherOptions{
				Machines: &machineSource{machine: machine},
				Feed:     feed,
			}))

			err := cmd.Execute(tt.args)
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, apperrors.CodeOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantLog, lastText(feed))
		})
	}
}

func TestKillCommand_Descriptor(t *testing.T) {
	cmd := NewKillCommand(NewResolver(nil), NewDispatcher(NewDispatcherOptions{}))
	assert.Equal(t, "kill", cmd.Name())
	assert.Equal(t, []string{
		"kill <target>",
		"kill <target> <instigator>",
		"kill <target> <instigator> <reason>",
	}, cmd.Samples())
}

func TestDispatcher_NoKiller(t *testing.T) {
	feed := log.NewFeed(log.New(&bytes.Buffer{}, "", log.LogLevelError))

	d := NewDispatcher(NewDispatcherOptions{Machines: &machineSource{}, Feed: feed})
	require.NoError(t, d.KillParticipant(1, ""))
	assert.Equal(t, "Admin - KillPlayer(Client: 1) ignored, no game is running", lastText(feed))

	machine := newMachine(t, idleMode{}, newRegistry(t), feed)
	d = NewDispatcher(NewDispatcherOptions{Machines: &machineSource{machine: machine}, Feed: feed})
	require.NoError(t, d.KillParticipantBy(1, 2, "void"))
	assert.Equal(t, "Admin - KillPlayer(Client: 1) ignored, mode admin.idleMode does not support kills", lastText(feed))
}

func TestConsole_Run(t *testing.T) {
	registry := newRegistry(t)
	feed := log.NewFeed(log.New(&bytes.Buffer{}, "", log.LogLevelError))
	mode := sample.NewWithDuration(sample.RoundDuration)
	machine := newMachine(t, mode, registry, feed)
	console := NewConsole(NewKillCommand(NewResolver(registry), NewDispatcher(NewDispatcherOptions{
		Machines: &machineSource{machine: machine},
		Feed:     feed,
	})))

	require.NoError(t, console.Run("  KILL bob alice  "))
	assert.Equal(t, 1, mode.Kills(1))
	require.NoError(t, console.Run(""))
	assert.Equal(t, apperrors.CodeInvalidArgument, apperrors.CodeOf(console.Run("ban bob")))
	assert.Len(t, console.Samples(), 3)
}
