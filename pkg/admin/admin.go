package admin

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	apperrors "github.com/cbodonnell/lobbyhost/pkg/errors"
	"github.com/cbodonnell/lobbyhost/pkg/gamemode"
	"github.com/cbodonnell/lobbyhost/pkg/log"
	"github.com/cbodonnell/lobbyhost/pkg/session"
)

// Resolver turns a command token into a client id.
type Resolver struct {
	registry *session.Registry
}

func NewResolver(registry *session.Registry) *Resolver {
	return &Resolver{registry: registry}
}

// Resolve matches token against the in-game display names, ignoring case,
// and falls back to reading it as a client id.
func (r *Resolver) Resolve(token string) (uint64, bool) {
	if r.registry != nil {
		if id, ok := r.registry.LookupClientID(token); ok {
			return id, true
		}
	}
	id, err := strconv.ParseUint(token, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// MachineSource returns the running mode machine, or nil outside a game.
type MachineSource interface {
	Machine() *gamemode.Machine
}

// Dispatcher forwards administrative actions to the current mode.
type Dispatcher struct {
	machines MachineSource
	feed     *log.Feed
}

// NewDispatcherOptions contains options for creating a new Dispatcher.
type NewDispatcherOptions struct {
	Machines MachineSource
	Feed     *log.Feed
}

func NewDispatcher(opts NewDispatcherOptions) *Dispatcher {
	feed := opts.Feed
	if feed == nil {
		feed = log.NewFeed(nil)
	}
	return &Dispatcher{
		machines: opts.Machines,
		feed:     feed,
	}
}

// KillParticipant kills targetID with no instigator.
func (d *Dispatcher) KillParticipant(targetID uint64, reason string) error {
	return d.kill(targetID, nil, reason)
}

// KillParticipantBy kills targetID and credits instigatorID.
func (d *Dispatcher) KillParticipantBy(targetID, instigatorID uint64, reason string) error {
	return d.kill(targetID, &instigatorID, reason)
}

func (d *Dispatcher) kill(targetID uint64, instigatorID *uint64, reason string) error {
	var machine *gamemode.Machine
	if d.machines != nil {
		machine = d.machines.Machine()
	}
	if machine == nil {
		d.feed.Warn("Admin - KillPlayer(Client: %d) ignored, no game is running", targetID)
		return nil
	}
	handled, err := machine.Kill(targetID, instigatorID, reason)
	if !handled {
		d.feed.Warn("Admin - KillPlayer(Client: %d) ignored, mode %T does not support kills", targetID, machine.Mode())
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to kill client %d: %v", targetID, err)
	}
	return nil
}

// Command is a console command.
type Command interface {
	Name() string
	Samples() []string
	Execute(args []string) error
}

// KillCommand is the "kill <target> [instigator] [reason]" console command.
// Targets and instigators are display names or client ids.
type KillCommand struct {
	resolver   *Resolver
	dispatcher *Dispatcher
}

func NewKillCommand(resolver *Resolver, dispatcher *Dispatcher) *KillCommand {
	return &KillCommand{resolver: resolver, dispatcher: dispatcher}
}

func (c *KillCommand) Name() string {
	return "kill"
}

func (c *KillCommand) Samples() []string {
	return []string{
		"kill <target>",
		"kill <target> <instigator>",
		"kill <target> <instigator> <reason>",
	}
}

func (c *KillCommand) Execute(args []string) error {
	if len(args) < 1 || len(args) > 3 {
		return apperrors.New(apperrors.CodeInvalidArgument, "usage: "+strings.Join(c.Samples(), " | "))
	}
	target, ok := c.resolver.Resolve(args[0])
	if !ok {
		return apperrors.New(apperrors.CodeInvalidArgument, fmt.Sprintf("unknown target %q", args[0]))
	}
	if len(args) == 1 {
		return c.dispatcher.KillParticipant(target, "")
	}
	instigator, ok := c.resolver.Resolve(args[1])
	if !ok {
		return apperrors.New(apperrors.CodeInvalidArgument, fmt.Sprintf("unknown instigator %q", args[1]))
	}
	reason := ""
	if len(args) == 3 {
		reason = args[2]
	}
	return c.dispatcher.KillParticipantBy(target, instigator, reason)
}

// Console runs registered commands from a line of text.
type Console struct {
	commands map[string]Command
}

func NewConsole(commands ...Command) *Console {
	c := &Console{commands: make(map[string]Command)}
	for _, cmd := range commands {
		c.commands[cmd.Name()] = cmd
	}
	return c
}

// Run splits line on whitespace and executes the named command.
func (c *Console) Run(line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	cmd, ok := c.commands[strings.ToLower(fields[0])]
	if !ok {
		return apperrors.New(apperrors.CodeInvalidArgument, fmt.Sprintf("unknown command %q", fields[0]))
	}
	return cmd.Execute(fields[1:])
}

// Samples lists the samples of every registered command.
func (c *Console) Samples() []string {
	var samples []string
	for _, cmd := range c.commands {
		samples = append(samples, cmd.Samples()...)
	}
	sort.Strings(samples)
	return samples
}
