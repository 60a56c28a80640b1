package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/cbodonnell/lobbyhost/pkg/client"
	"github.com/cbodonnell/lobbyhost/pkg/config"
	"github.com/cbodonnell/lobbyhost/pkg/gamestate"
	"github.com/cbodonnell/lobbyhost/pkg/lobby"
	"github.com/cbodonnell/lobbyhost/pkg/log"
	"github.com/cbodonnell/lobbyhost/pkg/network"
	"github.com/cbodonnell/lobbyhost/pkg/scenes"
	"github.com/cbodonnell/lobbyhost/pkg/session"
)

func main() {
	cfg, err := config.Load(config.LoadOptions{Name: "client", Args: os.Args[1:]})
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}
	if cfg.JoinCode == "" {
		panic("A join code is required, pass -code or set LOBBYHOST_JOIN_CODE")
	}

	parsedLogLevel, err := log.ParseLogLevel(cfg.LogLevel)
	if err != nil {
		panic(fmt.Sprintf("Failed to parse log level: %v", err))
	}
	log.SetDefaultLogger(log.New(os.Stdout, "client", parsedLogLevel))
	log.Info("Log level set to %s", parsedLogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := session.NewRegistry(session.NewRegistryOptions{MaxParticipants: cfg.MaxParticipants})
	results := make(chan lobby.ProviderResult, 1)
	lobbyCoordinator := lobby.NewCoordinator(lobby.NewCoordinatorOptions{
		Registry: registry,
		Provider: network.NewWSProvider(network.NewWSProviderOptions{
			ServerURL: cfg.ServerURL,
			Token:     cfg.AuthToken,
		}),
		Deliver: func(result lobby.ProviderResult) { results <- result },
	})

	// a client that lost its host has nothing left to do
	lobbyCoordinator.OnStateChanged(func(e lobby.StateEvent) {
		switch e.State {
		case lobby.StateError:
			log.Error("Failed to join lobby: %s", e.Reason)
			stop()
		case lobby.StateIdle:
			log.Info("Left lobby: %s", e.Reason)
			stop()
		default:
			log.Info("Lobby state: %s %s", e.State, e.Reason)
		}
	})
	lobbyCoordinator.OnRosterChanged(func(roster []session.Participant) {
		log.Info("Lobby roster: %v", roster)
	})

	sceneManager := scenes.NewManager(scenes.NewManagerOptions{})
	state := gamestate.New(false)
	state.Phase.Subscribe(func(prev, next gamestate.Phase) {
		log.Info("Game phase: %s -> %s", prev, next)
	})

	replica := client.NewReplica(client.NewReplicaOptions{
		Lobby:       lobbyCoordinator,
		Registry:    registry,
		State:       state,
		Scenes:      sceneManager,
		DisplayName: cfg.DisplayName,
	})

	if err := lobbyCoordinator.JoinLobby(ctx, cfg.JoinCode); err != nil {
		panic(fmt.Sprintf("Failed to join lobby: %v", err))
	}
	replica.Run(ctx, results)

	if lobbyCoordinator.Transport() != nil {
		if err := replica.Leave(); err != nil {
			log.Error("Failed to leave lobby: %v", err)
		}
	}
	log.Info("Client stopped")
}
