package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/cbodonnell/lobbyhost/pkg/admin"
	"github.com/cbodonnell/lobbyhost/pkg/api"
	authproviders "github.com/cbodonnell/lobbyhost/pkg/auth/providers"
	"github.com/cbodonnell/lobbyhost/pkg/config"
	"github.com/cbodonnell/lobbyhost/pkg/game"
	"github.com/cbodonnell/lobbyhost/pkg/game/types"
	"github.com/cbodonnell/lobbyhost/pkg/gamemode"
	"github.com/cbodonnell/lobbyhost/pkg/gamemode/sample"
	"github.com/cbodonnell/lobbyhost/pkg/lobby"
	"github.com/cbodonnell/lobbyhost/pkg/log"
	"github.com/cbodonnell/lobbyhost/pkg/network"
	"github.com/cbodonnell/lobbyhost/pkg/orchestrator"
	"github.com/cbodonnell/lobbyhost/pkg/queue"
	"github.com/cbodonnell/lobbyhost/pkg/repositories"
	"github.com/cbodonnell/lobbyhost/pkg/scenes"
	"github.com/cbodonnell/lobbyhost/pkg/session"
	"github.com/cbodonnell/lobbyhost/pkg/spawn"
	"github.com/cbodonnell/lobbyhost/pkg/workers"
)

func main() {
	cfg, err := config.Load(config.LoadOptions{Name: "server", Args: os.Args[1:]})
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	parsedLogLevel, err := log.ParseLogLevel(cfg.LogLevel)
	if err != nil {
		panic(fmt.Sprintf("Failed to parse log level: %v", err))
	}
	logger := log.New(os.Stdout, "", parsedLogLevel)
	log.SetDefaultLogger(logger)
	log.Info("Log level set to %s", parsedLogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	authProvider, err := newAuthProvider(ctx, cfg)
	if err != nil {
		panic(fmt.Sprintf("Failed to create auth provider: %v", err))
	}
	var tls *network.TLSConfig
	if cfg.TLSEnabled() {
		tls = &network.TLSConfig{CertFile: cfg.TLSCertFile, KeyFile: cfg.TLSKeyFile}
	}

	registry := session.NewRegistry(session.NewRegistryOptions{
		Authoritative:   true,
		IsHost:          true,
		MaxParticipants: cfg.MaxParticipants,
		SelectedMode:    cfg.Mode(),
	})
	feed := log.NewFeed(logger)
	serverEventQueue := queue.NewInMemoryQueue[types.ServerEvent](10000)

	// the broadcast worker reads snapshots from the game manager, which is
	// created further down
	var gameManager *game.GameManager

	provider := network.NewWSProvider(network.NewWSProviderOptions{
		HostAddr:     fmt.Sprintf(":%d", cfg.WSPort),
		ServerURL:    cfg.ServerURL,
		AuthProvider: authProvider,
		TLS:          tls,
	})
	lobbyCoordinator := lobby.NewCoordinator(lobby.NewCoordinatorOptions{
		Registry: registry,
		Provider: provider,
		Deliver: func(result lobby.ProviderResult) {
			if err := serverEventQueue.Enqueue(&types.ProviderResultEvent{Result: result}); err != nil {
				log.Error("Failed to enqueue provider result: %v", err)
			}
		},
		OnTransportReady: func(transport network.Transport) {
			connectionEventWorker := workers.NewConnectionEventWorker(workers.NewConnectionEventWorkerOptions{
				Events:           transport.Events(),
				ServerEventQueue: serverEventQueue,
			})
			go connectionEventWorker.Start(ctx)

			broadcastWorker := workers.NewBroadcastWorker(workers.NewBroadcastWorkerOptions{
				Broadcaster: transport,
				Source:      gameManager,
				Interval:    cfg.BroadcastInterval,
			})
			go broadcastWorker.Start(ctx)
		},
	})
	lobbyCoordinator.OnStateChanged(func(e lobby.StateEvent) {
		log.Info("Lobby state: %s %s", e.State, e.Reason)
	})

	modes := gamemode.NewRegistry()
	modes.MustRegister(session.ModeSample, sample.New)

	spawner := spawn.NewCoordinator(spawn.NewCoordinatorOptions{
		Registry:     registry,
		Factory:      spawn.NewLoggingFactory(),
		Participants: lobbyCoordinator,
		Prefabs:      map[session.ModeID]string{session.ModeSample: "sample-player"},
		Feed:         feed,
	})
	sceneManager := scenes.NewManager(scenes.NewManagerOptions{
		LocalID:      session.HostClientID,
		Participants: lobbyCoordinator,
		Timeout:      cfg.SceneLoadTimeout,
	})
	orch := orchestrator.NewOrchestrator(orchestrator.NewOrchestratorOptions{
		Registry:          registry,
		Modes:             modes,
		Spawner:           spawner,
		Scenes:            sceneManager,
		Participants:      lobbyCoordinator,
		Transports:        lobbyCoordinator,
		Feed:              feed,
		LogDir:            cfg.LogDir,
		CountdownDuration: cfg.CountdownDuration,
	})

	killCommand := admin.NewKillCommand(admin.NewResolver(registry), admin.NewDispatcher(admin.NewDispatcherOptions{
		Machines: orch,
		Feed:     feed,
	}))
	console := admin.NewConsole(killCommand)

	var (
		repository  repositories.Repository
		saveLogChan chan workers.SaveLogRequest
	)
	if cfg.DatabaseURL != "" {
		repository, err = repositories.NewRepository(ctx, cfg.DatabaseURL, cfg.MigrationsDir)
		if err != nil {
			panic(fmt.Sprintf("Failed to create repository: %v", err))
		}
		defer repository.Close(context.Background())
		saveLogChan = make(chan workers.SaveLogRequest, 100)
	} else {
		log.Warn("No database configured, session records are not persisted")
	}

	gameManager = game.NewGameManager(game.NewGameManagerOptions{
		Lobby:            lobbyCoordinator,
		Registry:         registry,
		Orchestrator:     orch,
		Scenes:           sceneManager,
		Console:          console,
		Kill:             killCommand,
		ServerEventQueue: serverEventQueue,
		SaveLogChan:      saveLogChan,
		GameLoopInterval: cfg.TickInterval,
	})

	if repository != nil {
		saveLogWorker := workers.NewSaveLogWorker(workers.NewSaveLogWorkerOptions{
			Repository: repository,
			Requests:   saveLogChan,
			Sessions:   gameManager,
			Interval:   cfg.SaveInterval,
		})
		go saveLogWorker.Start(ctx)
	}

	if cfg.APIPort > 0 {
		var apiTLS *api.TLSConfig
		if cfg.TLSEnabled() {
			apiTLS = &api.TLSConfig{CertFile: cfg.TLSCertFile, KeyFile: cfg.TLSKeyFile}
		}
		apiServer := api.NewAPIServer(api.NewAPIServerOptions{
			Port:             cfg.APIPort,
			TLS:              apiTLS,
			AuthProvider:     authProvider,
			ServerEventQueue: serverEventQueue,
			Feed:             feed,
		})
		go apiServer.Start()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := apiServer.Stop(shutdownCtx); err != nil {
				log.Error("Failed to stop API server: %v", err)
			}
		}()
	}

	go readConsole(ctx, os.Stdin, serverEventQueue)

	if err := lobbyCoordinator.StartHost(ctx, cfg.MaxParticipants); err != nil {
		panic(fmt.Sprintf("Failed to start host: %v", err))
	}

	log.Info("Starting game manager")
	if err := gameManager.Start(ctx); err != nil {
		panic(fmt.Sprintf("Failed to start game manager: %v", err))
	}
	if err := lobbyCoordinator.ShutdownLobby(); err != nil {
		log.Error("Failed to shut down lobby: %v", err)
	}
	log.Info("Server stopped")
}

// newAuthProvider prefers Firebase and falls back to a shared JWT secret.
// With neither configured, joining and the API are unauthenticated.
func newAuthProvider(ctx context.Context, cfg config.Config) (authproviders.AuthProvider, error) {
	switch {
	case cfg.FirebaseProjectID != "":
		return authproviders.NewFirebaseAuthProvider(ctx, authproviders.NewFirebaseAuthProviderOptions{
			ProjectID:       cfg.FirebaseProjectID,
			APIKey:          cfg.FirebaseAPIKey,
			CredentialsFile: cfg.FirebaseCredentialsFile,
		})
	case cfg.JWTSecret != "":
		return authproviders.NewJWTAuthProvider(cfg.JWTSecret)
	default:
		log.Warn("No auth provider configured, anyone with the join code can connect")
		return nil, nil
	}
}

// readConsole turns operator input into commands for the game loop.
func readConsole(ctx context.Context, in io.Reader, serverEventQueue queue.Queue[types.ServerEvent]) {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if err := runConsoleLine(ctx, line, serverEventQueue); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
	}
}

func runConsoleLine(ctx context.Context, line string, serverEventQueue queue.Queue[types.ServerEvent]) error {
	fields := strings.Fields(line)
	errReply := make(chan error, 1)
	var event types.ServerEvent
	switch strings.ToLower(fields[0]) {
	case "start":
		mode := session.ModeSample
		if len(fields) > 1 {
			mode = session.ModeID(fields[1])
		}
		event = &types.StartSessionCommand{Mode: mode, Reply: errReply}
	case "exit":
		event = &types.ExitGameCommand{Reply: errReply}
	case "replay":
		event = &types.ReplayCommand{Reply: errReply}
	case "kick":
		if len(fields) != 2 {
			return fmt.Errorf("usage: kick <client id>")
		}
		id, err := strconv.ParseUint(fields[1], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid client id %q", fields[1])
		}
		event = &types.KickCommand{TargetID: id, Reply: errReply}
	case "save":
		reply := make(chan types.SaveLogResult, 1)
		if err := serverEventQueue.Enqueue(&types.SaveLogCommand{Reply: reply}); err != nil {
			return err
		}
		select {
		case result := <-reply:
			if result.Err != nil {
				return result.Err
			}
			path, _ := filepath.Abs(result.Path)
			fmt.Printf("log saved to %s\n", path)
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	default:
		event = &types.ConsoleCommand{Line: line, Reply: errReply}
	}

	if err := serverEventQueue.Enqueue(event); err != nil {
		return err
	}
	select {
	case err := <-errReply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
