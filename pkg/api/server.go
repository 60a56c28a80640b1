package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/cbodonnell/lobbyhost/pkg/api/handlers"
	"github.com/cbodonnell/lobbyhost/pkg/api/middleware"
	authproviders "github.com/cbodonnell/lobbyhost/pkg/auth/providers"
	"github.com/cbodonnell/lobbyhost/pkg/game/types"
	"github.com/cbodonnell/lobbyhost/pkg/log"
	"github.com/cbodonnell/lobbyhost/pkg/queue"
	"github.com/gorilla/mux"
)

type APIServer struct {
	server *http.Server
	tls    *TLSConfig
}

type TLSConfig struct {
	CertFile string
	KeyFile  string
}

type NewAPIServerOptions struct {
	Port int
	TLS  *TLSConfig
	// AuthProvider guards every route. Without one the API is open, which
	// is only acceptable on a loopback port.
	AuthProvider     authproviders.AuthProvider
	ServerEventQueue queue.Queue[types.ServerEvent]
	Feed             *log.Feed
	CommandTimeout   time.Duration
}

// NewAPIServer creates a new http.Server for the host admin API
func NewAPIServer(opts NewAPIServerOptions) *APIServer {
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", opts.Port),
		Handler: NewRouter(opts),
	}
	return &APIServer{
		server: server,
		tls:    opts.TLS,
	}
}

// NewRouter builds the API routes. Every mutating route is funnelled to the
// game loop through the server event queue.
func NewRouter(opts NewAPIServerOptions) http.Handler {
	commands := handlers.NewCommands(handlers.NewCommandsOptions{
		ServerEventQueue: opts.ServerEventQueue,
		Feed:             opts.Feed,
		Timeout:          opts.CommandTimeout,
	})

	router := mux.NewRouter()
	router.Use(middleware.NewCORSMiddleware())
	if opts.AuthProvider != nil {
		router.Use(middleware.NewAuthMiddleware(opts.AuthProvider))
	} else {
		log.Warn("API server running without authentication")
	}

	router.HandleFunc("/session", commands.HandleGetSession()).Methods(http.MethodGet, http.MethodOptions)
	router.HandleFunc("/session/start", commands.HandleStartSession()).Methods(http.MethodPost, http.MethodOptions)
	router.HandleFunc("/session/exit", commands.HandleExitGame()).Methods(http.MethodPost, http.MethodOptions)
	router.HandleFunc("/session/replay", commands.HandleReplay()).Methods(http.MethodPost, http.MethodOptions)
	router.HandleFunc("/lobby/kick", commands.HandleKick()).Methods(http.MethodPost, http.MethodOptions)
	router.HandleFunc("/admin/kill", commands.HandleKill()).Methods(http.MethodPost, http.MethodOptions)
	router.HandleFunc("/log", commands.HandleGetLog()).Methods(http.MethodGet, http.MethodOptions)
	router.HandleFunc("/log/save", commands.HandleSaveLog()).Methods(http.MethodPost, http.MethodOptions)
	return router
}

// Start starts the APIServer
func (s *APIServer) Start() {
	var listenAndServe func() error
	if s.tls != nil {
		log.Info("API server listening on %s with TLS", s.server.Addr)
		listenAndServe = func() error {
			return s.server.ListenAndServeTLS(s.tls.CertFile, s.tls.KeyFile)
		}
	} else {
		log.Info("API server listening on %s", s.server.Addr)
		listenAndServe = s.server.ListenAndServe
	}
	if err := listenAndServe(); err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			log.Info("API server closed")
			return
		}
		log.Error("API server error: %v", err)
	}
}

// Stop stops the APIServer
func (s *APIServer) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
