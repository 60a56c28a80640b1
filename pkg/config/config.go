package config

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"net/url"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/cbodonnell/lobbyhost/pkg/log"
	"github.com/cbodonnell/lobbyhost/pkg/session"
	"github.com/joho/godotenv"
)

// Config holds the settings shared by the server and client binaries. Values
// come from an optional .env file, then LOBBYHOST_* variables, then flags.
type Config struct {
	LogLevel string `env:"LOBBYHOST_LOG_LEVEL" envDefault:"info"`

	TickInterval      time.Duration `env:"LOBBYHOST_TICK_INTERVAL" envDefault:"100ms"`
	BroadcastInterval time.Duration `env:"LOBBYHOST_BROADCAST_INTERVAL" envDefault:"100ms"`
	MaxParticipants   int           `env:"LOBBYHOST_MAX_PARTICIPANTS" envDefault:"4"`

	// WSPort is where the host accepts players. ServerURL is what clients dial.
	WSPort    int    `env:"LOBBYHOST_WS_PORT" envDefault:"8888"`
	ServerURL string `env:"LOBBYHOST_SERVER_URL" envDefault:"ws://localhost:8888"`
	APIPort   int    `env:"LOBBYHOST_API_PORT" envDefault:"9090"`

	TLSCertFile string `env:"LOBBYHOST_TLS_CERT_FILE"`
	TLSKeyFile  string `env:"LOBBYHOST_TLS_KEY_FILE"`

	// DatabaseURL is sqlite://path or postgres(ql)://... Empty disables persistence.
	DatabaseURL   string        `env:"LOBBYHOST_DATABASE_URL"`
	MigrationsDir string        `env:"LOBBYHOST_MIGRATIONS_DIR" envDefault:"migrations"`
	SaveInterval  time.Duration `env:"LOBBYHOST_SAVE_INTERVAL" envDefault:"30s"`
	LogDir        string        `env:"LOBBYHOST_LOG_DIR" envDefault:"Log"`

	SceneLoadTimeout  time.Duration  `env:"LOBBYHOST_SCENE_LOAD_TIMEOUT" envDefault:"30s"`
	CountdownDuration float64        `env:"LOBBYHOST_COUNTDOWN_DURATION" envDefault:"3"`
	DefaultMode       string         `env:"LOBBYHOST_DEFAULT_MODE" envDefault:"sample"`
	DisplayName       string         `env:"LOBBYHOST_DISPLAY_NAME"`

	FirebaseProjectID       string `env:"LOBBYHOST_FIREBASE_PROJECT_ID"`
	FirebaseAPIKey          string `env:"LOBBYHOST_FIREBASE_API_KEY"`
	FirebaseCredentialsFile string `env:"LOBBYHOST_FIREBASE_CREDENTIALS_FILE"`
	JWTSecret               string `env:"LOBBYHOST_JWT_SECRET"`
	// AuthToken is presented by clients when the host requires authentication.
	AuthToken string `env:"LOBBYHOST_AUTH_TOKEN"`
	// JoinCode is the lobby a client joins.
	JoinCode string `env:"LOBBYHOST_JOIN_CODE"`
}

type LoadOptions struct {
	// EnvFiles are loaded if present. Defaults to .env.
	EnvFiles []string
	// Args are the command-line arguments without the program name.
	Args []string
	// Name is the flag set name used in usage output.
	Name string
}

// Load reads the configuration. Variables already set in the environment
// win over .env files, and flags win over both.
func Load(opts LoadOptions) (Config, error) {
	files := opts.EnvFiles
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("failed to load %s: %v", f, err)
		}
	}

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("failed to parse environment: %v", err)
	}

	name := opts.Name
	if name == "" {
		name = "lobbyhost"
	}
	flags := flag.NewFlagSet(name, flag.ContinueOnError)
	flags.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level")
	flags.DurationVar(&cfg.TickInterval, "tick-interval", cfg.TickInterval, "Game loop interval")
	flags.DurationVar(&cfg.BroadcastInterval, "broadcast-interval", cfg.BroadcastInterval, "Session state broadcast interval")
	flags.IntVar(&cfg.MaxParticipants, "max-participants", cfg.MaxParticipants, "Lobby capacity including the host")
	flags.IntVar(&cfg.WSPort, "ws-port", cfg.WSPort, "WebSocket port to host lobbies on")
	flags.StringVar(&cfg.ServerURL, "server-url", cfg.ServerURL, "WebSocket URL clients dial")
	flags.IntVar(&cfg.APIPort, "api-port", cfg.APIPort, "Admin API port, 0 disables the API")
	flags.StringVar(&cfg.TLSCertFile, "tls-cert", cfg.TLSCertFile, "TLS certificate file")
	flags.StringVar(&cfg.TLSKeyFile, "tls-key", cfg.TLSKeyFile, "TLS key file")
	flags.StringVar(&cfg.DatabaseURL, "database-url", cfg.DatabaseURL, "sqlite:// or postgres:// URL")
	flags.StringVar(&cfg.MigrationsDir, "migrations-dir", cfg.MigrationsDir, "Directory holding sqlite/ and postgres/ migrations")
	flags.DurationVar(&cfg.SaveInterval, "save-interval", cfg.SaveInterval, "Session record save interval")
	flags.StringVar(&cfg.LogDir, "log-dir", cfg.LogDir, "Directory session logs are saved to")
	flags.DurationVar(&cfg.SceneLoadTimeout, "scene-load-timeout", cfg.SceneLoadTimeout, "How long to wait for participants to load a scene")
	flags.Float64Var(&cfg.CountdownDuration, "countdown", cfg.CountdownDuration, "Countdown length in seconds")
	flags.StringVar(&cfg.DefaultMode, "mode", cfg.DefaultMode, "Game mode selected when the lobby opens")
	flags.StringVar(&cfg.JoinCode, "code", cfg.JoinCode, "Join code of the lobby to join")
	flags.StringVar(&cfg.DisplayName, "name", cfg.DisplayName, "Display name to use once connected")
	if err := flags.Parse(opts.Args); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if _, err := log.ParseLogLevel(c.LogLevel); err != nil {
		return err
	}
	if c.TickInterval <= 0 {
		return fmt.Errorf("tick interval must be positive")
	}
	if c.BroadcastInterval <= 0 {
		return fmt.Errorf("broadcast interval must be positive")
	}
	if c.MaxParticipants < 1 {
		return fmt.Errorf("max participants must be at least 1")
	}
	if c.SceneLoadTimeout <= 0 {
		return fmt.Errorf("scene load timeout must be positive")
	}
	if c.CountdownDuration < 0 {
		return fmt.Errorf("countdown duration must not be negative")
	}
	if (c.TLSCertFile == "") != (c.TLSKeyFile == "") {
		return fmt.Errorf("tls cert and key must be set together")
	}
	if c.DisplayName != "" {
		if err := session.ValidateDisplayName(c.DisplayName); err != nil {
			return err
		}
	}
	if c.DatabaseURL != "" {
		if _, err := url.Parse(c.DatabaseURL); err != nil {
			return fmt.Errorf("invalid database url: %v", err)
		}
	}
	return nil
}

// Mode returns the default mode as a session mode id.
func (c Config) Mode() session.ModeID {
	return session.ModeID(c.DefaultMode)
}

// TLSEnabled reports whether a certificate and key are configured.
func (c Config) TLSEnabled() bool {
	return c.TLSCertFile != "" && c.TLSKeyFile != ""
}
