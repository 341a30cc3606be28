// cmd/rps/config.go
package main

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/minhhoangcong/Nhom6-GameRock-Paper-Scissors/internal/room"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "RPS"

type serveConfig struct {
	allowedOrigins []string
	bestOf         int
	bind           string
	historySize    int
	logLevel       string
	pingInterval   time.Duration
	port           int
	privateKey     string
	publicKey      string
	publicURL      string
	redisAddr      string
	redisDB        int
	roundTimeout   time.Duration
	tokenExpire    time.Duration
}

func (c *serveConfig) validate() error {
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.port)
	}
	if err := c.roomConfig().Validate(); err != nil {
		return err
	}
	if c.historySize < 1 {
		return fmt.Errorf("invalid history size (must be at least 1): %d", c.historySize)
	}
	if c.tokenExpire < 0 {
		return fmt.Errorf("invalid token expiry: %s", c.tokenExpire)
	}
	if (c.privateKey == "") != (c.publicKey == "") {
		return errors.New("both --jwt-private-key and --jwt-public-key must be provided together")
	}
	if c.publicURL != "" {
		if _, err := url.ParseRequestURI(c.publicURL); err != nil {
			return fmt.Errorf("invalid public url %q: %w", c.publicURL, err)
		}
	}
	_, err := logrus.ParseLevel(c.logLevel)
	return err
}

func (c *serveConfig) roomConfig() room.Config {
	return room.Config{BestOf: c.bestOf, RoundTimeout: c.roundTimeout}
}

type botConfig struct {
	logLevel     string
	name         string
	pingInterval time.Duration
	reconnect    time.Duration
	server       string
	think        time.Duration
}

func (c *botConfig) validate() error {
	u, err := url.Parse(c.server)
	if err != nil {
		return fmt.Errorf("invalid server url %q: %w", c.server, err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return fmt.Errorf("server url must use ws or wss, got %q", c.server)
	}
	if c.reconnect <= 0 || c.pingInterval <= 0 {
		return errors.New("--reconnect and --ping-interval must be positive")
	}
	if c.think < 0 {
		return fmt.Errorf("invalid think time: %s", c.think)
	}
	_, err = logrus.ParseLevel(c.logLevel)
	return err
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "rps",
		Short:   "Two-player rock-paper-scissors over websocket.",
		Args:    cobra.ExactArgs(0),
		Version: releaseVersion,
	}

	cmd.AddCommand(newServeCmd(&serveConfig{}), newBotCmd(&botConfig{}))

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("rps v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}

func newServeCmd(cfg *serveConfig) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the game server.",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg)
		},
	}

	fs := cmd.Flags()
	normalize(fs)

	fs.StringSliceVar(&cfg.allowedOrigins, "allowed-origins", nil, "origins allowed to open a websocket, empty allows any (env: RPS_ALLOWED_ORIGINS)")
	fs.IntVar(&cfg.bestOf, "best-of", 3, "rounds per series, must be odd (env: RPS_BEST_OF)")
	fs.StringVarP(&cfg.bind, "bind", "b", "0.0.0.0", "address to bind to (env: RPS_BIND)")
	fs.IntVar(&cfg.historySize, "history-size", 10, "round records kept per room (env: RPS_HISTORY_SIZE)")
	fs.StringVar(&cfg.logLevel, "log-level", "info", "log level (env: RPS_LOG_LEVEL)")
	fs.DurationVar(&cfg.pingInterval, "ping-interval", 30*time.Second, "websocket keepalive interval (env: RPS_PING_INTERVAL)")
	fs.IntVarP(&cfg.port, "port", "p", 8082, "port to listen on (env: RPS_PORT)")
	fs.StringVar(&cfg.privateKey, "jwt-private-key", "", "path to a raw ed25519 private key, random if empty (env: RPS_JWT_PRIVATE_KEY)")
	fs.StringVar(&cfg.publicKey, "jwt-public-key", "", "path to the matching raw ed25519 public key (env: RPS_JWT_PUBLIC_KEY)")
	fs.StringVar(&cfg.publicURL, "public-url", "", "external base url used in invite links (env: RPS_PUBLIC_URL)")
	fs.StringVar(&cfg.redisAddr, "redis-addr", "", "redis address for round history, in-memory if empty (env: RPS_REDIS_ADDR)")
	fs.IntVar(&cfg.redisDB, "redis-db", 0, "redis database number (env: RPS_REDIS_DB)")
	fs.DurationVar(&cfg.roundTimeout, "round-timeout", 10*time.Second, "time allowed to choose each round (env: RPS_ROUND_TIMEOUT)")
	fs.DurationVar(&cfg.tokenExpire, "token-expire", 0, "identity token lifetime, 0 never expires (env: RPS_TOKEN_EXPIRE)")

	bindEnv(fs)

	return cmd
}

func newBotCmd(cfg *botConfig) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bot",
		Short: "Connect to a server and play automatically.",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			return runBot(cmd.Context(), cfg)
		},
	}

	fs := cmd.Flags()
	normalize(fs)

	fs.StringVar(&cfg.logLevel, "log-level", "info", "log level (env: RPS_LOG_LEVEL)")
	fs.StringVarP(&cfg.name, "name", "n", "Bot", "display name (env: RPS_NAME)")
	fs.DurationVar(&cfg.pingInterval, "ping-interval", 5*time.Second, "latency probe interval (env: RPS_PING_INTERVAL)")
	fs.DurationVar(&cfg.reconnect, "reconnect", 3*time.Second, "wait between connection attempts (env: RPS_RECONNECT)")
	fs.StringVarP(&cfg.server, "server", "s", "ws://localhost:8082/ws", "websocket url of the server (env: RPS_SERVER)")
	fs.DurationVar(&cfg.think, "think", time.Second, "longest random delay before choosing (env: RPS_THINK)")

	bindEnv(fs)

	return cmd
}

func normalize(fs *pflag.FlagSet) {
	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})
}

// bindEnv lets RPS_* environment variables fill any flag not given on the
// command line.
func bindEnv(fs *pflag.FlagSet) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})
}

func newLogger(level string) *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if lvl, err := logrus.ParseLevel(level); err == nil {
		logger.SetLevel(lvl)
	}
	return logger
}
