package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spec-kit/edushare/internal/client"
	"github.com/spec-kit/edushare/internal/config"
	"github.com/spec-kit/edushare/internal/observability"
	"github.com/spec-kit/edushare/internal/persistence"
	"github.com/spec-kit/edushare/internal/session"
)

var (
	serverURL string
	sessionID string
)

var rootCmd = &cobra.Command{
	Use:   "accessctl",
	Short: "edushare access client",
	Long: `accessctl is a command-line client for the edushare access service. It keeps
a login session in Redis and runs the client route guard against it.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "access service URL (default CLIENT_API_URL)")
	rootCmd.PersistentFlags().StringVar(&sessionID, "session", "", "session id (default CLIENT_SESSION_ID)")
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(visitCmd)
	rootCmd.AddCommand(routesCmd)
}

// env is what a command needs to act on the stored session.
type env struct {
	cfg     *config.Config
	logger  *zap.Logger
	redis   *persistence.Redis
	session *session.Session
	client  *client.Client
}

func openEnv(ctx context.Context) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	cfg.Logger.Output = "stderr"
	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	url := serverURL
	if url == "" {
		url = cfg.Client.APIURL
	}
	id := sessionID
	if id == "" {
		id = cfg.Client.SessionID
	}

	rdb := persistence.NewRedis(cfg.Redis, logger)
	if !rdb.Available() {
		rdb.Close()
		return nil, fmt.Errorf("session store unavailable at %s", cfg.Redis.Addr)
	}

	sess, err := session.Open(ctx, id, session.NewRedisStore(rdb.Client), logger)
	if err != nil {
		rdb.Close()
		return nil, fmt.Errorf("open session: %w", err)
	}

	return &env{
		cfg:     cfg,
		logger:  logger,
		redis:   rdb,
		session: sess,
		client:  client.New(url, cfg.Access.ReverifyTimeout()),
	}, nil
}

func (e *env) Close() {
	e.redis.Close()
	_ = e.logger.Sync()
}
