package cli

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"times-table-circuit/internal/app"
	"times-table-circuit/internal/config"
	"times-table-circuit/internal/game"
	"times-table-circuit/internal/infra/memory"
	pgstore "times-table-circuit/internal/infra/postgres"
	redisstore "times-table-circuit/internal/infra/redis"
	transport "times-table-circuit/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the game server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			return err
		}
	}

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		if err := runMigrations(ctx, cfg.Postgres.URL); err != nil {
			return err
		}
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	var accounts app.AccountStore = memory.NewAccountStore()
	switch {
	case pool != nil:
		accounts = pgstore.NewAccountStore(pool)
	case redisClient != nil:
		accounts = redisstore.NewAccountStore(redisClient)
	}

	var sessions app.SessionStore = memory.NewSessionStore()
	if redisClient != nil {
		sessions = redisstore.NewSessionStore(redisClient, config.DurationOr(cfg.Redis.SessionTTL, 24*time.Hour))
	}

	service := app.NewGameService(
		accounts,
		sessions,
		memory.NewRoundStore(),
		game.NewGenerator(nil),
		app.WithAutoAdvanceDelay(config.DurationOr(cfg.Game.AutoAdvanceDelay, game.DefaultAutoAdvanceDelay)),
		app.WithPasswordCost(cfg.Game.PasswordCost),
	)

	server := &http.Server{
		Addr:        ":" + finalPort,
		Handler:     transport.NewRouter(service, cfg.Server.AllowedOrigins),
		ReadTimeout: 15 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().
			Str("port", finalPort).
			Bool("redis", redisClient != nil).
			Bool("postgres", pool != nil).
			Msg("starting times table circuit")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
