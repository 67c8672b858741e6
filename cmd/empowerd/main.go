// Package main is the entry point for empowerd, the empowerment
// orchestration daemon. It wires storage, the rule engine, and the metrics
// endpoint, then runs until signalled.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/empowerher/empowerhub/config"
	"github.com/empowerher/empowerhub/internal/application/command"
	"github.com/empowerher/empowerhub/internal/application/query"
	"github.com/empowerher/empowerhub/internal/domain/opportunity"
	"github.com/empowerher/empowerhub/internal/domain/rules"
	"github.com/empowerher/empowerhub/internal/domain/shared"
	"github.com/empowerher/empowerhub/internal/domain/user"
	"github.com/empowerher/empowerhub/internal/infrastructure/notify"
	"github.com/empowerher/empowerhub/internal/infrastructure/persistence/memory"
	"github.com/empowerher/empowerhub/internal/infrastructure/persistence/postgres"
	redisstore "github.com/empowerher/empowerhub/internal/infrastructure/persistence/redis"
	"github.com/empowerher/empowerhub/internal/interface/api"
	"github.com/empowerher/empowerhub/internal/orchestration"
	"github.com/empowerher/empowerhub/pkg/logger"
	"github.com/empowerher/empowerhub/pkg/metrics"
	"github.com/empowerher/empowerhub/pkg/retry"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "empowerd",
		Short:         "Empowerment orchestration daemon",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to YAML config file")

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the orchestrator and metrics endpoint",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), configPath)
		},
	}
	root.AddCommand(serve)

	return root
}

func run(ctx context.Context, configPath string) error {
	// Local development convenience; a missing .env file is not an error.
	_ = godotenv.Load()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.New(logger.Options{
		Level:  cfg.App.LogLevel,
		Format: logger.Format(cfg.App.LogFormat),
	})
	slog.SetDefault(log)
	log.Info("starting empowerd", "env", cfg.App.Env)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	deps, cleanup, err := buildStorage(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer cleanup()

	notifier := notify.NewLogNotifier(log)

	registry, err := orchestration.DefaultRegistry(deps.users, deps.catalog, notifier, log, m)
	if err != nil {
		return fmt.Errorf("build action registry: %w", err)
	}

	engine := orchestration.NewEngine(rules.Default(), registry, log, m)

	orch := orchestration.New(orchestration.Config{
		EventLog: deps.events,
		Users:    deps.users,
		Engine:   engine,
		Logger:   log,
		Metrics:  m,
		Workers:  cfg.Orchestrator.Workers,
		AppendRetry: retry.Config{
			MaxAttempts:  cfg.Orchestrator.AppendRetries,
			InitialDelay: cfg.Orchestrator.AppendRetryDelay,
		},
	})

	apiServer := api.NewServer(api.Services{
		CompleteSkill:        command.NewCompleteSkill(deps.users, orch, log),
		SaveOpportunity:      command.NewSaveOpportunity(deps.users, deps.catalog, orch, log),
		CompleteSafetyModule: command.NewCompleteSafetyModule(deps.users, orch, log),
		MatchOpportunities:   query.NewMatchOpportunities(deps.users, deps.catalog, opportunity.NewMatcher(), log, m, cfg.Matching.ResultLimit),
		ListUserEvents:       query.NewListUserEvents(deps.history, log),
	}, log)

	mux := http.NewServeMux()
	apiServer.Register(mux)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if cfg.Metrics.Enabled {
		mux.Handle("/metrics", m.Handler())
	}

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("http server listening", "addr", cfg.Server.Addr, "metrics", cfg.Metrics.Enabled)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		<-ctx.Done()
		log.Info("shutdown signal received, draining emissions")
		orch.Wait()
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("shutdown completed")
	return nil
}

// storageDeps groups the persistence interfaces the rest of the wiring needs.
type storageDeps struct {
	users   user.Store
	events  shared.EventLog
	history query.EventHistory
	catalog opportunity.Catalog
}

// buildStorage connects PostgreSQL when a database URL is configured and
// falls back to in-memory stores otherwise. The optional Redis cache wraps
// the user store read path.
func buildStorage(ctx context.Context, cfg *config.Config, log *slog.Logger) (*storageDeps, func(), error) {
	if cfg.Database.URL == "" {
		log.Warn("no database URL configured, using in-memory storage")
		events := memory.NewEventLog()
		return &storageDeps{
			users:   memory.NewUserStore(),
			events:  events,
			history: events,
			catalog: memory.NewCatalog(),
		}, func() {}, nil
	}

	pgCfg := postgres.DefaultConfig()
	pgCfg.URL = cfg.Database.URL
	if cfg.Database.MaxConns > 0 {
		pgCfg.MaxConns = cfg.Database.MaxConns
	}
	if cfg.Database.MinConns > 0 {
		pgCfg.MinConns = cfg.Database.MinConns
	}
	if cfg.Database.MaxConnLifetime > 0 {
		pgCfg.MaxConnLifetime = cfg.Database.MaxConnLifetime
	}

	conn, err := postgres.Connect(ctx, pgCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}
	log.Info("database connection established")

	if err := postgres.NewMigrator(conn).Migrate(ctx); err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("run migrations: %w", err)
	}
	log.Info("database schema is up to date")

	cleanup := func() { conn.Close() }

	var users user.Store = postgres.NewUserRepository(conn)

	if cfg.Redis.Enabled {
		redisCfg := redisstore.DefaultConfig()
		redisCfg.Addr = cfg.Redis.Addr
		redisCfg.Password = cfg.Redis.Password
		redisCfg.DB = cfg.Redis.DB

		client, err := redisstore.NewClient(ctx, redisCfg)
		if err != nil {
			log.Warn("redis unavailable, user cache disabled", "error", err)
		} else {
			users = redisstore.NewCachedUserStore(users, redisstore.NewUserCache(client), cfg.Redis.UserTTL)
			prev := cleanup
			cleanup = func() {
				_ = client.Close()
				prev()
			}
			log.Info("redis user cache enabled", "addr", cfg.Redis.Addr)
		}
	}

	events := postgres.NewEventLog(conn)
	return &storageDeps{
		users:   users,
		events:  events,
		history: events,
		catalog: postgres.NewOpportunityRepository(conn),
	}, cleanup, nil
}
