package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/simaogato/rebalance-backend/internal/adapter/httpapi"
	"github.com/simaogato/rebalance-backend/internal/adapter/portfolio"
	"github.com/simaogato/rebalance-backend/internal/adapter/repository/memory"
	"github.com/simaogato/rebalance-backend/internal/adapter/repository/postgres"
	"github.com/simaogato/rebalance-backend/internal/config"
	"github.com/simaogato/rebalance-backend/internal/domain"
	"github.com/simaogato/rebalance-backend/internal/scheduler"
	"github.com/simaogato/rebalance-backend/internal/usecase/health"
	"github.com/simaogato/rebalance-backend/internal/usecase/overlay"
	"github.com/simaogato/rebalance-backend/internal/usecase/seeder"
	"github.com/simaogato/rebalance-backend/internal/usecase/trigger"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	flag.Parse()

	// 1. Configuration and logging
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("validate config")
	}

	level, err := zerolog.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.TimeFieldFormat = time.RFC3339
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		Level(level).With().Timestamp().Logger()

	// 2. Repositories: Postgres when configured, in-memory otherwise
	var overlayRepo domain.OverlayRepository
	var historyRepo domain.HistoryRepository
	if cfg.Database.ConnStr != "" {
		db, err := postgres.NewDB(cfg.Database.ConnStr)
		if err != nil {
			logger.Fatal().Err(err).Msg("connect to database")
		}
		defer db.Close()
		overlayRepo = postgres.NewOverlayRepository(db)
		historyRepo = postgres.NewHistoryRepository(db)
		logger.Info().Msg("using postgres repositories")
	} else {
		overlayRepo = memory.NewOverlayRepository()
		historyRepo = memory.NewHistoryRepository()
		logger.Info().Msg("no database configured, using in-memory repositories")
	}

	// 3. Usecase services
	engine := overlay.NewEngine(overlayRepo, overlay.NewSyntheticBacktester(cfg.Backtest.Seed))
	seeder.NewTemplateSeeder(engine).Seed()
	logger.Info().Int("templates", len(engine.Templates())).Msg("overlay templates seeded")

	scorer := health.NewScorer()
	evaluator := trigger.NewEvaluator(nil) // identity weight policy
	triggerSvc := trigger.NewService(evaluator, historyRepo, domain.RebalanceSchedule{
		Enabled:  true,
		Interval: domain.IntervalWeekly,
		Triggers: []domain.TriggerKind{domain.TriggerInterval, domain.TriggerMacro, domain.TriggerSignal},
	})

	provider := portfolio.NewStaticProvider()

	// 4. Scheduler: one cycle immediately, then on the configured cadence
	sched := scheduler.New(engine, triggerSvc, scorer, provider,
		logger.With().Str("component", "scheduler").Logger())
	if err := sched.Register(cfg.Scheduler.EvaluateCron); err != nil {
		logger.Fatal().Err(err).Msg("register evaluation cycle")
	}
	sched.Start()

	// 5. HTTP server
	handlers := httpapi.NewHandlers(engine, triggerSvc, sched)
	server := httpapi.NewServer(httpapi.ServerConfig{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		APIToken:     cfg.Server.APIToken,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}, handlers, logger.With().Str("component", "http").Logger())

	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	waitForShutdown(server, sched, logger)
}

// waitForShutdown waits for SIGTERM or SIGINT and shuts everything down gracefully
func waitForShutdown(server *httpapi.Server, sched *scheduler.Scheduler, logger zerolog.Logger) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	sig := <-sigChan
	logger.Info().Str("signal", sig.String()).Msg("shutting down gracefully")

	sched.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}
}
