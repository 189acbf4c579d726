// Package main is the entry point for the AI Kids Hub server.
//
// The hub is a family-device education service: a deterministic catalog of
// twenty seasons of AI learning content, a progress tracker with achievements,
// a Gemini-backed tutor, Veo trailer generation, and a parent dashboard
// behind a PIN gate.
//
// The architecture follows Clean Architecture and DDD:
// - Domain: pure business logic without external dependencies
// - Application: use case orchestration (Commands/Queries/Sagas)
// - Infrastructure: repositories, caches, external APIs, scheduled jobs
// - Interface: HTTP REST API
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

	"github.com/google/uuid"

	"github.com/aikidslabs/ai-kids-hub/config"

	// Application layer
	"github.com/aikidslabs/ai-kids-hub/internal/application/command"
	"github.com/aikidslabs/ai-kids-hub/internal/application/eventhandler"
	"github.com/aikidslabs/ai-kids-hub/internal/application/query"
	"github.com/aikidslabs/ai-kids-hub/internal/application/saga"
	"github.com/aikidslabs/ai-kids-hub/internal/application/task"

	// Domain layer
	"github.com/aikidslabs/ai-kids-hub/internal/domain/catalog"
	"github.com/aikidslabs/ai-kids-hub/internal/domain/learner"
	"github.com/aikidslabs/ai-kids-hub/internal/domain/notification"
	"github.com/aikidslabs/ai-kids-hub/internal/domain/progress"
	"github.com/aikidslabs/ai-kids-hub/internal/domain/shared"

	// Infrastructure layer
	"github.com/aikidslabs/ai-kids-hub/internal/infrastructure/external/gemini"
	"github.com/aikidslabs/ai-kids-hub/internal/infrastructure/messaging"
	"github.com/aikidslabs/ai-kids-hub/internal/infrastructure/persistence/memory"
	"github.com/aikidslabs/ai-kids-hub/internal/infrastructure/persistence/postgres"
	"github.com/aikidslabs/ai-kids-hub/internal/infrastructure/persistence/projections"
	"github.com/aikidslabs/ai-kids-hub/internal/infrastructure/persistence/redis"
	"github.com/aikidslabs/ai-kids-hub/internal/infrastructure/scheduler"
	"github.com/aikidslabs/ai-kids-hub/internal/infrastructure/scheduler/jobs"
	"github.com/aikidslabs/ai-kids-hub/internal/infrastructure/service"

	// Interface layer
	httpserver "github.com/aikidslabs/ai-kids-hub/internal/interface/http"
	"github.com/aikidslabs/ai-kids-hub/internal/interface/http/handlers"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. CONFIGURATION
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. LOGGING
	// ─────────────────────────────────────────────────────────────────────────
	log := setupLogger(cfg)
	log.Info("starting AI Kids Hub",
		"env", cfg.App.Environment,
		"version", cfg.App.Version,
		"timezone", cfg.App.Timezone,
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. CATALOG
	// The catalog is generated, not stored: the same 400 items come out of
	// the generator on every boot, so there is nothing to migrate or seed.
	// ─────────────────────────────────────────────────────────────────────────
	cat := catalog.Generate()
	log.Info("catalog generated", "seasons", catalog.SeasonCount, "items", cat.Len())

	// ─────────────────────────────────────────────────────────────────────────
	// 4. PERSISTENCE (PostgreSQL or in-memory)
	// ─────────────────────────────────────────────────────────────────────────
	var (
		learnerRepo     learner.Repository
		progressRepo    progress.Repository
		interactionRepo *postgres.InteractionRepository
		dbConn          *postgres.Connection
	)

	if cfg.Database.Disabled || cfg.Database.URL == "" {
		log.Info("database disabled, using in-memory stores")
		learnerRepo = memory.NewLearnerStore()
		progressRepo = memory.NewProgressStore()
	} else {
		log.Info("connecting to database...")
		dbConn, err = postgres.NewConnectionFromURL(ctx, cfg.Database.URL)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer func() {
			log.Info("closing database connection...")
			dbConn.Close()
		}()

		if err := dbConn.Ping(ctx); err != nil {
			return fmt.Errorf("database ping failed: %w", err)
		}

		log.Info("running database migrations...")
		migrator := postgres.NewMigrator(dbConn)
		if err := migrator.Migrate(ctx); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		if status, err := migrator.Status(ctx); err != nil {
			log.Warn("failed to get migration status", "error", err)
		} else {
			applied := 0
			for _, m := range status {
				if m.IsApplied {
					applied++
				}
			}
			log.Info("migrations completed", "applied", applied, "total", len(status))
		}

		learnerRepo = postgres.NewLearnerRepository(dbConn)
		progressRepo = postgres.NewProgressRepository(dbConn)
		interactionRepo = postgres.NewInteractionRepository(dbConn)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 5. REDIS (optional read caches)
	// ─────────────────────────────────────────────────────────────────────────
	var (
		redisCache    *redis.Cache
		learnerCache  learner.Cache
		progressCache progress.Cache
	)

	if !cfg.Redis.Disabled {
		log.Info("connecting to Redis...")
		rc, err := redis.NewCache(redis.Config{
			Host:         cfg.Redis.Host,
			Port:         cfg.Redis.Port,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		})
		if err != nil {
			log.Warn("failed to connect to Redis, caching disabled", "error", err)
		} else if err := rc.Ping(ctx); err != nil {
			log.Warn("Redis ping failed, caching disabled", "error", err)
			_ = rc.Close()
		} else {
			redisCache = rc
			defer func() {
				log.Info("closing Redis connection...")
				_ = redisCache.Close()
			}()
			learnerCache = redis.NewLearnerCache(redisCache)
			progressCache = redis.NewProgressCache(redisCache)
			log.Info("Redis connection established")
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 6. EVENT BUS + DISPATCHER
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing event bus...")
	eventBus := messaging.NewInMemoryEventBus(messaging.InMemoryEventBusConfig{
		AsyncMode:      true,
		WorkerPoolSize: 4,
		Logger:         log,
		EnableMetrics:  true,
	})
	defer func() {
		log.Info("closing event bus...")
		_ = eventBus.Close()
	}()

	dispatcherCfg := messaging.DefaultDispatcherConfig(eventBus)
	dispatcherCfg.Logger = log
	dispatcher := messaging.NewDispatcher(dispatcherCfg)
	dispatcher.Use(messaging.RecoveryMiddleware(log))
	dispatcher.Use(messaging.LoggingMiddleware(log))
	dispatcher.Use(messaging.MetricsMiddleware(dispatcher.Metrics()))
	dispatcher.Use(messaging.TimeoutMiddleware(10 * time.Second))

	// ─────────────────────────────────────────────────────────────────────────
	// 7. GEMINI CLIENT (tutor chat + Veo video synthesis)
	// ─────────────────────────────────────────────────────────────────────────
	geminiCfg := gemini.DefaultClientConfig(cfg.Gemini.APIKey)
	if cfg.Gemini.BaseURL != "" {
		geminiCfg.BaseURL = cfg.Gemini.BaseURL
	}
	geminiCfg.Timeout = cfg.Gemini.RequestTimeout
	geminiCfg.PollInterval = cfg.Gemini.PollInterval
	geminiCfg.Logger = log
	geminiCfg.Debug = cfg.App.Debug
	if cfg.Gemini.PaidTier {
		geminiCfg.RateLimiterConfig = gemini.PaidTierRateLimiterConfig()
	} else {
		rl := gemini.DefaultRateLimiterConfig()
		if cfg.Gemini.RequestsPerSecond > 0 {
			rl.RequestsPerSecond = cfg.Gemini.RequestsPerSecond
		}
		if cfg.Gemini.Burst > 0 {
			rl.BurstSize = cfg.Gemini.Burst
		}
		geminiCfg.RateLimiterConfig = rl
	}
	geminiClient := gemini.NewClient(geminiCfg)
	if cfg.Gemini.APIKey == "" {
		log.Warn("GEMINI_API_KEY not set, tutor and trailers degrade to fallbacks")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 8. SERVICE ADAPTERS
	// The transcript, archive, and XP history sinks need Postgres. Without it
	// they stay nil and the handlers skip those writes.
	// ─────────────────────────────────────────────────────────────────────────
	tutorService := service.NewTutorAdapter(geminiClient, log)
	trailerAdapter := service.NewTrailerAdapter(geminiClient)

	var (
		transcript  command.TutorTranscript
		transcripts query.TranscriptSource
		archive     task.Archiver
		xpHistory   eventhandler.XPHistorySink
	)
	if interactionRepo != nil {
		transcriptAdapter := service.NewTranscriptAdapter(interactionRepo)
		transcript = transcriptAdapter
		transcripts = transcriptAdapter
		archive = service.NewTrailerArchive(interactionRepo)
	}
	if pgLearners, ok := learnerRepo.(*postgres.LearnerRepository); ok {
		xpHistory = service.NewXPHistoryAdapter(pgLearners)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 9. TOAST QUEUE
	// Expiry is an event too: the bridge turns silent TTL expirations into
	// notification.expired events for the projections.
	// ─────────────────────────────────────────────────────────────────────────
	bridge := service.NewNotificationBridge(eventBus, log)
	toasts := notification.NewQueue(
		notification.WithTTL(cfg.Notification.TTL),
		notification.WithOnExpire(bridge.OnExpire),
	)
	defer toasts.Close()

	// ─────────────────────────────────────────────────────────────────────────
	// 10. SAGAS + ONBOARDING
	// ─────────────────────────────────────────────────────────────────────────
	achievements := saga.NewAchievementFlow(learnerRepo, toasts, eventBus)

	onboarding := saga.NewOnboardingSaga(learnerRepo, progressRepo, toasts, eventBus)
	for _, id := range cfg.App.LearnerProfiles {
		if _, err := onboarding.Execute(ctx, saga.OnboardingInput{
			LearnerID:     id,
			ParentPIN:     cfg.App.ParentPIN,
			CorrelationID: uuid.NewString(),
		}); err != nil {
			return fmt.Errorf("failed to onboard learner %q: %w", id, err)
		}
	}
	log.Info("learner profiles ready", "profiles", cfg.App.LearnerProfiles)

	// ─────────────────────────────────────────────────────────────────────────
	// 11. TRAILER TASK MANAGER
	// ─────────────────────────────────────────────────────────────────────────
	tasks := task.NewManager(trailerAdapter, archive, eventBus, log, task.Config{
		MaxConcurrent:  cfg.Task.MaxConcurrent,
		TaskTimeout:    cfg.Task.TaskTimeout,
		ArchiveTimeout: cfg.Task.ArchiveTimeout,
	})
	defer func() {
		log.Info("closing trailer task manager...")
		tasks.Close()
	}()

	// ─────────────────────────────────────────────────────────────────────────
	// 12. APPLICATION LAYER (Commands, Queries)
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing application layer...")

	browseCatalog := query.NewBrowseCatalogHandler(cat, progressRepo, progressCache)
	getItem := query.NewGetItemHandler(cat, progressRepo)
	getProfile := query.NewGetProfileHandler(learnerRepo, learnerCache, progressRepo)
	getNotifications := query.NewGetNotificationsHandler(toasts)
	parentOverview := query.NewParentOverviewHandler(learnerRepo, progressRepo, transcripts)

	updateProgress := command.NewUpdateProgressHandler(
		learnerRepo, progressRepo, progressCache, cat, achievements, eventBus,
	)
	dismissNotification := command.NewDismissNotificationHandler(toasts, eventBus)
	setParentPIN := command.NewSetParentPINHandler(learnerRepo)
	verifyParent := command.NewVerifyParentHandler(learnerRepo, eventBus)

	// The quota-burning surfaces stay unwired when their flags are off;
	// the HTTP layer answers 501 for an unwired handler.
	flags := cfg.Features
	var askTutor *command.AskTutorHandler
	if flags.IsEnabled(config.FeatureTutorChat, nil) {
		askTutor = command.NewAskTutorHandler(
			learnerRepo, tutorService, transcript, achievements, eventBus,
		)
	}
	var startTrailer *command.StartTrailerHandler
	if flags.IsEnabled(config.FeatureTrailerSeason, nil) || flags.IsEnabled(config.FeatureTrailerModule, nil) {
		startTrailer = command.NewStartTrailerHandler(cat, tasks, trailerAdapter)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 13. EVENT HANDLERS + PROJECTIONS
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("registering event handlers...")

	moduleCompleted := eventhandler.NewOnModuleCompletedHandler(progressRepo, progressCache, log)
	xpGained := eventhandler.NewOnXPGainedHandler(xpHistory, learnerCache, log)
	trailerFinished := eventhandler.NewOnTrailerFinishedHandler(toasts, func(taskID string) string {
		t, err := tasks.Get(taskID)
		if err != nil {
			return ""
		}
		return t.LearnerID
	}, log)

	profileCards := projections.NewProfileCardView()
	projector := projections.NewProfileCardProjector(profileCards, learnerRepo, progressRepo, log)

	if err := errors.Join(
		dispatcher.Register(moduleCompleted.EventType(), "on_module_completed", moduleCompleted.Handle),
		dispatcher.Register(xpGained.EventType(), "on_xp_gained", xpGained.Handle),
		dispatcher.Register(trailerFinished.EventType(), "on_trailer_succeeded", trailerFinished.Handle),
		dispatcher.Register(shared.EventTrailerFailed, "on_trailer_failed", trailerFinished.Handle),
		dispatcher.Register(shared.EventXPGained, "project_profile_card_xp", projector.Handle),
		dispatcher.Register(shared.EventBadgeUnlocked, "project_profile_card_badge", projector.Handle),
		dispatcher.Register(shared.EventModuleCompleted, "project_profile_card_module", projector.Handle),
		dispatcher.Register(shared.EventTutorInteracted, "project_profile_card_tutor", projector.Handle),
	); err != nil {
		return fmt.Errorf("failed to register event handlers: %w", err)
	}

	if err := dispatcher.Start(); err != nil {
		return fmt.Errorf("failed to start dispatcher: %w", err)
	}
	defer func() {
		log.Info("stopping dispatcher...")
		_ = dispatcher.Stop()
	}()

	// ─────────────────────────────────────────────────────────────────────────
	// 14. SCHEDULER (background jobs)
	// ─────────────────────────────────────────────────────────────────────────
	var sched *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		log.Info("initializing scheduler...")
		schedCfg := scheduler.DefaultSchedulerConfig()
		schedCfg.Logger = log
		schedCfg.Timezone = cfg.App.Location
		sched = scheduler.NewScheduler(schedCfg)

		pruneCfg := jobs.DefaultPruneTrailerTasksConfig()
		pruneCfg.Retention = cfg.Task.Retention
		if err := sched.Register(
			jobs.NewPruneTrailerTasksJob(tasks, log, pruneCfg),
			scheduler.NewIntervalSchedule(cfg.Scheduler.PruneTasksInterval),
		); err != nil {
			return fmt.Errorf("failed to register prune job: %w", err)
		}

		if redisCache != nil {
			warmCfg := jobs.DefaultWarmCatalogCacheConfig()
			if err := sched.Register(
				jobs.NewWarmCatalogCacheJob(cat, redisCache, log, warmCfg),
				scheduler.NewIntervalSchedule(cfg.Scheduler.WarmCatalogInterval),
			); err != nil {
				return fmt.Errorf("failed to register warm catalog job: %w", err)
			}

			if flags.IsEnabled(config.FeatureParentDigest, nil) {
				digestLearners := cfg.Scheduler.DigestLearnerIDs
				if len(digestLearners) == 0 {
					digestLearners = cfg.App.LearnerProfiles
				}
				digestCfg := jobs.DefaultParentDigestConfig()
				digestCfg.LearnerIDs = digestLearners
				digestSchedule := scheduler.MustParseCronExpression(
					fmt.Sprintf("%d %d * * *", cfg.Scheduler.DigestMinute, cfg.Scheduler.DigestHour),
				)
				if err := sched.Register(
					jobs.NewParentDigestJob(parentOverview, redisCache, log, digestCfg),
					digestSchedule,
				); err != nil {
					return fmt.Errorf("failed to register parent digest job: %w", err)
				}
			}
		}

		if err := sched.Start(ctx); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
		defer func() {
			log.Info("stopping scheduler...")
			_ = sched.Stop()
		}()
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 15. HEALTH CHECKS
	// ─────────────────────────────────────────────────────────────────────────
	health := handlers.NewCompositeHealthChecker(cfg.App.Version)
	if dbConn != nil {
		health.AddCheck("database", handlers.NewDatabaseCheck(dbConn))
	}
	if redisCache != nil {
		health.AddCheck("cache", handlers.NewCacheCheck(redisCache))
	}
	health.AddCheck("gemini", func(ctx context.Context) error {
		st := geminiClient.Status()
		if !st.ConfiguredKey {
			return errors.New("api key not configured")
		}
		if st.BreakerState == "open" {
			return errors.New("circuit breaker open")
		}
		return nil
	})

	// ─────────────────────────────────────────────────────────────────────────
	// 16. HTTP SERVER
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing HTTP server...")

	httpCfg := httpserver.DefaultConfig()
	httpCfg.Host = cfg.HTTP.Host
	httpCfg.Port = cfg.HTTP.Port
	httpCfg.ReadTimeout = cfg.HTTP.ReadTimeout
	httpCfg.WriteTimeout = cfg.HTTP.WriteTimeout
	httpCfg.IdleTimeout = cfg.HTTP.IdleTimeout
	httpCfg.EnableCORS = cfg.HTTP.EnableCORS
	httpCfg.AllowedOrigins = cfg.HTTP.AllowedOrigins
	httpCfg.EnableMetrics = cfg.HTTP.EnableMetrics
	httpCfg.RateLimitPerMinute = cfg.HTTP.RateLimitPerMinute
	httpCfg.APIKeyHeader = cfg.HTTP.APIKeyHeader
	httpCfg.APIKeys = cfg.HTTP.APIKeys
	httpCfg.ParentSessionTTL = cfg.HTTP.ParentSessionTTL

	server := httpserver.NewServer(httpCfg, httpserver.Dependencies{
		BrowseCatalogHandler:       browseCatalog,
		GetItemHandler:             getItem,
		GetProfileHandler:          getProfile,
		GetNotificationsHandler:    getNotifications,
		ParentOverviewHandler:      parentOverview,
		UpdateProgressHandler:      updateProgress,
		AskTutorHandler:            askTutor,
		StartTrailerHandler:        startTrailer,
		DismissNotificationHandler: dismissNotification,
		SetParentPINHandler:        setParentPIN,
		VerifyParentHandler:        verifyParent,
		Tasks:                      tasks,
		Scheduler:                  sched,
		Dispatcher:                 dispatcher,
		ProfileCards:               profileCards,
		Logger:                     log,
		HealthChecker:              health,
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting HTTP server", "address", server.Address())
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	// ─────────────────────────────────────────────────────────────────────────
	// 17. GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("AI Kids Hub is running", "http_address", server.Address())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("received shutdown signal", "signal", sig.String())
	case err := <-errCh:
		log.Error("service error", "error", err)
		return err
	}

	log.Info("starting graceful shutdown...", "timeout", cfg.App.ShutdownTimeout.String())
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer shutdownCancel()

	// Stop accepting requests first; the deferred closers then drain the
	// scheduler, dispatcher, task manager, queue, bus, and connections in
	// reverse construction order.
	log.Info("stopping HTTP server...")
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to stop HTTP server gracefully", "error", err)
		return err
	}

	log.Info("shutdown completed successfully")
	return nil
}

// setupLogger builds the process logger from the observability settings.
func setupLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Observability.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if cfg.App.Debug {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Observability.LogFormat == "json" || cfg.IsProduction() {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	log := slog.New(handler)
	slog.SetDefault(log)

	return log
}
