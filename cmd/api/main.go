package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"recibo/internal/audit"
	"recibo/internal/config"
	"recibo/internal/database"
	"recibo/internal/handler"
	"recibo/internal/reconcile"
	"recibo/internal/repository"
	"recibo/internal/router"
	"recibo/internal/service"
	"recibo/internal/session"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize logger
	logger := config.NewLogger(cfg.Logger)
	logger.Info().Msg("starting recibo API server")

	// Create context for application lifecycle
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Audit persistence is optional: without a database URL audits are
	// simply not stored.
	var (
		auditRepo  repository.AuditRepository
		dispatcher *audit.Dispatcher
	)
	if cfg.Database.Enabled() {
		pool, err := database.NewPool(ctx, cfg.Database, logger)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		defer pool.Close()

		if err := database.Migrate(ctx, pool); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}

		auditRepo = repository.NewAuditRepository(pool, logger)
		dispatcher = audit.NewDispatcher(auditRepo, audit.Config{
			QueueSize:    cfg.Engine.AuditQueueSize,
			Workers:      cfg.Engine.AuditWorkers,
			WriteTimeout: cfg.Engine.AuditWriteTimeout,
		}, logger)
	} else {
		logger.Warn().Msg("DATABASE_URL not set, audit persistence disabled")
	}

	// Initialize vocabulary and oracles
	lexicon, err := buildLexicon(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize vocabulary: %w", err)
	}

	oracles, err := buildOracles(ctx, cfg, lexicon, logger)
	if err != nil {
		return err
	}

	engineCfg := reconcile.Config{
		Extractor:       oracles.extractor,
		Arbiter:         oracles.arbiter,
		MinReceiptChars: cfg.Engine.MinReceiptChars,
		PhaseTimeout:    cfg.Oracle.Timeout,
	}
	if dispatcher != nil {
		engineCfg.Sink = dispatcher
	}
	engine := reconcile.NewEngine(engineCfg, logger)

	// Initialize services
	identifyService := service.NewIdentifyService(oracles.identifier, cfg.Oracle.Timeout, logger)
	verifyService := service.NewVerifyService(engine, logger)
	sessionService := service.NewSessionService(session.NewManager(logger), identifyService, engine, cfg.Oracle.Timeout, logger)
	auditService := service.NewAuditService(auditRepo, logger)

	// Initialize router
	mux := router.New(router.Handlers{
		Identify: handler.NewIdentifyHandler(identifyService, logger),
		Verify:   handler.NewVerifyHandler(verifyService, logger),
		Session:  handler.NewSessionHandler(sessionService, logger),
		Audit:    handler.NewAuditHandler(auditService, logger),
		Health:   handler.NewHealthHandler(cfg.Oracle.Live(), auditService.Enabled()),
	}, router.Options{
		StaticDir:    cfg.Server.StaticDir,
		MaxBodyBytes: cfg.Server.MaxBodyBytes,
	}, logger)

	// Create HTTP server. Oracle round-trips bound the write timeout.
	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 2*cfg.Oracle.Timeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Channel to listen for errors from the server
	serverErrors := make(chan error, 1)

	// Start HTTP server in a goroutine
	go func() {
		logger.Info().
			Str("address", cfg.Server.Address()).
			Str("static_dir", cfg.Server.StaticDir).
			Msg("HTTP server started")
		serverErrors <- server.ListenAndServe()
	}()

	// Channel to listen for interrupt signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a signal or an error
	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-shutdown:
		logger.Info().
			Str("signal", sig.String()).
			Msg("shutdown signal received, starting graceful shutdown")

		// Create a context with timeout for shutdown
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer shutdownCancel()

		// Attempt graceful shutdown
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown server gracefully")
			// Force close
			if closeErr := server.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close server")
			}
			return fmt.Errorf("server shutdown failed: %w", err)
		}

		// Let background scans finish before draining the audits they may produce
		if err := sessionService.Close(shutdownCtx); err != nil {
			logger.Warn().Err(err).Msg("background identifications interrupted")
		}
		if dispatcher != nil {
			if err := dispatcher.Close(shutdownCtx); err != nil {
				logger.Warn().Err(err).Msg("audit queue not fully drained")
			}
		}

		logger.Info().Msg("server shutdown completed")
	}

	return nil
}
