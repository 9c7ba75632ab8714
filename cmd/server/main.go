package main

import (
	"companion-hub/auth"
	"companion-hub/domain/event"
	"companion-hub/infrastructure/grpc/server"
	"companion-hub/infrastructure/ws"
	"companion-hub/internal"
	"companion-hub/repositories"
	"companion-hub/runtime"
	"companion-hub/runtime/workers"
	"companion-hub/sink"
	"companion-hub/storage"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/database"
	"github.com/mama165/sdk-go/logs"
)

// Exit codes to provide meaningful status to the operating system or service manager.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

const shutdownTimeout = 5 * time.Second

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Hub terminated with error: %v\n", err)
	}
	os.Exit(code)
}

// run wires every component and blocks until a signal or a server failure.
// Deferred cleanups run before the process exits.
func run() (int, error) {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	charReplacement, err := internal.CharacterRune(config.CharReplacement)
	if err != nil {
		return exitConfig, err
	}
	logger := logs.GetLoggerFromString(config.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Supervision & Orchestration
	telemetryChan := make(chan event.Event, config.BufferSize)
	sup := workers.NewSupervisor(logger, telemetryChan, config.RestartInterval)
	registry := runtime.NewRegistry()
	store := storage.NewHistoryStore()
	orchestrator := runtime.NewOrchestrator(logger, sup, registry, store, telemetryChan, runtime.Config{
		BufferSize:           config.BufferSize,
		SinkTimeout:          config.SinkTimeout,
		MetricInterval:       config.MetricInterval,
		LatencyThreshold:     config.LatencyThreshold,
		LowCapacityThreshold: config.LowCapacityThreshold,
		EnableModeration:     config.EnableModeration,
		CharReplacement:      charReplacement,
		SearchLimit:          config.SearchLimit,
	})

	// 3. Search index (Bluge), fed by the sequencer as messages are accepted
	index, err := repositories.NewInMemorySearchIndex(logger)
	if err != nil {
		return exitRuntime, fmt.Errorf("failed to open search index: %w", err)
	}
	defer func() {
		logger.Info("Closing Bluge...")
		_ = index.Close()
	}()
	orchestrator.WithIndex(index)

	// 4. Journal (BadgerDB), optional
	if config.JournalPath != "" {
		db, err := badger.Open(buildBadgerOpts(config, logger, ctx))
		if err != nil {
			return exitRuntime, fmt.Errorf("database opening failed: %w", err)
		}
		defer func() {
			logger.Info("Closing BadgerDB...")
			_ = db.Close()
		}()

		journal := repositories.NewJournalRepository(db, logger)
		messages, events, err := journal.Load()
		if err != nil {
			return exitRuntime, fmt.Errorf("journal replay failed: %w", err)
		}
		if err := orchestrator.Restore(messages, events); err != nil {
			return exitRuntime, err
		}
		orchestrator.Add(sink.NewJournalSink(journal, logger))

		if config.DebugPort > 0 {
			endpoint := "/inspect"
			logger.Info("Debug Badger inspector available",
				"url", fmt.Sprintf("http://localhost:%d%s", config.DebugPort, endpoint))
			database.StartDebugServer(db, config.DebugPort, endpoint, repositories.JournalMapper)
		}
	}

	// 5. Start the engine (sequencer, fanout, telemetry)
	if err := orchestrator.Start(ctx); err != nil {
		return exitRuntime, fmt.Errorf("orchestrator error: %w", err)
	}
	defer orchestrator.Stop()

	errChan := make(chan error, 2)

	// 6. WebSocket server
	wsServer := ws.NewServer(logger, auth.NewResolver(logger), orchestrator, orchestrator, ws.Config{
		ConnectionBufferSize: config.ConnectionBufferSize,
		WriteTimeout:         config.WriteTimeout,
		PongTimeout:          config.PongTimeout,
		AllowedOrigins:       config.Origins(),
	})
	httpServer := &http.Server{
		Addr:              config.Address(),
		Handler:           wsServer.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("Starting WebSocket server", "address", httpServer.Addr, "at", time.Now().UTC())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("http server error: %w", err)
		}
	}()

	// 7. gRPC health, optional
	var health *server.HealthServer
	if config.GrpcHealthPort > 0 {
		address := fmt.Sprintf("%s:%d", config.Host, config.GrpcHealthPort)
		listener, err := net.Listen("tcp", address)
		if err != nil {
			return exitRuntime, fmt.Errorf("failed to listen on %s: %w", address, err)
		}
		health = server.NewHealthServer(logger)
		go func() {
			if err := health.Serve(listener); err != nil {
				errChan <- err
			}
		}()
		health.MarkServing()
	}

	// 8. Wait for Stop or Error
	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case err := <-errChan:
		return exitRuntime, err
	}

	// 9. Graceful shutdown: health first so load balancers stop routing traffic
	logger.Info("Shutting down gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if health != nil {
		health.Shutdown(shutdownCtx)
	}
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP shutdown incomplete", "error", err)
	}
	logger.Info("Program stopped cleanly")
	return exitOK, nil
}

func buildBadgerOpts(config internal.Config, logger *slog.Logger, ctx context.Context) badger.Options {
	options := badger.DefaultOptions(config.JournalPath)

	if logger.Enabled(ctx, slog.LevelDebug) {
		options = options.WithLoggingLevel(badger.DEBUG).
			WithBypassLockGuard(true)
	} else {
		options = options.WithLoggingLevel(badger.WARNING)
	}

	return options
}
