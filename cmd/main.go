package main

import (
	"batepapo/httpapi"
	"batepapo/observability"
	"batepapo/repositories"
	"batepapo/runtime/workers"
	"batepapo/services"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes all components, manages the server lifecycle and
// centralizes error reporting, so every defer (database cleanup
// included) executes before the process exits.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := newLogger(config.LogLevel)

	// 2. Database (BadgerDB)
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.WARNING))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	// 3. Repositories, metrics and service
	registry := prometheus.NewRegistry()
	metrics := observability.NewMetrics(registry)
	participantRepository := repositories.NewParticipantRepository(db)
	messageRepository, err := repositories.NewMessageRepository(db)
	if err != nil {
		return fmt.Errorf("message repository failed to start: %w", err)
	}
	defer func() { _ = messageRepository.Close() }()

	chat := services.NewChatService(log, participantRepository, messageRepository, metrics)

	// 4. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 5. Presence reaper under supervision
	reaper := workers.NewPresenceReaper(
		log, participantRepository, messageRepository, metrics,
		config.ReapInterval, config.LivenessTimeout,
	)
	sup := workers.NewSupervisor(log, config.RestartInterval)
	supDone := make(chan struct{})
	go func() {
		sup.Add(reaper).Run(ctx)
		close(supDone)
	}()

	// 6. HTTP server
	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	api := httpapi.NewServer(log, chat, promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	server := &http.Server{Addr: address, Handler: api.Handler()}

	errChan := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "address", address, "at", time.Now().UTC())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("http server error: %w", err)
		}
	}()

	// 7. Wait for stop or error
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errChan:
		return err
	}

	// 8. Final cleanup
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = server.Shutdown(shutdownCtx)
	sup.Stop()
	<-supDone
	log.Info("Program stopped cleanly")

	return nil
}

func newLogger(level string) *slog.Logger {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		l = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: l}))
}
