package main

import (
	"bate-papo/api"
	"bate-papo/errors"
	"bate-papo/moderation"
	"bate-papo/repositories"
	"bate-papo/runtime/workers"
	"bate-papo/services"
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
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run wires every component and owns their lifecycle, so deferred cleanup
// (closing the store) always happens before the process exits.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if err := config.Validate(); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

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

	participantRepository := repositories.NewParticipantRepository(db, log)
	messageRepository := repositories.NewMessageRepository(db, log)

	moderator, err := buildModerator(config, log)
	if err != nil {
		return err
	}

	participantService := services.NewParticipantService(log, participantRepository, messageRepository, time.Now)
	messageService := services.NewMessageService(log, participantRepository, messageRepository, moderator, time.Now)

	// 3. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 4. Presence sweeper under supervision
	sup := workers.NewSupervisor(log, config.RestartInterval)
	sup.Add(workers.NewPresenceSweeperWorker(
		log, participantRepository, messageRepository,
		config.SweepInterval, config.InactivityThreshold, time.Now,
	))
	supervisorDone := make(chan struct{})
	go func() {
		sup.Run(ctx)
		close(supervisorDone)
	}()

	// 5. HTTP server
	gin.SetMode(gin.ReleaseMode)
	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	httpServer := &http.Server{
		Addr:         address,
		Handler:      api.NewServer(log, participantService, messageService).Router(config.AllowedOrigin),
		ReadTimeout:  config.RequestTimeout,
		WriteTimeout: config.RequestTimeout,
	}

	errChan := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "address", address, "at", time.Now().UTC())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// 6. Wait for Stop or Error
	var serveErr error
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case serveErr = <-errChan:
	}

	// 7. Final Cleanup
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warn("HTTP server did not shut down cleanly", "error", err)
	}
	sup.Stop()
	<-supervisorDone
	if serveErr != nil {
		return serveErr
	}
	log.Info("Program stopped cleanly")
	return nil
}

// buildModerator returns nil when no censored words are configured.
func buildModerator(config Config, log *slog.Logger) (*moderation.Moderator, error) {
	words := moderation.ParseWords(config.CensoredWords)
	if len(words) == 0 {
		return nil, nil
	}
	char, err := config.CharacterRune()
	if err != nil {
		return nil, err
	}
	moderator, err := moderation.NewModerator(words, char, log)
	if errors.Is(err, errors.ErrEmptyWords) {
		log.Warn("Censored words contain only punctuation, moderation disabled")
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("moderation setup failed: %w", err)
	}
	log.Info("Moderation enabled", "words", len(words))
	return moderator, nil
}
