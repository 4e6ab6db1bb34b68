package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"

	"chat-video/auth"
	"chat-video/broker"
	"chat-video/httpapi"
	"chat-video/internal"
	"chat-video/moderation"
	"chat-video/observability"
	"chat-video/repositories"
	"chat-video/services"
	"chat-video/transport/ws"
	"chat-video/workers"
)

// Exit codes to provide meaningful status to the operating system or service manager (e.g., systemd).
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	// The main function acts as a thin wrapper.
	// Its only responsibility is to call run() and handle the OS exit code.
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Server terminated with error: %v\n", err)
	}
	os.Exit(code)
}

// run initializes all components, manages the server lifecycle, and centralizes error reporting.
// This pattern is preferred over calling os.Exit or panic directly because:
// 1. It ensures all 'defer' statements (like database cleanup) are executed before the program exits.
// 2. It improves testability by decoupling the initialization logic from the main entry point.
// 3. It provides a structured way to handle graceful shutdowns for the HTTP server and background workers.
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

	// 2. Database (BadgerDB)
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.ERROR))
	if err != nil {
		return exitRuntime, fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		// Defer ensures the database lock is released and buffers are flushed before the function returns.
		logger.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	blugeCfg := bluge.DefaultConfig(config.BlugeFilepath)
	blugeWriter, err := bluge.OpenWriter(blugeCfg)
	if err != nil {
		return exitRuntime, fmt.Errorf("failed to open bluge writer: %w", err)
	}
	defer func() {
		logger.Info("Closing Bluge...")
		_ = blugeWriter.Close()
	}()

	// 3. Moderation dictionaries
	censored, err := moderation.LoadCensoredWords()
	if err != nil {
		return exitRuntime, fmt.Errorf("loading censored words: %w", err)
	}
	logger.Info(fmt.Sprintf("%d censored files loaded [%s]",
		len(censored.Languages), strings.Join(censored.Languages, ",")))
	logger.Info(fmt.Sprintf("%d unique censored words loaded", len(censored.Words)))

	moderator, err := moderation.NewModerator(censored.Words, charReplacement, logger)
	if err != nil {
		return exitRuntime, fmt.Errorf("building moderator: %w", err)
	}

	// 4. Broker wiring
	monitor := observability.NewMonitor()
	registry := broker.NewRegistry()
	fanout := broker.NewFanout(logger, registry, monitor, config.DeliveryBufferSize, config.SinkTimeout)

	messageRepository := repositories.NewMessageRepository(db, logger)
	roomRepository := repositories.NewRoomRepository(db)
	searchRepository := repositories.NewSearchRepository(blugeWriter, logger)

	chatService := services.NewChatService(messageRepository, roomRepository,
		searchRepository, &moderator, monitor, logger)

	router, err := broker.NewRouter(logger, chatService, fanout, monitor)
	if err != nil {
		return exitRuntime, fmt.Errorf("building router: %w", err)
	}
	logger.Info("Dispatch table ready", "destinations", router.Destinations())

	if logger.Enabled(ctx, slog.LevelDebug) {
		debugPort := 8081
		endpoint := "/inspect"
		url := fmt.Sprintf("http://localhost:%d%s", debugPort, endpoint)
		logger.Info("Debug Badger inspector available", "url", url)
		internal.StartDebugServer(db, debugPort, endpoint, MessageMapper, monitor.StatsMap)
	}

	// 5. Background workers under supervision
	sup := workers.NewSupervisor(logger)
	sup.Add(fanout)
	sup.Add(workers.NewStatsWorker(logger, monitor, config.StatsInterval))
	supDone := make(chan struct{})
	go func() {
		sup.Run(ctx)
		close(supDone)
	}()

	// 6. HTTP server (websocket + REST)
	verifier := auth.NewVerifier()
	wsHandler := ws.NewHandler(logger, verifier, registry, router, monitor, config.SessionBufferSize)
	api := httpapi.NewServer(logger, chatService, verifier, wsHandler, config.LimitMessages)

	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	srv := &http.Server{
		Addr:              address,
		Handler:           api.NewRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", "address", address, "at", time.Now().UTC())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// 7. Wait for Stop or Error
	select {
	case <-ctx.Done():
		logger.Info("Shutting down gracefully...")
	case err := <-errChan:
		return exitRuntime, err
	}

	// 8. Final Cleanup
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	sup.Stop()
	<-supDone
	logger.Info("Program stopped cleanly")

	return exitOK, nil
}

// MessageMapper renders stored chat messages in the debug inspector.
func MessageMapper(key string, val []byte) internal.InspectRow {
	row := internal.DefaultMapper(key, val)

	var msg repositories.DiskMessage
	if err := json.Unmarshal(val, &msg); err == nil && msg.Content != "" {
		row.Type = msg.Kind
		row.Detail = fmt.Sprintf("%s: %s", msg.Author, msg.Content)
	}

	var room repositories.DiskRoom
	if strings.HasPrefix(key, "room:") {
		if err := json.Unmarshal(val, &room); err == nil {
			row.Type = room.Kind
			row.Namespace = room.ID
			row.Detail = fmt.Sprintf("room created %s", room.CreatedAt.Format(time.RFC3339))
		}
	}
	return row
}
