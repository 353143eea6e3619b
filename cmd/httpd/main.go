// Command httpd runs the portfolio assistant HTTP server: the visitor chat
// API, the client polling endpoint, and the Telegram operator webhook.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/marcveslino/portfolio-assistant/internal/api"
	"github.com/marcveslino/portfolio-assistant/internal/chat"
	"github.com/marcveslino/portfolio-assistant/internal/config"
	"github.com/marcveslino/portfolio-assistant/internal/database"
	"github.com/marcveslino/portfolio-assistant/internal/handoff"
	"github.com/marcveslino/portfolio-assistant/internal/logging"
	"github.com/marcveslino/portfolio-assistant/internal/notifier"
	"github.com/marcveslino/portfolio-assistant/internal/responder"
	"github.com/marcveslino/portfolio-assistant/internal/telegram"
	"github.com/marcveslino/portfolio-assistant/internal/telemetry"
)

const shutdownTimeout = 30 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}
	defer logging.Sync(logger)

	logger.Info("Starting assistant HTTP server",
		"service", cfg.Service.Name,
		"version", cfg.Service.Version,
		"port", cfg.Service.Port,
		"debug", cfg.Service.Debug,
	)

	db, err := database.NewPostgresConnection(cfg.Database)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()
	logger.Info("Database connected",
		"host", cfg.Database.Host,
		"database", cfg.Database.Database,
	)

	conversationRepo := database.NewConversationRepository(db)
	messageRepo := database.NewMessageRepository(db)

	tel := telemetry.NewProvider()

	bot := telegram.NewClient(cfg.Telegram)
	if !bot.Configured() {
		logger.Warn("Telegram bot token not set, operator alerts disabled")
	}
	alerts := notifier.New(bot, cfg.Telegram, tel, logger)

	aiResponder := responder.New(cfg.AI, logger)
	logger.Info("AI responder initialized", "model", cfg.AI.Model, "base_url", cfg.AI.BaseURL)

	chatService := chat.NewService(
		conversationRepo,
		messageRepo,
		aiResponder,
		alerts,
		tel,
		cfg.Service.HistoryLimit,
		logger,
	)

	operatorHandler := handoff.NewHandler(conversationRepo, messageRepo, bot, tel, logger)

	handler := api.NewHandler(
		chatService,
		conversationRepo,
		messageRepo,
		operatorHandler,
		db,
		tel,
		logger,
	)

	server := api.NewServer(handler, api.ServerConfig{
		Port:  cfg.Service.Port,
		Debug: cfg.Service.Debug,
	}, tel.Handler())

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- server.Start()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err = <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		logger.Info("Shutdown signal received", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err = server.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown: %w", err)
		}
		logger.Info("Server stopped gracefully")
	}

	return nil
}
