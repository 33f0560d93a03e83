package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"matchbot/internal/config"
	"matchbot/internal/constants"
	"matchbot/internal/generator"
	"matchbot/internal/history"
	"matchbot/internal/publisher"
	"matchbot/internal/relay"
	"matchbot/internal/service"
	"matchbot/internal/store"
	"matchbot/internal/tracing"
	"matchbot/pkg/chat"
	"matchbot/pkg/storage"

	"github.com/sirupsen/logrus"
)

var (
	// Version information (set at build time)
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"

	// CLI flags
	verbose    = flag.Bool("verbose", false, "Enable verbose logging")
	configPath = flag.String("config", "config.json", "Path to configuration file")
	version    = flag.Bool("version", false, "Show version information")
)

func main() {
	flag.Parse()

	if *version {
		fmt.Printf("matchbot %s\nBuild Time: %s\nGit Commit: %s\n", Version, BuildTime, GitCommit)
		os.Exit(0)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		logrus.Fatalf("Application error: %v", err)
	}
}

func run(ctx context.Context) error {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	logger.WithFields(logrus.Fields{
		"version": Version,
		"build":   BuildTime,
		"commit":  GitCommit,
	}).Info("Starting matchbot")

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if *verbose {
		logger.SetLevel(logrus.DebugLevel)
	} else if cfg.LogLevel != "" {
		level, err := logrus.ParseLevel(cfg.LogLevel)
		if err != nil {
			logger.Warnf("Invalid log level %q, defaulting to info", cfg.LogLevel)
			logger.SetLevel(logrus.InfoLevel)
		} else {
			logger.SetLevel(level)
		}
	} else {
		logger.SetLevel(logrus.InfoLevel)
	}

	tracingManager := tracing.NewManager(cfg.Tracing, logger)
	if err := tracingManager.Initialize(ctx); err != nil {
		logger.Warnf("Failed to initialize tracing: %v", err)
	}
	defer func() {
		if err := tracingManager.Shutdown(context.Background()); err != nil {
			logger.Warnf("Failed to shutdown tracing: %v", err)
		}
	}()

	chatClient := chat.NewClient(chat.ClientConfig{
		BaseURL:  cfg.Chat.APIBaseURL,
		BotToken: cfg.Chat.BotToken,
		Timeout:  time.Duration(cfg.Chat.TimeoutSec) * time.Second,
		Retry:    cfg.Retry,
	})

	storageClient := storage.NewClient(storage.ClientConfig{
		Endpoint:      cfg.Storage.Endpoint,
		Bucket:        cfg.Storage.Bucket,
		AccessToken:   cfg.Storage.AccessToken,
		PublicBaseURL: cfg.Storage.PublicBaseURL,
		Timeout:       time.Duration(cfg.Storage.TimeoutSec) * time.Second,
	})

	assetRelay := relay.New(chatClient, storageClient, cfg.Storage.KeyPrefix, logger)

	llm, err := generator.NewOpenAILLM(cfg.Generation)
	if err != nil {
		return fmt.Errorf("failed to initialize generation backend: %w", err)
	}
	contentGenerator := generator.New(llm, logger)

	bridge := publisher.NewExecBridge(cfg.Publisher, logger)

	var historyRecorder service.HistoryRecorder
	var historyProvider HistoryProvider
	if cfg.History.Enabled {
		hist, err := history.New(cfg.History.Path)
		if err != nil {
			return fmt.Errorf("failed to initialize publish history: %w", err)
		}
		defer hist.Close()
		historyRecorder = hist
		historyProvider = hist
		logger.WithField("path", cfg.History.Path).Info("Publish history enabled")
	}

	orchestrator := service.NewOrchestrator(
		chatClient,
		assetRelay,
		contentGenerator,
		store.NewMemoryStore(),
		bridge,
		historyRecorder,
		service.Config{
			ChannelID:         cfg.Chat.ChannelID,
			GenerationTimeout: time.Duration(cfg.Generation.TimeoutSec) * time.Second,
		},
		logger,
	)

	if cfg.Chat.SocketMode {
		listener := service.NewSocketListener(chatClient, orchestrator, logger)
		if err := listener.Start(ctx); err != nil {
			return fmt.Errorf("failed to start socket listener: %w", err)
		}
		defer listener.Stop()
	}

	server := NewServer(cfg.Server, cfg.Chat.SigningSecret, orchestrator, historyProvider, logger)
	serverErrCh := make(chan error, constants.ServerErrorChannelSize)
	go func() {
		if err := server.Start(); err != nil {
			serverErrCh <- fmt.Errorf("server error: %w", err)
		}
	}()

	logger.WithField("channel", cfg.Chat.ChannelID).Info("matchbot is running")

	select {
	case <-ctx.Done():
		logger.Info("Received shutdown signal")
	case err := <-serverErrCh:
		logger.Error(err)
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(constants.DefaultGracefulShutdownSec)*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shutdown server gracefully: %w", err)
	}

	logger.Info("Server shutdown completed")
	return nil
}
