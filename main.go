package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"go-media-bot/bot"
	"go-media-bot/config"
	"go-media-bot/downloader"
)

// installTimeout bounds the yt-dlp download on startup
const installTimeout = 2 * time.Minute

func main() {
	// Load and validate configuration
	cfg, err := config.LoadConfig()
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		logger, logErr := newLogger(config.DefaultLogLevel)
		if logErr != nil {
			fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
			os.Exit(1)
		}
		bot.NewErrorHandler(logger, nil).HandleConfigError(err)
		_ = logger.Sync()
		os.Exit(1)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync() //nolint:errcheck

	logger.Info("Bot configuration loaded",
		zap.Int("api_id", cfg.APIID),
		zap.String("api_hash", maskString(cfg.APIHash)),
		zap.String("bot_token", maskString(cfg.Token)),
		zap.String("log_level", cfg.LogLevel),
		zap.String("download_dir", cfg.DownloadDir),
		zap.Int("max_file_size_mb", cfg.MaxFileSizeMB),
		zap.Int("max_parallel_downloads", cfg.MaxParallelDownloads),
		zap.Int("max_queue_size", cfg.MaxQueueSize))

	if err := run(cfg, logger); err != nil {
		logger.Error("Bot exited with error", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
}

func run(cfg *config.BotConfig, logger *zap.Logger) error {
	if cfg.YtDlpAutoInstall && cfg.YtDlpPath == "" {
		ctx, cancel := context.WithTimeout(context.Background(), installTimeout)
		err := downloader.InstallYtDlp(ctx)
		cancel()
		if err != nil {
			return err
		}
		logger.Info("yt-dlp is installed")
	}

	if cfg.CleanDownloadsOnStart {
		removed, err := downloader.CleanDownloadDir(cfg.DownloadDir)
		if err != nil {
			logger.Warn("Failed to clean downloads directory", zap.Error(err))
		} else if removed > 0 {
			logger.Info("Removed leftover downloads", zap.Int("count", removed))
		}
	}

	engine := downloader.NewYtDlpEngine(cfg.YtDlpPath, logger)
	mediaDownloader := downloader.NewMediaDownloader(engine, downloader.MediaDownloaderOptions{
		DownloadDir:  cfg.DownloadDir,
		MaxFileSize:  cfg.MaxFileSizeBytes(),
		EditInterval: cfg.ProgressEditInterval,
		Tagger:       downloader.MP4Tagger{},
	}, logger.Named("downloader"))

	telegramBot, err := bot.NewTelegramBot(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create bot: %w", err)
	}
	if err := telegramBot.Start(); err != nil {
		return fmt.Errorf("failed to start bot: %w", err)
	}

	messenger := bot.NewMessenger(telegramBot.API())
	registry := bot.NewRequestRegistry()
	queue := bot.NewDownloadQueue(cfg.MaxParallelDownloads, cfg.MaxQueueSize, logger.Named("queue"))

	deps := &bot.Dependencies{
		Messenger:   messenger,
		Downloader:  mediaDownloader,
		Metadata:    downloader.NewMetadataFetcher(engine, logger.Named("metadata")),
		Registry:    registry,
		Queue:       queue,
		MaxFileSize: cfg.MaxFileSizeBytes(),
		Context:     telegramBot.Context(),
		Logger:      logger,
	}
	linkHandler, err := bot.NewLinkHandler(deps)
	if err != nil {
		return err
	}
	callbackHandler, err := bot.NewDownloadCallbackHandler(deps)
	if err != nil {
		return err
	}

	router := telegramBot.GetRouter()
	router.SetErrorHandler(bot.NewErrorHandler(logger.Named("errors"), messenger))
	router.SetPeerCache(registry)
	router.RegisterTextHandler(linkHandler)
	router.RegisterCallbackHandler(callbackHandler)

	telegramBot.RegisterCommandHandler(bot.NewStartHandler(messenger, logger))
	telegramBot.RegisterCommandHandler(bot.NewHelpHandler(messenger, logger))
	telegramBot.RegisterCommandHandler(bot.NewPingHandler(messenger, logger))
	telegramBot.RegisterCommandHandler(bot.NewQueueHandler(messenger, queue, logger))

	// Running downloads observe the cancelled lifecycle context and report
	// their outcome before the client disconnects.
	telegramBot.OnDrain(queue.Wait)

	logger.Info("Bot is running",
		zap.Strings("commands", router.GetRegisteredCommands()))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	logger.Info("Shutdown signal received",
		zap.Int("active_requests", registry.ActiveCount()),
		zap.Int("queued_requests", queue.GetQueueSize()))
	return telegramBot.Stop()
}

// newLogger builds a production zap logger at the configured level
func newLogger(level string) (*zap.Logger, error) {
	zapLevel, err := zapcore.ParseLevel(strings.ToLower(level))
	if err != nil {
		zapLevel = zapcore.InfoLevel
	}

	zapConfig := zap.NewProductionConfig()
	zapConfig.Level = zap.NewAtomicLevelAt(zapLevel)
	zapConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if zapLevel == zapcore.DebugLevel {
		zapConfig.Development = true
	}
	return zapConfig.Build()
}

// maskString masks sensitive information for logging
func maskString(s string) string {
	if len(s) <= 8 {
		return "***"
	}
	return s[:4] + "***" + s[len(s)-4:]
}
