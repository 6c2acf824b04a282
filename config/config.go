package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultLogLevel             = "INFO"
	DefaultDownloadDir          = "downloads"
	DefaultSessionFile          = "bot_session.db"
	DefaultMaxFileSizeMB        = 50
	DefaultMaxParallelDownloads = 3
	DefaultMaxQueueSize         = 7
	DefaultProgressEditInterval = time.Second
)

// BotConfig holds all configuration values for the Telegram bot
type BotConfig struct {
	Token    string // Telegram bot token
	APIID    int    // Telegram API ID
	APIHash  string // Telegram API Hash
	LogLevel string // Logging level (DEBUG, INFO, WARN, ERROR, FATAL)

	DownloadDir           string        // Flat directory for downloaded files
	SessionFile           string        // SQLite session database
	MaxFileSizeMB         int           // Upload cap in MiB
	MaxParallelDownloads  int           // Concurrently running downloads
	MaxQueueSize          int           // Downloads waiting for a free slot
	ProgressEditInterval  time.Duration // Minimum spacing between status edits
	YtDlpPath             string        // yt-dlp executable; empty resolves from PATH
	YtDlpAutoInstall      bool          // Download yt-dlp on startup
	CleanDownloadsOnStart bool          // Remove leftovers from DownloadDir on startup
}

// LoadConfig loads and validates the bot configuration from environment variables
// Returns a BotConfig struct or an error if validation fails
func LoadConfig() (*BotConfig, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	return loadFromEnv(NewEnvValidator())
}

func loadFromEnv(validator *EnvValidator) (*BotConfig, error) {
	// Validate required environment variables
	if err := validator.ValidateRequired(); err != nil {
		return nil, fmt.Errorf("environment validation failed: %w", err)
	}

	// Get API credentials
	apiID, apiHash, err := validator.GetAPICredentials()
	if err != nil {
		return nil, fmt.Errorf("failed to get API credentials: %w", err)
	}

	// Get bot token
	token := validator.GetBotToken()
	if token == "" {
		return nil, fmt.Errorf("BOT_TOKEN is required but not set")
	}

	config := &BotConfig{
		Token:       token,
		APIID:       apiID,
		APIHash:     apiHash,
		LogLevel:    strings.ToUpper(validator.GetString("LOG_LEVEL", DefaultLogLevel)),
		DownloadDir: validator.GetString("DOWNLOAD_DIR", DefaultDownloadDir),
		SessionFile: validator.GetString("SESSION_FILE", DefaultSessionFile),
		YtDlpPath:   validator.GetString("YTDLP_PATH", ""),
	}

	if config.MaxFileSizeMB, err = validator.GetInt("MAX_FILE_SIZE_MB", DefaultMaxFileSizeMB); err != nil {
		return nil, err
	}
	if config.MaxParallelDownloads, err = validator.GetInt("MAX_PARALLEL_DOWNLOADS", DefaultMaxParallelDownloads); err != nil {
		return nil, err
	}
	if config.MaxQueueSize, err = validator.GetInt("MAX_QUEUE_SIZE", DefaultMaxQueueSize); err != nil {
		return nil, err
	}
	if config.ProgressEditInterval, err = validator.GetDuration("PROGRESS_EDIT_INTERVAL", DefaultProgressEditInterval); err != nil {
		return nil, err
	}
	if config.YtDlpAutoInstall, err = validator.GetBool("YTDLP_AUTO_INSTALL", false); err != nil {
		return nil, err
	}
	if config.CleanDownloadsOnStart, err = validator.GetBool("CLEAN_DOWNLOADS_ON_START", true); err != nil {
		return nil, err
	}

	return config, nil
}

// MaxFileSizeBytes returns the upload cap in bytes
func (c *BotConfig) MaxFileSizeBytes() int64 {
	return int64(c.MaxFileSizeMB) * 1024 * 1024
}

// Validate performs additional validation on the loaded configuration
func (c *BotConfig) Validate() error {
	if c.Token == "" {
		return fmt.Errorf("bot token cannot be empty")
	}

	if c.APIID <= 0 {
		return fmt.Errorf("API ID must be a positive integer, got: %d", c.APIID)
	}

	if c.APIHash == "" {
		return fmt.Errorf("API hash cannot be empty")
	}

	// Validate log level
	validLogLevels := map[string]bool{
		"DEBUG": true,
		"INFO":  true,
		"WARN":  true,
		"ERROR": true,
		"FATAL": true,
	}

	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s. Valid levels are: DEBUG, INFO, WARN, ERROR, FATAL", c.LogLevel)
	}

	if c.DownloadDir == "" {
		return fmt.Errorf("download directory cannot be empty")
	}

	// Telegram bots cannot upload more than 2000 MiB
	if c.MaxFileSizeMB <= 0 || c.MaxFileSizeMB > 2000 {
		return fmt.Errorf("MAX_FILE_SIZE_MB must be between 1 and 2000, got: %d", c.MaxFileSizeMB)
	}

	if c.MaxParallelDownloads <= 0 {
		return fmt.Errorf("MAX_PARALLEL_DOWNLOADS must be a positive integer, got: %d", c.MaxParallelDownloads)
	}

	if c.MaxQueueSize < 0 {
		return fmt.Errorf("MAX_QUEUE_SIZE cannot be negative, got: %d", c.MaxQueueSize)
	}

	if c.ProgressEditInterval < 0 {
		return fmt.Errorf("PROGRESS_EDIT_INTERVAL cannot be negative, got: %s", c.ProgressEditInterval)
	}

	return nil
}
