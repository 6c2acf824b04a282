package bot

import (
	"context"
	"fmt"
	"sync"

	"github.com/celestix/gotgproto"
	"github.com/celestix/gotgproto/dispatcher/handlers"
	"github.com/celestix/gotgproto/dispatcher/handlers/filters"
	"github.com/celestix/gotgproto/ext"
	"github.com/celestix/gotgproto/sessionMaker"
	"github.com/glebarez/sqlite"
	"github.com/gotd/td/tg"
	"go.uber.org/zap"

	"go-media-bot/config"
)

// TelegramBot wraps the gotgproto client and provides bot lifecycle management
type TelegramBot struct {
	client *gotgproto.Client
	logger *zap.Logger
	config *config.BotConfig
	router *CommandRouter
	ctx    context.Context
	cancel context.CancelFunc

	// inflight tracks update goroutines so Stop can wait for them
	inflight sync.WaitGroup
	// drain runs after the lifecycle context is cancelled, while the
	// client can still send the final edits
	drain []func()
}

// NewTelegramBot creates a new TelegramBot instance
func NewTelegramBot(cfg *config.BotConfig, logger *zap.Logger) (*TelegramBot, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	if logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}

	ctx, cancel := context.WithCancel(context.Background())

	bot := &TelegramBot{
		config: cfg,
		logger: logger,
		router: NewCommandRouter(logger.Named("router")),
		ctx:    ctx,
		cancel: cancel,
	}

	return bot, nil
}

// Start connects to Telegram and begins dispatching updates
func (b *TelegramBot) Start() error {
	b.logger.Info("Starting Telegram bot...")

	clientOpts := &gotgproto.ClientOpts{
		Session: sessionMaker.SqlSession(sqlite.Open(b.config.SessionFile)),
		Logger:  b.logger.Named("gotgproto"),
	}

	client, err := gotgproto.NewClient(b.config.APIID, b.config.APIHash, gotgproto.ClientTypeBot(b.config.Token), clientOpts)
	if err != nil {
		return fmt.Errorf("failed to create gotgproto client: %w", err)
	}

	b.client = client
	client.Dispatcher.AddHandler(handlers.NewMessage(filters.Message.All, b.onMessage))
	client.Dispatcher.AddHandler(handlers.NewCallbackQuery(filters.CallbackQuery.All, b.onCallbackQuery))

	b.logger.Info("Telegram bot client initialized",
		zap.String("username", client.Self.Username),
		zap.String("session", b.config.SessionFile))

	// Idle blocks until the client stops.
	go func() {
		if err := b.client.Idle(); err != nil && b.ctx.Err() == nil {
			b.logger.Error("Telegram client stopped unexpectedly", zap.Error(err))
		}
	}()

	b.logger.Info("Telegram bot started successfully")
	return nil
}

// onMessage hands the message to the router without blocking the dispatcher
func (b *TelegramBot) onMessage(_ *ext.Context, u *ext.Update) error {
	if u.EffectiveMessage == nil || u.EffectiveMessage.Message == nil {
		return nil
	}
	message := u.EffectiveMessage.Message
	entities := u.Entities

	b.dispatch(func(ctx context.Context) {
		if err := b.router.RouteMessage(ctx, message, entities); err != nil {
			b.logger.Warn("Failed to route message",
				zap.Int("message_id", message.ID),
				zap.Error(err))
		}
	})
	return nil
}

func (b *TelegramBot) onCallbackQuery(_ *ext.Context, u *ext.Update) error {
	if u.CallbackQuery == nil {
		return nil
	}
	query := u.CallbackQuery
	entities := u.Entities

	b.dispatch(func(ctx context.Context) {
		if err := b.router.RouteCallback(ctx, query, entities); err != nil {
			b.logger.Warn("Failed to route callback query",
				zap.Int64("query_id", query.QueryID),
				zap.Error(err))
		}
	})
	return nil
}

// dispatch runs fn on its own goroutine bound to the bot lifecycle
func (b *TelegramBot) dispatch(fn func(ctx context.Context)) {
	if b.ctx.Err() != nil {
		return
	}
	b.inflight.Add(1)
	go func() {
		defer b.inflight.Done()
		fn(b.ctx)
	}()
}

// Stop gracefully shuts down the bot
func (b *TelegramBot) Stop() error {
	b.logger.Info("Stopping Telegram bot...")

	if b.cancel != nil {
		b.cancel()
	}

	b.inflight.Wait()
	for _, fn := range b.drain {
		fn()
	}

	if b.client != nil {
		b.client.Stop()
		b.logger.Info("Bot client stopped")
	}

	b.logger.Info("Telegram bot stopped successfully")
	return nil
}

// OnDrain registers fn to run during Stop before the client disconnects
func (b *TelegramBot) OnDrain(fn func()) {
	b.drain = append(b.drain, fn)
}

// Context returns the bot lifecycle context, cancelled by Stop
func (b *TelegramBot) Context() context.Context {
	return b.ctx
}

// GetClient returns the underlying gotgproto client for advanced usage
func (b *TelegramBot) GetClient() *gotgproto.Client {
	return b.client
}

// API returns the raw Telegram API client. It is nil before Start.
func (b *TelegramBot) API() *tg.Client {
	if b.client == nil {
		return nil
	}
	return b.client.API()
}

// IsRunning returns true if the bot is currently running
func (b *TelegramBot) IsRunning() bool {
	return b.client != nil && b.ctx.Err() == nil
}

// RegisterCommandHandler registers a command handler with the bot's router
func (b *TelegramBot) RegisterCommandHandler(handler CommandHandler) {
	b.router.RegisterHandler(handler)
}

// GetRouter returns the command router for advanced usage
func (b *TelegramBot) GetRouter() *CommandRouter {
	return b.router
}
