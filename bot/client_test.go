package bot

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"go-media-bot/config"
)

func testBotConfig() *config.BotConfig {
	return &config.BotConfig{
		Token:       "test_token",
		APIID:       12345,
		APIHash:     "test_hash",
		LogLevel:    "INFO",
		SessionFile: "test_session.db",
	}
}

func TestNewTelegramBot(t *testing.T) {
	cfg := testBotConfig()
	logger := zap.NewNop()

	bot, err := NewTelegramBot(cfg, logger)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if bot == nil {
		t.Fatal("Expected bot to be created, got nil")
	}
	if bot.config != cfg {
		t.Error("Expected config to be set correctly")
	}
	if bot.logger != logger {
		t.Error("Expected logger to be set correctly")
	}
	if bot.ctx == nil || bot.cancel == nil {
		t.Error("Expected lifecycle context to be initialized")
	}
	if bot.GetRouter() == nil {
		t.Error("Expected router to be initialized")
	}
}

func TestNewTelegramBot_NilConfig(t *testing.T) {
	bot, err := NewTelegramBot(nil, zap.NewNop())
	if err == nil {
		t.Fatal("Expected error for nil config, got nil")
	}
	if bot != nil {
		t.Error("Expected bot to be nil when config is nil")
	}

	expectedError := "config cannot be nil"
	if err.Error() != expectedError {
		t.Errorf("Expected error '%s', got '%s'", expectedError, err.Error())
	}
}

func TestNewTelegramBot_NilLogger(t *testing.T) {
	bot, err := NewTelegramBot(testBotConfig(), nil)
	if err == nil {
		t.Fatal("Expected error for nil logger, got nil")
	}
	if bot != nil {
		t.Error("Expected bot to be nil when logger is nil")
	}

	expectedError := "logger cannot be nil"
	if err.Error() != expectedError {
		t.Errorf("Expected error '%s', got '%s'", expectedError, err.Error())
	}
}

func TestTelegramBot_IsRunning(t *testing.T) {
	bot, err := NewTelegramBot(testBotConfig(), zap.NewNop())
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	// Not running until the client is started
	if bot.IsRunning() {
		t.Error("Expected bot to not be running initially")
	}

	_ = bot.Stop()
	if bot.IsRunning() {
		t.Error("Expected bot to not be running after stop")
	}
	if bot.Context().Err() == nil {
		t.Error("Expected lifecycle context to be cancelled after stop")
	}
}

func TestTelegramBot_ClientBeforeStart(t *testing.T) {
	bot, err := NewTelegramBot(testBotConfig(), zap.NewNop())
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if bot.GetClient() != nil {
		t.Error("Expected client to be nil before Start() is called")
	}
	if bot.API() != nil {
		t.Error("Expected API to be nil before Start() is called")
	}
}

func TestTelegramBot_StopWaitsForDispatchAndDrains(t *testing.T) {
	bot, err := NewTelegramBot(testBotConfig(), zap.NewNop())
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	var finished, drained atomic.Bool
	started := make(chan struct{})
	bot.dispatch(func(ctx context.Context) {
		close(started)
		<-ctx.Done()
		time.Sleep(10 * time.Millisecond)
		finished.Store(true)
	})
	bot.OnDrain(func() {
		if !finished.Load() {
			t.Error("Drain ran before in-flight updates finished")
		}
		drained.Store(true)
	})

	<-started
	_ = bot.Stop()

	if !finished.Load() || !drained.Load() {
		t.Error("Stop returned before dispatch and drain completed")
	}

	// Updates after Stop are dropped.
	ran := false
	bot.dispatch(func(ctx context.Context) { ran = true })
	if ran {
		t.Error("Expected dispatch after Stop to be ignored")
	}
}
