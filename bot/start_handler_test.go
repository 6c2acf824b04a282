package bot

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/gotd/td/tg"
)

func TestStartHandler_Command(t *testing.T) {
	handler := NewStartHandler(nil, nil)

	expected := "start"
	if got := handler.Command(); got != expected {
		t.Errorf("StartHandler.Command() = %v, want %v", got, expected)
	}
}

func TestWelcomeText(t *testing.T) {
	text := WelcomeText()

	expectedSubstrings := []string{
		"🎵 Media Downloader Bot",
		"Send me a link from:\n- YouTube\n- TikTok\n- VK",
		"- Audio (MP3)",
		"- Video (without watermark for TikTok)",
		"📌 Features:",
		"Just paste any supported URL...",
	}
	for _, expected := range expectedSubstrings {
		if !strings.Contains(text.Message, expected) {
			t.Errorf("Welcome message should contain %q", expected)
		}
	}

	var bold, italic int
	for _, entity := range text.Entities {
		switch entity.(type) {
		case *tg.MessageEntityBold:
			bold++
		case *tg.MessageEntityItalic:
			italic++
		}
	}
	if bold != 2 || italic != 1 {
		t.Errorf("Expected 2 bold and 1 italic entities, got %d and %d", bold, italic)
	}
}

func TestHelpText_ListsCommands(t *testing.T) {
	text := HelpText()

	if !strings.HasPrefix(text.Message, WelcomeText().Message) {
		t.Error("Help text should start with the welcome text")
	}
	for _, command := range []string{"/start", "/help", "/ping", "/queue"} {
		if !strings.Contains(text.Message, command) {
			t.Errorf("Help text should mention %s", command)
		}
	}
}

func TestStartHandler_Handle(t *testing.T) {
	api := NewMockTelegramAPI()
	handler := NewStartHandler(NewMessenger(api), nil)

	err := handler.Handle(context.Background(), &CommandContext{
		Peer:      &userPeer,
		UserID:    12345,
		ChatID:    12345,
		Command:   "start",
		Timestamp: time.Now(),
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	sent := api.SentMessages()
	if len(sent) != 1 {
		t.Fatalf("Expected 1 message, got %d", len(sent))
	}
	if sent[0].Message != WelcomeText().Message {
		t.Errorf("Unexpected welcome message: %q", sent[0].Message)
	}
	if sent[0].Peer != &userPeer {
		t.Error("Expected the welcome to go to the command's chat")
	}
}

func TestStartHandler_Handle_WithoutClient(t *testing.T) {
	handler := NewStartHandler(NewMessenger(nil), nil)

	err := handler.Handle(context.Background(), &CommandContext{Peer: &userPeer, Command: "start"})
	if err == nil {
		t.Error("Expected error when the client is not initialized")
	}
}

func TestHelpHandler_Handle(t *testing.T) {
	api := NewMockTelegramAPI()
	handler := NewHelpHandler(NewMessenger(api), nil)

	if handler.Command() != "help" {
		t.Errorf("Expected command 'help', got %q", handler.Command())
	}
	if err := handler.Handle(context.Background(), &CommandContext{Peer: &userPeer, Command: "help"}); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	sent := api.SentMessages()
	if len(sent) != 1 || sent[0].Message != HelpText().Message {
		t.Errorf("Expected help text to be sent, got %v", sent)
	}
}
