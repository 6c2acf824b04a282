package bot

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gotd/td/tg"
	"go.uber.org/zap"
)

// PeerCache remembers addressable peers between updates
type PeerCache interface {
	RememberPeer(chatID int64, peer tg.InputPeerClass)
	ResolvePeer(chatID int64, peer tg.InputPeerClass) tg.InputPeerClass
}

// CommandRouter handles routing of updates to their respective handlers
type CommandRouter struct {
	mu              sync.RWMutex
	handlers        map[string]CommandHandler
	textHandlers    []TextHandler
	callbackHandler CallbackHandler
	peers           PeerCache
	logger          *zap.Logger
	errorHandler    *ErrorHandler
}

// NewCommandRouter creates a new command router instance
func NewCommandRouter(logger *zap.Logger) *CommandRouter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CommandRouter{
		handlers: make(map[string]CommandHandler),
		logger:   logger,
	}
}

// SetErrorHandler sets the error handler for the router
func (r *CommandRouter) SetErrorHandler(errorHandler *ErrorHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errorHandler = errorHandler
}

// SetPeerCache sets the cache used to resolve chat peers
func (r *CommandRouter) SetPeerCache(peers PeerCache) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.peers = peers
}

// RegisterHandler registers a command handler for a specific command
func (r *CommandRouter) RegisterHandler(handler CommandHandler) {
	command := strings.ToLower(handler.Command())

	r.mu.Lock()
	r.handlers[command] = handler
	r.mu.Unlock()

	r.logger.Debug("Registered command handler", zap.String("command", "/"+command))
}

// RegisterTextHandler registers a handler for non-command messages. Handlers
// are tried in registration order until one accepts the message.
func (r *CommandRouter) RegisterTextHandler(handler TextHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.textHandlers = append(r.textHandlers, handler)
}

// RegisterCallbackHandler sets the handler for inline keyboard presses
func (r *CommandRouter) RegisterCallbackHandler(handler CallbackHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.callbackHandler = handler
}

// RouteMessage processes an incoming message and routes it to the appropriate handler
func (r *CommandRouter) RouteMessage(ctx context.Context, message *tg.Message, entities *tg.Entities) error {
	if message == nil || message.Out {
		return nil
	}

	cmdCtx := r.extractCommandContext(message, entities)
	if cmdCtx.Text == "" {
		return nil
	}

	r.mu.RLock()
	errorHandler := r.errorHandler
	r.mu.RUnlock()
	if errorHandler != nil {
		defer errorHandler.RecoverFromPanic()
	}

	var err error
	if cmdCtx.IsCommand() {
		err = r.routeCommand(ctx, cmdCtx)
	} else {
		err = r.routeText(ctx, cmdCtx)
	}
	if err == nil {
		return nil
	}

	if errorHandler != nil {
		errorHandler.HandleCommandError(ctx, err, cmdCtx)
		return nil
	}
	if cmdCtx.IsCommand() {
		return fmt.Errorf("handler failed for command /%s: %w", cmdCtx.Command, err)
	}
	return fmt.Errorf("text handler failed: %w", err)
}

func (r *CommandRouter) routeCommand(ctx context.Context, cmdCtx *CommandContext) error {
	r.mu.RLock()
	handler, exists := r.handlers[cmdCtx.Command]
	r.mu.RUnlock()

	if !exists {
		r.logger.Debug("No handler found for command", zap.String("command", "/"+cmdCtx.Command))
		return nil
	}

	r.logger.Info("Routing command",
		zap.String("command", "/"+cmdCtx.Command),
		zap.Int64("user_id", cmdCtx.UserID),
		zap.Int64("chat_id", cmdCtx.ChatID))

	return handler.Handle(ctx, cmdCtx)
}

func (r *CommandRouter) routeText(ctx context.Context, cmdCtx *CommandContext) error {
	r.mu.RLock()
	handlers := make([]TextHandler, len(r.textHandlers))
	copy(handlers, r.textHandlers)
	r.mu.RUnlock()

	for _, handler := range handlers {
		handled, err := handler.HandleText(ctx, cmdCtx)
		if err != nil {
			return err
		}
		if handled {
			return nil
		}
	}
	return nil
}

// RouteCallback dispatches an inline keyboard press
func (r *CommandRouter) RouteCallback(ctx context.Context, query *tg.UpdateBotCallbackQuery, entities *tg.Entities) error {
	if query == nil {
		return nil
	}

	r.mu.RLock()
	handler := r.callbackHandler
	errorHandler := r.errorHandler
	r.mu.RUnlock()

	if handler == nil {
		r.logger.Debug("No callback handler registered")
		return nil
	}
	if errorHandler != nil {
		defer errorHandler.RecoverFromPanic()
	}

	chatID := ChatIDFromPeer(query.Peer)
	cbCtx := &CallbackContext{
		QueryID:   query.QueryID,
		Peer:      r.resolvePeer(chatID, query.Peer, entities),
		UserID:    query.UserID,
		ChatID:    chatID,
		MessageID: query.MsgID,
		Data:      string(query.Data),
		Timestamp: time.Now(),
	}

	if err := handler.HandleCallback(ctx, cbCtx); err != nil {
		if errorHandler != nil {
			wrapped := fmt.Errorf("callback %q in chat %d: %w", cbCtx.Data, chatID, err)
			if errorHandler.IsNetworkError(err) {
				_ = errorHandler.HandleNetworkError(wrapped)
			} else {
				errorHandler.HandleRuntimeError(wrapped)
			}
			return nil
		}
		return fmt.Errorf("callback handler failed: %w", err)
	}
	return nil
}

// extractCommandContext extracts command context information from a message
func (r *CommandRouter) extractCommandContext(message *tg.Message, entities *tg.Entities) *CommandContext {
	chatID := ChatIDFromPeer(message.PeerID)
	cmdCtx := &CommandContext{
		Peer:      r.resolvePeer(chatID, message.PeerID, entities),
		ChatID:    chatID,
		MessageID: message.ID,
		Text:      strings.TrimSpace(message.Message),
		Timestamp: time.Now(),
	}

	switch from := message.FromID.(type) {
	case *tg.PeerUser:
		cmdCtx.UserID = from.UserID
	case nil:
		// Private chats omit the sender.
		if user, ok := message.PeerID.(*tg.PeerUser); ok {
			cmdCtx.UserID = user.UserID
		}
	}

	if !strings.HasPrefix(cmdCtx.Text, "/") {
		return cmdCtx
	}

	parts := strings.SplitN(cmdCtx.Text[1:], " ", 2)
	command := parts[0]
	if at := strings.Index(command, "@"); at >= 0 {
		command = command[:at]
	}
	cmdCtx.Command = strings.ToLower(command)
	if len(parts) > 1 {
		cmdCtx.Args = strings.TrimSpace(parts[1])
	}
	return cmdCtx
}

func (r *CommandRouter) resolvePeer(chatID int64, peer tg.PeerClass, entities *tg.Entities) tg.InputPeerClass {
	input := InputPeerFromPeer(peer, entities)

	r.mu.RLock()
	cache := r.peers
	r.mu.RUnlock()
	if cache == nil {
		return input
	}

	cache.RememberPeer(chatID, input)
	return cache.ResolvePeer(chatID, input)
}

// GetRegisteredCommands returns a list of all registered commands
func (r *CommandRouter) GetRegisteredCommands() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	commands := make([]string, 0, len(r.handlers))
	for command := range r.handlers {
		commands = append(commands, command)
	}
	return commands
}

// HasHandler returns true if a handler is registered for the given command
func (r *CommandRouter) HasHandler(command string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.handlers[command]
	return exists
}
