package bot

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrorType represents different categories of errors
type ErrorType int

const (
	ErrorTypeConfiguration ErrorType = iota
	ErrorTypeNetwork
	ErrorTypeCommand
	ErrorTypeRuntime
)

// String returns the string representation of ErrorType
func (et ErrorType) String() string {
	switch et {
	case ErrorTypeConfiguration:
		return "CONFIGURATION"
	case ErrorTypeNetwork:
		return "NETWORK"
	case ErrorTypeCommand:
		return "COMMAND"
	case ErrorTypeRuntime:
		return "RUNTIME"
	default:
		return "UNKNOWN"
	}
}

// ErrorContext provides context information for error handling
type ErrorContext struct {
	UserID        int64
	ChatID        int64
	Command       string
	CorrelationID string
	Timestamp     time.Time
}

// ErrorHandler provides centralized error management for the bot
type ErrorHandler struct {
	logger    *zap.Logger
	messenger *Messenger
}

// NewErrorHandler creates a new ErrorHandler instance. messenger may be nil,
// in which case errors are only logged.
func NewErrorHandler(logger *zap.Logger, messenger *Messenger) *ErrorHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ErrorHandler{
		logger:    logger,
		messenger: messenger,
	}
}

// HandleConfigError handles configuration-related errors.
// These are critical errors that terminate the process.
func (e *ErrorHandler) HandleConfigError(err error) {
	e.logStructuredError(ErrorTypeConfiguration, err, nil, "Configuration error occurred")
}

// HandleNetworkError logs a network failure and returns it unchanged
func (e *ErrorHandler) HandleNetworkError(err error) error {
	errorCtx := &ErrorContext{
		CorrelationID: e.generateCorrelationID(),
		Timestamp:     time.Now(),
	}
	e.logStructuredError(ErrorTypeNetwork, err, errorCtx, "Network error occurred")
	return err
}

// HandleCommandError logs a failed handler and tells the user something went wrong
func (e *ErrorHandler) HandleCommandError(ctx context.Context, err error, cmdCtx *CommandContext) {
	errorCtx := &ErrorContext{
		UserID:        cmdCtx.UserID,
		ChatID:        cmdCtx.ChatID,
		Command:       cmdCtx.Command,
		CorrelationID: e.generateCorrelationID(),
		Timestamp:     time.Now(),
	}

	e.logStructuredError(ErrorTypeCommand, err, errorCtx, "Command processing error occurred")

	if e.messenger == nil || cmdCtx.Peer == nil {
		return
	}

	sendCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	message := plainText(e.createUserFriendlyMessage(err, errorCtx.CorrelationID))
	if _, sendErr := e.messenger.Send(sendCtx, cmdCtx.Peer, message, nil, cmdCtx.MessageID); sendErr != nil {
		e.logger.Error("Failed to send error message to user",
			zap.Int64("chat_id", cmdCtx.ChatID),
			zap.String("correlation_id", errorCtx.CorrelationID),
			zap.Error(sendErr))
	}
}

// HandleRuntimeError handles unexpected runtime errors.
// Runtime errors are logged and the bot keeps serving other chats.
func (e *ErrorHandler) HandleRuntimeError(err error) {
	errorCtx := &ErrorContext{
		CorrelationID: e.generateCorrelationID(),
		Timestamp:     time.Now(),
	}
	e.logStructuredError(ErrorTypeRuntime, err, errorCtx, "Runtime error occurred")
}

// logStructuredError logs errors with structured information
func (e *ErrorHandler) logStructuredError(errorType ErrorType, err error, ctx *ErrorContext, message string) {
	fields := []zap.Field{
		zap.String("error_type", errorType.String()),
		zap.Error(err),
	}

	if ctx != nil {
		fields = append(fields,
			zap.String("correlation_id", ctx.CorrelationID),
			zap.Time("timestamp", ctx.Timestamp))
		if ctx.UserID != 0 {
			fields = append(fields, zap.Int64("user_id", ctx.UserID))
		}
		if ctx.ChatID != 0 {
			fields = append(fields, zap.Int64("chat_id", ctx.ChatID))
		}
		if ctx.Command != "" {
			fields = append(fields, zap.String("command", "/"+ctx.Command))
		}
	}

	switch errorType {
	case ErrorTypeConfiguration:
		e.logger.Error(message, fields...)
	case ErrorTypeCommand:
		e.logger.Warn(message, fields...)
	default:
		e.logger.Error(message, fields...)
	}
}

// createUserFriendlyMessage creates a user-friendly error message
func (e *ErrorHandler) createUserFriendlyMessage(err error, correlationID string) string {
	errorMsg := strings.ToLower(err.Error())

	var userMessage string
	switch {
	case strings.Contains(errorMsg, "network") || strings.Contains(errorMsg, "connection"):
		userMessage = "🌐 I'm having trouble connecting to Telegram's servers. Please try again in a moment."
	case strings.Contains(errorMsg, "timeout") || strings.Contains(errorMsg, "deadline exceeded"):
		userMessage = "⏱️ The request took too long to process. Please try again."
	case strings.Contains(errorMsg, "flood") || strings.Contains(errorMsg, "too many"):
		userMessage = "🚦 I'm receiving too many requests right now. Please wait a moment and try again."
	case strings.Contains(errorMsg, "permission") || strings.Contains(errorMsg, "forbidden"):
		userMessage = "🔒 I don't have permission to perform this action. Please check my permissions."
	default:
		userMessage = textProcessingError
	}

	// Only the first segment of the correlation ID is shown.
	if len(correlationID) >= 8 {
		userMessage += fmt.Sprintf("\n\n🔧 Error ID: %s", correlationID[:8])
	}

	return userMessage
}

// generateCorrelationID generates a unique correlation ID for error tracking
func (e *ErrorHandler) generateCorrelationID() string {
	return uuid.NewString()
}

// IsNetworkError checks if an error is network-related
func (e *ErrorHandler) IsNetworkError(err error) bool {
	if err == nil {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	errorMsg := strings.ToLower(err.Error())
	for _, keyword := range []string{"network", "connection", "timeout", "dns", "tcp", "tls"} {
		if strings.Contains(errorMsg, keyword) {
			return true
		}
	}
	return false
}

// RecoverFromPanic recovers from panics and logs them as runtime errors.
// It must be deferred directly.
func (e *ErrorHandler) RecoverFromPanic() {
	if r := recover(); r != nil {
		err, ok := r.(error)
		if !ok {
			err = fmt.Errorf("panic: %v", r)
		}
		e.HandleRuntimeError(fmt.Errorf("recovered from panic: %w", err))
	}
}
