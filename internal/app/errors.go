package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"slices"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/john/playauth/internal/api"
)

// ErrorType categorizes different types of errors
type ErrorType int

const (
	ErrorTypeUnknown ErrorType = iota
	ErrorTypeNetwork
	ErrorTypeAPI
	ErrorTypeConfig
	ErrorTypeTimeout
)

var errorTypeNames = map[ErrorType]string{
	ErrorTypeNetwork: "Network",
	ErrorTypeAPI:     "API",
	ErrorTypeConfig:  "Configuration",
	ErrorTypeTimeout: "Timeout",
}

func (et ErrorType) String() string {
	if name, ok := errorTypeNames[et]; ok {
		return name
	}
	return "Unknown"
}

// AppError carries an error together with how the app should present it
type AppError struct {
	Type        ErrorType
	Message     string
	Cause       error
	Details     map[string]any
	Recoverable bool
	UserMessage string
	Timestamp   time.Time
}

// NewAppError creates a new application error
func NewAppError(errorType ErrorType, message string, cause error) *AppError {
	return &AppError{
		Type:      errorType,
		Message:   message,
		Cause:     cause,
		Details:   map[string]any{},
		Timestamp: time.Now(),
	}
}

func (ae *AppError) Error() string {
	msg := ae.Type.String() + ": " + ae.Message
	if ae.Cause == nil {
		return msg
	}
	return fmt.Sprintf("%s (caused by: %v)", msg, ae.Cause)
}

func (ae *AppError) Unwrap() error {
	return ae.Cause
}

// WithDetail attaches a key/value pair that is logged with the error
func (ae *AppError) WithDetail(key string, value any) *AppError {
	ae.Details[key] = value
	return ae
}

// WithUserMessage sets the text shown on the error screen
func (ae *AppError) WithUserMessage(message string) *AppError {
	ae.UserMessage = message
	return ae
}

// Retryable marks the error as one a retry may fix
func (ae *AppError) Retryable() *AppError {
	ae.Recoverable = true
	return ae
}

// DisplayMessage returns the user message, or Message when none was set
func (ae *AppError) DisplayMessage() string {
	if ae.UserMessage == "" {
		return ae.Message
	}
	return ae.UserMessage
}

// classifyError wraps err in an AppError unless it already is one
func classifyError(err error) *AppError {
	var (
		appErr *AppError
		apiErr *api.APIError
		netErr net.Error
	)

	switch {
	case errors.As(err, &appErr):
		return appErr

	case errors.Is(err, context.DeadlineExceeded),
		errors.As(err, &netErr) && netErr.Timeout():
		return NewAppError(ErrorTypeTimeout, "Identity service timed out", err).
			WithUserMessage("The identity service took too long to respond. Please try again.").
			Retryable()

	case errors.Is(err, api.ErrTokenTooLarge):
		return NewAppError(ErrorTypeAPI, "Token response too large", err).
			WithUserMessage("The identity service sent an oversized token.").
			Retryable()

	case errors.As(err, &apiErr):
		return NewAppError(ErrorTypeAPI, "Identity service error", err).
			WithDetail("status", apiErr.StatusCode).
			WithUserMessage(fmt.Sprintf("The identity service answered with status %d.", apiErr.StatusCode)).
			Retryable()

	case isNetworkError(err):
		return NewAppError(ErrorTypeNetwork, "Identity service unreachable", err).
			WithUserMessage("Unable to reach the identity service. Please check the endpoint.").
			Retryable()
	}

	return NewAppError(ErrorTypeUnknown, "Unexpected error", err).
		WithUserMessage("Something went wrong. Please try again.").
		Retryable()
}

// networkHints are substrings of resolver and dialer errors that do not
// surface as net.Error
var networkHints = []string{
	"connection refused",
	"connection reset",
	"network is unreachable",
	"no route to host",
	"no such host",
}

// isNetworkError reports whether err came from reaching the service
func isNetworkError(err error) bool {
	var netErr net.Error
	var errno syscall.Errno
	switch {
	case err == nil:
		return false
	case errors.As(err, &netErr):
		return true
	case errors.As(err, &errno):
		return errno == syscall.ECONNREFUSED || errno == syscall.ECONNRESET || errno == syscall.ECONNABORTED
	}

	msg := strings.ToLower(err.Error())
	return slices.ContainsFunc(networkHints, func(hint string) bool {
		return strings.Contains(msg, hint)
	})
}

// ErrorHandler turns errors into the error screen and status hints
type ErrorHandler struct {
	model *Model
}

func NewErrorHandler(model *Model) *ErrorHandler {
	return &ErrorHandler{model: model}
}

// HandleError classifies err, logs it and moves the app to the error screen
func (eh *ErrorHandler) HandleError(err error, context string) tea.Cmd {
	if err == nil {
		return nil
	}

	appErr := classifyError(err)
	eh.logError(appErr)
	eh.model.setError(appErr, context)

	return eh.hintFor(appErr)
}

// HandleTokenError classifies a failed token request and returns a status
// hint; the dialog itself shows the field error
func (eh *ErrorHandler) HandleTokenError(err error) tea.Cmd {
	if err == nil {
		return nil
	}
	appErr := classifyError(err)
	eh.model.logger.Warn("Token request failed", "type", appErr.Type, "error", err)
	return eh.hintFor(appErr)
}

func (eh *ErrorHandler) logError(appErr *AppError) {
	if eh.model.logger == nil {
		return
	}

	fields := make([]any, 0, 6+2*len(appErr.Details)+2)
	fields = append(fields, "type", appErr.Type, "message", appErr.Message, "recoverable", appErr.Recoverable)
	for key, value := range appErr.Details {
		fields = append(fields, key, value)
	}
	if appErr.Cause != nil {
		fields = append(fields, "cause", appErr.Cause)
	}

	eh.model.logger.Error("Application error", fields...)
}

// hintFor returns a status hint for errors the user can fix from the shell
func (eh *ErrorHandler) hintFor(appErr *AppError) tea.Cmd {
	switch appErr.Type {
	case ErrorTypeNetwork:
		return statusCmd("Check the endpoint with --endpoint or PLAYAUTH_ENDPOINT", 5*time.Second)
	case ErrorTypeTimeout:
		return statusCmd("The identity service is slow; raise request_timeout in config.json", 5*time.Second)
	case ErrorTypeAPI:
		if status, ok := appErr.Details["status"].(int); ok {
			return statusCmd(fmt.Sprintf("The identity service answered with status %d", status), 5*time.Second)
		}
		return statusCmd(appErr.DisplayMessage(), 5*time.Second)
	case ErrorTypeConfig:
		return statusCmd("Fix config.json or delete it to restore defaults", 5*time.Second)
	}
	return nil
}
