package errors

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
)

// ErrorType classifies an AppError for handling decisions: HTTP status
// mapping, CLI exit behavior, and log tagging.
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeNotFound   ErrorType = "notfound"
	ErrorTypeScorer     ErrorType = "scorer"
	ErrorTypePatch      ErrorType = "patch"
	ErrorTypeConflict   ErrorType = "conflict"
	ErrorTypeIO         ErrorType = "io"
	ErrorTypeConfig     ErrorType = "config"
	ErrorTypeInternal   ErrorType = "internal"
)

// AppError carries a machine-readable type and code alongside the human
// message, plus optional structured context for logging.
type AppError struct {
	Type    ErrorType      `json:"type"`
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Cause   error          `json:"cause,omitempty"`
	Context map[string]any `json:"context,omitempty"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithContext attaches a key/value pair that LogError will emit.
func (e *AppError) WithContext(key string, value any) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

func newAppError(typ ErrorType, code, message string, cause error) *AppError {
	return &AppError{Type: typ, Code: code, Message: message, Cause: cause}
}

// Per-type constructors. Callers pick the one matching how the error should
// be handled, not where it occurred.

func NewValidationError(code, message string, cause error) *AppError {
	return newAppError(ErrorTypeValidation, code, message, cause)
}

func NewNotFoundError(code, message string, cause error) *AppError {
	return newAppError(ErrorTypeNotFound, code, message, cause)
}

func NewScorerError(code, message string, cause error) *AppError {
	return newAppError(ErrorTypeScorer, code, message, cause)
}

func NewPatchError(code, message string, cause error) *AppError {
	return newAppError(ErrorTypePatch, code, message, cause)
}

func NewConflictError(code, message string, cause error) *AppError {
	return newAppError(ErrorTypeConflict, code, message, cause)
}

func NewIOError(code, message string, cause error) *AppError {
	return newAppError(ErrorTypeIO, code, message, cause)
}

func NewConfigError(code, message string, cause error) *AppError {
	return newAppError(ErrorTypeConfig, code, message, cause)
}

func NewInternalError(code, message string, cause error) *AppError {
	return newAppError(ErrorTypeInternal, code, message, cause)
}

// TypeOf returns the ErrorType of err when it is (or wraps) an AppError,
// and ErrorTypeInternal otherwise.
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return ErrorTypeInternal
}

// Logger is a thin wrapper over slog that knows how to unpack AppError
// fields into structured attributes.
type Logger struct {
	logger *slog.Logger
}

// NewLogger creates a JSON logger writing to stdout at the given level.
func NewLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	return &Logger{logger: slog.New(handler)}
}

// New creates a logger from a textual level name.
func New(level string) (*Logger, error) {
	levels := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"info":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	}
	slogLevel, ok := levels[level]
	if !ok {
		return nil, fmt.Errorf("invalid log level: %s", level)
	}
	return NewLogger(slogLevel), nil
}

// LogError logs err at error level. AppErrors contribute their type, code,
// message, and context as attributes; plain errors log as a single field.
func (l *Logger) LogError(err error, message string, args ...any) {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		l.logger.Error(message, append([]any{"error", err.Error()}, args...)...)
		return
	}

	logArgs := []any{
		"error_type", appErr.Type,
		"error_code", appErr.Code,
		"error_message", appErr.Message,
	}
	for key, value := range appErr.Context {
		logArgs = append(logArgs, key, value)
	}
	l.logger.Error(message, append(logArgs, args...)...)
}

func (l *Logger) Info(message string, args ...any) {
	l.logger.Info(message, args...)
}

func (l *Logger) Debug(message string, args ...any) {
	l.logger.Debug(message, args...)
}

func (l *Logger) Warn(message string, args ...any) {
	l.logger.Warn(message, args...)
}

// Error codes shared across the engine, CLI, and HTTP surfaces.
const (
	ErrCodeInvalidInput       = "INVALID_INPUT"
	ErrCodeScorerFailed       = "SCORER_FAILED"
	ErrCodeSuggestionNotFound = "SUGGESTION_NOT_FOUND"
	ErrCodeAnalysisNotFound   = "ANALYSIS_NOT_FOUND"
	ErrCodeSessionNotFound    = "SESSION_NOT_FOUND"
	ErrCodeSessionLimit       = "SESSION_LIMIT_REACHED"
	ErrCodePatchNotApplicable = "PATCH_NOT_APPLICABLE"
	ErrCodeAnalysisInProgress = "ANALYSIS_IN_PROGRESS"
	ErrCodeInvalidTransition  = "INVALID_TRANSITION"
	ErrCodeFileNotFound       = "FILE_NOT_FOUND"
	ErrCodeFileNotReadable    = "FILE_NOT_READABLE"
	ErrCodeInvalidFormat      = "INVALID_FORMAT"
	ErrCodeMissingAPIKey      = "MISSING_API_KEY"
	ErrCodeInvalidConfig      = "INVALID_CONFIG"
)
