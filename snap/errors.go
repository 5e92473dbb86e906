package snap

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dzonerzy/esw/argv"
	"github.com/dzonerzy/esw/internal/fuzzy"
	eswio "github.com/dzonerzy/esw/io"
)

// ErrorType represents error categories for CLI operations.
// These categories drive suggestion logic and exit-code mapping (via ExitCodeManager).
type ErrorType string

const (
	ErrorTypeUnknownCommand         ErrorType = "unknown_command"
	ErrorTypeUnknownArgument        ErrorType = "unknown_argument"
	ErrorTypeOptionRequiresArgument ErrorType = "option_requires_argument"
	ErrorTypeMalformedSpec          ErrorType = "malformed_spec"
	ErrorTypeBuildFailed            ErrorType = "build_failed"
	ErrorTypeInference              ErrorType = "inference"
	ErrorTypeInternal               ErrorType = "internal_error"
)

// CLIError is an error enriched with a category, suggestions and context.
type CLIError struct {
	Type        ErrorType
	Message     string
	Suggestions []string
	Cause       error
	Context     map[string]any

	formattedError string
	displayed      bool
}

// Error implements the error interface
func (e *CLIError) Error() string {
	if e.formattedError != "" {
		return e.formattedError
	}
	return e.Message
}

// Unwrap returns the cause.
func (e *CLIError) Unwrap() error { return e.Cause }

// NewError creates a new CLIError with the given type and message
func NewError(typ ErrorType, message string) *CLIError {
	return &CLIError{
		Type:        typ,
		Message:     message,
		Suggestions: make([]string, 0),
		Context:     make(map[string]any),
	}
}

// Errorf is NewError with a format string.
func Errorf(typ ErrorType, format string, args ...any) *CLIError {
	return NewError(typ, fmt.Sprintf(format, args...))
}

// WithSuggestion adds a suggestion to the error
func (e *CLIError) WithSuggestion(suggestion string) *CLIError {
	e.Suggestions = append(e.Suggestions, suggestion)
	return e
}

// WithCause adds an underlying cause to the error
func (e *CLIError) WithCause(cause error) *CLIError {
	e.Cause = cause
	return e
}

// WithContext adds context information to the error
func (e *CLIError) WithContext(key string, value any) *CLIError {
	e.Context[key] = value
	return e
}

// FromParseError converts an engine error. Malformed specs are programmer
// errors; everything else is a usage error.
func FromParseError(err *argv.ParseError) *CLIError {
	switch err.Type {
	case argv.ErrorTypeMalformedSpec:
		return NewError(ErrorTypeMalformedSpec, err.Message).
			WithCause(err).
			WithContext("key", err.Key)
	default:
		cliErr := NewError(ErrorTypeOptionRequiresArgument, err.Message).
			WithCause(err).
			WithContext("flag", err.Flag)
		if err.AliasOf != "" {
			cliErr = cliErr.WithContext("alias_of", err.AliasOf)
		}
		return cliErr
	}
}

// ErrorHandler provides smart error handling with fuzzy matching suggestions.
type ErrorHandler struct {
	suggestCommands bool
	suggestFlags    bool
	maxDistance     int
	customHandlers  map[ErrorType]func(*CLIError) *CLIError
	showHelpOnError bool
}

// NewErrorHandler creates a new error handler with defaults
func NewErrorHandler() *ErrorHandler {
	return &ErrorHandler{
		suggestCommands: true,
		suggestFlags:    true,
		maxDistance:     2,
		customHandlers:  make(map[ErrorType]func(*CLIError) *CLIError),
		showHelpOnError: true,
	}
}

// SuggestCommands enables/disables command suggestions
func (eh *ErrorHandler) SuggestCommands(enabled bool) *ErrorHandler {
	eh.suggestCommands = enabled
	return eh
}

// SuggestFlags enables/disables flag suggestions
func (eh *ErrorHandler) SuggestFlags(enabled bool) *ErrorHandler {
	eh.suggestFlags = enabled
	return eh
}

// MaxDistance sets the maximum edit distance for suggestions
func (eh *ErrorHandler) MaxDistance(distance int) *ErrorHandler {
	eh.maxDistance = distance
	return eh
}

// ShowHelpOnError controls whether the command usage is printed after a
// usage error.
func (eh *ErrorHandler) ShowHelpOnError(enabled bool) *ErrorHandler {
	eh.showHelpOnError = enabled
	return eh
}

// Handle registers a custom handler for a specific error type
func (eh *ErrorHandler) Handle(typ ErrorType, handler func(*CLIError) *CLIError) *ErrorHandler {
	eh.customHandlers[typ] = handler
	return eh
}

// ProcessError applies custom handlers and adds suggestions. cmd is the
// command whose spec is searched for flag suggestions; it may be nil.
func (eh *ErrorHandler) ProcessError(err *CLIError, app *App, cmd *Command) *CLIError {
	if handler, exists := eh.customHandlers[err.Type]; exists {
		err = handler(err)
	}

	switch err.Type {
	case ErrorTypeUnknownArgument:
		if eh.suggestFlags {
			eh.addFlagSuggestions(err, app, cmd)
		}
	case ErrorTypeUnknownCommand:
		if eh.suggestCommands {
			eh.addCommandSuggestions(err, app)
		}
	case ErrorTypeOptionRequiresArgument, ErrorTypeMalformedSpec, ErrorTypeBuildFailed,
		ErrorTypeInference, ErrorTypeInternal:
		// No suggestions for these.
	}

	return eh.formatError(err)
}

func (eh *ErrorHandler) addFlagSuggestions(err *CLIError, app *App, cmd *Command) {
	flagName, ok := err.Context["flag"].(string)
	if !ok {
		return
	}
	if best := eh.findBestFlagMatch(flagName, app, cmd); best != "" {
		_ = err.WithSuggestion(fmt.Sprintf("Did you mean '%s'?", best))
	}
}

func (eh *ErrorHandler) addCommandSuggestions(err *CLIError, app *App) {
	cmdName, ok := err.Context["command"].(string)
	if !ok {
		return
	}
	if best := eh.findBestCommandMatch(cmdName, app); best != "" {
		_ = err.WithSuggestion(fmt.Sprintf("Did you mean '%s'?", best))
	}
}

func (eh *ErrorHandler) findBestFlagMatch(input string, app *App, cmd *Command) string {
	flags := app.rootSpec.Keys()
	if cmd != nil {
		flags = append(flags, cmd.spec.Keys()...)
	}
	return fuzzy.FindBestFlag(input, flags, eh.maxDistance)
}

func (eh *ErrorHandler) findBestCommandMatch(input string, app *App) string {
	return fuzzy.FindBestCommand(input, app.order, eh.maxDistance)
}

// formatError stores the message followed by one indented line per
// suggestion; Error() returns it from then on.
func (eh *ErrorHandler) formatError(err *CLIError) *CLIError {
	var builder strings.Builder
	builder.WriteString(err.Message)
	for _, suggestion := range err.Suggestions {
		builder.WriteString("\n  ")
		builder.WriteString(suggestion)
	}
	err.formattedError = builder.String()
	return err
}

// DisplayError writes err through the logger once. Later calls for the same
// error are no-ops.
func (eh *ErrorHandler) DisplayError(err *CLIError, log *eswio.Logger) {
	if err.displayed {
		return
	}
	err.displayed = true
	log.Error("%s", err.Error())
}

// Displayed reports whether err (or a CLIError it wraps) was already shown.
func Displayed(err error) bool {
	var cliErr *CLIError
	return errors.As(err, &cliErr) && cliErr.displayed
}
