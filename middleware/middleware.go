// Package middleware provides action middleware for esw commands: Logger,
// Recovery and Timeout.
package middleware

import (
	"context"
	"fmt"
	"time"

	eswio "github.com/dzonerzy/esw/io"
)

// The snap package imports this one; *snap.Context satisfies Context so the
// two packages never import each other.

// Context describes the runtime information and lifecycle controls that
// middleware can rely on. It is implemented by *snap.Context.
type Context interface {
	// Context is the command's context.Context, cancelled on interrupt.
	Context() context.Context

	// Done returns a channel that is closed when the command's context is
	// canceled or times out.
	Done() <-chan struct{}

	// Cancel requests cancellation of the current command's context. It is
	// idempotent.
	Cancel()

	// Args returns the positional arguments of the current command. The
	// returned slice should be treated as read-only.
	Args() []string

	// Set stores a key/value pair in the context metadata. Keys should be
	// namespaced, e.g. "recovery.stack".
	Set(key string, value any)

	// Get retrieves a value previously stored via Set, or nil.
	Get(key string) any

	// Command returns the current command descriptor.
	Command() Command

	// Logger is the application logger.
	Logger() *eswio.Logger
}

// Command is satisfied by *snap.Command.
type Command interface {
	Name() string
	Description() string
}

// ActionFunc represents command action function signature
type ActionFunc func(ctx Context) error

// Middleware defines the middleware function signature
type Middleware func(next ActionFunc) ActionFunc

// MiddlewareChain represents a chain of middleware functions
type MiddlewareChain []Middleware

// Apply applies the middleware chain to an ActionFunc. The first middleware
// of the chain is the outermost.
func (chain MiddlewareChain) Apply(action ActionFunc) ActionFunc {
	for i := len(chain) - 1; i >= 0; i-- {
		action = chain[i](action)
	}
	return action
}

// Use returns a new chain with the provided middleware appended.
func (chain MiddlewareChain) Use(middleware ...Middleware) MiddlewareChain {
	out := make(MiddlewareChain, 0, len(chain)+len(middleware))
	out = append(out, chain...)
	return append(out, middleware...)
}

// Chain creates a new middleware chain from the provided middleware, preserving
// order.
func Chain(middleware ...Middleware) MiddlewareChain {
	return MiddlewareChain(middleware)
}

// TimeoutError represents a timeout error
type TimeoutError struct {
	Duration time.Duration
	Command  string
}

func (e *TimeoutError) Error() string {
	return "command '" + e.Command + "' timed out after " + e.Duration.String()
}

// RecoveryError represents a panic recovery
type RecoveryError struct {
	Panic   any
	Command string
	Stack   []byte
}

func (e *RecoveryError) Error() string {
	return "command '" + e.Command + "' panicked: " + toString(e.Panic)
}

// Unwrap exposes a panicked error value.
func (e *RecoveryError) Unwrap() error {
	err, _ := e.Panic.(error)
	return err
}

// MiddlewareConfig contains configuration for middleware behavior
type MiddlewareConfig struct {
	LogLevel       LogLevel
	IncludeArgs    bool
	PrintStack     bool
	StackSize      int
	DefaultTimeout time.Duration
}

// LogLevel represents logging levels
type LogLevel int

const (
	LogLevelNone LogLevel = iota
	LogLevelError
	LogLevelInfo
	LogLevelDebug
)

// RequestInfo contains information about command execution
type RequestInfo struct {
	Command   string
	Args      []string
	StartTime time.Time
	Duration  time.Duration
	Error     error
}

// MiddlewareOption mutates a MiddlewareConfig.
type MiddlewareOption func(config *MiddlewareConfig)

// DefaultConfig logs command completion at debug level, captures panic stacks
// and has no default timeout.
func DefaultConfig() *MiddlewareConfig {
	return &MiddlewareConfig{
		LogLevel:    LogLevelDebug,
		IncludeArgs: true,
		PrintStack:  true,
		StackSize:   4096,
	}
}

func WithLogLevel(level LogLevel) MiddlewareOption {
	return func(config *MiddlewareConfig) {
		config.LogLevel = level
	}
}

func WithTimeout(timeout time.Duration) MiddlewareOption {
	return func(config *MiddlewareConfig) {
		config.DefaultTimeout = timeout
	}
}

func WithStackTrace(enabled bool) MiddlewareOption {
	return func(config *MiddlewareConfig) {
		config.PrintStack = enabled
	}
}

func WithArgs(enabled bool) MiddlewareOption {
	return func(config *MiddlewareConfig) {
		config.IncludeArgs = enabled
	}
}

func newConfig(options []MiddlewareOption) *MiddlewareConfig {
	config := DefaultConfig()
	for _, option := range options {
		option(config)
	}
	return config
}

func toString(v any) string {
	switch v := v.(type) {
	case nil:
		return "<nil>"
	case string:
		return v
	case error:
		return v.Error()
	default:
		return fmt.Sprint(v)
	}
}

func getCommandName(ctx Context) string {
	cmd := ctx.Command()
	if cmd == nil {
		return "unknown"
	}
	return cmd.Name()
}
