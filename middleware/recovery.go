package middleware

import (
	"runtime"
)

// Metadata keys written by SafeRecovery.
const (
	PanicStackKey = "recovery.stack"
	PanicValueKey = "recovery.value"
)

// Recovery creates a middleware that turns panics during command execution
// into a *RecoveryError. With PrintStack the stack goes to the debug log.
func Recovery(options ...MiddlewareOption) Middleware {
	config := newConfig(options)

	return func(next ActionFunc) ActionFunc {
		return func(ctx Context) (err error) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}
				recoveryErr := &RecoveryError{
					Panic:   r,
					Command: getCommandName(ctx),
					Stack:   captureStack(config),
				}
				if log := ctx.Logger(); log != nil && len(recoveryErr.Stack) > 0 {
					log.Debug("panic in command '%s': %v\n%s", recoveryErr.Command, r, recoveryErr.Stack)
				}
				err = recoveryErr
			}()

			return next(ctx)
		}
	}
}

// RecoveryWithHandler creates a recovery middleware with a custom panic handler
func RecoveryWithHandler(
	handler func(panicVal any, command string, stack []byte) error,
	options ...MiddlewareOption,
) Middleware {
	config := newConfig(options)

	return func(next ActionFunc) ActionFunc {
		return func(ctx Context) (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = handler(r, getCommandName(ctx), captureStack(config))
				}
			}()

			return next(ctx)
		}
	}
}

// SafeRecovery never logs; the stack and panic value are stored in the
// context metadata under PanicStackKey and PanicValueKey.
func SafeRecovery() Middleware {
	return RecoveryWithHandler(func(r any, command string, stack []byte) error {
		return &RecoveryError{Panic: r, Command: command, Stack: stack}
	}, WithStackTrace(true)).then(func(ctx Context, err error) {
		if re, ok := err.(*RecoveryError); ok { //nolint:errorlint // produced above, never wrapped
			ctx.Set(PanicStackKey, string(re.Stack))
			ctx.Set(PanicValueKey, re.Panic)
		}
	})
}

// then runs hook after the wrapped action returned.
func (m Middleware) then(hook func(Context, error)) Middleware {
	return func(next ActionFunc) ActionFunc {
		wrapped := m(next)
		return func(ctx Context) error {
			err := wrapped(ctx)
			hook(ctx, err)
			return err
		}
	}
}

func captureStack(config *MiddlewareConfig) []byte {
	if !config.PrintStack || config.StackSize <= 0 {
		return nil
	}
	stack := make([]byte, config.StackSize)
	return stack[:runtime.Stack(stack, false)]
}
