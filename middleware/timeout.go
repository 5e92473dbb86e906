package middleware

import (
	"context"
	"time"
)

// Timeout creates a middleware that enforces a timeout on command execution.
// A duration <= 0 disables it.
func Timeout(duration time.Duration) Middleware {
	return TimeoutWithGracefulShutdown(duration, 0)
}

// TimeoutWithGracefulShutdown cancels the command context once timeout is
// reached, then waits up to gracePeriod for the action to return on its own.
// Work that honors cancellation (esbuild contexts, the watcher) gets the
// chance to release its resources before the TimeoutError is reported.
func TimeoutWithGracefulShutdown(timeout, gracePeriod time.Duration) Middleware {
	return func(next ActionFunc) ActionFunc {
		if timeout <= 0 {
			return next
		}
		return func(ctx Context) error {
			timer := time.NewTimer(timeout)
			defer timer.Stop()

			resultChan := make(chan error, 1)
			go func() {
				defer func() {
					if r := recover(); r != nil {
						resultChan <- &RecoveryError{
							Panic:   r,
							Command: getCommandName(ctx),
						}
					}
				}()
				resultChan <- next(ctx)
			}()

			select {
			case err := <-resultChan:
				return err
			case <-ctx.Done():
				return context.Canceled
			case <-timer.C:
			}

			ctx.Cancel()
			timeoutErr := &TimeoutError{Duration: timeout, Command: getCommandName(ctx)}
			if gracePeriod <= 0 {
				return timeoutErr
			}

			grace := time.NewTimer(gracePeriod)
			defer grace.Stop()
			select {
			case <-resultChan:
			case <-grace.C:
			}
			return timeoutErr
		}
	}
}

// TimeoutPerCommand creates a timeout middleware with different timeouts per
// command. If a command name is not present in commandTimeouts, defaultTimeout
// is used.
func TimeoutPerCommand(commandTimeouts map[string]time.Duration, defaultTimeout time.Duration) Middleware {
	return DynamicTimeout(func(ctx Context) time.Duration {
		if timeout, ok := commandTimeouts[getCommandName(ctx)]; ok {
			return timeout
		}
		return defaultTimeout
	})
}

// DynamicTimeout creates a timeout middleware where duration is computed at
// runtime from the Context. If the computed duration is <= 0, the action runs
// without a timeout.
func DynamicTimeout(timeoutFunc func(ctx Context) time.Duration) Middleware {
	return func(next ActionFunc) ActionFunc {
		return func(ctx Context) error {
			return Timeout(timeoutFunc(ctx))(next)(ctx)
		}
	}
}

// TimeoutWithDefault creates a timeout middleware with the default timeout from config
func TimeoutWithDefault(options ...MiddlewareOption) Middleware {
	return Timeout(newConfig(options).DefaultTimeout)
}
