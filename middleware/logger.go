package middleware

import (
	"strconv"
	"strings"
	"time"

	"github.com/dzonerzy/esw/internal/pool"
)

var requestInfoPool = pool.NewPoolWithReset(
	func() *RequestInfo {
		return &RequestInfo{Args: make([]string, 0, 8)}
	},
	func(info *RequestInfo) {
		info.Command = ""
		info.Args = info.Args[:0]
		info.StartTime = time.Time{}
		info.Duration = 0
		info.Error = nil
	},
)

// Logger creates a middleware that records each command run on the debug
// channel of the application logger:
//
//	start command=build args=src/index.ts
//	done command=build duration=412ms
//	fail command=build duration=3ms error="build failed"
func Logger(options ...MiddlewareOption) Middleware {
	config := newConfig(options)

	return func(next ActionFunc) ActionFunc {
		return func(ctx Context) error {
			log := ctx.Logger()
			if config.LogLevel == LogLevelNone || log == nil || !log.DebugEnabled() {
				return next(ctx)
			}

			info := requestInfoPool.Get()
			defer requestInfoPool.Put(info)

			info.Command = getCommandName(ctx)
			info.Args = append(info.Args, ctx.Args()...)
			info.StartTime = time.Now()

			if config.LogLevel >= LogLevelDebug {
				log.Debug("%s", formatRequest(info, "start", config))
			}

			err := next(ctx)

			info.Duration = time.Since(info.StartTime)
			info.Error = err

			if level := requestLevel(err); config.LogLevel >= level {
				log.Debug("%s", formatRequest(info, requestEvent(err), config))
			}
			return err
		}
	}
}

// DebugLogger logs every event, including the start of a command.
func DebugLogger() Middleware {
	return Logger(WithLogLevel(LogLevelDebug))
}

// ErrorLogger logs failed commands only.
func ErrorLogger() Middleware {
	return Logger(WithLogLevel(LogLevelError))
}

func requestLevel(err error) LogLevel {
	if err != nil {
		return LogLevelError
	}
	return LogLevelInfo
}

func requestEvent(err error) string {
	if err != nil {
		return "fail"
	}
	return "done"
}

func formatRequest(info *RequestInfo, event string, config *MiddlewareConfig) string {
	b := pool.GetBuilder()
	defer pool.PutBuilder(b)

	b.WriteString(event)
	b.WriteString(" command=")
	b.WriteString(info.Command)

	if info.Duration > 0 {
		b.WriteString(" duration=")
		b.WriteString(info.Duration.Round(time.Millisecond).String())
	}

	if config.IncludeArgs && len(info.Args) > 0 && event == "start" {
		b.WriteString(" args=")
		b.WriteString(strings.Join(info.Args, " "))
	}

	if info.Error != nil {
		b.WriteString(" error=")
		b.WriteString(strconv.Quote(info.Error.Error()))
	}
	return b.String()
}
