package snap

import (
	"context"
	stdio "io"
	"time"

	"github.com/dzonerzy/esw/argv"
	eswio "github.com/dzonerzy/esw/io"
	"github.com/dzonerzy/esw/middleware"
)

const exitErrorKey = "__exit_error__"

// Context provides execution context and lifecycle management
type Context struct {
	App    *App
	Result argv.Result

	cmd      *Command
	rawArgs  []string
	ctx      context.Context
	cancel   context.CancelFunc
	metadata map[string]any
}

// Context returns the underlying Go context for cancellation/timeouts
func (c *Context) Context() context.Context {
	return c.ctx
}

// Deadline returns the time when work done on behalf of this context should be canceled
func (c *Context) Deadline() (time.Time, bool) {
	return c.ctx.Deadline()
}

// Done returns a channel that's closed when work done on behalf of this context should be canceled
func (c *Context) Done() <-chan struct{} {
	return c.ctx.Done()
}

// Err returns a non-nil error value after Done is closed
func (c *Context) Err() error {
	return c.ctx.Err()
}

// Set stores a key-value pair in the context metadata
func (c *Context) Set(key string, value any) {
	if c.metadata == nil {
		c.metadata = make(map[string]any)
	}
	c.metadata[key] = value
}

// Get retrieves a value from the context metadata
func (c *Context) Get(key string) any {
	if c.metadata == nil {
		return nil
	}
	return c.metadata[key]
}

// Exit helpers integrate with ExitCodeManager. They store an exit request
// in context metadata and cancel the context; App handles mapping at the end.
func (c *Context) Exit(code int) {
	c.Set(exitErrorKey, &ExitError{Code: code})
	c.Cancel()
}

func (c *Context) ExitWithError(err error, code int) {
	c.Set(exitErrorKey, &ExitError{Code: code, Err: err})
	c.Cancel()
}

func (c *Context) ExitOnError(err error) {
	if err == nil {
		return
	}
	c.ExitWithError(err, c.App.ExitCodes().Resolve(err))
}

// Cancel cancels the context
func (c *Context) Cancel() {
	if c.cancel != nil {
		c.cancel()
	}
}

// IO accessors
func (c *Context) IO() *eswio.IOManager  { return c.App.IO() }
func (c *Context) Stdout() stdio.Writer  { return c.App.IO().Out() }
func (c *Context) Stderr() stdio.Writer  { return c.App.IO().Err() }
func (c *Context) Stdin() stdio.Reader   { return c.App.IO().In() }
func (c *Context) Logger() *eswio.Logger { return c.App.Logger() }

// Command returns the executed command (implements middleware.Context interface)
func (c *Context) Command() middleware.Command {
	if c.cmd == nil {
		return nil
	}
	return c.cmd
}

// Args returns positional arguments
func (c *Context) Args() []string {
	return c.Result.Positionals()
}

// NArgs returns the number of positional arguments
func (c *Context) NArgs() int {
	return c.Result.NArg()
}

// Arg returns the positional argument at index i
func (c *Context) Arg(i int) string {
	return c.Result.Arg(i)
}

// RawArgs returns the arguments handed to the command, before parsing.
func (c *Context) RawArgs() []string {
	return c.rawArgs
}

// Bool reports whether a boolean flag was given.
func (c *Context) Bool(name string) bool {
	return c.Result.Bool(name)
}

// String retrieves a string flag value (safe access)
func (c *Context) String(name string) (string, bool) {
	return c.Result.String(name)
}

// Warn reports a recoverable problem, such as an argument the command does
// not know, with the same suggestions an error would get.
func (c *Context) Warn(err *CLIError) {
	err = c.App.errorHandler.ProcessError(err, c.App, c.cmd)
	c.Logger().Warning("%s", err.Error())
}
