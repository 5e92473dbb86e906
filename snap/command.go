package snap

import (
	"github.com/dzonerzy/esw/argv"
	"github.com/dzonerzy/esw/middleware"
)

// Command is a subcommand selected by the first positional argument.
type Command struct {
	name         string
	description  string
	usage        string
	spec         argv.Spec
	Action       ActionFunc
	beforeAction ActionFunc
	afterAction  ActionFunc
	middleware   []middleware.Middleware
}

// Name returns the command name (implements middleware.Command interface)
func (c *Command) Name() string {
	return c.name
}

// Description returns the command description (implements middleware.Command interface)
func (c *Command) Description() string {
	return c.description
}

// Usage is the text printed for --help.
func (c *Command) Usage() string {
	return c.usage
}

// Spec is the argument spec the command's arguments are parsed with. It
// always contains --help and -h.
func (c *Command) Spec() argv.Spec {
	return c.spec
}

// CommandBuilder provides fluent API for building commands
type CommandBuilder struct {
	command *Command
	app     *App
}

// Spec sets the argument spec. --help and -h are added when missing.
func (c *CommandBuilder) Spec(spec argv.Spec) *CommandBuilder {
	c.command.spec = helpSpec.Merge(spec)
	return c
}

// Usage sets the text printed for --help.
func (c *CommandBuilder) Usage(text string) *CommandBuilder {
	c.command.usage = text
	return c
}

// Action sets the action function for the command
func (c *CommandBuilder) Action(fn ActionFunc) *CommandBuilder {
	c.command.Action = fn
	return c
}

// Use adds middleware to the command
func (c *CommandBuilder) Use(middleware ...middleware.Middleware) *CommandBuilder {
	c.command.middleware = append(c.command.middleware, middleware...)
	return c
}

// Before sets a function to run before the command action
func (c *CommandBuilder) Before(fn ActionFunc) *CommandBuilder {
	c.command.beforeAction = fn
	return c
}

// After sets a function to run after the command action
func (c *CommandBuilder) After(fn ActionFunc) *CommandBuilder {
	c.command.afterAction = fn
	return c
}

// Default makes this the command run when the first positional argument
// names no command.
func (c *CommandBuilder) Default() *CommandBuilder {
	c.app.defaultCommand = c.command.name
	return c
}

// App returns the parent application for chaining.
func (c *CommandBuilder) App() *App {
	return c.app
}
