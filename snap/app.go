// Package snap is the application layer around the argv engine: commands,
// the root dispatcher, help and version output, error presentation and exit
// codes.
package snap

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/dzonerzy/esw/argv"
	"github.com/dzonerzy/esw/internal/fuzzy"
	eswio "github.com/dzonerzy/esw/io"
	"github.com/dzonerzy/esw/middleware"
)

// ActionFunc defines the command execution function
type ActionFunc func(*Context) error

var helpSpec = argv.Spec{
	"--help": argv.Scalar(argv.Boolean),
	"-h":     argv.Alias("--help"),
}

var versionSpec = argv.Spec{
	"--version": argv.Scalar(argv.Boolean),
	"-v":        argv.Alias("--version"),
}

// App represents the main CLI application
type App struct {
	name        string
	description string
	version     string
	usage       string

	commands       map[string]*Command
	order          []string
	defaultCommand string
	rootSpec       argv.Spec

	beforeAction ActionFunc
	afterAction  ActionFunc

	errorHandler *ErrorHandler
	middleware   []middleware.Middleware

	ioManager *eswio.IOManager
	logger    *eswio.Logger
	exitCodes *ExitCodeManager

	pathExists func(string) bool
}

// New creates a new CLI application with fluent API
func New(name, description string) *App {
	m := eswio.New()
	return &App{
		name:         name,
		description:  description,
		commands:     make(map[string]*Command),
		rootSpec:     helpSpec.Merge(versionSpec),
		errorHandler: NewErrorHandler(),
		ioManager:    m,
		logger:       eswio.NewLogger(m),
		pathExists: func(path string) bool {
			_, err := os.Stat(path)
			return err == nil
		},
	}
}

// Name returns the application name.
func (a *App) Name() string { return a.name }

// Version sets the application version
func (a *App) Version(version string) *App {
	a.version = version
	return a
}

// Usage replaces the generated root usage text.
func (a *App) Usage(text string) *App {
	a.usage = text
	return a
}

// Use adds middleware to the application
func (a *App) Use(middleware ...middleware.Middleware) *App {
	a.middleware = append(a.middleware, middleware...)
	return a
}

// Before sets a function to run before any command action
func (a *App) Before(fn ActionFunc) *App {
	a.beforeAction = fn
	return a
}

// After sets a function to run after any command action
func (a *App) After(fn ActionFunc) *App {
	a.afterAction = fn
	return a
}

// IO returns the application's IOManager for fluent configuration.
func (a *App) IO() *eswio.IOManager {
	return a.ioManager
}

// WithIO replaces the IOManager. The logger is rebuilt on top of it.
func (a *App) WithIO(m *eswio.IOManager) *App {
	debug := a.logger.DebugEnabled()
	a.ioManager = m
	a.logger = eswio.NewLogger(m).WithDebug(debug)
	return a
}

// Logger returns the application logger.
func (a *App) Logger() *eswio.Logger {
	return a.logger
}

// Debug enables debug logging.
func (a *App) Debug(enabled bool) *App {
	a.logger.WithDebug(enabled)
	return a
}

// ErrorHandler returns the app's error handler for configuration
func (a *App) ErrorHandler() *ErrorHandler {
	return a.errorHandler
}

// Command adds a command to the application
func (a *App) Command(name, description string) *CommandBuilder {
	cmd := &Command{
		name:        name,
		description: description,
		spec:        helpSpec.Merge(nil),
	}
	if _, exists := a.commands[name]; !exists {
		a.order = append(a.order, name)
	}
	a.commands[name] = cmd
	return &CommandBuilder{command: cmd, app: a}
}

// Lookup returns a registered command.
func (a *App) Lookup(name string) (*Command, bool) {
	cmd, ok := a.commands[name]
	return cmd, ok
}

// Run parses os.Args and executes the selected command.
func (a *App) Run() error {
	return a.RunContext(context.Background())
}

// RunContext runs the application with a context for cancellation
func (a *App) RunContext(ctx context.Context) error {
	return a.RunWithArgs(ctx, os.Args[1:])
}

// RunWithArgs dispatches args:
//
//	esw --version          prints the version
//	esw --help             prints the root usage
//	esw watch src/a.ts     runs watch with [src/a.ts]
//	esw src/a.ts --minify  runs the default command with every argument
//
// Errors are displayed before being returned; an interrupt that cancelled
// ctx is not an error.
func (a *App) RunWithArgs(ctx context.Context, args []string) error {
	err := a.dispatch(ctx, args)
	if err != nil && ctx.Err() != nil && errors.Is(err, context.Canceled) {
		return nil
	}
	a.display(err)
	return err
}

func (a *App) dispatch(ctx context.Context, args []string) error {
	root, err := argv.Parse(args, a.rootSpec)
	if err != nil {
		return a.handleParseError(err, nil)
	}

	if root.Bool("--version") {
		return a.showVersion()
	}

	help := root.Bool("--help")
	name := root.Arg(0)
	cmd, valid := a.commands[name]
	if !valid {
		if help {
			return a.showHelp()
		}
		if unknown := a.unknownCommand(name); unknown != nil {
			return unknown
		}
		if cmd, valid = a.commands[a.defaultCommand]; !valid {
			return a.showHelp()
		}
		name = ""
	}

	forwarded := forwardArgs(args, name, help)
	return a.runCommand(ctx, cmd, forwarded)
}

// unknownCommand returns an error when name is not a path on disk and reads
// like a misspelled command. Anything else goes to the default command.
func (a *App) unknownCommand(name string) error {
	if name == "" || !a.errorHandler.suggestCommands || a.pathExists(name) {
		return nil
	}
	if fuzzy.FindBestCommand(name, a.order, a.errorHandler.maxDistance) == "" {
		return nil
	}
	cliErr := NewError(ErrorTypeUnknownCommand, "unknown command: "+name).WithContext("command", name)
	return a.errorHandler.ProcessError(cliErr, a, nil)
}

// forwardArgs drops the root flags and the command token, and re-appends
// --help so the command prints its own usage.
func forwardArgs(args []string, command string, help bool) []string {
	out := make([]string, 0, len(args)+1)
	for _, arg := range args {
		switch {
		case arg == "--version" || arg == "-v" || arg == "--help" || arg == "-h":
			continue
		case command != "" && arg == command:
			command = ""
			continue
		}
		out = append(out, arg)
	}
	if help {
		out = append(out, "--help")
	}
	return out
}

func (a *App) runCommand(ctx context.Context, cmd *Command, args []string) error {
	ctxWithCancel, cancel := context.WithCancel(ctx)
	defer cancel()

	execCtx := &Context{
		App:      a,
		cmd:      cmd,
		rawArgs:  args,
		ctx:      ctxWithCancel,
		cancel:   cancel,
		metadata: make(map[string]any),
	}

	if a.beforeAction != nil {
		if err := a.beforeAction(execCtx); err != nil {
			return err
		}
	}

	result, err := argv.Parse(args, cmd.spec)
	if err != nil {
		return a.handleParseError(err, cmd)
	}
	execCtx.Result = result

	var actionErr error
	switch {
	case result.Bool("--help"):
		actionErr = a.showCommandHelp(cmd)
	case cmd.Action == nil:
		actionErr = a.showCommandHelp(cmd)
	default:
		if cmd.beforeAction != nil {
			if err := cmd.beforeAction(execCtx); err != nil {
				return err
			}
		}
		actionErr = a.wrapActionWithMiddleware(cmd.Action, cmd)(execCtx)
		if cmd.afterAction != nil {
			if afterErr := cmd.afterAction(execCtx); afterErr != nil && actionErr == nil {
				actionErr = afterErr
			}
		}
	}

	if ee, ok := execCtx.Get(exitErrorKey).(*ExitError); ok && ee != nil {
		actionErr = ee
	}

	if a.afterAction != nil {
		if afterErr := a.afterAction(execCtx); afterErr != nil && actionErr == nil {
			actionErr = afterErr
		}
	}
	return actionErr
}

// ExitCodes returns the exit-code manager for this app. Use it to override
// defaults or register custom mappings. Resolution precedence is:
// ExitError > CLI category (DefineCLI) > concrete error type (DefineError) > defaults.
func (a *App) ExitCodes() *ExitCodeManager {
	if a.exitCodes == nil {
		a.exitCodes = newExitCodeManager()
	}
	return a.exitCodes
}

// RunAndGetExitCode executes the app and returns the mapped exit code.
func (a *App) RunAndGetExitCode(ctx context.Context) int {
	return a.ExitCodes().Resolve(a.RunContext(ctx))
}

// RunAndExit executes the app and terminates the process with the mapped exit
// code.
func (a *App) RunAndExit(ctx context.Context) {
	os.Exit(a.RunAndGetExitCode(ctx))
}

// wrapActionWithMiddleware wraps the action with app-level and command-level middleware
func (a *App) wrapActionWithMiddleware(action ActionFunc, cmd *Command) ActionFunc {
	allMiddleware := make([]middleware.Middleware, 0, len(a.middleware)+len(cmd.middleware))
	allMiddleware = append(allMiddleware, a.middleware...)
	allMiddleware = append(allMiddleware, cmd.middleware...)

	if len(allMiddleware) == 0 {
		return action
	}

	middlewareAction := func(ctx middleware.Context) error {
		snapCtx, ok := ctx.(*Context)
		if !ok {
			return NewError(ErrorTypeInternal, "invalid middleware context type")
		}
		return action(snapCtx)
	}
	wrapped := middleware.Chain(allMiddleware...).Apply(middlewareAction)

	return func(ctx *Context) error {
		return wrapped(ctx)
	}
}

// handleParseError converts an engine error to a CLIError, displays it and,
// for usage errors, prints the usage of cmd (or the root usage).
func (a *App) handleParseError(err error, cmd *Command) error {
	var parseErr *argv.ParseError
	if !errors.As(err, &parseErr) {
		return err
	}
	cliErr := a.errorHandler.ProcessError(FromParseError(parseErr), a, cmd)
	a.errorHandler.DisplayError(cliErr, a.logger)

	if a.errorHandler.showHelpOnError && cliErr.Type == ErrorTypeOptionRequiresArgument {
		if cmd != nil {
			_ = a.showCommandHelp(cmd)
		} else {
			_ = a.showHelp()
		}
	}
	return cliErr
}

// display shows errors nobody has shown yet. ExitError is a request, not a
// failure report, and stays silent.
func (a *App) display(err error) {
	if err == nil || Displayed(err) {
		return
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return
	}
	var cliErr *CLIError
	if errors.As(err, &cliErr) {
		a.errorHandler.DisplayError(cliErr, a.logger)
		return
	}
	a.logger.Error("%s", err.Error())
}

func (a *App) showVersion() error {
	_, err := fmt.Fprintf(a.ioManager.Out(), "v%s\n", a.version)
	return err
}

func (a *App) showHelp() error {
	text := a.usage
	if text == "" {
		text = a.rootUsage()
	}
	_, err := fmt.Fprint(a.ioManager.Out(), text)
	return err
}

func (a *App) showCommandHelp(cmd *Command) error {
	text := cmd.usage
	if text == "" {
		text = fmt.Sprintf("Usage\n  $ %s %s [options]\n\n  %s\n", a.name, cmd.name, cmd.description)
	}
	_, err := fmt.Fprint(a.ioManager.Out(), text)
	return err
}

// rootUsage lists the commands in registration order.
func (a *App) rootUsage() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Usage\n  $ %s <command>\n\n", a.name)
	if len(a.order) > 0 {
		fmt.Fprintf(&b, "  Available commands\n    %s\n\n", strings.Join(a.order, ", "))
	}
	b.WriteString("  Options\n")
	b.WriteString("    --version, -v Show version number\n")
	b.WriteString("    --help, -h Display help messages\n")
	if len(a.order) > 0 {
		example := a.defaultCommand
		if !slices.Contains(a.order, example) {
			example = a.order[0]
		}
		fmt.Fprintf(&b, "\n  For more information run a command with the --help flag\n    $ %s %s --help\n", a.name, example)
	}
	return b.String()
}
