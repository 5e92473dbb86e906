package snap

import (
	"errors"
	"reflect"

	"github.com/dzonerzy/esw/middleware"
)

// ExitError is a sentinel used to request a specific exit code from inside actions.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return "exit"
}

// Unwrap returns the wrapped error.
func (e *ExitError) Unwrap() error { return e.Err }

// ExitCodeDefaults holds common default codes.
type ExitCodeDefaults struct {
	Success       int // default: 0
	GeneralError  int // default: 1
	MisusageError int // default: 2
	InternalError int // default: 70 (EX_SOFTWARE)
}

func defaultExitDefaults() ExitCodeDefaults {
	return ExitCodeDefaults{Success: 0, GeneralError: 1, MisusageError: 2, InternalError: 70}
}

// ExitCodeManager maps errors and categories to process exit codes.
type ExitCodeManager struct {
	codesByName map[string]int
	codesByType map[reflect.Type]int
	codesByCLI  map[ErrorType]int
	defaults    ExitCodeDefaults
}

func newExitCodeManager() *ExitCodeManager {
	m := &ExitCodeManager{
		codesByName: make(map[string]int),
		codesByType: make(map[reflect.Type]int),
		codesByCLI:  make(map[ErrorType]int),
		defaults:    defaultExitDefaults(),
	}
	m.codesByCLI[ErrorTypeUnknownCommand] = m.defaults.MisusageError
	m.codesByCLI[ErrorTypeUnknownArgument] = m.defaults.MisusageError
	m.codesByCLI[ErrorTypeOptionRequiresArgument] = m.defaults.MisusageError
	m.codesByCLI[ErrorTypeMalformedSpec] = m.defaults.InternalError
	m.codesByCLI[ErrorTypeInternal] = m.defaults.InternalError
	m.codesByCLI[ErrorTypeBuildFailed] = m.defaults.GeneralError
	m.codesByCLI[ErrorTypeInference] = m.defaults.GeneralError

	m.codesByType[reflect.TypeOf(&middleware.TimeoutError{})] = m.defaults.GeneralError
	m.codesByType[reflect.TypeOf(&middleware.RecoveryError{})] = m.defaults.InternalError
	return m
}

// Define registers a named exit-code mapping. The name is user-defined and
// intended for documentation; it does not affect resolution.
func (e *ExitCodeManager) Define(name string, code int) *ExitCodeManager {
	e.codesByName[name] = code
	return e
}

// Code returns a code registered with Define.
func (e *ExitCodeManager) Code(name string) (int, bool) {
	code, ok := e.codesByName[name]
	return code, ok
}

// DefineError maps a concrete error value (by its dynamic type) to an exit
// code.
func (e *ExitCodeManager) DefineError(err error, code int) *ExitCodeManager {
	if err == nil {
		return e
	}
	e.codesByType[reflect.TypeOf(err)] = code
	return e
}

// DefineCLI overrides the exit code used for a CLI error category.
func (e *ExitCodeManager) DefineCLI(typ ErrorType, code int) *ExitCodeManager {
	e.codesByCLI[typ] = code
	return e
}

// Default replaces the manager's default codes.
func (e *ExitCodeManager) Default(d ExitCodeDefaults) *ExitCodeManager {
	e.defaults = d
	return e
}

// Resolve converts an error to an exit code according to registered mappings.
// Precedence:
//  1. ExitError (requested code)
//  2. CLIError category mapping (DefineCLI)
//  3. Concrete error type mapping (DefineError)
//  4. Default codes
func (e *ExitCodeManager) Resolve(err error) int {
	if err == nil {
		return e.defaults.Success
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}

	var cli *CLIError
	if errors.As(err, &cli) {
		if code, ok := e.codesByCLI[cli.Type]; ok {
			return code
		}
		return e.defaults.GeneralError
	}

	for t, code := range e.codesByType {
		if errors.As(err, reflect.New(t).Interface()) {
			return code
		}
	}

	return e.defaults.GeneralError
}
