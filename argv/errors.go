package argv

import "errors"

// ErrorType categorizes parse failures.
type ErrorType string

const (
	// ErrorTypeMalformedSpec is a programmer error in the spec table.
	ErrorTypeMalformedSpec ErrorType = "malformed_spec"
	// ErrorTypeOptionRequiresArgument is a user input error.
	ErrorTypeOptionRequiresArgument ErrorType = "option_requires_argument"
)

// Sentinels matched by *ParseError through errors.Is.
var (
	ErrMalformedSpec          = errors.New("malformed spec")
	ErrOptionRequiresArgument = errors.New("option requires argument")
)

// ParseError is the only error type returned by Parse.
type ParseError struct {
	Type    ErrorType
	Message string
	// Key is the offending spec key (MalformedSpec).
	Key string
	// Flag is the flag as it appeared on the command line.
	Flag string
	// AliasOf is the canonical key Flag resolved to, empty when Flag is canonical.
	AliasOf string
}

func (e *ParseError) Error() string {
	return e.Message
}

// Is makes errors.Is(err, ErrOptionRequiresArgument) and friends work.
func (e *ParseError) Is(target error) bool {
	switch target { //nolint:errorlint // sentinel identity
	case ErrMalformedSpec:
		return e.Type == ErrorTypeMalformedSpec
	case ErrOptionRequiresArgument:
		return e.Type == ErrorTypeOptionRequiresArgument
	}
	return false
}

func newMalformedSpec(key, msg string) *ParseError {
	return &ParseError{Type: ErrorTypeMalformedSpec, Message: msg, Key: key}
}

func newMissingValue(flag, canonical string) *ParseError {
	msg := "option requires argument: " + flag
	alias := ""
	if canonical != flag {
		alias = canonical
		msg += " (alias for " + canonical + ")"
	}
	return &ParseError{Type: ErrorTypeOptionRequiresArgument, Message: msg, Flag: flag, AliasOf: alias}
}

func newBundledValue(flag, canonical string) *ParseError {
	msg := "option requires argument (but was followed by another short argument): " + flag
	alias := ""
	if canonical != flag {
		alias = canonical
		msg += " (alias for " + canonical + ")"
	}
	return &ParseError{
		Type:    ErrorTypeOptionRequiresArgument,
		Message: msg,
		Flag:    flag,
		AliasOf: alias,
	}
}
