package commands

import (
	"errors"
	"strings"

	"github.com/dzonerzy/esw/argv"
	"github.com/dzonerzy/esw/internal/bundle"
	"github.com/dzonerzy/esw/snap"
)

// WarnFunc reports an argument that was dropped.
type WarnFunc func(*snap.CLIError)

// Assemble turns a parsed command line into bundle options. Every key except
// --help is copied under its dash-less name; keys bundle.Options does not
// know and values it rejects are reported through warn and skipped.
// absWorkingDir defaults to cwd and entryPoints to the positionals.
func Assemble(result argv.Result, cwd string, warn WarnFunc) *bundle.Options {
	opts := bundle.NewOptions()

	for _, key := range result.Keys() {
		if key == "--help" {
			continue
		}
		value, _ := result.Get(key)
		name := strings.TrimLeft(key, "-")
		err := opts.Set(name, value)
		switch {
		case err == nil:
		case errors.Is(err, bundle.ErrUnknownOption):
			warn(snap.NewError(snap.ErrorTypeUnknownArgument, "unknown option: "+key).
				WithContext("flag", key).
				WithCause(err))
		default:
			warn(snap.NewError(snap.ErrorTypeUnknownArgument, err.Error()).WithCause(err))
		}
	}

	if !opts.IsSet("absWorkingDir") {
		_ = opts.Set("absWorkingDir", cwd)
	}
	if !opts.IsSet("entryPoints") {
		if entries := entryPoints(result.Positionals()); len(entries) > 0 {
			_ = opts.Set("entryPoints", entries)
		}
	}
	return opts
}

func entryPoints(positionals []string) []string {
	out := make([]string, 0, len(positionals))
	for _, p := range positionals {
		if !strings.HasPrefix(p, "-") {
			out = append(out, p)
		}
	}
	return out
}

func assemble(ctx *snap.Context) (*bundle.Options, error) {
	cwd, err := workingDir()
	if err != nil {
		return nil, err
	}
	return Assemble(ctx.Result, cwd, ctx.Warn), nil
}
