package commands

import (
	"errors"
	"os"

	"github.com/dzonerzy/esw/internal/bundle"
	"github.com/dzonerzy/esw/snap"
)

var workingDir = os.Getwd

// Build compiles the package once. Output directories left over from an
// earlier build are removed first.
func Build(ctx *snap.Context) error {
	opts, err := assemble(ctx)
	if err != nil {
		return err
	}
	log := ctx.Logger()

	sets, err := bundle.NewInferrer(log).Infer(opts, bundle.ModeBuild)
	if err != nil {
		return inferenceError(err)
	}
	svc, err := bundle.NewService(sets)
	if err != nil {
		return inferenceError(err)
	}
	defer svc.Dispose()

	log.Debug("building %d output set(s) in %s", len(sets), opts.AbsWorkingDir)
	results, err := svc.Build(ctx.Context(), true)
	if err != nil {
		return err
	}

	switch err := bundle.NewReporter(log).Report(results); {
	case errors.Is(err, bundle.ErrBuildFailed), errors.Is(err, bundle.ErrNoOutput):
		return &snap.ExitError{Code: 1, Err: err}
	default:
		return err
	}
}

func inferenceError(err error) error {
	if errors.Is(err, bundle.ErrInference) {
		return snap.NewError(snap.ErrorTypeInference, err.Error()).WithCause(err)
	}
	return err
}
