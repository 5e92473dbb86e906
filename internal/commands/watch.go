package commands

import (
	"context"
	"path/filepath"
	"time"

	"github.com/dzonerzy/esw/internal/bundle"
	"github.com/dzonerzy/esw/internal/watch"
	eswio "github.com/dzonerzy/esw/io"
	"github.com/dzonerzy/esw/snap"
)

const clockFormat = "15:04:05"

// debounce is the watcher quiet period; tests shorten it.
var debounce = watch.DefaultDebounce

// Watch builds once, then rebuilds whenever a file below the working
// directory changes. Only failures are printed after a rebuild. It returns
// when the context is cancelled.
func Watch(ctx *snap.Context) error {
	opts, err := assemble(ctx)
	if err != nil {
		return err
	}
	if !opts.IsSet("incremental") {
		_ = opts.Set("incremental", true)
	}
	log := ctx.Logger()
	m := ctx.IO()

	sets, err := bundle.NewInferrer(log).Infer(opts, bundle.ModeWatch)
	if err != nil {
		return inferenceError(err)
	}
	svc, err := bundle.NewService(sets)
	if err != nil {
		return inferenceError(err)
	}
	defer svc.Dispose()

	cwd := opts.AbsWorkingDir
	m.ClearScreen()
	log.Wait("[%s] Watching for file changes in %s", time.Now().Format(clockFormat), cwd)

	w, err := watch.New(watch.Config{
		Root:     cwd,
		Ignore:   bundle.OutputPaths(sets),
		Debounce: debounce,
		Initial:  true,
		Logger:   log,
	})
	if err != nil {
		return err
	}
	defer w.Close()

	reporter := bundle.NewReporter(log)
	green := eswio.NewStyle().Fg(eswio.Green)

	return w.Run(ctx.Context(), func(c context.Context, ev watch.Event) {
		log.Wait("%s %s %s",
			m.Faint(ev.Time.Format(clockFormat)),
			green.Sprint(m, ev.Op),
			m.Faint(relativePath(cwd, ev.Path)))

		results, err := svc.Build(c, false)
		if err != nil {
			if c.Err() == nil {
				log.Error("%v", err)
			}
			return
		}
		reporter.Failures(results)
	})
}

func relativePath(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == "" {
		return "."
	}
	return rel
}
