package bundle

import (
	"errors"

	"github.com/evanw/esbuild/pkg/api"

	eswio "github.com/dzonerzy/esw/io"
)

var (
	// ErrBuildFailed is returned once failures have been printed.
	ErrBuildFailed = errors.New("build failed")
	// ErrNoOutput is returned when the builds wrote nothing.
	ErrNoOutput = errors.New("no-op creation")
)

// Reporter prints build outcomes.
type Reporter struct {
	io  *eswio.IOManager
	log *eswio.Logger
}

// NewReporter returns a reporter writing through log.
func NewReporter(log *eswio.Logger) *Reporter {
	return &Reporter{io: log.IO(), log: log}
}

// Failures prints every failed result and reports whether there was one.
func (r *Reporter) Failures(results []Result) bool {
	failed := false
	for _, res := range results {
		if res.OK() {
			continue
		}
		failed = true
		var f *Failure
		if errors.As(res.Err, &f) {
			PrintFailure(r.io, f)
			continue
		}
		r.log.Error("%v", res.Err)
	}
	return failed
}

// Report prints failures, or the table of written files with their sizes.
func (r *Reporter) Report(results []Result) error {
	if r.Failures(results) {
		return ErrBuildFailed
	}

	outputs := make(map[string]MetafileOutput)
	for _, res := range results {
		if res.Build.Metafile == "" {
			continue
		}
		meta, err := ParseMetafile(res.Build.Metafile)
		if err != nil {
			r.log.Warning("unreadable metafile: %v", err)
			continue
		}
		for name, out := range meta.Outputs {
			outputs[name] = out
		}
		if r.log.DebugEnabled() {
			r.log.Debug("%s", api.AnalyzeMetafile(res.Build.Metafile, api.AnalyzeMetafileOptions{
				Color: r.io.SupportsColor(),
			}))
		}
	}
	if len(outputs) == 0 {
		r.log.Warning("no-op creation")
		return ErrNoOutput
	}

	rows := [][]string{{"Files", "Size"}}
	for _, name := range (&Metafile{Outputs: outputs}).Files() {
		size := "unknown"
		if b := outputs[name].Bytes; b != nil {
			size = r.io.Size(*b)
		}
		rows = append(rows, []string{name, size})
	}
	r.io.PrintTable(rows, eswio.AlignLeft)
	return nil
}
