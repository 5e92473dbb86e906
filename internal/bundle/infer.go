package bundle

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/evanw/esbuild/pkg/api"

	eswio "github.com/dzonerzy/esw/io"
	"github.com/dzonerzy/esw/internal/manifest"
)

// Mode is the command the options are inferred for.
type Mode int

const (
	ModeBuild Mode = iota
	ModeWatch
)

func (m Mode) String() string {
	if m == ModeWatch {
		return "watch"
	}
	return "build"
}

// ErrInference marks configuration problems found while inferring options.
var ErrInference = errors.New("inference failed")

// InferenceError describes why options could not be inferred.
type InferenceError struct {
	Message string
	Err     error
}

func (e *InferenceError) Error() string { return e.Message }

func (e *InferenceError) Unwrap() error { return e.Err }

func (e *InferenceError) Is(target error) bool { return target == ErrInference }

func inferenceErrorf(format string, args ...any) error {
	return &InferenceError{Message: fmt.Sprintf(format, args...)}
}

// NoOutputMessage is reported when the manifest declares no output at all.
const NoOutputMessage = "Invalid operation. Maybe you forgot to define the main or module field in the package.json file."

var (
	entryExtensions = []string{".js", ".jsx", ".ts", ".tsx"}
	outExtensions   = []string{".js", ".cjs", ".mjs"}
	extensionSuffix = regexp.MustCompile(`\..+$`)
)

// manifestTarget is one output declared by the manifest.
type manifestTarget struct {
	field      string // "main" or "module"
	format     api.Format
	outputPath string
}

// presets pair each output field with the format built for it.
var presets = []struct {
	format api.Format
	field  string
}{
	{api.FormatCommonJS, "main"},
	{api.FormatESModule, "module"},
}

// Inferrer derives complete build option sets from command line options and
// the package manifest of the working directory.
type Inferrer struct {
	log *eswio.Logger
}

// NewInferrer returns an inferrer warning through log. log may be nil.
func NewInferrer(log *eswio.Logger) *Inferrer {
	return &Inferrer{log: log}
}

// Infer returns one option set per output. More than one entry point selects
// multi-entry inference, which yields a single set.
func (in *Inferrer) Infer(opts *Options, mode Mode) ([]*Options, error) {
	cwd, err := filepath.Abs(opts.AbsWorkingDir)
	if err != nil {
		return nil, err
	}

	pkg, err := manifest.Load(cwd)
	if err != nil {
		return nil, &InferenceError{Message: err.Error(), Err: err}
	}

	var sets []*Options
	if len(opts.EntryPoints) > 1 {
		o, err := in.multiEntry(opts, pkg, cwd)
		if err != nil {
			return nil, err
		}
		sets = append(sets, o)
	} else {
		if sets, err = in.monoEntry(opts, pkg, cwd); err != nil {
			return nil, err
		}
	}

	for _, o := range sets {
		if err := checkForbidden(o, mode); err != nil {
			return nil, err
		}
	}
	if len(sets) == 0 {
		return nil, inferenceErrorf("%s", NoOutputMessage)
	}
	return sets, nil
}

func (in *Inferrer) multiEntry(opts *Options, pkg *manifest.Manifest, cwd string) (*Options, error) {
	o := opts.Clone()
	if !o.IsSet("format") {
		o.Format = api.FormatCommonJS
		if pkg.Type == manifest.TypeModule {
			o.Format = api.FormatESModule
		}
	}
	if err := checkType(o.Format, pkg.Type); err != nil {
		return nil, err
	}
	applyStatic(o, cwd)
	markExternals(o, pkg)
	return o, nil
}

func (in *Inferrer) monoEntry(opts *Options, pkg *manifest.Manifest, cwd string) ([]*Options, error) {
	var targets []manifestTarget
	for _, p := range presets {
		out := pkg.Field(p.field)
		if out == "" {
			continue
		}
		if n := len(targets); n > 0 && targets[n-1].outputPath == out {
			continue
		}
		targets = append(targets, manifestTarget{field: p.field, format: p.format, outputPath: out})
	}

	sets := make([]*Options, 0, len(targets))
	for _, t := range targets {
		o := opts.Clone()
		if err := inferFormat(o, t, pkg.Type); err != nil {
			return nil, err
		}
		applyStatic(o, cwd)
		inferOut(o, t)
		if err := ensureEntryPoints(o, t, cwd); err != nil {
			return nil, err
		}
		in.keyEntryPoints(o, t, cwd)
		markExternals(o, pkg)
		sets = append(sets, o)
	}
	return sets, nil
}

// inferFormat builds esm for the module field. The main field builds the
// explicit format, cjs by default, and must agree with the manifest type.
func inferFormat(o *Options, t manifestTarget, pkgType string) error {
	if t.field == "module" {
		o.Format = t.format
		return nil
	}
	if !o.IsSet("format") {
		o.Format = t.format
	}
	return checkType(o.Format, pkgType)
}

func checkType(format api.Format, pkgType string) error {
	switch format {
	case api.FormatCommonJS:
		if pkgType != "" && pkgType != manifest.TypeCommonJS {
			return inferenceErrorf(`"type": "commonjs" is required in the package.json, not %q`, pkgType)
		}
	case api.FormatESModule:
		if pkgType != manifest.TypeModule {
			return inferenceErrorf(`"type": "module" is required in the package.json, not %q`, pkgType)
		}
	}
	return nil
}

func applyStatic(o *Options, cwd string) {
	if !o.IsSet("bundle") {
		o.Bundle = true
	}
	o.LogLevel = api.LogLevelSilent
	o.Write = true
	o.Metafile = true
	o.AbsWorkingDir = cwd
	if !o.IsSet("splitting") {
		o.Splitting = o.Format == api.FormatESModule
	}
}

func inferOut(o *Options, t manifestTarget) {
	if o.OutExtension == nil {
		ext := filepath.Ext(t.outputPath)
		if !slices.Contains(outExtensions, ext) {
			ext = outExtensions[0]
		}
		o.OutExtension = map[string]string{".js": ext}
	}
	if o.Outdir == "" {
		o.Outdir = filepath.Dir(t.outputPath)
	}
}

func ensureEntryPoints(o *Options, t manifestTarget, cwd string) error {
	if len(o.EntryPoints) > 0 || len(o.EntryPointsAdvanced) > 0 {
		return nil
	}

	base := extensionSuffix.ReplaceAllString(filepath.Base(t.outputPath), "")
	names := make([]string, len(entryExtensions))
	for i, ext := range entryExtensions {
		names[i] = base + ext
		candidate := filepath.Join(cwd, names[i])
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			o.EntryPoints = append(o.EntryPoints, candidate)
		}
	}
	if len(o.EntryPoints) > 0 {
		return nil
	}

	dir := cwd
	if real, err := filepath.EvalSymlinks(cwd); err == nil {
		dir = real
	}
	return inferenceErrorf("esw couldn't infer the start point in the current scenario.\n"+
		"  1) Make sure entry file exists (support %s) in %s\n"+
		"  2) Or specify start point cli argument, eg. esw build src/index.ts",
		strings.Join(names, ", "), dir)
}

// keyEntryPoints names every entry after the manifest output so esbuild
// writes e.g. dist/index.mjs for src/main.ts.
func (in *Inferrer) keyEntryPoints(o *Options, t manifestTarget, cwd string) {
	if len(o.EntryPoints) == 0 {
		return
	}
	outdir := resolve(cwd, o.Outdir)
	output := resolve(cwd, t.outputPath)
	rel, err := filepath.Rel(outdir, output)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		rel = filepath.Base(output)
	}
	rel = filepath.ToSlash(rel)
	key := strings.TrimSuffix(rel, filepath.Ext(rel))

	var entries []api.EntryPoint
	for _, entry := range o.EntryPoints {
		if i := slices.IndexFunc(entries, func(e api.EntryPoint) bool { return e.OutputPath == key }); i >= 0 {
			if in.log != nil {
				display, err := filepath.Rel(cwd, output)
				if err != nil {
					display = output
				}
				in.log.Warning("Duplicated outPath detected: %s.", display)
			}
			entries[i].InputPath = entry
			continue
		}
		entries = append(entries, api.EntryPoint{InputPath: entry, OutputPath: key})
	}
	o.EntryPoints = nil
	o.EntryPointsAdvanced = entries
}

// markExternals registers the external plugin ahead of user plugins.
func markExternals(o *Options, pkg *manifest.Manifest) {
	o.Plugins = append([]api.Plugin{ExternalPlugin(pkg.Externals())}, o.Plugins...)
}

func checkForbidden(o *Options, mode Mode) error {
	if o.Incremental && mode != ModeWatch {
		return inferenceErrorf(`"incremental" option only works with "watch" command.`)
	}
	if o.Splitting && o.Format != api.FormatESModule {
		return inferenceErrorf(`"splitting" currently only works with "esm" format, instead of '%s'`, o.FormatName())
	}
	return nil
}

func resolve(cwd, path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(cwd, path)
}
