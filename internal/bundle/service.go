package bundle

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/evanw/esbuild/pkg/api"
	"golang.org/x/sync/errgroup"
)

// Failure is a build that finished with errors.
type Failure struct {
	Errors   []api.Message
	Warnings []api.Message
}

func (f *Failure) Error() string {
	if len(f.Errors) == 0 {
		return "build failed"
	}
	first := f.Errors[0]
	msg := first.Text
	if loc := first.Location; loc != nil {
		msg = fmt.Sprintf("%s:%d:%d: %s", loc.File, loc.Line, loc.Column, first.Text)
	}
	if n := len(f.Errors); n > 1 {
		return fmt.Sprintf("build failed with %d errors: %s", n, msg)
	}
	return "build failed: " + msg
}

// Result is the settled outcome of one option set.
type Result struct {
	Options *Options
	Build   api.BuildResult
	Err     error
}

// OK reports whether the build produced no errors.
func (r Result) OK() bool { return r.Err == nil }

// Service builds a fixed list of option sets. Incremental sets keep an
// esbuild context that later builds rebuild.
type Service struct {
	options []*Options

	mu       sync.Mutex
	contexts []api.BuildContext
}

// NewService returns a service for the inferred option sets.
func NewService(options []*Options) (*Service, error) {
	if len(options) == 0 {
		return nil, inferenceErrorf("%s", NoOutputMessage)
	}
	return &Service{
		options:  options,
		contexts: make([]api.BuildContext, len(options)),
	}, nil
}

// Options returns the option sets the service builds.
func (s *Service) Options() []*Options { return s.options }

// Build runs every option set concurrently and waits for all of them. With
// clean set, stale output directories are removed first unless incremental
// contexts already exist.
func (s *Service) Build(ctx context.Context, clean bool) ([]Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if clean && !s.warm() {
		if err := removeDirs(StaleDirs(s.options)); err != nil {
			return nil, err
		}
	}

	results := make([]Result, len(s.options))
	var g errgroup.Group
	for i, o := range s.options {
		g.Go(func() error {
			results[i] = s.build(ctx, i, o)
			return nil
		})
	}
	_ = g.Wait()
	return results, nil
}

func (s *Service) build(ctx context.Context, i int, o *Options) Result {
	if !o.Incremental {
		return settle(o, api.Build(o.BuildOptions))
	}

	if s.contexts[i] == nil {
		bctx, cerr := api.Context(o.BuildOptions)
		if cerr != nil {
			return Result{Options: o, Err: &Failure{Errors: cerr.Errors}}
		}
		s.contexts[i] = bctx
	}
	bctx := s.contexts[i]

	stop := context.AfterFunc(ctx, bctx.Cancel)
	defer stop()
	return settle(o, bctx.Rebuild())
}

func (s *Service) warm() bool {
	return slices.ContainsFunc(s.contexts, func(c api.BuildContext) bool { return c != nil })
}

// Dispose releases incremental build contexts.
func (s *Service) Dispose() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, c := range s.contexts {
		if c != nil {
			c.Dispose()
			s.contexts[i] = nil
		}
	}
}

func settle(o *Options, res api.BuildResult) Result {
	r := Result{Options: o, Build: res}
	if len(res.Errors) > 0 {
		r.Err = &Failure{Errors: res.Errors, Warnings: res.Warnings}
	}
	return r
}

// StaleDirs returns the existing output directories that a clean build
// removes. Absolute outdirs and the working directory itself are never
// returned.
func StaleDirs(options []*Options) []string {
	var dirs []string
	for _, o := range options {
		if o.Outdir == "" || filepath.IsAbs(o.Outdir) {
			continue
		}
		cwd, err := filepath.Abs(o.AbsWorkingDir)
		if err != nil {
			continue
		}
		dir := filepath.Join(cwd, o.Outdir)
		if dir == cwd || slices.Contains(dirs, dir) {
			continue
		}
		if rel, err := filepath.Rel(cwd, dir); err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			continue
		}
		info, err := os.Lstat(dir)
		if err != nil || !info.IsDir() {
			continue
		}
		dirs = append(dirs, dir)
	}
	return dirs
}

func removeDirs(dirs []string) error {
	for _, dir := range dirs {
		if err := os.RemoveAll(dir); err != nil {
			return fmt.Errorf("clean %s: %w", dir, err)
		}
	}
	return nil
}

// OutputPaths returns what a watcher should ignore for the option sets: the
// output directory, or the output files when they are written into the
// working directory itself.
func OutputPaths(options []*Options) []string {
	var paths []string
	for _, o := range options {
		cwd, err := filepath.Abs(o.AbsWorkingDir)
		if err != nil {
			continue
		}
		outdir := resolve(cwd, o.Outdir)
		if outdir != cwd {
			if !slices.Contains(paths, outdir) {
				paths = append(paths, outdir)
			}
			continue
		}
		ext := o.OutExtension[".js"]
		if ext == "" {
			ext = ".js"
		}
		for _, e := range o.EntryPointsAdvanced {
			paths = append(paths, filepath.Join(outdir, filepath.FromSlash(e.OutputPath)+ext))
		}
	}
	return paths
}
