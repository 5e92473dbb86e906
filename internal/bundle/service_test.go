package bundle

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildProject(t *testing.T, dir string, mode Mode, configure func(*Options)) (*Service, []Result) {
	t.Helper()
	o := optionsIn(dir)
	if configure != nil {
		configure(o)
	}
	sets, err := NewInferrer(nil).Infer(o, mode)
	require.NoError(t, err)
	svc, err := NewService(sets)
	require.NoError(t, err)
	t.Cleanup(svc.Dispose)

	results, err := svc.Build(context.Background(), true)
	require.NoError(t, err)
	require.Len(t, results, len(sets))
	return svc, results
}

func TestServiceBuild(t *testing.T) {
	dir := project(t, `{"main": "dist/index.js", "module": "dist/index.mjs", "dependencies": {"left-pad": "1"}}`,
		map[string]string{
			"index.ts":        "import pad from 'left-pad'\nexport const answer: number = 42\nexport default pad\n",
			"dist/old/gone.js": "stale",
		})

	_, results := buildProject(t, dir, ModeBuild, nil)
	for _, res := range results {
		require.True(t, res.OK(), "%v", res.Err)
	}

	assert.NoDirExists(t, filepath.Join(dir, "dist", "old"))
	cjs, err := os.ReadFile(filepath.Join(dir, "dist", "index.js"))
	require.NoError(t, err)
	assert.Contains(t, string(cjs), `require("left-pad")`)
	assert.FileExists(t, filepath.Join(dir, "dist", "index.mjs"))

	meta, err := ParseMetafile(results[0].Build.Metafile)
	require.NoError(t, err)
	require.Contains(t, meta.Outputs, "dist/index.js")
	require.NotNil(t, meta.Outputs["dist/index.js"].Bytes)
	assert.Positive(t, *meta.Outputs["dist/index.js"].Bytes)
}

func TestServiceSettlesFailures(t *testing.T) {
	dir := project(t, `{"main": "dist/index.js"}`, map[string]string{
		"index.ts": "import { fib } from './missing'\nexport default fib\n",
	})

	_, results := buildProject(t, dir, ModeBuild, nil)
	res := results[0]
	require.False(t, res.OK())

	var f *Failure
	require.ErrorAs(t, res.Err, &f)
	require.NotEmpty(t, f.Errors)
	assert.Contains(t, f.Errors[0].Text, `Could not resolve "./missing"`)
	require.NotNil(t, f.Errors[0].Location)
	assert.Equal(t, 1, f.Errors[0].Location.Line)
}

func TestServiceIncrementalRebuild(t *testing.T) {
	dir := project(t, `{"main": "dist/index.js"}`, map[string]string{"index.ts": "export const v = 1\n"})

	svc, results := buildProject(t, dir, ModeWatch, func(o *Options) { o.Incremental = true })
	require.True(t, results[0].OK(), "%v", results[0].Err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.ts"), []byte("export const v = 'second'\n"), 0o644))
	results, err := svc.Build(context.Background(), true)
	require.NoError(t, err)
	require.True(t, results[0].OK(), "%v", results[0].Err)

	out, err := os.ReadFile(filepath.Join(dir, "dist", "index.js"))
	require.NoError(t, err)
	assert.Contains(t, string(out), "second")
}

func TestServiceCancelledContext(t *testing.T) {
	svc, err := NewService([]*Options{NewOptions()})
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = svc.Build(ctx, true)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewServiceRequiresOptions(t *testing.T) {
	_, err := NewService(nil)
	require.ErrorIs(t, err, ErrInference)
	assert.Equal(t, NoOutputMessage, err.Error())
}

func TestStaleDirs(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "dist"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "lib"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "file"), nil, 0o644))

	with := func(outdir string) *Options {
		o := optionsIn(dir)
		o.Outdir = outdir
		return o
	}
	dirs := StaleDirs([]*Options{
		with("dist"),
		with("./dist"),
		with("lib"),
		with("."),
		with(""),
		with("missing"),
		with("file"),
		with("../elsewhere"),
		with(filepath.Join(dir, "lib")),
	})
	assert.Equal(t, []string{filepath.Join(dir, "dist"), filepath.Join(dir, "lib")}, dirs)
}

func TestOutputPaths(t *testing.T) {
	dir := t.TempDir()
	inDist := optionsIn(dir)
	inDist.Outdir = "dist"
	again := inDist.Clone()

	inRoot := optionsIn(dir)
	inRoot.Outdir = "."
	inRoot.OutExtension = map[string]string{".js": ".mjs"}
	inRoot.EntryPointsAdvanced = []api.EntryPoint{{InputPath: "src/index.ts", OutputPath: "index"}}

	assert.Equal(t, []string{
		filepath.Join(dir, "dist"),
		filepath.Join(dir, "index.mjs"),
	}, OutputPaths([]*Options{inDist, again, inRoot}))
}
