package commands

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dzonerzy/esw/argv"
	"github.com/dzonerzy/esw/internal/bundle"
	eswio "github.com/dzonerzy/esw/io"
	"github.com/dzonerzy/esw/snap"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func project(t *testing.T, pkg string, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "package.json"), []byte(pkg), 0o644))
	for name, body := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	}
	return dir
}

func newApp(t *testing.T) (*snap.App, *syncBuffer) {
	t.Helper()
	t.Setenv("NODE_ENV", "test")
	out := &syncBuffer{}
	app := snap.New("esw", "").Version("0.0.0-test")
	app.WithIO(eswio.New().WithOut(out).WithErr(out).NoColor())
	Register(app)
	return app, out
}

func TestBuildSpecParsesOptions(t *testing.T) {
	result, err := argv.Parse([]string{
		"src/a.ts", "src/b.ts",
		"--minify", "--format", "esm", "--target", "es2019,chrome80",
		"--sourcemap", "false", "--treeShaking", "nope", "--charset", "latin1",
		"--loader:.png=file",
	}, BuildSpec())
	require.NoError(t, err)

	assert.Equal(t, []string{"src/a.ts", "src/b.ts"}, result.Positionals())
	assert.True(t, result.Bool("--minify"))
	format, _ := result.String("--format")
	assert.Equal(t, "esm", format)

	sourcemap, ok := result.Get("--sourcemap")
	require.True(t, ok)
	assert.Equal(t, false, sourcemap)

	treeShaking, _ := result.Get("--treeShaking")
	assert.Nil(t, treeShaking)
	charset, _ := result.Get("--charset")
	assert.Nil(t, charset)

	loader, ok := result.Get("--loader")
	require.True(t, ok)
	assert.Equal(t, map[string]string{".png": "file"}, loader)
}

func TestAssemble(t *testing.T) {
	result, err := argv.Parse([]string{
		"src/index.ts", "--minify", "--outdir", "lib", "--sourcemap", "inline",
		"--minfy", "--define:DEBUG=false",
	}, BuildSpec())
	require.NoError(t, err)

	var warnings []string
	opts := Assemble(result, "/work/pkg", func(err *snap.CLIError) {
		warnings = append(warnings, err.Error())
	})

	assert.Equal(t, "/work/pkg", opts.AbsWorkingDir)
	assert.Equal(t, []string{"src/index.ts"}, opts.EntryPoints)
	assert.True(t, opts.MinifyWhitespace && opts.MinifySyntax && opts.MinifyIdentifiers)
	assert.Equal(t, "lib", opts.Outdir)
	assert.Equal(t, map[string]string{"DEBUG": "false"}, opts.Define)
	assert.True(t, opts.IsSet("sourcemap"))
	assert.False(t, opts.IsSet("help"))

	if diff := cmp.Diff([]string{"unknown option: --minfy"}, warnings); diff != "" {
		t.Fatalf("warnings mismatch (-want +got):\n%s", diff)
	}
}

func TestAssembleExplicitValuesWin(t *testing.T) {
	result, err := argv.Parse([]string{
		"ignored.ts", "--entryPoints", "main.ts", "--absWorkingDir", "/elsewhere",
	}, BuildSpec())
	require.NoError(t, err)

	opts := Assemble(result, "/work/pkg", func(*snap.CLIError) { t.Fatal("unexpected warning") })
	assert.Equal(t, "/elsewhere", opts.AbsWorkingDir)
	assert.Equal(t, []string{"main.ts"}, opts.EntryPoints)
}

func TestEntryPointsSkipFlags(t *testing.T) {
	assert.Equal(t, []string{"a.ts"}, entryPoints([]string{"a.ts", "-x"}))
	assert.Empty(t, entryPoints(nil))
}

func TestBuildCommand(t *testing.T) {
	dir := project(t, `{"main": "dist/index.js", "module": "dist/index.mjs"}`, map[string]string{
		"index.ts":          "export const answer: number = 42\n",
		"dist/stale/old.js": "stale",
	})
	app, out := newApp(t)

	code := app.ExitCodes().Resolve(app.RunWithArgs(context.Background(), []string{"--absWorkingDir", dir}))
	require.Equal(t, 0, code, out.String())

	assert.FileExists(t, filepath.Join(dir, "dist", "index.js"))
	assert.FileExists(t, filepath.Join(dir, "dist", "index.mjs"))
	assert.NoDirExists(t, filepath.Join(dir, "dist", "stale"))

	text := out.String()
	assert.Contains(t, text, "Files")
	assert.Contains(t, text, "dist/index.js")
	assert.Contains(t, text, "dist/index.mjs")
}

func TestBuildUnknownOptionWarns(t *testing.T) {
	dir := project(t, `{"main": "dist/index.js"}`, map[string]string{"index.ts": "export {}\n"})
	app, out := newApp(t)

	err := app.RunWithArgs(context.Background(), []string{"build", "--absWorkingDir", dir, "--minfy"})
	require.NoError(t, err)
	assert.Contains(t, out.String(), " WARN  unknown option: --minfy\n  Did you mean '--minify'?\n")
}

func TestBuildFailureExitsOne(t *testing.T) {
	dir := project(t, `{"main": "dist/index.js"}`, map[string]string{
		"index.ts": "import { fib } from './missing'\nexport default fib\n",
	})
	app, out := newApp(t)

	err := app.RunWithArgs(context.Background(), []string{"build", "--absWorkingDir", dir})
	require.ErrorIs(t, err, bundle.ErrBuildFailed)
	assert.Equal(t, 1, app.ExitCodes().Resolve(err))
	assert.Contains(t, out.String(), "./missing")
}

func TestBuildInferenceError(t *testing.T) {
	app, out := newApp(t)

	err := app.RunWithArgs(context.Background(), []string{"build", "--absWorkingDir", t.TempDir()})
	require.ErrorIs(t, err, bundle.ErrInference)
	assert.Equal(t, 1, app.ExitCodes().Resolve(err))
	assert.Contains(t, out.String(), `"package.json" is required`)
}

func TestBuildRejectsIncremental(t *testing.T) {
	dir := project(t, `{"main": "dist/index.js"}`, map[string]string{"index.ts": "export {}\n"})
	app, out := newApp(t)

	err := app.RunWithArgs(context.Background(), []string{"build", "--absWorkingDir", dir, "--incremental"})
	require.ErrorIs(t, err, bundle.ErrInference)
	assert.Contains(t, out.String(), `"incremental" option only works with "watch" command.`)
}

func TestBuildHelp(t *testing.T) {
	app, out := newApp(t)

	require.NoError(t, app.RunWithArgs(context.Background(), []string{"build", "-h"}))
	assert.Equal(t, BuildUsage, out.String())
}

func TestWatchRebuildsOnChange(t *testing.T) {
	prev := debounce
	debounce = 20 * time.Millisecond
	t.Cleanup(func() { debounce = prev })

	dir := project(t, `{"main": "dist/index.js"}`, map[string]string{
		"index.ts": "export const version = 1\n",
	})
	app, out := newApp(t)
	output := filepath.Join(dir, "dist", "index.js")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() {
		done <- app.RunWithArgs(ctx, []string{"watch", "--absWorkingDir", dir})
	}()

	require.Eventually(t, func() bool {
		data, err := os.ReadFile(output)
		return err == nil && strings.Contains(string(data), "version = 1")
	}, 10*time.Second, 20*time.Millisecond, out.String())

	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.ts"), []byte("export const version = 2\n"), 0o644))
	require.Eventually(t, func() bool {
		data, err := os.ReadFile(output)
		return err == nil && strings.Contains(string(data), "version = 2")
	}, 10*time.Second, 20*time.Millisecond, out.String())

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("watch did not stop after cancel")
	}

	text := out.String()
	assert.Contains(t, text, "Watching for file changes in "+dir)
	assert.Contains(t, text, " init .")
	assert.Contains(t, text, " change index.ts")
	assert.NotContains(t, text, "Files")
}

func TestNodeEnv(t *testing.T) {
	dir := project(t, `{"main": "dist/index.js"}`, map[string]string{
		"index.ts": "export const env = process.env.NODE_ENV\n",
	})
	app, _ := newApp(t)
	require.NoError(t, os.Unsetenv("NODE_ENV"))
	app.Before(NodeEnv)

	require.NoError(t, app.RunWithArgs(context.Background(), []string{"build", "--absWorkingDir", dir}))
	assert.Equal(t, "production", os.Getenv("NODE_ENV"))

	t.Setenv("NODE_ENV", "staging")
	require.NoError(t, app.RunWithArgs(context.Background(), []string{"build", "--absWorkingDir", dir}))
	assert.Equal(t, "staging", os.Getenv("NODE_ENV"))

	t.Setenv("NODE_ENV", "")
	require.NoError(t, app.RunWithArgs(context.Background(), []string{"watch", "--help"}))
	assert.Equal(t, "development", os.Getenv("NODE_ENV"))
}

func TestRelativePath(t *testing.T) {
	assert.Equal(t, ".", relativePath("/a", "/a"))
	assert.Equal(t, filepath.Join("src", "x.ts"), relativePath("/a", "/a/src/x.ts"))
}
