package benchmark_test

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/spf13/cobra"
	"github.com/urfave/cli/v2"

	"github.com/dzonerzy/esw/argv"
	eswio "github.com/dzonerzy/esw/io"
	"github.com/dzonerzy/esw/snap"
)

// Benchmark a build-like command line
// All three parse the same flags and positionals

var buildArgs = []string{
	"src/index.ts", "--outdir", "dist", "--format", "esm",
	"--minify", "--sourcemap", "--target", "es2019", "--target", "node14",
}

var buildSpec = argv.Spec{
	"--outdir":    argv.Scalar(argv.String),
	"--format":    argv.Scalar(argv.OneOf("cjs", "esm", "iife")),
	"--minify":    argv.Scalar(argv.Boolean),
	"-m":          argv.Alias("--minify"),
	"--sourcemap": argv.Scalar(argv.Boolean),
	"--target":    argv.Array(argv.String),
}

func BenchmarkBuildFlags_Argv(b *testing.B) {
	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		_, _ = argv.Parse(buildArgs, buildSpec)
	}
}

func BenchmarkBuildFlags_Cobra(b *testing.B) {
	args := append([]string{"build"}, buildArgs...)
	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		rootCmd := &cobra.Command{Use: "bench"}
		buildCmd := &cobra.Command{
			Use: "build",
			Run: func(_ *cobra.Command, _ []string) {},
		}
		buildCmd.Flags().String("outdir", "", "Output directory")
		buildCmd.Flags().String("format", "", "Output format")
		buildCmd.Flags().BoolP("minify", "m", false, "Minify")
		buildCmd.Flags().Bool("sourcemap", false, "Sourcemap")
		buildCmd.Flags().StringArray("target", nil, "Targets")
		rootCmd.AddCommand(buildCmd)
		rootCmd.SetArgs(args)
		_ = rootCmd.Execute()
	}
}

func BenchmarkBuildFlags_Urfave(b *testing.B) {
	// urfave/cli stops flag parsing at the first positional
	args := []string{
		"bench", "build", "--outdir", "dist", "--format", "esm",
		"--minify", "--sourcemap", "--target", "es2019", "--target", "node14", "src/index.ts",
	}
	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		app := &cli.App{
			Name:   "bench",
			Writer: io.Discard,
			Commands: []*cli.Command{
				{
					Name: "build",
					Flags: []cli.Flag{
						&cli.StringFlag{Name: "outdir"},
						&cli.StringFlag{Name: "format"},
						&cli.BoolFlag{Name: "minify", Aliases: []string{"m"}},
						&cli.BoolFlag{Name: "sourcemap"},
						&cli.StringSliceFlag{Name: "target"},
					},
					Action: func(_ *cli.Context) error { return nil },
				},
			},
		}
		_ = app.Run(args)
	}
}

// Benchmark unknown flags
// The engine keeps flags missing from the spec; cobra and urfave need
// explicit opt-in to tolerate them

func BenchmarkPassThrough_Argv(b *testing.B) {
	args := []string{"--loader:.png=file", "--define:DEBUG=false", "--banner:js=//x", "--color", "src/a.ts"}
	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		_, _ = argv.Parse(args, buildSpec)
	}
}

func BenchmarkPassThrough_Cobra(b *testing.B) {
	args := []string{"build", "--loader:.png=file", "--define:DEBUG=false", "--banner:js=//x", "--color", "src/a.ts"}
	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		rootCmd := &cobra.Command{Use: "bench"}
		buildCmd := &cobra.Command{
			Use:                "build",
			DisableFlagParsing: true,
			Run:                func(_ *cobra.Command, _ []string) {},
		}
		rootCmd.AddCommand(buildCmd)
		rootCmd.SetArgs(args)
		_ = rootCmd.Execute()
	}
}

// Benchmark command dispatch
// Tests root parsing, command routing and the command parse together

func BenchmarkDispatch_Snap(b *testing.B) {
	buf := &bytes.Buffer{}
	app := snap.New("bench", "benchmark app").WithIO(eswio.New().WithOut(buf).WithErr(buf))
	app.Command("build", "Build").
		Spec(buildSpec).
		Action(func(_ *snap.Context) error { return nil }).
		Default()
	app.Command("watch", "Watch").
		Spec(buildSpec).
		Action(func(_ *snap.Context) error { return nil })

	args := append([]string{"watch"}, buildArgs...)
	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		_ = app.RunWithArgs(context.Background(), args)
	}
}

func BenchmarkDispatch_Cobra(b *testing.B) {
	args := []string{"watch", "--outdir", "dist", "--minify"}
	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		rootCmd := &cobra.Command{Use: "bench"}
		for _, name := range []string{"build", "watch"} {
			cmd := &cobra.Command{
				Use: name,
				Run: func(_ *cobra.Command, _ []string) {},
			}
			cmd.Flags().String("outdir", "", "Output directory")
			cmd.Flags().Bool("minify", false, "Minify")
			rootCmd.AddCommand(cmd)
		}
		rootCmd.SetArgs(args)
		_ = rootCmd.Execute()
	}
}

func BenchmarkDispatch_Urfave(b *testing.B) {
	args := []string{"bench", "watch", "--outdir", "dist", "--minify"}
	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		var commands []*cli.Command
		for _, name := range []string{"build", "watch"} {
			commands = append(commands, &cli.Command{
				Name: name,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "outdir"},
					&cli.BoolFlag{Name: "minify"},
				},
				Action: func(_ *cli.Context) error { return nil },
			})
		}
		app := &cli.App{Name: "bench", Writer: io.Discard, Commands: commands}
		_ = app.Run(args)
	}
}
