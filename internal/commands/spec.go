// Package commands wires the build and watch commands: their argument specs,
// the translation of parsed arguments into bundle options, and the actions.
package commands

import (
	"github.com/dzonerzy/esw/argv"
)

var (
	stringList = argv.Array(argv.String)

	// sourcemap: "true" and "false" are booleans, anything else is a mode
	// validated when the option is assigned.
	sourcemapHandler = argv.Func(func(raw argv.Raw, _ string, _ any) any {
		switch raw.Text {
		case "true":
			return true
		case "false":
			return false
		}
		return raw.Text
	})

	// treeShaking: only "true" and "ignore-annotations" are accepted.
	treeShakingHandler = argv.Func(func(raw argv.Raw, _ string, _ any) any {
		switch raw.Text {
		case "true":
			return true
		case "ignore-annotations":
			return raw.Text
		}
		return nil
	})
)

// BuildSpec is the argument spec shared by build and watch. Enum options
// yield nil for unsupported values, which leaves the option unset. Options
// absent from the spec (--loader:.png=file, --define:DEBUG=false, --banner:js=...)
// go through the engine's pass-through handler.
func BuildSpec() argv.Spec {
	return argv.Spec{
		"--absWorkingDir":     argv.Scalar(argv.String),
		"--allowOverwrite":    argv.Scalar(argv.Boolean),
		"--assetNames":        argv.Scalar(argv.String),
		"--bundle":            argv.Scalar(argv.Boolean),
		"--charset":           argv.Scalar(argv.OneOf("ascii", "utf8")),
		"--chunkNames":        argv.Scalar(argv.String),
		"--color":             argv.Scalar(argv.Boolean),
		"--conditions":        stringList,
		"--entryNames":        argv.Scalar(argv.String),
		"--entryPoints":       stringList,
		"--external":          stringList,
		"--format":            argv.Scalar(argv.OneOf("cjs", "esm", "iife")),
		"--globalName":        argv.Scalar(argv.String),
		"--incremental":       argv.Scalar(argv.Boolean),
		"--inject":            stringList,
		"--jsx":               argv.Scalar(argv.OneOf("transform", "preserve")),
		"--jsxFactory":        argv.Scalar(argv.String),
		"--jsxFragment":       argv.Scalar(argv.String),
		"--keepNames":         argv.Scalar(argv.Boolean),
		"--legalComments":     argv.Scalar(argv.OneOf("none", "inline", "eof", "linked", "external")),
		"--logLevel":          argv.Scalar(argv.OneOf("verbose", "debug", "info", "warning", "error", "silent")),
		"--logLimit":          argv.Scalar(argv.Number),
		"--mainFields":        stringList,
		"--metafile":          argv.Scalar(argv.Boolean),
		"--minify":            argv.Scalar(argv.Boolean),
		"--minifyIdentifiers": argv.Scalar(argv.Boolean),
		"--minifySyntax":      argv.Scalar(argv.Boolean),
		"--minifyWhitespace":  argv.Scalar(argv.Boolean),
		"--nodePaths":         stringList,
		"--outbase":           argv.Scalar(argv.String),
		"--outdir":            argv.Scalar(argv.String),
		"--outfile":           argv.Scalar(argv.String),
		"--platform":          argv.Scalar(argv.OneOf("browser", "node", "neutral")),
		"--preserveSymlinks":  argv.Scalar(argv.Boolean),
		"--publicPath":        argv.Scalar(argv.String),
		"--pure":              stringList,
		"--resolveExtensions": stringList,
		"--sourceRoot":        argv.Scalar(argv.String),
		"--sourcemap":         argv.Scalar(sourcemapHandler),
		"--sourcesContent":    argv.Scalar(argv.Boolean),
		"--splitting":         argv.Scalar(argv.Boolean),
		"--target":            stringList,
		"--treeShaking":       argv.Scalar(treeShakingHandler),
		"--tsconfig":          argv.Scalar(argv.String),
		"--write":             argv.Scalar(argv.Boolean),

		"--help": argv.Scalar(argv.Boolean),
		"-h":     argv.Alias("--help"),
	}
}

// WatchSpec is the build spec; incremental builds are only allowed here.
func WatchSpec() argv.Spec {
	return BuildSpec()
}

const BuildUsage = `
Description
  Compiles the codebase for publishing npm package.

Usage
  $ esw build [entry files] [options]

  [entry file] represents the library entry point.
  If no entry is provided, the basename from main and module field in package.json will be used.
  User should always specific a entry point explicitly when the main and module have a different basename.

Options
  Every esbuild build option, e.g. --minify, --format esm, --target es2019,
  --loader:.png=file, --define:DEBUG=false
  --help, -h  Display this message

`

const WatchUsage = `
Description
  Watch files and rebuild when they change.

Usage
  $ esw watch [entry files] [options]

  Accepts the options of esw build. Incremental builds are enabled unless
  --incremental is given explicitly.

`
