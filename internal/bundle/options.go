// Package bundle infers esbuild options from a package manifest, runs the
// builds and reports their outcome.
package bundle

import (
	"errors"
	"fmt"
	"maps"
	"math"
	"slices"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
)

// ErrUnknownOption is returned by Options.Set for names esw does not forward.
var ErrUnknownOption = errors.New("unknown build option")

// OptionNames lists every option name accepted by Options.Set.
var OptionNames = []string{
	"absWorkingDir", "allowOverwrite", "assetNames", "banner", "bundle",
	"charset", "chunkNames", "color", "conditions", "define", "entryNames",
	"entryPoints", "external", "footer", "format", "globalName", "incremental",
	"inject", "jsx", "jsxFactory", "jsxFragment", "keepNames", "legalComments",
	"loader", "logLevel", "logLimit", "mainFields", "metafile", "minify",
	"minifyIdentifiers", "minifySyntax", "minifyWhitespace", "nodePaths",
	"outExtension", "outbase", "outdir", "outfile", "platform",
	"preserveSymlinks", "publicPath", "pure", "resolveExtensions",
	"sourceRoot", "sourcemap", "sourcesContent", "splitting", "target",
	"treeShaking", "tsconfig", "write",
}

// Options are esbuild build options plus the esw-only settings. Options
// remembers which names were set explicitly so inference only fills gaps.
type Options struct {
	api.BuildOptions

	// Incremental keeps an esbuild context alive between builds.
	Incremental bool

	set map[string]bool
}

// NewOptions returns empty options.
func NewOptions() *Options {
	return &Options{set: make(map[string]bool)}
}

// IsSet reports whether name was assigned through Set.
func (o *Options) IsSet(name string) bool { return o.set[name] }

// Clone returns a copy that can be modified without touching o. Slices and
// maps replaced by inference are copied.
func (o *Options) Clone() *Options {
	c := *o
	c.set = maps.Clone(o.set)
	c.EntryPoints = slices.Clone(o.EntryPoints)
	c.EntryPointsAdvanced = slices.Clone(o.EntryPointsAdvanced)
	c.Plugins = slices.Clone(o.Plugins)
	c.OutExtension = maps.Clone(o.OutExtension)
	if c.set == nil {
		c.set = make(map[string]bool)
	}
	return &c
}

// FormatName is the command line spelling of the build format.
func (o *Options) FormatName() string { return formatName(o.Format) }

// Set assigns the option called name from a parsed command line value: bool,
// string, float64, []any or map[string]string. A nil value leaves the option
// untouched.
func (o *Options) Set(name string, value any) error {
	if value == nil {
		return nil
	}
	if o.set == nil {
		o.set = make(map[string]bool)
	}
	if err := o.assign(name, value); err != nil {
		return err
	}
	o.set[name] = true
	return nil
}

func (o *Options) assign(name string, value any) error {
	b := &o.BuildOptions
	switch name {
	case "absWorkingDir":
		return setString(&b.AbsWorkingDir, name, value)
	case "allowOverwrite":
		return setBool(&b.AllowOverwrite, name, value)
	case "assetNames":
		return setString(&b.AssetNames, name, value)
	case "bundle":
		return setBool(&b.Bundle, name, value)
	case "chunkNames":
		return setString(&b.ChunkNames, name, value)
	case "entryNames":
		return setString(&b.EntryNames, name, value)
	case "globalName":
		return setString(&b.GlobalName, name, value)
	case "jsxFactory":
		return setString(&b.JSXFactory, name, value)
	case "jsxFragment":
		return setString(&b.JSXFragment, name, value)
	case "keepNames":
		return setBool(&b.KeepNames, name, value)
	case "metafile":
		return setBool(&b.Metafile, name, value)
	case "minifyIdentifiers":
		return setBool(&b.MinifyIdentifiers, name, value)
	case "minifySyntax":
		return setBool(&b.MinifySyntax, name, value)
	case "minifyWhitespace":
		return setBool(&b.MinifyWhitespace, name, value)
	case "outbase":
		return setString(&b.Outbase, name, value)
	case "outdir":
		return setString(&b.Outdir, name, value)
	case "outfile":
		return setString(&b.Outfile, name, value)
	case "preserveSymlinks":
		return setBool(&b.PreserveSymlinks, name, value)
	case "publicPath":
		return setString(&b.PublicPath, name, value)
	case "sourceRoot":
		return setString(&b.SourceRoot, name, value)
	case "splitting":
		return setBool(&b.Splitting, name, value)
	case "tsconfig":
		return setString(&b.Tsconfig, name, value)
	case "write":
		return setBool(&b.Write, name, value)
	case "incremental":
		return setBool(&o.Incremental, name, value)

	case "conditions":
		return setStrings(&b.Conditions, name, value)
	case "entryPoints":
		return setStrings(&b.EntryPoints, name, value)
	case "external":
		return setStrings(&b.External, name, value)
	case "inject":
		return setStrings(&b.Inject, name, value)
	case "mainFields":
		return setStrings(&b.MainFields, name, value)
	case "nodePaths":
		return setStrings(&b.NodePaths, name, value)
	case "pure":
		return setStrings(&b.Pure, name, value)
	case "resolveExtensions":
		return setStrings(&b.ResolveExtensions, name, value)

	case "banner":
		return setMap(&b.Banner, name, value)
	case "footer":
		return setMap(&b.Footer, name, value)
	case "define":
		return setMap(&b.Define, name, value)
	case "outExtension":
		return setMap(&b.OutExtension, name, value)
	case "loader":
		var raw map[string]string
		if err := setMap(&raw, name, value); err != nil {
			return err
		}
		loaders := make(map[string]api.Loader, len(raw))
		for ext, l := range raw {
			loader, ok := loaderByName[l]
			if !ok {
				return fmt.Errorf("invalid loader %q for %q", l, ext)
			}
			loaders[ext] = loader
		}
		if b.Loader == nil {
			b.Loader = loaders
		} else {
			maps.Copy(b.Loader, loaders)
		}
		return nil

	case "minify":
		var on bool
		if err := setBool(&on, name, value); err != nil {
			return err
		}
		b.MinifyIdentifiers, b.MinifySyntax, b.MinifyWhitespace = on, on, on
		return nil
	case "color":
		var on bool
		if err := setBool(&on, name, value); err != nil {
			return err
		}
		b.Color = api.ColorNever
		if on {
			b.Color = api.ColorAlways
		}
		return nil
	case "logLimit":
		n, ok := value.(float64)
		if !ok || math.IsNaN(n) {
			return invalidValue(name, value)
		}
		b.LogLimit = int(n)
		return nil
	case "sourcesContent":
		var on bool
		if err := setBool(&on, name, value); err != nil {
			return err
		}
		b.SourcesContent = api.SourcesContentExclude
		if on {
			b.SourcesContent = api.SourcesContentInclude
		}
		return nil

	case "charset":
		return setEnum(&b.Charset, charsetByName, name, value)
	case "format":
		return setEnum(&b.Format, formatByName, name, value)
	case "jsx":
		return setEnum(&b.JSX, jsxByName, name, value)
	case "legalComments":
		return setEnum(&b.LegalComments, legalCommentsByName, name, value)
	case "logLevel":
		return setEnum(&b.LogLevel, logLevelByName, name, value)
	case "platform":
		return setEnum(&b.Platform, platformByName, name, value)

	case "sourcemap":
		switch v := value.(type) {
		case bool:
			b.Sourcemap = api.SourceMapNone
			if v {
				b.Sourcemap = api.SourceMapLinked
			}
			return nil
		default:
			return setEnum(&b.Sourcemap, sourcemapByName, name, value)
		}
	case "treeShaking":
		switch v := value.(type) {
		case bool:
			b.TreeShaking = api.TreeShakingFalse
			if v {
				b.TreeShaking = api.TreeShakingTrue
			}
		case string:
			if v != "ignore-annotations" {
				return invalidValue(name, value)
			}
			b.IgnoreAnnotations = true
		default:
			return invalidValue(name, value)
		}
		return nil
	case "target":
		var targets []string
		if err := setStrings(&targets, name, value); err != nil {
			return err
		}
		return o.setTargets(targets)
	}
	return fmt.Errorf("%w: %s", ErrUnknownOption, name)
}

// setTargets splits esbuild targets into a language level and engines:
// "es2019" sets Target, "node14.17" adds an engine.
func (o *Options) setTargets(targets []string) error {
	for _, t := range targets {
		t = strings.ToLower(strings.TrimSpace(t))
		if target, ok := targetByName[t]; ok {
			o.Target = target
			continue
		}
		i := strings.IndexFunc(t, func(r rune) bool { return r >= '0' && r <= '9' })
		if i <= 0 {
			return invalidValue("target", t)
		}
		engine, ok := engineByName[t[:i]]
		if !ok {
			return invalidValue("target", t)
		}
		o.Engines = append(o.Engines, api.Engine{Name: engine, Version: t[i:]})
	}
	return nil
}

func invalidValue(name string, value any) error {
	return fmt.Errorf("invalid value for %q: %v", name, value)
}

func setBool(dst *bool, name string, value any) error {
	switch v := value.(type) {
	case bool:
		*dst = v
	case string:
		*dst = v == "true"
	default:
		return invalidValue(name, value)
	}
	return nil
}

func setString(dst *string, name string, value any) error {
	s, ok := value.(string)
	if !ok {
		return invalidValue(name, value)
	}
	*dst = s
	return nil
}

func setStrings(dst *[]string, name string, value any) error {
	switch v := value.(type) {
	case string:
		*dst = []string{v}
	case []string:
		*dst = slices.Clone(v)
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if item == nil {
				continue
			}
			s, ok := item.(string)
			if !ok {
				return invalidValue(name, item)
			}
			out = append(out, s)
		}
		*dst = out
	default:
		return invalidValue(name, value)
	}
	return nil
}

func setMap(dst *map[string]string, name string, value any) error {
	m, ok := value.(map[string]string)
	if !ok {
		return invalidValue(name, value)
	}
	if *dst == nil {
		*dst = make(map[string]string, len(m))
	}
	maps.Copy(*dst, m)
	return nil
}

func setEnum[T any](dst *T, table map[string]T, name string, value any) error {
	s, ok := value.(string)
	if !ok {
		return invalidValue(name, value)
	}
	v, ok := table[s]
	if !ok {
		return invalidValue(name, value)
	}
	*dst = v
	return nil
}

func formatName(f api.Format) string {
	for name, v := range formatByName {
		if v == f {
			return name
		}
	}
	return ""
}

var formatByName = map[string]api.Format{
	"cjs":  api.FormatCommonJS,
	"esm":  api.FormatESModule,
	"iife": api.FormatIIFE,
}

var charsetByName = map[string]api.Charset{
	"ascii": api.CharsetASCII,
	"utf8":  api.CharsetUTF8,
}

var jsxByName = map[string]api.JSX{
	"transform": api.JSXTransform,
	"preserve":  api.JSXPreserve,
	"automatic": api.JSXAutomatic,
}

var legalCommentsByName = map[string]api.LegalComments{
	"none":     api.LegalCommentsNone,
	"inline":   api.LegalCommentsInline,
	"eof":      api.LegalCommentsEndOfFile,
	"linked":   api.LegalCommentsLinked,
	"external": api.LegalCommentsExternal,
}

var logLevelByName = map[string]api.LogLevel{
	"verbose": api.LogLevelVerbose,
	"debug":   api.LogLevelDebug,
	"info":    api.LogLevelInfo,
	"warning": api.LogLevelWarning,
	"error":   api.LogLevelError,
	"silent":  api.LogLevelSilent,
}

var platformByName = map[string]api.Platform{
	"browser": api.PlatformBrowser,
	"node":    api.PlatformNode,
	"neutral": api.PlatformNeutral,
}

var sourcemapByName = map[string]api.SourceMap{
	"linked":   api.SourceMapLinked,
	"inline":   api.SourceMapInline,
	"external": api.SourceMapExternal,
	"both":     api.SourceMapInlineAndExternal,
}

var loaderByName = map[string]api.Loader{
	"base64":  api.LoaderBase64,
	"binary":  api.LoaderBinary,
	"copy":    api.LoaderCopy,
	"css":     api.LoaderCSS,
	"dataurl": api.LoaderDataURL,
	"default": api.LoaderDefault,
	"empty":   api.LoaderEmpty,
	"file":    api.LoaderFile,
	"js":      api.LoaderJS,
	"json":    api.LoaderJSON,
	"jsx":     api.LoaderJSX,
	"text":    api.LoaderText,
	"ts":      api.LoaderTS,
	"tsx":     api.LoaderTSX,
}

var targetByName = map[string]api.Target{
	"esnext": api.ESNext,
	"es5":    api.ES5,
	"es6":    api.ES2015,
	"es2015": api.ES2015,
	"es2016": api.ES2016,
	"es2017": api.ES2017,
	"es2018": api.ES2018,
	"es2019": api.ES2019,
	"es2020": api.ES2020,
	"es2021": api.ES2021,
	"es2022": api.ES2022,
}

var engineByName = map[string]api.EngineName{
	"chrome":  api.EngineChrome,
	"edge":    api.EngineEdge,
	"firefox": api.EngineFirefox,
	"ios":     api.EngineIOS,
	"node":    api.EngineNode,
	"opera":   api.EngineOpera,
	"safari":  api.EngineSafari,
}
