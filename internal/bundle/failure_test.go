package bundle

import (
	"bytes"
	"strings"
	"testing"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/stretchr/testify/assert"

	eswio "github.com/dzonerzy/esw/io"
)

func plain() *eswio.IOManager {
	return eswio.New().WithOut(&bytes.Buffer{}).WithErr(&bytes.Buffer{}).NoColor()
}

func unresolved(plugin string) *Failure {
	return &Failure{Errors: []api.Message{{
		Text:       `Could not resolve "./src/fib"`,
		PluginName: plugin,
		Location: &api.Location{
			File:     "index.ts",
			Line:     3,
			Column:   20,
			Length:   11,
			LineText: "import { fib } from './src/fib'",
		},
	}}}
}

func TestRenderFailure(t *testing.T) {
	want := ` ERROR  index.ts:3:20 Could not resolve "./src/fib"` + "\n" +
		"    3 │ import { fib } from './src/fib'\n" +
		"      ╵ " + strings.Repeat(" ", 20) + "~~~~~~~~~~~\n" +
		"\n"
	assert.Equal(t, want, RenderFailure(plain(), unresolved("")))
}

func TestRenderFailureWithPlugin(t *testing.T) {
	got := RenderFailure(plain(), unresolved("mock plugin name"))
	first := strings.SplitN(got, "\n", 2)[0]
	assert.Equal(t, ` ERROR  index.ts:3:20 [plugin: mock plugin name] Could not resolve "./src/fib"`, first)
}

func TestRenderFailureNotesAndSuggestion(t *testing.T) {
	f := &Failure{Errors: []api.Message{{
		Text:     "Unexpected single quote",
		Location: &api.Location{File: "f.ts", Line: 1, Column: 4, Length: 1, LineText: "let x = 'a'"},
		Notes: []api.Note{{
			Text:     "Use double quotes",
			Location: &api.Location{File: "f.ts", Line: 12, Column: 8, Length: 3, LineText: "let x = 'a'", Suggestion: `"a"`},
		}},
	}}}

	want := ` ERROR  f.ts:1:4 Unexpected single quote` + "\n" +
		"     1 │ let x = 'a'\n" +
		"       ╵     ^\n" +
		"\n" +
		` NOTE  f.ts:12:8 Use double quotes` + "\n" +
		"    12 │ let x = 'a'\n" +
		"       │         ~~~\n" +
		"       ╵         \"a\"\n" +
		"\n"
	assert.Equal(t, want, RenderFailure(plain(), f))
}

func TestRenderFailureWithoutLocation(t *testing.T) {
	f := &Failure{Errors: []api.Message{{Text: "boom"}}}
	assert.Equal(t, "\n boom\n\n", RenderFailure(plain(), f))
	assert.Empty(t, RenderFailure(plain(), &Failure{}))
	assert.Empty(t, RenderFailure(plain(), nil))
}

func TestLayoutClampsAndMultiline(t *testing.T) {
	fr := layout("x", api.Location{File: "a.js", Line: 1, Column: 40, Length: 9, LineText: "abc\nrest"}, 1)
	assert.Equal(t, 3, fr.column)
	assert.Equal(t, "^", fr.marker)
	assert.Equal(t, "    1 │ abc", fr.sourceBefore)
	assert.Empty(t, fr.sourceMarked)
	assert.Equal(t, "\nrest", fr.contentAfter)
}

func TestRenderTabStops(t *testing.T) {
	assert.Equal(t, "  x", renderTabStops("\tx"))
	assert.Equal(t, "a b", renderTabStops("a\tb"))
	assert.Equal(t, "ab  c", renderTabStops("ab\tc"))
	assert.Equal(t, "plain", renderTabStops("plain"))
}

func TestFailureError(t *testing.T) {
	assert.Equal(t, `build failed: index.ts:3:20: Could not resolve "./src/fib"`, unresolved("").Error())
	two := &Failure{Errors: []api.Message{{Text: "a"}, {Text: "b"}}}
	assert.Equal(t, "build failed with 2 errors: a", two.Error())
}
