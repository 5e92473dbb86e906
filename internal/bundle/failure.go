package bundle

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/evanw/esbuild/pkg/api"

	eswio "github.com/dzonerzy/esw/io"
	"github.com/dzonerzy/esw/internal/pool"
)

type messageKind int

const (
	kindError messageKind = iota
	kindNote
)

const spacesPerTab = 2

// frame is a message location laid out for display.
type frame struct {
	path    string
	line    int
	column  int
	message string

	sourceBefore string
	sourceMarked string
	sourceAfter  string

	indent       string
	marker       string
	suggestion   string
	contentAfter string
}

// RenderFailure formats the first error of f and its notes as a code frame.
func RenderFailure(m *eswio.IOManager, f *Failure) string {
	if f == nil || len(f.Errors) == 0 {
		return ""
	}
	msg := f.Errors[0]
	margin := maxMargin(msg)

	b := pool.GetBuilder()
	defer pool.PutBuilder(b)

	b.WriteString(renderMessage(m, kindError, msg.Text, msg.Location, margin, msg.PluginName))
	gap := ""
	if msg.Location != nil && strings.Contains(msg.Location.LineText, "\n") {
		gap = "\n"
	}
	for _, note := range msg.Notes {
		b.WriteString(gap)
		b.WriteString(renderMessage(m, kindNote, note.Text, note.Location, margin, msg.PluginName))
	}
	return b.String()
}

// PrintFailure writes the rendered failure to stderr.
func PrintFailure(m *eswio.IOManager, f *Failure) {
	_, _ = m.Err().Write([]byte(RenderFailure(m, f)))
}

func renderMessage(m *eswio.IOManager, kind messageKind, text string, loc *api.Location, margin int, plugin string) string {
	pluginText := ""
	if plugin != "" {
		pluginText = eswio.NewStyle().Fg(eswio.Yellow).Sprint(m, "[plugin: "+plugin+"] ")
	}
	if loc == nil {
		return "\n" + pluginText + " " + m.Bold(text) + "\n\n"
	}

	label, bg := "ERROR", eswio.Red
	if kind == kindNote {
		label, bg = "NOTE", eswio.Yellow
	}
	green := eswio.NewStyle().Fg(eswio.Green)
	fr := layout(text, *loc, margin)

	callout := fr.marker
	calloutPrefix := ""
	if fr.suggestion != "" {
		callout = fr.suggestion
		calloutPrefix = emptyMargin(margin, false) + fr.indent + green.Sprint(m, fr.marker) + "\n"
	}

	return strings.Join([]string{
		eswio.Badge(m, label, bg) + " " + fr.path + ":" + strconv.Itoa(fr.line) + ":" + strconv.Itoa(fr.column) +
			" " + pluginText + m.Bold(fr.message),
		fr.sourceBefore + green.Sprint(m, fr.sourceMarked) + m.Faint(fr.sourceAfter),
		calloutPrefix + emptyMargin(margin, true) + fr.indent + green.Sprint(m, callout) + m.Faint(fr.contentAfter),
		"\n",
	}, "\n")
}

func layout(text string, loc api.Location, margin int) frame {
	endOfFirstLine := len(loc.LineText)
	if i := strings.IndexAny(loc.LineText, "\n\r\u2028\u2029"); i >= 0 {
		endOfFirstLine = i
	}
	firstLine := loc.LineText[:endOfFirstLine]
	afterFirstLine := loc.LineText[endOfFirstLine:]

	line := max(loc.Line, 0)
	column := min(max(loc.Column, 0), endOfFirstLine)
	length := min(max(loc.Length, 0), endOfFirstLine-column)

	lineText := renderTabStops(firstLine)
	textUpToLoc := renderTabStops(firstLine[:column])
	markerStart := len(textUpToLoc)
	markerEnd := markerStart
	indent := strings.Repeat(" ", utf8.RuneCountInString(textUpToLoc))
	marker := "^"

	if length > 0 {
		markerEnd = len(renderTabStops(firstLine[:column+length]))
	}
	markerStart = min(markerStart, len(lineText))
	markerEnd = max(min(markerEnd, len(lineText)), markerStart)

	if markerEnd-markerStart > 1 {
		marker = strings.Repeat("~", utf8.RuneCountInString(lineText[markerStart:markerEnd]))
	}

	return frame{
		path:    loc.File,
		line:    line,
		column:  column,
		message: text,

		sourceBefore: marginWithLine(margin, line) + lineText[:markerStart],
		sourceMarked: lineText[markerStart:markerEnd],
		sourceAfter:  lineText[markerEnd:],

		indent:       indent,
		marker:       marker,
		suggestion:   loc.Suggestion,
		contentAfter: afterFirstLine,
	}
}

// renderTabStops expands tabs to the next multiple of spacesPerTab.
func renderTabStops(s string) string {
	if !strings.Contains(s, "\t") {
		return s
	}
	var b strings.Builder
	count := 0
	for _, r := range s {
		if r == '\t' {
			spaces := spacesPerTab - count%spacesPerTab
			b.WriteString(strings.Repeat(" ", spaces))
			count += spaces
			continue
		}
		b.WriteRune(r)
		count++
	}
	return b.String()
}

func marginWithLine(margin, line int) string {
	n := strconv.Itoa(line)
	return "    " + strings.Repeat(" ", max(margin-len(n), 0)) + n + " │ "
}

func emptyMargin(margin int, last bool) string {
	if last {
		return "    " + strings.Repeat(" ", margin) + " ╵ "
	}
	return "    " + strings.Repeat(" ", margin) + " │ "
}

func maxMargin(msg api.Message) int {
	margin := 0
	if msg.Location != nil {
		margin = len(strconv.Itoa(msg.Location.Line))
	}
	for _, note := range msg.Notes {
		if note.Location != nil && note.Location.Line != 0 {
			margin = max(margin, len(strconv.Itoa(note.Location.Line)))
		}
	}
	return margin
}
