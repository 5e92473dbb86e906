// Package eswio owns terminal IO: writers, TTY and color detection, styles,
// the badge logger, tables and size rendering.
package eswio

import (
	stdio "io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"
)

// IOManager centralizes IO and terminal capabilities
type IOManager struct {
	in  stdio.Reader
	out stdio.Writer
	err stdio.Writer

	forceColor         bool
	noColor            bool
	forceColorLevel    int
	hasForceColorLevel bool
}

// New returns a manager bound to process stdio
func New() *IOManager {
	return &IOManager{in: os.Stdin, out: os.Stdout, err: os.Stderr}
}

// WithIn sets the input reader used by the manager and returns the manager for chaining.
func (m *IOManager) WithIn(r stdio.Reader) *IOManager { m.in = r; return m }

// WithOut sets the standard output writer and returns the manager for chaining.
func (m *IOManager) WithOut(w stdio.Writer) *IOManager { m.out = w; return m }

// WithErr sets the standard error writer and returns the manager for chaining.
func (m *IOManager) WithErr(w stdio.Writer) *IOManager { m.err = w; return m }

// ForceColor forces color output on, regardless of environment.
func (m *IOManager) ForceColor() *IOManager { m.forceColor = true; m.noColor = false; return m }

// NoColor disables color output, regardless of environment.
func (m *IOManager) NoColor() *IOManager { m.noColor = true; m.forceColor = false; return m }

// ColorAuto uses environment heuristics to determine color support.
func (m *IOManager) ColorAuto() *IOManager { m.noColor = false; m.forceColor = false; return m }

// ForceColorLevel forces a specific color level (0=none, 1=16, 2=256, 3=truecolor).
func (m *IOManager) ForceColorLevel(level int) *IOManager {
	m.forceColorLevel = level
	m.hasForceColorLevel = true
	return m
}

// In returns the configured input reader.
func (m *IOManager) In() stdio.Reader { return m.in }

// Out returns the configured standard output writer.
func (m *IOManager) Out() stdio.Writer { return m.out }

// Err returns the configured standard error writer.
func (m *IOManager) Err() stdio.Writer { return m.err }

// IsTTY reports whether the output writer is a terminal.
func (m *IOManager) IsTTY() bool { return isTerminal(m.out) }

// IsInteractive reports whether input comes from a terminal outside CI.
func (m *IOManager) IsInteractive() bool { return isTerminal(m.in) && os.Getenv("CI") == "" }

// IsRedirected reports whether output goes somewhere other than a terminal.
func (m *IOManager) IsRedirected() bool { return !m.IsTTY() }

// ClearScreen clears a terminal output and its scrollback. Redirected output
// is left alone.
func (m *IOManager) ClearScreen() {
	if m.IsTTY() {
		_, _ = stdio.WriteString(m.out, "\x1b[2J\x1b[3J\x1b[H")
	}
}

// Width is the terminal width, COLUMNS, or 80.
func (m *IOManager) Width() int {
	if w, _, ok := termSize(m.out); ok {
		return w
	}
	if w := envInt("COLUMNS"); w > 0 {
		return w
	}
	return 80
}

// Height is the terminal height, LINES, or 24.
func (m *IOManager) Height() int {
	if _, h, ok := termSize(m.out); ok {
		return h
	}
	if h := envInt("LINES"); h > 0 {
		return h
	}
	return 24
}

// SupportsColor honors NO_COLOR and FORCE_COLOR, then requires a TTY with a
// TERM other than dumb.
func (m *IOManager) SupportsColor() bool {
	if m.noColor || os.Getenv("NO_COLOR") != "" {
		return false
	}
	if m.forceColor || forceColorEnv() {
		return true
	}
	if !m.IsTTY() {
		return false
	}
	t := os.Getenv("TERM")
	return t != "" && t != "dumb"
}

// ColorLevel returns 0 for none, 1 for basic, 2 for 256 colors, and 3 for truecolor.
func (m *IOManager) ColorLevel() int {
	if m.hasForceColorLevel {
		return m.forceColorLevel
	}
	if !m.SupportsColor() {
		return 0
	}
	if lvl := envInt("FORCE_COLOR"); lvl >= 1 && lvl <= 3 {
		return lvl
	}
	colorterm := os.Getenv("COLORTERM")
	if colorterm == "truecolor" || colorterm == "24bit" {
		return 3
	}
	t := os.Getenv("TERM")
	if strings.Contains(t, "truecolor") || strings.Contains(t, "24bit") {
		return 3
	}
	if p := os.Getenv("TERM_PROGRAM"); p == "vscode" || p == "zed" || p == "iTerm.app" {
		return 3
	}
	if strings.Contains(t, "256color") {
		return 2
	}
	return 1
}

// Colorize wraps s with the given ANSI SGR code (e.g., "31" for red) and a
// trailing reset. If color is not supported, it returns s unchanged.
func (m *IOManager) Colorize(s, code string) string {
	if !m.SupportsColor() {
		return s
	}
	return "\x1b[" + code + "m" + s + "\x1b[0m"
}

// Bold returns s in bold when color is supported; otherwise s unchanged.
func (m *IOManager) Bold(s string) string { return m.Colorize(s, "1") }

// Faint returns s in faint intensity when supported; otherwise s unchanged.
func (m *IOManager) Faint(s string) string { return m.Colorize(s, "2") }

// Underline returns s underlined when supported; otherwise s unchanged.
func (m *IOManager) Underline(s string) string { return m.Colorize(s, "4") }

// FORCE_COLOR=0 and FORCE_COLOR=false mean "do not force".
func forceColorEnv() bool {
	v := os.Getenv("FORCE_COLOR")
	return v != "" && v != "0" && v != "false"
}

type fdWriter interface{ Fd() uintptr }

func isTerminal(v any) bool {
	f, ok := v.(fdWriter)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

func termSize(v any) (int, int, bool) {
	f, ok := v.(fdWriter)
	if !ok {
		return 0, 0, false
	}
	w, h, err := term.GetSize(int(f.Fd()))
	if err != nil || w <= 0 || h <= 0 {
		return 0, 0, false
	}
	return w, h, true
}

func envInt(name string) int {
	n, err := strconv.Atoi(os.Getenv(name))
	if err != nil || n < 0 {
		return 0
	}
	return n
}
