package eswio

import (
	"fmt"
	"strconv"
	"strings"
)

// ColorSpec represents a color in one of three spaces: basic (16), indexed (256), or truecolor (RGB)
type ColorSpec struct {
	kind    int // 1=basic, 2=indexed, 3=truecolor
	index   int
	r, g, b uint8
}

// Basic color helpers (0-7 normal, 8-15 bright)
var (
	Black   = basic(0)
	Red     = basic(1)
	Green   = basic(2)
	Yellow  = basic(3)
	Blue    = basic(4)
	Magenta = basic(5)
	Cyan    = basic(6)
	White   = basic(7)

	BrightBlack   = basic(8)
	BrightRed     = basic(9)
	BrightGreen   = basic(10)
	BrightYellow  = basic(11)
	BrightBlue    = basic(12)
	BrightMagenta = basic(13)
	BrightCyan    = basic(14)
	BrightWhite   = basic(15)
)

var (
	LightPurple = Indexed(141)
	Orange      = Indexed(208)

	TrueGray        = Truecolor(128, 128, 128)
	TrueBrightRed   = Truecolor(255, 85, 85)
	TrueBrightGreen = Truecolor(80, 250, 123)
	TrueBrightBlue  = Truecolor(92, 148, 252)
	TrueBrightCyan  = Truecolor(139, 233, 253)
	TrueLightPurple = Truecolor(189, 147, 249)
	TrueOrange      = Truecolor(255, 184, 108)
)

func basic(i int) ColorSpec { return ColorSpec{kind: 1, index: i} }

// Indexed returns a 256-color palette spec (0–255).
func Indexed(i int) ColorSpec { return ColorSpec{kind: 2, index: i} }

// Truecolor returns a 24-bit RGB color spec.
func Truecolor(r, g, b uint8) ColorSpec { return ColorSpec{kind: 3, r: r, g: g, b: b} }

// Style is a fluent style builder for foreground/background colors and
// attributes (bold, faint, italic, underline, inverse).
type Style struct {
	fg, bg                                  *ColorSpec
	bold, faint, italic, underline, inverse bool
}

// NewStyle creates a new empty style builder.
func NewStyle() *Style                 { return &Style{} }
func (s *Style) Fg(c ColorSpec) *Style { s.fg = &c; return s }
func (s *Style) Bg(c ColorSpec) *Style { s.bg = &c; return s }
func (s *Style) Bold() *Style          { s.bold = true; return s }
func (s *Style) Faint() *Style         { s.faint = true; return s }
func (s *Style) Italic() *Style        { s.italic = true; return s }
func (s *Style) Underline() *Style     { s.underline = true; return s }
func (s *Style) Inverse() *Style       { s.inverse = true; return s }

// Sprint returns a styled string if color is supported; otherwise it returns
// the text unchanged.
func (s *Style) Sprint(io *IOManager, text string) string {
	if !io.SupportsColor() {
		return text
	}
	seq := s.ansiPrefix(io.ColorLevel())
	if seq == "" {
		return text
	}
	return "\x1b[" + seq + "m" + text + "\x1b[0m"
}

// Sprintf formats the content with fmt.Sprintf and then applies the style.
func (s *Style) Sprintf(io *IOManager, format string, a ...any) string {
	return s.Sprint(io, fmt.Sprintf(format, a...))
}

func (s *Style) ansiPrefix(level int) string {
	codes := make([]string, 0, 6)
	if s.bold {
		codes = append(codes, "1")
	}
	if s.faint {
		codes = append(codes, "2")
	}
	if s.italic {
		codes = append(codes, "3")
	}
	if s.underline {
		codes = append(codes, "4")
	}
	if s.inverse {
		codes = append(codes, "7")
	}
	if s.fg != nil {
		if c := colorCode(*s.fg, false, level); c != "" {
			codes = append(codes, c)
		}
	}
	if s.bg != nil {
		if c := colorCode(*s.bg, true, level); c != "" {
			codes = append(codes, c)
		}
	}
	return strings.Join(codes, ";")
}

func colorCode(c ColorSpec, bg bool, level int) string {
	base := 30
	if bg {
		base = 40
	}
	switch c.kind {
	case 1:
		idx := min(max(c.index, 0), 15)
		if idx < 8 {
			return strconv.Itoa(base + idx)
		}
		return strconv.Itoa(base + 60 + (idx - 8))
	case 2:
		if level < 2 {
			return ""
		}
		return strconv.Itoa(base+8) + ";5;" + strconv.Itoa(c.index)
	case 3:
		if level < 3 {
			return ""
		}
		return fmt.Sprintf("%d;2;%d;%d;%d", base+8, c.r, c.g, c.b)
	default:
		return ""
	}
}

// Theme provides semantic colors
type Theme struct {
	Primary, Success, Warning, Error, Info, Debug, Muted ColorSpec
}

// DefaultTheme16 uses the basic 16 colors.
func DefaultTheme16() Theme {
	return Theme{
		Primary: BrightBlue,
		Success: BrightGreen,
		Warning: BrightYellow,
		Error:   BrightRed,
		Info:    BrightCyan,
		Debug:   BrightMagenta,
		Muted:   BrightBlack,
	}
}

// DefaultTheme256 uses the 256-color palette where it helps.
func DefaultTheme256() Theme {
	t := DefaultTheme16()
	t.Debug = LightPurple
	t.Warning = Orange
	return t
}

// DefaultThemeTruecolor uses 24-bit colors.
func DefaultThemeTruecolor() Theme {
	return Theme{
		Primary: TrueBrightBlue,
		Success: TrueBrightGreen,
		Warning: TrueOrange,
		Error:   TrueBrightRed,
		Info:    TrueBrightCyan,
		Debug:   TrueLightPurple,
		Muted:   TrueGray,
	}
}

// DefaultTheme picks a theme for the manager's color level.
func DefaultTheme(io *IOManager) Theme {
	switch io.ColorLevel() {
	case 3:
		return DefaultThemeTruecolor()
	case 2:
		return DefaultTheme256()
	default:
		return DefaultTheme16()
	}
}

// Badge renders " LABEL " in black on bg, the way status labels are printed.
func Badge(io *IOManager, label string, bg ColorSpec) string {
	return NewStyle().Fg(Black).Bg(bg).Sprint(io, " "+label+" ")
}
