package eswio

import (
	"math"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
)

// Size thresholds for output coloring.
const (
	SizeWarn  = 130 * 1000
	SizeLarge = 170 * 1000
)

// FormatBytes renders n with SI units and three significant digits:
// 0 B, 512 B, 82.9 kB, 1.5 MB.
func FormatBytes(n int64) string {
	if n <= 0 {
		return "0 B"
	}
	value, prefix := humanize.ComputeSI(float64(n))
	digits := 0
	switch {
	case math.Round(value*100)/100 < 10:
		digits = 2
	case math.Round(value*10)/10 < 100:
		digits = 1
	}
	text := strconv.FormatFloat(value, 'f', digits, 64)
	if strings.Contains(text, ".") {
		text = strings.TrimRight(strings.TrimRight(text, "0"), ".")
	}
	return text + " " + prefix + "B"
}

// Size renders n colored by weight: green below SizeWarn, yellow below
// SizeLarge, bold red otherwise.
func (m *IOManager) Size(n int64) string {
	text := FormatBytes(n)
	switch {
	case n < SizeWarn:
		return NewStyle().Fg(Green).Sprint(m, text)
	case n < SizeLarge:
		return NewStyle().Fg(Yellow).Sprint(m, text)
	default:
		return NewStyle().Fg(Red).Bold().Sprint(m, text)
	}
}
