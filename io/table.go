package eswio

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Align is the horizontal alignment of table cells.
type Align int

const (
	AlignLeft Align = iota
	AlignRight
	AlignCenter
)

const columnSeparator = "  "

var ansiPattern = regexp.MustCompile(
	"[\u001B\u009B][[\\]()#;?]*(?:(?:(?:[a-zA-Z\\d]*(?:;[-a-zA-Z\\d\\/#&.:=?%@~_]*)*)?\u0007)" +
		"|(?:(?:\\d{1,4}(?:;\\d{0,4})*)?[\\dA-PR-TZcf-ntqry=><~]))",
)

// StripANSI removes terminal escape sequences.
func StripANSI(s string) string {
	return ansiPattern.ReplaceAllString(s, "")
}

// VisibleWidth is the rune count of s without escape sequences.
func VisibleWidth(s string) int {
	return utf8.RuneCountInString(StripANSI(s))
}

// FormatTable aligns rows into columns separated by two spaces. Column widths
// ignore escape sequences; trailing blanks are trimmed from every line.
func FormatTable(rows [][]string, align Align) string {
	var widths []int
	for _, row := range rows {
		for i, cell := range row {
			if i >= len(widths) {
				widths = append(widths, 0)
			}
			widths[i] = max(widths[i], VisibleWidth(cell))
		}
	}

	lines := make([]string, len(rows))
	for r, row := range rows {
		cells := make([]string, len(row))
		for i, cell := range row {
			pad := widths[i] - VisibleWidth(cell)
			switch align {
			case AlignRight:
				cells[i] = strings.Repeat(" ", pad) + cell
			case AlignCenter:
				cells[i] = strings.Repeat(" ", (pad+1)/2) + cell + strings.Repeat(" ", pad/2)
			default:
				cells[i] = cell + strings.Repeat(" ", pad)
			}
		}
		lines[r] = strings.TrimRight(strings.Join(cells, columnSeparator), " \t")
	}
	return strings.Join(lines, "\n")
}

// PrintTable writes rows to stdout framed by blank lines. When there is more
// than one row the first is treated as a header and underlined.
func (m *IOManager) PrintTable(rows [][]string, align Align) {
	if len(rows) > 1 {
		head := make([]string, len(rows[0]))
		for i, cell := range rows[0] {
			head[i] = m.Underline(cell)
		}
		rows = append([][]string{head}, rows[1:]...)
	}
	_, _ = m.Out().Write([]byte("\n" + FormatTable(rows, align) + "\n"))
}
