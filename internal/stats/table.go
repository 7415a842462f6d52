package stats

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// table lays out text columns by terminal cell width, so unit symbols and
// wide glyphs in signal names keep the columns aligned.
type table struct {
	headers []string
	rows    [][]string
	// rightFrom right-aligns every column at or after this index.
	rightFrom int
}

func (t table) widths() []int {
	n := len(t.headers)
	for _, row := range t.rows {
		n = maxInt(n, len(row))
	}
	widths := make([]int, n)
	measure := func(row []string) {
		for i, cell := range row {
			widths[i] = maxInt(widths[i], runewidth.StringWidth(cell))
		}
	}
	measure(t.headers)
	for _, row := range t.rows {
		measure(row)
	}
	return widths
}

// lines returns the header line followed by one line per row.
func (t table) lines() []string {
	widths := t.widths()
	if len(widths) == 0 {
		return nil
	}
	out := make([]string, 0, len(t.rows)+1)
	if len(t.headers) > 0 {
		out = append(out, t.line(t.headers, widths))
	}
	for _, row := range t.rows {
		out = append(out, t.line(row, widths))
	}
	return out
}

func (t table) line(row []string, widths []int) string {
	cells := make([]string, len(widths))
	for i, w := range widths {
		var cell string
		if i < len(row) {
			cell = row[i]
		}
		if i >= t.rightFrom {
			cells[i] = runewidth.FillLeft(cell, w)
		} else {
			cells[i] = runewidth.FillRight(cell, w)
		}
	}
	return strings.Join(cells, " ")
}
