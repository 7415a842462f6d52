package stats

import (
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/term"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Series is a named curve. X must be non-decreasing; when X is nil the
// points are spread evenly by index.
type Series struct {
	Name string
	X    []float64
	Y    []float64
}

// Plot draws series as braille curves on one pair of shared axes.
type Plot struct {
	Title string
	// Width is the number of plot columns; zero sizes the plot to the terminal.
	Width  int
	Height int
	// Color forces ANSI colors even when the writer is not a terminal.
	Color bool
}

const (
	defaultPlotHeight  = 10
	minPlotWidth       = 10
	axisLabelWidth     = 9
	axisSeparator      = " │ "
	scaleNote          = "Shared scale across series."
	colorReset         = "\x1b[0m"
	fallbackTermWidth  = 80
	dotsPerCellX       = 2
	dotsPerCellY       = 4
	brailleBase        = 0x2800
	legendMarkerDotBit = 0x01
)

// dash patterns, applied along the x axis in dots
type dash struct {
	name   string
	period int
	on     int
}

func (d dash) draws(x int) bool {
	if d.period <= 1 {
		return true
	}
	if x < 0 {
		x = -x
	}
	return x%d.period < d.on
}

// The reference is drawn first, so it gets the dashed pattern.
var dashes = []dash{
	{name: "dashed", period: 6, on: 3},
	{name: "solid", period: 1, on: 1},
	{name: "dotted", period: 4, on: 1},
	{name: "dashdot", period: 8, on: 3},
}

var palette = []string{
	"\x1b[37m", // white
	"\x1b[36m", // cyan
	"\x1b[33m", // yellow
	"\x1b[32m", // green
	"\x1b[35m", // magenta
}

// brailleBits maps a dot within a cell, [row][col], to its bit in U+28xx.
var brailleBits = [dotsPerCellY][dotsPerCellX]uint8{
	{0x01, 0x08},
	{0x02, 0x10},
	{0x04, 0x20},
	{0x40, 0x80},
}

func brailleFromMask(mask uint8) rune {
	return rune(brailleBase + int(mask))
}

// canvas holds one braille bitmask per terminal cell.
type canvas struct {
	cols, rows int
	cells      []uint8
}

func newCanvas(cols, rows int) *canvas {
	return &canvas{cols: cols, rows: rows, cells: make([]uint8, cols*rows)}
}

func (c *canvas) dotsX() int { return c.cols * dotsPerCellX }
func (c *canvas) dotsY() int { return c.rows * dotsPerCellY }

func (c *canvas) set(x, y int) {
	if x < 0 || y < 0 || x >= c.dotsX() || y >= c.dotsY() {
		return
	}
	c.cells[(y/dotsPerCellY)*c.cols+x/dotsPerCellX] |= brailleBits[y%dotsPerCellY][x%dotsPerCellX]
}

func (c *canvas) at(col, row int) uint8 {
	return c.cells[row*c.cols+col]
}

// stroke draws a Bresenham segment, keeping only the dots the dash allows.
func (c *canvas) stroke(x0, y0, x1, y1 int, d dash) {
	dx, dy := absInt(x1-x0), -absInt(y1-y0)
	sx, sy := 1, 1
	if x1 < x0 {
		sx = -1
	}
	if y1 < y0 {
		sy = -1
	}
	acc := dx + dy
	for {
		if d.draws(x0) {
			c.set(x0, y0)
		}
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * acc
		if e2 >= dy {
			acc += dy
			x0 += sx
		}
		if e2 <= dx {
			acc += dx
			y0 += sy
		}
	}
}

// bounds is the data window mapped onto the canvas.
type bounds struct {
	xMin, xMax, yMin, yMax float64
}

func sharedBounds(series []Series) bounds {
	b := bounds{xMin: math.Inf(1), xMax: math.Inf(-1), yMin: math.Inf(1), yMax: math.Inf(-1)}
	for _, s := range series {
		xs := s.xs()
		b.xMin = math.Min(b.xMin, floats.Min(xs))
		b.xMax = math.Max(b.xMax, floats.Max(xs))
		b.yMin = math.Min(b.yMin, floats.Min(s.Y))
		b.yMax = math.Max(b.yMax, floats.Max(s.Y))
	}
	if b.yMax-b.yMin < 1e-9 {
		b.yMin--
		b.yMax++
	}
	if b.xMax-b.xMin < 1e-12 {
		b.xMax = b.xMin + 1
	}
	return b
}

// dot converts a data point to canvas dot coordinates, y growing downwards.
func (b bounds) dot(x, y float64, dotsX, dotsY int) (int, int) {
	return scaleToDots((x-b.xMin)/(b.xMax-b.xMin), dotsX),
		scaleToDots(1-(y-b.yMin)/(b.yMax-b.yMin), dotsY)
}

func scaleToDots(frac float64, n int) int {
	if n <= 1 {
		return 0
	}
	i := int(math.Round(frac * float64(n-1)))
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

func (s Series) xs() []float64 {
	if len(s.X) == len(s.Y) {
		return s.X
	}
	out := make([]float64, len(s.Y))
	if len(out) > 1 {
		floats.Span(out, 0, float64(len(out)-1))
	}
	return out
}

// Render writes the title, per-series ranges, the braille plot, an x axis
// line and a legend. Series without points are left out; no output is
// written when none remain.
func (p Plot) Render(w io.Writer, series ...Series) error {
	drawn := make([]Series, 0, len(series))
	for _, s := range series {
		if len(s.Y) > 0 {
			drawn = append(drawn, s)
		}
	}
	if len(drawn) == 0 {
		return nil
	}

	height := p.Height
	if height <= 0 {
		height = defaultPlotHeight
	}
	width := p.Width
	if width <= 0 {
		width = PlotWidthFor(terminalWidth())
	}
	width = maxInt(width, minPlotWidth)

	b := sharedBounds(drawn)
	layers := make([]*canvas, len(drawn))
	for i, s := range drawn {
		c := newCanvas(width, height)
		d := dashes[i%len(dashes)]
		xs := s.xs()
		px, py := -1, -1
		for j, v := range s.Y {
			x, y := b.dot(xs[j], v, c.dotsX(), c.dotsY())
			switch {
			case x == px && y == py:
				continue
			case px < 0:
				if d.draws(x) {
					c.set(x, y)
				}
			default:
				c.stroke(px, py, x, y, d)
			}
			px, py = x, y
		}
		layers[i] = c
	}

	color := p.Color || isTerminal(w)
	if os.Getenv("NO_COLOR") != "" {
		color = false
	}

	var out strings.Builder
	if p.Title != "" {
		out.WriteString(p.Title + "\n")
	}
	out.WriteString(scaleNote + "\n")
	for _, s := range drawn {
		fmt.Fprintf(&out, "%s: min=%.3f max=%.3f\n", s.Name, floats.Min(s.Y), floats.Max(s.Y))
	}
	labels := makeAxisLabels(height, b.yMin, b.yMax)
	for row := 0; row < height; row++ {
		fmt.Fprintf(&out, "%*s%s", axisLabelWidth, labels[row], axisSeparator)
		for col := 0; col < width; col++ {
			var mask uint8
			owner := -1
			for i, c := range layers {
				if m := c.at(col, row); m != 0 {
					mask |= m
					if owner < 0 {
						owner = i
					}
				}
			}
			if color && owner >= 0 {
				out.WriteString(palette[owner%len(palette)])
				out.WriteRune(brailleFromMask(mask))
				out.WriteString(colorReset)
				continue
			}
			out.WriteRune(brailleFromMask(mask))
		}
		out.WriteByte('\n')
	}
	out.WriteString(xAxisLine(b.xMin, b.xMax, width) + "\n")
	out.WriteString(legend(drawn, color) + "\n\n")

	_, err := io.WriteString(w, out.String())
	return err
}

// PlotWidthFor computes a plot width that fits within the total available width.
func PlotWidthFor(totalWidth int) int {
	if totalWidth <= 0 {
		return minPlotWidth
	}
	return maxInt(totalWidth-gutterWidth(), minPlotWidth)
}

func gutterWidth() int {
	return axisLabelWidth + utf8.RuneCountInString(axisSeparator)
}

func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return fallbackTermWidth
	}
	return width
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	return ok && term.IsTerminal(int(file.Fd()))
}

// makeAxisLabels labels the top, middle and bottom rows.
func makeAxisLabels(height int, minVal, maxVal float64) []string {
	labels := make([]string, height)
	if height <= 0 {
		return labels
	}
	labels[0] = axisValue(maxVal)
	if height > 2 {
		mid := height / 2
		labels[mid] = axisValue(maxVal - (maxVal-minVal)*float64(mid)/float64(height-1))
	}
	if height > 1 {
		labels[height-1] = axisValue(minVal)
	}
	return labels
}

func axisValue(v float64) string {
	if label := strconv.FormatFloat(v, 'f', 2, 64); len(label) <= axisLabelWidth {
		return label
	}
	return strconv.FormatFloat(v, 'g', 3, 64)
}

func xAxisLine(minVal, maxVal float64, width int) string {
	left, right := axisValue(minVal), axisValue(maxVal)
	gap := maxInt(width-len(left)-len(right), 1)
	return strings.Repeat(" ", gutterWidth()) + left + strings.Repeat(" ", gap) + right
}

func legend(series []Series, color bool) string {
	parts := make([]string, len(series))
	for i, s := range series {
		label := fmt.Sprintf("%c %s (%s)", brailleFromMask(legendMarkerDotBit), s.Name, dashes[i%len(dashes)].name)
		if color {
			label = palette[i%len(palette)] + label + colorReset
		}
		parts[i] = label
	}
	return "Legend: " + strings.Join(parts, "  ")
}

// condense fits values into width points: bins are averaged when there are
// more values than columns, and linearly interpolated when there are fewer.
func condense(values []float64, width int) []float64 {
	n := len(values)
	if n == 0 || width <= 0 {
		return nil
	}
	out := make([]float64, width)
	switch {
	case n == width:
		copy(out, values)
	case n > width:
		for i := range out {
			lo := i * n / width
			hi := maxInt((i+1)*n/width, lo+1)
			if hi > n {
				hi = n
			}
			out[i] = stat.Mean(values[lo:hi], nil)
		}
	case n == 1 || width == 1:
		for i := range out {
			out[i] = values[0]
		}
	default:
		step := float64(n-1) / float64(width-1)
		for i := range out {
			pos := float64(i) * step
			k := int(pos)
			if k >= n-1 {
				out[i] = values[n-1]
				continue
			}
			frac := pos - float64(k)
			out[i] = values[k] + (values[k+1]-values[k])*frac
		}
	}
	return out
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
