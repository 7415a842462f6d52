package stats

import (
	"bytes"
	"strings"
	"testing"
)

func TestPlotRender(t *testing.T) {
	var buf bytes.Buffer
	p := Plot{Title: "Capture", Width: 10, Height: 4}
	err := p.Render(&buf,
		Series{Name: "Reference", X: []float64{0, 1, 2, 3, 4}, Y: []float64{1, 2, 3, 2, 1}},
		Series{Name: "ADS1115", Y: []float64{1, 1, 2, 3, 4}},
	)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Capture", scaleNote, "Legend:", "Reference (dashed)", "ADS1115 (solid)", "4.00", "1.00"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	// title, note, two ranges, four rows, x axis, legend
	if len(lines) != 10 {
		t.Fatalf("expected 10 lines of output, got %d:\n%s", len(lines), out)
	}
}

func TestPlotRenderSkipsEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := (Plot{Title: "Empty", Width: 10, Height: 4}).Render(&buf, Series{Name: "A"}); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("expected no output for empty series, got %q", buf.String())
	}
}

func TestPlotRenderUsesTimeAxis(t *testing.T) {
	// A sparse series and a dense one over the same span must both reach the
	// right edge of the plot.
	var buf bytes.Buffer
	dense := Series{Name: "dense"}
	for i := 0; i <= 100; i++ {
		dense.X = append(dense.X, float64(i))
		dense.Y = append(dense.Y, 0)
	}
	sparse := Series{Name: "sparse", X: []float64{0, 100}, Y: []float64{1, 1}}
	if err := (Plot{Width: 20, Height: 4}).Render(&buf, dense, sparse); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	lines := strings.Split(buf.String(), "\n")
	// Scale note and two min/max lines precede the top plot row.
	top := lines[3]
	if !strings.HasSuffix(top, string(brailleFromMask(0x09))) {
		t.Fatalf("expected the sparse series to reach the last column: %q", top)
	}
}

func TestCanvasStrokeDiagonal(t *testing.T) {
	c := newCanvas(2, 1)
	c.stroke(0, 0, 3, 3, dashes[1])
	// dots (0,0) (1,1) in the first cell, (2,2) (3,3) in the second
	if got := c.at(0, 0); got != 0x01|0x10 {
		t.Fatalf("first cell mask = %#x", got)
	}
	if got := c.at(1, 0); got != 0x04|0x80 {
		t.Fatalf("second cell mask = %#x", got)
	}
}

func TestCondense(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		width  int
		want   []float64
	}{
		{name: "average", values: []float64{1, 3, 5, 7}, width: 2, want: []float64{2, 6}},
		{name: "interpolate", values: []float64{0, 10}, width: 3, want: []float64{0, 5, 10}},
		{name: "single", values: []float64{4}, width: 3, want: []float64{4, 4, 4}},
		{name: "same", values: []float64{1, 2}, width: 2, want: []float64{1, 2}},
		{name: "empty", values: nil, width: 3, want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := condense(tt.values, tt.width)
			if len(got) != len(tt.want) {
				t.Fatalf("len = %d, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("got %v want %v", got, tt.want)
				}
			}
		})
	}
}
