package stats

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/mattn/go-runewidth"
	"golang.org/x/term"
)

// Series is one named curve of percentages.
type Series struct {
	Name   string
	Values []float64
}

const (
	defaultPlotHeight   = 10
	minPlotWidth        = 10
	axisLabelTop        = "100%"
	axisLabelMid        = "50%"
	axisLabelBottom     = "0%"
	axisSeparator       = " │ "
	percentScaleNote    = "Shared 0-100% scale."
	colorReset          = "\x1b[0m"
	terminalWidthBackup = 80
)

// stroke is a dash pattern: a dot is drawn when x%period < on.
type stroke struct {
	name   string
	period int
	on     int
}

var strokes = []stroke{
	{name: "solid", period: 1, on: 1},
	{name: "dashed", period: 6, on: 3},
	{name: "dotted", period: 4, on: 1},
	{name: "dashdot", period: 8, on: 3},
}

var palette = []string{
	"\x1b[36m", // cyan
	"\x1b[35m", // magenta
	"\x1b[33m", // yellow
	"\x1b[32m", // green
	"\x1b[34m", // blue
}

func (s stroke) draws(x int) bool {
	if s.period <= 1 {
		return true
	}
	if x < 0 {
		x = -x
	}
	return x%s.period < s.on
}

// PlotPercentSeries plots percentages against one shared 0-100 axis so curves stay
// comparable. A width <= 0 fits the terminal; a height <= 0 uses the default.
func PlotPercentSeries(w io.Writer, title string, series []Series, width, height int, forceColor bool) error {
	series = nonEmpty(series)
	if len(series) == 0 {
		return nil
	}
	if height <= 0 {
		height = defaultPlotHeight
	}
	if width <= 0 {
		width = PlotWidthFor(terminalWidth())
	}
	width = max(width, minPlotWidth)

	c := newCanvas(width, height, len(series))
	for i, s := range series {
		c.trace(i, resample(s.Values, width), strokes[i%len(strokes)])
	}

	useColor := shouldUseColor(w, forceColor)
	var lines []string
	if title != "" {
		lines = append(lines, title)
	}
	lines = append(lines, percentScaleNote)
	for _, s := range series {
		lo, hi := valueRange(s.Values)
		lines = append(lines, fmt.Sprintf("%s: min=%.1f max=%.1f", s.Name, lo, hi))
	}
	labels := axisLabels(height)
	labelWidth := len(axisLabelTop)
	for y := 0; y < height; y++ {
		var row strings.Builder
		fmt.Fprintf(&row, "%*s%s", labelWidth, labels[y], axisSeparator)
		for x := 0; x < width; x++ {
			ch, layer := c.cell(x, y)
			if useColor && layer >= 0 {
				row.WriteString(palette[layer%len(palette)])
				row.WriteRune(ch)
				row.WriteString(colorReset)
				continue
			}
			row.WriteRune(ch)
		}
		lines = append(lines, row.String())
	}
	lines = append(lines, legend(series, useColor), "")
	return writeLines(w, lines)
}

// PlotWidthFor returns the plot width that fits next to the axis within totalWidth.
func PlotWidthFor(totalWidth int) int {
	if totalWidth <= 0 {
		return minPlotWidth
	}
	axisWidth := runewidth.StringWidth(axisLabelTop) + runewidth.StringWidth(axisSeparator)
	return max(totalWidth-axisWidth, minPlotWidth)
}

// canvas holds one braille dot layer per series. Each cell is 2 dots wide and 4 tall.
type canvas struct {
	width, height int
	layers        [][][]uint8
}

func newCanvas(width, height, layers int) *canvas {
	c := &canvas{width: width, height: height, layers: make([][][]uint8, layers)}
	for i := range c.layers {
		c.layers[i] = make([][]uint8, height)
		for y := range c.layers[i] {
			c.layers[i][y] = make([]uint8, width)
		}
	}
	return c
}

// trace draws values, one per cell column, as a connected line on layer.
func (c *canvas) trace(layer int, values []float64, st stroke) {
	dots := c.height * 4
	prevX, prevY := -1, -1
	for x, v := range values {
		px, py := x*2, pctToDot(v, dots)
		if prevX < 0 {
			if st.draws(px) {
				c.dot(layer, px, py)
			}
		} else {
			bresenham(prevX, prevY, px, py, func(dx, dy int) {
				if st.draws(dx) {
					c.dot(layer, dx, dy)
				}
			})
		}
		prevX, prevY = px, py
	}
}

func (c *canvas) dot(layer, x, y int) {
	cx, cy := x/2, y/4
	if x < 0 || y < 0 || cx >= c.width || cy >= c.height {
		return
	}
	c.layers[layer][cy][cx] |= dotBit(x%2, y%4)
}

// cell merges every layer at (x, y) and reports the first layer with a dot, or -1.
func (c *canvas) cell(x, y int) (rune, int) {
	var mask uint8
	first := -1
	for i, l := range c.layers {
		if l[y][x] == 0 {
			continue
		}
		if first < 0 {
			first = i
		}
		mask |= l[y][x]
	}
	return braille(mask), first
}

// pctToDot maps 100% to the top dot row and 0% to the bottom one.
func pctToDot(v float64, dots int) int {
	if dots <= 1 {
		return 0
	}
	pos := math.Min(math.Max(v/100, 0), 1)
	return int(math.Round((1 - pos) * float64(dots-1)))
}

// resample stretches or averages values to exactly width points.
func resample(values []float64, width int) []float64 {
	out := make([]float64, width)
	n := len(values)
	switch {
	case n == 0 || width == 0:
		return nil
	case n == 1 || width == 1:
		for i := range out {
			out[i] = values[0]
		}
	case n > width:
		for i := range out {
			start := i * n / width
			end := max((i+1)*n/width, start+1)
			var sum float64
			for _, v := range values[start:end] {
				sum += v
			}
			out[i] = sum / float64(end-start)
		}
	default:
		for i := range out {
			pos := float64(i) * float64(n-1) / float64(width-1)
			idx := int(pos)
			if idx >= n-1 {
				out[i] = values[n-1]
				continue
			}
			frac := pos - float64(idx)
			out[i] = values[idx]*(1-frac) + values[idx+1]*frac
		}
	}
	return out
}

func valueRange(values []float64) (lo, hi float64) {
	lo, hi = values[0], values[0]
	for _, v := range values[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return lo, hi
}

func nonEmpty(series []Series) []Series {
	out := make([]Series, 0, len(series))
	for _, s := range series {
		if len(s.Values) > 0 {
			out = append(out, s)
		}
	}
	return out
}

func axisLabels(height int) []string {
	labels := make([]string, height)
	labels[0] = axisLabelTop
	if height > 2 {
		labels[height/2] = axisLabelMid
	}
	if height > 1 {
		labels[height-1] = axisLabelBottom
	}
	return labels
}

func legend(series []Series, useColor bool) string {
	parts := make([]string, len(series))
	for i, s := range series {
		label := fmt.Sprintf("%c %s (%s)", braille(0x01), s.Name, strokes[i%len(strokes)].name)
		if useColor {
			label = palette[i%len(palette)] + label + colorReset
		}
		parts[i] = label
	}
	return "Legend: " + strings.Join(parts, "  ")
}

func bresenham(x0, y0, x1, y1 int, plot func(x, y int)) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	e := dx + dy
	for {
		plot(x0, y0)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// dotBit is the Unicode braille bit of the dot at column x (0-1) and row y (0-3).
func dotBit(x, y int) uint8 {
	if y == 3 {
		return [2]uint8{0x40, 0x80}[x]
	}
	return uint8(1) << (uint(x)*3 + uint(y))
}

func braille(mask uint8) rune {
	return rune(0x2800 + int(mask))
}

func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return terminalWidthBackup
	}
	return width
}

func shouldUseColor(w io.Writer, force bool) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if force {
		return true
	}
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(file.Fd()))
}
