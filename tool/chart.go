package tool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/google/jsonschema-go/jsonschema"
)

// BarChartName is the name of the tool built by NewBarChartTool.
const BarChartName = "generate_bar_chart"

const (
	defaultChartWidth = 40
	maxLabelWidth     = 20
	targetTicks       = 5
)

// Axis is the value axis of a chart: a range rounded outwards to "nice"
// numbers and the tick values on it.
type Axis struct {
	Min, Max, Step float64
	Ticks          []float64
}

// NiceAxis computes an axis covering [lo, hi] with about maxTicks ticks whose
// step is 1, 2 or 5 times a power of ten.
func NiceAxis(lo, hi float64, maxTicks int) Axis {
	if maxTicks < 2 {
		maxTicks = 2
	}
	if lo > hi {
		lo, hi = hi, lo
	}
	if lo == hi {
		if lo == 0 {
			hi = 1
		} else {
			pad := math.Abs(lo) / 2
			lo, hi = lo-pad, hi+pad
		}
	}

	span := niceNum(hi-lo, false)
	step := niceNum(span/float64(maxTicks-1), true)
	axis := Axis{
		Min:  math.Floor(lo/step) * step,
		Max:  math.Ceil(hi/step) * step,
		Step: step,
	}
	n := int(math.Round((axis.Max - axis.Min) / step))
	for i := 0; i <= n; i++ {
		// Rounding to the step's precision avoids 0.30000000000000004
		axis.Ticks = append(axis.Ticks, roundTo(axis.Min+float64(i)*step, step))
	}
	return axis
}

func niceNum(x float64, round bool) float64 {
	exp := math.Floor(math.Log10(x))
	f := x / math.Pow(10, exp)
	var nf float64
	if round {
		switch {
		case f < 1.5:
			nf = 1
		case f < 3:
			nf = 2
		case f < 7:
			nf = 5
		default:
			nf = 10
		}
	} else {
		switch {
		case f <= 1:
			nf = 1
		case f <= 2:
			nf = 2
		case f <= 5:
			nf = 5
		default:
			nf = 10
		}
	}
	return nf * math.Pow(10, exp)
}

func decimals(step float64) int {
	if step <= 0 {
		return 0
	}
	return max(0, int(-math.Floor(math.Log10(step))))
}

func roundTo(v, step float64) float64 {
	p := math.Pow(10, float64(decimals(step)))
	return math.Round(v*p) / p
}

// BarChart is a horizontal bar chart drawn with box characters.
type BarChart struct {
	Title  string
	Labels []string
	Values []float64

	// Width is the number of cells of the value axis.
	Width int
}

// Validate checks that labels and values line up.
func (c BarChart) Validate() error {
	if len(c.Values) == 0 {
		return errors.New("chart has no values")
	}
	if len(c.Labels) != len(c.Values) {
		return fmt.Errorf("chart has %d labels but %d values", len(c.Labels), len(c.Values))
	}
	for i, v := range c.Values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("value %d is not finite", i)
		}
	}
	return nil
}

// Axis returns the value axis. It always includes zero so bars start from a
// common baseline.
func (c BarChart) Axis() Axis {
	lo, hi := 0.0, 0.0
	for _, v := range c.Values {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	return NiceAxis(lo, hi, targetTicks)
}

type chartStyle struct {
	title, label, axis, bar, value func(...string) string
}

func plain(strs ...string) string {
	return strings.Join(strs, "")
}

var (
	plainStyle = chartStyle{title: plain, label: plain, axis: plain, bar: plain, value: plain}

	colorStyle = chartStyle{
		title: lipgloss.NewStyle().Bold(true).Render,
		label: lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Render,
		axis:  lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render,
		bar:   lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Render,
		value: lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Render,
	}
)

// Lines lays the chart out without styling, one string per row.
func (c BarChart) Lines() ([]string, error) {
	return c.layout(plainStyle)
}

// Render returns the chart styled for a terminal.
func (c BarChart) Render() (string, error) {
	lines, err := c.layout(colorStyle)
	if err != nil {
		return "", err
	}
	return strings.Join(lines, "\n"), nil
}

func (c BarChart) layout(st chartStyle) ([]string, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	width := c.Width
	if width <= 0 {
		width = defaultChartWidth
	}

	axis := c.Axis()
	scale := func(v float64) int {
		return int(math.Round((v - axis.Min) / (axis.Max - axis.Min) * float64(width)))
	}
	prec := decimals(axis.Step)

	labels := make([]string, len(c.Labels))
	labelWidth := 0
	for i, l := range c.Labels {
		labels[i] = truncate(l, maxLabelWidth)
		labelWidth = max(labelWidth, lipgloss.Width(labels[i]))
	}
	pad := func(s string) string {
		return s + strings.Repeat(" ", labelWidth-lipgloss.Width(s))
	}

	var lines []string
	if c.Title != "" {
		lines = append(lines, st.title(c.Title), "")
	}

	zero := scale(0)
	for i, v := range c.Values {
		cells := []rune(strings.Repeat(" ", width+1))
		from, to := min(zero, scale(v)), max(zero, scale(v))
		if from == to && v != 0 {
			// Tiny values still get a visible cell
			if v > 0 {
				to = min(from+1, width+1)
			} else if from > 0 {
				from--
			}
		}
		for j := from; j < to; j++ {
			cells[j] = '█'
		}
		bar := strings.TrimRight(string(cells), " ")
		value := strconv.FormatFloat(v, 'f', -1, 64)
		lines = append(lines, st.label(pad(labels[i]))+st.axis(" │")+st.bar(bar)+" "+st.value(value))
	}

	// Axis line with a mark under every tick
	rule := []rune(strings.Repeat("─", width+1))
	for _, t := range axis.Ticks {
		rule[scale(t)] = '┬'
	}
	lines = append(lines, strings.Repeat(" ", labelWidth)+st.axis(" └"+string(rule)))

	// Tick labels centred under their mark, skipped when they would overlap
	tickRow := []rune(strings.Repeat(" ", width+1+8))
	next := 0
	for _, t := range axis.Ticks {
		text := []rune(strconv.FormatFloat(t, 'f', prec, 64))
		start := max(scale(t)-len(text)/2, 0)
		if start < next || start+len(text) > len(tickRow) {
			continue
		}
		copy(tickRow[start:], text)
		next = start + len(text) + 1
	}
	lines = append(lines, strings.Repeat(" ", labelWidth+2)+st.axis(strings.TrimRight(string(tickRow), " ")))
	return lines, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

// NewBarChartTool exposes BarChart as the generate_bar_chart tool. Charts are
// written to w; the tool result describes what was displayed.
func NewBarChartTool(w io.Writer) Descriptor {
	var mu sync.Mutex
	return Descriptor{
		Name:        BarChartName,
		Description: "Render a bar chart for the user. Pass one label per value.",
		Schema: ObjectSchema(map[string]*jsonschema.Schema{
			"title":  {Type: "string", Description: "Chart title"},
			"labels": {Type: "array", Items: &jsonschema.Schema{Type: "string"}, Description: "Bar labels"},
			"values": {Type: "array", Items: &jsonschema.Schema{Type: "number"}, Description: "Bar values"},
			"width":  {Type: "integer", Description: "Width of the value axis in characters"},
		}, "labels", "values"),
		Handler: func(_ context.Context, args map[string]any) (any, error) {
			data, err := json.Marshal(args)
			if err != nil {
				return nil, err
			}
			var in struct {
				Title  string    `json:"title"`
				Labels []string  `json:"labels"`
				Values []float64 `json:"values"`
				Width  int       `json:"width"`
			}
			if err := json.Unmarshal(data, &in); err != nil {
				return nil, err
			}

			chart := BarChart{Title: in.Title, Labels: in.Labels, Values: in.Values, Width: min(in.Width, 120)}
			out, err := chart.Render()
			if err != nil {
				return nil, err
			}

			mu.Lock()
			defer mu.Unlock()
			if _, err := fmt.Fprintln(w, out); err != nil {
				return nil, fmt.Errorf("display chart: %w", err)
			}
			return fmt.Sprintf("Displayed bar chart %q with %d bars.", in.Title, len(in.Values)), nil
		},
	}
}
