package export

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/san-kum/episim/internal/epidemic"
)

var ErrNotEnoughData = errors.New("history needs at least two samples over a non-zero time span")

type Format string

const (
	PNG Format = "png"
	SVG Format = "svg"
)

// FormatFromPath picks the chart format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return PNG, nil
	case ".svg":
		return SVG, nil
	default:
		return "", fmt.Errorf("unsupported chart format: %q", filepath.Ext(path))
	}
}

var (
	colorInfected    = drawing.Color{R: 255, G: 0, B: 0, A: 255}
	colorSusceptible = drawing.Color{R: 0, G: 0, B: 255, A: 255}
	colorRecovered   = drawing.Color{R: 160, G: 160, B: 160, A: 255}
)

type ChartOptions struct {
	Width  int
	Height int
	Title  string
}

func DefaultChartOptions() ChartOptions {
	return ChartOptions{Width: 1024, Height: 400}
}

// StackedSeries returns the layers of the SIR area chart: infected,
// infected+susceptible and infected+susceptible+recovered.
func StackedSeries(h epidemic.History) (inf, infSus, total []float64) {
	n := h.Len()
	inf = make([]float64, n)
	infSus = make([]float64, n)
	total = make([]float64, n)
	for i := 0; i < n; i++ {
		inf[i] = h.Infected[i]
		infSus[i] = inf[i] + h.Susceptible[i]
		total[i] = infSus[i] + h.Recovered[i]
	}
	return inf, infSus, total
}

// RenderChart draws h as a stacked area chart.
func RenderChart(w io.Writer, h epidemic.History, format Format, opts ChartOptions) error {
	if h.Len() < 2 || h.LastTime() <= h.Times[0] {
		return ErrNotEnoughData
	}

	var provider chart.RendererProvider
	switch format {
	case PNG:
		provider = chart.PNG
	case SVG:
		provider = chart.SVG
	default:
		return fmt.Errorf("unsupported chart format: %q", format)
	}

	inf, infSus, total := StackedSeries(h)
	last := h.Len() - 1

	layer := func(name string, ys []float64, c drawing.Color) chart.ContinuousSeries {
		return chart.ContinuousSeries{
			Name:    name,
			XValues: h.Times,
			YValues: ys,
			Style: chart.Style{
				StrokeColor: c,
				StrokeWidth: 2,
				FillColor:   c.WithAlpha(180),
			},
		}
	}

	// drawn back to front so the smaller layers stay visible
	graph := chart.Chart{
		Title:  opts.Title,
		Width:  opts.Width,
		Height: opts.Height,
		Background: chart.Style{
			Padding: chart.Box{Top: 20, Left: 20, Right: 20, Bottom: 20},
		},
		XAxis: chart.XAxis{
			Name:  "Time (s)",
			Style: chart.Style{FontSize: 10},
		},
		YAxis: chart.YAxis{
			Name:  "Percentage",
			Style: chart.Style{FontSize: 10},
			Range: &chart.ContinuousRange{Min: 0, Max: 100},
		},
		Series: []chart.Series{
			layer(fmt.Sprintf("%.1f%% recovered", h.Recovered[last]), total, colorRecovered),
			layer(fmt.Sprintf("%.1f%% susceptible", h.Susceptible[last]), infSus, colorSusceptible),
			layer(fmt.Sprintf("%.1f%% infected", h.Infected[last]), inf, colorInfected),
		},
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	return graph.Render(provider, w)
}
