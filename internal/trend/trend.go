// Package trend renders a subject's percentage history as a PNG line chart.
package trend

import (
	"errors"
	"fmt"
	"io"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/medrank/tracker/internal/model"
	"github.com/medrank/tracker/internal/score"
)

var ErrNoTests = errors.New("no tests to chart")

const (
	Width  = 720
	Height = 320
)

var (
	lineColor    = drawing.ColorFromHex("4F46E5")
	averageColor = drawing.ColorFromHex("9CA3AF")
)

// Render writes a PNG chart of one subject's percentage in each test, with the
// cross-test average drawn as a dashed line when there is more than one test.
func Render(w io.Writer, subject model.Subject, tests []model.GrandTest) error {
	if len(tests) == 0 {
		return ErrNoTests
	}

	xs := make([]float64, 0, len(tests))
	ys := make([]float64, 0, len(tests))
	ticks := make([]chart.Tick, 0, len(tests))
	minY, maxY := 0.0, 100.0
	for i, t := range tests {
		pct := float64(t.ScoreFor(subject.ID).Percentage)
		xs = append(xs, float64(i+1))
		ys = append(ys, pct)
		ticks = append(ticks, chart.Tick{Value: float64(i + 1), Label: t.Name})
		minY = min(minY, pct)
		maxY = max(maxY, pct)
	}
	// go-chart needs at least two x values to build a range.
	if len(xs) == 1 {
		xs = append(xs, xs[0]+1)
		ys = append(ys, ys[0])
	}

	series := []chart.Series{
		chart.ContinuousSeries{
			Name:    subject.Name,
			XValues: xs,
			YValues: ys,
			Style: chart.Style{
				StrokeColor: lineColor,
				StrokeWidth: 2,
				DotColor:    lineColor,
				DotWidth:    4,
			},
		},
	}
	if len(tests) > 1 {
		mean := score.Mean(tests, subject.ID)
		series = append(series, chart.ContinuousSeries{
			Name:    fmt.Sprintf("Avg %.1f%%", mean),
			XValues: []float64{xs[0], xs[len(xs)-1]},
			YValues: []float64{mean, mean},
			Style: chart.Style{
				StrokeColor:     averageColor,
				StrokeWidth:     1,
				StrokeDashArray: []float64{5, 5},
			},
		})
	}

	ch := chart.Chart{
		Title:      fmt.Sprintf("%s (%s)", subject.Name, subject.Category.Label()),
		Width:      Width,
		Height:     Height,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		XAxis:      chart.XAxis{Ticks: ticks},
		YAxis: chart.YAxis{
			Name:           "%",
			Range:          &chart.ContinuousRange{Min: minY, Max: maxY},
			ValueFormatter: func(v interface{}) string { return fmt.Sprintf("%.0f", v) },
		},
		Series: series,
	}
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}

	if err := ch.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	return nil
}
