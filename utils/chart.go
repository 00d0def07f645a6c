package utils

import (
	"errors"
	"fmt"
	"io"

	"github.com/setanarut/posterizer"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

const xtickEvery = 32

// thresholdLine creates a vertical marker at level x spanning 0..top.
func thresholdLine(x, top float64, c drawing.Color) chart.ContinuousSeries {
	return chart.ContinuousSeries{
		XValues: []float64{x, x},
		YValues: []float64{0, top},
		Style: chart.Style{
			StrokeColor:     c,
			StrokeDashArray: []float64{5.0, 5.0},
		},
	}
}

// HistogramChart plots the grey level counts of h with a marker per color stop and
// writes it to w as PNG. The first stop, the binary threshold, is drawn in red.
func HistogramChart(h *posterizer.Histogram, stops []int, title string, w io.Writer) error {
	if h == nil || h.Pixels() == 0 {
		return errors.New("empty histogram")
	}
	bins := h.Bins()
	xvalues := make([]float64, posterizer.Levels)
	yvalues := make([]float64, posterizer.Levels)
	peak := 0.0
	for i, c := range bins {
		xvalues[i] = float64(i)
		yvalues[i] = float64(c)
		peak = max(peak, float64(c))
	}

	var ticks []chart.Tick
	for i := 0; i < posterizer.Levels; i += xtickEvery {
		ticks = append(ticks, chart.Tick{Value: float64(i), Label: fmt.Sprintf("%d", i)})
	}
	ticks = append(ticks, chart.Tick{Value: 255, Label: "255"})

	series := []chart.Series{
		chart.ContinuousSeries{
			Style: chart.Style{
				StrokeColor: chart.ColorBlue,
				FillColor:   chart.ColorAlternateBlue,
			},
			XValues: xvalues,
			YValues: yvalues,
		},
	}
	var annotations []chart.Value2
	for i, s := range stops {
		c := chart.ColorAlternateGray
		if i == 0 {
			c = chart.ColorRed
		}
		series = append(series, thresholdLine(float64(s), peak, c))
		annotations = append(annotations, chart.Value2{Label: fmt.Sprintf("%d", s), XValue: float64(s), YValue: peak})
	}
	series = append(series, chart.AnnotationSeries{Annotations: annotations})

	graph := chart.Chart{
		Title:  title,
		Width:  1280,
		Height: 720,
		XAxis: chart.XAxis{
			Name:  "Grey level",
			Range: &chart.ContinuousRange{Min: 0, Max: 255},
			Ticks: ticks,
		},
		YAxis: chart.YAxis{
			Name:  "Pixels",
			Range: &chart.ContinuousRange{Min: 0, Max: peak},
		},
		Series: series,
	}
	return graph.Render(chart.PNG, w)
}
