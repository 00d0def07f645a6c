package posterizer

import (
	"fmt"
	"math"
)

// Tuning constants. They are empirical and kept as found.
const (
	// Fraction of a range trimmed off its unsaturated end before looking for the
	// dominant level, to stay clear of anti-aliased edge pixels.
	dominantPadding = 0.1
	// Upper bound for the dominant level window.
	maxDominantTolerance = 5
	// Lower bound for the spread strategy's span scale.
	minSpreadScale = 0.5

	// The extra stop is considered once this many layers are requested...
	extraStopMinSteps = 10
	// ...and placed no further than this from the saturated edge.
	extraStopSpan = 25
)

// ColorStop is one layer: its threshold and the visual strength it should show,
// 0 = background, 1 = fully saturated foreground.
type ColorStop struct {
	Threshold int
	Intensity float64
}

// stopRange returns the grey range a stop is responsible for: from the stop's threshold
// up to (not including) the next stop, or to the saturated edge for the last stop.
func stopRange(stops []int, index int, blackOnWhite bool) (int, int) {
	stop := stops[index]
	if blackOnWhite {
		next := -1
		if index+1 < len(stops) {
			next = stops[index+1]
		}
		return next + 1, stop
	}
	next := 256
	if index+1 < len(stops) {
		next = stops[index+1]
	}
	return stop, next - 1
}

// AssignIntensity computes each stop's intensity with the configured fill strategy.
// Stops must be ordered from least to most saturated. Spread ignores the pixels;
// under the other strategies a stop whose range holds no pixels gets intensity 0.
func AssignIntensity(stops []int, h *Histogram, cfg Config, threshold int) ([]ColorStop, error) {
	if h == nil && cfg.FillStrategy != FillSpread {
		return nil, fmt.Errorf("%w: intensity needs a histogram", ErrNotLoaded)
	}
	bow := cfg.BlackOnWhite
	fullRange := float64(colorSpan(threshold, bow))
	out := make([]ColorStop, 0, len(stops))

	for index, stop := range stops {
		cs := ColorStop{Threshold: stop}
		from, to := stopRange(stops, index, bow)
		if from > to {
			out = append(out, cs)
			continue
		}
		// Spread interpolates over the stop index alone.
		if cfg.FillStrategy == FillSpread {
			cs.Intensity = levelIntensity(spreadColor(from, to, index, len(stops), fullRange, bow), bow)
			out = append(out, cs)
			continue
		}
		st, err := h.Stats(from, to)
		if err != nil {
			return nil, err
		}
		if st.Pixels == 0 {
			out = append(out, cs)
			continue
		}

		var color float64
		switch cfg.FillStrategy {
		case FillMean:
			color = st.Mean
		case FillMedian:
			color = st.Median
		default:
			color = float64(dominantColor(h, from, to, bow))
		}
		if color >= 0 {
			cs.Intensity = levelIntensity(color, bow)
		}
		out = append(out, cs)
	}
	return out, nil
}

// spreadColor interpolates linearly across the stop index, scaled by how much of the
// grey range the threshold span covers.
func spreadColor(from, to, index, count int, fullRange float64, blackOnWhite bool) float64 {
	factor := 0.0
	if count > 1 {
		factor = float64(index) / float64(count-1)
	}
	interval := float64(to - from)
	scale := max(minSpreadScale, fullRange/255)
	if blackOnWhite {
		return float64(from) + interval*scale*factor
	}
	return float64(to) - interval*scale*factor
}

func dominantColor(h *Histogram, from, to int, blackOnWhite bool) int {
	interval := to - from
	padding := math.Round(float64(interval) * dominantPadding)
	tolerance := clampInt(interval, 1, maxDominantTolerance)
	if blackOnWhite {
		return h.DominantColor(float64(from), float64(to)-padding, tolerance)
	}
	return h.DominantColor(float64(from)+padding, float64(to), tolerance)
}

// levelIntensity maps a grey level to [0, 1], 1 at the saturated edge.
func levelIntensity(level float64, blackOnWhite bool) float64 {
	if blackOnWhite {
		level = 255 - level
	}
	return max(0, min(1, level/255))
}

// AddExtraColorStop splits the most saturated band when it is wider than 25 levels and
// not already fully saturated, to keep shadows and line art that a coarse last band
// would wash out. The new stop sits at mean ± stdDev of the band, whichever lies within
// 25 levels of the saturated edge, else exactly 25 levels from it. Its intensity is the
// mean of the pixels it covers.
func AddExtraColorStop(stops []ColorStop, h *Histogram, blackOnWhite bool) ([]ColorStop, error) {
	if len(stops) == 0 || h == nil {
		return stops, nil
	}
	last := stops[len(stops)-1]
	lastSpan := colorSpan(last.Threshold, blackOnWhite)
	if lastSpan <= extraStopSpan || last.Intensity == 1 {
		return stops, nil
	}

	from, to := 0, last.Threshold
	if !blackOnWhite {
		from, to = last.Threshold, 255
	}
	st, err := h.Stats(from, to)
	if err != nil {
		return nil, err
	}
	if st.Pixels == 0 {
		return stops, nil
	}

	// Work in distances from the saturated edge so both polarities read the same.
	mean := st.Mean
	if !blackOnWhite {
		mean = 255 - mean
	}
	var dist float64
	switch {
	case mean+st.StdDev <= extraStopSpan:
		dist = mean + st.StdDev
	case mean-st.StdDev <= extraStopSpan:
		dist = mean - st.StdDev
	default:
		dist = extraStopSpan
	}
	d := clampInt(int(math.Round(dist)), 0, lastSpan-1)

	innerFrom, innerTo, threshold := 0, d, d
	if !blackOnWhite {
		innerFrom, innerTo, threshold = 255-d, 255, 255-d
	}
	inner, err := h.Stats(innerFrom, innerTo)
	if err != nil {
		return nil, err
	}
	if inner.Pixels == 0 {
		return stops, nil
	}
	return append(stops, ColorStop{
		Threshold: threshold,
		Intensity: levelIntensity(inner.Mean, blackOnWhite),
	}), nil
}
