package posterizer

import (
	"fmt"
	"math"
	"slices"
)

// defaultAutoSteps is the layer count when both threshold and steps are automatic.
const defaultAutoSteps = 4

// wideSpan is the color span above which automatic steps use 4 layers instead of 3.
const wideSpan = 200

// colorSpan is the distance from the threshold to the saturated edge of the grey range.
func colorSpan(threshold int, blackOnWhite bool) int {
	if blackOnWhite {
		return threshold
	}
	return 255 - threshold
}

// saturatedEdge is 0 for dark foregrounds, 255 for light ones.
func saturatedEdge(blackOnWhite bool) int {
	if blackOnWhite {
		return 0
	}
	return 255
}

// ResolveStepCount returns the number of layers cfg asks for once the binary
// threshold is known.
func ResolveStepCount(cfg Config, threshold int) int {
	if cfg.Steps.IsExplicit() {
		return max(1, len(explicitLevels(cfg.Steps.Levels(), cfg.BlackOnWhite)))
	}
	if cfg.Threshold == ThresholdAuto && cfg.Steps.IsAuto() {
		return defaultAutoSteps
	}
	span := colorSpan(threshold, cfg.BlackOnWhite)
	if cfg.Steps.IsAuto() {
		if span > wideSpan {
			return 4
		}
		return 3
	}
	return max(1, min(span, max(2, cfg.Steps.Count())))
}

// explicitLevels deduplicates levels, drops anything outside (0, 255) and orders the
// rest from least to most saturated.
func explicitLevels(levels []int, blackOnWhite bool) []int {
	out := make([]int, 0, len(levels))
	for _, v := range levels {
		if v > 0 && v < 255 && !slices.Contains(out, v) {
			out = append(out, v)
		}
	}
	slices.Sort(out)
	if blackOnWhite {
		slices.Reverse(out)
	}
	return out
}

// ResolveColorStops returns the thresholds of every layer ordered from least to most
// saturated. The histogram is only consulted for automatic range distribution.
func ResolveColorStops(cfg Config, h *Histogram, threshold int) ([]int, error) {
	if threshold < 0 || threshold > 255 {
		return nil, fmt.Errorf("%w: threshold %d", ErrInvalidRange, threshold)
	}
	if cfg.Steps.IsExplicit() {
		return explicitColorStops(cfg, threshold), nil
	}
	if cfg.RangeDistribution == RangesEqual {
		return equalColorStops(cfg, threshold), nil
	}
	if h == nil {
		return nil, fmt.Errorf("%w: automatic ranges need a histogram", ErrNotLoaded)
	}
	return autoColorStops(cfg, h, threshold)
}

func explicitColorStops(cfg Config, threshold int) []int {
	stops := explicitLevels(cfg.Steps.Levels(), cfg.BlackOnWhite)
	if len(stops) == 0 {
		return []int{threshold}
	}
	// The binary threshold always bounds the stack on the background side.
	if (cfg.BlackOnWhite && stops[0] < threshold) || (!cfg.BlackOnWhite && stops[0] > threshold) {
		stops = slices.Insert(stops, 0, threshold)
	}
	return stops
}

func equalColorStops(cfg Config, threshold int) []int {
	span := colorSpan(threshold, cfg.BlackOnWhite)
	steps := min(ResolveStepCount(cfg, threshold), span)
	if steps < 1 {
		return []int{threshold}
	}
	stepSize := float64(span) / float64(steps)
	stops := make([]int, 0, steps)
	for i := steps - 1; i >= 0; i-- {
		v := int(math.Round(min(float64(span), float64(i+1)*stepSize)))
		if !cfg.BlackOnWhite {
			v = 255 - v
		}
		stops = append(stops, v)
	}
	return stops
}

func autoColorStops(cfg Config, h *Histogram, threshold int) ([]int, error) {
	steps := ResolveStepCount(cfg, threshold)
	if steps <= 1 {
		return []int{threshold}, nil
	}
	from, to := 0, threshold
	if !cfg.BlackOnWhite {
		from, to = threshold, 255
	}
	levels, err := h.MultilevelThresholds(steps-1, from, to)
	if err != nil {
		return nil, err
	}
	// Degenerate ranges can put a boundary on the range edge; keep interior ones only.
	levels = slices.DeleteFunc(levels, func(v int) bool {
		return v <= from || v >= to
	})
	if cfg.BlackOnWhite {
		// A boundary is the first level of the lighter class, and a dark layer covers
		// grey <= stop, so the stop sits one level below it.
		for i := range levels {
			levels[i]--
		}
		stops := append(levels, threshold)
		slices.Reverse(stops)
		return stops, nil
	}
	return slices.Insert(levels, 0, threshold), nil
}
