package posterizer

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// RangeStats describes the pixels of a closed grey range. Level statistics are NaN when
// the range holds no pixels; callers check Pixels first.
type RangeStats struct {
	Pixels int

	// grey values weighted by pixel count
	Mean, Median, StdDev float64
	UniqueLevels         int

	// counts over the occupied levels of the range, what a histogram plot shows as bars
	MeanPixelsPerLevel   float64
	MedianPixelsPerLevel float64
	PeakPixelsPerLevel   int
}

// Stats returns statistics for the grey range [from, to].
func (h *Histogram) Stats(from, to int) (RangeStats, error) {
	if err := checkRange(from, to); err != nil {
		return RangeStats{}, err
	}
	key := [2]int{from, to}

	h.statsMu.Lock()
	s, ok := h.stats[key]
	h.statsMu.Unlock()
	if ok {
		return s, nil
	}

	s = h.computeStats(from, to)

	h.statsMu.Lock()
	h.stats[key] = s
	h.statsMu.Unlock()
	return s, nil
}

func (h *Histogram) computeStats(from, to int) RangeStats {
	n := to - from + 1
	levels := make([]float64, 0, n)
	weights := make([]float64, 0, n)
	s := RangeStats{}
	for i := from; i <= to; i++ {
		c := h.bins[i]
		if c == 0 {
			continue
		}
		s.Pixels += c
		s.UniqueLevels++
		s.PeakPixelsPerLevel = max(s.PeakPixelsPerLevel, c)
		levels = append(levels, float64(i))
		weights = append(weights, float64(c))
	}
	if s.Pixels == 0 {
		nan := math.NaN()
		s.Mean, s.Median, s.StdDev = nan, nan, nan
		s.MeanPixelsPerLevel, s.MedianPixelsPerLevel = nan, nan
		return s
	}

	s.Mean, s.StdDev = stat.PopMeanStdDev(levels, weights)

	// Median by cumulative count in natural level order.
	target := s.Pixels / 2
	cum := 0
	for i := from; i <= to; i++ {
		cum += h.bins[i]
		if cum > 0 && cum >= target {
			s.Median = float64(i)
			break
		}
	}

	s.MeanPixelsPerLevel = float64(s.Pixels) / float64(s.UniqueLevels)

	sorted := h.sortedLevels()
	counts := make([]float64, 0, s.UniqueLevels)
	for _, lvl := range sorted {
		l := int(lvl)
		if l < from || l > to || h.bins[l] == 0 {
			continue
		}
		counts = append(counts, float64(h.bins[l]))
	}
	s.MedianPixelsPerLevel = stat.Quantile(0.5, stat.Empirical, counts, nil)
	return s
}
