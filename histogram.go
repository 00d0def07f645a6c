package posterizer

import (
	"fmt"
	"math"
	"slices"
	"sync"

	"gonum.org/v1/gonum/mat"
)

// Levels is the number of grey levels a Histogram counts.
const Levels = 256

// Histogram is a 256 bucket count of grey levels. It is immutable after construction;
// derived data (sorted levels, range stats, the multilevel lookup table) is computed on
// first use and kept for the histogram's lifetime.
type Histogram struct {
	bins   [Levels]int
	pixels int

	sortedOnce sync.Once
	sorted     [Levels]uint8 // levels by ascending count, ties by level

	statsMu sync.Mutex
	stats   map[[2]int]RangeStats

	tableOnce sync.Once
	table     *mat.TriDense // H[i][j] for the class [i, j]
}

// NewHistogram counts the grey levels of r.
func NewHistogram(r *Raster) (*Histogram, error) {
	if r == nil {
		return nil, fmt.Errorf("%w: nil raster", ErrUnsupportedSource)
	}
	var bins [Levels]int
	for _, v := range r.Pix {
		bins[v]++
	}
	return HistogramFromCounts(bins), nil
}

// HistogramFromCounts builds a histogram from precomputed bucket counts.
// Negative counts are treated as zero.
func HistogramFromCounts(bins [Levels]int) *Histogram {
	h := &Histogram{stats: make(map[[2]int]RangeStats)}
	for i, c := range bins {
		c = max(c, 0)
		h.bins[i] = c
		h.pixels += c
	}
	return h
}

// Bins returns a copy of the bucket counts.
func (h *Histogram) Bins() [Levels]int {
	return h.bins
}

// Pixels returns the number of counted pixels.
func (h *Histogram) Pixels() int {
	return h.pixels
}

func (h *Histogram) sortedLevels() [Levels]uint8 {
	h.sortedOnce.Do(func() {
		idx := make([]int, Levels)
		for i := range idx {
			idx[i] = i
		}
		slices.SortStableFunc(idx, func(a, b int) int {
			return h.bins[a] - h.bins[b]
		})
		for i, v := range idx {
			h.sorted[i] = uint8(v)
		}
	})
	return h.sorted
}

func checkRange(from, to int) error {
	if from < 0 || to > Levels-1 || from > to {
		return fmt.Errorf("%w: [%d, %d], bounds must satisfy 0 <= from <= to <= 255", ErrInvalidRange, from, to)
	}
	return nil
}

// ============ OTSU ============

// AutoThreshold finds the binary threshold of the range [from, to] with Otsu's method.
// A candidate level i splits the range into [from, i-1] and [i, to]; the first level
// with the greatest between-class variance wins. An empty range yields from, a range
// holding a single occupied level yields that level.
func (h *Histogram) AutoThreshold(from, to int) (int, error) {
	if err := checkRange(from, to); err != nil {
		return 0, err
	}

	var pixels, sum float64
	occupied, single := 0, from
	for i := from; i <= to; i++ {
		c := float64(h.bins[i])
		pixels += c
		sum += float64(i) * c
		if h.bins[i] > 0 {
			occupied++
			single = i
		}
	}
	switch occupied {
	case 0:
		return from, nil
	case 1:
		return single, nil
	}

	var wB, sumB, best float64
	threshold := from
	for i := from + 1; i <= to; i++ {
		c := float64(h.bins[i-1])
		wB += c
		sumB += float64(i-1) * c
		if wB == 0 {
			continue
		}
		wF := pixels - wB
		if wF == 0 {
			break
		}
		mB := sumB / wB
		mF := (sum - sumB) / wF
		between := wB * wF * (mB - mF) * (mB - mF)
		if between > best {
			best = between
			threshold = i
		}
	}
	return threshold, nil
}

// ============ DOMINANT LEVEL ============

// DominantColor returns the level in [lower, upper] whose neighbourhood holds the most
// pixels. The neighbourhood spans offsets tolerance/-2 .. tolerance-1 around the level,
// clipped to 0..255. Bounds are rounded and swapped when inverted. It returns lower
// without searching when both bounds round to the same level and -1 when the searched
// windows hold no pixels.
func (h *Histogram) DominantColor(lower, upper float64, tolerance int) int {
	lo := int(math.Round(lower))
	hi := int(math.Round(upper))
	if tolerance < 1 {
		tolerance = 1
	}
	if lo == hi {
		return lo
	}
	if lo > hi {
		lo, hi = hi, lo
	}
	lo = clampInt(lo, 0, Levels-1)
	hi = clampInt(hi, 0, Levels-1)

	dominant, best := -1, 0
	for i := lo; i <= hi; i++ {
		sum := 0
		for j := tolerance / -2; j < tolerance; j++ {
			if k := i + j; k >= 0 && k < Levels {
				sum += h.bins[k]
			}
		}
		if sum > best {
			dominant = i
			best = sum
		}
	}
	return dominant
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
