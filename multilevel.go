package posterizer

import (
	"gonum.org/v1/gonum/mat"
)

// slowThresholdCount is the threshold count above which the exhaustive search gets
// noticeably slow.
const slowThresholdCount = 4

// MultilevelThresholds partitions [from, to] into k+1 classes maximizing the
// between-class variance (multilevel Otsu) and returns the k boundaries in ascending
// order. A boundary t starts a class, so the classes are [from, t1-1], [t1, t2-1], ...,
// [tk, to] with from < t1 < ... < tk < to. k is clamped to [1, to-from-1]; a range
// narrower than three levels has no interior boundary and yields an empty result. The
// first optimum found under ascending enumeration wins, and a histogram with nothing to
// separate in the range yields an empty result. For k == 1 the result is AutoThreshold.
//
// The search is exhaustive and its cost grows exponentially with k.
func (h *Histogram) MultilevelThresholds(k, from, to int) ([]int, error) {
	if err := checkRange(from, to); err != nil {
		return nil, err
	}
	if to-from-1 < 1 {
		return nil, nil
	}
	k = max(1, min(k, to-from-1))
	if k == 1 {
		t, err := h.AutoThreshold(from, to)
		if err != nil {
			return nil, err
		}
		return []int{t}, nil
	}
	if k > slowThresholdCount {
		log := componentLogger("histogram")
		log.Warn().
			Int("thresholds", k).
			Int("from", from).
			Int("to", to).
			Msg("multilevel threshold search for this many levels may take a long time")
	}

	raw := h.lookupTable().RawTriangular()
	H := func(i, j int) float64 {
		return raw.Data[i*raw.Stride+j]
	}

	var (
		best   float64
		result []int
		cur    = make([]int, k)
	)
	var search func(depth, start int, score float64)
	search = func(depth, start int, score float64) {
		last := to - 1 - (k - depth)
		for t := start + 1; t <= last; t++ {
			s := score + H(start, t-1)
			cur[depth-1] = t
			if depth < k {
				search(depth+1, t, s)
				continue
			}
			s += H(t, to)
			if s > best {
				best = s
				result = append(result[:0], cur...)
			}
		}
	}
	search(1, from, 0)
	return result, nil
}

// lookupTable returns H where H[i][j] = S(i,j)^2 / P(i,j) for the class [i, j], with
// P the fraction of all pixels in the class and S its first moment. Zero when the class
// is empty.
func (h *Histogram) lookupTable() *mat.TriDense {
	h.tableOnce.Do(func() {
		t := mat.NewTriDense(Levels, mat.Upper, nil)
		if h.pixels == 0 {
			h.table = t
			return
		}
		total := float64(h.pixels)
		var cumCount, cumMoment [Levels + 1]int
		for i, c := range h.bins {
			cumCount[i+1] = cumCount[i] + c
			cumMoment[i+1] = cumMoment[i] + i*c
		}
		for i := range Levels {
			for j := i; j < Levels; j++ {
				n := cumCount[j+1] - cumCount[i]
				if n == 0 {
					continue
				}
				p := float64(n) / total
				s := float64(cumMoment[j+1]-cumMoment[i]) / total
				t.SetTri(i, j, s*s/p)
			}
		}
		h.table = t
	})
	return h.table
}
