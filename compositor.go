package posterizer

import "math"

// Layer is a traced threshold painted with a fill opacity.
type Layer struct {
	Threshold int
	Opacity   float64
}

// Composite turns color stops, ordered from least to most saturated, into fill
// opacities for back-to-front painting. Every layer's shape contains the next one, so
// painting layer i with opacity a over the previous intensity P gives
// P + a*(1-P); solving for the stop's intensity C:
//
//	a = C                 if P == 0
//	a = (P - C) / (P - 1) otherwise
//
// P is the previous stop's intensity even when that layer was dropped. Layers whose
// opacity rounds to zero at three decimals are dropped, as are layers that cannot
// change anything because the previous intensity is already 1 or higher than theirs.
func Composite(stops []ColorStop) []Layer {
	layers := make([]Layer, 0, len(stops))
	prev := 0.0
	for _, s := range stops {
		var opacity float64
		switch {
		case prev == 0:
			opacity = s.Intensity
		case prev >= 1:
			opacity = 0
		default:
			opacity = (prev - s.Intensity) / (prev - 1)
		}
		prev = s.Intensity
		opacity = max(0, min(1, opacity))
		if roundOpacity(opacity) == 0 {
			continue
		}
		layers = append(layers, Layer{Threshold: s.Threshold, Opacity: opacity})
	}
	return layers
}

// roundOpacity rounds to the three decimals documents carry.
func roundOpacity(v float64) float64 {
	return math.Round(v*1000) / 1000
}
