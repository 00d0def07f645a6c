package posterizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intensityConfig(blackOnWhite bool, fill FillStrategy) Config {
	cfg := DefaultConfig()
	cfg.BlackOnWhite = blackOnWhite
	cfg.FillStrategy = fill
	return cfg
}

func TestAssignIntensityDarkOnLight(t *testing.T) {
	h := histOf(map[int]int{180: 10, 120: 10, 60: 10, 20: 10, 240: 100})
	stops := []int{200, 150, 100, 50}

	for _, fill := range []FillStrategy{FillMean, FillMedian} {
		t.Run(fill.String(), func(t *testing.T) {
			got, err := AssignIntensity(stops, h, intensityConfig(true, fill), 200)
			require.NoError(t, err)
			require.Len(t, got, 4)
			for i, lvl := range []float64{180, 120, 60, 20} {
				assert.Equal(t, stops[i], got[i].Threshold)
				assert.InDelta(t, (255-lvl)/255, got[i].Intensity, 1e-9)
			}
		})
	}

	t.Run("dominant", func(t *testing.T) {
		got, err := AssignIntensity(stops, h, intensityConfig(true, FillDominant), 200)
		require.NoError(t, err)
		for i, lvl := range []float64{180, 120, 60, 20} {
			// The window may pick a level a few steps before the peak.
			assert.InDelta(t, (255-lvl)/255, got[i].Intensity, float64(maxDominantTolerance)/255)
		}
	})

	t.Run("spread", func(t *testing.T) {
		got, err := AssignIntensity(stops, h, intensityConfig(true, FillSpread), 200)
		require.NoError(t, err)
		scale := 200.0 / 255
		assert.InDelta(t, (255.0-151)/255, got[0].Intensity, 1e-9)
		assert.InDelta(t, (255-(101+49*scale/3))/255, got[1].Intensity, 1e-9)
		assert.InDelta(t, (255-50*scale)/255, got[3].Intensity, 1e-9)
	})
}

func TestAssignIntensityLightOnDark(t *testing.T) {
	h := histOf(map[int]int{170: 5, 190: 5, 215: 5, 240: 5, 10: 100})
	stops := []int{155, 180, 205, 230}
	got, err := AssignIntensity(stops, h, intensityConfig(false, FillMean), 155)
	require.NoError(t, err)
	for i, lvl := range []float64{170, 190, 215, 240} {
		assert.InDelta(t, lvl/255, got[i].Intensity, 1e-9)
	}

	got, err = AssignIntensity(stops, h, intensityConfig(false, FillSpread), 155)
	require.NoError(t, err)
	// Spread scale bottoms out at one half.
	assert.InDelta(t, 179.0/255, got[0].Intensity, 1e-9)
	assert.InDelta(t, (255-25*0.5)/255, got[3].Intensity, 1e-9)
}

func TestAssignIntensityEmptyRange(t *testing.T) {
	h := histOf(map[int]int{240: 10, 180: 10})
	for _, fill := range []FillStrategy{FillDominant, FillMean, FillMedian} {
		got, err := AssignIntensity([]int{200, 150}, h, intensityConfig(true, fill), 200)
		require.NoError(t, err)
		assert.Greater(t, got[0].Intensity, 0.0, fill.String())
		assert.Zero(t, got[1].Intensity, fill.String())
	}
}

func TestAssignIntensitySpreadIgnoresPixels(t *testing.T) {
	cfg := intensityConfig(true, FillSpread)
	empty, err := AssignIntensity([]int{200, 150}, histOf(map[int]int{240: 10, 180: 10}), cfg, 200)
	require.NoError(t, err)
	filled, err := AssignIntensity([]int{200, 150}, histOf(map[int]int{240: 10, 180: 10, 100: 1}), cfg, 200)
	require.NoError(t, err)

	assert.Equal(t, filled, empty)
	without, err := AssignIntensity([]int{200, 150}, nil, cfg, 200)
	require.NoError(t, err)
	assert.Equal(t, empty, without)
	// [0, 150] at factor 1 with scale 200/255.
	assert.InDelta(t, (255-150*200.0/255)/255, empty[1].Intensity, 1e-9)
	assert.Greater(t, empty[1].Intensity, 0.0)
}

func TestAssignIntensityNeedsHistogram(t *testing.T) {
	_, err := AssignIntensity([]int{128}, nil, DefaultConfig(), 128)
	require.ErrorIs(t, err, ErrNotLoaded)
}

func TestAddExtraColorStop(t *testing.T) {
	t.Run("dark on light", func(t *testing.T) {
		h := histOf(map[int]int{10: 10, 40: 10, 200: 50})
		stops := []ColorStop{{Threshold: 128, Intensity: 0.2}, {Threshold: 50, Intensity: 0.8}}
		got, err := AddExtraColorStop(stops, h, true)
		require.NoError(t, err)
		require.Len(t, got, 3)
		// mean 25, stdDev 15: mean-stdDev lies within 25 of black.
		assert.Equal(t, 10, got[2].Threshold)
		assert.InDelta(t, 245.0/255, got[2].Intensity, 1e-9)
	})

	t.Run("light on dark", func(t *testing.T) {
		h := histOf(map[int]int{215: 10, 245: 10, 30: 50})
		stops := []ColorStop{{Threshold: 128, Intensity: 0.2}, {Threshold: 205, Intensity: 0.8}}
		got, err := AddExtraColorStop(stops, h, false)
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, 245, got[2].Threshold)
		assert.InDelta(t, 245.0/255, got[2].Intensity, 1e-9)
	})

	t.Run("falls back to the span limit", func(t *testing.T) {
		h := histOf(map[int]int{20: 1, 100: 10})
		stops := []ColorStop{{Threshold: 120, Intensity: 0.5}}
		got, err := AddExtraColorStop(stops, h, true)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, extraStopSpan, got[1].Threshold)
		assert.InDelta(t, 235.0/255, got[1].Intensity, 1e-9)
	})

	unchanged := []struct {
		name  string
		h     *Histogram
		stops []ColorStop
	}{
		{"saturated", histOf(map[int]int{10: 10, 40: 10}), []ColorStop{{Threshold: 50, Intensity: 1}}},
		{"narrow band", histOf(map[int]int{10: 10}), []ColorStop{{Threshold: 20, Intensity: 0.9}}},
		{"empty band", histOf(map[int]int{200: 10}), []ColorStop{{Threshold: 50, Intensity: 0.9}}},
		{"empty inner band", histOf(map[int]int{45: 10, 49: 10}), []ColorStop{{Threshold: 50, Intensity: 0.9}}},
		{"no stops", histOf(map[int]int{10: 10}), nil},
	}
	for _, tt := range unchanged {
		t.Run(tt.name, func(t *testing.T) {
			got, err := AddExtraColorStop(tt.stops, tt.h, true)
			require.NoError(t, err)
			assert.Equal(t, tt.stops, got)
		})
	}
}
