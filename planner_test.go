package posterizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func plannerConfig(threshold int, blackOnWhite bool, steps Steps, ranges RangeDistribution) Config {
	cfg := DefaultConfig()
	cfg.Threshold = threshold
	cfg.BlackOnWhite = blackOnWhite
	cfg.Steps = steps
	cfg.RangeDistribution = ranges
	return cfg
}

func TestResolveColorStopsScenarios(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want []int
	}{
		{
			name: "equal dark on light",
			cfg:  plannerConfig(200, true, StepCount(4), RangesEqual),
			want: []int{200, 150, 100, 50},
		},
		{
			name: "equal light on dark",
			cfg:  plannerConfig(155, false, StepCount(4), RangesEqual),
			want: []int{155, 180, 205, 230},
		},
		{
			name: "explicit levels get the threshold injected",
			cfg:  plannerConfig(180, true, StepLevels(20, 60, 80, 160), RangesAuto),
			want: []int{180, 160, 80, 60, 20},
		},
		{
			name: "explicit levels deduplicated and filtered",
			cfg:  plannerConfig(180, false, StepLevels(212, 16, 26, 50, 212, 128, 211), RangesAuto),
			want: []int{16, 26, 50, 128, 211, 212},
		},
		{
			name: "explicit levels drop the edges",
			cfg:  plannerConfig(100, true, StepLevels(0, 40, 255), RangesEqual),
			want: []int{100, 40},
		},
		{
			name: "explicit empty list",
			cfg:  plannerConfig(90, true, StepLevels(0, 255), RangesAuto),
			want: []int{90},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveColorStops(tt.cfg, nil, tt.cfg.Threshold)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveColorStopsAuto(t *testing.T) {
	h := histOf(map[int]int{30: 100, 90: 100, 150: 100, 230: 400})
	got, err := ResolveColorStops(plannerConfig(200, true, StepCount(3), RangesAuto), h, 200)
	require.NoError(t, err)
	assert.Equal(t, []int{200, 90, 30}, got)

	h = histOf(map[int]int{10: 400, 100: 100, 160: 100, 220: 100})
	got, err = ResolveColorStops(plannerConfig(50, false, StepCount(3), RangesAuto), h, 50)
	require.NoError(t, err)
	assert.Equal(t, []int{50, 101, 161}, got)
}

func TestAutoStopsKeepAdjacentClassesApart(t *testing.T) {
	tests := []struct {
		name      string
		counts    map[int]int
		threshold int
		bow       bool
		want      []int
	}{
		{"dark on light", map[int]int{40: 100, 41: 100, 150: 100}, 100, true, []int{100, 40}},
		{"light on dark", map[int]int{105: 100, 214: 100, 215: 100}, 155, false, []int{155, 215}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := plannerConfig(tt.threshold, tt.bow, StepCount(2), RangesAuto)
			cfg.FillStrategy = FillMean
			h := histOf(tt.counts)

			got, err := ResolveColorStops(cfg, h, tt.threshold)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			stops, err := AssignIntensity(got, h, cfg, tt.threshold)
			require.NoError(t, err)
			layers := Composite(stops)
			require.Len(t, layers, 2)

			// The first layer covers both adjacent levels, the second only the saturated one.
			r := &Raster{W: 2, H: 1, Pix: []uint8{40, 41}}
			if !tt.bow {
				r.Pix = []uint8{215, 214}
			}
			assert.Equal(t, []uint8{255, 255}, r.Mask(layers[0].Threshold, tt.bow).Pix)
			assert.Equal(t, []uint8{255, 0}, r.Mask(layers[1].Threshold, tt.bow).Pix)
		})
	}
}

func TestResolveColorStopsOneStep(t *testing.T) {
	h := histOf(map[int]int{0: 10, 1: 10})
	// A span of one leaves room for a single layer only.
	got, err := ResolveColorStops(plannerConfig(1, true, StepCount(4), RangesAuto), h, 1)
	require.NoError(t, err)
	assert.Equal(t, []int{1}, got)
}

func TestResolveColorStopsErrors(t *testing.T) {
	_, err := ResolveColorStops(plannerConfig(128, true, StepCount(3), RangesAuto), nil, 128)
	require.ErrorIs(t, err, ErrNotLoaded)

	_, err = ResolveColorStops(plannerConfig(128, true, StepCount(3), RangesEqual), nil, 300)
	require.ErrorIs(t, err, ErrInvalidRange)
}

func TestColorStopOrdering(t *testing.T) {
	hists := map[string]*Histogram{
		"flat":     flatHistogram(),
		"clusters": histOf(map[int]int{5: 10, 60: 30, 61: 3, 128: 40, 190: 2, 250: 80}),
		"black":    histOf(map[int]int{0: 100}),
	}
	stepsCases := []Steps{StepsAuto, StepCount(1), StepCount(2), StepCount(5), StepCount(255)}

	for name, h := range hists {
		for _, bow := range []bool{true, false} {
			for _, threshold := range []int{0, 1, 3, 64, 128, 201, 254, 255} {
				for _, steps := range stepsCases {
					for _, ranges := range []RangeDistribution{RangesAuto, RangesEqual} {
						if ranges == RangesAuto && steps.Count() > 3 {
							// Exhaustive search; covered by the equal distribution.
							continue
						}
						cfg := plannerConfig(threshold, bow, steps, ranges)
						got, err := ResolveColorStops(cfg, h, threshold)
						require.NoError(t, err)
						require.NotEmpty(t, got)
						assert.Equal(t, threshold, got[0], "%s bow=%v t=%d steps=%v ranges=%v", name, bow, threshold, steps, ranges)
						for i := 1; i < len(got); i++ {
							if bow {
								assert.Less(t, got[i], got[i-1])
							} else {
								assert.Greater(t, got[i], got[i-1])
							}
						}
					}
				}
			}
		}
	}
}

func TestResolveStepCount(t *testing.T) {
	tests := []struct {
		name      string
		cfg       Config
		threshold int
		want      int
	}{
		{"auto threshold and steps", plannerConfig(ThresholdAuto, true, StepsAuto, RangesAuto), 30, 4},
		{"auto steps wide span", plannerConfig(220, true, StepsAuto, RangesAuto), 220, 4},
		{"auto steps narrow span", plannerConfig(100, true, StepsAuto, RangesAuto), 100, 3},
		{"auto steps light on dark", plannerConfig(40, false, StepsAuto, RangesAuto), 40, 4},
		{"count raised to two", plannerConfig(100, true, StepCount(1), RangesAuto), 100, 2},
		{"count capped by span", plannerConfig(250, false, StepCount(10), RangesAuto), 250, 5},
		{"count kept", plannerConfig(128, true, StepCount(6), RangesAuto), 128, 6},
		{"zero span", plannerConfig(0, true, StepCount(6), RangesAuto), 0, 1},
		{"explicit", plannerConfig(180, false, StepLevels(212, 16, 26, 50, 212, 128, 211), RangesAuto), 180, 6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveStepCount(tt.cfg, tt.threshold))
		})
	}
}
