package posterizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComposite(t *testing.T) {
	tests := []struct {
		name  string
		stops []ColorStop
		want  []Layer
	}{
		{
			name:  "equal intensities drop the second layer",
			stops: []ColorStop{{200, 0.3}, {100, 0.3}},
			want:  []Layer{{200, 0.3}},
		},
		{
			name:  "full intensity on top",
			stops: []ColorStop{{200, 0.6}, {100, 1.0}},
			want:  []Layer{{200, 0.6}, {100, 1.0}},
		},
		{
			name:  "zero first stop",
			stops: []ColorStop{{200, 0}, {100, 0.4}},
			want:  []Layer{{100, 0.4}},
		},
		{
			name:  "decreasing intensity is clamped away",
			stops: []ColorStop{{200, 0.8}, {100, 0.5}},
			want:  []Layer{{200, 0.8}},
		},
		{
			name:  "nothing left after full intensity",
			stops: []ColorStop{{200, 1}, {100, 1}},
			want:  []Layer{{200, 1}},
		},
		{
			name:  "no stops",
			stops: nil,
			want:  []Layer{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Composite(tt.stops)
			require.Len(t, got, len(tt.want))
			for i := range tt.want {
				assert.Equal(t, tt.want[i].Threshold, got[i].Threshold)
				assert.InDelta(t, tt.want[i].Opacity, got[i].Opacity, 1e-9)
			}
		})
	}
}

func TestCompositeReproducesIntensity(t *testing.T) {
	stops := []ColorStop{{220, 0.1}, {180, 0.25}, {120, 0.5}, {60, 0.75}, {20, 0.95}}
	layers := Composite(stops)
	require.Len(t, layers, len(stops))

	// Painting each layer over the previous result yields that stop's intensity.
	covered := 0.0
	for i, l := range layers {
		covered += l.Opacity * (1 - covered)
		assert.InDelta(t, stops[i].Intensity, covered, 1e-9)
	}
}

func TestCompositeDropsRoundedZero(t *testing.T) {
	layers := Composite([]ColorStop{{200, 0.0004}, {100, 0.5}})
	require.Len(t, layers, 1)
	assert.Equal(t, 100, layers[0].Threshold)
	// The dropped stop still counts as the previous intensity.
	assert.InDelta(t, (0.0004-0.5)/(0.0004-1), layers[0].Opacity, 1e-12)
}
