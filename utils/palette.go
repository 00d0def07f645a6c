package utils

import (
	"errors"
	"image"
	"math"
	"slices"

	"github.com/cenkalti/dominantcolor"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/muesli/clusters"
	"github.com/muesli/kmeans"
	"github.com/rs/zerolog"
	"github.com/setanarut/posterizer"
)

type PaletteMethod int

const (
	PaletteMethodDominantColor PaletteMethod = iota
	PaletteMethodKMeans
)

func (m PaletteMethod) String() string {
	switch m {
	case PaletteMethodKMeans:
		return "kmeans"
	default:
		return "dominantcolor"
	}
}

// ParsePaletteMethod parses "dominantcolor" or "kmeans".
func ParsePaletteMethod(s string) (PaletteMethod, error) {
	switch s {
	case "dominantcolor", "dominant":
		return PaletteMethodDominantColor, nil
	case "kmeans":
		return PaletteMethodKMeans, nil
	}
	return 0, errors.New("unknown palette method " + s)
}

// WeightedColor is a palette candidate with its share of the image.
type WeightedColor struct {
	Col    colorful.Color
	Weight float64
}

// paletteLogger follows the logger installed with posterizer.SetLogger.
func paletteLogger() zerolog.Logger {
	return posterizer.Logger().With().Str("component", "palette").Logger()
}

// minTintWeight drops palette candidates covering less than this share of the
// strongest one; they are usually noise or anti-aliasing.
const minTintWeight = 0.05

func relativeLuminance(c colorful.Color) float64 {
	r, g, b := c.LinearRgb()
	return 0.2126*r + 0.7152*g + 0.0722*b
}

// SortByBrightness orders colors from darkest to brightest.
func SortByBrightness(palette []WeightedColor) {
	slices.SortStableFunc(palette, func(a, b WeightedColor) int {
		ya, yb := relativeLuminance(a.Col), relativeLuminance(b.Col)
		if ya < yb {
			return -1
		}
		if ya > yb {
			return 1
		}
		return 0
	})
}

// DominantPalette returns up to k weighted colors found by dominantcolor.
func DominantPalette(img image.Image, k int) []WeightedColor {
	if k <= 0 {
		return nil
	}
	out := make([]WeightedColor, 0, k)
	for _, c := range dominantcolor.FindWeight(img, k) {
		col, _ := colorful.MakeColor(c.RGBA)
		out = append(out, WeightedColor{Col: col.Clamped(), Weight: max(c.Weight, 1e-6)})
	}
	return out
}

// KMeansPalette clusters a subsample of the opaque pixels of img into k colors.
func KMeansPalette(img image.Image, k int) []WeightedColor {
	b := img.Bounds()
	width, height := b.Dx(), b.Dy()
	if k <= 0 || width == 0 || height == 0 {
		return nil
	}

	// Subsample to keep kmeans tractable on large images.
	maxSamples := 12000
	step := 1
	if width*height > maxSamples {
		step = int(math.Sqrt(float64(width*height)/float64(maxSamples))) + 1
	}
	dataset := make(clusters.Observations, 0, min(width*height, maxSamples))
	for y := b.Min.Y; y < b.Max.Y; y += step {
		for x := b.Min.X; x < b.Max.X; x += step {
			r16, g16, b16, a16 := img.At(x, y).RGBA()
			if a16 == 0 {
				continue
			}
			dataset = append(dataset, clusters.Coordinates{
				float64(r16) / 65535.0,
				float64(g16) / 65535.0,
				float64(b16) / 65535.0,
			})
		}
	}
	if len(dataset) == 0 {
		return nil
	}

	cc, err := kmeans.New().Partition(dataset, min(k, len(dataset)))
	if err != nil {
		log := paletteLogger()
		log.Warn().Err(err).Msg("kmeans palette failed")
		return nil
	}
	out := make([]WeightedColor, 0, len(cc))
	for _, c := range cc {
		if len(c.Center) < 3 || len(c.Observations) == 0 {
			continue
		}
		col := colorful.Color{R: c.Center[0], G: c.Center[1], B: c.Center[2]}.Clamped()
		out = append(out, WeightedColor{Col: col, Weight: float64(len(c.Observations))})
	}
	return out
}

// ExtractPalette runs the chosen method, falling back to dominantcolor when kmeans
// finds nothing.
func ExtractPalette(img image.Image, k int, method PaletteMethod) []WeightedColor {
	if method == PaletteMethodKMeans {
		if p := KMeansPalette(img, k); len(p) != 0 {
			return p
		}
		log := paletteLogger()
		log.Warn().Msg("kmeans returned empty palette, falling back to dominantcolor")
	}
	return DominantPalette(img, k)
}

// ForegroundTint picks a layer fill color from the image: the darkest prominent
// palette color for dark-on-light tracing, the brightest one otherwise. The tracing
// itself still works on a single grey channel; this only tints the output.
func ForegroundTint(img image.Image, method PaletteMethod, blackOnWhite bool) (colorful.Color, bool) {
	if img == nil || img.Bounds().Empty() {
		return colorful.Color{}, false
	}
	palette := ExtractPalette(img, 6, method)
	if len(palette) == 0 {
		return colorful.Color{}, false
	}
	strongest := 0.0
	for _, c := range palette {
		strongest = max(strongest, c.Weight)
	}
	palette = slices.DeleteFunc(palette, func(c WeightedColor) bool {
		return c.Weight < strongest*minTintWeight
	})
	SortByBrightness(palette)
	if blackOnWhite {
		return palette[0].Col, true
	}
	return palette[len(palette)-1].Col, true
}
