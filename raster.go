package posterizer

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"strings"
)

// Channel selects how a color pixel is reduced to a single grey level.
type Channel int

const (
	ChannelLuminance Channel = iota
	ChannelRed
	ChannelGreen
	ChannelBlue
)

func (c Channel) String() string {
	switch c {
	case ChannelRed:
		return "r"
	case ChannelGreen:
		return "g"
	case ChannelBlue:
		return "b"
	default:
		return "luminance"
	}
}

// ParseChannel parses "luminance", "r", "g" or "b". Full color names are accepted too.
func ParseChannel(s string) (Channel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "luminance", "luma", "l":
		return ChannelLuminance, nil
	case "r", "red":
		return ChannelRed, nil
	case "g", "green":
		return ChannelGreen, nil
	case "b", "blue":
		return ChannelBlue, nil
	}
	return 0, fmt.Errorf("%w: unknown channel %q", ErrInvalidConfig, s)
}

// Rec. 709 luma weights.
const (
	lumaR = 0.2126
	lumaG = 0.7153
	lumaB = 0.0721
)

// maxRasterPixels guards against images with unbounded or absurd bounds
// (image.Uniform reports a near-infinite rectangle).
const maxRasterPixels = 1 << 28

// Raster is an 8-bit single channel image, one grey level per pixel.
type Raster struct {
	W, H int
	Pix  []uint8 // len = W*H, row major
}

// NewRaster reduces img to grey levels. Transparent pixels are composited over white
// first, so an empty alpha area reads as background.
func NewRaster(img image.Image, ch Channel) (*Raster, error) {
	if img == nil {
		return nil, fmt.Errorf("%w: nil image", ErrUnsupportedSource)
	}
	if ch < ChannelLuminance || ch > ChannelBlue {
		return nil, fmt.Errorf("%w: unknown channel %d", ErrUnsupportedSource, ch)
	}
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w < 0 || h < 0 || (h > 0 && w > maxRasterPixels/h) {
		return nil, fmt.Errorf("%w: bounds %v cannot be materialized", ErrUnsupportedSource, bounds)
	}
	r := &Raster{
		W:   w,
		H:   h,
		Pix: make([]uint8, w*h),
	}
	if g, ok := img.(*image.Gray); ok && ch == ChannelLuminance {
		for y := range h {
			copy(r.Pix[y*w:(y+1)*w], g.Pix[g.PixOffset(bounds.Min.X, bounds.Min.Y+y):])
		}
		return r, nil
	}
	for y := range h {
		for x := range w {
			r.Pix[y*w+x] = reduce(img.At(bounds.Min.X+x, bounds.Min.Y+y), ch)
		}
	}
	return r, nil
}

func reduce(c color.Color, ch Channel) uint8 {
	// RGBA() is alpha-premultiplied, adding the missing coverage composites over white.
	r16, g16, b16, a16 := c.RGBA()
	bg := 0xffff - a16
	rf := float64(r16+bg) / 257
	gf := float64(g16+bg) / 257
	bf := float64(b16+bg) / 257
	var v float64
	switch ch {
	case ChannelRed:
		v = rf
	case ChannelGreen:
		v = gf
	case ChannelBlue:
		v = bf
	default:
		v = lumaR*rf + lumaG*gf + lumaB*bf
	}
	return uint8(max(0, min(255, math.Round(v))))
}

// GreyAt returns the grey level at x, y.
func (r *Raster) GreyAt(x, y int) uint8 {
	return r.Pix[y*r.W+x]
}

// Bounds returns the raster rectangle anchored at the origin.
func (r *Raster) Bounds() image.Rectangle {
	return image.Rect(0, 0, r.W, r.H)
}

// Mask binarizes the raster at threshold. Foreground pixels are 255: levels at or
// below the threshold for blackOnWhite, at or above it otherwise.
func (r *Raster) Mask(threshold int, blackOnWhite bool) *image.Gray {
	mask := image.NewGray(r.Bounds())
	for i, v := range r.Pix {
		if isForeground(int(v), threshold, blackOnWhite) {
			mask.Pix[i] = 255
		}
	}
	return mask
}

func isForeground(level, threshold int, blackOnWhite bool) bool {
	if blackOnWhite {
		return level <= threshold
	}
	return level >= threshold
}
