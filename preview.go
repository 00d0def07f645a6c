package posterizer

import (
	"image"
	"image/color"

	"github.com/lucasb-eyer/go-colorful"
)

// Preview paints the planned layers straight from the raster masks, without tracing,
// so the tonal result can be checked quickly. The canvas starts from the background
// color, or from the paper color opposite to the auto fill when the background is
// transparent.
func (p *Posterizer) Preview() (*image.RGBA, error) {
	s, err := p.snapshot()
	if err != nil {
		return nil, err
	}
	stops, err := s.plan()
	if err != nil {
		return nil, err
	}
	return Reconstruct(s.raster, Composite(stops), s.cfg), nil
}

// Reconstruct alpha-composites layers over r's masks, bottom to top.
func Reconstruct(r *Raster, layers []Layer, cfg Config) *image.RGBA {
	w, h := r.W, r.H
	recon := image.NewRGBA(image.Rect(0, 0, w, h))

	fill, _ := ParseColor(cfg.FillColor())
	paper := colorful.Color{R: 1, G: 1, B: 1}
	if !cfg.BlackOnWhite {
		paper = colorful.Color{}
	}
	if cfg.Background != Transparent {
		if bg, err := ParseColor(cfg.Background); err == nil {
			paper = bg
		}
	}

	for y := range h {
		for x := range w {
			level := int(r.GreyAt(x, y))
			out := paper
			for _, l := range layers {
				if !isForeground(level, l.Threshold, cfg.BlackOnWhite) {
					continue
				}
				out = out.BlendRgb(fill, l.Opacity)
			}
			recon.SetRGBA(x, y, color.RGBA{
				uint8(max(0, min(255, out.R*255+0.5))),
				uint8(max(0, min(255, out.G*255+0.5))),
				uint8(max(0, min(255, out.B*255+0.5))),
				255,
			})
		}
	}
	return recon
}
