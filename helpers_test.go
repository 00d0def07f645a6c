package posterizer

import (
	"image"
	"image/color"
)

func makeSolidNRGBA(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			i := img.PixOffset(x, y)
			img.Pix[i+0] = c.R
			img.Pix[i+1] = c.G
			img.Pix[i+2] = c.B
			img.Pix[i+3] = c.A
		}
	}
	return img
}

// makeGray lays the given levels out row by row, repeating each level count times.
func makeGray(w int, counts map[uint8]int) *image.Gray {
	total := 0
	for _, n := range counts {
		total += n
	}
	h := (total + w - 1) / w
	img := image.NewGray(image.Rect(0, 0, w, h))
	// Levels are laid out in ascending order; the last row is padded with the last level.
	i := 0
	for lvl := range Levels {
		for range counts[uint8(lvl)] {
			img.Pix[i] = uint8(lvl)
			i++
		}
	}
	for ; i < len(img.Pix); i++ {
		img.Pix[i] = img.Pix[i-1]
	}
	return img
}

func histOf(counts map[int]int) *Histogram {
	var bins [Levels]int
	for lvl, n := range counts {
		bins[lvl] = n
	}
	return HistogramFromCounts(bins)
}

func flatHistogram() *Histogram {
	var bins [Levels]int
	for i := range bins {
		bins[i] = 1
	}
	return HistogramFromCounts(bins)
}
