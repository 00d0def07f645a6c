package utils

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	"github.com/setanarut/posterizer"
)

// SaveImage writes img as PNG.
func SaveImage(img image.Image, filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, img)
}

// SaveMasks writes the binary mask of every layer to dir as mask_<index>_<threshold>.png
// and returns the written paths.
func SaveMasks(r *posterizer.Raster, layers []posterizer.Layer, blackOnWhite bool, dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	paths := make([]string, 0, len(layers))
	for i, l := range layers {
		name := filepath.Join(dir, fmt.Sprintf("mask_%02d_%03d.png", i, l.Threshold))
		if err := SaveImage(r.Mask(l.Threshold, blackOnWhite), name); err != nil {
			return paths, err
		}
		paths = append(paths, name)
	}
	return paths, nil
}
