package raster

import (
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"
)

// fitLongEdge resamples src so its longer side is exactly target pixels,
// keeping the aspect ratio. Transparent areas are flattened onto white.
func fitLongEdge(src image.Image, target int) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	long := max(w, h)
	if target <= 0 || long == 0 {
		return src
	}

	scale := float64(target) / float64(long)
	nw := max(1, int(math.Round(float64(w)*scale)))
	nh := max(1, int(math.Round(float64(h)*scale)))

	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	draw.Draw(dst, dst.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
	return dst
}
